package utils

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// GenerateID returns a new unique identifier string
func GenerateID() string {
	return uuid.New().String()
}

// GenerateItemID returns a new lexically sortable item identifier
func GenerateItemID() string {
	return ulid.Make().String()
}

// ValidItemID reports whether id is a well-formed item identifier
func ValidItemID(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}
