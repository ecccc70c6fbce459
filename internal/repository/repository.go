package repository

import (
	"context"

	model "auction-backend/internal/models"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// BidDecider inspects the persisted state of an item and returns the bid to append, or an error
// to reject it. It runs while the store holds the item exclusively, so it must not block.
type BidDecider func(item model.AuctionItem) (model.Bid, error)

// AuctionDB defines the item and bid storage interface for the auction system
type AuctionDB interface {
	// InsertItem stores a new item. The item ID is assigned by the caller.
	InsertItem(ctx context.Context, item model.AuctionItem) error
	GetItem(ctx context.Context, itemID string) (model.AuctionItem, error)
	// ListItems returns every item in insertion order
	ListItems(ctx context.Context) ([]model.AuctionItem, error)
	// UpdateItem replaces the listing fields of an existing item. Bid history is kept as stored.
	UpdateItem(ctx context.Context, item model.AuctionItem) error
	// DeleteItem removes the item and its bid history
	DeleteItem(ctx context.Context, itemID string) error
	// AppendBid runs decide against the current item and appends the returned bid, atomically
	// with respect to other AppendBid calls on the same item.
	AppendBid(ctx context.Context, itemID string, decide BidDecider) (model.Bid, error)
}

// UserDB defines the user storage interface used by the identity provider
type UserDB interface {
	// CreateUser stores a user, failing with ErrUserExists on a duplicate username or email
	CreateUser(ctx context.Context, user model.User) error
	GetUserByID(ctx context.Context, userID string) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
}

// Store bundles both interfaces; every backend implements it
type Store interface {
	AuctionDB
	UserDB
	Close() error
}
