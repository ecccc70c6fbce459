// Package identity registers users, checks their credentials and resolves
// session user IDs back to an identity for the bidding engine.
package identity

import (
	"auction-backend/internal/auctionerrors"
	model "auction-backend/internal/models"
	"auction-backend/internal/repository"
	"auction-backend/utils"
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// IdentityService manages user accounts
type IdentityService struct {
	users repository.UserDB
	clock utils.Clock
	cost  int
}

// NewIdentityService creates a new IdentityService instance
func NewIdentityService(users repository.UserDB, clock utils.Clock) *IdentityService {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &IdentityService{users: users, clock: clock, cost: bcrypt.DefaultCost}
}

// WithHashCost sets the bcrypt cost. Tests lower it to bcrypt.MinCost.
func (s *IdentityService) WithHashCost(cost int) *IdentityService {
	s.cost = cost
	return s
}

// Register creates an account with a hashed password
func (s *IdentityService) Register(ctx context.Context, username, email, password string) (model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" || email == "" || password == "" {
		return model.User{}, fmt.Errorf("identity: %w", auctionerrors.Validationf("username, email and password are required"))
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.User{}, fmt.Errorf("identity: %w", auctionerrors.Validationf("invalid email %q", email))
	}
	if len(password) < minPasswordLength {
		return model.User{}, fmt.Errorf("identity: %w", auctionerrors.Validationf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return model.User{}, fmt.Errorf("identity: failed to hash password: %w", err)
	}

	user := model.User{
		UserID:       utils.GenerateID(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    utils.NormalizeUTC(s.clock.Now()),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return model.User{}, fmt.Errorf("identity: failed to register %s: %w", username, err)
	}
	return user, nil
}

// Login checks an email and password pair
func (s *IdentityService) Login(ctx context.Context, email, password string) (model.User, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, auctionerrors.ErrUserNotFound) {
			return model.User{}, fmt.Errorf("identity: %w", auctionerrors.ErrInvalidCredentials)
		}
		return model.User{}, fmt.Errorf("identity: failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.User{}, fmt.Errorf("identity: %w", auctionerrors.ErrInvalidCredentials)
	}
	return user, nil
}

// Resolve maps a session user ID back to the caller's identity
func (s *IdentityService) Resolve(ctx context.Context, userID string) (model.Identity, error) {
	if userID == "" {
		return model.Identity{}, fmt.Errorf("identity: %w", auctionerrors.ErrUnauthenticated)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, auctionerrors.ErrUserNotFound) {
			return model.Identity{}, fmt.Errorf("identity: %w", auctionerrors.ErrUnauthenticated)
		}
		return model.Identity{}, fmt.Errorf("identity: failed to resolve user %s: %w", userID, err)
	}
	return user.Identity(), nil
}
