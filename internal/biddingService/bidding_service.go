package bidding

import (
	"auction-backend/internal/auctionerrors"
	model "auction-backend/internal/models"
	"auction-backend/internal/repository"
	"auction-backend/utils"
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BiddingService decides whether bids are accepted and answers queries over bid history
type BiddingService struct {
	repo         repository.AuctionDB
	clock        utils.Clock
	enforceStart bool
}

// Option configures a BiddingService
type Option func(*BiddingService)

// WithClock replaces the wall clock, mostly for tests
func WithClock(clock utils.Clock) Option {
	return func(s *BiddingService) {
		s.clock = clock
	}
}

// WithEnforcedStart rejects bids placed before the auction start time
func WithEnforcedStart(enforce bool) Option {
	return func(s *BiddingService) {
		s.enforceStart = enforce
	}
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(repo repository.AuctionDB, opts ...Option) *BiddingService {
	s := &BiddingService{
		repo:  repo,
		clock: utils.SystemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceBid validates and records a bid by the caller on an item.
// Validation and append happen as one step against the stored item, so two racing bids
// can never both be accepted against the same previous price.
func (s *BiddingService) PlaceBid(ctx context.Context, itemID string, amount decimal.Decimal, caller model.Identity) (model.Bid, error) {
	if caller.UserID == "" {
		return model.Bid{}, fmt.Errorf("service: %w", auctionerrors.ErrUnauthenticated)
	}
	if !amount.IsPositive() {
		return model.Bid{}, fmt.Errorf("service: %w", auctionerrors.Validationf("bid amount must be positive, got %s", amount))
	}

	bid, err := s.repo.AppendBid(ctx, itemID, func(item model.AuctionItem) (model.Bid, error) {
		return s.decide(item, amount, caller)
	})
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to place bid on item %s by user %s: %w", itemID, caller.UserID, err)
	}

	utils.Debug("bid accepted", map[string]any{
		"bid_id":  bid.BidID,
		"item_id": itemID,
		"user_id": caller.UserID,
		"amount":  bid.Amount.String(),
	})
	return bid, nil
}

// decide runs under the store's per-item exclusivity. Closure is checked before price.
func (s *BiddingService) decide(item model.AuctionItem, amount decimal.Decimal, caller model.Identity) (model.Bid, error) {
	now := utils.NormalizeUTC(s.clock.Now())

	switch item.StatusAt(now) {
	case model.StatusClosed:
		return model.Bid{}, fmt.Errorf("%w: ended at %s", auctionerrors.ErrAuctionClosed, item.EndTime().Format(time.RFC3339))
	case model.StatusPending:
		if s.enforceStart {
			return model.Bid{}, fmt.Errorf("%w: starts at %s", auctionerrors.ErrAuctionNotStarted, item.AuctionStartTime.Format(time.RFC3339))
		}
	}

	if minBid := item.MinimumBid(); amount.LessThanOrEqual(minBid) {
		return model.Bid{}, &auctionerrors.BidTooLowError{MinBid: minBid}
	}

	return model.Bid{
		BidID:     utils.GenerateID(),
		ItemID:    item.ItemID,
		UserID:    caller.UserID,
		Username:  caller.Username,
		Amount:    amount,
		Timestamp: now,
	}, nil
}

// GetBidsForItem returns all bids for a specific item in acceptance order
func (s *BiddingService) GetBidsForItem(ctx context.Context, itemID string) ([]model.Bid, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for item %s: %w", itemID, err)
	}

	if item.Bids == nil {
		return []model.Bid{}, nil
	}
	return item.Bids, nil
}

// GetWinningBid returns the current leading bid for an item. Bids only ever increase, so it is the last one.
func (s *BiddingService) GetWinningBid(ctx context.Context, itemID string) (model.Bid, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to get winning bid for item %s: %w", itemID, err)
	}

	if len(item.Bids) == 0 {
		return model.Bid{}, fmt.Errorf("service: item %s: %w", itemID, auctionerrors.ErrNoBids)
	}
	return item.Bids[len(item.Bids)-1], nil
}

// GetItemsByUser returns all items a user has placed bids on
func (s *BiddingService) GetItemsByUser(ctx context.Context, userID string) ([]model.AuctionItem, error) {
	if userID == "" {
		return nil, fmt.Errorf("service: %w", auctionerrors.Validationf("empty user ID"))
	}

	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list items for user %s: %w", userID, err)
	}

	var result []model.AuctionItem
	for _, item := range items {
		for _, bid := range item.Bids {
			if bid.UserID == userID {
				result = append(result, item)
				break
			}
		}
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("service: user %s: %w", userID, auctionerrors.ErrUserNoBids)
	}
	return result, nil
}
