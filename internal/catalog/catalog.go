// Package catalog owns auction listings: creating, reading, editing and removing items.
package catalog

import (
	"auction-backend/internal/auctionerrors"
	model "auction-backend/internal/models"
	"auction-backend/internal/repository"
	"auction-backend/utils"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxDurationMinutes caps an auction at one year so the end time cannot overflow
// and the value fits the INTEGER column of the Postgres store.
const MaxDurationMinutes = 365 * 24 * 60

// ItemInput carries the editable fields of a listing
type ItemInput struct {
	Name             string
	Description      string
	StartingPrice    decimal.Decimal
	AuctionStartTime time.Time
	DurationMinutes  int
}

// CatalogService manages auction items
type CatalogService struct {
	repo  repository.AuctionDB
	clock utils.Clock
}

// NewCatalogService creates a new CatalogService instance
func NewCatalogService(repo repository.AuctionDB, clock utils.Clock) *CatalogService {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &CatalogService{repo: repo, clock: clock}
}

func (in ItemInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return auctionerrors.Validationf("name is required")
	}
	if !in.StartingPrice.IsPositive() {
		return auctionerrors.Validationf("starting price must be positive, got %s", in.StartingPrice)
	}
	if in.DurationMinutes <= 0 {
		return auctionerrors.Validationf("duration must be a positive number of minutes, got %d", in.DurationMinutes)
	}
	if in.DurationMinutes > MaxDurationMinutes {
		return auctionerrors.Validationf("duration must be at most %d minutes, got %d", MaxDurationMinutes, in.DurationMinutes)
	}
	if in.AuctionStartTime.IsZero() {
		return auctionerrors.Validationf("auction start time is required")
	}
	return nil
}

// apply copies the listing fields onto item, normalizing the start time
func (in ItemInput) apply(item *model.AuctionItem) {
	item.Name = strings.TrimSpace(in.Name)
	item.Description = in.Description
	item.StartingPrice = in.StartingPrice
	item.AuctionStartTime = utils.NormalizeUTC(in.AuctionStartTime)
	item.DurationMinutes = in.DurationMinutes
}

// Create validates a listing and stores it under a fresh ID with no bids
func (s *CatalogService) Create(ctx context.Context, in ItemInput) (model.AuctionItem, error) {
	if err := in.validate(); err != nil {
		return model.AuctionItem{}, fmt.Errorf("catalog: %w", err)
	}

	item := model.AuctionItem{
		ItemID:    utils.GenerateItemID(),
		Bids:      []model.Bid{},
		CreatedAt: utils.NormalizeUTC(s.clock.Now()),
	}
	in.apply(&item)

	if err := s.repo.InsertItem(ctx, item); err != nil {
		return model.AuctionItem{}, fmt.Errorf("catalog: failed to create item %q: %w", item.Name, err)
	}
	return item, nil
}

// Get returns one item with its bid history
func (s *CatalogService) Get(ctx context.Context, itemID string) (model.AuctionItem, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return model.AuctionItem{}, fmt.Errorf("catalog: failed to get item %s: %w", itemID, err)
	}
	return item, nil
}

// List returns every item in creation order
func (s *CatalogService) List(ctx context.Context) ([]model.AuctionItem, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to list items: %w", err)
	}
	if items == nil {
		items = []model.AuctionItem{}
	}
	return items, nil
}

// Update replaces the listing fields of an item. Accepted bids stay attached to it.
func (s *CatalogService) Update(ctx context.Context, itemID string, in ItemInput) (model.AuctionItem, error) {
	if err := in.validate(); err != nil {
		return model.AuctionItem{}, fmt.Errorf("catalog: %w", err)
	}

	item := model.AuctionItem{ItemID: itemID}
	in.apply(&item)
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return model.AuctionItem{}, fmt.Errorf("catalog: failed to update item %s: %w", itemID, err)
	}

	updated, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return model.AuctionItem{}, fmt.Errorf("catalog: failed to reload item %s: %w", itemID, err)
	}
	return updated, nil
}

// Delete removes an item together with its bids
func (s *CatalogService) Delete(ctx context.Context, itemID string) error {
	if !utils.ValidItemID(itemID) {
		return fmt.Errorf("catalog: %w", auctionerrors.Validationf("malformed item ID %q", itemID))
	}
	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return fmt.Errorf("catalog: failed to delete item %s: %w", itemID, err)
	}
	return nil
}
