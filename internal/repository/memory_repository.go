package repository

import (
	"auction-backend/internal/auctionerrors"
	model "auction-backend/internal/models"
	"context"
	"fmt"
	"strings"
	"sync"
)

// itemRecord guards one item. Its mutex is held across read-validate-append of a bid.
type itemRecord struct {
	mu      sync.Mutex
	item    model.AuctionItem
	deleted bool
}

// MemoryRepo is a concurrency-safe in-memory implementation of Store.
// The repo-wide lock only guards the item index; bids on different items never contend.
type MemoryRepo struct {
	mu    sync.RWMutex
	items map[string]*itemRecord // key: itemID -> value: item record
	order []string               // itemIDs in insertion order

	usersMu     sync.RWMutex
	users       map[string]model.User // key: userID -> value: user
	emailIndex  map[string]string     // key: lowercased email -> value: userID
	usernameIdx map[string]string     // key: lowercased username -> value: userID
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		items:       make(map[string]*itemRecord),
		users:       make(map[string]model.User),
		emailIndex:  make(map[string]string),
		usernameIdx: make(map[string]string),
	}
}

// InsertItem stores a new item
func (r *MemoryRepo) InsertItem(_ context.Context, item model.AuctionItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ItemID == "" {
		return fmt.Errorf("insert item: %w", auctionerrors.Validationf("empty item ID"))
	}
	if _, ok := r.items[item.ItemID]; ok {
		return fmt.Errorf("insert item %s: %w", item.ItemID, auctionerrors.ErrConflict)
	}

	r.items[item.ItemID] = &itemRecord{item: item.Clone()}
	r.order = append(r.order, item.ItemID)
	return nil
}

// GetItem returns a copy of the item with its bids
func (r *MemoryRepo) GetItem(_ context.Context, itemID string) (model.AuctionItem, error) {
	rec := r.lookup(itemID)
	if rec == nil {
		return model.AuctionItem{}, fmt.Errorf("get item %s: %w", itemID, auctionerrors.ErrItemNotFound)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return model.AuctionItem{}, fmt.Errorf("get item %s: %w", itemID, auctionerrors.ErrItemNotFound)
	}
	return rec.item.Clone(), nil
}

// ListItems returns all items in insertion order
func (r *MemoryRepo) ListItems(_ context.Context) ([]model.AuctionItem, error) {
	r.mu.RLock()
	records := make([]*itemRecord, 0, len(r.order))
	for _, id := range r.order {
		records = append(records, r.items[id])
	}
	r.mu.RUnlock()

	items := make([]model.AuctionItem, 0, len(records))
	for _, rec := range records {
		rec.mu.Lock()
		if !rec.deleted {
			items = append(items, rec.item.Clone())
		}
		rec.mu.Unlock()
	}
	return items, nil
}

// UpdateItem replaces the listing fields of an item and keeps its bids
func (r *MemoryRepo) UpdateItem(_ context.Context, item model.AuctionItem) error {
	rec := r.lookup(item.ItemID)
	if rec == nil {
		return fmt.Errorf("update item %s: %w", item.ItemID, auctionerrors.ErrItemNotFound)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return fmt.Errorf("update item %s: %w", item.ItemID, auctionerrors.ErrItemNotFound)
	}

	bids := rec.item.Bids
	createdAt := rec.item.CreatedAt
	rec.item = item.Clone()
	rec.item.Bids = bids
	rec.item.CreatedAt = createdAt
	return nil
}

// DeleteItem removes an item and discards its bid history
func (r *MemoryRepo) DeleteItem(_ context.Context, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.items[itemID]
	if !ok {
		return fmt.Errorf("delete item %s: %w", itemID, auctionerrors.ErrItemNotFound)
	}

	// an AppendBid that already looked the record up sees deleted and fails with not found
	rec.mu.Lock()
	rec.deleted = true
	rec.mu.Unlock()

	delete(r.items, itemID)
	for i, id := range r.order {
		if id == itemID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// AppendBid validates and records a bid while holding the item's lock
func (r *MemoryRepo) AppendBid(_ context.Context, itemID string, decide BidDecider) (model.Bid, error) {
	rec := r.lookup(itemID)
	if rec == nil {
		return model.Bid{}, fmt.Errorf("append bid to item %s: %w", itemID, auctionerrors.ErrItemNotFound)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return model.Bid{}, fmt.Errorf("append bid to item %s: %w", itemID, auctionerrors.ErrItemNotFound)
	}

	bid, err := decide(rec.item.Clone())
	if err != nil {
		return model.Bid{}, err
	}
	rec.item.Bids = append(rec.item.Bids, bid)
	return bid, nil
}

func (r *MemoryRepo) lookup(itemID string) *itemRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.items[itemID]
}

// CreateUser stores a new user with unique username and email
func (r *MemoryRepo) CreateUser(_ context.Context, user model.User) error {
	r.usersMu.Lock()
	defer r.usersMu.Unlock()

	email := strings.ToLower(user.Email)
	username := strings.ToLower(user.Username)
	if _, ok := r.emailIndex[email]; ok {
		return fmt.Errorf("create user %s: %w", user.Username, auctionerrors.ErrUserExists)
	}
	if _, ok := r.usernameIdx[username]; ok {
		return fmt.Errorf("create user %s: %w", user.Username, auctionerrors.ErrUserExists)
	}

	r.users[user.UserID] = user
	r.emailIndex[email] = user.UserID
	r.usernameIdx[username] = user.UserID
	return nil
}

// GetUserByID returns a user by ID
func (r *MemoryRepo) GetUserByID(_ context.Context, userID string) (model.User, error) {
	r.usersMu.RLock()
	defer r.usersMu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	return user, nil
}

// GetUserByEmail returns a user by email, case-insensitively
func (r *MemoryRepo) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	r.usersMu.RLock()
	defer r.usersMu.RUnlock()

	id, ok := r.emailIndex[strings.ToLower(email)]
	if !ok {
		return model.User{}, fmt.Errorf("get user by email: %w", auctionerrors.ErrUserNotFound)
	}
	return r.users[id], nil
}

// Close is a no-op for the in-memory store
func (r *MemoryRepo) Close() error {
	return nil
}
