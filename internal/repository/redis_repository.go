package repository

import (
	"auction-backend/internal/auctionerrors"
	model "auction-backend/internal/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	keyPrefix     = "auction:"
	itemIndexKey  = keyPrefix + "items"
	itemSeqKey    = keyPrefix + "items:seq"
	userKeyPrefix = keyPrefix + "user:"

	defaultWatchRetries = 100
	watchBackoffStep    = 100 * time.Microsecond
	watchBackoffMax     = 5 * time.Millisecond
)

// redisItem is the stored item document. Bids live in their own list so appends never rewrite it.
type redisItem struct {
	ItemID           string          `json:"item_id"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	StartingPrice    decimal.Decimal `json:"starting_price"`
	AuctionStartTime time.Time       `json:"auction_start_time"`
	DurationMinutes  int             `json:"duration_minutes"`
	CreatedAt        time.Time       `json:"created_at"`
}

func toRedisItem(item model.AuctionItem) redisItem {
	return redisItem{
		ItemID:           item.ItemID,
		Name:             item.Name,
		Description:      item.Description,
		StartingPrice:    item.StartingPrice,
		AuctionStartTime: item.AuctionStartTime,
		DurationMinutes:  item.DurationMinutes,
		CreatedAt:        item.CreatedAt,
	}
}

func (d redisItem) toModel(bids []model.Bid) model.AuctionItem {
	return model.AuctionItem{
		ItemID:           d.ItemID,
		Name:             d.Name,
		Description:      d.Description,
		StartingPrice:    d.StartingPrice,
		AuctionStartTime: d.AuctionStartTime,
		DurationMinutes:  d.DurationMinutes,
		Bids:             bids,
		CreatedAt:        d.CreatedAt,
	}
}

// RedisRepo stores items as JSON documents with a per-item bid list.
// Bid appends use WATCH/MULTI and are retried when another writer touched the item first.
type RedisRepo struct {
	rdb        *redis.Client
	maxRetries int
}

// NewRedisRepo wraps an existing client
func NewRedisRepo(rdb *redis.Client) *RedisRepo {
	return &RedisRepo{rdb: rdb, maxRetries: defaultWatchRetries}
}

// OpenRedis connects to the server at url (redis://...) and verifies it responds
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

func itemKey(id string) string {
	return keyPrefix + "item:" + id
}

func bidsKey(id string) string {
	return keyPrefix + "item:" + id + ":bids"
}

func userKey(id string) string {
	return userKeyPrefix + id
}

func userEmailKey(email string) string {
	return userKeyPrefix + "email:" + strings.ToLower(email)
}

func userNameKey(username string) string {
	return userKeyPrefix + "name:" + strings.ToLower(username)
}

// watchRetry runs fn in a WATCH transaction over keys, retrying with a short growing backoff
// when another writer got there first. After maxRetries lost races it gives up with ErrConflict.
func (r *RedisRepo) watchRetry(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for attempt := 1; ; attempt++ {
		err := r.rdb.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		if attempt >= r.maxRetries {
			return fmt.Errorf("%w: gave up after %d attempts on %v", auctionerrors.ErrConflict, attempt, keys)
		}

		backoff := time.Duration(attempt) * watchBackoffStep
		if backoff > watchBackoffMax {
			backoff = watchBackoffMax
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", auctionerrors.ErrConflict, ctx.Err())
		case <-time.After(backoff):
		}
	}
}

// InsertItem stores the item document and indexes it for listing
func (r *RedisRepo) InsertItem(ctx context.Context, item model.AuctionItem) error {
	if item.ItemID == "" {
		return fmt.Errorf("insert item: %w", auctionerrors.Validationf("empty item ID"))
	}
	payload, err := json.Marshal(toRedisItem(item))
	if err != nil {
		return fmt.Errorf("insert item %s: %w", item.ItemID, err)
	}
	seq, err := r.rdb.Incr(ctx, itemSeqKey).Result()
	if err != nil {
		return fmt.Errorf("insert item %s: %w", item.ItemID, err)
	}

	key := itemKey(item.ItemID)
	return r.watchRetry(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("insert item %s: %w", item.ItemID, err)
		}
		if n > 0 {
			return fmt.Errorf("insert item %s: %w", item.ItemID, auctionerrors.ErrConflict)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			pipe.ZAdd(ctx, itemIndexKey, redis.Z{Score: float64(seq), Member: item.ItemID})
			return nil
		})
		return err
	}, key)
}

// loadItem reads the document and bid list through c, which may be a watching transaction
func loadItem(ctx context.Context, c redis.Cmdable, itemID string) (model.AuctionItem, error) {
	data, err := c.Get(ctx, itemKey(itemID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.AuctionItem{}, auctionerrors.ErrItemNotFound
		}
		return model.AuctionItem{}, err
	}
	var doc redisItem
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.AuctionItem{}, err
	}

	raw, err := c.LRange(ctx, bidsKey(itemID), 0, -1).Result()
	if err != nil {
		return model.AuctionItem{}, err
	}
	bids, err := decodeBids(raw)
	if err != nil {
		return model.AuctionItem{}, err
	}
	return doc.toModel(bids), nil
}

func decodeBids(raw []string) ([]model.Bid, error) {
	bids := make([]model.Bid, 0, len(raw))
	for _, s := range raw {
		var b model.Bid
		if err := json.Unmarshal([]byte(s), &b); err != nil {
			return nil, fmt.Errorf("decode bid: %w", err)
		}
		bids = append(bids, b)
	}
	return bids, nil
}

// GetItem returns the item with its bids
func (r *RedisRepo) GetItem(ctx context.Context, itemID string) (model.AuctionItem, error) {
	item, err := loadItem(ctx, r.rdb, itemID)
	if err != nil {
		return model.AuctionItem{}, fmt.Errorf("get item %s: %w", itemID, err)
	}
	return item, nil
}

// ListItems returns every indexed item in insertion order
func (r *RedisRepo) ListItems(ctx context.Context) ([]model.AuctionItem, error) {
	ids, err := r.rdb.ZRange(ctx, itemIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	items := make([]model.AuctionItem, 0, len(ids))
	for _, id := range ids {
		item, err := loadItem(ctx, r.rdb, id)
		if errors.Is(err, auctionerrors.ErrItemNotFound) {
			continue // deleted after the index was read
		}
		if err != nil {
			return nil, fmt.Errorf("list items: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

// UpdateItem overwrites the item document; the bid list and creation time are kept
func (r *RedisRepo) UpdateItem(ctx context.Context, item model.AuctionItem) error {
	key := itemKey(item.ItemID)
	return r.watchRetry(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return fmt.Errorf("update item %s: %w", item.ItemID, auctionerrors.ErrItemNotFound)
			}
			return fmt.Errorf("update item %s: %w", item.ItemID, err)
		}
		var current redisItem
		if err := json.Unmarshal(data, &current); err != nil {
			return fmt.Errorf("update item %s: %w", item.ItemID, err)
		}

		doc := toRedisItem(item)
		doc.CreatedAt = current.CreatedAt
		payload, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("update item %s: %w", item.ItemID, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}, key)
}

// DeleteItem removes the document, the bid list and the index entry in one transaction
func (r *RedisRepo) DeleteItem(ctx context.Context, itemID string) error {
	var deleted *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, itemKey(itemID))
		pipe.Del(ctx, bidsKey(itemID))
		pipe.ZRem(ctx, itemIndexKey, itemID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete item %s: %w", itemID, err)
	}
	if deleted.Val() == 0 {
		return fmt.Errorf("delete item %s: %w", itemID, auctionerrors.ErrItemNotFound)
	}
	return nil
}

// AppendBid pushes the decided bid only if neither the item nor its bids changed since they were read
func (r *RedisRepo) AppendBid(ctx context.Context, itemID string, decide BidDecider) (model.Bid, error) {
	var accepted model.Bid
	err := r.watchRetry(ctx, func(tx *redis.Tx) error {
		item, err := loadItem(ctx, tx, itemID)
		if err != nil {
			if errors.Is(err, auctionerrors.ErrItemNotFound) {
				return fmt.Errorf("append bid to item %s: %w", itemID, err)
			}
			return err
		}

		bid, err := decide(item)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(bid)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.RPush(ctx, bidsKey(itemID), payload)
			return nil
		})
		if err != nil {
			return err
		}
		accepted = bid
		return nil
	}, itemKey(itemID), bidsKey(itemID))
	if err != nil {
		return model.Bid{}, err
	}
	return accepted, nil
}

// CreateUser stores the user and claims its email and username atomically
func (r *RedisRepo) CreateUser(ctx context.Context, user model.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("create user %s: %w", user.Username, err)
	}
	emailKey := userEmailKey(user.Email)
	nameKey := userNameKey(user.Username)

	return r.watchRetry(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, emailKey, nameKey).Result()
		if err != nil {
			return fmt.Errorf("create user %s: %w", user.Username, err)
		}
		if n > 0 {
			return fmt.Errorf("create user %s: %w", user.Username, auctionerrors.ErrUserExists)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, userKey(user.UserID), payload, 0)
			pipe.Set(ctx, emailKey, user.UserID, 0)
			pipe.Set(ctx, nameKey, user.UserID, 0)
			return nil
		})
		return err
	}, emailKey, nameKey)
}

// GetUserByID returns a user by ID
func (r *RedisRepo) GetUserByID(ctx context.Context, userID string) (model.User, error) {
	data, err := r.rdb.Get(ctx, userKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.User{}, fmt.Errorf("get user %s: %w", userID, auctionerrors.ErrUserNotFound)
		}
		return model.User{}, fmt.Errorf("get user %s: %w", userID, err)
	}
	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, err)
	}
	return user, nil
}

// GetUserByEmail resolves the email index and loads the user
func (r *RedisRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	id, err := r.rdb.Get(ctx, userEmailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.User{}, fmt.Errorf("get user by email: %w", auctionerrors.ErrUserNotFound)
		}
		return model.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return r.GetUserByID(ctx, id)
}

// Close releases the client connection pool
func (r *RedisRepo) Close() error {
	return r.rdb.Close()
}
