package repository

import (
	"auction-backend/internal/auctionerrors"
	model "auction-backend/internal/models"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

const itemColumns = `id, name, description, starting_price::text, auction_start_time, duration_minutes, created_at`

const bidColumns = `id, item_id, user_id, username, amount::text, placed_at`

// PostgresRepo stores items, bids and users in PostgreSQL.
// A bid append locks the item row for the duration of its transaction.
type PostgresRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresRepo creates a new instance of PostgresRepo
func NewPostgresRepo(pool *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{pool: pool}
}

// OpenPostgres creates a connection pool for databaseURL and pings it
func OpenPostgres(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to DB: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database pool ping failed: %w", err)
	}
	return pool, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse numeric %q: %w", s, err)
	}
	return d, nil
}

func scanItem(row pgx.Row) (model.AuctionItem, error) {
	var (
		item  model.AuctionItem
		price string
	)
	if err := row.Scan(&item.ItemID, &item.Name, &item.Description, &price,
		&item.AuctionStartTime, &item.DurationMinutes, &item.CreatedAt); err != nil {
		return model.AuctionItem{}, err
	}
	d, err := parseAmount(price)
	if err != nil {
		return model.AuctionItem{}, err
	}
	item.StartingPrice = d
	item.AuctionStartTime = item.AuctionStartTime.UTC()
	item.CreatedAt = item.CreatedAt.UTC()
	item.Bids = []model.Bid{}
	return item, nil
}

func scanBids(rows pgx.Rows) ([]model.Bid, error) {
	defer rows.Close()

	bids := []model.Bid{}
	for rows.Next() {
		var (
			bid    model.Bid
			amount string
		)
		if err := rows.Scan(&bid.BidID, &bid.ItemID, &bid.UserID, &bid.Username, &amount, &bid.Timestamp); err != nil {
			return nil, err
		}
		d, err := parseAmount(amount)
		if err != nil {
			return nil, err
		}
		bid.Amount = d
		bid.Timestamp = bid.Timestamp.UTC()
		bids = append(bids, bid)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bids, nil
}

// querier is satisfied by both the pool and a transaction
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func loadBids(ctx context.Context, q querier, itemID string) ([]model.Bid, error) {
	rows, err := q.Query(ctx, `SELECT `+bidColumns+` FROM bids WHERE item_id = $1 ORDER BY seq`, itemID)
	if err != nil {
		return nil, err
	}
	return scanBids(rows)
}

// InsertItem stores a new item
func (r *PostgresRepo) InsertItem(ctx context.Context, item model.AuctionItem) error {
	if item.ItemID == "" {
		return fmt.Errorf("insert item: %w", auctionerrors.Validationf("empty item ID"))
	}
	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
        INSERT INTO auction_items (id, name, description, starting_price, auction_start_time, duration_minutes, created_at)
        VALUES ($1, $2, $3, $4::text::numeric, $5, $6, $7)`,
		item.ItemID, item.Name, item.Description, item.StartingPrice.String(),
		item.AuctionStartTime, item.DurationMinutes, createdAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("insert item %s: %w", item.ItemID, auctionerrors.ErrConflict)
		}
		return fmt.Errorf("insert item %s: %w", item.ItemID, err)
	}
	return nil
}

// GetItem returns the item with its bids in acceptance order
func (r *PostgresRepo) GetItem(ctx context.Context, itemID string) (model.AuctionItem, error) {
	item, err := scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM auction_items WHERE id = $1`, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.AuctionItem{}, fmt.Errorf("get item %s: %w", itemID, auctionerrors.ErrItemNotFound)
		}
		return model.AuctionItem{}, fmt.Errorf("get item %s: %w", itemID, err)
	}

	item.Bids, err = loadBids(ctx, r.pool, itemID)
	if err != nil {
		return model.AuctionItem{}, fmt.Errorf("get bids for item %s: %w", itemID, err)
	}
	return item, nil
}

// ListItems returns all items in insertion order
func (r *PostgresRepo) ListItems(ctx context.Context) ([]model.AuctionItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM auction_items ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []model.AuctionItem
	index := make(map[string]int)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("list items: %w", err)
		}
		index[item.ItemID] = len(items)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	bidRows, err := r.pool.Query(ctx, `SELECT `+bidColumns+` FROM bids ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	bids, err := scanBids(bidRows)
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	for _, b := range bids {
		if i, ok := index[b.ItemID]; ok {
			items[i].Bids = append(items[i].Bids, b)
		}
	}
	if items == nil {
		items = []model.AuctionItem{}
	}
	return items, nil
}

// UpdateItem replaces the listing columns; bids rows are untouched
func (r *PostgresRepo) UpdateItem(ctx context.Context, item model.AuctionItem) error {
	tag, err := r.pool.Exec(ctx, `
        UPDATE auction_items
        SET name = $2, description = $3, starting_price = $4::text::numeric,
            auction_start_time = $5, duration_minutes = $6
        WHERE id = $1`,
		item.ItemID, item.Name, item.Description, item.StartingPrice.String(),
		item.AuctionStartTime, item.DurationMinutes,
	)
	if err != nil {
		return fmt.Errorf("update item %s: %w", item.ItemID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update item %s: %w", item.ItemID, auctionerrors.ErrItemNotFound)
	}
	return nil
}

// DeleteItem removes the item; its bids go with it through the cascading foreign key
func (r *PostgresRepo) DeleteItem(ctx context.Context, itemID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM auction_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("delete item %s: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete item %s: %w", itemID, auctionerrors.ErrItemNotFound)
	}
	return nil
}

// AppendBid locks the item row, lets decide inspect the committed bids and inserts the result
func (r *PostgresRepo) AppendBid(ctx context.Context, itemID string, decide BidDecider) (model.Bid, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.Bid{}, fmt.Errorf("append bid: failed to begin transaction: %w", err)
	}
	// no-op once committed
	defer func() { _ = tx.Rollback(ctx) }()

	item, err := scanItem(tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM auction_items WHERE id = $1 FOR UPDATE`, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Bid{}, fmt.Errorf("append bid to item %s: %w", itemID, auctionerrors.ErrItemNotFound)
		}
		return model.Bid{}, fmt.Errorf("append bid to item %s: %w", itemID, err)
	}
	item.Bids, err = loadBids(ctx, tx, itemID)
	if err != nil {
		return model.Bid{}, fmt.Errorf("append bid to item %s: %w", itemID, err)
	}

	bid, err := decide(item)
	if err != nil {
		return model.Bid{}, err
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO bids (id, item_id, user_id, username, amount, placed_at)
        VALUES ($1, $2, $3, $4, $5::text::numeric, $6)`,
		bid.BidID, bid.ItemID, bid.UserID, bid.Username, bid.Amount.String(), bid.Timestamp,
	)
	if err != nil {
		return model.Bid{}, fmt.Errorf("append bid to item %s: failed to save bid: %w", itemID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Bid{}, fmt.Errorf("append bid to item %s: failed to commit transaction: %w", itemID, err)
	}
	return bid, nil
}

// CreateUser inserts a user; the unique indexes reject duplicate usernames and emails
func (r *PostgresRepo) CreateUser(ctx context.Context, user model.User) error {
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
        INSERT INTO users (id, username, email, password_hash, created_at)
        VALUES ($1, $2, $3, $4, $5)`,
		user.UserID, user.Username, user.Email, user.PasswordHash, createdAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("create user %s: %w", user.Username, auctionerrors.ErrUserExists)
		}
		return fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return nil
}

func (r *PostgresRepo) getUser(ctx context.Context, where string, arg string) (model.User, error) {
	var user model.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE `+where, arg,
	).Scan(&user.UserID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, auctionerrors.ErrUserNotFound
		}
		return model.User{}, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

// GetUserByID returns a user by ID
func (r *PostgresRepo) GetUserByID(ctx context.Context, userID string) (model.User, error) {
	user, err := r.getUser(ctx, `id = $1`, userID)
	if err != nil {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, err)
	}
	return user, nil
}

// GetUserByEmail returns a user by email, case-insensitively
func (r *PostgresRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	user, err := r.getUser(ctx, `LOWER(email) = LOWER($1)`, email)
	if err != nil {
		return model.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

// Close closes the connection pool
func (r *PostgresRepo) Close() error {
	r.pool.Close()
	return nil
}
