package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionStatus is the lifecycle state of an item, derived from its time window
type AuctionStatus string

const (
	StatusPending AuctionStatus = "pending"
	StatusOpen    AuctionStatus = "open"
	StatusClosed  AuctionStatus = "closed"
)

// User represents a registered participant in the auction
type User struct {
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the authenticated caller as resolved by the identity provider
type Identity struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Identity returns the public identity of the user
func (u User) Identity() Identity {
	return Identity{UserID: u.UserID, Username: u.Username}
}

// AuctionItem represents an auction listing together with its bid history
type AuctionItem struct {
	ItemID           string          `json:"item_id"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	StartingPrice    decimal.Decimal `json:"starting_price"`
	AuctionStartTime time.Time       `json:"auction_start_time"`
	DurationMinutes  int             `json:"duration_minutes"`
	Bids             []Bid           `json:"bids"`
	CreatedAt        time.Time       `json:"created_at"`
}

// EndTime returns the instant the auction closes
func (i AuctionItem) EndTime() time.Time {
	return i.AuctionStartTime.Add(time.Duration(i.DurationMinutes) * time.Minute)
}

// StatusAt derives the lifecycle state at the given instant. The end instant itself is still open.
func (i AuctionItem) StatusAt(now time.Time) AuctionStatus {
	switch {
	case now.Before(i.AuctionStartTime):
		return StatusPending
	case now.After(i.EndTime()):
		return StatusClosed
	default:
		return StatusOpen
	}
}

// MinimumBid is the amount the next bid has to exceed: the last accepted bid, or the starting price
func (i AuctionItem) MinimumBid() decimal.Decimal {
	if n := len(i.Bids); n > 0 {
		return i.Bids[n-1].Amount
	}
	return i.StartingPrice
}

// Clone returns a copy whose bid slice does not alias the receiver's
func (i AuctionItem) Clone() AuctionItem {
	c := i
	c.Bids = append([]Bid(nil), i.Bids...)
	return c
}

// Bid represents a user's bid on an item
type Bid struct {
	BidID     string          `json:"bid_id"`
	ItemID    string          `json:"item_id"`
	UserID    string          `json:"user_id"`
	Username  string          `json:"username"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}
