package helpers

import (
	"time"

	model "auction-backend/internal/models"

	"github.com/shopspring/decimal"
)

// Request/Response DTOs

// PlaceBidRequest carries the bid amount as a JSON number or a decimal string
type PlaceBidRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// ItemRequest is the body of item create and update calls.
// auction_start_time accepts RFC 3339 or a zone-less timestamp, which is read as UTC.
type ItemRequest struct {
	Name             string          `json:"name" binding:"required"`
	Description      string          `json:"description"`
	StartingPrice    decimal.Decimal `json:"starting_price"`
	AuctionStartTime string          `json:"auction_start_time" binding:"required"`
	DurationMinutes  int             `json:"duration_minutes"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type BidResponse struct {
	BidID     string `json:"bid_id"`
	ItemID    string `json:"item_id"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Amount    string `json:"amount"`
	Timestamp string `json:"timestamp"`
}

type ItemResponse struct {
	ItemID           string        `json:"item_id"`
	Name             string        `json:"name"`
	Description      string        `json:"description"`
	StartingPrice    string        `json:"starting_price"`
	CurrentPrice     string        `json:"current_price"`
	AuctionStartTime string        `json:"auction_start_time"`
	AuctionEndTime   string        `json:"auction_end_time"`
	DurationMinutes  int           `json:"duration_minutes"`
	Status           string        `json:"status"`
	Bids             []BidResponse `json:"bids"`
	CreatedAt        string        `json:"created_at"`
}

type UserResponse struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

func NewBidResponse(bid model.Bid) BidResponse {
	return BidResponse{
		BidID:     bid.BidID,
		ItemID:    bid.ItemID,
		UserID:    bid.UserID,
		Username:  bid.Username,
		Amount:    bid.Amount.String(),
		Timestamp: bid.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

func NewBidResponses(bids []model.Bid) []BidResponse {
	out := make([]BidResponse, 0, len(bids))
	for _, bid := range bids {
		out = append(out, NewBidResponse(bid))
	}
	return out
}

// NewItemResponse renders an item with its status as of now
func NewItemResponse(item model.AuctionItem, now time.Time) ItemResponse {
	return ItemResponse{
		ItemID:           item.ItemID,
		Name:             item.Name,
		Description:      item.Description,
		StartingPrice:    item.StartingPrice.String(),
		CurrentPrice:     item.MinimumBid().String(),
		AuctionStartTime: item.AuctionStartTime.UTC().Format(time.RFC3339),
		AuctionEndTime:   item.EndTime().UTC().Format(time.RFC3339),
		DurationMinutes:  item.DurationMinutes,
		Status:           string(item.StatusAt(now)),
		Bids:             NewBidResponses(item.Bids),
		CreatedAt:        item.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func NewItemResponses(items []model.AuctionItem, now time.Time) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewItemResponse(item, now))
	}
	return out
}

func NewUserResponse(user model.User) UserResponse {
	return UserResponse{
		UserID:    user.UserID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
}
