package repository

import (
	"auction-backend/internal/auctionerrors"
	model "auction-backend/internal/models"
	"auction-backend/utils"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Helper to create a new Item
func newItem(name string, startingPrice int64) model.AuctionItem {
	return model.AuctionItem{
		ItemID:           utils.GenerateItemID(),
		Name:             name,
		Description:      fmt.Sprintf("%s description", name),
		StartingPrice:    decimal.NewFromInt(startingPrice),
		AuctionStartTime: time.Now().UTC().Truncate(time.Second),
		DurationMinutes:  60,
		CreatedAt:        time.Now().UTC().Truncate(time.Second),
	}
}

// Helper to create a new Bid
func newBid(itemID, userID string, amount int64) model.Bid {
	return model.Bid{
		BidID:     utils.GenerateID(),
		ItemID:    itemID,
		UserID:    userID,
		Username:  "name-" + userID,
		Amount:    decimal.NewFromInt(amount),
		Timestamp: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// acceptAbove appends bid when it beats the item's current minimum, mirroring the engine's price rule
func acceptAbove(bid model.Bid) BidDecider {
	return func(item model.AuctionItem) (model.Bid, error) {
		if min := item.MinimumBid(); bid.Amount.LessThanOrEqual(min) {
			return model.Bid{}, &auctionerrors.BidTooLowError{MinBid: min}
		}
		return bid, nil
	}
}

func requireSameBids(t *testing.T, want, got []model.Bid) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		require.Equal(t, want[i].BidID, got[i].BidID)
		require.Equal(t, want[i].UserID, got[i].UserID)
		require.Equal(t, want[i].Username, got[i].Username)
		require.True(t, want[i].Amount.Equal(got[i].Amount), "bid %d: want %s, got %s", i, want[i].Amount, got[i].Amount)
		require.True(t, want[i].Timestamp.Equal(got[i].Timestamp), "bid %d timestamp", i)
	}
}

// runStoreSuite exercises the Store contract against any backend
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("insert_get_roundtrip", func(t *testing.T) {
		store := newStore(t)
		item := newItem("Lamp", 100)
		require.NoError(t, store.InsertItem(ctx, item))

		got, err := store.GetItem(ctx, item.ItemID)
		require.NoError(t, err)
		require.Equal(t, item.ItemID, got.ItemID)
		require.Equal(t, item.Name, got.Name)
		require.Equal(t, item.Description, got.Description)
		require.True(t, item.StartingPrice.Equal(got.StartingPrice))
		require.True(t, item.AuctionStartTime.Equal(got.AuctionStartTime))
		require.Equal(t, item.DurationMinutes, got.DurationMinutes)
		require.Empty(t, got.Bids)
	})

	t.Run("get_missing_item", func(t *testing.T) {
		store := newStore(t)
		_, err := store.GetItem(ctx, utils.GenerateItemID())
		require.ErrorIs(t, err, auctionerrors.ErrItemNotFound)
	})

	t.Run("list_in_insertion_order", func(t *testing.T) {
		store := newStore(t)
		var ids []string
		for i := 0; i < 5; i++ {
			item := newItem(fmt.Sprintf("item-%d", i), int64(10*(i+1)))
			require.NoError(t, store.InsertItem(ctx, item))
			ids = append(ids, item.ItemID)
		}

		items, err := store.ListItems(ctx)
		require.NoError(t, err)
		require.Len(t, items, len(ids))
		for i, item := range items {
			require.Equal(t, ids[i], item.ItemID)
		}
	})

	t.Run("update_keeps_bids", func(t *testing.T) {
		store := newStore(t)
		item := newItem("Chair", 50)
		require.NoError(t, store.InsertItem(ctx, item))

		bid := newBid(item.ItemID, "user1", 60)
		_, err := store.AppendBid(ctx, item.ItemID, acceptAbove(bid))
		require.NoError(t, err)

		item.Name = "Armchair"
		item.DurationMinutes = 90
		item.Bids = nil
		require.NoError(t, store.UpdateItem(ctx, item))

		got, err := store.GetItem(ctx, item.ItemID)
		require.NoError(t, err)
		require.Equal(t, "Armchair", got.Name)
		require.Equal(t, 90, got.DurationMinutes)
		requireSameBids(t, []model.Bid{bid}, got.Bids)
	})

	t.Run("update_missing_item", func(t *testing.T) {
		store := newStore(t)
		err := store.UpdateItem(ctx, newItem("Ghost", 10))
		require.ErrorIs(t, err, auctionerrors.ErrItemNotFound)
	})

	t.Run("delete_discards_bids", func(t *testing.T) {
		store := newStore(t)
		item := newItem("Desk", 10)
		require.NoError(t, store.InsertItem(ctx, item))
		_, err := store.AppendBid(ctx, item.ItemID, acceptAbove(newBid(item.ItemID, "user1", 20)))
		require.NoError(t, err)

		require.NoError(t, store.DeleteItem(ctx, item.ItemID))

		_, err = store.GetItem(ctx, item.ItemID)
		require.ErrorIs(t, err, auctionerrors.ErrItemNotFound)
		require.ErrorIs(t, store.DeleteItem(ctx, item.ItemID), auctionerrors.ErrItemNotFound)
		_, err = store.AppendBid(ctx, item.ItemID, acceptAbove(newBid(item.ItemID, "user1", 30)))
		require.ErrorIs(t, err, auctionerrors.ErrItemNotFound)

		items, err := store.ListItems(ctx)
		require.NoError(t, err)
		require.Empty(t, items)
	})

	t.Run("append_in_acceptance_order", func(t *testing.T) {
		store := newStore(t)
		item := newItem("Vase", 100)
		require.NoError(t, store.InsertItem(ctx, item))

		var accepted []model.Bid
		for _, amount := range []int64{110, 120, 130} {
			bid, err := store.AppendBid(ctx, item.ItemID, acceptAbove(newBid(item.ItemID, "user1", amount)))
			require.NoError(t, err)
			accepted = append(accepted, bid)
		}

		got, err := store.GetItem(ctx, item.ItemID)
		require.NoError(t, err)
		requireSameBids(t, accepted, got.Bids)
	})

	t.Run("rejected_decision_leaves_state", func(t *testing.T) {
		store := newStore(t)
		item := newItem("Rug", 100)
		require.NoError(t, store.InsertItem(ctx, item))

		_, err := store.AppendBid(ctx, item.ItemID, acceptAbove(newBid(item.ItemID, "user1", 100)))
		var tooLow *auctionerrors.BidTooLowError
		require.True(t, errors.As(err, &tooLow))
		require.True(t, decimal.NewFromInt(100).Equal(tooLow.MinBid))

		got, err := store.GetItem(ctx, item.ItemID)
		require.NoError(t, err)
		require.Empty(t, got.Bids)
	})

	t.Run("concurrent_appends_stay_monotonic", func(t *testing.T) {
		store := newStore(t)
		item := newItem("Painting", 100)
		require.NoError(t, store.InsertItem(ctx, item))

		var wg sync.WaitGroup
		concurrentCount := 40
		for i := 0; i < concurrentCount; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				// every bid beats the starting price, so only the ordering decides acceptance
				_, err := store.AppendBid(ctx, item.ItemID, acceptAbove(newBid(item.ItemID, fmt.Sprintf("user-%d", i), int64(101+i))))
				if err != nil && !errors.Is(err, auctionerrors.ErrBidTooLow) {
					t.Errorf("unexpected error: %v", err)
				}
			}(i)
		}
		wg.Wait()

		got, err := store.GetItem(ctx, item.ItemID)
		require.NoError(t, err)
		require.NotEmpty(t, got.Bids)
		prev := item.StartingPrice
		for _, b := range got.Bids {
			require.True(t, b.Amount.GreaterThan(prev), "bid %s not above %s", b.Amount, prev)
			prev = b.Amount
		}
	})

	t.Run("users_unique_and_lookup", func(t *testing.T) {
		store := newStore(t)
		user := model.User{
			UserID:       utils.GenerateID(),
			Username:     "alice",
			Email:        "alice@example.com",
			PasswordHash: "hash",
			CreatedAt:    time.Now().UTC().Truncate(time.Second),
		}
		require.NoError(t, store.CreateUser(ctx, user))

		byID, err := store.GetUserByID(ctx, user.UserID)
		require.NoError(t, err)
		require.Equal(t, user.Username, byID.Username)
		require.Equal(t, user.PasswordHash, byID.PasswordHash)

		byEmail, err := store.GetUserByEmail(ctx, "ALICE@example.com")
		require.NoError(t, err)
		require.Equal(t, user.UserID, byEmail.UserID)

		dupEmail := user
		dupEmail.UserID = utils.GenerateID()
		dupEmail.Username = "alice2"
		require.ErrorIs(t, store.CreateUser(ctx, dupEmail), auctionerrors.ErrUserExists)

		dupName := user
		dupName.UserID = utils.GenerateID()
		dupName.Email = "other@example.com"
		require.ErrorIs(t, store.CreateUser(ctx, dupName), auctionerrors.ErrUserExists)

		_, err = store.GetUserByID(ctx, utils.GenerateID())
		require.ErrorIs(t, err, auctionerrors.ErrUserNotFound)
		_, err = store.GetUserByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, auctionerrors.ErrUserNotFound)
	})
}
