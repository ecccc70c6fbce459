package catalog

import (
	"auction-backend/internal/auctionerrors"
	model "auction-backend/internal/models"
	"auction-backend/internal/repository"
	"auction-backend/utils"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func validInput() ItemInput {
	return ItemInput{
		Name:             "Lamp",
		Description:      "brass desk lamp",
		StartingPrice:    decimal.NewFromInt(100),
		AuctionStartTime: now,
		DurationMinutes:  60,
	}
}

func TestCatalogService_CreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *ItemInput)
	}{
		{name: "zero_duration", mutate: func(in *ItemInput) { in.DurationMinutes = 0 }},
		{name: "negative_duration", mutate: func(in *ItemInput) { in.DurationMinutes = -5 }},
		{name: "duration_over_max", mutate: func(in *ItemInput) { in.DurationMinutes = MaxDurationMinutes + 1 }},
		{name: "duration_overflows_end_time", mutate: func(in *ItemInput) { in.DurationMinutes = 200_000_000 }},
		{name: "blank_name", mutate: func(in *ItemInput) { in.Name = "   " }},
		{name: "zero_price", mutate: func(in *ItemInput) { in.StartingPrice = decimal.Zero }},
		{name: "negative_price", mutate: func(in *ItemInput) { in.StartingPrice = decimal.NewFromInt(-1) }},
		{name: "missing_start", mutate: func(in *ItemInput) { in.AuctionStartTime = time.Time{} }},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// no store call is expected for invalid input
			ctrl := gomock.NewController(t)
			service := NewCatalogService(repository.NewMockAuctionDB(ctrl), fixedClock{now: now})

			in := validInput()
			tc.mutate(&in)
			_, err := service.Create(context.Background(), in)
			require.ErrorIs(t, err, auctionerrors.ErrValidation)
		})
	}
}

// The longest allowed auction still ends after it starts and is open right away
func TestCatalogService_LongestAuctionStaysOpen(t *testing.T) {
	ctx := context.Background()
	service := NewCatalogService(repository.NewMemoryRepo(), fixedClock{now: now})

	in := validInput()
	in.DurationMinutes = MaxDurationMinutes
	item, err := service.Create(ctx, in)
	require.NoError(t, err)

	require.True(t, item.EndTime().After(item.AuctionStartTime))
	require.Equal(t, model.StatusOpen, item.StatusAt(now.Add(time.Minute)))

	in.DurationMinutes = MaxDurationMinutes + 1
	_, err = service.Update(ctx, item.ItemID, in)
	require.ErrorIs(t, err, auctionerrors.ErrValidation)
}

func TestCatalogService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := repository.NewMockAuctionDB(ctrl)
	service := NewCatalogService(mockRepo, fixedClock{now: now})

	var stored model.AuctionItem
	mockRepo.EXPECT().InsertItem(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, item model.AuctionItem) error {
		stored = item
		return nil
	})

	in := validInput()
	in.Name = "  Lamp "
	in.AuctionStartTime = time.Date(2026, 3, 1, 14, 0, 0, 0, time.FixedZone("CET+2", 2*60*60))

	item, err := service.Create(context.Background(), in)
	require.NoError(t, err)
	require.True(t, utils.ValidItemID(item.ItemID))
	require.Equal(t, "Lamp", item.Name)
	require.Equal(t, time.UTC, item.AuctionStartTime.Location())
	require.True(t, now.Equal(item.AuctionStartTime))
	require.Empty(t, item.Bids)
	require.True(t, now.Equal(item.CreatedAt))
	require.Equal(t, item.ItemID, stored.ItemID)
}

func TestCatalogService_CreateStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := repository.NewMockAuctionDB(ctrl)
	service := NewCatalogService(mockRepo, fixedClock{now: now})

	mockRepo.EXPECT().InsertItem(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))

	_, err := service.Create(context.Background(), validInput())
	require.Error(t, err)
	require.NotErrorIs(t, err, auctionerrors.ErrValidation)
}

func TestCatalogService_Delete(t *testing.T) {
	validID := utils.GenerateItemID()

	tests := []struct {
		name          string
		itemID        string
		mockSetup     func(mockRepo *repository.MockAuctionDB)
		expectedError error
	}{
		{
			name:   "deleted",
			itemID: validID,
			mockSetup: func(mockRepo *repository.MockAuctionDB) {
				mockRepo.EXPECT().DeleteItem(gomock.Any(), validID).Return(nil)
			},
		},
		{
			name:   "not_found",
			itemID: validID,
			mockSetup: func(mockRepo *repository.MockAuctionDB) {
				mockRepo.EXPECT().DeleteItem(gomock.Any(), validID).Return(auctionerrors.ErrItemNotFound)
			},
			expectedError: auctionerrors.ErrItemNotFound,
		},
		{
			name:          "malformed_id",
			itemID:        "item-1",
			mockSetup:     func(mockRepo *repository.MockAuctionDB) {},
			expectedError: auctionerrors.ErrValidation,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			mockRepo := repository.NewMockAuctionDB(ctrl)
			tc.mockSetup(mockRepo)
			service := NewCatalogService(mockRepo, fixedClock{now: now})

			err := service.Delete(context.Background(), tc.itemID)
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				return
			}
			require.NoError(t, err)
		})
	}
}

// Exercises the catalog against the in-memory store end to end
func TestCatalogService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	service := NewCatalogService(repo, fixedClock{now: now})

	first, err := service.Create(ctx, validInput())
	require.NoError(t, err)
	in := validInput()
	in.Name = "Chair"
	second, err := service.Create(ctx, in)
	require.NoError(t, err)

	items, err := service.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, first.ItemID, items[0].ItemID)
	require.Equal(t, second.ItemID, items[1].ItemID)

	bid := model.Bid{BidID: utils.GenerateID(), ItemID: first.ItemID, UserID: "user1", Amount: decimal.NewFromInt(150), Timestamp: now}
	_, err = repo.AppendBid(ctx, first.ItemID, func(model.AuctionItem) (model.Bid, error) { return bid, nil })
	require.NoError(t, err)

	edit := validInput()
	edit.Name = "Floor lamp"
	edit.DurationMinutes = 120
	updated, err := service.Update(ctx, first.ItemID, edit)
	require.NoError(t, err)
	require.Equal(t, "Floor lamp", updated.Name)
	require.Equal(t, 120, updated.DurationMinutes)
	require.Len(t, updated.Bids, 1)
	require.Equal(t, bid.BidID, updated.Bids[0].BidID)

	edit.DurationMinutes = 0
	_, err = service.Update(ctx, first.ItemID, edit)
	require.ErrorIs(t, err, auctionerrors.ErrValidation)

	_, err = service.Update(ctx, utils.GenerateItemID(), validInput())
	require.ErrorIs(t, err, auctionerrors.ErrItemNotFound)

	require.NoError(t, service.Delete(ctx, first.ItemID))
	_, err = service.Get(ctx, first.ItemID)
	require.ErrorIs(t, err, auctionerrors.ErrItemNotFound)
	require.ErrorIs(t, service.Delete(ctx, first.ItemID), auctionerrors.ErrItemNotFound)

	items, err = service.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
}
