package perftests

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	bidding "auction-backend/internal/biddingService"
	model "auction-backend/internal/models"
	"auction-backend/internal/repository"
	"auction-backend/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// addItem stores an open item that stays open for the whole benchmark
func addItem(b *testing.B, repo repository.AuctionDB, name string, startingPrice int64) string {
	b.Helper()
	item := model.AuctionItem{
		ItemID:           utils.GenerateItemID(),
		Name:             name,
		Description:      "benchmark item",
		StartingPrice:    decimal.NewFromInt(startingPrice),
		AuctionStartTime: time.Now().UTC().Add(-time.Minute),
		DurationMinutes:  24 * 60,
		CreatedAt:        time.Now().UTC(),
	}
	if err := repo.InsertItem(context.Background(), item); err != nil {
		b.Fatalf("failed to add item: %v", err)
	}
	return item.ItemID
}

func bidder(i int) model.Identity {
	return model.Identity{UserID: fmt.Sprintf("user_%d", i), Username: fmt.Sprintf("bidder_%d", i)}
}

// Benchmark 1: PlaceBid - Isolated Items (Low Contention - Micro Benchmark)
func Benchmark_PlaceBid_Isolated(b *testing.B) {
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	svc := bidding.NewBiddingService(repo)

	itemIDs := make([]string, b.N)
	for i := 0; i < b.N; i++ {
		itemIDs[i] = addItem(b, repo, fmt.Sprintf("Low-Contention Item%d", i), 50)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		amount := decimal.NewFromInt(int64(51 + rand.Intn(100)))
		if _, err := svc.PlaceBid(ctx, itemIDs[i], amount, bidder(i)); err != nil {
			b.Fatalf("failed to place bid: %v", err)
		}
	}
}

// Benchmark 2: PlaceBid - Shared Item (High Contention - Concurrency Benchmark)
func Benchmark_PlaceBid_ConcurrentSharedItem(b *testing.B) {
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	svc := bidding.NewBiddingService(repo)
	itemID := addItem(b, repo, "High-Contention Item", 50)

	b.ReportAllocs()
	b.ResetTimer()

	var lastBid int64 = 50

	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			nextBid := atomic.AddInt64(&lastBid, int64(rnd.Intn(5)+1))
			_, _ = svc.PlaceBid(ctx, itemID, decimal.NewFromInt(nextBid), bidder(rnd.Int()))
		}
	})
}

// Benchmark 3: PlaceBid - Shared Item on the Redis store (WATCH retries under contention)
func Benchmark_PlaceBid_ConcurrentSharedItem_Redis(b *testing.B) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	if err != nil {
		b.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	repo := repository.NewRedisRepo(rdb)
	svc := bidding.NewBiddingService(repo)
	itemID := addItem(b, repo, "High-Contention Item", 50)

	b.ReportAllocs()
	b.ResetTimer()

	var lastBid int64 = 50

	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			nextBid := atomic.AddInt64(&lastBid, int64(rnd.Intn(5)+1))
			_, _ = svc.PlaceBid(ctx, itemID, decimal.NewFromInt(nextBid), bidder(rnd.Int()))
		}
	})
}

// Benchmark 4: GetWinningBid - Concurrent (High Contention)
func Benchmark_GetWinningBid_ConcurrentSharedItem(b *testing.B) {
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	svc := bidding.NewBiddingService(repo)
	itemID := addItem(b, repo, "High-Contention Item", 50)

	for j := 0; j < 100; j++ {
		_, _ = svc.PlaceBid(ctx, itemID, decimal.NewFromInt(int64(51+j)), bidder(j))
	}

	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := svc.GetWinningBid(ctx, itemID); err != nil {
				b.Errorf("failed to get winning bid: %v", err)
				return
			}
		}
	})
}

// Benchmark 5: Mixed Workload (Readers + Writers concurrently)
func Benchmark_MixedWorkload_SharedItem(b *testing.B) {
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	svc := bidding.NewBiddingService(repo)
	itemID := addItem(b, repo, "Shared Item", 50)

	for j := 0; j < 50; j++ {
		_, _ = svc.PlaceBid(ctx, itemID, decimal.NewFromInt(int64(52+j*2)), bidder(j))
	}

	b.ReportAllocs()
	b.ResetTimer()

	var lastBid int64 = 150

	// Ratio: 70% readers, 30% writers
	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			if rnd.Intn(10) < 3 {
				nextBid := atomic.AddInt64(&lastBid, int64(rnd.Intn(5)+1))
				_, _ = svc.PlaceBid(ctx, itemID, decimal.NewFromInt(nextBid), bidder(rnd.Int()))
				continue
			}
			_, _ = svc.GetBidsForItem(ctx, itemID)
		}
	})
}
