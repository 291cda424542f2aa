package trade

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "swapdesk/internal/errors"
	"swapdesk/internal/models"
	"swapdesk/internal/repositories"
	"swapdesk/internal/services/chain"
)

var (
	usdc   = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	weth   = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	taker  = "0x1111111111111111111111111111111111111111"
	txHash = "0x" + strings.Repeat("ab", 32)
)

func newTestService(t *testing.T) (Service, *repositories.MemoryTradeRepository) {
	t.Helper()
	repo := repositories.NewMemoryTradeRepository()
	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := NewService(repo, chain.NewDefaultRegistry(), nil, nil, WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))
	return svc, repo
}

func createInput() CreateInput {
	return CreateInput{
		ChainID:           1,
		SellToken:         weth,
		BuyToken:          usdc,
		SellAmount:        "1000000000000000000",
		BuyAmount:         "1800000000",
		TakerAddress:      taker,
		PlatformFeeAmount: "9000000",
		FeeBps:            50,
	}
}

func TestCreate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, createInput())
	require.NoError(t, err)
	assert.Len(t, rec.ID, 36)
	assert.Equal(t, models.TradeStatusPending, rec.Status)
	assert.Equal(t, rec.CreatedAt, rec.UpdatedAt)

	got, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.BuyAmount, got.BuyAmount)
}

func TestGetUnknown(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), "4b0d2a1e-1111-4e0f-9e3c-000000000000")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("completes with hash and explorer link", func(t *testing.T) {
		svc, _ := newTestService(t)
		rec, err := svc.Create(ctx, createInput())
		require.NoError(t, err)

		updated, err := svc.UpdateStatus(ctx, rec.ID, models.TradeStatusUpdate{
			Status:          models.TradeStatusCompleted,
			TransactionHash: txHash,
		})
		require.NoError(t, err)
		assert.Equal(t, models.TradeStatusCompleted, updated.Status)
		assert.Equal(t, "https://etherscan.io/tx/"+txHash, updated.ExplorerURL)
		assert.True(t, updated.UpdatedAt.After(rec.UpdatedAt))

		stored, err := svc.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TradeStatusCompleted, stored.Status)
	})

	t.Run("unknown id", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.UpdateStatus(ctx, "4b0d2a1e-1111-4e0f-9e3c-000000000000", models.TradeStatusUpdate{Status: models.TradeStatusFailed})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("terminal status is final", func(t *testing.T) {
		svc, _ := newTestService(t)
		rec, err := svc.Create(ctx, createInput())
		require.NoError(t, err)

		_, err = svc.UpdateStatus(ctx, rec.ID, models.TradeStatusUpdate{Status: models.TradeStatusFailed})
		require.NoError(t, err)

		_, err = svc.UpdateStatus(ctx, rec.ID, models.TradeStatusUpdate{Status: models.TradeStatusCompleted, TransactionHash: txHash})
		assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)

		_, err = svc.UpdateStatus(ctx, rec.ID, models.TradeStatusUpdate{Status: models.TradeStatusFailed})
		assert.NoError(t, err)
	})

	t.Run("rejects malformed hash", func(t *testing.T) {
		svc, _ := newTestService(t)
		rec, err := svc.Create(ctx, createInput())
		require.NoError(t, err)

		_, err = svc.UpdateStatus(ctx, rec.ID, models.TradeStatusUpdate{Status: models.TradeStatusCompleted, TransactionHash: "0x12"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	})

	t.Run("hash cannot change", func(t *testing.T) {
		svc, _ := newTestService(t)
		rec, err := svc.Create(ctx, createInput())
		require.NoError(t, err)

		_, err = svc.UpdateStatus(ctx, rec.ID, models.TradeStatusUpdate{Status: models.TradeStatusPending, TransactionHash: txHash})
		require.NoError(t, err)

		other := "0x" + strings.Repeat("cd", 32)
		_, err = svc.UpdateStatus(ctx, rec.ID, models.TradeStatusUpdate{Status: models.TradeStatusCompleted, TransactionHash: other})
		assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	})
}

func TestListAppliesLimits(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, createInput())
		require.NoError(t, err)
	}

	trades, err := svc.List(ctx, models.TradeFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, trades, 2)
	assert.True(t, trades[0].CreatedAt.After(trades[1].CreatedAt))

	_, err = svc.List(ctx, models.TradeFilter{Status: "settled"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
}

func TestStats(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, createInput())
	require.NoError(t, err)
	_, err = svc.Create(ctx, createInput())
	require.NoError(t, err)

	in := createInput()
	in.ChainID = 137
	in.PlatformFeeAmount = "5"
	_, err = svc.Create(ctx, in)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, a.ID, models.TradeStatusUpdate{Status: models.TradeStatusCompleted, TransactionHash: txHash})
	require.NoError(t, err)

	require.NoError(t, repo.Create(ctx, &models.TradeRecord{
		ID: "legacy", ChainID: 1, BuyToken: usdc, PlatformFeeAmount: "n/a", Status: models.TradeStatusFailed,
	}))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, "18000000", stats.FeesByToken["1:"+usdc])
	assert.Equal(t, "5", stats.FeesByToken["137:"+usdc])
}

type failingRepo struct {
	repositories.TradeRepository
}

func (failingRepo) Create(context.Context, *models.TradeRecord) error {
	return errors.New("disk full")
}

func TestCreateRepositoryFailureIsInternal(t *testing.T) {
	svc := NewService(failingRepo{repositories.NewMemoryTradeRepository()}, chain.NewDefaultRegistry(), nil, nil)
	_, err := svc.Create(context.Background(), createInput())
	assert.ErrorIs(t, err, apperrors.ErrInternal)
	assert.NotContains(t, err.(*apperrors.DomainError).Message, "disk full")
}

// racingRepo lets another writer finish a status change between the
// service's read and its write.
type racingRepo struct {
	*repositories.MemoryTradeRepository
	rival models.TradeStatus
}

func (r *racingRepo) Update(ctx context.Context, t *models.TradeRecord, expected models.TradeStatus) error {
	other := *t
	other.Status = r.rival
	if err := r.MemoryTradeRepository.Update(ctx, &other, expected); err != nil {
		return err
	}
	return r.MemoryTradeRepository.Update(ctx, t, expected)
}

func TestUpdateStatusLosesRace(t *testing.T) {
	ctx := context.Background()
	repo := &racingRepo{MemoryTradeRepository: repositories.NewMemoryTradeRepository(), rival: models.TradeStatusFailed}
	svc := NewService(repo, chain.NewDefaultRegistry(), nil, nil)

	rec, err := svc.Create(ctx, createInput())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, rec.ID, models.TradeStatusUpdate{Status: models.TradeStatusCompleted, TransactionHash: txHash})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, 409, apperrors.StatusOf(err))

	stored, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TradeStatusFailed, stored.Status)
	assert.Empty(t, stored.TransactionHash)
}

func TestUpdateStatusConcurrentTerminal(t *testing.T) {
	ctx := context.Background()
	svc := NewService(repositories.NewMemoryTradeRepository(), chain.NewDefaultRegistry(), nil, nil)
	rec, err := svc.Create(ctx, createInput())
	require.NoError(t, err)

	targets := []models.TradeStatus{models.TradeStatusCompleted, models.TradeStatusFailed}
	errs := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, status := range targets {
		wg.Add(1)
		go func(i int, status models.TradeStatus) {
			defer wg.Done()
			_, errs[i] = svc.UpdateStatus(ctx, rec.ID, models.TradeStatusUpdate{Status: status})
		}(i, status)
	}
	wg.Wait()

	var winner models.TradeStatus
	succeeded := 0
	for i, err := range errs {
		if err == nil {
			succeeded++
			winner = targets[i]
			continue
		}
		// The loser either read the winner's terminal status or lost the write.
		assert.True(t, errors.Is(err, apperrors.ErrConflict) || errors.Is(err, apperrors.ErrInvalidRequest), err)
	}
	require.Equal(t, 1, succeeded)

	stored, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, winner, stored.Status)
}
