package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/django102/routelink-capricorn/internal/models"
	"github.com/django102/routelink-capricorn/pkg/logger"
)

func newTestFraudService(repo *mockTransactionRepository, cache *mockCacheRepository, now time.Time) *fraudService {
	return &fraudService{
		txRepo:    repo,
		cacheRepo: cache,
		logger:    logger.NewLogger("test"),
		config:    DefaultFraudConfig(),
		now:       func() time.Time { return now },
	}
}

func TestEvaluateTransaction_AdditiveScore(t *testing.T) {
	// Large amount (+30) and new recipient (+20) with no cached pattern:
	// score 50 sits exactly on the threshold and is not fraudulent.
	repo := &mockTransactionRepository{countSince: 0, recipientKnown: false}
	cache := &mockCacheRepository{}
	svc := newTestFraudService(repo, cache, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))

	result, err := svc.EvaluateTransaction(context.Background(), models.EvaluationRequest{
		UserID:          "user-1",
		TransactionType: models.TypeAirtime,
		Amount:          15000,
		Recipient:       "08031234567",
	})
	require.NoError(t, err)

	assert.Equal(t, 50.0, result.FraudScore)
	assert.False(t, result.IsFraudulent)
	assert.Equal(t, []string{"Large transaction amount", "New recipient"}, result.Reasons)
}

func TestEvaluateTransaction_OverThresholdBlocks(t *testing.T) {
	// Large amount, high frequency and a new recipient: 30+25+20 = 75.
	repo := &mockTransactionRepository{countSince: 6, recipientKnown: false}
	cache := &mockCacheRepository{}
	svc := newTestFraudService(repo, cache, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))

	result, err := svc.EvaluateTransaction(context.Background(), models.EvaluationRequest{
		UserID:    "user-1",
		Amount:    20000,
		Recipient: "08031234567",
	})
	require.NoError(t, err)

	assert.Equal(t, 75.0, result.FraudScore)
	assert.True(t, result.IsFraudulent)
}

func TestEvaluateTransaction_PatternRules(t *testing.T) {
	pattern := &models.UserTransactionPattern{
		UserID:                 "user-1",
		AverageDailySpending:   100,
		CommonTransactionHours: []int{9, 10, 11},
	}

	t.Run("UnusualHourAndSpending", func(t *testing.T) {
		repo := &mockTransactionRepository{countSince: 0, recipientKnown: true, sumSince: 250}
		cache := &mockCacheRepository{pattern: pattern}
		// 03:00 is outside the user's common hours; 250+100 exceeds 3x100.
		svc := newTestFraudService(repo, cache, time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC))

		result, err := svc.EvaluateTransaction(context.Background(), models.EvaluationRequest{
			UserID:    "user-1",
			Amount:    100,
			Recipient: "08031234567",
		})
		require.NoError(t, err)

		assert.Equal(t, 25.0, result.FraudScore)
		assert.Equal(t, []string{"Unusual transaction time", "Unusual spending pattern"}, result.Reasons)
	})

	t.Run("CommonHourNormalSpend", func(t *testing.T) {
		repo := &mockTransactionRepository{countSince: 0, recipientKnown: true, sumSince: 50}
		cache := &mockCacheRepository{pattern: pattern}
		svc := newTestFraudService(repo, cache, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))

		result, err := svc.EvaluateTransaction(context.Background(), models.EvaluationRequest{
			UserID:    "user-1",
			Amount:    100,
			Recipient: "08031234567",
		})
		require.NoError(t, err)

		assert.Equal(t, 0.0, result.FraudScore)
		assert.Empty(t, result.Reasons)
	})
}

func TestEvaluateTransaction_CacheFailureDegrades(t *testing.T) {
	// A broken cache means no pattern: rules 4 and 5 do not fire, but the
	// evaluation itself still succeeds.
	repo := &mockTransactionRepository{countSince: 0, recipientKnown: true}
	cache := &mockCacheRepository{getPatternErr: errors.New("connection refused")}
	svc := newTestFraudService(repo, cache, time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC))

	result, err := svc.EvaluateTransaction(context.Background(), models.EvaluationRequest{
		UserID:    "user-1",
		Amount:    100,
		Recipient: "08031234567",
	})
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.FraudScore)
	assert.False(t, result.IsFraudulent)
}

func TestEvaluateTransaction_RecomputesPatternOnMiss(t *testing.T) {
	history := []models.Transaction{
		{Amount: 100, CreatedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
		{Amount: 200, CreatedAt: time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)},
		{Amount: 300, CreatedAt: time.Date(2024, 5, 3, 14, 0, 0, 0, time.UTC)},
	}
	repo := &mockTransactionRepository{countSince: 0, recipientKnown: true, history: history}
	cache := &mockCacheRepository{}
	svc := newTestFraudService(repo, cache, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))

	_, err := svc.EvaluateTransaction(context.Background(), models.EvaluationRequest{
		UserID:    "user-1",
		Amount:    100,
		Recipient: "08031234567",
	})
	require.NoError(t, err)

	// The recomputed pattern is written back to the cache.
	require.Equal(t, 1, cache.setCalls)
	require.NotNil(t, cache.lastSet)
	assert.Equal(t, 200.0, cache.lastSet.AverageDailySpending)
	assert.Equal(t, []int{9, 14}, cache.lastSet.CommonTransactionHours)
}

func TestComputePattern_Deterministic(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	history := []models.Transaction{
		{Amount: 10, CreatedAt: base.Add(8 * time.Hour)},
		{Amount: 10, CreatedAt: base.Add(8 * time.Hour)},
		{Amount: 10, CreatedAt: base.Add(12 * time.Hour)},
		{Amount: 10, CreatedAt: base.Add(12 * time.Hour)},
		{Amount: 10, CreatedAt: base.Add(20 * time.Hour)},
		{Amount: 10, CreatedAt: base.Add(22 * time.Hour)},
	}

	first := computePattern("user-1", history)
	// Hours 20 and 22 tie on frequency; the lower hour ranks first.
	assert.Equal(t, []int{8, 12, 20}, first.CommonTransactionHours)

	for i := 0; i < 10; i++ {
		assert.Equal(t, first, computePattern("user-1", history))
	}
}

func TestEvaluateTransaction_NoHistoryNoPattern(t *testing.T) {
	repo := &mockTransactionRepository{recipientKnown: true}
	cache := &mockCacheRepository{}
	svc := newTestFraudService(repo, cache, time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC))

	result, err := svc.EvaluateTransaction(context.Background(), models.EvaluationRequest{
		UserID:    "new-user",
		Amount:    100,
		Recipient: "08031234567",
	})
	require.NoError(t, err)

	// First-time users have no pattern; the time rule does not fire even
	// at an odd hour, and nothing is written to the cache.
	assert.Equal(t, 0.0, result.FraudScore)
	assert.Equal(t, 0, cache.setCalls)
}
