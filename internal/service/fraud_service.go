package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/django102/routelink-capricorn/internal/models"
	"github.com/django102/routelink-capricorn/internal/repository"
	"github.com/django102/routelink-capricorn/pkg/logger"
)

// FraudConfig holds the rule weights and thresholds. Scores are additive;
// a final score above BlockThreshold marks the request fraudulent.
type FraudConfig struct {
	LargeAmountThreshold float64
	LargeAmountScore     float64
	FrequencyWindow      time.Duration
	FrequencyLimit       int
	FrequencyScore       float64
	NewRecipientScore    float64
	UnusualHourScore     float64
	SpendingWindow       time.Duration
	SpendingMultiplier   float64
	SpendingScore        float64
	BlockThreshold       float64
	PatternTTL           time.Duration
}

// DefaultFraudConfig returns the production rule weights.
func DefaultFraudConfig() FraudConfig {
	return FraudConfig{
		LargeAmountThreshold: 10000,
		LargeAmountScore:     30,
		FrequencyWindow:      time.Hour,
		FrequencyLimit:       5,
		FrequencyScore:       25,
		NewRecipientScore:    20,
		UnusualHourScore:     15,
		SpendingWindow:       24 * time.Hour,
		SpendingMultiplier:   3,
		SpendingScore:        10,
		BlockThreshold:       50,
		PatternTTL:           time.Hour,
	}
}

type FraudService interface {
	EvaluateTransaction(ctx context.Context, req models.EvaluationRequest) (*models.FraudDetectionResult, error)
}

type fraudService struct {
	txRepo    repository.TransactionRepository
	cacheRepo repository.CacheRepository
	logger    *logger.Logger
	config    FraudConfig
	now       func() time.Time
}

func NewFraudService(
	txRepo repository.TransactionRepository,
	cacheRepo repository.CacheRepository,
	log *logger.Logger,
	config FraudConfig,
) FraudService {
	return &fraudService{
		txRepo:    txRepo,
		cacheRepo: cacheRepo,
		logger:    log,
		config:    config,
		now:       time.Now,
	}
}

// EvaluateTransaction scores the request against the five rules in fixed
// order. Rules never short-circuit each other; every applicable rule
// evaluates and the scores sum. Given identical history and an identical
// clock the result is reproducible.
func (s *fraudService) EvaluateTransaction(ctx context.Context, req models.EvaluationRequest) (*models.FraudDetectionResult, error) {
	now := s.now()
	score := 0.0
	var reasons []string

	// Rule 1: large transaction amount
	if req.Amount > s.config.LargeAmountThreshold {
		score += s.config.LargeAmountScore
		reasons = append(reasons, "Large transaction amount")
	}

	// Rule 2: high transaction frequency in the trailing window
	count, err := s.txRepo.CountSince(ctx, req.UserID, now.Add(-s.config.FrequencyWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to count recent transactions: %w", err)
	}
	if count > s.config.FrequencyLimit {
		score += s.config.FrequencyScore
		reasons = append(reasons, "High transaction frequency")
	}

	// Rule 3: recipient never seen in the user's history
	known, err := s.txRepo.HasRecipient(ctx, req.UserID, req.Recipient)
	if err != nil {
		return nil, fmt.Errorf("failed to check recipient history: %w", err)
	}
	if !known {
		score += s.config.NewRecipientScore
		reasons = append(reasons, "New recipient")
	}

	// Rules 4 and 5 need the cached behavioural profile. Without one
	// (no history yet, or cache trouble) they do not fire.
	pattern := s.userPattern(ctx, req.UserID)
	if pattern != nil {
		if !containsHour(pattern.CommonTransactionHours, now.Hour()) {
			score += s.config.UnusualHourScore
			reasons = append(reasons, "Unusual transaction time")
		}

		daySpend, err := s.txRepo.SumAmountSince(ctx, req.UserID, now.Add(-s.config.SpendingWindow))
		if err != nil {
			return nil, fmt.Errorf("failed to sum trailing spend: %w", err)
		}
		if daySpend+req.Amount > pattern.AverageDailySpending*s.config.SpendingMultiplier {
			score += s.config.SpendingScore
			reasons = append(reasons, "Unusual spending pattern")
		}
	}

	return &models.FraudDetectionResult{
		IsFraudulent: score > s.config.BlockThreshold,
		FraudScore:   score,
		Reasons:      reasons,
	}, nil
}

// userPattern fetches the cached profile, recomputing it from full history
// on a miss. Cache reads and writes are best-effort: any cache failure
// degrades to "no pattern available" rather than failing the evaluation.
func (s *fraudService) userPattern(ctx context.Context, userID string) *models.UserTransactionPattern {
	pattern, err := s.cacheRepo.GetUserPattern(ctx, userID)
	if err != nil {
		s.logger.WithUserID(userID).Warnf("Failed to read user pattern cache: %v", err)
		return nil
	}
	if pattern != nil {
		return pattern
	}

	history, err := s.txRepo.FindByUser(ctx, userID)
	if err != nil {
		s.logger.WithUserID(userID).Warnf("Failed to load history for pattern: %v", err)
		return nil
	}
	if len(history) == 0 {
		// No pattern exists yet for first-time users.
		return nil
	}

	pattern = computePattern(userID, history)
	if err := s.cacheRepo.SetUserPattern(ctx, pattern, s.config.PatternTTL); err != nil {
		s.logger.WithUserID(userID).Warnf("Failed to write user pattern cache: %v", err)
	}
	return pattern
}

// computePattern summarises history into the cached profile: mean amount
// and the top three hours of day by frequency. Ties break on the lower
// hour so recomputation is deterministic.
func computePattern(userID string, history []models.Transaction) *models.UserTransactionPattern {
	total := 0.0
	hourCounts := make(map[int]int)
	for _, t := range history {
		total += t.Amount
		hourCounts[t.CreatedAt.Hour()]++
	}

	hours := make([]int, 0, len(hourCounts))
	for h := range hourCounts {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool {
		if hourCounts[hours[i]] != hourCounts[hours[j]] {
			return hourCounts[hours[i]] > hourCounts[hours[j]]
		}
		return hours[i] < hours[j]
	})
	if len(hours) > 3 {
		hours = hours[:3]
	}

	return &models.UserTransactionPattern{
		UserID:                 userID,
		AverageDailySpending:   total / float64(len(history)),
		CommonTransactionHours: hours,
	}
}

func containsHour(hours []int, hour int) bool {
	for _, h := range hours {
		if h == hour {
			return true
		}
	}
	return false
}
