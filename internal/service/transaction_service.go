package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/django102/routelink-capricorn/internal/capricorn"
	"github.com/django102/routelink-capricorn/internal/models"
	"github.com/django102/routelink-capricorn/internal/repository"
	"github.com/django102/routelink-capricorn/pkg/helpers"
	"github.com/django102/routelink-capricorn/pkg/logger"
)

var (
	ErrDuplicateTransaction = errors.New("duplicate transaction detected")
	ErrTransactionBlocked   = errors.New("transaction blocked by fraud screening")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrProviderFailed       = errors.New("provider purchase failed")
)

// mysqlDuplicateEntry is the server error number for a unique index violation.
const mysqlDuplicateEntry = 1062

// Observer receives business events at defined points of the purchase state
// machine. Implementations must be safe for concurrent use; a no-op
// implementation is fine for tests.
type Observer interface {
	TransactionFinished(transactionType, status string)
	FraudEvaluated(fraudulent bool)
}

// NoopObserver discards all events.
type NoopObserver struct{}

func (NoopObserver) TransactionFinished(string, string) {}
func (NoopObserver) FraudEvaluated(bool)                {}

type TransactionService interface {
	PurchaseAirtime(ctx context.Context, req *models.AirtimePurchaseRequest, userID string) (*models.Transaction, error)
	PurchaseData(ctx context.Context, req *models.DataPurchaseRequest, userID string) (*models.Transaction, error)
	SubscribeTV(ctx context.Context, req *models.TVSubscriptionRequest, userID string) (*models.Transaction, error)
	GetTransactionByID(ctx context.Context, id, userID string) (*models.Transaction, error)
}

type transactionService struct {
	txRepo       repository.TransactionRepository
	fraudService FraudService
	capricorn    CapricornClient
	observer     Observer
	logger       *logger.Logger
}

func NewTransactionService(
	txRepo repository.TransactionRepository,
	fraudService FraudService,
	capricornClient CapricornClient,
	observer Observer,
	log *logger.Logger,
) TransactionService {
	return &transactionService{
		txRepo:       txRepo,
		fraudService: fraudService,
		capricorn:    capricornClient,
		observer:     observer,
		logger:       log,
	}
}

// purchase describes one product-specific run of the shared state machine.
// providerPriced products (data, TV) take their settled amount from the
// provider response rather than the request.
type purchase struct {
	transactionType string
	provider        string
	recipient       string
	amount          float64
	idempotencyKey  string
	providerPriced  bool
	call            func(ctx context.Context) (*capricorn.PurchaseResult, error)
}

func (s *transactionService) PurchaseAirtime(ctx context.Context, req *models.AirtimePurchaseRequest, userID string) (*models.Transaction, error) {
	return s.execute(ctx, userID, purchase{
		transactionType: models.TypeAirtime,
		provider:        req.Provider,
		recipient:       req.PhoneNumber,
		amount:          req.Amount,
		idempotencyKey:  req.IdempotencyKey,
		call: func(ctx context.Context) (*capricorn.PurchaseResult, error) {
			return s.capricorn.PurchaseAirtime(ctx, req.PhoneNumber, req.Amount)
		},
	})
}

func (s *transactionService) PurchaseData(ctx context.Context, req *models.DataPurchaseRequest, userID string) (*models.Transaction, error) {
	return s.execute(ctx, userID, purchase{
		transactionType: models.TypeData,
		provider:        req.Provider,
		recipient:       req.PhoneNumber,
		idempotencyKey:  req.IdempotencyKey,
		providerPriced:  true,
		call: func(ctx context.Context) (*capricorn.PurchaseResult, error) {
			return s.capricorn.PurchaseData(ctx, req.PhoneNumber, req.DataPlanID)
		},
	})
}

func (s *transactionService) SubscribeTV(ctx context.Context, req *models.TVSubscriptionRequest, userID string) (*models.Transaction, error) {
	return s.execute(ctx, userID, purchase{
		transactionType: models.TypeTV,
		provider:        req.Provider,
		recipient:       req.SmartCardNumber,
		idempotencyKey:  req.IdempotencyKey,
		providerPriced:  true,
		call: func(ctx context.Context) (*capricorn.PurchaseResult, error) {
			return s.capricorn.SubscribeTV(ctx, req.SmartCardNumber, req.SubscriptionPlanID)
		},
	})
}

// execute drives a purchase to a terminal state: duplicate check, fraud
// screen, persist Pending, provider call, persist final. Every failure past
// the Pending write records a terminal status before the error propagates.
func (s *transactionService) execute(ctx context.Context, userID string, p purchase) (*models.Transaction, error) {
	// Step 1: a known idempotency key means a retried write, not a replay.
	dup, err := s.txRepo.IsDuplicate(ctx, p.idempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	if dup {
		s.logger.WithUserID(userID).Warnf("Duplicate transaction attempt for idempotency key %s", p.idempotencyKey)
		return nil, ErrDuplicateTransaction
	}

	// Step 2: fraud screen before anything is persisted.
	result, err := s.fraudService.EvaluateTransaction(ctx, models.EvaluationRequest{
		UserID:          userID,
		TransactionType: p.transactionType,
		Amount:          p.amount,
		Recipient:       p.recipient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate transaction: %w", err)
	}
	s.observer.FraudEvaluated(result.IsFraudulent)

	key := p.idempotencyKey
	if key == "" {
		key = helpers.GenerateIdempotencyKey()
	}

	transaction := &models.Transaction{
		ID:              helpers.GenerateTransactionID(),
		UserID:          userID,
		TransactionType: p.transactionType,
		Provider:        p.provider,
		Recipient:       p.recipient,
		Amount:          p.amount,
		Status:          models.StatusPending,
		IdempotencyKey:  key,
	}

	if result.IsFraudulent {
		reason := strings.Join(result.Reasons, "; ")
		transaction.Status = models.StatusBlocked
		transaction.FailureReason = &reason
		if err := s.txRepo.Add(ctx, transaction); err != nil {
			return nil, s.translateAddError(err)
		}
		s.observer.TransactionFinished(p.transactionType, models.StatusBlocked)
		s.logger.WithUserID(userID).WithField("fraud_score", result.FraudScore).
			Warnf("Transaction blocked: %s", reason)
		return nil, fmt.Errorf("%w: %s", ErrTransactionBlocked, reason)
	}

	// Step 3: persist Pending. The unique index on idempotency_key decides
	// concurrent races; exactly one writer wins.
	if err := s.txRepo.Add(ctx, transaction); err != nil {
		return nil, s.translateAddError(err)
	}

	// Steps 4 and 5 must survive caller disconnects. An abandoned Pending
	// row would leave funds state ambiguous, so the in-flight provider call
	// and its finalization always run to completion.
	ctx = context.WithoutCancel(ctx)

	providerResult, err := p.call(ctx)
	if err != nil {
		reason := err.Error()
		transaction.Status = models.StatusFailed
		transaction.FailureReason = &reason
		if uerr := s.txRepo.Update(ctx, transaction); uerr != nil {
			s.logger.WithTransactionID(transaction.ID).Errorf("Failed to record transaction failure: %v", uerr)
		}
		s.observer.TransactionFinished(p.transactionType, models.StatusFailed)
		s.logger.WithTransactionID(transaction.ID).Errorf("Provider call failed: %v", err)
		return nil, fmt.Errorf("%w: %s", ErrProviderFailed, reason)
	}

	transaction.Status = models.StatusCompleted
	transaction.Reference = &providerResult.Reference
	if p.providerPriced {
		transaction.Amount = providerResult.Amount
	}
	if err := s.txRepo.Update(ctx, transaction); err != nil {
		// The provider has settled; the row must not be left Pending
		// silently. Surface the write failure for reconciliation.
		s.logger.WithTransactionID(transaction.ID).Errorf("Failed to finalize completed transaction: %v", err)
		return nil, fmt.Errorf("failed to finalize transaction %s: %w", transaction.ID, err)
	}
	s.observer.TransactionFinished(p.transactionType, models.StatusCompleted)

	return transaction, nil
}

// GetTransactionByID returns the transaction only to its owner. An ownership
// mismatch is indistinguishable from absence so existence never leaks.
func (s *transactionService) GetTransactionByID(ctx context.Context, id, userID string) (*models.Transaction, error) {
	transaction, err := s.txRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	if transaction == nil || transaction.UserID != userID {
		return nil, ErrTransactionNotFound
	}
	return transaction, nil
}

// translateAddError maps a unique index violation on idempotency_key to the
// duplicate sentinel so racing writers see a well-typed conflict.
func (s *transactionService) translateAddError(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return ErrDuplicateTransaction
	}
	return fmt.Errorf("failed to create transaction: %w", err)
}
