package service

import (
	"context"
	"time"

	"github.com/django102/routelink-capricorn/internal/capricorn"
	"github.com/django102/routelink-capricorn/internal/models"
)

type mockTransactionRepository struct {
	addErr      error
	addHook     func()
	addCalls    int
	lastAdded   *models.Transaction
	updateErr   error
	updateCalls int
	lastUpdated *models.Transaction

	byID map[string]*models.Transaction

	duplicate    bool
	duplicateErr error

	countSince     int
	countSinceErr  error
	sumSince       float64
	sumSinceErr    error
	recipientKnown bool
	recipientErr   error
	history        []models.Transaction
	historyErr     error
}

func (m *mockTransactionRepository) Add(ctx context.Context, t *models.Transaction) error {
	m.addCalls++
	if m.addHook != nil {
		m.addHook()
	}
	if m.addErr != nil {
		return m.addErr
	}
	copied := *t
	m.lastAdded = &copied
	return nil
}

func (m *mockTransactionRepository) Update(ctx context.Context, t *models.Transaction) error {
	m.updateCalls++
	if m.updateErr != nil {
		return m.updateErr
	}
	copied := *t
	m.lastUpdated = &copied
	return nil
}

func (m *mockTransactionRepository) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	return m.byID[id], nil
}

func (m *mockTransactionRepository) FindByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error) {
	return nil, nil
}

func (m *mockTransactionRepository) IsDuplicate(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	return m.duplicate, m.duplicateErr
}

func (m *mockTransactionRepository) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	return m.countSince, m.countSinceErr
}

func (m *mockTransactionRepository) SumAmountSince(ctx context.Context, userID string, since time.Time) (float64, error) {
	return m.sumSince, m.sumSinceErr
}

func (m *mockTransactionRepository) HasRecipient(ctx context.Context, userID, recipient string) (bool, error) {
	return m.recipientKnown, m.recipientErr
}

func (m *mockTransactionRepository) FindByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	return m.history, m.historyErr
}

type mockCacheRepository struct {
	pattern       *models.UserTransactionPattern
	getPatternErr error
	setPatternErr error
	setCalls      int
	lastSet       *models.UserTransactionPattern

	idempotent map[string][]byte
}

func (m *mockCacheRepository) GetIdempotentResponse(ctx context.Context, key string) ([]byte, error) {
	return m.idempotent[key], nil
}

func (m *mockCacheRepository) SetIdempotentResponse(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	if m.idempotent == nil {
		m.idempotent = make(map[string][]byte)
	}
	m.idempotent[key] = body
	return nil
}

func (m *mockCacheRepository) GetUserPattern(ctx context.Context, userID string) (*models.UserTransactionPattern, error) {
	return m.pattern, m.getPatternErr
}

func (m *mockCacheRepository) SetUserPattern(ctx context.Context, pattern *models.UserTransactionPattern, ttl time.Duration) error {
	m.setCalls++
	m.lastSet = pattern
	return m.setPatternErr
}

type mockFraudService struct {
	result *models.FraudDetectionResult
	err    error
}

func (m *mockFraudService) EvaluateTransaction(ctx context.Context, req models.EvaluationRequest) (*models.FraudDetectionResult, error) {
	return m.result, m.err
}

type mockCapricornClient struct {
	result *capricorn.PurchaseResult
	err    error
	calls  int

	// context error observed at call time, for cancellation tests
	lastCtxErr error
}

func (m *mockCapricornClient) PurchaseAirtime(ctx context.Context, phoneNumber string, amount float64) (*capricorn.PurchaseResult, error) {
	m.calls++
	m.lastCtxErr = ctx.Err()
	return m.result, m.err
}

func (m *mockCapricornClient) PurchaseData(ctx context.Context, phoneNumber, dataPlanID string) (*capricorn.PurchaseResult, error) {
	m.calls++
	m.lastCtxErr = ctx.Err()
	return m.result, m.err
}

func (m *mockCapricornClient) SubscribeTV(ctx context.Context, smartCardNumber, subscriptionPlanID string) (*capricorn.PurchaseResult, error) {
	m.calls++
	m.lastCtxErr = ctx.Err()
	return m.result, m.err
}
