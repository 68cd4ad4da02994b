package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/django102/routelink-capricorn/internal/models"
)

type TransactionRepository interface {
	Add(ctx context.Context, transaction *models.Transaction) error
	Update(ctx context.Context, transaction *models.Transaction) error
	FindByID(ctx context.Context, id string) (*models.Transaction, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error)
	IsDuplicate(ctx context.Context, key string) (bool, error)
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)
	SumAmountSince(ctx context.Context, userID string, since time.Time) (float64, error)
	HasRecipient(ctx context.Context, userID, recipient string) (bool, error)
	FindByUser(ctx context.Context, userID string) ([]models.Transaction, error)
}

type transactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

const transactionColumns = "id, user_id, transaction_type, provider, recipient, amount, reference, status, failure_reason, idempotency_key, created_at, updated_at"

func (r *transactionRepository) Add(ctx context.Context, transaction *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, transaction_type, provider, recipient, amount, reference, status, failure_reason, idempotency_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	transaction.CreatedAt = now
	transaction.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, query,
		transaction.ID, transaction.UserID, transaction.TransactionType, transaction.Provider,
		transaction.Recipient, transaction.Amount, transaction.Reference, transaction.Status,
		transaction.FailureReason, transaction.IdempotencyKey, transaction.CreatedAt, transaction.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

func (r *transactionRepository) Update(ctx context.Context, transaction *models.Transaction) error {
	query := `
		UPDATE transactions
		SET status = ?, reference = ?, amount = ?, failure_reason = ?, updated_at = ?
		WHERE id = ?
	`

	transaction.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		transaction.Status,
		transaction.Reference,
		transaction.Amount,
		transaction.FailureReason,
		transaction.UpdatedAt,
		transaction.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	return nil
}

func (r *transactionRepository) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = ?
	`
	transaction := &models.Transaction{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&transaction.ID, &transaction.UserID, &transaction.TransactionType, &transaction.Provider,
		&transaction.Recipient, &transaction.Amount, &transaction.Reference, &transaction.Status,
		&transaction.FailureReason, &transaction.IdempotencyKey,
		&transaction.CreatedAt, &transaction.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return transaction, nil
}

func (r *transactionRepository) FindByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE idempotency_key = ?
		LIMIT 1
	`
	transaction := &models.Transaction{}
	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&transaction.ID, &transaction.UserID, &transaction.TransactionType, &transaction.Provider,
		&transaction.Recipient, &transaction.Amount, &transaction.Reference, &transaction.Status,
		&transaction.FailureReason, &transaction.IdempotencyKey,
		&transaction.CreatedAt, &transaction.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction by idempotency key: %w", err)
	}
	return transaction, nil
}

// IsDuplicate reports whether a transaction with the given idempotency key
// already exists. An empty key never counts as a duplicate.
func (r *transactionRepository) IsDuplicate(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, nil
	}

	query := `SELECT EXISTS(SELECT 1 FROM transactions WHERE idempotency_key = ?)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	return exists, nil
}

func (r *transactionRepository) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM transactions WHERE user_id = ? AND created_at >= ?`
	var count int
	err := r.db.QueryRowContext(ctx, query, userID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

func (r *transactionRepository) SumAmountSince(ctx context.Context, userID string, since time.Time) (float64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE user_id = ? AND created_at >= ?`
	var sum float64
	err := r.db.QueryRowContext(ctx, query, userID, since).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum transaction amounts: %w", err)
	}
	return sum, nil
}

func (r *transactionRepository) HasRecipient(ctx context.Context, userID, recipient string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM transactions WHERE user_id = ? AND recipient = ?)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, userID, recipient).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check recipient: %w", err)
	}
	return exists, nil
}

func (r *transactionRepository) FindByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var t models.Transaction
		err := rows.Scan(
			&t.ID, &t.UserID, &t.TransactionType, &t.Provider,
			&t.Recipient, &t.Amount, &t.Reference, &t.Status,
			&t.FailureReason, &t.IdempotencyKey,
			&t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user transactions: %w", err)
	}
	return transactions, nil
}
