package models

import "time"

// Transaction statuses. A transaction is created Pending and moves forward
// exactly once into one of the terminal states.
const (
	StatusPending   = "Pending"
	StatusCompleted = "Completed"
	StatusFailed    = "Failed"
	StatusBlocked   = "Blocked"
)

// Transaction types.
const (
	TypeAirtime = "Airtime"
	TypeData    = "Data"
	TypeTV      = "TV"
)

type Transaction struct {
	ID              string    `db:"id"` // UUID PK
	UserID          string    `db:"user_id"`
	TransactionType string    `db:"transaction_type"` // Airtime, Data, TV
	Provider        string    `db:"provider"`
	Recipient       string    `db:"recipient"`
	Amount          float64   `db:"amount"`
	Reference       *string   `db:"reference"` // provider-assigned, set on completion
	Status          string    `db:"status"`
	FailureReason   *string   `db:"failure_reason"`
	IdempotencyKey  string    `db:"idempotency_key"` // unique index
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// Terminal reports whether no further automatic status transition can occur.
func (t *Transaction) Terminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed || t.Status == StatusBlocked
}

type AirtimePurchaseRequest struct {
	PhoneNumber    string  `json:"phoneNumber" validate:"required,msisdn"`
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	Provider       string  `json:"provider" validate:"required"`
	IdempotencyKey string  `json:"idempotencyKey"`
}

type DataPurchaseRequest struct {
	PhoneNumber    string `json:"phoneNumber" validate:"required,msisdn"`
	DataPlanID     string `json:"dataPlanId" validate:"required"`
	Provider       string `json:"provider" validate:"required"`
	IdempotencyKey string `json:"idempotencyKey"`
}

type TVSubscriptionRequest struct {
	SmartCardNumber    string `json:"smartCardNumber" validate:"required,smartcard"`
	SubscriptionPlanID string `json:"subscriptionPlanId" validate:"required"`
	Provider           string `json:"provider" validate:"required"`
	IdempotencyKey     string `json:"idempotencyKey"`
}
