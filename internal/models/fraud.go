package models

// EvaluationRequest carries the attributes of a purchase that fraud rules
// score against. Amount is zero for plan-priced purchases (data, TV) whose
// price is resolved by the provider.
type EvaluationRequest struct {
	UserID          string  `json:"userId"`
	TransactionType string  `json:"transactionType"`
	Amount          float64 `json:"amount"`
	Recipient       string  `json:"recipient"`
}

// FraudDetectionResult is the outcome of one evaluation. It is never
// persisted; the joined Reasons end up on a Blocked transaction row.
type FraudDetectionResult struct {
	IsFraudulent bool     `json:"isFraudulent"`
	FraudScore   float64  `json:"fraudScore"`
	Reasons      []string `json:"reasons"`
}

// UserTransactionPattern is the cached behavioural profile a user's history
// is summarised into. Staleness within the cache TTL is accepted.
type UserTransactionPattern struct {
	UserID                 string  `json:"userId"`
	AverageDailySpending   float64 `json:"averageDailySpending"`
	CommonTransactionHours []int   `json:"commonTransactionHours"` // top 3, ranked by frequency
}
