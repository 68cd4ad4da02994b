package handler

import (
	"encoding/json"
	"net/http"

	"github.com/django102/routelink-capricorn/internal/models"
)

// TransactionResponse is the outbound shape of a transaction record.
type TransactionResponse struct {
	ID            string  `json:"id"`
	Status        string  `json:"status"`
	Reference     *string `json:"reference,omitempty"`
	Amount        float64 `json:"amount"`
	FailureReason *string `json:"failureReason,omitempty"`
}

func toTransactionResponse(t *models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		Status:        t.Status,
		Reference:     t.Reference,
		Amount:        t.Amount,
		FailureReason: t.FailureReason,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
