package service

import (
	"context"

	"github.com/django102/routelink-capricorn/internal/capricorn"
)

// CapricornClient interface for provider purchase operations
// Allows for easier testing with mocks
type CapricornClient interface {
	PurchaseAirtime(ctx context.Context, phoneNumber string, amount float64) (*capricorn.PurchaseResult, error)
	PurchaseData(ctx context.Context, phoneNumber, dataPlanID string) (*capricorn.PurchaseResult, error)
	SubscribeTV(ctx context.Context, smartCardNumber, subscriptionPlanID string) (*capricorn.PurchaseResult, error)
}
