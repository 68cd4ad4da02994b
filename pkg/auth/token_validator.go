package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrInvalidToken is returned when the account service rejects a token.
var ErrInvalidToken = errors.New("invalid token")

// UserContext carries the authenticated caller's identity through the
// request context.
type UserContext struct {
	UserID string
	Email  string
	Token  string
}

// UserContextKey is the context key under which UserContext is stored.
type UserContextKey struct{}

// TokenValidator validates a bearer token and resolves it to a UserContext.
// Token issuance and account management live in the account service; this
// service only ever introspects.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*UserContext, error)
}

// AccountServiceTokenValidator implements TokenValidator against the account
// service's HTTP introspection endpoint.
type AccountServiceTokenValidator struct {
	httpClient *http.Client
	baseURL    string
}

// NewAccountServiceTokenValidator creates a validator that calls the account
// service at the given base URL.
func NewAccountServiceTokenValidator(baseURL string) *AccountServiceTokenValidator {
	return &AccountServiceTokenValidator{
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		baseURL: baseURL,
	}
}

// ValidateToken validates the token by calling the account service and
// returns the resolved UserContext.
func (v *AccountServiceTokenValidator) ValidateToken(ctx context.Context, token string) (*UserContext, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/api/auth/validate", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create validation request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidToken
	}

	var body struct {
		Valid  bool   `json:"valid"`
		UserID string `json:"userId"`
		Email  string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode validation response: %w", err)
	}
	if !body.Valid {
		return nil, ErrInvalidToken
	}

	return &UserContext{
		UserID: body.UserID,
		Email:  body.Email,
		Token:  token,
	}, nil
}
