package capricorn

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/django102/routelink-capricorn/pkg/logger"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:        baseURL,
		APIKey:         "test-key",
		MaxRetries:     3,
		BackoffBase:    time.Millisecond,
		RequestTimeout: 5 * time.Second,
	}, logger.NewLogger("test"), nil)
}

func TestPurchaseAirtime_SendsAuthAndPayload(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		json.NewEncoder(w).Encode(map[string]interface{}{"reference": "REF-1", "status": "success"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.PurchaseAirtime(context.Background(), "08031234567", 500)
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "08031234567", gotPayload["phoneNumber"])
	assert.Equal(t, 500.0, gotPayload["amount"])
	assert.NotEmpty(t, gotPayload["reference"])
	assert.Equal(t, "REF-1", result.Reference)
}

func TestExecute_RetriesOnServerErrorThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"reference": "REF-2", "status": "success"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.PurchaseAirtime(context.Background(), "08031234567", 500)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, "REF-2", result.Reference)
}

func TestExecute_ExhaustsRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.PurchaseAirtime(context.Background(), "08031234567", 500)

	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Contains(t, err.Error(), "after 3 attempts")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestExecute_ClientErrorDoesNotRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"invalid plan"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.PurchaseData(context.Background(), "08031234567", "BAD-PLAN")

	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestSubscribeTV_ParsesSettledAmount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "1234567890", payload["smartCardNumber"])
		assert.Equal(t, "DSTV-COMPACT", payload["subscriptionPlanId"])
		json.NewEncoder(w).Encode(map[string]interface{}{"reference": "REF-3", "status": "success", "amount": 6200})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.SubscribeTV(context.Background(), "1234567890", "DSTV-COMPACT")
	require.NoError(t, err)

	assert.Equal(t, "REF-3", result.Reference)
	assert.Equal(t, 6200.0, result.Amount)
}
