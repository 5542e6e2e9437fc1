package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gigsbot/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/", time.Second, zap.NewNop())
}

func TestNewInitiateRequest(t *testing.T) {
	req := NewInitiateRequest("254712345678", decimal.NewFromInt(250), "user_2abc")

	raw, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"phone_number":"254712345678","amount":250,"clerk_id":"user_2abc"}`, string(raw))
}

func TestClient_InitiatePush(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected InitiateResult
	}{
		{
			name:     "accepted",
			status:   http.StatusOK,
			body:     `{"MerchantRequestID":"m1","CheckoutRequestID":"abc123","ResponseCode":"0","CustomerMessage":"Success. Request accepted for processing"}`,
			expected: InitiateAccepted{TrackingID: "abc123", CustomerMessage: "Success. Request accepted for processing"},
		},
		{
			name:     "rejected with customer message",
			status:   http.StatusBadRequest,
			body:     `{"CustomerMessage":"Insufficient permissions"}`,
			expected: InitiateRejected{StatusCode: http.StatusBadRequest, Message: "Insufficient permissions"},
		},
		{
			name:     "rejected with detail",
			status:   http.StatusForbidden,
			body:     `{"detail":"Authentication credentials were not provided."}`,
			expected: InitiateRejected{StatusCode: http.StatusForbidden, Message: "Authentication credentials were not provided."},
		},
		{
			name:     "rejected without message",
			status:   http.StatusInternalServerError,
			body:     ``,
			expected: InitiateRejected{StatusCode: http.StatusInternalServerError},
		},
		{
			name:     "malformed payload",
			status:   http.StatusOK,
			body:     `<html>oops</html>`,
			expected: InitiateRejected{StatusCode: http.StatusOK},
		},
		{
			name:     "success status without tracking id",
			status:   http.StatusOK,
			body:     `{"ResponseCode":"0"}`,
			expected: InitiateRejected{StatusCode: http.StatusOK},
		},
		{
			name:     "non zero response code",
			status:   http.StatusOK,
			body:     `{"CheckoutRequestID":"abc123","ResponseCode":"1","errorMessage":"Invalid PhoneNumber"}`,
			expected: InitiateRejected{StatusCode: http.StatusOK, Message: "Invalid PhoneNumber"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got InitiateRequest
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/stk-push/", r.URL.Path)
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			req := NewInitiateRequest("254712345678", decimal.NewFromInt(1), "user_2abc")
			result, err := client.InitiatePush(context.Background(), req)

			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
			assert.Equal(t, req, got)
		})
	}
}

func TestClient_InitiatePush_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := NewClient(srv.URL, time.Second, zap.NewNop())
	result, err := client.InitiatePush(context.Background(), InitiateRequest{})

	assert.Nil(t, result)
	assert.True(t, errors.Is(err, ErrTransport))
}

func TestClient_PaymentStatus(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		expected      domain.PaymentStatus
		expectedError error
	}{
		{
			name:     "success",
			status:   http.StatusOK,
			body:     `{"status":"success"}`,
			expected: domain.PaymentSuccess,
		},
		{
			name:     "failed",
			status:   http.StatusOK,
			body:     `{"status":"failed"}`,
			expected: domain.PaymentFailed,
		},
		{
			name:     "pending",
			status:   http.StatusOK,
			body:     `{"status":"pending"}`,
			expected: domain.PaymentPending,
		},
		{
			name:     "unknown status is pending",
			status:   http.StatusOK,
			body:     `{"status":"queued"}`,
			expected: domain.PaymentPending,
		},
		{
			name:          "not found",
			status:        http.StatusNotFound,
			body:          `{"detail":"Not found."}`,
			expected:      domain.PaymentPending,
			expectedError: ErrUnexpectedResponse,
		},
		{
			name:          "malformed",
			status:        http.StatusOK,
			body:          `{"status":`,
			expected:      domain.PaymentPending,
			expectedError: ErrUnexpectedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/api/check-status/ws_CO_123/", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			status, err := client.PaymentStatus(context.Background(), "ws_CO_123")

			assert.Equal(t, tt.expected, status)
			if tt.expectedError != nil {
				assert.True(t, errors.Is(err, tt.expectedError))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
