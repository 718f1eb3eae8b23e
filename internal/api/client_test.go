package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transfer-status-backend/internal/models"
	"transfer-status-backend/internal/utils"
)

func testClient(url string) *Client {
	cfg := DefaultConfig()
	cfg.BaseURL = url
	cfg.RetryBackoff = time.Millisecond
	cfg.RatePerSec = 0
	return New(cfg)
}

func TestFetchTransferUnwrapsEnvelopes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bare", `{"status":"completed","amount":10}`, `{"status":"completed","amount":10}`},
		{"data", `{"data":{"status":"processing"}}`, `{"status":"processing"}`},
		{"transfer", `{"transfer":{"status":"scheduled"},"meta":{}}`, `{"status":"scheduled"}`},
		{"data.transfer", `{"data":{"transfer":{"status":"rejected"}}}`, `{"status":"rejected"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/transfers/TX-1", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			body, err := testClient(srv.URL).FetchTransfer(context.Background(), models.AuthoritativeRef("TX-1"))
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(body))
		})
	}
}

func TestFetchTransferRefusesPlaceholder(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchTransfer(context.Background(), models.PlaceholderRef("US-ABCDEFGH"))
	assert.ErrorIs(t, err, ErrPlaceholderReference)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestFetchTransferNotFoundIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchTransfer(context.Background(), models.AuthoritativeRef("nope"))
	require.Error(t, err)
	assert.Equal(t, utils.ErrorTypeNotFound, utils.GetErrorType(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchTransferRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"status":"completed"}`))
	}))
	defer srv.Close()

	body, err := testClient(srv.URL).FetchTransfer(context.Background(), models.AuthoritativeRef("TX-2"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"completed"}`, string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchTransferGivesUpAfterRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchTransfer(context.Background(), models.AuthoritativeRef("TX-3"))
	require.Error(t, err)
	assert.Equal(t, utils.ErrorTypeBackend, utils.GetErrorType(err))
	assert.Equal(t, int32(DefaultConfig().MaxRetries+1), atomic.LoadInt32(&calls))
}

func TestFetchTransferRejectsInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchTransfer(context.Background(), models.AuthoritativeRef("TX-4"))
	assert.Equal(t, utils.ErrorTypeDecode, utils.GetErrorType(err))
}

func TestFetchTransferHonoursCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := testClient(srv.URL).FetchTransfer(ctx, models.AuthoritativeRef("TX-5"))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestFetchTransferUnexpectedStatusCarriesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"message":"key revoked"}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchTransfer(context.Background(), models.AuthoritativeRef("T-1"))
	require.Error(t, err)
	assert.Equal(t, "UNEXPECTED_STATUS", utils.GetErrorCode(err))
	assert.Contains(t, err.Error(), "key revoked")
	assert.False(t, utils.IsRetryableError(err))
}
