package bookkeeping

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domain "github.com/backoffice/backend/internal/domain/bookkeeping"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/shared/valueobject"
	"github.com/backoffice/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntry(t *testing.T) *domain.Entry {
	t.Helper()
	entry, err := domain.NewEntry(
		uuid.New(),
		domain.CategoryPackagingMaterials,
		valueobject.NewMoneyUSDFromFloat(77.50),
		time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		"Received PO-202608-0001 BOX-001",
	)
	require.NoError(t, err)
	return entry
}

func newGateway(baseURL string) *HTTPGateway {
	return NewHTTPGateway(config.BookkeepingConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	})
}

func TestHTTPGateway_Record(t *testing.T) {
	t.Run("submits entry and returns remote ID", func(t *testing.T) {
		entry := testEntry(t)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/v1/entries", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, entry.ReferenceID.String(), req["reference_id"])
			assert.Equal(t, "Packaging Materials", req["category"])
			assert.Equal(t, "77.5000", req["amount"])
			assert.Equal(t, "2026-08-15", req["date"])

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"entry_id": "bk-1234"})
		}))
		defer server.Close()

		entryID, err := newGateway(server.URL).Record(context.Background(), entry)

		assert.NoError(t, err)
		assert.Equal(t, "bk-1234", entryID)
	})

	t.Run("maps 5xx to gateway unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := newGateway(server.URL).Record(context.Background(), testEntry(t))

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeGatewayUnavailable, domainErr.Code)
		assert.True(t, shared.IsRetryable(err))
	})

	t.Run("maps 422 to terminal invalid entry", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"code":    "VALIDATION_FAILED",
				"message": "Unknown expense category",
			})
		}))
		defer server.Close()

		_, err := newGateway(server.URL).Record(context.Background(), testEntry(t))

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeInvalidEntry, domainErr.Code)
		assert.Equal(t, "Unknown expense category", domainErr.Message)
		assert.False(t, shared.IsRetryable(err))
	})

	t.Run("maps connection failure to gateway unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		_, err := newGateway(server.URL).Record(context.Background(), testEntry(t))

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeGatewayUnavailable, domainErr.Code)
	})

	t.Run("treats malformed success body as unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer server.Close()

		_, err := newGateway(server.URL).Record(context.Background(), testEntry(t))

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeGatewayUnavailable, domainErr.Code)
	})
}
