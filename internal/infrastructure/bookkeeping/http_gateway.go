package bookkeeping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/backoffice/backend/internal/domain/bookkeeping"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/infrastructure/config"
	"github.com/backoffice/backend/internal/infrastructure/telemetry"
)

// maxResponseSize is the maximum allowed response size from the bookkeeping API (1MB)
const maxResponseSize = 1 * 1024 * 1024

// HTTPGateway submits expense entries to the external bookkeeping system
// over its REST API. Transport failures and 5xx responses surface as
// GATEWAY_UNAVAILABLE so callers retry; validation rejections surface as
// INVALID_ENTRY so callers queue reconciliation instead.
type HTTPGateway struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPGateway creates a gateway from the bookkeeping configuration
func NewHTTPGateway(cfg config.BookkeepingConfig) *HTTPGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPGateway{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// entryRequest is the wire format of an entry submission
type entryRequest struct {
	ReferenceID string `json:"reference_id"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Memo        string `json:"memo,omitempty"`
}

// entryResponse is the wire format of a successful submission
type entryResponse struct {
	EntryID string `json:"entry_id"`
}

// errorResponse is the wire format of a rejected submission
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Record submits an entry and returns the remote entry ID. The remote
// system dedupes on ReferenceID, so resubmitting the same entry returns
// the original ID instead of creating a second record.
func (g *HTTPGateway) Record(ctx context.Context, entry *bookkeeping.Entry) (string, error) {
	payload, err := json.Marshal(entryRequest{
		ReferenceID: entry.ReferenceID.String(),
		Category:    entry.Category.String(),
		Amount:      entry.Amount.Amount().StringFixed(4),
		Date:        entry.Date.Format("2006-01-02"),
		Memo:        entry.Memo,
	})
	if err != nil {
		return "", fmt.Errorf("bookkeeping: failed to encode entry: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/v1/entries", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("bookkeeping: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	// label the outbound call so gateway wait time is separable in profiles
	var resp *http.Response
	telemetry.WithProfilingLabels(ctx, telemetry.RegionLabels("bookkeeping_api", nil), func(ctx context.Context) {
		resp, err = g.httpClient.Do(req.WithContext(ctx))
	})
	if err != nil {
		return "", shared.NewDomainError(shared.CodeGatewayUnavailable,
			fmt.Sprintf("Bookkeeping system unreachable: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", shared.NewDomainError(shared.CodeGatewayUnavailable,
			fmt.Sprintf("Failed to read bookkeeping response: %v", err))
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var result entryResponse
		if err := json.Unmarshal(body, &result); err != nil || result.EntryID == "" {
			return "", shared.NewDomainError(shared.CodeGatewayUnavailable,
				"Bookkeeping system returned a malformed response")
		}
		return result.EntryID, nil

	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		var remote errorResponse
		_ = json.Unmarshal(body, &remote)
		message := remote.Message
		if message == "" {
			message = fmt.Sprintf("Entry rejected with HTTP %d", resp.StatusCode)
		}
		return "", shared.NewDomainError(shared.CodeInvalidEntry, message)

	default:
		// 5xx, 429 and everything else transient
		return "", shared.NewDomainError(shared.CodeGatewayUnavailable,
			fmt.Sprintf("Bookkeeping system returned HTTP %d", resp.StatusCode))
	}
}

var _ bookkeeping.Gateway = (*HTTPGateway)(nil)
