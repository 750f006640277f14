package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
)

// maxResponseSize is the maximum allowed response size from the marketplace API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Order is a read-only marketplace order as returned by the remote API.
// These records are for display only; nothing in the ledger writes or
// derives state from them.
type Order struct {
	ID          string          `json:"id"`
	Buyer       string          `json:"buyer"`
	Status      string          `json:"status"`
	Total       decimal.Decimal `json:"total"`
	Currency    string          `json:"currency"`
	PlacedAt    time.Time       `json:"placed_at"`
	ItemCount   int             `json:"item_count"`
	TrackingURL string          `json:"tracking_url,omitempty"`
}

// OrderSource fetches marketplace orders for display
type OrderSource interface {
	FetchOrders(ctx context.Context, page, pageSize int) ([]Order, error)
}

// Client is an OAuth bearer client for the marketplace order API. Access
// tokens are acquired from the refresh token and renewed transparently
// when they expire; an expired or revoked refresh token surfaces
// REAUTHORIZATION_REQUIRED so the caller can prompt for reconnection.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	refreshToken string
	httpClient   *http.Client

	mu          sync.Mutex // protects accessToken and tokenExpiry
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a marketplace client from configuration
func NewClient(cfg config.MarketplaceConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:      cfg.BaseURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		refreshToken: cfg.RefreshToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// tokenResponse is the wire format of the OAuth token endpoint
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// oauthError is the wire format of an OAuth error response
type oauthError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// token returns a valid access token, refreshing it when missing or
// within a minute of expiry
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Until(c.tokenExpiry) > time.Minute {
		return c.accessToken, nil
	}
	return c.refreshLocked(ctx)
}

// invalidate discards a cached token the remote rejected
func (c *Client) invalidate(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken == token {
		c.accessToken = ""
	}
}

// refreshLocked exchanges the refresh token for a new access token.
// Caller must hold c.mu.
func (c *Client) refreshLocked(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", c.refreshToken)
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("marketplace: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", shared.NewDomainError(shared.CodeGatewayUnavailable,
			fmt.Sprintf("Marketplace unreachable: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", shared.NewDomainError(shared.CodeGatewayUnavailable,
			fmt.Sprintf("Failed to read token response: %v", err))
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var token tokenResponse
		if err := json.Unmarshal(body, &token); err != nil || token.AccessToken == "" {
			return "", shared.NewDomainError(shared.CodeGatewayUnavailable,
				"Marketplace returned a malformed token response")
		}
		c.accessToken = token.AccessToken
		c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
		return c.accessToken, nil

	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized:
		// invalid_grant means the refresh token itself is dead; the user
		// has to reconnect the marketplace account.
		var remote oauthError
		_ = json.Unmarshal(body, &remote)
		message := remote.ErrorDescription
		if message == "" {
			message = "Marketplace connection expired, reauthorization required"
		}
		return "", shared.NewDomainError(shared.CodeReauthRequired, message)

	default:
		return "", shared.NewDomainError(shared.CodeGatewayUnavailable,
			fmt.Sprintf("Marketplace token endpoint returned HTTP %d", resp.StatusCode))
	}
}

// ordersResponse is the wire format of the orders listing
type ordersResponse struct {
	Orders []Order `json:"orders"`
}

// FetchOrders retrieves a page of recent orders. A stale access token is
// refreshed and the request retried once before failing.
func (c *Client) FetchOrders(ctx context.Context, page, pageSize int) ([]Order, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	orders, err := c.fetchOrdersWithToken(ctx, token, page, pageSize)
	if err == nil {
		return orders, nil
	}

	// The access token may have been revoked before its expiry; refresh
	// once and retry.
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) && domainErr.Code == codeStaleToken {
		c.invalidate(token)
		token, err = c.token(ctx)
		if err != nil {
			return nil, err
		}
		orders, err = c.fetchOrdersWithToken(ctx, token, page, pageSize)
		if err == nil {
			return orders, nil
		}
		if errors.As(err, &domainErr) && domainErr.Code == codeStaleToken {
			return nil, shared.NewDomainError(shared.CodeReauthRequired,
				"Marketplace rejected a freshly issued token, reauthorization required")
		}
	}
	return nil, err
}

// codeStaleToken marks a 401 from the orders endpoint; internal to the
// refresh-and-retry loop, never returned to callers
const codeStaleToken = "STALE_ACCESS_TOKEN"

func (c *Client) fetchOrdersWithToken(ctx context.Context, token string, page, pageSize int) ([]Order, error) {
	endpoint := c.baseURL + "/api/v1/orders"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("marketplace: failed to create orders request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	query := req.URL.Query()
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		query.Set("page_size", strconv.Itoa(pageSize))
	}
	req.URL.RawQuery = query.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeGatewayUnavailable,
			fmt.Sprintf("Marketplace unreachable: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeGatewayUnavailable,
			fmt.Sprintf("Failed to read orders response: %v", err))
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var result ordersResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, shared.NewDomainError(shared.CodeGatewayUnavailable,
				"Marketplace returned a malformed orders response")
		}
		return result.Orders, nil

	case resp.StatusCode == http.StatusUnauthorized:
		return nil, shared.NewDomainError(codeStaleToken, "Access token rejected")

	default:
		return nil, shared.NewDomainError(shared.CodeGatewayUnavailable,
			fmt.Sprintf("Marketplace orders endpoint returned HTTP %d", resp.StatusCode))
	}
}

var _ OrderSource = (*Client)(nil)
