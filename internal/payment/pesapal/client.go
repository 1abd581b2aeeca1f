package pesapal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/devcircularity/commerce-backend/internal/cache"
	"github.com/devcircularity/commerce-backend/internal/clock"
	"github.com/devcircularity/commerce-backend/internal/config"
	"github.com/devcircularity/commerce-backend/internal/observability/metrics"
	"github.com/devcircularity/commerce-backend/internal/payment/domain"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	sandboxBaseURL    = "https://cybqa.pesapal.com/pesapalv3"
	productionBaseURL = "https://pay.pesapal.com/v3"

	tokenCacheKey = "token"

	// Pesapal tokens live ~5 minutes; used when the gateway returns an
	// unparseable expiry.
	fallbackTokenTTL = 4 * time.Minute
)

// Client is a REST client for the Pesapal v3 API. It owns the bearer-token
// cache and the IPN registration state; both are process-local and are
// rediscovered after a restart.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cfg        config.Pesapal
	clk        clock.Clock
	log        *zap.Logger
	gm         *metrics.GatewayMetrics

	authMu sync.Mutex
	tokens *cache.TTLCache[string, string]

	ipnMu sync.Mutex
	ipnID string

	orderBreaker *gobreaker.CircuitBreaker
}

// NewClient selects the sandbox or production endpoint once, at construction.
func NewClient(cfg config.Pesapal, httpClient *http.Client, clk clock.Clock, log *zap.Logger, gm *metrics.GatewayMetrics) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	baseURL := productionBaseURL
	if cfg.Sandbox {
		baseURL = sandboxBaseURL
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "pesapal.submit_order",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		httpClient:   httpClient,
		baseURL:      baseURL,
		cfg:          cfg,
		clk:          clk,
		log:          log.Named("pesapal.client"),
		gm:           gm,
		tokens:       cache.NewTTLCacheWithNow[string, string](clk.Now),
		orderBreaker: breaker,
	}
}

// BaseURL exposes the selected endpoint, for logging and tests.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetToken returns the cached bearer token while its expiry is strictly in
// the future, refreshing it from the gateway otherwise. Refreshes are
// serialized so concurrent first calls exchange credentials once.
func (c *Client) GetToken(ctx context.Context) (string, error) {
	if token, ok := c.tokens.Get(tokenCacheKey); ok {
		return token, nil
	}

	c.authMu.Lock()
	defer c.authMu.Unlock()

	// Another caller may have refreshed while we waited on the lock.
	if token, ok := c.tokens.Get(tokenCacheKey); ok {
		return token, nil
	}

	payload := map[string]string{
		"consumer_key":    c.cfg.ConsumerKey,
		"consumer_secret": c.cfg.ConsumerSecret,
	}

	status, body, err := c.do(ctx, http.MethodPost, "/api/Auth/RequestToken", "", payload)
	c.gm.IncGatewayRequest("request_token", err)
	if err != nil {
		return "", &domain.AuthenticationError{Err: err}
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &domain.AuthenticationError{Err: fmt.Errorf("decode token response: %w", err)}
	}
	if resp.Token == "" {
		return "", &domain.AuthenticationError{Err: fmt.Errorf("token response missing token: status=%d", status)}
	}

	expiresAt, err := time.Parse(time.RFC3339, resp.ExpiryDate)
	if err != nil {
		expiresAt = c.clk.Now().Add(fallbackTokenTTL)
	}
	c.tokens.SetUntil(tokenCacheKey, resp.Token, expiresAt)

	return resp.Token, nil
}

// RegisterIPN registers the configured notification URL and caches the
// returned identifier.
func (c *Client) RegisterIPN(ctx context.Context) (string, error) {
	token, err := c.GetToken(ctx)
	if err != nil {
		return "", err
	}

	payload := map[string]string{
		"url":                   c.cfg.IPNURL,
		"ipn_notification_type": "GET",
	}

	_, body, err := c.do(ctx, http.MethodPost, "/api/URLSetup/RegisterIPN", token, payload)
	c.gm.IncGatewayRequest("register_ipn", err)
	if err != nil {
		return "", err
	}

	var reg IPNRegistration
	if err := json.Unmarshal(body, &reg); err != nil {
		return "", &domain.IntegrationError{Op: "register ipn", Err: fmt.Errorf("decode response: %w", err)}
	}
	if reg.ID == "" {
		return "", &domain.IntegrationError{Op: "register ipn", Err: errors.New("response missing ipn_id")}
	}

	c.setIPNID(reg.ID)
	c.log.Info("registered ipn url", zap.String("ipn_id", reg.ID), zap.String("url", c.cfg.IPNURL))
	return reg.ID, nil
}

// GetIPNList lists existing IPN registrations for these credentials. This is
// a best-effort fallback path: failures yield an empty list, never an error.
func (c *Client) GetIPNList(ctx context.Context) []IPNRegistration {
	token, err := c.GetToken(ctx)
	if err != nil {
		c.log.Warn("ipn list skipped, token unavailable", zap.Error(err))
		return nil
	}

	_, body, err := c.do(ctx, http.MethodGet, "/api/URLSetup/GetIpnList", token, nil)
	c.gm.IncGatewayRequest("get_ipn_list", err)
	if err != nil {
		c.log.Warn("ipn list lookup failed", zap.Error(err))
		return nil
	}

	var list []IPNRegistration
	if err := json.Unmarshal(body, &list); err != nil {
		c.log.Warn("ipn list decode failed", zap.Error(err))
		return nil
	}
	return list
}

// EnsureIPN returns the cached IPN id, discovering an existing registration
// or creating one when none is cached.
func (c *Client) EnsureIPN(ctx context.Context) (string, error) {
	if id := c.IPNID(); id != "" {
		return id, nil
	}

	if list := c.GetIPNList(ctx); len(list) > 0 && list[0].ID != "" {
		c.setIPNID(list[0].ID)
		c.log.Info("using existing ipn registration", zap.String("ipn_id", list[0].ID))
		return list[0].ID, nil
	}

	return c.RegisterIPN(ctx)
}

// IPNID returns the cached IPN identifier, if any.
func (c *Client) IPNID() string {
	c.ipnMu.Lock()
	defer c.ipnMu.Unlock()
	return c.ipnID
}

func (c *Client) setIPNID(id string) {
	c.ipnMu.Lock()
	c.ipnID = id
	c.ipnMu.Unlock()
}

// SubmitOrder submits an order request. Calls run through a circuit breaker
// so a flapping gateway fails fast instead of holding checkout threads.
func (c *Client) SubmitOrder(ctx context.Context, order OrderRequest) (*OrderResponse, error) {
	token, err := c.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	result, err := c.orderBreaker.Execute(func() (any, error) {
		_, body, err := c.do(ctx, http.MethodPost, "/api/Transactions/SubmitOrderRequest", token, order)
		if err != nil {
			return nil, err
		}
		return body, nil
	})
	c.gm.IncGatewayRequest("submit_order", err)
	if err != nil {
		var integration *domain.IntegrationError
		if errors.As(err, &integration) {
			return nil, err
		}
		return nil, &domain.IntegrationError{Op: "submit order", Err: err}
	}

	var resp OrderResponse
	if err := json.Unmarshal(result.([]byte), &resp); err != nil {
		return nil, &domain.IntegrationError{Op: "submit order", Err: fmt.Errorf("decode response: %w", err)}
	}
	if resp.OrderTrackingID == "" {
		return nil, &domain.IntegrationError{Op: "submit order", Err: errors.New("response missing order_tracking_id")}
	}
	return &resp, nil
}

// GetTransactionStatus fetches the raw status payload for a tracking id.
// A failure means "status unknown", not "payment failed".
func (c *Client) GetTransactionStatus(ctx context.Context, trackingID string) (*TransactionStatus, error) {
	if strings.TrimSpace(trackingID) == "" {
		return nil, &domain.IntegrationError{Op: "transaction status", Err: errors.New("tracking id is required")}
	}

	token, err := c.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	path := "/api/Transactions/GetTransactionStatus?orderTrackingId=" + trackingID
	_, body, err := c.do(ctx, http.MethodGet, path, token, nil)
	c.gm.IncGatewayRequest("transaction_status", err)
	if err != nil {
		return nil, err
	}

	var status TransactionStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, &domain.IntegrationError{Op: "transaction status", Err: fmt.Errorf("decode response: %w", err)}
	}
	return &status, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(payload); err != nil {
			return 0, nil, err
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}

	if resp.StatusCode >= 400 {
		return resp.StatusCode, data, &domain.IntegrationError{
			Op:         method + " " + path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	return resp.StatusCode, data, nil
}
