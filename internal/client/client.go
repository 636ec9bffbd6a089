// Package client is a typed client for the journal HTTP API.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"trading-journal/internal/config"
	"trading-journal/internal/journal"
	"trading-journal/internal/models"
	"trading-journal/internal/playbook"
)

const maxRetries = 3

var (
	// ErrUnauthorized is returned when the server rejects the session.
	ErrUnauthorized = errors.New("not signed in")
	// ErrNotFound is returned for unknown trades.
	ErrNotFound = errors.New("not found")
)

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Field      string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("request failed with status %d: %s (%s)", e.StatusCode, e.Message, e.Field)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

// Client talks to a journal server.
type Client struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
	backoff time.Duration
	token   string
}

// New creates a client for the configured server.
func New(cfg config.Client, logger *zap.Logger) *Client {
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		client:  resty.New().SetBaseURL(cfg.BaseURL).SetTimeout(30 * time.Second),
		logger:  logger.Named("client"),
		limiter: rate.NewLimiter(limit, burst),
		backoff: time.Second,
	}
}

// SetToken sets the session token sent as a bearer header.
func (c *Client) SetToken(token string) { c.token = token }

// Token returns the current session token.
func (c *Client) Token() string { return c.token }

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.client.R().SetContext(ctx).SetError(&errorBody{})
	if c.token != "" {
		req.SetAuthToken(c.token)
	}
	return req
}

// doRequest executes req with rate limiting. Reads are retried on 429,
// 5xx and transport errors with exponential backoff; writes are sent once.
func (c *Client) doRequest(ctx context.Context, method, path string, req *resty.Request) (*resty.Response, error) {
	attempts := 1
	if method == http.MethodGet {
		attempts = maxRetries
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("path", path))
		var resp *resty.Response
		resp, err = req.Execute(method, path)
		if err == nil && !resp.IsError() {
			return resp, nil
		}

		var retryAfter time.Duration
		shouldRetry := false
		if err == nil {
			code := resp.StatusCode()
			err = apiError(resp)
			if code == http.StatusTooManyRequests {
				shouldRetry = true
				if seconds, perr := strconv.Atoi(resp.Header().Get("Retry-After")); perr == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if code >= 500 {
				shouldRetry = true
			}
		} else if ctx.Err() == nil {
			shouldRetry = true
		}

		if !shouldRetry || i == attempts-1 {
			break
		}
		if retryAfter == 0 {
			retryAfter = c.backoff << i
		}
		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)
		select {
		case <-time.After(retryAfter):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, err
}

func apiError(resp *resty.Response) error {
	e := &APIError{StatusCode: resp.StatusCode(), Message: resp.Status()}
	if body, ok := resp.Error().(*errorBody); ok && body.Error != "" {
		e.Message = body.Error
		e.Field = body.Field
	}
	return e
}

// SessionInfo is the server's view of the signed-in owner.
type SessionInfo struct {
	OwnerID   string    `json:"owner_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type loginResponse struct {
	Token   string      `json:"token"`
	Session SessionInfo `json:"session"`
}

// Login signs in and keeps the returned token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*SessionInfo, error) {
	req := c.request(ctx).
		SetFormData(map[string]string{"email": email, "password": password}).
		SetResult(&loginResponse{})
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/login", req)
	if err != nil {
		return nil, fmt.Errorf("failed to log in: %w", err)
	}
	result := resp.Result().(*loginResponse)
	c.token = result.Token
	return &result.Session, nil
}

// SignUp registers an account.
func (c *Client) SignUp(ctx context.Context, email, password string) error {
	req := c.request(ctx).SetFormData(map[string]string{"email": email, "password": password})
	if _, err := c.doRequest(ctx, http.MethodPost, "/api/auth/signup", req); err != nil {
		return fmt.Errorf("failed to sign up: %w", err)
	}
	return nil
}

// Logout ends the session and forgets the token.
func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.doRequest(ctx, http.MethodPost, "/api/auth/logout", c.request(ctx)); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	c.token = ""
	return nil
}

// Session returns the current session.
func (c *Client) Session(ctx context.Context) (*SessionInfo, error) {
	req := c.request(ctx).SetResult(&SessionInfo{})
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/auth/session", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return resp.Result().(*SessionInfo), nil
}

// Query selects a period and optional attribute filters.
type Query struct {
	Year  int
	Tab   string
	Model string
	Side  string
}

func (q Query) values() url.Values {
	v := url.Values{}
	if q.Year != 0 {
		v.Set("year", strconv.Itoa(q.Year))
	}
	if q.Tab != "" {
		v.Set("tab", q.Tab)
	}
	if q.Model != "" {
		v.Set("model", q.Model)
	}
	if q.Side != "" {
		v.Set("side", q.Side)
	}
	return v
}

// View returns the dashboard and list for q.
func (c *Client) View(ctx context.Context, q Query) (*journal.View, error) {
	req := c.request(ctx).SetQueryParamsFromValues(q.values()).SetResult(&journal.View{})
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/trades", req)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	return resp.Result().(*journal.View), nil
}

// StatsResult is the statistics of a period; Stats is nil when it is empty.
type StatsResult struct {
	Title   string                `json:"title"`
	Stats   *journal.Stats        `json:"stats"`
	Display *journal.StatsDisplay `json:"display"`
}

// Stats returns the statistics for q's period.
func (c *Client) Stats(ctx context.Context, q Query) (*StatsResult, error) {
	req := c.request(ctx).SetQueryParamsFromValues(q.values()).SetResult(&StatsResult{})
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/stats", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return resp.Result().(*StatsResult), nil
}

// EquityResult is the equity curve of a period; Equity is nil when it is empty.
type EquityResult struct {
	Title  string               `json:"title"`
	Equity *journal.EquityCurve `json:"equity"`
}

// Equity returns the equity curve for q's period.
func (c *Client) Equity(ctx context.Context, q Query) (*EquityResult, error) {
	req := c.request(ctx).SetQueryParamsFromValues(q.values()).SetResult(&EquityResult{})
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/equity", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get equity curve: %w", err)
	}
	return resp.Result().(*EquityResult), nil
}

// GetTrade returns one trade.
func (c *Client) GetTrade(ctx context.Context, id string) (*models.Trade, error) {
	req := c.request(ctx).SetPathParam("id", id).SetResult(&models.Trade{})
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/trades/{id}", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	return resp.Result().(*models.Trade), nil
}

// TradeInput carries form fields for create and update. Empty fields are
// not sent, so the server applies defaults on create and keeps stored
// values on update.
type TradeInput struct {
	Date   string
	Symbol string
	Model  string
	Side   string
	Result string
	Notes  *string
}

func (in TradeInput) form() url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("date", in.Date)
	set("symbol", in.Symbol)
	set("model", in.Model)
	set("side", in.Side)
	set("result", in.Result)
	if in.Notes != nil {
		v.Set("notes", *in.Notes)
	}
	return v
}

// CreateTrade records a trade.
func (c *Client) CreateTrade(ctx context.Context, in TradeInput) (*models.Trade, error) {
	req := c.request(ctx).SetFormDataFromValues(in.form()).SetResult(&models.Trade{})
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/trades", req)
	if err != nil {
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}
	return resp.Result().(*models.Trade), nil
}

// UpdateTrade rewrites the given fields of a trade.
func (c *Client) UpdateTrade(ctx context.Context, id string, in TradeInput) (*models.Trade, error) {
	req := c.request(ctx).SetPathParam("id", id).SetFormDataFromValues(in.form()).SetResult(&models.Trade{})
	resp, err := c.doRequest(ctx, http.MethodPut, "/api/trades/{id}", req)
	if err != nil {
		return nil, fmt.Errorf("failed to update trade: %w", err)
	}
	return resp.Result().(*models.Trade), nil
}

// DeleteTrade permanently deletes a trade. The caller is responsible for
// having confirmed the deletion with the user.
func (c *Client) DeleteTrade(ctx context.Context, id string) error {
	req := c.request(ctx).SetPathParam("id", id).SetQueryParam("confirm", "true")
	if _, err := c.doRequest(ctx, http.MethodDelete, "/api/trades/{id}", req); err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}
	return nil
}

// Playbook returns the strategy playbook.
func (c *Client) Playbook(ctx context.Context) (*playbook.Playbook, error) {
	req := c.request(ctx).SetResult(&playbook.Playbook{})
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/playbook", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get playbook: %w", err)
	}
	return resp.Result().(*playbook.Playbook), nil
}
