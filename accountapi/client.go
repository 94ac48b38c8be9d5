package accountapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Unicash-organization/goSession/internal/reqctx"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 1 << 20

// Paths names the service endpoints relative to BaseURL.
type Paths struct {
	Me            string
	Login         string
	PaymentMethod string
	BillingPortal string
	SetupIntent   string
	DefaultMethod string
}

// DefaultPaths returns the stock endpoint layout.
func DefaultPaths() Paths {
	return Paths{
		Me:            "/me",
		Login:         "/login",
		PaymentMethod: "/payments/method",
		BillingPortal: "/payments/portal",
		SetupIntent:   "/payments/setup-intent",
		DefaultMethod: "/payments/default-method",
	}
}

func (p Paths) withDefaults() Paths {
	d := DefaultPaths()
	if p.Me == "" {
		p.Me = d.Me
	}
	if p.Login == "" {
		p.Login = d.Login
	}
	if p.PaymentMethod == "" {
		p.PaymentMethod = d.PaymentMethod
	}
	if p.BillingPortal == "" {
		p.BillingPortal = d.BillingPortal
	}
	if p.SetupIntent == "" {
		p.SetupIntent = d.SetupIntent
	}
	if p.DefaultMethod == "" {
		p.DefaultMethod = d.DefaultMethod
	}
	return p
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL is the service root, e.g. "https://api.example.com/v1".
	BaseURL string
	// HTTPClient defaults to a client with a 30 second timeout.
	HTTPClient *http.Client
	Paths      Paths
	UserAgent  string
	Logger     *slog.Logger
}

// Client talks to the Account Service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	paths      Paths
	userAgent  string
	logger     *slog.Logger
}

// NewClient validates cfg and returns a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("accountapi: BaseURL is required")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("accountapi: invalid BaseURL %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		paths:      cfg.Paths.withDefaults(),
		userAgent:  cfg.UserAgent,
		logger:     logger,
	}, nil
}

// Me returns the profile of the token's owner.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var user User
	if err := c.do(ctx, "me", http.MethodGet, c.paths.Me, token, nil, nil, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, &ServiceError{Op: "me", StatusCode: http.StatusOK, Err: fmt.Errorf("%w: user without id", ErrMalformedResponse)}
	}
	return &user, nil
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, "login", http.MethodPost, c.paths.Login, "", req, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" || resp.User == nil || resp.User.ID == "" {
		return nil, &ServiceError{Op: "login", StatusCode: http.StatusOK, Err: fmt.Errorf("%w: token or user missing", ErrMalformedResponse)}
	}
	return &resp, nil
}

// PaymentMethod returns the default card, or nil when none is attached.
func (c *Client) PaymentMethod(ctx context.Context, token string) (*PaymentMethod, error) {
	var resp paymentMethodResponse
	if err := c.do(ctx, "payment_method", http.MethodGet, c.paths.PaymentMethod, token, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.PaymentMethod, nil
}

// BillingPortal returns a one-time URL for the processor-hosted billing portal.
func (c *Client) BillingPortal(ctx context.Context, token, returnURL string) (string, error) {
	var resp portalResponse
	if err := c.do(ctx, "billing_portal", http.MethodPost, c.paths.BillingPortal, token, portalRequest{ReturnURL: returnURL}, nil, &resp); err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", &ServiceError{Op: "billing_portal", StatusCode: http.StatusOK, Err: fmt.Errorf("%w: url missing", ErrMalformedResponse)}
	}
	return resp.URL, nil
}

// CreateSetupIntent mints a single-use client secret for attaching a card.
// idempotencyKey is sent as the Idempotency-Key header.
func (c *Client) CreateSetupIntent(ctx context.Context, token, idempotencyKey string) (string, error) {
	var header http.Header
	if idempotencyKey != "" {
		header = http.Header{"Idempotency-Key": []string{idempotencyKey}}
	}
	var resp setupIntentResponse
	if err := c.do(ctx, "setup_intent", http.MethodPost, c.paths.SetupIntent, token, struct{}{}, header, &resp); err != nil {
		return "", err
	}
	if resp.ClientSecret == "" {
		return "", &ServiceError{Op: "setup_intent", StatusCode: http.StatusOK, Err: fmt.Errorf("%w: client secret missing", ErrMalformedResponse)}
	}
	return resp.ClientSecret, nil
}

// SetDefaultPaymentMethod makes paymentMethodID the account's default instrument.
func (c *Client) SetDefaultPaymentMethod(ctx context.Context, token, paymentMethodID string) error {
	return c.do(ctx, "default_method", http.MethodPost, c.paths.DefaultMethod, token, defaultMethodRequest{PaymentMethodID: paymentMethodID}, nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path, token string, body any, header http.Header, out any) error {
	ctx, requestID := reqctx.EnsureRequestID(ctx)

	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("accountapi: encode %s request: %w", op, err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("accountapi: build %s request: %w", op, err)
	}
	for k, values := range header {
		for _, v := range values {
			request.Header.Add(k, v)
		}
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("X-Request-ID", requestID)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	if c.userAgent != "" {
		request.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	response, err := c.httpClient.Do(request)
	if err != nil {
		c.logger.DebugContext(ctx, "account service request failed",
			"op", op, "request_id", requestID, "error", err)
		return &ServiceError{Op: op, Err: fmt.Errorf("%w: %w", ErrTransport, err)}
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return &ServiceError{Op: op, Err: fmt.Errorf("%w: read body: %w", ErrTransport, err)}
	}

	c.logger.DebugContext(ctx, "account service request",
		"op", op,
		"status", response.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return decodeError(op, response.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ServiceError{Op: op, StatusCode: response.StatusCode, Err: fmt.Errorf("%w: %w", ErrMalformedResponse, err)}
	}
	return nil
}

func decodeError(op string, status int, raw []byte) error {
	se := &ServiceError{Op: op, StatusCode: status}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		se.Code = body.Code
		se.Message = body.Message
		if se.Message == "" {
			se.Message = body.Error
		}
	}
	return se
}
