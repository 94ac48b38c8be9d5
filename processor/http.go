package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Unicash-organization/goSession/internal/reqctx"
)

const (
	// DefaultBaseURL is the processor's public API root.
	DefaultBaseURL   = "https://api.stripe.com"
	maxResponseBytes = 1 << 20
)

// HTTPConfig configures an HTTPClient.
type HTTPConfig struct {
	BaseURL string
	// PublishableKey is the client-side key; secret keys never belong here.
	PublishableKey string
	HTTPClient     *http.Client
	Logger         *slog.Logger
	// Now is used for local card checks. Defaults to time.Now.
	Now func() time.Time
}

// HTTPClient confirms setup intents over the processor's REST API.
type HTTPClient struct {
	baseURL string
	key     string
	http    *http.Client
	logger  *slog.Logger
	now     func() time.Time
}

// NewHTTPClient validates cfg and returns a client.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	key := strings.TrimSpace(cfg.PublishableKey)
	if key == "" {
		return nil, errors.New("processor: PublishableKey is required")
	}
	if strings.HasPrefix(key, "sk_") || strings.HasPrefix(key, "rk_") {
		return nil, errors.New("processor: PublishableKey must not be a secret key")
	}

	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if u, err := url.Parse(base); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("processor: invalid BaseURL %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &HTTPClient{
		baseURL: base,
		key:     key,
		http:    httpClient,
		logger:  logger,
		now:     now,
	}, nil
}

// ConfirmSetup posts the instrument to /v1/setup_intents/{id}/confirm.
func (c *HTTPClient) ConfirmSetup(ctx context.Context, req ConfirmRequest) (*SetupResult, error) {
	intentID, err := IntentIDFromSecret(req.ClientSecret)
	if err != nil {
		return nil, &Error{Type: TypeInvalidRequestError, Code: "resource_missing", Param: "client_secret", Err: err}
	}
	if err := req.Card.Validate(c.now()); err != nil {
		return nil, err
	}

	ctx, requestID := reqctx.EnsureRequestID(ctx)
	endpoint := c.baseURL + "/v1/setup_intents/" + url.PathEscape(intentID) + "/confirm"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(confirmForm(req).Encode()))
	if err != nil {
		return nil, fmt.Errorf("processor: build confirm request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.key)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Idempotency-Key", requestID)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.DebugContext(ctx, "processor confirm failed", "intent", intentID, "card", req.Card, "error", err)
		return nil, &Error{Type: TypeAPIError, Err: fmt.Errorf("%w: %w", ErrTransport, err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &Error{Type: TypeAPIError, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: read body: %w", ErrTransport, err)}
	}

	c.logger.DebugContext(ctx, "processor confirm",
		"intent", intentID,
		"status", resp.StatusCode,
		"card", req.Card,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp.StatusCode, raw)
	}

	var result SetupResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &Error{Type: TypeAPIError, StatusCode: resp.StatusCode, Err: err}
	}
	if result.Status == "requires_payment_method" && result.LastError != nil {
		result.LastError.StatusCode = resp.StatusCode
		return nil, result.LastError
	}
	return &result, nil
}

func confirmForm(req ConfirmRequest) url.Values {
	form := url.Values{}
	form.Set("client_secret", req.ClientSecret)
	form.Set("payment_method_data[type]", "card")
	form.Set("payment_method_data[card][number]", digitsOnly(req.Card.Number))
	form.Set("payment_method_data[card][exp_month]", strconv.Itoa(req.Card.ExpMonth))
	form.Set("payment_method_data[card][exp_year]", strconv.Itoa(req.Card.ExpYear))
	form.Set("payment_method_data[card][cvc]", req.Card.CVC)
	if req.Card.Name != "" {
		form.Set("payment_method_data[billing_details][name]", req.Card.Name)
	}
	if req.Card.PostalCode != "" {
		form.Set("payment_method_data[billing_details][address][postal_code]", req.Card.PostalCode)
	}
	if req.ReturnURL != "" {
		form.Set("return_url", req.ReturnURL)
	}
	return form
}

func decodeError(status int, raw []byte) error {
	var body struct {
		Error *Error `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == nil {
		return &Error{Type: TypeAPIError, StatusCode: status}
	}
	body.Error.StatusCode = status
	return body.Error
}
