// Package api is the HTTP client for the remote transaction store. It
// owns nothing durable: every call round-trips to the server, with the
// session's bearer credential attached, a bounded timeout, and retries
// for transient server trouble.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"tally/internal/cache"
	"tally/internal/core"
	"tally/internal/log"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultRetries   = 3
	entityCacheSize  = 128
	entityCacheTTL   = 30 * time.Second
	maxRetryInterval = 2 * time.Second
)

// TokenSource supplies the current bearer credential, if any. The
// session manager implements it.
type TokenSource interface {
	Token() (string, bool)
}

// Client talks to the remote transaction store.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *log.Logger

	// invoked on 401 responses; wired to session teardown
	onUnauthorized func()

	// memoizes GET /expenses/{id}; invalidated on update/delete
	entities *cache.LRU[core.Transaction]

	retries uint64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client (tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every remote call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithRetries sets how many times 5xx and transport failures are
// retried before giving up.
func WithRetries(n uint64) Option {
	return func(c *Client) { c.retries = n }
}

// WithUnauthorizedHook registers fn to run when any call comes back
// 401. Forbidden responses surface as auth errors without firing it.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func New(baseURL string, tokens TokenSource, logger *log.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: defaultTimeout},
		tokens:   tokens,
		logger:   logger.WithComponent(log.ComponentAPI),
		entities: cache.NewLRU[core.Transaction](entityCacheSize, entityCacheTTL),
		retries:  defaultRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches the full transaction set for the current session.
func (c *Client) List(ctx context.Context) ([]core.Transaction, error) {
	var dtos []transactionDTO
	if err := c.call(ctx, http.MethodGet, "/expenses", nil, &dtos, true); err != nil {
		return nil, err
	}
	out := make([]core.Transaction, len(dtos))
	for i, d := range dtos {
		out[i] = d.toDomain()
	}
	return out, nil
}

// Get fetches a single transaction. Recent results are served from the
// entity cache.
func (c *Client) Get(ctx context.Context, id string) (core.Transaction, error) {
	if tx, ok := c.entities.Get(id); ok {
		return tx, nil
	}
	var dto transactionDTO
	if err := c.call(ctx, http.MethodGet, "/expenses/"+url.PathEscape(id), nil, &dto, true); err != nil {
		return core.Transaction{}, err
	}
	tx := dto.toDomain()
	c.entities.Set(id, tx)
	return tx, nil
}

// Create sends a new transaction and returns it with the id and
// timestamps the store assigned.
func (c *Client) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	body := toDTO(tx)
	body.ID = ""
	var dto transactionDTO
	if err := c.call(ctx, http.MethodPost, "/expenses", body, &dto, true); err != nil {
		return core.Transaction{}, err
	}
	created := dto.toDomain()
	c.entities.Set(created.ID, created)
	return created, nil
}

// Update replaces the transaction with the given id.
func (c *Client) Update(ctx context.Context, id string, tx core.Transaction) (core.Transaction, error) {
	var dto transactionDTO
	if err := c.call(ctx, http.MethodPut, "/expenses/"+url.PathEscape(id), toDTO(tx), &dto, true); err != nil {
		return core.Transaction{}, err
	}
	updated := dto.toDomain()
	c.entities.Set(id, updated)
	return updated, nil
}

// Delete removes the transaction with the given id.
func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.call(ctx, http.MethodDelete, "/expenses/"+url.PathEscape(id), nil, nil, true); err != nil {
		return err
	}
	c.entities.Delete(id)
	return nil
}

// Summary fetches the server-side aggregate.
func (c *Client) Summary(ctx context.Context) (core.Summary, error) {
	var dto summaryDTO
	if err := c.call(ctx, http.MethodGet, "/expenses/summary", nil, &dto, true); err != nil {
		return core.Summary{}, err
	}
	return dto.toDomain(), nil
}

// Login exchanges credentials for a token. No bearer header is sent.
func (c *Client) Login(ctx context.Context, identifier, secret string) (LoginResult, error) {
	var result LoginResult
	req := loginRequest{Email: identifier, Password: secret}
	if err := c.call(ctx, http.MethodPost, "/auth/login", req, &result, false); err != nil {
		return LoginResult{}, err
	}
	return result, nil
}

// Register creates a new account. Whether the caller then logs in is
// session policy, not decided here.
func (c *Client) Register(ctx context.Context, profile Profile) error {
	return c.call(ctx, http.MethodPost, "/auth/register", profile, nil, false)
}

// call performs one logical request: marshal, authorize, retry on 5xx
// and transport failures, classify errors, decode.
func (c *Client) call(ctx context.Context, method, path string, body, out any, authed bool) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(newBackoff(), c.retries), ctx)

	var resp []byte
	op := func() error {
		var err error
		resp, err = c.do(ctx, method, path, payload, authed)
		if err == nil {
			return nil
		}
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Kind != KindServer && apiErr.Kind != KindNetwork {
			return backoff.Permanent(err)
		}
		c.logger.Warn("retrying remote call",
			log.FieldMethod, method, log.FieldPath, path, log.FieldError, err.Error())
		return err
	}

	if err := backoff.Retry(op, policy); err != nil {
		return err
	}
	if out == nil || len(resp) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, authed bool) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		if token, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: err.Error()}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}
	return nil, c.classifyStatus(resp.StatusCode, data)
}

func (c *Client) classifyStatus(status int, body []byte) error {
	var parsed errorBody
	_ = json.Unmarshal(body, &parsed)
	msg := parsed.text()
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		// Only 401 means the credential itself is dead; 403 is a
		// permission problem and must not end the session.
		if status == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return &Error{Kind: KindAuth, Status: status, Message: msg}
	case status == http.StatusNotFound:
		return &Error{Kind: KindNotFound, Status: status, Message: msg}
	case status >= 500:
		return &Error{Kind: KindServer, Status: status, Message: msg}
	default:
		return &Error{Kind: KindBadInput, Status: status, Message: msg}
	}
}

func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: err.Error()}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return &Error{Kind: KindTimeout, Message: err.Error()}
	}
	return &Error{Kind: KindNetwork, Message: err.Error()}
}

func newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = maxRetryInterval
	return b
}
