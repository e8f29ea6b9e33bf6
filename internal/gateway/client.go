// Package gateway wraps the REST backends the dashboard depends on.
// Every failure is returned as one of the apperror types.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"autoservice-dashboard/config"
	"autoservice-dashboard/internal/apperror"
)

const defaultTimeout = 10 * time.Second

// Session is the bearer token source. Logout is called on a 401 answer.
type Session interface {
	Token() string
	Logout()
}

// Navigator is told to show the login entry point after a 401 answer.
type Navigator interface {
	RedirectToLogin()
}

// Client issues typed calls against the booking, auth and workshop APIs.
type Client struct {
	cfg       config.GatewayConfig
	http      *http.Client
	session   Session
	navigator Navigator
	limiter   *rate.Limiter
	cache     *cache.Cache
	logger    *zap.Logger
}

// New creates a gateway client. navigator may be nil.
func New(cfg config.GatewayConfig, session Session, navigator Navigator, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	limit := rate.Inf
	if cfg.RateLimitPerSec > 0 {
		limit = rate.Limit(cfg.RateLimitPerSec)
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}

	ttl := cfg.ReferenceCacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: timeout,
		},
		session:   session,
		navigator: navigator,
		limiter:   rate.NewLimiter(limit, burst),
		cache:     cache.New(ttl, 2*ttl),
		logger:    logger,
	}
}

// FlushCache drops cached reference data.
func (c *Client) FlushCache() {
	c.cache.Flush()
}

type request struct {
	method         string
	url            string
	body           any
	out            any
	token          string
	idempotencyKey string
}

func (r request) op() string {
	return r.method + " " + r.url
}

// do performs one round trip. A non-empty r.token overrides the session token.
func (c *Client) do(ctx context.Context, r request) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &apperror.NetworkError{Op: r.op(), Timeout: errors.Is(err, context.DeadlineExceeded), Err: err}
	}

	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return &apperror.ServerError{Op: r.op(), Err: fmt.Errorf("failed to encode body: %w", err)}
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return &apperror.NetworkError{Op: r.op(), Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)
	if r.idempotencyKey != "" {
		req.Header.Set("X-Idempotency-Key", r.idempotencyKey)
	}

	token := r.token
	if token == "" && c.session != nil {
		token = c.session.Token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("op", r.op()),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return &apperror.NetworkError{Op: r.op(), Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apperror.NetworkError{Op: r.op(), Timeout: isTimeout(err), Err: err}
	}

	c.logger.Debug("request completed",
		zap.String("op", r.op()),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.logger.Info("received 401, clearing session", zap.String("op", r.op()))
		if c.session != nil {
			c.session.Logout()
		}
		if c.navigator != nil {
			c.navigator.RedirectToLogin()
		}
		return &apperror.AuthError{Op: r.op(), Message: serverMessage(raw)}
	case resp.StatusCode >= http.StatusBadRequest:
		return &apperror.ServerError{Op: r.op(), StatusCode: resp.StatusCode, Message: serverMessage(raw)}
	}

	if r.out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, r.out); err != nil {
		c.logger.Warn("failed to decode response", zap.String("op", r.op()), zap.Error(err))
		return &apperror.ServerError{Op: r.op(), StatusCode: resp.StatusCode, Err: err}
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// serverMessage extracts a human-readable message from an error body.
func serverMessage(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, key := range []string{"message", "error", "detail"} {
			if s, ok := obj[key].(string); ok && s != "" {
				return s
			}
		}
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	text := string(raw)
	if strings.HasPrefix(text, "<") || len(text) > 200 {
		return ""
	}
	return text
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}
