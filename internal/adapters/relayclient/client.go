// Package relayclient consume un relay remoto (POST /api/mt5/fetch) en lugar de
// lanzar el script del terminal en local.
package relayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/tradejournal/internal/adapters/terminal"
	"github.com/alejandrodnm/tradejournal/internal/domain"
)

const (
	fetchPath = "/api/mt5/fetch"

	// Cada fetch abre una sesión en el terminal: 1 petición cada 2s, ráfaga de 2.
	defaultRatePerSec = 0.5
	defaultBurst      = 2
	defaultTimeout    = 90 * time.Second
	maxBodyBytes      = 1 << 20
)

// Client es el HTTP client del relay, con rate limiting y un solo intento.
type Client struct {
	http    *http.Client
	base    string
	limiter *rate.Limiter
}

// NewClient crea un Client contra baseURL. timeout <= 0 usa el default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		base:    strings.TrimRight(baseURL, "/"),
		limiter: rate.NewLimiter(defaultRatePerSec, defaultBurst),
	}
}

// WithLimiter sustituye el limiter (tests).
func (c *Client) WithLimiter(l *rate.Limiter) *Client {
	c.limiter = l
	return c
}

// Fetch hace exactamente una petición. Los errores del relay se devuelven tal
// cual como *domain.TerminalError; no hay reintentos.
func (c *Client) Fetch(ctx context.Context, req domain.TerminalRequest) (domain.Statistics, error) {
	if err := req.Validate(); err != nil {
		return domain.Statistics{}, fmt.Errorf("relayclient.Fetch: %w", err)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Statistics{}, fmt.Errorf("relayclient.Fetch: rate limiter: %w", err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("relayclient.Fetch: marshal body: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+fetchPath, bytes.NewReader(body))
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("relayclient.Fetch: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("relayclient.Fetch: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("relayclient.Fetch: read body: %w", err)
	}

	if resp.StatusCode >= 400 {
		slog.Warn("relay error", "status", resp.StatusCode, "server", req.Server, "login", req.Login)
		return domain.Statistics{}, statusError(resp.StatusCode, data)
	}
	return terminal.DecodeStatistics(data)
}

// statusError conserva el {"error": ...} del relay sin reinterpretarlo.
func statusError(status int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return &domain.TerminalError{Message: payload.Error}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &domain.TerminalError{Message: fmt.Sprintf("relay status %d: %s", status, msg)}
}
