// Package agent submits check records to the remote collector.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/user/mssp-agent/pkg/checks"
	"github.com/user/mssp-agent/pkg/logging"
)

const (
	submitTimeout = 15 * time.Second
	// DefaultRate is the submission pace within one invocation.
	DefaultRate = rate.Limit(1)
)

// ErrNoEndpoint is returned when the reporter has no api_url.
var ErrNoEndpoint = errors.New("api_url is not configured")

// Payload is the body POSTed for one check.
type Payload struct {
	Check string        `json:"check"`
	Data  checks.Record `json:"data"`
	Token string        `json:"token"`
}

// Reporter POSTs records to the collector.
type Reporter struct {
	URL     string
	Token   string
	client  *http.Client
	limiter *rate.Limiter
}

// NewReporter creates a reporter paced at DefaultRate.
func NewReporter(url, token string) *Reporter {
	return &Reporter{
		URL:     url,
		Token:   token,
		client:  &http.Client{Timeout: submitTimeout},
		limiter: rate.NewLimiter(DefaultRate, 1),
	}
}

// WithClient replaces the HTTP client.
func (r *Reporter) WithClient(c *http.Client) *Reporter {
	r.client = c
	return r
}

// WithRate replaces the submission pace.
func (r *Reporter) WithRate(limit rate.Limit) *Reporter {
	r.limiter = rate.NewLimiter(limit, 1)
	return r
}

// NewPayload wraps rec for submission.
func (r *Reporter) NewPayload(rec checks.Record) Payload {
	return Payload{Check: rec.Check, Data: rec, Token: r.Token}
}

// Submit sends one record. It waits for the limiter first; a non-2xx
// response is an error. There are no retries.
func (r *Reporter) Submit(ctx context.Context, rec checks.Record) error {
	if r.URL == "" {
		return ErrNoEndpoint
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(r.NewPayload(rec))
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}

	requestID := uuid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+r.Token)
	req.Header.Set("X-Request-ID", requestID)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting %s: %w", rec.Check, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("collector returned status %d for %s", resp.StatusCode, rec.Check)
	}

	logging.Check(rec.Check).Str("request_id", requestID).Int("status", resp.StatusCode).Msg("record submitted")
	return nil
}
