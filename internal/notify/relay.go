package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"snapbooth/site/internal/domain"
	"snapbooth/site/internal/httpretry"
)

var ErrRelayNotConfigured = errors.New("notify: relay endpoint is not configured")

// Relay posts notifications to a form-relay endpoint (a Formspree form) which forwards them by email.
type Relay struct {
	doer     httpretry.HTTPDoer
	endpoint string
	timeout  time.Duration
	attempts int
}

// NewRelay returns nil when endpoint is empty.
func NewRelay(endpoint string, timeout time.Duration, maxRetries int) *Relay {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Relay{
		doer:     httpretry.NewRetryClient(&http.Client{Timeout: timeout}, maxRetries),
		endpoint: endpoint,
		timeout:  timeout,
		attempts: maxRetries + 1,
	}
}

// WithDoer swaps the HTTP client, mostly for tests.
func (r *Relay) WithDoer(doer httpretry.HTTPDoer) *Relay {
	r.doer = doer
	return r
}

// Attempts is how many requests one Send may make.
func (r *Relay) Attempts() int {
	if r == nil {
		return 0
	}
	return r.attempts
}

// Send delivers one notification.
func (r *Relay) Send(ctx context.Context, n domain.Notification) error {
	if r == nil {
		return ErrRelayNotConfigured
	}

	payload := make(map[string]string, len(n.Fields)+3)
	for k, v := range n.Fields {
		payload[k] = v
	}
	payload["_subject"] = n.Subject
	payload["message"] = n.Body
	if n.ReplyTo != "" {
		payload["_replyto"] = n.ReplyTo
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: encode payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout*time.Duration(r.attempts+1))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := r.doer.Do(req)
	if err != nil {
		return fmt.Errorf("notify: relay request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 1<<12))
		return fmt.Errorf("notify: relay status=%d body=%s", res.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
