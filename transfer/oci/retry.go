package oci

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// RetryTransport retries registry requests that failed with a transient
// status or a network error, backing off exponentially and honouring
// Retry-After.
type RetryTransport struct {
	// Base defaults to http.DefaultTransport.
	Base   http.RoundTripper
	Logger *slog.Logger

	// MaxRetries defaults to 3.
	MaxRetries int

	// InitialBackoff defaults to 1s, MaxBackoff to 30s.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// RoundTrip implements http.RoundTripper.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	maxRetries := t.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}

	for attempt := 0; ; attempt++ {
		attemptReq := req.Clone(req.Context())
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			attemptReq.Body = body
		}

		resp, err := base.RoundTrip(attemptReq)
		if attempt >= maxRetries {
			return resp, err
		}
		if err == nil && !isRetryableStatus(resp.StatusCode) {
			return resp, nil
		}

		wait := t.backoff(attempt, resp)
		status := 0
		if resp != nil {
			status = resp.StatusCode
			_ = resp.Body.Close()
		}
		logger.DebugContext(req.Context(), "retrying registry request",
			"url", req.URL.Redacted(), "attempt", attempt+1, "status", status, "wait", wait, "error", err)

		timer := time.NewTimer(wait)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}
}

func (t *RetryTransport) backoff(attempt int, resp *http.Response) time.Duration {
	initial := t.InitialBackoff
	if initial == 0 {
		initial = time.Second
	}
	maxBackoff := t.MaxBackoff
	if maxBackoff == 0 {
		maxBackoff = 30 * time.Second
	}

	if resp != nil {
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil {
				return min(time.Duration(seconds)*time.Second, maxBackoff)
			}
			if at, err := http.ParseTime(retryAfter); err == nil {
				return min(max(time.Until(at), initial), maxBackoff)
			}
		}
	}

	return min(initial*(1<<attempt), maxBackoff)
}

func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
