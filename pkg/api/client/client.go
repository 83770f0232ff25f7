package client

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

var DefaultConcurrencyLimit = 5

// Transport wraps http.RoundTripper with rate limiting and concurrency control
type Transport struct {
	Base       http.RoundTripper
	MaxRetries int
	RetryDelay time.Duration

	semChan chan struct{}
}

// New creates a new transport with the given concurrency limit
func New(maxConcurrent int) *Transport {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultConcurrencyLimit
	}
	return &Transport{
		Base:       http.DefaultTransport,
		MaxRetries: 3,
		RetryDelay: 1 * time.Second,
		semChan:    make(chan struct{}, maxConcurrent),
	}
}

// RoundTrip executes request with rate limiting and concurrency control
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	// неидемпотентные запросы и тело без GetBody отправляются один раз
	if !idempotent(req.Method) || (req.Body != nil && req.GetBody == nil) {
		return t.do(req)
	}
	var lastErr error
	for attempt := 0; attempt <= t.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := t.sleep(req, t.RetryDelay*time.Duration(attempt)); err != nil {
				return nil, err
			}
			// Тело запроса нужно перечитать для каждой попытки
			next := req.Clone(req.Context())
			if req.Body != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				next.Body = body
			}
			req = next
		}

		resp, err := t.do(req)

		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests && attempt < t.MaxRetries {
			if delay, ok := retryAfter(resp); ok {
				resp.Body.Close()
				if err := t.sleep(req, delay); err != nil {
					return nil, err
				}
				lastErr = fmt.Errorf("rate limited: %d", resp.StatusCode)
				continue
			}
		}
		if resp.StatusCode < 500 || attempt == t.MaxRetries {
			return resp, nil
		}
		resp.Body.Close()
		lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
	}
	return nil, fmt.Errorf("all retries failed: %w", lastErr)
}

func idempotent(method string) bool {
	switch method {
	case "", http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

func (t *Transport) do(req *http.Request) (*http.Response, error) {
	if t.semChan != nil {
		t.semChan <- struct{}{}
		defer func() { <-t.semChan }()
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

func (t *Transport) sleep(req *http.Request, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-req.Context().Done():
		return req.Context().Err()
	case <-timer.C:
		return nil
	}
}

func retryAfter(resp *http.Response) (time.Duration, bool) {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	sec, err := strconv.Atoi(v)
	if err != nil || sec < 0 {
		return 0, false
	}
	return time.Duration(sec) * time.Second, true
}
