// Package httpx provides the retrying HTTP primitive shared by the export
// clients. It owns timeout, retry, and backoff policy for a single
// outbound call; it does not know target-specific status semantics beyond
// which statuses are worth retrying.
package httpx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	scriberr "github.com/richinex/scribe/errors"
)

// Default policy values, applied field-by-field when a Policy leaves them
// zero.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultAttempts  = 3
	DefaultBaseDelay = 500 * time.Millisecond
	DefaultMaxDelay  = 8 * time.Second
)

// Policy bundles every retry knob so callers (and tests) inject numbers
// instead of relying on package constants.
type Policy struct {
	// Timeout bounds each individual attempt, not the whole call.
	Timeout time.Duration
	// Attempts is the total number of tries, first one included.
	Attempts int
	// BaseDelay seeds the exponential backoff between attempts.
	BaseDelay time.Duration
	// MaxDelay caps the backoff regardless of attempt count.
	MaxDelay time.Duration
	// RetryIf decides from a response status whether to retry. Nil means
	// the default policy: 5xx or 429.
	RetryIf func(status int) bool
}

func (p Policy) withDefaults() Policy {
	if p.Timeout <= 0 {
		p.Timeout = DefaultTimeout
	}
	if p.Attempts <= 0 {
		p.Attempts = DefaultAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	if p.RetryIf == nil {
		p.RetryIf = func(status int) bool {
			return status >= 500 || status == http.StatusTooManyRequests
		}
	}
	return p
}

// Request describes one outbound call. The body is held as bytes so every
// retry attempt can rebuild a fresh reader.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is the terminal result of a call. Non-retryable statuses,
// client errors included, come back here with a nil error; callers own
// their classification.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client executes requests under a retry policy.
type Client struct {
	httpClient *http.Client
	policy     Policy
}

// New builds a Client. A nil httpClient falls back to a plain
// http.Client; per-attempt deadlines come from the policy, so the
// underlying client needs no Timeout of its own.
func New(httpClient *http.Client, policy Policy) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{httpClient: httpClient, policy: policy.withDefaults()}
}

// outcome captures the failure of one attempt for the wait computation
// and the terminal classification.
type outcome struct {
	status  int
	hint    time.Duration
	hasHint bool
	detail  string
	cause   error
}

// Do executes the request, retrying transport failures, per-attempt
// timeouts, and retryable statuses until the policy's attempts are
// exhausted. Between attempts it waits: a 429 carrying a Retry-After
// header is honored verbatim, zero seconds included; everything else
// waits random(0, base·2^attemptIndex) clamped to [BaseDelay, MaxDelay].
//
// After the final attempt the failure is classified: a last status of 429
// becomes a rate-limit error carrying any parsed Retry-After hint, and
// everything else becomes an upstream-unavailable error with the last
// status and underlying cause.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	var last outcome

	for attempt := 0; attempt < c.policy.Attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, c.wait(attempt-1, last)); err != nil {
				return nil, err
			}
		}

		resp, err := c.attempt(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			last = outcome{cause: err}
			continue
		}
		if !c.policy.RetryIf(resp.StatusCode) {
			return resp, nil
		}
		hint, hasHint := retryAfter(resp.Header)
		last = outcome{
			status:  resp.StatusCode,
			hint:    hint,
			hasHint: hasHint,
			detail:  trimBody(resp.Body),
		}
	}

	if last.status == http.StatusTooManyRequests {
		return nil, &scriberr.RateLimitError{RetryAfter: last.hint, Detail: last.detail}
	}
	cause := last.cause
	if cause == nil && last.detail != "" {
		cause = errors.New(last.detail)
	}
	return nil, &scriberr.UpstreamError{Status: last.status, Cause: cause}
}

// attempt runs one try under its own deadline.
func (c *Client) attempt(ctx context.Context, req Request) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.policy.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, err
	}
	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// wait computes the pause before the attempt following attemptIndex. A
// rate-limited attempt that carried a Retry-After header uses the header
// value as-is; every other retryable failure backs off exponentially
// with jitter.
func (c *Client) wait(attemptIndex int, last outcome) time.Duration {
	if last.status == http.StatusTooManyRequests && last.hasHint {
		if last.hint > c.policy.MaxDelay {
			return c.policy.MaxDelay
		}
		return last.hint
	}
	ceiling := c.policy.BaseDelay << uint(attemptIndex)
	if ceiling <= 0 || ceiling > c.policy.MaxDelay {
		ceiling = c.policy.MaxDelay
	}
	delay := time.Duration(rand.Int63n(int64(ceiling) + 1))
	if delay < c.policy.BaseDelay {
		delay = c.policy.BaseDelay
	}
	return delay
}

// retryAfter parses a Retry-After header given in whole seconds. The
// boolean reports presence: a present "0" is a valid, immediate hint and
// must not be confused with an absent header.
func retryAfter(header http.Header) (time.Duration, bool) {
	value := strings.TrimSpace(header.Get("Retry-After"))
	if value == "" {
		return 0, false
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

// trimBody keeps error payloads log-sized; multi-kilobyte HTML error
// pages would otherwise ride along on every wrapped error.
func trimBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > 300 {
		text = text[:300]
	}
	return text
}

// sleep waits for the delay or the context, whichever ends first.
func sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
