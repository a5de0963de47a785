package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	scriberr "github.com/richinex/scribe/errors"
)

// scriptedBackend returns a fixed document or error and records what it
// was asked for.
type scriptedBackend struct {
	name       string
	doc        string
	err        error
	calls      int
	gotContext string
	gotMode    Mode
}

func (s *scriptedBackend) Name() string { return s.name }

func (s *scriptedBackend) Generate(ctx context.Context, req Request) (string, error) {
	s.calls++
	s.gotContext = req.Context
	s.gotMode = req.Mode
	if s.err != nil {
		return "", s.err
	}
	return s.doc, nil
}

func TestPrimaryPreferredWhenHealthy(t *testing.T) {
	primary := &scriptedBackend{name: "anthropic", doc: "# From primary"}
	secondary := &scriptedBackend{name: "openai", doc: "# From secondary"}
	router := NewRouter([]Backend{primary, secondary}, nil)

	result, err := router.Generate(context.Background(), Request{Context: "small input", Mode: ModeTask})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Provider != "anthropic" {
		t.Errorf("expected primary to answer, got %q", result.Provider)
	}
	if result.Documentation != "# From primary" {
		t.Errorf("unexpected document %q", result.Documentation)
	}
	if secondary.calls != 0 {
		t.Errorf("secondary should not be invoked, saw %d calls", secondary.calls)
	}
	if !strings.Contains(result.Metadata.SelectionReason, "primary") {
		t.Errorf("expected reason to name the primary, got %q", result.Metadata.SelectionReason)
	}
}

func TestFailoverTagsSelectionReason(t *testing.T) {
	primary := &scriptedBackend{name: "anthropic", err: errors.New("anthropic: boom")}
	secondary := &scriptedBackend{name: "openai", doc: "# Rescued"}
	router := NewRouter([]Backend{primary, secondary}, nil)

	result, err := router.Generate(context.Background(), Request{Context: "small input", Mode: ModeTask})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Provider != "openai" {
		t.Errorf("expected fallback provider, got %q", result.Provider)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Errorf("expected one call each, got %d and %d", primary.calls, secondary.calls)
	}
	reason := result.Metadata.SelectionReason
	if !strings.Contains(reason, "fallback") {
		t.Errorf("expected reason to mention fallback, got %q", reason)
	}
	if !strings.Contains(reason, "boom") {
		t.Errorf("expected reason to carry the primary's failure, got %q", reason)
	}
}

func TestAllFailuresAggregated(t *testing.T) {
	primary := &scriptedBackend{name: "anthropic", err: errors.New("primary exploded")}
	secondary := &scriptedBackend{name: "openai", err: errors.New("secondary exploded")}
	router := NewRouter([]Backend{primary, secondary}, nil)

	_, err := router.Generate(context.Background(), Request{Context: "small input", Mode: ModeTask})
	if !scriberr.IsProviderUnavailable(err) {
		t.Fatalf("expected provider-unavailable error, got %v", err)
	}
	message := err.Error()
	if !strings.Contains(message, "primary exploded") || !strings.Contains(message, "secondary exploded") {
		t.Errorf("expected both failures in message, got %q", message)
	}
	var unavailable *scriberr.ProviderUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected *ProviderUnavailableError, got %T", err)
	}
	if len(unavailable.Failures) != 2 || unavailable.Failures[0].Provider != "anthropic" {
		t.Errorf("expected ordered failures, got %+v", unavailable.Failures)
	}
}

func TestNoBackendsConfigured(t *testing.T) {
	router := NewRouter(nil, nil)
	_, err := router.Generate(context.Background(), Request{Context: "anything", Mode: ModeTask})
	if !scriberr.IsProviderUnavailable(err) {
		t.Fatalf("expected provider-unavailable error, got %v", err)
	}
	if !strings.Contains(err.Error(), "no generation backend configured") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestSingleBackendErrorKeepsClassification(t *testing.T) {
	only := &scriptedBackend{name: "anthropic", err: &scriberr.RateLimitError{RetryAfter: 3 * time.Second}}
	router := NewRouter([]Backend{only}, nil)

	_, err := router.Generate(context.Background(), Request{Context: "small input", Mode: ModeTask})
	if !scriberr.IsRateLimit(err) {
		t.Fatalf("expected the backend's rate-limit error verbatim, got %v", err)
	}
	if hint, ok := scriberr.RetryAfterHint(err); !ok || hint != 3*time.Second {
		t.Errorf("expected 3s retry hint, got %v (ok=%v)", hint, ok)
	}
	if scriberr.IsProviderUnavailable(err) {
		t.Error("single-backend failure must not be aggregated")
	}
}

func TestOversizedInputOptimizedBeforeBackend(t *testing.T) {
	backend := &scriptedBackend{name: "anthropic", doc: "# Done"}
	router := NewRouter([]Backend{backend}, nil)
	original := strings.Repeat("some context detail here ", 1400) // 35,000 chars

	result, err := router.Generate(context.Background(), Request{Context: original, Mode: ModeArchitecture})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.WasOptimized {
		t.Error("expected oversized input to be optimized")
	}
	if len(backend.gotContext) >= len(original) {
		t.Errorf("backend received unreduced input: %d chars", len(backend.gotContext))
	}
	if result.Metadata.OriginalSize != 35000 {
		t.Errorf("expected original size 35000, got %d", result.Metadata.OriginalSize)
	}
	if result.Metadata.OptimizedSize >= result.Metadata.OriginalSize {
		t.Errorf("expected a reduction, got %d -> %d", result.Metadata.OriginalSize, result.Metadata.OptimizedSize)
	}
}

func TestSmallInputPassedThroughUntouched(t *testing.T) {
	backend := &scriptedBackend{name: "anthropic", doc: "# Done"}
	router := NewRouter([]Backend{backend}, nil)

	result, err := router.Generate(context.Background(), Request{Context: "tiny", Mode: ModeTask})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.WasOptimized {
		t.Error("small input must not be optimized")
	}
	if backend.gotContext != "tiny" {
		t.Errorf("expected context forwarded untouched, got %q", backend.gotContext)
	}
}

func TestUnknownModeRejected(t *testing.T) {
	backend := &scriptedBackend{name: "anthropic", doc: "# Done"}
	router := NewRouter([]Backend{backend}, nil)

	_, err := router.Generate(context.Background(), Request{Context: "x", Mode: Mode("poem")})
	if !scriberr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if backend.calls != 0 {
		t.Errorf("backend must not run for an invalid mode, saw %d calls", backend.calls)
	}
}

func TestEmptyModeDefaultsToTask(t *testing.T) {
	backend := &scriptedBackend{name: "anthropic", doc: "# Done"}
	router := NewRouter([]Backend{backend}, nil)

	if _, err := router.Generate(context.Background(), Request{Context: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.gotMode != ModeTask {
		t.Errorf("expected task mode default, got %q", backend.gotMode)
	}
}

func TestCancellationStopsChain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	primary := &scriptedBackend{name: "anthropic", err: context.Canceled}
	secondary := &scriptedBackend{name: "openai", doc: "# Never"}
	router := NewRouter([]Backend{primary, secondary}, nil)

	_, err := router.Generate(ctx, Request{Context: "x", Mode: ModeTask})
	if err == nil {
		t.Fatal("expected an error")
	}
	if secondary.calls != 0 {
		t.Errorf("cancelled chain must not try further backends, saw %d calls", secondary.calls)
	}
	if scriberr.IsProviderUnavailable(err) {
		t.Error("cancellation must surface directly, not as an aggregate")
	}
}
