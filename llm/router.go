// Backend routing with single-pass failover.
//
// Information Hiding:
// - Selection and failover policy stay here; backends never know their
//   position in the chain
// - Input optimization always runs before the first backend is invoked

package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	scriberr "github.com/richinex/scribe/errors"
	"github.com/richinex/scribe/optimize"
)

// Router invokes generation backends in a fixed preference order. The
// first backend is the primary; on failure each later backend is tried
// once with the same optimized input. No backend is ever retried.
type Router struct {
	backends []Backend
	log      *logrus.Logger
}

// NewRouter builds a router over an ordered backend chain. A nil logger
// falls back to the standard logger.
func NewRouter(backends []Backend, logger *logrus.Logger) *Router {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Router{backends: backends, log: logger}
}

// Metadata records how the router arrived at its result.
type Metadata struct {
	// SelectionReason explains why the reported provider answered,
	// including the primary's failure when a fallback did.
	SelectionReason  string
	OriginalSize     int
	OptimizedSize    int
	ReductionPercent float64
	ElapsedMS        int64
}

// Result carries the generated markdown plus routing metadata.
type Result struct {
	Documentation string
	Provider      string
	WasOptimized  bool
	Metadata      Metadata
}

// Generate optimizes the input, then walks the backend chain until one
// succeeds. With a single configured backend its error is returned as-is,
// classification intact; when several backends all fail, the failures are
// aggregated into one provider-unavailable error.
func (r *Router) Generate(ctx context.Context, req Request) (*Result, error) {
	if len(r.backends) == 0 {
		return nil, &scriberr.ProviderUnavailableError{}
	}
	if req.Mode == "" {
		req.Mode = ModeTask
	}
	if !req.Mode.Valid() {
		return nil, &scriberr.ValidationError{Message: fmt.Sprintf("unknown generation mode %q", req.Mode)}
	}

	start := time.Now()
	optimized := optimize.Optimize(req.Context, string(req.Mode))
	work := Request{Context: optimized.Context, Mode: req.Mode}

	var failures []scriberr.ProviderFailure
	var lastFailure error
	for i, backend := range r.backends {
		doc, err := backend.Generate(ctx, work)
		if err != nil {
			failures = append(failures, scriberr.ProviderFailure{Provider: backend.Name(), Message: err.Error()})
			lastFailure = err
			r.log.WithFields(logrus.Fields{
				"backend": backend.Name(),
				"mode":    string(req.Mode),
			}).WithError(err).Warn("generation backend failed")
			if ctx.Err() != nil {
				break
			}
			continue
		}
		return &Result{
			Documentation: doc,
			Provider:      backend.Name(),
			WasOptimized:  optimized.WasOptimized,
			Metadata: Metadata{
				SelectionReason:  r.selectionReason(i, failures),
				OriginalSize:     optimized.OriginalSize,
				OptimizedSize:    optimized.OptimizedSize,
				ReductionPercent: optimized.ReductionPercent,
				ElapsedMS:        time.Since(start).Milliseconds(),
			},
		}, nil
	}

	// A lone backend's error keeps its classification (a rate-limit hint
	// must survive to the caller); only a multi-backend wipeout collapses
	// into the aggregate. Cancellation also surfaces directly: backends
	// that were never tried did not fail.
	if len(r.backends) == 1 || ctx.Err() != nil {
		return nil, lastFailure
	}
	return nil, &scriberr.ProviderUnavailableError{Failures: failures}
}

// selectionReason names why backend i answered. Only the immediately
// preceding failure is quoted; the full list lives in the aggregate error
// path, not in a success.
func (r *Router) selectionReason(i int, failures []scriberr.ProviderFailure) string {
	name := r.backends[i].Name()
	switch {
	case i > 0:
		prev := failures[len(failures)-1]
		return fmt.Sprintf("fallback to %s after %s failed: %s", name, prev.Provider, prev.Message)
	case len(r.backends) == 1:
		return fmt.Sprintf("%s is the only configured backend", name)
	default:
		return fmt.Sprintf("%s is the configured primary", name)
	}
}

