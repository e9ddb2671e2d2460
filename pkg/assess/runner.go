package assess

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gradekit/repograde/pkg/attribute"
	"github.com/gradekit/repograde/pkg/weights"
)

// Runner orchestrates one assessment run: weights are resolved exactly
// once, every catalog attribute is scored from the supplied
// measurements, and the joined results are aggregated. A Runner holds no
// per-run state and is safe for concurrent use across independent runs.
type Runner struct {
	jobs   int
	strict bool
}

// RunnerOption adjusts how a Runner executes.
type RunnerOption func(*Runner)

// WithJobs caps the number of concurrent scoring goroutines. Values
// below 1 fall back to GOMAXPROCS.
func WithJobs(n int) RunnerOption {
	return func(r *Runner) { r.jobs = n }
}

// WithStrictWeights forwards strict mode to weight resolution, making a
// pre-rescale sum deviation a hard error.
func WithStrictWeights() RunnerOption {
	return func(r *Runner) { r.strict = true }
}

// NewRunner creates a Runner with the given options applied.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run assesses one target. Catalog attributes without a measurement are
// treated as skipped; they appear in the result but contribute nothing.
// Scoring fans out across attributes and joins before aggregation, so
// the result is identical to a sequential run.
func (r *Runner) Run(ctx context.Context, target string, ms []Measurement, config, cli weights.Vector) (*Result, error) {
	if err := ValidateMeasurements(ms); err != nil {
		return nil, err
	}

	var wopts []weights.Option
	if r.strict {
		wopts = append(wopts, weights.WithStrict())
	}
	wv, warns, err := weights.Resolve(config, cli, wopts...)
	if err != nil {
		return nil, fmt.Errorf("assess: resolving weights: %w", err)
	}

	byID := make(map[attribute.ID]Measurement, len(ms))
	for _, m := range ms {
		byID[m.AttributeID] = m
	}

	catalog := attribute.Catalog()
	jobs := r.jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	slog.Debug("scoring attributes",
		"target", target, "measurements", len(ms), "jobs", jobs)

	// Each goroutine writes its own index, so no locking is needed and
	// the catalog order is preserved.
	scored := make([]ScoredAttribute, len(catalog))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(catalog)))

	for i, attr := range catalog {
		i, attr := i, attr
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			m, ok := byID[attr.ID]
			if !ok {
				m = Measurement{
					AttributeID: attr.ID,
					Status:      StatusSkipped,
					Note:        "no measurement provided",
				}
				slog.Debug("no measurement for attribute", "attribute", attr.ID)
			}
			scored[i] = scoreOne(attr, m, wv[attr.ID])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("assess: scoring: %w", err)
	}

	if missing := len(catalog) - len(byID); missing > 0 {
		slog.Warn("attributes without measurements treated as skipped", "count", missing)
	}

	result, err := Aggregate(scored, wv)
	if err != nil {
		return nil, err
	}
	result.Target = target
	result.GeneratedAt = time.Now().UTC()
	result.Warnings = warns

	slog.Info("assessment complete",
		"target", target,
		"score", result.OverallScore,
		"certification", result.Certification,
		"assessed", result.AssessedCount())

	return result, nil
}
