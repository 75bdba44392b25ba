/*
PURPOSE:
  Benchmark results aggregator.
  Scans a directory tree of result artifacts into an in-memory dataset
  and answers filter, group-by and summary queries over it.

REQUIREMENTS:
  User-specified:
  - Directory names encode runtime/instance/model, file names encode the
    four numeric test parameters.
  - One bad file never aborts a scan.
  - The tree query always re-scans; every other query reads the last
    snapshot.

  Implementation-discovered:
  - Readers must never observe a half-built dataset, so a scan builds a
    new Dataset and swaps it in atomically.
  - Concurrent reload requests share a single scan (singleflight).

ARCHITECTURE INTEGRATION:
  - Called by: internal/server, internal/cli (serve, export)
  - Uses: internal/model, internal/output

ERROR HANDLING:
  - ArtifactParseError is logged per file and the file skipped.
  - Reload fails only if the root directory cannot be listed; the
    previous snapshot is kept in that case.
  - Stats returns ErrEmptyDataset on an empty snapshot.

IMPLEMENTATION RULES:
  - Dataset values are never mutated after being published.

USAGE:
  agg := results.New("archive_results")
  agg.Reload(ctx)
  recs := agg.Query(results.Filters{"runtime": "vllm", "input_tokens": 1024})

SELF-HEALING INSTRUCTIONS:
  - If the driver changes its file naming, update naming.go and
    model.TestCase.ArtifactName together.

RELATED FILES:
  - internal/results/load.go
  - internal/results/dataset.go

MAINTENANCE:
  - Reloads are full re-scans; revisit if archives grow very large.
*/

package results

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/daryltucker/forest-bench/internal/metrics"
	"github.com/daryltucker/forest-bench/internal/model"
	"github.com/daryltucker/forest-bench/internal/output"
)

// Aggregator serves queries over the latest snapshot of a results root.
type Aggregator struct {
	root   string
	logger *slog.Logger

	current atomic.Pointer[Dataset]
	reloads singleflight.Group
}

type Option func(*Aggregator)

func WithLogger(l *slog.Logger) Option { return func(a *Aggregator) { a.logger = l } }

// New returns an aggregator with an empty snapshot. Call Reload to load.
func New(root string, opts ...Option) *Aggregator {
	a := &Aggregator{root: root}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = output.Logger
	}
	a.current.Store(emptyDataset)
	return a
}

func (a *Aggregator) Root() string { return a.root }

// Snapshot returns the most recently loaded dataset.
func (a *Aggregator) Snapshot() *Dataset { return a.current.Load() }

// Reload re-scans the root directory and publishes the new dataset.
// Callers arriving while a scan is running share its result. ctx only
// bounds how long the caller waits.
func (a *Aggregator) Reload(ctx context.Context) (*Dataset, error) {
	ch := a.reloads.DoChan("reload", func() (any, error) {
		a.logger.Info("Loading results", "dir", a.root)
		start := time.Now()
		d, err := scan(a.root, a.logger)
		if err != nil {
			metrics.RecordReload(0, time.Since(start), err)
			return nil, err
		}
		a.current.Store(d)
		metrics.RecordReload(d.Len(), time.Since(start), nil)
		a.logger.Info("Loaded results", "dir", a.root, "records", d.Len(), "combinations", len(d.combos))
		return d, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Dataset), nil
	}
}

func (a *Aggregator) Combinations() []model.CombinationDescriptor {
	return a.Snapshot().Combinations()
}

func (a *Aggregator) Parameters(runtime, instanceType, modelName string) model.Parameters {
	return a.Snapshot().Parameters(model.Combination{
		Runtime:      runtime,
		InstanceType: instanceType,
		ModelName:    modelName,
	})
}

func (a *Aggregator) Query(f Filters) []model.Record {
	return a.Snapshot().Query(f)
}

// Comparison is the data for one requested combination.
type Comparison struct {
	Combination Filters        `json:"combination"`
	Data        []model.Record `json:"data"`
}

// Compare runs one query per filter set against a single snapshot.
func (a *Aggregator) Compare(sets []Filters) []Comparison {
	d := a.Snapshot()
	out := make([]Comparison, 0, len(sets))
	for _, f := range sets {
		out = append(out, Comparison{Combination: f, Data: d.Query(f)})
	}
	return out
}

// Tree reloads from disk and groups the fresh dataset.
func (a *Aggregator) Tree(ctx context.Context) ([]*TreeNode, error) {
	d, err := a.Reload(ctx)
	if err != nil {
		return nil, err
	}
	return d.Tree(), nil
}

func (a *Aggregator) Stats() (*SummaryStats, error) {
	return a.Snapshot().Stats()
}
