package stats

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/odvcencio/repostat/pkg/object"
)

// State names a point in the per-run Analyzer state machine (spec §4.8).
// No transition is reversible within a run.
type State int

const (
	StateIdle State = iota
	StateIterating
	StateDraining
	StateAggregating
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateIterating:
		return "iterating"
	case StateDraining:
		return "draining"
	case StateAggregating:
		return "aggregating"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ReferenceLister enumerates reference names for a repository; only the
// count is consumed by the Report.
type ReferenceLister func() ([]string, error)

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithWorkerCount overrides the default N = max(HW threads, 4) pool size.
func WithWorkerCount(n int) Option {
	return func(a *Analyzer) { a.workers = n }
}

// WithLogger attaches a logger for phase-transition events. Defaults to a
// zerolog logger writing to stderr.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Analyzer) { a.log = l.With().Str("run_id", a.runID.String()).Logger() }
}

// Analyzer orchestrates a single statistics run (spec §4.7). It owns all
// state for that run; instances are not reused across repositories.
type Analyzer struct {
	adapter  ObjectStoreAdapter
	listRefs ReferenceLister
	workers  int
	log      zerolog.Logger
	runID    uuid.UUID

	state State
	acc   *ObjectAccumulator
	dag   *CommitDag
}

// NewAnalyzer builds an Analyzer over adapter, using listRefs to count
// references in the final assembly step. Each Analyzer is tagged with a
// fresh correlation ID attached to every log line it emits, so concurrent
// runs against different repositories can be told apart in aggregated logs.
func NewAnalyzer(adapter ObjectStoreAdapter, listRefs ReferenceLister, opts ...Option) *Analyzer {
	runID := uuid.New()
	a := &Analyzer{
		adapter:  adapter,
		listRefs: listRefs,
		workers:  WorkerCount(),
		log:      zerolog.New(os.Stderr).With().Timestamp().Str("run_id", runID.String()).Logger(),
		runID:    runID,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// State reports the Analyzer's current lifecycle state.
func (a *Analyzer) State() State { return a.state }

// RunID returns the correlation ID tagging this run's log lines. It plays
// no part in the Report itself, which is a pure function of the object
// database and reference enumeration.
func (a *Analyzer) RunID() uuid.UUID { return a.runID }

// Analyze runs the full pipeline (spec §4.7, steps 2-9; step 1 — the
// repository lock and object-store open — is the caller's responsibility
// when constructing the ObjectStoreAdapter). Any step that fails aborts
// with the first observed error; no partial report is ever returned. ctx
// is checked before iteration starts and before aggregation begins, so a
// cancellation requested while workers are draining still lets the pool
// join cleanly instead of abandoning goroutines.
func (a *Analyzer) Analyze(ctx context.Context) (*Report, error) {
	if err := ctx.Err(); err != nil {
		a.state = StateFailed
		return nil, &AnalysisError{Kind: IterationFailed, Err: err}
	}

	a.state = StateIterating
	a.acc = NewObjectAccumulator()
	a.dag = NewCommitDag()

	pool := NewWorkerPool(a.workers)
	pool.Start()
	a.log.Debug().Int("workers", a.workers).Msg("iterating object database")

	iterErr := a.adapter.ForEachObjectID(func(oid object.OID) error {
		// Copy-by-value: oid is a fixed-size array, so each submitted
		// closure already owns an independent copy.
		pool.Submit(func() error {
			return a.handle(oid)
		})
		return nil
	})

	a.state = StateDraining
	a.log.Debug().Msg("draining worker pool")
	pool.Shutdown()

	if iterErr != nil {
		a.state = StateFailed
		return nil, &AnalysisError{Kind: IterationFailed, Err: iterErr}
	}
	if err := pool.Err(); err != nil {
		a.state = StateFailed
		if lookupErr, ok := err.(*LookupError); ok {
			return nil, &AnalysisError{Kind: LookupFailed, OID: lookupErr.OID, Err: lookupErr}
		}
		return nil, &AnalysisError{Kind: LookupFailed, Err: err}
	}
	if err := ctx.Err(); err != nil {
		a.state = StateFailed
		return nil, &AnalysisError{Kind: IterationFailed, Err: err}
	}

	a.state = StateAggregating
	a.log.Debug().Msg("aggregating")
	report, err := a.aggregate()
	if err != nil {
		a.state = StateFailed
		return nil, err
	}

	a.state = StateDone
	a.log.Debug().Msg("analysis complete")
	return report, nil
}

// handle is the per-OID work item run by a pool worker: look up the
// object and route it to the matching accumulator handler.
func (a *Analyzer) handle(oid object.OID) error {
	view, err := a.adapter.Lookup(oid)
	if err != nil {
		return err
	}
	switch view.Variant {
	case VariantCommit:
		a.acc.HandleCommit(oid, view.Commit, a.dag)
	case VariantTree:
		a.acc.HandleTree(oid, view.Tree)
	case VariantBlob:
		a.acc.HandleBlob(oid, view.Blob)
	case VariantTag:
		a.acc.HandleTag(oid, view.Tag)
	}
	return nil
}

// aggregate runs the single-threaded post-drain stages (spec §4.7 steps
// 5-9) and assembles the final Report.
func (a *Analyzer) aggregate() (*Report, error) {
	aggregator := NewTreeAggregator(a.acc)
	resolver := NewTagDepthResolver(a.acc)

	a.acc.commitsMu.Lock()
	roots := make([]object.OID, 0, len(a.acc.commits))
	for _, rec := range a.acc.commits {
		roots = append(roots, rec.rootTree)
	}
	a.acc.commitsMu.Unlock()

	var checkouts BiggestCheckouts
	seen := make(map[object.OID]bool, len(roots))
	for _, rootOID := range roots {
		if seen[rootOID] {
			continue
		}
		seen[rootOID] = true
		st, err := aggregator.RollUp(rootOID)
		if err != nil {
			return nil, err
		}
		mergeMax(&checkouts, st)
	}

	a.acc.tagsMu.Lock()
	tagOIDs := make([]object.OID, 0, len(a.acc.tags))
	for oid := range a.acc.tags {
		tagOIDs = append(tagOIDs, oid)
	}
	a.acc.tagsMu.Unlock()

	var maxTagDepth uint64
	for _, oid := range tagOIDs {
		d, err := resolver.Resolve(oid)
		if err != nil {
			return nil, err
		}
		if d > maxTagDepth {
			maxTagDepth = d
		}
	}

	maxDepth := uint64(a.dag.MaxDepth())

	refs, err := a.listRefs()
	if err != nil {
		return nil, &AnalysisError{Kind: ReferenceListFailed, Err: err}
	}

	return &Report{
		RepositorySize: RepositorySize{
			Commits:       CommitsSize{Count: uint64(len(a.acc.commits)), Size: a.acc.commitsTotal},
			Trees:         TreesSize{Count: uint64(len(a.acc.trees)), Size: a.acc.treesTotal, Entries: a.acc.treesEntries},
			Blobs:         BlobsSize{Count: uint64(len(a.acc.blobs)), Size: a.acc.blobsTotal},
			AnnotatedTags: CountOnly{Count: uint64(len(a.acc.tags))},
			References:    CountOnly{Count: uint64(len(refs))},
		},
		BiggestObjects: BiggestObjects{
			Commits: BiggestCommits{MaxSize: a.acc.commitsMaxSize, MaxParents: a.acc.maxParents},
			Trees:   BiggestTrees{MaxEntries: a.acc.treesMaxEntries},
			Blobs:   BiggestBlobs{MaxSize: a.acc.blobsMaxSize},
		},
		HistoryStructure: HistoryStructure{
			MaxDepth:    maxDepth,
			MaxTagDepth: maxTagDepth,
		},
		BiggestCheckouts: checkouts,
	}, nil
}
