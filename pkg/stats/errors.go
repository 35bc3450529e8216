package stats

import (
	"fmt"

	"github.com/odvcencio/repostat/pkg/object"
)

// ErrorKind classifies why a statistics run aborted. Every kind is fatal:
// the engine returns the first one observed and emits no partial report.
type ErrorKind int

const (
	// OpenFailed means the repository path could not be opened.
	OpenFailed ErrorKind = iota
	// IterationFailed means object-store iteration aborted before completion.
	IterationFailed
	// LookupFailed means a specific OID could not be read from the store.
	LookupFailed
	// InternalMissing means aggregation referenced an OID absent from its
	// category table, implying an earlier lookup/iteration bug or race.
	InternalMissing
	// ReferenceListFailed means reference enumeration aborted.
	ReferenceListFailed
)

func (k ErrorKind) String() string {
	switch k {
	case OpenFailed:
		return "open-failed"
	case IterationFailed:
		return "iteration-failed"
	case LookupFailed:
		return "lookup-failed"
	case InternalMissing:
		return "internal-missing"
	case ReferenceListFailed:
		return "reference-list-failed"
	default:
		return "unknown"
	}
}

// AnalysisError is the single error type returned by a failed Analyze run.
// OID is the zero value when the failure is not tied to a specific object.
type AnalysisError struct {
	Kind ErrorKind
	OID  object.OID
	Err  error
}

func (e *AnalysisError) Error() string {
	if e.OID.IsZero() {
		return fmt.Sprintf("stats: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("stats: %s: %s: %v", e.Kind, e.OID, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// LookupError reports a failed object lookup during iteration. It satisfies
// the engine's "any lookup failure on a pending work item is fatal" rule by
// being wrapped into an AnalysisError with kind LookupFailed.
type LookupError struct {
	OID   object.OID
	Cause error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup %s: %v", e.OID, e.Cause)
}

func (e *LookupError) Unwrap() error { return e.Cause }
