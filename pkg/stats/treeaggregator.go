package stats

import "github.com/odvcencio/repostat/pkg/object"

// TreeAggregator performs the memoized depth-first roll-up from
// TreePartialStats into TreeCumulativeStats (spec §4.5). It operates
// single-threaded, strictly after the worker pool has drained.
type TreeAggregator struct {
	acc *ObjectAccumulator
}

// NewTreeAggregator builds an aggregator reading from acc's trees/blobs
// tables, which must already be frozen (post-drain).
func NewTreeAggregator(acc *ObjectAccumulator) *TreeAggregator {
	return &TreeAggregator{acc: acc}
}

// RollUp computes the cumulative checkout statistics for the tree at oid.
// A tree recorded as empty (invariant 2) rolls up to the zero value rather
// than an error, since it was genuinely looked up and deliberately
// excluded, not missing due to a bug. Any other OID absent from the trees
// table is InternalMissing: a real Lookup/Iteration race.
func (a *TreeAggregator) RollUp(oid object.OID) (TreeCumulativeStats, error) {
	a.acc.treesMu.Lock()
	rec, ok := a.acc.trees[oid]
	_, isEmpty := a.acc.emptyTrees[oid]
	a.acc.treesMu.Unlock()

	if !ok {
		if isEmpty {
			return TreeCumulativeStats{}, nil
		}
		return TreeCumulativeStats{}, &AnalysisError{Kind: InternalMissing, OID: oid}
	}
	return a.rollUp(rec)
}

func (a *TreeAggregator) rollUp(rec *treeRecord) (TreeCumulativeStats, error) {
	if rec.rolledUp {
		return rec.cumulative, nil
	}

	st := TreeCumulativeStats{
		NumDirectories: 1,
		MaxPathDepth:   1,
		NumFiles:       uint64(rec.numFiles),
		MaxPathLength:  uint64(rec.maxPathLength),
		NumSymlinks:    uint64(rec.numSymlinks),
		NumSubmodules:  uint64(rec.numSubmodules),
	}

	for _, blobOID := range rec.blobChildren {
		a.acc.blobsMu.Lock()
		size, ok := a.acc.blobs[blobOID]
		a.acc.blobsMu.Unlock()
		if !ok {
			return TreeCumulativeStats{}, &AnalysisError{Kind: InternalMissing, OID: blobOID}
		}
		st.TotalFileSize += size
	}

	for _, sub := range rec.subtrees {
		a.acc.treesMu.Lock()
		childRec, ok := a.acc.trees[sub.oid]
		_, isEmpty := a.acc.emptyTrees[sub.oid]
		a.acc.treesMu.Unlock()

		if !ok {
			if isEmpty {
				continue // empty sub-tree: excluded from all counts and sums
			}
			return TreeCumulativeStats{}, &AnalysisError{Kind: InternalMissing, OID: sub.oid}
		}

		child, err := a.rollUp(childRec)
		if err != nil {
			return TreeCumulativeStats{}, err
		}

		st.NumDirectories += child.NumDirectories
		if child.MaxPathDepth+1 > st.MaxPathDepth {
			st.MaxPathDepth = child.MaxPathDepth + 1
		}
		candidateLen := uint64(sub.nameLen) + 1 + child.MaxPathLength
		if candidateLen > st.MaxPathLength {
			st.MaxPathLength = candidateLen
		}
		st.NumFiles += child.NumFiles
		st.TotalFileSize += child.TotalFileSize
		st.NumSymlinks += child.NumSymlinks
		st.NumSubmodules += child.NumSubmodules
	}

	rec.cumulative = st
	rec.rolledUp = true
	return st, nil
}
