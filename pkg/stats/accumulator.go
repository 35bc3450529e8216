package stats

import (
	"sync"

	"github.com/odvcencio/repostat/pkg/object"
)

// commitRecord is everything aggregation needs back out of a commit: just
// its root tree, since size/parent stats are folded into the accumulator's
// scalars at insert time.
type commitRecord struct {
	rootTree object.OID
}

// subtreeChild is a sub-tree entry of a tree: its OID plus the length of
// the name under which it was reached, needed by TreeAggregator to extend
// maxPathLength across the parent/child boundary.
type subtreeChild struct {
	oid     object.OID
	nameLen int
}

// treeRecord is TreePartialStats (spec §3): the per-entry lists plus the
// counts collected directly from a tree's own entries, and the memoization
// slot filled in by TreeAggregator.
type treeRecord struct {
	entryCount    int
	blobChildren  []object.OID
	subtrees      []subtreeChild
	numFiles      int
	maxPathLength int
	numSymlinks   int
	numSubmodules int

	rolledUp   bool
	cumulative TreeCumulativeStats
}

// tagNode is TagNode (spec §3): target plus the depth memoization slot.
// depth == 0 means unresolved.
type tagNode struct {
	targetOID  object.OID
	targetType object.TargetType
	depth      uint64
}

// TreeCumulativeStats is the roll-up result shape shared by a single
// commit's checkout and the repository-wide biggestCheckouts maximum.
type TreeCumulativeStats struct {
	NumDirectories uint64
	MaxPathDepth   uint64
	MaxPathLength  uint64
	NumFiles       uint64
	TotalFileSize  uint64
	NumSymlinks    uint64
	NumSubmodules  uint64
}

// ObjectAccumulator holds the four per-category tables, each behind its
// own mutex, so a commit-heavy burst of work never blocks blob or tree
// handlers. Tables are written only during Iterating/Draining; once the
// pool has drained they are safe to read without locking (the Analyzer's
// shutdown establishes a happens-after relation), though the aggregation
// stages still take the category locks around their map reads.
type ObjectAccumulator struct {
	commitsMu      sync.Mutex
	commits        map[object.OID]commitRecord
	commitsTotal   uint64
	commitsMaxSize uint64
	maxParents     uint64

	treesMu       sync.Mutex
	trees         map[object.OID]*treeRecord
	emptyTrees    map[object.OID]struct{}
	treesTotal    uint64
	treesEntries  uint64
	treesMaxEntries uint64

	blobsMu       sync.Mutex
	blobs         map[object.OID]uint64
	blobsTotal    uint64
	blobsMaxSize  uint64

	tagsMu sync.Mutex
	tags   map[object.OID]*tagNode
}

// NewObjectAccumulator builds an empty accumulator ready to receive work
// from a fresh Analyzer run. Instances are never reused across repositories.
func NewObjectAccumulator() *ObjectAccumulator {
	return &ObjectAccumulator{
		commits:    make(map[object.OID]commitRecord),
		trees:      make(map[object.OID]*treeRecord),
		emptyTrees: make(map[object.OID]struct{}),
		blobs:      make(map[object.OID]uint64),
		tags:       make(map[object.OID]*tagNode),
	}
}

// HandleCommit is the Commit work-handler (spec §4.3). It inserts the
// commit idempotently and, only on first insertion, registers the commit
// with the CommitDag so a duplicate object-database entry never double
// counts an edge.
func (a *ObjectAccumulator) HandleCommit(oid object.OID, c *CommitView, dag *CommitDag) {
	a.commitsMu.Lock()
	defer a.commitsMu.Unlock()

	if _, exists := a.commits[oid]; exists {
		return
	}
	a.commits[oid] = commitRecord{rootTree: c.RootTree}
	a.commitsTotal += uint64(c.Size)
	if uint64(c.Size) > a.commitsMaxSize {
		a.commitsMaxSize = uint64(c.Size)
	}
	parentCount := uint64(len(c.Parents))
	if parentCount > a.maxParents {
		a.maxParents = parentCount
	}
	dag.AddNode(oid, c.Parents)
}

// HandleTree is the Tree work-handler. An empty tree (invariant 2) is
// recorded in emptyTrees and excluded from every count and sum; a
// non-empty tree's entries are classified per invariants 3 and 4.
func (a *ObjectAccumulator) HandleTree(oid object.OID, t *TreeView) {
	if len(t.Entries) == 0 {
		a.treesMu.Lock()
		a.emptyTrees[oid] = struct{}{}
		a.treesMu.Unlock()
		return
	}

	rec := &treeRecord{entryCount: len(t.Entries)}
	for _, e := range t.Entries {
		switch e.TargetType {
		case object.TargetCommit:
			// Submodule gitlink: counts only, no size/path contribution.
			rec.numSubmodules++
		case object.TargetSymlink:
			// Symlink: counts only, no size/path contribution.
			rec.numSymlinks++
		case object.TargetBlob:
			rec.numFiles++
			if len(e.Name) > rec.maxPathLength {
				rec.maxPathLength = len(e.Name)
			}
			rec.blobChildren = append(rec.blobChildren, e.TargetOID)
		case object.TargetTree:
			rec.subtrees = append(rec.subtrees, subtreeChild{oid: e.TargetOID, nameLen: len(e.Name)})
		}
	}

	a.treesMu.Lock()
	defer a.treesMu.Unlock()
	if _, exists := a.trees[oid]; exists {
		return
	}
	a.trees[oid] = rec
	a.treesTotal += uint64(t.Size)
	a.treesEntries += uint64(len(t.Entries))
	if uint64(len(t.Entries)) > a.treesMaxEntries {
		a.treesMaxEntries = uint64(len(t.Entries))
	}
}

// HandleBlob is the Blob work-handler.
func (a *ObjectAccumulator) HandleBlob(oid object.OID, b *BlobView) {
	a.blobsMu.Lock()
	defer a.blobsMu.Unlock()
	if _, exists := a.blobs[oid]; exists {
		return
	}
	a.blobs[oid] = uint64(b.Size)
	a.blobsTotal += uint64(b.Size)
	if uint64(b.Size) > a.blobsMaxSize {
		a.blobsMaxSize = uint64(b.Size)
	}
}

// HandleTag is the Tag work-handler. The object database guarantees OID
// uniqueness, so overwrite is allowed rather than guarded.
func (a *ObjectAccumulator) HandleTag(oid object.OID, t *TagView) {
	a.tagsMu.Lock()
	defer a.tagsMu.Unlock()
	a.tags[oid] = &tagNode{targetOID: t.TargetOID, targetType: t.TargetType}
}
