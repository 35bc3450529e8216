package stats

import "github.com/odvcencio/repostat/pkg/object"

// CommitNode is a node in the arena-allocated commit graph: an owning
// entry in CommitDag.nodes, with non-owning references to its children.
// parentsLeft is mutated only during AddNode (set once) and during
// MaxDepth's peeling pass (decremented once per incoming edge).
type CommitNode struct {
	OID         object.OID
	Children    []*CommitNode
	ParentsLeft int
	declared    bool
}

// CommitDag is the parent/child graph built incrementally while the
// object database is iterated. It is mutated only under the caller's
// commits-category mutex (see ObjectAccumulator.HandleCommit), so it
// carries no lock of its own.
type CommitDag struct {
	nodes map[object.OID]*CommitNode
	roots []*CommitNode
}

// NewCommitDag builds an empty graph.
func NewCommitDag() *CommitDag {
	return &CommitDag{nodes: make(map[object.OID]*CommitNode)}
}

// getOrCreate returns the node for oid, creating a placeholder with
// ParentsLeft left at zero ("declared count not yet known") if this is
// the first time oid has been named by any commit or child edge.
func (d *CommitDag) getOrCreate(oid object.OID) *CommitNode {
	n, ok := d.nodes[oid]
	if !ok {
		n = &CommitNode{OID: oid}
		d.nodes[oid] = n
	}
	return n
}

// AddNode registers a commit's declared parent edges. Called at most once
// per commit OID (the commits-mutex idempotent insert in HandleCommit
// guarantees this). It updates the node in place if it was already
// present as a parent placeholder created by a child commit seen earlier.
func (d *CommitDag) AddNode(oid object.OID, parents []object.OID) {
	node := d.getOrCreate(oid)
	node.ParentsLeft = len(parents)
	node.declared = true
	if len(parents) == 0 {
		d.roots = append(d.roots, node)
	}
	for _, p := range parents {
		parent := d.getOrCreate(p)
		parent.Children = append(parent.Children, node)
	}
}

// MaxDepth computes the longest root-to-leaf path length, counted in
// nodes, via iterative level-order peeling (spec §4.4): a child enters the
// next frontier only once every one of its declared parents has been
// processed, which happens exactly when ParentsLeft reaches zero. This
// avoids both recursion (stack-unsafe on pathological histories) and
// exponential re-enqueue.
func (d *CommitDag) MaxDepth() int {
	frontier := make([]*CommitNode, len(d.roots))
	copy(frontier, d.roots)

	depth := 0
	for len(frontier) > 0 {
		depth++
		var next []*CommitNode
		for _, node := range frontier {
			for _, child := range node.Children {
				child.ParentsLeft--
				if child.ParentsLeft == 0 {
					next = append(next, child)
				}
			}
		}
		frontier = next
	}
	return depth
}
