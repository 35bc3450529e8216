package stats

import "github.com/odvcencio/repostat/pkg/object"

// TagDepthResolver computes chained annotated-tag depth (spec §4.6),
// memoized via each tagNode's depth field (0 = unresolved sentinel).
// Operates single-threaded, post-drain.
type TagDepthResolver struct {
	acc *ObjectAccumulator
}

// NewTagDepthResolver builds a resolver reading from acc's tags table.
func NewTagDepthResolver(acc *ObjectAccumulator) *TagDepthResolver {
	return &TagDepthResolver{acc: acc}
}

// Resolve returns the chain depth of the tag at oid: 1 for a tag pointing
// directly at a non-tag object, or 1 + the target's resolved depth when
// the target is itself a tag.
func (r *TagDepthResolver) Resolve(oid object.OID) (uint64, error) {
	r.acc.tagsMu.Lock()
	node, ok := r.acc.tags[oid]
	r.acc.tagsMu.Unlock()
	if !ok {
		return 0, &AnalysisError{Kind: InternalMissing, OID: oid}
	}
	return r.resolve(node)
}

func (r *TagDepthResolver) resolve(node *tagNode) (uint64, error) {
	if node.depth != 0 {
		return node.depth, nil
	}

	depth := uint64(1)
	if node.targetType == object.TargetTag {
		r.acc.tagsMu.Lock()
		target, ok := r.acc.tags[node.targetOID]
		r.acc.tagsMu.Unlock()
		if !ok {
			return 0, &AnalysisError{Kind: InternalMissing, OID: node.targetOID}
		}
		targetDepth, err := r.resolve(target)
		if err != nil {
			return 0, err
		}
		depth += targetDepth
	}

	node.depth = depth
	return depth, nil
}
