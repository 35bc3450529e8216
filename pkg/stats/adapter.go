package stats

import (
	"fmt"

	"github.com/odvcencio/repostat/pkg/object"
)

// Variant names which of the four object-database shapes a looked-up
// object turned out to be.
type Variant int

const (
	VariantCommit Variant = iota
	VariantTree
	VariantBlob
	VariantTag
)

// CommitView exposes the fields a Commit work-handler needs: serialized
// size, parent OIDs (parent count is len(Parents)), and the root tree OID.
type CommitView struct {
	Size     int64
	Parents  []object.OID
	RootTree object.OID
}

// TreeEntryView is one entry of a Tree, carrying exactly what invariants 3
// and 4 need to classify it: name (for length and path-building), filemode,
// target variant, and target OID.
type TreeEntryView struct {
	Name       string
	Mode       string
	TargetType object.TargetType
	TargetOID  object.OID
}

// TreeView exposes a tree's serialized size and its entries.
type TreeView struct {
	Size    int64
	Entries []TreeEntryView
}

// BlobView exposes a blob's raw content size.
type BlobView struct {
	Size int64
}

// TagView exposes a tag's target OID and target variant.
type TagView struct {
	TargetOID  object.OID
	TargetType object.TargetType
}

// ObjectView is a tagged union over the four object variants. Exactly one
// of Commit/Tree/Blob/Tag is non-nil, selected by Variant.
type ObjectView struct {
	Variant Variant
	Commit  *CommitView
	Tree    *TreeView
	Blob    *BlobView
	Tag     *TagView
}

// ObjectStoreAdapter is the read-only view of the object database the
// engine consumes. ForEachObjectID must be safe to call concurrently with
// Lookup from other goroutines while iteration is in progress.
type ObjectStoreAdapter interface {
	ForEachObjectID(visit func(object.OID) error) error
	Lookup(oid object.OID) (*ObjectView, error)
}

// StoreAdapter wraps a pkg/object.Store as an ObjectStoreAdapter. The
// underlying Store does no in-memory mutable bookkeeping of its own, so a
// single instance may be shared and called concurrently from every worker
// without a dedicated per-worker handle.
type StoreAdapter struct {
	store *object.Store
}

// NewStoreAdapter builds an ObjectStoreAdapter backed by an on-disk store.
func NewStoreAdapter(s *object.Store) *StoreAdapter {
	return &StoreAdapter{store: s}
}

// ForEachObjectID walks the store's fan-out directory tree.
func (a *StoreAdapter) ForEachObjectID(visit func(object.OID) error) error {
	return a.store.ForEach(visit)
}

// Lookup decodes the object at oid into its typed view.
func (a *StoreAdapter) Lookup(oid object.OID) (*ObjectView, error) {
	objType, data, err := a.store.Read(oid)
	if err != nil {
		return nil, &LookupError{OID: oid, Cause: err}
	}

	switch objType {
	case object.TypeCommit:
		c, err := object.UnmarshalCommit(data)
		if err != nil {
			return nil, &LookupError{OID: oid, Cause: err}
		}
		return &ObjectView{
			Variant: VariantCommit,
			Commit: &CommitView{
				Size:     int64(len(data)),
				Parents:  c.Parents,
				RootTree: c.TreeOID,
			},
		}, nil

	case object.TypeTree:
		tr, err := object.UnmarshalTree(data)
		if err != nil {
			return nil, &LookupError{OID: oid, Cause: err}
		}
		entries := make([]TreeEntryView, len(tr.Entries))
		for i, e := range tr.Entries {
			entries[i] = TreeEntryView{
				Name:       e.Name,
				Mode:       e.Mode,
				TargetType: e.TargetType,
				TargetOID:  e.TargetOID,
			}
		}
		return &ObjectView{
			Variant: VariantTree,
			Tree:    &TreeView{Size: int64(len(data)), Entries: entries},
		}, nil

	case object.TypeBlob:
		return &ObjectView{
			Variant: VariantBlob,
			Blob:    &BlobView{Size: int64(len(data))},
		}, nil

	case object.TypeTag:
		t, err := object.UnmarshalTag(data)
		if err != nil {
			return nil, &LookupError{OID: oid, Cause: err}
		}
		return &ObjectView{
			Variant: VariantTag,
			Tag:     &TagView{TargetOID: t.TargetOID, TargetType: t.TargetType},
		}, nil

	default:
		return nil, &LookupError{OID: oid, Cause: fmt.Errorf("unknown object type %q", objType)}
	}
}
