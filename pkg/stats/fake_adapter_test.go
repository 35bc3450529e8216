package stats

import (
	"fmt"

	"github.com/odvcencio/repostat/pkg/object"
)

// fakeAdapter is an in-memory ObjectStoreAdapter for unit-level component
// tests, letting a test build an object graph directly from labels instead
// of going through pkg/repo's filesystem store.
type fakeAdapter struct {
	objects map[object.OID]*ObjectView
	order   []object.OID
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{objects: make(map[object.OID]*ObjectView)}
}

// oidFor derives a deterministic OID from a test label, so tests can refer
// to objects by name without computing real envelope hashes.
func oidFor(label string) object.OID {
	return object.HashBytes([]byte(label))
}

func (f *fakeAdapter) put(label string, view *ObjectView) object.OID {
	oid := oidFor(label)
	if _, exists := f.objects[oid]; !exists {
		f.order = append(f.order, oid)
	}
	f.objects[oid] = view
	return oid
}

func (f *fakeAdapter) ForEachObjectID(visit func(object.OID) error) error {
	for _, oid := range f.order {
		if err := visit(oid); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeAdapter) Lookup(oid object.OID) (*ObjectView, error) {
	v, ok := f.objects[oid]
	if !ok {
		return nil, &LookupError{OID: oid, Cause: fmt.Errorf("fake adapter: no such object")}
	}
	return v, nil
}

func noRefs() ([]string, error) { return nil, nil }

func refs(names ...string) ReferenceLister {
	return func() ([]string, error) { return names, nil }
}
