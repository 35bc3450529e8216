package repo

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/odvcencio/repostat/pkg/object"
)

// TreeFileEntry represents a single file in a flattened tree.
type TreeFileEntry struct {
	Path    string
	BlobOID object.OID
	Mode    string
}

// BuildTree converts the flat staging entries into a hierarchical tree
// structure, writing TreeObj objects to the store and returning the root OID.
//
// Staging entries use forward-slash paths (e.g. "pkg/util/util.go").
// BuildTree groups them by directory, recursively creates subtrees, and
// returns the root tree OID.
func (r *Repo) BuildTree(s *Staging) (object.OID, error) {
	return r.buildTreeDir(s, "")
}

// buildTreeDir builds a TreeObj for the given directory prefix and writes it
// to the store. It returns the tree's OID.
func (r *Repo) buildTreeDir(s *Staging, prefix string) (object.OID, error) {
	files := make(map[string]*StagingEntry) // name -> entry
	subdirs := make(map[string]struct{})     // immediate child dir names

	for p, entry := range s.Entries {
		var rel string
		if prefix == "" {
			rel = p
		} else {
			if !strings.HasPrefix(p, prefix+"/") {
				continue
			}
			rel = p[len(prefix)+1:]
		}

		slash := strings.IndexByte(rel, '/')
		if slash < 0 {
			files[rel] = entry
		} else {
			subdirs[rel[:slash]] = struct{}{}
		}
	}

	names := make([]string, 0, len(files)+len(subdirs))
	for name := range files {
		names = append(names, name)
	}
	for name := range subdirs {
		if _, isFile := files[name]; !isFile {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var entries []object.TreeEntry
	for _, name := range names {
		if entry, isFile := files[name]; isFile {
			mode := normalizeFileMode(entry.Mode)
			entries = append(entries, object.TreeEntry{
				Name:       name,
				Mode:       mode,
				TargetType: object.TargetBlob,
				TargetOID:  entry.BlobOID,
			})
		} else {
			childPrefix := name
			if prefix != "" {
				childPrefix = prefix + "/" + name
			}
			subOID, err := r.buildTreeDir(s, childPrefix)
			if err != nil {
				return object.OID{}, fmt.Errorf("build tree %q: %w", childPrefix, err)
			}
			entries = append(entries, object.TreeEntry{
				Name:       name,
				Mode:       object.TreeModeDir,
				TargetType: object.TargetTree,
				TargetOID:  subOID,
			})
		}
	}

	treeObj := &object.TreeObj{Entries: entries}
	oid, err := r.Store.WriteTree(treeObj)
	if err != nil {
		return object.OID{}, fmt.Errorf("write tree (prefix=%q): %w", prefix, err)
	}
	return oid, nil
}

// FlattenTree walks a tree object recursively, returning all file entries
// with their full paths (using forward slashes).
func (r *Repo) FlattenTree(oid object.OID) ([]TreeFileEntry, error) {
	return r.flattenTreeRec(oid, "")
}

func (r *Repo) flattenTreeRec(oid object.OID, prefix string) ([]TreeFileEntry, error) {
	treeObj, err := r.Store.ReadTree(oid)
	if err != nil {
		return nil, fmt.Errorf("flatten tree: read %s: %w", oid, err)
	}

	var result []TreeFileEntry
	for _, entry := range treeObj.Entries {
		fullPath := entry.Name
		if prefix != "" {
			fullPath = path.Join(prefix, entry.Name)
		}

		if entry.TargetType == object.TargetTree {
			sub, err := r.flattenTreeRec(entry.TargetOID, fullPath)
			if err != nil {
				return nil, err
			}
			result = append(result, sub...)
		} else if entry.TargetType == object.TargetBlob {
			result = append(result, TreeFileEntry{
				Path:    fullPath,
				BlobOID: entry.TargetOID,
				Mode:    entry.Mode,
			})
		}
		// Submodule/symlink entries are leaves but are not flattened as
		// blob file entries; the statistics engine's tree walker counts
		// them directly from the object store instead.
	}
	return result, nil
}
