package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/odvcencio/repostat/pkg/object"
)

// CreateTag creates or updates a lightweight tag ref under refs/tags/.
func (r *Repo) CreateTag(name string, target object.OID, force bool) error {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	if target.IsZero() {
		return fmt.Errorf("create tag: target OID is required")
	}

	refName := "refs/tags/" + name
	if !force {
		if _, err := r.ResolveRef(refName); err == nil {
			return fmt.Errorf("create tag: tag %q already exists", name)
		}
	}
	if err := r.UpdateRef(refName, target); err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

// CreateAnnotatedTag creates or updates an annotated tag ref under refs/tags/.
// The ref points at a stored TagObj, which in turn points at target and may
// itself be the target of another annotated tag, forming a tag chain.
func (r *Repo) CreateAnnotatedTag(name string, target object.OID, tagger, message string, force bool) (object.OID, error) {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return object.OID{}, fmt.Errorf("create annotated tag: %w", err)
	}
	if target.IsZero() {
		return object.OID{}, fmt.Errorf("create annotated tag: target OID is required")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return object.OID{}, fmt.Errorf("create annotated tag: message is required")
	}
	tagger = strings.TrimSpace(tagger)
	if tagger == "" {
		tagger = "unknown"
	}

	targetType, _, err := r.Store.Read(target)
	if err != nil {
		return object.OID{}, fmt.Errorf("create annotated tag: read target %s: %w", target, err)
	}

	refName := "refs/tags/" + name
	if !force {
		if _, err := r.ResolveRef(refName); err == nil {
			return object.OID{}, fmt.Errorf("create annotated tag: tag %q already exists", name)
		}
	}

	tagOID, err := r.Store.WriteTag(&object.TagObj{
		TargetOID:  target,
		TargetType: toTargetType(targetType),
		Tag:        name,
		Tagger:     tagger,
		Timestamp:  time.Now().Unix(),
		Message:    message,
	})
	if err != nil {
		return object.OID{}, fmt.Errorf("create annotated tag: write tag object: %w", err)
	}

	if err := r.UpdateRef(refName, tagOID); err != nil {
		return object.OID{}, fmt.Errorf("create annotated tag: %w", err)
	}
	return tagOID, nil
}

func toTargetType(t object.ObjectType) object.TargetType {
	switch t {
	case object.TypeTag:
		return object.TargetTag
	case object.TypeCommit:
		return object.TargetCommit
	case object.TypeTree:
		return object.TargetTree
	case object.TypeBlob:
		return object.TargetBlob
	default:
		return object.TargetUnresolved
	}
}

// DeleteTag removes a tag ref from refs/tags/.
func (r *Repo) DeleteTag(name string) error {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}

	refPath := filepath.Join(r.GotDir, "refs", "tags", filepath.FromSlash(name))
	if err := os.Remove(refPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("delete tag: tag %q does not exist", name)
		}
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}

// ResolveTag resolves a tag name under refs/tags/.
func (r *Repo) ResolveTag(name string) (object.OID, error) {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return object.OID{}, fmt.Errorf("resolve tag: %w", err)
	}
	return r.ResolveRef("refs/tags/" + name)
}

// ListTags lists tag names sorted alphabetically.
func (r *Repo) ListTags() ([]string, error) {
	refs, err := r.ListRefs("tags")
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	names := make([]string, 0, len(refs))
	for full := range refs {
		name := strings.TrimPrefix(full, "tags/")
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ListTagsWithOIDs returns tag name -> target OID.
func (r *Repo) ListTagsWithOIDs() (map[string]object.OID, error) {
	refs, err := r.ListRefs("tags")
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	out := make(map[string]object.OID, len(refs))
	for full, oid := range refs {
		name := strings.TrimPrefix(full, "tags/")
		out[name] = oid
	}
	return out, nil
}

func validateTagName(name string) error {
	if name == "" {
		return fmt.Errorf("tag name is required")
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return fmt.Errorf("invalid tag name %q", name)
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("invalid tag name %q", name)
	}
	if strings.ContainsAny(name, " \t\n\r") {
		return fmt.Errorf("invalid tag name %q", name)
	}
	return nil
}
