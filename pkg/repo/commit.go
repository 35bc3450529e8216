package repo

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/odvcencio/repostat/pkg/object"
)

// CommitSigner signs canonical commit payload bytes and returns an encoded
// signature string to be persisted in CommitObj.Signature.
type CommitSigner func(payload []byte) (string, error)

// Commit creates a new commit from the current staging area.
//
//  1. Read staging
//  2. BuildTree from staging
//  3. Resolve HEAD to get parent commit OID (if any)
//  4. Create CommitObj with tree OID, parent, author, current timestamp, message
//  5. Write commit to store
//  6. Update current branch ref to new commit OID
//  7. Return commit OID
func (r *Repo) Commit(message, author string) (object.OID, error) {
	return r.CommitWithSigner(message, author, nil)
}

// CommitWithSigner creates a new commit and signs it when signer is provided.
func (r *Repo) CommitWithSigner(message, author string, signer CommitSigner) (object.OID, error) {
	stg, err := r.ReadStaging()
	if err != nil {
		return object.OID{}, fmt.Errorf("commit: %w", err)
	}
	if len(stg.Entries) == 0 {
		return object.OID{}, fmt.Errorf("commit: nothing staged")
	}

	treeOID, err := r.BuildTree(stg)
	if err != nil {
		return object.OID{}, fmt.Errorf("commit: %w", err)
	}

	var parents []object.OID
	parentOID, err := r.ResolveRef("HEAD")
	hasParent := err == nil && !parentOID.IsZero()
	if hasParent {
		parents = append(parents, parentOID)
	}
	// If HEAD resolution fails (e.g., first commit, no ref file), that's fine.

	commitObj := &object.CommitObj{
		TreeOID:   treeOID,
		Parents:   parents,
		Author:    author,
		Timestamp: time.Now().Unix(),
		Message:   message,
	}
	if signer != nil {
		payload := object.CommitSigningPayload(commitObj)
		signature, err := signer(payload)
		if err != nil {
			return object.OID{}, fmt.Errorf("commit: sign commit: %w", err)
		}
		commitObj.Signature = signature
	}

	commitOID, err := r.Store.WriteCommit(commitObj)
	if err != nil {
		return object.OID{}, fmt.Errorf("commit: write commit: %w", err)
	}

	head, err := r.Head()
	if err != nil {
		return object.OID{}, fmt.Errorf("commit: read HEAD: %w", err)
	}

	if strings.HasPrefix(head, "refs/") {
		var updateErr error
		if !hasParent {
			updateErr = r.UpdateRefCAS(head, commitOID)
		} else {
			updateErr = r.UpdateRefCAS(head, commitOID, parentOID)
		}
		if updateErr != nil {
			return object.OID{}, fmt.Errorf("commit: update ref %q: %w", head, updateErr)
		}
	} else {
		// Detached HEAD: update HEAD directly with a CAS against the old OID.
		oldOID, err := object.ParseOID(strings.TrimSpace(head))
		if err != nil {
			return object.OID{}, fmt.Errorf("commit: parse detached HEAD: %w", err)
		}
		if err := r.UpdateRefCAS("HEAD", commitOID, oldOID); err != nil {
			return object.OID{}, fmt.Errorf("commit: update detached HEAD: %w", err)
		}
	}

	return commitOID, nil
}

// Log walks the commit history starting from the given OID, following
// first-parent links, returning up to limit commits in reverse-chronological
// order (newest first).
func (r *Repo) Log(start object.OID, limit int) ([]*object.CommitObj, error) {
	var commits []*object.CommitObj
	current := start

	for len(commits) < limit {
		c, err := r.Store.ReadCommit(current)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				break
			}
			return nil, fmt.Errorf("log: read commit %s: %w", current, err)
		}
		commits = append(commits, c)

		if len(c.Parents) == 0 {
			break
		}
		current = c.Parents[0]
	}

	return commits, nil
}
