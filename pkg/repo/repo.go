package repo

import (
	"github.com/odvcencio/repostat/pkg/object"
)

// Repo represents an opened repository: a working directory paired with
// its content-addressed object store and ref namespace.
type Repo struct {
	RootDir string        // working directory root
	GotDir  string        // .got/ directory
	Store   *object.Store // content-addressed object store
}
