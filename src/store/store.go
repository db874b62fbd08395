// Package store implements the staging area between the build and publish
// phases. Every pipeline run gets its own namespace so concurrent runs
// never collide, and artifacts become visible only once fully written.
package store

import (
	"errors"
	"io"
)

// ErrNotFound is returned by Get for a handle with no staged artifact.
var ErrNotFound = errors.New("store: artifact not found")

// Handle identifies one staged artifact. Handles are stable for the
// lifetime of the run that created them.
type Handle struct {
	RunID    string
	Target   string
	Filename string
}

// String renders the handle as run/target/filename.
func (h Handle) String() string {
	return h.RunID + "/" + h.Target + "/" + h.Filename
}

// Store is the staging area contract. Put makes an artifact visible
// all-or-nothing: a Get concurrent with a Put either sees the complete
// artifact or ErrNotFound, never a partial write.
type Store interface {
	// RunID returns the namespace of this store instance.
	RunID() string

	// Put stages an artifact under the run/target namespace and
	// returns its handle. Overwrites a previous artifact of the same
	// name within the same run.
	Put(target, filename string, r io.Reader) (Handle, error)

	// Get opens a staged artifact for reading. Returns ErrNotFound if
	// the handle has no fully staged artifact.
	Get(h Handle) (io.ReadCloser, error)

	// Size reports the staged artifact's byte size.
	Size(h Handle) (int64, error)

	// List returns handles for every artifact staged by a target,
	// sorted by filename.
	List(target string) ([]Handle, error)
}
