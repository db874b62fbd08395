package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
)

// FSStore stages artifacts on the local filesystem under
// root/<run-id>/<target>/<filename>. Writes go to a temp file in the
// same directory and are renamed into place, so readers never observe
// a partially written artifact.
type FSStore struct {
	root  string
	runID string
}

// NewRun creates a store with a fresh run namespace under root.
func NewRun(root string) (*FSStore, error) {
	runID := uuid.NewString()
	if err := os.MkdirAll(filepath.Join(root, runID), 0o755); err != nil {
		return nil, fmt.Errorf("creating run namespace: %w", err)
	}
	return &FSStore{root: root, runID: runID}, nil
}

// OpenRun opens an existing run namespace, e.g. for a standalone
// publish of artifacts staged by an earlier build invocation.
func OpenRun(root, runID string) (*FSStore, error) {
	dir := filepath.Join(root, runID)
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening run %s: %w", runID, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("opening run %s: %s is not a directory", runID, dir)
	}
	return &FSStore{root: root, runID: runID}, nil
}

func (s *FSStore) RunID() string { return s.runID }

func (s *FSStore) path(h Handle) string {
	return filepath.Join(s.root, h.RunID, h.Target, h.Filename)
}

// Put stages an artifact. The temp file lives next to the final path so
// the rename never crosses filesystems.
func (s *FSStore) Put(target, filename string, r io.Reader) (Handle, error) {
	h := Handle{RunID: s.runID, Target: target, Filename: filepath.Base(filename)}

	dir := filepath.Dir(s.path(h))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Handle{}, fmt.Errorf("staging %s: %w", h, err)
	}

	tmp, err := os.CreateTemp(dir, ".staging-*")
	if err != nil {
		return Handle{}, fmt.Errorf("staging %s: %w", h, err)
	}

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return Handle{}, fmt.Errorf("staging %s: %w", h, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return Handle{}, fmt.Errorf("staging %s: %w", h, err)
	}

	if err := os.Rename(tmp.Name(), s.path(h)); err != nil {
		os.Remove(tmp.Name())
		return Handle{}, fmt.Errorf("staging %s: %w", h, err)
	}

	return h, nil
}

// Get opens a staged artifact for reading.
func (s *FSStore) Get(h Handle) (io.ReadCloser, error) {
	f, err := os.Open(s.path(h))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// Size reports a staged artifact's byte size.
func (s *FSStore) Size(h Handle) (int64, error) {
	fi, err := os.Stat(s.path(h))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return fi.Size(), nil
}

// List returns handles for every artifact a target staged in this run.
func (s *FSStore) List(target string) ([]Handle, error) {
	dir := filepath.Join(s.root, s.runID, target)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var handles []Handle
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		// Skip in-flight temp files — they are not visible artifacts.
		if len(name) > 0 && name[0] == '.' {
			continue
		}
		handles = append(handles, Handle{RunID: s.runID, Target: target, Filename: name})
	}

	sort.Slice(handles, func(i, j int) bool { return handles[i].Filename < handles[j].Filename })
	return handles, nil
}
