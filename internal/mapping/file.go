package mapping

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

const (
	DefaultFilename = "steuer.json"
	DefaultDir      = ".steuer"
)

// File persists a mapping database as one JSON document. Writes are
// serialised with a lock file next to the database.
type File struct {
	path string
	lock *flock.Flock
}

// DefaultPath is ~/.steuer/steuer.json.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(DefaultDir, DefaultFilename)
	}
	return filepath.Join(home, DefaultDir, DefaultFilename)
}

func NewFile(path string) *File {
	return &File{path: path, lock: flock.New(path + ".lock")}
}

func (f *File) Path() string { return f.path }

// Load reads the database. A missing file creates the parent directory and
// reports found=false.
func (f *File) Load() (map[string]*Mapping, bool, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
			return nil, false, errors.Wrap(err, "create database directory")
		}
		return map[string]*Mapping{}, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "read database")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]*Mapping{}, true, nil
	}
	mappings := make(map[string]*Mapping)
	if err := json.Unmarshal(data, &mappings); err != nil {
		return nil, false, errors.Wrapf(err, "decode %s", f.path)
	}
	return mappings, true, nil
}

// Save writes the database to a temporary file and renames it into place.
func (f *File) Save(mappings map[string]*Mapping) error {
	data, err := json.MarshalIndent(mappings, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode database")
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return errors.Wrap(err, "create database directory")
	}
	if err := f.lock.Lock(); err != nil {
		return errors.Wrap(err, "lock database")
	}
	defer func() { _ = f.lock.Unlock() }()

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return errors.Wrap(err, "write database")
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return errors.Wrap(err, "replace database")
	}
	return nil
}

// Watch calls changed whenever the database file is written or replaced.
// The parent directory is watched so that rename-into-place is seen.
func (f *File) Watch(ctx context.Context, changed func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer func() { _ = w.Close() }()

	if err := w.Add(filepath.Dir(f.path)); err != nil {
		return errors.Wrap(err, "watch database directory")
	}
	target := filepath.Clean(f.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				changed()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return errors.Wrap(err, "watch database")
		}
	}
}
