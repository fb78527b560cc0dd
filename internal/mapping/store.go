package mapping

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/thornpw/steuer/internal/logger"
)

// DefaultAlias is the alias of the store used when none is given.
const DefaultAlias = "default"

// Persister loads and saves a whole mapping database.
type Persister interface {
	// Load returns the stored mappings. found is false when no database
	// exists yet, which is not an error.
	Load() (mappings map[string]*Mapping, found bool, err error)
	Save(mappings map[string]*Mapping) error
}

// Watcher is implemented by persisters that can report external changes.
type Watcher interface {
	Watch(ctx context.Context, changed func()) error
}

// Store keeps the mappings of one database keyed by controller model name.
type Store struct {
	alias     string
	persister Persister
	log       *logger.Logger

	mu       sync.RWMutex
	mappings map[string]*Mapping
	found    bool
}

// NewStore creates a store and loads it from p. A nil persister gives a
// memory-only store.
func NewStore(alias string, p Persister, log *logger.Logger) (*Store, error) {
	s := &Store{
		alias:     alias,
		persister: p,
		log:       logger.OrNop(log),
		mappings:  make(map[string]*Mapping),
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Alias() string { return s.alias }

// Found reports whether a database existed when the store was loaded.
func (s *Store) Found() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.found
}

// Reload replaces the in-memory table with the persisted one.
func (s *Store) Reload() error {
	if s.persister == nil {
		return nil
	}
	mappings, found, err := s.persister.Load()
	if err != nil {
		return errors.Wrapf(err, "load mapping database %q", s.alias)
	}
	if mappings == nil {
		mappings = make(map[string]*Mapping)
	}
	for _, m := range mappings {
		m.normalize()
	}

	s.mu.Lock()
	s.mappings = mappings
	s.found = found
	s.mu.Unlock()

	if found {
		s.log.Info().Str("db", s.alias).Int("models", len(mappings)).Msg("mapping database loaded")
	} else {
		s.log.Warn().Str("db", s.alias).Msg("no mapping database found")
	}
	return nil
}

// Lookup finds the mapping of a controller model.
func (s *Store) Lookup(model string) (*Mapping, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.mappings[model]
	if ok {
		s.log.Debug().Str("db", s.alias).Str("model", model).Msg("mapping found")
	} else {
		s.log.Debug().Str("db", s.alias).Str("model", model).Msg("mapping not found")
	}
	return m, ok
}

// Upsert stores m under model, replacing any previous entry, and persists
// the whole database. The in-memory entry is kept when persisting fails.
func (s *Store) Upsert(model string, m *Mapping) error {
	s.mu.Lock()
	s.mappings[model] = m
	err := s.saveLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.log.Debug().Str("db", s.alias).Str("model", model).Msg("mapping stored")
	return nil
}

// Delete removes a model. Deleting an unknown model is a no-op.
func (s *Store) Delete(model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mappings[model]; !ok {
		return nil
	}
	delete(s.mappings, model)
	return s.saveLocked()
}

// Models returns the stored model names in sorted order.
func (s *Store) Models() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.mappings))
	for name := range s.mappings {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns a deep copy of every stored mapping.
func (s *Store) Snapshot() map[string]*Mapping {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*Mapping, len(s.mappings))
	for k, v := range s.mappings {
		out[k] = v.Clone()
	}
	return out
}

// Watch reloads the store whenever the persister reports an external change.
// It blocks until ctx is done. Persisters without change notification make
// Watch return immediately.
func (s *Store) Watch(ctx context.Context) error {
	w, ok := s.persister.(Watcher)
	if !ok {
		return nil
	}
	return w.Watch(ctx, func() {
		if err := s.Reload(); err != nil {
			s.log.Error().Err(err).Str("db", s.alias).Msg("reload failed")
		}
	})
}

func (s *Store) saveLocked() error {
	if s.persister == nil {
		return nil
	}
	if err := s.persister.Save(s.mappings); err != nil {
		return errors.Wrapf(err, "save mapping database %q", s.alias)
	}
	s.found = true
	return nil
}
