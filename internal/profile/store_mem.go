package profile

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"
)

// MemStore keeps profiles in process. Used by the CLI and in tests.
type MemStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

func NewMemStore(seed ...Profile) *MemStore {
	s := &MemStore{profiles: map[string]Profile{}}
	for _, p := range seed {
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = time.Now().UTC()
		}
		s.profiles[p.Name] = clone(p)
	}
	return s
}

func (s *MemStore) Get(_ context.Context, name string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return clone(p), nil
}

func (s *MemStore) Put(_ context.Context, p Profile) (Profile, error) {
	if err := ValidateName(p.Name); err != nil {
		return Profile{}, err
	}
	p.UpdatedAt = time.Now().UTC()
	s.mu.Lock()
	s.profiles[p.Name] = clone(p)
	s.mu.Unlock()
	return clone(p), nil
}

func (s *MemStore) List(_ context.Context) ([]Profile, error) {
	s.mu.RLock()
	out := make([]Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, clone(p))
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(s.profiles, name)
	return nil
}

func clone(p Profile) Profile {
	if p.Raw == nil {
		p.Raw = map[string]interface{}{}
	} else {
		p.Raw = maps.Clone(p.Raw)
	}
	return p
}
