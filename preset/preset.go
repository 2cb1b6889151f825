// Package preset manages the bounded list of named favorite colors.
package preset

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"

	"lautenbacher.net/golight/color"
	"lautenbacher.net/golight/events"
	"lautenbacher.net/golight/persist"
)

var (
	ErrFull        = errors.New("preset storage full")
	ErrDuplicate   = errors.New("preset already exists")
	ErrNotFound    = errors.New("preset not found")
	ErrInvalidName = errors.New("preset name is empty")
)

// Applier makes a stored color the active one.
type Applier interface {
	SetHSV(h, s, v int) error
}

// Store edits the preset list of the shared state and commits the whole
// state after every change.
type Store struct {
	state   *persist.State
	commit  persist.Committer
	applier Applier
	pub     events.Publisher
}

func New(state *persist.State, commit persist.Committer, applier Applier, pub events.Publisher) *Store {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Store{state: state, commit: commit, applier: applier, pub: pub}
}

// Save appends a preset. The name is cut to persist.NameLen bytes before
// it is compared with the existing ones.
func (s *Store) Save(c color.HSV, name string) error {
	name = persist.TruncateName(name)
	if name == "" {
		return ErrInvalidName
	}
	if len(s.state.Presets) >= persist.Capacity {
		return fmt.Errorf("%w (max %d)", ErrFull, persist.Capacity)
	}
	if s.index(name) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicate, name)
	}

	prev := slices.Clone(s.state.Presets)
	s.state.Presets = append(s.state.Presets, persist.Entry{Name: name, Color: c})
	return s.persist(prev)
}

// Delete removes the preset and closes the gap, keeping the order of the
// others.
func (s *Store) Delete(name string) error {
	i := s.index(persist.TruncateName(name))
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	prev := slices.Clone(s.state.Presets)
	s.state.Presets = slices.Delete(s.state.Presets, i, i+1)
	return s.persist(prev)
}

// Apply makes the preset the active color.
func (s *Store) Apply(name string) error {
	i := s.index(persist.TruncateName(name))
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	c := s.state.Presets[i].Color
	return s.applier.SetHSV(int(c.H), int(c.S), int(c.V))
}

// List returns a copy of the presets in storage order.
func (s *Store) List() []persist.Entry {
	return slices.Clone(s.state.Presets)
}

func (s *Store) Len() int {
	return len(s.state.Presets)
}

func (s *Store) index(name string) int {
	return slices.IndexFunc(s.state.Presets, func(e persist.Entry) bool {
		return e.Name == name
	})
}

func (s *Store) persist(prev []persist.Entry) error {
	if err := s.commit.Commit(*s.state); err != nil {
		s.state.Presets = prev
		return fmt.Errorf("failed to persist presets: %w", err)
	}
	s.pub.Publish(events.PresetsChanged{Names: s.names()})
	return nil
}

func (s *Store) names() []string {
	names := make([]string, len(s.state.Presets))
	for i, e := range s.state.Presets {
		names[i] = e.Name
	}
	return names
}
