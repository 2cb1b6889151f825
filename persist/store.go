package persist

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
)

// Committer writes the complete state. It is what the color engine and the
// preset store depend on.
type Committer interface {
	Commit(State) error
}

// Store loads and commits the state through a codec onto a flash page.
type Store struct {
	flash Flash
	codec Codec
	id    string
	page  []byte
}

func NewStore(flash Flash, codec Codec, id string) *Store {
	return &Store{flash: flash, codec: codec, id: id}
}

// Load reads the persisted state. An erased or corrupt page is replaced by
// the default state, which is written back at once.
func (s *Store) Load() (State, error) {
	page, err := s.flash.Load()
	if err != nil {
		return State{}, err
	}
	s.page = page

	state, err := s.codec.Decode(page)
	if err == nil {
		slog.Debug("Loaded state", "format", s.codec.Name(), "color", state.Active, "presets", len(state.Presets))
		return state, nil
	}
	if !errors.Is(err, ErrErased) && !errors.Is(err, ErrCorrupt) {
		return State{}, err
	}

	slog.Warn("No valid state in flash, using default", "format", s.codec.Name(), "reason", err)
	state = Default(s.id)
	if err := s.Commit(state); err != nil {
		return state, fmt.Errorf("failed to persist default state: %w", err)
	}
	return state, nil
}

// Commit writes state unless the page already holds exactly these bytes.
func (s *Store) Commit(state State) error {
	data := s.codec.Encode(state)
	if len(s.page) >= len(data) && bytes.Equal(s.page[:len(data)], data) {
		slog.Debug("State unchanged, skipping flash write")
		return nil
	}
	if err := s.flash.EraseAndWrite(data); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	s.page = data
	slog.Debug("Committed state", "color", state.Active, "presets", len(state.Presets))
	return nil
}
