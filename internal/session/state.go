// Package session holds per-UI-session state: the selected model and the
// flag that keeps a second message from being submitted mid-generation.
package session

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/suPer8Hu/chat-app/internal/settings"
)

var ErrModelNotFound = errors.New("model not found")

type State struct {
	mu            sync.Mutex
	model         string
	index         int
	inputDisabled bool
}

// New seeds the state from rec. When the stored model is missing from
// models the selection is reset and ErrModelNotFound is returned alongside
// a usable state.
func New(rec *settings.Record, models []string) (*State, error) {
	s := &State{index: -1}
	if rec == nil {
		return s, nil
	}
	model, ok := rec.Model()
	if !ok {
		return s, nil
	}
	// a fresh state has no selection, so a failed Select leaves it reset
	if err := s.Select(model, models); err != nil {
		return s, err
	}
	return s, nil
}

// Select makes model the active one. An unknown model is rejected and the
// current selection is kept.
func (s *State) Select(model string, models []string) error {
	i := slices.Index(models, model)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrModelNotFound, model)
	}
	s.mu.Lock()
	s.model, s.index = model, i
	s.mu.Unlock()
	return nil
}

func (s *State) SelectedModel() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model, s.index >= 0
}

// SelectedIndex is the position of the selected model in the listing it was
// chosen from, or -1.
func (s *State) SelectedIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

func (s *State) InputDisabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputDisabled
}

// Disable marks a turn as in flight. It returns false if one already is.
func (s *State) Disable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inputDisabled {
		return false
	}
	s.inputDisabled = true
	return true
}

func (s *State) Enable() {
	s.mu.Lock()
	s.inputDisabled = false
	s.mu.Unlock()
}
