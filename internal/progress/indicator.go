// Package progress tracks the keyed progress indicators shown by the shell.
package progress

import (
	"errors"
	"time"
)

var (
	// ErrEmptyID is returned when an indicator has no id.
	ErrEmptyID = errors.New("progress: indicator id is empty")
	// ErrDuplicateID is returned when an indicator with the same id is active.
	ErrDuplicateID = errors.New("progress: indicator already active")
)

// Indicator is one active progress entry.
type Indicator struct {
	ID            string
	Message       string
	Indeterminate bool
	Started       time.Time
}

// Set is the ordered set of active indicators, keyed by id. Not safe for
// concurrent use; the shell only touches it from the update loop.
type Set struct {
	items []Indicator
	now   func() time.Time
}

// NewSet creates an empty indicator set.
func NewSet() *Set {
	return &Set{now: time.Now}
}

// Start adds ind. Empty or already active ids are rejected and the set is left
// unchanged.
func (s *Set) Start(ind Indicator) error {
	if ind.ID == "" {
		return ErrEmptyID
	}
	if s.index(ind.ID) >= 0 {
		return ErrDuplicateID
	}
	if ind.Started.IsZero() {
		ind.Started = s.now()
	}
	s.items = append(s.items, ind)
	return nil
}

// Stop removes the indicator with id. It reports whether one was removed.
func (s *Set) Stop(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true
}

// Clear removes every indicator and returns how many were active.
func (s *Set) Clear() int {
	n := len(s.items)
	s.items = nil
	return n
}

// Active reports whether id is active.
func (s *Set) Active(id string) bool {
	return s.index(id) >= 0
}

// Len returns the number of active indicators.
func (s *Set) Len() int {
	return len(s.items)
}

// List returns the active indicators in start order.
func (s *Set) List() []Indicator {
	out := make([]Indicator, len(s.items))
	copy(out, s.items)
	return out
}

// Latest returns the most recently started indicator.
func (s *Set) Latest() (Indicator, bool) {
	if len(s.items) == 0 {
		return Indicator{}, false
	}
	return s.items[len(s.items)-1], true
}

func (s *Set) index(id string) int {
	for i, it := range s.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
