// Package session - per-stream mutable settings shared between the HTTP
// control surface and the frame pipeline.
package session

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrIndexRange is returned by SetBackground for an integer index outside
// [-1, background count).
var ErrIndexRange = errors.New("background index out of range")

// State holds the two settings the compositor reads on every frame: the
// selected background index (-1 means none) and the blur toggle.
//
// Control handlers write, the streaming loop reads. A single RWMutex keeps
// the pair consistent; the loop snapshots it once per frame, so a toggle
// landing mid-frame shows up one frame late at worst.
type State struct {
	mu      sync.RWMutex
	bgIndex int
	blur    bool
	count   int
}

// NewState creates a State for a collection of count backgrounds, starting
// at the defaults (no background, blur off).
func NewState(count int) *State {
	return &State{bgIndex: NoBackground, count: count}
}

// NoBackground is the index value meaning "show the camera feed".
const NoBackground = -1

// SetBackground selects background i. i must be NoBackground or a valid
// index into the background collection; anything else leaves the state
// unchanged and returns ErrIndexRange.
func (s *State) SetBackground(i int) error {
	if i != NoBackground && (i < 0 || i >= s.count) {
		return errors.Wrapf(ErrIndexRange, "index %d, have %d backgrounds", i, s.count)
	}
	s.mu.Lock()
	s.bgIndex = i
	s.mu.Unlock()
	return nil
}

// SetBlur sets the blur toggle. Always succeeds.
func (s *State) SetBlur(enabled bool) {
	s.mu.Lock()
	s.blur = enabled
	s.mu.Unlock()
}

// Reset returns both fields to their defaults. Entering the main page is a
// fresh session.
func (s *State) Reset() {
	s.mu.Lock()
	s.bgIndex = NoBackground
	s.blur = false
	s.mu.Unlock()
}

// Snapshot returns a consistent view of both fields. The pipeline calls
// this exactly once per frame.
func (s *State) Snapshot() (bgIndex int, blur bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bgIndex, s.blur
}

// BackgroundCount returns the size of the background collection this state
// validates against.
func (s *State) BackgroundCount() int {
	return s.count
}
