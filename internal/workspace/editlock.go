package workspace

import (
	"sync"
	"time"
)

// Edit-session timing. A field actively suppresses remote updates for
// suppressWindow after editing stops; the stop marker itself is retained
// for retainWindow before cleanup so a borderline-late echo never races
// the janitor.
const (
	suppressWindow = time.Second
	retainWindow   = 2 * time.Second
)

// EditTracker is an advisory, per-field lock table that protects in-flight
// local edits from being overwritten by delayed remote echoes. Fields are
// suppressed while they are being edited and for a short grace window
// after editing stops.
type EditTracker struct {
	mu      sync.Mutex
	now     func() time.Time
	editing map[string]struct{}
	stopped map[string]time.Time
	timers  map[string]*time.Timer
}

// NewEditTracker creates an empty tracker
func NewEditTracker() *EditTracker {
	return &EditTracker{
		now:     time.Now,
		editing: make(map[string]struct{}),
		stopped: make(map[string]time.Time),
		timers:  make(map[string]*time.Timer),
	}
}

// StartEditing marks a field as under local edit. Remote updates for the
// field are suppressed until StopEditing plus the grace window.
func (e *EditTracker) StartEditing(field string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.editing[field] = struct{}{}
	// A restarted edit invalidates any pending stop marker
	delete(e.stopped, field)
	if timer, ok := e.timers[field]; ok {
		timer.Stop()
		delete(e.timers, field)
	}
}

// StopEditing ends a field's local edit and starts the grace window
func (e *EditTracker) StopEditing(field string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.editing, field)
	stoppedAt := e.now()
	e.stopped[field] = stoppedAt

	if timer, ok := e.timers[field]; ok {
		timer.Stop()
	}
	e.timers[field] = time.AfterFunc(retainWindow, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		// Only clean up our own marker; a newer stop resets the window
		if at, ok := e.stopped[field]; ok && at.Equal(stoppedAt) {
			delete(e.stopped, field)
			delete(e.timers, field)
		}
	})
}

// IsSuppressed reports whether a remote update for the field must be
// dropped: either the field is currently being edited, or editing stopped
// less than the grace window ago.
func (e *EditTracker) IsSuppressed(field string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.editing[field]; ok {
		return true
	}
	stoppedAt, ok := e.stopped[field]
	if !ok {
		return false
	}
	return e.now().Sub(stoppedAt) < suppressWindow
}

// Editing reports whether the field is currently under local edit
func (e *EditTracker) Editing(field string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.editing[field]
	return ok
}

// Close stops all pending cleanup timers
func (e *EditTracker) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for field, timer := range e.timers {
		timer.Stop()
		delete(e.timers, field)
	}
}
