package workspace

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/livedesk/livedesk/internal/api"
)

// Highlight duration for comments that arrived over the stream
const commentHighlightWindow = 3 * time.Second

// API is the slice of the persistence layer a workspace needs. The REST
// client in internal/client implements it.
type API interface {
	LinkTickets(ctx context.Context, ticketID, otherID uint) error
	UnlinkTickets(ctx context.Context, ticketID, otherID uint) error
	AddDeviceToTicket(ctx context.Context, ticketID, deviceID uint) error
	RemoveDeviceFromTicket(ctx context.Context, ticketID, deviceID uint) error
	UpdateDevice(ctx context.Context, deviceID uint, fields map[string]string) error
	AddTicketToProject(ctx context.Context, projectID, ticketID uint) error
	RemoveTicketFromProject(ctx context.Context, projectID, ticketID uint) error
	UpdateTicketField(ctx context.Context, ticketID uint, field, value string) error
	GetDeviceByID(ctx context.Context, deviceID uint) (api.Device, error)
	CreateComment(ctx context.Context, ticketID uint, content string) (api.Comment, error)
}

// Session owns one open ticket's aggregate for the lifetime of a view. It
// serializes every mutation entry point — optimistic user actions and
// reconciled stream events — on a single mutex, and tracks the view-local
// state that never persists: edit locks, viewer count, comment highlights
// and the denormalized status/priority selections.
type Session struct {
	mu      sync.Mutex
	ticket  *Ticket
	tracker *EditTracker
	api     API

	// identity returns the local user's UUID; events reporting changes
	// made by this identity are self-echoes and are never re-applied.
	identity func() string
	logger   *log.Logger
	now      func() time.Time

	viewers          int
	selectedStatus   string
	selectedPriority string
	recentComments   map[uint]time.Time
	highlightTimers  map[uint]*time.Timer
}

// NewSession wraps an aggregate for a freshly opened ticket view
func NewSession(ticket *Ticket, persistence API, identity func() string, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	return &Session{
		ticket:           ticket,
		tracker:          NewEditTracker(),
		api:              persistence,
		identity:         identity,
		logger:           logger,
		now:              time.Now,
		selectedStatus:   ticket.Status,
		selectedPriority: ticket.Priority,
		recentComments:   make(map[uint]time.Time),
		highlightTimers:  make(map[uint]*time.Timer),
	}
}

// Ticket returns the shared aggregate. Callers must treat it as read-only
// outside the session's own methods.
func (s *Session) Ticket() *Ticket {
	return s.ticket
}

// StartEditing marks a scalar field as under local edit
func (s *Session) StartEditing(field string) {
	s.tracker.StartEditing(field)
}

// StopEditing ends a scalar field's local edit session
func (s *Session) StopEditing(field string) {
	s.tracker.StopEditing(field)
}

// Viewers returns the last broadcast viewer count for this ticket
func (s *Session) Viewers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewers
}

// Selected returns the denormalized status and priority selection state
// the view maintains alongside the aggregate.
func (s *Session) Selected() (status, priority string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedStatus, s.selectedPriority
}

// IsRecentComment reports whether a comment arrived over the stream within
// the highlight window.
func (s *Session) IsRecentComment(id uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	addedAt, ok := s.recentComments[id]
	if !ok {
		return false
	}
	return s.now().Sub(addedAt) < commentHighlightWindow
}

// markRecentComment records a highlight and schedules its expiry.
// Caller holds s.mu.
func (s *Session) markRecentComment(id uint) {
	s.recentComments[id] = s.now()
	if timer, ok := s.highlightTimers[id]; ok {
		timer.Stop()
	}
	s.highlightTimers[id] = time.AfterFunc(commentHighlightWindow, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.recentComments, id)
		delete(s.highlightTimers, id)
	})
}

// Close releases the session's timers. The aggregate itself is simply
// discarded; outstanding optimistic calls finish in the background and
// their compensation, if any, lands on the discarded aggregate.
func (s *Session) Close() {
	s.tracker.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, timer := range s.highlightTimers {
		timer.Stop()
		delete(s.highlightTimers, id)
	}
}
