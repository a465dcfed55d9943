package workspace

import (
	"context"

	"github.com/livedesk/livedesk/internal/events"
)

// Stream is the slice of the push-event transport a workspace needs.
// AddListener returns a registration ID for later removal.
type Stream interface {
	AddListener(t events.Type, handler func(events.Event)) int
	RemoveListener(t events.Type, id int)
}

// Attach subscribes the session to every ticket event type on the stream.
// The returned teardown function removes all registrations; it is the
// only cleanup a closing view needs besides Session.Close.
func (s *Session) Attach(stream Stream) func() {
	type registration struct {
		eventType events.Type
		id        int
	}

	var regs []registration
	for _, t := range events.AllTypes() {
		id := stream.AddListener(t, s.Apply)
		regs = append(regs, registration{eventType: t, id: id})
	}

	return func() {
		for _, reg := range regs {
			stream.RemoveListener(reg.eventType, reg.id)
		}
	}
}

// Apply reconciles one stream event against the aggregate. Events are
// filtered in order: scope (is this our ticket), self-origin (did this
// session make the change), edit-lock (is the field under local edit or
// in its grace window); whatever survives is applied through the mutation
// registry or as a direct scalar write. Apply never returns an error —
// a dropped event is a normal outcome and a duplicate mutation is a
// defined no-op.
func (s *Session) Apply(ev events.Event) {
	switch e := ev.(type) {
	case events.TicketUpdated:
		s.applyFieldUpdate(e)
	case events.CommentAdded:
		s.applyCommentAdded(e)
	case events.CommentDeleted:
		s.applyCommentDeleted(e)
	case events.TicketLinked:
		if other, ok := s.otherTicket(e.TicketID, e.LinkedTicketID); ok {
			s.mu.Lock()
			s.ticket.AddLinkedTicket(other)
			s.mu.Unlock()
		}
	case events.TicketUnlinked:
		if other, ok := s.otherTicket(e.TicketID, e.LinkedTicketID); ok {
			s.mu.Lock()
			s.ticket.RemoveLinkedTicket(other)
			s.mu.Unlock()
		}
	case events.DeviceLinked:
		s.applyDeviceLinked(e)
	case events.DeviceUnlinked:
		if e.TicketID == s.ticket.ID {
			s.mu.Lock()
			s.ticket.RemoveDevice(e.DeviceID)
			s.mu.Unlock()
		}
	case events.DeviceUpdated:
		if e.TicketID == s.ticket.ID {
			s.mu.Lock()
			s.ticket.UpdateDeviceField(e.DeviceID, e.Field, e.Value)
			s.mu.Unlock()
		}
	case events.ProjectAssigned:
		if e.TicketID == s.ticket.ID {
			s.mu.Lock()
			s.ticket.AddProject(e.ProjectID)
			s.mu.Unlock()
		}
	case events.ProjectUnassigned:
		if e.TicketID == s.ticket.ID {
			s.mu.Lock()
			s.ticket.RemoveProject(e.ProjectID)
			s.mu.Unlock()
		}
	case events.ViewersChanged:
		// Ephemeral; bypasses the self-origin and edit-lock filters
		if e.TicketID == s.ticket.ID {
			s.mu.Lock()
			s.viewers = e.Count
			s.mu.Unlock()
		}
	case events.Heartbeat:
		// Transport keepalive, nothing to merge
	default:
		s.logger.Printf("Dropping event of unknown kind %T", ev)
	}
}

// applyFieldUpdate handles scalar ticket updates, the only event category
// subject to the self-origin and edit-lock filters.
func (s *Session) applyFieldUpdate(e events.TicketUpdated) {
	if e.TicketID != s.ticket.ID {
		return
	}
	if e.UpdatedBy == s.identity() {
		// Self-echo: the optimistic path already applied this change
		return
	}
	if s.tracker.IsSuppressed(e.Field) {
		s.logger.Printf("Suppressing remote update for field %s of ticket %d (local edit in progress)", e.Field, e.TicketID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ticket.SetField(e.Field, e.Value) {
		s.logger.Printf("Dropping update for unknown ticket field %q", e.Field)
		return
	}
	switch e.Field {
	case FieldStatus:
		s.selectedStatus = e.Value
	case FieldPriority:
		s.selectedPriority = e.Value
	}
}

func (s *Session) applyCommentAdded(e events.CommentAdded) {
	if e.TicketID != s.ticket.ID {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// False means the local optimistic insert already happened
	if s.ticket.AddComment(e.Comment) {
		s.markRecentComment(e.Comment.ID)
	}
}

func (s *Session) applyCommentDeleted(e events.CommentDeleted) {
	if e.TicketID != s.ticket.ID {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticket.RemoveComment(e.CommentID)
}

// applyDeviceLinked fetches the device record before adding it, so the
// aggregate carries full device details, not just an ID. The fetch runs
// without the session mutex; membership is re-checked before the add.
func (s *Session) applyDeviceLinked(e events.DeviceLinked) {
	if e.TicketID != s.ticket.ID {
		return
	}

	s.mu.Lock()
	present := s.ticket.HasDevice(e.DeviceID)
	s.mu.Unlock()
	if present {
		return
	}

	device, err := s.api.GetDeviceByID(context.Background(), e.DeviceID)
	if err != nil {
		// Dropped; the device shows up on the next full reload
		s.logger.Printf("Failed to fetch linked device %d: %v", e.DeviceID, err)
		return
	}

	s.mu.Lock()
	s.ticket.AddDevice(device)
	s.mu.Unlock()
}

// otherTicket resolves which side of a link pair refers to the open
// ticket and returns the other side. ok is false when neither side
// matches (the event is for some other ticket).
func (s *Session) otherTicket(ticketID, linkedID uint) (uint, bool) {
	switch s.ticket.ID {
	case ticketID:
		return linkedID, true
	case linkedID:
		return ticketID, true
	default:
		return 0, false
	}
}
