package workspace

import (
	"context"
	"fmt"

	"github.com/livedesk/livedesk/internal/api"
)

// Optimistic actions: each applies its mutation to the aggregate first so
// the view updates immediately, then persists remotely, and rolls the
// mutation back if persistence fails. The remote call runs with the
// session mutex released, so stream events may be reconciled while it is
// in flight; the mutation registry's dedup makes the eventual echo a
// no-op.
//
// Every action returns nil without calling the API when the aggregate is
// already in the desired state.

// LinkTicket links another ticket to this one
func (s *Session) LinkTicket(ctx context.Context, otherID uint) error {
	s.mu.Lock()
	applied := s.ticket.AddLinkedTicket(otherID)
	s.mu.Unlock()
	if !applied {
		return nil
	}

	if err := s.api.LinkTickets(ctx, s.ticket.ID, otherID); err != nil {
		s.mu.Lock()
		s.ticket.RemoveLinkedTicket(otherID)
		s.mu.Unlock()
		return fmt.Errorf("link ticket %d: %w", otherID, err)
	}
	return nil
}

// UnlinkTicket removes a link to another ticket
func (s *Session) UnlinkTicket(ctx context.Context, otherID uint) error {
	s.mu.Lock()
	applied := s.ticket.RemoveLinkedTicket(otherID)
	s.mu.Unlock()
	if !applied {
		return nil
	}

	if err := s.api.UnlinkTickets(ctx, s.ticket.ID, otherID); err != nil {
		s.mu.Lock()
		s.ticket.AddLinkedTicket(otherID)
		s.mu.Unlock()
		return fmt.Errorf("unlink ticket %d: %w", otherID, err)
	}
	return nil
}

// AddDevice links a device to the ticket. The caller supplies the full
// device record (the view already has it from the device picker).
func (s *Session) AddDevice(ctx context.Context, device api.Device) error {
	s.mu.Lock()
	applied := s.ticket.AddDevice(device)
	s.mu.Unlock()
	if !applied {
		return nil
	}

	if err := s.api.AddDeviceToTicket(ctx, s.ticket.ID, device.ID); err != nil {
		s.mu.Lock()
		s.ticket.RemoveDevice(device.ID)
		s.mu.Unlock()
		return fmt.Errorf("add device %d: %w", device.ID, err)
	}
	return nil
}

// RemoveDevice unlinks a device from the ticket
func (s *Session) RemoveDevice(ctx context.Context, deviceID uint) error {
	s.mu.Lock()
	var removed api.Device
	applied := false
	for _, d := range s.ticket.Devices {
		if d.ID == deviceID {
			removed = d
			applied = s.ticket.RemoveDevice(deviceID)
			break
		}
	}
	s.mu.Unlock()
	if !applied {
		return nil
	}

	if err := s.api.RemoveDeviceFromTicket(ctx, s.ticket.ID, deviceID); err != nil {
		s.mu.Lock()
		s.ticket.AddDevice(removed)
		s.mu.Unlock()
		return fmt.Errorf("remove device %d: %w", deviceID, err)
	}
	return nil
}

// UpdateDeviceField updates one field of a linked device. The previous
// value is captured before the forward mutation so a failed persistence
// call restores exactly what was there.
func (s *Session) UpdateDeviceField(ctx context.Context, deviceID uint, field, value string) error {
	s.mu.Lock()
	previous, ok := s.ticket.DeviceField(deviceID, field)
	if !ok || previous == value {
		s.mu.Unlock()
		return nil
	}
	s.ticket.UpdateDeviceField(deviceID, field, value)
	s.mu.Unlock()

	if err := s.api.UpdateDevice(ctx, deviceID, map[string]string{field: value}); err != nil {
		s.mu.Lock()
		s.ticket.UpdateDeviceField(deviceID, field, previous)
		s.mu.Unlock()
		return fmt.Errorf("update device %d field %s: %w", deviceID, field, err)
	}
	return nil
}

// AddToProject adds the ticket to a project
func (s *Session) AddToProject(ctx context.Context, projectID uint) error {
	s.mu.Lock()
	applied := s.ticket.AddProject(projectID)
	s.mu.Unlock()
	if !applied {
		return nil
	}

	if err := s.api.AddTicketToProject(ctx, projectID, s.ticket.ID); err != nil {
		s.mu.Lock()
		s.ticket.RemoveProject(projectID)
		s.mu.Unlock()
		return fmt.Errorf("add to project %d: %w", projectID, err)
	}
	return nil
}

// RemoveFromProject removes the ticket from a project
func (s *Session) RemoveFromProject(ctx context.Context, projectID uint) error {
	s.mu.Lock()
	applied := s.ticket.RemoveProject(projectID)
	s.mu.Unlock()
	if !applied {
		return nil
	}

	if err := s.api.RemoveTicketFromProject(ctx, projectID, s.ticket.ID); err != nil {
		s.mu.Lock()
		s.ticket.AddProject(projectID)
		s.mu.Unlock()
		return fmt.Errorf("remove from project %d: %w", projectID, err)
	}
	return nil
}

// UpdateField updates a scalar ticket field. The view calls StartEditing
// and StopEditing around the edit; the tracker's grace window then absorbs
// the echo of this change when it comes back over the stream.
func (s *Session) UpdateField(ctx context.Context, field, value string) error {
	s.mu.Lock()
	previous, ok := s.ticket.Field(field)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("unknown ticket field: %s", field)
	}
	if previous == value {
		s.mu.Unlock()
		return nil
	}
	s.ticket.SetField(field, value)
	if field == FieldStatus {
		s.selectedStatus = value
	}
	if field == FieldPriority {
		s.selectedPriority = value
	}
	s.mu.Unlock()

	if err := s.api.UpdateTicketField(ctx, s.ticket.ID, field, value); err != nil {
		s.mu.Lock()
		s.ticket.SetField(field, previous)
		if field == FieldStatus {
			s.selectedStatus = previous
		}
		if field == FieldPriority {
			s.selectedPriority = previous
		}
		s.mu.Unlock()
		return fmt.Errorf("update field %s: %w", field, err)
	}
	return nil
}

// AddComment posts a comment and inserts the created record into the
// aggregate. The insert dedups against the stream echo: whichever of the
// two arrives second is a no-op.
func (s *Session) AddComment(ctx context.Context, content string) (api.Comment, error) {
	comment, err := s.api.CreateComment(ctx, s.ticket.ID, content)
	if err != nil {
		return api.Comment{}, fmt.Errorf("add comment: %w", err)
	}

	s.mu.Lock()
	s.ticket.AddComment(comment)
	s.mu.Unlock()
	return comment, nil
}
