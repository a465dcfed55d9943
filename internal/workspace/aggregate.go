package workspace

import (
	"time"

	"github.com/livedesk/livedesk/internal/api"
)

// Scalar ticket field names as they appear in change events
const (
	FieldTitle     = "title"
	FieldStatus    = "status"
	FieldPriority  = "priority"
	FieldRequester = "requester"
	FieldAssignee  = "assignee"
	FieldUpdatedAt = "updated_at"
)

// Ticket is the in-memory aggregate a workspace operates on. It is shared
// by reference between the optimistic action path and the reconciliation
// path; its identity never changes for the lifetime of the workspace, only
// its fields and collection contents mutate in place.
//
// Every collection behaves as a set keyed by an identifier: the mutation
// methods report duplicates and absences as boolean no-ops, never as
// errors. None of the methods lock; callers serialize access (Session
// holds the mutex).
type Ticket struct {
	ID        uint
	Title     string
	Status    string
	Priority  string
	Requester string // user UUID, empty when unset
	Assignee  string // user UUID, empty when unset
	Modified  time.Time

	LinkedTickets []uint
	Projects      []uint
	Devices       []api.Device
	Comments      []api.Comment // newest first
}

// FromAPI builds a workspace aggregate from the persistence layer's full
// ticket response.
func FromAPI(t *api.TicketResponse) *Ticket {
	ticket := &Ticket{
		ID:            t.ID,
		Title:         t.Title,
		Status:        t.Status,
		Priority:      t.Priority,
		Requester:     t.Requester,
		Assignee:      t.Assignee,
		Modified:      t.UpdatedAt,
		LinkedTickets: append([]uint{}, t.LinkedTicketIDs...),
		Projects:      append([]uint{}, t.ProjectIDs...),
		Devices:       append([]api.Device{}, t.Devices...),
		Comments:      append([]api.Comment{}, t.Comments...),
	}
	return ticket
}

// SetField assigns a scalar field by its wire name. Returns false for an
// unknown field name or an unparseable updated_at value.
func (t *Ticket) SetField(field, value string) bool {
	switch field {
	case FieldTitle:
		t.Title = value
	case FieldStatus:
		t.Status = value
	case FieldPriority:
		t.Priority = value
	case FieldRequester:
		t.Requester = value
	case FieldAssignee:
		t.Assignee = value
	case FieldUpdatedAt:
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return false
		}
		t.Modified = parsed
	default:
		return false
	}
	return true
}

// Field reads a scalar field by its wire name
func (t *Ticket) Field(field string) (string, bool) {
	switch field {
	case FieldTitle:
		return t.Title, true
	case FieldStatus:
		return t.Status, true
	case FieldPriority:
		return t.Priority, true
	case FieldRequester:
		return t.Requester, true
	case FieldAssignee:
		return t.Assignee, true
	default:
		return "", false
	}
}

// ========== Linked tickets ==========

// HasLinkedTicket reports whether id is in the linked-ticket set
func (t *Ticket) HasLinkedTicket(id uint) bool {
	for _, existing := range t.LinkedTickets {
		if existing == id {
			return true
		}
	}
	return false
}

// AddLinkedTicket adds a link. Returns false if already present.
func (t *Ticket) AddLinkedTicket(id uint) bool {
	if t.HasLinkedTicket(id) {
		return false
	}
	t.LinkedTickets = append(t.LinkedTickets, id)
	return true
}

// RemoveLinkedTicket removes a link. Returns false if absent.
func (t *Ticket) RemoveLinkedTicket(id uint) bool {
	for i, existing := range t.LinkedTickets {
		if existing == id {
			t.LinkedTickets = append(t.LinkedTickets[:i], t.LinkedTickets[i+1:]...)
			return true
		}
	}
	return false
}

// ========== Projects ==========

// HasProject reports whether the ticket belongs to the project
func (t *Ticket) HasProject(id uint) bool {
	for _, existing := range t.Projects {
		if existing == id {
			return true
		}
	}
	return false
}

// AddProject adds a project membership. Returns false if already present.
func (t *Ticket) AddProject(id uint) bool {
	if t.HasProject(id) {
		return false
	}
	t.Projects = append(t.Projects, id)
	return true
}

// RemoveProject removes a project membership. Returns false if absent.
func (t *Ticket) RemoveProject(id uint) bool {
	for i, existing := range t.Projects {
		if existing == id {
			t.Projects = append(t.Projects[:i], t.Projects[i+1:]...)
			return true
		}
	}
	return false
}

// ========== Devices ==========

// HasDevice reports whether a device with the given ID is linked
func (t *Ticket) HasDevice(id uint) bool {
	for _, d := range t.Devices {
		if d.ID == id {
			return true
		}
	}
	return false
}

// AddDevice links a device. Returns false if a device with the same ID is
// already present.
func (t *Ticket) AddDevice(device api.Device) bool {
	if t.HasDevice(device.ID) {
		return false
	}
	t.Devices = append(t.Devices, device)
	return true
}

// RemoveDevice unlinks a device by ID. Returns false if absent.
func (t *Ticket) RemoveDevice(id uint) bool {
	for i, d := range t.Devices {
		if d.ID == id {
			t.Devices = append(t.Devices[:i], t.Devices[i+1:]...)
			return true
		}
	}
	return false
}

// DeviceField reads a field of a linked device by wire name. The second
// result is false when the device is absent or the field name is unknown.
func (t *Ticket) DeviceField(id uint, field string) (string, bool) {
	for i := range t.Devices {
		if t.Devices[i].ID == id {
			return readDeviceField(&t.Devices[i], field)
		}
	}
	return "", false
}

// UpdateDeviceField mutates a field of a linked device in place. Returns
// false when the device is absent or the field name is unknown.
func (t *Ticket) UpdateDeviceField(id uint, field, value string) bool {
	for i := range t.Devices {
		if t.Devices[i].ID == id {
			return writeDeviceField(&t.Devices[i], field, value)
		}
	}
	return false
}

func readDeviceField(d *api.Device, field string) (string, bool) {
	switch field {
	case "name":
		return d.Name, true
	case "hostname":
		return d.Hostname, true
	case "ip_address":
		return d.IPAddress, true
	case "model":
		return d.Model, true
	case "location":
		return d.Location, true
	case "notes":
		return d.Notes, true
	default:
		return "", false
	}
}

func writeDeviceField(d *api.Device, field, value string) bool {
	switch field {
	case "name":
		d.Name = value
	case "hostname":
		d.Hostname = value
	case "ip_address":
		d.IPAddress = value
	case "model":
		d.Model = value
	case "location":
		d.Location = value
	case "notes":
		d.Notes = value
	default:
		return false
	}
	return true
}

// ========== Comments ==========

// HasComment reports whether a comment with the given ID is present
func (t *Ticket) HasComment(id uint) bool {
	for _, c := range t.Comments {
		if c.ID == id {
			return true
		}
	}
	return false
}

// AddComment prepends a comment, keeping newest-first order. Returns false
// if a comment with the same ID is already present.
func (t *Ticket) AddComment(comment api.Comment) bool {
	if t.HasComment(comment.ID) {
		return false
	}
	t.Comments = append([]api.Comment{comment}, t.Comments...)
	return true
}

// RemoveComment removes a comment by ID. Returns false if absent.
func (t *Ticket) RemoveComment(id uint) bool {
	for i, c := range t.Comments {
		if c.ID == id {
			t.Comments = append(t.Comments[:i], t.Comments[i+1:]...)
			return true
		}
	}
	return false
}
