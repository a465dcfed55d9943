package events

import (
	"encoding/json"
	"fmt"

	"github.com/livedesk/livedesk/internal/api"
)

// Type identifies a ticket event on the push stream
type Type string

const (
	TypeTicketUpdated     Type = "ticket.updated"
	TypeCommentAdded      Type = "comment.added"
	TypeCommentDeleted    Type = "comment.deleted"
	TypeTicketLinked      Type = "ticket.linked"
	TypeTicketUnlinked    Type = "ticket.unlinked"
	TypeDeviceLinked      Type = "device.linked"
	TypeDeviceUnlinked    Type = "device.unlinked"
	TypeDeviceUpdated     Type = "device.updated"
	TypeProjectAssigned   Type = "project.assigned"
	TypeProjectUnassigned Type = "project.unassigned"
	TypeViewersChanged    Type = "viewers.changed"
	TypeHeartbeat         Type = "heartbeat"
)

// AllTypes lists every event type a stream subscriber can register for.
func AllTypes() []Type {
	return []Type{
		TypeTicketUpdated,
		TypeCommentAdded,
		TypeCommentDeleted,
		TypeTicketLinked,
		TypeTicketUnlinked,
		TypeDeviceLinked,
		TypeDeviceUnlinked,
		TypeDeviceUpdated,
		TypeProjectAssigned,
		TypeProjectUnassigned,
		TypeViewersChanged,
		TypeHeartbeat,
	}
}

// Event is implemented by every concrete ticket event
type Event interface {
	EventType() Type
}

// TicketUpdated reports a scalar field change on a ticket
type TicketUpdated struct {
	TicketID  uint   `json:"ticket_id"`
	Field     string `json:"field"`
	Value     string `json:"value"`
	UpdatedBy string `json:"updated_by"`
}

func (TicketUpdated) EventType() Type { return TypeTicketUpdated }

// CommentAdded carries the full new comment
type CommentAdded struct {
	TicketID uint        `json:"ticket_id"`
	Comment  api.Comment `json:"comment"`
}

func (CommentAdded) EventType() Type { return TypeCommentAdded }

// CommentDeleted identifies a removed comment
type CommentDeleted struct {
	TicketID  uint `json:"ticket_id"`
	CommentID uint `json:"comment_id"`
}

func (CommentDeleted) EventType() Type { return TypeCommentDeleted }

// TicketLinked reports a new link between two tickets. Either side of the
// pair may be the ticket a client has open.
type TicketLinked struct {
	TicketID       uint `json:"ticket_id"`
	LinkedTicketID uint `json:"linked_ticket_id"`
}

func (TicketLinked) EventType() Type { return TypeTicketLinked }

// TicketUnlinked reports a removed link between two tickets
type TicketUnlinked struct {
	TicketID       uint `json:"ticket_id"`
	LinkedTicketID uint `json:"linked_ticket_id"`
}

func (TicketUnlinked) EventType() Type { return TypeTicketUnlinked }

// DeviceLinked reports a device attached to a ticket. It carries only the
// device ID; subscribers fetch the full record if they need it.
type DeviceLinked struct {
	TicketID uint `json:"ticket_id"`
	DeviceID uint `json:"device_id"`
}

func (DeviceLinked) EventType() Type { return TypeDeviceLinked }

// DeviceUnlinked reports a device detached from a ticket
type DeviceUnlinked struct {
	TicketID uint `json:"ticket_id"`
	DeviceID uint `json:"device_id"`
}

func (DeviceUnlinked) EventType() Type { return TypeDeviceUnlinked }

// DeviceUpdated reports a field change on a device linked to a ticket
type DeviceUpdated struct {
	TicketID uint   `json:"ticket_id"`
	DeviceID uint   `json:"device_id"`
	Field    string `json:"field"`
	Value    string `json:"value"`
}

func (DeviceUpdated) EventType() Type { return TypeDeviceUpdated }

// ProjectAssigned reports a ticket added to a project
type ProjectAssigned struct {
	TicketID  uint `json:"ticket_id"`
	ProjectID uint `json:"project_id"`
}

func (ProjectAssigned) EventType() Type { return TypeProjectAssigned }

// ProjectUnassigned reports a ticket removed from a project
type ProjectUnassigned struct {
	TicketID  uint `json:"ticket_id"`
	ProjectID uint `json:"project_id"`
}

func (ProjectUnassigned) EventType() Type { return TypeProjectUnassigned }

// ViewersChanged reports how many clients currently have a ticket open.
// Ephemeral; never merged into persisted ticket state.
type ViewersChanged struct {
	TicketID uint `json:"ticket_id"`
	Count    int  `json:"count"`
}

func (ViewersChanged) EventType() Type { return TypeViewersChanged }

// Heartbeat keeps the stream connection alive
type Heartbeat struct{}

func (Heartbeat) EventType() Type { return TypeHeartbeat }

// envelope is the wire framing around an event payload
type envelope struct {
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Marshal wraps an event in its wire envelope
func Marshal(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Type: ev.EventType(), Data: data})
}

// Decode parses a wire message into a concrete event. Payloads may arrive
// either nested under "data" or flat alongside "type"; both shapes are
// accepted.
func Decode(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed event frame: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("event frame missing type")
	}

	payload := []byte(env.Data)
	if len(payload) == 0 {
		payload = raw
	}

	switch env.Type {
	case TypeTicketUpdated:
		var ev TicketUpdated
		if err := unmarshalPayload(env.Type, payload, &ev); err != nil {
			return nil, err
		}
		if ev.TicketID == 0 || ev.Field == "" {
			return nil, fmt.Errorf("%s: missing ticket_id or field", env.Type)
		}
		return ev, nil

	case TypeCommentAdded:
		var ev CommentAdded
		if err := unmarshalPayload(env.Type, payload, &ev); err != nil {
			return nil, err
		}
		if ev.TicketID == 0 || ev.Comment.ID == 0 {
			return nil, fmt.Errorf("%s: missing ticket_id or comment", env.Type)
		}
		return ev, nil

	case TypeCommentDeleted:
		var ev CommentDeleted
		if err := unmarshalPayload(env.Type, payload, &ev); err != nil {
			return nil, err
		}
		if ev.TicketID == 0 || ev.CommentID == 0 {
			return nil, fmt.Errorf("%s: missing ticket_id or comment_id", env.Type)
		}
		return ev, nil

	case TypeTicketLinked:
		var ev TicketLinked
		if err := unmarshalPayload(env.Type, payload, &ev); err != nil {
			return nil, err
		}
		if ev.TicketID == 0 || ev.LinkedTicketID == 0 {
			return nil, fmt.Errorf("%s: missing ticket pair", env.Type)
		}
		return ev, nil

	case TypeTicketUnlinked:
		var ev TicketUnlinked
		if err := unmarshalPayload(env.Type, payload, &ev); err != nil {
			return nil, err
		}
		if ev.TicketID == 0 || ev.LinkedTicketID == 0 {
			return nil, fmt.Errorf("%s: missing ticket pair", env.Type)
		}
		return ev, nil

	case TypeDeviceLinked:
		var ev DeviceLinked
		if err := unmarshalPayload(env.Type, payload, &ev); err != nil {
			return nil, err
		}
		if ev.TicketID == 0 || ev.DeviceID == 0 {
			return nil, fmt.Errorf("%s: missing ticket_id or device_id", env.Type)
		}
		return ev, nil

	case TypeDeviceUnlinked:
		var ev DeviceUnlinked
		if err := unmarshalPayload(env.Type, payload, &ev); err != nil {
			return nil, err
		}
		if ev.TicketID == 0 || ev.DeviceID == 0 {
			return nil, fmt.Errorf("%s: missing ticket_id or device_id", env.Type)
		}
		return ev, nil

	case TypeDeviceUpdated:
		var ev DeviceUpdated
		if err := unmarshalPayload(env.Type, payload, &ev); err != nil {
			return nil, err
		}
		if ev.TicketID == 0 || ev.DeviceID == 0 || ev.Field == "" {
			return nil, fmt.Errorf("%s: missing ticket_id, device_id or field", env.Type)
		}
		return ev, nil

	case TypeProjectAssigned:
		var ev ProjectAssigned
		if err := unmarshalPayload(env.Type, payload, &ev); err != nil {
			return nil, err
		}
		if ev.TicketID == 0 || ev.ProjectID == 0 {
			return nil, fmt.Errorf("%s: missing ticket_id or project_id", env.Type)
		}
		return ev, nil

	case TypeProjectUnassigned:
		var ev ProjectUnassigned
		if err := unmarshalPayload(env.Type, payload, &ev); err != nil {
			return nil, err
		}
		if ev.TicketID == 0 || ev.ProjectID == 0 {
			return nil, fmt.Errorf("%s: missing ticket_id or project_id", env.Type)
		}
		return ev, nil

	case TypeViewersChanged:
		var ev ViewersChanged
		if err := unmarshalPayload(env.Type, payload, &ev); err != nil {
			return nil, err
		}
		if ev.TicketID == 0 {
			return nil, fmt.Errorf("%s: missing ticket_id", env.Type)
		}
		return ev, nil

	case TypeHeartbeat:
		return Heartbeat{}, nil

	default:
		return nil, fmt.Errorf("unknown event type: %s", env.Type)
	}
}

func unmarshalPayload(t Type, payload []byte, dst interface{}) error {
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("%s: malformed payload: %w", t, err)
	}
	return nil
}
