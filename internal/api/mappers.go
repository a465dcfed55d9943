package api

import "github.com/livedesk/livedesk/internal/database"

// TicketToListItem converts a database Ticket to its compact list representation.
func TicketToListItem(t database.Ticket) TicketListItem {
	return TicketListItem{
		ID:        t.ID,
		Title:     t.Title,
		Status:    t.Status,
		Priority:  t.Priority,
		Requester: t.RequesterUUID,
		Assignee:  t.AssigneeUUID,
		UpdatedAt: t.UpdatedAt,
	}
}

// TicketsToListItems converts a slice of database Tickets to list items.
func TicketsToListItems(tickets []database.Ticket) []TicketListItem {
	items := make([]TicketListItem, len(tickets))
	for i, t := range tickets {
		items[i] = TicketToListItem(t)
	}
	return items
}

// DeviceToWire converts a database Device to its wire representation.
func DeviceToWire(d database.Device) Device {
	return Device{
		ID:        d.ID,
		Name:      d.Name,
		Hostname:  d.Hostname,
		IPAddress: d.IPAddress,
		Model:     d.Model,
		Location:  d.Location,
		Notes:     d.Notes,
	}
}

// DevicesToWire converts a slice of database Devices.
func DevicesToWire(devices []database.Device) []Device {
	wire := make([]Device, len(devices))
	for i, d := range devices {
		wire[i] = DeviceToWire(d)
	}
	return wire
}

// CommentToWire converts a database Comment to its wire representation.
func CommentToWire(c database.Comment) Comment {
	return Comment{
		ID:        c.ID,
		TicketID:  c.TicketID,
		UserUUID:  c.UserUUID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}

// CommentsToWire converts a slice of database Comments.
func CommentsToWire(comments []database.Comment) []Comment {
	wire := make([]Comment, len(comments))
	for i, c := range comments {
		wire[i] = CommentToWire(c)
	}
	return wire
}

// BuildTicketResponse assembles the full aggregate response from its parts.
func BuildTicketResponse(t *database.Ticket, linked, projects []uint, devices []database.Device, comments []database.Comment) TicketResponse {
	if linked == nil {
		linked = []uint{}
	}
	if projects == nil {
		projects = []uint{}
	}
	return TicketResponse{
		ID:              t.ID,
		Title:           t.Title,
		Status:          t.Status,
		Priority:        t.Priority,
		Requester:       t.RequesterUUID,
		Assignee:        t.AssigneeUUID,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		LinkedTicketIDs: linked,
		ProjectIDs:      projects,
		Devices:         DevicesToWire(devices),
		Comments:        CommentsToWire(comments),
	}
}
