package api

import (
	"time"
)

// ========== Auth Types ==========

// LoginRequest is the request body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the response body for POST /auth/login.
type LoginResponse struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	UserUUID  string `json:"user_uuid"`
	ExpiresIn int    `json:"expires_in"` // seconds
}

// ========== Ticket Types ==========

// CreateTicketRequest is the request body for POST /api/tickets.
type CreateTicketRequest struct {
	Title     string `json:"title" validate:"required,min=1,max=255"`
	Priority  string `json:"priority" validate:"omitempty,oneof=low medium high"`
	Requester string `json:"requester" validate:"omitempty,max=64"`
}

// UpdateTicketFieldRequest is the request body for PUT /api/tickets/:id.
// It updates a single scalar field; the change event carries the field
// name and new value so clients can merge it selectively.
type UpdateTicketFieldRequest struct {
	Field string `json:"field" validate:"required,oneof=title status priority requester assignee"`
	Value string `json:"value"`
}

// TicketListItem is the compact ticket representation for list endpoints.
type TicketListItem struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Priority  string    `json:"priority"`
	Requester string    `json:"requester"`
	Assignee  string    `json:"assignee"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TicketResponse is the full ticket aggregate returned by GET /api/tickets/:id.
type TicketResponse struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Priority  string    `json:"priority"`
	Requester string    `json:"requester"`
	Assignee  string    `json:"assignee"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	LinkedTicketIDs []uint    `json:"linked_ticket_ids"`
	ProjectIDs      []uint    `json:"project_ids"`
	Devices         []Device  `json:"devices"`
	Comments        []Comment `json:"comments"` // newest first
}

// TicketListResponse is the paginated response for GET /api/tickets.
type TicketListResponse struct {
	Tickets    []TicketListItem `json:"tickets"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PerPage    int              `json:"per_page"`
	TotalPages int              `json:"total_pages"`
}

// ========== Device Types ==========

// Device is the wire representation of a device.
type Device struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Hostname  string `json:"hostname"`
	IPAddress string `json:"ip_address"`
	Model     string `json:"model"`
	Location  string `json:"location"`
	Notes     string `json:"notes"`
}

// UpdateDeviceRequest is the request body for PUT /api/devices/:id.
// Keys are wire field names; unknown fields are rejected.
type UpdateDeviceRequest struct {
	Fields map[string]string `json:"fields" validate:"required,min=1"`
}

// ========== Comment Types ==========

// Comment is the wire representation of a ticket comment.
type Comment struct {
	ID        uint      `json:"id"`
	TicketID  uint      `json:"ticket_id"`
	UserUUID  string    `json:"user_uuid"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCommentRequest is the request body for POST /api/tickets/:id/comments.
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1"`
}
