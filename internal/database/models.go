package database

import (
	"time"
)

// Ticket status values
const (
	TicketStatusOpen       = "open"
	TicketStatusInProgress = "in-progress"
	TicketStatusClosed     = "closed"
)

// Ticket priority values
const (
	TicketPriorityLow    = "low"
	TicketPriorityMedium = "medium"
	TicketPriorityHigh   = "high"
)

// User represents a helpdesk user account
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	UUID         string `gorm:"uniqueIndex;not null" json:"uuid"`
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName  string `gorm:"type:varchar(255)" json:"display_name"`
	Email        string `gorm:"type:varchar(255)" json:"email"`
	PasswordHash string `gorm:"type:text" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ticket is the persisted helpdesk ticket record
type Ticket struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Title    string `gorm:"not null" json:"title"`
	Status   string `gorm:"default:open;index" json:"status"`
	Priority string `gorm:"default:medium" json:"priority"`

	// User UUIDs; empty string when unset
	RequesterUUID string `gorm:"index" json:"requester_uuid"`
	AssigneeUUID  string `gorm:"index" json:"assignee_uuid"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LinkedTicket links two tickets. Links are stored bidirectionally:
// linking A and B creates both the (A,B) and the (B,A) row.
type LinkedTicket struct {
	TicketID       uint `gorm:"primaryKey;autoIncrement:false" json:"ticket_id"`
	LinkedTicketID uint `gorm:"primaryKey;autoIncrement:false" json:"linked_ticket_id"`
}

// Project groups tickets
type Project struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectTicket is the project membership join table
type ProjectTicket struct {
	ProjectID uint `gorm:"primaryKey;autoIncrement:false" json:"project_id"`
	TicketID  uint `gorm:"primaryKey;autoIncrement:false" json:"ticket_id"`
}

// Device is a piece of hardware that can be linked to tickets
type Device struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"not null" json:"name"`
	Hostname  string `gorm:"type:varchar(255)" json:"hostname"`
	IPAddress string `gorm:"type:varchar(64)" json:"ip_address"`
	Model     string `gorm:"type:varchar(255)" json:"model"`
	Location  string `gorm:"type:varchar(255)" json:"location"`
	Notes     string `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TicketDevice is the ticket/device join table
type TicketDevice struct {
	TicketID uint `gorm:"primaryKey;autoIncrement:false" json:"ticket_id"`
	DeviceID uint `gorm:"primaryKey;autoIncrement:false" json:"device_id"`
}

// Comment is a ticket comment. Comments are listed newest-first.
type Comment struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	TicketID uint   `gorm:"index;not null" json:"ticket_id"`
	UserUUID string `gorm:"index" json:"user_uuid"`
	Content  string `gorm:"not null" json:"content"`

	CreatedAt time.Time `json:"created_at"`
}
