// Package-level data builders for tests
package testhelpers

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/livedesk/livedesk/internal/database"
)

// ========================================
// Ticket Builder
// ========================================

// TicketBuilder builds Ticket models for tests
type TicketBuilder struct {
	ticket database.Ticket
}

// NewTicketBuilder creates a builder with sensible defaults
func NewTicketBuilder() *TicketBuilder {
	return &TicketBuilder{
		ticket: database.Ticket{
			Title:    "Test ticket",
			Status:   database.TicketStatusOpen,
			Priority: database.TicketPriorityMedium,
		},
	}
}

// WithTitle sets the ticket title
func (b *TicketBuilder) WithTitle(title string) *TicketBuilder {
	b.ticket.Title = title
	return b
}

// WithStatus sets the ticket status
func (b *TicketBuilder) WithStatus(status string) *TicketBuilder {
	b.ticket.Status = status
	return b
}

// WithPriority sets the ticket priority
func (b *TicketBuilder) WithPriority(priority string) *TicketBuilder {
	b.ticket.Priority = priority
	return b
}

// WithRequester sets the requester UUID
func (b *TicketBuilder) WithRequester(userUUID string) *TicketBuilder {
	b.ticket.RequesterUUID = userUUID
	return b
}

// WithAssignee sets the assignee UUID
func (b *TicketBuilder) WithAssignee(userUUID string) *TicketBuilder {
	b.ticket.AssigneeUUID = userUUID
	return b
}

// Build returns the ticket without persisting it
func (b *TicketBuilder) Build() database.Ticket {
	return b.ticket
}

// Create persists the ticket and returns it
func (b *TicketBuilder) Create(t *testing.T, db *gorm.DB) *database.Ticket {
	t.Helper()
	ticket := b.ticket
	if err := database.CreateTicket(db, &ticket); err != nil {
		t.Fatalf("failed to create test ticket: %v", err)
	}
	return &ticket
}

// ========================================
// Device Builder
// ========================================

// DeviceBuilder builds Device models for tests
type DeviceBuilder struct {
	device database.Device
}

// NewDeviceBuilder creates a builder with sensible defaults
func NewDeviceBuilder() *DeviceBuilder {
	return &DeviceBuilder{
		device: database.Device{
			Name:     "test-device",
			Hostname: "test-device.local",
			Location: "1F",
		},
	}
}

// WithName sets the device name
func (b *DeviceBuilder) WithName(name string) *DeviceBuilder {
	b.device.Name = name
	return b
}

// WithHostname sets the device hostname
func (b *DeviceBuilder) WithHostname(hostname string) *DeviceBuilder {
	b.device.Hostname = hostname
	return b
}

// WithLocation sets the device location
func (b *DeviceBuilder) WithLocation(location string) *DeviceBuilder {
	b.device.Location = location
	return b
}

// Build returns the device without persisting it
func (b *DeviceBuilder) Build() database.Device {
	return b.device
}

// Create persists the device and returns it
func (b *DeviceBuilder) Create(t *testing.T, db *gorm.DB) *database.Device {
	t.Helper()
	device := b.device
	if err := database.CreateDevice(db, &device); err != nil {
		t.Fatalf("failed to create test device: %v", err)
	}
	return &device
}

// ========================================
// User Builder
// ========================================

// UserBuilder builds User models for tests
type UserBuilder struct {
	user database.User
}

// NewUserBuilder creates a builder with a random UUID
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		user: database.User{
			UUID:     uuid.NewString(),
			Username: "user-" + uuid.NewString()[:8],
		},
	}
}

// WithUsername sets the username
func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.user.Username = username
	return b
}

// WithUUID sets the user UUID
func (b *UserBuilder) WithUUID(userUUID string) *UserBuilder {
	b.user.UUID = userUUID
	return b
}

// WithPasswordHash sets the bcrypt password hash
func (b *UserBuilder) WithPasswordHash(hash string) *UserBuilder {
	b.user.PasswordHash = hash
	return b
}

// Build returns the user without persisting it
func (b *UserBuilder) Build() database.User {
	return b.user
}

// Create persists the user and returns it
func (b *UserBuilder) Create(t *testing.T, db *gorm.DB) *database.User {
	t.Helper()
	user := b.user
	if err := database.CreateUser(db, &user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return &user
}

// ========================================
// Project Builder
// ========================================

// ProjectBuilder builds Project models for tests
type ProjectBuilder struct {
	project database.Project
}

// NewProjectBuilder creates a builder with a default name
func NewProjectBuilder() *ProjectBuilder {
	return &ProjectBuilder{
		project: database.Project{Name: "Test project"},
	}
}

// WithName sets the project name
func (b *ProjectBuilder) WithName(name string) *ProjectBuilder {
	b.project.Name = name
	return b
}

// Build returns the project without persisting it
func (b *ProjectBuilder) Build() database.Project {
	return b.project
}

// Create persists the project and returns it
func (b *ProjectBuilder) Create(t *testing.T, db *gorm.DB) *database.Project {
	t.Helper()
	project := b.project
	if err := database.CreateProject(db, &project); err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}
	return &project
}
