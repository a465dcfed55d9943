package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Updatable scalar ticket fields, keyed by their wire name.
var ticketFieldColumns = map[string]string{
	"title":     "title",
	"status":    "status",
	"priority":  "priority",
	"requester": "requester_uuid",
	"assignee":  "assignee_uuid",
}

// IsTicketField reports whether name is an updatable scalar ticket field.
func IsTicketField(name string) bool {
	_, ok := ticketFieldColumns[name]
	return ok
}

// CreateTicket inserts a new ticket
func CreateTicket(db *gorm.DB, ticket *Ticket) error {
	return db.Create(ticket).Error
}

// GetTicketByID retrieves a ticket by ID
func GetTicketByID(db *gorm.DB, id uint) (*Ticket, error) {
	var ticket Ticket
	if err := db.First(&ticket, id).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

// ListTickets returns tickets ordered by most recently updated
func ListTickets(db *gorm.DB, limit, offset int) ([]Ticket, int64, error) {
	var total int64
	if err := db.Model(&Ticket{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tickets []Ticket
	err := db.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&tickets).Error
	if err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

// UpdateTicketField updates a single scalar field on a ticket and bumps
// its updated_at timestamp. The field name must be one of the wire names
// accepted by IsTicketField.
func UpdateTicketField(db *gorm.DB, id uint, field, value string) error {
	column, ok := ticketFieldColumns[field]
	if !ok {
		return fmt.Errorf("unknown ticket field: %s", field)
	}

	result := db.Model(&Ticket{}).Where("id = ?", id).Updates(map[string]interface{}{
		column:       value,
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TouchTicket bumps a ticket's updated_at timestamp
func TouchTicket(db *gorm.DB, id uint) error {
	return db.Model(&Ticket{}).Where("id = ?", id).Update("updated_at", time.Now()).Error
}

// DeleteTicket removes a ticket along with its relationship rows
func DeleteTicket(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ticket_id = ? OR linked_ticket_id = ?", id, id).Delete(&LinkedTicket{}).Error; err != nil {
			return err
		}
		if err := tx.Where("ticket_id = ?", id).Delete(&ProjectTicket{}).Error; err != nil {
			return err
		}
		if err := tx.Where("ticket_id = ?", id).Delete(&TicketDevice{}).Error; err != nil {
			return err
		}
		if err := tx.Where("ticket_id = ?", id).Delete(&Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Ticket{}, id).Error
	})
}
