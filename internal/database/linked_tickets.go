package database

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetLinkedTicketIDs returns the IDs of all tickets linked to the given ticket
func GetLinkedTicketIDs(db *gorm.DB, ticketID uint) ([]uint, error) {
	var ids []uint
	err := db.Model(&LinkedTicket{}).
		Where("ticket_id = ?", ticketID).
		Pluck("linked_ticket_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// LinkTickets creates a bidirectional link between two tickets.
// Linking an already-linked pair is a no-op.
func LinkTickets(db *gorm.DB, ticketID, otherID uint) error {
	if ticketID == otherID {
		return fmt.Errorf("cannot link ticket %d to itself", ticketID)
	}

	// Both tickets must exist
	if _, err := GetTicketByID(db, ticketID); err != nil {
		return fmt.Errorf("ticket %d: %w", ticketID, err)
	}
	if _, err := GetTicketByID(db, otherID); err != nil {
		return fmt.Errorf("ticket %d: %w", otherID, err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		links := []LinkedTicket{
			{TicketID: ticketID, LinkedTicketID: otherID},
			{TicketID: otherID, LinkedTicketID: ticketID},
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
	})
}

// UnlinkTickets removes the bidirectional link between two tickets.
// Unlinking an unlinked pair is a no-op.
func UnlinkTickets(db *gorm.DB, ticketID, otherID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ticket_id = ? AND linked_ticket_id = ?", ticketID, otherID).
			Delete(&LinkedTicket{}).Error; err != nil {
			return err
		}
		return tx.Where("ticket_id = ? AND linked_ticket_id = ?", otherID, ticketID).
			Delete(&LinkedTicket{}).Error
	})
}
