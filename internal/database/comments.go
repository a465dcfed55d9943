package database

import (
	"gorm.io/gorm"
)

// CreateComment inserts a comment and bumps the parent ticket's
// updated_at timestamp.
func CreateComment(db *gorm.DB, comment *Comment) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return TouchTicket(tx, comment.TicketID)
	})
}

// GetCommentByID retrieves a comment by ID
func GetCommentByID(db *gorm.DB, id uint) (*Comment, error) {
	var comment Comment
	if err := db.First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// GetCommentsForTicket returns a ticket's comments, newest first
func GetCommentsForTicket(db *gorm.DB, ticketID uint) ([]Comment, error) {
	var comments []Comment
	err := db.Where("ticket_id = ?", ticketID).
		Order("created_at DESC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// DeleteComment removes a comment by ID. Absent comments are a no-op.
func DeleteComment(db *gorm.DB, id uint) error {
	return db.Delete(&Comment{}, id).Error
}
