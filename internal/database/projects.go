package database

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateProject inserts a new project
func CreateProject(db *gorm.DB, project *Project) error {
	return db.Create(project).Error
}

// GetProjectByID retrieves a project by ID
func GetProjectByID(db *gorm.DB, id uint) (*Project, error) {
	var project Project
	if err := db.First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// GetProjectIDsForTicket returns the IDs of all projects a ticket belongs to
func GetProjectIDsForTicket(db *gorm.DB, ticketID uint) ([]uint, error) {
	var ids []uint
	err := db.Model(&ProjectTicket{}).
		Where("ticket_id = ?", ticketID).
		Pluck("project_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// AddTicketToProject adds a ticket to a project. Already-present is a no-op.
func AddTicketToProject(db *gorm.DB, projectID, ticketID uint) error {
	if _, err := GetProjectByID(db, projectID); err != nil {
		return fmt.Errorf("project %d: %w", projectID, err)
	}
	if _, err := GetTicketByID(db, ticketID); err != nil {
		return fmt.Errorf("ticket %d: %w", ticketID, err)
	}

	membership := ProjectTicket{ProjectID: projectID, TicketID: ticketID}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&membership).Error
}

// RemoveTicketFromProject removes a ticket from a project. Absent is a no-op.
func RemoveTicketFromProject(db *gorm.DB, projectID, ticketID uint) error {
	return db.Where("project_id = ? AND ticket_id = ?", projectID, ticketID).
		Delete(&ProjectTicket{}).Error
}
