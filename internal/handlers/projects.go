package handlers

import (
	"errors"
	"log"
	"net/http"

	"gorm.io/gorm"

	"github.com/livedesk/livedesk/internal/api"
	"github.com/livedesk/livedesk/internal/database"
	"github.com/livedesk/livedesk/internal/events"
)

// ProjectHandler handles project-ticket membership routes
type ProjectHandler struct {
	broadcaster Broadcaster
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(broadcaster Broadcaster) *ProjectHandler {
	return &ProjectHandler{broadcaster: broadcaster}
}

// SetupRoutes sets up project routes
func (h *ProjectHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/projects/{projectId}/tickets/{ticketId}", h.handleAssign)
	mux.HandleFunc("DELETE /api/projects/{projectId}/tickets/{ticketId}", h.handleUnassign)
}

// handleAssign handles POST /api/projects/{projectId}/tickets/{ticketId}
func (h *ProjectHandler) handleAssign(w http.ResponseWriter, r *http.Request) {
	projectID, ticketID, ok := projectPair(r)
	if !ok {
		api.RespondError(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	if err := database.AddTicketToProject(database.GetDB(), projectID, ticketID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.RespondError(w, http.StatusNotFound, "Project or ticket not found")
			return
		}
		log.Printf("ProjectHandler: Failed to add ticket %d to project %d: %v", ticketID, projectID, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to add ticket to project")
		return
	}

	h.broadcaster.Broadcast(events.ProjectAssigned{TicketID: ticketID, ProjectID: projectID})
	api.RespondNoContent(w)
}

// handleUnassign handles DELETE /api/projects/{projectId}/tickets/{ticketId}
func (h *ProjectHandler) handleUnassign(w http.ResponseWriter, r *http.Request) {
	projectID, ticketID, ok := projectPair(r)
	if !ok {
		api.RespondError(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	if err := database.RemoveTicketFromProject(database.GetDB(), projectID, ticketID); err != nil {
		log.Printf("ProjectHandler: Failed to remove ticket %d from project %d: %v", ticketID, projectID, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to remove ticket from project")
		return
	}

	h.broadcaster.Broadcast(events.ProjectUnassigned{TicketID: ticketID, ProjectID: projectID})
	api.RespondNoContent(w)
}

func projectPair(r *http.Request) (uint, uint, bool) {
	projectID, ok := pathID(r, "projectId")
	if !ok {
		return 0, 0, false
	}
	ticketID, ok := pathID(r, "ticketId")
	if !ok {
		return 0, 0, false
	}
	return projectID, ticketID, true
}
