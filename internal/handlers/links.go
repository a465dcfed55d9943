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

// LinkHandler handles ticket-to-ticket link routes
type LinkHandler struct {
	broadcaster Broadcaster
}

// NewLinkHandler creates a new link handler
func NewLinkHandler(broadcaster Broadcaster) *LinkHandler {
	return &LinkHandler{broadcaster: broadcaster}
}

// SetupRoutes sets up link routes
func (h *LinkHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/tickets/{id}/links/{other}", h.handleLink)
	mux.HandleFunc("DELETE /api/tickets/{id}/links/{other}", h.handleUnlink)
}

// handleLink handles POST /api/tickets/{id}/links/{other}. Links are
// bidirectional; re-linking an existing pair succeeds without a second
// event.
func (h *LinkHandler) handleLink(w http.ResponseWriter, r *http.Request) {
	id, other, ok := linkPair(r)
	if !ok {
		api.RespondError(w, http.StatusBadRequest, "Invalid ticket ID")
		return
	}
	if id == other {
		api.RespondError(w, http.StatusBadRequest, "Cannot link a ticket to itself")
		return
	}

	if err := database.LinkTickets(database.GetDB(), id, other); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.RespondError(w, http.StatusNotFound, "Ticket not found")
			return
		}
		log.Printf("LinkHandler: Failed to link tickets %d and %d: %v", id, other, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to link tickets")
		return
	}

	h.broadcaster.Broadcast(events.TicketLinked{TicketID: id, LinkedTicketID: other})
	api.RespondNoContent(w)
}

// handleUnlink handles DELETE /api/tickets/{id}/links/{other}
func (h *LinkHandler) handleUnlink(w http.ResponseWriter, r *http.Request) {
	id, other, ok := linkPair(r)
	if !ok {
		api.RespondError(w, http.StatusBadRequest, "Invalid ticket ID")
		return
	}

	if err := database.UnlinkTickets(database.GetDB(), id, other); err != nil {
		log.Printf("LinkHandler: Failed to unlink tickets %d and %d: %v", id, other, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to unlink tickets")
		return
	}

	h.broadcaster.Broadcast(events.TicketUnlinked{TicketID: id, LinkedTicketID: other})
	api.RespondNoContent(w)
}

func linkPair(r *http.Request) (uint, uint, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		return 0, 0, false
	}
	other, ok := pathID(r, "other")
	if !ok {
		return 0, 0, false
	}
	return id, other, true
}
