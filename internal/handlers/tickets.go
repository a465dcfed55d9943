package handlers

import (
	"errors"
	"log"
	"net/http"

	"gorm.io/gorm"

	"github.com/livedesk/livedesk/internal/api"
	"github.com/livedesk/livedesk/internal/database"
	"github.com/livedesk/livedesk/internal/events"
	"github.com/livedesk/livedesk/internal/middleware"
)

// TicketHandler handles ticket CRUD and scalar field updates
type TicketHandler struct {
	broadcaster Broadcaster
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(broadcaster Broadcaster) *TicketHandler {
	return &TicketHandler{broadcaster: broadcaster}
}

// SetupRoutes sets up ticket routes
func (h *TicketHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/tickets", h.handleList)
	mux.HandleFunc("POST /api/tickets", h.handleCreate)
	mux.HandleFunc("GET /api/tickets/{id}", h.handleGet)
	mux.HandleFunc("PUT /api/tickets/{id}", h.handleUpdateField)
	mux.HandleFunc("DELETE /api/tickets/{id}", h.handleDelete)
}

// handleList handles GET /api/tickets
func (h *TicketHandler) handleList(w http.ResponseWriter, r *http.Request) {
	pagination := api.ParsePagination(r)

	tickets, total, err := database.ListTickets(database.GetDB(), pagination.PerPage, pagination.Offset())
	if err != nil {
		log.Printf("TicketHandler: Failed to list tickets: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to list tickets")
		return
	}

	api.RespondJSON(w, http.StatusOK, api.TicketListResponse{
		Tickets:    api.TicketsToListItems(tickets),
		Total:      total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: pagination.TotalPages(total),
	})
}

// handleCreate handles POST /api/tickets
func (h *TicketHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req api.CreateTicketRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if fieldErrors := api.Validate(req); fieldErrors != nil {
		api.RespondValidationError(w, fieldErrors)
		return
	}

	ticket := &database.Ticket{
		Title:         req.Title,
		Status:        database.TicketStatusOpen,
		Priority:      req.Priority,
		RequesterUUID: req.Requester,
	}
	if ticket.Priority == "" {
		ticket.Priority = database.TicketPriorityMedium
	}

	if err := database.CreateTicket(database.GetDB(), ticket); err != nil {
		log.Printf("TicketHandler: Failed to create ticket: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to create ticket")
		return
	}

	response, err := h.buildResponse(ticket)
	if err != nil {
		log.Printf("TicketHandler: Failed to load ticket %d relations: %v", ticket.ID, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to load ticket")
		return
	}
	api.RespondJSON(w, http.StatusCreated, response)
}

// handleGet handles GET /api/tickets/{id}. The response carries the full
// aggregate: scalars, linked ticket IDs, project IDs, devices and
// comments newest first.
func (h *TicketHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		api.RespondError(w, http.StatusBadRequest, "Invalid ticket ID")
		return
	}

	ticket, err := database.GetTicketByID(database.GetDB(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.RespondError(w, http.StatusNotFound, "Ticket not found")
			return
		}
		log.Printf("TicketHandler: Failed to get ticket %d: %v", id, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to get ticket")
		return
	}

	response, err := h.buildResponse(ticket)
	if err != nil {
		log.Printf("TicketHandler: Failed to load ticket %d relations: %v", id, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to load ticket")
		return
	}
	api.RespondJSON(w, http.StatusOK, response)
}

// handleUpdateField handles PUT /api/tickets/{id}. A successful update
// broadcasts a ticket.updated event carrying the field, new value, and
// the UUID of the user who made the change.
func (h *TicketHandler) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		api.RespondError(w, http.StatusBadRequest, "Invalid ticket ID")
		return
	}

	var req api.UpdateTicketFieldRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if fieldErrors := api.Validate(req); fieldErrors != nil {
		api.RespondValidationError(w, fieldErrors)
		return
	}

	if err := database.UpdateTicketField(database.GetDB(), id, req.Field, req.Value); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.RespondError(w, http.StatusNotFound, "Ticket not found")
			return
		}
		log.Printf("TicketHandler: Failed to update ticket %d: %v", id, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to update ticket")
		return
	}

	h.broadcaster.Broadcast(events.TicketUpdated{
		TicketID:  id,
		Field:     req.Field,
		Value:     req.Value,
		UpdatedBy: middleware.GetUserUUIDFromContext(r.Context()),
	})
	api.RespondNoContent(w)
}

// handleDelete handles DELETE /api/tickets/{id}
func (h *TicketHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		api.RespondError(w, http.StatusBadRequest, "Invalid ticket ID")
		return
	}

	if err := database.DeleteTicket(database.GetDB(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.RespondError(w, http.StatusNotFound, "Ticket not found")
			return
		}
		log.Printf("TicketHandler: Failed to delete ticket %d: %v", id, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to delete ticket")
		return
	}
	api.RespondNoContent(w)
}

// buildResponse assembles the full aggregate for one ticket
func (h *TicketHandler) buildResponse(ticket *database.Ticket) (api.TicketResponse, error) {
	db := database.GetDB()

	linked, err := database.GetLinkedTicketIDs(db, ticket.ID)
	if err != nil {
		return api.TicketResponse{}, err
	}
	projects, err := database.GetProjectIDsForTicket(db, ticket.ID)
	if err != nil {
		return api.TicketResponse{}, err
	}
	devices, err := database.GetDevicesForTicket(db, ticket.ID)
	if err != nil {
		return api.TicketResponse{}, err
	}
	comments, err := database.GetCommentsForTicket(db, ticket.ID)
	if err != nil {
		return api.TicketResponse{}, err
	}

	return api.BuildTicketResponse(ticket, linked, projects, devices, comments), nil
}
