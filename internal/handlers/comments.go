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

// CommentHandler handles ticket comment routes
type CommentHandler struct {
	broadcaster Broadcaster
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(broadcaster Broadcaster) *CommentHandler {
	return &CommentHandler{broadcaster: broadcaster}
}

// SetupRoutes sets up comment routes
func (h *CommentHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/tickets/{id}/comments", h.handleCreate)
	mux.HandleFunc("DELETE /api/tickets/{id}/comments/{commentId}", h.handleDelete)
}

// handleCreate handles POST /api/tickets/{id}/comments. The created
// record is returned to the author and broadcast to everyone else, so
// the author's client can dedup its own echo by comment ID.
func (h *CommentHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ticketID, ok := pathID(r, "id")
	if !ok {
		api.RespondError(w, http.StatusBadRequest, "Invalid ticket ID")
		return
	}

	var req api.CreateCommentRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if fieldErrors := api.Validate(req); fieldErrors != nil {
		api.RespondValidationError(w, fieldErrors)
		return
	}

	db := database.GetDB()
	if _, err := database.GetTicketByID(db, ticketID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.RespondError(w, http.StatusNotFound, "Ticket not found")
			return
		}
		log.Printf("CommentHandler: Failed to get ticket %d: %v", ticketID, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to get ticket")
		return
	}

	comment := &database.Comment{
		TicketID: ticketID,
		UserUUID: middleware.GetUserUUIDFromContext(r.Context()),
		Content:  req.Content,
	}
	if err := database.CreateComment(db, comment); err != nil {
		log.Printf("CommentHandler: Failed to create comment on ticket %d: %v", ticketID, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to create comment")
		return
	}

	wire := api.CommentToWire(*comment)
	h.broadcaster.Broadcast(events.CommentAdded{TicketID: ticketID, Comment: wire})
	api.RespondJSON(w, http.StatusCreated, wire)
}

// handleDelete handles DELETE /api/tickets/{id}/comments/{commentId}
func (h *CommentHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ticketID, ok := pathID(r, "id")
	if !ok {
		api.RespondError(w, http.StatusBadRequest, "Invalid ticket ID")
		return
	}
	commentID, ok := pathID(r, "commentId")
	if !ok {
		api.RespondError(w, http.StatusBadRequest, "Invalid comment ID")
		return
	}

	db := database.GetDB()
	comment, err := database.GetCommentByID(db, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.RespondError(w, http.StatusNotFound, "Comment not found")
			return
		}
		log.Printf("CommentHandler: Failed to get comment %d: %v", commentID, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to get comment")
		return
	}
	if comment.TicketID != ticketID {
		api.RespondError(w, http.StatusNotFound, "Comment not found on this ticket")
		return
	}

	if err := database.DeleteComment(db, commentID); err != nil {
		log.Printf("CommentHandler: Failed to delete comment %d: %v", commentID, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to delete comment")
		return
	}

	h.broadcaster.Broadcast(events.CommentDeleted{TicketID: ticketID, CommentID: commentID})
	api.RespondNoContent(w)
}
