package handlers

import (
	"net/http"
	"testing"

	"github.com/livedesk/livedesk/internal/api"
	"github.com/livedesk/livedesk/internal/database"
	"github.com/livedesk/livedesk/internal/events"
	"github.com/livedesk/livedesk/internal/testhelpers"
)

func TestCreateCommentBroadcasts(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	broadcaster := &recordingBroadcaster{}
	mux := newTestMux(broadcaster)

	ticket := testhelpers.NewTicketBuilder().Create(t, db)

	ctx := testhelpers.NewHTTPTestContext(t, http.MethodPost, ticketPath(ticket.ID)+"/comments", nil).
		WithJSONBody(api.CreateCommentRequest{Content: "Rebooted the print server"})
	ctx.Request = ctx.Request.WithContext(
		contextWithUser(ctx.Request.Context(), "alice", "user-aaaa"))

	var resp api.Comment
	ctx.Execute(mux).
		AssertStatus(http.StatusCreated).
		DecodeJSON(&resp)

	if resp.ID == 0 || resp.UserUUID != "user-aaaa" || resp.Content != "Rebooted the print server" {
		t.Errorf("response = %+v", resp)
	}

	got := broadcaster.all()
	if len(got) != 1 {
		t.Fatalf("broadcast %d events, want 1", len(got))
	}
	ev, ok := got[0].(events.CommentAdded)
	if !ok || ev.TicketID != ticket.ID || ev.Comment.ID != resp.ID {
		t.Errorf("event = %#v", got[0])
	}

	comments, err := database.GetCommentsForTicket(db, ticket.ID)
	if err != nil || len(comments) != 1 {
		t.Errorf("comments = %v, err %v", comments, err)
	}
}

func TestCreateCommentValidation(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	broadcaster := &recordingBroadcaster{}
	mux := newTestMux(broadcaster)

	ticket := testhelpers.NewTicketBuilder().Create(t, db)

	testhelpers.NewHTTPTestContext(t, http.MethodPost, ticketPath(ticket.ID)+"/comments", nil).
		WithJSONBody(map[string]string{"content": ""}).
		Execute(mux).
		AssertStatus(http.StatusUnprocessableEntity)

	if len(broadcaster.all()) != 0 {
		t.Errorf("broadcast on validation failure")
	}
}

func TestCreateCommentMissingTicket(t *testing.T) {
	testhelpers.NewTestDB(t)
	mux := newTestMux(&recordingBroadcaster{})

	testhelpers.NewHTTPTestContext(t, http.MethodPost, "/api/tickets/999/comments", nil).
		WithJSONBody(api.CreateCommentRequest{Content: "into the void"}).
		Execute(mux).
		AssertStatus(http.StatusNotFound)
}

func TestDeleteCommentBroadcasts(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	broadcaster := &recordingBroadcaster{}
	mux := newTestMux(broadcaster)

	ticket := testhelpers.NewTicketBuilder().Create(t, db)
	comment := &database.Comment{TicketID: ticket.ID, UserUUID: "user-aaaa", Content: "stale"}
	if err := database.CreateComment(db, comment); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	path := ticketPath(ticket.ID) + "/comments/" + itoa(comment.ID)
	testhelpers.NewHTTPTestContext(t, http.MethodDelete, path, nil).
		Execute(mux).
		AssertStatus(http.StatusNoContent)

	comments, err := database.GetCommentsForTicket(db, ticket.ID)
	if err != nil || len(comments) != 0 {
		t.Errorf("comments = %v, err %v", comments, err)
	}

	got := broadcaster.all()
	if len(got) != 1 {
		t.Fatalf("broadcast %d events, want 1", len(got))
	}
	ev, ok := got[0].(events.CommentDeleted)
	if !ok || ev.TicketID != ticket.ID || ev.CommentID != comment.ID {
		t.Errorf("event = %#v", got[0])
	}
}

func TestDeleteCommentWrongTicket(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	broadcaster := &recordingBroadcaster{}
	mux := newTestMux(broadcaster)

	ticket := testhelpers.NewTicketBuilder().Create(t, db)
	other := testhelpers.NewTicketBuilder().Create(t, db)
	comment := &database.Comment{TicketID: ticket.ID, UserUUID: "user-aaaa", Content: "mine"}
	if err := database.CreateComment(db, comment); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	path := ticketPath(other.ID) + "/comments/" + itoa(comment.ID)
	testhelpers.NewHTTPTestContext(t, http.MethodDelete, path, nil).
		Execute(mux).
		AssertStatus(http.StatusNotFound)

	comments, err := database.GetCommentsForTicket(db, ticket.ID)
	if err != nil || len(comments) != 1 {
		t.Errorf("comment should survive, got %v, err %v", comments, err)
	}
	if len(broadcaster.all()) != 0 {
		t.Errorf("broadcast on rejected delete")
	}
}
