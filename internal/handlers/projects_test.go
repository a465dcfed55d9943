package handlers

import (
	"net/http"
	"testing"

	"github.com/livedesk/livedesk/internal/database"
	"github.com/livedesk/livedesk/internal/events"
	"github.com/livedesk/livedesk/internal/testhelpers"
)

func TestAssignTicketToProject(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	broadcaster := &recordingBroadcaster{}
	mux := newTestMux(broadcaster)

	project := testhelpers.NewProjectBuilder().Create(t, db)
	ticket := testhelpers.NewTicketBuilder().Create(t, db)

	path := "/api/projects/" + itoa(project.ID) + "/tickets/" + itoa(ticket.ID)
	testhelpers.NewHTTPTestContext(t, http.MethodPost, path, nil).
		Execute(mux).
		AssertStatus(http.StatusNoContent)

	ids, err := database.GetProjectIDsForTicket(db, ticket.ID)
	if err != nil || len(ids) != 1 || ids[0] != project.ID {
		t.Errorf("projects = %v, err %v", ids, err)
	}

	got := broadcaster.all()
	if len(got) != 1 {
		t.Fatalf("broadcast %d events, want 1", len(got))
	}
	ev, ok := got[0].(events.ProjectAssigned)
	if !ok || ev.TicketID != ticket.ID || ev.ProjectID != project.ID {
		t.Errorf("event = %#v", got[0])
	}
}

func TestAssignMissingProject(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	mux := newTestMux(&recordingBroadcaster{})

	ticket := testhelpers.NewTicketBuilder().Create(t, db)

	path := "/api/projects/999/tickets/" + itoa(ticket.ID)
	testhelpers.NewHTTPTestContext(t, http.MethodPost, path, nil).
		Execute(mux).
		AssertStatus(http.StatusNotFound)
}

func TestUnassignTicketFromProject(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	broadcaster := &recordingBroadcaster{}
	mux := newTestMux(broadcaster)

	project := testhelpers.NewProjectBuilder().Create(t, db)
	ticket := testhelpers.NewTicketBuilder().Create(t, db)
	if err := database.AddTicketToProject(db, project.ID, ticket.ID); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	path := "/api/projects/" + itoa(project.ID) + "/tickets/" + itoa(ticket.ID)
	testhelpers.NewHTTPTestContext(t, http.MethodDelete, path, nil).
		Execute(mux).
		AssertStatus(http.StatusNoContent)

	ids, err := database.GetProjectIDsForTicket(db, ticket.ID)
	if err != nil || len(ids) != 0 {
		t.Errorf("projects = %v, err %v", ids, err)
	}
	if _, ok := broadcaster.all()[0].(events.ProjectUnassigned); !ok {
		t.Errorf("event = %#v", broadcaster.all()[0])
	}
}
