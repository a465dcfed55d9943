package workspace

import (
	"context"
	"errors"
	"fmt"
	"log"
	"reflect"
	"testing"
	"time"

	"github.com/livedesk/livedesk/internal/api"
)

// fakeAPI records calls and returns injected errors. The zero value
// succeeds on everything.
type fakeAPI struct {
	calls []string

	linkErr          error
	unlinkErr        error
	addDeviceErr     error
	removeDeviceErr  error
	updateDeviceErr  error
	addProjectErr    error
	removeProjectErr error
	updateFieldErr   error

	devices     map[uint]api.Device
	getErr      error
	commentErr  error
	nextComment api.Comment
}

func (f *fakeAPI) record(format string, args ...interface{}) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeAPI) LinkTickets(_ context.Context, ticketID, otherID uint) error {
	f.record("link %d %d", ticketID, otherID)
	return f.linkErr
}

func (f *fakeAPI) UnlinkTickets(_ context.Context, ticketID, otherID uint) error {
	f.record("unlink %d %d", ticketID, otherID)
	return f.unlinkErr
}

func (f *fakeAPI) AddDeviceToTicket(_ context.Context, ticketID, deviceID uint) error {
	f.record("add-device %d %d", ticketID, deviceID)
	return f.addDeviceErr
}

func (f *fakeAPI) RemoveDeviceFromTicket(_ context.Context, ticketID, deviceID uint) error {
	f.record("remove-device %d %d", ticketID, deviceID)
	return f.removeDeviceErr
}

func (f *fakeAPI) UpdateDevice(_ context.Context, deviceID uint, fields map[string]string) error {
	f.record("update-device %d %v", deviceID, fields)
	return f.updateDeviceErr
}

func (f *fakeAPI) AddTicketToProject(_ context.Context, projectID, ticketID uint) error {
	f.record("add-project %d %d", projectID, ticketID)
	return f.addProjectErr
}

func (f *fakeAPI) RemoveTicketFromProject(_ context.Context, projectID, ticketID uint) error {
	f.record("remove-project %d %d", projectID, ticketID)
	return f.removeProjectErr
}

func (f *fakeAPI) UpdateTicketField(_ context.Context, ticketID uint, field, value string) error {
	f.record("update-field %d %s=%s", ticketID, field, value)
	return f.updateFieldErr
}

func (f *fakeAPI) GetDeviceByID(_ context.Context, deviceID uint) (api.Device, error) {
	f.record("get-device %d", deviceID)
	if f.getErr != nil {
		return api.Device{}, f.getErr
	}
	return f.devices[deviceID], nil
}

func (f *fakeAPI) CreateComment(_ context.Context, ticketID uint, content string) (api.Comment, error) {
	f.record("create-comment %d %s", ticketID, content)
	if f.commentErr != nil {
		return api.Comment{}, f.commentErr
	}
	return f.nextComment, nil
}

const testUserUUID = "user-aaaa"

func testTicket() *Ticket {
	return &Ticket{
		ID:            1,
		Title:         "Printer on fire",
		Status:        "open",
		Priority:      "medium",
		Requester:     "user-bbbb",
		LinkedTickets: []uint{2},
		Projects:      []uint{10},
		Devices: []api.Device{
			{ID: 100, Name: "printer-3f", Hostname: "prn-3f", Location: "3F"},
		},
		Comments: []api.Comment{
			{ID: 500, TicketID: 1, UserUUID: "user-bbbb", Content: "it is smoking", CreatedAt: time.Now()},
		},
	}
}

func newTestSession(t *testing.T, remote *fakeAPI) *Session {
	t.Helper()
	s := NewSession(testTicket(), remote, func() string { return testUserUUID }, log.New(testWriter{t}, "", 0))
	t.Cleanup(s.Close)
	return s
}

// testWriter routes session logs through the test log
type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

var errRemote = errors.New("remote unavailable")

func TestLinkTicketOptimistic(t *testing.T) {
	remote := &fakeAPI{}
	s := newTestSession(t, remote)

	if err := s.LinkTicket(context.Background(), 3); err != nil {
		t.Fatalf("LinkTicket failed: %v", err)
	}
	if !s.Ticket().HasLinkedTicket(3) {
		t.Error("expected link to 3 after successful call")
	}
	if len(remote.calls) != 1 || remote.calls[0] != "link 1 3" {
		t.Errorf("unexpected calls: %v", remote.calls)
	}
}

func TestLinkTicketAlreadyLinkedSkipsRemote(t *testing.T) {
	remote := &fakeAPI{}
	s := newTestSession(t, remote)

	if err := s.LinkTicket(context.Background(), 2); err != nil {
		t.Fatalf("LinkTicket failed: %v", err)
	}
	if len(remote.calls) != 0 {
		t.Errorf("expected no remote call for an existing link, got %v", remote.calls)
	}
}

func TestLinkTicketRollsBackOnFailure(t *testing.T) {
	remote := &fakeAPI{linkErr: errRemote}
	s := newTestSession(t, remote)

	err := s.LinkTicket(context.Background(), 3)
	if !errors.Is(err, errRemote) {
		t.Fatalf("expected wrapped remote error, got %v", err)
	}
	if s.Ticket().HasLinkedTicket(3) {
		t.Error("link should be rolled back after remote failure")
	}
	if !s.Ticket().HasLinkedTicket(2) {
		t.Error("pre-existing link must survive the rollback")
	}
}

func TestUnlinkTicketRollsBackOnFailure(t *testing.T) {
	remote := &fakeAPI{unlinkErr: errRemote}
	s := newTestSession(t, remote)

	if err := s.UnlinkTicket(context.Background(), 2); err == nil {
		t.Fatal("expected error")
	}
	if !s.Ticket().HasLinkedTicket(2) {
		t.Error("link should be restored after remote failure")
	}
}

func TestAddDeviceOptimistic(t *testing.T) {
	remote := &fakeAPI{}
	s := newTestSession(t, remote)
	device := api.Device{ID: 101, Name: "switch-b2", Hostname: "sw-b2"}

	if err := s.AddDevice(context.Background(), device); err != nil {
		t.Fatalf("AddDevice failed: %v", err)
	}
	if !s.Ticket().HasDevice(101) {
		t.Error("device not added")
	}

	// Adding it again is a no-op
	if err := s.AddDevice(context.Background(), device); err != nil {
		t.Fatalf("duplicate AddDevice failed: %v", err)
	}
	if got := len(s.Ticket().Devices); got != 2 {
		t.Errorf("expected 2 devices, got %d", got)
	}
	if len(remote.calls) != 1 {
		t.Errorf("duplicate add must not hit the API, calls: %v", remote.calls)
	}
}

func TestRemoveDeviceRestoresFullRecordOnFailure(t *testing.T) {
	remote := &fakeAPI{removeDeviceErr: errRemote}
	s := newTestSession(t, remote)
	before := append([]api.Device{}, s.Ticket().Devices...)

	if err := s.RemoveDevice(context.Background(), 100); err == nil {
		t.Fatal("expected error")
	}
	if !reflect.DeepEqual(s.Ticket().Devices, before) {
		t.Errorf("device list not restored: got %+v want %+v", s.Ticket().Devices, before)
	}
}

func TestUpdateDeviceFieldRollback(t *testing.T) {
	remote := &fakeAPI{updateDeviceErr: errRemote}
	s := newTestSession(t, remote)

	if err := s.UpdateDeviceField(context.Background(), 100, "location", "4F"); err == nil {
		t.Fatal("expected error")
	}
	got, _ := s.Ticket().DeviceField(100, "location")
	if got != "3F" {
		t.Errorf("location = %q, want rollback to 3F", got)
	}
}

func TestUpdateDeviceFieldNoChangeSkipsRemote(t *testing.T) {
	remote := &fakeAPI{}
	s := newTestSession(t, remote)

	if err := s.UpdateDeviceField(context.Background(), 100, "location", "3F"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.UpdateDeviceField(context.Background(), 999, "location", "4F"); err != nil {
		t.Fatalf("unknown device should be a no-op, got %v", err)
	}
	if len(remote.calls) != 0 {
		t.Errorf("expected no remote calls, got %v", remote.calls)
	}
}

func TestProjectMembershipRoundTrip(t *testing.T) {
	remote := &fakeAPI{}
	s := newTestSession(t, remote)

	if err := s.AddToProject(context.Background(), 11); err != nil {
		t.Fatalf("AddToProject failed: %v", err)
	}
	if err := s.RemoveFromProject(context.Background(), 10); err != nil {
		t.Fatalf("RemoveFromProject failed: %v", err)
	}
	if !reflect.DeepEqual(s.Ticket().Projects, []uint{11}) {
		t.Errorf("projects = %v, want [11]", s.Ticket().Projects)
	}

	want := []string{"add-project 11 1", "remove-project 10 1"}
	if !reflect.DeepEqual(remote.calls, want) {
		t.Errorf("calls = %v, want %v", remote.calls, want)
	}
}

func TestRemoveFromProjectRollback(t *testing.T) {
	remote := &fakeAPI{removeProjectErr: errRemote}
	s := newTestSession(t, remote)

	if err := s.RemoveFromProject(context.Background(), 10); err == nil {
		t.Fatal("expected error")
	}
	if !s.Ticket().HasProject(10) {
		t.Error("membership should be restored after remote failure")
	}
}

func TestUpdateField(t *testing.T) {
	tests := []struct {
		name      string
		field     string
		value     string
		remoteErr error
		wantErr   bool
		wantValue string
	}{
		{name: "title applied", field: "title", value: "Printer extinguished", wantValue: "Printer extinguished"},
		{name: "status applied", field: "status", value: "closed", wantValue: "closed"},
		{name: "rollback on failure", field: "status", value: "closed", remoteErr: errRemote, wantErr: true, wantValue: "open"},
		{name: "unknown field", field: "severity", value: "9", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &fakeAPI{updateFieldErr: tt.remoteErr}
			s := newTestSession(t, remote)

			err := s.UpdateField(context.Background(), tt.field, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("UpdateField error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantValue != "" {
				if got, _ := s.Ticket().Field(tt.field); got != tt.wantValue {
					t.Errorf("%s = %q, want %q", tt.field, got, tt.wantValue)
				}
			}
		})
	}
}

func TestUpdateFieldMaintainsSelection(t *testing.T) {
	remote := &fakeAPI{}
	s := newTestSession(t, remote)

	if err := s.UpdateField(context.Background(), "status", "in_progress"); err != nil {
		t.Fatalf("UpdateField failed: %v", err)
	}
	status, priority := s.Selected()
	if status != "in_progress" || priority != "medium" {
		t.Errorf("selection = (%s, %s), want (in_progress, medium)", status, priority)
	}

	remote.updateFieldErr = errRemote
	if err := s.UpdateField(context.Background(), "priority", "high"); err == nil {
		t.Fatal("expected error")
	}
	_, priority = s.Selected()
	if priority != "medium" {
		t.Errorf("priority selection = %s, want rollback to medium", priority)
	}
}

func TestAddCommentRemoteFirst(t *testing.T) {
	remote := &fakeAPI{commentErr: errRemote}
	s := newTestSession(t, remote)

	if _, err := s.AddComment(context.Background(), "half-typed"); err == nil {
		t.Fatal("expected error")
	}
	if len(s.Ticket().Comments) != 1 {
		t.Error("failed comment must not be inserted")
	}
}

func TestAddCommentDedupsAgainstEcho(t *testing.T) {
	created := api.Comment{ID: 501, TicketID: 1, UserUUID: testUserUUID, Content: "fixed"}
	remote := &fakeAPI{nextComment: created}
	s := newTestSession(t, remote)

	comment, err := s.AddComment(context.Background(), "fixed")
	if err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	if comment.ID != 501 {
		t.Fatalf("comment ID = %d, want 501", comment.ID)
	}
	if s.Ticket().Comments[0].ID != 501 {
		t.Error("new comment should be first")
	}

	// Echo of our own comment over the stream adds nothing
	if s.Ticket().AddComment(created) {
		t.Error("echo insert should be a no-op")
	}
	if len(s.Ticket().Comments) != 2 {
		t.Errorf("expected 2 comments, got %d", len(s.Ticket().Comments))
	}
}
