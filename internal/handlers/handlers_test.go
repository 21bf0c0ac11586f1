package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"mcmalerts/internal/alerts"
	"mcmalerts/internal/audit"
	"mcmalerts/internal/db"
	"mcmalerts/internal/push"
)

type noopFeed struct{}

func (noopFeed) PublishInsert(alerts.Notification) {}
func (noopFeed) PublishUpdate(alerts.Notification) {}

type noopBroadcaster struct{}

func (noopBroadcaster) Broadcast(context.Context, push.Payload) {}

// testServer wires the API the way the server binary does, minus auth
// and push delivery.
func testServer(t *testing.T) (*httptest.Server, *alerts.Service) {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })

	store := alerts.NewStore(conn)
	service := alerts.NewService(store, noopFeed{}, noopBroadcaster{})
	t.Cleanup(service.Close)

	notifications := NewNotificationHandler(service, store)
	ingest := NewIngestHandler(service)
	auditHandler := NewAuditHandler(audit.NewRecorder(conn))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/ingest", ingest.Ingest)
	mux.HandleFunc("GET /api/notifications", notifications.List)
	mux.HandleFunc("GET /api/notifications/stats", notifications.Stats)
	mux.HandleFunc("GET /api/notifications/{id}", notifications.Get)
	mux.HandleFunc("POST /api/notifications/{id}/ack", notifications.Acknowledge)
	mux.HandleFunc("POST /api/notifications/{id}/resolve", notifications.Resolve)
	mux.HandleFunc("POST /api/notifications/{id}/snooze", notifications.Snooze)
	mux.HandleFunc("POST /api/notifications/{id}/comments", notifications.AddComment)
	mux.HandleFunc("GET /api/audit", auditHandler.Query)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, service
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatal(err)
	}
}

func TestIngestCreatesNotification(t *testing.T) {
	srv, _ := testServer(t)

	resp := postJSON(t, srv.URL+"/api/ingest",
		`{"type":"site_down","title":"Site Down","message":"example.com unreachable"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var n alerts.Notification
	decode(t, resp, &n)
	if n.ID == 0 {
		t.Error("expected assigned id")
	}
	if n.Site != alerts.DefaultSite {
		t.Errorf("site = %q, want %q", n.Site, alerts.DefaultSite)
	}
	if n.Priority != alerts.PriorityLow {
		t.Errorf("priority = %q, want low", n.Priority)
	}
}

func TestIngestValidation(t *testing.T) {
	srv, _ := testServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing title", `{"type":"site_down","message":"m"}`},
		{"unknown type", `{"type":"meltdown","title":"t","message":"m"}`},
		{"unknown priority", `{"type":"custom","title":"t","message":"m","priority":"urgent"}`},
		{"bad timestamp", `{"type":"custom","title":"t","message":"m","timestamp":"yesterday"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/ingest", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestLifecycleEndpoints(t *testing.T) {
	srv, _ := testServer(t)

	resp := postJSON(t, srv.URL+"/api/ingest",
		`{"type":"server_alert","title":"CPU","message":"load high"}`)
	var created alerts.Notification
	decode(t, resp, &created)
	base := srv.URL + "/api/notifications/" + itoa(created.ID)

	resp = postJSON(t, base+"/ack", `{}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ack status = %d", resp.StatusCode)
	}
	var view struct {
		alerts.Notification
		Status alerts.Status `json:"status"`
	}
	decode(t, resp, &view)
	if !view.Acknowledged || view.Status != alerts.StatusAcknowledged {
		t.Errorf("after ack: acknowledged=%v status=%s", view.Acknowledged, view.Status)
	}

	until := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	resp = postJSON(t, base+"/snooze", `{"until":"`+until+`"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("snooze status = %d", resp.StatusCode)
	}
	decode(t, resp, &view)
	if view.Status != alerts.StatusSnoozed {
		t.Errorf("after snooze: status = %s", view.Status)
	}

	resp = postJSON(t, base+"/comments", `{"text":"looking into it"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("comment status = %d", resp.StatusCode)
	}
	decode(t, resp, &view)
	if len(view.Comments) != 1 || view.Comments[0].Text != "looking into it" {
		t.Errorf("comments = %+v", view.Comments)
	}

	resp = postJSON(t, base+"/resolve", `{}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resolve status = %d", resp.StatusCode)
	}
	decode(t, resp, &view)
	if view.Status != alerts.StatusResolved || !view.Resolved {
		t.Errorf("after resolve: %+v", view)
	}
}

func TestSnoozeRejectsPastAndBadBody(t *testing.T) {
	srv, _ := testServer(t)

	resp := postJSON(t, srv.URL+"/api/ingest",
		`{"type":"custom","title":"t","message":"m"}`)
	var created alerts.Notification
	decode(t, resp, &created)
	base := srv.URL + "/api/notifications/" + itoa(created.ID)

	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	resp = postJSON(t, base+"/snooze", `{"until":"`+past+`"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("past snooze status = %d, want 400", resp.StatusCode)
	}

	resp = postJSON(t, base+"/snooze", `{"until":"soon"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad until status = %d, want 400", resp.StatusCode)
	}
}

func TestUnknownNotificationIs404(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/api/notifications/9999")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get status = %d, want 404", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/api/notifications/9999/ack", `{}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("ack status = %d, want 404", resp.StatusCode)
	}
}

func TestListAndStatusFilter(t *testing.T) {
	srv, _ := testServer(t)

	for _, body := range []string{
		`{"type":"site_down","title":"a","message":"m"}`,
		`{"type":"site_down","title":"b","message":"m"}`,
		`{"type":"server_alert","title":"c","message":"m"}`,
	} {
		postJSON(t, srv.URL+"/api/ingest", body)
	}

	resp, err := http.Get(srv.URL + "/api/notifications")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var all []json.RawMessage
	decode(t, resp, &all)
	if len(all) != 3 {
		t.Errorf("listed %d, want 3", len(all))
	}

	resp, err = http.Get(srv.URL + "/api/notifications?type=site_down")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var filtered []json.RawMessage
	decode(t, resp, &filtered)
	if len(filtered) != 2 {
		t.Errorf("type filter: %d, want 2", len(filtered))
	}

	resp, err = http.Get(srv.URL + "/api/notifications?status=bogus")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad status filter: %d, want 400", resp.StatusCode)
	}
}

func TestStats(t *testing.T) {
	srv, _ := testServer(t)

	resp := postJSON(t, srv.URL+"/api/ingest",
		`{"type":"site_down","title":"a","message":"m"}`)
	var created alerts.Notification
	decode(t, resp, &created)
	postJSON(t, srv.URL+"/api/ingest", `{"type":"custom","title":"b","message":"m"}`)
	postJSON(t, srv.URL+"/api/notifications/"+itoa(created.ID)+"/resolve", `{}`)

	resp, err := http.Get(srv.URL + "/api/notifications/stats")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var stats struct {
		Total  int                   `json:"total"`
		Counts map[alerts.Status]int `json:"counts"`
	}
	decode(t, resp, &stats)
	if stats.Total != 2 {
		t.Errorf("total = %d, want 2", stats.Total)
	}
	if stats.Counts[alerts.StatusNew] != 1 || stats.Counts[alerts.StatusResolved] != 1 {
		t.Errorf("counts = %v", stats.Counts)
	}
}

func TestAuditTrailThroughAPI(t *testing.T) {
	srv, _ := testServer(t)

	resp := postJSON(t, srv.URL+"/api/ingest",
		`{"type":"site_down","title":"Site Down","message":"m"}`)
	var created alerts.Notification
	decode(t, resp, &created)
	postJSON(t, srv.URL+"/api/notifications/"+itoa(created.ID)+"/ack", `{}`)

	resp, err := http.Get(srv.URL + "/api/audit")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var entries []audit.Entry
	decode(t, resp, &entries)
	if len(entries) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(entries))
	}
	if entries[0].Action != audit.ActionAcknowledged || entries[1].Action != audit.ActionCreated {
		t.Errorf("actions = %s, %s", entries[0].Action, entries[1].Action)
	}

	resp, err = http.Get(srv.URL + "/api/audit?action=created")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	decode(t, resp, &entries)
	if len(entries) != 1 {
		t.Errorf("action filter: %d entries, want 1", len(entries))
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
