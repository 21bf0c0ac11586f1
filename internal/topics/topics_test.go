package topics

import (
	"context"
	"path/filepath"
	"testing"

	"mcmalerts/internal/db"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewStore(conn, "https://alerts.example.com/")
}

func TestCreateDefaults(t *testing.T) {
	store := setupTestStore(t)

	topic, err := store.Create(context.Background(), "Site Monitoring", "uptime checks")
	if err != nil {
		t.Fatal(err)
	}
	if topic.ID == "" {
		t.Error("expected generated id")
	}
	if !topic.Subscribed {
		t.Error("new topics must start subscribed")
	}
	if topic.Endpoint != "https://alerts.example.com/api/notifications/site-monitoring" {
		t.Errorf("endpoint = %q", topic.Endpoint)
	}
}

func TestCreateRequiresName(t *testing.T) {
	store := setupTestStore(t)

	if _, err := store.Create(context.Background(), "", "desc"); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestListOrdersByName(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	store.Create(ctx, "Zebra", "")
	store.Create(ctx, "Alpha", "")
	store.Create(ctx, "Middle", "")

	topics, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(topics) != 3 {
		t.Fatalf("expected 3 topics, got %d", len(topics))
	}
	want := []string{"Alpha", "Middle", "Zebra"}
	for i, name := range want {
		if topics[i].Name != name {
			t.Errorf("topics[%d].Name = %q, want %q", i, topics[i].Name, name)
		}
	}
}

func TestToggle(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	topic, err := store.Create(ctx, "Server Alerts", "")
	if err != nil {
		t.Fatal(err)
	}

	toggled, err := store.Toggle(ctx, topic.ID)
	if err != nil {
		t.Fatal(err)
	}
	if toggled.Subscribed {
		t.Error("expected subscribed=false after first toggle")
	}

	toggled, err = store.Toggle(ctx, topic.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !toggled.Subscribed {
		t.Error("expected subscribed=true after second toggle")
	}
}

func TestToggleMissingTopic(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Toggle(context.Background(), "no-such-id")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Site Monitoring", "site-monitoring"},
		{"  Spaced   Out  ", "spaced-out"},
		{"single", "single"},
		{"ALL CAPS", "all-caps"},
	}
	for _, tt := range tests {
		if got := slug(tt.name); got != tt.want {
			t.Errorf("slug(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
