package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"caretaker/internal/domain/model"
)

func TestAppendAndReadBack(t *testing.T) {
	repo, err := New(filepath.Join(t.TempDir(), "caretaker.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	ts := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	kinds := []string{model.EventAlertReceived, model.EventDiscrepancy, model.EventRetrySent}
	for i, kind := range kinds {
		ev := model.NewEvent(kind, ts.Add(time.Duration(i)*time.Second), map[string]any{"bot": "alpha"})
		if err := repo.AppendEvent(ctx, ev); err != nil {
			t.Fatalf("append %s: %v", kind, err)
		}
	}

	events, err := repo.RecentEvents(ctx, 2)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Kind != model.EventRetrySent || events[1].Kind != model.EventDiscrepancy {
		t.Errorf("wrong order: %s, %s", events[0].Kind, events[1].Kind)
	}
	if events[0].Payload["bot"] != "alpha" {
		t.Errorf("payload lost: %+v", events[0].Payload)
	}
	if !events[0].Timestamp.Equal(ts.Add(2 * time.Second)) {
		t.Errorf("timestamp mismatch: %v", events[0].Timestamp)
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caretaker.db")

	repo, err := New(path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ev := model.NewEvent(model.EventAlert, time.Now(), map[string]any{"message": "hello"})
	if err := repo.AppendEvent(context.Background(), ev); err != nil {
		t.Fatalf("append: %v", err)
	}
	repo.Close()

	repo, err = New(path)
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	defer repo.Close()

	events, err := repo.RecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(events) != 1 || events[0].Payload["message"] != "hello" {
		t.Fatalf("history lost across reopen: %+v", events)
	}
}
