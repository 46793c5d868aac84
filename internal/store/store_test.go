package store

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/vintas/mailman/internal/mail"
)

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleRecord() mail.Record {
	return mail.Record{
		ID:         "msg-001",
		ThreadID:   "thread-001",
		From:       "HR Team <hr@tenmiles.com>",
		To:         []string{"Candidate <candidate@example.com>", "manager@tenmiles.com"},
		Cc:         []string{"cc@example.com"},
		Subject:    "Your Interview Schedule",
		BodyPlain:  "Details about your upcoming interview.",
		BodyHTML:   "<p>Details about your upcoming interview.</p>",
		Snippet:    "Details about...",
		ReceivedAt: time.Date(2024, time.June, 14, 12, 0, 0, 0, time.UTC),
		Labels:     []mail.LabelID{"INBOX", "UNREAD"},
		Headers:    map[string]string{"From": "HR Team <hr@tenmiles.com>", "List-Id": "<jobs.tenmiles.com>"},
	}
}

func TestRowRoundTrip(t *testing.T) {
	rec := sampleRecord()
	row, err := toRow(rec)
	if err != nil {
		t.Fatalf("toRow failed: %v", err)
	}
	got, err := toRecord(row)
	if err != nil {
		t.Fatalf("toRecord failed: %v", err)
	}

	if got.ID != rec.ID || got.ThreadID != rec.ThreadID || got.From != rec.From {
		t.Fatalf("identity fields mismatch: %+v", got)
	}
	if len(got.To) != 2 || got.To[0] != rec.To[0] {
		t.Fatalf("to list mismatch: %v", got.To)
	}
	if len(got.Labels) != 2 || got.Labels[0] != "INBOX" {
		t.Fatalf("labels mismatch: %v", got.Labels)
	}
	if !got.ReceivedAt.Equal(rec.ReceivedAt) {
		t.Fatalf("received_at mismatch: %v vs %v", got.ReceivedAt, rec.ReceivedAt)
	}
	if got.Headers["List-Id"] != "<jobs.tenmiles.com>" {
		t.Fatalf("headers mismatch: %v", got.Headers)
	}
}

func TestToRowRejectsEmptyID(t *testing.T) {
	if _, err := toRow(mail.Record{}); err == nil {
		t.Fatal("expected error for record without ID")
	}
}

func TestSaveAndAll(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "mailman.db"), slogDiscard())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	created, err := s.Save(sampleRecord())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !created {
		t.Fatal("expected first save to create a row")
	}

	// duplicate message IDs are a no-op
	created, err = s.Save(sampleRecord())
	if err != nil {
		t.Fatalf("duplicate save failed: %v", err)
	}
	if created {
		t.Fatal("duplicate save should not create a row")
	}

	second := sampleRecord()
	second.ID = "msg-002"
	second.ReceivedAt = second.ReceivedAt.Add(-48 * time.Hour)
	if _, err := s.Save(second); err != nil {
		t.Fatalf("save second record: %v", err)
	}

	all, err := s.All()
	if err != nil {
		t.Fatalf("all failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}
	// oldest first
	if all[0].ID != "msg-002" || all[1].ID != "msg-001" {
		t.Fatalf("unexpected order: %s, %s", all[0].ID, all[1].ID)
	}

	has, err := s.Has("msg-001")
	if err != nil || !has {
		t.Fatalf("has msg-001: %v %v", has, err)
	}
	has, err = s.Has("msg-999")
	if err != nil || has {
		t.Fatalf("has msg-999: %v %v", has, err)
	}
}
