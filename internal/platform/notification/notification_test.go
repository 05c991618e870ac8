package notification

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestLogNotifierWritesEntry(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(zerolog.New(&buf))

	msg := Message{
		ReminderID: uuid.New(),
		PatientID:  uuid.New(),
		Kind:       "vaccination",
		DueAt:      time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	if err := n.Notify(context.Background(), msg); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, msg.ReminderID.String()) {
		t.Errorf("log missing reminder id: %s", out)
	}
	if !strings.Contains(out, `"kind":"vaccination"`) {
		t.Errorf("log missing kind: %s", out)
	}
}

func TestMemoryNotifierRecords(t *testing.T) {
	n := NewMemoryNotifier()
	msg := Message{ReminderID: uuid.New(), Kind: "checkup"}
	if err := n.Notify(context.Background(), msg); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	got := n.Messages()
	if len(got) != 1 || got[0].ReminderID != msg.ReminderID {
		t.Fatalf("Messages = %+v, want one message with id %s", got, msg.ReminderID)
	}
}
