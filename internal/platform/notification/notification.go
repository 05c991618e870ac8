// Package notification delivers reminder notifications out of band.
// Delivery failures never affect the reminder write path.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Message is a single outbound notification.
type Message struct {
	ReminderID uuid.UUID
	PatientID  uuid.UUID
	Kind       string
	Note       string
	DueAt      time.Time
}

// Notifier sends reminder notifications to an external channel.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// LogNotifier writes notifications to the structured log. It is the
// default backend until a real delivery channel is configured.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, msg Message) error {
	n.logger.Info().
		Str("reminder_id", msg.ReminderID.String()).
		Str("patient_id", msg.PatientID.String()).
		Str("kind", msg.Kind).
		Time("due_at", msg.DueAt).
		Msg("reminder scheduled")
	return nil
}

// MemoryNotifier records messages in memory for tests.
type MemoryNotifier struct {
	mu       sync.Mutex
	messages []Message
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

func (n *MemoryNotifier) Notify(_ context.Context, msg Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return nil
}

// Messages returns a copy of everything recorded so far.
func (n *MemoryNotifier) Messages() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Message, len(n.messages))
	copy(out, n.messages)
	return out
}
