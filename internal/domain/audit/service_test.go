package audit

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vettrack/vettrack/pkg/fault"
)

// -- Mock Repository --

type mockRepo struct {
	logs      []*Log
	insertErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{}
}

func (m *mockRepo) Insert(_ context.Context, l *Log) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.logs = append(m.logs, l)
	return nil
}

func (m *mockRepo) ListByEntity(_ context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]*Log, int, error) {
	var result []*Log
	for _, l := range m.logs {
		if l.EntityType == entityType && l.EntityID == entityID {
			result = append(result, l)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].OccurredAt.After(result[j].OccurredAt) })
	return result, len(result), nil
}

func (m *mockRepo) ListByActor(_ context.Context, userID uuid.UUID, limit, offset int) ([]*Log, int, error) {
	var result []*Log
	for _, l := range m.logs {
		if l.ActorUserID != nil && *l.ActorUserID == userID {
			result = append(result, l)
		}
	}
	return result, len(result), nil
}

// -- Tests --

func TestRecordWritesRow(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())

	uid := uuid.New()
	entityID := uuid.New()
	diff, _ := Created(map[string]string{"name": "Rex"})

	err := svc.Record(context.Background(), Actor{UserID: &uid, Display: "vet-1"}, EntityPatient, entityID, ActionCreate, diff)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if len(repo.logs) != 1 {
		t.Fatalf("logs = %d, want 1", len(repo.logs))
	}
	l := repo.logs[0]
	if l.EntityType != EntityPatient || l.EntityID != entityID || l.Action != ActionCreate {
		t.Errorf("unexpected log: %+v", l)
	}
	if l.ActorUserID == nil || *l.ActorUserID != uid {
		t.Errorf("actor = %v, want %s", l.ActorUserID, uid)
	}
	if l.OccurredAt.IsZero() {
		t.Error("OccurredAt not set")
	}
}

func TestRecordSkipsNilDiff(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())

	err := svc.Record(context.Background(), Actor{}, EntityOwner, uuid.New(), ActionUpdate, nil)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(repo.logs) != 0 {
		t.Errorf("logs = %d, want 0 for nil diff", len(repo.logs))
	}
}

func TestRecordWrapsInsertFailure(t *testing.T) {
	repo := newMockRepo()
	repo.insertErr = fmt.Errorf("connection refused")
	svc := NewService(repo, zerolog.Nop())

	diff, _ := Created(map[string]string{"name": "Rex"})
	err := svc.Record(context.Background(), Actor{}, EntityOwner, uuid.New(), ActionCreate, diff)
	if fault.KindOf(err) != fault.KindAuditWrite {
		t.Errorf("kind = %v, want KindAuditWrite (err %v)", fault.KindOf(err), err)
	}
}

func TestMustRecordSwallowsFailure(t *testing.T) {
	repo := newMockRepo()
	repo.insertErr = fmt.Errorf("connection refused")
	svc := NewService(repo, zerolog.Nop())

	diff, diffErr := Created(map[string]string{"name": "Rex"})
	// Must not panic or propagate.
	svc.MustRecord(context.Background(), Actor{}, EntityOwner, uuid.New(), ActionCreate, diff, diffErr)
}

func TestMustRecordWarnsOnDiffFailure(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())

	diff, diffErr := Created(func() {}) // unmarshalable entity
	if diffErr == nil {
		t.Fatal("diff build should fail for a func value")
	}
	svc.MustRecord(context.Background(), Actor{}, EntityOwner, uuid.New(), ActionCreate, diff, diffErr)
	if len(repo.logs) != 0 {
		t.Errorf("logs = %d, want 0 when the diff cannot be built", len(repo.logs))
	}
}

func TestListForEntityNewestFirst(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())

	entityID := uuid.New()
	for i := 0; i < 3; i++ {
		diff, _ := Created(map[string]int{"n": i})
		if err := svc.Record(context.Background(), Actor{}, EntityVisit, entityID, ActionCreate, diff); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	logs, total, err := svc.ListForEntity(context.Background(), EntityVisit, entityID, 20, 0)
	if err != nil {
		t.Fatalf("ListForEntity: %v", err)
	}
	if total != 3 || len(logs) != 3 {
		t.Fatalf("total = %d len = %d, want 3", total, len(logs))
	}
	for i := 1; i < len(logs); i++ {
		if logs[i].OccurredAt.After(logs[i-1].OccurredAt) {
			t.Errorf("logs not newest-first at index %d", i)
		}
	}
}
