package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vettrack/vettrack/internal/domain/audit"
	"github.com/vettrack/vettrack/internal/domain/patient"
	"github.com/vettrack/vettrack/internal/platform/notification"
	"github.com/vettrack/vettrack/pkg/fault"
)

type mockRepo struct {
	reminders map[uuid.UUID]*Reminder
}

func newMockRepo() *mockRepo {
	return &mockRepo{reminders: make(map[uuid.UUID]*Reminder)}
}

func (m *mockRepo) Create(_ context.Context, r *Reminder) error {
	r.ID = uuid.New()
	m.reminders[r.ID] = r
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Reminder, error) {
	r, ok := m.reminders[id]
	if !ok {
		return nil, fault.NotFoundf("reminder %s not found", id)
	}
	cp := *r
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, r *Reminder) error {
	m.reminders[r.ID] = r
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.reminders, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, f ListFilter, limit, offset int) ([]*Reminder, int, error) {
	var result []*Reminder
	for _, r := range m.reminders {
		if f.PatientID != uuid.Nil && r.PatientID != f.PatientID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.DueAfter != nil && r.DueAt.Before(*f.DueAfter) {
			continue
		}
		if f.DueBefore != nil && r.DueAt.After(*f.DueBefore) {
			continue
		}
		result = append(result, r)
	}
	return result, len(result), nil
}

type mockPatientRepo struct {
	patients map[uuid.UUID]*patient.Patient
}

func (m *mockPatientRepo) Create(_ context.Context, p *patient.Patient) error {
	p.ID = uuid.New()
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, fault.NotFoundf("patient %s not found", id)
	}
	return p, nil
}

func (m *mockPatientRepo) GetByMicrochip(_ context.Context, chip string) (*patient.Patient, error) {
	return nil, fault.NotFoundf("no patient with microchip %s", chip)
}

func (m *mockPatientRepo) Update(_ context.Context, p *patient.Patient) error { return nil }
func (m *mockPatientRepo) Delete(_ context.Context, id uuid.UUID) error       { return nil }

func (m *mockPatientRepo) List(_ context.Context, limit, offset int) ([]*patient.Patient, int, error) {
	return nil, 0, nil
}

func (m *mockPatientRepo) ListByOwner(_ context.Context, ownerID uuid.UUID, limit, offset int) ([]*patient.Patient, int, error) {
	return nil, 0, nil
}

func (m *mockPatientRepo) SearchByName(_ context.Context, q string, limit, offset int) ([]*patient.Patient, int, error) {
	return nil, 0, nil
}

func (m *mockPatientRepo) CountByOwner(_ context.Context, ownerID uuid.UUID) (int, error) {
	return 0, nil
}

type mockAuditRepo struct {
	logs []*audit.Log
}

func (m *mockAuditRepo) Insert(_ context.Context, l *audit.Log) error {
	m.logs = append(m.logs, l)
	return nil
}

func (m *mockAuditRepo) ListByEntity(_ context.Context, _ string, _ uuid.UUID, _, _ int) ([]*audit.Log, int, error) {
	return m.logs, len(m.logs), nil
}

func (m *mockAuditRepo) ListByActor(_ context.Context, _ uuid.UUID, _, _ int) ([]*audit.Log, int, error) {
	return m.logs, len(m.logs), nil
}

type fixture struct {
	svc       *Service
	repo      *mockRepo
	patients  *mockPatientRepo
	auditRepo *mockAuditRepo
	notifier  *notification.MemoryNotifier
}

func newFixture() *fixture {
	f := &fixture{
		repo:      newMockRepo(),
		patients:  &mockPatientRepo{patients: make(map[uuid.UUID]*patient.Patient)},
		auditRepo: &mockAuditRepo{},
		notifier:  &notification.MemoryNotifier{},
	}
	f.svc = NewService(f.repo, f.patients, audit.NewService(f.auditRepo, zerolog.Nop()), f.notifier, zerolog.Nop())
	return f
}

func (f *fixture) seedPatient(t *testing.T) uuid.UUID {
	t.Helper()
	p := &patient.Patient{OwnerID: uuid.New(), Name: "Rex", Species: "dog"}
	if err := f.patients.Create(context.Background(), p); err != nil {
		t.Fatalf("seeding patient: %v", err)
	}
	return p.ID
}

func (f *fixture) seedReminder(t *testing.T) *Reminder {
	t.Helper()
	r := &Reminder{
		PatientID: f.seedPatient(t),
		Title:     "rabies booster",
		DueAt:     time.Now().UTC().Add(24 * time.Hour),
	}
	if err := f.svc.CreateReminder(context.Background(), audit.Actor{}, r); err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}
	return r
}

func TestCreateReminderDefaultsPending(t *testing.T) {
	f := newFixture()
	r := f.seedReminder(t)
	if r.Status != StatusPending {
		t.Errorf("Status = %s, want pending", r.Status)
	}
	if len(f.notifier.Messages()) != 1 {
		t.Errorf("notifications = %d, want 1", len(f.notifier.Messages()))
	}
}

func TestCreateReminderUnknownPatient(t *testing.T) {
	f := newFixture()
	r := &Reminder{PatientID: uuid.New(), Title: "recheck", DueAt: time.Now().UTC()}
	err := f.svc.CreateReminder(context.Background(), audit.Actor{}, r)
	if !fault.IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestMarkDoneTwiceWritesOneAuditRecord(t *testing.T) {
	f := newFixture()
	r := f.seedReminder(t)
	created := len(f.auditRepo.logs)

	if _, err := f.svc.MarkDone(context.Background(), audit.Actor{}, r.ID); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	got, err := f.svc.MarkDone(context.Background(), audit.Actor{}, r.ID)
	if err != nil {
		t.Fatalf("repeated MarkDone: %v", err)
	}
	if got.Status != StatusDone {
		t.Errorf("Status = %s, want done", got.Status)
	}
	if transitions := len(f.auditRepo.logs) - created; transitions != 1 {
		t.Errorf("status-change audit records = %d, want 1", transitions)
	}
}

func TestDismissDoneReminderRejected(t *testing.T) {
	f := newFixture()
	r := f.seedReminder(t)

	if _, err := f.svc.MarkDone(context.Background(), audit.Actor{}, r.ID); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	_, err := f.svc.Dismiss(context.Background(), audit.Actor{}, r.ID)
	if !fault.IsInvalidState(err) {
		t.Errorf("err = %v, want invalid state", err)
	}
}

func TestMarkDoneDismissedReminderRejected(t *testing.T) {
	f := newFixture()
	r := f.seedReminder(t)

	if _, err := f.svc.Dismiss(context.Background(), audit.Actor{}, r.ID); err != nil {
		t.Fatalf("Dismiss: %v", err)
	}
	_, err := f.svc.MarkDone(context.Background(), audit.Actor{}, r.ID)
	if !fault.IsInvalidState(err) {
		t.Errorf("err = %v, want invalid state", err)
	}
}

func TestIsOverdueDerived(t *testing.T) {
	now := time.Now().UTC()
	r := &Reminder{Status: StatusPending, DueAt: now.Add(-time.Hour)}
	if !r.IsOverdue(now) {
		t.Error("pending reminder past due should be overdue")
	}
	r.Status = StatusDone
	if r.IsOverdue(now) {
		t.Error("done reminder should never be overdue")
	}
	r.Status = StatusPending
	r.DueAt = now.Add(time.Hour)
	if r.IsOverdue(now) {
		t.Error("future reminder should not be overdue")
	}
}

func TestListOverdue(t *testing.T) {
	f := newFixture()
	patientID := f.seedPatient(t)
	now := time.Now().UTC()
	f.svc.now = func() time.Time { return now }

	past := &Reminder{PatientID: patientID, Title: "overdue recheck", DueAt: now.Add(-time.Hour)}
	future := &Reminder{PatientID: patientID, Title: "upcoming booster", DueAt: now.Add(time.Hour)}
	for _, r := range []*Reminder{past, future} {
		if err := f.svc.CreateReminder(context.Background(), audit.Actor{}, r); err != nil {
			t.Fatalf("CreateReminder: %v", err)
		}
	}

	rems, total, err := f.svc.ListOverdue(context.Background(), 50, 0)
	if err != nil {
		t.Fatalf("ListOverdue: %v", err)
	}
	if total != 1 || len(rems) != 1 || rems[0].ID != past.ID {
		t.Errorf("ListOverdue returned %d reminders, want just the overdue one", len(rems))
	}
}
