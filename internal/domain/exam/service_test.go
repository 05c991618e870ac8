package exam

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vettrack/vettrack/internal/domain/audit"
	"github.com/vettrack/vettrack/internal/domain/examtemplate"
	"github.com/vettrack/vettrack/internal/domain/patient"
	"github.com/vettrack/vettrack/internal/domain/visit"
	"github.com/vettrack/vettrack/pkg/fault"
)

// -- Mock Repositories --

type mockRepo struct {
	exams map[uuid.UUID]*Exam
}

func newMockRepo() *mockRepo {
	return &mockRepo{exams: make(map[uuid.UUID]*Exam)}
}

func (m *mockRepo) Create(_ context.Context, e *Exam) error {
	e.ID = uuid.New()
	m.exams[e.ID] = e
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Exam, error) {
	e, ok := m.exams[id]
	if !ok {
		return nil, fault.NotFoundf("exam %s not found", id)
	}
	cp := *e
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, e *Exam) error {
	m.exams[e.ID] = e
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.exams, id)
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, status string, limit, offset int) ([]*Exam, int, error) {
	var result []*Exam
	for _, e := range m.exams {
		if e.PatientID != patientID {
			continue
		}
		if status != "" && e.Status != status {
			continue
		}
		result = append(result, e)
	}
	return result, len(result), nil
}

func (m *mockRepo) ListByVisit(_ context.Context, visitID uuid.UUID) ([]*Exam, error) {
	var result []*Exam
	for _, e := range m.exams {
		if e.VisitID != nil && *e.VisitID == visitID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *mockRepo) CountByTemplate(_ context.Context, templateID uuid.UUID) (int, error) {
	n := 0
	for _, e := range m.exams {
		if e.TemplateID == templateID {
			n++
		}
	}
	return n, nil
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

type mockVisitRepo struct {
	visits map[uuid.UUID]*visit.Visit
}

func (m *mockVisitRepo) Create(_ context.Context, v *visit.Visit) error {
	v.ID = uuid.New()
	m.visits[v.ID] = v
	return nil
}

func (m *mockVisitRepo) GetByID(_ context.Context, id uuid.UUID) (*visit.Visit, error) {
	v, ok := m.visits[id]
	if !ok {
		return nil, fault.NotFoundf("visit %s not found", id)
	}
	return v, nil
}

func (m *mockVisitRepo) Update(_ context.Context, v *visit.Visit) error { return nil }
func (m *mockVisitRepo) Delete(_ context.Context, id uuid.UUID) error  { return nil }

func (m *mockVisitRepo) ListByPatient(_ context.Context, patientID uuid.UUID, from, to *time.Time, limit, offset int) ([]*visit.Visit, int, error) {
	return nil, 0, nil
}

type mockTemplateRepo struct {
	templates map[uuid.UUID]*examtemplate.Template
}

func (m *mockTemplateRepo) Create(_ context.Context, t *examtemplate.Template) error {
	t.ID = uuid.New()
	m.templates[t.ID] = t
	return nil
}

func (m *mockTemplateRepo) GetByID(_ context.Context, id uuid.UUID) (*examtemplate.Template, error) {
	t, ok := m.templates[id]
	if !ok {
		return nil, fault.NotFoundf("exam template %s not found", id)
	}
	return t, nil
}

func (m *mockTemplateRepo) Update(_ context.Context, t *examtemplate.Template) error { return nil }

func (m *mockTemplateRepo) List(_ context.Context, activeOnly bool, limit, offset int) ([]*examtemplate.Template, int, error) {
	return nil, 0, nil
}

func (m *mockTemplateRepo) ListVersions(_ context.Context, name string) ([]*examtemplate.Template, error) {
	return nil, nil
}

func (m *mockTemplateRepo) MaxVersion(_ context.Context, name string) (int, error) {
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
	visits    *mockVisitRepo
	templates *mockTemplateRepo
	auditRepo *mockAuditRepo
}

func newFixture() *fixture {
	f := &fixture{
		repo:      newMockRepo(),
		patients:  &mockPatientRepo{patients: make(map[uuid.UUID]*patient.Patient)},
		visits:    &mockVisitRepo{visits: make(map[uuid.UUID]*visit.Visit)},
		templates: &mockTemplateRepo{templates: make(map[uuid.UUID]*examtemplate.Template)},
		auditRepo: &mockAuditRepo{},
	}
	f.svc = NewService(f.repo, f.patients, f.visits, f.templates, audit.NewService(f.auditRepo, zerolog.Nop()))
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

func (f *fixture) seedTemplate(t *testing.T, version int, active bool) *examtemplate.Template {
	t.Helper()
	tmpl := &examtemplate.Template{
		Name:     "wellness",
		Version:  version,
		Fields:   json.RawMessage(`[{"name":"coat","type":"text"}]`),
		IsActive: active,
	}
	if err := f.templates.Create(context.Background(), tmpl); err != nil {
		t.Fatalf("seeding template: %v", err)
	}
	return tmpl
}

func (f *fixture) seedVisit(t *testing.T, patientID uuid.UUID) uuid.UUID {
	t.Helper()
	v := &visit.Visit{PatientID: patientID}
	if err := f.visits.Create(context.Background(), v); err != nil {
		t.Fatalf("seeding visit: %v", err)
	}
	return v.ID
}

var results = json.RawMessage(`{"coat":"glossy"}`)

// -- Tests --

func TestCreateExamCapturesTemplateVersion(t *testing.T) {
	f := newFixture()
	patientID := f.seedPatient(t)
	tmpl := f.seedTemplate(t, 3, true)

	e := &Exam{PatientID: patientID, TemplateID: tmpl.ID, Results: results}
	if err := f.svc.CreateExam(context.Background(), audit.Actor{}, e); err != nil {
		t.Fatalf("CreateExam: %v", err)
	}
	if e.TemplateVersion != 3 {
		t.Errorf("TemplateVersion = %d, want 3", e.TemplateVersion)
	}
	if e.Status != StatusDraft {
		t.Errorf("Status = %s, want draft", e.Status)
	}
}

func TestCreateExamRetiredTemplate(t *testing.T) {
	f := newFixture()
	patientID := f.seedPatient(t)
	tmpl := f.seedTemplate(t, 1, false)

	e := &Exam{PatientID: patientID, TemplateID: tmpl.ID, Results: results}
	err := f.svc.CreateExam(context.Background(), audit.Actor{}, e)
	if !fault.IsInvalidState(err) {
		t.Errorf("err = %v, want invalid state", err)
	}
}

func TestCreateExamVisitMustBelongToPatient(t *testing.T) {
	f := newFixture()
	patientID := f.seedPatient(t)
	otherPatient := f.seedPatient(t)
	tmpl := f.seedTemplate(t, 1, true)
	visitID := f.seedVisit(t, otherPatient)

	e := &Exam{PatientID: patientID, VisitID: &visitID, TemplateID: tmpl.ID, Results: results}
	err := f.svc.CreateExam(context.Background(), audit.Actor{}, e)
	if !fault.IsInvalidInput(err) {
		t.Errorf("err = %v, want invalid input", err)
	}
}

func TestCreateExamRequiresResults(t *testing.T) {
	f := newFixture()
	patientID := f.seedPatient(t)
	tmpl := f.seedTemplate(t, 1, true)

	e := &Exam{PatientID: patientID, TemplateID: tmpl.ID}
	err := f.svc.CreateExam(context.Background(), audit.Actor{}, e)
	if !fault.IsInvalidInput(err) {
		t.Errorf("err = %v, want invalid input", err)
	}
}

func TestUpdateDraftExam(t *testing.T) {
	f := newFixture()
	patientID := f.seedPatient(t)
	tmpl := f.seedTemplate(t, 1, true)

	e := &Exam{PatientID: patientID, TemplateID: tmpl.ID, Results: results}
	if err := f.svc.CreateExam(context.Background(), audit.Actor{}, e); err != nil {
		t.Fatalf("CreateExam: %v", err)
	}

	newResults := json.RawMessage(`{"coat":"dull"}`)
	updated, err := f.svc.UpdateExam(context.Background(), audit.Actor{}, e.ID, UpdateInput{Results: newResults})
	if err != nil {
		t.Fatalf("UpdateExam: %v", err)
	}
	if string(updated.Results) != string(newResults) {
		t.Errorf("Results = %s, want %s", updated.Results, newResults)
	}
}

func TestUpdateFinalExamRejected(t *testing.T) {
	f := newFixture()
	patientID := f.seedPatient(t)
	tmpl := f.seedTemplate(t, 1, true)

	e := &Exam{PatientID: patientID, TemplateID: tmpl.ID, Results: results}
	if err := f.svc.CreateExam(context.Background(), audit.Actor{}, e); err != nil {
		t.Fatalf("CreateExam: %v", err)
	}
	if _, err := f.svc.FinalizeExam(context.Background(), audit.Actor{}, e.ID); err != nil {
		t.Fatalf("FinalizeExam: %v", err)
	}

	_, err := f.svc.UpdateExam(context.Background(), audit.Actor{}, e.ID, UpdateInput{
		Results: json.RawMessage(`{"coat":"dull"}`),
	})
	if !fault.IsInvalidState(err) {
		t.Errorf("err = %v, want invalid state", err)
	}

	got, _ := f.svc.GetExam(context.Background(), e.ID)
	if string(got.Results) != string(results) {
		t.Errorf("final exam results changed: %s", got.Results)
	}
}

func TestFinalizeExamIdempotent(t *testing.T) {
	f := newFixture()
	patientID := f.seedPatient(t)
	tmpl := f.seedTemplate(t, 1, true)

	e := &Exam{PatientID: patientID, TemplateID: tmpl.ID, Results: results}
	if err := f.svc.CreateExam(context.Background(), audit.Actor{}, e); err != nil {
		t.Fatalf("CreateExam: %v", err)
	}

	if _, err := f.svc.FinalizeExam(context.Background(), audit.Actor{}, e.ID); err != nil {
		t.Fatalf("FinalizeExam: %v", err)
	}
	rows := len(f.auditRepo.logs)

	got, err := f.svc.FinalizeExam(context.Background(), audit.Actor{}, e.ID)
	if err != nil {
		t.Fatalf("repeated FinalizeExam: %v", err)
	}
	if got.Status != StatusFinal {
		t.Errorf("Status = %s, want final", got.Status)
	}
	if len(f.auditRepo.logs) != rows {
		t.Errorf("audit rows = %d, want %d (idempotent finalize)", len(f.auditRepo.logs), rows)
	}
}

func TestDeleteFinalExamRejected(t *testing.T) {
	f := newFixture()
	patientID := f.seedPatient(t)
	tmpl := f.seedTemplate(t, 1, true)

	e := &Exam{PatientID: patientID, TemplateID: tmpl.ID, Results: results}
	if err := f.svc.CreateExam(context.Background(), audit.Actor{}, e); err != nil {
		t.Fatalf("CreateExam: %v", err)
	}
	if _, err := f.svc.FinalizeExam(context.Background(), audit.Actor{}, e.ID); err != nil {
		t.Fatalf("FinalizeExam: %v", err)
	}

	err := f.svc.DeleteExam(context.Background(), audit.Actor{}, e.ID)
	if !fault.IsInvalidState(err) {
		t.Errorf("err = %v, want invalid state", err)
	}
}

func TestListExamsByPatientStatusFilter(t *testing.T) {
	f := newFixture()
	patientID := f.seedPatient(t)
	tmpl := f.seedTemplate(t, 1, true)

	draft := &Exam{PatientID: patientID, TemplateID: tmpl.ID, Results: results}
	if err := f.svc.CreateExam(context.Background(), audit.Actor{}, draft); err != nil {
		t.Fatalf("CreateExam: %v", err)
	}
	final := &Exam{PatientID: patientID, TemplateID: tmpl.ID, Results: results}
	if err := f.svc.CreateExam(context.Background(), audit.Actor{}, final); err != nil {
		t.Fatalf("CreateExam: %v", err)
	}
	if _, err := f.svc.FinalizeExam(context.Background(), audit.Actor{}, final.ID); err != nil {
		t.Fatalf("FinalizeExam: %v", err)
	}

	exams, total, err := f.svc.ListExamsByPatient(context.Background(), patientID, StatusFinal, 50, 0)
	if err != nil {
		t.Fatalf("ListExamsByPatient: %v", err)
	}
	if total != 1 || len(exams) != 1 || exams[0].ID != final.ID {
		t.Errorf("final filter returned %d exams (total %d)", len(exams), total)
	}

	exams, total, err = f.svc.ListExamsByPatient(context.Background(), patientID, "archived", 50, 0)
	if !fault.IsInvalidInput(err) {
		t.Fatalf("err = %v, want invalid input", err)
	}
	if exams != nil || total != 0 {
		t.Errorf("rejected filter returned %d exams (total %d)", len(exams), total)
	}
}
