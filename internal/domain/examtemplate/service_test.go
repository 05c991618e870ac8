package examtemplate

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vettrack/vettrack/internal/domain/audit"
	"github.com/vettrack/vettrack/pkg/fault"
)

// -- Mock Repository --

type mockRepo struct {
	templates map[uuid.UUID]*Template
}

func newMockRepo() *mockRepo {
	return &mockRepo{templates: make(map[uuid.UUID]*Template)}
}

func (m *mockRepo) Create(_ context.Context, t *Template) error {
	t.ID = uuid.New()
	m.templates[t.ID] = t
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Template, error) {
	t, ok := m.templates[id]
	if !ok {
		return nil, fault.NotFoundf("exam template %s not found", id)
	}
	cp := *t
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, t *Template) error {
	m.templates[t.ID] = t
	return nil
}

func (m *mockRepo) List(_ context.Context, activeOnly bool, limit, offset int) ([]*Template, int, error) {
	var result []*Template
	for _, t := range m.templates {
		if activeOnly && !t.IsActive {
			continue
		}
		result = append(result, t)
	}
	return result, len(result), nil
}

func (m *mockRepo) ListVersions(_ context.Context, name string) ([]*Template, error) {
	var result []*Template
	for _, t := range m.templates {
		if t.Name == name {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockRepo) MaxVersion(_ context.Context, name string) (int, error) {
	max := 0
	for _, t := range m.templates {
		if t.Name == name && t.Version > max {
			max = t.Version
		}
	}
	return max, nil
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

func newTestService() (*Service, *mockRepo, *mockAuditRepo) {
	repo := newMockRepo()
	auditRepo := &mockAuditRepo{}
	svc := NewService(repo, audit.NewService(auditRepo, zerolog.Nop()))
	return svc, repo, auditRepo
}

var wellnessFields = json.RawMessage(`[{"name":"coat","type":"text"},{"name":"heart_rate","type":"number"}]`)

// -- Tests --

func TestCreateTemplate(t *testing.T) {
	svc, _, auditRepo := newTestService()

	tmpl := &Template{Name: "wellness", Fields: wellnessFields}
	if err := svc.CreateTemplate(context.Background(), audit.Actor{}, tmpl); err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	if tmpl.Version != 1 {
		t.Errorf("Version = %d, want 1", tmpl.Version)
	}
	if !tmpl.IsActive {
		t.Error("new template should be active")
	}
	if len(auditRepo.logs) != 1 {
		t.Errorf("audit rows = %d, want 1", len(auditRepo.logs))
	}
}

func TestCreateTemplateDuplicateName(t *testing.T) {
	svc, _, _ := newTestService()

	tmpl := &Template{Name: "wellness", Fields: wellnessFields}
	if err := svc.CreateTemplate(context.Background(), audit.Actor{}, tmpl); err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}

	dup := &Template{Name: "wellness", Fields: wellnessFields}
	err := svc.CreateTemplate(context.Background(), audit.Actor{}, dup)
	if !fault.IsInvalidState(err) {
		t.Errorf("err = %v, want invalid state", err)
	}
}

func TestCreateTemplateValidation(t *testing.T) {
	svc, _, _ := newTestService()

	cases := []struct {
		name string
		tmpl Template
	}{
		{"missing name", Template{Fields: wellnessFields}},
		{"missing fields", Template{Name: "wellness"}},
		{"bad fields json", Template{Name: "wellness", Fields: json.RawMessage(`{oops`)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.CreateTemplate(context.Background(), audit.Actor{}, &tc.tmpl)
			if !fault.IsInvalidInput(err) {
				t.Errorf("err = %v, want invalid input", err)
			}
		})
	}
}

func TestReviseTemplateBumpsVersion(t *testing.T) {
	svc, _, _ := newTestService()

	base := &Template{Name: "wellness", Fields: wellnessFields}
	if err := svc.CreateTemplate(context.Background(), audit.Actor{}, base); err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}

	newFields := json.RawMessage(`[{"name":"coat","type":"text"},{"name":"weight_kg","type":"number"}]`)
	rev, err := svc.ReviseTemplate(context.Background(), audit.Actor{}, base.ID, ReviseInput{Fields: newFields})
	if err != nil {
		t.Fatalf("ReviseTemplate: %v", err)
	}
	if rev.Version != 2 {
		t.Errorf("Version = %d, want 2", rev.Version)
	}
	if rev.ID == base.ID {
		t.Error("revision must be a new row")
	}
	if !rev.IsActive {
		t.Error("revision should be active")
	}

	// Base version untouched.
	got, err := svc.GetTemplate(context.Background(), base.ID)
	if err != nil {
		t.Fatalf("GetTemplate: %v", err)
	}
	if got.Version != 1 || string(got.Fields) != string(wellnessFields) {
		t.Errorf("base version mutated: %+v", got)
	}
}

func TestDeactivateTemplateIdempotent(t *testing.T) {
	svc, _, auditRepo := newTestService()

	tmpl := &Template{Name: "wellness", Fields: wellnessFields}
	if err := svc.CreateTemplate(context.Background(), audit.Actor{}, tmpl); err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}

	got, err := svc.DeactivateTemplate(context.Background(), audit.Actor{}, tmpl.ID)
	if err != nil {
		t.Fatalf("DeactivateTemplate: %v", err)
	}
	if got.IsActive {
		t.Error("template still active after deactivate")
	}
	rows := len(auditRepo.logs)

	// Second deactivate is a no-op and records nothing.
	if _, err := svc.DeactivateTemplate(context.Background(), audit.Actor{}, tmpl.ID); err != nil {
		t.Fatalf("repeated DeactivateTemplate: %v", err)
	}
	if len(auditRepo.logs) != rows {
		t.Errorf("audit rows = %d, want %d (idempotent transition)", len(auditRepo.logs), rows)
	}
}
