package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/intervuehq/intervue/internal/models"
	"github.com/intervuehq/intervue/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Hand-rolled mocks: a func field per method, nil fields fail loudly via
// panic so a test only stubs what it exercises.

type mockSessionRepo struct {
	CreateFn         func(ctx context.Context, s *models.InterviewSession) error
	GetByIDFn        func(ctx context.Context, id string) (*models.InterviewSession, error)
	CompleteFn       func(ctx context.Context, id string, endedAt time.Time) error
	SetScoreFn       func(ctx context.Context, id string, score float64) error
	ListByTemplateFn func(ctx context.Context, templateID string, status models.SessionStatus) ([]models.InterviewSession, error)
}

func (m *mockSessionRepo) Create(ctx context.Context, s *models.InterviewSession) error {
	return m.CreateFn(ctx, s)
}

func (m *mockSessionRepo) GetByID(ctx context.Context, id string) (*models.InterviewSession, error) {
	return m.GetByIDFn(ctx, id)
}

func (m *mockSessionRepo) Complete(ctx context.Context, id string, endedAt time.Time) error {
	return m.CompleteFn(ctx, id, endedAt)
}

func (m *mockSessionRepo) SetScore(ctx context.Context, id string, score float64) error {
	return m.SetScoreFn(ctx, id, score)
}

func (m *mockSessionRepo) ListByTemplate(ctx context.Context, templateID string, status models.SessionStatus) ([]models.InterviewSession, error) {
	return m.ListByTemplateFn(ctx, templateID, status)
}

type mockTemplateRepo struct {
	CreateFn  func(ctx context.Context, t *models.InterviewTemplate) error
	GetByIDFn func(ctx context.Context, id string) (*models.InterviewTemplate, error)
	ListFn    func(ctx context.Context) ([]models.InterviewTemplate, error)
}

func (m *mockTemplateRepo) Create(ctx context.Context, t *models.InterviewTemplate) error {
	return m.CreateFn(ctx, t)
}

func (m *mockTemplateRepo) GetByID(ctx context.Context, id string) (*models.InterviewTemplate, error) {
	return m.GetByIDFn(ctx, id)
}

func (m *mockTemplateRepo) List(ctx context.Context) ([]models.InterviewTemplate, error) {
	return m.ListFn(ctx)
}

type mockProfileRepo struct {
	GetByUserIDFn func(ctx context.Context, userID string) (*models.CandidateProfile, error)
	UpsertFn      func(ctx context.Context, p *models.CandidateProfile) error
}

func (m *mockProfileRepo) GetByUserID(ctx context.Context, userID string) (*models.CandidateProfile, error) {
	return m.GetByUserIDFn(ctx, userID)
}

func (m *mockProfileRepo) Upsert(ctx context.Context, p *models.CandidateProfile) error {
	return m.UpsertFn(ctx, p)
}

type mockUserRepo struct {
	CreateFn             func(ctx context.Context, u *models.User) error
	GetByIDFn            func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFn         func(ctx context.Context, email string) (*models.User, error)
	ListByOrganizationFn func(ctx context.Context, orgID string) ([]models.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *models.User) error {
	return m.CreateFn(ctx, u)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return m.GetByIDFn(ctx, id)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.GetByEmailFn(ctx, email)
}

func (m *mockUserRepo) ListByOrganization(ctx context.Context, orgID string) ([]models.User, error) {
	return m.ListByOrganizationFn(ctx, orgID)
}

// memTurnLedger is an in-memory TurnRepository with real per-session sequence
// assignment, so ordering tests exercise the same append semantics as Mongo.
type memTurnLedger struct {
	mu    sync.Mutex
	turns map[string][]models.Turn

	appendErr error
}

func newMemTurnLedger() *memTurnLedger {
	return &memTurnLedger{turns: map[string][]models.Turn{}}
}

func (m *memTurnLedger) Append(ctx context.Context, sessionID string, role models.TurnRole, text string) (*models.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return nil, m.appendErr
	}
	t := models.Turn{
		ID:        primitive.NewObjectID(),
		SessionID: sessionID,
		Seq:       int64(len(m.turns[sessionID]) + 1),
		Role:      role,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
	m.turns[sessionID] = append(m.turns[sessionID], t)
	return &t, nil
}

func (m *memTurnLedger) ListBySession(ctx context.Context, sessionID string) ([]models.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Turn, len(m.turns[sessionID]))
	copy(out, m.turns[sessionID])
	return out, nil
}

// memReportStore is an in-memory ReportRepository enforcing the unique
// session_id index.
type memReportStore struct {
	mu      sync.Mutex
	reports map[string]*models.Report // keyed by session_id

	insertErr error
	inserts   int
}

func newMemReportStore() *memReportStore {
	return &memReportStore{reports: map[string]*models.Report{}}
}

func (m *memReportStore) Insert(ctx context.Context, r *models.Report) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return "", m.insertErr
	}
	if _, dup := m.reports[r.SessionID]; dup {
		return "", errors.New("duplicate key: session_id")
	}
	r.ID = primitive.NewObjectID()
	cp := *r
	m.reports[r.SessionID] = &cp
	m.inserts++
	return r.ID.Hex(), nil
}

func (m *memReportStore) GetByID(ctx context.Context, id string) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reports {
		if r.ID.Hex() == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (m *memReportStore) GetBySessionID(ctx context.Context, sessionID string) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[sessionID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memReportStore) ListByUserIDs(ctx context.Context, userIDs []string) ([]models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Report
	for _, r := range m.reports {
		for _, id := range userIDs {
			if r.UserID == id {
				out = append(out, *r)
				break
			}
		}
	}
	return out, nil
}

func (m *memReportStore) ListBySessionIDs(ctx context.Context, sessionIDs []string) ([]models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Report
	for _, r := range m.reports {
		for _, id := range sessionIDs {
			if r.SessionID == id {
				out = append(out, *r)
				break
			}
		}
	}
	return out, nil
}

type mockOrgRepo struct {
	CreateFn    func(ctx context.Context, o *models.Organization) error
	GetByIDFn   func(ctx context.Context, id string) (*models.Organization, error)
	GetByNameFn func(ctx context.Context, name string) (*models.Organization, error)
}

func (m *mockOrgRepo) Create(ctx context.Context, o *models.Organization) error {
	return m.CreateFn(ctx, o)
}

func (m *mockOrgRepo) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	return m.GetByIDFn(ctx, id)
}

func (m *mockOrgRepo) GetByName(ctx context.Context, name string) (*models.Organization, error) {
	return m.GetByNameFn(ctx, name)
}

type mockLLM struct {
	GenerateFn     func(ctx context.Context, prompt string) (string, error)
	GenerateJSONFn func(ctx context.Context, prompt string) (string, error)
}

func (m *mockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	return m.GenerateFn(ctx, prompt)
}

func (m *mockLLM) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return m.GenerateJSONFn(ctx, prompt)
}

func (m *mockLLM) Close() error { return nil }
