package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/intervuehq/intervue/internal/models"
	"github.com/intervuehq/intervue/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// staticQuestions is a QuestionService stub returning a fixed question.
type staticQuestions struct {
	question string
}

func (s *staticQuestions) NextQuestion(ctx context.Context, qc QuestionContext, history []models.Turn) string {
	if s.question == "" {
		return FallbackQuestion
	}
	return s.question
}

// sessionFixture wires a SessionService around in-memory stores. Sessions
// live in a map guarded by a mutex; Complete enforces the active-only
// transition the way the Postgres repo does.
type sessionFixture struct {
	svc     SessionService
	turns   *memTurnLedger
	reports *memReportStore

	mu       sync.Mutex
	sessions map[string]*models.InterviewSession
	template *models.InterviewTemplate
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	f := &sessionFixture{
		turns:    newMemTurnLedger(),
		reports:  newMemReportStore(),
		sessions: map[string]*models.InterviewSession{},
	}

	sessionRepo := &mockSessionRepo{
		CreateFn: func(ctx context.Context, s *models.InterviewSession) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			cp := *s
			f.sessions[s.ID] = &cp
			return nil
		},
		GetByIDFn: func(ctx context.Context, id string) (*models.InterviewSession, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			s, ok := f.sessions[id]
			if !ok {
				return nil, utils.ErrNotFound
			}
			cp := *s
			return &cp, nil
		},
		CompleteFn: func(ctx context.Context, id string, endedAt time.Time) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			s, ok := f.sessions[id]
			if !ok || s.Status != models.SessionActive {
				return nil
			}
			s.Status = models.SessionCompleted
			s.EndTime = &endedAt
			return nil
		},
		SetScoreFn: func(ctx context.Context, id string, score float64) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			if s, ok := f.sessions[id]; ok {
				s.Score = &score
			}
			return nil
		},
		ListByTemplateFn: func(ctx context.Context, templateID string, status models.SessionStatus) ([]models.InterviewSession, error) {
			return nil, nil
		},
	}

	templateRepo := &mockTemplateRepo{
		GetByIDFn: func(ctx context.Context, id string) (*models.InterviewTemplate, error) {
			if f.template != nil && f.template.ID == id {
				return f.template, nil
			}
			return nil, utils.ErrNotFound
		},
	}

	profileRepo := &mockProfileRepo{
		GetByUserIDFn: func(ctx context.Context, userID string) (*models.CandidateProfile, error) {
			return nil, utils.ErrNotFound
		},
	}

	transcript := NewTranscriptService(f.turns)
	questions := &staticQuestions{question: "What was the hardest bug you have shipped?"}
	reportsSvc := newReportServiceForTest(f.reports, f.turns, sessionRepo, failingLLM())

	f.svc = NewSessionService(sessionRepo, templateRepo, profileRepo, transcript, questions, reportsSvc, nil)
	return f
}

func TestSessionService_Start_WithoutTemplate(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	res, err := f.svc.Start(ctx, "u1", StartInput{Role: "Backend Engineer", Experience: "3 years"})
	require.NoError(t, err)

	assert.Equal(t, models.SessionActive, res.Session.Status)
	assert.Nil(t, res.Session.EndTime)
	assert.Equal(t, GenericGreeting, res.FirstQuestion)

	turns, err := f.turns.ListBySession(ctx, res.Session.ID)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, models.TurnInterviewer, turns[0].Role)
	assert.Equal(t, GenericGreeting, turns[0].Text)
	assert.Equal(t, int64(1), turns[0].Seq)
}

func TestSessionService_Start_WithTemplateSeedQuestion(t *testing.T) {
	f := newSessionFixture(t)
	f.template = &models.InterviewTemplate{
		ID:        "tpl-1",
		Role:      "Backend Engineer",
		Questions: datatypes.JSON(`["Why do you want this role?","Describe a hard problem."]`),
	}
	ctx := context.Background()

	res, err := f.svc.Start(ctx, "u1", StartInput{TemplateID: "tpl-1"})
	require.NoError(t, err)
	assert.Equal(t, "Why do you want this role?", res.FirstQuestion)
	require.NotNil(t, res.Session.TemplateID)
	assert.Equal(t, "tpl-1", *res.Session.TemplateID)
}

func TestSessionService_Start_Validation(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	t.Run("missing template and role", func(t *testing.T) {
		_, err := f.svc.Start(ctx, "u1", StartInput{})
		require.Error(t, err)
		assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
	})

	t.Run("unknown template", func(t *testing.T) {
		_, err := f.svc.Start(ctx, "u1", StartInput{TemplateID: "nope"})
		require.Error(t, err)
		assert.True(t, utils.IsCode(err, utils.CodeNotFound))
	})
}

func TestSessionService_SubmitAnswer_AdvancesInterview(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	res, err := f.svc.Start(ctx, "u1", StartInput{Role: "Backend Engineer", Experience: "3 years"})
	require.NoError(t, err)

	sub, err := f.svc.SubmitAnswer(ctx, res.Session.ID, "I have built APIs in Go.", false)
	require.NoError(t, err)
	assert.Nil(t, sub.Completion)
	assert.Equal(t, "What was the hardest bug you have shipped?", sub.NextQuestion)

	turns, err := f.turns.ListBySession(ctx, res.Session.ID)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, models.TurnCandidate, turns[1].Role)
	assert.Equal(t, models.TurnInterviewer, turns[2].Role)
	for i, tn := range turns {
		assert.Equal(t, int64(i+1), tn.Seq)
	}
}

func TestSessionService_SubmitAnswer_UnknownSessionAppendsNothing(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitAnswer(ctx, "missing", "hello", false)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))

	turns, err := f.turns.ListBySession(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestSessionService_SubmitAnswer_CompletedSessionAppendsNothing(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	res, err := f.svc.Start(ctx, "u1", StartInput{Role: "Backend Engineer", Experience: "3 years"})
	require.NoError(t, err)

	_, err = f.svc.End(ctx, res.Session.ID)
	require.NoError(t, err)

	before, err := f.turns.ListBySession(ctx, res.Session.ID)
	require.NoError(t, err)

	_, err = f.svc.SubmitAnswer(ctx, res.Session.ID, "too late", false)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidState))

	after, err := f.turns.ListBySession(ctx, res.Session.ID)
	require.NoError(t, err)
	assert.Len(t, after, len(before))
}

func TestSessionService_SubmitAnswer_LastAnswerCompletes(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	res, err := f.svc.Start(ctx, "u1", StartInput{Role: "Backend Engineer", Experience: "3 years"})
	require.NoError(t, err)

	sub, err := f.svc.SubmitAnswer(ctx, res.Session.ID, "That is all from me.", true)
	require.NoError(t, err)
	require.NotNil(t, sub.Completion)
	assert.NotEmpty(t, sub.Completion.ReportID)
	assert.Equal(t, 85.22, sub.Completion.OverallScore)

	sess, err := f.svc.Get(ctx, res.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, sess.Status)
	require.NotNil(t, sess.EndTime)
	require.NotNil(t, sess.Score)
	assert.Equal(t, 85.22, *sess.Score)
}

func TestSessionService_End_IsIdempotent(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	res, err := f.svc.Start(ctx, "u1", StartInput{Role: "Backend Engineer", Experience: "3 years"})
	require.NoError(t, err)

	first, err := f.svc.End(ctx, res.Session.ID)
	require.NoError(t, err)

	sess, err := f.svc.Get(ctx, res.Session.ID)
	require.NoError(t, err)
	endTime := sess.EndTime
	require.NotNil(t, endTime)

	second, err := f.svc.End(ctx, res.Session.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ReportID, second.ReportID)
	assert.Equal(t, 1, f.reports.inserts)

	sess, err = f.svc.Get(ctx, res.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, endTime, sess.EndTime)
}

func TestSessionService_End_UnknownSession(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.svc.End(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestSessionService_End_PendingSessionRejected(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.mu.Lock()
	f.sessions["s-pending"] = &models.InterviewSession{
		ID:     "s-pending",
		UserID: "u1",
		Status: models.SessionPending,
	}
	f.mu.Unlock()

	_, err := f.svc.End(ctx, "s-pending")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidState))
}

func TestSessionService_SubmitAnswer_ConcurrentAnswersSerialized(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	res, err := f.svc.Start(ctx, "u1", StartInput{Role: "Backend Engineer", Experience: "3 years"})
	require.NoError(t, err)

	const writers = 6
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.SubmitAnswer(ctx, res.Session.ID, "concurrent answer", false)
		}(i)
	}
	wg.Wait()

	for i := 0; i < writers; i++ {
		require.NoError(t, errs[i])
	}

	turns, err := f.turns.ListBySession(ctx, res.Session.ID)
	require.NoError(t, err)
	// opening question + one answer and one follow-up per submit
	require.Len(t, turns, 1+2*writers)
	seen := map[int64]bool{}
	for i, tn := range turns {
		assert.Equal(t, int64(i+1), tn.Seq)
		assert.False(t, seen[tn.Seq], "duplicate seq %d", tn.Seq)
		seen[tn.Seq] = true
	}
}

func TestSessionService_SubmitAnswer_AppendFailureSurfaces(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	res, err := f.svc.Start(ctx, "u1", StartInput{Role: "Backend Engineer", Experience: "3 years"})
	require.NoError(t, err)

	f.turns.appendErr = errors.New("mongo unavailable")
	_, err = f.svc.SubmitAnswer(ctx, res.Session.ID, "answer", false)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInternal))
}
