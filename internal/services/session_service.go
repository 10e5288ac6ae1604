package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/intervuehq/intervue/internal/models"
	pgrepo "github.com/intervuehq/intervue/internal/repositories/postgres"
	"github.com/intervuehq/intervue/internal/utils"
	"github.com/sirupsen/logrus"
)

// GenericGreeting opens untemplated sessions.
const GenericGreeting = "Tell me about yourself and your experience in this role."

type StartInput struct {
	TemplateID string
	Role       string
	Experience string
	UseWhisper bool
}

type StartResult struct {
	Session       *models.InterviewSession
	FirstQuestion string
}

// Completion is the payload of a finished interview: the report is already
// persisted when a Completion is returned.
type Completion struct {
	ReportID     string
	OverallScore float64
}

type SubmitResult struct {
	NextQuestion string
	Completion   *Completion
}

// SessionService is the interview state machine: sessions are created
// straight into active, loop through submit-answer, and complete exactly
// once. Completing generates the report synchronously.
type SessionService interface {
	Start(ctx context.Context, userID string, in StartInput) (*StartResult, error)
	SubmitAnswer(ctx context.Context, sessionID, answer string, isLast bool) (*SubmitResult, error)
	End(ctx context.Context, sessionID string) (*Completion, error)
	Get(ctx context.Context, sessionID string) (*models.InterviewSession, error)
}

type sessionService struct {
	sessions   pgrepo.SessionRepository
	templates  pgrepo.TemplateRepository
	profiles   pgrepo.ProfileRepository
	transcript TranscriptService
	questions  QuestionService
	reports    ReportService
	log        *logrus.Logger

	locks keyedMutex
}

func NewSessionService(
	sessions pgrepo.SessionRepository,
	templates pgrepo.TemplateRepository,
	profiles pgrepo.ProfileRepository,
	transcript TranscriptService,
	questions QuestionService,
	reports ReportService,
	log *logrus.Logger,
) SessionService {
	if log == nil {
		log = logrus.New()
	}
	return &sessionService{
		sessions:   sessions,
		templates:  templates,
		profiles:   profiles,
		transcript: transcript,
		questions:  questions,
		reports:    reports,
		log:        log,
	}
}

func (s *sessionService) Start(ctx context.Context, userID string, in StartInput) (*StartResult, error) {
	const op = "SessionService.Start"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if in.TemplateID == "" && (in.Role == "" || in.Experience == "") {
		return nil, utils.E(utils.CodeInvalidArgument, op, "missing template_id or role/experience details", nil)
	}

	firstQuestion := GenericGreeting
	var templateID *string
	if in.TemplateID != "" {
		tpl, err := s.templates.GetByID(ctx, in.TemplateID)
		if err != nil {
			if errors.Is(err, utils.ErrNotFound) {
				return nil, utils.E(utils.CodeNotFound, op, "template not found", err)
			}
			return nil, utils.E(utils.CodeInternal, op, "failed to get template", err)
		}
		templateID = &tpl.ID
		if qs := seedQuestions(tpl); len(qs) > 0 {
			firstQuestion = qs[0]
		}
	}

	now := time.Now().UTC()
	sess := &models.InterviewSession{
		ID:         uuid.NewString(),
		UserID:     userID,
		TemplateID: templateID,
		Status:     models.SessionActive,
		Role:       in.Role,
		Experience: in.Experience,
		UseWhisper: in.UseWhisper,
		StartTime:  now,
		CreatedAt:  now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create session", err)
	}

	if _, err := s.transcript.Append(ctx, sess.ID, models.TurnInterviewer, firstQuestion); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to record opening question", err)
	}

	return &StartResult{Session: sess, FirstQuestion: firstQuestion}, nil
}

func (s *sessionService) SubmitAnswer(ctx context.Context, sessionID, answer string, isLast bool) (*SubmitResult, error) {
	const op = "SessionService.SubmitAnswer"

	if sessionID == "" || answer == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id and answer are required", nil)
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	sess, err := s.getActive(ctx, op, sessionID)
	if err != nil {
		return nil, err
	}

	if _, err := s.transcript.Append(ctx, sessionID, models.TurnCandidate, answer); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to record answer", err)
	}

	if isLast {
		completion, cerr := s.complete(ctx, sess)
		if cerr != nil {
			return nil, cerr
		}
		return &SubmitResult{Completion: completion}, nil
	}

	history, err := s.transcript.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load transcript", err)
	}

	next := s.questions.NextQuestion(ctx, s.questionContext(ctx, sess), history)
	if _, err := s.transcript.Append(ctx, sessionID, models.TurnInterviewer, next); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to record next question", err)
	}

	return &SubmitResult{NextQuestion: next}, nil
}

func (s *sessionService) End(ctx context.Context, sessionID string) (*Completion, error) {
	const op = "SessionService.End"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "interview session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}
	if sess.Status == models.SessionPending {
		return nil, utils.E(utils.CodeInvalidState, op, "interview session was never started", nil)
	}

	// Completed sessions fall through: report generation is idempotent, so a
	// second End returns the same report.
	return s.complete(ctx, sess)
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (*models.InterviewSession, error) {
	const op = "SessionService.Get"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "interview session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}
	return sess, nil
}

func (s *sessionService) getActive(ctx context.Context, op, sessionID string) (*models.InterviewSession, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "interview session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}
	if sess.Status != models.SessionActive {
		return nil, utils.E(utils.CodeInvalidState, op, "interview session is not active", nil)
	}
	return sess, nil
}

func (s *sessionService) complete(ctx context.Context, sess *models.InterviewSession) (*Completion, error) {
	const op = "SessionService.complete"

	if sess.Status == models.SessionActive {
		if err := s.sessions.Complete(ctx, sess.ID, time.Now().UTC()); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to complete session", err)
		}
		sess.Status = models.SessionCompleted
	}

	report, err := s.reports.Generate(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	return &Completion{ReportID: report.ID.Hex(), OverallScore: report.OverallScore}, nil
}

func (s *sessionService) questionContext(ctx context.Context, sess *models.InterviewSession) QuestionContext {
	qc := QuestionContext{Role: sess.Role, Experience: sess.Experience}

	if sess.TemplateID != nil {
		if tpl, err := s.templates.GetByID(ctx, *sess.TemplateID); err == nil {
			qc.Role = tpl.Role
			qc.JobDescription = tpl.Description
			qc.Rules = tpl.Rules
		}
	}

	// Resume context is best effort; candidates without a profile still get
	// generated questions.
	if s.profiles != nil {
		if p, err := s.profiles.GetByUserID(ctx, sess.UserID); err == nil {
			qc.CandidateName = p.FullName
			qc.ResumeText = p.ResumeText
		}
	}
	return qc
}

func seedQuestions(t *models.InterviewTemplate) []string {
	if len(t.Questions) == 0 {
		return nil
	}
	var qs []string
	if err := json.Unmarshal(t.Questions, &qs); err != nil {
		return nil
	}
	return qs
}
