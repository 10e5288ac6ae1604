package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/intervuehq/intervue/internal/cache"
	"github.com/intervuehq/intervue/internal/models"
	"github.com/intervuehq/intervue/internal/providers/llm"
	mongorepo "github.com/intervuehq/intervue/internal/repositories/mongo"
	pgrepo "github.com/intervuehq/intervue/internal/repositories/postgres"
	"github.com/intervuehq/intervue/internal/utils"
	"github.com/sirupsen/logrus"
)

// DefaultQAAssessment is the per-answer verdict used when the analysis
// collaborator supplies none.
const DefaultQAAssessment = "Strong understanding and clear communication"

const reportCacheTTL = 15 * time.Minute

// QAPair is one question/answer from the ledger, paired by position.
type QAPair struct {
	Question string
	Answer   string
}

type CandidateSummary struct {
	UserID       string  `json:"user_id"`
	Name         string  `json:"name"`
	ReportID     string  `json:"report_id"`
	OverallScore float64 `json:"overall_score"`
}

type RankedCandidate struct {
	UserID    string `json:"user_id"`
	Rank      int    `json:"rank"`
	Rationale string `json:"rationale"`
}

// Comparison is the compare-candidates payload. When the ranking collaborator
// fails, Ranked is empty and RankingError explains why; Candidates always
// carries the raw summaries.
type Comparison struct {
	TemplateID   string             `json:"template_id"`
	Role         string             `json:"role"`
	Candidates   []CandidateSummary `json:"candidates"`
	Ranked       []RankedCandidate  `json:"ranked,omitempty"`
	RankingError string             `json:"ranking_error,omitempty"`
}

type ReportService interface {
	// Generate builds and persists the session's report, at most once:
	// repeated calls return the already-persisted report unchanged.
	Generate(ctx context.Context, sessionID string) (*models.Report, error)
	GetForUser(ctx context.Context, userID, reportID string) (*models.Report, error)
	ListForUser(ctx context.Context, userID string) ([]models.Report, error)
	CompareCandidates(ctx context.Context, templateID string) (*Comparison, error)
}

type reportService struct {
	reports   mongorepo.ReportRepository
	turns     mongorepo.TurnRepository
	sessions  pgrepo.SessionRepository
	templates pgrepo.TemplateRepository
	users     pgrepo.UserRepository

	provider llm.Provider
	cache    cache.Cache
	timeout  time.Duration
	log      *logrus.Logger

	locks keyedMutex
}

func NewReportService(
	reports mongorepo.ReportRepository,
	turns mongorepo.TurnRepository,
	sessions pgrepo.SessionRepository,
	templates pgrepo.TemplateRepository,
	users pgrepo.UserRepository,
	provider llm.Provider,
	c cache.Cache,
	timeout time.Duration,
	log *logrus.Logger,
) ReportService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = logrus.New()
	}
	return &reportService{
		reports:   reports,
		turns:     turns,
		sessions:  sessions,
		templates: templates,
		users:     users,
		provider:  provider,
		cache:     c,
		timeout:   timeout,
		log:       log,
	}
}

func (s *reportService) Generate(ctx context.Context, sessionID string) (*models.Report, error) {
	const op = "ReportService.Generate"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	// Serializes the check-then-insert below; the unique session_id index on
	// the report collection is the backstop.
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	existing, err := s.reports.GetBySessionID(ctx, sessionID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeInternal, op, "failed to look up existing report", err)
	}

	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}

	role, jobDesc := sess.Role, sess.Experience
	if sess.TemplateID != nil {
		if tpl, terr := s.templates.GetByID(ctx, *sess.TemplateID); terr == nil {
			role, jobDesc = tpl.Role, tpl.Description
		}
	}

	turns, err := s.turns.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load transcript", err)
	}
	pairs := pairTurns(turns)

	assessment, qaTexts := s.assess(ctx, role, jobDesc, pairs)
	overall := overallScore(assessment)

	details := make([]models.QADetail, len(pairs))
	for i, p := range pairs {
		text := DefaultQAAssessment
		if i < len(qaTexts) && strings.TrimSpace(qaTexts[i]) != "" {
			text = qaTexts[i]
		}
		details[i] = models.QADetail{Question: p.Question, Answer: p.Answer, Assessment: text}
	}

	report := &models.Report{
		SessionID:      sessionID,
		UserID:         sess.UserID,
		Role:           role,
		JobDescription: jobDesc,
		OverallScore:   overall,
		Technical:      assessment.Technical,
		Communication:  assessment.Communication,
		Personality:    assessment.Personality,
		QADetails:      details,
		Date:           time.Now().UTC(),
	}

	// A half-written report would break the one-report-per-session
	// invariant, so a failed insert is fatal to the caller.
	id, err := s.reports.Insert(ctx, report)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to persist report", err)
	}

	if err := s.sessions.SetScore(ctx, sessionID, overall); err != nil {
		// Reconciled by read-repair in GetForUser.
		s.log.WithError(err).WithField("session_id", sessionID).Error("failed to set session score")
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, "report:"+id, report, reportCacheTTL)
	}
	return report, nil
}

func (s *reportService) GetForUser(ctx context.Context, userID, reportID string) (*models.Report, error) {
	const op = "ReportService.GetForUser"

	if userID == "" || reportID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and report_id are required", nil)
	}

	var report *models.Report
	if s.cache != nil {
		var cached models.Report
		if hit, _ := s.cache.GetJSON(ctx, "report:"+reportID, &cached); hit {
			report = &cached
		}
	}
	if report == nil {
		r, err := s.reports.GetByID(ctx, reportID)
		if err != nil {
			if errors.Is(err, utils.ErrNotFound) {
				return nil, utils.E(utils.CodeNotFound, op, "report not found", err)
			}
			return nil, utils.E(utils.CodeInternal, op, "failed to get report", err)
		}
		report = r
		if s.cache != nil {
			_ = s.cache.SetJSON(ctx, "report:"+reportID, report, reportCacheTTL)
		}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to get user", err)
	}
	if user.UserType != models.UserTypeOrgAdmin && report.UserID != userID {
		return nil, utils.E(utils.CodeForbidden, op, "you do not have permission to view this report", nil)
	}

	s.repairScore(ctx, report)
	return report, nil
}

// repairScore backfills session.score when the report insert landed but the
// score update did not.
func (s *reportService) repairScore(ctx context.Context, report *models.Report) {
	sess, err := s.sessions.GetByID(ctx, report.SessionID)
	if err != nil || sess.Status != models.SessionCompleted || sess.Score != nil {
		return
	}
	if err := s.sessions.SetScore(ctx, report.SessionID, report.OverallScore); err != nil {
		s.log.WithError(err).WithField("session_id", report.SessionID).Warn("score read-repair failed")
	}
}

func (s *reportService) ListForUser(ctx context.Context, userID string) ([]models.Report, error) {
	const op = "ReportService.ListForUser"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "user not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get user", err)
	}

	ids := []string{userID}
	if user.UserType == models.UserTypeOrgAdmin && user.OrganizationID != nil {
		members, merr := s.users.ListByOrganization(ctx, *user.OrganizationID)
		if merr != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to list organization members", merr)
		}
		ids = ids[:0]
		for _, m := range members {
			ids = append(ids, m.ID)
		}
	}

	out, err := s.reports.ListByUserIDs(ctx, ids)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list reports", err)
	}
	return out, nil
}

func (s *reportService) CompareCandidates(ctx context.Context, templateID string) (*Comparison, error) {
	const op = "ReportService.CompareCandidates"

	if templateID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "template_id is required", nil)
	}

	tpl, err := s.templates.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "template not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get template", err)
	}

	sessions, err := s.sessions.ListByTemplate(ctx, templateID, models.SessionCompleted)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list sessions", err)
	}

	cmp := &Comparison{TemplateID: templateID, Role: tpl.Role, Candidates: []CandidateSummary{}}
	if len(sessions) == 0 {
		return cmp, nil
	}

	sessionIDs := make([]string, len(sessions))
	for i, ss := range sessions {
		sessionIDs[i] = ss.ID
	}
	reports, err := s.reports.ListBySessionIDs(ctx, sessionIDs)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list reports", err)
	}

	for _, r := range reports {
		name := ""
		if u, uerr := s.users.GetByID(ctx, r.UserID); uerr == nil {
			name = u.Name
		}
		cmp.Candidates = append(cmp.Candidates, CandidateSummary{
			UserID:       r.UserID,
			Name:         name,
			ReportID:     r.ID.Hex(),
			OverallScore: r.OverallScore,
		})
	}
	if len(cmp.Candidates) == 0 {
		return cmp, nil
	}

	ranked, rerr := s.rankCandidates(ctx, tpl.Role, tpl.Description, cmp.Candidates)
	if rerr != nil {
		s.log.WithError(rerr).Warn("candidate ranking failed, returning raw summaries")
		cmp.RankingError = "candidate ranking unavailable"
		return cmp, nil
	}
	cmp.Ranked = ranked
	return cmp, nil
}

func (s *reportService) rankCandidates(ctx context.Context, role, description string, candidates []CandidateSummary) ([]RankedCandidate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var b strings.Builder
	b.WriteString("Rank these interview candidates for the position below, best first.\n")
	fmt.Fprintf(&b, "Position: %s\n", role)
	if description != "" {
		fmt.Fprintf(&b, "Description: %s\n", description)
	}
	b.WriteString("Candidates:\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "- user_id=%s name=%q overall_score=%.2f\n", c.UserID, c.Name, c.OverallScore)
	}
	b.WriteString("\nRespond with a JSON array, one object per candidate: " +
		`[{"user_id": "...", "rank": 1, "rationale": "..."}]`)

	raw, err := s.provider.GenerateJSON(ctx, b.String())
	if err != nil {
		return nil, err
	}

	var ranked []RankedCandidate
	if err := json.Unmarshal([]byte(raw), &ranked); err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, errors.New("empty ranking")
	}
	return ranked, nil
}

// pairTurns walks the ledger two turns at a time: position decides pairing,
// not the role label, so a leading or trailing odd turn never drops an
// answer. A trailing lone question pairs with an empty answer.
func pairTurns(turns []models.Turn) []QAPair {
	var pairs []QAPair
	for i := 0; i < len(turns); i += 2 {
		p := QAPair{Question: turns[i].Text}
		if i+1 < len(turns) {
			p.Answer = turns[i+1].Text
		}
		pairs = append(pairs, p)
	}
	return pairs
}

type metricScore struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type assessmentPayload struct {
	Technical     []metricScore `json:"technical_metrics"`
	Communication []metricScore `json:"communication_metrics"`
	Personality   []metricScore `json:"personality_metrics"`
	QAAssessments []string      `json:"qa_assessments"`
}

// assess asks the analysis collaborator for the structured metric set. Any
// failure (transport, malformed JSON, missing group, out-of-range value)
// degrades to models.DefaultAssessment; a report is always producible.
func (s *reportService) assess(ctx context.Context, role, jobDesc string, pairs []QAPair) (models.Assessment, []string) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.provider.GenerateJSON(ctx, buildAssessmentPrompt(role, jobDesc, pairs))
	if err != nil {
		s.log.WithError(err).Warn("assessment generation failed, using default metric set")
		return models.DefaultAssessment(), nil
	}

	var payload assessmentPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		s.log.WithError(err).Warn("assessment response unparseable, using default metric set")
		return models.DefaultAssessment(), nil
	}
	if !validGroup(payload.Technical) || !validGroup(payload.Communication) || !validGroup(payload.Personality) {
		s.log.Warn("assessment response incomplete or out of range, using default metric set")
		return models.DefaultAssessment(), nil
	}

	return models.Assessment{
		Technical:     colorize(payload.Technical, models.ColorTechnical),
		Communication: colorize(payload.Communication, models.ColorCommunication),
		Personality:   colorize(payload.Personality, models.ColorPersonality),
	}, payload.QAAssessments
}

func buildAssessmentPrompt(role, jobDesc string, pairs []QAPair) string {
	var b strings.Builder

	b.WriteString("You are an interview assessor. Score this interview strictly as JSON.\n")
	if role != "" {
		fmt.Fprintf(&b, "Position: %s\n", role)
	}
	if jobDesc != "" {
		fmt.Fprintf(&b, "Job description: %s\n", jobDesc)
	}

	b.WriteString("\nTranscript:\n")
	for i, p := range pairs {
		fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n", i+1, p.Question, i+1, p.Answer)
	}

	b.WriteString("\nRespond with exactly this JSON shape, values 0-100:\n" +
		`{"technical_metrics":[{"name":"Technical Knowledge","value":0},{"name":"Problem Solving","value":0},{"name":"Code Quality","value":0}],` +
		`"communication_metrics":[{"name":"Clarity of Expression","value":0},{"name":"Articulation","value":0},{"name":"Active Listening","value":0}],` +
		`"personality_metrics":[{"name":"Confidence","value":0},{"name":"Adaptability","value":0},{"name":"Cultural Fit","value":0}],` +
		`"qa_assessments":["one short assessment per question, in order"]}`)
	return b.String()
}

func validGroup(ms []metricScore) bool {
	if len(ms) != 3 {
		return false
	}
	for _, m := range ms {
		if m.Name == "" || m.Value < 0 || m.Value > 100 {
			return false
		}
	}
	return true
}

func colorize(ms []metricScore, color string) []models.Metric {
	out := make([]models.Metric, len(ms))
	for i, m := range ms {
		out[i] = models.Metric{Name: m.Name, Value: m.Value, Color: color}
	}
	return out
}

// overallScore is the mean of the nine metric values, kept to two decimals.
func overallScore(a models.Assessment) float64 {
	var sum float64
	var n int
	for _, group := range [][]models.Metric{a.Technical, a.Communication, a.Personality} {
		for _, m := range group {
			sum += m.Value
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Round(sum/float64(n)*100) / 100
}
