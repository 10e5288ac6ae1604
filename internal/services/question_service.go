package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/intervuehq/intervue/internal/models"
	"github.com/intervuehq/intervue/internal/providers/llm"
	"github.com/sirupsen/logrus"
)

// FallbackQuestion is returned whenever the generation collaborator fails or
// produces nothing, so the interview loop never stalls on the candidate.
const FallbackQuestion = "Could you elaborate on that? Walk me through a specific example from your experience."

// historyWindow bounds how many trailing turns go into the prompt.
const historyWindow = 12

// resumeExcerptLimit bounds how much resume text goes into the prompt.
const resumeExcerptLimit = 1500

// QuestionContext is the candidate/job context a question is generated from.
type QuestionContext struct {
	CandidateName  string
	Role           string
	Experience     string
	JobDescription string
	Rules          string
	ResumeText     string
}

// QuestionService produces the next interview question. It never returns an
// error: collaborator failures degrade to FallbackQuestion, which the caller
// records as a normal interviewer turn.
type QuestionService interface {
	NextQuestion(ctx context.Context, qc QuestionContext, history []models.Turn) string
}

type questionService struct {
	provider llm.Provider
	timeout  time.Duration
	log      *logrus.Logger
}

func NewQuestionService(provider llm.Provider, timeout time.Duration, log *logrus.Logger) QuestionService {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log == nil {
		log = logrus.New()
	}
	return &questionService{provider: provider, timeout: timeout, log: log}
}

func (s *questionService) NextQuestion(ctx context.Context, qc QuestionContext, history []models.Turn) string {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt := buildQuestionPrompt(qc, history)

	text, err := s.provider.Generate(ctx, prompt)
	if err != nil {
		s.log.WithError(err).Warn("question generation failed, using fallback")
		return FallbackQuestion
	}

	text = strings.TrimSpace(text)
	if text == "" {
		s.log.Warn("question generation returned empty output, using fallback")
		return FallbackQuestion
	}
	return text
}

func buildQuestionPrompt(qc QuestionContext, history []models.Turn) string {
	var b strings.Builder

	b.WriteString("You are a professional job interviewer. Ask exactly one concise follow-up question. Reply with the question only, no preamble.\n\n")

	if qc.Role != "" {
		fmt.Fprintf(&b, "Position: %s\n", qc.Role)
	}
	if qc.Experience != "" {
		fmt.Fprintf(&b, "Expected experience: %s\n", qc.Experience)
	}
	if qc.JobDescription != "" {
		fmt.Fprintf(&b, "Job description: %s\n", qc.JobDescription)
	}
	if qc.Rules != "" {
		fmt.Fprintf(&b, "Interview rules: %s\n", qc.Rules)
	}
	if qc.CandidateName != "" {
		fmt.Fprintf(&b, "Candidate: %s\n", qc.CandidateName)
	}
	if qc.ResumeText != "" {
		excerpt := qc.ResumeText
		if len(excerpt) > resumeExcerptLimit {
			excerpt = excerpt[:resumeExcerptLimit]
		}
		fmt.Fprintf(&b, "Resume excerpt:\n%s\n", excerpt)
	}

	if len(history) > 0 {
		start := 0
		if len(history) > historyWindow {
			start = len(history) - historyWindow
		}
		b.WriteString("\nConversation so far:\n")
		for _, t := range history[start:] {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Text)
		}
	}

	b.WriteString("\nNext question:")
	return b.String()
}
