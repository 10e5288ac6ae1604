package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/intervuehq/intervue/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestQuestionService_NextQuestion(t *testing.T) {
	ctx := context.Background()
	qc := QuestionContext{Role: "Backend Engineer", Experience: "3 years"}

	t.Run("returns trimmed provider output", func(t *testing.T) {
		provider := &mockLLM{
			GenerateFn: func(ctx context.Context, prompt string) (string, error) {
				return "  How do you handle schema migrations?\n", nil
			},
		}
		svc := NewQuestionService(provider, time.Second, nil)
		got := svc.NextQuestion(ctx, qc, nil)
		assert.Equal(t, "How do you handle schema migrations?", got)
	})

	t.Run("falls back on provider error", func(t *testing.T) {
		provider := &mockLLM{
			GenerateFn: func(ctx context.Context, prompt string) (string, error) {
				return "", errors.New("deadline exceeded")
			},
		}
		svc := NewQuestionService(provider, time.Second, nil)
		assert.Equal(t, FallbackQuestion, svc.NextQuestion(ctx, qc, nil))
	})

	t.Run("falls back on blank output", func(t *testing.T) {
		provider := &mockLLM{
			GenerateFn: func(ctx context.Context, prompt string) (string, error) {
				return "   \n", nil
			},
		}
		svc := NewQuestionService(provider, time.Second, nil)
		assert.Equal(t, FallbackQuestion, svc.NextQuestion(ctx, qc, nil))
	})
}

func TestBuildQuestionPrompt_HistoryWindow(t *testing.T) {
	history := make([]models.Turn, historyWindow+6)
	for i := range history {
		role := models.TurnInterviewer
		if i%2 == 1 {
			role = models.TurnCandidate
		}
		history[i] = models.Turn{Seq: int64(i + 1), Role: role, Text: "turn-" + strings.Repeat("x", i)}
	}

	prompt := buildQuestionPrompt(QuestionContext{Role: "Backend Engineer"}, history)

	// only the trailing window makes it into the prompt
	assert.NotContains(t, prompt, history[0].Text+"\n")
	assert.Contains(t, prompt, history[len(history)-1].Text)
	assert.Contains(t, prompt, "Position: Backend Engineer")
}

func TestBuildQuestionPrompt_ResumeExcerptBounded(t *testing.T) {
	long := strings.Repeat("r", resumeExcerptLimit*2)
	prompt := buildQuestionPrompt(QuestionContext{ResumeText: long}, nil)

	assert.Contains(t, prompt, long[:resumeExcerptLimit])
	assert.NotContains(t, prompt, long[:resumeExcerptLimit+1])
}
