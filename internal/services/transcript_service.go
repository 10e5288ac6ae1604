package services

import (
	"context"

	"github.com/intervuehq/intervue/internal/models"
	mongorepo "github.com/intervuehq/intervue/internal/repositories/mongo"
	"github.com/intervuehq/intervue/internal/utils"
)

// TranscriptService fronts the append-only turn ledger. Turns are ordered by
// their per-session sequence number; history reads are restartable and never
// consume anything.
type TranscriptService interface {
	Append(ctx context.Context, sessionID string, role models.TurnRole, text string) (*models.Turn, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.Turn, error)
}

type transcriptService struct {
	turns mongorepo.TurnRepository
}

func NewTranscriptService(turns mongorepo.TurnRepository) TranscriptService {
	return &transcriptService{turns: turns}
}

func (s *transcriptService) Append(ctx context.Context, sessionID string, role models.TurnRole, text string) (*models.Turn, error) {
	const op = "TranscriptService.Append"

	if sessionID == "" || text == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id and text are required", nil)
	}
	if role != models.TurnInterviewer && role != models.TurnCandidate {
		return nil, utils.E(utils.CodeInvalidArgument, op, "role must be interviewer or candidate", nil)
	}

	t, err := s.turns.Append(ctx, sessionID, role, text)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to append turn", err)
	}
	return t, nil
}

func (s *transcriptService) ListBySession(ctx context.Context, sessionID string) ([]models.Turn, error) {
	const op = "TranscriptService.ListBySession"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	out, err := s.turns.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list turns", err)
	}
	return out, nil
}
