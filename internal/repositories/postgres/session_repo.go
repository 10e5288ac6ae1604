package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/intervuehq/intervue/internal/models"
	"github.com/intervuehq/intervue/internal/utils"
	"gorm.io/gorm"
)

type SessionRepository interface {
	Create(ctx context.Context, s *models.InterviewSession) error
	GetByID(ctx context.Context, id string) (*models.InterviewSession, error)
	Complete(ctx context.Context, id string, endedAt time.Time) error
	SetScore(ctx context.Context, id string, score float64) error
	ListByTemplate(ctx context.Context, templateID string, status models.SessionStatus) ([]models.InterviewSession, error)
}

type sessionRepo struct {
	db *gorm.DB
}

func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, s *models.InterviewSession) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*models.InterviewSession, error) {
	var s models.InterviewSession
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &s, err
}

// Complete flips an active session to completed. The status guard keeps the
// transition monotonic: a completed session is never re-stamped.
func (r *sessionRepo) Complete(ctx context.Context, id string, endedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.InterviewSession{}).
		Where("id = ? AND status = ?", id, models.SessionActive).
		Updates(map[string]any{
			"status":   models.SessionCompleted,
			"end_time": endedAt.UTC(),
		}).Error
}

func (r *sessionRepo) SetScore(ctx context.Context, id string, score float64) error {
	return r.db.WithContext(ctx).
		Model(&models.InterviewSession{}).
		Where("id = ?", id).
		Update("score", score).Error
}

func (r *sessionRepo) ListByTemplate(ctx context.Context, templateID string, status models.SessionStatus) ([]models.InterviewSession, error) {
	var rows []models.InterviewSession
	q := r.db.WithContext(ctx).Where("template_id = ?", templateID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("start_time ASC").Find(&rows).Error
	return rows, err
}
