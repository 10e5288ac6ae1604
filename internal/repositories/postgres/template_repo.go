package postgres

import (
	"context"
	"errors"

	"github.com/intervuehq/intervue/internal/models"
	"github.com/intervuehq/intervue/internal/utils"
	"gorm.io/gorm"
)

type TemplateRepository interface {
	Create(ctx context.Context, t *models.InterviewTemplate) error
	GetByID(ctx context.Context, id string) (*models.InterviewTemplate, error)
	List(ctx context.Context) ([]models.InterviewTemplate, error)
}

type templateRepo struct {
	db *gorm.DB
}

func NewTemplateRepo(db *gorm.DB) TemplateRepository {
	return &templateRepo{db: db}
}

func (r *templateRepo) Create(ctx context.Context, t *models.InterviewTemplate) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *templateRepo) GetByID(ctx context.Context, id string) (*models.InterviewTemplate, error) {
	var t models.InterviewTemplate
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &t, err
}

func (r *templateRepo) List(ctx context.Context) ([]models.InterviewTemplate, error) {
	var rows []models.InterviewTemplate
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error
	return rows, err
}
