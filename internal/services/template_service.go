package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/intervuehq/intervue/internal/cache"
	"github.com/intervuehq/intervue/internal/models"
	pgrepo "github.com/intervuehq/intervue/internal/repositories/postgres"
	"github.com/intervuehq/intervue/internal/utils"
	"gorm.io/datatypes"
)

const templateListCacheKey = "templates:all"
const templateListCacheTTL = 5 * time.Minute

type CreateTemplateInput struct {
	Name        string
	Role        string
	Description string
	Rules       string
	Questions   []string
}

type TemplateService interface {
	Create(ctx context.Context, in CreateTemplateInput) (*models.InterviewTemplate, error)
	Get(ctx context.Context, id string) (*models.InterviewTemplate, error)
	List(ctx context.Context) ([]models.InterviewTemplate, error)
}

type templateService struct {
	templates pgrepo.TemplateRepository
	cache     cache.Cache
}

func NewTemplateService(templates pgrepo.TemplateRepository, c cache.Cache) TemplateService {
	return &templateService{templates: templates, cache: c}
}

func (s *templateService) Create(ctx context.Context, in CreateTemplateInput) (*models.InterviewTemplate, error) {
	const op = "TemplateService.Create"

	if in.Name == "" || in.Role == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "name and role are required", nil)
	}

	questions, err := json.Marshal(in.Questions)
	if err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "invalid questions list", err)
	}

	t := &models.InterviewTemplate{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Role:        in.Role,
		Description: in.Description,
		Rules:       in.Rules,
		Questions:   datatypes.JSON(questions),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.templates.Create(ctx, t); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create template", err)
	}

	if s.cache != nil {
		_ = s.cache.Del(ctx, templateListCacheKey)
	}
	return t, nil
}

func (s *templateService) Get(ctx context.Context, id string) (*models.InterviewTemplate, error) {
	const op = "TemplateService.Get"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "template id is required", nil)
	}

	t, err := s.templates.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "template not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get template", err)
	}
	return t, nil
}

func (s *templateService) List(ctx context.Context) ([]models.InterviewTemplate, error) {
	const op = "TemplateService.List"

	if s.cache != nil {
		var cached []models.InterviewTemplate
		if hit, _ := s.cache.GetJSON(ctx, templateListCacheKey, &cached); hit {
			return cached, nil
		}
	}

	rows, err := s.templates.List(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list templates", err)
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, templateListCacheKey, rows, templateListCacheTTL)
	}
	return rows, nil
}
