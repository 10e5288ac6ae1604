package postgres

import (
	"context"
	"errors"

	"github.com/intervuehq/intervue/internal/models"
	"github.com/intervuehq/intervue/internal/utils"
	"gorm.io/gorm"
)

type OrganizationRepository interface {
	Create(ctx context.Context, o *models.Organization) error
	GetByID(ctx context.Context, id string) (*models.Organization, error)
	GetByName(ctx context.Context, name string) (*models.Organization, error)
}

type organizationRepo struct {
	db *gorm.DB
}

func NewOrganizationRepo(db *gorm.DB) OrganizationRepository {
	return &organizationRepo{db: db}
}

func (r *organizationRepo) Create(ctx context.Context, o *models.Organization) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *organizationRepo) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	var o models.Organization
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &o, err
}

func (r *organizationRepo) GetByName(ctx context.Context, name string) (*models.Organization, error) {
	var o models.Organization
	err := r.db.WithContext(ctx).Where("name = ?", name).Take(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &o, err
}
