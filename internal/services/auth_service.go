package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/intervuehq/intervue/internal/models"
	pgrepo "github.com/intervuehq/intervue/internal/repositories/postgres"
	"github.com/intervuehq/intervue/internal/utils"
)

type RegisterInput struct {
	Email        string
	Password     string
	Name         string
	UserType     models.UserType
	Organization string
}

type AuthResult struct {
	User         *models.User
	Organization *models.Organization
	Token        string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Profile(ctx context.Context, userID string) (*AuthResult, error)
}

type authService struct {
	users pgrepo.UserRepository
	orgs  pgrepo.OrganizationRepository
}

func NewAuthService(users pgrepo.UserRepository, orgs pgrepo.OrganizationRepository) AuthService {
	return &authService{users: users, orgs: orgs}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	const op = "AuthService.Register"

	if in.Email == "" || in.Password == "" || in.UserType == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "email, password, and user_type are required", nil)
	}
	if in.UserType != models.UserTypeCandidate && in.UserType != models.UserTypeOrgAdmin {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_type must be candidate or org_admin", nil)
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, utils.E(utils.CodeConflict, op, "email already registered", nil)
	} else if !errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeInternal, op, "failed to check email", err)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to hash password", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		UserType:     in.UserType,
		CreatedAt:    time.Now().UTC(),
	}

	var org *models.Organization
	if in.UserType == models.UserTypeOrgAdmin && in.Organization != "" {
		org, err = s.findOrCreateOrg(ctx, in.Organization)
		if err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to resolve organization", err)
		}
		user.OrganizationID = &org.ID
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create user", err)
	}

	token, err := utils.IssueToken(user.ID, string(user.UserType))
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to issue token", err)
	}
	return &AuthResult{User: user, Organization: org, Token: token}, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	const op = "AuthService.Login"

	if email == "" || password == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "email and password are required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeUnauthorized, op, "invalid email or password", nil)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get user", err)
	}

	if err := utils.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, utils.E(utils.CodeUnauthorized, op, "invalid email or password", nil)
	}

	token, err := utils.IssueToken(user.ID, string(user.UserType))
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to issue token", err)
	}

	res := &AuthResult{User: user, Token: token}
	if user.OrganizationID != nil {
		if org, oerr := s.orgs.GetByID(ctx, *user.OrganizationID); oerr == nil {
			res.Organization = org
		}
	}
	return res, nil
}

func (s *authService) Profile(ctx context.Context, userID string) (*AuthResult, error) {
	const op = "AuthService.Profile"

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

	res := &AuthResult{User: user}
	if user.OrganizationID != nil {
		if org, oerr := s.orgs.GetByID(ctx, *user.OrganizationID); oerr == nil {
			res.Organization = org
		}
	}
	return res, nil
}

func (s *authService) findOrCreateOrg(ctx context.Context, name string) (*models.Organization, error) {
	org, err := s.orgs.GetByName(ctx, name)
	if err == nil {
		return org, nil
	}
	if !errors.Is(err, utils.ErrNotFound) {
		return nil, err
	}

	org = &models.Organization{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if cerr := s.orgs.Create(ctx, org); cerr != nil {
		return nil, cerr
	}
	return org, nil
}
