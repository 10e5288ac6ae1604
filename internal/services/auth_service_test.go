package services

import (
	"context"
	"sync"
	"testing"

	"github.com/intervuehq/intervue/internal/models"
	"github.com/intervuehq/intervue/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	svc AuthService

	mu      sync.Mutex
	byEmail map[string]*models.User
	orgs    map[string]*models.Organization
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

	f := &authFixture{
		byEmail: map[string]*models.User{},
		orgs:    map[string]*models.Organization{},
	}

	users := &mockUserRepo{
		CreateFn: func(ctx context.Context, u *models.User) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.byEmail[u.Email] = u
			return nil
		},
		GetByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			u, ok := f.byEmail[email]
			if !ok {
				return nil, utils.ErrNotFound
			}
			return u, nil
		},
		GetByIDFn: func(ctx context.Context, id string) (*models.User, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			for _, u := range f.byEmail {
				if u.ID == id {
					return u, nil
				}
			}
			return nil, utils.ErrNotFound
		},
	}

	orgs := &mockOrgRepo{
		CreateFn: func(ctx context.Context, o *models.Organization) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.orgs[o.Name] = o
			return nil
		},
		GetByIDFn: func(ctx context.Context, id string) (*models.Organization, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			for _, o := range f.orgs {
				if o.ID == id {
					return o, nil
				}
			}
			return nil, utils.ErrNotFound
		},
		GetByNameFn: func(ctx context.Context, name string) (*models.Organization, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			o, ok := f.orgs[name]
			if !ok {
				return nil, utils.ErrNotFound
			}
			return o, nil
		},
	}

	f.svc = NewAuthService(users, orgs)
	return f
}

func TestAuthService_Register(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	t.Run("candidate gets token and no org", func(t *testing.T) {
		res, err := f.svc.Register(ctx, RegisterInput{
			Email:    "dev@example.com",
			Password: "hunter22",
			Name:     "Dev",
			UserType: models.UserTypeCandidate,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, res.Token)
		assert.Nil(t, res.Organization)
		assert.NotEqual(t, "hunter22", res.User.PasswordHash)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := f.svc.Register(ctx, RegisterInput{
			Email:    "dev@example.com",
			Password: "hunter22",
			UserType: models.UserTypeCandidate,
		})
		require.Error(t, err)
		assert.True(t, utils.IsCode(err, utils.CodeConflict))
	})

	t.Run("org admin creates organization once", func(t *testing.T) {
		first, err := f.svc.Register(ctx, RegisterInput{
			Email:        "admin1@corp.com",
			Password:     "hunter22",
			UserType:     models.UserTypeOrgAdmin,
			Organization: "Corp",
		})
		require.NoError(t, err)
		require.NotNil(t, first.Organization)

		second, err := f.svc.Register(ctx, RegisterInput{
			Email:        "admin2@corp.com",
			Password:     "hunter22",
			UserType:     models.UserTypeOrgAdmin,
			Organization: "Corp",
		})
		require.NoError(t, err)
		require.NotNil(t, second.Organization)
		assert.Equal(t, first.Organization.ID, second.Organization.ID)
	})

	t.Run("rejects unknown user type", func(t *testing.T) {
		_, err := f.svc.Register(ctx, RegisterInput{
			Email:    "x@example.com",
			Password: "hunter22",
			UserType: models.UserType("superuser"),
		})
		require.Error(t, err)
		assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
	})
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, RegisterInput{
		Email:    "dev@example.com",
		Password: "hunter22",
		UserType: models.UserTypeCandidate,
	})
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		res, err := f.svc.Login(ctx, "dev@example.com", "hunter22")
		require.NoError(t, err)
		assert.NotEmpty(t, res.Token)

		claims, err := utils.ParseToken(res.Token)
		require.NoError(t, err)
		assert.Equal(t, res.User.ID, claims.Subject)
		assert.Equal(t, string(models.UserTypeCandidate), claims.UserType)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "dev@example.com", "wrong")
		require.Error(t, err)
		assert.True(t, utils.IsCode(err, utils.CodeUnauthorized))
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "nobody@example.com", "hunter22")
		require.Error(t, err)
		assert.True(t, utils.IsCode(err, utils.CodeUnauthorized))
	})
}
