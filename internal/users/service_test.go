package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dsdroute/dsdroute-backend/pkg/config"
	"github.com/dsdroute/dsdroute-backend/pkg/db/models"
	"github.com/dsdroute/dsdroute-backend/pkg/enums"
	pkgerrors "github.com/dsdroute/dsdroute-backend/pkg/errors"
	"github.com/dsdroute/dsdroute-backend/pkg/security"
)

type stubUserRepo struct {
	byID      map[uuid.UUID]*models.User
	createErr error
	lastDTO   CreateUserDTO
}

func (s *stubUserRepo) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.lastDTO = dto
	user := &models.User{
		ID:           uuid.New(),
		Email:        dto.Email,
		PasswordHash: dto.PasswordHash,
		FullName:     dto.FullName,
		Phone:        dto.Phone,
		Role:         dto.Role,
		IsActive:     true,
	}
	s.byID[user.ID] = user
	return user, nil
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range s.byID {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) List(ctx context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(s.byID))
	for _, user := range s.byID {
		out = append(out, *user)
	}
	return out, nil
}

func (s *stubUserRepo) Update(ctx context.Context, user *models.User) error {
	s.byID[user.ID] = user
	return nil
}

func cheapPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

func newUsersFixture(t *testing.T) (Service, *stubUserRepo) {
	t.Helper()

	repo := &stubUserRepo{byID: map[uuid.UUID]*models.User{}}
	svc, err := NewService(repo, cheapPasswordConfig())
	require.NoError(t, err)
	return svc, repo
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()

	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	assert.Equal(t, code, typed.Code())
}

func TestCreateUserNormalizesAndHashes(t *testing.T) {
	svc, repo := newUsersFixture(t)

	dto, err := svc.Create(context.Background(), CreateUserInput{
		Email:    "  Rep@DSDRoute.IO ",
		FullName: "  Jordan Reyes ",
		Password: "supersecret",
		Role:     enums.RoleSalesRep,
	})
	require.NoError(t, err)

	assert.Equal(t, "rep@dsdroute.io", dto.Email)
	assert.Equal(t, "Jordan Reyes", dto.FullName)
	assert.Equal(t, enums.RoleSalesRep, dto.Role)

	// The stored hash verifies, and the raw password never leaves the service.
	assert.NotEqual(t, "supersecret", repo.lastDTO.PasswordHash)
	ok, err := security.VerifyPassword("supersecret", repo.lastDTO.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateUserValidation(t *testing.T) {
	svc, _ := newUsersFixture(t)

	cases := []struct {
		name  string
		input CreateUserInput
	}{
		{"missing email", CreateUserInput{FullName: "x", Password: "longenough", Role: enums.RoleAdmin}},
		{"missing name", CreateUserInput{Email: "a@b.io", Password: "longenough", Role: enums.RoleAdmin}},
		{"short password", CreateUserInput{Email: "a@b.io", FullName: "x", Password: "short", Role: enums.RoleAdmin}},
		{"bad role", CreateUserInput{Email: "a@b.io", FullName: "x", Password: "longenough", Role: "intern"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.input)
			assertCode(t, err, pkgerrors.CodeValidation)
		})
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc, repo := newUsersFixture(t)
	repo.createErr = &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}

	_, err := svc.Create(context.Background(), CreateUserInput{
		Email:    "dup@dsdroute.io",
		FullName: "Dup",
		Password: "longenough",
		Role:     enums.RoleSalesRep,
	})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestEnsureAdminSeedsFreshDatabase(t *testing.T) {
	svc, repo := newUsersFixture(t)

	cfg := config.BootstrapConfig{
		AdminEmail:    "Admin@DSDRoute.IO",
		AdminPassword: "changeme123",
		AdminName:     "Administrator",
	}
	require.NoError(t, svc.EnsureAdmin(context.Background(), cfg))

	admin, err := repo.FindByEmail(context.Background(), "admin@dsdroute.io")
	require.NoError(t, err)
	assert.Equal(t, enums.RoleAdmin, admin.Role)
	assert.True(t, admin.IsActive)

	ok, err := security.VerifyPassword("changeme123", admin.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second boot finds the account and leaves it alone.
	require.NoError(t, svc.EnsureAdmin(context.Background(), cfg))
	assert.Len(t, repo.byID, 1)
}

func TestEnsureAdminSkipsWithoutCredentials(t *testing.T) {
	svc, repo := newUsersFixture(t)

	require.NoError(t, svc.EnsureAdmin(context.Background(), config.BootstrapConfig{}))
	require.NoError(t, svc.EnsureAdmin(context.Background(), config.BootstrapConfig{AdminEmail: "admin@dsdroute.io"}))
	assert.Empty(t, repo.byID)
}

func TestGetUserNotFound(t *testing.T) {
	svc, _ := newUsersFixture(t)

	_, err := svc.Get(context.Background(), uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestSetActiveTogglesFlag(t *testing.T) {
	svc, repo := newUsersFixture(t)
	user := &models.User{ID: uuid.New(), Email: "rep@dsdroute.io", Role: enums.RoleSalesRep, IsActive: true}
	repo.byID[user.ID] = user

	dto, err := svc.SetActive(context.Background(), user.ID, false)
	require.NoError(t, err)
	assert.False(t, dto.IsActive)
	assert.False(t, repo.byID[user.ID].IsActive)

	dto, err = svc.SetActive(context.Background(), user.ID, true)
	require.NoError(t, err)
	assert.True(t, dto.IsActive)
}

func TestUserDTOHidesPasswordHash(t *testing.T) {
	user := models.User{
		ID:           uuid.New(),
		Email:        "rep@dsdroute.io",
		PasswordHash: "$argon2id$...",
		FullName:     "Jordan Reyes",
		Role:         enums.RoleSalesRep,
		IsActive:     true,
	}
	dto := ToUserDTO(user)
	assert.Equal(t, user.Email, dto.Email)
	assert.Equal(t, user.FullName, dto.FullName)
}
