package shops

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dsdroute/dsdroute-backend/pkg/db/models"
	pkgerrors "github.com/dsdroute/dsdroute-backend/pkg/errors"
	"github.com/dsdroute/dsdroute-backend/pkg/pagination"
)

type stubShopRepo struct {
	byID    map[uuid.UUID]*models.Shop
	created []*models.Shop
	updated []*models.Shop
}

func newStubShopRepo() *stubShopRepo {
	return &stubShopRepo{byID: map[uuid.UUID]*models.Shop{}}
}

func (s *stubShopRepo) Create(ctx context.Context, shop *models.Shop) error {
	shop.ID = uuid.New()
	s.created = append(s.created, shop)
	s.byID[shop.ID] = shop
	return nil
}

func (s *stubShopRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	if shop, ok := s.byID[id]; ok {
		copied := *shop
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubShopRepo) List(ctx context.Context, activeOnly bool, cursor *pagination.Cursor, limit int) ([]models.Shop, error) {
	return nil, nil
}

func (s *stubShopRepo) Update(ctx context.Context, shop *models.Shop) error {
	s.updated = append(s.updated, shop)
	s.byID[shop.ID] = shop
	return nil
}

type stubCreditReader struct {
	outstanding decimal.Decimal
}

func (s stubCreditReader) OutstandingAmount(ctx context.Context, shopID uuid.UUID) (decimal.Decimal, error) {
	return s.outstanding, nil
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	assert.Equal(t, code, typed.Code())
}

func shopFixture(repo *stubShopRepo) *models.Shop {
	shop := &models.Shop{
		ID:       uuid.New(),
		Name:     "Krishna Stores",
		Location: "Market Road",
		Contact:  "0771234567",
		IsActive: true,
	}
	repo.byID[shop.ID] = shop
	return shop
}

func TestCreateShopRecordsCreator(t *testing.T) {
	repo := newStubShopRepo()
	svc, err := NewService(repo, stubCreditReader{})
	require.NoError(t, err)

	actorID := uuid.New()
	dto, err := svc.Create(context.Background(), actorID, CreateShopInput{
		Name:     "Krishna Stores",
		Location: "Market Road",
		Contact:  "0771234567",
	})
	require.NoError(t, err)
	assert.True(t, dto.IsActive)

	require.Len(t, repo.created, 1)
	require.NotNil(t, repo.created[0].CreatedBy)
	assert.Equal(t, actorID, *repo.created[0].CreatedBy)
}

func TestGetShopIncludesOutstandingCredit(t *testing.T) {
	repo := newStubShopRepo()
	shop := shopFixture(repo)
	svc, err := NewService(repo, stubCreditReader{outstanding: decimal.NewFromInt(450)})
	require.NoError(t, err)

	dto, err := svc.Get(context.Background(), shop.ID)
	require.NoError(t, err)
	require.NotNil(t, dto.OutstandingCredit)
	assert.True(t, dto.OutstandingCredit.Equal(decimal.NewFromInt(450)))
}

func TestGetShopNotFound(t *testing.T) {
	svc, err := NewService(newStubShopRepo(), stubCreditReader{})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestUpdateShopPartialFields(t *testing.T) {
	repo := newStubShopRepo()
	shop := shopFixture(repo)
	svc, err := NewService(repo, stubCreditReader{})
	require.NoError(t, err)

	newContact := "0719999999"
	dto, err := svc.Update(context.Background(), shop.ID, UpdateShopInput{Contact: &newContact})
	require.NoError(t, err)
	assert.Equal(t, "0719999999", dto.Contact)
	assert.Equal(t, "Krishna Stores", dto.Name)
}

func TestDeactivateShop(t *testing.T) {
	repo := newStubShopRepo()
	shop := shopFixture(repo)
	svc, err := NewService(repo, stubCreditReader{})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), shop.ID))
	assert.False(t, repo.byID[shop.ID].IsActive)
}

func TestListShopsRejectsBadCursor(t *testing.T) {
	svc, err := NewService(newStubShopRepo(), stubCreditReader{})
	require.NoError(t, err)

	_, err = svc.List(context.Background(), true, pagination.Params{Cursor: "%%%"})
	assertCode(t, err, pkgerrors.CodeValidation)
}
