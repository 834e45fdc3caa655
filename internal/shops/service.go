package shops

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dsdroute/dsdroute-backend/pkg/db"
	"github.com/dsdroute/dsdroute-backend/pkg/db/models"
	pkgerrors "github.com/dsdroute/dsdroute-backend/pkg/errors"
	"github.com/dsdroute/dsdroute-backend/pkg/pagination"
)

type shopRepository interface {
	Create(ctx context.Context, shop *models.Shop) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Shop, error)
	List(ctx context.Context, activeOnly bool, cursor *pagination.Cursor, limit int) ([]models.Shop, error)
	Update(ctx context.Context, shop *models.Shop) error
}

type creditReader interface {
	OutstandingAmount(ctx context.Context, shopID uuid.UUID) (decimal.Decimal, error)
}

// Service exposes shop operations.
type Service interface {
	List(ctx context.Context, activeOnly bool, params pagination.Params) (*ShopPage, error)
	Get(ctx context.Context, id uuid.UUID) (*ShopDTO, error)
	Create(ctx context.Context, actorID uuid.UUID, input CreateShopInput) (*ShopDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateShopInput) (*ShopDTO, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo   shopRepository
	credit creditReader
}

// NewService builds a shop service.
func NewService(repo shopRepository, credit creditReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shop repository required")
	}
	if credit == nil {
		return nil, fmt.Errorf("credit reader required")
	}
	return &service{repo: repo, credit: credit}, nil
}

// CreateShopInput captures the fields for a new shop.
type CreateShopInput struct {
	Name     string
	Location string
	Contact  string
	Address  *string
	Email    *string
}

// UpdateShopInput captures the mutable shop fields.
type UpdateShopInput struct {
	Name     *string
	Location *string
	Contact  *string
	Address  *string
	Email    *string
	IsActive *bool
}

func (s *service) List(ctx context.Context, activeOnly bool, params pagination.Params) (*ShopPage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, activeOnly, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shops")
	}

	page := &ShopPage{Items: make([]ShopDTO, 0, len(rows))}
	for i, row := range rows {
		if i == limit {
			break
		}
		page.Items = append(page.Items, ToShopDTO(row))
	}
	if len(rows) > limit {
		last := rows[limit-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		page.NextCursor = &next
	}
	return page, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ShopDTO, error) {
	shop, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find shop")
	}

	dto := ToShopDTO(*shop)
	outstanding, err := s.credit.OutstandingAmount(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "outstanding credit")
	}
	dto.OutstandingCredit = &outstanding
	return &dto, nil
}

func (s *service) Create(ctx context.Context, actorID uuid.UUID, input CreateShopInput) (*ShopDTO, error) {
	shop := &models.Shop{
		Name:      input.Name,
		Location:  input.Location,
		Contact:   input.Contact,
		Address:   input.Address,
		Email:     input.Email,
		IsActive:  true,
		CreatedBy: &actorID,
	}
	if err := s.repo.Create(ctx, shop); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shop")
	}
	dto := ToShopDTO(*shop)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateShopInput) (*ShopDTO, error) {
	shop, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find shop")
	}

	if input.Name != nil {
		shop.Name = *input.Name
	}
	if input.Location != nil {
		shop.Location = *input.Location
	}
	if input.Contact != nil {
		shop.Contact = *input.Contact
	}
	if input.Address != nil {
		shop.Address = input.Address
	}
	if input.Email != nil {
		shop.Email = input.Email
	}
	if input.IsActive != nil {
		shop.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, shop); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shop")
	}
	dto := ToShopDTO(*shop)
	return &dto, nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	shop, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find shop")
	}
	shop.IsActive = false
	if err := s.repo.Update(ctx, shop); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate shop")
	}
	return nil
}
