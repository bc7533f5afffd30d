package product

import (
	"context"
	"strings"

	"shoply-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id uint) (*Product, error)
	Create(ctx context.Context, input ProductInput) (*Product, error)
	Update(ctx context.Context, id uint, input ProductInput) (*Product, error)
	Delete(ctx context.Context, id uint) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

func (s *service) Get(ctx context.Context, id uint) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Create(ctx context.Context, input ProductInput) (*Product, error) {
	p, err := fromInput(input)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("product created",
		zap.String("layer", "service"),
		zap.Uint("product_id", p.ID),
	)
	return p, nil
}

func (s *service) Update(ctx context.Context, id uint, input ProductInput) (*Product, error) {
	p, err := fromInput(input)
	if err != nil {
		return nil, err
	}
	p.ID = id

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

func fromInput(input ProductInput) (*Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if input.Price == nil {
		return nil, ErrPriceRequired
	}
	if input.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	stock := 0
	if input.Stock != nil {
		stock = *input.Stock
	}
	if stock < 0 {
		return nil, ErrInvalidStock
	}

	return &Product{
		Name:        name,
		Description: input.Description,
		Price:       input.Price.Round(2),
		Category:    input.Category,
		ImageURL:    input.ImageURL,
		Stock:       stock,
	}, nil
}
