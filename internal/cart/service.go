package cart

import (
	"context"

	"shoply-be/internal/logger"
	"shoply-be/internal/product"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductLookup is the part of the catalog the cart needs to validate additions.
type ProductLookup interface {
	GetByID(ctx context.Context, id uint) (*product.Product, error)
}

type Service interface {
	View(ctx context.Context, userID uint) (*Cart, error)
	Add(ctx context.Context, userID uint, input AddItemInput) (*AddItemResult, error)
	UpdateQuantity(ctx context.Context, userID, itemID uint, quantity int) error
	Remove(ctx context.Context, userID, itemID uint) error
	Clear(ctx context.Context, userID uint) error
}

type service struct {
	repo     Repository
	products ProductLookup
}

func NewService(repo Repository, products ProductLookup) Service {
	return &service{repo: repo, products: products}
}

func (s *service) View(ctx context.Context, userID uint) (*Cart, error) {
	lines, err := s.repo.GetLines(ctx, nil, userID)
	if err != nil {
		return nil, err
	}

	cart := &Cart{Items: make([]CartItem, 0, len(lines)), Total: decimal.Zero}
	for _, l := range lines {
		sub := l.Subtotal()
		cart.Items = append(cart.Items, CartItem{CartLine: l, Subtotal: sub})
		cart.Total = cart.Total.Add(sub)
	}
	return cart, nil
}

func (s *service) Add(ctx context.Context, userID uint, input AddItemInput) (*AddItemResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Add"),
	)

	if input.ProductID == 0 {
		return nil, ErrProductRequired
	}
	if input.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	if _, err := s.products.GetByID(ctx, input.ProductID); err != nil {
		log.Warn("product lookup failed", zap.Uint("product_id", input.ProductID), zap.Error(err))
		return nil, err
	}

	res, err := s.repo.AddItem(ctx, userID, input.ProductID, input.Quantity)
	if err != nil {
		return nil, err
	}

	log.Info("cart item saved",
		zap.Uint("cart_item_id", res.ID),
		zap.Bool("created", res.Created),
	)
	return res, nil
}

func (s *service) UpdateQuantity(ctx context.Context, userID, itemID uint, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	return s.repo.UpdateQuantity(ctx, userID, itemID, quantity)
}

func (s *service) Remove(ctx context.Context, userID, itemID uint) error {
	return s.repo.Remove(ctx, userID, itemID)
}

func (s *service) Clear(ctx context.Context, userID uint) error {
	return s.repo.DeleteAll(ctx, nil, userID)
}
