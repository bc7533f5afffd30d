package order

import (
	"context"
	"database/sql"
	"errors"

	"shoply-be/internal/db"
	"shoply-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	InsertOrder(ctx context.Context, q db.Querier, o *Order) error
	InsertItems(ctx context.Context, q db.Querier, orderID uint, items []OrderItem) error

	ListByUser(ctx context.Context, userID uint) ([]Order, error)
	GetDetail(ctx context.Context, orderID, userID uint) (*Order, error)
	UpdateStatus(ctx context.Context, orderID, userID uint, status Status) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// InsertOrder fills o.ID and o.CreatedAt from the inserted row.
func (r *repository) InsertOrder(ctx context.Context, q db.Querier, o *Order) error {
	err := q.QueryRowContext(ctx, `
		INSERT INTO orders (user_id, total_amount, status, shipping_address)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, o.UserID, o.TotalAmount, o.Status, o.ShippingAddress).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to insert order",
			zap.String("layer", "repository"),
			zap.String("method", "InsertOrder"),
			zap.Uint("user_id", o.UserID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (r *repository) InsertItems(ctx context.Context, q db.Querier, orderID uint, items []OrderItem) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "InsertItems"),
		zap.Uint("order_id", orderID),
	)

	for i := range items {
		it := &items[i]
		err := q.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, price)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, orderID, it.ProductID, it.Quantity, it.Price).Scan(&it.ID)
		if err != nil {
			log.Error("failed to insert order item", zap.Uint("product_id", it.ProductID), zap.Error(err))
			return err
		}
		it.OrderID = orderID
	}

	return nil
}

func (r *repository) ListByUser(ctx context.Context, userID uint) ([]Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListByUser"),
		zap.Uint("user_id", userID),
	)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, total_amount, status, shipping_address, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.ShippingAddress, &o.CreatedAt); err != nil {
			log.Error("failed to scan order", zap.Error(err))
			return nil, err
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, err
	}

	return orders, nil
}

func (r *repository) GetDetail(ctx context.Context, orderID, userID uint) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetDetail"),
		zap.Uint("order_id", orderID),
	)

	var o Order
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, total_amount, status, shipping_address, created_at
		FROM orders
		WHERE id = $1 AND user_id = $2
	`, orderID, userID).Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.ShippingAddress, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		log.Error("failed to get order", zap.Error(err))
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price,
		       p.name, p.description, p.image_url
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`, orderID)
	if err != nil {
		log.Error("failed to query order items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	o.Items = []OrderItem{}
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(
			&it.ID,
			&it.OrderID,
			&it.ProductID,
			&it.Quantity,
			&it.Price,
			&it.Name,
			&it.Description,
			&it.ImageURL,
		); err != nil {
			log.Error("failed to scan order item", zap.Error(err))
			return nil, err
		}
		o.Items = append(o.Items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &o, nil
}

func (r *repository) UpdateStatus(ctx context.Context, orderID, userID uint, status Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1
		WHERE id = $2 AND user_id = $3
	`, status, orderID, userID)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to update order status",
			zap.String("layer", "repository"),
			zap.Uint("order_id", orderID),
			zap.Error(err),
		)
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
