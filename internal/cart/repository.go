package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shoply-be/internal/db"
	"shoply-be/internal/logger"
	"shoply-be/internal/product"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Repository methods taking a db.Querier run on it when non-nil, so the order
// workflow can read and clear the cart inside its transaction. A nil Querier
// means the connection pool.
type Repository interface {
	GetLines(ctx context.Context, q db.Querier, userID uint) ([]CartLine, error)
	DeleteAll(ctx context.Context, q db.Querier, userID uint) error

	AddItem(ctx context.Context, userID, productID uint, quantity int) (*AddItemResult, error)
	UpdateQuantity(ctx context.Context, userID, itemID uint, quantity int) error
	Remove(ctx context.Context, userID, itemID uint) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) conn(q db.Querier) db.Querier {
	if q == nil {
		return r.db
	}
	return q
}

func (r *repository) GetLines(ctx context.Context, q db.Querier, userID uint) ([]CartLine, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetLines"),
		zap.Uint("user_id", userID),
	)

	rows, err := r.conn(q).QueryContext(ctx, `
		SELECT ci.id, ci.user_id, ci.product_id, ci.quantity,
		       p.name, p.price, p.stock, p.image_url
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.id
	`, userID)
	if err != nil {
		log.Error("failed to query cart lines", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrFailedGetCart, err)
	}
	defer rows.Close()

	lines := []CartLine{}
	for rows.Next() {
		var l CartLine
		if err := rows.Scan(
			&l.ID,
			&l.UserID,
			&l.ProductID,
			&l.Quantity,
			&l.Name,
			&l.Price,
			&l.Stock,
			&l.ImageURL,
		); err != nil {
			log.Error("failed to scan cart line", zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrFailedGetCart, err)
		}
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrFailedGetCart, err)
	}

	log.Debug("cart lines fetched", zap.Int("count", len(lines)))
	return lines, nil
}

func (r *repository) DeleteAll(ctx context.Context, q db.Querier, userID uint) error {
	res, err := r.conn(q).ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to clear cart",
			zap.String("layer", "repository"),
			zap.Uint("user_id", userID),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrFailedClearCart, err)
	}

	if n, err := res.RowsAffected(); err == nil {
		logger.FromCtx(ctx).Debug("cart cleared", zap.Uint("user_id", userID), zap.Int64("rows", n))
	}
	return nil
}

func (r *repository) AddItem(ctx context.Context, userID, productID uint, quantity int) (*AddItemResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "AddItem"),
		zap.Uint("user_id", userID),
		zap.Uint("product_id", productID),
	)

	// xmax is zero only for a freshly inserted tuple.
	var res AddItemResult
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id, (xmax = 0) AS inserted
	`, userID, productID, quantity).Scan(&res.ID, &res.Created)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == PgForeignKeyViolation {
			log.Warn("product vanished before cart insert")
			return nil, product.ErrProductNotFound
		}
		log.Error("failed to upsert cart item", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrFailedAddItem, err)
	}

	return &res, nil
}

func (r *repository) UpdateQuantity(ctx context.Context, userID, itemID uint, quantity int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cart_items
		SET quantity = $1
		WHERE id = $2 AND user_id = $3
	`, quantity, itemID, userID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *repository) Remove(ctx context.Context, userID, itemID uint) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}
