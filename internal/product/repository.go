package product

import (
	"context"
	"database/sql"
	"errors"

	"shoply-be/internal/db"
	"shoply-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id uint) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uint) error

	// ConditionalDecrement subtracts amount from stock only when enough is left.
	// It reports false when the row is missing or short, leaving stock untouched.
	ConditionalDecrement(ctx context.Context, q db.Querier, productID uint, amount int) (bool, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const productColumns = `id, name, description, price, category, image_url, stock, created_at`

func scanProduct(row interface{ Scan(...any) error }, p *Product) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Category,
		&p.ImageURL,
		&p.Stock,
		&p.CreatedAt,
	)
}

func (r *repository) List(ctx context.Context) ([]Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "List"),
	)

	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC, id DESC`)
	if err != nil {
		log.Error("failed to query products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			log.Error("failed to scan product row", zap.Error(err))
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, err
	}

	return products, nil
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Product, error) {
	var p Product
	err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id), &p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to get product",
			zap.String("layer", "repository"),
			zap.Uint("product_id", id),
			zap.Error(err),
		)
		return nil, err
	}

	return &p, nil
}

func (r *repository) Create(ctx context.Context, p *Product) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO products (name, description, price, category, image_url, stock)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, p.Name, p.Description, p.Price, p.Category, p.ImageURL, p.Stock).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to insert product", zap.String("layer", "repository"), zap.Error(err))
		return err
	}

	return nil
}

func (r *repository) Update(ctx context.Context, p *Product) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $1, description = $2, price = $3, category = $4, image_url = $5, stock = $6
		WHERE id = $7
	`, p.Name, p.Description, p.Price, p.Category, p.ImageURL, p.Stock, p.ID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == PgForeignKeyViolation {
			return ErrProductInUse
		}
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *repository) ConditionalDecrement(ctx context.Context, q db.Querier, productID uint, amount int) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $1
		WHERE id = $2 AND stock >= $1
	`, amount, productID)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}
