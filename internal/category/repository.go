package category

import (
	"context"
	"database/sql"

	"shoply-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	List(ctx context.Context) ([]Category, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// List derives categories from products; uncategorized products are skipped.
func (r *repository) List(ctx context.Context) ([]Category, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "List"),
	)

	rows, err := r.db.QueryContext(ctx, `
		SELECT category, COUNT(*)
		FROM products
		WHERE category IS NOT NULL AND category <> ''
		GROUP BY category
		ORDER BY category
	`)
	if err != nil {
		log.Error("failed to query categories", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	categories := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.Name, &c.ProductCount); err != nil {
			log.Error("failed to scan category", zap.Error(err))
			return nil, err
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}
