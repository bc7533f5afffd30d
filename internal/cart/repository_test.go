package cart

import (
	"context"
	"errors"
	"testing"

	"shoply-be/internal/product"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lineCols = []string{"id", "user_id", "product_id", "quantity", "name", "price", "stock", "image_url"}

func TestRepository_GetLines(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("UsesPoolWhenQuerierNil", func(t *testing.T) {
		mock.ExpectQuery("SELECT .* FROM cart_items ci JOIN products p").
			WithArgs(uint(1)).
			WillReturnRows(sqlmock.NewRows(lineCols).
				AddRow(10, 1, 5, 2, "Keyboard", "149.99", 40, nil).
				AddRow(11, 1, 6, 1, "Mouse", "59.99", 60, "https://img/mouse.png"))

		lines, err := repo.GetLines(ctx, nil, 1)
		require.NoError(t, err)
		require.Len(t, lines, 2)
		assert.Equal(t, uint(5), lines[0].ProductID)
		assert.True(t, decimal.RequireFromString("299.98").Equal(lines[0].Subtotal()))
		assert.Equal(t, "https://img/mouse.png", *lines[1].ImageURL)
	})

	t.Run("InsideTransaction", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT .* FROM cart_items").
			WithArgs(uint(2)).
			WillReturnRows(sqlmock.NewRows(lineCols))
		mock.ExpectRollback()

		tx, err := db.Begin()
		require.NoError(t, err)

		lines, err := repo.GetLines(ctx, tx, 2)
		require.NoError(t, err)
		assert.Empty(t, lines)
		require.NoError(t, tx.Rollback())
	})

	t.Run("QueryError", func(t *testing.T) {
		mock.ExpectQuery("SELECT .* FROM cart_items").WillReturnError(errors.New("conn reset"))

		_, err := repo.GetLines(ctx, nil, 1)
		assert.ErrorIs(t, err, ErrFailedGetCart)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_DeleteAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	t.Run("ZeroRowsIsSuccess", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM cart_items WHERE user_id = \\$1").
			WithArgs(uint(1)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, repo.DeleteAll(context.Background(), nil, 1))
	})

	t.Run("Error", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM cart_items").WillReturnError(errors.New("db error"))

		assert.ErrorIs(t, repo.DeleteAll(context.Background(), nil, 1), ErrFailedClearCart)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_AddItem(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Inserted", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO cart_items .* ON CONFLICT \\(user_id, product_id\\)").
			WithArgs(uint(1), uint(5), 2).
			WillReturnRows(sqlmock.NewRows([]string{"id", "inserted"}).AddRow(3, true))

		res, err := repo.AddItem(ctx, 1, 5, 2)
		require.NoError(t, err)
		assert.Equal(t, uint(3), res.ID)
		assert.True(t, res.Created)
	})

	t.Run("Incremented", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO cart_items").
			WithArgs(uint(1), uint(5), 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "inserted"}).AddRow(3, false))

		res, err := repo.AddItem(ctx, 1, 5, 1)
		require.NoError(t, err)
		assert.False(t, res.Created)
	})

	t.Run("ProductMissing", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO cart_items").
			WillReturnError(&pq.Error{Code: "23503"})

		_, err := repo.AddItem(ctx, 1, 99, 1)
		assert.ErrorIs(t, err, product.ErrProductNotFound)
	})

	t.Run("Failure", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO cart_items").WillReturnError(errors.New("boom"))

		_, err := repo.AddItem(ctx, 1, 5, 1)
		assert.ErrorIs(t, err, ErrFailedAddItem)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateAndRemove(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	mock.ExpectExec("UPDATE cart_items SET quantity = \\$1 WHERE id = \\$2 AND user_id = \\$3").
		WithArgs(4, uint(3), uint(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.UpdateQuantity(ctx, 1, 3, 4))

	mock.ExpectExec("UPDATE cart_items").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdateQuantity(ctx, 2, 3, 4), ErrCartItemNotFound)

	mock.ExpectExec("DELETE FROM cart_items WHERE id = \\$1 AND user_id = \\$2").
		WithArgs(uint(3), uint(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.Remove(ctx, 1, 3))

	mock.ExpectExec("DELETE FROM cart_items").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Remove(ctx, 1, 3), ErrCartItemNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
