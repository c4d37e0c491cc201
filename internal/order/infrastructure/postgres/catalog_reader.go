package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rvashisth/storefront-coordinator/internal/order/domain"
)

// CatalogReader serves live availability from the catalog's products table.
// Every call hits the store; stock changes continuously under concurrent
// buyers, so nothing is cached.
type CatalogReader struct {
	pool *pgxpool.Pool
}

func NewCatalogReader(pool *pgxpool.Pool) *CatalogReader {
	return &CatalogReader{pool: pool}
}

func (c *CatalogReader) Stock(ctx context.Context, productID string) (int, error) {
	var stock int
	err := c.pool.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, &domain.NotFoundError{Kind: "product", ID: productID}
	}
	if err != nil {
		return 0, err
	}
	return stock, nil
}
