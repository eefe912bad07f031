package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yksanjo/competitor-price-tracker/internal/models"
)

var (
	ErrProductExists   = errors.New("product already tracked")
	ErrProductNotFound = errors.New("product not found")
)

type ProductRepo struct {
	pool *pgxpool.Pool
}

func NewProductRepo(pool *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

func (r *ProductRepo) Create(ctx context.Context, name, url, selector string) (*models.Product, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO products (name, url, selector, added_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (name) DO NOTHING
		 RETURNING *`,
		name, url, selector, time.Now().UTC(),
	)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductExists
	}
	return p, err
}

func (r *ProductRepo) GetByName(ctx context.Context, name string) (*models.Product, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT * FROM products WHERE name = $1`,
		name,
	)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return p, err
}

func (r *ProductRepo) List(ctx context.Context) ([]models.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT * FROM products ORDER BY name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (r *ProductRepo) Delete(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM products WHERE name = $1`,
		name,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// UpdatePrices rotates the stored prices after a significant change or a
// first-ever reading: previous may be nil for the first observation.
func (r *ProductRepo) UpdatePrices(ctx context.Context, id int64, current float64, previous *float64, checkedAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE products
		 SET current_price = $2, previous_price = $3, last_checked_at = $4
		 WHERE id = $1`,
		id, current, previous, checkedAt,
	)
	return err
}

// TouchChecked records a successful check that produced no price change.
func (r *ProductRepo) TouchChecked(ctx context.Context, id int64, checkedAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE products SET last_checked_at = $2 WHERE id = $1`,
		id, checkedAt,
	)
	return err
}

// --- scan helpers ---

type scannable interface {
	Scan(dest ...any) error
}

func scanProduct(row scannable) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.URL, &p.Selector,
		&p.CurrentPrice, &p.PreviousPrice, &p.AddedAt, &p.LastCheckedAt, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type rowsIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectProducts(rows rowsIter) ([]models.Product, error) {
	var out []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.URL, &p.Selector,
			&p.CurrentPrice, &p.PreviousPrice, &p.AddedAt, &p.LastCheckedAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
