package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yksanjo/competitor-price-tracker/internal/models"
)

type ObservationRepo struct {
	pool *pgxpool.Pool
}

func NewObservationRepo(pool *pgxpool.Pool) *ObservationRepo {
	return &ObservationRepo{pool: pool}
}

func (r *ObservationRepo) Record(ctx context.Context, productID int64, price float64, observedAt time.Time) (*models.Observation, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO price_observations (product_id, price, observed_at)
		 VALUES ($1, $2, $3) RETURNING *`,
		productID, price, observedAt,
	)
	return scanObservation(row)
}

// GetByProduct returns observations in chronological order. A limit <= 0
// means no limit.
func (r *ObservationRepo) GetByProduct(ctx context.Context, productID int64, limit int) ([]models.Observation, error) {
	q := `SELECT * FROM price_observations WHERE product_id = $1 ORDER BY observed_at ASC`
	args := []any{productID}
	if limit > 0 {
		// Keep the most recent N while preserving chronological order.
		q = `SELECT * FROM (
			SELECT * FROM price_observations WHERE product_id = $1
			ORDER BY observed_at DESC LIMIT $2
		) recent ORDER BY observed_at ASC`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectObservations(rows)
}

func (r *ObservationRepo) GetLatest(ctx context.Context) (*models.Observation, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT * FROM price_observations ORDER BY observed_at DESC LIMIT 1`,
	)
	o, err := scanObservation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

func (r *ObservationRepo) CountForProduct(ctx context.Context, productID int64) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM price_observations WHERE product_id = $1`,
		productID,
	).Scan(&n)
	return n, err
}

// --- scan helpers ---

func scanObservation(row scannable) (*models.Observation, error) {
	var o models.Observation
	err := row.Scan(&o.ID, &o.ProductID, &o.Price, &o.ObservedAt, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func collectObservations(rows rowsIter) ([]models.Observation, error) {
	var out []models.Observation
	for rows.Next() {
		var o models.Observation
		if err := rows.Scan(&o.ID, &o.ProductID, &o.Price, &o.ObservedAt, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
