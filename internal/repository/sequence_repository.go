package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/csl-management-api/pkg/database"
)

// SequenceRepository owns the per-year certificate counters.
type SequenceRepository struct {
	db *sqlx.DB
}

// NewSequenceRepository constructs the repository.
func NewSequenceRepository(db *sqlx.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Increment atomically bumps the counter for year and returns the new value. The first
// call for a year creates the row with value 1. Inside a transaction the row stays locked
// until commit.
func (r *SequenceRepository) Increment(ctx context.Context, year int) (int64, error) {
	const query = `INSERT INTO certificate_sequences (year, last_value, updated_at)
	VALUES ($1, 1, now())
	ON CONFLICT (year) DO UPDATE SET last_value = certificate_sequences.last_value + 1, updated_at = now()
	RETURNING last_value`
	var value int64
	if err := database.Conn(ctx, r.db).GetContext(ctx, &value, query, year); err != nil {
		return 0, fmt.Errorf("increment certificate sequence %d: %w", year, err)
	}
	return value, nil
}

// Current returns the last allocated value for year, zero when none.
func (r *SequenceRepository) Current(ctx context.Context, year int) (int64, error) {
	const query = `SELECT COALESCE((SELECT last_value FROM certificate_sequences WHERE year = $1), 0)`
	var value int64
	if err := database.Conn(ctx, r.db).GetContext(ctx, &value, query, year); err != nil {
		return 0, fmt.Errorf("read certificate sequence %d: %w", year, err)
	}
	return value, nil
}
