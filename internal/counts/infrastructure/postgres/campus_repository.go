package postgres

import (
	"context"
	"errors"
	"fmt"
)

const defaultCampusesTable = "campuses"

// CampusRepository is a Postgres implementation for campuses.
type CampusRepository struct {
	db    DBTX
	table string
}

// NewCampusRepository constructs a repository.
func NewCampusRepository(db DBTX, opts ...CampusOption) *CampusRepository {
	repo := &CampusRepository{db: db, table: defaultCampusesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// CampusOption configures the repository.
type CampusOption func(*CampusRepository)

// WithCampusTable overrides the default table name.
func WithCampusTable(table string) CampusOption {
	return func(repo *CampusRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Upsert creates the campus when absent and returns its id.
func (r *CampusRepository) Upsert(ctx context.Context, name string) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("campus repo: nil db")
	}
	if name == "" {
		return 0, errors.New("campus repo: empty name")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (campus_name)
VALUES ($1)
ON CONFLICT (campus_name)
DO UPDATE SET campus_name = EXCLUDED.campus_name
RETURNING campus_id`, r.table)

	var id int64
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
