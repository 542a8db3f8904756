package voting

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore reads the platform's voting_voting table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Exists(ctx context.Context, votingID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM voting_voting WHERE id = $1)`, votingID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check voting exists: %w", err)
	}
	return exists, nil
}
