package identity

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"decide/pkg/platform/sentinel"
)

// PostgresStore reads the platform's auth_user table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Exists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM auth_user WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

// FindByUsername prefers an exact match, since auth_user.username is unique
// as written, and falls back to a unique case-insensitive one.
func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (int64, bool, error) {
	username = strings.TrimSpace(username)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username = $1 AS exact
		   FROM auth_user
		  WHERE lower(username) = lower($1)
		  ORDER BY exact DESC, id
		  LIMIT 2`,
		username,
	)
	if err != nil {
		return 0, false, fmt.Errorf("find user by username: %w", err)
	}
	defer rows.Close()

	type match struct {
		id    int64
		exact bool
	}
	var matches []match
	for rows.Next() {
		var m match
		if err := rows.Scan(&m.id, &m.exact); err != nil {
			return 0, false, fmt.Errorf("scan user: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return 0, false, fmt.Errorf("find user by username: %w", err)
	}

	switch {
	case len(matches) == 0:
		return 0, false, nil
	case matches[0].exact || len(matches) == 1:
		return matches[0].id, true, nil
	default:
		return 0, false, fmt.Errorf("username %q matches several users: %w", username, sentinel.ErrAmbiguous)
	}
}
