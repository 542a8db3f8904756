package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"decide/internal/census/models"
	id "decide/pkg/domain"
	"decide/pkg/platform/sentinel"
	"decide/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists census entries in the census table. It works with
// both the lib/pq and pgx database/sql drivers.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// AddAll inserts all voters in one statement. The unique constraint on
// (voting_id, voter_id) makes the batch fail as a whole on any collision.
func (s *PostgresStore) AddAll(ctx context.Context, votingID id.VotingID, voterIDs []id.VoterID) (int, error) {
	res, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO census (voting_id, voter_id)
		SELECT $1, v FROM (SELECT DISTINCT unnest($2::bigint[]) AS v) AS voters
	`, votingID.Int64(), pq.Array(toInt64s(voterIDs)))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("add voters to voting %d: %w", votingID, sentinel.ErrConflict)
		}
		return 0, fmt.Errorf("add voters to voting %d: %w", votingID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("add voters rows affected: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) RemoveAll(ctx context.Context, votingID id.VotingID, voterIDs []id.VoterID) (int, error) {
	res, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx,
		`DELETE FROM census WHERE voting_id = $1 AND voter_id = ANY($2::bigint[])`,
		votingID.Int64(), pq.Array(toInt64s(voterIDs)))
	if err != nil {
		return 0, fmt.Errorf("remove voters from voting %d: %w", votingID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("remove voters rows affected: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) ListVoters(ctx context.Context, votingID id.VotingID) ([]id.VoterID, error) {
	rows, err := tx.ExecutorFrom(ctx, s.db).QueryContext(ctx,
		`SELECT voter_id FROM census WHERE voting_id = $1 ORDER BY voter_id`, votingID.Int64())
	if err != nil {
		return nil, fmt.Errorf("list voters of voting %d: %w", votingID, err)
	}
	defer rows.Close()

	voters := []id.VoterID{}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan voter: %w", err)
		}
		voters = append(voters, id.VoterID(v))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate voters: %w", err)
	}
	return voters, nil
}

func (s *PostgresStore) Exists(ctx context.Context, votingID id.VotingID, voterID id.VoterID) (bool, error) {
	var exists bool
	err := tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM census WHERE voting_id = $1 AND voter_id = $2)`,
		votingID.Int64(), voterID.Int64()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check census entry: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter) ([]models.Entry, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.VotingID != nil {
		args = append(args, filter.VotingID.Int64())
		clauses = append(clauses, fmt.Sprintf("voting_id = $%d", len(args)))
	}
	if filter.VoterID != nil {
		args = append(args, filter.VoterID.Int64())
		clauses = append(clauses, fmt.Sprintf("voter_id = $%d", len(args)))
	}
	query := `SELECT voting_id, voter_id FROM census`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY voting_id, voter_id`

	rows, err := tx.ExecutorFrom(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list census entries: %w", err)
	}
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		var votingID, voterID int64
		if err := rows.Scan(&votingID, &voterID); err != nil {
			return nil, fmt.Errorf("scan census entry: %w", err)
		}
		entries = append(entries, models.Entry{VotingID: id.VotingID(votingID), VoterID: id.VoterID(voterID)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate census entries: %w", err)
	}
	return entries, nil
}

// RunInTx runs fn in a repeatable-read transaction so a roll read inside fn
// stays stable until fn's writes commit.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return tx.Run(ctx, s.db, &sql.TxOptions{Isolation: sql.LevelRepeatableRead}, fn)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}

func toInt64s(voters []id.VoterID) []int64 {
	out := make([]int64, len(voters))
	for i, v := range voters {
		out[i] = v.Int64()
	}
	return out
}
