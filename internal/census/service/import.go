package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"decide/internal/census/dataset"
	"decide/internal/census/models"
	id "decide/pkg/domain"
	dErrors "decide/pkg/domain-errors"
	"decide/pkg/platform/audit"
	"decide/pkg/platform/sentinel"
	platformstrings "decide/pkg/platform/strings"
)

const (
	// lookupConcurrency bounds parallel existence checks during validation.
	lookupConcurrency   = 8
	maxReportedProblems = 10
)

type importRow struct {
	row   int
	entry models.Entry
}

type importGroup struct {
	votingID id.VotingID
	rows     []importRow
}

// BulkImport enrolls rows from an external source. Every row is validated
// before anything is written; an unknown voting or voter, or a malformed
// row, rejects the whole batch. Rows already enrolled are skipped and
// reported in the result while the rest are imported.
func (s *Service) BulkImport(ctx context.Context, rows []models.Entry) (result *models.ImportResult, err error) {
	ctx, span := tracer.Start(ctx, "census.BulkImport")
	defer func() { endSpan(span, err) }()
	start := time.Now()
	defer s.metrics.ObserveImport(start)

	result = &models.ImportResult{}
	if len(rows) == 0 {
		return result, nil
	}
	if err := s.validateRows(ctx, rows); err != nil {
		return nil, err
	}

	groups := groupByVoting(rows)
	for _, g := range groups {
		unique := make([]importRow, 0, len(g.rows))
		seen := make(map[id.VoterID]struct{}, len(g.rows))
		for _, r := range g.rows {
			if _, dup := seen[r.entry.VoterID]; dup {
				result.RecordFailure(r.row, r.entry, "duplicate row in import")
				continue
			}
			seen[r.entry.VoterID] = struct{}{}
			unique = append(unique, r)
		}

		voters := make([]id.VoterID, len(unique))
		for i, r := range unique {
			voters[i] = r.entry.VoterID
		}

		added, err := s.insert(ctx, g.votingID, voters)
		if err == nil {
			result.Imported += added
			continue
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to import census")
		}

		// Some voters are already enrolled: retry one by one so only the
		// conflicting rows are skipped.
		s.metrics.IncrementConflict("import")
		for _, r := range unique {
			added, err := s.insert(ctx, g.votingID, []id.VoterID{r.entry.VoterID})
			if errors.Is(err, sentinel.ErrConflict) {
				result.RecordFailure(r.row, r.entry, "voter already enrolled in voting")
				s.logger.WarnContext(ctx, "census import row skipped",
					"row", r.row,
					"voting_id", r.entry.VotingID.Int64(),
					"voter_id", r.entry.VoterID.Int64(),
					"reason", "conflict",
				)
				continue
			}
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to import census")
			}
			result.Imported += added
		}
	}

	s.metrics.RecordImport(result.Imported, result.Failed)
	event := audit.Event{Action: string(audit.EventImported), Count: result.Imported, Failed: result.Failed}
	if len(groups) == 1 {
		event.VotingID = groups[0].votingID.Int64()
	}
	s.logAudit(ctx, event)
	return result, nil
}

// ImportFile decodes a csv, xls or json file and imports its rows.
func (s *Service) ImportFile(ctx context.Context, format string, r io.Reader) (*models.ImportResult, error) {
	f, err := models.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	rows, err := dataset.Decode(f, r)
	if err != nil {
		return nil, err
	}
	return s.BulkImport(ctx, rows)
}

// ImportUsernames enrolls users by username, typically the members of a
// directory group. Unknown or ambiguous usernames reject the batch. Spellings
// that resolve to the same user are enrolled once.
func (s *Service) ImportUsernames(ctx context.Context, votingID id.VotingID, usernames []string) (*models.ImportResult, error) {
	var (
		rows      []models.Entry
		unknown   []string
		ambiguous []string
		seen      = map[int64]struct{}{}
	)
	for _, name := range platformstrings.DedupeAndTrim(usernames) {
		userID, ok, err := s.identities.FindByUsername(ctx, name)
		switch {
		case errors.Is(err, sentinel.ErrAmbiguous):
			ambiguous = append(ambiguous, name)
			continue
		case err != nil:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve usernames")
		case !ok:
			unknown = append(unknown, name)
			continue
		}
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		rows = append(rows, models.Entry{VotingID: votingID, VoterID: id.VoterID(userID)})
	}
	if len(unknown) > 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown users: "+summarize(unknown))
	}
	if len(ambiguous) > 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "ambiguous users, match the exact username: "+summarize(ambiguous))
	}
	if len(rows) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "no users to import")
	}
	return s.BulkImport(ctx, rows)
}

func (s *Service) validateRows(ctx context.Context, rows []models.Entry) error {
	var problems []string

	votingRow := map[id.VotingID]int{}
	voterRow := map[id.VoterID]int{}
	var votingIDs []id.VotingID
	var voterIDs []id.VoterID
	for i, r := range rows {
		row := i + 1
		if r.VotingID <= 0 || r.VoterID <= 0 {
			problems = append(problems, fmt.Sprintf("row %d: identifiers must be positive integers", row))
			continue
		}
		if _, ok := votingRow[r.VotingID]; !ok {
			votingRow[r.VotingID] = row
			votingIDs = append(votingIDs, r.VotingID)
		}
		if _, ok := voterRow[r.VoterID]; !ok {
			voterRow[r.VoterID] = row
			voterIDs = append(voterIDs, r.VoterID)
		}
	}
	if len(problems) > 0 {
		return dErrors.New(dErrors.CodeValidation, summarize(problems))
	}

	missingVoting := make([]bool, len(votingIDs))
	missingVoter := make([]bool, len(voterIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)
	for i, v := range votingIDs {
		i, v := i, v
		g.Go(func() error {
			ok, err := s.votings.Exists(gctx, v.Int64())
			if err != nil {
				return fmt.Errorf("check voting %d: %w", v, err)
			}
			missingVoting[i] = !ok
			return nil
		})
	}
	for i, v := range voterIDs {
		i, v := i, v
		g.Go(func() error {
			ok, err := s.identities.Exists(gctx, v.Int64())
			if err != nil {
				return fmt.Errorf("check voter %d: %w", v, err)
			}
			missingVoter[i] = !ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to validate import")
	}

	for i, missing := range missingVoting {
		if missing {
			problems = append(problems, fmt.Sprintf("row %d: voting %d does not exist", votingRow[votingIDs[i]], votingIDs[i]))
		}
	}
	for i, missing := range missingVoter {
		if missing {
			problems = append(problems, fmt.Sprintf("row %d: voter %d does not exist", voterRow[voterIDs[i]], voterIDs[i]))
		}
	}
	if len(problems) > 0 {
		return dErrors.New(dErrors.CodeValidation, summarize(problems))
	}
	return nil
}

// groupByVoting keeps votings in order of first appearance.
func groupByVoting(rows []models.Entry) []importGroup {
	index := map[id.VotingID]int{}
	var groups []importGroup
	for i, e := range rows {
		pos, ok := index[e.VotingID]
		if !ok {
			pos = len(groups)
			index[e.VotingID] = pos
			groups = append(groups, importGroup{votingID: e.VotingID})
		}
		groups[pos].rows = append(groups[pos].rows, importRow{row: i + 1, entry: e})
	}
	return groups
}

func summarize(problems []string) string {
	if len(problems) <= maxReportedProblems {
		return strings.Join(problems, "; ")
	}
	return fmt.Sprintf("%s; and %d more", strings.Join(problems[:maxReportedProblems], "; "), len(problems)-maxReportedProblems)
}
