package models

import (
	"strings"

	id "decide/pkg/domain"
	dErrors "decide/pkg/domain-errors"
)

// Entry states that a voter may take part in a voting. The pair is unique.
type Entry struct {
	VotingID id.VotingID `json:"voting_id"`
	VoterID  id.VoterID  `json:"voter_id"`
}

// Filter selects entries for export. Nil fields match everything.
type Filter struct {
	VotingID *id.VotingID
	VoterID  *id.VoterID
}

// Matches reports whether e satisfies the filter.
func (f Filter) Matches(e Entry) bool {
	if f.VotingID != nil && *f.VotingID != e.VotingID {
		return false
	}
	if f.VoterID != nil && *f.VoterID != e.VoterID {
		return false
	}
	return true
}

// ByVoting returns a filter on a single voting.
func ByVoting(v id.VotingID) Filter { return Filter{VotingID: &v} }

// ByVoter returns a filter on a single voter.
func ByVoter(v id.VoterID) Filter { return Filter{VoterID: &v} }

// Format is a tabular serialization of census entries.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLS  Format = "xls"
	FormatJSON Format = "json"
)

// ParseFormat accepts csv, xls and json case-insensitively. The empty string
// means csv.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xls", "xlsx":
		return FormatXLS, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", dErrors.New(dErrors.CodeUnsupportedFormat, "unsupported format: "+s)
	}
}

// RowFailure explains why a single import row was skipped. Row is 1-based and
// counts data rows only.
type RowFailure struct {
	Row      int         `json:"row"`
	VotingID id.VotingID `json:"voting_id"`
	VoterID  id.VoterID  `json:"voter_id"`
	Reason   string      `json:"reason"`
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Imported int          `json:"imported"`
	Failed   int          `json:"failed"`
	Failures []RowFailure `json:"failures,omitempty"`
}

func (r *ImportResult) fail(f RowFailure) {
	r.Failed++
	r.Failures = append(r.Failures, f)
}

// RecordFailure adds a skipped row to the result.
func (r *ImportResult) RecordFailure(row int, e Entry, reason string) {
	r.fail(RowFailure{Row: row, VotingID: e.VotingID, VoterID: e.VoterID, Reason: reason})
}
