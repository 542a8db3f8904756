// Package domain holds typed identifiers shared across modules. Parsing happens
// at trust boundaries so services only ever see valid, positive IDs.
package domain

import (
	"strconv"
	"strings"

	dErrors "decide/pkg/domain-errors"
)

// VotingID identifies a voting in the catalog.
type VotingID int64

// VoterID identifies a registered user who may be enrolled in a census.
type VoterID int64

func (v VotingID) Int64() int64   { return int64(v) }
func (v VotingID) String() string { return strconv.FormatInt(int64(v), 10) }

func (v VoterID) Int64() int64   { return int64(v) }
func (v VoterID) String() string { return strconv.FormatInt(int64(v), 10) }

// ParseVotingID parses a decimal, positive voting identifier.
func ParseVotingID(s string) (VotingID, error) {
	n, err := parsePositive(s, "voting_id")
	if err != nil {
		return 0, err
	}
	return VotingID(n), nil
}

// ParseVoterID parses a decimal, positive voter identifier.
func ParseVoterID(s string) (VoterID, error) {
	n, err := parsePositive(s, "voter_id")
	if err != nil {
		return 0, err
	}
	return VoterID(n), nil
}

func parsePositive(s, field string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeBadRequest, field+" is required")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, field+" must be an integer")
	}
	if n <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, field+" must be positive")
	}
	return n, nil
}
