package models

import (
	"strings"

	id "decide/pkg/domain"
	dErrors "decide/pkg/domain-errors"
)

// CreateCensusRequest enrolls voters in a voting.
type CreateCensusRequest struct {
	VotingID int64   `json:"voting_id"`
	Voters   []int64 `json:"voters"`
}

func (r *CreateCensusRequest) Validate() error {
	if r.VotingID <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "voting_id must be a positive integer")
	}
	return validateVoters(r.Voters)
}

// RemoveVotersRequest removes voters from a voting's census.
type RemoveVotersRequest struct {
	Voters []int64 `json:"voters"`
}

func (r *RemoveVotersRequest) Validate() error {
	return validateVoters(r.Voters)
}

// ReuseRollRequest copies the roll of one voting into another.
type ReuseRollRequest struct {
	SourceVotingID int64 `json:"source_voting_id"`
	TargetVotingID int64 `json:"target_voting_id"`
}

func (r *ReuseRollRequest) Validate() error {
	if r.SourceVotingID <= 0 || r.TargetVotingID <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "source_voting_id and target_voting_id must be positive integers")
	}
	return nil
}

// LDAPImportRequest enrolls the members of a directory group.
type LDAPImportRequest struct {
	VotingID int64  `json:"voting_id"`
	Group    string `json:"group"`
}

func (r *LDAPImportRequest) Normalize() {
	r.Group = strings.TrimSpace(r.Group)
}

func (r *LDAPImportRequest) Validate() error {
	if r.VotingID <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "voting_id must be a positive integer")
	}
	if r.Group == "" {
		return dErrors.New(dErrors.CodeBadRequest, "group is required")
	}
	return nil
}

func validateVoters(voters []int64) error {
	if len(voters) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "voters must not be empty")
	}
	for _, v := range voters {
		if v <= 0 {
			return dErrors.New(dErrors.CodeBadRequest, "voters must be positive integers")
		}
	}
	return nil
}

// VoterIDs converts raw request identifiers to typed IDs.
func VoterIDs(raw []int64) []id.VoterID {
	out := make([]id.VoterID, len(raw))
	for i, v := range raw {
		out[i] = id.VoterID(v)
	}
	return out
}

// ListVotersResponse mirrors the legacy census listing payload.
type ListVotersResponse struct {
	Voters []id.VoterID `json:"voters"`
}

type CreateCensusResponse struct {
	Message string `json:"message"`
	Added   int    `json:"added"`
}

type ReuseRollResponse struct {
	Added int `json:"added"`
}
