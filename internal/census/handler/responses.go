package handler

import id "decide/pkg/domain"

type entryResponse struct {
	Message  string      `json:"message"`
	VotingID id.VotingID `json:"voting_id"`
	VoterID  id.VoterID  `json:"voter_id"`
}
