package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "decide/pkg/domain-errors"
)

// TestParseID_Invariants validates the parsing invariant:
// IDs must be decimal, non-empty and strictly positive.
func TestParseID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseVotingID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects non numeric", func(t *testing.T) {
		_, err := ParseVoterID("abc")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects zero and negatives", func(t *testing.T) {
		for _, in := range []string{"0", "-4"} {
			_, err := ParseVoterID(in)
			require.Error(t, err, in)
		}
	})

	t.Run("accepts padded positive value", func(t *testing.T) {
		id, err := ParseVotingID(" 42 ")
		require.NoError(t, err)
		assert.Equal(t, VotingID(42), id)
		assert.Equal(t, "42", id.String())
	})
}

func TestParseID_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"sql injection", "1; DROP TABLE census;--"},
		{"overflow", "99999999999999999999999"},
		{"hex", "0x10"},
		{"float", "1.5"},
		{"null byte", "1\x00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseVotingID(tt.input)
			assert.Error(t, err)
		})
	}
}
