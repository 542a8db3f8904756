package testutil

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"decide/pkg/requestcontext"
)

func TestWithPrincipal(t *testing.T) {
	req := WithPrincipal(NewRequest(t, http.MethodGet, "/census/"), 7, true)
	assert.Equal(t, int64(7), requestcontext.UserID(req.Context()))
	assert.True(t, requestcontext.IsStaff(req.Context()))

	req = WithUserID(NewRequest(t, http.MethodGet, "/census/"), 0)
	assert.Zero(t, requestcontext.UserID(req.Context()))
	assert.False(t, requestcontext.IsStaff(req.Context()))
}

func TestWithRequestID(t *testing.T) {
	req := WithRequestID(NewRequest(t, http.MethodGet, "/"), "req-1")
	assert.Equal(t, "req-1", requestcontext.RequestID(req.Context()))
}
