package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decide/pkg/platform/circuit"
	"decide/pkg/platform/sentinel"
)

func TestGuarded(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	breaker := circuit.New("eligibility-cache", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	g := NewGuarded(NewRedisCache(fake, time.Minute), breaker, slog.New(slog.NewTextHandler(io.Discard, nil)))

	gen, err := g.Generation(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, g.Set(ctx, 1, gen, 1, true))
	eligible, hit, err := g.Get(ctx, 1, gen, 1)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.True(t, eligible)

	fake.err = errors.New("i/o timeout")
	_, _, err = g.Get(ctx, 1, gen, 1)
	assert.Error(t, err)
	_, err = g.Generation(ctx, 1)
	assert.Error(t, err)
	assert.True(t, breaker.IsOpen())

	_, err = g.Generation(ctx, 1)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable, "open circuit skips the cache")
	_, hit, err = g.Get(ctx, 1, gen, 1)
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, g.Set(ctx, 1, gen, 2, false))

	assert.Error(t, g.Invalidate(ctx, 1), "invalidation is attempted while open")

	fake.err = nil
	require.NoError(t, g.Invalidate(ctx, 1))
	assert.False(t, breaker.IsOpen(), "a successful call closes the circuit")

	next, err := g.Generation(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, gen+1, next)
}
