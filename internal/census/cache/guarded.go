package cache

import (
	"context"
	"fmt"
	"log/slog"

	id "decide/pkg/domain"
	"decide/pkg/platform/circuit"
	"decide/pkg/platform/sentinel"
)

// Eligibility is the cache contract shared by RedisCache and Guarded.
type Eligibility interface {
	Generation(ctx context.Context, votingID id.VotingID) (int64, error)
	Get(ctx context.Context, votingID id.VotingID, gen int64, voterID id.VoterID) (eligible bool, hit bool, err error)
	Set(ctx context.Context, votingID id.VotingID, gen int64, voterID id.VoterID, eligible bool) error
	Invalidate(ctx context.Context, votingID id.VotingID) error
}

// Guarded stops reading from and writing to a failing cache until a trial call
// succeeds, so an unreachable Redis costs one timeout per cooldown instead of
// one per request. Invalidations are always attempted.
type Guarded struct {
	inner   Eligibility
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewGuarded(inner Eligibility, breaker *circuit.Breaker, logger *slog.Logger) *Guarded {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guarded{inner: inner, breaker: breaker, logger: logger}
}

// Generation returns sentinel.ErrUnavailable while the circuit is open so
// callers skip the cache for this lookup.
func (g *Guarded) Generation(ctx context.Context, votingID id.VotingID) (int64, error) {
	if !g.breaker.Allow() {
		return 0, fmt.Errorf("%s circuit open: %w", g.breaker.Name(), sentinel.ErrUnavailable)
	}
	gen, err := g.inner.Generation(ctx, votingID)
	g.record(ctx, err)
	return gen, err
}

func (g *Guarded) Get(ctx context.Context, votingID id.VotingID, gen int64, voterID id.VoterID) (bool, bool, error) {
	if g.breaker.IsOpen() {
		return false, false, nil
	}
	eligible, hit, err := g.inner.Get(ctx, votingID, gen, voterID)
	g.record(ctx, err)
	return eligible, hit, err
}

func (g *Guarded) Set(ctx context.Context, votingID id.VotingID, gen int64, voterID id.VoterID, eligible bool) error {
	if g.breaker.IsOpen() {
		return nil
	}
	err := g.inner.Set(ctx, votingID, gen, voterID, eligible)
	g.record(ctx, err)
	return err
}

func (g *Guarded) Invalidate(ctx context.Context, votingID id.VotingID) error {
	err := g.inner.Invalidate(ctx, votingID)
	g.record(ctx, err)
	return err
}

func (g *Guarded) record(ctx context.Context, err error) {
	if err != nil {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.WarnContext(ctx, "eligibility cache circuit opened",
				"breaker", g.breaker.Name(),
				"error", err,
			)
		}
		return
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "eligibility cache circuit closed",
			"breaker", g.breaker.Name(),
		)
	}
}
