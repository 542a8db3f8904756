package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"decide/internal/census/metrics"
	"decide/internal/census/models"
	"decide/internal/platform/middleware"
	id "decide/pkg/domain"
	dErrors "decide/pkg/domain-errors"
	"decide/pkg/platform/audit"
	"decide/pkg/platform/sentinel"
	"decide/pkg/requestcontext"
)

// Store persists census entries. AddAll must be atomic: on any existing pair
// it inserts nothing and returns an error wrapping sentinel.ErrConflict.
type Store interface {
	AddAll(ctx context.Context, votingID id.VotingID, voterIDs []id.VoterID) (int, error)
	RemoveAll(ctx context.Context, votingID id.VotingID, voterIDs []id.VoterID) (int, error)
	ListVoters(ctx context.Context, votingID id.VotingID) ([]id.VoterID, error)
	Exists(ctx context.Context, votingID id.VotingID, voterID id.VoterID) (bool, error)
	List(ctx context.Context, filter models.Filter) ([]models.Entry, error)
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type IdentityStore interface {
	Exists(ctx context.Context, userID int64) (bool, error)
	FindByUsername(ctx context.Context, username string) (int64, bool, error)
}

type VotingCatalog interface {
	Exists(ctx context.Context, votingID int64) (bool, error)
}

// EligibilityCache is advisory. The store stays authoritative. Answers are
// stored under the generation read before the store lookup; Invalidate starts
// a new generation, so an answer from a read that raced a mutation is never
// served.
type EligibilityCache interface {
	Generation(ctx context.Context, votingID id.VotingID) (int64, error)
	Get(ctx context.Context, votingID id.VotingID, gen int64, voterID id.VoterID) (eligible bool, hit bool, err error)
	Set(ctx context.Context, votingID id.VotingID, gen int64, voterID id.VoterID, eligible bool) error
	Invalidate(ctx context.Context, votingID id.VotingID) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

var tracer = otel.Tracer("decide/internal/census/service")

// Service is the census registry: it owns the membership rules for voting
// rolls on top of a Store.
type Service struct {
	store          Store
	identities     IdentityStore
	votings        VotingCatalog
	cache          EligibilityCache
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithCache(c EligibilityCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func New(store Store, identities IdentityStore, votings VotingCatalog, opts ...Option) *Service {
	s := &Service{store: store, identities: identities, votings: votings}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// AddVoters enrolls voters in a voting. The batch is all-or-nothing: if any
// voter is already enrolled nothing is inserted and a conflict is returned.
func (s *Service) AddVoters(ctx context.Context, votingID id.VotingID, voterIDs []id.VoterID) (added int, err error) {
	ctx, span := s.startSpan(ctx, "census.AddVoters", votingID, len(voterIDs))
	defer func() { endSpan(span, err) }()

	if len(voterIDs) == 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "at least one voter is required")
	}
	if err := validateIDs(votingID, voterIDs); err != nil {
		return 0, err
	}

	added, err = s.insert(ctx, votingID, distinct(voterIDs))
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementConflict("add")
			return 0, dErrors.New(dErrors.CodeConflict, "one or more voters are already enrolled in this voting")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to add voters")
	}

	s.logAudit(ctx, audit.Event{Action: string(audit.EventVotersAdded), VotingID: votingID.Int64(), Count: added})
	return added, nil
}

// RemoveVoters deletes the matching entries and returns how many existed.
func (s *Service) RemoveVoters(ctx context.Context, votingID id.VotingID, voterIDs []id.VoterID) (removed int, err error) {
	ctx, span := s.startSpan(ctx, "census.RemoveVoters", votingID, len(voterIDs))
	defer func() { endSpan(span, err) }()

	if len(voterIDs) == 0 {
		return 0, nil
	}
	voterIDs = distinct(voterIDs)
	removed, err = s.store.RemoveAll(ctx, votingID, voterIDs)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove voters")
	}
	s.invalidate(ctx, votingID, voterIDs)
	s.metrics.IncrementVotersRemoved(removed)

	if removed > 0 {
		s.logAudit(ctx, audit.Event{Action: string(audit.EventVotersRemoved), VotingID: votingID.Int64(), Count: removed})
	}
	return removed, nil
}

// ListVoters returns the voters enrolled in a voting in ascending order.
func (s *Service) ListVoters(ctx context.Context, votingID id.VotingID) (voters []id.VoterID, err error) {
	ctx, span := s.startSpan(ctx, "census.ListVoters", votingID, 0)
	defer func() { endSpan(span, err) }()

	voters, err = s.store.ListVoters(ctx, votingID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list voters")
	}
	if voters == nil {
		voters = []id.VoterID{}
	}
	return voters, nil
}

// IsEligible reports whether the voter is enrolled. Absence is not an error.
func (s *Service) IsEligible(ctx context.Context, votingID id.VotingID, voterID id.VoterID) (eligible bool, err error) {
	ctx, span := s.startSpan(ctx, "census.IsEligible", votingID, 1)
	defer func() { endSpan(span, err) }()

	var (
		gen       int64
		cacheable bool
	)
	if s.cache != nil {
		var hit bool
		gen, eligible, hit, cacheable = s.cachedEligibility(ctx, votingID, voterID)
		if hit {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return eligible, nil
		}
	}

	eligible, err = s.store.Exists(ctx, votingID, voterID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check eligibility")
	}

	if cacheable {
		if err := s.cache.Set(ctx, votingID, gen, voterID, eligible); err != nil {
			s.logger.WarnContext(ctx, "eligibility cache write failed",
				"voting_id", votingID.Int64(),
				"error", err,
			)
		}
	}
	return eligible, nil
}

// cachedEligibility reads the voting generation and then the cached answer
// under it. cacheable is false when the cache cannot be used for this lookup.
func (s *Service) cachedEligibility(ctx context.Context, votingID id.VotingID, voterID id.VoterID) (gen int64, eligible, hit, cacheable bool) {
	gen, err := s.cache.Generation(ctx, votingID)
	if err == nil {
		eligible, hit, err = s.cache.Get(ctx, votingID, gen, voterID)
	}
	switch {
	case errors.Is(err, sentinel.ErrUnavailable):
		s.metrics.RecordCacheLookup("skipped")
		return 0, false, false, false
	case err != nil:
		s.metrics.RecordCacheLookup("error")
		s.logger.WarnContext(ctx, "eligibility cache lookup failed",
			"voting_id", votingID.Int64(),
			"error", err,
		)
		return 0, false, false, false
	case hit:
		s.metrics.RecordCacheLookup("hit")
		return gen, eligible, true, true
	default:
		s.metrics.RecordCacheLookup("miss")
		return gen, false, false, true
	}
}

// GetEntry returns the census entry for the pair or a not-found error.
func (s *Service) GetEntry(ctx context.Context, votingID id.VotingID, voterID id.VoterID) (*models.Entry, error) {
	eligible, err := s.IsEligible(ctx, votingID, voterID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, dErrors.New(dErrors.CodeNotFound, "voter is not enrolled in this voting")
	}
	return &models.Entry{VotingID: votingID, VoterID: voterID}, nil
}

// ReuseRoll copies the distinct voters of the source voting into the target.
// Any voter already present in the target rejects the whole copy.
func (s *Service) ReuseRoll(ctx context.Context, sourceVotingID, targetVotingID id.VotingID) (added int, err error) {
	ctx, span := s.startSpan(ctx, "census.ReuseRoll", targetVotingID, 0)
	span.SetAttributes(attribute.Int64("source_voting_id", sourceVotingID.Int64()))
	defer func() { endSpan(span, err) }()

	if sourceVotingID <= 0 || targetVotingID <= 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "voting ids must be positive")
	}

	var voters []id.VoterID
	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		source, err := s.store.ListVoters(ctx, sourceVotingID)
		if err != nil {
			return err
		}
		voters = distinct(source)
		if len(voters) == 0 {
			return nil
		}
		added, err = s.store.AddAll(ctx, targetVotingID, voters)
		return err
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementConflict("reuse")
			return 0, dErrors.New(dErrors.CodeTargetNotEmpty, "target voting already contains voters from the source roll")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reuse census")
	}

	s.invalidate(ctx, targetVotingID, voters)
	s.metrics.IncrementVotersAdded(added)
	s.metrics.IncrementRollsReused()
	s.logAudit(ctx, audit.Event{
		Action:         string(audit.EventRollReused),
		VotingID:       targetVotingID.Int64(),
		SourceVotingID: sourceVotingID.Int64(),
		Count:          added,
	})
	return added, nil
}

// insert stores the voters and keeps the cache and counters in step. Store
// errors are returned unchanged so callers can detect conflicts.
func (s *Service) insert(ctx context.Context, votingID id.VotingID, voterIDs []id.VoterID) (int, error) {
	added, err := s.store.AddAll(ctx, votingID, voterIDs)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, votingID, voterIDs)
	s.metrics.IncrementVotersAdded(added)
	return added, nil
}

func (s *Service) invalidate(ctx context.Context, votingID id.VotingID, voterIDs []id.VoterID) {
	if s.cache == nil || len(voterIDs) == 0 {
		return
	}
	if err := s.cache.Invalidate(ctx, votingID); err != nil {
		s.logger.WarnContext(ctx, "eligibility cache invalidation failed",
			"voting_id", votingID.Int64(),
			"voters", len(voterIDs),
			"error", err,
		)
	}
}

func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	event.ActorID = requestcontext.UserID(ctx)
	event.RequestID = middleware.GetRequestID(ctx)
	event.ClientIP = requestcontext.ClientIP(ctx)

	args := []any{
		"voting_id", event.VotingID,
		"count", event.Count,
		"actor_id", event.ActorID,
	}
	if event.RequestID != "" {
		args = append(args, "request_id", event.RequestID)
	}
	args = append(args, "event", event.Action, "log_type", "audit")
	s.logger.InfoContext(ctx, event.Action, args...)

	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"event", event.Action,
			"error", err,
		)
	}
}

func (s *Service) startSpan(ctx context.Context, name string, votingID id.VotingID, voters int) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.Int64("voting_id", votingID.Int64()),
		attribute.Int("voters", voters),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}

func validateIDs(votingID id.VotingID, voterIDs []id.VoterID) error {
	if votingID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "voting_id must be positive")
	}
	for _, v := range voterIDs {
		if v <= 0 {
			return dErrors.New(dErrors.CodeValidation, "voter ids must be positive")
		}
	}
	return nil
}

// distinct drops repeated ids and keeps first-appearance order.
func distinct[T comparable](ids []T) []T {
	seen := make(map[T]struct{}, len(ids))
	out := make([]T, 0, len(ids))
	for _, v := range ids {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
