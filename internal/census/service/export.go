package service

import (
	"context"
	"time"

	"decide/internal/census/dataset"
	"decide/internal/census/models"
	dErrors "decide/pkg/domain-errors"
	"decide/pkg/platform/audit"
)

// BulkExport serializes the entries matching filter in the given format.
func (s *Service) BulkExport(ctx context.Context, filter models.Filter, format string) (data []byte, err error) {
	ctx, span := tracer.Start(ctx, "census.BulkExport")
	defer func() { endSpan(span, err) }()

	f, err := models.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	start := time.Now()

	entries, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load census")
	}
	data, err = dataset.Encode(entries, f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode census")
	}
	s.metrics.ObserveExport(string(f), start)

	event := audit.Event{Action: string(audit.EventExported), Count: len(entries), Format: string(f)}
	if filter.VotingID != nil {
		event.VotingID = filter.VotingID.Int64()
	}
	s.logAudit(ctx, event)
	return data, nil
}
