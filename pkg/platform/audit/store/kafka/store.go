// Package kafka publishes census audit events to a Kafka topic. Each record is
// keyed by voting so all events for one roll land on the same partition.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "decide/pkg/platform/audit"
)

// Producer is the subset of *kgo.Client used by Store.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Store implements audit.Store on top of a franz-go client.
type Store struct {
	client Producer
	topic  string
}

// New creates a Kafka-backed audit store writing to topic.
func New(client Producer, topic string) *Store {
	return &Store{client: client, topic: topic}
}

// payload is the JSON record value. Field names are stable for consumers.
type payload struct {
	ID             string `json:"id"`
	Category       string `json:"category"`
	Timestamp      string `json:"timestamp"`
	Action         string `json:"action"`
	VotingID       int64  `json:"voting_id,omitempty"`
	SourceVotingID int64  `json:"source_voting_id,omitempty"`
	Count          int    `json:"count"`
	Failed         int    `json:"failed,omitempty"`
	Format         string `json:"format,omitempty"`
	Reason         string `json:"reason,omitempty"`
	ActorID        int64  `json:"actor_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	ClientIP       string `json:"client_ip,omitempty"`
}

// Append produces the event synchronously so callers learn about broker failures.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}
	value, err := json.Marshal(payload{
		ID:             event.ID,
		Category:       string(category),
		Timestamp:      event.Timestamp.UTC().Format(time.RFC3339Nano),
		Action:         event.Action,
		VotingID:       event.VotingID,
		SourceVotingID: event.SourceVotingID,
		Count:          event.Count,
		Failed:         event.Failed,
		Format:         event.Format,
		Reason:         event.Reason,
		ActorID:        event.ActorID,
		RequestID:      event.RequestID,
		ClientIP:       event.ClientIP,
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(strconv.FormatInt(event.VotingID, 10)),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(event.Action)},
		},
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}
