// Package events is the fire-and-forget mutation channel. Delivery is
// at-most-once with no persistence or replay: downstream consumers are
// expected to tolerate lost events. Fast and decoupled over guaranteed
// delivery is the deliberate trade-off here; do not swap in a durable queue.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Type discriminates watchlist mutations.
type Type string

const (
	TypeAdded   Type = "ADDED"
	TypeRemoved Type = "REMOVED"
)

// MutationEvent is published once per committed watchlist mutation.
type MutationEvent struct {
	Type          Type      `json:"type"`
	OwnerID       string    `json:"ownerId"`
	SubjectKey    string    `json:"subjectKey"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlationId"`
}

// NewMutationEvent builds an event, minting a correlation ID when the request
// did not carry one.
func NewMutationEvent(t Type, ownerID, subjectKey string, timestamp time.Time, correlationID string) MutationEvent {
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	return MutationEvent{
		Type:          t,
		OwnerID:       ownerID,
		SubjectKey:    subjectKey,
		Timestamp:     timestamp,
		CorrelationID: correlationID,
	}
}
