// Package realtime is the hand-off boundary to the external push
// transport. After a successful join, leave, edit or comment the service
// publishes a state-change event here; actually delivering it to
// subscribed browsers is the transport's job, not ours.
package realtime

import (
	"context"
	"fmt"
	"time"
)

// Event types published to the transport
const (
	EventCollaboratorJoined = "collaborator.joined"
	EventCollaboratorLeft   = "collaborator.left"
	EventDocumentEdited     = "document.edited"
	EventCommentAdded       = "comment.added"
	EventCommentUpdated     = "comment.updated"
)

// Event is one state change on one document.
type Event struct {
	Type       string      `json:"type"`
	DocumentID uint64      `json:"documentId"`
	UserID     string      `json:"userId"`
	Payload    interface{} `json:"payload,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType string, documentID uint64, userID string, payload interface{}) Event {
	return Event{
		Type:       eventType,
		DocumentID: documentID,
		UserID:     userID,
		Payload:    payload,
		Timestamp:  time.Now().UTC(),
	}
}

// Subject returns the per-document routing key. NATS uses it as the
// subject, Redis as the channel name.
func Subject(documentID uint64) string {
	return fmt.Sprintf("collab.document.%d", documentID)
}

// Publisher emits events toward the external transport. Implementations
// log and absorb delivery problems; a publish failure never fails the
// operation that produced the event.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher discards events. Used when no transport is configured and
// in tests.
type NoopPublisher struct{}

// Publish implements Publisher.
func (NoopPublisher) Publish(ctx context.Context, event Event) error { return nil }

// Close implements Publisher.
func (NoopPublisher) Close() error { return nil }
