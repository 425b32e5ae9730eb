// Package notify bridges the core's delivery requests onto the
// notification topic consumed by the chat-facing notifier.
package notify

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"task_service/internal/domain"
	"task_service/pkg/kafka"
	"task_service/pkg/retry"
)

const (
	maxPublishRetries = 3
	publishBaseDelay  = 100 * time.Millisecond
)

// Event is the wire payload published per notification.
type Event struct {
	EventID     string                  `json:"event_id"`
	RecipientID int64                   `json:"recipient_id"`
	TaskID      int64                   `json:"task_id"`
	Kind        domain.NotificationKind `json:"kind"`
	OccurredAt  time.Time               `json:"occurred_at"`
}

type Publisher interface {
	Send(ctx context.Context, topic, key string, message interface{}) error
}

type KafkaSink struct {
	producer Publisher
	topic    string
	clock    domain.Clock
}

func NewKafkaSink(producer Publisher, topic string, clock domain.Clock) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic, clock: clock}
}

var _ Publisher = (*kafka.Producer)(nil)

// Notify publishes the notification event, retrying transient broker
// errors a few times. Delivery past the topic stays best effort.
func (s *KafkaSink) Notify(ctx context.Context, n domain.Notification) error {
	eventID, err := uuid.NewV7()
	if err != nil {
		eventID = uuid.New()
	}

	event := Event{
		EventID:     eventID.String(),
		RecipientID: n.RecipientID,
		TaskID:      n.TaskID,
		Kind:        n.Kind,
		OccurredAt:  s.clock.Now(),
	}

	key := strconv.FormatInt(n.RecipientID, 10)
	_, err = retry.WithBackoff(ctx, maxPublishRetries, publishBaseDelay, isTransient, func() (struct{}, error) {
		return struct{}{}, s.producer.Send(ctx, s.topic, key, event)
	})
	return err
}

func isTransient(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
