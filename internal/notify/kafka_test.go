package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task_service/internal/domain"
	"task_service/internal/notify"
)

type fakePublisher struct {
	failures int
	calls    int
	topic    string
	key      string
	payload  interface{}
}

func (f *fakePublisher) Send(ctx context.Context, topic, key string, message interface{}) error {
	f.calls++
	if f.calls <= f.failures {
		return assert.AnError
	}
	f.topic = topic
	f.key = key
	f.payload = message
	return nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func TestKafkaSink_Notify(t *testing.T) {
	now := time.Date(2025, 7, 16, 10, 0, 0, 0, time.UTC)

	t.Run("publishes a keyed event", func(t *testing.T) {
		pub := &fakePublisher{}
		sink := notify.NewKafkaSink(pub, "task-notifications", fixedClock{now})

		err := sink.Notify(context.Background(), domain.Notification{
			RecipientID: 200,
			TaskID:      42,
			Kind:        domain.NotificationPreDeadline,
		})
		require.NoError(t, err)
		assert.Equal(t, "task-notifications", pub.topic)
		assert.Equal(t, "200", pub.key)

		event, ok := pub.payload.(notify.Event)
		require.True(t, ok)
		assert.NotEmpty(t, event.EventID)
		assert.Equal(t, int64(42), event.TaskID)
		assert.Equal(t, domain.NotificationPreDeadline, event.Kind)
		assert.Equal(t, now, event.OccurredAt)
	})

	t.Run("retries transient publish errors", func(t *testing.T) {
		pub := &fakePublisher{failures: 2}
		sink := notify.NewKafkaSink(pub, "task-notifications", fixedClock{now})

		err := sink.Notify(context.Background(), domain.Notification{RecipientID: 200, TaskID: 42})
		require.NoError(t, err)
		assert.Equal(t, 3, pub.calls)
	})

	t.Run("gives up after the attempt budget", func(t *testing.T) {
		pub := &fakePublisher{failures: 10}
		sink := notify.NewKafkaSink(pub, "task-notifications", fixedClock{now})

		err := sink.Notify(context.Background(), domain.Notification{RecipientID: 200, TaskID: 42})
		require.Error(t, err)
		assert.Equal(t, 3, pub.calls)
	})
}

func TestEventJSONShape(t *testing.T) {
	event := notify.Event{
		EventID:     "e1",
		RecipientID: 200,
		TaskID:      42,
		Kind:        domain.NotificationNewTask,
		OccurredAt:  time.Date(2025, 7, 16, 10, 0, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(event)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"event_id": "e1",
		"recipient_id": 200,
		"task_id": 42,
		"kind": "NEW_TASK",
		"occurred_at": "2025-07-16T10:00:00Z"
	}`, string(raw))
}

func TestRenderMessage(t *testing.T) {
	tests := []struct {
		kind domain.NotificationKind
		want string
	}{
		{domain.NotificationNewTask, "You have been assigned task #42. Reply to accept or decline it."},
		{domain.NotificationPreDeadline, "Task #42 is due within the hour."},
		{domain.NotificationStatusChanged, "Task #42 changed status."},
		{domain.NotificationKind("SOMETHING_NEW"), "Update on task #42."},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got := notify.RenderMessage(notify.Event{TaskID: 42, Kind: tt.kind})
			assert.Equal(t, tt.want, got)
		})
	}
}
