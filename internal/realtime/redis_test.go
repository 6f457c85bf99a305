package realtime_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/lexportal/collabsync/internal/realtime"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisPublisherDeliversOnDocumentChannel(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	sub := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer sub.Close()

	ctx := context.Background()
	pubsub := sub.Subscribe(ctx, realtime.Subject(42))
	defer pubsub.Close()
	_, err := pubsub.Receive(ctx)
	require.NoError(t, err)

	publisher := realtime.NewRedisPublisherWithClient(client, nil)

	event := realtime.NewEvent(realtime.EventDocumentEdited, 42, "user-1", map[string]string{"newVersion": "8"})
	require.NoError(t, publisher.Publish(ctx, event))

	select {
	case msg := <-pubsub.Channel():
		assert.Equal(t, "collab.document.42", msg.Channel)

		var got realtime.Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, realtime.EventDocumentEdited, got.Type)
		assert.Equal(t, uint64(42), got.DocumentID)
		assert.Equal(t, "user-1", got.UserID)
	case <-time.After(2 * time.Second):
		t.Fatal("No message received on the document channel")
	}
}

func TestRedisPublisherIsolatesDocuments(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	sub := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer sub.Close()

	ctx := context.Background()
	pubsub := sub.Subscribe(ctx, realtime.Subject(1))
	defer pubsub.Close()
	_, err := pubsub.Receive(ctx)
	require.NoError(t, err)

	publisher := realtime.NewRedisPublisherWithClient(client, nil)

	// Event on another document must not arrive on document 1's channel
	require.NoError(t, publisher.Publish(ctx, realtime.NewEvent(realtime.EventCommentAdded, 2, "user-1", nil)))
	require.NoError(t, publisher.Publish(ctx, realtime.NewEvent(realtime.EventCommentAdded, 1, "user-1", nil)))

	select {
	case msg := <-pubsub.Channel():
		var got realtime.Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, uint64(1), got.DocumentID)
	case <-time.After(2 * time.Second):
		t.Fatal("No message received on the document channel")
	}
}
