package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chavostd/internal/shared/testutil"
	"chavostd/pkg/contracts/events"
)

func newTestClient(h *Hub) *Client {
	return &Client{hub: h, send: make(chan []byte, 16)}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	h := NewHub(logger)
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func TestHubRegisterAndCount(t *testing.T) {
	h := startHub(t)
	require.Equal(t, 0, h.ClientCount())

	h.Register(newTestClient(h))

	assert.Eventually(t, func() bool { return h.ClientCount() == 1 },
		time.Second, 5*time.Millisecond)
}

func TestHubBroadcastReachesClients(t *testing.T) {
	h := startHub(t)
	client := newTestClient(h)
	h.Register(client)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 },
		time.Second, 5*time.Millisecond)

	h.BroadcastDatasetChange(events.EventDatasetAppended, 3, "trace-123")

	select {
	case payload := <-client.send:
		var event events.DatasetEvent
		require.NoError(t, json.Unmarshal(payload, &event))
		assert.Equal(t, events.EventDatasetAppended, event.Type)
		assert.Equal(t, 3, event.Rows)
		assert.Equal(t, "trace-123", event.TraceID)
		assert.False(t, event.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("no broadcast received")
	}
}

func TestHubBroadcastWithoutClients(t *testing.T) {
	h := startHub(t)
	// Must not block or panic with nobody listening.
	h.BroadcastDatasetChange(events.EventDatasetInvalidated, 0, "")
}

func TestHubDropsSlowConsumer(t *testing.T) {
	h := startHub(t)
	slow := &Client{hub: h, send: make(chan []byte)} // unbuffered, never drained
	h.Register(slow)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 },
		time.Second, 5*time.Millisecond)

	h.BroadcastDatasetChange(events.EventDatasetReplaced, 10, "")

	assert.Eventually(t, func() bool { return h.ClientCount() == 0 },
		time.Second, 5*time.Millisecond)
}

func TestHubStopDisconnectsClients(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewHub(logger)
	go h.Run()

	client := newTestClient(h)
	h.Register(client)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 },
		time.Second, 5*time.Millisecond)

	h.Stop()

	assert.Eventually(t, func() bool { return h.ClientCount() == 0 },
		time.Second, 5*time.Millisecond)
	// Stop is idempotent.
	h.Stop()
}
