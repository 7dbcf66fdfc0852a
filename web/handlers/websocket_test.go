package handlers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/triad/pkg/types"
)

func TestHubBroadcastsProgressToClients(t *testing.T) {
	hub := NewWebSocketHub(6464)
	go hub.Run()
	defer hub.Stop()

	mock := &MockClient{SendChan: make(chan []byte, 16)}
	hub.Register(mock)

	hub.BroadcastProgress(types.JobSnapshot{
		ID:               "job:test",
		Status:           types.JobRunning,
		CurrentIteration: 10,
		MaxIterations:    100,
	})

	select {
	case data := <-mock.SendChan:
		var msg ProgressMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, "job_progress", msg.Type)
		assert.Equal(t, "job:test", msg.Job.ID)
		assert.Equal(t, 10, msg.Job.CurrentIteration)
	case <-time.After(2 * time.Second):
		t.Fatal("no message broadcast to client")
	}
}

func TestHubDropsSlowClients(t *testing.T) {
	hub := NewWebSocketHub(6464)
	go hub.Run()
	defer hub.Stop()

	// Unbuffered channel: the first broadcast cannot be delivered, so the
	// hub disconnects the client instead of blocking the job goroutine.
	mock := &MockClient{SendChan: make(chan []byte)}
	hub.Register(mock)

	hub.BroadcastProgress(types.JobSnapshot{ID: "job:slow", Status: types.JobRunning})

	// Give the hub loop time to attempt delivery and give up.
	time.Sleep(100 * time.Millisecond)

	select {
	case _, ok := <-mock.SendChan:
		assert.False(t, ok, "expected the send channel to be closed")
	case <-time.After(2 * time.Second):
		t.Fatal("slow client was not dropped")
	}
}
