package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestHub_BroadcastAndDirect(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	alice := &Client{hub: hub, UserID: "alice", Send: make(chan []byte, 4)}
	bob := &Client{hub: hub, UserID: "bob", Send: make(chan []byte, 4)}
	require.True(t, hub.Join(alice))
	require.True(t, hub.Join(bob))

	hub.BroadcastAll(NewCodesRotatedMessage(2))
	for _, c := range []*Client{alice, bob} {
		var msg Message
		require.NoError(t, json.Unmarshal(receive(t, c), &msg))
		assert.Equal(t, ActionCodesRotated, msg.Action)
	}

	hub.SendToUser("alice", NewConnectionCreatedMessage("bob", "Bob"))
	var msg Message
	require.NoError(t, json.Unmarshal(receive(t, alice), &msg))
	assert.Equal(t, ActionConnectionCreated, msg.Action)

	select {
	case extra := <-bob.Send:
		t.Fatalf("bob received a message meant for alice: %s", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_LeaveClosesSend(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	c := &Client{hub: hub, UserID: "u", Send: make(chan []byte, 1)}
	require.True(t, hub.Join(c))
	hub.Leave(c)

	select {
	case _, ok := <-c.Send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed")
	}
}

func TestHub_StoppedHubDoesNotBlock(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	hub.Stop()

	c := &Client{hub: hub, UserID: "u", Send: make(chan []byte, 1)}
	done := make(chan struct{})
	go func() {
		hub.Join(c)
		hub.Leave(c)
		hub.SendToUser("u", []byte("x"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub calls blocked after Stop")
	}
}
