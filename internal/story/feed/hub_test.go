package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/AlibekovAA/storybooks/internal/common/logger"
	"github.com/AlibekovAA/storybooks/internal/story/domain"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(logger.NewWithWriter(&bytes.Buffer{}, "", "error"))
	hub.Start(context.Background())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = hub.Shutdown(ctx)
	})
	return hub
}

func newDetachedClient(hub *Hub, userID string, buf int) *Client {
	return &Client{hub: hub, userID: userID, send: make(chan []byte, buf)}
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case data, ok := <-c.send:
		if !ok {
			t.Fatal("client channel closed")
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestHub_BroadcastsPublicStories(t *testing.T) {
	hub := newTestHub(t)
	a := newDetachedClient(hub, "alice", 4)
	b := newDetachedClient(hub, "bob", 4)
	hub.Register(a)
	hub.Register(b)

	hub.StoryPublished(context.Background(), domain.Story{ID: "s1", Title: "Hello", Status: domain.StatusPublic, OwnerID: "alice"})

	for _, c := range []*Client{a, b} {
		ev := receive(t, c)
		if ev.Type != TypeStoryPublished {
			t.Fatalf("expected story_published, got %s", ev.Type)
		}
		var payload StoryPublishedPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload.ID != "s1" || payload.Title != "Hello" {
			t.Errorf("unexpected payload %+v", payload)
		}
	}
}

func TestHub_NeverSendsPrivateStories(t *testing.T) {
	hub := newTestHub(t)
	c := newDetachedClient(hub, "bob", 4)
	hub.Register(c)

	hub.StoryPublished(context.Background(), domain.Story{ID: "secret", Title: "Diary", Status: domain.StatusPrivate})
	hub.StoryWithdrawn(context.Background(), "gone")

	ev := receive(t, c)
	if ev.Type != TypeStoryWithdrawn {
		t.Fatalf("expected only the withdrawal, got %s", ev.Type)
	}
	var payload StoryWithdrawnPayload
	_ = json.Unmarshal(ev.Payload, &payload)
	if payload.ID != "gone" {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestHub_DisconnectsSlowClient(t *testing.T) {
	hub := newTestHub(t)
	slow := newDetachedClient(hub, "slow", 1)
	hub.Register(slow)

	hub.StoryWithdrawn(context.Background(), "first")
	hub.StoryWithdrawn(context.Background(), "second")
	time.Sleep(200 * time.Millisecond)

	if ev := receive(t, slow); ev.Type != TypeStoryWithdrawn {
		t.Fatalf("expected buffered event, got %s", ev.Type)
	}
	select {
	case _, ok := <-slow.send:
		if ok {
			t.Fatal("expected overflowing event to be dropped")
		}
	case <-time.After(time.Second):
		t.Fatal("expected slow client to be disconnected")
	}
}

func TestHub_ShutdownClosesClientsAndRejectsNewOnes(t *testing.T) {
	hub := NewHub(logger.NewWithWriter(&bytes.Buffer{}, "", "error"))
	hub.Start(context.Background())

	c := newDetachedClient(hub, "alice", 4)
	hub.Register(c)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := hub.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	ev := receive(t, c)
	if ev.Type != TypeShutdown {
		t.Errorf("expected shutdown event, got %s", ev.Type)
	}
	if _, ok := <-c.send; ok {
		t.Error("expected channel to be closed after shutdown")
	}

	if hub.Register(newDetachedClient(hub, "late", 1)) {
		t.Error("register must fail after shutdown")
	}
	hub.StoryWithdrawn(context.Background(), "x")
}
