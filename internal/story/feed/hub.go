package feed

import (
	"context"
	"sync"

	"github.com/AlibekovAA/storybooks/internal/common/constants"
	"github.com/AlibekovAA/storybooks/internal/common/logger"
	"github.com/AlibekovAA/storybooks/internal/observability/metrics"
	"github.com/AlibekovAA/storybooks/internal/story/domain"
)

// Hub fans public story events out to every connected client. The client set
// is owned by the Run goroutine.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound
	done       chan struct{}
	stopped    chan struct{}
	cancel     context.CancelFunc
	once       sync.Once
	log        *logger.Logger
}

type outbound struct {
	eventType EventType
	data      []byte
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan outbound, constants.FeedSendBufSize),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		log:        log,
	}
}

// Start runs the hub in its own goroutine until ctx is cancelled or
// Shutdown is called.
func (h *Hub) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	go h.Run(ctx)
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	defer h.once.Do(func() { close(h.done) })

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			metrics.FeedConnectedClients.Inc()
			h.log.WithFields(ctx, logger.Fields{
				"user_id": client.userID,
				"total":   len(h.clients),
				"action":  "feed_register",
			}).Info("feed client registered")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.log.WithFields(ctx, logger.Fields{
					"user_id": client.userID,
					"total":   len(h.clients),
					"action":  "feed_unregister",
				}).Info("feed client unregistered")
			}

		case msg := <-h.broadcast:
			metrics.FeedEventsTotal.WithLabelValues(msg.eventType.String()).Inc()
			for client := range h.clients {
				select {
				case client.send <- msg.data:
				default:
					metrics.FeedDroppedTotal.Inc()
					h.drop(client)
					h.log.WithFields(ctx, logger.Fields{
						"user_id": client.userID,
						"type":    msg.eventType.String(),
						"action":  "feed_slow_client",
					}).Warn("feed client too slow, disconnecting")
				}
			}
		}
	}
}

// Register adds client to the hub. It reports false when the hub has
// already stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// StoryPublished announces a story that is now publicly visible. Private
// stories are never sent.
func (h *Hub) StoryPublished(ctx context.Context, story domain.Story) {
	if !story.IsPublic() {
		return
	}
	h.publish(ctx, TypeStoryPublished, StoryPublishedPayload{
		ID:        story.ID,
		Title:     story.Title,
		OwnerID:   story.OwnerID,
		OwnerName: story.OwnerName,
		CreatedAt: story.CreatedAt,
	})
}

// StoryWithdrawn tells subscribers to forget a story that is no longer
// public.
func (h *Hub) StoryWithdrawn(ctx context.Context, storyID string) {
	h.publish(ctx, TypeStoryWithdrawn, StoryWithdrawnPayload{ID: storyID})
}

func (h *Hub) publish(ctx context.Context, t EventType, payload any) {
	data, err := marshalEvent(t, payload)
	if err != nil {
		h.log.WithFields(ctx, logger.Fields{
			"type":   t.String(),
			"action": "feed_marshal",
		}).Errorf("feed marshal error: %v", err)
		return
	}

	select {
	case h.broadcast <- outbound{eventType: t, data: data}:
	case <-h.done:
	case <-ctx.Done():
		h.log.WithFields(ctx, logger.Fields{
			"type":   t.String(),
			"action": "feed_publish_cancelled",
		}).Warn("feed event not queued before request ended")
	}
}

// Shutdown stops the hub and waits for it to close every client.
func (h *Hub) Shutdown(ctx context.Context) error {
	if h.cancel != nil {
		h.cancel()
	}
	select {
	case <-h.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	metrics.FeedConnectedClients.Dec()
}

func (h *Hub) shutdown() {
	h.once.Do(func() { close(h.done) })

	msg, err := marshalEvent(TypeShutdown, nil)
	for client := range h.clients {
		if err == nil {
			select {
			case client.send <- msg:
			default:
			}
		}
		h.drop(client)
	}

	h.log.Info("feed hub shutdown completed")
}
