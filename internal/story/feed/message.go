package feed

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	TypeStoryPublished EventType = "story_published"
	TypeStoryWithdrawn EventType = "story_withdrawn"
	TypeShutdown       EventType = "shutdown"
)

func (t EventType) String() string {
	return string(t)
}

type Event struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type StoryPublishedPayload struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	OwnerID   string    `json:"owner_id"`
	OwnerName string    `json:"owner_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type StoryWithdrawnPayload struct {
	ID string `json:"id"`
}

func marshalEvent(t EventType, payload any) ([]byte, error) {
	ev := Event{Type: t}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		ev.Payload = raw
	}
	return json.Marshal(ev)
}
