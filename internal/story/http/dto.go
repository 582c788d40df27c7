package http

import (
	"time"

	"github.com/AlibekovAA/storybooks/internal/story/domain"
	"github.com/AlibekovAA/storybooks/internal/story/service"
)

// storyRequest carries the editable fields of a story. Anything else a
// client sends, such as an owner or user field, is dropped by decoding.
type storyRequest struct {
	Title  *string `json:"title"`
	Body   *string `json:"body"`
	Status *string `json:"status"`
}

func (r storyRequest) draft() domain.Draft {
	var d domain.Draft
	if r.Title != nil {
		d.Title = *r.Title
	}
	if r.Body != nil {
		d.Body = *r.Body
	}
	if r.Status != nil {
		d.Status = domain.Status(*r.Status)
	}
	return d
}

func (r storyRequest) patch() domain.Patch {
	p := domain.Patch{Title: r.Title, Body: r.Body}
	if r.Status != nil {
		status := domain.Status(*r.Status)
		p.Status = &status
	}
	return p
}

type storyResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	OwnerID   string    `json:"owner_id"`
	OwnerName string    `json:"owner_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type storyListResponse struct {
	Stories []storyResponse `json:"stories"`
}

type formResponse struct {
	Statuses      []string       `json:"statuses"`
	DefaultStatus string         `json:"default_status"`
	Story         *storyResponse `json:"story,omitempty"`
}

func toStoryResponse(s domain.Story) storyResponse {
	return storyResponse{
		ID:        s.ID,
		Title:     s.Title,
		Body:      s.Body,
		Status:    string(s.Status),
		OwnerID:   s.OwnerID,
		OwnerName: s.OwnerName,
		CreatedAt: s.CreatedAt,
	}
}

func toStoryListResponse(stories []domain.Story) storyListResponse {
	out := storyListResponse{Stories: make([]storyResponse, 0, len(stories))}
	for _, s := range stories {
		out.Stories = append(out.Stories, toStoryResponse(s))
	}
	return out
}

func toFormResponse(form service.FormSpec) formResponse {
	statuses := make([]string, 0, len(form.Statuses))
	for _, s := range form.Statuses {
		statuses = append(statuses, string(s))
	}
	return formResponse{Statuses: statuses, DefaultStatus: string(form.DefaultStatus)}
}
