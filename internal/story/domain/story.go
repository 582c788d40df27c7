package domain

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPublic  Status = "public"
	StatusPrivate Status = "private"

	DefaultStatus = StatusPublic
)

var Statuses = []Status{StatusPublic, StatusPrivate}

func (s Status) Valid() bool {
	return s == StatusPublic || s == StatusPrivate
}

type Story struct {
	ID        string
	Title     string
	Body      string
	Status    Status
	OwnerID   string
	OwnerName string
	CreatedAt time.Time
}

func (s Story) IsPublic() bool {
	return s.Status == StatusPublic
}

// Draft is the caller-editable part of a story. Ownership and timestamps are
// never part of it.
type Draft struct {
	Title  string `validate:"required"`
	Body   string
	Status Status `validate:"story_status"`
}

// Normalize trims the title and applies the default status to an empty one.
func (d Draft) Normalize() Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Status = Status(strings.ToLower(strings.TrimSpace(string(d.Status))))
	if d.Status == "" {
		d.Status = DefaultStatus
	}
	return d
}

func (s Story) Draft() Draft {
	return Draft{Title: s.Title, Body: s.Body, Status: s.Status}
}

// Patch holds optional replacements for a stored story. Nil fields are left
// unchanged.
type Patch struct {
	Title  *string
	Body   *string
	Status *Status
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Body == nil && p.Status == nil
}

// Apply merges p onto s and returns the result. Identity, owner and creation
// time are carried over untouched.
func (p Patch) Apply(s Story) Story {
	if p.Title != nil {
		s.Title = strings.TrimSpace(*p.Title)
	}
	if p.Body != nil {
		s.Body = *p.Body
	}
	if p.Status != nil {
		s.Status = Status(strings.ToLower(strings.TrimSpace(string(*p.Status))))
	}
	return s
}
