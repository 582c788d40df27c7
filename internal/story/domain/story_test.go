package domain

import (
	"errors"
	"testing"
	"time"
)

func TestDraftNormalize(t *testing.T) {
	d := Draft{Title: "  Hello  ", Status: " PRIVATE "}.Normalize()
	if d.Title != "Hello" {
		t.Errorf("expected trimmed title, got %q", d.Title)
	}
	if d.Status != StatusPrivate {
		t.Errorf("expected private, got %q", d.Status)
	}

	if got := (Draft{Title: "x"}).Normalize().Status; got != StatusPublic {
		t.Errorf("expected default status public, got %q", got)
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name       string
		draft      Draft
		wantFields []string
	}{
		{name: "valid public", draft: Draft{Title: "Hello", Body: "World", Status: StatusPublic}},
		{name: "valid private empty body", draft: Draft{Title: "Hello", Status: StatusPrivate}},
		{name: "empty title", draft: Draft{Title: "", Status: StatusPublic}, wantFields: []string{"title"}},
		{name: "bad status", draft: Draft{Title: "Hello", Status: "draft"}, wantFields: []string{"status"}},
		{name: "both", draft: Draft{Status: "secret"}, wantFields: []string{"title", "status"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.draft)
			if len(tc.wantFields) == 0 {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			for _, f := range tc.wantFields {
				if _, ok := verr.Fields[f]; !ok {
					t.Errorf("expected field %s in %v", f, verr.Fields)
				}
			}
			if len(verr.Fields) != len(tc.wantFields) {
				t.Errorf("expected %d fields, got %v", len(tc.wantFields), verr.Fields)
			}
		})
	}
}

func TestPatchApply_KeepsIdentity(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := Story{ID: "s1", Title: "Old", Body: "b", Status: StatusPublic, OwnerID: "a", CreatedAt: created}

	title := "  New  "
	status := Status("Private")
	got := Patch{Title: &title, Status: &status}.Apply(s)

	if got.ID != "s1" || got.OwnerID != "a" || !got.CreatedAt.Equal(created) {
		t.Errorf("identity fields changed: %+v", got)
	}
	if got.Title != "New" || got.Status != StatusPrivate || got.Body != "b" {
		t.Errorf("unexpected merge result: %+v", got)
	}
	if !(Patch{}).IsEmpty() {
		t.Error("zero patch must be empty")
	}
}
