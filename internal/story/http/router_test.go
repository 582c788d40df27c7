package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/AlibekovAA/storybooks/internal/auth/principal"
	"github.com/AlibekovAA/storybooks/internal/common/clock"
	"github.com/AlibekovAA/storybooks/internal/common/crypto"
	"github.com/AlibekovAA/storybooks/internal/common/db"
	commonhttp "github.com/AlibekovAA/storybooks/internal/common/http"
	"github.com/AlibekovAA/storybooks/internal/common/logger"
	"github.com/AlibekovAA/storybooks/internal/story/repository"
	"github.com/AlibekovAA/storybooks/internal/story/service"
)

const (
	alice = "0f8fad5b-d9cb-469f-a165-70867728950e"
	bob   = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
)

type testServer struct {
	handler http.Handler
	clock   *clock.MockClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	conn, err := db.OpenSQLite(ctx, "file::memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if err := db.MigrateSQLite(ctx, conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := logger.NewWithWriter(&bytes.Buffer{}, "stories", "error")
	clk := clock.NewMockClock(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	svc := service.NewStoryService(repository.NewSQLiteRepository(conn, log), crypto.NewUUIDGenerator(), clk, nil, log)

	mux := http.NewServeMux()
	NewHandler(svc, log).Register(mux)

	// X-Test-User stands in for the session resolver.
	withUser := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get("X-Test-User"); id != "" {
			r = r.WithContext(principal.WithPrincipal(r.Context(), principal.Principal{UserID: id, DisplayName: "tester"}))
		}
		mux.ServeHTTP(w, r)
	})

	return &testServer{handler: commonhttp.MethodOverrideMiddleware(withUser), clock: clk}
}

func (s *testServer) do(t *testing.T, user, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createJSON(t *testing.T, user, body string) {
	t.Helper()
	rec := s.do(t, user, http.MethodPost, "/stories", "application/json", body)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/dashboard" {
		t.Fatalf("create: expected 303 to /dashboard, got %d %q: %s", rec.Code, rec.Header().Get("Location"), rec.Body.String())
	}
	s.clock.Advance(time.Second)
}

func (s *testServer) dashboard(t *testing.T, user string) []storyResponse {
	t.Helper()
	rec := s.do(t, user, http.MethodGet, "/dashboard", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d", rec.Code)
	}
	return decodeList(t, rec)
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []storyResponse {
	t.Helper()
	var resp storyListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	return resp.Stories
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) commonhttp.ErrorEnvelope {
	t.Helper()
	var env commonhttp.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func titles(stories []storyResponse) []string {
	out := make([]string, len(stories))
	for i, s := range stories {
		out[i] = s.Title
	}
	return out
}

func TestCreate_IgnoresForgedOwner(t *testing.T) {
	s := newTestServer(t)

	s.createJSON(t, alice, `{"title":"Mine","body":"b","status":"public","owner_id":"`+bob+`","user":"`+bob+`"}`)

	own := s.dashboard(t, alice)
	if len(own) != 1 || own[0].OwnerID != alice {
		t.Fatalf("expected story owned by alice, got %+v", own)
	}
	if len(s.dashboard(t, bob)) != 0 {
		t.Error("forged owner must not receive the story")
	}
}

func TestCreate_FormBodyDefaultsStatus(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, alice, http.MethodPost, "/stories", "application/x-www-form-urlencoded", url.Values{"title": {"From a form"}}.Encode())
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}

	own := s.dashboard(t, alice)
	if len(own) != 1 || own[0].Status != "public" {
		t.Errorf("expected one public story, got %+v", own)
	}
}

func multipartBody(t *testing.T, fields map[string]string) (string, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return mw.FormDataContentType(), buf.String()
}

func TestCreate_MultipartBody(t *testing.T) {
	s := newTestServer(t)

	contentType, body := multipartBody(t, map[string]string{"title": "Trip", "body": "x", "status": "private"})
	rec := s.do(t, alice, http.MethodPost, "/stories", contentType, body)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/dashboard" {
		t.Fatalf("expected 303 to /dashboard, got %d: %s", rec.Code, rec.Body.String())
	}

	own := s.dashboard(t, alice)
	if len(own) != 1 || own[0].Title != "Trip" || own[0].Body != "x" || own[0].Status != "private" {
		t.Errorf("unexpected stories %+v", own)
	}
}

func TestDelete_MultipartMethodOverride(t *testing.T) {
	s := newTestServer(t)
	s.createJSON(t, alice, `{"title":"Bye"}`)
	id := s.dashboard(t, alice)[0].ID

	contentType, body := multipartBody(t, map[string]string{"_method": "DELETE"})
	rec := s.do(t, alice, http.MethodPost, "/stories/"+id, contentType, body)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/dashboard" {
		t.Fatalf("expected 303 to /dashboard, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(s.dashboard(t, alice)) != 0 {
		t.Error("expected story to be deleted")
	}
}

func TestCreate_ValidationFailure(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, alice, http.MethodPost, "/stories", "application/json", `{"title":"  ","status":"everyone"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Code != "VALIDATION_FAILED" || env.Details["title"] == nil || env.Details["status"] == nil {
		t.Errorf("unexpected envelope %+v", env)
	}

	rec = s.do(t, alice, http.MethodPost, "/stories", "application/json", `{"title":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed json: expected 400, got %d", rec.Code)
	}
}

func TestRoutes_RequirePrincipal(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{"/stories", "/stories/add", "/dashboard", "/stories/search/x"} {
		rec := s.do(t, "", http.MethodGet, target, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", target, rec.Code)
		}
	}
}

func TestAddForm(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, alice, http.MethodGet, "/stories/add", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var form formResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &form); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if form.DefaultStatus != "public" || len(form.Statuses) != 2 || form.Story != nil {
		t.Errorf("unexpected form %+v", form)
	}
}

func TestView_PrivateHiddenFromOthers(t *testing.T) {
	s := newTestServer(t)
	s.createJSON(t, alice, `{"title":"Trip","body":"...","status":"private"}`)
	id := s.dashboard(t, alice)[0].ID

	rec := s.do(t, bob, http.MethodGet, "/stories/"+id, "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for non-owner, got %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Code != "STORY_NOT_FOUND" {
		t.Errorf("unexpected code %s", env.Code)
	}

	rec = s.do(t, alice, http.MethodGet, "/stories/"+id, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner, got %d", rec.Code)
	}
	var got storyResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Title != "Trip" || got.Body != "..." {
		t.Errorf("unexpected story %+v", got)
	}
}

func TestView_MalformedAndMissingIDs(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{"/stories/not-a-uuid", "/stories/" + bob, "/stories/edit/nope"} {
		rec := s.do(t, alice, http.MethodGet, target, "", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", target, rec.Code)
		}
	}
}

func TestEditForm(t *testing.T) {
	s := newTestServer(t)
	s.createJSON(t, alice, `{"title":"Draft","status":"private"}`)
	id := s.dashboard(t, alice)[0].ID

	rec := s.do(t, bob, http.MethodGet, "/stories/edit/"+id, "", "")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/stories" {
		t.Fatalf("expected 303 to /stories, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = s.do(t, alice, http.MethodGet, "/stories/edit/"+id, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var form formResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &form)
	if form.Story == nil || form.Story.Title != "Draft" {
		t.Errorf("expected prefilled story, got %+v", form)
	}
}

func TestUpdate_NonOwnerRedirectsWithoutChange(t *testing.T) {
	s := newTestServer(t)
	s.createJSON(t, alice, `{"title":"Original","body":"b","status":"public"}`)
	before := s.dashboard(t, alice)[0]

	rec := s.do(t, bob, http.MethodPut, "/stories/"+before.ID, "application/json", `{"title":"Hijacked","status":"private"}`)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/stories" {
		t.Fatalf("expected 303 to /stories, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = s.do(t, bob, http.MethodPost, "/stories/"+before.ID, "application/x-www-form-urlencoded", url.Values{"_method": {"DELETE"}}.Encode())
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/stories" {
		t.Fatalf("expected 303 to /stories, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	after := s.dashboard(t, alice)
	if len(after) != 1 || after[0] != before {
		t.Errorf("story changed: before=%+v after=%+v", before, after)
	}
}

func TestUpdate_OwnerViaMethodOverride(t *testing.T) {
	s := newTestServer(t)
	s.createJSON(t, alice, `{"title":"Old","body":"b","status":"public"}`)
	id := s.dashboard(t, alice)[0].ID

	form := url.Values{"_method": {"PUT"}, "title": {"New"}, "status": {"private"}}
	rec := s.do(t, alice, http.MethodPost, "/stories/"+id, "application/x-www-form-urlencoded", form.Encode())
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/dashboard" {
		t.Fatalf("expected 303 to /dashboard, got %d %q: %s", rec.Code, rec.Header().Get("Location"), rec.Body.String())
	}

	got := s.dashboard(t, alice)[0]
	if got.Title != "New" || got.Status != "private" || got.Body != "b" {
		t.Errorf("unexpected update result %+v", got)
	}

	rec = s.do(t, alice, http.MethodPut, "/stories/"+id, "application/json", `{"status":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty status, got %d", rec.Code)
	}
}

func TestDelete_Owner(t *testing.T) {
	s := newTestServer(t)
	s.createJSON(t, alice, `{"title":"Bye"}`)
	id := s.dashboard(t, alice)[0].ID

	rec := s.do(t, alice, http.MethodDelete, "/stories/"+id, "", "")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/dashboard" {
		t.Fatalf("expected 303 to /dashboard, got %d", rec.Code)
	}

	rec = s.do(t, alice, http.MethodGet, "/stories/"+id, "", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}

	rec = s.do(t, alice, http.MethodDelete, "/stories/"+id, "", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 deleting twice, got %d", rec.Code)
	}
}

func TestListPublicAndByUser(t *testing.T) {
	s := newTestServer(t)
	s.createJSON(t, alice, `{"title":"T1","status":"public"}`)
	s.createJSON(t, bob, `{"title":"T2","status":"public"}`)
	s.createJSON(t, bob, `{"title":"T3","status":"private"}`)

	rec := s.do(t, alice, http.MethodGet, "/stories", "", "")
	if got := titles(decodeList(t, rec)); strings.Join(got, ",") != "T2,T1" {
		t.Errorf("expected T2,T1 got %v", got)
	}

	rec = s.do(t, bob, http.MethodGet, "/stories/user/"+bob, "", "")
	if got := titles(decodeList(t, rec)); strings.Join(got, ",") != "T2" {
		t.Errorf("expected only public T2 even for the owner, got %v", got)
	}

	rec = s.do(t, bob, http.MethodGet, "/stories/user/garbage", "", "")
	if rec.Code != http.StatusOK || len(decodeList(t, rec)) != 0 {
		t.Errorf("expected empty list for malformed user id, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestSearch(t *testing.T) {
	s := newTestServer(t)
	s.createJSON(t, alice, `{"title":"Hello World","status":"public"}`)
	s.createJSON(t, alice, `{"title":"hello again","status":"private"}`)
	s.createJSON(t, bob, `{"title":"100% real","status":"public"}`)
	s.createJSON(t, bob, `{"title":"Ärger im Büro","status":"public"}`)

	testCases := []struct {
		query string
		want  string
	}{
		{query: "hel", want: "Hello World"},
		{query: "WORLD", want: "Hello World"},
		{query: "%25", want: "100% real"},
		{query: "xyz", want: ""},
		{query: "%C3%A4rger", want: "Ärger im Büro"},
		{query: "b%C3%9CRO", want: "Ärger im Büro"},
		{query: "", want: "Ärger im Büro,100% real,Hello World"},
	}

	for _, tc := range testCases {
		rec := s.do(t, bob, http.MethodGet, "/stories/search/"+tc.query, "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("query %q: expected 200, got %d", tc.query, rec.Code)
		}
		if got := strings.Join(titles(decodeList(t, rec)), ","); got != tc.want {
			t.Errorf("query %q: expected %q, got %q", tc.query, tc.want, got)
		}
	}

	rec := s.do(t, bob, http.MethodGet, "/stories/search/"+strings.Repeat("a", 101), "", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for long query, got %d", rec.Code)
	}
}
