package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/AlibekovAA/storybooks/internal/common/constants"
	commonhttp "github.com/AlibekovAA/storybooks/internal/common/http"
	"github.com/AlibekovAA/storybooks/internal/common/logger"
	"github.com/AlibekovAA/storybooks/internal/story/service"
)

type Handler struct {
	stories *service.StoryService
	errors  *commonhttp.ErrorHandler
	log     *logger.Logger
}

func NewHandler(stories *service.StoryService, log *logger.Logger) *Handler {
	return &Handler{
		stories: stories,
		errors:  commonhttp.NewErrorHandler(log),
		log:     log,
	}
}

// Register mounts the story routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /stories/add", h.addForm)
	mux.HandleFunc("POST /stories", h.create)
	mux.HandleFunc("GET /stories", h.listPublic)
	mux.HandleFunc("GET /stories/{id}", h.view)
	mux.HandleFunc("GET /stories/edit/{id}", h.editForm)
	mux.HandleFunc("PUT /stories/{id}", h.update)
	mux.HandleFunc("DELETE /stories/{id}", h.delete)
	mux.HandleFunc("GET /stories/user/{id}", h.listByUser)
	mux.HandleFunc("GET /stories/search/{query...}", h.search)
	mux.HandleFunc("GET "+constants.DashboardPath, h.dashboard)
}

func (h *Handler) addForm(w http.ResponseWriter, r *http.Request) {
	form, err := h.stories.AddForm(r.Context())
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, toFormResponse(form))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	req, err := decodeStoryRequest(r)
	if err != nil {
		h.log.WithFields(r.Context(), logger.Fields{"action": "story_create_bad_body"}).Warnf("create failed: %v", err)
		h.errors.HandleError(w, r, err)
		return
	}

	if _, err := h.stories.Create(r.Context(), req.draft()); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	commonhttp.SeeOther(w, r, constants.DashboardPath)
}

func (h *Handler) listPublic(w http.ResponseWriter, r *http.Request) {
	stories, err := h.stories.ListPublic(r.Context())
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, toStoryListResponse(stories))
}

func (h *Handler) view(w http.ResponseWriter, r *http.Request) {
	id, ok := h.storyID(w, r)
	if !ok {
		return
	}

	story, err := h.stories.View(r.Context(), id)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, toStoryResponse(story))
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.storyID(w, r)
	if !ok {
		return
	}

	story, outcome, err := h.stories.EditForm(r.Context(), id)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	if outcome == service.OutcomeDeniedRedirect {
		commonhttp.SeeOther(w, r, constants.StoriesListPath)
		return
	}

	form, err := h.stories.AddForm(r.Context())
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	resp := toFormResponse(form)
	s := toStoryResponse(story)
	resp.Story = &s
	commonhttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.storyID(w, r)
	if !ok {
		return
	}

	req, err := decodeStoryRequest(r)
	if err != nil {
		h.log.WithFields(r.Context(), logger.Fields{
			"story_id": id,
			"action":   "story_update_bad_body",
		}).Warnf("update failed: %v", err)
		h.errors.HandleError(w, r, err)
		return
	}

	_, outcome, err := h.stories.Update(r.Context(), id, req.patch())
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.redirectAfterWrite(w, r, outcome)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.storyID(w, r)
	if !ok {
		return
	}

	outcome, err := h.stories.Delete(r.Context(), id)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.redirectAfterWrite(w, r, outcome)
}

func (h *Handler) listByUser(w http.ResponseWriter, r *http.Request) {
	// A malformed user id cannot own anything.
	userID, err := commonhttp.PathID(r)
	if err != nil {
		userID = ""
	}

	stories, err := h.stories.ListByUser(r.Context(), userID)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, toStoryListResponse(stories))
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	stories, err := h.stories.Search(r.Context(), r.PathValue("query"))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, toStoryListResponse(stories))
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	stories, err := h.stories.Dashboard(r.Context())
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, toStoryListResponse(stories))
}

func (h *Handler) redirectAfterWrite(w http.ResponseWriter, r *http.Request, outcome service.Outcome) {
	if outcome == service.OutcomeDeniedRedirect {
		commonhttp.SeeOther(w, r, constants.StoriesListPath)
		return
	}
	commonhttp.SeeOther(w, r, constants.DashboardPath)
}

// storyID resolves the {id} wildcard. Ids that are not UUIDs cannot name a
// story, so they get the same answer as an absent one.
func (h *Handler) storyID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := commonhttp.PathID(r)
	if err != nil {
		h.errors.HandleError(w, r, service.ErrStoryNotFound)
		return "", false
	}
	return id, true
}

func decodeStoryRequest(r *http.Request) (storyRequest, error) {
	if commonhttp.IsFormRequest(r) {
		return decodeStoryForm(r)
	}

	var req storyRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		if errors.Is(err, io.EOF) {
			return storyRequest{}, nil
		}
		return storyRequest{}, service.ErrValidation.WithCause(err).WithDetails(map[string]any{
			"body": "must be a JSON object or form data",
		})
	}
	return req, nil
}

func decodeStoryForm(r *http.Request) (storyRequest, error) {
	if err := commonhttp.ParseForm(r); err != nil {
		return storyRequest{}, service.ErrValidation.WithCause(err).WithDetails(map[string]any{
			"body": "malformed form data",
		})
	}

	field := func(name string) *string {
		if _, ok := r.PostForm[name]; !ok {
			return nil
		}
		v := r.PostForm.Get(name)
		return &v
	}

	return storyRequest{
		Title:  field("title"),
		Body:   field("body"),
		Status: field("status"),
	}, nil
}
