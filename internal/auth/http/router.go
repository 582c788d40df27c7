package http

import (
	"net/http"
	"time"

	"github.com/AlibekovAA/storybooks/internal/auth/oauth"
	"github.com/AlibekovAA/storybooks/internal/auth/service"
	"github.com/AlibekovAA/storybooks/internal/auth/session"
	"github.com/AlibekovAA/storybooks/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/storybooks/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/storybooks/internal/common/errors"
	commonhttp "github.com/AlibekovAA/storybooks/internal/common/http"
	"github.com/AlibekovAA/storybooks/internal/common/logger"
	userdomain "github.com/AlibekovAA/storybooks/internal/user/domain"
)

type userResponse struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	Image       string    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

var errLoginDisabled = commonerrors.NewDomainError(
	"LOGIN_DISABLED",
	commonerrors.CategoryNotFound,
	http.StatusNotFound,
	"google login is not configured",
)

type Handler struct {
	auth     *service.AuthService
	sessions *session.Store
	provider oauth.Provider
	states   commoncrypto.IDGenerator
	errors   *commonhttp.ErrorHandler
	log      *logger.Logger
}

// NewHandler builds the auth routes. provider may be nil when Google login
// is not configured.
func NewHandler(auth *service.AuthService, sessions *session.Store, provider oauth.Provider, states commoncrypto.IDGenerator, log *logger.Logger) *Handler {
	return &Handler{
		auth:     auth,
		sessions: sessions,
		provider: provider,
		states:   states,
		errors:   commonhttp.NewErrorHandler(log),
		log:      log,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /auth/google", h.googleLogin)
	mux.HandleFunc("GET /auth/google/callback", h.googleCallback)
	mux.HandleFunc("GET /auth/logout", h.logout)
	mux.HandleFunc("GET /auth/me", h.me)
	mux.HandleFunc("POST /auth/token", h.issueToken)
}

func (h *Handler) googleLogin(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		h.errors.HandleError(w, r, errLoginDisabled)
		return
	}

	state, err := h.states.NewID()
	if err != nil {
		h.errors.HandleError(w, r, commonerrors.ErrInternalError.WithCause(err))
		return
	}
	if err := h.sessions.SaveState(w, r, state); err != nil {
		h.errors.HandleError(w, r, commonerrors.ErrInternalError.WithCause(err))
		return
	}

	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusFound)
}

// googleCallback completes the login. Any failure sends the browser back to
// the login page.
func (h *Handler) googleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.provider == nil {
		h.errors.HandleError(w, r, errLoginDisabled)
		return
	}

	expected, ok := h.sessions.TakeState(w, r)
	if !ok || r.URL.Query().Get("state") != expected {
		h.log.WithFields(ctx, logger.Fields{
			"action": "oauth_state_mismatch",
		}).Warn("oauth callback rejected: invalid state")
		h.failLogin(w, r)
		return
	}

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.log.WithFields(ctx, logger.Fields{
			"action": "oauth_denied",
		}).Warnf("oauth callback returned error: %s", errParam)
		h.failLogin(w, r)
		return
	}

	profile, err := h.provider.Exchange(ctx, r.URL.Query().Get("code"))
	if err != nil {
		h.log.WithFields(ctx, logger.Fields{
			"action": "oauth_exchange_failed",
		}).Warnf("oauth exchange failed: %v", err)
		h.failLogin(w, r)
		return
	}

	user, err := h.auth.Login(ctx, profile)
	if err != nil {
		h.failLogin(w, r)
		return
	}

	if err := h.sessions.Login(w, r, user.ID); err != nil {
		h.log.WithFields(ctx, logger.Fields{
			"user_id": user.ID,
			"action":  "session_save_failed",
		}).Errorf("session save failed: %v", err)
		h.failLogin(w, r)
		return
	}

	commonhttp.SeeOther(w, r, constants.DashboardPath)
}

func (h *Handler) failLogin(w http.ResponseWriter, r *http.Request) {
	commonhttp.SeeOther(w, r, constants.LoginPath)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(w, r); err != nil {
		h.log.WithFields(r.Context(), logger.Fields{
			"action": "logout_failed",
		}).Warnf("logout failed: %v", err)
	}
	commonhttp.SeeOther(w, r, constants.LoginPath)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Me(r.Context())
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) issueToken(w http.ResponseWriter, r *http.Request) {
	token, expiresAt, err := h.auth.IssueToken(r.Context())
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, tokenResponse{AccessToken: token, ExpiresAt: expiresAt})
}

func toUserResponse(u userdomain.User) userResponse {
	return userResponse{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Image:       u.Image,
		CreatedAt:   u.CreatedAt,
	}
}
