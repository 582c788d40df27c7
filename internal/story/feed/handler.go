package feed

import (
	"net/http"

	gorillaWS "github.com/gorilla/websocket"

	"github.com/AlibekovAA/storybooks/internal/auth/principal"
	"github.com/AlibekovAA/storybooks/internal/common/constants"
	commonerrors "github.com/AlibekovAA/storybooks/internal/common/errors"
	commonhttp "github.com/AlibekovAA/storybooks/internal/common/http"
	"github.com/AlibekovAA/storybooks/internal/common/logger"
)

type Handler struct {
	hub         *Hub
	upgrader    gorillaWS.Upgrader
	sendBufSize int
	log         *logger.Logger
}

func NewHandler(hub *Hub, sendBufSize int, log *logger.Logger) *Handler {
	return &Handler{
		hub:         hub,
		sendBufSize: sendBufSize,
		upgrader: gorillaWS.Upgrader{
			ReadBufferSize:  constants.FeedReadBufferSize,
			WriteBufferSize: constants.FeedWriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				host := r.Host
				if host == "" {
					host = r.URL.Host
				}
				return origin == "http://"+host || origin == "https://"+host
			},
		},
		log: log,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/stories", h.subscribe)
}

func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, ok := principal.FromContext(ctx)
	if !ok {
		commonhttp.HandleError(w, r, commonerrors.ErrUnauthenticated, h.log)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithFields(ctx, logger.Fields{
			"user_id": p.UserID,
			"action":  "feed_upgrade_failed",
		}).Warnf("feed upgrade failed: %v", err)
		return
	}

	client := NewClient(h.hub, conn, p.UserID, h.sendBufSize, h.log)
	if !h.hub.Register(client) {
		_ = conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseGoingAway, "shutting down"))
		_ = conn.Close()
		return
	}
	client.Start()
}
