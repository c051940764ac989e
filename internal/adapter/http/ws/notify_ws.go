package ws

import (
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/Temutjin2k/ride-dispatch/pkg/logger"
	wrap "github.com/Temutjin2k/ride-dispatch/pkg/logger/wrapper"
	wshub "github.com/Temutjin2k/ride-dispatch/pkg/wsHub"
)

// NotifyWS upgrades user connections and registers them in the hub so the
// fan-out consumer can push notifications to connected users.
type NotifyWS struct {
	hub      *wshub.ConnectionHub
	upgrader websocket.Upgrader
	log      logger.Logger
}

func NewNotifyWS(hub *wshub.ConnectionHub, log logger.Logger) *NotifyWS {
	return &NotifyWS{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// HandleUserWS godoc
// @Summary      Notification push stream
// @Description  Upgrades to a WebSocket that receives the user's notifications as they happen
// @Tags         Notifications
// @Param        user_id path int true "User ID"
// @Router       /ws/users/{user_id} [get]
func (h *NotifyWS) HandleUserWS(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "ws_user_connect")

	userID, err := strconv.ParseInt(r.PathValue("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error(wrap.ErrorCtx(ctx, err), "websocket upgrade failed", err)
		return
	}

	if err := h.hub.Add(wshub.NewConn(userID, conn)); err != nil {
		h.log.Error(wrap.ErrorCtx(ctx, err), "failed to register connection", err)
		_ = conn.Close()
		return
	}

	h.log.Info(ctx, "user connected", "user_id", userID)

	// The read loop only exists to notice the peer going away; the push
	// direction is driven by the fan-out consumer through the hub.
	go func() {
		defer func() {
			_ = h.hub.Delete(userID)
			h.log.Info(ctx, "user disconnected", "user_id", userID)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
