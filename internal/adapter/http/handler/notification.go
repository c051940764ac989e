package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Temutjin2k/ride-dispatch/internal/domain/models"
	"github.com/Temutjin2k/ride-dispatch/pkg/logger"
	wrap "github.com/Temutjin2k/ride-dispatch/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-dispatch/pkg/uuid"
)

// pollDefaultWindow is how far back a poll without ?since looks.
const pollDefaultWindow = 5 * time.Minute

type NotificationService interface {
	List(ctx context.Context, userID int64, isRead *bool) (*models.NotificationList, error)
	Unread(ctx context.Context, userID int64) (*models.NotificationList, error)
	Poll(ctx context.Context, userID int64, since time.Time) (*models.NotificationList, error)
	MarkRead(ctx context.Context, id uuid.UUID, userID int64) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
}

type Notification struct {
	service NotificationService
	l       logger.Logger
}

func NewNotification(service NotificationService, l logger.Logger) *Notification {
	return &Notification{
		service: service,
		l:       l,
	}
}

// List godoc
// @Summary      List notifications
// @Description  Returns the caller's notifications, newest first. ?is_read=true|false filters by read state.
// @Tags         Notifications
// @Produce      json
// @Success      200 {object} models.NotificationList
// @Router       /notifications [get]
func (h *Notification) List(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_notifications")
	who := models.IdentityFromContext(ctx)

	var isRead *bool
	if raw := r.URL.Query().Get("is_read"); raw != "" {
		switch raw {
		case "true":
			v := true
			isRead = &v
		case "false":
			v := false
			isRead = &v
		default:
			errorResponse(w, http.StatusBadRequest, "is_read must be true or false")
			return
		}
	}

	list, err := h.service.List(ctx, who.ID, isRead)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list notifications", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"notifications": list}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}
}

// Unread godoc
// @Summary      List unread notifications
// @Tags         Notifications
// @Produce      json
// @Success      200 {object} models.NotificationList
// @Router       /notifications/unread [get]
func (h *Notification) Unread(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_unread_notifications")
	who := models.IdentityFromContext(ctx)

	list, err := h.service.Unread(ctx, who.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list unread notifications", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"notifications": list}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}
}

// Poll godoc
// @Summary      Poll for recent notifications
// @Description  Returns notifications created after ?since (RFC3339); the last five minutes when omitted.
// @Tags         Notifications
// @Produce      json
// @Param        since query string false "RFC3339 timestamp"
// @Success      200 {object} models.NotificationList
// @Router       /notifications/poll [get]
func (h *Notification) Poll(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "poll_notifications")
	who := models.IdentityFromContext(ctx)

	since := time.Now().Add(-pollDefaultWindow)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			errorResponse(w, http.StatusBadRequest, "since must be an RFC3339 timestamp")
			return
		}
		since = parsed
	}

	list, err := h.service.Poll(ctx, who.ID, since)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to poll notifications", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"notifications": list}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}
}

// MarkRead godoc
// @Summary      Mark one notification as read
// @Tags         Notifications
// @Produce      json
// @Param        notification_id path string true "Notification ID"
// @Success      200 {object} models.Notification
// @Router       /notifications/{notification_id}/read [post]
func (h *Notification) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "mark_notification_read")
	who := models.IdentityFromContext(ctx)

	id, err := uuid.Parse(r.PathValue("notification_id"))
	if err != nil {
		h.l.Warn(ctx, "invalid notification uuid format")
		errorResponse(w, http.StatusBadRequest, "invalid notification uuid format")
		return
	}

	note, err := h.service.MarkRead(ctx, id, who.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to mark notification read", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"notification": note}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}
}

// MarkAllRead godoc
// @Summary      Mark all notifications as read
// @Tags         Notifications
// @Produce      json
// @Success      200 {object} map[string]any
// @Router       /notifications/read-all [post]
func (h *Notification) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "mark_all_notifications_read")
	who := models.IdentityFromContext(ctx)

	updated, err := h.service.MarkAllRead(ctx, who.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to mark notifications read", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"updated": updated}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}
}
