package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taskpulse/taskpulse/internal/notify"
)

// NotificationsAPI handles notification endpoints
type NotificationsAPI struct {
	service *notify.Service
}

// NewNotificationsAPI creates a new notifications API
func NewNotificationsAPI(service *notify.Service) *NotificationsAPI {
	return &NotificationsAPI{service: service}
}

// handleGetNotifications returns notifications with optional filters
func (api *NotificationsAPI) handleGetNotifications(w http.ResponseWriter, r *http.Request) {
	filter := notify.Filter{}

	if k := r.URL.Query().Get("kind"); k != "" {
		filter.Kind = notify.Kind(k)
	}
	if read := r.URL.Query().Get("read"); read != "" {
		b := read == "true"
		filter.Read = &b
	}
	if dismissed := r.URL.Query().Get("dismissed"); dismissed != "" {
		b := dismissed == "true"
		filter.Dismissed = &b
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		filter.Limit, _ = strconv.Atoi(l)
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		filter.Offset, _ = strconv.Atoi(o)
	}

	notifs, err := api.service.List(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifs,
		"count":         len(notifs),
	})
}

// handleGetNotification returns a single notification
func (api *NotificationsAPI) handleGetNotification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "id required")
		return
	}

	notif, err := api.service.Get(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, notif)
}

// handleMarkAllNotificationsRead marks all notifications as read
func (api *NotificationsAPI) handleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if err := api.service.MarkAllRead(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "all marked as read"})
}

// handleDismissNotification dismisses a notification
func (api *NotificationsAPI) handleDismissNotification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "id required")
		return
	}

	if err := api.service.Dismiss(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "dismissed"})
}

// handleGetUnreadCount returns the count of unread notifications
func (api *NotificationsAPI) handleGetUnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := api.service.UnreadCount(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"count": count})
}

// handleCreateNotification creates a notification (for testing/admin)
func (api *NotificationsAPI) handleCreateNotification(w http.ResponseWriter, r *http.Request) {
	var req notify.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "title required")
		return
	}

	notif, err := api.service.Create(r.Context(), req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, notif)
}
