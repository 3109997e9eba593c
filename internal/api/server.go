// Package api provides the HTTP API server for TaskPulse.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/taskpulse/taskpulse/internal/listener"
	"github.com/taskpulse/taskpulse/internal/logging"
	"github.com/taskpulse/taskpulse/internal/notify"
	"github.com/taskpulse/taskpulse/internal/scheduler"
	"github.com/taskpulse/taskpulse/internal/storage"
)

// Server is the HTTP API server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server

	db       *storage.DB
	settings *storage.SettingsStore
	notifier *notify.Service
	listener *listener.Service
	sched    *scheduler.Scheduler
	wsHub    *WebSocketHub

	log *logging.Logger
}

// Config for the server
type Config struct {
	Port     int
	DB       *storage.DB
	Settings *storage.SettingsStore
	Notifier *notify.Service
	Listener *listener.Service
	Sched    *scheduler.Scheduler
}

// New creates a new API server
func New(cfg Config) *Server {
	s := &Server{
		db:       cfg.DB,
		settings: cfg.Settings,
		notifier: cfg.Notifier,
		listener: cfg.Listener,
		sched:    cfg.Sched,
		wsHub:    NewWebSocketHub(),
		log:      logging.WithField("component", "api"),
	}

	// Push every notification out over the websocket feed.
	if s.notifier != nil {
		s.notifier.Subscribe(&notifySubscriber{hub: s.wsHub})
	}

	s.setupRouter()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRouter configures all routes
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleGetStatus)

		// Scheduler loops
		r.Get("/loops", s.handleGetLoops)
		r.Post("/loops/{id}/run", s.handleRunLoop)

		// Notifications
		if s.notifier != nil {
			notifAPI := NewNotificationsAPI(s.notifier)
			r.Get("/notifications", notifAPI.handleGetNotifications)
			r.Post("/notifications", notifAPI.handleCreateNotification)
			r.Get("/notifications/unread-count", notifAPI.handleGetUnreadCount)
			r.Post("/notifications/read-all", notifAPI.handleMarkAllNotificationsRead)
			r.Get("/notifications/{id}", notifAPI.handleGetNotification)
			r.Post("/notifications/{id}/read", s.handleMarkNotificationRead)
			r.Post("/notifications/{id}/dismiss", notifAPI.handleDismissNotification)
		}

		// Settings
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleUpdateSettings)

		// Manual triggers
		if s.listener != nil {
			r.Post("/triggers/message-check", s.handleTriggerMessageCheck)
			r.Post("/triggers/reminders", s.handleTriggerReminders)
			r.Post("/triggers/morning-report", s.handleTriggerMorningReport)
			r.Post("/triggers/evening-report", s.handleTriggerEveningReport)
			r.Post("/triggers/all-reports", s.handleTriggerAllReports)
			r.Post("/triggers/daily-todos", s.handleTriggerDailyTodos)
		}
	})

	// WebSocket
	r.Get("/ws", s.wsHub.ServeHTTP)

	s.router = r
}

// Start starts the HTTP server
func (s *Server) Start() error {
	go s.wsHub.Run()

	s.log.Info("API server starting on http://localhost%s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Broadcast sends a message to all WebSocket clients
func (s *Server) Broadcast(msgType string, data interface{}) {
	s.wsHub.Broadcast(WebSocketMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// --- Response helpers ---

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"scheduler": s.sched.GetStats(),
	}

	if s.listener != nil {
		status["dedup"] = s.listener.Ledger().Stats()
		status["last_reports"] = s.listener.Ledger().LastReports()
	}
	if s.notifier != nil {
		count, err := s.notifier.UnreadCount(r.Context())
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		status["unread_notifications"] = count
	}

	respondJSON(w, http.StatusOK, status)
}

// handleMarkNotificationRead marks the local notification read and, for
// message notifications, propagates the read flag to the remote store.
func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "id required")
		return
	}

	notif, err := s.notifier.Get(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	if err := s.notifier.MarkRead(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if notif.MessageID != 0 && s.listener != nil {
		if err := s.listener.MarkMessageRead(r.Context(), notif.MessageID); err != nil {
			// Local state is already updated; the remote flag is best effort.
			s.log.Warn("mark remote message %d read: %v", notif.MessageID, err)
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "marked as read"})
}

func (s *Server) handleGetLoops(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.sched.ListLoops())
}

func (s *Server) handleRunLoop(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sched.RunNow(id); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "running"})
}
