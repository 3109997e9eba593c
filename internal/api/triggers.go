package api

import (
	"net/http"
)

// Manual trigger endpoints mirror the background loops so the UI (or a
// curious operator) can run any check on demand.

func (s *Server) handleTriggerMessageCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.listener.TriggerMessageCheck(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "checked"})
}

func (s *Server) handleTriggerReminders(w http.ResponseWriter, r *http.Request) {
	s.listener.TriggerReminders(r.Context())
	respondJSON(w, http.StatusOK, map[string]string{"status": "checked"})
}

func (s *Server) handleTriggerMorningReport(w http.ResponseWriter, r *http.Request) {
	s.listener.TriggerMorningReport(r.Context())
	respondJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (s *Server) handleTriggerEveningReport(w http.ResponseWriter, r *http.Request) {
	s.listener.TriggerEveningReport(r.Context())
	respondJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (s *Server) handleTriggerAllReports(w http.ResponseWriter, r *http.Request) {
	s.listener.TriggerAllReports(r.Context())
	respondJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (s *Server) handleTriggerDailyTodos(w http.ResponseWriter, r *http.Request) {
	created := s.listener.TriggerDailyTodos(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "generated",
		"created": created,
	})
}
