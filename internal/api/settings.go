package api

import (
	"encoding/json"
	"net/http"

	"github.com/taskpulse/taskpulse/internal/listener"
	"github.com/taskpulse/taskpulse/internal/storage"
)

// Settings is the API view of the persisted configuration. The store API
// key is write-only: reads report whether one is set, never its value.
type Settings struct {
	UserID string `json:"user_id"`

	StoreURL       string `json:"store_url"`
	StoreAPIKeySet bool   `json:"store_api_key_set"`
	StoreUserID    string `json:"store_user_id"`

	MorningTime string `json:"morning_time"`
	EveningTime string `json:"evening_time"`

	DailyTodoEnabled      bool   `json:"daily_todo_enabled"`
	DailyTodoSkipHolidays bool   `json:"daily_todo_skip_holidays"`
	DailyTodoTemplate     string `json:"daily_todo_template"`
}

// handleGetSettings returns all settings
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings := Settings{
		UserID:                s.settings.Get(storage.KeyUserID, ""),
		StoreURL:              s.settings.Get(storage.KeyStoreURL, ""),
		StoreAPIKeySet:        s.settings.Get(storage.KeyStoreAPIKey, "") != "",
		StoreUserID:           s.settings.Get(storage.KeyStoreUserID, ""),
		MorningTime:           s.settings.Get(storage.KeyMorningTime, "09:00"),
		EveningTime:           s.settings.Get(storage.KeyEveningTime, "18:00"),
		DailyTodoEnabled:      s.settings.GetBool(storage.KeyDailyTodoEnabled, true),
		DailyTodoSkipHolidays: s.settings.GetBool(storage.KeyDailyTodoSkipHolidays, true),
		DailyTodoTemplate:     s.settings.Get(storage.KeyDailyTodoTemplate, listener.DefaultTemplate),
	}

	respondJSON(w, http.StatusOK, settings)
}

// handleUpdateSettings applies a partial settings update: only fields
// present in the request body are written.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var updates struct {
		UserID *string `json:"user_id"`

		StoreURL    *string `json:"store_url"`
		StoreAPIKey *string `json:"store_api_key"`
		StoreUserID *string `json:"store_user_id"`

		MorningTime *string `json:"morning_time"`
		EveningTime *string `json:"evening_time"`

		DailyTodoEnabled      *bool   `json:"daily_todo_enabled"`
		DailyTodoSkipHolidays *bool   `json:"daily_todo_skip_holidays"`
		DailyTodoTemplate     *string `json:"daily_todo_template"`
	}

	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	stringUpdates := map[string]*string{
		storage.KeyUserID:            updates.UserID,
		storage.KeyStoreURL:          updates.StoreURL,
		storage.KeyStoreAPIKey:       updates.StoreAPIKey,
		storage.KeyStoreUserID:       updates.StoreUserID,
		storage.KeyMorningTime:       updates.MorningTime,
		storage.KeyEveningTime:       updates.EveningTime,
		storage.KeyDailyTodoTemplate: updates.DailyTodoTemplate,
	}
	for key, value := range stringUpdates {
		if value == nil {
			continue
		}
		if err := s.settings.Set(key, *value); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	boolUpdates := map[string]*bool{
		storage.KeyDailyTodoEnabled:      updates.DailyTodoEnabled,
		storage.KeyDailyTodoSkipHolidays: updates.DailyTodoSkipHolidays,
	}
	for key, value := range boolUpdates {
		if value == nil {
			continue
		}
		if err := s.settings.SetBool(key, *value); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	s.handleGetSettings(w, r)
}
