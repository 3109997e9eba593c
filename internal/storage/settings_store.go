package storage

import (
	"database/sql"
	"time"
)

// Setting keys understood by the daemon. Values are stored as plain text;
// callers decide how to interpret them.
const (
	KeyStoreURL    = "store.url"
	KeyStoreAPIKey = "store.api_key"
	KeyStoreUserID = "store.user_id"
	KeyUserID      = "user.id"

	KeyMorningTime = "report.morning_time"
	KeyEveningTime = "report.evening_time"

	KeyDailyTodoEnabled      = "daily_todo.enabled"
	KeyDailyTodoSkipHolidays = "daily_todo.skip_holidays"
	KeyDailyTodoTemplate     = "daily_todo.template"
	KeyDailyTodoLastAdded    = "daily_todo.last_added_date"
)

// SettingsStore persists key/value configuration
type SettingsStore struct {
	db *DB
}

// NewSettingsStore creates a settings store
func NewSettingsStore(db *DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the value for key, or fallback when the key is absent.
func (s *SettingsStore) Get(key, fallback string) string {
	var value string
	err := s.db.Conn().QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		return fallback
	}
	return value
}

// GetBool returns the boolean value for key, or fallback when the key is
// absent or not parseable as "true"/"false".
func (s *SettingsStore) GetBool(key string, fallback bool) bool {
	switch s.Get(key, "") {
	case "true":
		return true
	case "false":
		return false
	default:
		return fallback
	}
}

// Set stores a value, replacing any previous one.
func (s *SettingsStore) Set(key, value string) error {
	_, err := s.db.Conn().Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	return err
}

// SetBool stores a boolean value.
func (s *SettingsStore) SetBool(key string, value bool) error {
	if value {
		return s.Set(key, "true")
	}
	return s.Set(key, "false")
}

// All returns every stored setting.
func (s *SettingsStore) All() (map[string]string, error) {
	rows, err := s.db.Conn().Query("SELECT key, value FROM settings ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}

	return settings, rows.Err()
}

// Delete removes a setting. Deleting an absent key is not an error.
func (s *SettingsStore) Delete(key string) error {
	_, err := s.db.Conn().Exec("DELETE FROM settings WHERE key = ?", key)
	if err == sql.ErrNoRows {
		return nil
	}
	return err
}
