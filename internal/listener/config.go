package listener

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/taskpulse/taskpulse/internal/storage"
)

// DefaultTemplate is the daily todo template used until the user saves one.
// One task per line: title|priority|category|time|assignee, later fields
// optional.
const DefaultTemplate = "上班打卡|high|work|09:50\n下班打卡|high|work|19:00"

// Config is a per-tick snapshot of the persisted settings. Loops read one
// snapshot at the start of a tick so a mid-tick settings change cannot mix
// old and new values.
type Config struct {
	UserID string

	StoreURL    string
	StoreAPIKey string
	StoreUserID string

	ReportTimes ReportTimes

	DailyTodoEnabled      bool
	DailyTodoSkipHolidays bool
	DailyTodoTemplate     string
}

// StoreConfigured reports whether the remote store credentials are complete.
func (c Config) StoreConfigured() bool {
	return c.StoreURL != "" && c.StoreAPIKey != "" && c.StoreUserID != ""
}

// ReportTimes holds the resolved morning and evening trigger times.
type ReportTimes struct {
	MorningHour   int
	MorningMinute int
	EveningHour   int
	EveningMinute int
}

// DefaultReportTimes is used whenever either configured time fails to parse.
// Partial failures are never mixed with partial defaults.
func DefaultReportTimes() ReportTimes {
	return ReportTimes{MorningHour: 9, EveningHour: 18}
}

// ParseReportTimes resolves two "HH:MM" strings. A parse failure of either
// one falls back to the full default pair.
func ParseReportTimes(morning, evening string) ReportTimes {
	mh, mm, err := parseClock(morning)
	if err != nil {
		return DefaultReportTimes()
	}
	eh, em, err := parseClock(evening)
	if err != nil {
		return DefaultReportTimes()
	}

	return ReportTimes{
		MorningHour:   mh,
		MorningMinute: mm,
		EveningHour:   eh,
		EveningMinute: em,
	}
}

func parseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) == 0 || parts[0] == "" {
		return 0, 0, fmt.Errorf("empty time %q", s)
	}

	hour, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	if len(parts) > 1 {
		minute, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return 0, 0, fmt.Errorf("invalid minute in %q: %w", s, err)
		}
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time %q out of range", s)
	}

	return hour, minute, nil
}

// loadConfig takes the settings snapshot for one tick.
func loadConfig(settings *storage.SettingsStore) Config {
	return Config{
		UserID:      settings.Get(storage.KeyUserID, ""),
		StoreURL:    settings.Get(storage.KeyStoreURL, ""),
		StoreAPIKey: settings.Get(storage.KeyStoreAPIKey, ""),
		StoreUserID: settings.Get(storage.KeyStoreUserID, ""),
		ReportTimes: ParseReportTimes(
			settings.Get(storage.KeyMorningTime, "09:00"),
			settings.Get(storage.KeyEveningTime, "18:00"),
		),
		DailyTodoEnabled:      settings.GetBool(storage.KeyDailyTodoEnabled, true),
		DailyTodoSkipHolidays: settings.GetBool(storage.KeyDailyTodoSkipHolidays, true),
		DailyTodoTemplate:     settings.Get(storage.KeyDailyTodoTemplate, DefaultTemplate),
	}
}
