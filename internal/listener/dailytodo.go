package listener

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/taskpulse/taskpulse/internal/remote"
	"github.com/taskpulse/taskpulse/internal/storage"
)

// TemplateTask is one parsed daily todo template line.
type TemplateTask struct {
	Title    string
	Priority string
	Category string
	Time     string // "HH:MM" deadline time of day
	Assignee string
}

// ParseTemplate parses the line-oriented daily todo template. Each line is
// title|priority|category|time|assignee with positional defaults for missing
// trailing fields; blank lines are skipped.
func ParseTemplate(template, defaultAssignee string) []TemplateTask {
	var tasks []TemplateTask

	for _, line := range strings.Split(template, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Split(line, "|")
		task := TemplateTask{
			Title:    strings.TrimSpace(parts[0]),
			Priority: "medium",
			Category: "other",
			Time:     "23:59",
			Assignee: defaultAssignee,
		}
		if task.Title == "" {
			continue
		}
		if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
			task.Priority = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
			task.Category = strings.TrimSpace(parts[2])
		}
		if len(parts) > 3 && strings.TrimSpace(parts[3]) != "" {
			task.Time = strings.TrimSpace(parts[3])
		}
		if len(parts) > 4 && strings.TrimSpace(parts[4]) != "" {
			task.Assignee = strings.TrimSpace(parts[4])
		}

		tasks = append(tasks, task)
	}

	return tasks
}

// buildDeadline combines a date string with an "HH:MM" time of day. An
// unparseable time falls back to end of day.
func buildDeadline(date, timeStr string) string {
	hours, minutes := 23, 59

	parts := strings.Split(timeStr, ":")
	if len(parts) > 0 {
		if h, err := strconv.Atoi(strings.TrimSpace(parts[0])); err == nil {
			hours = h
			minutes = 59
			if len(parts) > 1 {
				if m, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
					minutes = m
				}
			}
		}
	}

	return fmt.Sprintf("%sT%02d:%02d:00", date, hours, minutes)
}

// checkDailyTodos runs every heartbeat tick and materializes today's tasks
// once. The per-task existence check, not the last-added marker, is what
// keeps this idempotent across restarts.
func (s *Service) checkDailyTodos(ctx context.Context, cfg Config, now time.Time) {
	if cfg.UserID == "" {
		return
	}
	if !cfg.DailyTodoEnabled || strings.TrimSpace(cfg.DailyTodoTemplate) == "" {
		return
	}

	if cfg.DailyTodoSkipHolidays && s.calendar.IsHoliday(now) {
		s.log.Debug("today is a holiday, skipping daily todos")
		return
	}

	s.generateDailyTodos(ctx, cfg, now)
}

// generateDailyTodosForced is the manual-trigger path: it skips nothing but
// the enabled flag and holiday rule, and reports how many tasks it created.
func (s *Service) generateDailyTodosForced(ctx context.Context, cfg Config, now time.Time) int {
	if !cfg.DailyTodoEnabled || strings.TrimSpace(cfg.DailyTodoTemplate) == "" {
		s.log.Info("daily todos disabled or template empty, nothing to generate")
		return 0
	}
	if cfg.DailyTodoSkipHolidays && s.calendar.IsHoliday(now) {
		s.log.Info("today is a holiday, skipping daily todo generation")
		return 0
	}

	return s.generateDailyTodos(ctx, cfg, now)
}

func (s *Service) generateDailyTodos(ctx context.Context, cfg Config, now time.Time) int {
	if !cfg.StoreConfigured() {
		s.log.Warn("store credentials incomplete, cannot generate daily todos")
		return 0
	}

	date := now.Format("2006-01-02")
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	store := s.dial(cfg)
	created := 0

	for _, tpl := range ParseTemplate(cfg.DailyTodoTemplate, cfg.UserID) {
		exists, err := store.DailyTaskExists(ctx, tpl.Title, tpl.Assignee, dayStart)
		if err != nil {
			// A failed check defaults to "not found": a possible duplicate
			// beats silently skipping the task.
			s.log.Warn("daily task existence check failed for %q: %v", tpl.Title, err)
			exists = false
		}
		if exists {
			continue
		}

		task := remote.Task{
			UserID:      cfg.StoreUserID,
			Title:       tpl.Title,
			Description: "",
			Priority:    tpl.Priority,
			Category:    tpl.Category,
			Deadline:    buildDeadline(date, tpl.Time),
			Assignee:    tpl.Assignee,
			CreatedAt:   now.Format(remote.WallClock),
			Completed:   false,
			Status:      "pending",
			IsDailyTodo: true,
		}

		if err := store.CreateTask(ctx, task); err != nil {
			s.log.Error("create daily task %q: %v", tpl.Title, err)
			continue
		}
		created++
		s.log.Debug("created daily task: %s", tpl.Title)
	}

	if created > 0 {
		s.log.Info("created %d daily todo tasks for %s", created, date)
	}

	// Coarse marker only; duplicate protection comes from the existence
	// check above.
	if err := s.settings.Set(storage.KeyDailyTodoLastAdded, date); err != nil {
		s.log.Warn("record last daily todo date: %v", err)
	}

	return created
}
