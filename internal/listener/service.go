// Package listener runs the background loops that watch the remote task
// store: the message poll loop, the heartbeat loop driving daily reports,
// task warnings, and daily todo generation, and the daily cleanup loop.
package listener

import (
	"context"
	"time"

	"github.com/taskpulse/taskpulse/internal/dedup"
	"github.com/taskpulse/taskpulse/internal/holiday"
	"github.com/taskpulse/taskpulse/internal/logging"
	"github.com/taskpulse/taskpulse/internal/notify"
	"github.com/taskpulse/taskpulse/internal/remote"
	"github.com/taskpulse/taskpulse/internal/scheduler"
	"github.com/taskpulse/taskpulse/internal/storage"
)

const (
	// Poll loop: unread messages.
	pollInterval = 3 * time.Second
	pollDelay    = 1 * time.Second

	// Heartbeat loop: reports, warnings, daily todos.
	heartbeatInterval = 60 * time.Second
	heartbeatDelay    = 10 * time.Second

	// Cleanup loop: drop read messages and notifications older than a day.
	// First run at the next local midnight, then every 24h.
	cleanupInterval  = 24 * time.Hour
	cleanupRetention = 24 * time.Hour

	pollLoopID      = "messages"
	heartbeatLoopID = "heartbeat"
	cleanupLoopID   = "cleanup"
)

// Store is the slice of the remote client the listener uses.
type Store interface {
	UnreadMessages(ctx context.Context, userID string) ([]remote.Message, error)
	MarkMessageRead(ctx context.Context, id int64) error
	DeleteReadMessages(ctx context.Context, userID string, before time.Time) error
	TodayPendingTasks(ctx context.Context, userID string, dayStart time.Time) ([]remote.Task, error)
	TodayCompletedTasks(ctx context.Context, userID string, dayStart time.Time) ([]remote.Task, error)
	UpcomingDeadlineTasks(ctx context.Context, userID string, now time.Time, within time.Duration) ([]remote.Task, error)
	OverdueTasks(ctx context.Context, userID string, now time.Time) ([]remote.Task, error)
	DailyTaskExists(ctx context.Context, title, assignee string, dayStart time.Time) (bool, error)
	CreateTask(ctx context.Context, task remote.Task) error
}

// Service owns the background loops.
type Service struct {
	settings *storage.SettingsStore
	notify   *notify.Service
	ledger   *dedup.Ledger
	calendar *holiday.Calendar
	sched    *scheduler.Scheduler
	log      *logging.Logger

	// Overridable in tests.
	dial func(cfg Config) Store
	now  func() time.Time
}

// NewService creates the listener service. The scheduler is owned by the
// caller; the service only registers its loops on it.
func NewService(settings *storage.SettingsStore, notifier *notify.Service, calendar *holiday.Calendar, sched *scheduler.Scheduler, log *logging.Logger) *Service {
	return &Service{
		settings: settings,
		notify:   notifier,
		ledger:   dedup.NewLedger(),
		calendar: calendar,
		sched:    sched,
		log:      log,
		dial: func(cfg Config) Store {
			return remote.NewClient(remote.Config{
				BaseURL: cfg.StoreURL,
				APIKey:  cfg.StoreAPIKey,
			})
		},
		now: time.Now,
	}
}

// Start registers the loops with the scheduler.
func (s *Service) Start() error {
	if err := s.sched.Register(&scheduler.Loop{
		ID:           pollLoopID,
		Name:         "Message poll",
		Interval:     pollInterval,
		InitialDelay: pollDelay,
		Handler:      s.pollTick,
	}); err != nil {
		return err
	}

	if err := s.sched.Register(&scheduler.Loop{
		ID:           heartbeatLoopID,
		Name:         "Report heartbeat",
		Interval:     heartbeatInterval,
		InitialDelay: heartbeatDelay,
		Handler:      s.heartbeatTick,
	}); err != nil {
		return err
	}

	return s.sched.Register(&scheduler.Loop{
		ID:           cleanupLoopID,
		Name:         "Daily cleanup",
		Interval:     cleanupInterval,
		InitialDelay: untilNextMidnight(s.now()),
		Handler:      s.cleanupTick,
	})
}

// Ledger exposes dedup statistics for the status endpoint.
func (s *Service) Ledger() *dedup.Ledger {
	return s.ledger
}

func (s *Service) pollTick(ctx context.Context) error {
	cfg := loadConfig(s.settings)
	return s.checkMessages(ctx, cfg, s.now())
}

func (s *Service) heartbeatTick(ctx context.Context) error {
	cfg := loadConfig(s.settings)
	now := s.now()
	today := now.Format("2006-01-02")

	s.log.Debug("heartbeat tick: %s %02d:%02d", today, now.Hour(), now.Minute())

	s.checkMorningReport(ctx, cfg, now)
	s.checkEveningReport(ctx, cfg, now)
	s.checkDeadlineWarnings(ctx, cfg, now)
	s.checkOverdueTasks(ctx, cfg, now)
	s.checkDailyTodos(ctx, cfg, now)

	s.ledger.PruneWarnings(now)

	return nil
}

// TriggerMessageCheck runs one poll tick immediately.
func (s *Service) TriggerMessageCheck(ctx context.Context) error {
	cfg := loadConfig(s.settings)
	return s.checkMessages(ctx, cfg, s.now())
}

// MarkMessageRead flags a message as read in the remote store. Called when
// the user opens the matching notification.
func (s *Service) MarkMessageRead(ctx context.Context, messageID int64) error {
	cfg := loadConfig(s.settings)
	if !cfg.StoreConfigured() {
		return nil
	}
	return s.dial(cfg).MarkMessageRead(ctx, messageID)
}

// TriggerReminders runs the deadline and overdue checks immediately.
func (s *Service) TriggerReminders(ctx context.Context) {
	cfg := loadConfig(s.settings)
	now := s.now()
	s.checkDeadlineWarnings(ctx, cfg, now)
	s.checkOverdueTasks(ctx, cfg, now)
}

// TriggerMorningReport force-sends the morning report, even when it already
// went out today. The sent marker is still updated.
func (s *Service) TriggerMorningReport(ctx context.Context) {
	cfg := loadConfig(s.settings)
	now := s.now()
	today := now.Format("2006-01-02")

	if s.ledger.ReportSentOn(dedup.MorningReport, today) {
		s.log.Info("morning report already sent today, re-sending")
	}
	s.sendMorningReport(ctx, cfg, now)
	s.ledger.MarkReportSent(dedup.MorningReport, today)
}

// TriggerEveningReport force-sends the evening report.
func (s *Service) TriggerEveningReport(ctx context.Context) {
	cfg := loadConfig(s.settings)
	now := s.now()
	today := now.Format("2006-01-02")

	if s.ledger.ReportSentOn(dedup.EveningReport, today) {
		s.log.Info("evening report already sent today, re-sending")
	}
	s.sendEveningReport(ctx, cfg, now)
	s.ledger.MarkReportSent(dedup.EveningReport, today)
}

// TriggerAllReports sends any report not yet sent today plus the task
// warning checks. Unlike the single-report triggers this one respects the
// sent-today guard.
func (s *Service) TriggerAllReports(ctx context.Context) {
	cfg := loadConfig(s.settings)
	now := s.now()
	today := now.Format("2006-01-02")

	if !s.ledger.ReportSentOn(dedup.MorningReport, today) {
		s.sendMorningReport(ctx, cfg, now)
		s.ledger.MarkReportSent(dedup.MorningReport, today)
	}
	if !s.ledger.ReportSentOn(dedup.EveningReport, today) {
		s.sendEveningReport(ctx, cfg, now)
		s.ledger.MarkReportSent(dedup.EveningReport, today)
	}

	s.checkDeadlineWarnings(ctx, cfg, now)
	s.checkOverdueTasks(ctx, cfg, now)
}

// TriggerDailyTodos force-generates today's daily todo tasks, skipping the
// per-day guard but still honoring the enabled flag and holiday skipping.
// Returns the number of tasks created.
func (s *Service) TriggerDailyTodos(ctx context.Context) int {
	cfg := loadConfig(s.settings)
	return s.generateDailyTodosForced(ctx, cfg, s.now())
}
