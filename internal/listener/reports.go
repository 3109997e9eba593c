package listener

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/taskpulse/taskpulse/internal/dedup"
	"github.com/taskpulse/taskpulse/internal/notify"
	"github.com/taskpulse/taskpulse/internal/remote"
)

// onTimeWindowMinutes is how long after the configured time a report still
// counts as on-time rather than a catch-up.
const onTimeWindowMinutes = 5

// inWindow reports whether now falls inside [target, target+tolerance).
func inWindow(hour, minute, targetHour, targetMinute, toleranceMinutes int) bool {
	current := hour*60 + minute
	target := targetHour*60 + targetMinute
	return current >= target && current < target+toleranceMinutes
}

// atOrPast reports whether now is at or past the target time of day.
func atOrPast(hour, minute, targetHour, targetMinute int) bool {
	return hour*60+minute >= targetHour*60+targetMinute
}

// suitableForMorningCatchUp keeps catch-up morning reports out of the late
// evening and the small hours: resends happen between 06:00 and 20:00 only.
func suitableForMorningCatchUp(hour int) bool {
	return hour >= 6 && hour < 20
}

func (s *Service) checkMorningReport(ctx context.Context, cfg Config, now time.Time) {
	today := now.Format("2006-01-02")
	if s.ledger.ReportSentOn(dedup.MorningReport, today) {
		return
	}

	hour, minute := now.Hour(), now.Minute()
	times := cfg.ReportTimes

	var reason string
	switch {
	case inWindow(hour, minute, times.MorningHour, times.MorningMinute, onTimeWindowMinutes):
		reason = "on time"
	case atOrPast(hour, minute, times.MorningHour, times.MorningMinute) &&
		suitableForMorningCatchUp(hour):
		reason = "catch-up"
	default:
		return
	}

	s.sendMorningReport(ctx, cfg, now)
	s.ledger.MarkReportSent(dedup.MorningReport, today)
	s.log.Info("morning report sent for %s (%s, configured %02d:%02d)",
		today, reason, times.MorningHour, times.MorningMinute)
}

func (s *Service) checkEveningReport(ctx context.Context, cfg Config, now time.Time) {
	today := now.Format("2006-01-02")
	if s.ledger.ReportSentOn(dedup.EveningReport, today) {
		return
	}

	hour, minute := now.Hour(), now.Minute()
	times := cfg.ReportTimes

	var reason string
	switch {
	case inWindow(hour, minute, times.EveningHour, times.EveningMinute, onTimeWindowMinutes):
		reason = "on time"
	case atOrPast(hour, minute, times.EveningHour, times.EveningMinute):
		reason = "catch-up"
	default:
		return
	}

	s.sendEveningReport(ctx, cfg, now)
	s.ledger.MarkReportSent(dedup.EveningReport, today)
	s.log.Info("evening report sent for %s (%s, configured %02d:%02d)",
		today, reason, times.EveningHour, times.EveningMinute)
}

func (s *Service) sendMorningReport(ctx context.Context, cfg Config, now time.Time) {
	if cfg.UserID == "" {
		s.log.Warn("no user configured, skipping morning report")
		return
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	store := s.dial(cfg)
	tasks, err := store.TodayPendingTasks(ctx, cfg.UserID, dayStart)
	if err != nil {
		s.log.Error("morning report: fetch today's tasks: %v", err)
		return
	}

	var summary string
	var body strings.Builder

	if len(tasks) == 0 {
		summary = "今天暂无任务安排，祝您度过愉快的一天！"
		body.WriteString("🌅 早安！\n\n")
		body.WriteString("今天暂无任务安排\n")
		body.WriteString("祝您度过愉快的一天！\n\n")
		body.WriteString("💪 保持积极的心态！")
	} else {
		summary = fmt.Sprintf("今日共有 %d 项任务等待处理", len(tasks))

		body.WriteString("🌅 早安！今日任务详情\n\n")
		fmt.Fprintf(&body, "📊 任务总数：%d 项\n\n", len(tasks))

		for i, task := range tasks {
			fmt.Fprintf(&body, "%d. 📋 %s", i+1, task.Title)
			if desc := task.Description; desc != "" && desc != "null" {
				body.WriteString("\n   💡 " + desc)
			}
			body.WriteString("\n\n")
		}

		body.WriteString("💪 今日加油，祝您工作顺利！")
	}

	if _, err := s.notify.Create(ctx, notify.CreateRequest{
		Kind:    notify.KindMorningReport,
		Title:   "🌅 晨报提醒",
		Summary: summary,
		Body:    body.String(),
	}); err != nil {
		s.log.Error("create morning report notification: %v", err)
	}
}

func (s *Service) sendEveningReport(ctx context.Context, cfg Config, now time.Time) {
	if cfg.UserID == "" {
		s.log.Warn("no user configured, skipping evening report")
		return
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	store := s.dial(cfg)
	completed, err := store.TodayCompletedTasks(ctx, cfg.UserID, dayStart)
	if err != nil {
		s.log.Error("evening report: fetch completed tasks: %v", err)
		return
	}
	pending, err := store.TodayPendingTasks(ctx, cfg.UserID, dayStart)
	if err != nil {
		s.log.Error("evening report: fetch pending tasks: %v", err)
		return
	}

	var summary string
	var body strings.Builder

	if len(completed) == 0 && len(pending) == 0 {
		summary = "今日无任务记录，早点休息！"
		body.WriteString("🌙 晚安！\n\n")
		body.WriteString("今日无任务记录\n")
		body.WriteString("🌟 早点休息，保持健康！")
	} else {
		total := len(completed) + len(pending)
		rate := float64(len(completed)) / float64(total) * 100

		verdict := "继续努力！"
		if rate >= 80 {
			verdict = "表现优秀！"
		}
		summary = fmt.Sprintf("完成率 %.0f%% (%d/%d)，%s", rate, len(completed), total, verdict)

		body.WriteString("🌙 今日工作总结详情\n\n")
		fmt.Fprintf(&body, "📊 完成率：%.1f%% (%d/%d)\n\n", rate, len(completed), total)

		if len(completed) > 0 {
			fmt.Fprintf(&body, "✅ 已完成任务 (%d项)：\n", len(completed))
			writeTaskList(&body, completed)
			body.WriteString("\n")
		}
		if len(pending) > 0 {
			fmt.Fprintf(&body, "⏰ 待完成任务 (%d项)：\n", len(pending))
			writeTaskList(&body, pending)
			body.WriteString("\n")
		}

		body.WriteString("🌟 辛苦了一天，早点休息！")
	}

	if _, err := s.notify.Create(ctx, notify.CreateRequest{
		Kind:    notify.KindEveningReport,
		Title:   "🌙 晚报总结",
		Summary: summary,
		Body:    body.String(),
	}); err != nil {
		s.log.Error("create evening report notification: %v", err)
	}
}

func writeTaskList(body *strings.Builder, tasks []remote.Task) {
	for i, task := range tasks {
		fmt.Fprintf(body, "%d. %s", i+1, task.Title)
		if desc := task.Description; desc != "" && desc != "null" {
			body.WriteString("\n   💡 " + desc)
		}
		body.WriteString("\n")
	}
}

func (s *Service) checkDeadlineWarnings(ctx context.Context, cfg Config, now time.Time) {
	if cfg.UserID == "" {
		s.log.Debug("no user configured, skipping deadline check")
		return
	}

	today := now.Format("2006-01-02")

	store := s.dial(cfg)
	upcoming, err := store.UpcomingDeadlineTasks(ctx, cfg.UserID, now, 24*time.Hour)
	if err != nil {
		s.log.Error("fetch upcoming deadline tasks: %v", err)
		return
	}

	// Keys are recorded before dispatch so a notification failure cannot
	// cause a repeat.
	var fresh []remote.Task
	for _, task := range upcoming {
		key := dedup.WarningKey(today, task.ID, dedup.WarnDeadline)
		if s.ledger.IsNewWarning(dedup.WarnDeadline, key) {
			s.ledger.MarkWarned(dedup.WarnDeadline, key)
			fresh = append(fresh, task)
		}
	}

	if len(fresh) == 0 {
		return
	}

	var summary string
	var body strings.Builder

	if len(fresh) == 1 {
		task := fresh[0]
		summary = task.Title + " 即将到期，请及时完成"

		body.WriteString("⚠️ 任务即将到期提醒\n\n")
		fmt.Fprintf(&body, "📋 任务：%s\n", task.Title)
		if desc := task.Description; desc != "" && desc != "null" {
			fmt.Fprintf(&body, "💡 描述：%s\n", desc)
		}
		body.WriteString("\n⏰ 该任务即将在24小时内到期，请及时完成！")
	} else {
		summary = fmt.Sprintf("有 %d 项任务即将到期，请及时处理", len(fresh))

		body.WriteString("⚠️ 多项任务即将到期\n\n")
		fmt.Fprintf(&body, "📊 即将到期任务数：%d 项\n\n", len(fresh))
		for i, task := range fresh {
			fmt.Fprintf(&body, "%d. 📋 %s", i+1, task.Title)
			if desc := task.Description; desc != "" && desc != "null" {
				body.WriteString("\n   💡 " + desc)
			}
			body.WriteString("\n\n")
		}
		body.WriteString("⏰ 以上任务即将在24小时内到期，请优先处理！")
	}

	if _, err := s.notify.Create(ctx, notify.CreateRequest{
		Kind:    notify.KindDeadlineWarning,
		Title:   "⚠️ 任务到期提醒",
		Summary: summary,
		Body:    body.String(),
	}); err != nil {
		s.log.Error("create deadline warning notification: %v", err)
	}

	s.log.Info("deadline warnings sent for %d tasks", len(fresh))
}

func (s *Service) checkOverdueTasks(ctx context.Context, cfg Config, now time.Time) {
	if cfg.UserID == "" {
		s.log.Debug("no user configured, skipping overdue check")
		return
	}

	today := now.Format("2006-01-02")

	store := s.dial(cfg)
	overdue, err := store.OverdueTasks(ctx, cfg.UserID, now)
	if err != nil {
		s.log.Error("fetch overdue tasks: %v", err)
		return
	}
	if len(overdue) == 0 {
		return
	}

	var fresh []remote.Task
	for _, task := range overdue {
		key := dedup.WarningKey(today, task.ID, dedup.WarnOverdue)
		if s.ledger.IsNewWarning(dedup.WarnOverdue, key) {
			s.ledger.MarkWarned(dedup.WarnOverdue, key)
			fresh = append(fresh, task)
		}
	}

	if len(fresh) == 0 {
		s.log.Debug("all %d overdue tasks already warned today", len(overdue))
		return
	}

	var summary string
	var body strings.Builder

	if len(fresh) == 1 {
		task := fresh[0]
		summary = task.Title + " 已逾期，请尽快处理"

		body.WriteString("🚨 任务逾期提醒\n\n")
		fmt.Fprintf(&body, "❌ 逾期任务：%s\n", task.Title)
		if desc := task.Description; desc != "" && desc != "null" {
			fmt.Fprintf(&body, "💡 描述：%s\n", desc)
		}
		body.WriteString("\n🔥 该任务已逾期，请尽快处理！")
	} else {
		// The summary counts every overdue task, not just newly warned ones.
		summary = fmt.Sprintf("共 %d 项任务已逾期，请优先处理", len(overdue))

		body.WriteString("🚨 多项任务逾期提醒\n\n")
		fmt.Fprintf(&body, "📊 逾期任务总数：%d 项\n", len(overdue))
		fmt.Fprintf(&body, "🆕 新增逾期任务：%d 项\n\n", len(fresh))
		for i, task := range fresh {
			fmt.Fprintf(&body, "%d. ❌ %s", i+1, task.Title)
			if desc := task.Description; desc != "" && desc != "null" {
				body.WriteString("\n   💡 " + desc)
			}
			body.WriteString("\n\n")
		}
		body.WriteString("🔥 以上任务均已逾期，请立即优先处理！")
	}

	if _, err := s.notify.Create(ctx, notify.CreateRequest{
		Kind:    notify.KindOverdueWarning,
		Title:   "🚨 逾期任务提醒",
		Summary: summary,
		Body:    body.String(),
	}); err != nil {
		s.log.Error("create overdue warning notification: %v", err)
	}

	s.log.Info("overdue warnings sent for %d new tasks", len(fresh))
}
