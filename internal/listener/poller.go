package listener

import (
	"context"
	"fmt"
	"time"

	"github.com/taskpulse/taskpulse/internal/notify"
	"github.com/taskpulse/taskpulse/internal/remote"
)

const completionNotesLimit = 50

// checkMessages is one poll tick: fetch unread messages and surface the ones
// not shown yet. A failed fetch aborts the tick without marking anything
// displayed.
func (s *Service) checkMessages(ctx context.Context, cfg Config, now time.Time) error {
	if cfg.UserID == "" {
		s.log.Debug("no user configured, skipping message check")
		return nil
	}

	store := s.dial(cfg)
	messages, err := store.UnreadMessages(ctx, cfg.UserID)
	if err != nil {
		s.log.Error("fetch unread messages: %v", err)
		return err
	}

	s.log.Debug("found %d unread messages", len(messages))

	for _, msg := range messages {
		// The store query already excludes self-sent messages; this guards
		// against a misbehaving server.
		if msg.SenderID == cfg.UserID {
			continue
		}
		if !s.ledger.IsNewMessage(msg.ID) {
			continue
		}
		s.ledger.MarkDisplayed(msg.ID)

		title, content := renderMessage(msg)
		if _, err := s.notify.Create(ctx, notify.CreateRequest{
			Kind:      notify.KindMessage,
			Title:     title,
			Summary:   content,
			Sender:    msg.SenderID,
			MessageID: msg.ID,
		}); err != nil {
			s.log.Error("create message notification: %v", err)
		}
	}

	s.ledger.PruneMessages()

	return nil
}

// renderMessage builds the notification text for one message. Task
// completion messages get a dedicated rendering.
func renderMessage(msg remote.Message) (title, content string) {
	title = msg.Title
	content = msg.Content

	if msg.MessageType == "task_complete" {
		title = "✅ 任务完成"

		taskTitle := msg.TaskTitle
		if taskTitle == "" {
			taskTitle = "未命名任务"
		}
		content = fmt.Sprintf("🎉 %s 完成了：\n📋 %s", msg.SenderID, taskTitle)

		if notes := msg.CompletionNotes; notes != "" && notes != "null" {
			if len([]rune(notes)) > completionNotesLimit {
				notes = string([]rune(notes)[:completionNotesLimit]) + "..."
			}
			content += "\n💬 " + notes
		}
	}

	return title, content
}
