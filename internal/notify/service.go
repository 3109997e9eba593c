package notify

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/taskpulse/taskpulse/internal/storage"
)

// Subscriber receives notifications in real-time
type Subscriber interface {
	Send(notification Notification) error
	ID() string
}

// Service manages the notification feed
type Service struct {
	db          *storage.DB
	subscribers map[string]Subscriber
	mu          sync.RWMutex
}

// NewService creates a new notification service
func NewService(db *storage.DB) *Service {
	return &Service{
		db:          db,
		subscribers: make(map[string]Subscriber),
	}
}

// Subscribe adds a subscriber for real-time notifications
func (s *Service) Subscribe(sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers[sub.ID()] = sub
}

// Unsubscribe removes a subscriber
func (s *Service) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscribers, id)
}

// Create persists and broadcasts a new notification
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Notification, error) {
	notification := &Notification{
		ID:        uuid.New().String(),
		Kind:      req.Kind,
		Title:     req.Title,
		Summary:   req.Summary,
		Body:      req.Body,
		Sender:    req.Sender,
		MessageID: req.MessageID,
		Read:      false,
		Dismissed: false,
		CreatedAt: time.Now().UTC(),
	}

	if notification.Kind == "" {
		notification.Kind = KindSystem
	}

	if err := s.save(ctx, notification); err != nil {
		return nil, fmt.Errorf("save notification: %w", err)
	}

	s.broadcast(*notification)

	return notification, nil
}

func (s *Service) save(ctx context.Context, n *Notification) error {
	_, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO notifications (id, kind, title, summary, body, sender, message_id, read, dismissed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.Kind, n.Title, n.Summary, n.Body, n.Sender, n.MessageID, n.Read, n.Dismissed, n.CreatedAt)

	return err
}

// broadcast sends notification to all subscribers
func (s *Service) broadcast(n Notification) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subscribers {
		go func(subscriber Subscriber) {
			subscriber.Send(n)
		}(sub)
	}
}

// Get retrieves a notification by ID
func (s *Service) Get(ctx context.Context, id string) (*Notification, error) {
	n := &Notification{}
	var summary, body, sender sql.NullString
	var messageID sql.NullInt64
	var readAt, dismissedAt sql.NullTime

	err := s.db.Conn().QueryRowContext(ctx, `
		SELECT id, kind, title, summary, body, sender, message_id, read, dismissed, created_at, read_at, dismissed_at
		FROM notifications WHERE id = ?
	`, id).Scan(
		&n.ID, &n.Kind, &n.Title, &summary, &body, &sender, &messageID, &n.Read, &n.Dismissed, &n.CreatedAt, &readAt, &dismissedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("notification not found")
	}
	if err != nil {
		return nil, err
	}

	n.Summary = summary.String
	n.Body = body.String
	n.Sender = sender.String
	n.MessageID = messageID.Int64

	if readAt.Valid {
		n.ReadAt = &readAt.Time
	}
	if dismissedAt.Valid {
		n.DismissedAt = &dismissedAt.Time
	}

	return n, nil
}

// List retrieves notifications with optional filters
func (s *Service) List(ctx context.Context, filter Filter) ([]*Notification, error) {
	query := `SELECT id, kind, title, summary, body, sender, message_id, read, dismissed, created_at, read_at, dismissed_at FROM notifications WHERE 1=1`
	args := []interface{}{}

	if filter.Kind != "" {
		query += " AND kind = ?"
		args = append(args, filter.Kind)
	}
	if filter.Read != nil {
		query += " AND read = ?"
		args = append(args, *filter.Read)
	}
	if filter.Dismissed != nil {
		query += " AND dismissed = ?"
		args = append(args, *filter.Dismissed)
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	} else {
		query += " LIMIT 50"
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*Notification
	for rows.Next() {
		n := &Notification{}
		var summary, body, sender sql.NullString
		var messageID sql.NullInt64
		var readAt, dismissedAt sql.NullTime

		err := rows.Scan(
			&n.ID, &n.Kind, &n.Title, &summary, &body, &sender, &messageID, &n.Read, &n.Dismissed, &n.CreatedAt, &readAt, &dismissedAt,
		)
		if err != nil {
			continue
		}

		n.Summary = summary.String
		n.Body = body.String
		n.Sender = sender.String
		n.MessageID = messageID.Int64

		if readAt.Valid {
			n.ReadAt = &readAt.Time
		}
		if dismissedAt.Valid {
			n.DismissedAt = &dismissedAt.Time
		}

		notifications = append(notifications, n)
	}

	return notifications, nil
}

// GetUnread retrieves all unread notifications
func (s *Service) GetUnread(ctx context.Context) ([]*Notification, error) {
	read := false
	dismissed := false
	return s.List(ctx, Filter{Read: &read, Dismissed: &dismissed, Limit: 100})
}

// MarkRead marks a notification as read
func (s *Service) MarkRead(ctx context.Context, id string) error {
	now := time.Now().UTC()
	_, err := s.db.Conn().ExecContext(ctx, `
		UPDATE notifications SET read = TRUE, read_at = ? WHERE id = ?
	`, now, id)
	return err
}

// MarkAllRead marks all notifications as read
func (s *Service) MarkAllRead(ctx context.Context) error {
	now := time.Now().UTC()
	_, err := s.db.Conn().ExecContext(ctx, `
		UPDATE notifications SET read = TRUE, read_at = ? WHERE read = FALSE
	`, now)
	return err
}

// Dismiss dismisses a notification
func (s *Service) Dismiss(ctx context.Context, id string) error {
	now := time.Now().UTC()
	_, err := s.db.Conn().ExecContext(ctx, `
		UPDATE notifications SET dismissed = TRUE, dismissed_at = ? WHERE id = ?
	`, now, id)
	return err
}

// UnreadCount returns the count of unread notifications
func (s *Service) UnreadCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.Conn().QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications WHERE read = FALSE AND dismissed = FALSE
	`).Scan(&count)
	return count, err
}

// Cleanup removes old notifications that were already read or dismissed
func (s *Service) Cleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	result, err := s.db.Conn().ExecContext(ctx, `
		DELETE FROM notifications WHERE created_at < ? AND (read = TRUE OR dismissed = TRUE)
	`, cutoff)
	if err != nil {
		return 0, err
	}
	affected, _ := result.RowsAffected()
	return int(affected), nil
}
