package listener

import (
	"context"
	"time"
)

// cleanupTick is one daily cleanup run: drop local notifications that were
// read or dismissed more than a day ago, then delete the matching read
// messages from the remote store.
func (s *Service) cleanupTick(ctx context.Context) error {
	cfg := loadConfig(s.settings)
	now := s.now()

	removed, err := s.notify.Cleanup(ctx, cleanupRetention)
	if err != nil {
		s.log.Error("notification cleanup: %v", err)
	} else if removed > 0 {
		s.log.Info("cleaned up %d old notifications", removed)
	}

	if !cfg.StoreConfigured() {
		s.log.Debug("store not configured, skipping remote message cleanup")
		return nil
	}

	cutoff := now.Add(-cleanupRetention)
	if err := s.dial(cfg).DeleteReadMessages(ctx, cfg.StoreUserID, cutoff); err != nil {
		s.log.Error("remote message cleanup: %v", err)
		return err
	}

	s.log.Debug("remote read messages before %s cleaned up", cutoff.Format("2006-01-02 15:04"))
	return nil
}

// untilNextMidnight returns the delay from now to the next local midnight.
func untilNextMidnight(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	return next.Sub(now)
}
