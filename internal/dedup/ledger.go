// Package dedup tracks which notifications have already been surfaced so
// repeated ticks do not re-notify. State lives in memory only; a restart
// starts with a clean slate.
package dedup

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// WarningKind distinguishes the two task warning streams.
type WarningKind string

const (
	WarnDeadline WarningKind = "deadline"
	WarnOverdue  WarningKind = "overdue"
)

// ReportKind distinguishes the two daily reports.
type ReportKind string

const (
	MorningReport ReportKind = "morning"
	EveningReport ReportKind = "evening"
)

const (
	warningPruneThreshold = 100
	warningRetentionDays  = 3

	messagePruneThreshold = 1000
	messageKeepCount      = 500
)

const dateLayout = "2006-01-02"

// WarningKey builds the ledger key for one task warning. The date prefix is
// what pruning uses to age entries out.
func WarningKey(date string, taskID int64, kind WarningKind) string {
	return fmt.Sprintf("%s-%d-%s", date, taskID, kind)
}

// Ledger is safe for concurrent use.
type Ledger struct {
	mu       sync.Mutex
	messages map[int64]struct{}
	warnings map[WarningKind]map[string]struct{}
	reports  map[ReportKind]string // last sent date per report
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		messages: make(map[int64]struct{}),
		warnings: map[WarningKind]map[string]struct{}{
			WarnDeadline: {},
			WarnOverdue:  {},
		},
		reports: make(map[ReportKind]string),
	}
}

// IsNewMessage reports whether the message id has not been displayed yet.
func (l *Ledger) IsNewMessage(id int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, seen := l.messages[id]
	return !seen
}

// MarkDisplayed records a message id as displayed.
func (l *Ledger) MarkDisplayed(id int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages[id] = struct{}{}
}

// IsNewWarning reports whether the warning key has not been emitted yet.
func (l *Ledger) IsNewWarning(kind WarningKind, key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, seen := l.warnings[kind][key]
	return !seen
}

// MarkWarned records a warning key as emitted.
func (l *Ledger) MarkWarned(kind WarningKind, key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings[kind][key] = struct{}{}
}

// ReportSentOn reports whether the given report already went out on date.
func (l *Ledger) ReportSentOn(kind ReportKind, date string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reports[kind] == date
}

// MarkReportSent records date as the last day the report went out.
func (l *Ledger) MarkReportSent(kind ReportKind, date string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reports[kind] = date
}

// PruneWarnings drops warning keys older than the retention window, relative
// to today. Each kind's set is only pruned once it grows past the threshold.
// Keys whose date prefix does not parse are treated as stale.
func (l *Ledger) PruneWarnings(today time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := today.AddDate(0, 0, -warningRetentionDays)

	for _, set := range l.warnings {
		if len(set) <= warningPruneThreshold {
			continue
		}
		for key := range set {
			if len(key) < len(dateLayout) {
				delete(set, key)
				continue
			}
			keyDate, err := time.ParseInLocation(dateLayout, key[:len(dateLayout)], today.Location())
			if err != nil || keyDate.Before(cutoff) {
				delete(set, key)
			}
		}
	}
}

// PruneMessages trims the displayed-id set once it grows past the threshold,
// keeping the numerically largest ids. Ids grow with insertion order, so the
// largest ids are the most recent ones.
func (l *Ledger) PruneMessages() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.messages) <= messagePruneThreshold {
		return
	}

	ids := make([]int64, 0, len(l.messages))
	for id := range l.messages {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	kept := make(map[int64]struct{}, messageKeepCount)
	for _, id := range ids[:messageKeepCount] {
		kept[id] = struct{}{}
	}
	l.messages = kept
}

// LastReports returns the last sent date per report kind.
func (l *Ledger) LastReports() map[ReportKind]string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[ReportKind]string, len(l.reports))
	for kind, date := range l.reports {
		out[kind] = date
	}
	return out
}

// Stats reports current set sizes, for the status endpoint.
func (l *Ledger) Stats() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return map[string]int{
		"messages":          len(l.messages),
		"deadline_warnings": len(l.warnings[WarnDeadline]),
		"overdue_warnings":  len(l.warnings[WarnOverdue]),
	}
}
