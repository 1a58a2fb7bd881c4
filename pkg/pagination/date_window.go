package pagination

import (
	"fmt"
	"time"

	"github.com/merittools/aktiva-client/pkg/dates"
)

// DateType selects which date the PeriodStart/PeriodEnd filter applies to.
type DateType int

const (
	// DateTypeDocument filters on the document date.
	DateTypeDocument DateType = 0

	// DateTypeChanged filters on the last-changed date, which is what
	// incremental extraction keys on.
	DateTypeChanged DateType = 1
)

// MaxIntervalDays is the largest window Merit accepts per request (3 months).
const MaxIntervalDays = 90

// DateWindow traverses a period in fixed-size date windows. Each page covers
// [current start, current end] inclusive; the next window starts the day
// after the previous one ended. The traversal ends once the overall end date
// is passed. An empty window does not end the traversal, since gaps in
// transactional data are normal.
type DateWindow struct {
	intervalDays int
	dateType     DateType
	end          time.Time

	curStart time.Time
	curEnd   time.Time
	done     bool
}

// NewDateWindow creates a date window traversal over [start, end].
// intervalDays must be between 1 and MaxIntervalDays.
func NewDateWindow(start, end time.Time, intervalDays int, dateType DateType) (*DateWindow, error) {
	if intervalDays < 1 {
		return nil, fmt.Errorf("window interval must be at least 1 day (got %d)", intervalDays)
	}
	if intervalDays > MaxIntervalDays {
		return nil, fmt.Errorf("window interval cannot exceed %d days (got %d)", MaxIntervalDays, intervalDays)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("window end %s precedes start %s",
			dates.FormatDate(end), dates.FormatDate(start))
	}

	w := &DateWindow{
		intervalDays: intervalDays,
		dateType:     dateType,
		end:          end,
		curStart:     start,
	}
	w.curEnd = minDate(start.AddDate(0, 0, intervalDays-1), end)
	return w, nil
}

// Next implements Paginator.
func (w *DateWindow) Next() (map[string]any, bool) {
	if w.done {
		return nil, false
	}
	return map[string]any{
		"PeriodStart": dates.FormatDate(w.curStart),
		"PeriodEnd":   dates.FormatDate(w.curEnd),
		"DateType":    int(w.dateType),
	}, true
}

// Observe implements Paginator and advances to the next window.
func (w *DateWindow) Observe(int) {
	nextStart := w.curEnd.AddDate(0, 0, 1)
	if nextStart.After(w.end) {
		w.done = true
		return
	}
	w.curStart = nextStart
	w.curEnd = minDate(nextStart.AddDate(0, 0, w.intervalDays-1), w.end)
}

func minDate(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
