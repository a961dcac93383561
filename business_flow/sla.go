package businessflow

import (
	"fmt"
	"time"

	"github.com/p57/feedback-hub/models"
)

// slaWindows maps priority to its resolution window; low priority has none
var slaWindows = map[models.TicketPriority]time.Duration{
	models.TicketPriorityCritical: 2 * time.Hour,
	models.TicketPriorityHigh:     24 * time.Hour,
	models.TicketPriorityMedium:   48 * time.Hour,
}

// SLAWindow returns the resolution window for a priority
func SLAWindow(priority models.TicketPriority) (time.Duration, bool) {
	d, ok := slaWindows[priority]
	return d, ok
}

// ComputeSLADeadline returns now plus the priority's window, or nil when the
// priority is exempt from SLA tracking
func ComputeSLADeadline(priority models.TicketPriority, now time.Time) *time.Time {
	d, ok := SLAWindow(priority)
	if !ok {
		return nil
	}
	deadline := now.Add(d)
	return &deadline
}

// FormatTicketNumber renders {prefix}-YYYYMM-NNNNN where NNNNN is count+1.
// The suffix is a running total across all months.
func FormatTicketNumber(prefix string, now time.Time, count int64) string {
	return fmt.Sprintf("%s-%04d%02d-%05d", prefix, now.Year(), int(now.Month()), count+1)
}
