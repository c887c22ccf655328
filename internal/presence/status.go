// Package presence derives online/offline display state from stored
// login/logout timestamps and reconciles stale rows in the background.
package presence

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nurseport/staffing-backend/internal/models"
)

// StatusResult is the human-facing presence state for one person record.
type StatusResult struct {
	Status   string `json:"status"`
	TimeText string `json:"time_text"`
	IsOnline bool   `json:"is_online"`
}

// ComputeStatus resolves the displayed presence state from the stored
// status and the last login/logout timestamps.
//
// Explicit non-online statuses (offline, on-leave, inactive) are reported
// verbatim with elapsed time since last logout. A stored "online" status is
// only trusted while the most recent activity timestamp is within the
// timeout window; past that the row is reported offline. Unrecognized
// statuses fall back to the login timestamp alone.
func ComputeStatus(status models.PresenceStatus, lastLogin, lastLogout *time.Time, timeout time.Duration, now time.Time) StatusResult {
	switch status {
	case models.StatusOffline, models.StatusOnLeave, models.StatusInactive:
		return StatusResult{
			Status:   string(status),
			TimeText: elapsedText(lastLogout, now),
			IsOnline: false,
		}
	case models.StatusOnline:
		ref := lastLogout
		if ref == nil {
			ref = lastLogin
		}
		return onlineWithin(ref, timeout, now)
	default:
		return onlineWithin(lastLogin, timeout, now)
	}
}

func onlineWithin(ref *time.Time, timeout time.Duration, now time.Time) StatusResult {
	// No reference timestamp means no evidence of recent activity.
	if ref == nil {
		return StatusResult{Status: string(models.StatusOffline), IsOnline: false}
	}
	elapsed := now.Sub(*ref)
	if elapsed <= timeout {
		return StatusResult{Status: string(models.StatusOnline), IsOnline: true}
	}
	return StatusResult{
		Status:   string(models.StatusOffline),
		TimeText: FormatElapsed(elapsed),
		IsOnline: false,
	}
}

func elapsedText(t *time.Time, now time.Time) string {
	if t == nil {
		return ""
	}
	return FormatElapsed(now.Sub(*t))
}

// FormatElapsed renders a duration as display text. Durations floor to
// whole units.
func FormatElapsed(d time.Duration) string {
	if d < time.Minute {
		return "Just now"
	}
	if mins := int(d.Minutes()); mins < 60 {
		return fmt.Sprintf("%d %s ago", mins, plural(mins, "minute"))
	}
	if hours := int(d.Hours()); hours < 24 {
		return fmt.Sprintf("%d %s ago", hours, plural(hours, "hour"))
	}
	days := int(d.Hours()) / 24
	return fmt.Sprintf("%d %s ago", days, plural(days, "day"))
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}

var zoneSuffix = regexp.MustCompile(`(Z|[+-]\d{2}:?\d{2})$`)

// ParseTimestamp parses a stored timestamp string, treating values without
// a zone suffix as UTC. Stored rows frequently carry bare
// "2006-01-02T15:04:05" strings which would otherwise be read in the
// process-local zone.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if strings.Contains(s, " ") && !strings.Contains(s, "T") {
		s = strings.Replace(s, " ", "T", 1)
	}
	if !zoneSuffix.MatchString(s) {
		s += "Z"
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
