package restore

import (
	"time"

	"github.com/greyhollow/huekeep/internal/infrastructure/config"
)

// localTimeLayout is the bridge's absolute local-time format, as used in
// one-shot schedule triggers. Recurring triggers ("W.../T...", "R...",
// "PT...") carry no date and are never adjusted.
const localTimeLayout = "2006-01-02T15:04:05"

// AdjustLocalTime carries a stored schedule trigger time from the snapshot
// bridge's timezone to the destination bridge's. Only absolute timestamps
// are candidates; the mode decides the rule:
//
//   - preserve-wall-clock: the stored local time is kept verbatim; a
//     06:30 wake-up stays a 06:30 wake-up in the destination's timezone.
//   - shift-offset: the stored time is interpreted in the source timezone
//     and re-expressed in the destination's, preserving the instant.
//
// The bridge appends randomization ("A00:30:00") after the timestamp;
// any such suffix is carried over unchanged. Returns the (possibly
// rewritten) value and whether it changed.
func AdjustLocalTime(localtime string, src, dst *time.Location, mode string) (string, bool) {
	if mode != config.WakeupShiftOffset || src == nil || dst == nil {
		return localtime, false
	}
	if len(localtime) < len(localTimeLayout) {
		return localtime, false
	}

	stamp := localtime[:len(localTimeLayout)]
	suffix := localtime[len(localTimeLayout):]

	t, err := time.ParseInLocation(localTimeLayout, stamp, src)
	if err != nil {
		// Recurring or timer form; leave untouched.
		return localtime, false
	}

	shifted := t.In(dst).Format(localTimeLayout) + suffix
	if shifted == localtime {
		return localtime, false
	}
	return shifted, true
}
