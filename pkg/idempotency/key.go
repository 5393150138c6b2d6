package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Key derives a deterministic key from an operation's identity tuple.
// Parts are joined with a separator that cannot appear in the hex output,
// so ("ab", "c") and ("a", "bc") produce different keys.
func Key(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(h[:])
}

// AppointmentKey identifies an appointment creation by calendar, start time
// and contact. The start time is normalised to UTC with second precision.
func AppointmentKey(calendarID string, start time.Time, contactID string) string {
	return Key("appointment", calendarID, start.UTC().Truncate(time.Second).Format(time.RFC3339), contactID)
}
