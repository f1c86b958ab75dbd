package askdocs

import (
	"time"

	"github.com/google/uuid"
)

// NewID mints a session identifier for clients that arrive without one.
// UUIDv7 (RFC 9562) keeps ids unique across instances and time-ordered,
// so per-session log lines and corpus rows sort by creation time.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NowUnix returns the current time as Unix seconds, the resolution used
// for index build stamps and stored corpus rows.
func NowUnix() int64 {
	return time.Now().Unix()
}
