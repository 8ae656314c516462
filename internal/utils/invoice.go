package utils

import (
	"fmt"
	"time"
)

// FormatOrderNumber renders prefix + epoch millis + the sequence folded into
// four zero-padded digits, e.g. AR17296400000000042.
func FormatOrderNumber(prefix string, at time.Time, seq int64) string {
	if seq < 0 {
		seq = -seq
	}
	return fmt.Sprintf("%s%d%04d", prefix, at.UnixMilli(), seq%10000)
}
