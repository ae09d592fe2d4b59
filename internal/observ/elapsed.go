package observ

import (
	"strconv"
	"time"
)

// FormatElapsed renders d in the coarsest unit that keeps it readable:
// seconds truncated to milliseconds above one second, then whole
// milliseconds, then whole microseconds.
func FormatElapsed(d time.Duration) string {
	switch {
	case d > time.Second:
		return strconv.FormatFloat(float64(d.Truncate(time.Millisecond))/float64(time.Second), 'f', -1, 64) + "s"
	case d >= time.Millisecond:
		return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
	case d >= time.Microsecond:
		return strconv.FormatInt(d.Microseconds(), 10) + "us"
	default:
		return strconv.FormatFloat(d.Seconds(), 'g', -1, 64) + "s"
	}
}
