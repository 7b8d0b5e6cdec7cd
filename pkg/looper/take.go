// ABOUTME: Take identity and boundaries
// ABOUTME: One recorded loop window with a uuid handle for logs and UI
package looper

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Take is one recorded loop window. Start is fixed by the first press, End by
// the second; once both are set the window is immutable.
type Take struct {
	ID    uuid.UUID
	Start time.Duration
	End   time.Duration
}

// Duration returns the loop length, zero until the stop press is known.
func (t Take) Duration() time.Duration {
	if t.End <= t.Start {
		return 0
	}
	return t.End - t.Start
}

// ShortID returns the leading uuid group, enough to tell takes apart in logs.
func (t Take) ShortID() string {
	s := t.ID.String()
	if i := strings.IndexByte(s, '-'); i > 0 {
		return s[:i]
	}
	return s
}
