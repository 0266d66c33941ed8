package deps

import (
	"time"

	"github.com/nikbrunner/stash/internal/dashboard"
	"github.com/nikbrunner/stash/internal/logger"
)

type Deps struct {
	Dashboard    *dashboard.Dashboard
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	AllowedHosts []string         // Host headers allowed to reach the API, empty = any
	TimeNow      func() time.Time // for testing, defaults to time.Now
}

// Now returns the current time through TimeNow when set.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
