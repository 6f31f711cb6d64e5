package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// calendarParser accepts standard 5-field expressions, an optional leading
// seconds field, descriptors such as @weekly, and a CRON_TZ= prefix.
var calendarParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseCalendar parses the liveness schedule.
func ParseCalendar(expr string) (cron.Schedule, error) {
	s, err := calendarParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse calendar %q: %w", expr, err)
	}
	return s, nil
}

// Every repeats at a fixed period, counted from the previous run.
func Every(d time.Duration) cron.Schedule {
	return cron.Every(d)
}

// cronLogger routes cron's own messages into zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw("cron_"+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw("cron_"+msg, append(keysAndValues, "error", err)...)
}
