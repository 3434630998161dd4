package logging

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

var _ logrus.Hook = (*SentryHook)(nil)

// SentryHook forwards log entries of the given levels to Sentry.
type SentryHook struct {
	levels       []logrus.Level
	flushTimeout time.Duration
}

func NewSentryHook(levels []logrus.Level) *SentryHook {
	return &SentryHook{
		levels:       levels,
		flushTimeout: 2 * time.Second,
	}
}

func (h *SentryHook) Levels() []logrus.Level {
	return h.levels
}

func (h *SentryHook) Fire(entry *logrus.Entry) error {
	event := sentry.NewEvent()
	event.Level = sentryLevel(entry.Level)
	event.Message = entry.Message
	event.Timestamp = entry.Time
	for k, v := range entry.Data {
		event.Extra[k] = v
	}
	if err, ok := entry.Data[logrus.ErrorKey].(error); ok {
		event.Exception = append(event.Exception, sentry.Exception{
			Type:  "error",
			Value: err.Error(),
		})
	}

	sentry.CaptureEvent(event)

	// the process is about to die, make sure the event leaves
	if entry.Level <= logrus.FatalLevel {
		sentry.Flush(h.flushTimeout)
	}
	return nil
}

func sentryLevel(level logrus.Level) sentry.Level {
	switch level {
	case logrus.PanicLevel, logrus.FatalLevel:
		return sentry.LevelFatal
	case logrus.ErrorLevel:
		return sentry.LevelError
	case logrus.WarnLevel:
		return sentry.LevelWarning
	case logrus.InfoLevel:
		return sentry.LevelInfo
	default:
		return sentry.LevelDebug
	}
}
