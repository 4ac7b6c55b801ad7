// internal/debug/debug.go
//
// Channelled diagnostics for the dispatch core. Channels are off by default
// and switched on with WINCORE_DEBUG, a comma-separated list of channel names
// ("all" enables everything), e.g. WINCORE_DEBUG=msg,relay.
package debug

import (
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	ChanMsg   = "msg"   // message marshalling
	ChanRelay = "relay" // callback entry/exit tracing
	ChanTimer = "timer" // coordinator timer traffic
)

var (
	initOnce sync.Once
	logger   *logrus.Logger
	enabled  map[string]bool
	all      bool
)

func setup() {
	initOnce.Do(func() {
		logger = logrus.New()
		logger.SetOutput(os.Stderr)
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    true,
			DisableColors:    true,
			QuoteEmptyFields: true,
		})
		enabled = make(map[string]bool)
		for _, name := range strings.Split(os.Getenv("WINCORE_DEBUG"), ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if name == "all" {
				all = true
				continue
			}
			enabled[name] = true
		}
	})
}

// Enabled reports whether a channel was switched on.
func Enabled(channel string) bool {
	setup()
	return all || enabled[channel]
}

// Tracef logs on a channel when it is enabled.
func Tracef(channel, format string, args ...any) {
	setup()
	if !all && !enabled[channel] {
		return
	}
	logger.WithField("channel", channel).Debugf(format, args...)
}

// Fixmef flags a code path that is known to be incomplete. Always logged.
func Fixmef(channel, format string, args ...any) {
	setup()
	logger.WithField("channel", channel).Warnf(format, args...)
}
