// Package log builds the single structured logger threaded through the
// CLI, the bundler driver, and watch mode as an explicit dependency —
// never a mutated package-level default — so concurrent worker log
// lines stay attributable and callers can swap in a test sink.
package log

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the type every package in this bundler accepts. It is a
// plain alias for *logrus.Logger rather than a bespoke wrapper, so call
// sites can reach for logrus's own WithField/WithError API directly.
type Logger = logrus.Logger

// New builds a Logger writing to w at the given level. In text mode
// (jsonFormat false) it renders lines as "<exeName>: message key=value
// ...", the "<exe-name>: " prefix §7 asks for non-JSON diagnostics;
// --log-json switches to logrus's own JSON formatter for machine
// consumption.
func New(exeName string, level logrus.Level, jsonFormat bool, w io.Writer) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	if jsonFormat {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&prefixFormatter{exeName: exeName})
	}
	return l
}

// prefixFormatter is the non-JSON formatter: no timestamp, no level
// badge, just the executable name the rest of the CLI's own
// diagnostics already use.
type prefixFormatter struct {
	exeName string
}

func (f *prefixFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var b strings.Builder
	b.WriteString(f.exeName)
	b.WriteString(": ")
	b.WriteString(e.Message)

	if len(e.Data) > 0 {
		keys := make([]string, 0, len(e.Data))
		for k := range e.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, e.Data[k])
		}
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}
