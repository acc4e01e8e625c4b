package debug

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Debug levels
const (
	LevelOff     = 0 // No output
	LevelInfo    = 1 // Important info (calculator summaries)
	LevelLive    = 2 // Live info (scan progress, served requests)
	LevelVerbose = 3 // Verbose (derived quantities, parameter reads)
	LevelTrace   = 4 // Trace (per-point distance evaluation)
)

var (
	level  int
	logger = newLogger(os.Stdout)
)

func newLogger(out io.Writer) *logrus.Logger {
	return &logrus.Logger{
		Out: out,
		Formatter: &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000000",
		},
		Hooks: make(logrus.LevelHooks),
		Level: logrus.ErrorLevel,
	}
}

// Init initializes the debug system with a level (0-4).
// 0 = errors only
// 1 = important info (calculator summaries)
// 2 = live info (scan progress, requests)
// 3 = verbose (parameter reads, derived quantities)
// 4 = trace (per-point evaluation)
func Init(debugLevel int) {
	level = debugLevel
	logger.SetLevel(logrusLevel(debugLevel))
}

func logrusLevel(l int) logrus.Level {
	switch {
	case l >= LevelTrace:
		return logrus.TraceLevel
	case l >= LevelVerbose:
		return logrus.DebugLevel
	case l >= LevelInfo:
		return logrus.InfoLevel
	default:
		return logrus.ErrorLevel
	}
}

// SetOutput redirects all debug output (e.g. to a status broadcaster).
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// Logger returns the underlying logrus logger so callers can attach fields.
func Logger() *logrus.Logger {
	return logger
}

// Level returns the current debug level.
func Level() int {
	return level
}

// IsEnabled returns true if debug level is >= the requested level.
func IsEnabled(minLevel int) bool {
	return level >= minLevel
}

// --- Level 1 functions (Info): important info ---

// Info prints a level 1 message (important info).
func Info(format string, args ...interface{}) {
	if level >= LevelInfo {
		logger.Infof(format, args...)
	}
}

// Summary prints an important summary banner (level 1).
func Summary(title string) {
	if level >= LevelInfo {
		logger.Info("═══════════════════════════════════════")
		logger.Infof("  %s", title)
		logger.Info("═══════════════════════════════════════")
	}
}

// Value prints a named value (level 1).
func Value(name string, value interface{}) {
	if level >= LevelInfo {
		logger.WithField(name, value).Info("value")
	}
}

// --- Level 2 functions (Live): real-time info ---

// Live prints a level 2 message (live info).
func Live(format string, args ...interface{}) {
	if level >= LevelLive {
		logger.WithField("stage", "live").Infof(format, args...)
	}
}

// Progress prints scan progress (level 2).
func Progress(done, total int) {
	if level >= LevelLive {
		logger.WithFields(logrus.Fields{"done": done, "total": total}).Info("scan progress")
	}
}

// Column prints the start of a scan column (level 2).
func Column(col, total int, direction string) {
	if level >= LevelLive {
		logger.WithFields(logrus.Fields{"column": col, "of": total, "direction": direction}).Info("scan column")
	}
}

// --- Level 3 functions (Verbose): everything ---

// Verbose prints a level 3 message (verbose).
func Verbose(format string, args ...interface{}) {
	if level >= LevelVerbose {
		logger.Debugf(format, args...)
	}
}

// PrintStruct prints a struct in formatted form (level 3).
func PrintStruct(name string, v interface{}) {
	if level >= LevelVerbose {
		logger.Debugf("%s: %+v", name, v)
	}
}

// Section prints a section separator (level 3).
func Section(name string) {
	if level >= LevelVerbose {
		logger.Debug("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		logger.Debugf("  %s", name)
		logger.Debug("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	}
}

// Step prints a numbered step (level 3).
func Step(num int, description string) {
	if level >= LevelVerbose {
		logger.WithField("step", num).Debug(description)
	}
}

// --- Level 4 functions (Trace): very low level ---

// Sample prints one evaluated scan point (level 4).
func Sample(fields logrus.Fields) {
	if level >= LevelTrace {
		logger.WithFields(fields).Trace("sample")
	}
}

// Trace prints a level 4 message.
func Trace(format string, args ...interface{}) {
	if level >= LevelTrace {
		logger.Tracef(format, args...)
	}
}

// --- General functions ---

// Error logs an error. Errors are printed at every level, including 0.
func Error(err error) {
	logger.Error(err)
}

// Errorf logs a formatted error message at every level.
func Errorf(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

// Fmt returns a formatted string only if debug is enabled
// (to avoid unnecessary allocations).
func Fmt(format string, args ...interface{}) string {
	if level > 0 {
		return fmt.Sprintf(format, args...)
	}
	return ""
}
