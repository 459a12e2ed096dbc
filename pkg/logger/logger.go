package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Small leveled logger shared by the session server.
// Level is set at startup from LOG_LEVEL (debug|info|warn|error|fatal);
// callers use the printf-style helpers.

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var (
	mu  sync.RWMutex
	out *log.Logger = log.New(os.Stdout, "", 0)
	lvl Level       = LevelInfo
)

// Init sets the global level. Unknown or empty input falls back to Info.
func Init(level string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = LevelDebug
	case "warn", "warning":
		lvl = LevelWarn
	case "error":
		lvl = LevelError
	case "fatal":
		lvl = LevelFatal
	default:
		lvl = LevelInfo
	}
}

func enabled(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return l >= lvl
}

func prefix(tag string) string {
	return fmt.Sprintf("%s [%s] ", time.Now().Format(time.RFC3339), strings.ToUpper(tag))
}

func Debugf(format string, v ...interface{}) {
	if enabled(LevelDebug) {
		out.Printf(prefix("debug")+format, v...)
	}
}

func Infof(format string, v ...interface{}) {
	if enabled(LevelInfo) {
		out.Printf(prefix("info")+format, v...)
	}
}

func Warnf(format string, v ...interface{}) {
	if enabled(LevelWarn) {
		out.Printf(prefix("warn")+format, v...)
	}
}

func Errorf(format string, v ...interface{}) {
	if enabled(LevelError) {
		out.Printf(prefix("error")+format, v...)
	}
}

// Fatalf logs and exits the process. Reserved for unrecoverable startup
// conditions; nothing in the per-session paths may call it.
func Fatalf(format string, v ...interface{}) {
	out.Printf(prefix("fatal")+format, v...)
	os.Exit(1)
}

func Debug(msg string) { Debugf("%s", msg) }
func Info(msg string)  { Infof("%s", msg) }
func Warn(msg string)  { Warnf("%s", msg) }
func Error(msg string) { Errorf("%s", msg) }

// LevelString reports the active level as text (used in startup logs).
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	switch lvl {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	}
	return "info"
}
