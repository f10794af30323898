package debug

import (
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarning
	LevelError
)

var (
	// IsEnabled controls whether messages are output at all
	IsEnabled bool
	// CurrentLevel is the minimum level of messages to output
	CurrentLevel LogLevel

	mu         sync.Mutex
	logger     *log.Logger
	levelNames = map[LogLevel]string{
		LevelDebug:   "DEBUG",
		LevelInfo:    "INFO",
		LevelWarning: "WARNING",
		LevelError:   "ERROR",
	}
	levelMap = map[string]LogLevel{
		"DEBUG":   LevelDebug,
		"INFO":    LevelInfo,
		"WARN":    LevelWarning,
		"WARNING": LevelWarning,
		"ERROR":   LevelError,
	}
)

func init() {
	logger = log.New(os.Stdout, "", 0)
	Reinitialize()
}

// ParseLevel maps a level name (case-insensitive) to a LogLevel, defaulting to INFO.
func ParseLevel(name string) LogLevel {
	if level, ok := levelMap[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return level
	}
	return LevelInfo
}

// Reinitialize updates the settings from the current environment.
// DEBUG=false (or 0) silences all output; LOG_LEVEL picks the threshold.
func Reinitialize() {
	debugEnv := strings.ToLower(os.Getenv("DEBUG"))
	mu.Lock()
	IsEnabled = debugEnv != "false" && debugEnv != "0"
	CurrentLevel = ParseLevel(os.Getenv("LOG_LEVEL"))
	mu.Unlock()

	Debug("Logging initialized - Enabled: %v, Level: %s", IsEnabled, levelNames[CurrentLevel])
}

// SetLevel overrides the minimum level.
func SetLevel(level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	CurrentLevel = level
}

// SetOutput redirects log output, e.g. to a file and stdout at once.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetOutput(w)
}

// Log prints a message with the specified level if logging is enabled
func Log(level LogLevel, format string, v ...interface{}) {
	mu.Lock()
	enabled, threshold := IsEnabled, CurrentLevel
	mu.Unlock()
	if !enabled || level < threshold {
		return
	}

	pc, file, line, _ := runtime.Caller(2)
	funcName := "unknown"
	if fn := runtime.FuncForPC(pc); fn != nil {
		funcName = fn.Name()
	}

	message := fmt.Sprintf(format, v...)
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")

	logger.Printf("[%s] [%s] [%s:%d] [%s] %s\n",
		levelNames[level],
		timestamp,
		file,
		line,
		funcName,
		message,
	)
}

// Debug logs a debug level message
func Debug(format string, v ...interface{}) {
	Log(LevelDebug, format, v...)
}

// Info logs an info level message
func Info(format string, v ...interface{}) {
	Log(LevelInfo, format, v...)
}

// Warning logs a warning level message
func Warning(format string, v ...interface{}) {
	Log(LevelWarning, format, v...)
}

// Error logs an error level message
func Error(format string, v ...interface{}) {
	Log(LevelError, format, v...)
}
