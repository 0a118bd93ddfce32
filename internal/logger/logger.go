package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// TraceChannel names the trace messages emitted while fetching URLs.
const TraceChannel = "conf_url"

// MaxTraceLevel is the most verbose trace level.
const MaxTraceLevel = 20

var (
	debugLogger *log.Logger

	DebugEnabled = false

	logFile *os.File

	traceMu     sync.Mutex
	traceLogger = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lmicroseconds)
	traceLevel  atomic.Int32
)

// InitLogging sets up logging based on configuration.
func InitLogging(debugMode bool, logPath string) error {
	DebugEnabled = debugMode

	if DebugEnabled && logPath != "" {
		logDir := filepath.Dir(logPath)
		err := os.MkdirAll(logDir, 0o755)
		if err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}

		logFile = f
		debugLogger = log.New(f, "", log.Ldate|log.Ltime|log.Lshortfile)
	}

	return nil
}

// Close closes the log file if open.
func Close() {
	if logFile != nil {
		logFile.Close()
	}
}

func Infof(format string, v ...interface{}) {
	if DebugEnabled && debugLogger != nil {
		debugLogger.Printf("[INFO] "+format, v...)
	}
}

// Errorf logs an error message to the file if debug mode is enabled.
func Errorf(format string, v ...interface{}) {
	if DebugEnabled && debugLogger != nil {
		debugLogger.Printf("[ERROR] "+format, v...)
	}
}

func Debugf(format string, v ...interface{}) {
	if DebugEnabled && debugLogger != nil {
		debugLogger.Printf("[DEBUG] "+format, v...)
	}
}

func Warnf(format string, v ...interface{}) {
	if DebugEnabled && debugLogger != nil {
		debugLogger.Printf("[WARNING] "+format, v...)
	}
}

// EnableTracing turns on the trace channel at every level, writing to
// stderr. Once enabled, tracing stays on for the rest of the process unless
// DisableTracing is called. Calling it again has no further effect.
func EnableTracing() {
	traceLevel.Store(MaxTraceLevel)
}

// DisableTracing turns the trace channel off again.
func DisableTracing() {
	traceLevel.Store(0)
}

// TracingEnabled reports whether trace messages are currently written.
func TracingEnabled() bool {
	return traceLevel.Load() > 0
}

// SetTraceOutput redirects trace messages, mostly for tests.
func SetTraceOutput(w io.Writer) {
	traceMu.Lock()
	defer traceMu.Unlock()

	traceLogger.SetOutput(w)
}

// Tracef writes a trace message when tracing is enabled at level or above.
// Trace messages are mirrored into the debug log.
func Tracef(level int, format string, v ...interface{}) {
	if int32(level) <= traceLevel.Load() {
		traceMu.Lock()
		traceLogger.Printf("<"+TraceChannel+":"+fmt.Sprint(level)+">: "+format, v...)
		traceMu.Unlock()
	}

	if DebugEnabled && debugLogger != nil {
		debugLogger.Printf("[TRACE:%d] "+format, append([]interface{}{level}, v...)...)
	}
}

// Tracer exposes the process-wide trace switch as a value that can be
// handed to the components that are allowed to flip it.
type Tracer struct{}

func (Tracer) EnableTracing()       { EnableTracing() }
func (Tracer) TracingEnabled() bool { return TracingEnabled() }
