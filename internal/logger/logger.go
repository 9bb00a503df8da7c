package logger

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Logger provides leveled logging (info/warning/error) to a run log file and
// stdout/stderr.
type Logger struct {
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	file       *os.File
	mu         sync.Mutex
}

// New creates a Logger writing to run.log inside logDir, creating the
// directory if needed.
func New(logDir string) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(filepath.Join(logDir, "run.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}

	outWriter := io.MultiWriter(os.Stdout, file)
	errWriter := io.MultiWriter(os.Stderr, file)

	return &Logger{
		infoLog:    log.New(outWriter, "INFO    ", log.Ldate|log.Ltime),
		warningLog: log.New(outWriter, "WARNING ", log.Ldate|log.Ltime),
		errorLog:   log.New(errWriter, "ERROR   ", log.Ldate|log.Ltime),
		file:       file,
	}, nil
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.Printf(format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warningLog.Printf(format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.Printf(format, v...)
}

// Close closes the underlying log file.
func (l *Logger) Close() error {
	return l.file.Close()
}
