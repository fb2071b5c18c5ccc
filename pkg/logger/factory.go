package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger wraps a configured logrus instance together with the log file it
// writes to, so commands can close it cleanly on shutdown.
type Logger struct {
	logger *logrus.Logger
	file   *os.File
}

// New creates a logger writing to logFile (or a dated file under logs/ when
// empty). When enableStdout is set the log is mirrored to stdout as well;
// stdio-transport commands must leave it off since stdout carries the
// protocol stream.
func New(logFile string, level string, format string, enableStdout bool) (Logger, error) {
	log := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return Logger{}, fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(logLevel)

	caller := func(f *runtime.Frame) (string, string) {
		return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
	}
	switch strings.ToLower(format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: caller,
		})
	case "text":
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    true,
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: caller,
		})
	default:
		return Logger{}, fmt.Errorf("unsupported log format: %s", format)
	}
	log.SetReportCaller(true)

	if logFile == "" {
		logFile = fmt.Sprintf("logs/productivity-agent-%s.log", time.Now().Format("2006-01-02"))
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return Logger{}, fmt.Errorf("failed to create log directory: %w", err)
	}
	//nolint:gosec // G304: logFile comes from configuration, not user input
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return Logger{}, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(file)

	if enableStdout {
		log.SetOutput(io.MultiWriter(file, os.Stdout))
	}

	return Logger{logger: log, file: file}, nil
}

// NewTest creates a quiet text logger for tests.
func NewTest(logFile string) Logger {
	l, err := New(logFile, "info", "text", false)
	if err != nil {
		l, _ = New("logs/test-fallback.log", "info", "text", false)
	}
	return l
}

func (l Logger) Infof(format string, v ...any)  { l.logger.Infof(format, v...) }
func (l Logger) Errorf(format string, v ...any) { l.logger.Errorf(format, v...) }
func (l Logger) Debugf(format string, v ...any) { l.logger.Debugf(format, v...) }
func (l Logger) Warnf(format string, v ...any)  { l.logger.Warnf(format, v...) }
func (l Logger) Info(args ...interface{})       { l.logger.Info(args...) }
func (l Logger) Error(args ...interface{})      { l.logger.Error(args...) }
func (l Logger) Debug(args ...interface{})      { l.logger.Debug(args...) }
func (l Logger) Warn(args ...interface{})       { l.logger.Warn(args...) }
func (l Logger) Fatalf(format string, v ...any) { l.logger.Fatalf(format, v...) }

func (l Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.logger.WithField(key, value)
}

func (l Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	return l.logger.WithFields(fields)
}

func (l Logger) WithError(err error) *logrus.Entry {
	return l.logger.WithError(err)
}

// Close closes the underlying log file.
func (l Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
