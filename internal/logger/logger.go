package logger

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// Logger writes leveled, subsystem-tagged messages to a shared backend.
// It mirrors the teacher's logs.Logger: a cheap value that reads its
// level atomically so it can be checked on every call site without
// locking.
type Logger struct {
	tag     string
	level   *uint32
	backend *Backend
}

func newLogger(tag string, backend *Backend) Logger {
	l := uint32(LevelInfo)
	return Logger{tag: tag, level: &l, backend: backend}
}

// SetLevel changes the minimum severity this logger will emit.
func (l Logger) SetLevel(level Level) {
	atomic.StoreUint32(l.level, uint32(level))
}

// Level returns the logger's current minimum severity.
func (l Logger) Level() Level {
	return Level(atomic.LoadUint32(l.level))
}

func (l Logger) write(level Level, format string, args []interface{}) {
	if level < l.Level() {
		return
	}
	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("%s [%s] %s %s\n",
		time.Now().UTC().Format("2006-01-02 15:04:05.000"), level, l.tag, msg)
	l.backend.write(level, line)
}

// Tracef logs at trace severity.
func (l Logger) Tracef(format string, args ...interface{}) { l.write(LevelTrace, format, args) }

// Debugf logs at debug severity.
func (l Logger) Debugf(format string, args ...interface{}) { l.write(LevelDebug, format, args) }

// Infof logs at info severity.
func (l Logger) Infof(format string, args ...interface{}) { l.write(LevelInfo, format, args) }

// Warnf logs at warn severity.
func (l Logger) Warnf(format string, args ...interface{}) { l.write(LevelWarn, format, args) }

// Errorf logs at error severity.
func (l Logger) Errorf(format string, args ...interface{}) { l.write(LevelError, format, args) }

// Criticalf logs at critical severity.
func (l Logger) Criticalf(format string, args ...interface{}) { l.write(LevelCritical, format, args) }

// Backend fans a formatted line out to every registered writer (level
// filtering happens in Logger, not per writer); error+ lines
// additionally go to the error-only writers.
type Backend struct {
	writers    []io.Writer
	errWriters []io.Writer
}

// NewBackend builds a Backend writing every level to writers and
// error-and-above to errWriters (mirroring logs.NewBackend's
// all-levels/error-only writer split).
func NewBackend(writers, errWriters []io.Writer) *Backend {
	return &Backend{writers: writers, errWriters: errWriters}
}

func (b *Backend) write(level Level, line string) {
	for _, w := range b.writers {
		_, _ = io.WriteString(w, line)
	}
	if level >= LevelError {
		for _, w := range b.errWriters {
			_, _ = io.WriteString(w, line)
		}
	}
}

// Logger creates a new tagged subsystem logger backed by b.
func (b *Backend) Logger(tag string) Logger {
	return newLogger(tag, b)
}
