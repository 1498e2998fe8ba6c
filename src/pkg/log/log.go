// Package log provides structured logging of commands, errors and general
// application activity to separate JSON log files.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"aetherflow/local-app/src/pkg/model"
)

// Fields carries structured key/value pairs attached to a log message.
type Fields map[string]interface{}

// LogMessage represents a message queued for the log writer goroutine.
type LogMessage struct {
	Level   LogLevel
	Content string
	Fields  Fields
	Context context.Context
}

// Logger writes command, error and info logs. Messages are queued on a
// buffered channel and written by a single goroutine.
type Logger struct {
	commandLogger *slog.Logger
	errorLogger   *slog.Logger
	infoLogger    *slog.Logger
	closers       []io.Closer
	logChan       chan LogMessage
	done          chan struct{}
	closeOnce     sync.Once
	wg            sync.WaitGroup
	level         LogLevel
}

// NewLogger creates a Logger writing into the configured log folder. Only
// messages at or below level reach the info log; errors and commands are
// always written.
func NewLogger(cfg *model.Config, level LogLevel) (*Logger, error) {
	if err := os.MkdirAll(cfg.Log.Folder, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	var files []*os.File
	open := func(name string) (*os.File, error) {
		f, err := os.OpenFile(filepath.Join(cfg.Log.Folder, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			for _, opened := range files {
				opened.Close()
			}
			return nil, err
		}
		files = append(files, f)
		return f, nil
	}

	commandFile, err := open(cfg.Log.CommandLog)
	if err != nil {
		return nil, fmt.Errorf("failed to open command log file: %w", err)
	}
	errorFile, err := open(cfg.Log.ErrorLog)
	if err != nil {
		return nil, fmt.Errorf("failed to open error log file: %w", err)
	}
	infoFile, err := open(cfg.Log.InfoLog)
	if err != nil {
		return nil, fmt.Errorf("failed to open info log file: %w", err)
	}

	logger := NewWriterLogger(commandFile, errorFile, infoFile, level)
	logger.closers = []io.Closer{commandFile, errorFile, infoFile}
	return logger, nil
}

// NewWriterLogger creates a Logger on arbitrary writers. The caller owns the
// writers.
func NewWriterLogger(command, errs, info io.Writer, level LogLevel) *Logger {
	logger := &Logger{
		commandLogger: slog.New(slog.NewJSONHandler(command, &slog.HandlerOptions{Level: slog.LevelInfo})),
		errorLogger:   slog.New(slog.NewJSONHandler(errs, &slog.HandlerOptions{Level: slog.LevelWarn})),
		infoLogger:    slog.New(slog.NewJSONHandler(info, &slog.HandlerOptions{Level: slog.LevelDebug})),
		logChan:       make(chan LogMessage, 100),
		done:          make(chan struct{}),
		level:         level,
	}

	logger.wg.Add(1)
	go logger.processLogs()

	return logger
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return NewWriterLogger(io.Discard, io.Discard, io.Discard, LevelCommand)
}

// processLogs writes queued messages until Close is called, then drains
// whatever is still buffered.
func (l *Logger) processLogs() {
	defer l.wg.Done()
	for {
		select {
		case msg := <-l.logChan:
			l.write(msg)
		case <-l.done:
			for {
				select {
				case msg := <-l.logChan:
					l.write(msg)
				default:
					return
				}
			}
		}
	}
}

func (l *Logger) write(msg LogMessage) {
	ctx := msg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	attrs := fieldsToAttrs(msg.Fields)

	switch msg.Level {
	case LevelCommand:
		l.commandLogger.LogAttrs(ctx, slog.LevelInfo, msg.Content, attrs...)
	case LevelError, LevelWarn:
		l.errorLogger.LogAttrs(ctx, msg.Level.toSlogLevel(), msg.Content, attrs...)
		l.infoLogger.LogAttrs(ctx, msg.Level.toSlogLevel(), msg.Content, attrs...)
	default:
		l.infoLogger.LogAttrs(ctx, msg.Level.toSlogLevel(), msg.Content, attrs...)
	}
}

func (l *Logger) enqueue(ctx context.Context, level LogLevel, msg string, fields Fields) {
	if l == nil {
		return
	}
	if level > l.level && level != LevelCommand && level != LevelError {
		return
	}
	select {
	case <-l.done:
	case l.logChan <- LogMessage{Level: level, Content: msg, Fields: fields, Context: ctx}:
	}
}

// Command logs a user command to the command log.
func (l *Logger) Command(ctx context.Context, msg string, fields Fields) {
	l.enqueue(ctx, LevelCommand, msg, fields)
}

// Error logs to the error log and the info log.
func (l *Logger) Error(ctx context.Context, msg string, fields Fields) {
	l.enqueue(ctx, LevelError, msg, fields)
}

// Warn logs to the error log and the info log.
func (l *Logger) Warn(ctx context.Context, msg string, fields Fields) {
	l.enqueue(ctx, LevelWarn, msg, fields)
}

// Info logs to the info log.
func (l *Logger) Info(ctx context.Context, msg string, fields Fields) {
	l.enqueue(ctx, LevelInfo, msg, fields)
}

// Debug logs to the info log when the level allows it.
func (l *Logger) Debug(ctx context.Context, msg string, fields Fields) {
	l.enqueue(ctx, LevelDebug, msg, fields)
}

// SetLevel changes the info log threshold. It is not safe to call
// concurrently with logging.
func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
}

// Close stops the logging goroutine, flushes pending messages and closes any
// files opened by NewLogger.
func (l *Logger) Close() error {
	l.closeOnce.Do(func() { close(l.done) })
	l.wg.Wait()

	for _, c := range l.closers {
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close log file: %w", err)
		}
	}
	l.closers = nil
	return nil
}

func fieldsToAttrs(fields Fields) []slog.Attr {
	if len(fields) == 0 {
		return nil
	}
	attrs := make([]slog.Attr, 0, len(fields))
	for k, v := range fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}
