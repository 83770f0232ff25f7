// pkg/logging/logger.go
package logging

import (
	"context"
	"fmt"
	"io"
	"log"

	cloudlogging "cloud.google.com/go/logging"
)

const logName = "sp2ytm"

// Logger пишет в Cloud Logging, если задан проект, и всегда дублирует запись в локальный поток.
type Logger struct {
	client *cloudlogging.Client
	cloud  *cloudlogging.Logger
	std    *log.Logger
}

// New создаёт логгер. Без projectID используется только стандартный log.Logger.
func New(ctx context.Context, projectID string, w io.Writer) (*Logger, error) {
	if w == nil {
		w = io.Discard
	}
	l := &Logger{std: log.New(w, "", log.LstdFlags)}
	if projectID == "" {
		return l, nil
	}
	client, err := cloudlogging.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации Cloud Logging: %w", err)
	}
	l.client = client
	l.cloud = client.Logger(logName)
	return l, nil
}

// Nop возвращает логгер, который ничего не пишет.
func Nop() *Logger {
	return &Logger{std: log.New(io.Discard, "", 0)}
}

func (l *Logger) Debugf(format string, args ...any) {
	l.log(cloudlogging.Debug, "DEBUG", format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.log(cloudlogging.Info, "INFO", format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.log(cloudlogging.Warning, "WARN", format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.log(cloudlogging.Error, "ERROR", format, args...)
}

func (l *Logger) log(sev cloudlogging.Severity, level, format string, args ...any) {
	if l == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.cloud != nil {
		l.cloud.Log(cloudlogging.Entry{Severity: sev, Payload: msg})
	}
	l.std.Printf("[%s] %s", level, msg)
}

// Close сбрасывает буфер Cloud Logging и закрывает клиента.
func (l *Logger) Close() error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Close()
}
