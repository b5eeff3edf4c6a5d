package logger

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Logger writes tagged, colored log lines to stdout and optionally mirrors
// them (uncolored) to the file named by LOG_FILE.
type Logger struct {
	mu   sync.Mutex
	file *os.File
}

var (
	debugColor = color.New(color.FgCyan)
	infoColor  = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed)
	fatalColor = color.New(color.FgRed, color.Bold)
)

func NewLogger() *Logger {
	l := &Logger{}
	if path := os.Getenv("LOG_FILE"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			l.file = f
		}
	}
	return l
}

func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
}

func (l *Logger) write(c *color.Color, level, tag, msg string) {
	ts := time.Now().Format("2006-01-02 15:04:05")
	line := fmt.Sprintf("%s [%s] [%s] %s", ts, level, tag, msg)

	l.mu.Lock()
	defer l.mu.Unlock()
	c.Fprintln(os.Stdout, line)
	if l.file != nil {
		fmt.Fprintln(l.file, line)
	}
}

func (l *Logger) Debug(tag, msg string) { l.write(debugColor, "DEBUG", tag, msg) }
func (l *Logger) Info(tag, msg string)  { l.write(infoColor, "INFO", tag, msg) }
func (l *Logger) Warn(tag, msg string)  { l.write(warnColor, "WARN", tag, msg) }
func (l *Logger) Error(tag, msg string) { l.write(errorColor, "ERROR", tag, msg) }

func (l *Logger) Fatal(tag, msg string) {
	l.write(fatalColor, "FATAL", tag, msg)
	l.Close()
	os.Exit(1)
}

// LogProcess marks lifecycle steps (startup, component init, shutdown).
func (l *Logger) LogProcess(tag, msg string) { l.Info(tag, msg) }

func (l *Logger) LogDatabase(op, db, msg string) {
	l.write(infoColor, "INFO", "DB", fmt.Sprintf("[%s] [%s] %s", op, db, msg))
}

func (l *Logger) LogKafka(op, topic, msg string) {
	l.write(infoColor, "INFO", "KAFKA", fmt.Sprintf("[%s] [%s] %s", op, topic, msg))
}

func (l *Logger) LogHub(op, channel, msg string) {
	l.write(infoColor, "INFO", "HUB", fmt.Sprintf("[%s] [%s] %s", op, channel, msg))
}

func (l *Logger) LogAPI(method, path, status, duration string) {
	l.write(infoColor, "INFO", "API", fmt.Sprintf("%s %s - %s (%s)", method, path, status, duration))
}

func (l *Logger) LogSecurity(event, msg string) {
	l.write(warnColor, "WARN", "SECURITY", fmt.Sprintf("[%s] %s", event, msg))
}
