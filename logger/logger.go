package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"walletbridge/config"
	"walletbridge/utils"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zerologLevel() zerolog.Level {
	switch l {
	case DEBUG:
		return zerolog.DebugLevel
	case WARN:
		return zerolog.WarnLevel
	case ERROR:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	SetLevel(level LogLevel)
	GetLevel() LogLevel
}

type logger struct {
	level LogLevel
	zl    zerolog.Logger
}

// New builds a zerolog backed Logger. Output goes to cfg.File when set and
// to stdout in development or when no file is configured.
func New(cfg *config.LoggingConfig, environment string) (Logger, error) {
	var writers []io.Writer

	if cfg.File != "" {
		if err := utils.MkdirIfNotExists(cfg.File); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}
		file, err := os.OpenFile(utils.ResolvePath(cfg.File), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, file)
	}

	if cfg.File == "" || environment == "development" {
		writers = append(writers, os.Stdout)
	}

	return NewWithWriter(io.MultiWriter(writers...), cfg.Level, cfg.Format), nil
}

func NewWithWriter(w io.Writer, level, format string) Logger {
	if strings.ToLower(format) == "text" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "2006-01-02 15:04:05.000", NoColor: true}
	}

	lvl := ParseLogLevel(level)
	return &logger{
		level: lvl,
		zl:    zerolog.New(w).With().Timestamp().Logger().Level(lvl.zerologLevel()),
	}
}

// NewNop returns a Logger that discards everything.
func NewNop() Logger {
	return &logger{level: ERROR, zl: zerolog.Nop()}
}

func (l *logger) log(level LogLevel, format string, args ...any) {
	if level < l.level {
		return
	}
	l.zl.WithLevel(level.zerologLevel()).Msgf(format, args...)
}

func (l *logger) Debug(format string, args ...any) {
	l.log(DEBUG, format, args...)
}

func (l *logger) Info(format string, args ...any) {
	l.log(INFO, format, args...)
}

func (l *logger) Warn(format string, args ...any) {
	l.log(WARN, format, args...)
}

func (l *logger) Error(format string, args ...any) {
	l.log(ERROR, format, args...)
}

func (l *logger) SetLevel(level LogLevel) {
	l.level = level
	l.zl = l.zl.Level(level.zerologLevel())
}

func (l *logger) GetLevel() LogLevel {
	return l.level
}
