package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log является глобальным экземпляром логгера для всего приложения.
// До вызова Init пишет в stderr с уровнем info, чтобы пакеты можно было
// использовать в тестах без инициализации.
var Log = logrus.New()

// Init инициализирует глобальный логгер из окружения.
// Эта функция должна быть вызвана один раз при старте приложения в main.go.
//
//	LOG_LEVEL  - уровень (по умолчанию info)
//	LOG_FORMAT - "json" или "text"
//	LOG_FILE   - файл для логов; если открыть не удалось, пишем в stderr
func Init() {
	path := os.Getenv("LOG_FILE")
	if path == "" {
		InitWithOutput(os.Stdout)
		return
	}
	if err := InitFile(path); err != nil {
		InitWithOutput(os.Stderr)
		Log.WithError(err).Warn("Logging to stderr")
	}
}

// InitFile направляет логи в файл (дописывая). Терминальный интерфейс
// занимает stdout и stderr, поэтому при ошибке логи отбрасываются,
// а ошибка возвращается вызывающему.
func InitFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		InitWithOutput(io.Discard)
		return fmt.Errorf("open log file: %w", err)
	}
	InitWithOutput(f)
	return nil
}

// InitWithOutput настраивает логгер с явным приемником.
func InitWithOutput(out io.Writer) {
	Log = logrus.New()

	logLevel, ok := os.LookupEnv("LOG_LEVEL")
	if !ok {
		logLevel = "info"
	}
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	// "json" - для сбора логов, "text" - для разработки.
	// Цвета только когда пишем в терминал.
	logFormat := strings.ToLower(os.Getenv("LOG_FORMAT"))
	if logFormat == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   out == os.Stdout,
		})
	}

	Log.SetOutput(out)
}

// Component возвращает запись с полем component - так помечаются все подсистемы.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
