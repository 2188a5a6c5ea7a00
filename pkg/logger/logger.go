package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"portfolio-analytics-api/internal/config"
)

const serviceName = "portfolio-analytics-api"

// serviceHook stamps every entry with the service name so reports
// aggregated across services stay attributable.
type serviceHook struct{}

func (serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (serviceHook) Fire(entry *logrus.Entry) error {
	if _, ok := entry.Data["service"]; !ok {
		entry.Data["service"] = serviceName
	}
	return nil
}

// Init configures the global logrus logger: level, format, output and
// the service identity field.
func Init(cfg config.LoggerConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(buildFormatter(cfg.Format))
	logrus.SetOutput(buildOutput(cfg))
	logrus.AddHook(serviceHook{})
}

func buildFormatter(format string) logrus.Formatter {
	if format == "text" {
		return &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000Z",
		}
	}
	return &logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z",
	}
}

func buildOutput(cfg config.LoggerConfig) io.Writer {
	switch cfg.Output {
	case "file":
		if cfg.Filename != "" {
			return getFileWriter(cfg)
		}
	case "both":
		if cfg.Filename != "" {
			return io.MultiWriter(os.Stdout, getFileWriter(cfg))
		}
	}
	return os.Stdout
}

// getFileWriter returns a rotating file writer. Unset rotation limits
// fall back to 100MB files kept for 28 days.
func getFileWriter(cfg config.LoggerConfig) io.Writer {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 100
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 28
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 3
	}
	return &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxAge,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	}
}
