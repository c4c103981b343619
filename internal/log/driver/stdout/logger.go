package stdout

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/songzhibin97/academia/pkg/log"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func init() {
	log.RegisterDriver("stdout", func(fc *log.FactoryConfig, name string) (log.Logger, error) {
		cfg := DefaultConfig()
		cfg.Level = fc.Level
		cfg.EnableCaller = fc.EnableCaller
		cfg.EnableStacktrace = fc.EnableStacktrace
		cfg.Development = fc.Development
		if fc.TimeFormat != "" {
			cfg.TimeFormat = fc.TimeFormat
		}
		logger, err := New(cfg)
		if err != nil {
			return nil, err
		}
		return logger.Named(name), nil
	})
}

// StdoutLogger implements log.Logger using zap with JSON output.
type StdoutLogger struct {
	zapLogger *zap.Logger
	config    *Config
	fields    []log.Field
}

// Config represents the configuration options for StdoutLogger.
type Config struct {
	Level            log.Level `json:"level"`
	TimeFormat       string    `json:"time_format,omitempty"`
	EnableCaller     bool      `json:"enable_caller"`
	EnableStacktrace bool      `json:"enable_stacktrace"`
	Development      bool      `json:"development"`

	// Output defaults to os.Stdout.
	Output io.Writer `json:"-"`
}

// DefaultConfig returns a default configuration for StdoutLogger.
func DefaultConfig() *Config {
	return &Config{
		Level:            log.InfoLevel,
		TimeFormat:       time.RFC3339,
		EnableStacktrace: true,
	}
}

// New creates a new StdoutLogger with the given configuration.
func New(config *Config) (*StdoutLogger, error) {
	if config == nil {
		config = DefaultConfig()
	}
	out := config.Output
	if out == nil {
		out = os.Stdout
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     getTimeEncoder(config.TimeFormat),
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(out),
		convertLogLevel(config.Level),
	)

	var options []zap.Option
	if config.EnableCaller {
		options = append(options, zap.AddCaller(), zap.AddCallerSkip(2))
	}
	if config.EnableStacktrace {
		options = append(options, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	if config.Development {
		options = append(options, zap.Development())
	}

	return &StdoutLogger{
		zapLogger: zap.New(core, options...),
		config:    config,
	}, nil
}

// Named returns a logger whose entries carry the given logger name.
func (l *StdoutLogger) Named(name string) *StdoutLogger {
	if name == "" || name == "default" {
		return l
	}
	return &StdoutLogger{zapLogger: l.zapLogger.Named(name), config: l.config, fields: l.fields}
}

func (l *StdoutLogger) Debug(msg string, fields ...log.Field) { l.log(log.DebugLevel, msg, fields...) }
func (l *StdoutLogger) Info(msg string, fields ...log.Field)  { l.log(log.InfoLevel, msg, fields...) }
func (l *StdoutLogger) Warn(msg string, fields ...log.Field)  { l.log(log.WarnLevel, msg, fields...) }
func (l *StdoutLogger) Error(msg string, fields ...log.Field) { l.log(log.ErrorLevel, msg, fields...) }

// Fatal logs the message and exits the program.
func (l *StdoutLogger) Fatal(msg string, fields ...log.Field) {
	l.log(log.FatalLevel, msg, fields...)
	os.Exit(1)
}

// With creates a new logger instance with additional structured fields.
func (l *StdoutLogger) With(fields ...log.Field) log.Logger {
	newFields := make([]log.Field, 0, len(l.fields)+len(fields))
	newFields = append(newFields, l.fields...)
	newFields = append(newFields, fields...)

	return &StdoutLogger{
		zapLogger: l.zapLogger,
		config:    l.config,
		fields:    newFields,
	}
}

// WithContext attaches the request id and the active span's trace id.
func (l *StdoutLogger) WithContext(ctx context.Context) log.Logger {
	var contextFields []log.Field

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		contextFields = append(contextFields,
			log.String(log.FieldTraceID, sc.TraceID().String()),
			log.String(log.FieldSpanID, sc.SpanID().String()),
		)
	}
	if requestID := log.RequestIDFromContext(ctx); requestID != "" {
		contextFields = append(contextFields, log.String(log.FieldRequestID, requestID))
	}

	if len(contextFields) == 0 {
		return l
	}
	return l.With(contextFields...)
}

// Sync flushes buffered entries.
func (l *StdoutLogger) Sync() error {
	return l.zapLogger.Sync()
}

func (l *StdoutLogger) log(level log.Level, msg string, fields ...log.Field) {
	if level < l.config.Level {
		return
	}

	zapFields := make([]zap.Field, 0, len(l.fields)+len(fields))
	for _, f := range l.fields {
		zapFields = append(zapFields, convertToZapField(f))
	}
	for _, f := range fields {
		zapFields = append(zapFields, convertToZapField(f))
	}

	switch level {
	case log.DebugLevel:
		l.zapLogger.Debug(msg, zapFields...)
	case log.InfoLevel:
		l.zapLogger.Info(msg, zapFields...)
	case log.WarnLevel:
		l.zapLogger.Warn(msg, zapFields...)
	case log.ErrorLevel:
		l.zapLogger.Error(msg, zapFields...)
	case log.FatalLevel:
		l.zapLogger.Fatal(msg, zapFields...)
	}
}

func convertLogLevel(level log.Level) zapcore.Level {
	switch level {
	case log.DebugLevel:
		return zapcore.DebugLevel
	case log.InfoLevel:
		return zapcore.InfoLevel
	case log.WarnLevel:
		return zapcore.WarnLevel
	case log.ErrorLevel:
		return zapcore.ErrorLevel
	case log.FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func convertToZapField(field log.Field) zap.Field {
	switch v := field.Value.(type) {
	case string:
		return zap.String(field.Key, v)
	case int:
		return zap.Int(field.Key, v)
	case int64:
		return zap.Int64(field.Key, v)
	case float64:
		return zap.Float64(field.Key, v)
	case bool:
		return zap.Bool(field.Key, v)
	case time.Time:
		return zap.Time(field.Key, v)
	case time.Duration:
		return zap.Duration(field.Key, v)
	case error:
		return zap.NamedError(field.Key, v)
	default:
		return zap.Any(field.Key, v)
	}
}

func getTimeEncoder(format string) zapcore.TimeEncoder {
	switch format {
	case "", time.RFC3339:
		return zapcore.RFC3339TimeEncoder
	case time.RFC3339Nano:
		return zapcore.RFC3339NanoTimeEncoder
	default:
		return func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.Format(format))
		}
	}
}
