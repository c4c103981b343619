package log

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
)

// DriverFunc builds a named logger from the factory configuration.
type DriverFunc func(config *FactoryConfig, name string) (Logger, error)

var (
	driversMu sync.RWMutex
	drivers   = map[string]DriverFunc{
		"nop": func(*FactoryConfig, string) (Logger, error) { return NewNop(), nil },
	}
)

// RegisterDriver makes a logging driver available by name. Drivers register
// themselves from an init function, so the binary imports them for effect.
func RegisterDriver(name string, fn DriverFunc) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if fn == nil {
		panic("log: RegisterDriver driver is nil")
	}
	drivers[name] = fn
}

// Drivers returns the sorted names of the registered drivers.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Factory provides a centralized way to create and manage loggers.
type Factory struct {
	mu            sync.RWMutex
	defaultLogger Logger
	loggers       map[string]Logger
	config        *FactoryConfig
}

// FactoryConfig represents the configuration for the logger factory.
type FactoryConfig struct {
	DefaultDriver    string `json:"default_driver" yaml:"default_driver"`
	Level            Level  `json:"level" yaml:"level"`
	Development      bool   `json:"development" yaml:"development"`
	EnableCaller     bool   `json:"enable_caller" yaml:"enable_caller"`
	EnableStacktrace bool   `json:"enable_stacktrace" yaml:"enable_stacktrace"`
	TimeFormat       string `json:"time_format" yaml:"time_format"`
}

// DefaultFactoryConfig returns a default factory configuration.
func DefaultFactoryConfig() *FactoryConfig {
	return &FactoryConfig{
		DefaultDriver:    "stdout",
		Level:            InfoLevel,
		EnableStacktrace: true,
		TimeFormat:       "2006-01-02T15:04:05Z07:00",
	}
}

// NewFactory creates a new logger factory with the given configuration.
func NewFactory(config *FactoryConfig) (*Factory, error) {
	if config == nil {
		config = DefaultFactoryConfig()
	}

	factory := &Factory{
		loggers: make(map[string]Logger),
		config:  config,
	}

	defaultLogger, err := factory.createLogger(config.DefaultDriver, "default")
	if err != nil {
		return nil, fmt.Errorf("failed to create default logger: %w", err)
	}

	factory.defaultLogger = defaultLogger
	factory.loggers["default"] = defaultLogger

	return factory, nil
}

// GetDefault returns the default logger instance.
func (f *Factory) GetDefault() Logger {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.defaultLogger
}

// GetLogger returns a named logger instance, creating it if it doesn't exist.
func (f *Factory) GetLogger(name string) Logger {
	f.mu.RLock()
	if logger, exists := f.loggers[name]; exists {
		f.mu.RUnlock()
		return logger
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()

	// Double-check after acquiring write lock
	if logger, exists := f.loggers[name]; exists {
		return logger
	}

	logger, err := f.createLogger(f.config.DefaultDriver, name)
	if err != nil {
		return f.defaultLogger
	}

	f.loggers[name] = logger
	return logger
}

// GetComponentLogger returns a logger tagged with the component name.
func (f *Factory) GetComponentLogger(component string) Logger {
	return f.GetLogger(component).With(String(FieldComponent, component))
}

func (f *Factory) createLogger(driver, name string) (Logger, error) {
	driversMu.RLock()
	fn, ok := drivers[driver]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported logger driver: %s", driver)
	}
	return fn(f.config, name)
}

// Shutdown gracefully shuts down all loggers.
func (f *Factory) Shutdown(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, logger := range f.loggers {
		if s, ok := logger.(interface{ Sync() error }); ok {
			// stdout sync returns EINVAL on some platforms
			_ = s.Sync()
		}
	}
	return nil
}

var (
	globalFactory     *Factory
	globalFactoryOnce sync.Once
	globalFactoryMu   sync.RWMutex
)

// InitGlobalFactory initializes the global logger factory. Only the first call has effect.
func InitGlobalFactory(config *FactoryConfig) error {
	var err error
	globalFactoryOnce.Do(func() {
		globalFactoryMu.Lock()
		defer globalFactoryMu.Unlock()
		globalFactory, err = NewFactory(config)
	})
	return err
}

// GetGlobalFactory returns the global logger factory instance.
func GetGlobalFactory() *Factory {
	globalFactoryMu.RLock()
	defer globalFactoryMu.RUnlock()
	return globalFactory
}

// Default returns the default logger from the global factory.
func Default() Logger {
	factory := GetGlobalFactory()
	if factory == nil {
		return &fallbackLogger{name: "default"}
	}
	return factory.GetDefault()
}

// Component returns a component logger from the global factory.
func Component(component string) Logger {
	factory := GetGlobalFactory()
	if factory == nil {
		return &fallbackLogger{name: component}
	}
	return factory.GetComponentLogger(component)
}

// fallbackLogger is used before the global factory is initialized.
type fallbackLogger struct {
	name   string
	fields []Field
}

func (l *fallbackLogger) write(level Level, msg string, fields []Field) {
	line := fmt.Sprintf("[%s] %s: %s", level, l.name, msg)
	for _, f := range append(l.fields, fields...) {
		line += fmt.Sprintf(" %s=%v", f.Key, f.Value)
	}
	fmt.Fprintln(os.Stderr, line)
}

func (l *fallbackLogger) Debug(msg string, fields ...Field) { l.write(DebugLevel, msg, fields) }
func (l *fallbackLogger) Info(msg string, fields ...Field)  { l.write(InfoLevel, msg, fields) }
func (l *fallbackLogger) Warn(msg string, fields ...Field)  { l.write(WarnLevel, msg, fields) }
func (l *fallbackLogger) Error(msg string, fields ...Field) { l.write(ErrorLevel, msg, fields) }

func (l *fallbackLogger) Fatal(msg string, fields ...Field) {
	l.write(FatalLevel, msg, fields)
	os.Exit(1)
}

func (l *fallbackLogger) With(fields ...Field) Logger {
	newFields := make([]Field, len(l.fields)+len(fields))
	copy(newFields, l.fields)
	copy(newFields[len(l.fields):], fields)
	return &fallbackLogger{name: l.name, fields: newFields}
}

func (l *fallbackLogger) WithContext(ctx context.Context) Logger {
	if id := RequestIDFromContext(ctx); id != "" {
		return l.With(String(FieldRequestID, id))
	}
	return l
}

// NewNop returns a logger that discards everything.
func NewNop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debug(string, ...Field)               {}
func (nopLogger) Info(string, ...Field)                {}
func (nopLogger) Warn(string, ...Field)                {}
func (nopLogger) Error(string, ...Field)               {}
func (nopLogger) Fatal(string, ...Field)               { os.Exit(1) }
func (n nopLogger) With(...Field) Logger               { return n }
func (n nopLogger) WithContext(context.Context) Logger { return n }
