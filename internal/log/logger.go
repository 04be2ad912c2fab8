package log

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

// Logger wraps slog.Logger and remembers its component name.
type Logger struct {
	*slog.Logger
	root      *slog.Logger // same handler, no component
	component string
}

var defaultRoot atomic.Pointer[slog.Logger]

type Config struct {
	Level     slog.Level
	Component string
	Output    io.Writer // defaults to stdout
	JSON      bool
}

// ForComponent returns a logger on the handler installed by SetDefault,
// tagged with component. Before SetDefault it uses the slog default.
func ForComponent(component string) *slog.Logger {
	if root := defaultRoot.Load(); root != nil {
		return root.With(FieldComponent, component)
	}
	return slog.Default().With(FieldComponent, component)
}

// New creates a logger whose records all carry the component field.
func New(config Config) *Logger {
	out := config.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: config.Level}

	var handler slog.Handler
	if config.JSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	component := config.Component
	if component == "" {
		component = ComponentApp
	}
	root := slog.New(handler)
	return &Logger{
		Logger:    root.With(FieldComponent, component),
		root:      root,
		component: component,
	}
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		root:      l.root,
		component: l.component,
	}
}

// WithComponent returns a logger on the same handler tagged with a
// different component. Attributes added with With are not carried over.
func (l *Logger) WithComponent(component string) *Logger {
	root := l.root
	if root == nil {
		root = l.Logger
	}
	return &Logger{
		Logger:    root.With(FieldComponent, component),
		root:      root,
		component: component,
	}
}

func (l *Logger) Component() string {
	return l.component
}

// SetDefault installs logger as the slog default so package-level
// slog.InfoContext calls share its handler.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
	if logger.root != nil {
		defaultRoot.Store(logger.root)
	}
}
