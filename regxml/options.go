package regxml

import (
	"io"
	"log/slog"

	"github.com/joshuapare/dfxmlkit/pkg/types"
)

// Options configures a reader.
type Options struct {
	// Logger receives debug and warning records. Default: logger.L at the
	// time Read is called.
	Logger *slog.Logger
	// CharsetReader converts documents declaring an encoding other than
	// UTF-8. Default: xmlstream.CharsetReader.
	CharsetReader func(charset string, input io.Reader) (io.Reader, error)
	// Limits bounds nesting depth, text size and name length. Default:
	// types.DefaultLimits.
	Limits types.Limits
	// Diagnostics, when set, records every input the reader tolerated
	// instead of failing on.
	Diagnostics *types.DiagnosticReport
}

// DefaultOptions returns the options Read uses when given none.
func DefaultOptions() Options { return Options{Limits: types.DefaultLimits()} }

// Option adjusts Options.
type Option func(*Options)

// WithLogger sets Options.Logger.
func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

// WithLimits sets Options.Limits.
func WithLimits(l types.Limits) Option { return func(o *Options) { o.Limits = l } }

// WithDiagnostics sets Options.Diagnostics.
func WithDiagnostics(r *types.DiagnosticReport) Option { return func(o *Options) { o.Diagnostics = r } }

// WithCharsetReader sets Options.CharsetReader.
func WithCharsetReader(fn func(charset string, input io.Reader) (io.Reader, error)) Option {
	return func(o *Options) { o.CharsetReader = fn }
}

func buildOptions(opts []Option) Options {
	o := DefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
