package bayesgo

import (
	"time"

	"github.com/hupe1980/bayesgo/model"
)

// Options configures a structure search.
type Options struct {
	// MaxIterations caps the number of applied moves. Zero means
	// unlimited.
	MaxIterations int

	// Epsilon is the minimum score improvement a move must offer. The
	// search stops when the best candidate's delta is at or below it.
	Epsilon float64

	// MaxIndegree caps the number of parents per node. Zero means
	// unlimited.
	MaxIndegree int

	// ArcWhitelist pins arcs present: they are never removed or flipped.
	ArcWhitelist []model.Arc

	// ArcBlacklist pins arcs absent: the listed direction is never added.
	ArcBlacklist []model.Arc

	// TypeWhitelist pins node factor types: listed nodes never switch.
	// Only meaningful for typed models.
	TypeWhitelist []model.TypedNode

	// Patience is the number of consecutive non-improving moves a tabu
	// search tolerates before stopping.
	Patience int

	// CheckpointPath, when set, makes the search persist its state every
	// CheckpointInterval iterations.
	CheckpointPath string

	// CheckpointInterval is the number of iterations between checkpoint
	// writes.
	CheckpointInterval int

	// ProgressInterval paces per-iteration progress logging. Iterations
	// arriving faster than this are not logged.
	ProgressInterval time.Duration

	// Logger receives structured search logs. Nil disables logging.
	Logger *Logger

	// Metrics receives operational metrics. Nil disables collection.
	Metrics MetricsCollector
}

// DefaultOptions contains the default configuration for a search.
var DefaultOptions = Options{
	MaxIterations:      0,
	Epsilon:            0,
	MaxIndegree:        0,
	Patience:           5,
	CheckpointInterval: 100,
	ProgressInterval:   time.Second,
}

// applyOptions materialises the effective options, filling nil
// collaborators with no-ops.
func applyOptions(optFns []func(o *Options)) Options {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = NoopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = NoopMetricsCollector{}
	}
	if opts.CheckpointInterval <= 0 {
		opts.CheckpointInterval = DefaultOptions.CheckpointInterval
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultOptions.ProgressInterval
	}
	return opts
}
