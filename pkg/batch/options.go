package batch

import (
	"log/slog"

	"github.com/askiada/go-grammarbot/pkg/pipeline/drawer"
	"github.com/askiada/go-grammarbot/pkg/pipeline/measure"
)

// DefaultConcurrency is the number of documents checked at the same time.
const DefaultConcurrency = 4

type options struct {
	concurrency int
	measure     measure.Measure
	drawer      drawer.Drawer
	logger      *slog.Logger
}

// Option configures Run.
type Option func(o *options)

// WithConcurrency sets the number of documents checked at the same time.
func WithConcurrency(concurrency int) Option {
	return func(o *options) {
		if concurrency > 0 {
			o.concurrency = concurrency
		}
	}
}

// WithMeasure records the duration of every stage in msr.
func WithMeasure(msr measure.Measure) Option {
	return func(o *options) {
		o.measure = msr
	}
}

// WithDrawer draws the stages once the batch has finished, with the durations of
// the measure if one is set.
func WithDrawer(d drawer.Drawer) Option {
	return func(o *options) {
		o.drawer = d
	}
}

// WithLogger sets the logger used for progress messages.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
