package engine

import "github.com/hupe1980/vecdb/metric"

// MinDimension and MaxDimension bound a configured vector dimension, per §4.5.
const (
	MinDimension = 1
	MaxDimension = 4096
)

// Config is the engine's configuration record: a name, a data path, a fixed dimension,
// a similarity metric, and an optional max-vector bound (0 = unbounded). MaxVectors is
// validated as non-negative but not enforced on insert, and it is not stored in the file.
type Config struct {
	Name       string
	Path       string
	Dimension  int
	Metric     metric.Type
	MaxVectors int
}

func (c Config) validate() error {
	if c.Path == "" {
		return ErrInvalidArgument
	}
	if c.Dimension < MinDimension || c.Dimension > MaxDimension {
		return ErrInvalidArgument
	}
	switch c.Metric {
	case metric.Cosine, metric.Dot, metric.Euclidean:
	default:
		return ErrInvalidArgument
	}
	if c.MaxVectors < 0 {
		return ErrInvalidArgument
	}
	return nil
}
