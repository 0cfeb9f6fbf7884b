package accessify

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Default values for the two layout tunables.
const (
	// DefaultGridSize is the layout grid images snap to, in page points.
	DefaultGridSize = 20

	// DefaultMergeThreshold is the largest vertical gap, in page points,
	// across which adjacent text blocks merge.
	DefaultMergeThreshold = 30
)

// Accepted range for both tunables.
const (
	minTuning = 5
	maxTuning = 50
)

// convertOptions holds configuration for one conversion.
type convertOptions struct {
	gridSize       int
	mergeThreshold int
	matchByOverlap bool
	logger         logrus.FieldLogger
}

// defaultOptions returns the default conversion options.
func defaultOptions() convertOptions {
	return convertOptions{
		gridSize:       DefaultGridSize,
		mergeThreshold: DefaultMergeThreshold,
		matchByOverlap: false,
		logger:         nil, // nil means discard diagnostics
	}
}

// clone creates a copy of convertOptions. The struct holds no reference
// types besides the shared logger, so a value copy is a full copy.
func (o convertOptions) clone() convertOptions {
	return o
}

// validateTuning checks one layout tunable against the accepted range.
func validateTuning(name string, value int) error {
	if value < minTuning || value > maxTuning {
		return fmt.Errorf("%s %d out of range [%d, %d]", name, value, minTuning, maxTuning)
	}
	return nil
}

// fieldLogger returns the attached logger, or a disabled one.
func (o convertOptions) fieldLogger() logrus.FieldLogger {
	if o.logger != nil {
		return o.logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
