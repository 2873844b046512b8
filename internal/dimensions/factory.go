// Package dimensions builds dimension collections from raw user selections.
package dimensions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/emiliopalmerini/mpylon/internal/domain"
	"github.com/emiliopalmerini/mpylon/internal/ports"
)

// Spec is a raw dimension selection. Threshold is applied only when it
// holds an integer value.
type Spec struct {
	Target    string `json:"target" yaml:"target"`
	Threshold any    `json:"threshold,omitempty" yaml:"threshold,omitempty"`
}

// Factory validates raw specs against a schema provider.
type Factory struct {
	schemas ports.SchemaProvider
	logger  logrus.FieldLogger
}

// NewFactory creates a factory backed by schemas. A nil logger discards output.
func NewFactory(schemas ports.SchemaProvider, logger logrus.FieldLogger) *Factory {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Factory{schemas: schemas, logger: logger}
}

// Build resolves every spec against the subscription's schema and returns
// the dimensions in spec order.
func (f *Factory) Build(ctx context.Context, specs []Spec, subscription string, permissions []string) (*domain.DimensionCollection, error) {
	schema, err := f.schemas.GetSchema(ctx, subscription)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	out := domain.NewDimensionCollection()
	for i, spec := range specs {
		if spec.Target == "" {
			return nil, &domain.InvalidSpecError{Index: i, Reason: "target is required"}
		}

		obj, ok := schema.FindObjectByTarget(spec.Target, permissions)
		if !ok {
			return nil, &domain.UnknownTargetError{Target: spec.Target}
		}

		dim := domain.NewDimension(spec.Target, obj.Cardinality, obj.Label, nil)
		if threshold, ok := intValue(spec.Threshold); ok {
			dim.Threshold = &threshold
			dim.ClampThreshold()
			if *dim.Threshold != threshold {
				f.logger.WithFields(logrus.Fields{
					"target":      spec.Target,
					"threshold":   threshold,
					"cardinality": *dim.Cardinality,
				}).Debug("threshold clamped to cardinality")
			}
		}
		out.Add(dim)
	}

	return out, nil
}

// intValue extracts an integer from the loosely typed threshold of a spec.
// Floats count only when integral, as JSON decoding produces them. Values
// beyond the int range saturate so that clamping still lowers them.
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return intFromInt64(n), true
	case uint:
		return intFromUint64(uint64(n)), true
	case uint32:
		return intFromUint64(uint64(n)), true
	case uint64:
		return intFromUint64(n), true
	case float64:
		return intFromFloat(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return intFromInt64(i), true
		}
		if f, err := n.Float64(); err == nil {
			return intFromFloat(f)
		}
	}
	return 0, false
}

func intFromInt64(n int64) int {
	switch {
	case n > math.MaxInt:
		return math.MaxInt
	case n < math.MinInt:
		return math.MinInt
	}
	return int(n)
}

func intFromUint64(n uint64) int {
	if n > math.MaxInt {
		return math.MaxInt
	}
	return int(n)
}

func intFromFloat(f float64) (int, bool) {
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	switch {
	case f >= math.MaxInt:
		return math.MaxInt, true
	case f <= math.MinInt:
		return math.MinInt, true
	}
	return int(f), true
}
