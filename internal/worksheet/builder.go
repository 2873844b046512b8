package worksheet

import (
	"context"
	"fmt"

	"github.com/emiliopalmerini/mpylon/internal/dimensions"
	"github.com/emiliopalmerini/mpylon/internal/domain"
)

// Builder resolves worksheet dimensions and assembles analyses.
type Builder struct {
	factory *dimensions.Factory
}

func NewBuilder(factory *dimensions.Factory) *Builder {
	return &Builder{factory: factory}
}

// BuildGroup builds one titled collection per worksheet of the workbook.
func (b *Builder) BuildGroup(ctx context.Context, wb *Workbook) (*domain.AnalysisGroup, error) {
	group := domain.NewAnalysisGroup(wb.Title)
	rec := wb.Recording()
	for _, ws := range wb.Worksheets {
		coll, err := b.BuildCollection(ctx, ws, rec, wb.Subscription, wb.Permissions)
		if err != nil {
			return nil, fmt.Errorf("worksheet %q: %w", ws.Name, err)
		}
		group.Add(coll)
	}
	return group, nil
}

// BuildCollection builds the analyses of a single worksheet.
func (b *Builder) BuildCollection(ctx context.Context, ws Worksheet, rec domain.RecordingRef, subscription string, permissions []string) (*domain.AnalysisCollection, error) {
	dims, err := b.factory.Build(ctx, ws.Dimensions, subscription, permissions)
	if err != nil {
		return nil, err
	}
	if dims.Len() == 0 && ws.Type == domain.FrequencyDistributionType {
		return nil, &domain.InvalidSpecError{Index: 0, Reason: "a frequency distribution needs at least one dimension"}
	}

	coll := domain.NewAnalysisCollection(ws.Name)

	if ws.Mode == ModeCompare && dims.Len() > 0 {
		for _, d := range dims.Dimensions(domain.SortNatural) {
			root, err := b.root(ws, []*domain.Dimension{d})
			if err != nil {
				return nil, err
			}
			attach(root, ws, rec)
			coll.Add(root)
		}
		return coll, nil
	}

	if dims.Len() > MaxNestedDimensions {
		return nil, &domain.InvalidSpecError{
			Index:  MaxNestedDimensions,
			Reason: fmt.Sprintf("at most %d dimensions can be nested, got %d", MaxNestedDimensions, dims.Len()),
		}
	}
	order := dims.Dimensions(domain.SortNatural)
	if dims.Len() == MaxNestedDimensions {
		order = dims.Dimensions(domain.SortLastFirst)
	}

	root, err := b.root(ws, order)
	if err != nil {
		return nil, err
	}
	attach(root, ws, rec)
	coll.Add(root)
	return coll, nil
}

// root builds the analysis chain for dims, under a time series when the
// worksheet asks for one.
func (b *Builder) root(ws Worksheet, dims []*domain.Dimension) (domain.Analysis, error) {
	chain, err := chainOf(dims)
	if err != nil {
		return nil, err
	}
	if ws.Type != domain.TimeSeriesType {
		return chain, nil
	}

	ts, err := domain.NewTimeSeries(TimeSeriesTarget, ws.Interval, ws.Span, nil)
	if err != nil {
		return nil, err
	}
	if chain != nil {
		ts.SetChild(chain)
	}
	return ts, nil
}

// chainOf nests a frequency distribution per dimension, first dimension outermost.
func chainOf(dims []*domain.Dimension) (domain.Analysis, error) {
	var head domain.Analysis
	for i := len(dims) - 1; i >= 0; i-- {
		fd, err := domain.NewFrequencyDistribution(dims[i].Target(), dims[i].Threshold, nil)
		if err != nil {
			return nil, err
		}
		if head != nil {
			fd.SetChild(head)
		}
		head = fd
	}
	return head, nil
}

func attach(a domain.Analysis, ws Worksheet, rec domain.RecordingRef) {
	base := a.Base()
	base.Recording = rec
	base.Filter = ws.Filter
	base.SetRange(ws.Start, ws.End)
}
