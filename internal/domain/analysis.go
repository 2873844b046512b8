package domain

import (
	"fmt"
	"slices"
)

// AnalysisType discriminates the concrete kind of an Analysis node.
type AnalysisType string

const (
	FrequencyDistributionType AnalysisType = "freqDist"
	TimeSeriesType            AnalysisType = "timeSeries"
)

// Intervals accepted by a TimeSeries.
var Intervals = []string{"minute", "hour", "day", "week", "month"}

// RecordingRef is the remote data source an analysis runs against.
type RecordingRef interface {
	RemoteRecordingID() string
}

// Recording is a subscription recording identified remotely by its hash.
type Recording struct {
	ID   string
	Name string
	Hash string
}

func (r Recording) RemoteRecordingID() string {
	return r.Hash
}

// Analysis is one node of an analysis chain. Every node is either a
// *FrequencyDistribution or a *TimeSeries, as reported by Type.
type Analysis interface {
	Type() AnalysisType
	Base() *AnalysisBase
}

// AnalysisBase holds the fields shared by every analysis kind.
// Recording may be nil when the analysis is only used as a child.
type AnalysisBase struct {
	Target    string
	Start     *int64
	End       *int64
	Filter    string
	Recording RecordingRef
	Child     Analysis
	Results   any
}

func (b *AnalysisBase) Base() *AnalysisBase {
	return b
}

// SetChild nests child one level below this analysis.
func (b *AnalysisBase) SetChild(child Analysis) {
	b.Child = child
}

// SetRange sets the analysis time range as unix seconds.
func (b *AnalysisBase) SetRange(start, end *int64) {
	b.Start = start
	b.End = end
}

// FrequencyDistribution counts interactions per value of a target.
type FrequencyDistribution struct {
	AnalysisBase
	Threshold *int
}

// NewFrequencyDistribution creates a frequency distribution over target.
func NewFrequencyDistribution(target string, threshold *int, recording RecordingRef) (*FrequencyDistribution, error) {
	if target == "" {
		return nil, fmt.Errorf("%w: frequency distribution requires a target", ErrInvalidParameters)
	}
	return &FrequencyDistribution{
		AnalysisBase: AnalysisBase{Target: target, Recording: recording},
		Threshold:    threshold,
	}, nil
}

func (f *FrequencyDistribution) Type() AnalysisType {
	return FrequencyDistributionType
}

// TimeSeries buckets interactions over time.
type TimeSeries struct {
	AnalysisBase
	Interval string
	Span     *int
}

// NewTimeSeries creates a time series bucketed by interval.
func NewTimeSeries(target, interval string, span *int, recording RecordingRef) (*TimeSeries, error) {
	if target == "" {
		return nil, fmt.Errorf("%w: time series requires a target", ErrInvalidParameters)
	}
	if !slices.Contains(Intervals, interval) {
		return nil, fmt.Errorf("%w: unsupported interval %q", ErrInvalidParameters, interval)
	}
	if span != nil && *span < 1 {
		return nil, fmt.Errorf("%w: span must be positive, got %d", ErrInvalidParameters, *span)
	}
	return &TimeSeries{
		AnalysisBase: AnalysisBase{Target: target, Recording: recording},
		Interval:     interval,
		Span:         span,
	}, nil
}

func (t *TimeSeries) Type() AnalysisType {
	return TimeSeriesType
}

// Depth returns the number of nodes in the chain starting at a.
func Depth(a Analysis) int {
	n := 0
	for a != nil {
		n++
		a = a.Base().Child
	}
	return n
}
