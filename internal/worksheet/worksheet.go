// Package worksheet turns worksheet definitions into analysis batches.
package worksheet

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/emiliopalmerini/mpylon/internal/dimensions"
	"github.com/emiliopalmerini/mpylon/internal/domain"
)

// Mode selects how the dimensions of a worksheet become analyses.
type Mode string

const (
	// ModeNested chains the dimensions into a single analysis.
	ModeNested Mode = "nested"
	// ModeCompare builds one independent analysis per dimension.
	ModeCompare Mode = "compare"
)

// MaxNestedDimensions is the deepest chain a nested worksheet may build.
const MaxNestedDimensions = 3

// DefaultInterval is used by time series worksheets that name none.
const DefaultInterval = "day"

// TimeSeriesTarget is the target of every time series root.
const TimeSeriesTarget = "time"

// Worksheet describes one chart of a workbook.
type Worksheet struct {
	Name       string              `yaml:"name"`
	Type       domain.AnalysisType `yaml:"type"`
	Mode       Mode                `yaml:"mode"`
	Dimensions []dimensions.Spec   `yaml:"dimensions"`
	Start      *int64              `yaml:"start"`
	End        *int64              `yaml:"end"`
	Filter     string              `yaml:"filter"`
	Interval   string              `yaml:"interval"`
	Span       *int                `yaml:"span"`
}

// Workbook is a titled set of worksheets sharing a recording.
type Workbook struct {
	Title        string      `yaml:"title"`
	Subscription string      `yaml:"subscription"`
	Hash         string      `yaml:"hash"`
	Permissions  []string    `yaml:"permissions"`
	Worksheets   []Worksheet `yaml:"worksheets"`
}

// Recording returns the recording every worksheet runs against.
func (w *Workbook) Recording() domain.Recording {
	return domain.Recording{ID: w.Subscription, Name: w.Title, Hash: w.Hash}
}

// Load decodes a workbook from YAML.
func Load(r io.Reader) (*Workbook, error) {
	var wb Workbook
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&wb); err != nil {
		return nil, fmt.Errorf("decoding workbook: %w", err)
	}
	if err := wb.validate(); err != nil {
		return nil, err
	}
	return &wb, nil
}

// LoadFile decodes the workbook stored at path.
func LoadFile(path string) (*Workbook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func (w *Workbook) validate() error {
	if w.Hash == "" {
		return fmt.Errorf("workbook %q: hash is required", w.Title)
	}
	if len(w.Worksheets) == 0 {
		return fmt.Errorf("workbook %q: no worksheets", w.Title)
	}
	for i := range w.Worksheets {
		ws := &w.Worksheets[i]
		if ws.Type == "" {
			ws.Type = domain.FrequencyDistributionType
		}
		if ws.Mode == "" {
			ws.Mode = ModeNested
		}
		if ws.Type == domain.TimeSeriesType && ws.Interval == "" {
			ws.Interval = DefaultInterval
		}
		switch ws.Type {
		case domain.FrequencyDistributionType, domain.TimeSeriesType:
		default:
			return fmt.Errorf("worksheet %q: unknown type %q", ws.Name, ws.Type)
		}
		switch ws.Mode {
		case ModeNested, ModeCompare:
		default:
			return fmt.Errorf("worksheet %q: unknown mode %q", ws.Name, ws.Mode)
		}
	}
	return nil
}
