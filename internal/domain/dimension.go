package domain

// Dimension is a single analyzable attribute resolved against a schema.
// Cardinality, Label and Threshold are nil when unknown.
type Dimension struct {
	target      string
	Cardinality *int
	Label       *string
	Threshold   *int
}

// NewDimension creates a dimension for target.
func NewDimension(target string, cardinality *int, label *string, threshold *int) *Dimension {
	return &Dimension{
		target:      target,
		Cardinality: cardinality,
		Label:       label,
		Threshold:   threshold,
	}
}

// Target returns the schema target the dimension refers to.
func (d *Dimension) Target() string {
	return d.target
}

// DisplayLabel returns the label, falling back to the target.
func (d *Dimension) DisplayLabel() string {
	if d.Label != nil && *d.Label != "" {
		return *d.Label
	}
	return d.target
}

// ClampThreshold lowers the threshold to the cardinality when it exceeds it.
// It never raises the threshold.
func (d *Dimension) ClampThreshold() {
	if d.Threshold == nil || d.Cardinality == nil {
		return
	}
	if *d.Threshold > *d.Cardinality {
		v := *d.Cardinality
		d.Threshold = &v
	}
}
