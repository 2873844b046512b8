package domain

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
)

// SortMode selects an ordering view over a DimensionCollection.
type SortMode int

const (
	// SortNatural keeps insertion order.
	SortNatural SortMode = iota
	// SortCardinalityAsc orders by cardinality, unknown or zero last.
	SortCardinalityAsc
	// SortCardinalityDesc orders by cardinality, unknown or zero first.
	SortCardinalityDesc
	// SortTargetAsc orders by target name.
	SortTargetAsc
	// SortTargetDesc orders by target name, reversed.
	SortTargetDesc
	// SortLastFirst keeps insertion order with the final dimension moved to the front.
	SortLastFirst
)

func (m SortMode) String() string {
	switch m {
	case SortNatural:
		return "natural"
	case SortCardinalityAsc:
		return "cardinality_asc"
	case SortCardinalityDesc:
		return "cardinality_desc"
	case SortTargetAsc:
		return "target_asc"
	case SortTargetDesc:
		return "target_desc"
	case SortLastFirst:
		return "last_first"
	default:
		return fmt.Sprintf("SortMode(%d)", int(m))
	}
}

// DimensionCollection is an ordered list of dimensions. Duplicate targets
// are allowed; callers own semantic uniqueness.
type DimensionCollection struct {
	dimensions []*Dimension
}

// NewDimensionCollection creates a collection holding dims in order.
func NewDimensionCollection(dims ...*Dimension) *DimensionCollection {
	c := &DimensionCollection{}
	for _, d := range dims {
		c.Add(d)
	}
	return c
}

// Add appends a dimension.
func (c *DimensionCollection) Add(d *Dimension) {
	c.dimensions = append(c.dimensions, d)
}

// Len returns the number of dimensions.
func (c *DimensionCollection) Len() int {
	return len(c.list())
}

// list returns the backing dimensions. A nil collection is empty.
func (c *DimensionCollection) list() []*Dimension {
	if c == nil {
		return nil
	}
	return c.dimensions
}

// Get returns the dimension at index i, or nil when out of range.
func (c *DimensionCollection) Get(i int) *Dimension {
	if i < 0 || i >= len(c.dimensions) {
		return nil
	}
	return c.dimensions[i]
}

// RemoveElement removes the dimension at index i. It reports false for an
// out-of-range index.
func (c *DimensionCollection) RemoveElement(i int) bool {
	if i < 0 || i >= len(c.dimensions) {
		return false
	}
	c.dimensions = slices.Delete(c.dimensions, i, i+1)
	return true
}

// Targets returns the target names in natural order.
func (c *DimensionCollection) Targets() []string {
	out := make([]string, c.Len())
	for i, d := range c.list() {
		out[i] = d.Target()
	}
	return out
}

// Dimensions returns a new slice ordered by mode. The collection itself is
// never reordered, and dimensions that compare equal keep their relative order.
func (c *DimensionCollection) Dimensions(mode SortMode) []*Dimension {
	out := slices.Clone(c.dimensions)

	switch mode {
	case SortCardinalityAsc:
		slices.SortStableFunc(out, func(a, b *Dimension) int {
			return cmp.Compare(cardinalityKey(a), cardinalityKey(b))
		})
	case SortCardinalityDesc:
		slices.SortStableFunc(out, func(a, b *Dimension) int {
			return cmp.Compare(cardinalityKey(b), cardinalityKey(a))
		})
	case SortTargetAsc:
		slices.SortStableFunc(out, func(a, b *Dimension) int {
			return strings.Compare(a.Target(), b.Target())
		})
	case SortTargetDesc:
		slices.SortStableFunc(out, func(a, b *Dimension) int {
			return strings.Compare(b.Target(), a.Target())
		})
	case SortLastFirst:
		if len(out) > 1 {
			last := out[len(out)-1]
			copy(out[1:], out[:len(out)-1])
			out[0] = last
		}
	}

	return out
}

// cardinalityKey treats unknown and zero cardinality as unbounded.
func cardinalityKey(d *Dimension) int {
	if d.Cardinality == nil || *d.Cardinality == 0 {
		return math.MaxInt
	}
	return *d.Cardinality
}

func (c *DimensionCollection) targetSet() map[string]struct{} {
	set := make(map[string]struct{}, c.Len())
	for _, d := range c.list() {
		set[d.Target()] = struct{}{}
	}
	return set
}

// IsSubset reports whether every target in c appears in other and c is
// not larger than other. Targets are compared by exact name. A nil
// collection counts as empty.
func (c *DimensionCollection) IsSubset(other *DimensionCollection) bool {
	if c.Len() > other.Len() {
		return false
	}
	set := other.targetSet()
	for _, d := range c.list() {
		if _, ok := set[d.Target()]; !ok {
			return false
		}
	}
	return true
}

// IsSuperset reports whether other is a subset of c.
func (c *DimensionCollection) IsSuperset(other *DimensionCollection) bool {
	return other.IsSubset(c)
}

// IsSame reports whether both collections hold the same set of targets,
// ignoring order and repeated targets.
func (c *DimensionCollection) IsSame(other *DimensionCollection) bool {
	mine, theirs := c.targetSet(), other.targetSet()
	if len(mine) != len(theirs) {
		return false
	}
	for target := range mine {
		if _, ok := theirs[target]; !ok {
			return false
		}
	}
	return true
}

// OrderedSubset returns the dimensions of other whose targets appear in c,
// in other's order. c must be a subset of other.
func (c *DimensionCollection) OrderedSubset(other *DimensionCollection) (*DimensionCollection, error) {
	if !c.IsSubset(other) {
		return nil, fmt.Errorf("%w: [%s] is not a subset of [%s]",
			ErrIncompatibleDimensions,
			strings.Join(c.Targets(), ", "),
			strings.Join(other.Targets(), ", "))
	}

	set := c.targetSet()
	out := &DimensionCollection{}
	for _, d := range other.list() {
		if _, ok := set[d.Target()]; ok {
			out.Add(d)
		}
	}
	return out, nil
}
