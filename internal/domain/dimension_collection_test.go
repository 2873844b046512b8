package domain

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func dim(target string, cardinality *int) *Dimension {
	return NewDimension(target, cardinality, nil, nil)
}

func targets(dims []*Dimension) []string {
	out := make([]string, len(dims))
	for i, d := range dims {
		out[i] = d.Target()
	}
	return out
}

func sampleCollection() *DimensionCollection {
	return NewDimensionCollection(
		dim("fb.author.gender", intPtr(3)),
		dim("fb.author.age", intPtr(7)),
		dim("fb.topics.name", nil),
		dim("fb.author.region", intPtr(0)),
		dim("fb.type", intPtr(3)),
	)
}

func TestDimensionCollection_Dimensions(t *testing.T) {
	tests := []struct {
		mode SortMode
		want []string
	}{
		{SortNatural, []string{"fb.author.gender", "fb.author.age", "fb.topics.name", "fb.author.region", "fb.type"}},
		{SortCardinalityAsc, []string{"fb.author.gender", "fb.type", "fb.author.age", "fb.topics.name", "fb.author.region"}},
		{SortCardinalityDesc, []string{"fb.topics.name", "fb.author.region", "fb.author.age", "fb.author.gender", "fb.type"}},
		{SortTargetAsc, []string{"fb.author.age", "fb.author.gender", "fb.author.region", "fb.topics.name", "fb.type"}},
		{SortTargetDesc, []string{"fb.type", "fb.topics.name", "fb.author.region", "fb.author.gender", "fb.author.age"}},
		{SortLastFirst, []string{"fb.type", "fb.author.gender", "fb.author.age", "fb.topics.name", "fb.author.region"}},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			c := sampleCollection()
			assert.Equal(t, tt.want, targets(c.Dimensions(tt.mode)))
			// the view never reorders the collection
			assert.Equal(t, targets(c.Dimensions(SortNatural)), c.Targets())
		})
	}
}

func TestDimensionCollection_OrderingIsNeverLossy(t *testing.T) {
	c := sampleCollection()
	c.Add(dim("fb.type", intPtr(3)))

	natural := targets(c.Dimensions(SortNatural))
	slices.Sort(natural)

	for _, mode := range []SortMode{SortCardinalityAsc, SortCardinalityDesc, SortTargetAsc, SortTargetDesc, SortLastFirst} {
		got := targets(c.Dimensions(mode))
		slices.Sort(got)
		assert.Equal(t, natural, got, mode.String())
	}
}

func TestDimensionCollection_LastFirstSmallCollections(t *testing.T) {
	assert.Empty(t, NewDimensionCollection().Dimensions(SortLastFirst))
	assert.Equal(t, []string{"a"}, targets(NewDimensionCollection(dim("a", nil)).Dimensions(SortLastFirst)))
	three := NewDimensionCollection(dim("a", nil), dim("b", nil), dim("c", nil))
	assert.Equal(t, []string{"c", "a", "b"}, targets(three.Dimensions(SortLastFirst)))
}

func TestDimensionCollection_SubsetAlgebra(t *testing.T) {
	all := NewDimensionCollection(dim("a", nil), dim("b", nil), dim("c", nil))
	ab := NewDimensionCollection(dim("b", nil), dim("a", nil))
	ad := NewDimensionCollection(dim("a", nil), dim("d", nil))
	upper := NewDimensionCollection(dim("A", nil))

	assert.True(t, ab.IsSubset(all))
	assert.False(t, all.IsSubset(ab))
	assert.True(t, all.IsSuperset(ab))
	assert.False(t, ad.IsSubset(all))
	assert.False(t, upper.IsSubset(all), "targets compare case-sensitively")

	assert.True(t, all.IsSubset(all))
	assert.True(t, all.IsSame(NewDimensionCollection(dim("c", nil), dim("a", nil), dim("b", nil))))
	assert.False(t, all.IsSame(ab))
}

func TestDimensionCollection_IsSameIgnoresRepeatedTargets(t *testing.T) {
	xy := NewDimensionCollection(dim("x", nil), dim("y", nil))
	xxy := NewDimensionCollection(dim("x", nil), dim("x", nil), dim("y", nil))

	assert.True(t, xy.IsSame(xxy))
	assert.True(t, xxy.IsSame(xy))
	assert.False(t, xxy.IsSubset(xy), "subset still requires the smaller size")
}

func TestDimensionCollection_NilCountsAsEmpty(t *testing.T) {
	var none *DimensionCollection
	empty := NewDimensionCollection()
	ab := NewDimensionCollection(dim("a", nil), dim("b", nil))

	assert.False(t, ab.IsSubset(none))
	assert.True(t, none.IsSubset(ab))
	assert.True(t, ab.IsSuperset(none))
	assert.False(t, ab.IsSame(none))
	assert.True(t, empty.IsSame(none))
	assert.Empty(t, none.Targets())

	_, err := ab.OrderedSubset(none)
	assert.ErrorIs(t, err, ErrIncompatibleDimensions)

	got, err := empty.OrderedSubset(none)
	require.NoError(t, err)
	assert.Zero(t, got.Len())
}

func TestDimensionCollection_OrderedSubset(t *testing.T) {
	all := NewDimensionCollection(dim("a", nil), dim("b", nil), dim("c", nil))
	cb := NewDimensionCollection(dim("c", nil), dim("b", nil))

	got, err := cb.OrderedSubset(all)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, got.Targets())

	self, err := all.OrderedSubset(all)
	require.NoError(t, err)
	assert.True(t, self.IsSame(all))

	_, err = all.OrderedSubset(cb)
	assert.ErrorIs(t, err, ErrIncompatibleDimensions)
}

func TestDimensionCollection_RemoveElement(t *testing.T) {
	c := NewDimensionCollection(dim("a", nil), dim("b", nil), dim("c", nil))

	assert.False(t, c.RemoveElement(-1))
	assert.False(t, c.RemoveElement(3))
	assert.True(t, c.RemoveElement(1))
	assert.Equal(t, []string{"a", "c"}, c.Targets())
	assert.Nil(t, c.Get(2))
	assert.Equal(t, "c", c.Get(1).Target())
}

func TestDimension_ClampThreshold(t *testing.T) {
	tests := []struct {
		name        string
		cardinality *int
		threshold   *int
		want        *int
	}{
		{"above cardinality is clamped", intPtr(10), intPtr(50), intPtr(10)},
		{"below cardinality is kept", intPtr(10), intPtr(4), intPtr(4)},
		{"unknown cardinality is kept", nil, intPtr(50), intPtr(50)},
		{"no threshold", intPtr(10), nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDimension("t", tt.cardinality, nil, tt.threshold)
			d.ClampThreshold()
			assert.Equal(t, tt.want, d.Threshold)
		})
	}
}

func TestDimension_DisplayLabel(t *testing.T) {
	label := "Gender"
	assert.Equal(t, "Gender", NewDimension("fb.author.gender", nil, &label, nil).DisplayLabel())
	assert.Equal(t, "fb.author.gender", NewDimension("fb.author.gender", nil, nil, nil).DisplayLabel())
}
