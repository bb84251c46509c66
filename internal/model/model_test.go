package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/airplane-seat-reservation/internal/model"
)

func TestParseAirplaneType(t *testing.T) {
	for in, want := range map[string]model.AirplaneType{
		"1":             model.Local,
		"2":             model.Regional,
		"3":             model.International,
		"local":         model.Local,
		" Regional ":    model.Regional,
		"INTERNATIONAL": model.International,
	} {
		got, err := model.ParseAirplaneType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "0", "4", "300", "jumbo"} {
		_, err := model.ParseAirplaneType(in)
		assert.Error(t, err, in)
	}
}

func TestAirplaneTypeGrid(t *testing.T) {
	assert.Equal(t, 15, model.Local.Rows())
	assert.Equal(t, 4, model.Local.Columns())
	assert.Equal(t, 25, model.International.Rows())
	assert.Equal(t, 6, model.International.Columns())
	assert.False(t, model.AirplaneType(7).Valid())
	assert.Equal(t, "airplane(7)", model.AirplaneType(7).String())
}

func TestSeatSetAlgebra(t *testing.T) {
	a := model.NewSeatSet("1A", "1B", "2C")
	b := model.NewSeatSet("1B", "3D")

	assert.Equal(t, []string{"1A", "1B", "2C", "3D"}, a.Union(b).Sorted())
	assert.Equal(t, []string{"1A", "2C"}, a.Minus(b).Sorted())
	assert.Equal(t, []string{"1B"}, a.Intersect(b).Sorted())
	assert.True(t, a.Equal(model.NewSeatSet("2C", "1A", "1B", "1A")))
	assert.False(t, a.Equal(b))

	// operands are never mutated
	assert.Len(t, a, 3)
	assert.Len(t, b, 2)
}

func TestSortSeats(t *testing.T) {
	codes := []string{"10A", "2B", "1C", "2A", "bogus", "1A"}
	model.SortSeats(codes)
	assert.Equal(t, []string{"1A", "1C", "2A", "2B", "10A", "bogus"}, codes)
}

func TestSplitSeat(t *testing.T) {
	row, col, ok := model.SplitSeat("12C")
	require.True(t, ok)
	assert.Equal(t, 12, row)
	assert.Equal(t, byte('C'), col)

	for _, bad := range []string{"", "A", "1", "0A", "01A", "1a", "-1A", "1AB"} {
		_, _, ok := model.SplitSeat(bad)
		assert.False(t, ok, bad)
	}
}
