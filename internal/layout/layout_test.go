package layout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/airplane-seat-reservation/internal/layout"
	"github.com/iliyamo/airplane-seat-reservation/internal/model"
)

func TestSeatCount(t *testing.T) {
	assert.Equal(t, 60, layout.SeatCount(model.Local))
	assert.Equal(t, 100, layout.SeatCount(model.Regional))
	assert.Equal(t, 150, layout.SeatCount(model.International))
	assert.Equal(t, 0, layout.SeatCount(model.AirplaneType(9)))
}

func TestGenerateSeatRange(t *testing.T) {
	for _, typ := range model.AirplaneTypes {
		seats := layout.Seats(typ)
		set := layout.GenerateSeatRange(typ)
		require.Len(t, seats, layout.SeatCount(typ), typ.String())
		assert.Len(t, set, layout.SeatCount(typ), "no duplicate codes for %s", typ)
		for _, s := range seats {
			assert.True(t, layout.Contains(typ, s), "%s should contain %s", typ, s)
		}
	}

	local := layout.Seats(model.Local)
	assert.Equal(t, []string{"1A", "1B", "1C", "1D", "2A"}, local[:5])
	assert.Equal(t, "15D", local[len(local)-1])
	assert.Equal(t, "25F", layout.Seats(model.International)[149])
}

func TestSeatsIsStable(t *testing.T) {
	assert.Equal(t, layout.Seats(model.Regional), layout.Seats(model.Regional))
	assert.Equal(t, layout.Seats(model.Regional), layout.GenerateSeatRange(model.Regional).Sorted())
}

func TestContains(t *testing.T) {
	for _, tc := range []struct {
		typ  model.AirplaneType
		code string
		want bool
	}{
		{model.Local, "1A", true},
		{model.Local, "15D", true},
		{model.Local, "16A", false},
		{model.Local, "1E", false},
		{model.Regional, "1E", true},
		{model.Regional, "1F", false},
		{model.International, "25F", true},
		{model.Local, "0A", false},
		{model.Local, "01A", false},
		{model.Local, "1a", false},
		{model.Local, "A1", false},
		{model.Local, "", false},
		{model.Local, "+1A", false},
		{model.AirplaneType(0), "1A", false},
	} {
		assert.Equal(t, tc.want, layout.Contains(tc.typ, tc.code), "%s %q", tc.typ, tc.code)
	}
}

func TestInvalid(t *testing.T) {
	assert.Equal(t, []string{"16A"}, layout.Invalid(model.Local, []string{"1A", "16A", "2B"}))
	assert.Nil(t, layout.Invalid(model.Local, []string{"1A", "2B"}))
}

func TestDescribe(t *testing.T) {
	l := layout.Describe(model.Regional)
	assert.Equal(t, model.Regional, l.Type)
	assert.Equal(t, 20, l.Rows)
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, l.Columns)
	assert.Len(t, l.Seats, 100)
}
