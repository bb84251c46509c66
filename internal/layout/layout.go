// Package layout derives the valid seat codes of an airplane from its
// row/column grid.  Everything here is pure: the same type always yields
// the same seats, in row-major order.
package layout

import "github.com/iliyamo/airplane-seat-reservation/internal/model"

// Layout describes the seat grid of one airplane type.
type Layout struct {
	Type    model.AirplaneType `json:"type"`
	Rows    int                `json:"rows"`
	Columns []string           `json:"columns"`
	Seats   []string           `json:"seats"`
}

// Seats returns every seat code of t in row-major order ("1A", "1B", ...).
// Unknown types have no seats.
func Seats(t model.AirplaneType) []string {
	rows, cols := t.Rows(), t.Columns()
	out := make([]string, 0, rows*cols)
	for r := 1; r <= rows; r++ {
		for c := 0; c < cols; c++ {
			out = append(out, model.SeatCode(r, byte('A'+c)))
		}
	}
	return out
}

// GenerateSeatRange returns the valid seat set for t.
func GenerateSeatRange(t model.AirplaneType) model.SeatSet {
	return model.NewSeatSet(Seats(t)...)
}

// SeatCount returns the total number of seats of t.
func SeatCount(t model.AirplaneType) int {
	return t.Rows() * t.Columns()
}

// Contains reports whether code is a seat of t.  It checks the grid bounds
// directly instead of materialising the range.
func Contains(t model.AirplaneType, code string) bool {
	row, col, ok := model.SplitSeat(code)
	if !ok || !t.Valid() {
		return false
	}
	return row <= t.Rows() && int(col-'A') < t.Columns()
}

// Invalid returns the codes that are not seats of t, in input order.
func Invalid(t model.AirplaneType, codes []string) []string {
	var bad []string
	for _, c := range codes {
		if !Contains(t, c) {
			bad = append(bad, c)
		}
	}
	return bad
}

// Describe returns the full grid of t for display.
func Describe(t model.AirplaneType) Layout {
	cols := make([]string, t.Columns())
	for i := range cols {
		cols[i] = string(rune('A' + i))
	}
	return Layout{Type: t, Rows: t.Rows(), Columns: cols, Seats: Seats(t)}
}
