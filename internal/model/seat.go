package model

import (
	"sort"
	"strconv"
)

// SeatSet is an unordered set of seat codes such as "12C".
type SeatSet map[string]struct{}

// NewSeatSet builds a set from the given codes; duplicates collapse.
func NewSeatSet(codes ...string) SeatSet {
	s := make(SeatSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Has reports whether code is a member of s.
func (s SeatSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Clone returns an independent copy of s.
func (s SeatSet) Clone() SeatSet {
	out := make(SeatSet, len(s))
	for c := range s {
		out[c] = struct{}{}
	}
	return out
}

// Union returns s ∪ o without modifying either operand.
func (s SeatSet) Union(o SeatSet) SeatSet {
	out := s.Clone()
	for c := range o {
		out[c] = struct{}{}
	}
	return out
}

// Minus returns s \ o.
func (s SeatSet) Minus(o SeatSet) SeatSet {
	out := make(SeatSet, len(s))
	for c := range s {
		if !o.Has(c) {
			out[c] = struct{}{}
		}
	}
	return out
}

// Intersect returns s ∩ o.
func (s SeatSet) Intersect(o SeatSet) SeatSet {
	small, large := s, o
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(SeatSet)
	for c := range small {
		if large.Has(c) {
			out[c] = struct{}{}
		}
	}
	return out
}

// Equal reports whether both sets hold exactly the same codes.
func (s SeatSet) Equal(o SeatSet) bool {
	if len(s) != len(o) {
		return false
	}
	for c := range s {
		if !o.Has(c) {
			return false
		}
	}
	return true
}

// Sorted returns the members in row-major order (1A, 1B, ..., 2A, ...).
func (s SeatSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	SortSeats(out)
	return out
}

// SortSeats orders seat codes by row number, then column letter.  Codes
// that do not parse sort after valid ones, lexically.
func SortSeats(codes []string) {
	sort.Slice(codes, func(i, j int) bool { return LessSeat(codes[i], codes[j]) })
}

// LessSeat reports whether seat a sorts before seat b in row-major order.
func LessSeat(a, b string) bool {
	ra, ca, okA := SplitSeat(a)
	rb, cb, okB := SplitSeat(b)
	switch {
	case okA && okB:
		if ra != rb {
			return ra < rb
		}
		return ca < cb
	case okA:
		return true
	case okB:
		return false
	}
	return a < b
}

// SplitSeat breaks a seat code into its row number and column letter.
func SplitSeat(code string) (row int, column byte, ok bool) {
	if len(code) < 2 {
		return 0, 0, false
	}
	column = code[len(code)-1]
	if column < 'A' || column > 'Z' {
		return 0, 0, false
	}
	digits := code[:len(code)-1]
	if digits[0] == '0' {
		return 0, 0, false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return 0, 0, false
	}
	return n, column, true
}

// SeatCode formats a row number and column letter.
func SeatCode(row int, column byte) string {
	return strconv.Itoa(row) + string(column)
}
