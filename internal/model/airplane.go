package model

import (
	"fmt"
	"strconv"
	"strings"
)

// AirplaneType identifies one of the fixed airplane configurations.  The
// numeric values match the ids stored in the `airplanes` table and used in
// request paths (/api/planes/1 ...).
type AirplaneType uint8

const (
	Local         AirplaneType = 1 // 15 rows x 4 columns
	Regional      AirplaneType = 2 // 20 rows x 5 columns
	International AirplaneType = 3 // 25 rows x 6 columns
)

// AirplaneTypes lists every provisioned configuration in id order.
var AirplaneTypes = []AirplaneType{Local, Regional, International}

type grid struct {
	name    string
	rows    int
	columns int
}

var grids = map[AirplaneType]grid{
	Local:         {name: "local", rows: 15, columns: 4},
	Regional:      {name: "regional", rows: 20, columns: 5},
	International: {name: "international", rows: 25, columns: 6},
}

// Valid reports whether t is one of the known configurations.
func (t AirplaneType) Valid() bool {
	_, ok := grids[t]
	return ok
}

// Rows returns the number of seat rows, or 0 for an unknown type.
func (t AirplaneType) Rows() int { return grids[t].rows }

// Columns returns the number of seats per row, or 0 for an unknown type.
func (t AirplaneType) Columns() int { return grids[t].columns }

func (t AirplaneType) String() string {
	if g, ok := grids[t]; ok {
		return g.name
	}
	return "airplane(" + strconv.Itoa(int(t)) + ")"
}

// ParseAirplaneType accepts either the numeric id ("1") or the
// case-insensitive name ("local").
func ParseAirplaneType(s string) (AirplaneType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.ParseUint(s, 10, 8); err == nil {
		t := AirplaneType(n)
		if t.Valid() {
			return t, nil
		}
		return 0, fmt.Errorf("unknown airplane type %q", s)
	}
	for t, g := range grids {
		if g.name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown airplane type %q", s)
}

// Airplane mirrors a row of the `airplanes` table: the authoritative set of
// occupied seats for one configuration.  Version is bumped by every
// successful compare-and-swap.
type Airplane struct {
	Type     AirplaneType // airplanes.type
	Occupied SeatSet      // airplanes.seats (canonical JSON array)
	Version  uint64       // airplanes.version
}
