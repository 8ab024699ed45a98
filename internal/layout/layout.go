// Package layout maps a vehicle seat class to the grid of seats a passenger
// can pick from.  Everything here is pure: the same class and capacity
// always give the same grid, independent of any reservation data.
package layout

import (
	"sort"
	"strconv"
	"strings"
)

// Canonical seat classes.
const (
	ClassAC2x2 = "AC_2X2" // 4-across, lettered first two rows
	ClassMini3 = "MINI_3" // 3-across single block
)

const (
	ac2x2DefaultRows = 9
	ac2x2Across      = 4
	ac2x2Lettered    = 2 // rows carrying letter/glyph labels
	mini3DefaultRows = 5
	mini3Across      = 3
)

var aliases = map[string]string{
	"AC_2X2": ClassAC2x2,
	"AC":     ClassAC2x2,
	"2X2":    ClassAC2x2,
	"MINI_3": ClassMini3,
	"MINI":   ClassMini3,
	"3X1":    ClassMini3,
}

// Labels of the two irregular front rows of an AC_2X2 coach: Latin letters
// on the left pair, Devanagari glyphs on the right pair.
var ac2x2FrontRows = [ac2x2Lettered][ac2x2Across]string{
	{"A", "B", "क", "ख"},
	{"C", "D", "ग", "घ"},
}

// Side tells the renderer which side of the aisle a seat sits on.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Cell is one pickable seat.  Row and Col are zero-based grid coordinates.
type Cell struct {
	Seat string `json:"seat"`
	Side Side   `json:"side"`
	Row  int    `json:"row"`
	Col  int    `json:"col"`
}

// Layout is an ordered grid; a nil cell is an aisle gap or an empty
// position.  An empty layout means booking is unavailable for the vehicle.
type Layout struct {
	Class string    `json:"class"`
	Rows  [][]*Cell `json:"rows"`
}

// Normalize maps a class name or alias to its canonical name.  The second
// result is false for unknown classes.
func Normalize(class string) (string, bool) {
	c, ok := aliases[strings.ToUpper(strings.TrimSpace(class))]
	return c, ok
}

// Classes lists the canonical classes in lexical order.
func Classes() []string {
	seen := map[string]bool{}
	out := []string{}
	for _, c := range aliases {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// Generate returns the seat grid for class.  capacity <= 0 selects the
// class default.  Unknown classes yield an empty layout, never an error.
func Generate(class string, capacity int) Layout {
	c, ok := Normalize(class)
	if !ok {
		return Layout{Class: strings.TrimSpace(class), Rows: [][]*Cell{}}
	}
	switch c {
	case ClassAC2x2:
		return generateAC2x2(capacity)
	case ClassMini3:
		return generateMini3(capacity)
	}
	return Layout{Class: c, Rows: [][]*Cell{}}
}

// generateAC2x2 lays out two seats, an aisle, then two seats per row.  The
// first two rows use letter/glyph labels; the rest are numbered from 1.
func generateAC2x2(capacity int) Layout {
	rows := ac2x2DefaultRows
	if capacity > 0 {
		rows = capacity / ac2x2Across
		if rows < ac2x2Lettered {
			rows = ac2x2Lettered
		}
	}
	grid := make([][]*Cell, 0, rows)
	next := 1
	for r := 0; r < rows; r++ {
		labels := [ac2x2Across]string{}
		if r < ac2x2Lettered {
			labels = ac2x2FrontRows[r]
		} else {
			for i := range labels {
				labels[i] = strconv.Itoa(next)
				next++
			}
		}
		grid = append(grid, []*Cell{
			{Seat: labels[0], Side: SideLeft, Row: r, Col: 0},
			{Seat: labels[1], Side: SideLeft, Row: r, Col: 1},
			nil, // aisle
			{Seat: labels[2], Side: SideRight, Row: r, Col: 3},
			{Seat: labels[3], Side: SideRight, Row: r, Col: 4},
		})
	}
	return Layout{Class: ClassAC2x2, Rows: grid}
}

// generateMini3 numbers seats 1..n across a single three-seat block.  A
// capacity that is not a multiple of three leaves the tail of the last row
// empty.
func generateMini3(capacity int) Layout {
	total := mini3DefaultRows * mini3Across
	if capacity > 0 {
		total = capacity
	}
	rows := (total + mini3Across - 1) / mini3Across
	grid := make([][]*Cell, 0, rows)
	n := 1
	for r := 0; r < rows; r++ {
		row := make([]*Cell, mini3Across)
		for col := 0; col < mini3Across; col++ {
			if n > total {
				continue
			}
			side := SideRight
			if col == 0 {
				side = SideLeft
			}
			row[col] = &Cell{Seat: strconv.Itoa(n), Side: side, Row: r, Col: col}
			n++
		}
		grid = append(grid, row)
	}
	return Layout{Class: ClassMini3, Rows: grid}
}

// Empty reports whether the layout has no pickable seats.
func (l Layout) Empty() bool { return l.Capacity() == 0 }

// Capacity counts the seats in the grid.
func (l Layout) Capacity() int {
	n := 0
	for _, row := range l.Rows {
		for _, c := range row {
			if c != nil {
				n++
			}
		}
	}
	return n
}

// Seats returns the seat identifiers in row-major order.
func (l Layout) Seats() []string {
	out := make([]string, 0, l.Capacity())
	for _, row := range l.Rows {
		for _, c := range row {
			if c != nil {
				out = append(out, c.Seat)
			}
		}
	}
	return out
}

// Contains reports whether seat is a pickable seat of the layout.
func (l Layout) Contains(seat string) bool {
	_, ok := l.Find(seat)
	return ok
}

// Find returns the cell for seat.
func (l Layout) Find(seat string) (Cell, bool) {
	for _, row := range l.Rows {
		for _, c := range row {
			if c != nil && c.Seat == seat {
				return *c, true
			}
		}
	}
	return Cell{}, false
}
