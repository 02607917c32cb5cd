package main

import (
	"github.com/zyedidia/generic/mapset"

	"github.com/wricardo/tilegrid/game/grid"
)

// Sweep hands out the cells of a rectangle in serpentine order: even rows
// left to right, odd rows right to left, so consecutive targets are adjacent.
type Sweep struct {
	order   []grid.Point
	visited mapset.Set[grid.Point]
	next    int
}

func NewSweep(bounds grid.Rect) *Sweep {
	s := &Sweep{visited: mapset.New[grid.Point]()}
	for y := bounds.MinY; y <= bounds.MaxY; y++ {
		if (y-bounds.MinY)%2 == 0 {
			for x := bounds.MinX; x <= bounds.MaxX; x++ {
				s.order = append(s.order, grid.Point{X: x, Y: y})
			}
		} else {
			for x := bounds.MaxX; x >= bounds.MinX; x-- {
				s.order = append(s.order, grid.Point{X: x, Y: y})
			}
		}
	}
	return s
}

// Visit marks p as done so Next skips it
func (s *Sweep) Visit(p grid.Point) {
	s.visited.Put(p)
}

// Next returns the first cell in sweep order that has not been visited
func (s *Sweep) Next() (grid.Point, bool) {
	for s.next < len(s.order) {
		p := s.order[s.next]
		if !s.visited.Has(p) {
			return p, true
		}
		s.next++
	}
	return grid.Point{}, false
}

// Len returns the number of cells in the sweep
func (s *Sweep) Len() int {
	return len(s.order)
}

// Reset forgets every visit
func (s *Sweep) Reset() {
	s.visited = mapset.New[grid.Point]()
	s.next = 0
}
