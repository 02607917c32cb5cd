package grid

import (
	"fmt"

	"github.com/zyedidia/generic/mapset"
	"github.com/zyedidia/generic/queue"
)

// floodSteps is the neighbor order of the flood fill: left, right, up, down
var floodSteps = [4]Point{{X: -1}, {X: 1}, {Y: -1}, {Y: 1}}

// Flood replaces the 4-connected region around (X,Y) that shares the seed
// cell's value with Index. The region never leaves the layer's boundaries.
// It returns the cells that were filled, in discovery order.
func (g *Grid) Flood(p TileParams) ([]Point, error) {
	tl, err := g.tileLayer(p.Layer)
	if err != nil {
		return nil, fmt.Errorf("flood: %w", err)
	}
	if p.Index == nil {
		return nil, fmt.Errorf("flood: fill index: %w", ErrMissingParameter)
	}
	if err := g.checkBounds(p.X, p.Y); err != nil {
		return nil, fmt.Errorf("flood: %w", err)
	}

	seed := Point{X: p.X, Y: p.Y}
	region := tl.region(seed)
	for _, cell := range region {
		tl.write(cell, *p.Index)
	}

	if len(region) > 0 {
		g.emit(Event{Type: EventRegionFilled, Layer: p.Layer, Point: seed, Index: *p.Index, Cells: len(region)})
	}
	return region, nil
}

// Region returns the 4-connected region around (x,y) that shares the seed
// cell's value, without changing the layer.
func (g *Grid) Region(x, y, layer int) ([]Point, error) {
	tl, err := g.tileLayer(layer)
	if err != nil {
		return nil, fmt.Errorf("region: %w", err)
	}
	if err := g.checkBounds(x, y); err != nil {
		return nil, fmt.Errorf("region: %w", err)
	}
	return tl.region(Point{X: x, Y: y}), nil
}

// region discovers the whole region before anything is written, so the
// frontier test always compares against the original values.
func (l *TileLayer) region(seed Point) []Point {
	if !l.boundaries.Contains(seed.X, seed.Y) {
		return nil
	}

	target := l.at(seed)
	visited := mapset.New[Point]()
	work := queue.New[Point]()

	visited.Put(seed)
	work.Enqueue(seed)
	region := []Point{seed}

	for !work.Empty() {
		cur := work.Dequeue()
		for _, step := range floodSteps {
			next := Point{X: cur.X + step.X, Y: cur.Y + step.Y}
			if !l.boundaries.Contains(next.X, next.Y) || visited.Has(next) || l.at(next) != target {
				continue
			}
			visited.Put(next)
			work.Enqueue(next)
			region = append(region, next)
		}
	}

	return region
}
