package grid

import (
	"fmt"

	"github.com/zyedidia/generic/heap"
	"github.com/zyedidia/generic/mapset"
)

// pathSteps is the fixed expansion order: up, left, right, down. It decides
// which of several equally short paths is returned.
var pathSteps = [4]Point{{Y: -1}, {X: -1}, {X: 1}, {Y: 1}}

type pathNode struct {
	Point
	g      int
	h      int
	seq    int
	parent *pathNode
}

// openEntry is a heap entry for a node. Entries whose g no longer matches
// the node are stale and skipped.
type openEntry struct {
	node *pathNode
	f    int
	g    int
	seq  int
}

func lessOpen(a, b openEntry) bool {
	if a.f != b.f {
		return a.f < b.f
	}
	return a.seq < b.seq
}

// FindPath returns the cells leading from (fromX,fromY) to (toX,toY) on a
// tile layer, excluding the start and including the destination. Cells whose
// value is in avoid are impassable. An unreachable destination yields an
// empty path, not an error.
func (g *Grid) FindPath(layer, fromX, fromY, toX, toY int, avoid []int) ([]Point, error) {
	tl, err := g.tileLayer(layer)
	if err != nil {
		return nil, fmt.Errorf("find path: %w", err)
	}
	if err := g.checkBounds(fromX, fromY); err != nil {
		return nil, fmt.Errorf("find path: origin: %w", err)
	}
	if err := g.checkBounds(toX, toY); err != nil {
		return nil, fmt.Errorf("find path: destination: %w", err)
	}
	return tl.findPath(Point{X: fromX, Y: fromY}, Point{X: toX, Y: toY}, avoid), nil
}

// findPath searches from the destination back to the origin so that the
// parent links of the origin node already run in walking order.
func (l *TileLayer) findPath(from, to Point, avoid []int) []Point {
	blocked := mapset.New[int]()
	for _, index := range avoid {
		blocked.Put(index)
	}
	if blocked.Has(l.at(to)) {
		return []Point{}
	}

	nodes := make(map[Point]*pathNode)
	closed := mapset.New[Point]()
	open := heap.New[openEntry](lessOpen)

	root := &pathNode{Point: to, h: manhattan(to, from)}
	nodes[to] = root
	open.Push(openEntry{node: root, f: root.h, seq: root.seq})
	seq := 0

	for open.Size() > 0 {
		entry, _ := open.Pop()
		node := entry.node
		if closed.Has(node.Point) || entry.g != node.g {
			continue
		}
		if node.Point == from {
			return node.trace()
		}
		closed.Put(node.Point)

		for _, step := range pathSteps {
			next := Point{X: node.X + step.X, Y: node.Y + step.Y}
			if !l.boundaries.Contains(next.X, next.Y) || closed.Has(next) || blocked.Has(l.at(next)) {
				continue
			}

			g := node.g + 1
			n, seen := nodes[next]
			if !seen {
				seq++
				n = &pathNode{Point: next, g: g, h: manhattan(next, from), seq: seq, parent: node}
				nodes[next] = n
			} else if g < n.g {
				n.g = g
				n.parent = node
			} else {
				continue
			}
			open.Push(openEntry{node: n, f: n.g + n.h, g: n.g, seq: n.seq})
		}
	}

	return []Point{}
}

// trace walks the parent links from the origin node up to the search root
func (n *pathNode) trace() []Point {
	path := []Point{}
	for p := n.parent; p != nil; p = p.parent {
		path = append(path, p.Point)
	}
	return path
}

func manhattan(a, b Point) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
