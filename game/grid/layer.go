package grid

import "fmt"

// LayerKind tells tile layers and object layers apart
type LayerKind int

const (
	TileKind LayerKind = iota
	ObjectKind
)

func (k LayerKind) String() string {
	switch k {
	case TileKind:
		return "tile"
	case ObjectKind:
		return "object"
	default:
		return fmt.Sprintf("LayerKind(%d)", int(k))
	}
}

// MarshalText encodes the kind as "tile" or "object"
func (k LayerKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts "tile" or "object"
func (k *LayerKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "tile":
		*k = TileKind
	case "object":
		*k = ObjectKind
	default:
		return fmt.Errorf("unknown layer kind %q", text)
	}
	return nil
}

// Layer is one plane of the grid
type Layer interface {
	Kind() LayerKind
	Visible() bool
	setVisible(visible bool)
}

// TileLayer is a sparse map from cells to palette indices
type TileLayer struct {
	visible      bool
	cells        map[Point]int
	boundaries   Rect
	defaultIndex int
}

func newTileLayer(boundaries Rect, defaultIndex int) *TileLayer {
	return &TileLayer{
		visible:      true,
		cells:        make(map[Point]int),
		boundaries:   boundaries,
		defaultIndex: defaultIndex,
	}
}

func (l *TileLayer) Kind() LayerKind { return TileKind }

func (l *TileLayer) Visible() bool { return l.visible }

func (l *TileLayer) setVisible(visible bool) { l.visible = visible }

// Boundaries returns the smallest rectangle known to contain every written cell
func (l *TileLayer) Boundaries() Rect { return l.boundaries }

// DefaultIndex returns the value of cells that were never written, or Unset
func (l *TileLayer) DefaultIndex() int { return l.defaultIndex }

// Len returns the number of explicitly written cells
func (l *TileLayer) Len() int { return len(l.cells) }

func (l *TileLayer) at(p Point) int {
	if v, ok := l.cells[p]; ok {
		return v
	}
	return l.defaultIndex
}

func (l *TileLayer) write(p Point, index int) {
	if index == Unset {
		delete(l.cells, p)
	} else {
		l.cells[p] = index
	}
	l.boundaries = l.boundaries.expand(p.X, p.Y)
}

// placement is one object on an object layer together with the footprint
// it was written with
type placement struct {
	obj    *Object
	anchor Point
	w, h   int
}

// ObjectLayer records which object holds each cell. Placements keep
// insertion order, which is the z-order tie-break for renderers.
type ObjectLayer struct {
	visible    bool
	placements []placement
	cells      map[Point]*Object
}

func newObjectLayer() *ObjectLayer {
	return &ObjectLayer{
		visible: true,
		cells:   make(map[Point]*Object),
	}
}

func (l *ObjectLayer) Kind() LayerKind { return ObjectKind }

func (l *ObjectLayer) Visible() bool { return l.visible }

func (l *ObjectLayer) setVisible(visible bool) { l.visible = visible }

// Objects returns the placed objects in z-order
func (l *ObjectLayer) Objects() []*Object {
	objects := make([]*Object, 0, len(l.placements))
	for _, p := range l.placements {
		objects = append(objects, p.obj)
	}
	return objects
}

// Len returns the number of placed objects
func (l *ObjectLayer) Len() int { return len(l.placements) }

// Occupant returns the object holding (x,y), or nil
func (l *ObjectLayer) Occupant(x, y int) *Object {
	return l.cells[Point{X: x, Y: y}]
}

func (l *ObjectLayer) indexOf(obj *Object) int {
	for i, p := range l.placements {
		if p.obj == obj {
			return i
		}
	}
	return -1
}

// hit reports whether any cell of the rectangle is held by an object other than ignore
func (l *ObjectLayer) hit(x, y, w, h int, ignore *Object) bool {
	for dy := 0; dy < max(h, 1); dy++ {
		for dx := 0; dx < max(w, 1); dx++ {
			if o := l.cells[Point{X: x + dx, Y: y + dy}]; o != nil && o != ignore {
				return true
			}
		}
	}
	return false
}

// holds reports whether obj is the occupant of every cell of the footprint
func (l *ObjectLayer) holds(obj *Object, p placement) bool {
	for dy := 0; dy < p.h; dy++ {
		for dx := 0; dx < p.w; dx++ {
			if l.cells[Point{X: p.anchor.X + dx, Y: p.anchor.Y + dy}] != obj {
				return false
			}
		}
	}
	return true
}

func (l *ObjectLayer) fill(p placement) {
	for dy := 0; dy < p.h; dy++ {
		for dx := 0; dx < p.w; dx++ {
			l.cells[Point{X: p.anchor.X + dx, Y: p.anchor.Y + dy}] = p.obj
		}
	}
}

func (l *ObjectLayer) vacate(p placement) {
	for dy := 0; dy < p.h; dy++ {
		for dx := 0; dx < p.w; dx++ {
			cell := Point{X: p.anchor.X + dx, Y: p.anchor.Y + dy}
			if l.cells[cell] == p.obj {
				delete(l.cells, cell)
			}
		}
	}
}

func (l *ObjectLayer) removeAt(i int) {
	l.placements = append(l.placements[:i], l.placements[i+1:]...)
}
