package grid

import "fmt"

// Grid owns an ordered list of layers. The index of a layer in that list is
// its id.
type Grid struct {
	width    int
	height   int
	layers   []Layer
	viewport Point
	palette  *Palette

	listeners    []subscription
	nextListener int
}

// New creates an empty grid. A width or height of zero (or less) creates an
// unbounded grid.
func New(width, height int) *Grid {
	if width <= 0 || height <= 0 {
		width, height = 0, 0
	}
	return &Grid{
		width:  width,
		height: height,
	}
}

// Width returns the declared width, 0 when unbounded
func (g *Grid) Width() int { return g.width }

// Height returns the declared height, 0 when unbounded
func (g *Grid) Height() int { return g.height }

// Bounded reports whether the grid rejects coordinates outside its size
func (g *Grid) Bounded() bool { return g.width > 0 }

// InBounds reports whether (x,y) is addressable on this grid
func (g *Grid) InBounds(x, y int) bool {
	if !g.Bounded() {
		return true
	}
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}

func (g *Grid) checkBounds(x, y int) error {
	if !g.InBounds(x, y) {
		return fmt.Errorf("(%d,%d) outside %dx%d grid: %w", x, y, g.width, g.height, ErrOutOfBounds)
	}
	return nil
}

// Palette returns the tileset reference, or nil
func (g *Grid) Palette() *Palette { return g.palette }

// SetPalette replaces the tileset reference
func (g *Grid) SetPalette(p *Palette) { g.palette = p }

// LayerCount returns the number of layers
func (g *Grid) LayerCount() int { return len(g.layers) }

// Layer returns the layer with the given id
func (g *Grid) Layer(id int) (Layer, error) {
	if id < 0 || id >= len(g.layers) {
		return nil, fmt.Errorf("layer %d of %d: %w", id, len(g.layers), ErrIndexOutOfRange)
	}
	return g.layers[id], nil
}

func (g *Grid) tileLayer(id int) (*TileLayer, error) {
	layer, err := g.Layer(id)
	if err != nil {
		return nil, err
	}
	tl, ok := layer.(*TileLayer)
	if !ok {
		return nil, fmt.Errorf("layer %d is a %s layer: %w", id, layer.Kind(), ErrInvalidOperation)
	}
	return tl, nil
}

func (g *Grid) objectLayer(id int) (*ObjectLayer, error) {
	layer, err := g.Layer(id)
	if err != nil {
		return nil, err
	}
	ol, ok := layer.(*ObjectLayer)
	if !ok {
		return nil, fmt.Errorf("layer %d is a %s layer: %w", id, layer.Kind(), ErrInvalidOperation)
	}
	return ol, nil
}

// TileLayer returns the tile layer with the given id
func (g *Grid) TileLayer(id int) (*TileLayer, error) { return g.tileLayer(id) }

// ObjectLayer returns the object layer with the given id
func (g *Grid) ObjectLayer(id int) (*ObjectLayer, error) { return g.objectLayer(id) }

// CreateTileLayer appends a tile layer whose unwritten cells read as
// defaultIndex (pass Unset for none) and returns its id.
func (g *Grid) CreateTileLayer(defaultIndex int) int {
	var bounds Rect
	if g.Bounded() {
		bounds = Rect{MaxX: g.width - 1, MaxY: g.height - 1}
	}
	g.layers = append(g.layers, newTileLayer(bounds, defaultIndex))
	id := len(g.layers) - 1

	g.emit(Event{Type: EventLayerCreated, Layer: id, Kind: TileKind})
	return id
}

// CreateObjectLayer appends an empty object layer and returns its id
func (g *Grid) CreateObjectLayer() int {
	id := g.appendObjectLayer()
	g.emit(Event{Type: EventLayerCreated, Layer: id, Kind: ObjectKind})
	return id
}

func (g *Grid) appendObjectLayer() int {
	g.layers = append(g.layers, newObjectLayer())
	return len(g.layers) - 1
}

// RemoveLayer deletes a layer. Layers above it shift down by one id and
// the objects on them are renumbered. Objects on the removed layer become
// unplaced.
func (g *Grid) RemoveLayer(id int) error {
	if len(g.layers) <= 1 {
		return fmt.Errorf("cannot remove the last layer: %w", ErrInvalidOperation)
	}
	if id < 0 || id >= len(g.layers) {
		return fmt.Errorf("remove layer %d of %d: %w: %w", id, len(g.layers), ErrInvalidOperation, ErrIndexOutOfRange)
	}

	removed := g.layers[id]
	if ol, ok := removed.(*ObjectLayer); ok {
		for _, p := range ol.placements {
			p.obj.Layer = NoLayer
		}
	}
	for _, layer := range g.layers[id+1:] {
		if ol, ok := layer.(*ObjectLayer); ok {
			for _, p := range ol.placements {
				p.obj.Layer--
			}
		}
	}
	g.layers = append(g.layers[:id], g.layers[id+1:]...)

	g.emit(Event{Type: EventLayerRemoved, Layer: id, Kind: removed.Kind()})
	return nil
}

// ShowLayer enables a layer for rendering
func (g *Grid) ShowLayer(id int) error {
	return g.setVisibility(id, true)
}

// HideLayer disables a layer for rendering
func (g *Grid) HideLayer(id int) error {
	return g.setVisibility(id, false)
}

func (g *Grid) setVisibility(id int, visible bool) error {
	layer, err := g.Layer(id)
	if err != nil {
		return err
	}
	layer.setVisible(visible)

	g.emit(Event{Type: EventVisibilityChanged, Layer: id, Kind: layer.Kind(), Visible: visible})
	return nil
}

// SetTile writes a palette index into a tile layer and grows the layer's
// boundaries to include the cell. Writing Unset clears the cell.
func (g *Grid) SetTile(p TileParams) error {
	tl, err := g.tileLayer(p.Layer)
	if err != nil {
		return fmt.Errorf("set tile: %w", err)
	}
	if p.Index == nil {
		return fmt.Errorf("set tile: index: %w", ErrMissingParameter)
	}
	if err := g.checkBounds(p.X, p.Y); err != nil {
		return fmt.Errorf("set tile: %w", err)
	}

	pt := Point{X: p.X, Y: p.Y}
	tl.write(pt, *p.Index)

	g.emit(Event{Type: EventTileSet, Layer: p.Layer, Point: pt, Index: *p.Index})
	return nil
}

// GetTile returns the palette index at (x,y): the written value, the
// layer's default index, or Unset.
func (g *Grid) GetTile(x, y, layer int) (int, error) {
	if err := g.checkBounds(x, y); err != nil {
		return Unset, fmt.Errorf("get tile: %w", err)
	}
	tl, err := g.tileLayer(layer)
	if err != nil {
		return Unset, fmt.Errorf("get tile: %w", err)
	}
	return tl.at(Point{X: x, Y: y}), nil
}

// Viewport returns the cell the renderer centers on
func (g *Grid) Viewport() Point { return g.viewport }

// SetViewport moves the viewport anchor
func (g *Grid) SetViewport(x, y int, suppressEvent bool) {
	g.viewport = Point{X: x, Y: y}
	if !suppressEvent {
		g.emit(Event{Type: EventViewportChange, Layer: NoLayer, Point: g.viewport})
	}
}

// Extent returns the union of the boundaries of all tile layers. The
// second result is false when the grid has no tile layer.
func (g *Grid) Extent() (Rect, bool) {
	var extent Rect
	found := false
	for _, layer := range g.layers {
		tl, ok := layer.(*TileLayer)
		if !ok {
			continue
		}
		if !found {
			extent = tl.boundaries
			found = true
			continue
		}
		extent = extent.Union(tl.boundaries)
	}
	return extent, found
}
