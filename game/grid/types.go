package grid

const (
	// Unset is the value of a cell that holds no palette index
	Unset = -1

	// NoLayer is the layer of an object that is not placed on any layer
	NoLayer = -1
)

// Point represents x,y cell coordinates
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect is an inclusive rectangle of cells
type Rect struct {
	MinX int `json:"min_x"`
	MinY int `json:"min_y"`
	MaxX int `json:"max_x"`
	MaxY int `json:"max_y"`
}

// Contains reports whether the cell (x,y) lies inside r
func (r Rect) Contains(x, y int) bool {
	return x >= r.MinX && y >= r.MinY && x <= r.MaxX && y <= r.MaxY
}

// Union returns the smallest rectangle containing both r and o
func (r Rect) Union(o Rect) Rect {
	return Rect{
		MinX: min(r.MinX, o.MinX),
		MinY: min(r.MinY, o.MinY),
		MaxX: max(r.MaxX, o.MaxX),
		MaxY: max(r.MaxY, o.MaxY),
	}
}

// Width returns the number of columns covered by r
func (r Rect) Width() int {
	return r.MaxX - r.MinX + 1
}

// Height returns the number of rows covered by r
func (r Rect) Height() int {
	return r.MaxY - r.MinY + 1
}

func (r Rect) expand(x, y int) Rect {
	return r.Union(Rect{MinX: x, MinY: y, MaxX: x, MaxY: y})
}

// TileParams addresses a tile write or fill. Index is a pointer so an
// omitted index can be told apart from palette index 0.
type TileParams struct {
	X     int  `json:"x"`
	Y     int  `json:"y"`
	Layer int  `json:"layer"`
	Index *int `json:"index"`
}

// Index returns a pointer to i for use in TileParams
func Index(i int) *int {
	return &i
}

// PlaceOptions tunes PlaceObject
type PlaceOptions struct {
	// Previous is the anchor the object is expected to leave. It must match
	// the live occupancy of the object's current layer.
	Previous *Point

	// SuppressEvent skips the ObjectPlaced/ObjectMoved notification.
	SuppressEvent bool
}

// Object is a caller-owned entity that occupies a rectangle of cells on an
// object layer. The grid keeps X, Y and Layer up to date on placement.
type Object struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Layer  int    `json:"layer"`
}

// NewObject creates an unplaced object with the given footprint
func NewObject(id string, width, height int) *Object {
	return &Object{
		ID:     id,
		Width:  width,
		Height: height,
		Layer:  NoLayer,
	}
}

// Placed reports whether the object currently sits on a layer
func (o *Object) Placed() bool {
	return o.Layer != NoLayer
}

// footprint returns the object's size in cells, never smaller than 1x1
func (o *Object) footprint() (int, int) {
	return max(o.Width, 1), max(o.Height, 1)
}

// Palette references the tileset image used to draw palette indices.
// The grid never loads the image.
type Palette struct {
	Image      string `json:"image"`
	TileWidth  int    `json:"tile_width"`
	TileHeight int    `json:"tile_height"`
	Animate    bool   `json:"animate,omitempty"`
}
