package grid

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// tiledFlipMask strips the flip/rotation flags Tiled stores in the high bits of a gid
const tiledFlipMask = 0x1FFFFFFF

// Layer types understood by the importer
const (
	TiledTileLayer   = "tilelayer"
	TiledObjectGroup = "objectgroup"
)

// MaxTiledCells caps width*height of an imported document. Imported layers
// are bounded by the map size, so the cap also bounds flood and path search.
const MaxTiledCells = 1 << 22

// tiledFields must all be present and non-empty for a document to be importable
var tiledFields = []string{
	"height", "layers", "orientation", "properties", "tileheight",
	"tilesets", "tilewidth", "version", "width",
}

// TiledMap is a map document in the JSON format written by the Tiled editor
type TiledMap struct {
	Width       int             `json:"width"`
	Height      int             `json:"height"`
	TileWidth   int             `json:"tilewidth"`
	TileHeight  int             `json:"tileheight"`
	Orientation string          `json:"orientation"`
	Properties  json.RawMessage `json:"properties"`
	Version     json.RawMessage `json:"version"`
	Layers      []TiledLayer    `json:"layers"`
	Tilesets    []TiledTileset  `json:"tilesets"`
}

// TiledLayer is one entry of a map document's layers list
type TiledLayer struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Visible *bool  `json:"visible,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	Data    []int  `json:"data,omitempty"`
}

// TiledTileset describes the palette image of a map document
type TiledTileset struct {
	Name       string `json:"name,omitempty"`
	FirstGID   int    `json:"firstgid"`
	Image      string `json:"image"`
	TileWidth  int    `json:"tilewidth,omitempty"`
	TileHeight int    `json:"tileheight,omitempty"`
	Animate    bool   `json:"animate,omitempty"`
}

// IsTiledMap reports whether doc is a JSON object carrying every field an
// importable map document needs. Fields that are null, zero, false or an
// empty string count as missing.
func IsTiledMap(doc []byte) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(doc, &fields); err != nil {
		return false
	}
	for _, name := range tiledFields {
		raw, ok := fields[name]
		if !ok || isEmptyJSON(raw) {
			return false
		}
	}
	return true
}

func isEmptyJSON(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "0", "false", `""`:
		return true
	}
	return false
}

// DecodeTiled parses and validates a map document
func DecodeTiled(doc []byte) (*TiledMap, error) {
	if !IsTiledMap(doc) {
		return nil, ErrNotTiledMap
	}

	var m TiledMap
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, fmt.Errorf("failed to parse map document: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the structure FromTiled relies on
func (m *TiledMap) Validate() error {
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("map validation: width and height must be positive, got %dx%d", m.Width, m.Height)
	}
	if m.Width > MaxTiledCells/m.Height {
		return fmt.Errorf("map validation: %dx%d exceeds %d cells", m.Width, m.Height, MaxTiledCells)
	}
	if len(m.Tilesets) == 0 {
		return fmt.Errorf("map validation: at least one tileset is required")
	}
	if len(m.Layers) == 0 {
		return fmt.Errorf("map validation: at least one layer is required")
	}
	for i, l := range m.Layers {
		if l.Type != TiledTileLayer {
			continue
		}
		if len(l.Data) != m.Width*m.Height {
			return fmt.Errorf("map validation: layer %d (%s) has %d cells, expected %d",
				i, l.Name, len(l.Data), m.Width*m.Height)
		}
	}
	return nil
}

// FromTiled builds a bounded grid from a map document. Each tile layer of
// the document becomes a tile layer with 1-based gids rebased to 0-based
// palette indices (gid 0 stays unset). Object groups become empty object
// layers so layer ids line up with the document; other layer types are
// skipped.
func FromTiled(m *TiledMap) (*Grid, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	g := New(m.Width, m.Height)
	for _, src := range m.Layers {
		var layer Layer
		switch src.Type {
		case TiledTileLayer:
			tl := newTileLayer(Rect{MaxX: m.Width - 1, MaxY: m.Height - 1}, Unset)
			for i, gid := range src.Data {
				index := (gid & tiledFlipMask) - 1
				if index == Unset {
					continue
				}
				tl.cells[Point{X: i % m.Width, Y: i / m.Width}] = index
			}
			layer = tl
		case TiledObjectGroup:
			layer = newObjectLayer()
		default:
			continue
		}
		if src.Visible != nil {
			layer.setVisible(*src.Visible)
		}
		g.layers = append(g.layers, layer)
	}

	if len(g.layers) == 0 {
		g.layers = append(g.layers, newTileLayer(Rect{MaxX: m.Width - 1, MaxY: m.Height - 1}, Unset))
	}

	ts := m.Tilesets[0]
	g.palette = &Palette{
		Image:      ts.Image,
		TileWidth:  m.TileWidth,
		TileHeight: m.TileHeight,
		Animate:    ts.Animate,
	}
	return g, nil
}
