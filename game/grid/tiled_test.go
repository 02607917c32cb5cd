package grid

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tiledDoc = `{
	"width": 3,
	"height": 2,
	"tilewidth": 32,
	"tileheight": 32,
	"orientation": "orthogonal",
	"properties": {"name": "meadow"},
	"version": 1,
	"layers": [
		{"name": "ground", "type": "tilelayer", "width": 3, "height": 2, "data": [1, 2, 3, 0, 5, 2147483654]},
		{"name": "props", "type": "objectgroup", "visible": false},
		{"name": "backdrop", "type": "imagelayer"},
		{"name": "roof", "type": "tilelayer", "visible": false, "data": [0, 0, 0, 0, 0, 4]}
	],
	"tilesets": [{"firstgid": 1, "image": "tiles/meadow.png", "animate": true}]
}`

func TestIsTiledMap(t *testing.T) {
	assert.True(t, IsTiledMap([]byte(tiledDoc)))

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(tiledDoc), &doc))

	for _, field := range tiledFields {
		t.Run("missing "+field, func(t *testing.T) {
			stripped := make(map[string]any, len(doc))
			for k, v := range doc {
				stripped[k] = v
			}
			delete(stripped, field)
			raw, err := json.Marshal(stripped)
			require.NoError(t, err)
			assert.False(t, IsTiledMap(raw))
		})
	}

	t.Run("zero field", func(t *testing.T) {
		stripped := make(map[string]any, len(doc))
		for k, v := range doc {
			stripped[k] = v
		}
		stripped["tilewidth"] = 0
		raw, err := json.Marshal(stripped)
		require.NoError(t, err)
		assert.False(t, IsTiledMap(raw))
	})

	assert.False(t, IsTiledMap([]byte(`[1,2,3]`)))
	assert.False(t, IsTiledMap([]byte(`not json`)))
}

func TestDecodeTiled(t *testing.T) {
	m, err := DecodeTiled([]byte(tiledDoc))
	require.NoError(t, err)
	assert.Equal(t, 3, m.Width)
	assert.Equal(t, 2, m.Height)
	assert.Len(t, m.Layers, 4)

	_, err = DecodeTiled([]byte(`{"width": 3}`))
	assert.ErrorIs(t, err, ErrNotTiledMap)
}

func TestValidateTiled(t *testing.T) {
	m, err := DecodeTiled([]byte(tiledDoc))
	require.NoError(t, err)

	short := *m
	short.Layers = []TiledLayer{{Name: "ground", Type: TiledTileLayer, Data: []int{1, 2}}}
	assert.Error(t, short.Validate())

	noTilesets := *m
	noTilesets.Tilesets = nil
	assert.Error(t, noTilesets.Validate())

	_, err = FromTiled(&short)
	assert.Error(t, err)

	// 2^32 x 2^32 wraps to 0 cells on 64-bit ints
	huge := *m
	huge.Width, huge.Height = 1<<32, 1<<32
	huge.Layers = []TiledLayer{{Name: "ground", Type: TiledTileLayer, Data: []int{}}}
	assert.Error(t, huge.Validate())
	_, err = FromTiled(&huge)
	assert.Error(t, err)

	tooLarge := *m
	tooLarge.Width, tooLarge.Height = MaxTiledCells, 2
	tooLarge.Layers = []TiledLayer{{Name: "units", Type: TiledObjectGroup}}
	assert.Error(t, tooLarge.Validate())

	_, err = DecodeTiled([]byte(`{"width": 4294967296, "height": 4294967296, "tilewidth": 16, "tileheight": 16,
		"orientation": "orthogonal", "properties": {"name": "huge"}, "version": 1,
		"layers": [{"name": "ground", "type": "tilelayer", "data": []}],
		"tilesets": [{"firstgid": 1, "image": "t.png"}]}`))
	assert.Error(t, err)
}

func TestFromTiled(t *testing.T) {
	m, err := DecodeTiled([]byte(tiledDoc))
	require.NoError(t, err)

	g, err := FromTiled(m)
	require.NoError(t, err)

	assert.True(t, g.Bounded())
	assert.Equal(t, 3, g.Width())
	assert.Equal(t, 2, g.Height())
	require.Equal(t, 3, g.LayerCount(), "image layer skipped")

	kinds := make([]LayerKind, 0, g.LayerCount())
	visible := make([]bool, 0, g.LayerCount())
	for id := 0; id < g.LayerCount(); id++ {
		layer, err := g.Layer(id)
		require.NoError(t, err)
		kinds = append(kinds, layer.Kind())
		visible = append(visible, layer.Visible())
	}
	assert.Equal(t, []LayerKind{TileKind, ObjectKind, TileKind}, kinds)
	assert.Equal(t, []bool{true, false, false}, visible)

	ground := make([]int, 0, 6)
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			v, err := g.GetTile(x, y, 0)
			require.NoError(t, err)
			ground = append(ground, v)
		}
	}
	// gids are rebased to 0, 0 becomes unset and flip flags are dropped
	if diff := cmp.Diff([]int{0, 1, 2, Unset, 4, 5}, ground); diff != "" {
		t.Errorf("ground mismatch (-want +got):\n%s", diff)
	}

	roof, err := g.GetTile(2, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, roof)

	want := &Palette{Image: "tiles/meadow.png", TileWidth: 32, TileHeight: 32, Animate: true}
	assert.Equal(t, want, g.Palette())

	tl, err := g.TileLayer(0)
	require.NoError(t, err)
	assert.Equal(t, Rect{MaxX: 2, MaxY: 1}, tl.Boundaries())
	assert.Equal(t, 5, tl.Len())
}

func TestFromTiledSupportsGridOperations(t *testing.T) {
	m, err := DecodeTiled([]byte(tiledDoc))
	require.NoError(t, err)
	g, err := FromTiled(m)
	require.NoError(t, err)

	obj := NewObject("hero", 1, 1)
	ok, err := g.PlaceObject(obj, 1, 0, 0, PlaceOptions{})
	require.NoError(t, err)
	assert.True(t, ok)

	path, err := g.FindPath(0, 0, 0, 2, 1, nil)
	require.NoError(t, err)
	assert.Len(t, path, 3)
}
