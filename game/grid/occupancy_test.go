package grid

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func place(t *testing.T, g *Grid, obj *Object, layer, x, y int) bool {
	t.Helper()
	ok, err := g.PlaceObject(obj, layer, x, y, PlaceOptions{})
	require.NoError(t, err)
	return ok
}

func TestPlaceObject(t *testing.T) {
	g := New(10, 10)
	rec := &recorder{}
	g.Subscribe(rec.listen)

	crate := NewObject("crate", 2, 2)
	require.True(t, place(t, g, crate, 0, 1, 1))

	assert.Equal(t, 1, g.LayerCount(), "object layer created on demand")
	assert.Equal(t, 0, crate.Layer)
	assert.Equal(t, 1, crate.X)
	assert.Equal(t, 1, crate.Y)

	ol, err := g.ObjectLayer(0)
	require.NoError(t, err)
	for _, c := range []Point{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 1, Y: 2}, {X: 2, Y: 2}} {
		assert.Same(t, crate, ol.Occupant(c.X, c.Y), "cell (%d,%d)", c.X, c.Y)
	}
	assert.Nil(t, ol.Occupant(3, 3))

	assert.Equal(t, []EventType{EventLayerCreated, EventObjectPlaced}, rec.types())
}

func TestPlaceObjectCollision(t *testing.T) {
	g := New(10, 10)
	a := NewObject("a", 2, 2)
	b := NewObject("b", 1, 1)
	require.True(t, place(t, g, a, 0, 1, 1))

	rec := &recorder{}
	g.Subscribe(rec.listen)

	assert.False(t, place(t, g, b, 0, 2, 2), "collision is a false result, not an error")
	assert.False(t, b.Placed())
	assert.Empty(t, rec.events)

	ol, err := g.ObjectLayer(0)
	require.NoError(t, err)
	assert.Same(t, a, ol.Occupant(2, 2))
	assert.Equal(t, 1, ol.Len())

	assert.True(t, place(t, g, b, 0, 3, 3), "adjacent cell is free")
}

func TestPlaceObjectLazyLayers(t *testing.T) {
	g := New(5, 5)
	g.CreateTileLayer(Unset)
	require.NoError(t, g.SetTile(TileParams{X: 1, Y: 1, Index: Index(3)}))

	rec := &recorder{}
	g.Subscribe(rec.listen)

	obj := NewObject("far", 1, 1)
	require.True(t, place(t, g, obj, 3, 0, 0))
	assert.Equal(t, 4, g.LayerCount())

	for id := 1; id <= 3; id++ {
		layer, err := g.Layer(id)
		require.NoError(t, err)
		assert.Equal(t, ObjectKind, layer.Kind())
	}

	got, err := g.GetTile(1, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, got, "existing layers untouched")

	want := []EventType{EventLayerCreated, EventLayerCreated, EventLayerCreated, EventObjectPlaced}
	assert.Equal(t, want, rec.types())
}

func TestPlaceObjectErrors(t *testing.T) {
	g := New(10, 10)
	g.CreateTileLayer(Unset)
	g.CreateObjectLayer()

	_, err := g.PlaceObject(nil, 1, 0, 0, PlaceOptions{})
	assert.ErrorIs(t, err, ErrMissingParameter)

	_, err = g.PlaceObject(NewObject("a", 1, 1), 0, 0, 0, PlaceOptions{})
	assert.ErrorIs(t, err, ErrInvalidOperation, "tile layer")

	_, err = g.PlaceObject(NewObject("a", 1, 1), -1, 0, 0, PlaceOptions{})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = g.PlaceObject(NewObject("a", 2, 2), 1, 9, 9, PlaceOptions{})
	assert.ErrorIs(t, err, ErrOutOfBounds, "footprint leaves the grid")

	_, err = g.PlaceObject(NewObject("a", 1, 1), 1, -1, 0, PlaceOptions{})
	assert.ErrorIs(t, err, ErrOutOfBounds)

	_, err = g.PlaceObject(NewObject("a", 1, 1), 5, 0, 0, PlaceOptions{Previous: &Point{}})
	assert.ErrorIs(t, err, ErrNotFound, "previous position of an unplaced object")
	assert.Equal(t, 2, g.LayerCount(), "failed placement grows nothing")
}

func TestMoveObject(t *testing.T) {
	g := New(10, 10)
	obj := NewObject("cart", 2, 1)
	require.True(t, place(t, g, obj, 0, 1, 1))

	rec := &recorder{}
	g.Subscribe(rec.listen)

	ok, err := g.PlaceObject(obj, 0, 2, 1, PlaceOptions{Previous: &Point{X: 1, Y: 1}})
	require.NoError(t, err)
	require.True(t, ok, "a move may overlap the object's own footprint")

	ol, err := g.ObjectLayer(0)
	require.NoError(t, err)
	assert.Nil(t, ol.Occupant(1, 1))
	assert.Same(t, obj, ol.Occupant(2, 1))
	assert.Same(t, obj, ol.Occupant(3, 1))
	assert.Equal(t, 1, ol.Len())

	want := []Event{{
		Type:     EventObjectMoved,
		Layer:    0,
		Point:    Point{X: 2, Y: 1},
		Object:   obj,
		Previous: &Point{X: 1, Y: 1},
	}}
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestMoveObjectAcrossLayers(t *testing.T) {
	g := New(10, 10)
	obj := NewObject("ghost", 1, 1)
	require.True(t, place(t, g, obj, 0, 4, 4))

	require.True(t, place(t, g, obj, 1, 4, 4))
	assert.Equal(t, 1, obj.Layer)

	lower, err := g.Objects(0)
	require.NoError(t, err)
	assert.Empty(t, lower)

	upper, err := g.Objects(1)
	require.NoError(t, err)
	assert.Equal(t, []*Object{obj}, upper)
}

func TestMoveObjectStalePrevious(t *testing.T) {
	g := New(10, 10)
	obj := NewObject("cart", 1, 1)
	require.True(t, place(t, g, obj, 0, 1, 1))

	_, err := g.PlaceObject(obj, 0, 5, 5, PlaceOptions{Previous: &Point{X: 0, Y: 0}})
	assert.ErrorIs(t, err, ErrNotFound)

	ol, err := g.ObjectLayer(0)
	require.NoError(t, err)
	assert.Same(t, obj, ol.Occupant(1, 1), "failed move leaves the object in place")
	assert.Nil(t, ol.Occupant(5, 5))
}

func TestMoveObjectBlocked(t *testing.T) {
	g := New(10, 10)
	a := NewObject("a", 1, 1)
	b := NewObject("b", 1, 1)
	require.True(t, place(t, g, a, 0, 1, 1))
	require.True(t, place(t, g, b, 0, 2, 1))

	ok, err := g.PlaceObject(a, 0, 2, 1, PlaceOptions{Previous: &Point{X: 1, Y: 1}})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, a.X, "a stays where it was")

	ol, err := g.ObjectLayer(0)
	require.NoError(t, err)
	assert.Same(t, a, ol.Occupant(1, 1))
	assert.Same(t, b, ol.Occupant(2, 1))
}

func TestSuppressedPlacement(t *testing.T) {
	g := New(10, 10)
	g.CreateObjectLayer()
	rec := &recorder{}
	g.Subscribe(rec.listen)

	obj := NewObject("quiet", 1, 1)
	ok, err := g.PlaceObject(obj, 0, 0, 0, PlaceOptions{SuppressEvent: true})
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, g.RemoveObject(obj, 0, 0, true))
	assert.Empty(t, rec.events)
}

func TestRemoveObject(t *testing.T) {
	g := New(10, 10)
	obj := NewObject("crate", 2, 2)
	require.True(t, place(t, g, obj, 0, 3, 3))

	err := g.RemoveObject(obj, 4, 4, false)
	assert.ErrorIs(t, err, ErrNotFound, "wrong anchor")

	rec := &recorder{}
	g.Subscribe(rec.listen)

	require.NoError(t, g.RemoveObject(obj, 3, 3, false))
	assert.False(t, obj.Placed())
	assert.Equal(t, NoLayer, obj.Layer)

	ol, err := g.ObjectLayer(0)
	require.NoError(t, err)
	assert.Nil(t, ol.Occupant(3, 3))
	assert.Nil(t, ol.Occupant(4, 4))
	assert.Equal(t, 0, ol.Len())
	assert.Equal(t, []EventType{EventObjectRemoved}, rec.types())

	err = g.RemoveObject(obj, 3, 3, false)
	assert.ErrorIs(t, err, ErrNotFound, "already removed")

	err = g.RemoveObject(nil, 0, 0, false)
	assert.ErrorIs(t, err, ErrMissingParameter)
}

func TestObjectHitTest(t *testing.T) {
	g := New(10, 10)
	g.CreateTileLayer(Unset)
	layer := g.CreateObjectLayer()
	obj := NewObject("crate", 2, 2)
	require.True(t, place(t, g, obj, layer, 4, 4))

	tests := []struct {
		name       string
		x, y, w, h int
		ignore     *Object
		want       bool
	}{
		{"single free cell", 0, 0, 1, 1, nil, false},
		{"single occupied cell", 5, 5, 1, 1, nil, true},
		{"rectangle touching corner", 2, 2, 3, 3, nil, true},
		{"rectangle beside", 6, 4, 2, 2, nil, false},
		{"ignored occupant", 4, 4, 2, 2, obj, false},
		{"ignore compares identity", 4, 4, 1, 1, NewObject("crate", 2, 2), true},
		{"zero size treated as one cell", 4, 4, 0, 0, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.ObjectHitTest(layer, tt.x, tt.y, tt.w, tt.h, tt.ignore)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := g.ObjectHitTest(0, 0, 0, 1, 1, nil)
	assert.ErrorIs(t, err, ErrInvalidOperation)
	_, err = g.ObjectHitTest(7, 0, 0, 1, 1, nil)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestObjectsZOrder(t *testing.T) {
	g := New(10, 10)
	a := NewObject("a", 1, 1)
	b := NewObject("b", 1, 1)
	c := NewObject("c", 1, 1)
	require.True(t, place(t, g, a, 0, 0, 0))
	require.True(t, place(t, g, b, 0, 1, 0))
	require.True(t, place(t, g, c, 0, 2, 0))

	require.True(t, place(t, g, a, 0, 5, 5), "same-layer move keeps z-order slot")

	objects, err := g.Objects(0)
	require.NoError(t, err)
	assert.Equal(t, []*Object{a, b, c}, objects)
}

// TestOccupancyExclusive drives random placements, moves and removals and
// checks after every step that each placed object holds exactly its
// footprint and nothing else holds a cell.
func TestOccupancyExclusive(t *testing.T) {
	const size = 12
	g := New(size, size)
	layer := g.CreateObjectLayer()
	rng := rand.New(rand.NewSource(7))

	objects := make([]*Object, 15)
	for i := range objects {
		objects[i] = NewObject(string(rune('a'+i)), 1+rng.Intn(3), 1+rng.Intn(3))
	}

	for step := 0; step < 2000; step++ {
		obj := objects[rng.Intn(len(objects))]
		if obj.Placed() && rng.Intn(4) == 0 {
			require.NoError(t, g.RemoveObject(obj, obj.X, obj.Y, false))
		} else {
			x := rng.Intn(size - obj.Width + 1)
			y := rng.Intn(size - obj.Height + 1)
			_, err := g.PlaceObject(obj, layer, x, y, PlaceOptions{})
			require.NoError(t, err)
		}

		ol, err := g.ObjectLayer(layer)
		require.NoError(t, err)

		claimed := make(map[Point]*Object)
		for _, o := range objects {
			if !o.Placed() {
				continue
			}
			for dy := 0; dy < o.Height; dy++ {
				for dx := 0; dx < o.Width; dx++ {
					cell := Point{X: o.X + dx, Y: o.Y + dy}
					if other, taken := claimed[cell]; taken {
						t.Fatalf("step %d: %s and %s both claim (%d,%d)", step, other.ID, o.ID, cell.X, cell.Y)
					}
					claimed[cell] = o
					require.Same(t, o, ol.Occupant(cell.X, cell.Y))
				}
			}
		}
		require.Len(t, ol.cells, len(claimed), "step %d: stray occupied cells", step)
	}
}
