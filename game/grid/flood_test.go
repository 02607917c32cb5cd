package grid

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// paint writes rows of palette indices into layer 0, row y at index y
func paint(t *testing.T, g *Grid, rows [][]int) {
	t.Helper()
	for y, row := range rows {
		for x, v := range row {
			require.NoError(t, g.SetTile(TileParams{X: x, Y: y, Index: Index(v)}))
		}
	}
}

// snapshot reads layer 0 back as rows
func snapshot(t *testing.T, g *Grid) [][]int {
	t.Helper()
	rows := make([][]int, g.Height())
	for y := range rows {
		rows[y] = make([]int, g.Width())
		for x := range rows[y] {
			v, err := g.GetTile(x, y, 0)
			require.NoError(t, err)
			rows[y][x] = v
		}
	}
	return rows
}

func TestFloodWholeLayer(t *testing.T) {
	g := newTileGrid(t, 3, 3, 0)

	filled, err := g.Flood(TileParams{X: 1, Y: 1, Index: Index(9)})
	require.NoError(t, err)
	assert.Len(t, filled, 9)

	want := [][]int{{9, 9, 9}, {9, 9, 9}, {9, 9, 9}}
	if diff := cmp.Diff(want, snapshot(t, g)); diff != "" {
		t.Errorf("layer mismatch (-want +got):\n%s", diff)
	}
}

func TestFloodDiscoveryOrder(t *testing.T) {
	g := newTileGrid(t, 3, 3, 0)

	filled, err := g.Flood(TileParams{X: 1, Y: 1, Index: Index(4)})
	require.NoError(t, err)

	want := []Point{
		{X: 1, Y: 1},
		{X: 0, Y: 1}, {X: 2, Y: 1}, {X: 1, Y: 0}, {X: 1, Y: 2},
		{X: 0, Y: 0}, {X: 0, Y: 2}, {X: 2, Y: 0}, {X: 2, Y: 2},
	}
	if diff := cmp.Diff(want, filled); diff != "" {
		t.Errorf("fill order mismatch (-want +got):\n%s", diff)
	}
}

func TestFloodStopsAtOtherValues(t *testing.T) {
	g := newTileGrid(t, 5, 4, Unset)
	paint(t, g, [][]int{
		{1, 1, 2, 1, 1},
		{1, 2, 2, 1, 1},
		{2, 1, 2, 1, 1},
		{1, 1, 2, 2, 2},
	})

	filled, err := g.Flood(TileParams{X: 0, Y: 0, Index: Index(7)})
	require.NoError(t, err)
	assert.ElementsMatch(t, []Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}, filled)

	want := [][]int{
		{7, 7, 2, 1, 1},
		{7, 2, 2, 1, 1},
		{2, 1, 2, 1, 1},
		{1, 1, 2, 2, 2},
	}
	if diff := cmp.Diff(want, snapshot(t, g)); diff != "" {
		t.Errorf("layer mismatch (-want +got):\n%s", diff)
	}
}

func TestFloodWithAdjacentColor(t *testing.T) {
	g := newTileGrid(t, 4, 1, Unset)
	paint(t, g, [][]int{{1, 1, 2, 2}})

	filled, err := g.Flood(TileParams{X: 0, Y: 0, Index: Index(2)})
	require.NoError(t, err)
	assert.Len(t, filled, 2, "the neighbouring 2s are not part of the region")
	assert.Equal(t, [][]int{{2, 2, 2, 2}}, snapshot(t, g))
}

func TestFloodIdempotent(t *testing.T) {
	g := newTileGrid(t, 4, 4, Unset)
	paint(t, g, [][]int{
		{3, 3, 0, 0},
		{3, 3, 0, 1},
		{0, 3, 3, 1},
		{0, 0, 1, 1},
	})

	_, err := g.Flood(TileParams{X: 0, Y: 0, Index: Index(3)})
	require.NoError(t, err)
	before := snapshot(t, g)

	_, err = g.Flood(TileParams{X: 0, Y: 0, Index: Index(3)})
	require.NoError(t, err)
	if diff := cmp.Diff(before, snapshot(t, g)); diff != "" {
		t.Errorf("second flood changed the layer (-before +after):\n%s", diff)
	}
}

// TestFloodContainment checks that every filled cell is 4-connected to the
// seed through cells that held the seed's original value.
func TestFloodContainment(t *testing.T) {
	g := newTileGrid(t, 6, 5, Unset)
	original := [][]int{
		{0, 0, 1, 0, 0, 0},
		{1, 0, 1, 0, 1, 0},
		{0, 0, 0, 0, 1, 0},
		{0, 1, 1, 1, 1, 0},
		{0, 1, 0, 0, 1, 0},
	}
	paint(t, g, original)

	filled, err := g.Flood(TileParams{X: 0, Y: 0, Index: Index(5)})
	require.NoError(t, err)

	inRegion := make(map[Point]bool, len(filled))
	for _, p := range filled {
		require.True(t, g.InBounds(p.X, p.Y))
		require.Equal(t, 0, original[p.Y][p.X], "filled cell (%d,%d) did not match the seed", p.X, p.Y)
		inRegion[p] = true
	}

	// Walk the region from the seed using only filled cells; it must reach all of them.
	reached := map[Point]bool{{X: 0, Y: 0}: true}
	frontier := []Point{{X: 0, Y: 0}}
	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]
		for _, step := range floodSteps {
			next := Point{X: cur.X + step.X, Y: cur.Y + step.Y}
			if inRegion[next] && !reached[next] {
				reached[next] = true
				frontier = append(frontier, next)
			}
		}
	}
	assert.Len(t, reached, len(filled))

	// The island of zeros at the bottom is not connected to the seed.
	v, err := g.GetTile(2, 4, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestFloodUnboundedStaysInBoundaries(t *testing.T) {
	g := New(0, 0)
	id := g.CreateTileLayer(Unset)
	require.NoError(t, g.SetTile(TileParams{X: 2, Y: 2, Layer: id, Index: Index(1)}))

	filled, err := g.Flood(TileParams{X: 0, Y: 0, Layer: id, Index: Index(4)})
	require.NoError(t, err)
	assert.Len(t, filled, 8, "3x3 boundaries minus the written cell")

	tl, err := g.TileLayer(id)
	require.NoError(t, err)
	assert.Equal(t, Rect{MaxX: 2, MaxY: 2}, tl.Boundaries())

	filled, err = g.Flood(TileParams{X: 50, Y: 50, Layer: id, Index: Index(4)})
	require.NoError(t, err)
	assert.Empty(t, filled, "seed outside the boundaries")
}

func TestFloodEvent(t *testing.T) {
	g := newTileGrid(t, 2, 2, 0)
	rec := &recorder{}
	g.Subscribe(rec.listen)

	_, err := g.Flood(TileParams{X: 0, Y: 0, Index: Index(3)})
	require.NoError(t, err)

	want := []Event{{Type: EventRegionFilled, Layer: 0, Point: Point{}, Index: 3, Cells: 4}}
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestFloodErrors(t *testing.T) {
	g := newTileGrid(t, 3, 3, 0)
	obj := g.CreateObjectLayer()

	_, err := g.Flood(TileParams{X: 1, Y: 1})
	assert.ErrorIs(t, err, ErrMissingParameter)

	_, err = g.Flood(TileParams{X: 1, Y: 1, Layer: obj, Index: Index(1)})
	assert.ErrorIs(t, err, ErrInvalidOperation)

	_, err = g.Flood(TileParams{X: 5, Y: 1, Index: Index(1)})
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestRegionIsReadOnly(t *testing.T) {
	g := newTileGrid(t, 3, 3, 0)
	rec := &recorder{}
	g.Subscribe(rec.listen)

	region, err := g.Region(0, 0, 0)
	require.NoError(t, err)
	assert.Len(t, region, 9)
	assert.Empty(t, rec.events)

	tl, err := g.TileLayer(0)
	require.NoError(t, err)
	assert.Equal(t, 0, tl.Len())
}
