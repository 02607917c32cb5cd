package grid

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireWalk checks that path is a sequence of unit steps starting next to
// from and ending at to
func requireWalk(t *testing.T, from, to Point, path []Point) {
	t.Helper()
	require.NotEmpty(t, path)
	prev := from
	for i, p := range path {
		require.Equal(t, 1, manhattan(prev, p), "step %d from (%d,%d) to (%d,%d)", i, prev.X, prev.Y, p.X, p.Y)
		prev = p
	}
	require.Equal(t, to, path[len(path)-1])
}

func TestFindPathOpenLayer(t *testing.T) {
	g := newTileGrid(t, 5, 5, 0)

	path, err := g.FindPath(0, 0, 0, 4, 4, nil)
	require.NoError(t, err)
	assert.Len(t, path, 8)
	requireWalk(t, Point{}, Point{X: 4, Y: 4}, path)
}

func TestFindPathOpenLayerOrder(t *testing.T) {
	g := newTileGrid(t, 5, 5, 0)

	path, err := g.FindPath(0, 0, 0, 4, 4, nil)
	require.NoError(t, err)
	want := []Point{{X: 1}, {X: 2}, {X: 3}, {X: 4}, {X: 4, Y: 1}, {X: 4, Y: 2}, {X: 4, Y: 3}, {X: 4, Y: 4}}
	if diff := cmp.Diff(want, path); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}
}

// scanPath is a plain A* over an open list that is rescanned for the lowest
// f on every step, ties going to the earliest discovered node
func scanPath(t *testing.T, g *Grid, from, to Point, avoid int) []Point {
	t.Helper()
	type node struct {
		Point
		g, h   int
		parent *node
	}
	at := func(p Point) int {
		v, err := g.GetTile(p.X, p.Y, 0)
		require.NoError(t, err)
		return v
	}
	if at(to) == avoid {
		return []Point{}
	}

	open := []*node{{Point: to, h: manhattan(to, from)}}
	closed := map[Point]bool{}
	for len(open) > 0 {
		best := 0
		for i, n := range open {
			if n.g+n.h < open[best].g+open[best].h {
				best = i
			}
		}
		cur := open[best]
		open = append(open[:best], open[best+1:]...)
		if cur.Point == from {
			path := []Point{}
			for p := cur.parent; p != nil; p = p.parent {
				path = append(path, p.Point)
			}
			return path
		}
		closed[cur.Point] = true

		for _, step := range pathSteps {
			next := Point{X: cur.X + step.X, Y: cur.Y + step.Y}
			if !g.InBounds(next.X, next.Y) || closed[next] || at(next) == avoid {
				continue
			}
			var known *node
			for _, n := range open {
				if n.Point == next {
					known = n
					break
				}
			}
			switch {
			case known == nil:
				open = append(open, &node{Point: next, g: cur.g + 1, h: manhattan(next, from), parent: cur})
			case cur.g+1 < known.g:
				known.g = cur.g + 1
				known.parent = cur
			}
		}
	}
	return []Point{}
}

func TestFindPathMatchesOpenListScan(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 300; i++ {
		width, height := 1+rng.Intn(9), 1+rng.Intn(9)
		g := newTileGrid(t, width, height, 0)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				if rng.Intn(10) < 3 {
					require.NoError(t, g.SetTile(TileParams{X: x, Y: y, Index: Index(1)}))
				}
			}
		}
		from := Point{X: rng.Intn(width), Y: rng.Intn(height)}
		to := Point{X: rng.Intn(width), Y: rng.Intn(height)}

		got, err := g.FindPath(0, from.X, from.Y, to.X, to.Y, []int{1})
		require.NoError(t, err)
		want := scanPath(t, g, from, to, 1)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("grid %d (%dx%d) from %v to %v (-scan +heap):\n%s", i, width, height, from, to, diff)
		}
	}
}

func TestFindPathDeterministic(t *testing.T) {
	g := newTileGrid(t, 6, 6, 0)

	first, err := g.FindPath(0, 5, 0, 0, 5, nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := g.FindPath(0, 5, 0, 0, 5, nil)
		require.NoError(t, err)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("run %d returned a different path (-first +again):\n%s", i, diff)
		}
	}
}

func TestFindPathStraightLine(t *testing.T) {
	g := newTileGrid(t, 5, 1, 0)

	path, err := g.FindPath(0, 0, 0, 3, 0, nil)
	require.NoError(t, err)
	want := []Point{{X: 1}, {X: 2}, {X: 3}}
	if diff := cmp.Diff(want, path); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}
}

func TestFindPathAroundWall(t *testing.T) {
	g := newTileGrid(t, 5, 5, Unset)
	paint(t, g, [][]int{
		{0, 0, 0, 0, 0},
		{1, 1, 1, 1, 0},
		{0, 0, 0, 0, 0},
		{0, 1, 1, 1, 1},
		{0, 0, 0, 0, 0},
	})

	path, err := g.FindPath(0, 0, 0, 4, 4, []int{1})
	require.NoError(t, err)
	requireWalk(t, Point{}, Point{X: 4, Y: 4}, path)
	assert.Len(t, path, 16)

	for _, p := range path {
		v, err := g.GetTile(p.X, p.Y, 0)
		require.NoError(t, err)
		assert.NotEqual(t, 1, v, "path crosses avoided cell (%d,%d)", p.X, p.Y)
	}
}

func TestFindPathAvoidedDestination(t *testing.T) {
	g := newTileGrid(t, 5, 5, 0)
	require.NoError(t, g.SetTile(TileParams{X: 4, Y: 4, Index: Index(3)}))

	path, err := g.FindPath(0, 0, 0, 4, 4, []int{3})
	require.NoError(t, err)
	assert.NotNil(t, path)
	assert.Empty(t, path)
}

func TestFindPathSeparatingWall(t *testing.T) {
	g := newTileGrid(t, 5, 5, 0)
	for x := 0; x < 5; x++ {
		require.NoError(t, g.SetTile(TileParams{X: x, Y: 2, Index: Index(8)}))
	}

	path, err := g.FindPath(0, 0, 0, 4, 4, []int{8})
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = g.FindPath(0, 0, 0, 4, 4, nil)
	require.NoError(t, err)
	assert.Len(t, path, 8, "wall is passable when not avoided")
}

func TestFindPathSameCell(t *testing.T) {
	g := newTileGrid(t, 3, 3, 0)

	path, err := g.FindPath(0, 1, 1, 1, 1, nil)
	require.NoError(t, err)
	assert.NotNil(t, path)
	assert.Empty(t, path)
}

func TestFindPathErrors(t *testing.T) {
	g := newTileGrid(t, 3, 3, 0)
	obj := g.CreateObjectLayer()

	_, err := g.FindPath(obj, 0, 0, 1, 1, nil)
	assert.ErrorIs(t, err, ErrInvalidOperation)

	_, err = g.FindPath(4, 0, 0, 1, 1, nil)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = g.FindPath(0, 0, 0, 3, 3, nil)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	_, err = g.FindPath(0, -1, 0, 1, 1, nil)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestFindPathDoesNotMutate(t *testing.T) {
	g := newTileGrid(t, 4, 4, 0)
	rec := &recorder{}
	g.Subscribe(rec.listen)

	_, err := g.FindPath(0, 0, 0, 3, 3, nil)
	require.NoError(t, err)
	assert.Empty(t, rec.events)

	tl, err := g.TileLayer(0)
	require.NoError(t, err)
	assert.Equal(t, 0, tl.Len())
}
