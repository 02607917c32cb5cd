// Package grid provides the tile-grid spatial engine behind every hosted world.
//
// The grid package implements:
//   - Layered grid storage (tile layers and object layers)
//   - Object placement with per-cell exclusivity and atomic moves
//   - Flood fill over 4-connected regions of a tile layer
//   - Best-first path search with an avoid-set of tile values
//   - Import of Tiled-style JSON map documents
//
// Core Types:
//
// Grid owns an ordered list of layers. A TileLayer maps cells to palette
// indices and tracks the boundaries of every cell ever written. An
// ObjectLayer records which Object holds each cell. Objects belong to the
// caller; the grid only keeps references to them.
//
// Usage:
//
//	g := grid.New(10, 10)
//	base := g.CreateTileLayer(0)
//	units := g.CreateObjectLayer()
//
//	if err := g.SetTile(grid.TileParams{X: 3, Y: 4, Layer: base, Index: grid.Index(2)}); err != nil {
//		log.Fatal(err)
//	}
//
//	tank := grid.NewObject("tank-1", 2, 2)
//	ok, err := g.PlaceObject(tank, units, 0, 0, grid.PlaceOptions{})
//
//	path, err := g.FindPath(base, 0, 0, 9, 9, []int{2})
//
// Errors:
//
// Contract violations are returned as wrapped sentinel errors (ErrOutOfBounds,
// ErrInvalidOperation, ErrIndexOutOfRange, ErrMissingParameter, ErrNotFound).
// An occupied cell or an unreachable target is not an error: PlaceObject
// returns false and FindPath returns an empty path.
//
// Concurrency:
//
// A Grid is not safe for concurrent use. Listeners registered with Subscribe
// run synchronously after each mutation has been committed, so a listener
// that calls back into the grid sees consistent state.
package grid
