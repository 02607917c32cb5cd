package service

import (
	"time"

	"github.com/wricardo/tilegrid/game/grid"
)

// SessionInfo provides information about a hosted world
type SessionInfo struct {
	ID             string        `json:"id"`
	MapName        string        `json:"map_name"`
	Width          int           `json:"width"`
	Height         int           `json:"height"`
	Bounded        bool          `json:"bounded"`
	Layers         []*LayerInfo  `json:"layers"`
	ObjectCount    int           `json:"object_count"`
	Viewport       grid.Point    `json:"viewport"`
	Palette        *grid.Palette `json:"palette,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	LastAccessedAt time.Time     `json:"last_accessed_at"`
}

// LayerInfo describes one layer of a session's grid
type LayerInfo struct {
	ID           int            `json:"id"`
	Kind         grid.LayerKind `json:"kind"`
	Visible      bool           `json:"visible"`
	Boundaries   *grid.Rect     `json:"boundaries,omitempty"`    // tile layers only
	DefaultIndex *int           `json:"default_index,omitempty"` // tile layers with a default
	Cells        int            `json:"cells,omitempty"`         // explicitly written tiles
	Objects      int            `json:"objects,omitempty"`       // placed objects
}

// TileInfo is the value of a single cell
type TileInfo struct {
	X     int  `json:"x"`
	Y     int  `json:"y"`
	Layer int  `json:"layer"`
	Index int  `json:"index"`
	Unset bool `json:"unset,omitempty"`
}

// FloodResult contains the cells changed by a flood fill
type FloodResult struct {
	Layer int          `json:"layer"`
	Index int          `json:"index"`
	Count int          `json:"count"`
	Cells []grid.Point `json:"cells"`
}

// LayerView renders a tile layer as text, one string per row
type LayerView struct {
	Layer      int       `json:"layer"`
	Boundaries grid.Rect `json:"boundaries"`
	Rows       []string  `json:"rows"`
	Legend     string    `json:"legend"`
}

// PathRequest asks for a path on a tile layer
type PathRequest struct {
	Layer int        `json:"layer"`
	From  grid.Point `json:"from"`
	To    grid.Point `json:"to"`
	Avoid []int      `json:"avoid,omitempty"`
}

// PathResult contains the cells leading from the origin to the destination.
// The origin is not part of Path.
type PathResult struct {
	From      grid.Point   `json:"from"`
	To        grid.Point   `json:"to"`
	Path      []grid.Point `json:"path"`
	Length    int          `json:"length"`
	Reachable bool         `json:"reachable"`
}

// PlaceRequest creates a new object and places it
type PlaceRequest struct {
	Name   string `json:"name,omitempty"`
	Layer  int    `json:"layer"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// MoveRequest moves an existing object. A nil Layer keeps the object on
// its current layer.
type MoveRequest struct {
	Layer *int `json:"layer,omitempty"`
	X     int  `json:"x"`
	Y     int  `json:"y"`
}

// PlaceResult reports whether a placement or move took effect. A blocked
// footprint is reported with Placed false, not as an error.
type PlaceResult struct {
	Placed   bool         `json:"placed"`
	Object   *grid.Object `json:"object"`
	Previous *grid.Point  `json:"previous,omitempty"`
	Message  string       `json:"message,omitempty"`
}

// WalkResult contains the outcome of stepping an object along a path
type WalkResult struct {
	Object         *grid.Object `json:"object"`
	RequestedSteps int          `json:"requested_steps"`
	StepsTaken     int          `json:"steps_taken"`
	Steps          []grid.Point `json:"steps"`
	Completed      bool         `json:"completed"`
	StoppedAt      *grid.Point  `json:"stopped_at,omitempty"`       // first cell that could not be entered
	StopReasonCode string       `json:"stop_reason_code,omitempty"` // blocked|not_adjacent|out_of_bounds
	Truncated      bool         `json:"truncated,omitempty"`
	Limit          int          `json:"limit,omitempty"`
}

// HitTestRequest checks a rectangle of an object layer for occupants
type HitTestRequest struct {
	Layer    int    `json:"layer"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	IgnoreID string `json:"ignore_id,omitempty"`
}

// HitTestResult reports whether the rectangle is occupied
type HitTestResult struct {
	Occupied bool         `json:"occupied"`
	Occupant *grid.Object `json:"occupant,omitempty"` // holder of the anchor cell, if any
}

// MapInfo provides information about a map document in the maps directory
type MapInfo struct {
	Filename   string `json:"filename"`
	MapID      string `json:"map_id"` // The identifier to use for session creation
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	TileWidth  int    `json:"tile_width"`
	TileHeight int    `json:"tile_height"`
	Layers     int    `json:"layers"`
	Tileset    string `json:"tileset,omitempty"`
}
