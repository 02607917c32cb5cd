package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/inconshreveable/log15/v3"

	"github.com/wricardo/tilegrid/game/grid"
)

// DefaultMaxWalkSteps caps MoveAlong when Options leaves it unset
const DefaultMaxWalkSteps = 100

// maxViewCells caps ViewLayer on layers whose boundaries grew large
const maxViewCells = 128 * 128

var ErrViewTooLarge = errors.New("layer too large to render")

var logger = log15.New("module", "service")

// Options tunes a WorldService
type Options struct {
	// Notifier receives every grid event of every session. May be nil.
	Notifier Notifier

	// MaxWalkSteps limits the number of steps a single MoveAlong call may take
	MaxWalkSteps int
}

// worldServiceImpl implements the WorldService interface. The mutex guards
// every session grid, which is not safe for concurrent use on its own.
type worldServiceImpl struct {
	sessions     SessionManager
	maps         MapManager
	notifier     Notifier
	maxWalkSteps int
	mu           sync.Mutex
}

// NewWorldService creates a new world service instance
func NewWorldService(sessions SessionManager, maps MapManager, opts Options) WorldService {
	if opts.MaxWalkSteps <= 0 {
		opts.MaxWalkSteps = DefaultMaxWalkSteps
	}
	return &worldServiceImpl{
		sessions:     sessions,
		maps:         maps,
		notifier:     opts.Notifier,
		maxWalkSteps: opts.MaxWalkSteps,
	}
}

// session looks up a session and marks it as accessed
func (s *worldServiceImpl) session(id string) (*Session, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	s.sessions.UpdateLastAccessed(id)
	return sess, nil
}

// attach forwards the session's grid events to the notifier
func (s *worldServiceImpl) attach(sess *Session) {
	if s.notifier == nil {
		return
	}
	id := sess.ID
	sess.detach = sess.Grid.Subscribe(func(e grid.Event) {
		// The notifier encodes asynchronously; hand it a copy of the object
		if e.Object != nil {
			e.Object = snapshot(e.Object)
		}
		s.notifier.BroadcastEvent(id, string(e.Type), e)
	})
}

func snapshot(obj *grid.Object) *grid.Object {
	c := *obj
	return &c
}

func (s *worldServiceImpl) info(sess *Session) *SessionInfo {
	g := sess.Grid
	return &SessionInfo{
		ID:             sess.ID,
		MapName:        sess.MapName,
		Width:          g.Width(),
		Height:         g.Height(),
		Bounded:        g.Bounded(),
		Layers:         layerInfos(g),
		ObjectCount:    len(sess.Objects),
		Viewport:       g.Viewport(),
		Palette:        g.Palette(),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
	}
}

func layerInfos(g *grid.Grid) []*LayerInfo {
	infos := make([]*LayerInfo, 0, g.LayerCount())
	for id := 0; id < g.LayerCount(); id++ {
		layer, err := g.Layer(id)
		if err != nil {
			continue
		}
		infos = append(infos, layerInfo(id, layer))
	}
	return infos
}

func layerInfo(id int, layer grid.Layer) *LayerInfo {
	info := &LayerInfo{
		ID:      id,
		Kind:    layer.Kind(),
		Visible: layer.Visible(),
	}
	switch l := layer.(type) {
	case *grid.TileLayer:
		b := l.Boundaries()
		info.Boundaries = &b
		if d := l.DefaultIndex(); d != grid.Unset {
			info.DefaultIndex = &d
		}
		info.Cells = l.Len()
	case *grid.ObjectLayer:
		info.Objects = l.Len()
	}
	return info
}

// CreateSession creates a new world from a map document
func (s *worldServiceImpl) CreateSession(ctx context.Context, mapName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc *grid.TiledMap
	if mapName != "" {
		var err error
		doc, err = s.maps.LoadMap(mapName)
		if err != nil {
			if errors.Is(err, ErrMapNotFound) {
				available, listErr := s.maps.ListMaps()
				if listErr == nil && len(available) > 0 {
					ids := make([]string, 0, len(available))
					for _, m := range available {
						ids = append(ids, m.MapID)
					}
					return nil, fmt.Errorf("map '%s' not found, available maps: %s: %w", mapName, strings.Join(ids, ", "), err)
				}
			}
			return nil, fmt.Errorf("failed to load map %s: %w", mapName, err)
		}
	} else {
		doc = s.maps.GetDefault()
		mapName = s.maps.DefaultName()
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", mapName, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.attach(sess)

	logger.Info("session created", "session", sess.ID, "map", mapName, "layers", sess.Grid.LayerCount())
	return s.info(sess), nil
}

// GetSession retrieves session information
func (s *worldServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.info(sess), nil
}

// ListSessions returns all active sessions
func (s *worldServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.info(sess))
	}
	return result, nil
}

// DeleteSession removes a session and stops forwarding its events
func (s *worldServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}
	sess.Detach()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}
	logger.Info("session deleted", "session", sessionID)
	return nil
}

// ListLayers describes every layer of a session's grid
func (s *worldServiceImpl) ListLayers(ctx context.Context, sessionID string) ([]*LayerInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return layerInfos(sess.Grid), nil
}

// CreateLayer appends a tile or object layer
func (s *worldServiceImpl) CreateLayer(ctx context.Context, sessionID string, kind grid.LayerKind, defaultIndex int) (*LayerInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	var id int
	switch kind {
	case grid.TileKind:
		id = sess.Grid.CreateTileLayer(defaultIndex)
	case grid.ObjectKind:
		id = sess.Grid.CreateObjectLayer()
	default:
		return nil, fmt.Errorf("create layer: kind %s: %w", kind, grid.ErrInvalidOperation)
	}

	layer, err := sess.Grid.Layer(id)
	if err != nil {
		return nil, err
	}
	return layerInfo(id, layer), nil
}

// RemoveLayer deletes a layer from a session's grid
func (s *worldServiceImpl) RemoveLayer(ctx context.Context, sessionID string, layer int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	return sess.Grid.RemoveLayer(layer)
}

// SetLayerVisibility shows or hides a layer
func (s *worldServiceImpl) SetLayerVisibility(ctx context.Context, sessionID string, layer int, visible bool) (*LayerInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	if visible {
		err = sess.Grid.ShowLayer(layer)
	} else {
		err = sess.Grid.HideLayer(layer)
	}
	if err != nil {
		return nil, err
	}

	l, err := sess.Grid.Layer(layer)
	if err != nil {
		return nil, err
	}
	return layerInfo(layer, l), nil
}

// GetTile reads one cell of a tile layer
func (s *worldServiceImpl) GetTile(ctx context.Context, sessionID string, x, y, layer int) (*TileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	index, err := sess.Grid.GetTile(x, y, layer)
	if err != nil {
		return nil, err
	}
	return &TileInfo{X: x, Y: y, Layer: layer, Index: index, Unset: index == grid.Unset}, nil
}

// SetTile writes one cell of a tile layer
func (s *worldServiceImpl) SetTile(ctx context.Context, sessionID string, params grid.TileParams) (*TileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	if err := sess.Grid.SetTile(params); err != nil {
		return nil, err
	}

	index, err := sess.Grid.GetTile(params.X, params.Y, params.Layer)
	if err != nil {
		return nil, err
	}
	return &TileInfo{X: params.X, Y: params.Y, Layer: params.Layer, Index: index, Unset: index == grid.Unset}, nil
}

// Flood fills the region around a seed cell
func (s *worldServiceImpl) Flood(ctx context.Context, sessionID string, params grid.TileParams) (*FloodResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	cells, err := sess.Grid.Flood(params)
	if err != nil {
		return nil, err
	}
	if cells == nil {
		cells = []grid.Point{}
	}

	logger.Debug("flood", "session", sessionID, "layer", params.Layer, "seed", fmt.Sprintf("%d,%d", params.X, params.Y), "cells", len(cells))
	return &FloodResult{
		Layer: params.Layer,
		Index: *params.Index,
		Count: len(cells),
		Cells: cells,
	}, nil
}

// ViewLayer renders a tile layer's boundaries as rows of glyphs
func (s *worldServiceImpl) ViewLayer(ctx context.Context, sessionID string, layer int) (*LayerView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	tl, err := sess.Grid.TileLayer(layer)
	if err != nil {
		return nil, err
	}

	b := tl.Boundaries()
	if b.Width()*b.Height() > maxViewCells {
		return nil, fmt.Errorf("view layer %d: %dx%d cells: %w", layer, b.Width(), b.Height(), ErrViewTooLarge)
	}

	rows := make([]string, 0, b.Height())
	for y := b.MinY; y <= b.MaxY; y++ {
		var row strings.Builder
		for x := b.MinX; x <= b.MaxX; x++ {
			index, err := sess.Grid.GetTile(x, y, layer)
			if err != nil {
				return nil, err
			}
			row.WriteByte(TileGlyph(index))
		}
		rows = append(rows, row.String())
	}

	return &LayerView{
		Layer:      layer,
		Boundaries: b,
		Rows:       rows,
		Legend:     GlyphLegend,
	}, nil
}

// GlyphLegend explains the characters produced by TileGlyph
const GlyphLegend = ". = unset, 0-9 a-z A-Z = palette index 0-61, # = index above 61"

const glyphs = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// TileGlyph returns the single character used to render a palette index
func TileGlyph(index int) byte {
	switch {
	case index == grid.Unset:
		return '.'
	case index >= 0 && index < len(glyphs):
		return glyphs[index]
	default:
		return '#'
	}
}

// FindPath searches a tile layer for a path
func (s *worldServiceImpl) FindPath(ctx context.Context, sessionID string, req PathRequest) (*PathResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	path, err := sess.Grid.FindPath(req.Layer, req.From.X, req.From.Y, req.To.X, req.To.Y, req.Avoid)
	if err != nil {
		return nil, err
	}

	reachable := len(path) > 0
	if req.From == req.To {
		dest, err := sess.Grid.GetTile(req.To.X, req.To.Y, req.Layer)
		if err != nil {
			return nil, err
		}
		reachable = !slices.Contains(req.Avoid, dest)
	}

	return &PathResult{
		From:      req.From,
		To:        req.To,
		Path:      path,
		Length:    len(path),
		Reachable: reachable,
	}, nil
}

// ListObjects returns the objects on an object layer in z-order, or every
// object of the session sorted by ID when layer is grid.NoLayer
func (s *worldServiceImpl) ListObjects(ctx context.Context, sessionID string, layer int) ([]*grid.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	var objects []*grid.Object
	if layer == grid.NoLayer {
		for _, obj := range sess.Objects {
			objects = append(objects, obj)
		}
		sort.Slice(objects, func(i, j int) bool {
			return objects[i].ID < objects[j].ID
		})
	} else {
		objects, err = sess.Grid.Objects(layer)
		if err != nil {
			return nil, err
		}
	}

	result := make([]*grid.Object, 0, len(objects))
	for _, obj := range objects {
		result = append(result, snapshot(obj))
	}
	return result, nil
}

// PlaceObject creates an object owned by the session and places it. A
// blocked footprint discards the new object.
func (s *worldServiceImpl) PlaceObject(ctx context.Context, sessionID string, req PlaceRequest) (*PlaceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	obj := grid.NewObject(uuid.New().String(), max(req.Width, 1), max(req.Height, 1))
	obj.Name = req.Name

	ok, err := sess.Grid.PlaceObject(obj, req.Layer, req.X, req.Y, grid.PlaceOptions{})
	if err != nil {
		return nil, err
	}
	if !ok {
		return &PlaceResult{Placed: false, Object: snapshot(obj), Message: "footprint occupied"}, nil
	}

	sess.Objects[obj.ID] = obj
	logger.Debug("object placed", "session", sessionID, "object", obj.ID, "layer", obj.Layer, "x", obj.X, "y", obj.Y)
	return &PlaceResult{Placed: true, Object: snapshot(obj)}, nil
}

func (s *worldServiceImpl) object(sess *Session, objectID string) (*grid.Object, error) {
	obj, ok := sess.Objects[objectID]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", objectID, ErrObjectNotFound)
	}
	return obj, nil
}

// MoveObject moves an object as one atomic placement
func (s *worldServiceImpl) MoveObject(ctx context.Context, sessionID, objectID string, req MoveRequest) (*PlaceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	obj, err := s.object(sess, objectID)
	if err != nil {
		return nil, err
	}

	layer := obj.Layer
	if req.Layer != nil {
		layer = *req.Layer
	}
	if layer == grid.NoLayer {
		return nil, fmt.Errorf("move object %s: unplaced object needs a layer: %w", objectID, grid.ErrMissingParameter)
	}

	var opts grid.PlaceOptions
	var previous *grid.Point
	if obj.Placed() {
		previous = &grid.Point{X: obj.X, Y: obj.Y}
		opts.Previous = previous
	}

	ok, err := sess.Grid.PlaceObject(obj, layer, req.X, req.Y, opts)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &PlaceResult{Placed: false, Object: snapshot(obj), Previous: previous, Message: "footprint occupied"}, nil
	}
	return &PlaceResult{Placed: true, Object: snapshot(obj), Previous: previous}, nil
}

// MoveAlong steps an object cell by cell along path. It stops at the first
// step that is not adjacent, leaves the grid or is occupied; there is no
// re-planning.
func (s *worldServiceImpl) MoveAlong(ctx context.Context, sessionID, objectID string, path []grid.Point) (*WalkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	obj, err := s.object(sess, objectID)
	if err != nil {
		return nil, err
	}
	if !obj.Placed() {
		return nil, fmt.Errorf("walk object %s: not placed: %w", objectID, grid.ErrInvalidOperation)
	}

	result := &WalkResult{
		RequestedSteps: len(path),
		Steps:          []grid.Point{},
	}
	if len(path) > s.maxWalkSteps {
		path = path[:s.maxWalkSteps]
		result.Truncated = true
		result.Limit = s.maxWalkSteps
	}

	for _, next := range path {
		cur := grid.Point{X: obj.X, Y: obj.Y}
		if stop := stepProblem(sess.Grid, cur, next); stop != "" {
			result.StopReasonCode = stop
			result.StoppedAt = &next
			break
		}

		ok, err := sess.Grid.PlaceObject(obj, obj.Layer, next.X, next.Y, grid.PlaceOptions{Previous: &cur})
		if err != nil {
			return nil, fmt.Errorf("walk object %s: %w", objectID, err)
		}
		if !ok {
			result.StopReasonCode = "blocked"
			result.StoppedAt = &next
			break
		}
		result.Steps = append(result.Steps, next)
	}

	result.StepsTaken = len(result.Steps)
	result.Completed = result.StopReasonCode == "" && !result.Truncated
	result.Object = snapshot(obj)

	logger.Debug("object walked", "session", sessionID, "object", objectID,
		"steps", result.StepsTaken, "requested", result.RequestedSteps, "stop", result.StopReasonCode)
	return result, nil
}

// stepProblem returns the stop reason code for a step that cannot be taken
// without consulting occupancy, or "" when the step is valid
func stepProblem(g *grid.Grid, cur, next grid.Point) string {
	dx, dy := next.X-cur.X, next.Y-cur.Y
	if dx*dx+dy*dy != 1 {
		return "not_adjacent"
	}
	if !g.InBounds(next.X, next.Y) {
		return "out_of_bounds"
	}
	return ""
}

// RemoveObject takes an object off the grid and forgets it
func (s *worldServiceImpl) RemoveObject(ctx context.Context, sessionID, objectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	obj, err := s.object(sess, objectID)
	if err != nil {
		return err
	}

	if obj.Placed() {
		if err := sess.Grid.RemoveObject(obj, obj.X, obj.Y, false); err != nil {
			return err
		}
	}
	delete(sess.Objects, objectID)
	return nil
}

// HitTest reports whether a rectangle of an object layer is occupied
func (s *worldServiceImpl) HitTest(ctx context.Context, sessionID string, req HitTestRequest) (*HitTestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	var ignore *grid.Object
	if req.IgnoreID != "" {
		if ignore, err = s.object(sess, req.IgnoreID); err != nil {
			return nil, err
		}
	}

	occupied, err := sess.Grid.ObjectHitTest(req.Layer, req.X, req.Y, max(req.Width, 1), max(req.Height, 1), ignore)
	if err != nil {
		return nil, err
	}

	result := &HitTestResult{Occupied: occupied}
	ol, err := sess.Grid.ObjectLayer(req.Layer)
	if err != nil {
		return nil, err
	}
	if o := ol.Occupant(req.X, req.Y); o != nil && o != ignore {
		result.Occupant = snapshot(o)
	}
	return result, nil
}

// SetViewport moves the viewport anchor of a session
func (s *worldServiceImpl) SetViewport(ctx context.Context, sessionID string, x, y int) (grid.Point, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return grid.Point{}, err
	}
	sess.Grid.SetViewport(x, y, false)
	return sess.Grid.Viewport(), nil
}

// ListMaps lists the map documents available for new sessions
func (s *worldServiceImpl) ListMaps(ctx context.Context) ([]*MapInfo, error) {
	return s.maps.ListMaps()
}

// LoadMap returns a map document by name
func (s *worldServiceImpl) LoadMap(ctx context.Context, name string) (*grid.TiledMap, error) {
	return s.maps.LoadMap(name)
}

// SaveMap validates and stores a map document
func (s *worldServiceImpl) SaveMap(ctx context.Context, name string, m *grid.TiledMap) error {
	return s.maps.SaveMap(name, m)
}
