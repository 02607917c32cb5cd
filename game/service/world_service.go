package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/tilegrid/game/grid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrObjectNotFound  = errors.New("object not found in session")
	ErrMapNotFound     = errors.New("map not found")
	ErrInvalidMap      = errors.New("invalid map")
)

// WorldService defines all world-related operations
type WorldService interface {
	// Session Management
	CreateSession(ctx context.Context, mapName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Layers
	ListLayers(ctx context.Context, sessionID string) ([]*LayerInfo, error)
	CreateLayer(ctx context.Context, sessionID string, kind grid.LayerKind, defaultIndex int) (*LayerInfo, error)
	RemoveLayer(ctx context.Context, sessionID string, layer int) error
	SetLayerVisibility(ctx context.Context, sessionID string, layer int, visible bool) (*LayerInfo, error)

	// Tiles
	GetTile(ctx context.Context, sessionID string, x, y, layer int) (*TileInfo, error)
	SetTile(ctx context.Context, sessionID string, params grid.TileParams) (*TileInfo, error)
	Flood(ctx context.Context, sessionID string, params grid.TileParams) (*FloodResult, error)
	ViewLayer(ctx context.Context, sessionID string, layer int) (*LayerView, error)

	// Path Search
	FindPath(ctx context.Context, sessionID string, req PathRequest) (*PathResult, error)

	// Objects
	ListObjects(ctx context.Context, sessionID string, layer int) ([]*grid.Object, error)
	PlaceObject(ctx context.Context, sessionID string, req PlaceRequest) (*PlaceResult, error)
	MoveObject(ctx context.Context, sessionID, objectID string, req MoveRequest) (*PlaceResult, error)
	MoveAlong(ctx context.Context, sessionID, objectID string, path []grid.Point) (*WalkResult, error)
	RemoveObject(ctx context.Context, sessionID, objectID string) error
	HitTest(ctx context.Context, sessionID string, req HitTestRequest) (*HitTestResult, error)

	// Viewport
	SetViewport(ctx context.Context, sessionID string, x, y int) (grid.Point, error)

	// Maps
	ListMaps(ctx context.Context) ([]*MapInfo, error)
	LoadMap(ctx context.Context, name string) (*grid.TiledMap, error)
	SaveMap(ctx context.Context, name string, m *grid.TiledMap) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, mapName string, m *grid.TiledMap) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id, mapName string, m *grid.TiledMap) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// MapManager handles map document loading
type MapManager interface {
	LoadMap(name string) (*grid.TiledMap, error)
	ListMaps() ([]*MapInfo, error)
	GetDefault() *grid.TiledMap
	DefaultName() string
	SaveMap(name string, m *grid.TiledMap) error
}

// Notifier receives grid change notifications for a session. Implementations
// must not block.
type Notifier interface {
	BroadcastEvent(sessionID string, event string, data interface{})
}

// Session represents a hosted world. Objects holds every object the session
// created, placed or not; the grid only references them.
type Session struct {
	ID             string
	Grid           *grid.Grid
	MapName        string
	Objects        map[string]*grid.Object
	CreatedAt      time.Time
	LastAccessedAt time.Time

	detach func()
}

// Detach stops forwarding the session's grid notifications
func (s *Session) Detach() {
	if s.detach != nil {
		s.detach()
		s.detach = nil
	}
}
