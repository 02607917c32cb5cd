package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/tilegrid/game/grid"
	"github.com/wricardo/tilegrid/game/service"
)

var (
	ErrMapNotFound = service.ErrMapNotFound
	ErrInvalidMap  = service.ErrInvalidMap
)

// DefaultMapName is loaded as the default map when present
const DefaultMapName = "meadow"

// Manager handles map document loading and caching
type Manager struct {
	mapsDir     string
	defaultMap  *grid.TiledMap
	defaultName string
	maps        map[string]*grid.TiledMap
	mu          sync.RWMutex
}

// NewManager creates a new map manager
func NewManager(mapsDir string) (*Manager, error) {
	// Ensure maps directory exists
	if _, err := os.Stat(mapsDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("maps directory does not exist: %s", mapsDir)
	}

	m := &Manager{
		mapsDir: mapsDir,
		maps:    make(map[string]*grid.TiledMap),
	}

	if err := m.loadDefaultMap(); err != nil {
		return nil, fmt.Errorf("failed to load default map: %w", err)
	}

	return m, nil
}

// mapFile turns a map name into a file name inside the maps directory
func mapFile(name string) (string, error) {
	filename := name
	if !strings.HasSuffix(filename, ".json") {
		filename = name + ".json"
	}
	if filename == ".json" || filepath.Base(filename) != filename {
		return "", fmt.Errorf("%w: bad map name %q", ErrInvalidMap, name)
	}
	return filename, nil
}

// LoadMap loads a map document by name
func (m *Manager) LoadMap(name string) (*grid.TiledMap, error) {
	name = strings.TrimSuffix(name, ".json")

	m.mu.RLock()
	// Check cache first
	if doc, exists := m.maps[name]; exists {
		m.mu.RUnlock()
		return doc, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if doc, exists := m.maps[name]; exists {
		return doc, nil
	}

	filename, err := mapFile(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(m.mapsDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", name, ErrMapNotFound)
		}
		return nil, fmt.Errorf("failed to read map file: %w", err)
	}

	doc, err := grid.DecodeTiled(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMap, name, err)
	}

	m.maps[name] = doc
	return doc, nil
}

// ListMaps returns information about all valid map documents
func (m *Manager) ListMaps() ([]*service.MapInfo, error) {
	entries, err := os.ReadDir(m.mapsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read maps directory: %w", err)
	}

	var maps []*service.MapInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".json")
		doc, err := m.LoadMap(name)
		if err != nil {
			// Skip documents that are not importable maps
			continue
		}

		maps = append(maps, describe(entry.Name(), name, doc))
	}

	sort.Slice(maps, func(i, j int) bool {
		return maps[i].MapID < maps[j].MapID
	})
	return maps, nil
}

func describe(filename, name string, doc *grid.TiledMap) *service.MapInfo {
	info := &service.MapInfo{
		Filename:   filename,
		MapID:      name,
		Width:      doc.Width,
		Height:     doc.Height,
		TileWidth:  doc.TileWidth,
		TileHeight: doc.TileHeight,
		Layers:     len(doc.Layers),
	}
	if len(doc.Tilesets) > 0 {
		info.Tileset = doc.Tilesets[0].Image
	}
	return info
}

// GetDefault returns the default map document
func (m *Manager) GetDefault() *grid.TiledMap {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultMap
}

// DefaultName returns the name sessions record for the default map
func (m *Manager) DefaultName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultName
}

// SetDefault sets the default map by name
func (m *Manager) SetDefault(name string) error {
	doc, err := m.LoadMap(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultMap = doc
	m.defaultName = strings.TrimSuffix(name, ".json")
	return nil
}

// RefreshCache drops every cached document and reloads the default map
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.maps = make(map[string]*grid.TiledMap)
	m.mu.Unlock()

	return m.loadDefaultMap()
}

// loadDefaultMap picks meadow.json, else the first valid map, else the
// built-in map
func (m *Manager) loadDefaultMap() error {
	name := DefaultMapName
	doc, err := m.LoadMap(name)
	if err != nil {
		maps, listErr := m.ListMaps()
		if listErr != nil || len(maps) == 0 {
			name, doc = "default", minimalMap()
		} else {
			name = maps[0].MapID
			if doc, err = m.LoadMap(name); err != nil {
				name, doc = "default", minimalMap()
			}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultMap = doc
	m.defaultName = name
	return nil
}

// SaveMap validates a map document and writes it to disk
func (m *Manager) SaveMap(name string, doc *grid.TiledMap) error {
	if doc == nil {
		return fmt.Errorf("%w: empty document", ErrInvalidMap)
	}
	name = strings.TrimSuffix(name, ".json")
	filename, err := mapFile(name)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal map: %w", err)
	}
	// Saved documents must load again
	if _, err := grid.DecodeTiled(data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMap, err)
	}

	if err := os.WriteFile(filepath.Join(m.mapsDir, filename), data, 0644); err != nil {
		return fmt.Errorf("failed to write map file: %w", err)
	}

	m.mu.Lock()
	m.maps[name] = doc
	m.mu.Unlock()

	return nil
}

// minimalMap builds a 10x10 meadow: grass (gid 1) ringed by a wall (gid 2),
// plus an empty object group for units
func minimalMap() *grid.TiledMap {
	const size = 10
	data := make([]int, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			gid := 1
			if x == 0 || y == 0 || x == size-1 || y == size-1 {
				gid = 2
			}
			data[y*size+x] = gid
		}
	}

	return &grid.TiledMap{
		Width:       size,
		Height:      size,
		TileWidth:   32,
		TileHeight:  32,
		Orientation: "orthogonal",
		Properties:  json.RawMessage(`{"name":"default"}`),
		Version:     json.RawMessage(`1`),
		Layers: []grid.TiledLayer{
			{Name: "ground", Type: grid.TiledTileLayer, Width: size, Height: size, Data: data},
			{Name: "units", Type: grid.TiledObjectGroup},
		},
		Tilesets: []grid.TiledTileset{
			{Name: "terrain", FirstGID: 1, Image: "tiles/terrain.png", TileWidth: 32, TileHeight: 32},
		},
	}
}
