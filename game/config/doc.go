// Package config provides map documents and server settings for the tile-grid server.
//
// The config package handles:
//   - Loading Tiled JSON map documents from a maps directory
//   - Map validation through the grid importer
//   - Default map management (with a built-in fallback map)
//   - Map discovery, listing and saving
//   - Server settings from an optional YAML file
//
// Map Format:
//
// Maps are Tiled JSON documents stored as <name>.json in the maps directory.
// A document must carry width, height, tilewidth, tileheight, orientation,
// properties, version, layers and tilesets. Each "tilelayer" holds
// width*height row-major gids (1-based, 0 for an empty cell) and each
// "objectgroup" becomes an object layer.
//
// Default Map:
//
// meadow.json is the default when present, otherwise the first valid map in
// the directory. An empty directory falls back to a built-in 10x10 map with
// a walled ground layer and one object layer.
//
// Usage:
//
//	manager, err := config.NewManager("maps")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load specific map
//	doc, err := manager.LoadMap("meadow")
//
//	// List available maps
//	maps, err := manager.ListMaps()
//
// Settings:
//
// LoadSettings reads YAML such as:
//
//	host: 0.0.0.0
//	port: 8080
//	mapsDir: maps
//	defaultMap: meadow
//	sessionTTL: 24h
//	cleanupInterval: 1h
//	maxWalkSteps: 100
//	ngrok:
//	  enabled: false
//	  domain: ""
package config
