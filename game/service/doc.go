// Package service provides the business logic layer for hosted tile-grid worlds.
//
// The service package implements:
//   - Multi-session world management
//   - Map document loading for new sessions
//   - Layer, tile, flood fill and path search operations on a session's grid
//   - Object ownership (IDs, placement, moves, walks along a path)
//   - Forwarding of grid change notifications to a Notifier
//
// Core Interfaces:
//
// WorldService is the main service interface providing high-level world operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// MapManager loads, lists and stores Tiled map documents.
// Notifier receives the change notifications of every session's grid.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the grid engine, providing session isolation and object ownership. Each
// session holds its own *grid.Grid. A grid is not safe for concurrent use, so
// every operation runs under the service mutex.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	mapMgr, _ := config.NewManager("maps")
//	worldService := service.NewWorldService(sessionMgr, mapMgr, service.Options{Notifier: hub})
//
//	// Create a new session from a map document
//	info, err := worldService.CreateSession(ctx, "meadow")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Find a path on the ground layer
//	result, err := worldService.FindPath(ctx, info.ID, service.PathRequest{
//		From: grid.Point{X: 0, Y: 0},
//		To:   grid.Point{X: 4, Y: 4},
//	})
//
// Objects:
//
// Objects placed through the service get a UUID and belong to the session
// until RemoveObject. An object whose layer was removed stays in the session
// unplaced and can be placed again with MoveObject.
package service
