// Package mcp exposes hosted tile-grid worlds as Model Context Protocol tools.
//
// The Client registers its tools on an mcp-go server and answers every call
// by proxying it to the REST API, so MCP agents and HTTP clients share the
// same sessions.
//
// MCP Tools:
//   - create_session, list_sessions: world sessions
//   - list_layers, view_layer: layer inspection (view_layer renders text rows)
//   - get_tile, set_tile, flood_fill: tile editing
//   - find_path: shortest path search with avoided palette indices
//   - place_object, move_object, walk_object, remove_object, list_objects: objects
//   - list_maps: maps available for new sessions
//
// Transport Modes:
//
// The server is either served over stdio (main's stdio-mcp mode) or mounted
// at /mcp of the HTTP server. Tool failures are returned as tool results
// with IsError set rather than protocol errors.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
