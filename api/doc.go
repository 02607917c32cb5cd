// Package api provides HTTP REST API handlers for hosted tile-grid worlds.
//
// The api package implements:
//   - Session management endpoints
//   - Layer, tile, flood fill and path search endpoints
//   - Object placement, moves and walks
//   - Map document listing and upload
//   - WebSocket upgrade handling
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session ({"map_name": "meadow"}, empty for the default map)
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Layers and tiles:
//   - GET|POST /api/sessions/{id}/layers - List or create ({"kind": "tile"|"object", "default_index": n})
//   - DELETE /api/sessions/{id}/layers/{layer} - Remove a layer
//   - POST /api/sessions/{id}/layers/{layer}/visibility - {"visible": bool}
//   - GET /api/sessions/{id}/layers/{layer}/view - ASCII rows of a tile layer
//   - GET /api/sessions/{id}/tiles?x=&y=&layer= - Read a cell
//   - PUT /api/sessions/{id}/tiles - Write a cell ({"x","y","layer","index"}, index -1 clears)
//   - POST /api/sessions/{id}/flood - Flood fill from a seed cell
//   - POST /api/sessions/{id}/path - {"layer", "from": {x,y}, "to": {x,y}, "avoid": [..]}
//
// Objects:
//   - GET|POST /api/sessions/{id}/objects - List (?layer=N) or place a new object
//   - PUT|DELETE /api/sessions/{id}/objects/{oid} - Move or remove
//   - POST /api/sessions/{id}/objects/{oid}/walk - Step along {"path": [{x,y}, ...]}
//   - GET /api/sessions/{id}/hit-test?layer=&x=&y=&width=&height=&ignore=
//   - PUT /api/sessions/{id}/viewport - {"x", "y"}
//
// Maps:
//   - GET /api/maps, GET /api/maps/{name}, POST /api/maps ({"name", "map": <Tiled JSON>})
//
// Error Handling:
//
// Errors are returned as {"error": "message"}. Out-of-bounds coordinates and
// missing parameters answer 400, unknown sessions, objects, maps and layer
// ids 404, and operations the target layer does not support 409. An occupied
// footprint or an unreachable destination is a normal 200 response.
package api
