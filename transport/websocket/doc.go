// Package websocket pushes grid change notifications to live viewers.
//
// The websocket package implements:
//   - Session-scoped viewer connections
//   - Non-blocking event broadcasting from the service layer
//   - Connection lifecycle management with ping/pong keepalive
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub owns all
// connections. Registration, broadcasting and disconnects are serialized
// through the hub loop; each client has a dedicated read and write goroutine.
//
// Message Protocol:
//
// Every frame carries one JSON message:
//
//	{"session_id": "ab12", "event": "tileSet", "data": {...}}
//
// The event names are the grid event types (layerCreated, tileSet,
// regionFilled, ObjectPlaced, ObjectMoved, ...). Incoming frames are ignored.
//
// Session Integration:
//
// Clients pick a session with the sessionId query parameter when connecting
// to /ws. Events are delivered only to clients of the same session.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	svc := service.NewWorldService(sessions, maps, service.Options{Notifier: hub})
//
// Back-pressure:
//
// BroadcastEvent never blocks. When the hub queue is full the event is
// dropped with a warning, and a client whose send buffer is full is
// disconnected.
package websocket
