package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/inconshreveable/log15/v3"

	"github.com/wricardo/tilegrid/game/grid"
	"github.com/wricardo/tilegrid/game/service"
	"github.com/wricardo/tilegrid/transport/websocket"
)

var logger = log15.New("module", "api")

// Server represents the REST API server
type Server struct {
	service service.WorldService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil, which disables /ws.
func NewServer(worldService service.WorldService, hub *websocket.Hub) *Server {
	s := &Server{
		service: worldService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Layers
	api.HandleFunc("/sessions/{id}/layers", s.handleListLayers).Methods("GET")
	api.HandleFunc("/sessions/{id}/layers", s.handleCreateLayer).Methods("POST")
	api.HandleFunc("/sessions/{id}/layers/{layer}", s.handleRemoveLayer).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/layers/{layer}/visibility", s.handleSetVisibility).Methods("POST")
	api.HandleFunc("/sessions/{id}/layers/{layer}/view", s.handleViewLayer).Methods("GET")

	// Tiles
	api.HandleFunc("/sessions/{id}/tiles", s.handleGetTile).Methods("GET")
	api.HandleFunc("/sessions/{id}/tiles", s.handleSetTile).Methods("PUT")
	api.HandleFunc("/sessions/{id}/flood", s.handleFlood).Methods("POST")

	// Path search
	api.HandleFunc("/sessions/{id}/path", s.handleFindPath).Methods("POST")

	// Objects
	api.HandleFunc("/sessions/{id}/objects", s.handleListObjects).Methods("GET")
	api.HandleFunc("/sessions/{id}/objects", s.handlePlaceObject).Methods("POST")
	api.HandleFunc("/sessions/{id}/objects/{oid}", s.handleMoveObject).Methods("PUT")
	api.HandleFunc("/sessions/{id}/objects/{oid}", s.handleRemoveObject).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/objects/{oid}/walk", s.handleWalk).Methods("POST")
	api.HandleFunc("/sessions/{id}/hit-test", s.handleHitTest).Methods("GET")

	// Viewport
	api.HandleFunc("/sessions/{id}/viewport", s.handleSetViewport).Methods("PUT")

	// Maps
	api.HandleFunc("/maps", s.handleListMaps).Methods("GET")
	api.HandleFunc("/maps", s.handleSaveMap).Methods("POST")
	api.HandleFunc("/maps/{name}", s.handleGetMap).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service and grid errors to HTTP statuses
func respondServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "err", err)
	}
	respondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, grid.ErrIndexOutOfRange),
		errors.Is(err, grid.ErrNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrObjectNotFound),
		errors.Is(err, service.ErrMapNotFound):
		return http.StatusNotFound
	case errors.Is(err, grid.ErrOutOfBounds),
		errors.Is(err, grid.ErrMissingParameter),
		errors.Is(err, grid.ErrNotTiledMap),
		errors.Is(err, service.ErrInvalidMap):
		return http.StatusBadRequest
	case errors.Is(err, grid.ErrInvalidOperation),
		errors.Is(err, service.ErrViewTooLarge):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes a JSON request body, answering 400 on failure
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// intParam reads an integer from the query string. A missing parameter
// yields def, or an error when required.
func intParam(r *http.Request, name string, def int, required bool) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		if required {
			return 0, fmt.Errorf("query parameter %s: %w", name, grid.ErrMissingParameter)
		}
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("query parameter %s=%q is not an integer: %w", name, raw, grid.ErrMissingParameter)
	}
	return v, nil
}

// layerVar reads the {layer} path variable
func layerVar(w http.ResponseWriter, r *http.Request) (int, bool) {
	layer, err := strconv.Atoi(mux.Vars(r)["layer"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "layer must be an integer")
		return 0, false
	}
	return layer, true
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MapName string `json:"map_name,omitempty"`
	}

	if r.Body != nil {
		// An empty body selects the default map
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	session, err := s.service.CreateSession(r.Context(), req.MapName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	// Hub clients are keyed by the canonical id, not the spelling in the URL
	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if err := s.service.DeleteSession(r.Context(), info.ID); err != nil {
		respondServiceError(w, err)
		return
	}
	if s.hub != nil {
		s.hub.CloseSession(info.ID)
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", info.ID),
	})
}

// Layer Handlers

func (s *Server) handleListLayers(w http.ResponseWriter, r *http.Request) {
	layers, err := s.service.ListLayers(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(layers),
		"layers": layers,
	})
}

func (s *Server) handleCreateLayer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind         grid.LayerKind `json:"kind"`
		DefaultIndex *int           `json:"default_index,omitempty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	defaultIndex := grid.Unset
	if req.DefaultIndex != nil {
		defaultIndex = *req.DefaultIndex
	}

	layer, err := s.service.CreateLayer(r.Context(), mux.Vars(r)["id"], req.Kind, defaultIndex)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, layer)
}

func (s *Server) handleRemoveLayer(w http.ResponseWriter, r *http.Request) {
	layer, ok := layerVar(w, r)
	if !ok {
		return
	}

	if err := s.service.RemoveLayer(r.Context(), mux.Vars(r)["id"], layer); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Layer %d removed", layer),
	})
}

func (s *Server) handleSetVisibility(w http.ResponseWriter, r *http.Request) {
	layer, ok := layerVar(w, r)
	if !ok {
		return
	}

	var req struct {
		Visible *bool `json:"visible"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Visible == nil {
		respondError(w, http.StatusBadRequest, "visible is required")
		return
	}

	info, err := s.service.SetLayerVisibility(r.Context(), mux.Vars(r)["id"], layer, *req.Visible)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleViewLayer(w http.ResponseWriter, r *http.Request) {
	layer, ok := layerVar(w, r)
	if !ok {
		return
	}

	view, err := s.service.ViewLayer(r.Context(), mux.Vars(r)["id"], layer)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// Tile Handlers

func (s *Server) handleGetTile(w http.ResponseWriter, r *http.Request) {
	x, err := intParam(r, "x", 0, true)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	y, err := intParam(r, "y", 0, true)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	layer, err := intParam(r, "layer", 0, false)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	tile, err := s.service.GetTile(r.Context(), mux.Vars(r)["id"], x, y, layer)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, tile)
}

func (s *Server) handleSetTile(w http.ResponseWriter, r *http.Request) {
	var params grid.TileParams
	if !decodeBody(w, r, &params) {
		return
	}

	tile, err := s.service.SetTile(r.Context(), mux.Vars(r)["id"], params)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, tile)
}

func (s *Server) handleFlood(w http.ResponseWriter, r *http.Request) {
	var params grid.TileParams
	if !decodeBody(w, r, &params) {
		return
	}

	result, err := s.service.Flood(r.Context(), mux.Vars(r)["id"], params)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Path Handler

func (s *Server) handleFindPath(w http.ResponseWriter, r *http.Request) {
	var req service.PathRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.service.FindPath(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Object Handlers

func (s *Server) handleListObjects(w http.ResponseWriter, r *http.Request) {
	layer, err := intParam(r, "layer", grid.NoLayer, false)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	objects, err := s.service.ListObjects(r.Context(), mux.Vars(r)["id"], layer)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(objects),
		"objects": objects,
	})
}

func (s *Server) handlePlaceObject(w http.ResponseWriter, r *http.Request) {
	var req service.PlaceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.service.PlaceObject(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	status := http.StatusOK
	if result.Placed {
		status = http.StatusCreated
	}
	respondJSON(w, status, result)
}

func (s *Server) handleMoveObject(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req service.MoveRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.service.MoveObject(r.Context(), vars["id"], vars["oid"], req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleWalk(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req struct {
		Path []grid.Point `json:"path"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.service.MoveAlong(r.Context(), vars["id"], vars["oid"], req.Path)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	stop := result.StopReasonCode
	if stop == "" && result.Truncated {
		stop = "truncated"
	}
	logger.Info("walk", "session", vars["id"], "object", vars["oid"],
		"steps", fmt.Sprintf("%d/%d", result.StepsTaken, result.RequestedSteps), "stop", stop,
		"end", fmt.Sprintf("%d,%d", result.Object.X, result.Object.Y))

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleRemoveObject(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := s.service.RemoveObject(r.Context(), vars["id"], vars["oid"]); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Object %s removed", vars["oid"]),
	})
}

func (s *Server) handleHitTest(w http.ResponseWriter, r *http.Request) {
	var req service.HitTestRequest
	var err error
	for _, p := range []struct {
		name     string
		dst      *int
		def      int
		required bool
	}{
		{"layer", &req.Layer, 0, true},
		{"x", &req.X, 0, true},
		{"y", &req.Y, 0, true},
		{"width", &req.Width, 1, false},
		{"height", &req.Height, 1, false},
	} {
		if *p.dst, err = intParam(r, p.name, p.def, p.required); err != nil {
			respondServiceError(w, err)
			return
		}
	}
	req.IgnoreID = r.URL.Query().Get("ignore")

	result, err := s.service.HitTest(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Viewport Handler

func (s *Server) handleSetViewport(w http.ResponseWriter, r *http.Request) {
	var req grid.Point
	if !decodeBody(w, r, &req) {
		return
	}

	viewport, err := s.service.SetViewport(r.Context(), mux.Vars(r)["id"], req.X, req.Y)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"viewport": viewport,
	})
}

// Map Handlers

func (s *Server) handleListMaps(w http.ResponseWriter, r *http.Request) {
	maps, err := s.service.ListMaps(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, maps)
}

func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	m, err := s.service.LoadMap(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, m)
}

func (s *Server) handleSaveMap(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string          `json:"name"`
		Map  json.RawMessage `json:"map"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Map name is required")
		return
	}

	m, err := grid.DecodeTiled(req.Map)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid map: %v", err))
		return
	}

	if err := s.service.SaveMap(r.Context(), req.Name, m); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Map saved successfully",
		"map_id":  req.Name,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "websocket disabled", http.StatusServiceUnavailable)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	// Events are broadcast under the canonical id
	s.hub.ServeWS(w, r, info.ID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
