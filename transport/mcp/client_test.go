package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/tilegrid/game/grid"
	"github.com/wricardo/tilegrid/game/service"
)

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080"
	client := NewClient(baseURL)

	if client == nil {
		t.Fatal("Expected client to be created")
	}

	if client.baseURL != baseURL {
		t.Errorf("Expected baseURL %s, got %s", baseURL, client.baseURL)
	}

	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}

	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "ab12", "width": 10})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]interface{}
	if err := client.apiCall(context.Background(), "GET", "/api/sessions/ab12", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}

	if response["id"] != "ab12" {
		t.Errorf("Expected id ab12, got %v", response["id"])
	}
}

func TestClient_apiCall_Error(t *testing.T) {
	client := NewClient("http://invalid-url-that-does-not-exist:9999")

	if err := client.apiCall(context.Background(), "GET", "/api", nil, nil); err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	err := client.apiCall(context.Background(), "GET", "/api", nil, nil)
	if err == nil {
		t.Fatal("Expected error for HTTP 500 response")
	}

	if !strings.Contains(err.Error(), "API error") {
		t.Errorf("Expected 'API error' in error message, got: %v", err)
	}
}

func TestClient_apiCall_ErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "get tile: (9,9) outside 5x5 grid: out of bounds"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	err := client.apiCall(context.Background(), "GET", "/api", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "out of bounds") {
		t.Errorf("Expected the API error message, got: %v", err)
	}
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("Expected result, got nil")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func TestClient_createSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/sessions" {
			t.Errorf("Expected POST /api/sessions, got %s %s", r.Method, r.URL.Path)
		}

		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["map_name"] != "islands" {
			t.Errorf("Expected map_name islands, got %v", body)
		}

		resp := service.SessionInfo{
			ID:      "ab12",
			MapName: "islands",
			Width:   10,
			Height:  8,
			Bounded: true,
			Layers: []*service.LayerInfo{
				{ID: 0, Kind: grid.TileKind, Visible: true, Boundaries: &grid.Rect{MaxX: 9, MaxY: 7}, Cells: 80},
				{ID: 1, Kind: grid.ObjectKind, Visible: true},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handleCreateSession(context.Background(), callRequest("create_session", map[string]interface{}{"map_name": "islands"}))
	if err != nil {
		t.Fatalf("createSession failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"Session: ab12", "Map: islands", "Size: 10x8", "[0] tile, visible", "[1] object"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}
}

func TestClient_findPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/sessions/ab12/path" {
			t.Errorf("Expected POST /api/sessions/ab12/path, got %s %s", r.Method, r.URL.Path)
		}

		var req service.PathRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.From != (grid.Point{X: 0, Y: 0}) || req.To != (grid.Point{X: 2, Y: 1}) {
			t.Errorf("Unexpected endpoints %+v", req)
		}
		if len(req.Avoid) != 2 || req.Avoid[0] != 1 || req.Avoid[1] != 4 {
			t.Errorf("Expected avoid [1 4], got %v", req.Avoid)
		}

		json.NewEncoder(w).Encode(service.PathResult{
			From:      req.From,
			To:        req.To,
			Path:      []grid.Point{{X: 1}, {X: 2}, {X: 2, Y: 1}},
			Length:    3,
			Reachable: true,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	args := map[string]interface{}{
		"session_id": "ab12",
		"from":       map[string]interface{}{"x": float64(0), "y": float64(0)},
		"to":         map[string]interface{}{"x": float64(2), "y": float64(1)},
		"avoid":      []interface{}{float64(1), float64(4)},
	}
	result, err := client.handleFindPath(context.Background(), callRequest("find_path", args))
	if err != nil {
		t.Fatalf("findPath failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "3 steps") || !strings.Contains(text, "(1,0) (2,0) (2,1)") {
		t.Errorf("Unexpected path output: %s", text)
	}
}

func TestClient_findPath_BadArguments(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleFindPath(context.Background(), callRequest("find_path", map[string]interface{}{
		"session_id": "ab12",
		"from":       "0,0",
	}))
	if err != nil {
		t.Fatalf("findPath returned error: %v", err)
	}
	if !result.IsError {
		t.Error("Expected a tool error for malformed coordinates")
	}
}

func TestClient_setTile_RequiresIndex(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleSetTile(context.Background(), callRequest("set_tile", map[string]interface{}{
		"session_id": "ab12",
		"x":          float64(1),
		"y":          float64(1),
	}))
	if err != nil {
		t.Fatalf("setTile returned error: %v", err)
	}
	if !result.IsError {
		t.Error("Expected a tool error without index")
	}
	if text := resultText(t, result); !strings.Contains(text, "index") {
		t.Errorf("Expected error to name the index, got: %s", text)
	}
}

func TestClient_placeObject_Refused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(service.PlaceResult{
			Placed:  false,
			Object:  &grid.Object{ID: "x", Layer: grid.NoLayer},
			Message: "footprint occupied",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handlePlaceObject(context.Background(), callRequest("place_object", map[string]interface{}{
		"session_id": "ab12",
		"layer":      float64(1),
		"x":          float64(2),
		"y":          float64(2),
	}))
	if err != nil {
		t.Fatalf("placeObject failed: %v", err)
	}

	if text := resultText(t, result); text != "✗ Not placed: footprint occupied" {
		t.Errorf("Unexpected output: %s", text)
	}
}

func TestClient_walkObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sessions/ab12/objects/obj-1/walk" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}

		var body struct {
			Path []grid.Point `json:"path"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if len(body.Path) != 2 {
			t.Errorf("Expected 2 steps, got %v", body.Path)
		}

		json.NewEncoder(w).Encode(service.WalkResult{
			Object:         &grid.Object{ID: "obj-1", Width: 1, Height: 1, X: 1, Y: 0, Layer: 1},
			RequestedSteps: 2,
			StepsTaken:     1,
			Steps:          body.Path[:1],
			StoppedAt:      &body.Path[1],
			StopReasonCode: "blocked",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handleWalkObject(context.Background(), callRequest("walk_object", map[string]interface{}{
		"session_id": "ab12",
		"object_id":  "obj-1",
		"path": []interface{}{
			map[string]interface{}{"x": float64(1), "y": float64(0)},
			map[string]interface{}{"x": float64(2), "y": float64(0)},
		},
	}))
	if err != nil {
		t.Fatalf("walkObject failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"✗ Walk stopped", "Steps: 1/2", "Stopped: blocked at (2,0)", "at (1,0) on layer 1"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in output, got: %s", want, text)
		}
	}
}

func TestFormatLayerView(t *testing.T) {
	view := &service.LayerView{
		Layer:      0,
		Boundaries: grid.Rect{MaxX: 2, MaxY: 1},
		Rows:       []string{"1.1", "000"},
		Legend:     service.GlyphLegend,
	}

	result := formatLayerView(view)

	for _, want := range []string{"Layer 0, cells (0,0)-(2,1)", "1.1\n000\n", "Legend: . = unset"} {
		if !strings.Contains(result, want) {
			t.Errorf("Expected %q in formatted output, got: %s", want, result)
		}
	}
}

func TestFormatPath_Unreachable(t *testing.T) {
	result := formatPath(&service.PathResult{From: grid.Point{X: 1, Y: 1}, To: grid.Point{X: 4, Y: 4}})

	if result != "No path from (1,1) to (4,4)" {
		t.Errorf("Unexpected output: %s", result)
	}
}

func TestFormatTile(t *testing.T) {
	if got := formatTile(&service.TileInfo{X: 1, Y: 2, Index: grid.Unset, Unset: true}); !strings.Contains(got, "unset") {
		t.Errorf("Expected unset tile, got: %s", got)
	}
	if got := formatTile(&service.TileInfo{X: 1, Y: 2, Layer: 1, Index: 3}); got != "Tile (1,2) on layer 1: index 3" {
		t.Errorf("Unexpected output: %s", got)
	}
}

func TestArgInt(t *testing.T) {
	args := map[string]interface{}{"f": float64(3), "i": 4, "s": "5", "bad": "x"}

	tests := []struct {
		key  string
		want int
		ok   bool
	}{
		{"f", 3, true},
		{"i", 4, true},
		{"s", 5, true},
		{"bad", 0, false},
		{"missing", 0, false},
	}

	for _, tt := range tests {
		got, ok := argInt(args, tt.key)
		if got != tt.want || ok != tt.ok {
			t.Errorf("argInt(%s) = %d, %v; want %d, %v", tt.key, got, ok, tt.want, tt.ok)
		}
	}
}
