package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/tilegrid/game/grid"
	"github.com/wricardo/tilegrid/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Tilegrid",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Tilegrid - MCP Interface

This is a thin client that proxies all requests to the REST API server.

A session hosts one layered tile grid loaded from a map. Tile layers hold
palette indices (-1 = unset), object layers hold rectangular objects that
never overlap.

AVAILABLE TOOLS:
- create_session / list_sessions: manage worlds
- list_layers / view_layer: inspect layers (view_layer prints a tile layer as text)
- get_tile / set_tile / flood_fill: read and edit tiles
- find_path: shortest 4-connected path on a tile layer, avoiding listed indices
- place_object / move_object / walk_object / remove_object / list_objects: objects
- list_maps: maps available for new sessions

Coordinates are 0-based (x = column, y = row).`),
	)

	c.registerTools()
}

func sessionProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func intProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

func pointProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": description,
		"properties": map[string]interface{}{
			"x": map[string]interface{}{"type": "integer"},
			"y": map[string]interface{}{"type": "integer"},
		},
		"required": []string{"x", "y"},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new world session from a map (default map when omitted)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"map_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the map to load (optional, see list_maps)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	// Layers
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_layers",
		Description: "List the layers of a session with kind, visibility and boundaries",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleListLayers)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "view_layer",
		Description: "Render a tile layer as rows of characters (one character per cell)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"layer":      intProp("Tile layer id (default 0)"),
			},
			Required: []string{"session_id"},
		},
	}, c.handleViewLayer)

	// Tiles
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_tile",
		Description: "Read the palette index of one cell (-1 = unset)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"x":          intProp("Column (0-based)"),
				"y":          intProp("Row (0-based)"),
				"layer":      intProp("Tile layer id (default 0)"),
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, c.handleGetTile)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_tile",
		Description: "Write a palette index into one cell (-1 clears it)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"x":          intProp("Column (0-based)"),
				"y":          intProp("Row (0-based)"),
				"layer":      intProp("Tile layer id (default 0)"),
				"index":      intProp("Palette index to write"),
			},
			Required: []string{"session_id", "x", "y", "index"},
		},
	}, c.handleSetTile)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "flood_fill",
		Description: "Replace the 4-connected region around a seed cell that shares its value",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"x":          intProp("Seed column"),
				"y":          intProp("Seed row"),
				"layer":      intProp("Tile layer id (default 0)"),
				"index":      intProp("Palette index to fill with"),
			},
			Required: []string{"session_id", "x", "y", "index"},
		},
	}, c.handleFloodFill)

	// Path search
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "find_path",
		Description: "Find a shortest 4-connected path on a tile layer. The path excludes the start and ends at the destination.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"from":       pointProp("Start cell"),
				"to":         pointProp("Destination cell"),
				"layer":      intProp("Tile layer id (default 0)"),
				"avoid": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "integer"},
					"description": "Palette indices that cannot be entered",
				},
			},
			Required: []string{"session_id", "from", "to"},
		},
	}, c.handleFindPath)

	// Objects
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "place_object",
		Description: "Create an object and place its top-left cell at (x,y) on an object layer",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"layer":      intProp("Object layer id"),
				"x":          intProp("Column of the top-left cell"),
				"y":          intProp("Row of the top-left cell"),
				"width":      intProp("Width in cells (default 1)"),
				"height":     intProp("Height in cells (default 1)"),
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Optional label",
				},
			},
			Required: []string{"session_id", "layer", "x", "y"},
		},
	}, c.handlePlaceObject)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_object",
		Description: "Move an object in one step; refused when another object holds the target cells",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"object_id": map[string]interface{}{
					"type":        "string",
					"description": "Object ID returned by place_object",
				},
				"x":     intProp("Target column"),
				"y":     intProp("Target row"),
				"layer": intProp("Target object layer (default: current layer)"),
			},
			Required: []string{"session_id", "object_id", "x", "y"},
		},
	}, c.handleMoveObject)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "walk_object",
		Description: "Step an object cell by cell along a path (e.g. from find_path); stops at the first blocked step",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"object_id": map[string]interface{}{
					"type":        "string",
					"description": "Object ID",
				},
				"path": map[string]interface{}{
					"type":        "array",
					"items":       pointProp("Next cell"),
					"description": "Cells to step through, each adjacent to the previous",
				},
			},
			Required: []string{"session_id", "object_id", "path"},
		},
	}, c.handleWalkObject)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "remove_object",
		Description: "Remove an object from its layer and the session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"object_id": map[string]interface{}{
					"type":        "string",
					"description": "Object ID",
				},
			},
			Required: []string{"session_id", "object_id"},
		},
	}, c.handleRemoveObject)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_objects",
		Description: "List objects of a session, optionally of one object layer",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"layer":      intProp("Object layer id (optional)"),
			},
			Required: []string{"session_id"},
		},
	}, c.handleListObjects)

	// Maps
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_maps",
		Description: "List maps available for new sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListMaps)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	endpoint := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Argument helpers. JSON numbers arrive as float64.

func argString(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

func argInt(args map[string]interface{}, key string) (int, bool) {
	return toInt(args[key])
}

func toInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	}
	return 0, false
}

func requireInt(args map[string]interface{}, key string) (int, error) {
	v, ok := argInt(args, key)
	if !ok {
		return 0, fmt.Errorf("%s is required and must be an integer", key)
	}
	return v, nil
}

func argPoint(v interface{}) (grid.Point, bool) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return grid.Point{}, false
	}
	x, okX := argInt(m, "x")
	y, okY := argInt(m, "y")
	return grid.Point{X: x, Y: y}, okX && okY
}

func argInts(args map[string]interface{}, key string) []int {
	items, _ := args[key].([]interface{})
	out := make([]int, 0, len(items))
	for _, item := range items {
		if n, ok := toInt(item); ok {
			out = append(out, n)
		}
	}
	return out
}

func sessionPath(sessionID string, parts ...string) string {
	p := "/api/sessions/" + url.PathEscape(sessionID)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	mapName := argString(args, "map_name")

	body := map[string]string{}
	if mapName != "" {
		body["map_name"] = mapName
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var resp struct {
		Sessions []*service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(resp.Sessions) == 0 {
		return mcp.NewToolResultText("No active sessions"), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active sessions (%d):\n", len(resp.Sessions))
	for _, s := range resp.Sessions {
		fmt.Fprintf(&b, "- %s: map=%s %dx%d layers=%d objects=%d\n",
			s.ID, s.MapName, s.Width, s.Height, len(s.Layers), s.ObjectCount)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleListLayers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := argString(request.GetArguments(), "session_id")

	var resp struct {
		Layers []*service.LayerInfo `json:"layers"`
	}
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "layers"), nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatLayers(resp.Layers)), nil
}

func (c *Client) handleViewLayer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	layer, _ := argInt(args, "layer")

	var view service.LayerView
	path := sessionPath(argString(args, "session_id"), "layers", strconv.Itoa(layer), "view")
	if err := c.apiCall(ctx, "GET", path, nil, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatLayerView(&view)), nil
}

func (c *Client) handleGetTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	x, err := requireInt(args, "x")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	y, err := requireInt(args, "y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	layer, _ := argInt(args, "layer")

	query := url.Values{}
	query.Set("x", strconv.Itoa(x))
	query.Set("y", strconv.Itoa(y))
	query.Set("layer", strconv.Itoa(layer))

	var tile service.TileInfo
	path := sessionPath(argString(args, "session_id"), "tiles") + "?" + query.Encode()
	if err := c.apiCall(ctx, "GET", path, nil, &tile); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTile(&tile)), nil
}

// tileParams reads x, y, layer and index for set_tile and flood_fill
func tileParams(args map[string]interface{}) (grid.TileParams, error) {
	var p grid.TileParams
	var err error
	if p.X, err = requireInt(args, "x"); err != nil {
		return p, err
	}
	if p.Y, err = requireInt(args, "y"); err != nil {
		return p, err
	}
	index, err := requireInt(args, "index")
	if err != nil {
		return p, err
	}
	p.Index = grid.Index(index)
	p.Layer, _ = argInt(args, "layer")
	return p, nil
}

func (c *Client) handleSetTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	params, err := tileParams(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var tile service.TileInfo
	if err := c.apiCall(ctx, "PUT", sessionPath(argString(args, "session_id"), "tiles"), params, &tile); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("✓ " + formatTile(&tile)), nil
}

func (c *Client) handleFloodFill(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	params, err := tileParams(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.FloodResult
	if err := c.apiCall(ctx, "POST", sessionPath(argString(args, "session_id"), "flood"), params, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Filled %d cells of layer %d with index %d",
		result.Count, result.Layer, result.Index)), nil
}

func (c *Client) handleFindPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	from, ok := argPoint(args["from"])
	if !ok {
		return mcp.NewToolResultError("from must be an object with integer x and y"), nil
	}
	to, ok := argPoint(args["to"])
	if !ok {
		return mcp.NewToolResultError("to must be an object with integer x and y"), nil
	}

	req := service.PathRequest{From: from, To: to, Avoid: argInts(args, "avoid")}
	req.Layer, _ = argInt(args, "layer")

	var result service.PathResult
	if err := c.apiCall(ctx, "POST", sessionPath(argString(args, "session_id"), "path"), req, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPath(&result)), nil
}

func (c *Client) handlePlaceObject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	var req service.PlaceRequest
	var err error
	if req.Layer, err = requireInt(args, "layer"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if req.X, err = requireInt(args, "x"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if req.Y, err = requireInt(args, "y"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	req.Width, _ = argInt(args, "width")
	req.Height, _ = argInt(args, "height")
	req.Name = argString(args, "name")

	var result service.PlaceResult
	if err := c.apiCall(ctx, "POST", sessionPath(argString(args, "session_id"), "objects"), req, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPlaceResult(&result)), nil
}

func (c *Client) handleMoveObject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	var req service.MoveRequest
	var err error
	if req.X, err = requireInt(args, "x"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if req.Y, err = requireInt(args, "y"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if layer, ok := argInt(args, "layer"); ok {
		req.Layer = &layer
	}

	var result service.PlaceResult
	path := sessionPath(argString(args, "session_id"), "objects", url.PathEscape(argString(args, "object_id")))
	if err := c.apiCall(ctx, "PUT", path, req, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPlaceResult(&result)), nil
}

func (c *Client) handleWalkObject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	items, _ := args["path"].([]interface{})
	steps := make([]grid.Point, 0, len(items))
	for i, item := range items {
		p, ok := argPoint(item)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("path[%d] must be an object with integer x and y", i)), nil
		}
		steps = append(steps, p)
	}

	var result service.WalkResult
	path := sessionPath(argString(args, "session_id"), "objects", url.PathEscape(argString(args, "object_id")), "walk")
	if err := c.apiCall(ctx, "POST", path, map[string]interface{}{"path": steps}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatWalkResult(&result)), nil
}

func (c *Client) handleRemoveObject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	objectID := argString(args, "object_id")

	path := sessionPath(argString(args, "session_id"), "objects", url.PathEscape(objectID))
	if err := c.apiCall(ctx, "DELETE", path, nil, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Removed object %s", objectID)), nil
}

func (c *Client) handleListObjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	path := sessionPath(argString(args, "session_id"), "objects")
	if layer, ok := argInt(args, "layer"); ok {
		path += "?layer=" + strconv.Itoa(layer)
	}

	var resp struct {
		Objects []*grid.Object `json:"objects"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(resp.Objects) == 0 {
		return mcp.NewToolResultText("No objects"), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Objects (%d):\n", len(resp.Objects))
	for _, o := range resp.Objects {
		b.WriteString("- " + formatObject(o) + "\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleListMaps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var maps []*service.MapInfo
	if err := c.apiCall(ctx, "GET", "/api/maps", nil, &maps); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(maps) == 0 {
		return mcp.NewToolResultText("No maps available"), nil
	}

	var b strings.Builder
	b.WriteString("Available maps:\n")
	for _, m := range maps {
		fmt.Fprintf(&b, "- %s: %dx%d, %d layers", m.MapID, m.Width, m.Height, m.Layers)
		if m.Tileset != "" {
			fmt.Fprintf(&b, ", tileset %s", m.Tileset)
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

// Formatting

func formatSessionInfo(s *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\nMap: %s\n", s.ID, s.MapName)
	if s.Bounded {
		fmt.Fprintf(&b, "Size: %dx%d\n", s.Width, s.Height)
	} else {
		b.WriteString("Size: unbounded\n")
	}
	b.WriteString(formatLayers(s.Layers))
	return b.String()
}

func formatLayers(layers []*service.LayerInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Layers (%d):\n", len(layers))
	for _, l := range layers {
		visibility := "visible"
		if !l.Visible {
			visibility = "hidden"
		}
		fmt.Fprintf(&b, "  [%d] %s, %s", l.ID, l.Kind, visibility)
		if l.Boundaries != nil {
			r := l.Boundaries
			fmt.Fprintf(&b, ", bounds (%d,%d)-(%d,%d), %d tiles", r.MinX, r.MinY, r.MaxX, r.MaxY, l.Cells)
		}
		if l.DefaultIndex != nil {
			fmt.Fprintf(&b, ", default %d", *l.DefaultIndex)
		}
		if l.Kind == grid.ObjectKind {
			fmt.Fprintf(&b, ", %d objects", l.Objects)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatLayerView(v *service.LayerView) string {
	var b strings.Builder
	r := v.Boundaries
	fmt.Fprintf(&b, "Layer %d, cells (%d,%d)-(%d,%d):\n", v.Layer, r.MinX, r.MinY, r.MaxX, r.MaxY)
	for _, row := range v.Rows {
		b.WriteString(row + "\n")
	}
	fmt.Fprintf(&b, "Legend: %s", v.Legend)
	return b.String()
}

func formatTile(t *service.TileInfo) string {
	if t.Unset {
		return fmt.Sprintf("Tile (%d,%d) on layer %d: unset", t.X, t.Y, t.Layer)
	}
	return fmt.Sprintf("Tile (%d,%d) on layer %d: index %d", t.X, t.Y, t.Layer, t.Index)
}

func formatPath(r *service.PathResult) string {
	if !r.Reachable {
		return fmt.Sprintf("No path from (%d,%d) to (%d,%d)", r.From.X, r.From.Y, r.To.X, r.To.Y)
	}
	if r.Length == 0 {
		return fmt.Sprintf("Already at (%d,%d)", r.To.X, r.To.Y)
	}

	cells := make([]string, 0, len(r.Path))
	for _, p := range r.Path {
		cells = append(cells, fmt.Sprintf("(%d,%d)", p.X, p.Y))
	}
	return fmt.Sprintf("Path from (%d,%d) to (%d,%d), %d steps:\n%s",
		r.From.X, r.From.Y, r.To.X, r.To.Y, r.Length, strings.Join(cells, " "))
}

func formatObject(o *grid.Object) string {
	label := o.ID
	if o.Name != "" {
		label = fmt.Sprintf("%s (%s)", o.Name, o.ID)
	}
	if !o.Placed() {
		return fmt.Sprintf("%s %dx%d, not placed", label, o.Width, o.Height)
	}
	return fmt.Sprintf("%s %dx%d at (%d,%d) on layer %d", label, o.Width, o.Height, o.X, o.Y, o.Layer)
}

func formatPlaceResult(r *service.PlaceResult) string {
	if !r.Placed {
		msg := "✗ Not placed"
		if r.Message != "" {
			msg += ": " + r.Message
		}
		return msg
	}

	msg := "✓ " + formatObject(r.Object)
	if r.Previous != nil {
		msg += fmt.Sprintf(" (from (%d,%d))", r.Previous.X, r.Previous.Y)
	}
	return msg
}

func formatWalkResult(r *service.WalkResult) string {
	var b strings.Builder
	if r.Completed {
		b.WriteString("✓ Walk completed\n")
	} else {
		b.WriteString("✗ Walk stopped\n")
	}
	fmt.Fprintf(&b, "Steps: %d/%d\n", r.StepsTaken, r.RequestedSteps)
	if r.StopReasonCode != "" && r.StoppedAt != nil {
		fmt.Fprintf(&b, "Stopped: %s at (%d,%d)\n", r.StopReasonCode, r.StoppedAt.X, r.StoppedAt.Y)
	}
	if r.Truncated {
		fmt.Fprintf(&b, "Truncated to %d steps\n", r.Limit)
	}
	if r.Object != nil {
		b.WriteString("Object: " + formatObject(r.Object))
	}
	return b.String()
}
