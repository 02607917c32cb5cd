package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wricardo/tilegrid/game/grid"
	"github.com/wricardo/tilegrid/game/service"
)

// Client drives one session of a tilegrid server over the REST API
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SessionID returns the session the client is bound to
func (c *Client) SessionID() string {
	return c.sessionID
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
}

// do sends body as JSON and decodes the response into out. Error statuses
// are returned with the server's error message.
func (c *Client) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// CreateSession starts a session on mapName, or on the default map when empty
func (c *Client) CreateSession(mapName string) (*service.SessionInfo, error) {
	var body interface{}
	if mapName != "" {
		body = map[string]string{"map_name": mapName}
	}

	var info service.SessionInfo
	if err := c.do(http.MethodPost, "/api/sessions", body, &info); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	c.sessionID = info.ID
	return &info, nil
}

// Resume binds the client to an existing session
func (c *Client) Resume(sessionID string) (*service.SessionInfo, error) {
	c.sessionID = sessionID
	return c.GetSession()
}

func (c *Client) GetSession() (*service.SessionInfo, error) {
	var info service.SessionInfo
	if err := c.do(http.MethodGet, c.sessionPath(""), nil, &info); err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &info, nil
}

// CreateObjectLayer appends an object layer and returns its id
func (c *Client) CreateObjectLayer() (int, error) {
	var layer service.LayerInfo
	if err := c.do(http.MethodPost, c.sessionPath("/layers"), map[string]string{"kind": "object"}, &layer); err != nil {
		return 0, fmt.Errorf("create object layer: %w", err)
	}
	return layer.ID, nil
}

func (c *Client) PlaceObject(req service.PlaceRequest) (*service.PlaceResult, error) {
	var result service.PlaceResult
	if err := c.do(http.MethodPost, c.sessionPath("/objects"), req, &result); err != nil {
		return nil, fmt.Errorf("place object: %w", err)
	}
	return &result, nil
}

func (c *Client) FindPath(req service.PathRequest) (*service.PathResult, error) {
	var result service.PathResult
	if err := c.do(http.MethodPost, c.sessionPath("/path"), req, &result); err != nil {
		return nil, fmt.Errorf("find path: %w", err)
	}
	return &result, nil
}

// Walk steps an object along path; the walk stops at the first cell it
// cannot enter
func (c *Client) Walk(objectID string, path []grid.Point) (*service.WalkResult, error) {
	var result service.WalkResult
	body := map[string]interface{}{"path": path}
	if err := c.do(http.MethodPost, c.sessionPath("/objects/"+url.PathEscape(objectID)+"/walk"), body, &result); err != nil {
		return nil, fmt.Errorf("walk: %w", err)
	}
	return &result, nil
}
