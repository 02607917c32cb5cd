// Command explorer drives a tilegrid server over its REST API. It places an
// explorer object on a map and walks it to every reachable cell, planning
// each leg with the server's path search, then reports the coverage.
//
// The session id is saved to .session so later runs continue the same world.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/inconshreveable/log15/v3"

	"github.com/wricardo/tilegrid/game/grid"
	"github.com/wricardo/tilegrid/game/service"
)

const sessionFile = ".session"

var logger = log15.New("module", "explorer")

func main() {
	serverURL := flag.String("url", "http://localhost:8080", "Tilegrid server URL")
	mapName := flag.String("map", "", "Map to create the session on (default map when empty)")
	continueSession := flag.String("continue", "", "Explore an existing session by ID")
	layer := flag.Int("layer", 0, "Tile layer to plan paths on")
	objectLayer := flag.Int("object-layer", grid.NoLayer, "Object layer for the explorer (first object layer when unset)")
	avoid := flag.String("avoid", "", "Comma separated palette indices the explorer may not enter")
	maxWalks := flag.Int("max-walks", 1000, "Maximum walks (0 = until every cell is tried)")
	verbose := flag.Bool("v", false, "Verbose output")
	delayMs := flag.Int("delay", 0, "Delay between walks in milliseconds (0 = no delay)")
	flag.Parse()

	level := log15.LvlInfo
	if *verbose {
		level = log15.LvlDebug
	}
	log15.Root().SetHandler(log15.LvlFilterHandler(level, log15.StreamHandler(os.Stderr, log15.LogfmtFormat())))

	avoidIndices, err := parseIndices(*avoid)
	if err != nil {
		logger.Crit("invalid -avoid", "err", err)
		os.Exit(2)
	}

	logger.Info("connecting", "url", *serverURL)
	client := NewClient(*serverURL)

	info, err := openSession(client, *continueSession, *mapName)
	if err != nil {
		logger.Crit("failed to open session", "err", err)
		os.Exit(1)
	}

	report, err := explore(client, info, Options{
		Layer:       *layer,
		ObjectLayer: *objectLayer,
		Avoid:       avoidIndices,
		MaxWalks:    *maxWalks,
		Delay:       time.Duration(*delayMs) * time.Millisecond,
		Verbose:     *verbose,
	})
	if report != nil {
		printReport(report, client.SessionID())
	}
	if err != nil {
		logger.Crit("exploration failed", "err", err)
		os.Exit(1)
	}
}

// openSession resumes the requested or saved session, falling back to a
// new one that is saved for the next run
func openSession(client *Client, sessionID, mapName string) (*service.SessionInfo, error) {
	if sessionID == "" {
		if data, err := os.ReadFile(sessionFile); err == nil {
			sessionID = string(bytes.TrimSpace(data))
		}
	}

	if sessionID != "" {
		info, err := client.Resume(sessionID)
		if err == nil {
			logger.Info("session resumed", "session", info.ID, "map", info.MapName, "size", fmt.Sprintf("%dx%d", info.Width, info.Height))
			return info, nil
		}
		logger.Warn("failed to resume session (may be expired), creating a new one", "session", sessionID, "err", err)
	}

	info, err := client.CreateSession(mapName)
	if err != nil {
		return nil, err
	}
	logger.Info("session created", "session", info.ID, "map", info.MapName, "size", fmt.Sprintf("%dx%d", info.Width, info.Height))

	if err := os.WriteFile(sessionFile, []byte(info.ID), 0644); err != nil {
		logger.Warn("failed to save session ID", "err", err)
	}
	return info, nil
}

func parseIndices(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid index %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

func printReport(r *Report, sessionID string) {
	coverage := 0.0
	if r.Total > 0 {
		coverage = 100 * float64(r.Visited) / float64(r.Total)
	}
	fmt.Printf("Session: %s\n", sessionID)
	fmt.Printf("Start: (%d,%d)\n", r.Start.X, r.Start.Y)
	fmt.Printf("Walks: %d, Steps: %d\n", r.Walks, r.Steps)
	fmt.Printf("Unreachable targets: %d, Blocked walks: %d\n", r.Unreachable, r.Blocked)
	fmt.Printf("Visited: %d/%d cells (%.1f%%)\n", r.Visited, r.Total, coverage)
}
