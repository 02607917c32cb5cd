package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/zyedidia/generic/mapset"

	"github.com/wricardo/tilegrid/game/grid"
	"github.com/wricardo/tilegrid/game/service"
)

// Options tune an exploration run
type Options struct {
	Layer       int   // tile layer paths are planned on
	ObjectLayer int   // object layer the explorer is placed on, grid.NoLayer picks one
	Avoid       []int // palette indices the explorer may not enter
	MaxWalks    int
	Delay       time.Duration
	Verbose     bool
}

// Report summarizes an exploration run
type Report struct {
	Start       grid.Point
	Walks       int // walks sent to the server
	Steps       int // cells entered over all walks
	Unreachable int // targets with no path
	Blocked     int // walks stopped by an occupied cell
	Visited     int // distinct cells the explorer stood on
	Total       int // cells in the tile layer's boundaries
}

var errNoFreeCell = errors.New("no free cell to place the explorer")

// explore places an explorer object and walks it to every cell of the
// tile layer in sweep order, planning each leg with the server's path
// search. Unreachable targets and targets behind other objects are skipped.
func explore(c *Client, info *service.SessionInfo, opts Options) (*Report, error) {
	bounds, err := tileBounds(info, opts.Layer)
	if err != nil {
		return nil, err
	}

	objectLayer := opts.ObjectLayer
	if objectLayer == grid.NoLayer {
		if objectLayer, err = pickObjectLayer(c, info); err != nil {
			return nil, err
		}
	}

	sweep := NewSweep(bounds)
	report := &Report{Total: sweep.Len()}
	seen := mapset.New[grid.Point]()
	stand := func(p grid.Point) {
		sweep.Visit(p)
		if !seen.Has(p) {
			seen.Put(p)
			report.Visited++
		}
	}

	explorer, err := placeExplorer(c, sweep, objectLayer, opts)
	if err != nil {
		return nil, err
	}
	pos := grid.Point{X: explorer.X, Y: explorer.Y}
	report.Start = pos
	stand(pos)
	logger.Info("explorer placed", "object", explorer.ID, "layer", objectLayer, "x", pos.X, "y", pos.Y)

	for opts.MaxWalks <= 0 || report.Walks < opts.MaxWalks {
		target, ok := sweep.Next()
		if !ok {
			break
		}

		path, err := c.FindPath(service.PathRequest{Layer: opts.Layer, From: pos, To: target, Avoid: opts.Avoid})
		if err != nil {
			return report, err
		}
		if !path.Reachable || len(path.Path) == 0 {
			report.Unreachable++
			sweep.Visit(target)
			continue
		}

		walk, err := c.Walk(explorer.ID, path.Path)
		if err != nil {
			return report, err
		}
		report.Walks++
		report.Steps += walk.StepsTaken
		for _, step := range walk.Steps {
			stand(step)
		}
		pos = grid.Point{X: walk.Object.X, Y: walk.Object.Y}

		if walk.StopReasonCode != "" {
			report.Blocked++
			sweep.Visit(target)
			if opts.Verbose {
				logger.Debug("walk stopped", "target", fmt.Sprintf("%d,%d", target.X, target.Y), "reason", walk.StopReasonCode)
			}
		}

		if opts.Verbose && report.Walks%50 == 0 {
			logger.Info("progress", "walks", report.Walks, "visited", report.Visited, "total", report.Total)
		}
		if opts.Delay > 0 {
			time.Sleep(opts.Delay)
		}
	}

	return report, nil
}

func tileBounds(info *service.SessionInfo, layer int) (grid.Rect, error) {
	for _, l := range info.Layers {
		if l.ID != layer {
			continue
		}
		if l.Kind != grid.TileKind || l.Boundaries == nil {
			return grid.Rect{}, fmt.Errorf("layer %d is not a tile layer", layer)
		}
		return *l.Boundaries, nil
	}
	return grid.Rect{}, fmt.Errorf("layer %d not found in session %s", layer, info.ID)
}

// pickObjectLayer returns the first object layer of the session, creating
// one when the map has none
func pickObjectLayer(c *Client, info *service.SessionInfo) (int, error) {
	for _, l := range info.Layers {
		if l.Kind == grid.ObjectKind {
			return l.ID, nil
		}
	}
	return c.CreateObjectLayer()
}

// placeExplorer puts the explorer on the first cell in sweep order that is
// passable and free. Cells that fail either test are marked visited.
func placeExplorer(c *Client, sweep *Sweep, objectLayer int, opts Options) (*grid.Object, error) {
	for {
		p, ok := sweep.Next()
		if !ok {
			return nil, errNoFreeCell
		}

		// A zero-length path reports whether the cell itself can be entered
		probe, err := c.FindPath(service.PathRequest{Layer: opts.Layer, From: p, To: p, Avoid: opts.Avoid})
		if err != nil {
			return nil, err
		}
		if !probe.Reachable {
			sweep.Visit(p)
			continue
		}

		result, err := c.PlaceObject(service.PlaceRequest{Name: "explorer", Layer: objectLayer, X: p.X, Y: p.Y})
		if err != nil {
			return nil, err
		}
		if result.Placed {
			return result.Object, nil
		}
		sweep.Visit(p)
	}
}
