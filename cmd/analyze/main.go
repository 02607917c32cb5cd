// Command analyze inspects Tiled map documents from the command line. It
// validates documents the way the server's importer would, counts the
// connected regions of each tile value, and runs path searches.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/zyedidia/generic/mapset"

	"github.com/wricardo/tilegrid/game/grid"
)

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:   "analyze",
		Usage:  "inspect Tiled map documents",
		Writer: w,
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "check that map documents can be imported",
				ArgsUsage: "FILE...",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					files := cmd.Args().Slice()
					if len(files) == 0 {
						return cli.Exit("validate: at least one FILE is required", 2)
					}
					if !validateFiles(cmd.Root().Writer, files) {
						return cli.Exit("❌ Some maps have errors", 1)
					}
					return nil
				},
			},
			{
				Name:      "regions",
				Usage:     "count the 4-connected regions of each tile value",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "layer", Usage: "tile layer id"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					g, err := loadGrid(cmd.Args().First())
					if err != nil {
						return err
					}
					stats, err := countRegions(g, int(cmd.Int("layer")))
					if err != nil {
						return err
					}
					printRegions(cmd.Root().Writer, stats)
					return nil
				},
			},
			{
				Name:      "path",
				Usage:     "find a shortest path between two cells",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from", Usage: "start cell as x,y", Required: true},
					&cli.StringFlag{Name: "to", Usage: "destination cell as x,y", Required: true},
					&cli.StringFlag{Name: "avoid", Usage: "comma separated palette indices that cannot be entered"},
					&cli.IntFlag{Name: "layer", Usage: "tile layer id"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					g, err := loadGrid(cmd.Args().First())
					if err != nil {
						return err
					}
					from, err := parsePoint(cmd.String("from"))
					if err != nil {
						return err
					}
					to, err := parsePoint(cmd.String("to"))
					if err != nil {
						return err
					}
					avoid, err := parseInts(cmd.String("avoid"))
					if err != nil {
						return err
					}

					layer := int(cmd.Int("layer"))
					path, err := g.FindPath(layer, from.X, from.Y, to.X, to.Y, avoid)
					if err != nil {
						return err
					}
					dest, err := g.GetTile(to.X, to.Y, layer)
					if err != nil {
						return err
					}
					printPath(cmd.Root().Writer, from, to, path, slices.Contains(avoid, dest))
					return nil
				},
			},
		},
	}
}

func loadGrid(file string) (*grid.Grid, error) {
	if file == "" {
		return nil, cli.Exit("FILE is required", 2)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	doc, err := grid.DecodeTiled(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return grid.FromTiled(doc)
}

// parsePoint reads "x,y"
func parsePoint(s string) (grid.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return grid.Point{}, fmt.Errorf("invalid cell %q, expected x,y", s)
	}
	x, errX := strconv.Atoi(strings.TrimSpace(parts[0]))
	y, errY := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errX != nil || errY != nil {
		return grid.Point{}, fmt.Errorf("invalid cell %q, expected integers", s)
	}
	return grid.Point{X: x, Y: y}, nil
}

// parseInts reads a comma separated list; the empty string is an empty list
func parseInts(s string) ([]int, error) {
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

// ValidationResult captures the outcome of validating a single file.
// Notes are informational and never make a file invalid.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Notes  []string
}

func validateFile(path string) ValidationResult {
	result := ValidationResult{File: filepath.Base(path), Valid: true}
	fail := func(format string, args ...interface{}) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fail("Failed to read file: %v", err)
		return result
	}

	if !grid.IsTiledMap(data) {
		fail("Not a Tiled map document (a required field is missing or empty)")
		return result
	}

	doc, err := grid.DecodeTiled(data)
	if err != nil {
		fail("%v", err)
		return result
	}

	tileLayers, objectGroups := 0, 0
	for i, l := range doc.Layers {
		switch l.Type {
		case grid.TiledTileLayer:
			tileLayers++
		case grid.TiledObjectGroup:
			objectGroups++
		default:
			result.Notes = append(result.Notes, fmt.Sprintf("layer %d (%s): type %q is skipped on import", i, l.Name, l.Type))
		}
	}
	if tileLayers == 0 {
		fail("No tilelayer: the imported grid would only have an empty fallback layer")
	}

	if _, err := grid.FromTiled(doc); err != nil {
		fail("Import failed: %v", err)
	}

	result.Notes = append(result.Notes,
		fmt.Sprintf("✓ %dx%d cells, %d tile layers, %d object groups, tileset %s",
			doc.Width, doc.Height, tileLayers, objectGroups, doc.Tilesets[0].Image))
	return result
}

// validateFiles prints a report for each file and returns whether all of
// them are valid
func validateFiles(w io.Writer, files []string) bool {
	allValid := true
	for _, file := range files {
		result := validateFile(file)

		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)
		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, e := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+e)
			}
		}
		for _, note := range result.Notes {
			fmt.Fprintln(w, "  "+note)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All maps are valid!")
	}
	return allValid
}

// RegionStats summarizes the regions of one tile value
type RegionStats struct {
	Index   int
	Regions int
	Cells   int
	Largest int
}

// countRegions partitions a tile layer's boundaries into 4-connected
// regions and groups them by value, ordered by index
func countRegions(g *grid.Grid, layer int) ([]RegionStats, error) {
	tl, err := g.TileLayer(layer)
	if err != nil {
		return nil, err
	}

	b := tl.Boundaries()
	seen := mapset.New[grid.Point]()
	byIndex := map[int]*RegionStats{}

	for y := b.MinY; y <= b.MaxY; y++ {
		for x := b.MinX; x <= b.MaxX; x++ {
			if seen.Has(grid.Point{X: x, Y: y}) {
				continue
			}
			region, err := g.Region(x, y, layer)
			if err != nil {
				return nil, err
			}
			for _, p := range region {
				seen.Put(p)
			}

			index, err := g.GetTile(x, y, layer)
			if err != nil {
				return nil, err
			}
			stats, ok := byIndex[index]
			if !ok {
				stats = &RegionStats{Index: index}
				byIndex[index] = stats
			}
			stats.Regions++
			stats.Cells += len(region)
			stats.Largest = max(stats.Largest, len(region))
		}
	}

	out := make([]RegionStats, 0, len(byIndex))
	for _, stats := range byIndex {
		out = append(out, *stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func printRegions(w io.Writer, stats []RegionStats) {
	total := 0
	for _, s := range stats {
		label := fmt.Sprintf("index %d", s.Index)
		if s.Index == grid.Unset {
			label = "unset"
		}
		fmt.Fprintf(w, "%-10s %3d regions, %5d cells, largest %d\n", label, s.Regions, s.Cells, s.Largest)
		total += s.Regions
	}
	fmt.Fprintf(w, "Total: %d regions\n", total)
}

// printPath reports a search result. An avoided destination is never reached,
// even when it is also the origin.
func printPath(w io.Writer, from, to grid.Point, path []grid.Point, destAvoided bool) {
	if len(path) == 0 {
		if from == to && !destAvoided {
			fmt.Fprintf(w, "Already at (%d,%d)\n", to.X, to.Y)
			return
		}
		fmt.Fprintln(w, "no path")
		return
	}

	cells := make([]string, 0, len(path))
	for _, p := range path {
		cells = append(cells, fmt.Sprintf("(%d,%d)", p.X, p.Y))
	}
	fmt.Fprintf(w, "%d steps: %s\n", len(path), strings.Join(cells, " "))
}
