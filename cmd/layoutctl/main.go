// Command layoutctl runs the furniture-layout engine's core pipeline
// (B -> A -> C -> D -> E -> F) against a floor-plan image and a JSON room
// spec, printing the assembled scene.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/arxos/layoutengine/config"
	"github.com/arxos/layoutengine/constraints"
	"github.com/arxos/layoutengine/logx"
	"github.com/arxos/layoutengine/pipeline"
	"github.com/arxos/layoutengine/scene"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "layoutctl",
		Usage: "Run the furniture-layout engine against a floor plan and room spec",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to a layoutengine YAML config file",
			},
			&cli.BoolFlag{
				Name:  "deterministic",
				Usage: "Force single-threaded, reproducible solver runs",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "layout",
				Usage:     "Segment a floor plan and place furniture into it",
				ArgsUsage: "<floor-plan.png> <rooms.json>",
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:  "envelope-width",
						Usage: "Physical width of the floor plan in metres",
						Value: 10.0,
					},
					&cli.StringFlag{
						Name:  "metadata",
						Usage: "Optional path to a catalog metadata JSON file",
					},
				},
				Action: runLayout,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logx.Get().Sugar().Fatalw("layoutctl failed", "error", err)
	}
}

func runLayout(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := cfg.CreateLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	logx.Set(logger)
	defer logx.Sync()

	if c.NArg() < 2 {
		return cli.Exit("usage: layoutctl layout <floor-plan.png> <rooms.json>", 1)
	}

	floorPlanPath := c.Args().Get(0)
	roomsPath := c.Args().Get(1)

	floorPlan, err := os.Open(floorPlanPath)
	if err != nil {
		return fmt.Errorf("open floor plan: %w", err)
	}
	defer floorPlan.Close()

	rooms, err := loadRoomSpecs(roomsPath)
	if err != nil {
		return fmt.Errorf("load room specs: %w", err)
	}

	var metadata map[string]map[string]scene.ItemMetadata
	if p := c.String("metadata"); p != "" {
		metadata, err = loadMetadata(p)
		if err != nil {
			return fmt.Errorf("load metadata: %w", err)
		}
	}

	pipelineCfg := &pipeline.Config{
		EnvelopeWidthMeters: c.Float64("envelope-width"),
		Deterministic:       c.Bool("deterministic"),
	}

	proc := pipeline.NewProcessor(pipelineCfg, cfg, nil)
	result, err := proc.Run(context.Background(), floorPlan, rooms, metadata)
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}

	out := struct {
		Grid  interface{}        `json:"grid"`
		Scene []sceneItemPayload `json:"scene"`
	}{
		Grid:  result.Grid.Dump(),
		Scene: toScenePayload(result.Scene),
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

type sceneItemPayload struct {
	ItemName         string  `json:"item_name"`
	RoomName         string  `json:"room_name"`
	X                float64 `json:"x"`
	Y                float64 `json:"y"`
	Z                float64 `json:"z"`
	RotationYDegrees int     `json:"rotation_y_degrees"`
	Width            float64 `json:"width"`
	Depth            float64 `json:"depth"`
	Height           float64 `json:"height"`
	CatalogID        string  `json:"catalog_id,omitempty"`
}

func toScenePayload(items []scene.SceneItem) []sceneItemPayload {
	out := make([]sceneItemPayload, len(items))
	for i, it := range items {
		out[i] = sceneItemPayload{
			ItemName:         it.Placement.ItemName,
			RoomName:         it.Placement.RoomName,
			X:                it.Placement.Position.X,
			Y:                it.Placement.Position.Y,
			Z:                it.Placement.Position.Z,
			RotationYDegrees: it.Placement.RotationYDegrees,
			Width:            it.Placement.SizeM.Width,
			Depth:            it.Placement.SizeM.Depth,
			Height:           it.Placement.SizeM.Height,
		}
		if it.HasMetadata {
			out[i].CatalogID = it.Metadata.CatalogID
		}
	}
	return out
}

// roomSpecFile is the on-disk JSON shape for a room->items/constraints map,
// matching the furniture-spec and constraint provider schemas of §6.
type roomSpecFile struct {
	RoomType    string                         `json:"room_type"`
	Items       []constraints.ItemSpec         `json:"items"`
	Constraints constraints.RoomConstraints    `json:"constraints"`
}

func loadRoomSpecs(path string) (map[string]pipeline.RoomSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var files map[string]roomSpecFile
	if err := json.Unmarshal(raw, &files); err != nil {
		return nil, err
	}

	out := make(map[string]pipeline.RoomSpec, len(files))
	for room, f := range files {
		out[room] = pipeline.RoomSpec{
			RoomType:    f.RoomType,
			Items:       f.Items,
			Constraints: f.Constraints,
		}
	}
	return out, nil
}

func loadMetadata(path string) (map[string]map[string]scene.ItemMetadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out map[string]map[string]scene.ItemMetadata
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
