// Package pipeline chains the core components in their dependency order
// (B -> A -> C -> D -> E -> F, per spec.md §2): image segmentation builds the
// grid, constraints are compiled against it, the optimizer places furniture,
// and the result is converted to 3D and assembled into the final scene.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/arxos/layoutengine/config"
	"github.com/arxos/layoutengine/constraints"
	"github.com/arxos/layoutengine/coords"
	layerrors "github.com/arxos/layoutengine/errors"
	"github.com/arxos/layoutengine/grid"
	"github.com/arxos/layoutengine/logx"
	"github.com/arxos/layoutengine/optimizer"
	"github.com/arxos/layoutengine/scene"
	"github.com/arxos/layoutengine/segmenter"
)

// Config configures one run of the pipeline, distinct from the engine's
// static configuration because it also carries the per-run inputs' shape.
type Config struct {
	EnvelopeWidthMeters float64
	Deterministic        bool
}

// DefaultConfig returns a Config with a typical residential envelope width.
func DefaultConfig() *Config {
	return &Config{
		EnvelopeWidthMeters: 10.0,
		Deterministic:        false,
	}
}

// RoomSpec is one room's compiled-ready furniture spec and constraint bundle,
// as produced by the furniture-spec and constraint providers of §6.
type RoomSpec struct {
	RoomType    string
	Items       []constraints.ItemSpec
	Constraints constraints.RoomConstraints
}

// Processor runs the full core pipeline against the engine configuration.
type Processor struct {
	config  *Config
	engine  *config.Config
	solver  *optimizer.Solver
}

// NewProcessor creates a pipeline Processor. reg may be nil to use a private
// metrics registry.
func NewProcessor(cfg *Config, engineCfg *config.Config, reg prometheus.Registerer) *Processor {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Processor{
		config: cfg,
		engine: engineCfg,
		solver: optimizer.NewSolver(engineCfg.Optimizer, reg),
	}
}

// Result is the final output of one pipeline run: the built grid plus the
// assembled, ordered scene payload.
type Result struct {
	Grid  *grid.Grid
	Scene []scene.SceneItem
}

// Run executes B -> A -> C -> D -> E -> F against a floor-plan image reader
// and per-room specs/constraints, optionally joining catalog metadata.
func (p *Processor) Run(ctx context.Context, floorPlan io.Reader, rooms map[string]RoomSpec, metadata map[string]map[string]scene.ItemMetadata) (*Result, error) {
	start := time.Now()
	log := logx.Named("pipeline")

	requestedNames := make([]string, 0, len(rooms))
	for name := range rooms {
		requestedNames = append(requestedNames, name)
	}

	segResult, err := segmenter.Segment(floorPlan, p.config.EnvelopeWidthMeters, p.engine.Grid.CellSizeMeters, requestedNames, p.engine.Segmenter)
	if err != nil {
		if layerrors.IsKind(err, layerrors.NoRoomsDetected) {
			log.Warn("segmenter found no rooms, falling back to a single full-envelope room")
			segResult = fallbackFullRoomGrid(p.config.EnvelopeWidthMeters, p.engine.Grid.CellSizeMeters)
		} else {
			return nil, fmt.Errorf("segment floor plan: %w", err)
		}
	}
	g := segResult.Grid

	var allPlacements []coords.Placement3D
	for _, roomName := range g.RoomNames() {
		spec, ok := rooms[roomName]
		if !ok {
			continue
		}

		compiledItems := constraints.CompileItems(spec.RoomType, spec.Items, g.CellSize)
		compiledConstraints := constraints.CompileConstraints(roomName, spec.Constraints, compiledItems, g.CellSize)

		placed, diag, err := p.solver.SolveRoom(ctx, g, roomName, compiledItems, compiledConstraints, p.config.Deterministic)
		if err != nil {
			fields := []zap.Field{zap.String("room", roomName), zap.Error(err)}
			if diag != nil {
				fields = append(fields, zap.String("trace_id", diag.TraceID), zap.String("suggestion", diag.Suggestion))
			}
			log.Error("room solve failed, skipping room", fields...)
			continue
		}

		for _, pl := range placed {
			p3d, err := coords.Convert(g, pl, p.engine.Coords.WallMarginMeters)
			if err != nil {
				return nil, fmt.Errorf("convert placement for %s/%s: %w", roomName, pl.ItemName, err)
			}
			allPlacements = append(allPlacements, p3d)
		}
	}

	assembled := scene.Assemble(allPlacements, metadata)

	log.Info("pipeline run complete",
		zap.Duration("duration", time.Since(start)), zap.Int("item_count", len(assembled)))

	return &Result{Grid: g, Scene: assembled}, nil
}

// fallbackFullRoomGrid builds a single full-envelope room, used when the
// segmenter finds no rooms at all (§7: NoRoomsDetected -> caller may
// substitute a default rectangular room).
func fallbackFullRoomGrid(envelopeWidthMeters, cellSize float64) *segmenter.Result {
	w := int(envelopeWidthMeters / cellSize)
	if w < 1 {
		w = 1
	}
	h := w
	g := grid.New(w, h, cellSize)
	cells := make([]grid.Cell, 0, w*h)
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			cells = append(cells, grid.Cell{I: i, J: j})
		}
	}
	_ = g.AddRoom("room", cells)
	return &segmenter.Result{Grid: g, RoomNames: []string{"room"}}
}
