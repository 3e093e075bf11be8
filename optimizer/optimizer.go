package optimizer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/arxos/layoutengine/config"
	"github.com/arxos/layoutengine/constraints"
	layerrors "github.com/arxos/layoutengine/errors"
	"github.com/arxos/layoutengine/grid"
	"github.com/arxos/layoutengine/logx"
)

// Diagnostics is returned alongside an infeasible solve: a best-effort
// irreducible-infeasible-subset report, per §4.D's solve strategy step 3 and
// the GLOSSARY's definition of IIS. The solver does not compute a minimal
// IIS (that requires re-solving with constraints disabled one at a time,
// which is expensive); instead it names the first item whose footprint
// cannot fit the room's bounding box in either orientation, if there is one,
// and otherwise only gives a suggestion. NodesExplored is not filled in.
type Diagnostics struct {
	TraceID          string
	Room             string
	NodesExplored    int
	UnplaceableItem  string
	Suggestion       string
}

// Solver runs the two-stage MIP-equivalent solve of §4.D, one room at a
// time, honoring a wall-clock time limit, a cooperative cancellation
// context, and (in deterministic mode) single-threaded reproducibility.
type Solver struct {
	cfg     config.OptimizerConfig
	logger  *zap.Logger
	metrics *solverMetrics
}

// NewSolver constructs a Solver. Pass a nil registerer to use a private
// metrics registry (the usual case outside of a shared-process deployment).
func NewSolver(cfg config.OptimizerConfig, reg prometheus.Registerer) *Solver {
	return &Solver{
		cfg:     cfg,
		logger:  logx.Named("optimizer"),
		metrics: newSolverMetrics(reg),
	}
}

// SolveRoom places items into a single room, returning the solved placements
// in input-item order (§5's ordering guarantee). deterministic must be true
// for reproducible test runs (single-threaded, fixed search order, no
// time-based early exit besides the hard node budget).
func (s *Solver) SolveRoom(ctx context.Context, g *grid.Grid, roomName string, items []constraints.CompiledItem, rc constraints.CompiledRoomConstraints, deterministic bool) ([]PlacedItem, *Diagnostics, error) {
	traceID := uuid.NewString()
	log := s.logger.With(zap.String("trace_id", traceID), zap.String("room", roomName))

	start := time.Now()
	placements, diag, err := s.solveWithFallback(ctx, g, roomName, items, rc, deterministic, traceID)
	s.metrics.solveDuration.WithLabelValues(roomName).Observe(time.Since(start).Seconds())

	if err != nil {
		log.Warn("room solve failed", zap.Error(err))
	}
	return placements, diag, err
}

func (s *Solver) solveWithFallback(ctx context.Context, g *grid.Grid, roomName string, items []constraints.CompiledItem, rc constraints.CompiledRoomConstraints, deterministic bool, traceID string) ([]PlacedItem, *Diagnostics, error) {
	placements, diag, err := s.solveOnce(ctx, g, roomName, items, rc, deterministic, traceID)
	if err == nil {
		return placements, nil, nil
	}

	if len(rc.Distances) == 0 {
		return nil, diag, err
	}

	// Fallback of §4.D's solve strategy: distance constraints are soft but
	// enlarge the search via their slack cases, so drop them and retry once.
	s.metrics.fallbackRetries.WithLabelValues(roomName).Inc()
	relaxed := rc
	relaxed.Distances = nil
	return s.solveOnce(ctx, g, roomName, items, relaxed, deterministic, traceID)
}

func (s *Solver) solveOnce(ctx context.Context, g *grid.Grid, roomName string, items []constraints.CompiledItem, rc constraints.CompiledRoomConstraints, deterministic bool, traceID string) ([]PlacedItem, *Diagnostics, error) {
	rm := buildRoomModel(g, roomName, items, rc, s.cfg)
	order := searchOrder(rm)

	deadline := time.Now().Add(time.Duration(s.cfg.TimeLimitSeconds) * time.Second)
	nodeLimit := nodeLimitFor(len(items), deterministic)

	// One search serves both stages: it finds a feasible leaf and keeps the
	// best-objective leaf seen within budget.
	feasibility := bnbSolve(ctx, rm, deadline, nodeLimit, deterministic)
	if !feasibility.feasible {
		s.metrics.nodesExplored.WithLabelValues(roomName).Observe(float64(feasibility.nodes))
		if feasibility.timedOut {
			s.metrics.solvesTotal.WithLabelValues("timeout").Inc()
			s.metrics.timeoutTotal.WithLabelValues(roomName).Inc()
			return nil, nil, layerrors.New(layerrors.SolverTimeout, "optimizer", "no incumbent found within time limit").
				WithDetail("trace_id", traceID).WithDetail("room", roomName)
		}
		s.metrics.solvesTotal.WithLabelValues("infeasible").Inc()
		s.metrics.infeasibleTotal.WithLabelValues(roomName).Inc()
		diag := diagnoseInfeasibility(rm, order, traceID)
		return nil, diag, layerrors.New(layerrors.InfeasibleLayout, "optimizer", "no feasible assignment found").
			WithDetail("trace_id", traceID).WithDetail("room", roomName)
	}

	// feasibility.best is the best-objective leaf bnbSolve found; it is the
	// optimum when the search completed within budget.
	s.metrics.solvesTotal.WithLabelValues("feasible").Inc()
	s.metrics.nodesExplored.WithLabelValues(roomName).Observe(float64(feasibility.nodes))

	return extractPlacements(rm, order, feasibility.best), nil, nil
}

// nodeLimitFor bounds branch-and-bound work to a size proportional to the
// room's item count, scaled down for deterministic test runs so fixtures
// solve quickly and reproducibly.
func nodeLimitFor(itemCount int, deterministic bool) int {
	base := 50000 * (itemCount + 1)
	if deterministic {
		if base > 200000 {
			return 200000
		}
		return base
	}
	return base
}

// diagnoseInfeasibility reports the first item (in search order) whose
// footprint exceeds the room's bounding box in both orientations, as a cheap
// stand-in for a full IIS computation. Occupancy and the other constraints
// are not considered; when every item fits on its own, no item is named.
func diagnoseInfeasibility(rm *roomModel, order []int, traceID string) *Diagnostics {
	for _, idx := range order {
		item := rm.items[idx]
		any := false
		for _, sigma := range [2]int{0, 1} {
			sizeI, sizeJ := footprint(sigma, item.LengthCells, item.WidthCells)
			if sizeI <= (rm.bbox.IMax-rm.bbox.IMin+1) && sizeJ <= (rm.bbox.JMax-rm.bbox.JMin+1) {
				any = true
			}
		}
		if !any {
			return &Diagnostics{
				TraceID:         traceID,
				Room:            rm.roomName,
				UnplaceableItem: item.Name,
				Suggestion:      "item footprint exceeds the room's bounding box in every orientation",
			}
		}
	}
	return &Diagnostics{
		TraceID:         traceID,
		Room:            rm.roomName,
		Suggestion:      "items individually fit but no combination avoids overlap, door clearance, boundary, alignment, or facing conflicts",
	}
}
