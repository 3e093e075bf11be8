package optimizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arxos/layoutengine/config"
	"github.com/arxos/layoutengine/constraints"
	layerrors "github.com/arxos/layoutengine/errors"
	"github.com/arxos/layoutengine/grid"
)

func buildS1Grid(t *testing.T) *grid.Grid {
	t.Helper()
	g := grid.New(9, 4, 1.0)
	var living, bedroom []grid.Cell
	for i := 0; i < 4; i++ {
		for j := 0; j < 5; j++ {
			living = append(living, grid.Cell{I: i, J: j})
		}
		for j := 5; j < 9; j++ {
			bedroom = append(bedroom, grid.Cell{I: i, J: j})
		}
	}
	require.NoError(t, g.AddRoom("Living", living))
	require.NoError(t, g.AddRoom("Bedroom", bedroom))
	return g
}

func TestSolveRoomS1TwoRoomRectangle(t *testing.T) {
	g := buildS1Grid(t)
	cfg := config.Default().Optimizer

	livingItems := constraints.CompileItems("living", []constraints.ItemSpec{
		{Name: "sofa", LengthM: 2, WidthM: 1, Priority: constraints.Essential},
		{Name: "coffee-table", LengthM: 1, WidthM: 1, Priority: constraints.Essential},
		{Name: "tv-stand", LengthM: 2, WidthM: 1, Priority: constraints.Essential},
	}, g.CellSize)
	boundaryNames := map[string]bool{"sofa": true, "tv-stand": true}
	livingConstraints := constraints.CompileConstraints("Living", constraints.RoomConstraints{
		BoundaryItems: []string{"sofa", "tv-stand"},
		Facings:       []constraints.FacingPair{{NameA: "sofa", NameB: "tv-stand"}},
	}, livingItems, g.CellSize)

	solver := NewSolver(cfg, nil)
	placements, diag, err := solver.SolveRoom(context.Background(), g, "Living", livingItems, livingConstraints, true)
	require.NoError(t, err, "diagnostics: %+v", diag)
	require.Len(t, placements, 3)

	assertNoOverlap(t, placements)
	for _, p := range placements {
		if boundaryNames[p.ItemName] {
			assert.True(t, touchesWall(g, "Living", p), "expected %s to touch a wall", p.ItemName)
		}
	}
}

func TestSolveRoomS4Infeasible(t *testing.T) {
	g := grid.New(3, 3, 1.0)
	var cells []grid.Cell
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			cells = append(cells, grid.Cell{I: i, J: j})
		}
	}
	require.NoError(t, g.AddRoom("Tiny", cells))

	items := constraints.CompileItems("default", []constraints.ItemSpec{
		{Name: "a", LengthM: 2, WidthM: 2, Priority: constraints.Essential},
		{Name: "b", LengthM: 2, WidthM: 2, Priority: constraints.Essential},
		{Name: "c", LengthM: 2, WidthM: 2, Priority: constraints.Essential},
	}, g.CellSize)

	cfg := config.Default().Optimizer
	solver := NewSolver(cfg, nil)
	_, diag, err := solver.SolveRoom(context.Background(), g, "Tiny", items, constraints.CompiledRoomConstraints{}, true)
	require.Error(t, err)
	var layoutErr *layerrors.LayoutError
	require.ErrorAs(t, err, &layoutErr)
	assert.Equal(t, layerrors.InfeasibleLayout, layoutErr.Kind)
	require.NotNil(t, diag)
}

func TestSolveRoomS2DoorClearance(t *testing.T) {
	g := grid.New(5, 5, 1.0)
	var cells []grid.Cell
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			cells = append(cells, grid.Cell{I: i, J: j})
		}
	}
	require.NoError(t, g.AddRoom("Room", cells))
	g.AddDoor(grid.Door{Wall: grid.South, Room: "Room", Position: 2, Width: 1})

	cfg := config.Default().Optimizer
	items := constraints.CompileItems("bedroom", []constraints.ItemSpec{
		{Name: "bed", LengthM: 3, WidthM: 2, Priority: constraints.Essential},
	}, g.CellSize)
	rc := constraints.CompileConstraints("Room", constraints.RoomConstraints{
		BoundaryItems: []string{"bed"},
	}, items, g.CellSize)

	solver := NewSolver(cfg, nil)
	placements, diag, err := solver.SolveRoom(context.Background(), g, "Room", items, rc, true)
	require.NoError(t, err, "diagnostics: %+v", diag)
	require.Len(t, placements, 1)

	bbox, _ := g.RoomBBox("Room")
	blocked := make(map[grid.Cell]bool)
	for _, d := range g.Doors() {
		for _, c := range doorClearanceCells(bbox, d, g.CellSize, cfg.DoorClearCells) {
			blocked[c] = true
		}
	}
	require.NotEmpty(t, blocked, "door clearance must cover at least one cell")

	p := placements[0]
	for i := p.I0; i < p.I0+p.SizeI; i++ {
		for j := p.J0; j < p.J0+p.SizeJ; j++ {
			assert.False(t, blocked[grid.Cell{I: i, J: j}], "bed occupies door-clearance cell (%d,%d)", i, j)
		}
	}
}

func TestSolveRoomS3DistancePreference(t *testing.T) {
	g := grid.New(5, 5, 1.0)
	var cells []grid.Cell
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			cells = append(cells, grid.Cell{I: i, J: j})
		}
	}
	require.NoError(t, g.AddRoom("Room", cells))

	cfg := config.Default().Optimizer
	items := constraints.CompileItems("living", []constraints.ItemSpec{
		{Name: "sofa", LengthM: 2, WidthM: 1, Priority: constraints.Essential},
		{Name: "coffee-table", LengthM: 1, WidthM: 1, Priority: constraints.Essential},
	}, g.CellSize)
	rc := constraints.CompileConstraints("Room", constraints.RoomConstraints{
		BoundaryItems: []string{"sofa"},
		Distances: []constraints.DistancePair{
			{NameA: "coffee-table", NameB: "sofa", AlongM: 1.15, PerpM: 0},
		},
	}, items, g.CellSize)

	solver := NewSolver(cfg, nil)
	placements, diag, err := solver.SolveRoom(context.Background(), g, "Room", items, rc, true)
	require.NoError(t, err, "diagnostics: %+v", diag)
	require.Len(t, placements, 2)

	var sofa, table PlacedItem
	for _, p := range placements {
		switch p.ItemName {
		case "sofa":
			sofa = p
		case "coffee-table":
			table = p
		}
	}

	sofaCenterI := float64(sofa.I0) + float64(sofa.SizeI)/2
	tableCenterI := float64(table.I0) + float64(table.SizeI)/2
	alongActual := (sofaCenterI - tableCenterI) * g.CellSize
	assert.InDelta(t, 1.15, alongActual, 1.0, "coffee-table to sofa along-distance should land near the 1.15m target")
}

func TestObjectiveAppliesConfiguredWeights(t *testing.T) {
	g := grid.New(4, 4, 1.0)
	var cells []grid.Cell
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			cells = append(cells, grid.Cell{I: i, J: j})
		}
	}
	require.NoError(t, g.AddRoom("Room", cells))

	items := constraints.CompileItems("living", []constraints.ItemSpec{
		{Name: "a", LengthM: 1, WidthM: 1, Priority: constraints.Essential},
		{Name: "b", LengthM: 1, WidthM: 1, Priority: constraints.Essential},
	}, g.CellSize)
	rc := constraints.CompileConstraints("Room", constraints.RoomConstraints{
		Distances: []constraints.DistancePair{{NameA: "a", NameB: "b", AlongM: 3, PerpM: 0}},
	}, items, g.CellSize)

	// "a" and "b" sit one cell apart along the along-axis, well short of the
	// 3-cell target, so the distance term is nonzero regardless of weight.
	placed := []rect{
		{I0: 1, J0: 1, SizeI: 1, SizeJ: 1},
		{I0: 2, J0: 1, SizeI: 1, SizeJ: 1},
	}

	cfgZero := config.Default().Optimizer
	cfgZero.WeightDistance = 0
	objZero := objective(buildRoomModel(g, "Room", items, rc, cfgZero), placed)

	cfgWeighted := config.Default().Optimizer
	cfgWeighted.WeightDistance = 0.6
	objWeighted := objective(buildRoomModel(g, "Room", items, rc, cfgWeighted), placed)

	assert.NotEqual(t, objZero, objWeighted, "the distance term must be scaled by WeightDistance, not dropped")
	assert.Less(t, objZero, objWeighted, "a nonzero distance deviation weighted by WeightDistance must raise the objective relative to zero weight")
}

func TestRotationDegreesMapping(t *testing.T) {
	assert.Equal(t, 0, rotationDegrees(Orientation{Sigma: 1, Mu: 1}))
	assert.Equal(t, 90, rotationDegrees(Orientation{Sigma: 0, Mu: 0}))
	assert.Equal(t, 180, rotationDegrees(Orientation{Sigma: 1, Mu: 0}))
	assert.Equal(t, 270, rotationDegrees(Orientation{Sigma: 0, Mu: 1}))
}

func assertNoOverlap(t *testing.T, placements []PlacedItem) {
	t.Helper()
	seen := make(map[[2]int]string)
	for _, p := range placements {
		for i := p.I0; i < p.I0+p.SizeI; i++ {
			for j := p.J0; j < p.J0+p.SizeJ; j++ {
				key := [2]int{i, j}
				if owner, ok := seen[key]; ok {
					t.Fatalf("cell %v occupied by both %s and %s", key, owner, p.ItemName)
				}
				seen[key] = p.ItemName
			}
		}
	}
}

func touchesWall(g *grid.Grid, room string, p PlacedItem) bool {
	for i := p.I0; i < p.I0+p.SizeI; i++ {
		for j := p.J0; j < p.J0+p.SizeJ; j++ {
			for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
				n := grid.Cell{I: i + d[0], J: j + d[1]}
				if !g.HasRoomCell(room, n) {
					return true
				}
			}
		}
	}
	return false
}
