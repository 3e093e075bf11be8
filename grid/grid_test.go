package grid

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildS1Grid constructs the S1 two-room scenario from spec.md §8: a 9x4 metre
// envelope at cell size 1m split into a 5x4 "Living" (cols 0..4) and 4x4 "Bedroom"
// (cols 5..8).
func buildS1Grid(t *testing.T) *Grid {
	t.Helper()
	g := New(9, 4, 1.0)

	var living, bedroom []Cell
	for i := 0; i < 4; i++ {
		for j := 0; j < 5; j++ {
			living = append(living, Cell{I: i, J: j})
		}
		for j := 5; j < 9; j++ {
			bedroom = append(bedroom, Cell{I: i, J: j})
		}
	}
	require.NoError(t, g.AddRoom("Living", living))
	require.NoError(t, g.AddRoom("Bedroom", bedroom))
	return g
}

func TestAddRoomRejectsEmptyOrDuplicate(t *testing.T) {
	g := New(4, 4, 1.0)
	require.Error(t, g.AddRoom("Empty", nil))
	require.NoError(t, g.AddRoom("Living", []Cell{{0, 0}}))
	require.Error(t, g.AddRoom("Living", []Cell{{1, 1}}))
}

func TestRoomAreaAndBBox(t *testing.T) {
	g := buildS1Grid(t)
	assert.Equal(t, 20.0, g.RoomAreaSqM("Living"))
	assert.Equal(t, 16.0, g.RoomAreaSqM("Bedroom"))

	bb, ok := g.RoomBBox("Living")
	require.True(t, ok)
	assert.Equal(t, BBox{IMin: 0, JMin: 0, IMax: 3, JMax: 4}, bb)
}

func TestEnvelopeCoversAllInsideCells(t *testing.T) {
	g := buildS1Grid(t)
	env := g.Envelope()
	assert.Equal(t, BBox{IMin: 0, JMin: 0, IMax: 3, JMax: 8}, env)
}

func TestRoomNamesPreservesInsertionOrder(t *testing.T) {
	g := buildS1Grid(t)
	assert.Equal(t, []string{"Living", "Bedroom"}, g.RoomNames())
}

func TestValidateDetectsOverlap(t *testing.T) {
	g := New(2, 2, 1.0)
	require.NoError(t, g.AddRoom("A", []Cell{{0, 0}}))
	g.AddPassages(Cell{0, 0})

	errs := g.Validate()
	require.Len(t, errs, 1)
}

func TestValidateDetectsDoorOutsideRoomExtent(t *testing.T) {
	g := buildS1Grid(t)
	g.AddDoor(Door{Wall: South, Room: "Living", Position: 2, Width: 1})
	assert.Empty(t, g.Validate())

	g.AddDoor(Door{Wall: South, Room: "Living", Position: 4.5, Width: 1})
	errs := g.Validate()
	require.Len(t, errs, 1)
}

func TestValidateRejectsUnknownRoomReference(t *testing.T) {
	g := buildS1Grid(t)
	g.AddDoor(Door{Wall: South, Room: "Garage", Position: 0, Width: 1})
	errs := g.Validate()
	require.Len(t, errs, 1)
}

func TestDumpLoadRoundTrip(t *testing.T) {
	g := buildS1Grid(t)
	g.AddPassages(Cell{0, 9})
	g.AddDoor(Door{Wall: South, Room: "Living", Position: 2, Width: 1})
	g.SetEntrance(Cell{3, 0})

	dump := g.Dump()

	raw, err := json.Marshal(dump)
	require.NoError(t, err)

	var roundTripped Dump
	require.NoError(t, json.Unmarshal(raw, &roundTripped))

	reconstructed, err := Load(roundTripped)
	require.NoError(t, err)

	assert.Equal(t, g.RoomNames(), reconstructed.RoomNames())
	for _, name := range g.RoomNames() {
		assert.Equal(t, g.RoomCells(name), reconstructed.RoomCells(name))
	}

	entrance, ok := reconstructed.Entrance()
	require.True(t, ok)
	assert.Equal(t, Cell{3, 0}, entrance)
}

func TestTotalAreaInvariant(t *testing.T) {
	// §8 invariant 10: sum of room areas + passage area + outdoor area = W*H*s^2.
	g := New(4, 4, 0.5)
	require.NoError(t, g.AddRoom("A", []Cell{{0, 0}, {0, 1}}))
	g.AddPassages(Cell{0, 2})
	g.AddOutdoor(Cell{0, 3}, Cell{1, 0}, Cell{1, 1}, Cell{1, 2}, Cell{1, 3},
		Cell{2, 0}, Cell{2, 1}, Cell{2, 2}, Cell{2, 3},
		Cell{3, 0}, Cell{3, 1}, Cell{3, 2}, Cell{3, 3})

	total := g.RoomAreaSqM("A") + float64(len(g.passages))*g.CellSize*g.CellSize + float64(len(g.outdoor))*g.CellSize*g.CellSize
	assert.InDelta(t, float64(g.W*g.H)*g.CellSize*g.CellSize, total, 1e-9)
}
