// Package coords implements the grid-to-3D conversion of spec.md §4.E:
// a solved grid placement becomes an absolute 3D position, rotation, and
// footprint, with furniture centers clamped inward from the room's walls by
// a configurable margin.
package coords

import (
	"github.com/arxos/layoutengine/grid"
	"github.com/arxos/layoutengine/optimizer"
)

// Position3D is a point in the 3D scene, floor at y=0.
type Position3D struct {
	X, Y, Z float64
}

// Size3D is a footprint in metres.
type Size3D struct {
	Width, Depth, Height float64
}

// Placement3D is the coordinate converter's output record, matching the
// external schema of §6.
type Placement3D struct {
	ItemName          string
	RoomName          string
	Position          Position3D
	RotationYDegrees  int
	SizeM             Size3D
}

// rotationDegrees maps (sigma, mu) to degrees, per §4.E.
func rotationDegrees(sigma, mu int) int {
	switch {
	case sigma == 1 && mu == 1:
		return 0
	case sigma == 0 && mu == 0:
		return 90
	case sigma == 1 && mu == 0:
		return 180
	default: // sigma == 0, mu == 1
		return 270
	}
}

// Convert projects one placed item into 3D, clamping its center inward from
// the owning room's metric bounding box by wallMarginMeters. If the room is
// too narrow to host the margin (or the item itself) along an axis, the
// item is centered along that axis instead of raising an error, per §4.E's
// ClampImpossible handling.
func Convert(g *grid.Grid, p optimizer.PlacedItem, wallMarginMeters float64) (Placement3D, error) {
	s := g.CellSize

	centerIM := (float64(p.I0) + float64(p.SizeI)/2) * s
	centerJM := (float64(p.J0) + float64(p.SizeJ)/2) * s

	widthM := float64(p.SizeJ) * s
	depthM := float64(p.SizeI) * s

	x := centerJM
	z := float64(g.H)*s - centerIM

	bb, ok := g.RoomBBox(p.RoomName)
	if ok {
		roomXMin := float64(bb.JMin) * s
		roomXMax := float64(bb.JMax+1) * s
		roomZMin := float64(g.H)*s - float64(bb.IMax+1)*s
		roomZMax := float64(g.H)*s - float64(bb.IMin)*s

		x = clampAxis(x, widthM/2, roomXMin, roomXMax, wallMarginMeters)
		z = clampAxis(z, depthM/2, roomZMin, roomZMax, wallMarginMeters)
	}

	return Placement3D{
		ItemName:         p.ItemName,
		RoomName:         p.RoomName,
		Position:         Position3D{X: x, Y: 0, Z: z},
		RotationYDegrees: rotationDegrees(p.Sigma, p.Mu),
		SizeM:            Size3D{Width: widthM, Depth: depthM, Height: p.HeightM},
	}, nil
}

// clampAxis keeps center +/- halfExtent at least margin from [lo, hi]. When
// the room is too narrow to satisfy the margin (or even to fit the item),
// it centers along the axis instead of erroring (§4.E, §7 ClampImpossible).
func clampAxis(center, halfExtent, lo, hi, margin float64) float64 {
	clampedLo := lo + margin + halfExtent
	clampedHi := hi - margin - halfExtent

	if clampedLo > clampedHi {
		return (lo + hi) / 2
	}
	if center < clampedLo {
		return clampedLo
	}
	if center > clampedHi {
		return clampedHi
	}
	return center
}
