// Package constraints implements the metric-to-cell compiler of spec.md §4.C:
// furniture specs and their constraint sets are translated from metres into
// grid-cell units before being handed to the optimizer.
package constraints

import (
	"math"

	"go.uber.org/zap"

	"github.com/arxos/layoutengine/logx"
)

// Priority tiers a furniture item's necessity; essentials survive the
// item-count cap before nice-to-haves, per §4.C.
type Priority string

const (
	Essential   Priority = "essential"
	NiceToHave  Priority = "nice_to_have"
)

// ItemSpec is a furniture item as supplied in metric units, matching the
// external schema of §6.
type ItemSpec struct {
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	LengthM    float64  `json:"length_m"`
	WidthM     float64  `json:"width_m"`
	HeightM    float64  `json:"height_m"`
	SearchHint string   `json:"search_hint,omitempty"`
	Priority   Priority `json:"priority"`
}

// CompiledItem is an ItemSpec translated into cell units, ready for the
// optimizer.
type CompiledItem struct {
	Name        string
	Category    string
	LengthCells int
	WidthCells  int
	HeightM     float64
	SearchHint  string
	Priority    Priority
}

// DistancePair is a metric distance constraint between two named items, per
// §3's "(name1, name2, d_along, d_perp)".
type DistancePair struct {
	NameA  string  `json:"item_a"`
	NameB  string  `json:"item_b"`
	AlongM float64 `json:"along_m"`
	PerpM  float64 `json:"perp_m"`
}

// CompiledDistancePair is a DistancePair scaled into cell units (kept as
// floats, per §4.C).
type CompiledDistancePair struct {
	NameA, NameB string
	Along, Perp  float64
}

// AlignmentPair ties two items to share the same rotation axis.
type AlignmentPair struct {
	NameA string `json:"item_a"`
	NameB string `json:"item_b"`
}

// FacingPair orients NameA toward NameB.
type FacingPair struct {
	NameA string `json:"item_a"`
	NameB string `json:"item_b"`
}

// RoomConstraints is the per-room constraint bundle of §3: boundary items,
// distance pairs, alignment pairs, and facing pairs.
type RoomConstraints struct {
	BoundaryItems []string        `json:"boundary_items"`
	Distances     []DistancePair  `json:"distances"`
	Alignments    []AlignmentPair `json:"alignments"`
	Facings       []FacingPair    `json:"facings"`
}

// CompiledRoomConstraints is RoomConstraints after item-name validation and
// metric-to-cell scaling.
type CompiledRoomConstraints struct {
	Boundary   []string
	Distances  []CompiledDistancePair
	Alignments []AlignmentPair
	Facings    []FacingPair
}

// itemCountCaps gives the per-room-type cap on compiled item count, per §4.C.
var itemCountCaps = map[string]int{
	"living":  6,
	"bedroom": 5,
	"kitchen": 4,
	"hall":    3,
	"study":   5,
}

const defaultItemCountCap = 5

func capFor(roomType string) int {
	if cap, ok := itemCountCaps[roomType]; ok {
		return cap
	}
	return defaultItemCountCap
}

// metersToCells rounds a metric length up to whole cells, never below 1.
func metersToCells(m, cellSize float64) int {
	cells := int(math.Ceil(m / cellSize))
	if cells < 1 {
		cells = 1
	}
	return cells
}

// CompileItems converts metric item specs into cell units, preserving
// length >= width by swapping after rounding, then trims to the room type's
// item-count cap keeping essentials before nice-to-haves and insertion order
// within each tier.
func CompileItems(roomType string, specs []ItemSpec, cellSize float64) []CompiledItem {
	compiled := make([]CompiledItem, 0, len(specs))
	for _, s := range specs {
		length := metersToCells(s.LengthM, cellSize)
		width := metersToCells(s.WidthM, cellSize)
		if width > length {
			length, width = width, length
		}
		compiled = append(compiled, CompiledItem{
			Name:        s.Name,
			Category:    s.Category,
			LengthCells: length,
			WidthCells:  width,
			HeightM:     s.HeightM,
			SearchHint:  s.SearchHint,
			Priority:    s.Priority,
		})
	}

	limit := capFor(roomType)
	if len(compiled) <= limit {
		return compiled
	}

	var essentials, niceToHaves []CompiledItem
	for _, c := range compiled {
		if c.Priority == Essential {
			essentials = append(essentials, c)
		} else {
			niceToHaves = append(niceToHaves, c)
		}
	}

	out := make([]CompiledItem, 0, limit)
	out = append(out, essentials...)
	if len(out) > limit {
		out = out[:limit]
	} else {
		remaining := limit - len(out)
		if remaining > len(niceToHaves) {
			remaining = len(niceToHaves)
		}
		out = append(out, niceToHaves[:remaining]...)
	}
	return out
}

// CompileConstraints validates item-name references against the compiled item
// set, dropping (and logging) any constraint that references a missing item,
// and scales distance constraints into cell units.
func CompileConstraints(roomName string, rc RoomConstraints, compiledItems []CompiledItem, cellSize float64) CompiledRoomConstraints {
	known := make(map[string]bool, len(compiledItems))
	for _, c := range compiledItems {
		known[c.Name] = true
	}
	log := logx.Named("constraints")

	var out CompiledRoomConstraints

	for _, name := range rc.BoundaryItems {
		if !known[name] {
			log.Info("dropping boundary constraint referencing missing item",
				zap.String("room", roomName), zap.String("item", name))
			continue
		}
		out.Boundary = append(out.Boundary, name)
	}

	for _, d := range rc.Distances {
		if !known[d.NameA] || !known[d.NameB] {
			log.Info("dropping distance constraint referencing missing item",
				zap.String("room", roomName), zap.String("a", d.NameA), zap.String("b", d.NameB))
			continue
		}
		out.Distances = append(out.Distances, CompiledDistancePair{
			NameA: d.NameA,
			NameB: d.NameB,
			Along: d.AlongM / cellSize,
			Perp:  d.PerpM / cellSize,
		})
	}

	for _, a := range rc.Alignments {
		if !known[a.NameA] || !known[a.NameB] {
			log.Info("dropping alignment constraint referencing missing item",
				zap.String("room", roomName), zap.String("a", a.NameA), zap.String("b", a.NameB))
			continue
		}
		out.Alignments = append(out.Alignments, a)
	}

	for _, f := range rc.Facings {
		if !known[f.NameA] || !known[f.NameB] {
			log.Info("dropping facing constraint referencing missing item",
				zap.String("room", roomName), zap.String("a", f.NameA), zap.String("b", f.NameB))
			continue
		}
		out.Facings = append(out.Facings, f)
	}

	return out
}

