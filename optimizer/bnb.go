package optimizer

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/arxos/layoutengine/grid"
)

// assignment is one candidate solution: a rect + orientation per item index
// (indices into roomModel.items, in the order they were searched).
type assignment struct {
	rects        []rect
	orientations []Orientation
}

// searchOrder returns item indices sorted by descending footprint area, which
// places the most constrained items first — a standard branch-and-bound
// variable-ordering heuristic. Ties break by name for determinism.
func searchOrder(rm *roomModel) []int {
	idx := make([]int, len(rm.items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := rm.items[idx[a]], rm.items[idx[b]]
		areaA := ia.LengthCells * ia.WidthCells
		areaB := ib.LengthCells * ib.WidthCells
		if areaA != areaB {
			return areaA > areaB
		}
		return ia.Name < ib.Name
	})
	return idx
}

// solveResult carries the outcome of one branch-and-bound run.
type solveResult struct {
	feasible bool
	best     assignment
	bestObj  float64
	nodes    int
	timedOut bool
}

// bnbSolve covers both stages of §4.D's solve in a single DFS: the first
// feasible leaf establishes feasibility, and the search then continues,
// keeping the best-objective leaf, until the tree is exhausted or the budget
// runs out. The search order is always the fixed searchOrder. deterministic
// skips the deadline and context checks entirely, so only the node limit
// ends the search early, for reproducible tests.
func bnbSolve(ctx context.Context, rm *roomModel, deadline time.Time, nodeLimit int, deterministic bool) solveResult {
	order := searchOrder(rm)
	n := len(order)

	placed := make([]rect, n)
	oriented := make([]Orientation, n)
	occupied := make(map[grid.Cell]int, 64)

	var res solveResult
	res.bestObj = math.Inf(1)
	nodes := 0

	var dfs func(depth int) bool
	dfs = func(depth int) bool {
		nodes++
		if nodes > nodeLimit {
			res.timedOut = true
			return true // stop: budget exhausted
		}
		if !deterministic && nodes%2048 == 0 {
			if time.Now().After(deadline) {
				res.timedOut = true
				return true
			}
			select {
			case <-ctx.Done():
				res.timedOut = true
				return true
			default:
			}
		}

		if depth == n {
			if !checkGlobalConstraints(rm, order, placed, oriented) {
				return false
			}
			obj := objective(rm, placed)
			if obj < res.bestObj {
				res.bestObj = obj
				res.best = assignment{
					rects:        append([]rect(nil), placed...),
					orientations: append([]Orientation(nil), oriented...),
				}
				res.feasible = true
			}
			return false // keep searching for a better leaf (stage 2 behavior)
		}

		itemIdx := order[depth]
		item := rm.items[itemIdx]
		isBoundary := rm.boundary[item.Name]

		for _, sigma := range [2]int{0, 1} {
			sizeI, sizeJ := footprint(sigma, item.LengthCells, item.WidthCells)
			if sizeI > (rm.bbox.IMax-rm.bbox.IMin+1) || sizeJ > (rm.bbox.JMax-rm.bbox.JMin+1) {
				continue
			}
			for i0 := rm.bbox.IMin; i0 <= rm.bbox.IMax-sizeI+1; i0++ {
				for j0 := rm.bbox.JMin; j0 <= rm.bbox.JMax-sizeJ+1; j0++ {
					r := rect{I0: i0, J0: j0, SizeI: sizeI, SizeJ: sizeJ}
					if !rm.fitsContainmentAndClearance(r) {
						continue
					}
					if overlaps(r, occupied) {
						continue
					}
					if isBoundary && !rm.satisfiesBoundary(r, item.WidthCells) {
						continue
					}

					for _, mu := range [2]int{0, 1} {
						placed[depth] = r
						oriented[depth] = Orientation{Sigma: sigma, Mu: mu}

						if !alignmentFeasibleSoFar(rm, order, oriented, depth) {
							continue
						}

						for _, c := range r.cells() {
							occupied[c] = itemIdx
						}
						stop := dfs(depth + 1)
						for _, c := range r.cells() {
							delete(occupied, c)
						}
						if stop {
							return true
						}
					}
				}
			}
		}
		return false
	}

	dfs(0)
	res.nodes = nodes
	return res
}

func overlaps(r rect, occupied map[grid.Cell]int) bool {
	for _, c := range r.cells() {
		if _, ok := occupied[c]; ok {
			return true
		}
	}
	return false
}

// alignmentFeasibleSoFar checks alignment constraints (§4.D.7) between the
// item just placed (at search-order position depth) and any already-placed
// partner.
func alignmentFeasibleSoFar(rm *roomModel, order []int, oriented []Orientation, depth int) bool {
	currentIdx := order[depth]
	currentName := rm.items[currentIdx].Name

	for _, a := range rm.alignments {
		var partnerName string
		switch currentName {
		case a.NameA:
			partnerName = a.NameB
		case a.NameB:
			partnerName = a.NameA
		default:
			continue
		}
		for d := 0; d < depth; d++ {
			if rm.items[order[d]].Name == partnerName {
				if oriented[d].Sigma != oriented[depth].Sigma {
					return false
				}
			}
		}
	}
	return true
}

// checkGlobalConstraints validates alignment (redundantly, cheaply) and
// facing (§4.D.8) over a complete leaf assignment.
func checkGlobalConstraints(rm *roomModel, order []int, placed []rect, oriented []Orientation) bool {
	nameIndex := make(map[string]int, len(order))
	for pos, idx := range order {
		nameIndex[rm.items[idx].Name] = pos
	}

	for _, a := range rm.alignments {
		pa, okA := nameIndex[a.NameA]
		pb, okB := nameIndex[a.NameB]
		if !okA || !okB {
			continue
		}
		if oriented[pa].Sigma != oriented[pb].Sigma {
			return false
		}
	}

	for _, f := range rm.facings {
		pa, okA := nameIndex[f.NameA]
		pb, okB := nameIndex[f.NameB]
		if !okA || !okB {
			continue
		}
		if !facingHolds(rm, placed[pa], oriented[pa], placed[pb]) {
			return false
		}
	}

	return true
}

// facingHolds checks the directional inequality of §4.D.8 between a facer at
// rectA/oriA and a target at rectB: strictly in the direction the facer
// points.
func facingHolds(rm *roomModel, rectA rect, oriA Orientation, rectB rect) bool {
	aI, aJ := rectA.centerI(rm.cellSize), rectA.centerJ(rm.cellSize)
	bI, bJ := rectB.centerI(rm.cellSize), rectB.centerJ(rm.cellSize)

	switch facingDirection(oriA) {
	case grid.North:
		return bI < aI
	case grid.South:
		return bI > aI
	case grid.East:
		return bJ > aJ
	case grid.West:
		return bJ < aJ
	}
	return false
}

// objective computes the weighted balance + distance-deviation objective of
// §4.D: room-centroid balance error times rm.weightBalance, plus distance-pair
// deviation times rm.weightDistance (defaults 1.0/0.6, config/config.go).
func objective(rm *roomModel, placed []rect) float64 {
	order := searchOrder(rm)
	nameIndex := make(map[string]int, len(order))
	for pos, idx := range order {
		nameIndex[rm.items[idx].Name] = pos
	}

	var weightedI, weightedJ, totalArea float64
	for pos, idx := range order {
		item := rm.items[idx]
		area := float64(item.LengthCells * item.WidthCells)
		weightedI += area * placed[pos].centerI(rm.cellSize) / rm.cellSize
		weightedJ += area * placed[pos].centerJ(rm.cellSize) / rm.cellSize
		totalArea += area
	}
	furnCI := weightedI / totalArea
	furnCJ := weightedJ / totalArea

	errI := math.Abs(furnCI - rm.centroidI)
	errJ := math.Abs(furnCJ - rm.centroidJ)

	balanceTerm := errI + errJ

	var distTerm float64
	for _, d := range rm.distances {
		pa, okA := nameIndex[d.NameA]
		pb, okB := nameIndex[d.NameB]
		if !okA || !okB {
			continue
		}
		alongActual := (placed[pb].centerI(rm.cellSize) - placed[pa].centerI(rm.cellSize)) / rm.cellSize
		perpActual := (placed[pb].centerJ(rm.cellSize) - placed[pa].centerJ(rm.cellSize)) / rm.cellSize
		distTerm += math.Abs(alongActual-d.Along) + math.Abs(perpActual-d.Perp)
	}

	return rm.weightBalance*balanceTerm + rm.weightDistance*distTerm
}
