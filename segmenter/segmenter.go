// Package segmenter implements the image-to-grid conversion of spec.md §4.B:
// a colored floor-plan raster becomes a grid.Grid with labeled room regions.
// The approach mirrors the teacher's pkg/image processing pipeline (decode,
// classify, label, downsample) but replaces edge/line detection with per-color
// connected-component labeling, since furniture placement needs filled room
// regions rather than wall outlines.
package segmenter

import (
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/arxos/layoutengine/config"
	layerrors "github.com/arxos/layoutengine/errors"
	"github.com/arxos/layoutengine/grid"
	"github.com/arxos/layoutengine/logx"
)

// roomPriority ranks requested room names so the k-th largest region pairs with
// the k-th highest-priority requested name, per §4.B step 7.
var roomPriority = map[string]int{
	"living": 0, "lounge": 0,
	"kitchen": 1, "dining": 1,
	"master": 2,
	"bed":    3, "bedroom": 3,
	"hall":    4,
	"bath":    5, "bathroom": 5,
	"storage": 6,
}

const defaultPriority = 3

func priorityOf(name string) int {
	if p, ok := roomPriority[name]; ok {
		return p
	}
	return defaultPriority
}

// areaBracketName names an auto-assigned room by its size bracket, used when a
// region has no paired requested name.
func areaBracketName(areaSqM float64, seq int) string {
	var base string
	switch {
	case areaSqM >= 15:
		base = "living area"
	case areaSqM >= 8:
		base = "bedroom"
	case areaSqM >= 3:
		base = "bathroom"
	default:
		base = "storage"
	}
	if seq == 0 {
		return base
	}
	return base + "_" + itoa(seq)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Result is the output of Segment: the built grid plus the room-name
// assignment order (largest region first), for callers that want to log it.
type Result struct {
	Grid      *grid.Grid
	RoomNames []string
}

// debugPalette cycles distinct hues for rooms whose original detected color
// isn't available to the caller (Grid only keeps cell membership, not color).
var debugPalette = []colorful.Color{
	{R: 0.85, G: 0.30, B: 0.30},
	{R: 0.30, G: 0.55, B: 0.85},
	{R: 0.35, G: 0.75, B: 0.40},
	{R: 0.85, G: 0.70, B: 0.25},
	{R: 0.60, G: 0.35, B: 0.80},
	{R: 0.30, G: 0.75, B: 0.75},
}

// DebugOverlay renders a cell-resolution copy of g, tinting each room's cells
// by a palette color (cycling in RoomNames() order) and hatching passage
// cells, for local inspection. Not part of the stable output schema.
func DebugOverlay(g *grid.Grid) image.Image {
	const pxPerCell = 16
	dst := image.NewRGBA(image.Rect(0, 0, g.W*pxPerCell, g.H*pxPerCell))

	roomColor := make(map[string]colorful.Color, len(g.RoomNames()))
	for idx, name := range g.RoomNames() {
		roomColor[name] = debugPalette[idx%len(debugPalette)]
	}

	for i := 0; i < g.H; i++ {
		for j := 0; j < g.W; j++ {
			c := grid.Cell{I: i, J: j}
			var fill colorful.Color
			hatch := false
			switch {
			case g.IsPassage(c):
				fill = colorful.Color{R: 0.8, G: 0.8, B: 0.8}
				hatch = true
			case g.IsOutdoor(c):
				fill = colorful.Color{R: 1, G: 1, B: 1}
			default:
				if name, ok := g.RoomOf(c); ok {
					fill = roomColor[name]
				} else {
					fill = colorful.Color{R: 0.95, G: 0.95, B: 0.95}
				}
			}
			r, gg, b, _ := fill.RGBA()
			px := color.RGBA{uint8(r >> 8), uint8(gg >> 8), uint8(b >> 8), 255}
			for py := 0; py < pxPerCell; py++ {
				for pxi := 0; pxi < pxPerCell; pxi++ {
					out := px
					if hatch && (py+pxi)%4 == 0 {
						out = color.RGBA{80, 80, 80, 255}
					}
					dst.Set(j*pxPerCell+pxi, i*pxPerCell+py, out)
				}
			}
		}
	}
	return dst
}

// Segment decodes an RGB floor-plan image from r and builds a grid of the
// requested physical envelope width (metres) at the given cell size (metres).
// requestedNames, if non-empty, is paired with regions by descending area and
// descending priority per §4.B step 7.
func Segment(r io.Reader, envelopeWidthMeters, cellSize float64, requestedNames []string, cfg config.SegmenterConfig) (*Result, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, layerrors.Wrap(err, layerrors.InputInvalid, "segmenter", "failed to decode floor plan image")
	}

	bounds := img.Bounds()
	imgW, imgH := bounds.Dx(), bounds.Dy()
	if imgW == 0 || imgH == 0 {
		return nil, layerrors.New(layerrors.InputInvalid, "segmenter", "image has zero dimensions")
	}

	img = downsampleIfNeeded(img, cfg.MaxDimension)
	bounds = img.Bounds()
	imgW, imgH = bounds.Dx(), bounds.Dy()

	gridW := int(math.Round(envelopeWidthMeters / cellSize))
	if gridW < 1 {
		gridW = 1
	}
	gridH := int(math.Round(float64(imgH) * float64(gridW) / float64(imgW)))
	if gridH < 1 {
		gridH = 1
	}

	labels, numLabels, labelColor := classifyAndLabel(img, cfg)
	if numLabels == 0 {
		logx.Named("segmenter").Warn("no saturated room pixels found")
		return &Result{Grid: grid.New(gridW, gridH, cellSize)}, layerrors.New(layerrors.NoRoomsDetected, "segmenter", "no saturated pixels found")
	}

	cellLabel := downsampleToGrid(labels, numLabels, imgW, imgH, gridW, gridH)

	minCells := int(math.Ceil(1.0 / (cellSize * cellSize)))
	regions := regionsByArea(cellLabel, numLabels, minCells)
	if len(regions) == 0 {
		logx.Named("segmenter").Warn("all candidate regions filtered as noise")
		return &Result{Grid: grid.New(gridW, gridH, cellSize)}, layerrors.New(layerrors.NoRoomsDetected, "segmenter", "no regions survived noise filtering")
	}

	log := logx.Named("segmenter")
	for _, reg := range regions {
		log.Info("detected room region",
			zap.Int("label", reg.label), zap.Int("cells", len(reg.cells)), zap.String("color", labelColor[reg.label].Hex()))
	}

	names := assignRoomNames(regions, requestedNames, cellSize)

	g := grid.New(gridW, gridH, cellSize)
	for idx, region := range regions {
		cells := make([]grid.Cell, 0, len(region.cells))
		for _, c := range region.cells {
			cells = append(cells, grid.Cell{I: c[0], J: c[1]})
		}
		if err := g.AddRoom(names[idx], cells); err != nil {
			return nil, layerrors.Wrap(err, layerrors.InputInvalid, "segmenter", "failed to register segmented room")
		}
	}

	// Every cell that didn't survive into a region — no nonzero vote at all
	// (wall/background/gray-stripe pixels), or covered by a label the
	// area/noise filter rejected — becomes a passage cell, addressed during
	// optimization as outside-of-room. This is what keeps §8 invariant #10
	// (room + passage + outdoor area == envelope area) holding for real
	// segmented images, which always carry a background margin.
	assigned := make(map[[2]int]bool, len(cellLabel))
	for _, region := range regions {
		for _, c := range region.cells {
			assigned[c] = true
		}
	}
	for i := 0; i < gridH; i++ {
		for j := 0; j < gridW; j++ {
			c := [2]int{i, j}
			if !assigned[c] {
				g.AddPassages(grid.Cell{I: i, J: j})
			}
		}
	}

	return &Result{Grid: g, RoomNames: names}, nil
}

func downsampleIfNeeded(img image.Image, maxDim int) image.Image {
	if maxDim <= 0 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}
	scale := float64(maxDim) / math.Max(float64(w), float64(h))
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// classifyAndLabel quantizes each room pixel's color and runs 4-connected
// component labeling per quantized color, per §4.B steps 2-4. It returns a
// per-pixel label (0 = unlabeled / wall-background) and the number of labels
// assigned (before the area-filter/noise-rejection pass done by the caller's
// downsample + regionsByArea steps).
func classifyAndLabel(img image.Image, cfg config.SegmenterConfig) ([][]int, int, map[int]colorful.Color) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	quant := make([][]int, h)
	for y := range quant {
		quant[y] = make([]int, w)
	}

	buckets := make(map[int][][2]int) // quantized color -> pixel coords
	imageArea := float64(w * h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			r8, g8, b8 := int(r>>8), int(g>>8), int(bl>>8)

			chroma := abs(r8-g8) + abs(g8-b8) + abs(b8-r8)
			if chroma < cfg.ChromaThreshold {
				continue // wall/background/low-chroma pixel
			}

			qr, qg, qb := r8/cfg.QuantizeDivisor, g8/cfg.QuantizeDivisor, b8/cfg.QuantizeDivisor
			key := qr<<16 | qg<<8 | qb
			buckets[key] = append(buckets[key], [2]int{y, x})
		}
	}

	mergeAdjacentBuckets(buckets, cfg.QuantizeDivisor)

	label := 0
	labelColor := make(map[int]colorful.Color)
	for key, pixels := range buckets {
		present := make(map[[2]int]bool, len(pixels))
		for _, p := range pixels {
			present[p] = true
		}
		seen := make(map[[2]int]bool, len(pixels))
		for _, p := range pixels {
			if seen[p] {
				continue
			}
			comp := floodFill(p, present, seen)
			if float64(len(comp))/imageArea < cfg.MinRegionAreaFrac {
				continue
			}
			label++
			labelColor[label] = keyToColor(key, cfg.QuantizeDivisor)
			for _, c := range comp {
				quant[c[0]][c[1]] = label
			}
		}
	}

	return quant, label, labelColor
}

// keyToColor reconstructs the mid-bucket colorful.Color a quantized bucket
// key represents, used both to merge perceptually-close buckets and to
// render a human-readable Hex() for detected-region logging.
func keyToColor(key, divisor int) colorful.Color {
	qr := (key >> 16) & 0xff
	qg := (key >> 8) & 0xff
	qb := key & 0xff
	mid := divisor / 2
	return colorful.Color{
		R: float64(qr*divisor+mid) / 255,
		G: float64(qg*divisor+mid) / 255,
		B: float64(qb*divisor+mid) / 255,
	}
}

// mergeAdjacentBuckets folds quantized-color buckets that are perceptually
// close (small CIE Lab distance) into one, so a wall paint that straddles a
// quantization cell edge doesn't get split into two separate room colors.
// Merging keys into the numerically lowest key keeps the process
// deterministic regardless of map iteration order.
func mergeAdjacentBuckets(buckets map[int][][2]int, divisor int) {
	const mergeDistance = 0.03 // Lab distance; empirically well under one flat color's own noise

	type keyed struct {
		key int
		lab colorful.Color
	}
	reprs := make([]keyed, 0, len(buckets))
	for key := range buckets {
		reprs = append(reprs, keyed{key: key, lab: keyToColor(key, divisor)})
	}
	sort.Slice(reprs, func(a, b int) bool { return reprs[a].key < reprs[b].key })

	for a := 0; a < len(reprs); a++ {
		target := reprs[a].key
		if _, ok := buckets[target]; !ok {
			continue // already merged away
		}
		for b := a + 1; b < len(reprs); b++ {
			other := reprs[b].key
			pixels, ok := buckets[other]
			if !ok {
				continue
			}
			if reprs[a].lab.DistanceLab(reprs[b].lab) < mergeDistance {
				buckets[target] = append(buckets[target], pixels...)
				delete(buckets, other)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

var neighborOffsets = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

func floodFill(start [2]int, present, seen map[[2]int]bool) [][2]int {
	stack := [][2]int{start}
	seen[start] = true
	var comp [][2]int
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		comp = append(comp, p)
		for _, off := range neighborOffsets {
			n := [2]int{p[0] + off[0], p[1] + off[1]}
			if present[n] && !seen[n] {
				seen[n] = true
				stack = append(stack, n)
			}
		}
	}
	return comp
}

// downsampleToGrid majority-votes each cell's pixel rectangle into a single
// label, per §4.B step 5. A cell with no labeled pixels at all (background/
// wall/gray-stripe) simply has no entry in the returned map.
func downsampleToGrid(pixelLabels [][]int, numLabels, imgW, imgH, gridW, gridH int) map[[2]int]int {
	cellLabel := make(map[[2]int]int)

	cellPixelW := float64(imgW) / float64(gridW)
	cellPixelH := float64(imgH) / float64(gridH)

	for i := 0; i < gridH; i++ {
		for j := 0; j < gridW; j++ {
			x0 := int(float64(j) * cellPixelW)
			x1 := int(float64(j+1) * cellPixelW)
			y0 := int(float64(i) * cellPixelH)
			y1 := int(float64(i+1) * cellPixelH)
			if x1 > imgW {
				x1 = imgW
			}
			if y1 > imgH {
				y1 = imgH
			}

			votes := make(map[int]int)
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					l := pixelLabels[y][x]
					if l != 0 {
						votes[l]++
					}
				}
			}

			best, bestCount := 0, 0
			for l, count := range votes {
				if count > bestCount {
					best, bestCount = l, count
				}
			}
			if best != 0 {
				cellLabel[[2]int{i, j}] = best
			}
		}
	}
	return cellLabel
}

type region struct {
	label int
	cells [][2]int
}

// regionsByArea groups cells by label, drops regions smaller than minCells,
// and returns them sorted by descending cell count (§4.B steps 6-7).
func regionsByArea(cellLabel map[[2]int]int, numLabels, minCells int) []region {
	byLabel := make(map[int][][2]int, numLabels)
	for c, l := range cellLabel {
		byLabel[l] = append(byLabel[l], c)
	}

	var regions []region
	for l, cells := range byLabel {
		if len(cells) < minCells {
			continue
		}
		regions = append(regions, region{label: l, cells: cells})
	}
	sort.Slice(regions, func(a, b int) bool {
		return len(regions[a].cells) > len(regions[b].cells)
	})
	return regions
}

// assignRoomNames pairs regions (sorted largest-first) with requestedNames
// sorted by priority, and auto-names the remainder by area bracket.
func assignRoomNames(regions []region, requestedNames []string, cellSize float64) []string {
	sortedNames := append([]string(nil), requestedNames...)
	sort.SliceStable(sortedNames, func(a, b int) bool {
		return priorityOf(sortedNames[a]) < priorityOf(sortedNames[b])
	})

	used := make(map[string]bool, len(regions))
	names := make([]string, len(regions))
	bracketSeq := make(map[string]int)

	for idx, r := range regions {
		var candidate string
		if idx < len(sortedNames) {
			candidate = sortedNames[idx]
		} else {
			areaSqM := float64(len(r.cells)) * cellSize * cellSize
			base := areaBracketName(areaSqM, 0)
			seq := bracketSeq[base]
			if seq > 0 {
				candidate = areaBracketName(areaSqM, seq)
			} else {
				candidate = base
			}
			bracketSeq[base] = seq + 1
		}

		name := candidate
		suffix := 1
		for used[name] {
			name = candidate + "_" + itoa(suffix)
			suffix++
		}
		used[name] = true
		names[idx] = name
	}
	return names
}
