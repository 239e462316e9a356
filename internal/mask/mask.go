// Package mask implements the per-card occlusion bitmap: an erase-only alpha
// grid scratched away by round-capped brush strokes.
package mask

import (
	"image"
	"math"

	"github.com/gogpu/gg"
	"github.com/samber/lo"

	"scratchcards/internal/types"
)

const (
	// RevealThreshold is the cleared fraction at which a card counts as scratched.
	RevealThreshold = 0.60

	// MaxCells bounds the device cells of one mask. Surfaces that would
	// exceed it get a lower pixel ratio.
	MaxCells = 1 << 21

	// sampleStride is applied on both axes, so one cell in sixteen is sampled.
	sampleStride = 4

	opaque = 255
)

// Mask tracks which cells of a card's coating are still occluding the prize.
// Cell coordinates are device pixels; stroke input arrives in CSS pixels and
// is scaled by the pixel ratio.
type Mask struct {
	width  int
	height int
	ratio  float64

	alpha *gg.Mask

	// brush is a scratch surface the erase shapes are rasterized into,
	// allocated on first use and grown to the largest stroke box seen.
	brush    *gg.Context
	brushBuf *gg.Pixmap

	theme Theme
}

// New allocates a fully occluded mask for a widthPx × heightPx display area.
// The pixel ratio is lowered when needed to stay within MaxCells.
func New(widthPx, heightPx, pixelRatio float64) *Mask {
	widthPx, heightPx = side(widthPx), side(heightPx)
	pixelRatio = FitPixelRatio(widthPx, heightPx, pixelRatio)
	w := max(1, int(math.Ceil(widthPx*pixelRatio)))
	h := max(1, int(math.Ceil(heightPx*pixelRatio)))

	m := &Mask{
		width:  w,
		height: h,
		ratio:  pixelRatio,
		alpha:  gg.NewMask(w, h),
	}
	m.Reset(DefaultTheme)
	return m
}

// FitPixelRatio returns the largest ratio not above pixelRatio for which a
// widthPx × heightPx surface fits in MaxCells.
func FitPixelRatio(widthPx, heightPx, pixelRatio float64) float64 {
	widthPx, heightPx = side(widthPx), side(heightPx)
	if pixelRatio <= 0 || math.IsNaN(pixelRatio) || math.IsInf(pixelRatio, 0) {
		pixelRatio = 1
	}
	if area := widthPx * heightPx; area > 0 {
		pixelRatio = math.Min(pixelRatio, math.Sqrt(MaxCells/area))
	}
	for cellCount(widthPx, heightPx, pixelRatio) > MaxCells {
		pixelRatio *= 0.99
	}
	return pixelRatio
}

func cellCount(widthPx, heightPx, ratio float64) float64 {
	return math.Max(1, math.Ceil(widthPx*ratio)) * math.Max(1, math.Ceil(heightPx*ratio))
}

func side(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(v, MaxCells)
}

// Width returns the mask width in cells.
func (m *Mask) Width() int { return m.width }

// Height returns the mask height in cells.
func (m *Mask) Height() int { return m.height }

// PixelRatio returns the CSS-to-device scale the mask was built with.
func (m *Mask) PixelRatio() float64 { return m.ratio }

// Theme returns the coating theme last applied by Reset.
func (m *Mask) Theme() Theme { return m.theme }

// At returns the occlusion alpha of a cell. Out-of-range cells read as 0.
func (m *Mask) At(x, y int) uint8 {
	return m.alpha.At(x, y)
}

// Erase clears a capsule of the given radius between from and to. When the
// points coincide a single dot is cleared, so a tap leaves a visible mark.
// Work is proportional to the capsule's bounding box, not the card.
func (m *Mask) Erase(from, to types.Point, radius float64) {
	r := radius * m.ratio
	if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return
	}
	x0, y0 := from.X*m.ratio, from.Y*m.ratio
	x1, y1 := to.X*m.ratio, to.Y*m.ratio

	// one cell of padding for anti-aliased fringes
	box := image.Rect(
		m.clampX(math.Floor(math.Min(x0, x1)-r)-1),
		m.clampY(math.Floor(math.Min(y0, y1)-r)-1),
		m.clampX(math.Ceil(math.Max(x0, x1)+r)+2),
		m.clampY(math.Ceil(math.Max(y0, y1)+r)+2),
	).Intersect(m.alpha.Bounds())
	if box.Empty() {
		return
	}
	m.prepareBrush(box.Dx(), box.Dy())

	ox, oy := float64(box.Min.X), float64(box.Min.Y)
	x0, y0, x1, y1 = x0-ox, y0-oy, x1-ox, y1-oy

	m.brush.DrawCircle(x0, y0, r)
	_ = m.brush.Fill()

	if dx, dy := x1-x0, y1-y0; dx != 0 || dy != 0 {
		m.brush.DrawCircle(x1, y1, r)
		_ = m.brush.Fill()

		l := math.Hypot(dx, dy)
		nx, ny := -dy/l*r, dx/l*r
		m.brush.MoveTo(x0+nx, y0+ny)
		m.brush.LineTo(x1+nx, y1+ny)
		m.brush.LineTo(x1-nx, y1-ny)
		m.brush.LineTo(x0-nx, y0-ny)
		m.brush.ClosePath()
		_ = m.brush.Fill()
	}

	m.applyBrush(box)
}

func (m *Mask) clampX(v float64) int { return int(lo.Clamp(v, -1, float64(m.width+1))) }

func (m *Mask) clampY(v float64) int { return int(lo.Clamp(v, -1, float64(m.height+1))) }

// prepareBrush makes sure the brush covers w × h cells and wipes that region.
// Anything left outside it from earlier strokes is never read.
func (m *Mask) prepareBrush(w, h int) {
	if m.brushBuf == nil || m.brushBuf.Width() < w || m.brushBuf.Height() < h {
		if m.brushBuf != nil {
			w, h = max(w, m.brushBuf.Width()), max(h, m.brushBuf.Height())
		}
		m.brushBuf = gg.NewPixmap(w, h)
		m.brush = gg.NewContext(w, h, gg.WithPixmap(m.brushBuf))
		m.brush.SetRGBA(1, 1, 1, 1)
		return
	}
	pix := m.brushBuf.Data()
	stride := m.brushBuf.Width() * 4
	for y := 0; y < h; y++ {
		clear(pix[y*stride : y*stride+w*4])
	}
}

// applyBrush folds the brush coverage into the occlusion alpha inside box.
// The brush origin sits at box.Min. Erasing is multiplicative, so alpha only
// ever goes down.
func (m *Mask) applyBrush(box image.Rectangle) {
	alpha := m.alpha.Data()
	pix := m.brushBuf.Data()
	stride := m.brushBuf.Width()
	for y := box.Min.Y; y < box.Max.Y; y++ {
		row := y * m.width
		brow := (y - box.Min.Y) * stride
		for x := box.Min.X; x < box.Max.X; x++ {
			cov := pix[(brow+x-box.Min.X)*4+3]
			if cov == 0 {
				continue
			}
			a := alpha[row+x]
			alpha[row+x] = uint8(uint16(a) * uint16(opaque-cov) / opaque)
		}
	}
}

// SampleOcclusionRatio returns the fraction of sampled cells that still
// carry any coating (alpha > 0).
func (m *Mask) SampleOcclusionRatio() float64 {
	alpha := m.alpha.Data()
	var total, occluded int
	for y := 0; y < m.height; y += sampleStride {
		row := y * m.width
		for x := 0; x < m.width; x += sampleStride {
			total++
			if alpha[row+x] > 0 {
				occluded++
			}
		}
	}
	return float64(occluded) / float64(total)
}

// ClearedRatio is the complement of SampleOcclusionRatio.
func (m *Mask) ClearedRatio() float64 {
	return 1 - m.SampleOcclusionRatio()
}

// PastThreshold reports whether enough coating is gone to reveal the prize.
func (m *Mask) PastThreshold() bool {
	return m.ClearedRatio() >= RevealThreshold
}

// ForceClear erases the whole coating.
func (m *Mask) ForceClear() {
	m.alpha.Clear()
}

// Reset restores full occlusion and selects the coating art for theme.
func (m *Mask) Reset(theme Theme) {
	m.alpha.Fill(opaque)
	m.theme = theme
}
