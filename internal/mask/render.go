package mask

import (
	"image"
	"image/png"
	"io"

	"github.com/gogpu/gg"
	xdraw "golang.org/x/image/draw"
)

// Image composites the coating art with the current occlusion: scratched
// cells come out transparent so the prize underneath shows through. The art
// is painted per call; masks only keep the alpha grid.
func (m *Mask) Image() *image.NRGBA {
	dc := gg.NewContext(m.width, m.height)
	m.theme.paint(dc)

	img := image.NewNRGBA(image.Rect(0, 0, m.width, m.height))
	copy(img.Pix, dc.ResizeTarget().Data())
	alpha := m.alpha.Data()
	for i, a := range alpha {
		img.Pix[i*4+3] = a
	}
	return img
}

// Thumbnail returns the composited coating scaled to w × h, typically the
// card's CSS size. Non-positive dimensions return the full-resolution image.
func (m *Mask) Thumbnail(w, h int) image.Image {
	src := m.Image()
	if w <= 0 || h <= 0 || (w == m.width && h == m.height) {
		return src
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}
