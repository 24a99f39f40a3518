// Package composite rasterizes a frame snapshot into an opaque RGBA image.
package composite

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"github.com/mgpai22/markreel/internal/frame"
	"github.com/mgpai22/markreel/internal/marker"
)

// Compositor draws overlays onto frames of a fixed size. It is safe for
// concurrent use by the render workers.
type Compositor struct {
	width, height int
	decoded       sync.Map // slug -> *image.NRGBA
}

func New(width, height int) *Compositor {
	return &Compositor{width: width, height: height}
}

// Compose renders snap onto an opaque black canvas. Overlays are drawn in
// snapshot order, so later overlays end up on top.
func (c *Compositor) Compose(snap frame.Snapshot) (*image.RGBA, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	for i := 3; i < len(canvas.Pix); i += 4 {
		canvas.Pix[i] = 0xff
	}

	for _, ev := range snap.Overlays {
		overlay, ok := ev.Directive.(marker.ImageStart)
		if !ok {
			continue
		}
		src, err := c.image(snap.Assets, overlay.Slug)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", snap.Index, err)
		}
		Draw(canvas, src, overlay.Rect)
	}
	return canvas, nil
}

func (c *Compositor) image(assets *frame.AssetCache, slug string) (*image.NRGBA, error) {
	if img, ok := c.decoded.Load(slug); ok {
		return img.(*image.NRGBA), nil
	}
	data, ok := assets.Get(slug)
	if !ok {
		return nil, fmt.Errorf("asset %q not loaded", slug)
	}
	img, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode asset %q: %w", slug, err)
	}
	actual, _ := c.decoded.LoadOrStore(slug, img)
	return actual.(*image.NRGBA), nil
}

// Decode reads encoded image bytes into straight-alpha RGBA.
func Decode(data []byte) (*image.NRGBA, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Rect.Min == (image.Point{}) {
		return nrgba, nil
	}
	b := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	return nrgba, nil
}

// Draw blends src over dst inside rect using nearest-neighbour sampling.
// Every destination pixel leaves fully opaque, inside the rect or not.
// dst must be anchored at the origin with a tight stride, as NewRGBA makes it.
func Draw(dst *image.RGBA, src *image.NRGBA, rect marker.Rect) {
	width := dst.Rect.Dx()
	iw, ih := src.Rect.Dx(), src.Rect.Dy()

	for i := 0; i+3 < len(dst.Pix); i += 4 {
		dst.Pix[i+3] = 0xff
		if rect.W == 0 || rect.H == 0 || iw == 0 || ih == 0 {
			continue
		}

		index := i / 4
		px, py := index%width, index/width
		rx := (float64(px) - float64(rect.X)) / float64(rect.W)
		ry := (float64(py) - float64(rect.Y)) / float64(rect.H)
		if rx < 0 || rx > 1 || ry < 0 || ry > 1 {
			continue
		}

		ix := min(int(rx*float64(iw)), iw-1)
		iy := min(int(ry*float64(ih)), ih-1)
		sp := src.PixOffset(ix, iy)

		alpha := float64(src.Pix[sp+3]) / 255
		for ch := 0; ch < 3; ch++ {
			dst.Pix[i+ch] = uint8(float64(src.Pix[sp+ch])*alpha) + uint8(float64(dst.Pix[i+ch])*(1-alpha))
		}
	}
}
