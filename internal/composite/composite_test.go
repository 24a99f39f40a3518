package composite

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/mgpai22/markreel/internal/frame"
	"github.com/mgpai22/markreel/internal/marker"
	"github.com/mgpai22/markreel/internal/timeline"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func overlay(uuid, slug string, rect marker.Rect) timeline.Event {
	return timeline.Event{UUID: uuid, Directive: marker.ImageStart{Slug: slug, Rect: rect}}
}

func TestComposeEmptySnapshotIsOpaqueBlack(t *testing.T) {
	img, err := New(4, 3).Compose(frame.Snapshot{Assets: frame.NewAssetCache()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 || img.Pix[i+1] != 0 || img.Pix[i+2] != 0 || img.Pix[i+3] != 255 {
			t.Fatalf("pixel %d = %v, want opaque black", i/4, img.Pix[i:i+4])
		}
	}
}

func TestComposePlacesOpaqueOverlay(t *testing.T) {
	assets := frame.NewAssetCache()
	assets.Put("red", encodePNG(t, solid(2, 2, color.NRGBA{255, 0, 0, 255})))

	snap := frame.Snapshot{
		Overlays: []timeline.Event{overlay("a", "red", marker.Rect{X: 2, Y: 1, W: 3, H: 3})},
		Assets:   assets,
	}
	img, err := New(8, 6).Compose(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			got := img.RGBAAt(x, y)
			inside := x >= 2 && x <= 5 && y >= 1 && y <= 4
			want := color.RGBA{0, 0, 0, 255}
			if inside {
				want = color.RGBA{255, 0, 0, 255}
			}
			if got != want {
				t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestDrawOutsideFrameKeepsRGBAndForcesAlpha(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 5, 5))
	for i := range dst.Pix {
		switch i % 4 {
		case 3:
			dst.Pix[i] = 0
		default:
			dst.Pix[i] = uint8(i)
		}
	}
	before := append([]uint8(nil), dst.Pix...)

	Draw(dst, solid(2, 2, color.NRGBA{0, 255, 0, 255}), marker.Rect{X: 100, Y: 100, W: 10, H: 10})

	for i := 0; i < len(dst.Pix); i += 4 {
		for ch := 0; ch < 3; ch++ {
			if dst.Pix[i+ch] != before[i+ch] {
				t.Fatalf("pixel %d channel %d changed: %d -> %d", i/4, ch, before[i+ch], dst.Pix[i+ch])
			}
		}
		if dst.Pix[i+3] != 255 {
			t.Fatalf("pixel %d alpha = %d, want 255", i/4, dst.Pix[i+3])
		}
	}
}

func TestDrawBlendsBySourceAlpha(t *testing.T) {
	tests := []struct {
		name string
		src  color.NRGBA
		dst  color.RGBA
		want color.RGBA
	}{
		{"transparent source", color.NRGBA{255, 255, 255, 0}, color.RGBA{10, 20, 30, 255}, color.RGBA{10, 20, 30, 255}},
		{"opaque source", color.NRGBA{200, 100, 50, 255}, color.RGBA{10, 20, 30, 255}, color.RGBA{200, 100, 50, 255}},
		{"half source truncates per term", color.NRGBA{255, 0, 100, 128}, color.RGBA{100, 100, 100, 255}, color.RGBA{177, 49, 99, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := image.NewRGBA(image.Rect(0, 0, 1, 1))
			dst.SetRGBA(0, 0, tt.dst)
			Draw(dst, solid(1, 1, tt.src), marker.Rect{X: 0, Y: 0, W: 1, H: 1})
			if got := dst.RGBAAt(0, 0); got != tt.want {
				t.Errorf("pixel = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComposeLaterOverlayOnTop(t *testing.T) {
	assets := frame.NewAssetCache()
	assets.Put("red", encodePNG(t, solid(1, 1, color.NRGBA{255, 0, 0, 255})))
	assets.Put("blue", encodePNG(t, solid(1, 1, color.NRGBA{0, 0, 255, 255})))

	rect := marker.Rect{X: 0, Y: 0, W: 2, H: 2}
	snap := frame.Snapshot{
		Overlays: []timeline.Event{
			overlay("first", "red", rect),
			{UUID: "script", Directive: marker.ScriptStart{}},
			overlay("second", "blue", rect),
		},
		Assets: assets,
	}

	img, err := New(2, 2).Compose(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := img.RGBAAt(1, 1); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("pixel = %v, want blue on top", got)
	}
}

func TestComposeMissingAssetFails(t *testing.T) {
	snap := frame.Snapshot{
		Index:    9,
		Overlays: []timeline.Event{overlay("a", "ghost", marker.Rect{W: 1, H: 1})},
		Assets:   frame.NewAssetCache(),
	}
	if _, err := New(2, 2).Compose(snap); err == nil {
		t.Fatal("expected error for asset missing from cache")
	}
}

func TestDecodeConvertsPaletted(t *testing.T) {
	palette := color.Palette{color.NRGBA{0, 0, 0, 0}, color.NRGBA{0, 255, 0, 255}}
	img := image.NewPaletted(image.Rect(0, 0, 2, 1), palette)
	img.SetColorIndex(1, 0, 1)

	decoded, err := Decode(encodePNG(t, img))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := decoded.NRGBAAt(1, 0); got != (color.NRGBA{0, 255, 0, 255}) {
		t.Errorf("pixel = %v, want green", got)
	}
	if got := decoded.NRGBAAt(0, 0); got.A != 0 {
		t.Errorf("pixel alpha = %d, want 0", got.A)
	}
}
