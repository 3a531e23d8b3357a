package compress

import (
	"image"
	"image/color"
	"image/draw"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// maxPaletteSamples caps the pixels inspected while building a palette.
// Sampling keeps palette construction linear for large images without
// noticeably changing the chosen colors.
const maxPaletteSamples = 100000

// quantizeDithered reduces the image to a fixed-size adaptive palette with
// Floyd-Steinberg dithering. When keepAlpha is set, per-pixel transparency
// participates in the palette; otherwise the palette is fully opaque.
func quantizeDithered(img image.Image, maxColors int, keepAlpha bool) *image.Paletted {
	bounds := img.Bounds()
	palette := buildPalette(img, maxColors, keepAlpha)

	indexed := image.NewPaletted(bounds, palette)
	draw.FloydSteinberg.Draw(indexed, bounds, img, bounds.Min)
	return indexed
}

// palettedToNRGBA restores an indexed image to a full-alpha representation.
func palettedToNRGBA(p *image.Paletted) *image.NRGBA {
	bounds := p.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			r, g, b, a := p.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			off := y*dst.Stride + x*4
			dst.Pix[off] = uint8(r >> 8)
			dst.Pix[off+1] = uint8(g >> 8)
			dst.Pix[off+2] = uint8(b >> 8)
			dst.Pix[off+3] = uint8(a >> 8)
		}
	}
	return dst
}

// buildPalette derives an adaptive palette via median cut over a pixel
// sample. Box averages are computed in Lab space so that the representative
// color sits at the perceptual center of the box, not the numeric one.
func buildPalette(img image.Image, maxColors int, keepAlpha bool) color.Palette {
	pixels := samplePixels(img)
	if len(pixels) == 0 {
		return color.Palette{color.NRGBA{0, 0, 0, 255}}
	}

	boxes := []*colorBox{newColorBox(pixels)}
	for len(boxes) < maxColors {
		splitIdx := -1
		splitScore := -1
		for i, box := range boxes {
			// A single-color box (volume 1) splits into duplicates.
			if len(box.pixels) < 2 || box.volume() <= 1 {
				continue
			}
			score := box.volume() * len(box.pixels)
			if score > splitScore {
				splitScore = score
				splitIdx = i
			}
		}
		if splitIdx == -1 {
			break
		}

		box := boxes[splitIdx]
		axis := box.longestAxis()
		sort.Slice(box.pixels, func(i, j int) bool {
			return box.pixels[i][axis] < box.pixels[j][axis]
		})

		mid := len(box.pixels) / 2
		boxes[splitIdx] = newColorBox(box.pixels[:mid])
		boxes = append(boxes, newColorBox(box.pixels[mid:]))
	}

	palette := make(color.Palette, len(boxes))
	for i, box := range boxes {
		palette[i] = box.average(keepAlpha)
	}
	return palette
}

func samplePixels(img image.Image) [][4]uint8 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	total := w * h
	if total == 0 {
		return nil
	}

	step := 1
	if total > maxPaletteSamples {
		step = total / maxPaletteSamples
	}

	pixels := make([][4]uint8, 0, total/step+1)
	for i := 0; i < total; i += step {
		x := bounds.Min.X + i%w
		y := bounds.Min.Y + i/w
		r, g, b, a := img.At(x, y).RGBA()
		pixels = append(pixels, [4]uint8{
			uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8),
		})
	}
	return pixels
}

// colorBox is one median-cut cell: a set of pixels and their RGB extents.
type colorBox struct {
	pixels     [][4]uint8
	rMin, rMax uint8
	gMin, gMax uint8
	bMin, bMax uint8
}

func newColorBox(pixels [][4]uint8) *colorBox {
	box := &colorBox{pixels: pixels, rMin: 255, gMin: 255, bMin: 255}
	for _, p := range pixels {
		if p[0] < box.rMin {
			box.rMin = p[0]
		}
		if p[0] > box.rMax {
			box.rMax = p[0]
		}
		if p[1] < box.gMin {
			box.gMin = p[1]
		}
		if p[1] > box.gMax {
			box.gMax = p[1]
		}
		if p[2] < box.bMin {
			box.bMin = p[2]
		}
		if p[2] > box.bMax {
			box.bMax = p[2]
		}
	}
	return box
}

func (b *colorBox) longestAxis() int {
	rRange := int(b.rMax) - int(b.rMin)
	gRange := int(b.gMax) - int(b.gMin)
	bRange := int(b.bMax) - int(b.bMin)
	if rRange >= gRange && rRange >= bRange {
		return 0
	}
	if gRange >= bRange {
		return 1
	}
	return 2
}

func (b *colorBox) volume() int {
	return (int(b.rMax) - int(b.rMin) + 1) *
		(int(b.gMax) - int(b.gMin) + 1) *
		(int(b.bMax) - int(b.bMin) + 1)
}

// average returns the perceptual center of the box.
func (b *colorBox) average(keepAlpha bool) color.Color {
	if len(b.pixels) == 0 {
		return color.NRGBA{0, 0, 0, 255}
	}

	var l, aa, bb float64
	var alphaSum int64
	for _, p := range b.pixels {
		cl, ca, cb := colorful.Color{
			R: float64(p[0]) / 255,
			G: float64(p[1]) / 255,
			B: float64(p[2]) / 255,
		}.Lab()
		l += cl
		aa += ca
		bb += cb
		alphaSum += int64(p[3])
	}

	n := float64(len(b.pixels))
	r, g, bl := colorful.Lab(l/n, aa/n, bb/n).Clamped().RGB255()

	alpha := uint8(255)
	if keepAlpha {
		alpha = uint8(alphaSum / int64(len(b.pixels)))
	}
	return color.NRGBA{R: r, G: g, B: bl, A: alpha}
}
