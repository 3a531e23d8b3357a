package compress

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// maxPNGDimension is the longest-side limit before a PNG is downscaled.
// Large PNGs are dominated by pixel count, not deflate level.
const maxPNGDimension = 1500

// encodePNG produces the smallest of several candidate PNG encodings.
//
// PNG has no true quality knob, so the requested quality is translated
// into a deflate compression level plus optional lossy preprocessing
// (downscale and palette quantization). Higher quality keeps more detail
// and accepts a larger output.
func encodePNG(src *EncodedImage, quality int, filename string) (*Result, error) {
	level := compressionLevelFor(quality)

	img := src.Image
	if w, h := src.Width, src.Height; w > maxPNGDimension || h > maxPNGDimension {
		if w >= h {
			img = imaging.Resize(img, maxPNGDimension, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, maxPNGDimension, imaging.Lanczos)
		}
	}

	// Second candidate. Opaque images always get an adaptive
	// palette-indexed encode; images with transparency only when quality
	// is low enough to trade color depth for size.
	var lossy image.Image
	switch {
	case src.HasAlpha && quality < 50:
		lossy = palettedToNRGBA(quantizeDithered(img, 256, true))
	case !src.HasAlpha:
		colors := 256
		if quality < 30 {
			colors = 128
		}
		lossy = quantizeDithered(toRGB(img), colors, false)
	}

	encoder := png.Encoder{CompressionLevel: deflateLevel(level)}

	var buf bytes.Buffer
	if err := encoder.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	best := buf.Bytes()

	// Quantization does not always win (small images index poorly once
	// the palette overhead lands), so encode both and keep the smaller.
	// A failure of the lossy candidate is non-fatal.
	if lossy != nil {
		var lossyBuf bytes.Buffer
		if err := encoder.Encode(&lossyBuf, lossy); err == nil && lossyBuf.Len() < len(best) {
			best = lossyBuf.Bytes()
		}
	}

	return newResult(best, FormatPNG, filename, quality), nil
}

// compressionLevelFor maps a 1-100 quality onto a 0-9 deflate effort.
// Low quality asks for maximum compression.
func compressionLevelFor(quality int) int {
	if quality <= 10 {
		return 9
	}
	step := quality / 10
	if step > 9 {
		step = 9
	}
	return 9 - step
}

// deflateLevel buckets a 0-9 effort onto the levels the stdlib encoder
// actually exposes.
func deflateLevel(level int) png.CompressionLevel {
	switch {
	case level >= 7:
		return png.BestCompression
	case level >= 3:
		return png.DefaultCompression
	case level >= 1:
		return png.BestSpeed
	default:
		return png.NoCompression
	}
}
