package compress

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"
)

// noiseImage fills an opaque NRGBA with seeded random pixels. Noise is the
// worst case for every encoder, so sizes respond strongly to quality.
func noiseImage(t *testing.T, width, height int, seed int64) *image.NRGBA {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.Intn(256))
		img.Pix[i+1] = uint8(rng.Intn(256))
		img.Pix[i+2] = uint8(rng.Intn(256))
		img.Pix[i+3] = 0xff
	}
	return img
}

// alphaNoiseImage is noiseImage with a varied, never fully opaque alpha
// channel.
func alphaNoiseImage(t *testing.T, width, height int, seed int64) *image.NRGBA {
	t.Helper()

	img := noiseImage(t, width, height, seed)
	rng := rand.New(rand.NewSource(seed + 1))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.Intn(255))
	}
	return img
}

// solidImage fills an opaque NRGBA with a single color.
func solidImage(t *testing.T, width, height int, c color.NRGBA) *image.NRGBA {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// halfTransparentImage builds an image whose left half is opaque white and
// right half fully transparent.
func halfTransparentImage(t *testing.T, width, height int) *image.NRGBA {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < width/2 {
				img.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{0, 0, 0, 0})
			}
		}
	}
	return img
}

// encodePNGSource encodes the image as PNG and decodes it into an
// EncodedImage ready for compression.
func encodePNGSource(t *testing.T, img image.Image) *EncodedImage {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test png: %v", err)
	}
	return decodeSource(t, buf.Bytes())
}

// encodeJPEGSource encodes the image as JPEG at the given quality and
// decodes it into an EncodedImage.
func encodeJPEGSource(t *testing.T, img image.Image, quality int) *EncodedImage {
	t.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		t.Fatalf("failed to encode test jpeg: %v", err)
	}
	return decodeSource(t, buf.Bytes())
}

func decodeSource(t *testing.T, data []byte) *EncodedImage {
	t.Helper()

	src, err := Decode(data)
	if err != nil {
		t.Fatalf("failed to decode test image: %v", err)
	}
	return src
}
