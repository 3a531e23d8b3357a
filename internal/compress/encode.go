package compress

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"golang.org/x/image/bmp"
)

// EncodeAt re-encodes the source at the requested quality and returns one
// result. Quality uses the standard lossy scale: 1 is smallest/worst, 100
// is largest/best.
//
// PNG is delegated to the PNG-specific encoder; every other format is
// coerced to RGB (alpha and palette dropped) and encoded in its native
// format. Decode or encode failure is fatal for the image.
func EncodeAt(src *EncodedImage, quality int) (*Result, error) {
	quality = clampQuality(quality)

	if src.Format == FormatPNG {
		return encodePNG(src, quality, GenerateFilename(FormatPNG))
	}

	rgb := toRGB(src.Image)

	var buf bytes.Buffer
	var err error
	format := src.Format
	switch format {
	case FormatWEBP:
		err = webp.Encode(&buf, rgb, &webp.Options{Quality: float32(quality)})
	case FormatGIF:
		// GIF has no quality knob; the 256-color quantize is the only
		// lossy step.
		err = gif.Encode(&buf, rgb, &gif.Options{NumColors: 256})
	case FormatBMP:
		err = bmp.Encode(&buf, rgb)
	default:
		format = FormatJPEG
		err = jpeg.Encode(&buf, rgb, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s at quality %d: %w", format, quality, err)
	}

	return newResult(buf.Bytes(), format, GenerateFilename(format), quality), nil
}

// encodeAsJPEG re-encodes any decoded image as JPEG at the given quality.
// Used by the PNG fallback stage of the iterative search.
func encodeAsJPEG(img image.Image, quality int) (*Result, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, toRGB(img), &jpeg.Options{Quality: clampQuality(quality)}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg at quality %d: %w", quality, err)
	}
	return newResult(buf.Bytes(), FormatJPEG, GenerateFilename(FormatJPEG), quality), nil
}

// toRGB returns an opaque NRGBA copy of the image. Color channels are kept
// as-is; the alpha channel is discarded, not composited.
func toRGB(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// GenerateFilename produces a best-effort-unique output name of the form
// compressed_<YYYYMMDD_HHMMSS>_<8 hex chars>.<ext>. Collisions are
// acceptable: results are returned to the caller, never persisted.
func GenerateFilename(format Format) string {
	return fmt.Sprintf("compressed_%s_%s.%s",
		time.Now().Format("20060102_150405"), randomSuffix(), format.Ext())
}

// originalFilename names an unmodified passthrough payload.
func originalFilename(format Format) string {
	return fmt.Sprintf("original_%s_%s.%s",
		time.Now().Format("20060102_150405"), randomSuffix(), format.Ext())
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
