package compress

import (
	"bytes"
	"fmt"
	"image"

	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/webp" // Register WEBP format decoder
)

// Format identifies an image encoding. The values match the lowercase
// format names returned by image.Decode.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatGIF  Format = "gif"
	FormatWEBP Format = "webp"
	FormatBMP  Format = "bmp"
)

// Ext returns the filename extension for the format, without the dot.
func (f Format) Ext() string {
	if f == "" {
		return string(FormatJPEG)
	}
	return string(f)
}

// MimeType returns the canonical MIME type for the format.
func (f Format) MimeType() string {
	return "image/" + f.Ext()
}

// EncodedImage holds one decoded source image together with its original
// encoded bytes. It is an immutable request-scoped value: compression
// never mutates it, every transformation produces a new result.
type EncodedImage struct {
	// Bytes is the original encoded payload.
	Bytes []byte

	// Format is the detected encoding (jpeg when undeterminable).
	Format Format

	// Image is the decoded pixel data.
	Image image.Image

	// Width and Height are the decoded pixel dimensions.
	Width  int
	Height int

	// HasAlpha reports whether any pixel is non-opaque.
	HasAlpha bool
}

// Request describes one compression task.
type Request struct {
	// Source is the image to compress.
	Source *EncodedImage

	// TargetBytes is the byte budget the output should not exceed.
	// Zero or negative means "no target, just normalize".
	TargetBytes int64

	// InitialQuality seeds the quality search. Zero means "derive it
	// from the size ratio" (see EstimateQuality).
	InitialQuality int
}

// Result is the outcome of compressing one image.
type Result struct {
	// Bytes is the encoded output payload.
	Bytes []byte

	// Format names the encoder actually used, which may differ from
	// the input format (a PNG can be degraded to JPEG internally).
	Format Format

	// Size is the output byte count. Always equals len(Bytes).
	Size int64

	// Filename is a generated best-effort-unique name for the output.
	Filename string

	// Quality is the final encoder quality, 0 for lossless encodes.
	Quality int

	// Compressed reports whether the image was actually re-encoded.
	// False means Bytes is the untouched original payload.
	Compressed bool
}

// newResult builds a Result, maintaining the Size == len(Bytes) invariant.
func newResult(data []byte, format Format, filename string, quality int) *Result {
	return &Result{
		Bytes:      data,
		Format:     format,
		Size:       int64(len(data)),
		Filename:   filename,
		Quality:    quality,
		Compressed: true,
	}
}

// Decode parses encoded image bytes into an EncodedImage.
//
// The format is taken from the registered decoder that handled the data;
// when the format name is unknown it defaults to jpeg. A decode failure
// is fatal for the image and surfaces as an encoding error.
func Decode(data []byte) (*EncodedImage, error) {
	img, formatName, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	format := Format(formatName)
	switch format {
	case FormatJPEG, FormatPNG, FormatGIF, FormatWEBP, FormatBMP:
	default:
		format = FormatJPEG
	}

	bounds := img.Bounds()
	return &EncodedImage{
		Bytes:    data,
		Format:   format,
		Image:    img,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		HasAlpha: hasAlpha(img),
	}, nil
}

// hasAlpha reports whether the image contains any non-opaque pixel.
func hasAlpha(img image.Image) bool {
	type opaquer interface {
		Opaque() bool
	}
	if o, ok := img.(opaquer); ok {
		return !o.Opaque()
	}

	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}
