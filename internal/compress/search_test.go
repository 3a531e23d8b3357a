package compress

import (
	"bytes"
	"errors"
	"image/color"
	"strings"
	"testing"
)

func TestIterativeCompress_PassthroughUnderTarget(t *testing.T) {
	src := encodePNGSource(t, noiseImage(t, 32, 32, 1))
	target := int64(len(src.Bytes)) + 1000

	result, err := IterativeCompress(src, target, 50)
	if err != nil {
		t.Fatalf("IterativeCompress failed: %v", err)
	}

	if result.Compressed {
		t.Error("expected Compressed=false for source under target")
	}
	if !bytes.Equal(result.Bytes, src.Bytes) {
		t.Error("passthrough must return the original bytes unmodified")
	}
	if !strings.HasPrefix(result.Filename, "original_") {
		t.Errorf("passthrough filename = %q, want original_ prefix", result.Filename)
	}
	if result.Size != int64(len(result.Bytes)) {
		t.Errorf("Size = %d, len(Bytes) = %d", result.Size, len(result.Bytes))
	}
}

func TestIterativeCompress_SizeMatchesBytes(t *testing.T) {
	src := encodeJPEGSource(t, noiseImage(t, 128, 128, 2), 90)
	target := int64(len(src.Bytes)) / 2

	result, err := IterativeCompress(src, target, EstimateQuality(int64(len(src.Bytes)), float64(target)/bytesPerMiB))
	if err != nil {
		t.Fatalf("IterativeCompress failed: %v", err)
	}
	if result.Size != int64(len(result.Bytes)) {
		t.Errorf("Size = %d, len(Bytes) = %d", result.Size, len(result.Bytes))
	}
}

func TestIterativeCompress_Deterministic(t *testing.T) {
	src := encodeJPEGSource(t, noiseImage(t, 128, 128, 3), 90)
	target := int64(len(src.Bytes)) / 2
	initial := EstimateQuality(int64(len(src.Bytes)), float64(target)/bytesPerMiB)

	first, err := IterativeCompress(src, target, initial)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := IterativeCompress(src, target, initial)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if first.Size != second.Size || first.Quality != second.Quality {
		t.Errorf("search not deterministic: run 1 (size=%d q=%d), run 2 (size=%d q=%d)",
			first.Size, first.Quality, second.Size, second.Quality)
	}
}

func TestIterativeCompress_TargetMonotonicity(t *testing.T) {
	src := encodeJPEGSource(t, noiseImage(t, 192, 192, 4), 95)
	origSize := int64(len(src.Bytes))

	smallTarget := origSize / 4
	largeTarget := origSize / 2

	smallResult, err := IterativeCompress(src, smallTarget, EstimateQuality(origSize, float64(smallTarget)/bytesPerMiB))
	if err != nil {
		t.Fatalf("small-target run failed: %v", err)
	}
	largeResult, err := IterativeCompress(src, largeTarget, EstimateQuality(origSize, float64(largeTarget)/bytesPerMiB))
	if err != nil {
		t.Fatalf("large-target run failed: %v", err)
	}

	// A smaller target must not produce a larger output, modulo the 5%
	// early-accept band on either side.
	limit := float64(largeResult.Size) * 1.05
	if float64(smallResult.Size) > limit {
		t.Errorf("target %d gave size %d, larger than size %d for target %d",
			smallTarget, smallResult.Size, largeResult.Size, largeTarget)
	}
}

func TestIterativeCompress_JPEGConvergesWithinBand(t *testing.T) {
	src := encodeJPEGSource(t, noiseImage(t, 256, 256, 5), 95)
	origSize := int64(len(src.Bytes))
	target := origSize / 2

	result, err := IterativeCompress(src, target, EstimateQuality(origSize, float64(target)/bytesPerMiB))
	if err != nil {
		t.Fatalf("IterativeCompress failed: %v", err)
	}

	limit := int64(float64(target) * 1.05)
	if result.Size > limit {
		t.Errorf("result size %d exceeds target %d by more than 5%%", result.Size, target)
	}
	if result.Format != FormatJPEG {
		t.Errorf("result format = %s, want jpeg", result.Format)
	}
}

func TestIterativeCompress_PNGKeepsAlpha(t *testing.T) {
	src := encodePNGSource(t, halfTransparentImage(t, 64, 64))
	if !src.HasAlpha {
		t.Fatal("test image should have an alpha channel")
	}

	result, err := IterativeCompress(src, 100, 5)
	if err != nil {
		t.Fatalf("IterativeCompress failed: %v", err)
	}

	if result.Format != FormatPNG {
		t.Fatalf("alpha image was re-encoded as %s, want png", result.Format)
	}

	decoded := decodeSource(t, result.Bytes)
	if !decoded.HasAlpha {
		t.Error("transparency was lost during PNG compression")
	}
}

func TestIterativeCompress_PNGJPEGFallback(t *testing.T) {
	// Opaque noise is pathological for PNG but compresses fine as JPEG,
	// so the fallback stage should fire and win.
	src := encodePNGSource(t, noiseImage(t, 128, 128, 6))
	if src.HasAlpha {
		t.Fatal("test image should be opaque")
	}

	result, err := IterativeCompress(src, 1000, 5)
	if err != nil {
		t.Fatalf("IterativeCompress failed: %v", err)
	}

	if result.Format != FormatJPEG {
		t.Errorf("result format = %s, want jpeg fallback for opaque noise", result.Format)
	}
	if result.Size >= int64(len(src.Bytes)) {
		t.Errorf("fallback did not shrink the image: %d >= %d", result.Size, len(src.Bytes))
	}
}

func TestRunSearch_FirstEncodeFails(t *testing.T) {
	wantErr := errors.New("encoder broken")
	calls := 0

	_, err := runSearch(func(quality int) (*Result, error) {
		calls++
		return nil, wantErr
	}, 1000, 50)

	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want the encode error", err)
	}
	// A quality that already failed must not be retried as the fallback.
	if calls != 1 {
		t.Errorf("encode called %d times, want 1", calls)
	}
}

func TestRunSearch_MidSearchFailureFallsBack(t *testing.T) {
	encodeErr := errors.New("encoder broken")
	calls := 0

	result, err := runSearch(func(quality int) (*Result, error) {
		calls++
		if calls == 1 {
			// Overshoot so the search continues downward.
			return &Result{Size: 5000, Compressed: true}, nil
		}
		return nil, encodeErr
	}, 1000, 50)

	// The first pass succeeded, so the fallback re-encode at the lowest
	// tried quality runs and surfaces the original error.
	if result != nil {
		t.Errorf("result = %+v, want nil", result)
	}
	if !errors.Is(err, encodeErr) {
		t.Errorf("err = %v, want the mid-search encode error", err)
	}
}

func TestRelativeError(t *testing.T) {
	tests := []struct {
		size, target int64
		want         float64
	}{
		{100, 100, 0},
		{105, 100, 0.05},
		{95, 100, 0.05},
		{200, 100, 1},
	}
	for _, tt := range tests {
		if got := relativeError(tt.size, tt.target); got != tt.want {
			t.Errorf("relativeError(%d, %d) = %v, want %v", tt.size, tt.target, got, tt.want)
		}
	}
}

func TestProcess_NeverInflates(t *testing.T) {
	white := color.NRGBA{255, 255, 255, 255}
	sources := map[string]*EncodedImage{
		"tiny png":  encodePNGSource(t, solidImage(t, 1, 1, white)),
		"small png": encodePNGSource(t, solidImage(t, 16, 16, white)),
		"jpeg":      encodeJPEGSource(t, noiseImage(t, 64, 64, 7), 50),
	}

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			origSize := int64(len(src.Bytes))
			result, err := Process(Request{Source: src, TargetBytes: origSize - 1})
			if err != nil {
				t.Fatalf("Process failed: %v", err)
			}

			if result.Size > origSize {
				t.Errorf("compression regressed: output %d > original %d", result.Size, origSize)
			}
			if !result.Compressed && !bytes.Equal(result.Bytes, src.Bytes) {
				t.Error("uncompressed result must carry the original bytes")
			}
		})
	}
}

func TestProcess_NoTargetNormalizes(t *testing.T) {
	src := encodeJPEGSource(t, noiseImage(t, 64, 64, 8), 100)

	result, err := Process(Request{Source: src, TargetBytes: 0})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if result.Size > int64(len(src.Bytes)) {
		t.Errorf("normalizing pass inflated the image: %d > %d", result.Size, len(src.Bytes))
	}
	if result.Size != int64(len(result.Bytes)) {
		t.Errorf("Size = %d, len(Bytes) = %d", result.Size, len(result.Bytes))
	}
}

func TestProcess_UnderTargetPassthrough(t *testing.T) {
	src := encodePNGSource(t, halfTransparentImage(t, 100, 100))
	target := int64(5 * bytesPerMiB)

	result, err := Process(Request{Source: src, TargetBytes: target})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if result.Compressed {
		t.Error("expected passthrough for source already under target")
	}
	if !bytes.Equal(result.Bytes, src.Bytes) {
		t.Error("passthrough must return original bytes")
	}
}
