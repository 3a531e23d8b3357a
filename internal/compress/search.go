package compress

import (
	"math"
)

const (
	// maxSearchIterations bounds the quality binary search. Together with
	// the interval-width early exit this is the only guard against
	// unbounded work, so worst-case latency stays at five decode+encode
	// passes per image.
	maxSearchIterations = 5

	// acceptBand is the relative error at which a search result is
	// accepted immediately.
	acceptBand = 0.05

	// minSearchInterval stops bisection once the quality bounds are this
	// close; finer steps have negligible effect on JPEG granularity.
	minSearchInterval = 3
)

// IterativeCompress searches for the encoding of src closest to (and when
// possible not exceeding) targetBytes, in the image's native format.
//
// A source already at or under the target is returned untouched. PNG inputs
// use a fixed escalation of at most three extra passes instead of the
// generic binary search.
func IterativeCompress(src *EncodedImage, targetBytes int64, initialQuality int) (*Result, error) {
	if int64(len(src.Bytes)) <= targetBytes {
		return passthrough(src), nil
	}

	if src.Format == FormatPNG {
		return compressPNGToTarget(src, targetBytes)
	}
	return searchQuality(src, targetBytes, initialQuality)
}

// passthrough wraps the original payload unmodified.
func passthrough(src *EncodedImage) *Result {
	return &Result{
		Bytes:      src.Bytes,
		Format:     src.Format,
		Size:       int64(len(src.Bytes)),
		Filename:   originalFilename(src.Format),
		Compressed: false,
	}
}

// compressPNGToTarget escalates through fixed stages: near-maximum
// compression, then maximum compression, then an optional JPEG re-encode
// for opaque images. Failures in the optional stages keep the best PNG
// candidate.
func compressPNGToTarget(src *EncodedImage, targetBytes int64) (*Result, error) {
	best, err := EncodeAt(src, 5)
	if err != nil {
		return nil, err
	}

	if float64(best.Size) > 1.2*float64(targetBytes) {
		if retry, err := EncodeAt(src, 1); err == nil && retry.Size < best.Size {
			best = retry
		}
	}

	if best.Size > targetBytes && !src.HasAlpha {
		quality := int(math.Round(70 * float64(targetBytes) / float64(best.Size)))
		if quality < 40 {
			quality = 40
		} else if quality > 70 {
			quality = 70
		}
		// Accept JPEG only when it clearly beats the PNG; otherwise the
		// format change buys nothing.
		if jpegResult, err := encodeAsJPEG(src.Image, quality); err == nil &&
			float64(jpegResult.Size) < 0.8*float64(best.Size) {
			best = jpegResult
		}
	}

	return best, nil
}

// searchQuality runs a bounded binary search over the encoder quality.
func searchQuality(src *EncodedImage, targetBytes int64, initialQuality int) (*Result, error) {
	return runSearch(func(quality int) (*Result, error) {
		return EncodeAt(src, quality)
	}, targetBytes, initialQuality)
}

// runSearch bisects over the 1-100 quality scale against encode.
//
// Best-so-far is the largest observed size still at or under the target:
// closeness from below always beats any overshoot. An encode failure mid
// search stops the loop and falls back to the best result found so far.
func runSearch(encode func(quality int) (*Result, error), targetBytes int64, initialQuality int) (*Result, error) {
	lo, hi := 1, 100
	quality := clampQuality(initialQuality)
	lowestTried := quality

	var best *Result
	var encodeErr error
	encoded := false

	for i := 0; i < maxSearchIterations; i++ {
		result, err := encode(quality)
		if err != nil {
			encodeErr = err
			break
		}
		encoded = true
		if quality < lowestTried {
			lowestTried = quality
		}

		if result.Size <= targetBytes && (best == nil || result.Size > best.Size) {
			best = result
		}

		if relativeError(result.Size, targetBytes) < acceptBand {
			return result, nil
		}

		if result.Size > targetBytes {
			hi = quality
		} else {
			lo = quality
		}
		quality = (lo + hi) / 2

		if hi-lo <= minSearchInterval {
			break
		}
	}

	if best != nil {
		return best, nil
	}
	if !encoded {
		// Every attempt failed; re-encoding at lowestTried would just
		// fail the same way.
		return nil, encodeErr
	}

	// Nothing ever fit under the target: one final encode at the lowest
	// quality tried.
	final, err := encode(lowestTried)
	if err != nil {
		if encodeErr != nil {
			return nil, encodeErr
		}
		return nil, err
	}
	return final, nil
}

func relativeError(size, target int64) float64 {
	if target <= 0 {
		return math.Inf(1)
	}
	return math.Abs(float64(size)-float64(target)) / float64(target)
}
