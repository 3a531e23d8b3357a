package compress

import "math"

const (
	// normalizeQuality is used when there is no byte budget to hit, or
	// the source is already under it: a high-fidelity pass rather than
	// a real compression.
	normalizeQuality = 95

	bytesPerMiB = 1024 * 1024
)

// EstimateQuality derives a starting quality in [1,100] from the ratio of
// the target size to the original size.
//
// Encoded size does not scale linearly with quality, so the linear ratio is
// only a seed for the iterative search, never the final answer.
func EstimateQuality(originalSize int64, targetMB float64) int {
	if targetMB <= 0 {
		return normalizeQuality
	}

	targetBytes := targetMB * bytesPerMiB
	if float64(originalSize) <= targetBytes {
		return normalizeQuality
	}

	quality := int(math.Round(100 * targetBytes / float64(originalSize)))
	return clampQuality(quality)
}

func clampQuality(q int) int {
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}
