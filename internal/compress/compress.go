package compress

// Process compresses one image toward the request's byte budget.
//
// With no budget the image gets a single high-fidelity pass at quality 95.
// With a budget the iterative search runs (sources already under budget
// pass through untouched). Either way, a result larger than the original
// is discarded and the original bytes are emitted unchanged: compression
// must never regress.
func Process(req Request) (*Result, error) {
	src := req.Source

	var result *Result
	var err error
	if req.TargetBytes <= 0 {
		result, err = EncodeAt(src, normalizeQuality)
	} else {
		quality := req.InitialQuality
		if quality <= 0 {
			quality = EstimateQuality(int64(len(src.Bytes)), float64(req.TargetBytes)/bytesPerMiB)
		}
		result, err = IterativeCompress(src, req.TargetBytes, quality)
	}
	if err != nil {
		return nil, err
	}

	if result.Compressed && result.Size > int64(len(src.Bytes)) {
		return passthrough(src), nil
	}
	return result, nil
}
