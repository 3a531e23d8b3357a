// Package compress implements size-targeted image re-encoding.
//
// Given raw encoded bytes and a byte budget, the package searches for an
// encoder quality whose output lands close to (at or under) the budget.
// Non-PNG formats use a bounded binary search over the 1-100 quality
// scale; PNG, which has no true quality knob, maps quality onto a deflate
// compression level plus lossy preprocessing (downscaling and dithered
// palette quantization) and escalates through a fixed set of passes, with
// an optional JPEG fallback for opaque images.
//
// # Bounds
//
// The binary search is capped at five iterations and exits early once the
// quality interval narrows to three, so an image costs at most five
// decode+encode passes (PNG: at most three fixed passes). There is no
// internal cancellation; callers bound latency with their own timeouts.
//
// # Lifecycle
//
// All types are request-scoped values. Nothing is cached across images and
// inputs are never mutated: every transformation yields a new Result whose
// Size always equals the length of its Bytes.
package compress
