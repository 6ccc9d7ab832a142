package flac

import "github.com/nazgoflac/flac/meta"

// fillSeekPoints implements §4.7 step 3: for every template point at or
// after watermark whose sample number falls in [first, last), it is
// finalized with the frame's byte offset (from the start of the first
// frame) and sample count, and its sample number is rounded down to
// first. It returns the advanced watermark: the index of the first point
// that is still unfilled or was not touched by this frame, so the next
// call need not rescan points already resolved.
//
// Points are otherwise left untouched (including placeholders beyond
// last), matching the spec's description of a monotonically advancing
// "first point still needing fill" cursor; duplicate targets within one
// frame are intentionally left as duplicate filled points; Sort/Close
// compacts or reorders them later if requested.
func fillSeekPoints(points []meta.SeekPoint, watermark int, first, last, frameOffset uint64, blockSize uint16) int {
	i := watermark
	for ; i < len(points); i++ {
		p := points[i]
		if p.SampleNum == meta.PlaceholderPoint {
			continue
		}
		if p.SampleNum < first {
			// Already behind this frame (filled by an earlier frame, or
			// never reached by one); skip it unchanged.
			continue
		}
		if p.SampleNum >= last {
			break
		}
		points[i] = meta.SeekPoint{SampleNum: first, Offset: frameOffset, NSamples: blockSize}
	}
	return i
}
