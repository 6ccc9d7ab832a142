package meta

import (
	"sort"

	"github.com/icza/bitio"
	"github.com/mewkiz/pkg/errutil"
)

// SeekTable contains zero or more precalculated audio frame seek points.
// There is at most one SeekTable in a stream.
//
// ref: https://www.xiph.org/flac/format.html#metadata_block_seektable
type SeekTable struct {
	// One or more seek points.
	Points []SeekPoint
}

// A SeekPoint specifies the byte offset and initial sample number of a given
// target frame.
//
// ref: https://www.xiph.org/flac/format.html#seekpoint
type SeekPoint struct {
	// Sample number of the first sample in the target frame, or
	// PlaceholderPoint for a placeholder point.
	SampleNum uint64
	// Offset in bytes from the first byte of the first frame header to the
	// first byte of the target frame's header.
	Offset uint64
	// Number of samples in the target frame.
	NSamples uint16
}

// PlaceholderPoint is the sample number used by placeholder seek points: a
// reservation for later encoder fill-in, ignored by decoders.
const PlaceholderPoint = 0xFFFFFFFFFFFFFFFF

// seekPointSize is the serialized size in bytes of one seek point.
const seekPointSize = 18

// NewSeekTable returns an empty SeekTable block body.
func NewSeekTable() *SeekTable {
	return new(SeekTable)
}

func seekTableLength(st *SeekTable) int {
	return len(st.Points) * seekPointSize
}

// readSeekTable parses the body of a SeekTable metadata block.
func readSeekTable(br *bitio.Reader, length int) (*SeekTable, error) {
	if length%seekPointSize != 0 {
		return nil, errutil.Newf("meta.readSeekTable: invalid length; expected multiple of %d, got %d", seekPointSize, length)
	}
	st := new(SeekTable)
	n := length / seekPointSize
	st.Points = make([]SeekPoint, n)
	for i := 0; i < n; i++ {
		sampleNum, err := br.ReadBits(64)
		if err != nil {
			return nil, errutil.Err(err)
		}
		offset, err := br.ReadBits(64)
		if err != nil {
			return nil, errutil.Err(err)
		}
		nsamples, err := br.ReadBits(16)
		if err != nil {
			return nil, errutil.Err(err)
		}
		st.Points[i] = SeekPoint{SampleNum: sampleNum, Offset: offset, NSamples: uint16(nsamples)}
	}
	return st, nil
}

// writeSeekTable writes the body of a SeekTable metadata block.
func writeSeekTable(bw *bitio.Writer, st *SeekTable) error {
	for _, p := range st.Points {
		if err := bw.WriteBits(p.SampleNum, 64); err != nil {
			return errutil.Err(err)
		}
		if err := bw.WriteBits(p.Offset, 64); err != nil {
			return errutil.Err(err)
		}
		if err := bw.WriteBits(uint64(p.NSamples), 16); err != nil {
			return errutil.Err(err)
		}
	}
	return nil
}

// Clone returns a deep copy of st.
func (st *SeekTable) Clone() *SeekTable {
	clone := &SeekTable{Points: make([]SeekPoint, len(st.Points))}
	copy(clone.Points, st.Points)
	return clone
}

// Equal reports whether a and b have identical seek points in the same
// order.
func (a *SeekTable) Equal(b *SeekTable) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if len(a.Points) != len(b.Points) {
		return false
	}
	for i := range a.Points {
		if a.Points[i] != b.Points[i] {
			return false
		}
	}
	return true
}

// ResizePoints grows or shrinks the seek point array to exactly n points.
// Grown points are placeholders; resizing to 0 frees the array.
func (st *SeekTable) ResizePoints(n int) {
	if n <= 0 {
		st.Points = nil
		return
	}
	if n == len(st.Points) {
		return
	}
	grown := make([]SeekPoint, n)
	copy(grown, st.Points)
	for i := len(st.Points); i < n; i++ {
		grown[i] = SeekPoint{SampleNum: PlaceholderPoint}
	}
	st.Points = grown
}

// SetPoint overwrites the seek point at index i.
func (st *SeekTable) SetPoint(i int, p SeekPoint) error {
	if i < 0 || i >= len(st.Points) {
		return errutil.Newf("meta.SeekTable.SetPoint: index %d out of range [0, %d)", i, len(st.Points))
	}
	st.Points[i] = p
	return nil
}

// InsertPoint inserts p before index i. i == len(st.Points) appends.
func (st *SeekTable) InsertPoint(i int, p SeekPoint) error {
	if i < 0 || i > len(st.Points) {
		return errutil.Newf("meta.SeekTable.InsertPoint: index %d out of range [0, %d]", i, len(st.Points))
	}
	st.Points = append(st.Points, SeekPoint{})
	copy(st.Points[i+1:], st.Points[i:])
	st.Points[i] = p
	return nil
}

// DeletePoint removes the seek point at index i.
func (st *SeekTable) DeletePoint(i int) error {
	if i < 0 || i >= len(st.Points) {
		return errutil.Newf("meta.SeekTable.DeletePoint: index %d out of range [0, %d)", i, len(st.Points))
	}
	st.Points = append(st.Points[:i], st.Points[i+1:]...)
	return nil
}

// IsLegal reports whether the seek table obeys the grammar's ordering rules:
// sample numbers are monotonically non-decreasing and unique except for
// placeholder points, placeholder points (if any) occur only at the end of
// the table, and stream offsets are monotonically non-decreasing among
// non-placeholder points.
func (st *SeekTable) IsLegal() bool {
	sawPlaceholder := false
	var prevSampleNum, prevOffset uint64
	hasPrev := false
	for _, p := range st.Points {
		if p.SampleNum == PlaceholderPoint {
			sawPlaceholder = true
			continue
		}
		if sawPlaceholder {
			// A non-placeholder point after a placeholder breaks the rule
			// that placeholders trail the table.
			return false
		}
		if hasPrev {
			if p.SampleNum <= prevSampleNum {
				return false
			}
			if p.Offset < prevOffset {
				return false
			}
		}
		prevSampleNum, prevOffset, hasPrev = p.SampleNum, p.Offset, true
	}
	return true
}

// Sort sorts the seek table's points by sample number, placeholder points
// last, and optionally compacts duplicate sample numbers by keeping only the
// first occurrence.
func (st *SeekTable) Sort(compact bool) {
	sort.SliceStable(st.Points, func(i, j int) bool {
		a, b := st.Points[i].SampleNum, st.Points[j].SampleNum
		if a == PlaceholderPoint {
			return false
		}
		if b == PlaceholderPoint {
			return true
		}
		return a < b
	})
	if !compact {
		return
	}
	out := st.Points[:0]
	var prevSampleNum uint64
	hasPrev := false
	for _, p := range st.Points {
		if p.SampleNum != PlaceholderPoint && hasPrev && p.SampleNum == prevSampleNum {
			continue
		}
		out = append(out, p)
		if p.SampleNum != PlaceholderPoint {
			prevSampleNum, hasPrev = p.SampleNum, true
		}
	}
	st.Points = out
}

// TemplateAppendSpaced appends template points at sample numbers 0,
// sampleInterval, 2*sampleInterval, ... below totalSamples, seeding a
// template for later fill-in by an encoder (§4.7). Nothing is appended if
// totalSamples is unknown (0).
func (st *SeekTable) TemplateAppendSpaced(totalSamples uint64, sampleInterval uint64) error {
	if sampleInterval == 0 {
		return errutil.Newf("meta.SeekTable.TemplateAppendSpaced: sampleInterval must be > 0")
	}
	if totalSamples == 0 {
		return nil
	}
	for sampleNum := uint64(0); sampleNum < totalSamples; sampleNum += sampleInterval {
		st.Points = append(st.Points, SeekPoint{SampleNum: sampleNum})
	}
	return nil
}

// TemplateAppendPoints appends template points at the given sample numbers
// (offset and sample count zero), seeding a template for later fill-in by an
// encoder (§4.7).
func (st *SeekTable) TemplateAppendPoints(sampleNums []uint64) {
	for _, sampleNum := range sampleNums {
		st.Points = append(st.Points, SeekPoint{SampleNum: sampleNum})
	}
}
