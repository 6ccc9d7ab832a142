package meta

import (
	"io"
	"strings"

	"github.com/icza/bitio"
	"github.com/mewkiz/pkg/errutil"
)

// A CueSheet describes how tracks are laid out within a FLAC stream. There is
// at most one CueSheet in a stream.
//
// ref: https://www.xiph.org/flac/format.html#metadata_block_cuesheet
type CueSheet struct {
	// Media catalog number.
	MCN string
	// Number of lead-in samples. This field only has meaning for CD-DA cue
	// sheets; for other uses it should be 0. Refer to the spec for additional
	// information.
	NLeadInSamples uint64
	// Specifies if the cue sheet corresponds to a Compact Disc.
	IsCompactDisc bool
	// One or more tracks. The last track of a cue sheet is always the lead-out
	// track.
	Tracks []CueSheetTrack
}

// CueSheetTrack contains the start offset of a track and other track specific
// metadata.
type CueSheetTrack struct {
	// Track offset in samples, relative to the beginning of the FLAC audio
	// stream.
	Offset uint64
	// Track number; never 0, always unique.
	Num uint8
	// International Standard Recording Code; empty string if not present.
	//
	// ref: http://isrc.ifpi.org/
	ISRC string
	// Specifies if the track contains audio or data.
	IsAudio bool
	// Specifies if the track has been recorded with pre-emphasis
	HasPreEmphasis bool
	// Every track has one or more track index points, except for the lead-out
	// track which has zero. Each index point specifies a position within the
	// track.
	Indicies []CueSheetTrackIndex
}

// A CueSheetTrackIndex specifies a position within a track.
type CueSheetTrackIndex struct {
	// Index point offset in samples, relative to the track offset.
	Offset uint64
	// Index point number; subsequently incrementing by 1 and always unique
	// within a track.
	Num uint8
}

const (
	cueSheetMCNSize           = 128
	cueSheetReservedBytes     = 258
	cueSheetReservedBits      = 7
	cueSheetTrackISRCSize     = 12
	cueSheetTrackReservedBits = 6
	cueSheetTrackReservedByte = 13
	cueSheetIndexReservedSize = 3
)

// NewCueSheet returns an empty CueSheet block body.
func NewCueSheet() *CueSheet {
	return new(CueSheet)
}

func cueSheetLength(cs *CueSheet) int {
	n := cueSheetMCNSize + 8 + 1 + cueSheetReservedBytes + 1
	for _, t := range cs.Tracks {
		n += cueSheetTrackLength(&t)
	}
	return n
}

func cueSheetTrackLength(t *CueSheetTrack) int {
	return 8 + 1 + cueSheetTrackISRCSize + 1 + cueSheetTrackReservedByte + 1 + len(t.Indicies)*(8+1+cueSheetIndexReservedSize)
}

// readCueSheet parses the body of a CueSheet metadata block.
func readCueSheet(br *bitio.Reader, length int) (*CueSheet, error) {
	cs := new(CueSheet)
	mcn := make([]byte, cueSheetMCNSize)
	if _, err := io.ReadFull(br, mcn); err != nil {
		return nil, errutil.Err(err)
	}
	cs.MCN = trimNulls(mcn)

	nLeadIn, err := br.ReadBits(64)
	if err != nil {
		return nil, errutil.Err(err)
	}
	cs.NLeadInSamples = nLeadIn

	isCD, err := br.ReadBool()
	if err != nil {
		return nil, errutil.Err(err)
	}
	cs.IsCompactDisc = isCD

	if _, err := br.ReadBits(cueSheetReservedBits); err != nil {
		return nil, errutil.Err(err)
	}
	if _, err := io.CopyN(io.Discard, br, cueSheetReservedBytes); err != nil {
		return nil, errutil.Err(err)
	}

	nTracks, err := br.ReadBits(8)
	if err != nil {
		return nil, errutil.Err(err)
	}
	cs.Tracks = make([]CueSheetTrack, nTracks)
	for i := range cs.Tracks {
		t, err := readCueSheetTrack(br)
		if err != nil {
			return nil, err
		}
		cs.Tracks[i] = *t
	}
	return cs, nil
}

func readCueSheetTrack(br *bitio.Reader) (*CueSheetTrack, error) {
	t := new(CueSheetTrack)
	offset, err := br.ReadBits(64)
	if err != nil {
		return nil, errutil.Err(err)
	}
	t.Offset = offset

	num, err := br.ReadBits(8)
	if err != nil {
		return nil, errutil.Err(err)
	}
	t.Num = uint8(num)

	isrc := make([]byte, cueSheetTrackISRCSize)
	if _, err := io.ReadFull(br, isrc); err != nil {
		return nil, errutil.Err(err)
	}
	t.ISRC = trimNulls(isrc)

	isNonAudio, err := br.ReadBool()
	if err != nil {
		return nil, errutil.Err(err)
	}
	t.IsAudio = !isNonAudio

	hasPreEmphasis, err := br.ReadBool()
	if err != nil {
		return nil, errutil.Err(err)
	}
	t.HasPreEmphasis = hasPreEmphasis

	if _, err := br.ReadBits(cueSheetTrackReservedBits); err != nil {
		return nil, errutil.Err(err)
	}
	if _, err := io.CopyN(io.Discard, br, cueSheetTrackReservedByte); err != nil {
		return nil, errutil.Err(err)
	}

	nIndicies, err := br.ReadBits(8)
	if err != nil {
		return nil, errutil.Err(err)
	}
	t.Indicies = make([]CueSheetTrackIndex, nIndicies)
	for i := range t.Indicies {
		idx, err := readCueSheetTrackIndex(br)
		if err != nil {
			return nil, err
		}
		t.Indicies[i] = *idx
	}
	return t, nil
}

func readCueSheetTrackIndex(br *bitio.Reader) (*CueSheetTrackIndex, error) {
	offset, err := br.ReadBits(64)
	if err != nil {
		return nil, errutil.Err(err)
	}
	num, err := br.ReadBits(8)
	if err != nil {
		return nil, errutil.Err(err)
	}
	if _, err := io.CopyN(io.Discard, br, cueSheetIndexReservedSize); err != nil {
		return nil, errutil.Err(err)
	}
	return &CueSheetTrackIndex{Offset: offset, Num: uint8(num)}, nil
}

// writeCueSheet writes the body of a CueSheet metadata block.
func writeCueSheet(bw *bitio.Writer, cs *CueSheet) error {
	if err := writePaddedASCII(bw, cs.MCN, cueSheetMCNSize); err != nil {
		return err
	}
	if err := bw.WriteBits(cs.NLeadInSamples, 64); err != nil {
		return errutil.Err(err)
	}
	if err := bw.WriteBool(cs.IsCompactDisc); err != nil {
		return errutil.Err(err)
	}
	if err := bw.WriteBits(0, cueSheetReservedBits); err != nil {
		return errutil.Err(err)
	}
	if err := writeZeros(bw, cueSheetReservedBytes); err != nil {
		return err
	}
	if err := bw.WriteBits(uint64(len(cs.Tracks)), 8); err != nil {
		return errutil.Err(err)
	}
	for i := range cs.Tracks {
		if err := writeCueSheetTrack(bw, &cs.Tracks[i]); err != nil {
			return err
		}
	}
	return nil
}

func writeCueSheetTrack(bw *bitio.Writer, t *CueSheetTrack) error {
	if err := bw.WriteBits(t.Offset, 64); err != nil {
		return errutil.Err(err)
	}
	if err := bw.WriteBits(uint64(t.Num), 8); err != nil {
		return errutil.Err(err)
	}
	if err := writePaddedASCII(bw, t.ISRC, cueSheetTrackISRCSize); err != nil {
		return err
	}
	if err := bw.WriteBool(!t.IsAudio); err != nil {
		return errutil.Err(err)
	}
	if err := bw.WriteBool(t.HasPreEmphasis); err != nil {
		return errutil.Err(err)
	}
	if err := bw.WriteBits(0, cueSheetTrackReservedBits); err != nil {
		return errutil.Err(err)
	}
	if err := writeZeros(bw, cueSheetTrackReservedByte); err != nil {
		return err
	}
	if err := bw.WriteBits(uint64(len(t.Indicies)), 8); err != nil {
		return errutil.Err(err)
	}
	for _, idx := range t.Indicies {
		if err := bw.WriteBits(idx.Offset, 64); err != nil {
			return errutil.Err(err)
		}
		if err := bw.WriteBits(uint64(idx.Num), 8); err != nil {
			return errutil.Err(err)
		}
		if err := writeZeros(bw, cueSheetIndexReservedSize); err != nil {
			return err
		}
	}
	return nil
}

func writePaddedASCII(bw *bitio.Writer, s string, size int) error {
	buf := make([]byte, size)
	copy(buf, s)
	_, err := bw.Write(buf)
	if err != nil {
		return errutil.Err(err)
	}
	return nil
}

func writeZeros(bw *bitio.Writer, n int) error {
	const chunk = 256
	var zero [chunk]byte
	for n > 0 {
		c := n
		if c > chunk {
			c = chunk
		}
		if _, err := bw.Write(zero[:c]); err != nil {
			return errutil.Err(err)
		}
		n -= c
	}
	return nil
}

func trimNulls(b []byte) string {
	return strings.TrimRight(string(b), "\x00")
}

// Clone returns a deep copy of cs.
func (cs *CueSheet) Clone() *CueSheet {
	clone := &CueSheet{
		MCN:            cs.MCN,
		NLeadInSamples: cs.NLeadInSamples,
		IsCompactDisc:  cs.IsCompactDisc,
		Tracks:         make([]CueSheetTrack, len(cs.Tracks)),
	}
	for i, t := range cs.Tracks {
		clone.Tracks[i] = t
		clone.Tracks[i].Indicies = make([]CueSheetTrackIndex, len(t.Indicies))
		copy(clone.Tracks[i].Indicies, t.Indicies)
	}
	return clone
}

// Equal reports whether a and b describe the same cue sheet.
func (a *CueSheet) Equal(b *CueSheet) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.MCN != b.MCN || a.NLeadInSamples != b.NLeadInSamples || a.IsCompactDisc != b.IsCompactDisc {
		return false
	}
	if len(a.Tracks) != len(b.Tracks) {
		return false
	}
	for i := range a.Tracks {
		ta, tb := &a.Tracks[i], &b.Tracks[i]
		if ta.Offset != tb.Offset || ta.Num != tb.Num || ta.ISRC != tb.ISRC ||
			ta.IsAudio != tb.IsAudio || ta.HasPreEmphasis != tb.HasPreEmphasis {
			return false
		}
		if len(ta.Indicies) != len(tb.Indicies) {
			return false
		}
		for j := range ta.Indicies {
			if ta.Indicies[j] != tb.Indicies[j] {
				return false
			}
		}
	}
	return true
}

// ResizeTracks grows or shrinks the track list to exactly n tracks.
func (cs *CueSheet) ResizeTracks(n int) {
	if n <= 0 {
		cs.Tracks = nil
		return
	}
	if n == len(cs.Tracks) {
		return
	}
	grown := make([]CueSheetTrack, n)
	copy(grown, cs.Tracks)
	cs.Tracks = grown
}

// InsertTrack inserts t before index i. i == len(cs.Tracks) appends.
func (cs *CueSheet) InsertTrack(i int, t CueSheetTrack) error {
	if i < 0 || i > len(cs.Tracks) {
		return errutil.Newf("meta.CueSheet.InsertTrack: index %d out of range [0, %d]", i, len(cs.Tracks))
	}
	cs.Tracks = append(cs.Tracks, CueSheetTrack{})
	copy(cs.Tracks[i+1:], cs.Tracks[i:])
	cs.Tracks[i] = t
	return nil
}

// DeleteTrack removes the track at index i.
func (cs *CueSheet) DeleteTrack(i int) error {
	if i < 0 || i >= len(cs.Tracks) {
		return errutil.Newf("meta.CueSheet.DeleteTrack: index %d out of range [0, %d)", i, len(cs.Tracks))
	}
	cs.Tracks = append(cs.Tracks[:i], cs.Tracks[i+1:]...)
	return nil
}

// IsLegal reports whether the cue sheet obeys the grammar's structural
// rules: track numbers are unique and, for Compact Disc cue sheets, within
// [1, 99] or 170 (lead-out); the final track is the lead-out track; and
// every non-lead-out track has at least one index point.
func (cs *CueSheet) IsLegal() bool {
	if len(cs.Tracks) == 0 {
		return false
	}
	seen := make(map[uint8]bool, len(cs.Tracks))
	for i, t := range cs.Tracks {
		if t.Num == 0 || seen[t.Num] {
			return false
		}
		seen[t.Num] = true
		last := i == len(cs.Tracks)-1
		if cs.IsCompactDisc {
			if last {
				if t.Num != 170 {
					return false
				}
			} else if t.Num > 99 {
				return false
			}
		}
		if !last && len(t.Indicies) == 0 {
			return false
		}
	}
	return true
}
