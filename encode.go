package flac

import (
	"crypto/md5"
	"hash"
	"io"

	"github.com/mewkiz/pkg/errutil"
	"github.com/nazgoflac/flac/meta"
)

// countWriter wraps an io.Writer and tracks the number of bytes written
// through it, so the encoder can answer "what is the current output byte
// position" (§4.7 step 1) without requiring w itself to support Seek.
type countWriter struct {
	w   io.Writer
	pos int64
}

func (cw *countWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.pos += int64(n)
	return n, err
}

// An Encoder writes a FLAC stream incrementally: the metadata blocks up
// front, then audio frames one at a time via WriteFrame. This package
// does not implement subframe/DSP encoding; WriteFrame accepts an
// already-encoded frame's bytes. What Encoder adds over a bare
// concatenation of bytes is the seektable-during-encode protocol (§4.7):
// as frames go past, any template seek points they cover are filled in,
// and on Close the STREAMINFO and SEEKTABLE blocks are patched at their
// recorded byte offsets.
type Encoder struct {
	// FLAC stream of encoder.
	*Stream
	// Underlying writer, wrapped to track output position.
	cw *countWriter
	// io.Closer to flush pending writes to output stream, if w implements it.
	c io.Closer

	// streamInfoOffset is the byte offset of the STREAMINFO block's header,
	// recorded once at NewEncoder time.
	streamInfoOffset int64
	// streamInfoIsLast is the is_last bit STREAMINFO was originally written
	// with, reused verbatim when Close patches the block in place.
	streamInfoIsLast bool
	// seekTable and seekTableOffset point at the first SEEKTABLE block among
	// blocks, if any, recorded for finalization at Close.
	seekTable       *meta.SeekTable
	seekTableOffset int64
	// audioStartOffset is the byte offset of the first audio frame, the
	// origin SeekPoint.Offset values are measured from.
	audioStartOffset int64
	// fillWatermark is the index of the first seek table point not yet
	// filled in, advanced monotonically as frames go past (§4.7 step 3).
	fillWatermark int

	// md5sum is the running MD5 hash of unencoded (PCM) audio samples.
	md5sum hash.Hash
	// minFrameSize/maxFrameSize track the smallest/largest encoded frame
	// size seen, in bytes, for the STREAMINFO patch at Close.
	minFrameSize, maxFrameSize uint32
	// nsamples accumulates the total number of samples written.
	nsamples uint64
}

// NewEncoder returns a new FLAC encoder for the given metadata StreamInfo
// block and optional metadata blocks, having already written the "fLaC"
// signature and every metadata block to w.
func NewEncoder(w io.Writer, info *meta.StreamInfo, blocks ...*meta.Block) (*Encoder, error) {
	cw := &countWriter{w: w}
	allBlocks := append([]*meta.Block{{Header: meta.Header{Type: meta.TypeStreamInfo}, Body: info}}, blocks...)
	enc := &Encoder{
		Stream: &Stream{Info: info, MetaBlocks: allBlocks},
		cw:     cw,
		md5sum: md5.New(),
	}
	if c, ok := w.(io.Closer); ok {
		enc.c = c
	}

	if _, err := cw.Write([]byte(FlacSignature)); err != nil {
		return nil, errutil.Err(err)
	}

	enc.streamInfoOffset = cw.pos
	enc.streamInfoIsLast = len(blocks) == 0
	infoHdr := meta.Header{IsLast: enc.streamInfoIsLast, Type: meta.TypeStreamInfo}
	if err := meta.WriteBlock(cw, &meta.Block{Header: infoHdr, Body: info}); err != nil {
		return nil, errutil.Err(err)
	}

	for i, block := range blocks {
		if st, ok := block.Body.(*meta.SeekTable); ok && enc.seekTable == nil {
			enc.seekTable = st
			enc.seekTableOffset = cw.pos
		}
		hdr := block.Header
		hdr.IsLast = i == len(blocks)-1
		if err := meta.WriteBlock(cw, &meta.Block{Header: hdr, Body: block.Body}); err != nil {
			return nil, errutil.Err(err)
		}
	}

	enc.audioStartOffset = cw.pos
	return enc, nil
}

// WriteFrame appends rawFrame, an already fully-encoded audio frame,
// verbatim to the output, then runs the §4.7 seek-table fill step for the
// samples it covers and folds pcm (the frame's unencoded samples, one
// slice per channel) into the running MD5 checksum. firstSample is the
// stream-wide sample number of the frame's first sample.
func (enc *Encoder) WriteFrame(rawFrame []byte, pcm [][]int32, firstSample uint64) error {
	frameOffset := enc.cw.pos - enc.audioStartOffset
	if _, err := enc.cw.Write(rawFrame); err != nil {
		return errutil.Err(err)
	}

	size := uint32(len(rawFrame))
	if enc.minFrameSize == 0 || size < enc.minFrameSize {
		enc.minFrameSize = size
	}
	if size > enc.maxFrameSize {
		enc.maxFrameSize = size
	}

	blockSize := 0
	if len(pcm) > 0 {
		blockSize = len(pcm[0])
	}
	enc.nsamples += uint64(blockSize)
	hashSamples(enc.md5sum, pcm, enc.Info.BitsPerSample)

	lastSample := firstSample + uint64(blockSize)
	if enc.seekTable != nil {
		enc.fillWatermark = fillSeekPoints(enc.seekTable.Points, enc.fillWatermark, firstSample, lastSample, uint64(frameOffset), uint16(blockSize))
	}
	return nil
}

// hashSamples writes pcm's samples into h, packed little-endian at the
// narrowest whole byte width that holds bitsPerSample bits per sample
// (matching the reference encoder's definition of the "unencoded audio
// data" STREAMINFO.md5sum covers), interleaved channel by channel per
// sample index.
func hashSamples(h hash.Hash, pcm [][]int32, bitsPerSample uint8) {
	if len(pcm) == 0 {
		return
	}
	width := (int(bitsPerSample) + 7) / 8
	buf := make([]byte, width)
	n := len(pcm[0])
	for i := 0; i < n; i++ {
		for _, ch := range pcm {
			v := uint32(ch[i])
			for b := 0; b < width; b++ {
				buf[b] = byte(v >> (8 * uint(b)))
			}
			h.Write(buf)
		}
	}
}

// Close patches the STREAMINFO block with the final MD5 checksum, sample
// count and frame size bounds, sorts the seek table and rewrites it at its
// recorded byte offset, then closes the underlying writer. Patching needs
// the underlying writer to be an io.WriteSeeker; for any other writer Close
// only closes it. Close writes plain byte offsets and does not handle Ogg
// page framing.
func (enc *Encoder) Close() error {
	ws, ok := enc.cw.w.(io.WriteSeeker)
	if !ok {
		if enc.c != nil {
			return enc.c.Close()
		}
		return nil
	}

	sum := enc.md5sum.Sum(nil)
	copy(enc.Info.MD5sum[:], sum)
	enc.Info.NSamples = enc.nsamples
	enc.Info.FrameSizeMin = enc.minFrameSize
	enc.Info.FrameSizeMax = enc.maxFrameSize

	if _, err := ws.Seek(enc.streamInfoOffset, io.SeekStart); err != nil {
		return errutil.Err(err)
	}
	infoHdr := meta.Header{IsLast: enc.streamInfoIsLast, Type: meta.TypeStreamInfo}
	if err := meta.WriteBlock(ws, &meta.Block{Header: infoHdr, Body: enc.Info}); err != nil {
		return errutil.Err(err)
	}

	if enc.seekTable != nil {
		enc.seekTable.Sort(false)
		if _, err := ws.Seek(enc.seekTableOffset, io.SeekStart); err != nil {
			return errutil.Err(err)
		}
		stHdr := meta.Header{Type: meta.TypeSeekTable, IsLast: enc.MetaBlocks[len(enc.MetaBlocks)-1].Body == enc.seekTable}
		if err := meta.WriteBlock(ws, &meta.Block{Header: stHdr, Body: enc.seekTable}); err != nil {
			return errutil.Err(err)
		}
	}

	if enc.c != nil {
		return enc.c.Close()
	}
	return nil
}
