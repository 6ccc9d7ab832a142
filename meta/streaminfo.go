package meta

import (
	"io"

	"github.com/icza/bitio"
	"github.com/mewkiz/pkg/errutil"
)

// StreamInfo holds stream-wide parameters. It must be present as the first
// metadata block of a FLAC stream, and there is exactly one per stream.
//
// ref: https://www.xiph.org/flac/format.html#metadata_block_streaminfo
type StreamInfo struct {
	// Minimum block size (in samples) used in the stream.
	BlockSizeMin uint16
	// Maximum block size (in samples) used in the stream.
	BlockSizeMax uint16
	// Minimum frame size (in bytes) used in the stream; 0 if unknown.
	FrameSizeMin uint32
	// Maximum frame size (in bytes) used in the stream; 0 if unknown.
	FrameSizeMax uint32
	// Sample rate in Hz.
	SampleRate uint32
	// Number of channels.
	NChannels uint8
	// Bits per sample.
	BitsPerSample uint8
	// Total number of inter-channel samples in the stream; 0 if unknown.
	NSamples uint64
	// MD5 signature of the unencoded audio data.
	MD5sum [16]byte
}

// streamInfoLength is the fixed serialized size, in bytes, of a StreamInfo
// body.
const streamInfoLength = 34

// NewStreamInfo returns a zero-value StreamInfo with the minimum legal
// field values filled in.
func NewStreamInfo() *StreamInfo {
	return &StreamInfo{
		BlockSizeMin: 16,
		BlockSizeMax: 16,
	}
}

// readStreamInfo parses the body of a StreamInfo metadata block.
//
//	type METADATA_BLOCK_STREAMINFO struct {
//	   block_size_min  uint16
//	   block_size_max  uint16
//	   frame_size_min  uint24
//	   frame_size_max  uint24
//	   sample_rate     uint20
//	   n_channels      uint3 // (number of channels)-1.
//	   bits_per_sample uint5 // (bits per sample)-1.
//	   n_samples       uint36
//	   md5sum          [16]byte
//	}
func readStreamInfo(br *bitio.Reader, length int) (*StreamInfo, error) {
	if length != streamInfoLength {
		return nil, errutil.Newf("meta.readStreamInfo: invalid length; expected %d, got %d", streamInfoLength, length)
	}
	si := new(StreamInfo)
	x, err := br.ReadBits(16)
	if err != nil {
		return nil, errutil.Err(err)
	}
	si.BlockSizeMin = uint16(x)

	x, err = br.ReadBits(16)
	if err != nil {
		return nil, errutil.Err(err)
	}
	si.BlockSizeMax = uint16(x)

	x, err = br.ReadBits(24)
	if err != nil {
		return nil, errutil.Err(err)
	}
	si.FrameSizeMin = uint32(x)

	x, err = br.ReadBits(24)
	if err != nil {
		return nil, errutil.Err(err)
	}
	si.FrameSizeMax = uint32(x)

	x, err = br.ReadBits(20)
	if err != nil {
		return nil, errutil.Err(err)
	}
	si.SampleRate = uint32(x)

	x, err = br.ReadBits(3)
	if err != nil {
		return nil, errutil.Err(err)
	}
	si.NChannels = uint8(x) + 1

	// The bits-per-sample field directly follows the 3-bit channel-count
	// field, with no gap between them.
	x, err = br.ReadBits(5)
	if err != nil {
		return nil, errutil.Err(err)
	}
	si.BitsPerSample = uint8(x) + 1

	x, err = br.ReadBits(36)
	if err != nil {
		return nil, errutil.Err(err)
	}
	si.NSamples = x

	if _, err := io.ReadFull(br, si.MD5sum[:]); err != nil {
		return nil, errutil.Err(err)
	}
	return si, nil
}

// writeStreamInfo writes the body of a StreamInfo metadata block.
func writeStreamInfo(bw *bitio.Writer, si *StreamInfo) error {
	if err := bw.WriteBits(uint64(si.BlockSizeMin), 16); err != nil {
		return errutil.Err(err)
	}
	if err := bw.WriteBits(uint64(si.BlockSizeMax), 16); err != nil {
		return errutil.Err(err)
	}
	if err := bw.WriteBits(uint64(si.FrameSizeMin), 24); err != nil {
		return errutil.Err(err)
	}
	if err := bw.WriteBits(uint64(si.FrameSizeMax), 24); err != nil {
		return errutil.Err(err)
	}
	if err := bw.WriteBits(uint64(si.SampleRate), 20); err != nil {
		return errutil.Err(err)
	}
	if err := bw.WriteBits(uint64(si.NChannels-1), 3); err != nil {
		return errutil.Err(err)
	}
	if err := bw.WriteBits(uint64(si.BitsPerSample-1), 5); err != nil {
		return errutil.Err(err)
	}
	if err := bw.WriteBits(si.NSamples, 36); err != nil {
		return errutil.Err(err)
	}
	if _, err := bw.Write(si.MD5sum[:]); err != nil {
		return errutil.Err(err)
	}
	return nil
}

// Clone returns a deep copy of si.
func (si *StreamInfo) Clone() *StreamInfo {
	clone := *si
	return &clone
}

// Equal reports whether a and b have identical field values.
func (a *StreamInfo) Equal(b *StreamInfo) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
