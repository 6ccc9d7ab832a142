// Package frame contains functions for parsing FLAC encoded audio data.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/nazgoflac/flac/internal/bits"
	"github.com/nazgoflac/flac/internal/hashutil/crc16"
)

// A Frame is an audio frame, consisting of a frame header and one subframe per
// channel.
type Frame struct {
	// Audio frame header.
	Header *Header
	// Audio subframes, one per channel.
	SubFrames []*SubFrame
}

// NewFrame parses and returns a new frame, which consists of a frame header and
// one subframe per channel.
//
// Frame format (pseudo code):
//
//	type FRAME struct {
//	   header    FRAME_HEADER
//	   subframes []SUBFRAME
//	   _         uint0 to uint7 // zero-padding to byte alignment.
//	   footer    uint16 // CRC-16 of the entire frame, excluding the footer.
//	}
//
// ref: http://flac.sourceforge.net/format.html#frame
func NewFrame(r io.ReadSeeker) (frame *Frame, err error) {
	// Record start offset, which is used when verifying the CRC-16 of the frame.
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}

	// Frame header.
	frame = new(Frame)
	frame.Header, err = NewHeader(r)
	if err != nil {
		return nil, err
	}

	// Subframes.
	br := bits.NewReader(r)
	h := frame.Header
	for i := 0; i < h.ChannelOrder.ChannelCount(); i++ {
		bps := uint(h.BitsPerSample)
		// Inter-channel decorrelation modes widen one of the two channels by a
		// single bit.
		switch {
		case h.ChannelOrder == ChannelLeftSide && i == 1,
			h.ChannelOrder == ChannelRightSide && i == 0,
			h.ChannelOrder == ChannelMidSide && i == 1:
			bps++
		}
		subframe, err := h.NewSubFrame(br, bps)
		if err != nil {
			return nil, err
		}
		frame.SubFrames = append(frame.SubFrames, subframe)
	}

	// Padding.
	pad, n, err := br.Pad()
	if err != nil {
		return nil, err
	}
	if n > 0 && pad != 0 {
		return nil, errors.New("frame.NewFrame: invalid padding; must be 0")
	}

	// Frame footer.

	// Read the frame data and calculate the CRC-16.
	end, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	_, err = r.Seek(start, io.SeekStart)
	if err != nil {
		return nil, err
	}
	data := make([]byte, end-start)
	_, err = io.ReadFull(r, data)
	if err != nil {
		return nil, err
	}

	// Verify the CRC-16.
	var crc uint16
	err = binary.Read(r, binary.BigEndian, &crc)
	if err != nil {
		return nil, err
	}
	got := crc16.Checksum(data)
	if crc != got {
		return nil, fmt.Errorf("frame.NewFrame: checksum mismatch; expected 0x%04X, got 0x%04X", crc, got)
	}

	return frame, nil
}
