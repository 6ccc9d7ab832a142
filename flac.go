/*
Links:
	http://code.google.com/p/goflac-meta/source/browse/flacmeta_test.go
	http://flac.sourceforge.net/api/hierarchy.html
	http://flac.sourceforge.net/documentation_format_overview.html
	http://flac.sourceforge.net/format.html
	http://jflac.sourceforge.net/
	http://ffmpeg.org/doxygen/trunk/libavcodec_2flacdec_8c-source.html#l00485
	http://mi.eng.cam.ac.uk/reports/svr-ftp/auto-pdf/robinson_tr156.pdf
*/

// Package flac provides access to FLAC [1] (Free Lossless Audio Codec) files.
//
// [1]: http://flac.sourceforge.net/format.html
package flac

import (
	"fmt"
	"io"
	"os"

	"github.com/nazgoflac/flac/frame"
	"github.com/nazgoflac/flac/internal/bufseekio"
	"github.com/nazgoflac/flac/meta"
)

// A Stream is a FLAC bitstream.
type Stream struct {
	// Mandatory StreamInfo metadata block; the same pointer is the body of
	// MetaBlocks[0].
	Info *meta.StreamInfo
	// Metadata blocks, in on-disk order; MetaBlocks[0] always holds Info.
	MetaBlocks []*meta.Block
	// Audio frames.
	Frames []*frame.Frame

	// r and audioOffset let Encode re-emit the audio sample stream
	// verbatim, since this package implements no frame encoder of its own:
	// r is the reader NewStream was given, and audioOffset is the byte
	// offset at which its first audio frame begins.
	r           io.ReadSeeker
	audioOffset int64

	// closer is the underlying file opened by Open, if any; NewStream
	// callers own their own reader and Close is a no-op for them.
	closer io.Closer
}

// Close releases the file opened by Open, if any. It is a no-op for a
// Stream built directly from NewStream, whose caller owns the reader.
func (s *Stream) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Open opens the provided file and returns a parsed FLAC bitstream. Encode
// re-emits the audio sample stream verbatim from the file, so the caller
// must call Close once done with the returned Stream, rather than the file
// being closed by Open itself.
func Open(filePath string) (s *Stream, err error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	s, err = NewStream(bufseekio.NewReadSeekerSize(f, 32*1024))
	if err != nil {
		f.Close()
		return nil, err
	}
	s.closer = f
	return s, nil
}

// FlacSignature is present at the beginning of each FLAC file.
const FlacSignature = "fLaC"

// NewStream reads from the provided io.ReadSeeker and returns a parsed FLAC
// bitstream.
//
// The basic structure of a FLAC stream is:
//    - The four byte string "fLaC".
//    - The STREAMINFO metadata block.
//    - Zero or more other metadata blocks.
//    - One or more audio frames.
func NewStream(r io.ReadSeeker) (s *Stream, err error) {
	// Verify "fLaC" signature (size: 4 bytes).
	buf := make([]byte, 4)
	_, err = io.ReadFull(r, buf)
	if err != nil {
		return nil, err
	}
	sig := string(buf)
	if sig != FlacSignature {
		return nil, fmt.Errorf("flac.NewStream: invalid signature; expected %q, got %q", FlacSignature, sig)
	}

	// Read metadata blocks.
	s = new(Stream)
	isFirst := true
	var isLast bool
	for !isLast {
		// Read metadata block.
		block, err := meta.NewBlock(r)
		if err != nil {
			return nil, err
		}
		if block.Header.IsLast {
			isLast = true
		}

		// The first block type must be StreamInfo.
		if isFirst {
			if block.Header.Type != meta.TypeStreamInfo {
				return nil, fmt.Errorf("flac.NewStream: first block type is invalid; expected %d (StreamInfo), got %d", meta.TypeStreamInfo, block.Header.Type)
			}
			isFirst = false
		}

		// Store the decoded metadata block.
		s.MetaBlocks = append(s.MetaBlocks, block)
	}

	// The first block is always a StreamInfo block.
	si := s.MetaBlocks[0].Body.(*meta.StreamInfo)
	s.Info = si

	s.r = r
	if off, err := r.Seek(0, io.SeekCurrent); err == nil {
		s.audioOffset = off
	}

	// Read audio frames. NSamples of 0 means the total is unknown; read
	// until EOF in that case, otherwise stop once enough samples have been
	// seen.
	var i uint64
	for si.NSamples == 0 || i < si.NSamples {
		f, err := frame.NewFrame(r)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		s.Frames = append(s.Frames, f)
		i += uint64(len(f.SubFrames[0].Samples))
	}

	return s, nil
}
