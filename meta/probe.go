package meta

import (
	"errors"
	"io"

	"github.com/mewkiz/pkg/errutil"
)

const flacSignature = "fLaC"

// ErrNotAFlacFile reports that a file does not begin with the FLAC stream
// signature (optionally after a leading ID3v2 tag).
var ErrNotAFlacFile = errors.New("meta: not a FLAC file")

// ProbeSignature reads from r, which must be positioned at what may be the
// start of a FLAC stream, skips a leading ID3v2 tag if present, and
// verifies the "fLaC" marker. It returns the byte offset, relative to r's
// initial position, of the first metadata block header — i.e. the start of
// the block sequence.
//
// ID3v2 detection is a simple skip probe, not a parse: "ID3" plus any
// version byte, a flags+version-minor byte pair, then a 28-bit syncsafe
// length (each byte's high bit must be zero; the low 7 bits of each byte
// concatenate big-endian).
func ProbeSignature(r io.Reader) (int64, error) {
	var off int64
	buf := make([]byte, 4)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, errutil.Err(err)
	}
	off += 4
	if buf[0] == 'I' && buf[1] == 'D' && buf[2] == '3' {
		skip := make([]byte, 2)
		if _, err := io.ReadFull(r, skip); err != nil {
			return 0, errutil.Err(err)
		}
		off += 2
		lenBuf := make([]byte, 4)
		if _, err := io.ReadFull(r, lenBuf); err != nil {
			return 0, errutil.Err(err)
		}
		off += 4
		var tagLen int64
		for _, b := range lenBuf {
			if b&0x80 != 0 {
				return 0, errutil.Newf("meta.ProbeSignature: malformed ID3v2 syncsafe length byte 0x%02X", b)
			}
			tagLen = tagLen<<7 | int64(b&0x7F)
		}
		if _, err := io.CopyN(io.Discard, r, tagLen); err != nil {
			return 0, errutil.Err(err)
		}
		off += tagLen
		if _, err := io.ReadFull(r, buf); err != nil {
			return 0, errutil.Err(err)
		}
		off += 4
	}
	if string(buf) != flacSignature {
		return 0, ErrNotAFlacFile
	}
	return off, nil
}
