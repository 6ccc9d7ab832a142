package meta

import (
	"io"

	"github.com/icza/bitio"
	"github.com/mewkiz/pkg/errutil"
)

// Padding is a block whose payload is reserved space, conventionally zero,
// exploited to avoid whole-file rewrites when metadata grows.
//
// ref: https://www.xiph.org/flac/format.html#metadata_block_padding
type Padding struct {
	// Length is the number of padding bytes.
	Length int
}

// NewPadding returns a Padding block body of the given length.
func NewPadding(length int) *Padding {
	return &Padding{Length: length}
}

// readPadding seeks past the body of a Padding metadata block, discarding its
// contents.
func readPadding(br *bitio.Reader, length int) (*Padding, error) {
	if _, err := io.CopyN(io.Discard, br, int64(length)); err != nil {
		return nil, errutil.Err(err)
	}
	return &Padding{Length: length}, nil
}

// writePadding writes length zero bytes.
func writePadding(bw *bitio.Writer, p *Padding) error {
	const chunk = 4096
	var zero [chunk]byte
	remaining := p.Length
	for remaining > 0 {
		n := remaining
		if n > chunk {
			n = chunk
		}
		if _, err := bw.Write(zero[:n]); err != nil {
			return errutil.Err(err)
		}
		remaining -= n
	}
	return nil
}

// Clone returns a deep copy of p.
func (p *Padding) Clone() *Padding {
	clone := *p
	return &clone
}

// Equal reports whether a and b have the same length.
func (a *Padding) Equal(b *Padding) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.Length == b.Length
}
