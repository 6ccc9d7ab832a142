// Package oggflac adapts the Ogg encapsulation of a FLAC-family stream for
// in-place metadata rewriting. A FLAC stream embedded in Ogg splits its
// metadata blocks and audio frames across a sequence of pages belonging to
// one logical bitstream (identified by serial number); a byte offset known
// from the native byte-stream layout therefore does not correspond
// one-to-one with a file offset, because each page interposes its own
// header and segment table. The adapter locates the page whose payload
// spans a given logical-stream offset, mutates that payload in place, and
// rewrites the page with a freshly computed checksum, leaving every other
// page's bytes untouched.
package oggflac

import (
	"errors"
	"io"

	"github.com/mewkiz/pkg/errutil"
	"github.com/nazgoflac/flac/internal/bytepack"
	"github.com/nazgoflac/flac/internal/oggcrc"
)

// Page header flag bits.
const (
	FlagContinuation = 0x01
	FlagBOS          = 0x02
	FlagEOS          = 0x04
)

const (
	pageHeaderSize = 27
	oggMagic       = "OggS"
)

// ErrInvalidPage reports a malformed Ogg page: missing capture pattern or a
// truncated header/segment-table/payload.
var ErrInvalidPage = errors.New("oggflac: invalid page structure")

// ErrBadCRC reports that a page's checksum does not match its bytes.
var ErrBadCRC = errors.New("oggflac: CRC mismatch")

// ErrSpansPages reports that a requested mutation range does not fit within
// a single page's payload; the adapter never splits a mutation across a
// page boundary.
var ErrSpansPages = errors.New("oggflac: mutation range spans multiple pages")

// Page is a single Ogg page: a 27-byte fixed header, a segment table, and a
// payload consisting of one or more lapped packets.
type Page struct {
	Version      byte
	HeaderType   byte
	GranulePos   uint64
	SerialNumber uint32
	PageSequence uint32
	Segments     []byte
	Payload      []byte
}

// Size returns the page's total serialized size in bytes.
func (p *Page) Size() int {
	return pageHeaderSize + len(p.Segments) + len(p.Payload)
}

// BuildSegmentTable returns the segment table for a packet of the given
// length: each entry is 255 for a full segment, and a final entry less than
// 255 (possibly 0) terminates the packet.
func BuildSegmentTable(packetLen int) []byte {
	if packetLen == 0 {
		return []byte{0}
	}
	n, remainder := packetLen/255, packetLen%255
	if remainder == 0 {
		segs := make([]byte, n+1)
		for i := 0; i < n; i++ {
			segs[i] = 255
		}
		return segs
	}
	segs := make([]byte, n+1)
	for i := 0; i < n; i++ {
		segs[i] = 255
	}
	segs[n] = byte(remainder)
	return segs
}

// ParseSegmentTable returns the lengths of the complete packets encoded in
// segments. A trailing run of 255s that is not followed by a value under
// 255 belongs to a packet continued on the next page and is not included.
func ParseSegmentTable(segments []byte) []int {
	var lengths []int
	current := 0
	for _, seg := range segments {
		current += int(seg)
		if seg < 255 {
			lengths = append(lengths, current)
			current = 0
		}
	}
	return lengths
}

// Encode serializes p with a freshly computed checksum.
func (p *Page) Encode() []byte {
	headerSize := pageHeaderSize + len(p.Segments)
	data := make([]byte, headerSize+len(p.Payload))

	copy(data[0:4], oggMagic)
	data[4] = p.Version
	data[5] = p.HeaderType
	bytepack.PutUintLE(data[6:14], p.GranulePos, 8)
	bytepack.PutUintLE(data[14:18], uint64(p.SerialNumber), 4)
	bytepack.PutUintLE(data[18:22], uint64(p.PageSequence), 4)
	// bytes 22:26 (CRC) filled in below, once the rest of the page is in place.
	data[26] = byte(len(p.Segments))
	copy(data[27:], p.Segments)
	copy(data[headerSize:], p.Payload)

	crc := oggcrc.Checksum(data)
	bytepack.PutUintLE(data[22:26], uint64(crc), 4)
	return data
}

// ReadPage reads and validates one Ogg page from r, verifying its checksum.
func ReadPage(r io.Reader) (*Page, error) {
	hdr := make([]byte, pageHeaderSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, errutil.Err(err)
	}
	if string(hdr[0:4]) != oggMagic {
		return nil, ErrInvalidPage
	}
	p := &Page{
		Version:      hdr[4],
		HeaderType:   hdr[5],
		GranulePos:   bytepack.UintLE(hdr[6:14], 8),
		SerialNumber: uint32(bytepack.UintLE(hdr[14:18], 4)),
		PageSequence: uint32(bytepack.UintLE(hdr[18:22], 4)),
	}
	storedCRC := uint32(bytepack.UintLE(hdr[22:26], 4))
	nSegments := int(hdr[26])

	p.Segments = make([]byte, nSegments)
	if _, err := io.ReadFull(r, p.Segments); err != nil {
		return nil, errutil.Err(err)
	}
	payloadSize := 0
	for _, seg := range p.Segments {
		payloadSize += int(seg)
	}
	p.Payload = make([]byte, payloadSize)
	if _, err := io.ReadFull(r, p.Payload); err != nil {
		return nil, errutil.Err(err)
	}

	crc := oggcrc.Update(oggcrc.Checksum(hdr[:22]), []byte{0, 0, 0, 0})
	crc = oggcrc.Update(crc, hdr[26:27])
	crc = oggcrc.Update(crc, p.Segments)
	crc = oggcrc.Update(crc, p.Payload)
	if crc != storedCRC {
		return nil, ErrBadCRC
	}
	return p, nil
}

// IsBOS reports whether p is the first page of a logical bitstream.
func (p *Page) IsBOS() bool { return p.HeaderType&FlagBOS != 0 }

// IsEOS reports whether p is the last page of a logical bitstream.
func (p *Page) IsEOS() bool { return p.HeaderType&FlagEOS != 0 }
