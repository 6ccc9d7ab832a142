// Package meta implements the FLAC metadata block codec and object model: the
// binary container format of the linked list of typed, variable-length
// blocks that precede the audio frame stream, and the owned, typed in-memory
// representation of each block kind.
package meta

import (
	"io"

	"github.com/icza/bitio"
	"github.com/mewkiz/pkg/errutil"
)

// Type identifies the kind of a metadata block.
type Type uint8

// Recognized metadata block types.
//
// ref: https://www.xiph.org/flac/format.html#metadata_block_header
const (
	TypeStreamInfo Type = iota
	TypePadding
	TypeApplication
	TypeSeekTable
	TypeVorbisComment
	TypeCueSheet
)

// TypeUnknown marks a block whose type tag fell outside the recognized range
// (6-126) or the explicitly invalid value (127). The tag itself is preserved
// on the block header; the body is kept as an opaque Unknown.
const TypeUnknown Type = 255

func (t Type) String() string {
	switch t {
	case TypeStreamInfo:
		return "stream info"
	case TypePadding:
		return "padding"
	case TypeApplication:
		return "application"
	case TypeSeekTable:
		return "seek table"
	case TypeVorbisComment:
		return "vorbis comment"
	case TypeCueSheet:
		return "cue sheet"
	default:
		return "unknown"
	}
}

// HeaderSize is the size in bytes of a metadata block header.
const HeaderSize = 4

// MaxLength is the largest payload length a block header can express (24
// bits).
const MaxLength = 1<<24 - 1

// Header contains the type, size and position information common to every
// metadata block.
type Header struct {
	// IsLast reports whether this is the final metadata block before the
	// audio frame stream.
	IsLast bool
	// Type is the recognized block type, or TypeUnknown.
	Type Type
	// RawType is the type tag as it appeared on the wire; for recognized
	// types it always equals uint8(Type). For TypeUnknown it preserves the
	// original tag (6-126, or 127) so a round trip re-emits it unchanged.
	RawType uint8
	// Length is the size in bytes of the block body that follows the header.
	Length int
}

// A Block is a metadata block: a header plus a typed body.
//
// Body holds one of *StreamInfo, *Padding, *Application, *SeekTable,
// *VorbisComment, *CueSheet or *Unknown, selected by Header.Type.
type Block struct {
	Header Header
	Body   interface{}
}

// ReadHeader reads and decodes a metadata block header.
//
//	type METADATA_BLOCK_HEADER struct {
//	   is_last    bool
//	   block_type uint7
//	   length     uint24
//	}
func ReadHeader(r io.Reader) (Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Header{}, errutil.Err(err)
	}
	var hdr Header
	hdr.IsLast = buf[0]&0x80 != 0
	hdr.RawType = buf[0] & 0x7F
	hdr.Length = int(buf[1])<<16 | int(buf[2])<<8 | int(buf[3])
	switch {
	case hdr.RawType <= uint8(TypeCueSheet):
		hdr.Type = Type(hdr.RawType)
	default:
		hdr.Type = TypeUnknown
	}
	return hdr, nil
}

// WriteHeader encodes and writes a metadata block header.
func WriteHeader(w io.Writer, hdr Header) error {
	if hdr.Length < 0 || hdr.Length > MaxLength {
		return errutil.Newf("meta.WriteHeader: length %d out of range [0, %d]", hdr.Length, MaxLength)
	}
	rawType := hdr.RawType
	if hdr.Type != TypeUnknown {
		rawType = uint8(hdr.Type)
	}
	buf := make([]byte, HeaderSize)
	if hdr.IsLast {
		buf[0] = 0x80
	}
	buf[0] |= rawType & 0x7F
	buf[1] = byte(hdr.Length >> 16)
	buf[2] = byte(hdr.Length >> 8)
	buf[3] = byte(hdr.Length)
	if _, err := w.Write(buf); err != nil {
		return errutil.Err(err)
	}
	return nil
}

// ReadBody reads and parses the body of a metadata block whose header has
// already been read. The returned value's concrete type is selected by
// hdr.Type.
func ReadBody(r io.Reader, hdr Header) (body interface{}, err error) {
	lr := io.LimitReader(r, int64(hdr.Length))
	br := bitio.NewReader(lr)
	switch hdr.Type {
	case TypeStreamInfo:
		return readStreamInfo(br, hdr.Length)
	case TypePadding:
		return readPadding(br, hdr.Length)
	case TypeApplication:
		return readApplication(br, hdr.Length)
	case TypeSeekTable:
		return readSeekTable(br, hdr.Length)
	case TypeVorbisComment:
		return readVorbisComment(br, hdr.Length)
	case TypeCueSheet:
		return readCueSheet(br, hdr.Length)
	default:
		return readUnknown(br, hdr.Length)
	}
}

// WriteBody writes the body of a metadata block and returns the header with
// Length recomputed to match the serialized size of body.
func WriteBody(w io.Writer, hdr Header, body interface{}) (Header, error) {
	hdr, err := bodyHeader(hdr, body)
	if err != nil {
		return hdr, err
	}
	bw := bitio.NewWriter(w)
	switch b := body.(type) {
	case *StreamInfo:
		err = writeStreamInfo(bw, b)
	case *Padding:
		err = writePadding(bw, b)
	case *Application:
		err = writeApplication(bw, b)
	case *SeekTable:
		err = writeSeekTable(bw, b)
	case *VorbisComment:
		err = writeVorbisComment(bw, b)
	case *CueSheet:
		err = writeCueSheet(bw, b)
	case *Unknown:
		err = writeUnknown(bw, b)
	}
	if err != nil {
		return hdr, err
	}
	if err := bw.Close(); err != nil {
		return hdr, errutil.Err(err)
	}
	return hdr, nil
}

// NewBlock reads a complete metadata block (header and body) from r.
func NewBlock(r io.Reader) (*Block, error) {
	hdr, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	body, err := ReadBody(r, hdr)
	if err != nil {
		return nil, err
	}
	return &Block{Header: hdr, Body: body}, nil
}

// WriteBlock writes a complete metadata block (header and body) to w, after
// recomputing Header.Length to match the serialized size of block.Body.
func WriteBlock(w io.Writer, block *Block) error {
	hdr, err := bodyHeader(block.Header, block.Body)
	if err != nil {
		return err
	}
	if err := WriteHeader(w, hdr); err != nil {
		return err
	}
	if _, err := WriteBody(w, hdr, block.Body); err != nil {
		return err
	}
	return nil
}

// bodyHeader recomputes Length for hdr from body without writing anything,
// by asking each kind for its serialized size.
func bodyHeader(hdr Header, body interface{}) (Header, error) {
	switch b := body.(type) {
	case *StreamInfo:
		hdr.Length = streamInfoLength
	case *Padding:
		hdr.Length = b.Length
	case *Application:
		hdr.Length = applicationLength(b)
	case *SeekTable:
		hdr.Length = seekTableLength(b)
	case *VorbisComment:
		hdr.Length = vorbisCommentLength(b)
	case *CueSheet:
		hdr.Length = cueSheetLength(b)
	case *Unknown:
		hdr.Length = len(b.Data)
	default:
		return hdr, errutil.Newf("meta.bodyHeader: unsupported body type %T", body)
	}
	return hdr, nil
}
