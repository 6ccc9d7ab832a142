package meta

import "github.com/mewkiz/pkg/errutil"

// New returns a Block of the given type with a freshly constructed, empty
// body. TypeUnknown is not constructible this way; use NewUnknown directly
// and assign RawType on the returned block's header.
func New(typ Type) (*Block, error) {
	var body interface{}
	switch typ {
	case TypeStreamInfo:
		body = NewStreamInfo()
	case TypePadding:
		body = NewPadding(0)
	case TypeApplication:
		body = NewApplication([4]byte{})
	case TypeSeekTable:
		body = NewSeekTable()
	case TypeVorbisComment:
		body = NewVorbisComment("")
	case TypeCueSheet:
		body = NewCueSheet()
	default:
		return nil, errutil.Newf("meta.New: unsupported block type %v", typ)
	}
	return &Block{Header: Header{Type: typ, RawType: uint8(typ)}, Body: body}, nil
}

// Clone returns a deep copy of block, including its header and body.
func (block *Block) Clone() *Block {
	clone := &Block{Header: block.Header}
	switch b := block.Body.(type) {
	case *StreamInfo:
		clone.Body = b.Clone()
	case *Padding:
		clone.Body = b.Clone()
	case *Application:
		clone.Body = b.Clone()
	case *SeekTable:
		clone.Body = b.Clone()
	case *VorbisComment:
		clone.Body = b.Clone()
	case *CueSheet:
		clone.Body = b.Clone()
	case *Unknown:
		clone.Body = b.Clone()
	}
	return clone
}

// Equal reports whether a and b have the same Type and RawType and equal
// bodies. IsLast (list position) and Length (derived from the body) are not
// compared.
func (a *Block) Equal(b *Block) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Header.Type != b.Header.Type || a.Header.RawType != b.Header.RawType {
		return false
	}
	switch x := a.Body.(type) {
	case *StreamInfo:
		y, ok := b.Body.(*StreamInfo)
		return ok && x.Equal(y)
	case *Padding:
		y, ok := b.Body.(*Padding)
		return ok && x.Equal(y)
	case *Application:
		y, ok := b.Body.(*Application)
		return ok && x.Equal(y)
	case *SeekTable:
		y, ok := b.Body.(*SeekTable)
		return ok && x.Equal(y)
	case *VorbisComment:
		y, ok := b.Body.(*VorbisComment)
		return ok && x.Equal(y)
	case *CueSheet:
		y, ok := b.Body.(*CueSheet)
		return ok && x.Equal(y)
	case *Unknown:
		y, ok := b.Body.(*Unknown)
		return ok && x.Equal(y)
	default:
		return false
	}
}

// DataLength returns the serialized size in bytes of block's body, as it
// would be written by WriteBlock, without writing anything.
func (block *Block) DataLength() (int, error) {
	hdr, err := bodyHeader(block.Header, block.Body)
	if err != nil {
		return 0, err
	}
	return hdr.Length, nil
}

// AsPadding converts block in place into a Padding block of the same
// serialized size, discarding its prior body. This is the "delete" of the
// Simple Iterator API (§4.5): a deleted block becomes reclaimable padding
// rather than being physically removed from a singly-linked-on-disk layout.
func (block *Block) AsPadding() error {
	n, err := block.DataLength()
	if err != nil {
		return err
	}
	block.Header.Type = TypePadding
	block.Header.RawType = uint8(TypePadding)
	block.Body = NewPadding(n)
	return nil
}
