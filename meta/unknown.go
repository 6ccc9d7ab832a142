package meta

import (
	"io"

	"github.com/icza/bitio"
	"github.com/mewkiz/pkg/errutil"
)

// Unknown holds the raw body bytes of a metadata block whose type is not
// one of the six recognized kinds. This includes block types reserved by
// the format and application-defined extensions this library does not
// model as a distinct kind (for instance PICTURE blocks); round-tripping
// such a block preserves its raw type tag and body bytes unmodified.
type Unknown struct {
	// Data is the raw, unparsed block body.
	Data []byte
}

// NewUnknown returns an Unknown block body with no data.
func NewUnknown() *Unknown {
	return new(Unknown)
}

func unknownLength(u *Unknown) int {
	return len(u.Data)
}

// readUnknown reads the raw body of an unrecognized metadata block.
func readUnknown(br *bitio.Reader, length int) (*Unknown, error) {
	u := new(Unknown)
	if length > 0 {
		u.Data = make([]byte, length)
		if _, err := io.ReadFull(br, u.Data); err != nil {
			return nil, errutil.Err(err)
		}
	}
	return u, nil
}

// writeUnknown writes the raw body of an unrecognized metadata block.
func writeUnknown(bw *bitio.Writer, u *Unknown) error {
	if len(u.Data) == 0 {
		return nil
	}
	if _, err := bw.Write(u.Data); err != nil {
		return errutil.Err(err)
	}
	return nil
}

// SetDataCopy replaces u's data with a copy of data.
func (u *Unknown) SetDataCopy(data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	u.Data = cp
}

// SetDataOwned replaces u's data, transferring ownership of data to u. The
// caller must not retain or mutate data after this call.
func (u *Unknown) SetDataOwned(data []byte) {
	u.Data = data
}

// Clone returns a deep copy of u.
func (u *Unknown) Clone() *Unknown {
	clone := new(Unknown)
	clone.SetDataCopy(u.Data)
	return clone
}

// Equal reports whether a and b hold identical raw data.
func (a *Unknown) Equal(b *Unknown) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if len(a.Data) != len(b.Data) {
		return false
	}
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			return false
		}
	}
	return true
}
