package meta

import (
	"io"

	"github.com/icza/bitio"
	"github.com/mewkiz/pkg/errutil"
)

// Application is for use by third-party applications. The only mandatory
// field is a 4-byte identifier, granted on request to an application by the
// FLAC maintainers; the remainder of the block is opaque to this library.
//
// ref: https://www.xiph.org/flac/format.html#metadata_block_application
type Application struct {
	// Registered application ID.
	//
	// ref: https://www.xiph.org/flac/id.html
	ID [4]byte
	// Application data. nil if length == 4 (an ID with no payload).
	Data []byte
}

// NewApplication returns an Application block body with the given ID and no
// data.
func NewApplication(id [4]byte) *Application {
	return &Application{ID: id}
}

func applicationLength(app *Application) int {
	return 4 + len(app.Data)
}

// readApplication parses the body of an Application metadata block.
//
//	type METADATA_BLOCK_APPLICATION struct {
//	   id   [4]byte
//	   data [length-4]byte
//	}
func readApplication(br *bitio.Reader, length int) (*Application, error) {
	if length < 4 {
		return nil, errutil.Newf("meta.readApplication: invalid length; expected >= 4, got %d", length)
	}
	app := new(Application)
	if _, err := io.ReadFull(br, app.ID[:]); err != nil {
		return nil, errutil.Err(err)
	}
	if length > 4 {
		app.Data = make([]byte, length-4)
		if _, err := io.ReadFull(br, app.Data); err != nil {
			return nil, errutil.Err(err)
		}
	}
	return app, nil
}

// writeApplication writes the body of an Application metadata block.
func writeApplication(bw *bitio.Writer, app *Application) error {
	if _, err := bw.Write(app.ID[:]); err != nil {
		return errutil.Err(err)
	}
	if len(app.Data) > 0 {
		if _, err := bw.Write(app.Data); err != nil {
			return errutil.Err(err)
		}
	}
	return nil
}

// SetDataCopy replaces app's data with a copy of data.
func (app *Application) SetDataCopy(data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	app.Data = cp
}

// SetDataOwned replaces app's data, transferring ownership of data to app.
// The caller must not retain or mutate data after this call.
func (app *Application) SetDataOwned(data []byte) {
	app.Data = data
}

// Clone returns a deep copy of app.
func (app *Application) Clone() *Application {
	clone := &Application{ID: app.ID}
	clone.SetDataCopy(app.Data)
	return clone
}

// Equal reports whether a and b have the same ID and data.
func (a *Application) Equal(b *Application) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.ID != b.ID {
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
