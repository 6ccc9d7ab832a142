package oggflac

import (
	"io"

	"github.com/mewkiz/pkg/errutil"
)

// Mutator edits payload in place; it must not change len(payload). It is
// handed the exact window of bytes requested by RewriteAt, not the whole
// page payload.
type Mutator func(payload []byte) error

// RewriteAt locates the page belonging to the logical bitstream serial
// whose payload spans [streamOffset, streamOffset+length) of that stream's
// concatenated page payloads, applies mutate to the corresponding window,
// and rewrites the page in place with a recomputed checksum. Every other
// byte in rws, including every other page, is left untouched.
//
// streamOffset is measured from the first payload byte of serial's first
// page; it does not include any other logical bitstream's pages, nor Ogg
// page framing.
func RewriteAt(rws io.ReadWriteSeeker, serial uint32, streamOffset int64, length int, mutate Mutator) error {
	if _, err := rws.Seek(0, io.SeekStart); err != nil {
		return errutil.Err(err)
	}
	var pageStart, accumulated int64
	for {
		page, err := ReadPage(rws)
		if err == io.EOF {
			return errutil.Newf("oggflac.RewriteAt: offset %d not found in stream %d", streamOffset, serial)
		}
		if err != nil {
			return err
		}
		pageSize := int64(page.Size())
		if page.SerialNumber != serial {
			pageStart += pageSize
			if _, err := rws.Seek(pageStart, io.SeekStart); err != nil {
				return errutil.Err(err)
			}
			continue
		}

		payloadLen := int64(len(page.Payload))
		if streamOffset >= accumulated && streamOffset < accumulated+payloadLen {
			local := streamOffset - accumulated
			if local+int64(length) > payloadLen {
				return ErrSpansPages
			}
			if err := mutate(page.Payload[local : local+int64(length)]); err != nil {
				return err
			}
			encoded := page.Encode()
			if _, err := rws.Seek(pageStart, io.SeekStart); err != nil {
				return errutil.Err(err)
			}
			if _, err := rws.Write(encoded); err != nil {
				return errutil.Err(err)
			}
			return nil
		}

		accumulated += payloadLen
		pageStart += pageSize
		if _, err := rws.Seek(pageStart, io.SeekStart); err != nil {
			return errutil.Err(err)
		}
	}
}

// Pages reads every Ogg page from r in order, until EOF.
func Pages(r io.Reader) ([]*Page, error) {
	var pages []*Page
	for {
		page, err := ReadPage(r)
		if err == io.EOF {
			return pages, nil
		}
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
}
