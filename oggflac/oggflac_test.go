package oggflac_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/nazgoflac/flac/oggflac"
)

type memRWS struct {
	*bytes.Reader
	buf *[]byte
}

func newMemRWS(data []byte) *memRWS {
	buf := append([]byte(nil), data...)
	return &memRWS{Reader: bytes.NewReader(buf), buf: &buf}
}

func (m *memRWS) Write(p []byte) (int, error) {
	off, _ := m.Reader.Seek(0, io.SeekCurrent)
	end := int(off) + len(p)
	if end > len(*m.buf) {
		grown := make([]byte, end)
		copy(grown, *m.buf)
		*m.buf = grown
	}
	copy((*m.buf)[off:end], p)
	*m.Reader = *bytes.NewReader(*m.buf)
	_, err := m.Reader.Seek(int64(end), io.SeekStart)
	return len(p), err
}

func (m *memRWS) Seek(offset int64, whence int) (int64, error) {
	return m.Reader.Seek(offset, whence)
}

func buildPage(t *testing.T, serial uint32, seq uint32, payload []byte) []byte {
	t.Helper()
	p := &oggflac.Page{
		Version:      0,
		HeaderType:   0,
		SerialNumber: serial,
		PageSequence: seq,
		Segments:     oggflac.BuildSegmentTable(len(payload)),
		Payload:      payload,
	}
	return p.Encode()
}

func TestReadPageRoundTrip(t *testing.T) {
	raw := buildPage(t, 42, 0, []byte("hello flac metadata"))
	page, err := oggflac.ReadPage(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	if page.SerialNumber != 42 || string(page.Payload) != "hello flac metadata" {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestReadPageBadCRC(t *testing.T) {
	raw := buildPage(t, 1, 0, []byte("payload"))
	raw[len(raw)-1] ^= 0xFF
	if _, err := oggflac.ReadPage(bytes.NewReader(raw)); err != oggflac.ErrBadCRC {
		t.Fatalf("got err %v, want ErrBadCRC", err)
	}
}

func TestRewriteAtMutatesOnlyTargetPage(t *testing.T) {
	page0 := buildPage(t, 7, 0, []byte("STREAMINFOxxxxxxxxxxxxxxxxxxxx"))
	page1 := buildPage(t, 7, 1, []byte("frame-data-unrelated"))
	other := buildPage(t, 9, 0, []byte("other stream payload"))

	var data []byte
	data = append(data, page0...)
	data = append(data, other...)
	data = append(data, page1...)

	rws := newMemRWS(data)
	err := oggflac.RewriteAt(rws, 7, 0, 10, func(payload []byte) error {
		copy(payload, []byte("PATCHEDOK!"))
		return nil
	})
	if err != nil {
		t.Fatalf("RewriteAt: %v", err)
	}

	pages, err := oggflac.Pages(bytes.NewReader(*rws.buf))
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}
	if string(pages[0].Payload[:10]) != "PATCHEDOK!" {
		t.Fatalf("patched payload = %q", pages[0].Payload[:10])
	}
	if string(pages[1].Payload) != "other stream payload" {
		t.Fatalf("unrelated serial's page was disturbed: %q", pages[1].Payload)
	}
	if string(pages[2].Payload) != "frame-data-unrelated" {
		t.Fatalf("later page in same stream was disturbed: %q", pages[2].Payload)
	}
}

func TestRewriteAtRejectsSpanningPages(t *testing.T) {
	raw := buildPage(t, 3, 0, []byte("short"))
	rws := newMemRWS(raw)
	err := oggflac.RewriteAt(rws, 3, 0, 100, func(payload []byte) error { return nil })
	if err != oggflac.ErrSpansPages {
		t.Fatalf("got err %v, want ErrSpansPages", err)
	}
}
