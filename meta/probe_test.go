package meta_test

import (
	"bytes"
	"testing"

	"github.com/nazgoflac/flac/meta"
)

func TestProbeSignaturePlain(t *testing.T) {
	off, err := meta.ProbeSignature(bytes.NewReader([]byte("fLaC")))
	if err != nil {
		t.Fatalf("ProbeSignature: %v", err)
	}
	if off != 4 {
		t.Fatalf("got offset %d, want 4", off)
	}
}

func TestProbeSignatureSkipsID3v2(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("ID3")
	buf.WriteByte(3)        // version byte, completing the 4-byte "ID3"+version read
	buf.Write([]byte{0, 0}) // flags + version-minor, skipped as a pair
	buf.Write([]byte{0x00, 0x00, 0x00, 0x05})
	buf.Write(make([]byte, 5))
	buf.WriteString("fLaC")

	off, err := meta.ProbeSignature(&buf)
	if err != nil {
		t.Fatalf("ProbeSignature: %v", err)
	}
	if off != 19 {
		t.Fatalf("got offset %d, want 19", off)
	}
}

func TestProbeSignatureRejectsGarbage(t *testing.T) {
	if _, err := meta.ProbeSignature(bytes.NewReader([]byte("OggS"))); err != meta.ErrNotAFlacFile {
		t.Fatalf("got err %v, want ErrNotAFlacFile", err)
	}
}
