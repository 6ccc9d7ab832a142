package crc8_test

import (
	"testing"

	"github.com/nazgoflac/flac/internal/hashutil/crc8"
)

// Check value for the CRC-8/SMBUS parameterization (poly 0x07, init 0,
// no reflection, no xorout), which is the variant this package computes.
func TestChecksumCatalogCheckValue(t *testing.T) {
	const want = 0xF4
	if got := crc8.Checksum([]byte("123456789")); got != want {
		t.Errorf("Checksum(\"123456789\") = 0x%02X, want 0x%02X", got, want)
	}
}

func TestChecksumEmpty(t *testing.T) {
	if got := crc8.Checksum(nil); got != 0 {
		t.Errorf("Checksum(nil) = 0x%02X, want 0", got)
	}
}

func TestHash8MatchesChecksum(t *testing.T) {
	data := []byte("a FLAC frame header")
	h := crc8.NewATM()
	h.Write(data)
	if got, want := h.Sum8(), crc8.Checksum(data); got != want {
		t.Errorf("Hash8.Sum8() = 0x%02X, want 0x%02X", got, want)
	}
	if sum := h.Sum(nil); len(sum) != 1 || sum[0] != h.Sum8() {
		t.Errorf("Sum(nil) = %v, want [%d]", sum, h.Sum8())
	}
}

func TestResetClears(t *testing.T) {
	h := crc8.NewATM()
	h.Write([]byte("non-empty"))
	h.Reset()
	if got := h.Sum8(); got != 0 {
		t.Errorf("after Reset, Sum8() = 0x%02X, want 0", got)
	}
}

func TestChecksumDetectsCorruption(t *testing.T) {
	data := []byte("frame header bytes")
	original := crc8.Checksum(data)
	corrupted := append([]byte(nil), data...)
	corrupted[0] ^= 0xFF
	if crc8.Checksum(corrupted) == original {
		t.Errorf("checksum did not change after corrupting a byte")
	}
}
