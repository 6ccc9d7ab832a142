package crc16_test

import (
	"testing"

	"github.com/nazgoflac/flac/internal/hashutil/crc16"
)

// Check value for the CRC-16/BUYPASS parameterization (poly 0x8005, init 0,
// no reflection, no xorout), which is the variant this package computes.
func TestChecksumCatalogCheckValue(t *testing.T) {
	const want = 0xFEE8
	if got := crc16.Checksum([]byte("123456789")); got != want {
		t.Errorf("Checksum(\"123456789\") = 0x%04X, want 0x%04X", got, want)
	}
}

func TestChecksumEmpty(t *testing.T) {
	if got := crc16.Checksum(nil); got != 0 {
		t.Errorf("Checksum(nil) = 0x%04X, want 0", got)
	}
}

func TestHashMatchesChecksum(t *testing.T) {
	data := []byte("a FLAC frame footer")
	h := crc16.NewIBM()
	h.Write(data)
	sum := h.Sum(nil)
	want := crc16.Checksum(data)
	if len(sum) != 2 || uint16(sum[0])<<8|uint16(sum[1]) != want {
		t.Errorf("Sum(nil) = %v, want big-endian 0x%04X", sum, want)
	}
}

func TestResetClears(t *testing.T) {
	h := crc16.NewIBM()
	h.Write([]byte("non-empty"))
	h.Reset()
	sum := h.Sum(nil)
	if sum[0] != 0 || sum[1] != 0 {
		t.Errorf("after Reset, Sum(nil) = %v, want [0 0]", sum)
	}
}

func TestChecksumDetectsCorruption(t *testing.T) {
	data := []byte("frame footer bytes")
	original := crc16.Checksum(data)
	corrupted := append([]byte(nil), data...)
	corrupted[0] ^= 0xFF
	if crc16.Checksum(corrupted) == original {
		t.Errorf("checksum did not change after corrupting a byte")
	}
}
