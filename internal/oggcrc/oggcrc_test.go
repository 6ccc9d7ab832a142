package oggcrc_test

import (
	"testing"

	"github.com/nazgoflac/flac/internal/oggcrc"
)

func TestChecksumEmpty(t *testing.T) {
	if got := oggcrc.Checksum(nil); got != 0 {
		t.Errorf("Checksum(nil) = 0x%08X, want 0", got)
	}
}

func TestUpdateMatchesChecksum(t *testing.T) {
	data := []byte("OggS\x00\x02\x00\x00\x00\x00\x00\x00\x00\x00")
	full := oggcrc.Checksum(data)
	partial := oggcrc.Update(oggcrc.Checksum(data[:5]), data[5:])
	if full != partial {
		t.Errorf("incremental checksum diverged: full=0x%08X, partial=0x%08X", full, partial)
	}
}

func TestChecksumDetectsCorruption(t *testing.T) {
	data := []byte("some ogg page bytes, zeroed crc field")
	original := oggcrc.Checksum(data)
	corrupted := append([]byte(nil), data...)
	corrupted[0] ^= 0xFF
	if oggcrc.Checksum(corrupted) == original {
		t.Errorf("checksum did not change after corrupting a byte")
	}
}
