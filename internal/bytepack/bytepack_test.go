package bytepack

import "testing"

func TestPutUintRoundTrip(t *testing.T) {
	golden := []struct {
		x     uint64
		width int
	}{
		{0, 1},
		{0xFF, 1},
		{0x1234, 2},
		{0xFFFFFF, 3},
		{0xFFFFFFFF, 4},
		{0x0FFFFFFFFF, 5},
		{0xFFFFFFFFFFFFFFFF, 8},
	}
	for _, g := range golden {
		buf := make([]byte, g.width)
		PutUint(buf, g.x, g.width)
		got := Uint(buf, g.width)
		if got != g.x {
			t.Errorf("PutUint/Uint(%d, %d): got %d, want %d", g.x, g.width, got, g.x)
		}
	}
}

func TestPutUintLERoundTrip(t *testing.T) {
	golden := []struct {
		x     uint64
		width int
	}{
		{0, 4},
		{1, 4},
		{0xDEADBEEF, 4},
		{0xFFFFFFFF, 4},
	}
	for _, g := range golden {
		buf := make([]byte, g.width)
		PutUintLE(buf, g.x, g.width)
		got := UintLE(buf, g.width)
		if got != g.x {
			t.Errorf("PutUintLE/UintLE(%d, %d): got %d, want %d", g.x, g.width, got, g.x)
		}
	}
}

func TestUintBigEndianOrder(t *testing.T) {
	buf := []byte{0x12, 0x34, 0x56}
	if got, want := Uint(buf, 3), uint64(0x123456); got != want {
		t.Errorf("Uint: got 0x%x, want 0x%x", got, want)
	}
}

func TestUintLELittleEndianOrder(t *testing.T) {
	buf := []byte{0x12, 0x34, 0x56}
	if got, want := UintLE(buf, 3), uint64(0x563412); got != want {
		t.Errorf("UintLE: got 0x%x, want 0x%x", got, want)
	}
}
