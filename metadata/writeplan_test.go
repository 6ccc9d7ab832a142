package metadata

import (
	"testing"

	"github.com/nazgoflac/flac/meta"
)

func TestDecideSetBlockSameSize(t *testing.T) {
	existing := meta.HeaderSize + 10
	p := decideSetBlock(existing, 10, true, false, nil)
	if p.kind != writeStationary {
		t.Fatalf("got kind %v, want writeStationary", p.kind)
	}
}

func TestDecideSetBlockShrinkWithPadding(t *testing.T) {
	existing := meta.HeaderSize + 20
	p := decideSetBlock(existing, 10, true, false, nil)
	if p.kind != writeStationaryWithPadding {
		t.Fatalf("got kind %v, want writeStationaryWithPadding", p.kind)
	}
	wantPad := 20 - 10 - meta.HeaderSize
	if p.trailingPaddingBodyLen != wantPad {
		t.Fatalf("got trailing padding body len %d, want %d", p.trailingPaddingBodyLen, wantPad)
	}
}

func TestDecideSetBlockShrinkSurplusTooSmall(t *testing.T) {
	// Surplus of meta.HeaderSize-1 bytes can't host a fresh padding header.
	existing := meta.HeaderSize + 10 + (meta.HeaderSize - 1)
	p := decideSetBlock(existing, 10, true, false, nil)
	if p.kind != writeRewrite {
		t.Fatalf("got kind %v, want writeRewrite", p.kind)
	}
}

func TestDecideSetBlockShrinkNoPaddingRequested(t *testing.T) {
	existing := meta.HeaderSize + 20
	p := decideSetBlock(existing, 10, false, false, nil)
	if p.kind != writeRewrite {
		t.Fatalf("got kind %v, want writeRewrite", p.kind)
	}
}

func TestDecideSetBlockGrowIntoFollowingPadding(t *testing.T) {
	existing := meta.HeaderSize + 10
	next := &followingBlock{isPadding: true, bodyLen: 50}
	p := decideSetBlock(existing, 30, true, false, next)
	if p.kind != writeStationaryWithPadding {
		t.Fatalf("got kind %v, want writeStationaryWithPadding", p.kind)
	}
	if !p.consumeNextPadding {
		t.Fatalf("expected consumeNextPadding")
	}
	deficit := (meta.HeaderSize + 30) - existing
	if p.nextPaddingRemainingBody != 50-deficit {
		t.Fatalf("got remaining padding %d, want %d", p.nextPaddingRemainingBody, 50-deficit)
	}
}

func TestDecideSetBlockGrowFollowingPaddingTooSmall(t *testing.T) {
	existing := meta.HeaderSize + 10
	next := &followingBlock{isPadding: true, bodyLen: 5}
	p := decideSetBlock(existing, 30, true, false, next)
	if p.kind != writeRewrite {
		t.Fatalf("got kind %v, want writeRewrite", p.kind)
	}
}

func TestDecideSetBlockGrowCurrentIsLast(t *testing.T) {
	// A following block can't be consumed if the current block is last.
	existing := meta.HeaderSize + 10
	next := &followingBlock{isPadding: true, bodyLen: 50}
	p := decideSetBlock(existing, 30, true, true, next)
	if p.kind != writeRewrite {
		t.Fatalf("got kind %v, want writeRewrite", p.kind)
	}
}

func TestDecideSetBlockGrowFollowingNotPadding(t *testing.T) {
	existing := meta.HeaderSize + 10
	next := &followingBlock{isPadding: false, bodyLen: 50}
	p := decideSetBlock(existing, 30, true, false, next)
	if p.kind != writeRewrite {
		t.Fatalf("got kind %v, want writeRewrite", p.kind)
	}
}

func TestDecideInsertAfterExactFit(t *testing.T) {
	next := &followingBlock{isPadding: true, bodyLen: 20, isLast: true}
	p := decideInsertAfter(20, true, next)
	if p.kind != writeStationaryWithPadding {
		t.Fatalf("got kind %v, want writeStationaryWithPadding", p.kind)
	}
	if p.hasRemainingPadding {
		t.Fatalf("expected no remaining padding on exact fit")
	}
	if !p.newBlockIsLast {
		t.Fatalf("expected the inserted block to inherit is_last from the consumed padding")
	}
}

func TestDecideInsertAfterWithRemainder(t *testing.T) {
	next := &followingBlock{isPadding: true, bodyLen: 40, isLast: false}
	p := decideInsertAfter(10, true, next)
	if p.kind != writeStationaryWithPadding {
		t.Fatalf("got kind %v, want writeStationaryWithPadding", p.kind)
	}
	if !p.hasRemainingPadding {
		t.Fatalf("expected a remaining padding block")
	}
	nextOccupied := meta.HeaderSize + 40
	newOccupied := meta.HeaderSize + 10
	want := nextOccupied - newOccupied - meta.HeaderSize
	if p.remainingPaddingBodyLen != want {
		t.Fatalf("got remaining padding body len %d, want %d", p.remainingPaddingBodyLen, want)
	}
}

func TestDecideInsertAfterRemainderTooSmall(t *testing.T) {
	// Remainder after the header would be meta.HeaderSize-1, too small for
	// its own header: falls back to a full rewrite.
	next := &followingBlock{isPadding: true, bodyLen: 10 + (meta.HeaderSize - 1)}
	p := decideInsertAfter(10, true, next)
	if p.kind != writeRewrite {
		t.Fatalf("got kind %v, want writeRewrite", p.kind)
	}
}

func TestDecideInsertAfterNoFollowingPadding(t *testing.T) {
	p := decideInsertAfter(10, true, nil)
	if p.kind != writeRewrite {
		t.Fatalf("got kind %v, want writeRewrite", p.kind)
	}
}

func TestDecideInsertAfterPaddingNotRequested(t *testing.T) {
	next := &followingBlock{isPadding: true, bodyLen: 10}
	p := decideInsertAfter(10, false, next)
	if p.kind != writeRewrite {
		t.Fatalf("got kind %v, want writeRewrite", p.kind)
	}
}
