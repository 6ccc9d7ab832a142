package metadata

import "github.com/nazgoflac/flac/meta"

// This file holds the §4.5.3 write-strategy decision tree as pure
// functions of block sizes: no file handle, no I/O. They are the
// unit-testable core Design Notes §9 calls for; simple_iterator.go's
// effectors execute whatever plan these return.

// writeKind tags the strategy chosen for a mutation.
type writeKind int

const (
	// writeStationary rewrites the block in its own footprint; the file's
	// total length and every other block's position is unchanged.
	writeStationary writeKind = iota
	// writeStationaryWithPadding rewrites the block together with an
	// adjoining PADDING block (either a freshly emitted trailing padding
	// absorbing freed surplus, or the following PADDING block absorbing a
	// deficit), keeping the file's total length unchanged.
	writeStationaryWithPadding
	// writeRewrite falls back to the temp-file rewrite protocol (§4.5.4).
	writeRewrite
)

// followingBlock is the minimal shape of the block immediately following
// the one being mutated, as needed by the decision functions.
type followingBlock struct {
	isPadding bool
	bodyLen   int
	isLast    bool
}

// setPlan is the result of deciding how to carry out SimpleIterator.SetBlock.
type setPlan struct {
	kind writeKind

	// Valid when kind == writeStationaryWithPadding:
	//
	// trailingPaddingBodyLen/trailingPaddingIsLast describe a freshly
	// emitted PADDING block following the rewritten block, sized from
	// surplus bytes freed by a smaller replacement (no interaction with an
	// existing following block).
	//
	// consumeNextPadding selects the alternate case: growing into an
	// existing following PADDING block. nextPaddingRemainingBody is that
	// padding's new body length (0 is legal: a bare header remains) and
	// nextPaddingIsLast is the is_last bit it keeps (inherited from the
	// padding block it is replacing).
	trailingPaddingBodyLen int
	trailingPaddingIsLast  bool

	consumeNextPadding       bool
	nextPaddingRemainingBody int
	nextPaddingIsLast        bool
}

// decideSetBlock implements the §4.5.3 set_block decision tree: given the
// existing block's occupied footprint (header+body) and the replacement
// body's serialized length, choose a write strategy.
func decideSetBlock(existingOccupied, newBodyLen int, usePadding, currentIsLast bool, next *followingBlock) setPlan {
	newOccupied := meta.HeaderSize + newBodyLen
	switch {
	case newOccupied == existingOccupied:
		return setPlan{kind: writeStationary}

	case newOccupied < existingOccupied:
		surplus := existingOccupied - newOccupied
		if usePadding && surplus >= meta.HeaderSize {
			return setPlan{
				kind:                   writeStationaryWithPadding,
				trailingPaddingBodyLen: surplus - meta.HeaderSize,
			}
		}
		return setPlan{kind: writeRewrite}

	default: // newOccupied > existingOccupied
		deficit := newOccupied - existingOccupied
		if usePadding && !currentIsLast && next != nil && next.isPadding && next.bodyLen >= deficit {
			return setPlan{
				kind:                     writeStationaryWithPadding,
				consumeNextPadding:       true,
				nextPaddingRemainingBody: next.bodyLen - deficit,
				nextPaddingIsLast:        next.isLast,
			}
		}
		return setPlan{kind: writeRewrite}
	}
}

// insertPlan is the result of deciding how to carry out
// SimpleIterator.InsertBlockAfter.
type insertPlan struct {
	kind writeKind

	// Valid when kind == writeStationaryWithPadding: the new block
	// overwrites the start of the following PADDING block.
	newBlockIsLast          bool
	hasRemainingPadding      bool
	remainingPaddingBodyLen int
	remainingPaddingIsLast  bool
}

// decideInsertAfter implements the §4.5.3 insert_block_after decision
// tree. next is nil when the current block is last (nothing follows) or
// when the caller chooses not to consider it.
func decideInsertAfter(newBodyLen int, usePadding bool, next *followingBlock) insertPlan {
	if usePadding && next != nil && next.isPadding {
		newOccupied := meta.HeaderSize + newBodyLen
		nextOccupied := meta.HeaderSize + next.bodyLen
		switch {
		case nextOccupied == newOccupied:
			return insertPlan{kind: writeStationaryWithPadding, newBlockIsLast: next.isLast}
		case nextOccupied > newOccupied && nextOccupied-newOccupied >= meta.HeaderSize:
			return insertPlan{
				kind:                     writeStationaryWithPadding,
				hasRemainingPadding:      true,
				remainingPaddingBodyLen:  nextOccupied - newOccupied - meta.HeaderSize,
				remainingPaddingIsLast:   next.isLast,
			}
		}
	}
	return insertPlan{kind: writeRewrite}
}
