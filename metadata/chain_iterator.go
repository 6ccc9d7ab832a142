package metadata

import (
	"container/list"

	"github.com/nazgoflac/flac/meta"
)

// ChainIterator is a cursor over a Chain's in-memory block list (§4.6.2),
// mirroring the Simple Iterator's Next/Prev/GetBlock/SetBlock surface but
// operating on list.Elements instead of file offsets: every mutation is
// O(1) pointer surgery against container/list, deferred to disk only on
// the next Chain.Write.
type ChainIterator struct {
	chain *Chain
	elem  *list.Element
}

// Iterator returns a new cursor positioned at the first block (the
// mandatory STREAMINFO). It returns nil if the chain holds no blocks yet
// (an empty chain that has not been Read or otherwise populated).
func (c *Chain) Iterator() *ChainIterator {
	front := c.blocks.Front()
	if front == nil {
		return nil
	}
	return &ChainIterator{chain: c, elem: front}
}

// Next advances the cursor to the following block, returning false
// without moving if already at the last block.
func (ci *ChainIterator) Next() bool {
	if n := ci.elem.Next(); n != nil {
		ci.elem = n
		return true
	}
	return false
}

// Prev rewinds the cursor to the preceding block, returning false without
// moving if already at the first block.
func (ci *ChainIterator) Prev() bool {
	if p := ci.elem.Prev(); p != nil {
		ci.elem = p
		return true
	}
	return false
}

// GetBlockType returns the type of the block under the cursor.
func (ci *ChainIterator) GetBlockType() meta.Type {
	return ci.elem.Value.(*meta.Block).Header.Type
}

// GetBlock returns the block under the cursor. The returned *meta.Block is
// the chain's own live value; mutate a copy (via Clone) if the original
// must be preserved.
func (ci *ChainIterator) GetBlock() *meta.Block {
	return ci.elem.Value.(*meta.Block)
}

// SetBlock replaces the block under the cursor with block. Swapping
// STREAMINFO for a non-STREAMINFO block, or vice versa, is rejected:
// exactly one STREAMINFO must exist and it must remain first (§4.6.3).
func (ci *ChainIterator) SetBlock(block *meta.Block) bool {
	cur := ci.elem.Value.(*meta.Block)
	if (cur.Header.Type == meta.TypeStreamInfo) != (block.Header.Type == meta.TypeStreamInfo) {
		return ci.chain.fail(StatusIllegalInput)
	}
	ci.elem.Value = block
	return true
}

// InsertBlockBefore inserts block immediately before the cursor, leaving
// the cursor on the same block it pointed to before the call. Inserting a
// STREAMINFO is rejected; inserting before the current STREAMINFO would
// also displace it from first position and is likewise rejected.
func (ci *ChainIterator) InsertBlockBefore(block *meta.Block) bool {
	if block.Header.Type == meta.TypeStreamInfo {
		return ci.chain.fail(StatusIllegalInput)
	}
	if ci.elem.Value.(*meta.Block).Header.Type == meta.TypeStreamInfo {
		return ci.chain.fail(StatusIllegalInput)
	}
	ci.chain.blocks.InsertBefore(block, ci.elem)
	return true
}

// InsertBlockAfter inserts block immediately after the cursor and
// repositions the cursor onto the newly inserted block. Inserting a
// STREAMINFO is rejected (one STREAMINFO only, and it must stay first).
func (ci *ChainIterator) InsertBlockAfter(block *meta.Block) bool {
	if block.Header.Type == meta.TypeStreamInfo {
		return ci.chain.fail(StatusIllegalInput)
	}
	ci.elem = ci.chain.blocks.InsertAfter(block, ci.elem)
	return true
}

// DeleteBlock removes the block under the cursor and repositions the
// cursor onto the following block, or the preceding block if the deleted
// block was last, or leaves the cursor detached if it was the only block.
// Deleting STREAMINFO is rejected.
func (ci *ChainIterator) DeleteBlock() bool {
	cur := ci.elem
	if cur.Value.(*meta.Block).Header.Type == meta.TypeStreamInfo {
		return ci.chain.fail(StatusIllegalInput)
	}
	next, prev := cur.Next(), cur.Prev()
	ci.chain.blocks.Remove(cur)
	switch {
	case next != nil:
		ci.elem = next
	case prev != nil:
		ci.elem = prev
	default:
		ci.elem = nil
	}
	return true
}
