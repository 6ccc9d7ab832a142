package metadata

import (
	"io"
	"os"

	"github.com/nazgoflac/flac/meta"
)

// maxIteratorDepth bounds the offset stack used for nested lookahead
// (§3.3): SetBlock and InsertBlockAfter each peek one block ahead, so a
// small fixed depth is sufficient.
const maxIteratorDepth = 5

// SimpleIterator is a stateful, file-backed cursor over a FLAC-family
// metadata block sequence (§4.5): Next/Prev/GetBlock/SetBlock/
// InsertBlockAfter/DeleteBlock, with in-place padding-aware write
// strategies and a temp-file rewrite fallback for everything else. It owns
// the open file handle, the file path, an optional original
// permission/timestamp snapshot, and a small offset stack for lookahead.
type SimpleIterator struct {
	statusLatch

	path          string
	file          *os.File
	readOnly      bool
	preserveStats bool
	stat          *statSnapshot
	tempDir       string

	firstOffset int64
	offset      int64 // header offset of the block currently under the cursor
	depth       int
	stack       [maxIteratorDepth]int64

	hdr meta.Header // cached header of the block at offset
}

// NewSimpleIterator opens path and positions a SimpleIterator at the first
// metadata block (the mandatory STREAMINFO). It opens the file read-write
// unless readOnly is requested or the open fails, in which case it falls
// back to (or is given) a read-only handle. If preserveStats is set, the
// file's owner, mode and timestamps are captured for restoration on Close
// or after any write that replaces the file.
//
// The second return value reports success; on failure the returned
// iterator's Status method reports why, and it otherwise holds no open
// resources.
func NewSimpleIterator(path string, readOnly, preserveStats bool) (*SimpleIterator, bool) {
	it := &SimpleIterator{path: path}

	if preserveStats {
		snap, err := snapshotStat(path)
		if err != nil {
			it.fail(StatusErrorOpeningFile)
			return it, false
		}
		it.stat = snap
		it.preserveStats = true
	}

	f, actualReadOnly, err := openForIterator(path, readOnly)
	if err != nil {
		it.fail(StatusErrorOpeningFile)
		return it, false
	}
	it.file = f
	it.readOnly = actualReadOnly

	off, err := meta.ProbeSignature(it.file)
	if err != nil {
		it.file.Close()
		it.file = nil
		if err == meta.ErrNotAFlacFile {
			it.fail(StatusNotAFlacFile)
		} else {
			it.fail(StatusReadError)
		}
		return it, false
	}
	it.firstOffset = off

	if !it.reprime(off) {
		it.file.Close()
		it.file = nil
		return it, false
	}
	if it.hdr.Type != meta.TypeStreamInfo {
		it.file.Close()
		it.file = nil
		it.fail(StatusBadMetadata)
		return it, false
	}
	return it, true
}

// openForIterator opens path read-write unless readOnly is requested; it
// falls back to a read-only handle if the read-write open fails (e.g.
// permissions), reporting the handle actually obtained.
func openForIterator(path string, readOnly bool) (f *os.File, actualReadOnly bool, err error) {
	if !readOnly {
		if f, err = os.OpenFile(path, os.O_RDWR, 0); err == nil {
			return f, false, nil
		}
	}
	f, err = os.Open(path)
	if err != nil {
		return nil, false, err
	}
	return f, true, nil
}

// SetTempDir sets an optional directory under which rewrite tempfiles are
// created, instead of the source file's own directory.
func (it *SimpleIterator) SetTempDir(dir string) {
	it.tempDir = dir
}

// Close closes the underlying file handle, restoring the captured
// owner/mode/timestamps first if preserveStats was requested at Init.
func (it *SimpleIterator) Close() bool {
	if it.file == nil {
		return true
	}
	cerr := it.file.Close()
	it.file = nil
	if it.preserveStats {
		if rerr := it.stat.restore(it.path); rerr != nil {
			return it.fail(StatusInternalError)
		}
	}
	if cerr != nil {
		return it.fail(StatusInternalError)
	}
	return true
}

// FirstOffset returns the byte offset of the first metadata block header.
func (it *SimpleIterator) FirstOffset() int64 { return it.firstOffset }

// CurrentOffset returns the byte offset of the block header under the
// cursor.
func (it *SimpleIterator) CurrentOffset() int64 { return it.offset }

// IsLast reports whether the block under the cursor is the last metadata
// block.
func (it *SimpleIterator) IsLast() bool { return it.hdr.IsLast }

// GetBlockType returns the cached type of the block under the cursor
// without touching the file.
func (it *SimpleIterator) GetBlockType() meta.Type { return it.hdr.Type }

// reprime seeks to offset, reads and caches its header, and leaves the
// file positioned just past the header (at the block's payload start).
func (it *SimpleIterator) reprime(offset int64) bool {
	if _, err := it.file.Seek(offset, io.SeekStart); err != nil {
		return it.fail(StatusSeekError)
	}
	hdr, err := meta.ReadHeader(it.file)
	if err != nil {
		return it.fail(StatusReadError)
	}
	it.offset = offset
	it.hdr = hdr
	return true
}

// Next advances the cursor to the following metadata block. It returns
// false without error if the current block is already the last one.
func (it *SimpleIterator) Next() bool {
	if it.hdr.IsLast {
		return false
	}
	next := it.offset + int64(meta.HeaderSize) + int64(it.hdr.Length)
	return it.reprime(next)
}

// Prev rewinds the cursor to the preceding metadata block. It rescans from
// the first block each call (§4.5.2; an Open Question the spec leaves to
// the implementer, since the simple iterator does not retain back
// pointers), so it is O(n) in the number of blocks per step.
func (it *SimpleIterator) Prev() bool {
	if it.offset == it.firstOffset {
		return false
	}
	target := it.offset
	if _, err := it.file.Seek(it.firstOffset, io.SeekStart); err != nil {
		return it.fail(StatusSeekError)
	}
	hdr, err := meta.ReadHeader(it.file)
	if err != nil {
		return it.fail(StatusReadError)
	}
	off := it.firstOffset
	for {
		next := off + int64(meta.HeaderSize) + int64(hdr.Length)
		if next >= target {
			it.offset = off
			it.hdr = hdr
			return true
		}
		if _, err := it.file.Seek(next, io.SeekStart); err != nil {
			return it.fail(StatusSeekError)
		}
		nhdr, err := meta.ReadHeader(it.file)
		if err != nil {
			return it.fail(StatusReadError)
		}
		off, hdr = next, nhdr
	}
}

// GetBlock reads and returns the full block (header and body) under the
// cursor, leaving the file re-positioned at the block's payload start so
// the cursor remains consistent for a subsequent Next/Prev.
func (it *SimpleIterator) GetBlock() (*meta.Block, bool) {
	payloadStart := it.offset + int64(meta.HeaderSize)
	if _, err := it.file.Seek(payloadStart, io.SeekStart); err != nil {
		it.fail(StatusSeekError)
		return nil, false
	}
	body, err := meta.ReadBody(it.file, it.hdr)
	if err != nil {
		it.fail(StatusBadMetadata)
		return nil, false
	}
	if _, err := it.file.Seek(payloadStart, io.SeekStart); err != nil {
		it.fail(StatusSeekError)
		return nil, false
	}
	return &meta.Block{Header: it.hdr, Body: body}, true
}

// peekNext reads the header of the block following the cursor without
// disturbing the cursor's cached state, using the depth/stack pair for
// nested lookahead bookkeeping (§3.3). It returns nil, true if the current
// block is last (there is no next block).
func (it *SimpleIterator) peekNext() (*followingBlock, bool) {
	if it.hdr.IsLast {
		return nil, true
	}
	if it.depth >= maxIteratorDepth {
		it.fail(StatusInternalError)
		return nil, false
	}
	it.stack[it.depth] = it.offset
	it.depth++
	defer func() { it.depth-- }()

	nextOffset := it.offset + int64(meta.HeaderSize) + int64(it.hdr.Length)
	if _, err := it.file.Seek(nextOffset, io.SeekStart); err != nil {
		it.fail(StatusSeekError)
		return nil, false
	}
	hdr, err := meta.ReadHeader(it.file)
	if err != nil {
		it.fail(StatusReadError)
		return nil, false
	}
	if _, err := it.file.Seek(it.offset, io.SeekStart); err != nil {
		it.fail(StatusSeekError)
		return nil, false
	}
	return &followingBlock{isPadding: hdr.Type == meta.TypePadding, bodyLen: hdr.Length, isLast: hdr.IsLast}, true
}

// SetBlock replaces the block under the cursor with block, choosing the
// cheapest write strategy that fits (§4.5.3). Replacing a STREAMINFO with
// a non-STREAMINFO, or vice versa, is rejected.
func (it *SimpleIterator) SetBlock(block *meta.Block, usePadding bool) bool {
	if it.readOnly {
		return it.fail(StatusNotWritable)
	}
	if (it.hdr.Type == meta.TypeStreamInfo) != (block.Header.Type == meta.TypeStreamInfo) {
		return it.fail(StatusIllegalInput)
	}
	newBodyLen, err := block.DataLength()
	if err != nil {
		return it.fail(StatusIllegalInput)
	}

	next, ok := it.peekNext()
	if !ok {
		return false
	}

	existingOccupied := meta.HeaderSize + it.hdr.Length
	p := decideSetBlock(existingOccupied, newBodyLen, usePadding, it.hdr.IsLast, next)
	switch p.kind {
	case writeStationary:
		return it.writeStationary(block)
	case writeStationaryWithPadding:
		if p.consumeNextPadding {
			return it.writeWithTrailingPadding(block, p.nextPaddingRemainingBody, p.nextPaddingIsLast)
		}
		return it.writeWithTrailingPadding(block, p.trailingPaddingBodyLen, it.hdr.IsLast)
	default:
		return it.rewriteReplace(block)
	}
}

// writeStationary rewrites block in the exact footprint of the current
// block: same header offset, same serialized size, is_last unchanged.
func (it *SimpleIterator) writeStationary(block *meta.Block) bool {
	hdr := block.Header
	hdr.IsLast = it.hdr.IsLast
	if _, err := it.file.Seek(it.offset, io.SeekStart); err != nil {
		return it.fail(StatusSeekError)
	}
	if err := meta.WriteBlock(it.file, &meta.Block{Header: hdr, Body: block.Body}); err != nil {
		return it.fail(StatusWriteError)
	}
	return it.reprime(it.offset)
}

// writeWithTrailingPadding writes block (never last) immediately followed
// by a PADDING block of paddingBodyLen bytes carrying paddingIsLast. It
// covers both stationary-with-padding cases of §4.5.3: shrinking the
// current block into trailing padding, and growing into a following
// PADDING block (paddingBodyLen may be 0, leaving a bare header).
func (it *SimpleIterator) writeWithTrailingPadding(block *meta.Block, paddingBodyLen int, paddingIsLast bool) bool {
	hdr := block.Header
	hdr.IsLast = false
	if _, err := it.file.Seek(it.offset, io.SeekStart); err != nil {
		return it.fail(StatusSeekError)
	}
	if err := meta.WriteBlock(it.file, &meta.Block{Header: hdr, Body: block.Body}); err != nil {
		return it.fail(StatusWriteError)
	}
	padHdr := meta.Header{IsLast: paddingIsLast, Type: meta.TypePadding}
	if err := meta.WriteBlock(it.file, &meta.Block{Header: padHdr, Body: meta.NewPadding(paddingBodyLen)}); err != nil {
		return it.fail(StatusWriteError)
	}
	return it.reprime(it.offset)
}

// rewriteReplace replaces the current block via the temp-file rewrite
// protocol (§4.5.4): the block's position and is_last bit are unchanged,
// so no fixup poke is needed.
func (it *SimpleIterator) rewriteReplace(block *meta.Block) bool {
	hdr := block.Header
	hdr.IsLast = it.hdr.IsLast
	cutOffset := it.offset
	resumeOffset := it.offset + int64(meta.HeaderSize) + int64(it.hdr.Length)
	return it.rewrite(cutOffset, &hdr, block.Body, resumeOffset, 0, false, it.offset)
}

// InsertBlockAfter inserts block immediately after the cursor, preferring
// to overwrite a sufficiently large following PADDING block and falling
// back to the temp-file rewrite protocol in append mode. Inserting a
// STREAMINFO is rejected (§4.6.3 applies symmetrically here: only one
// STREAMINFO may ever exist, and it must be first).
func (it *SimpleIterator) InsertBlockAfter(block *meta.Block, usePadding bool) bool {
	if it.readOnly {
		return it.fail(StatusNotWritable)
	}
	if block.Header.Type == meta.TypeStreamInfo {
		return it.fail(StatusIllegalInput)
	}
	newBodyLen, err := block.DataLength()
	if err != nil {
		return it.fail(StatusIllegalInput)
	}

	next, ok := it.peekNext()
	if !ok {
		return false
	}

	p := decideInsertAfter(newBodyLen, usePadding, next)
	if p.kind == writeStationaryWithPadding {
		return it.insertIntoNextPadding(block, p)
	}
	return it.rewriteInsertAfter(block)
}

// insertIntoNextPadding overwrites the start of the following PADDING
// block with the new block, preserving any remainder as a (possibly
// empty) trailing padding block.
func (it *SimpleIterator) insertIntoNextPadding(block *meta.Block, p insertPlan) bool {
	nextOffset := it.offset + int64(meta.HeaderSize) + int64(it.hdr.Length)
	if _, err := it.file.Seek(nextOffset, io.SeekStart); err != nil {
		return it.fail(StatusSeekError)
	}
	hdr := block.Header
	if !p.hasRemainingPadding {
		hdr.IsLast = p.newBlockIsLast
		if err := meta.WriteBlock(it.file, &meta.Block{Header: hdr, Body: block.Body}); err != nil {
			return it.fail(StatusWriteError)
		}
		return it.reprime(nextOffset)
	}
	hdr.IsLast = false
	if err := meta.WriteBlock(it.file, &meta.Block{Header: hdr, Body: block.Body}); err != nil {
		return it.fail(StatusWriteError)
	}
	padHdr := meta.Header{IsLast: p.remainingPaddingIsLast, Type: meta.TypePadding}
	if err := meta.WriteBlock(it.file, &meta.Block{Header: padHdr, Body: meta.NewPadding(p.remainingPaddingBodyLen)}); err != nil {
		return it.fail(StatusWriteError)
	}
	return it.reprime(nextOffset)
}

// rewriteInsertAfter appends block via the temp-file rewrite protocol: the
// prefix includes the current block in full, the new block follows, then
// the suffix resumes at the same cut point (§4.5.4). If the current block
// was last, its is_last bit (already copied into the prefix verbatim) is
// flipped off in the tempfile, since the new block now terminates the
// sequence.
func (it *SimpleIterator) rewriteInsertAfter(block *meta.Block) bool {
	cutOffset := it.offset + int64(meta.HeaderSize) + int64(it.hdr.Length)
	hdr := block.Header
	hdr.IsLast = it.hdr.IsLast
	hasFixup := it.hdr.IsLast
	return it.rewrite(cutOffset, &hdr, block.Body, cutOffset, it.offset, hasFixup, cutOffset)
}

// DeleteBlock removes the block under the cursor. STREAMINFO may never be
// deleted. With usePadding, the block is turned into a same-sized PADDING
// block in place (a stationary write); otherwise the temp-file rewrite
// protocol removes it outright, fixing up the new terminal block's
// is_last bit if the deleted block was last.
func (it *SimpleIterator) DeleteBlock(usePadding bool) bool {
	if it.readOnly {
		return it.fail(StatusNotWritable)
	}
	if it.hdr.Type == meta.TypeStreamInfo {
		return it.fail(StatusIllegalInput)
	}
	if usePadding {
		pad := &meta.Block{Header: meta.Header{Type: meta.TypePadding}, Body: meta.NewPadding(it.hdr.Length)}
		return it.writeStationary(pad)
	}
	return it.rewriteDelete()
}

func (it *SimpleIterator) rewriteDelete() bool {
	cutOffset := it.offset
	resumeOffset := it.offset + int64(meta.HeaderSize) + int64(it.hdr.Length)
	hasFixup := it.hdr.IsLast
	fixupOffset := int64(0)
	repositionOffset := it.offset
	if hasFixup {
		prevOffset, ok := it.findPrevOffset()
		if !ok {
			return false
		}
		fixupOffset = prevOffset
		repositionOffset = prevOffset
	}
	return it.rewrite(cutOffset, nil, nil, resumeOffset, fixupOffset, hasFixup, repositionOffset)
}

// findPrevOffset locates the header offset of the block immediately
// preceding the cursor, by rescanning from the first block (the same
// strategy Prev uses).
func (it *SimpleIterator) findPrevOffset() (int64, bool) {
	if it.offset == it.firstOffset {
		it.fail(StatusInternalError)
		return 0, false
	}
	if _, err := it.file.Seek(it.firstOffset, io.SeekStart); err != nil {
		it.fail(StatusSeekError)
		return 0, false
	}
	hdr, err := meta.ReadHeader(it.file)
	if err != nil {
		it.fail(StatusReadError)
		return 0, false
	}
	off := it.firstOffset
	for {
		next := off + int64(meta.HeaderSize) + int64(hdr.Length)
		if next == it.offset {
			return off, true
		}
		if _, err := it.file.Seek(next, io.SeekStart); err != nil {
			it.fail(StatusSeekError)
			return 0, false
		}
		nhdr, err := meta.ReadHeader(it.file)
		if err != nil {
			it.fail(StatusReadError)
			return 0, false
		}
		off, hdr = next, nhdr
	}
}

// rewrite materializes a full-file rewrite (§4.5.4): it copies the file
// prefix up to cutOffset into a tempfile, emits newBody under newHdr (if
// newHdr is non-nil; nil means delete-without-replacement), copies the
// remaining source bytes from resumeOffset, optionally flips the is_last
// bit at fixupOffset in the tempfile, commits the tempfile over the
// source, restores stats, and reprimes the cursor at repositionOffset.
func (it *SimpleIterator) rewrite(cutOffset int64, newHdr *meta.Header, newBody interface{}, resumeOffset, fixupOffset int64, hasFixup bool, repositionOffset int64) bool {
	scratch, err := newScratchFile(it.path, it.tempDir)
	if err != nil {
		return it.fail(StatusErrorOpeningFile)
	}
	defer scratch.abort()

	if _, err := it.file.Seek(0, io.SeekStart); err != nil {
		return it.fail(StatusSeekError)
	}
	if _, err := io.CopyN(scratch.f, it.file, cutOffset); err != nil {
		return it.fail(StatusReadError)
	}

	if newHdr != nil {
		if err := meta.WriteBlock(scratch.f, &meta.Block{Header: *newHdr, Body: newBody}); err != nil {
			return it.fail(StatusWriteError)
		}
	}

	if _, err := it.file.Seek(resumeOffset, io.SeekStart); err != nil {
		return it.fail(StatusSeekError)
	}
	if _, err := io.Copy(scratch.f, it.file); err != nil {
		return it.fail(StatusReadError)
	}

	if hasFixup {
		if err := flipIsLastBit(scratch.f, fixupOffset); err != nil {
			return it.fail(StatusWriteError)
		}
	}

	if err := it.file.Close(); err != nil {
		it.file = nil
		return it.fail(StatusWriteError)
	}
	it.file = nil
	if err := scratch.commit(it.path); err != nil {
		return it.fail(StatusRenameError)
	}
	if it.preserveStats {
		_ = it.stat.restore(it.path)
	}

	f, _, err := openForIterator(it.path, it.readOnly)
	if err != nil {
		return it.fail(StatusErrorOpeningFile)
	}
	it.file = f
	return it.reprime(repositionOffset)
}

// flipIsLastBit toggles the is_last high bit of the header byte at offset
// in f.
func flipIsLastBit(f *os.File, offset int64) error {
	buf := make([]byte, 1)
	if _, err := f.ReadAt(buf, offset); err != nil {
		return err
	}
	buf[0] ^= 0x80
	_, err := f.WriteAt(buf, offset)
	return err
}
