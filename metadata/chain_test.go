package metadata_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/nazgoflac/flac/meta"
	"github.com/nazgoflac/flac/metadata"
)

func TestChainReadBlocks(t *testing.T) {
	path := writeFixture(t, []*meta.Block{
		streamInfoBlock(),
		paddingBlock(50),
		vorbisCommentBlock("v", [2]string{"ARTIST", "a"}),
	}, []byte("AUDIO"))

	c := metadata.NewChain()
	if !c.Read(path, false) {
		t.Fatalf("Read: %v", c.Status())
	}

	blocks := c.Blocks()
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(blocks))
	}
	wantTypes := []meta.Type{meta.TypeStreamInfo, meta.TypePadding, meta.TypeVorbisComment}
	for i, want := range wantTypes {
		if blocks[i].Header.Type != want {
			t.Errorf("block %d: got type %v, want %v", i, blocks[i].Header.Type, want)
		}
	}
}

func TestChainWriteInPlaceSameLength(t *testing.T) {
	path := writeFixture(t, []*meta.Block{streamInfoBlock(), paddingBlock(30)}, []byte("AUDIO"))

	c := metadata.NewChain()
	if !c.Read(path, false) {
		t.Fatalf("Read: %v", c.Status())
	}

	it := c.Iterator()
	it.Next()
	if !it.SetBlock(paddingBlock(30)) {
		t.Fatalf("SetBlock: %v", c.Status())
	}

	if !c.Write(true) {
		t.Fatalf("Write: %v", c.Status())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.HasSuffix(data, []byte("AUDIO")) {
		t.Fatalf("in-place write must not move the trailing audio bytes")
	}
}

func TestChainWriteFullOnLengthChange(t *testing.T) {
	path := writeFixture(t, []*meta.Block{streamInfoBlock(), paddingBlock(4)}, []byte("AUDIO"))

	c := metadata.NewChain()
	if !c.Read(path, false) {
		t.Fatalf("Read: %v", c.Status())
	}

	it := c.Iterator()
	it.Next()
	if !it.SetBlock(vorbisCommentBlock("a rather longer vendor string", [2]string{"TITLE", "song"})) {
		t.Fatalf("SetBlock: %v", c.Status())
	}

	if !c.Write(true) {
		t.Fatalf("Write: %v", c.Status())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.HasSuffix(data, []byte("AUDIO")) {
		t.Fatalf("full rewrite must preserve the trailing audio bytes")
	}

	c2 := metadata.NewChain()
	if !c2.Read(path, false) {
		t.Fatalf("re-Read: %v", c2.Status())
	}
	blocks := c2.Blocks()
	if len(blocks) != 2 || blocks[1].Header.Type != meta.TypeVorbisComment {
		t.Fatalf("got blocks %+v, want [StreamInfo VorbisComment]", blocks)
	}
}

func TestChainWriteReconcilesTrailingPadding(t *testing.T) {
	path := writeFixture(t, []*meta.Block{streamInfoBlock(), paddingBlock(100)}, []byte("AUDIO"))

	before, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	c := metadata.NewChain()
	if !c.Read(path, false) {
		t.Fatalf("Read: %v", c.Status())
	}

	it := c.Iterator()
	if !it.InsertBlockAfter(vorbisCommentBlock("v", [2]string{"ARTIST", "a"})) {
		t.Fatalf("InsertBlockAfter: %v", c.Status())
	}

	if !c.Write(true) {
		t.Fatalf("Write: %v", c.Status())
	}

	after, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if after.Size() != before.Size() {
		t.Fatalf("got file size %d, want unchanged %d: the insert should have been absorbed by the trailing PADDING block", after.Size(), before.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.HasSuffix(data, []byte("AUDIO")) {
		t.Fatalf("reconciled write must not move the trailing audio bytes")
	}

	c2 := metadata.NewChain()
	if !c2.Read(path, false) {
		t.Fatalf("re-Read: %v", c2.Status())
	}
	blocks := c2.Blocks()
	wantTypes := []meta.Type{meta.TypeStreamInfo, meta.TypeVorbisComment, meta.TypePadding}
	if len(blocks) != len(wantTypes) {
		t.Fatalf("got %d blocks, want %d", len(blocks), len(wantTypes))
	}
	for i, want := range wantTypes {
		if blocks[i].Header.Type != want {
			t.Errorf("block %d: got type %v, want %v", i, blocks[i].Header.Type, want)
		}
	}
}

func TestChainWriteOverflowsPaddingToFullRewrite(t *testing.T) {
	path := writeFixture(t, []*meta.Block{streamInfoBlock(), paddingBlock(4)}, []byte("AUDIO"))

	before, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	c := metadata.NewChain()
	if !c.Read(path, false) {
		t.Fatalf("Read: %v", c.Status())
	}

	it := c.Iterator()
	longVendor := "a rather longer vendor string than four bytes of padding can absorb"
	if !it.InsertBlockAfter(vorbisCommentBlock(longVendor, [2]string{"TITLE", "song"})) {
		t.Fatalf("InsertBlockAfter: %v", c.Status())
	}

	if !c.Write(true) {
		t.Fatalf("Write: %v", c.Status())
	}

	after, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if after.Size() <= before.Size() {
		t.Fatalf("got file size %d, want larger than %d: the overflow should have forced a full rewrite", after.Size(), before.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.HasSuffix(data, []byte("AUDIO")) {
		t.Fatalf("full rewrite must preserve the trailing audio bytes")
	}
}

func TestChainInsertAndDeleteViaIterator(t *testing.T) {
	path := writeFixture(t, []*meta.Block{streamInfoBlock()}, []byte("AUDIO"))

	c := metadata.NewChain()
	if !c.Read(path, false) {
		t.Fatalf("Read: %v", c.Status())
	}

	it := c.Iterator()
	if !it.InsertBlockAfter(paddingBlock(10)) {
		t.Fatalf("InsertBlockAfter: %v", c.Status())
	}
	if it.GetBlockType() != meta.TypePadding {
		t.Fatalf("cursor should land on the newly inserted block")
	}
	if !it.InsertBlockBefore(vorbisCommentBlock("v", [2]string{"ARTIST", "a"})) {
		t.Fatalf("InsertBlockBefore: %v", c.Status())
	}

	blocks := c.Blocks()
	wantTypes := []meta.Type{meta.TypeStreamInfo, meta.TypeVorbisComment, meta.TypePadding}
	if len(blocks) != len(wantTypes) {
		t.Fatalf("got %d blocks, want %d", len(blocks), len(wantTypes))
	}
	for i, want := range wantTypes {
		if blocks[i].Header.Type != want {
			t.Errorf("block %d: got type %v, want %v", i, blocks[i].Header.Type, want)
		}
	}

	if !it.DeleteBlock() {
		t.Fatalf("DeleteBlock: %v", c.Status())
	}
	blocks = c.Blocks()
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks after delete, want 2", len(blocks))
	}
}

func TestChainRejectsStreamInfoMutations(t *testing.T) {
	path := writeFixture(t, []*meta.Block{streamInfoBlock(), paddingBlock(10)}, nil)

	c := metadata.NewChain()
	if !c.Read(path, false) {
		t.Fatalf("Read: %v", c.Status())
	}
	it := c.Iterator()

	if it.DeleteBlock() {
		t.Fatalf("deleting STREAMINFO must fail")
	}
	if c.Status() != metadata.StatusIllegalInput {
		t.Fatalf("got status %v, want StatusIllegalInput", c.Status())
	}
	if it.InsertBlockBefore(paddingBlock(5)) {
		t.Fatalf("inserting before STREAMINFO must fail")
	}
	if c.Status() != metadata.StatusIllegalInput {
		t.Fatalf("got status %v, want StatusIllegalInput", c.Status())
	}
}

func TestChainMergePadding(t *testing.T) {
	c := metadata.NewChain()
	path := writeFixture(t, []*meta.Block{
		streamInfoBlock(),
		paddingBlock(10),
		paddingBlock(20),
		vorbisCommentBlock("v"),
		paddingBlock(5),
	}, nil)
	if !c.Read(path, false) {
		t.Fatalf("Read: %v", c.Status())
	}

	c.MergePadding()
	blocks := c.Blocks()
	// The two adjacent padding blocks merge into one; the trailing lone
	// padding block (separated by the VorbisComment) is left as its own run.
	if len(blocks) != 4 {
		t.Fatalf("got %d blocks, want 4", len(blocks))
	}
	merged, ok := blocks[1].Body.(*meta.Padding)
	if !ok {
		t.Fatalf("got body type %T, want *meta.Padding", blocks[1].Body)
	}
	want := 10 + meta.HeaderSize + 20
	if merged.Length != want {
		t.Fatalf("got merged padding length %d, want %d", merged.Length, want)
	}
	if blocks[2].Header.Type != meta.TypeVorbisComment {
		t.Fatalf("got block 2 type %v, want VorbisComment", blocks[2].Header.Type)
	}
	if blocks[3].Header.Type != meta.TypePadding {
		t.Fatalf("got block 3 type %v, want Padding", blocks[3].Header.Type)
	}
}

func TestChainSortPadding(t *testing.T) {
	c := metadata.NewChain()
	path := writeFixture(t, []*meta.Block{
		streamInfoBlock(),
		paddingBlock(10),
		vorbisCommentBlock("v"),
		paddingBlock(5),
		vorbisCommentBlock("w"),
	}, nil)
	if !c.Read(path, false) {
		t.Fatalf("Read: %v", c.Status())
	}

	c.SortPadding()
	blocks := c.Blocks()
	wantTypes := []meta.Type{
		meta.TypeStreamInfo, meta.TypeVorbisComment, meta.TypeVorbisComment,
		meta.TypePadding, meta.TypePadding,
	}
	if len(blocks) != len(wantTypes) {
		t.Fatalf("got %d blocks, want %d", len(blocks), len(wantTypes))
	}
	for i, want := range wantTypes {
		if blocks[i].Header.Type != want {
			t.Errorf("block %d: got type %v, want %v", i, blocks[i].Header.Type, want)
		}
	}
}
