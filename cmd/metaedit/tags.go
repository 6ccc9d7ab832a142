package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/nazgoflac/flac/meta"
	"github.com/nazgoflac/flac/metadata"
)

// findVorbisComment positions it on the stream's VORBIS_COMMENT block and
// returns its body.
func findVorbisComment(it *metadata.ChainIterator) (*meta.VorbisComment, bool) {
	if !findBlock(it, meta.TypeVorbisComment) {
		return nil, false
	}
	vc, ok := it.GetBlock().Body.(*meta.VorbisComment)
	return vc, ok
}

func runAddTag(args []string) error {
	fs := flag.NewFlagSet("add-tag", flag.ExitOnError)
	tag := fs.String("tag", "", "Tag to add, in FIELD=VALUE form.")
	fs.Parse(args)
	if fs.NArg() != 1 || *tag == "" {
		return fmt.Errorf("usage: metaedit add-tag -tag FIELD=VALUE FILE")
	}
	parts := strings.SplitN(*tag, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("metaedit: tag %q is not in FIELD=VALUE form", *tag)
	}
	field, value := parts[0], parts[1]
	path := fs.Arg(0)

	c := metadata.NewChain()
	if !c.Read(path, true) {
		return fmt.Errorf("metaedit: reading %q: %v", path, c.Status())
	}

	it := c.Iterator()
	if vc, ok := findVorbisComment(it); ok {
		// GetBlock returns the chain's live value, so mutating vc in place
		// is enough; no SetBlock round trip needed.
		if err := vc.InsertTag(len(vc.Tags), [2]string{field, value}); err != nil {
			return err
		}
	} else {
		vc := meta.NewVorbisComment("metaedit")
		if err := vc.InsertTag(0, [2]string{field, value}); err != nil {
			return err
		}
		block := &meta.Block{Header: meta.Header{Type: meta.TypeVorbisComment}, Body: vc}
		// STREAMINFO is always block 0; insert the new block right after it.
		it = c.Iterator()
		if !it.InsertBlockAfter(block) {
			return fmt.Errorf("metaedit: inserting VORBIS_COMMENT: %v", c.Status())
		}
	}

	if !c.Write(true) {
		return fmt.Errorf("metaedit: writing %q: %v", path, c.Status())
	}
	return nil
}

func runRemoveTag(args []string) error {
	fs := flag.NewFlagSet("remove-tag", flag.ExitOnError)
	field := fs.String("field", "", "Tag field to remove, e.g. ARTIST.")
	fs.Parse(args)
	if fs.NArg() != 1 || *field == "" {
		return fmt.Errorf("usage: metaedit remove-tag -field FIELD FILE")
	}
	path := fs.Arg(0)

	c := metadata.NewChain()
	if !c.Read(path, true) {
		return fmt.Errorf("metaedit: reading %q: %v", path, c.Status())
	}

	it := c.Iterator()
	vc, ok := findVorbisComment(it)
	if !ok {
		return fmt.Errorf("metaedit: %q has no VORBIS_COMMENT block", path)
	}
	if n := vc.RemoveTagsMatching(*field); n == 0 {
		return nil
	}
	if !c.Write(true) {
		return fmt.Errorf("metaedit: writing %q: %v", path, c.Status())
	}
	return nil
}
