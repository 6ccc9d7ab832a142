package main

import (
	"flag"
	"fmt"

	"github.com/nazgoflac/flac/metadata"
)

func runMergePadding(args []string) error {
	fs := flag.NewFlagSet("merge-padding", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: metaedit merge-padding FILE")
	}
	path := fs.Arg(0)

	c := metadata.NewChain()
	if !c.Read(path, true) {
		return fmt.Errorf("metaedit: reading %q: %v", path, c.Status())
	}
	c.MergePadding()
	if !c.Write(true) {
		return fmt.Errorf("metaedit: writing %q: %v", path, c.Status())
	}
	return nil
}
