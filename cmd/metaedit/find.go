package main

import (
	"github.com/nazgoflac/flac/meta"
	"github.com/nazgoflac/flac/metadata"
)

// findBlock rewinds it to the front and advances it onto the first block of
// the given type, returning false if none exists.
func findBlock(it *metadata.ChainIterator, typ meta.Type) bool {
	for it.Prev() {
	}
	for {
		if it.GetBlockType() == typ {
			return true
		}
		if !it.Next() {
			return false
		}
	}
}
