package flac_test

import (
	"fmt"
	"log"

	"github.com/nazgoflac/flac"
)

func ExampleOpen() {
	// Parse love.flac in full: metadata blocks and audio frames.
	stream, err := flac.Open("testdata/love.flac")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("unencoded audio md5sum: %032x\n", stream.Info.MD5sum[:])
	for i, block := range stream.MetaBlocks {
		fmt.Printf("block %d: %v\n", i, block.Header.Type)
	}

	// Print first three samples from each channel of the first five frames.
	for i, frame := range stream.Frames {
		if i >= 5 {
			break
		}
		fmt.Printf("frame %d\n", i)
		for j, subframe := range frame.SubFrames {
			fmt.Printf("  subframe %d\n", j)
			for k, sample := range subframe.Samples {
				if k >= 3 {
					break
				}
				fmt.Printf("    sample %d: %v\n", k, sample)
			}
		}
	}
}
