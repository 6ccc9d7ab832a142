package main

import (
	"flag"
	"fmt"

	"github.com/nazgoflac/flac"
	"github.com/nazgoflac/flac/meta"
)

// typeName maps from metadata block type to a string version of its name.
var typeName = map[meta.Type]string{
	meta.TypeStreamInfo:    "STREAMINFO",
	meta.TypePadding:       "PADDING",
	meta.TypeApplication:   "APPLICATION",
	meta.TypeSeekTable:     "SEEKTABLE",
	meta.TypeVorbisComment: "VORBIS_COMMENT",
	meta.TypeCueSheet:      "CUESHEET",
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: metaedit list FILE")
	}
	path := fs.Arg(0)

	stream, err := flac.Open(path)
	if err != nil {
		return err
	}
	defer stream.Close()
	for i, block := range stream.MetaBlocks {
		listHeader(&block.Header, i)
		switch body := block.Body.(type) {
		case *meta.StreamInfo:
			listStreamInfo(body)
		case *meta.Application:
			listApplication(body)
		case *meta.SeekTable:
			listSeekTable(body)
		case *meta.VorbisComment:
			listVorbisComment(body)
		case *meta.CueSheet:
			listCueSheet(body)
		case *meta.Unknown:
			fmt.Printf("  raw type: %d\n", block.Header.RawType)
		}
	}
	return nil
}

func listHeader(header *meta.Header, blockNum int) {
	name, ok := typeName[header.Type]
	if !ok {
		name = "UNKNOWN"
	}
	fmt.Printf("METADATA block #%d\n", blockNum)
	fmt.Printf("  type: %d (%s)\n", header.Type, name)
	fmt.Printf("  is last: %t\n", header.IsLast)
	fmt.Printf("  length: %d\n", header.Length)
}

func listStreamInfo(si *meta.StreamInfo) {
	fmt.Printf("  minimum blocksize: %d samples\n", si.BlockSizeMin)
	fmt.Printf("  maximum blocksize: %d samples\n", si.BlockSizeMax)
	fmt.Printf("  minimum framesize: %d bytes\n", si.FrameSizeMin)
	fmt.Printf("  maximum framesize: %d bytes\n", si.FrameSizeMax)
	fmt.Printf("  sample_rate: %d Hz\n", si.SampleRate)
	fmt.Printf("  channels: %d\n", si.NChannels)
	fmt.Printf("  bits-per-sample: %d\n", si.BitsPerSample)
	fmt.Printf("  total samples: %d\n", si.NSamples)
	fmt.Printf("  MD5 signature: %x\n", si.MD5sum)
}

func listApplication(app *meta.Application) {
	fmt.Printf("  application ID: %x\n", string(app.ID[:]))
	fmt.Printf("  data length: %d\n", len(app.Data))
}

func listSeekTable(st *meta.SeekTable) {
	fmt.Printf("  seek points: %d\n", len(st.Points))
	for i, p := range st.Points {
		if p.SampleNum == meta.PlaceholderPoint {
			fmt.Printf("    point %d: PLACEHOLDER\n", i)
			continue
		}
		fmt.Printf("    point %d: sample_number=%d, stream_offset=%d, frame_samples=%d\n", i, p.SampleNum, p.Offset, p.NSamples)
	}
}

func listVorbisComment(vc *meta.VorbisComment) {
	fmt.Printf("  vendor string: %s\n", vc.Vendor)
	fmt.Printf("  comments: %d\n", len(vc.Tags))
	for i, tag := range vc.Tags {
		fmt.Printf("    comment[%d]: %s=%s\n", i, tag[0], tag[1])
	}
}

func listCueSheet(cs *meta.CueSheet) {
	fmt.Printf("  media catalog number: %s\n", cs.MCN)
	fmt.Printf("  lead-in: %d\n", cs.NLeadInSamples)
	fmt.Printf("  is CD: %t\n", cs.IsCompactDisc)
	fmt.Printf("  number of tracks: %d\n", len(cs.Tracks))
	for i, t := range cs.Tracks {
		fmt.Printf("    track[%d]: offset=%d, number=%d, indices=%d\n", i, t.Offset, t.Num, len(t.Indicies))
	}
}
