package flac

import (
	"io"

	"github.com/mewkiz/pkg/errutil"
	"github.com/nazgoflac/flac/meta"
)

// Encode writes the FLAC audio stream to w: the "fLaC" signature, the
// StreamInfo metadata block, every other metadata block in
// stream.MetaBlocks, and finally the audio sample stream copied verbatim
// from the reader stream was parsed from (this package does not implement
// frame encoding; see meta.WriteBlock for the metadata codec itself).
func Encode(w io.Writer, stream *Stream) error {
	if _, err := w.Write([]byte(FlacSignature)); err != nil {
		return errutil.Err(err)
	}

	infoHdr := meta.Header{IsLast: len(stream.MetaBlocks) <= 1, Type: meta.TypeStreamInfo}
	if err := meta.WriteBlock(w, &meta.Block{Header: infoHdr, Body: stream.Info}); err != nil {
		return errutil.Err(err)
	}

	for i, block := range stream.MetaBlocks[1:] {
		hdr := block.Header
		hdr.IsLast = i == len(stream.MetaBlocks)-2
		if err := meta.WriteBlock(w, &meta.Block{Header: hdr, Body: block.Body}); err != nil {
			return errutil.Err(err)
		}
	}

	if stream.r == nil {
		return nil
	}
	if _, err := stream.r.Seek(stream.audioOffset, io.SeekStart); err != nil {
		return errutil.Err(err)
	}
	if _, err := io.Copy(w, stream.r); err != nil {
		return errutil.Err(err)
	}
	return nil
}
