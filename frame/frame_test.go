//go:build ignore

package frame_test

import (
	"bytes"
	"crypto/md5"
	"testing"

	"github.com/nazgoflac/flac"
)

var golden = []struct {
	name string
}{
	{name: "../testdata/love.flac"},   // i=0
	{name: "../testdata/19875.flac"},  // i=1
	{name: "../testdata/44127.flac"},  // i=2
	{name: "../testdata/59996.flac"},  // i=3
	{name: "../testdata/80574.flac"},  // i=4
	{name: "../testdata/172960.flac"}, // i=5
	{name: "../testdata/189983.flac"}, // i=6
	{name: "../testdata/191885.flac"}, // i=7
	{name: "../testdata/212768.flac"}, // i=8
	{name: "../testdata/220014.flac"}, // i=9
	{name: "../testdata/243749.flac"}, // i=10
	{name: "../testdata/256529.flac"}, // i=11
	{name: "../testdata/257344.flac"}, // i=12
}

// TestFrameHash decodes each golden file in full and verifies the MD5
// checksum of its decoded samples against the one recorded in STREAMINFO.
func TestFrameHash(t *testing.T) {
	for i, g := range golden {
		stream, err := flac.Open(g.name)
		if err != nil {
			t.Fatalf("i=%d: unable to open %q; %v", i, g.name, err)
		}

		width := (int(stream.Info.BitsPerSample) + 7) / 8
		md5sum := md5.New()
		buf := make([]byte, width)
		for _, f := range stream.Frames {
			if len(f.SubFrames) == 0 {
				continue
			}
			nsamples := len(f.SubFrames[0].Samples)
			for s := 0; s < nsamples; s++ {
				for _, sub := range f.SubFrames {
					v := uint32(sub.Samples[s])
					for b := 0; b < width; b++ {
						buf[b] = byte(v >> (8 * uint(b)))
					}
					md5sum.Write(buf)
				}
			}
		}

		want := stream.Info.MD5sum[:]
		got := md5sum.Sum(nil)
		if !bytes.Equal(got, want) {
			t.Errorf("i=%d: MD5 checksum mismatch for decoded audio samples; expected %32x, got %32x", i, want, got)
		}
	}
}
