package meta_test

import (
	"bytes"
	"testing"

	"github.com/nazgoflac/flac/meta"
)

func roundTrip(t *testing.T, block *meta.Block) *meta.Block {
	t.Helper()
	var buf bytes.Buffer
	if err := meta.WriteBlock(&buf, block); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	got, err := meta.NewBlock(&buf)
	if err != nil {
		t.Fatalf("NewBlock: %v", err)
	}
	return got
}

func TestStreamInfoRoundTrip(t *testing.T) {
	si := meta.NewStreamInfo()
	si.BlockSizeMax = 4096
	si.SampleRate = 44100
	si.NChannels = 2
	si.BitsPerSample = 16
	si.NSamples = 123456
	si.MD5sum = [16]byte{1, 2, 3, 4}
	block := &meta.Block{Header: meta.Header{Type: meta.TypeStreamInfo, IsLast: true}, Body: si}
	got := roundTrip(t, block)
	if !block.Equal(got) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got.Body, block.Body)
	}
}

func TestPaddingRoundTrip(t *testing.T) {
	block := &meta.Block{Header: meta.Header{Type: meta.TypePadding}, Body: meta.NewPadding(37)}
	got := roundTrip(t, block)
	if !block.Equal(got) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got.Body, block.Body)
	}
}

func TestApplicationRoundTrip(t *testing.T) {
	app := meta.NewApplication([4]byte{'r', 'i', 'f', 'f'})
	app.SetDataCopy([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	block := &meta.Block{Header: meta.Header{Type: meta.TypeApplication}, Body: app}
	got := roundTrip(t, block)
	if !block.Equal(got) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got.Body, block.Body)
	}
}

func TestSeekTableRoundTrip(t *testing.T) {
	st := meta.NewSeekTable()
	st.TemplateAppendPoints([]uint64{0, 1000, 2000})
	if err := st.SetPoint(0, meta.SeekPoint{SampleNum: 0, Offset: 0, NSamples: 4096}); err != nil {
		t.Fatalf("SetPoint: %v", err)
	}
	block := &meta.Block{Header: meta.Header{Type: meta.TypeSeekTable}, Body: st}
	got := roundTrip(t, block)
	if !block.Equal(got) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got.Body, block.Body)
	}
}

func TestSeekTableIsLegal(t *testing.T) {
	st := meta.NewSeekTable()
	st.TemplateAppendPoints([]uint64{0, 100, 200})
	if !st.IsLegal() {
		t.Fatalf("expected legal seek table")
	}
	if err := st.SetPoint(0, meta.SeekPoint{SampleNum: 500}); err != nil {
		t.Fatalf("SetPoint: %v", err)
	}
	if st.IsLegal() {
		t.Fatalf("expected illegal seek table after breaking monotonicity")
	}
}

func TestSeekTableSortCompact(t *testing.T) {
	st := &meta.SeekTable{Points: []meta.SeekPoint{
		{SampleNum: 200}, {SampleNum: 100}, {SampleNum: 100}, {SampleNum: meta.PlaceholderPoint},
	}}
	st.Sort(true)
	want := []meta.SeekPoint{{SampleNum: 100}, {SampleNum: 200}, {SampleNum: meta.PlaceholderPoint}}
	if len(st.Points) != len(want) {
		t.Fatalf("got %d points, want %d", len(st.Points), len(want))
	}
	for i, p := range want {
		if st.Points[i].SampleNum != p.SampleNum {
			t.Errorf("point %d: got sample num %d, want %d", i, st.Points[i].SampleNum, p.SampleNum)
		}
	}
}

func TestVorbisCommentRoundTrip(t *testing.T) {
	vc := meta.NewVorbisComment("reference vendor 1.0")
	vc.ResizeTags(0)
	_ = vc.InsertTag(0, [2]string{"ARTIST", "Test Artist"})
	_ = vc.InsertTag(1, [2]string{"TITLE", "Test Title"})
	block := &meta.Block{Header: meta.Header{Type: meta.TypeVorbisComment}, Body: vc}
	got := roundTrip(t, block)
	if !block.Equal(got) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got.Body, block.Body)
	}
}

func TestVorbisCommentRemoveEntriesMatching(t *testing.T) {
	vc := meta.NewVorbisComment("v")
	_ = vc.InsertTag(0, [2]string{"ARTIST", "a"})
	_ = vc.InsertTag(1, [2]string{"artist", "b"})
	_ = vc.InsertTag(2, [2]string{"TITLE", "c"})
	n := vc.RemoveTagsMatching("artist")
	if n != 2 {
		t.Fatalf("got %d removed, want 2", n)
	}
	if len(vc.Tags) != 1 || vc.Tags[0][0] != "TITLE" {
		t.Fatalf("unexpected remaining tags: %+v", vc.Tags)
	}
}

func TestVorbisCommentFindEntryFrom(t *testing.T) {
	vc := meta.NewVorbisComment("v")
	_ = vc.InsertTag(0, [2]string{"ARTIST", "a"})
	_ = vc.InsertTag(1, [2]string{"TITLE", "t"})
	_ = vc.InsertTag(2, [2]string{"ARTIST", "b"})
	if i := vc.FindTagFrom(0, "artist"); i != 0 {
		t.Errorf("got index %d, want 0", i)
	}
	if i := vc.FindTagFrom(1, "artist"); i != 2 {
		t.Errorf("got index %d, want 2", i)
	}
	if i := vc.FindTagFrom(3, "artist"); i != -1 {
		t.Errorf("got index %d, want -1", i)
	}
}

func TestCueSheetRoundTrip(t *testing.T) {
	cs := meta.NewCueSheet()
	cs.MCN = "1234567890123"
	cs.IsCompactDisc = true
	cs.NLeadInSamples = 88200
	_ = cs.InsertTrack(0, meta.CueSheetTrack{
		Offset: 0, Num: 1, IsAudio: true,
		Indicies: []meta.CueSheetTrackIndex{{Offset: 0, Num: 1}},
	})
	_ = cs.InsertTrack(1, meta.CueSheetTrack{Offset: 123456, Num: 170})
	block := &meta.Block{Header: meta.Header{Type: meta.TypeCueSheet}, Body: cs}
	got := roundTrip(t, block)
	if !block.Equal(got) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got.Body, block.Body)
	}
}

func TestCueSheetIsLegal(t *testing.T) {
	cs := meta.NewCueSheet()
	cs.IsCompactDisc = true
	_ = cs.InsertTrack(0, meta.CueSheetTrack{Num: 1, Indicies: []meta.CueSheetTrackIndex{{Num: 1}}})
	_ = cs.InsertTrack(1, meta.CueSheetTrack{Num: 170})
	if !cs.IsLegal() {
		t.Fatalf("expected legal cue sheet")
	}
	_ = cs.DeleteTrack(1)
	_ = cs.InsertTrack(1, meta.CueSheetTrack{Num: 1})
	if cs.IsLegal() {
		t.Fatalf("expected illegal cue sheet after duplicating track number")
	}
}

func TestUnknownRoundTripPreservesRawType(t *testing.T) {
	u := meta.NewUnknown()
	u.SetDataCopy([]byte{1, 2, 3, 4, 5})
	block := &meta.Block{Header: meta.Header{Type: meta.TypeUnknown, RawType: 6}, Body: u}
	got := roundTrip(t, block)
	if got.Header.RawType != 6 {
		t.Fatalf("got raw type %d, want 6", got.Header.RawType)
	}
	if !block.Equal(got) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got.Body, block.Body)
	}
}

func TestHeaderIsLastRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	hdr := meta.Header{IsLast: true, Type: meta.TypePadding, Length: 10}
	if err := meta.WriteHeader(&buf, hdr); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	got, err := meta.ReadHeader(&buf)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if got.IsLast != true || got.Type != meta.TypePadding || got.Length != 10 {
		t.Fatalf("got %+v, want IsLast=true Type=Padding Length=10", got)
	}
}

func TestNewConstructsEmptyBodies(t *testing.T) {
	for _, typ := range []meta.Type{
		meta.TypeStreamInfo, meta.TypePadding, meta.TypeApplication,
		meta.TypeSeekTable, meta.TypeVorbisComment, meta.TypeCueSheet,
	} {
		block, err := meta.New(typ)
		if err != nil {
			t.Fatalf("New(%v): %v", typ, err)
		}
		if block.Header.Type != typ {
			t.Errorf("New(%v): got header type %v", typ, block.Header.Type)
		}
	}
}

func TestAsPadding(t *testing.T) {
	app := meta.NewApplication([4]byte{'a', 'b', 'c', 'd'})
	app.SetDataCopy([]byte{1, 2, 3})
	block := &meta.Block{Header: meta.Header{Type: meta.TypeApplication}, Body: app}
	n, err := block.DataLength()
	if err != nil {
		t.Fatalf("DataLength: %v", err)
	}
	if err := block.AsPadding(); err != nil {
		t.Fatalf("AsPadding: %v", err)
	}
	if block.Header.Type != meta.TypePadding {
		t.Fatalf("got type %v, want padding", block.Header.Type)
	}
	p, ok := block.Body.(*meta.Padding)
	if !ok {
		t.Fatalf("got body type %T, want *meta.Padding", block.Body)
	}
	if p.Length != n {
		t.Fatalf("got padding length %d, want %d", p.Length, n)
	}
}
