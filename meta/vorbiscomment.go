package meta

import (
	"io"
	"strings"

	"github.com/icza/bitio"
	"github.com/mewkiz/pkg/errutil"
	"github.com/nazgoflac/flac/internal/bytepack"
)

// VorbisComment holds a vendor string and a list of human-readable
// name/value pairs; an implementation of the Vorbis comment specification
// without the framing bit. There is at most one VorbisComment in a stream.
//
// ref: https://www.xiph.org/flac/format.html#metadata_block_vorbis_comment
type VorbisComment struct {
	// Vendor name.
	Vendor string
	// A list of tags, each represented by a name-value pair.
	Tags [][2]string
}

// NewVorbisComment returns a VorbisComment block body with the given vendor
// string and no tags.
func NewVorbisComment(vendor string) *VorbisComment {
	return &VorbisComment{Vendor: vendor}
}

func vorbisCommentLength(vc *VorbisComment) int {
	n := 4 + len(vc.Vendor) + 4
	for _, tag := range vc.Tags {
		n += 4 + len(tag[0]) + 1 + len(tag[1])
	}
	return n
}

// readVorbisComment parses the body of a VorbisComment metadata block.
//
//	type METADATA_BLOCK_VORBIS_COMMENT struct {
//	   vendor_len uint32le
//	   vendor     [vendor_len]byte
//	   n_tags     uint32le
//	   tags       [n_tags]tag
//	}
//
//	type tag struct {
//	   len    uint32le
//	   vector [len]byte // "NAME=value"
//	}
func readVorbisComment(br *bitio.Reader, length int) (*VorbisComment, error) {
	vc := new(VorbisComment)
	vendorLen, err := readUint32LE(br)
	if err != nil {
		return nil, err
	}
	if vendorLen > 0 {
		buf := make([]byte, vendorLen)
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, errutil.Err(err)
		}
		vc.Vendor = string(buf)
	}

	nTags, err := readUint32LE(br)
	if err != nil {
		return nil, err
	}
	if nTags == 0 {
		return vc, nil
	}
	vc.Tags = make([][2]string, nTags)
	for i := range vc.Tags {
		vectorLen, err := readUint32LE(br)
		if err != nil {
			return nil, err
		}
		var vector string
		if vectorLen > 0 {
			buf := make([]byte, vectorLen)
			if _, err := io.ReadFull(br, buf); err != nil {
				return nil, errutil.Err(err)
			}
			vector = string(buf)
		}
		pos := strings.IndexByte(vector, '=')
		if pos == -1 {
			return nil, errutil.Newf("meta.readVorbisComment: malformed comment vector %q; missing '='", vector)
		}
		vc.Tags[i] = [2]string{vector[:pos], vector[pos+1:]}
	}
	return vc, nil
}

func readUint32LE(br *bitio.Reader) (uint32, error) {
	buf := make([]byte, 4)
	if _, err := io.ReadFull(br, buf); err != nil {
		return 0, errutil.Err(err)
	}
	return uint32(bytepack.UintLE(buf, 4)), nil
}

// writeVorbisComment writes the body of a VorbisComment metadata block.
func writeVorbisComment(bw *bitio.Writer, vc *VorbisComment) error {
	if err := writeUint32LE(bw, uint32(len(vc.Vendor))); err != nil {
		return err
	}
	if len(vc.Vendor) > 0 {
		if _, err := bw.Write([]byte(vc.Vendor)); err != nil {
			return errutil.Err(err)
		}
	}
	if err := writeUint32LE(bw, uint32(len(vc.Tags))); err != nil {
		return err
	}
	for _, tag := range vc.Tags {
		vector := tag[0] + "=" + tag[1]
		if err := writeUint32LE(bw, uint32(len(vector))); err != nil {
			return err
		}
		if _, err := bw.Write([]byte(vector)); err != nil {
			return errutil.Err(err)
		}
	}
	return nil
}

func writeUint32LE(bw *bitio.Writer, x uint32) error {
	buf := make([]byte, 4)
	bytepack.PutUintLE(buf, uint64(x), 4)
	if _, err := bw.Write(buf); err != nil {
		return errutil.Err(err)
	}
	return nil
}

// Clone returns a deep copy of vc.
func (vc *VorbisComment) Clone() *VorbisComment {
	clone := &VorbisComment{Vendor: vc.Vendor, Tags: make([][2]string, len(vc.Tags))}
	copy(clone.Tags, vc.Tags)
	return clone
}

// Equal reports whether a and b have the same vendor string and tags, in
// the same order.
func (a *VorbisComment) Equal(b *VorbisComment) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Vendor != b.Vendor || len(a.Tags) != len(b.Tags) {
		return false
	}
	for i := range a.Tags {
		if a.Tags[i] != b.Tags[i] {
			return false
		}
	}
	return true
}

// SetVendorString replaces the vendor string.
func (vc *VorbisComment) SetVendorString(vendor string) {
	vc.Vendor = vendor
}

// ResizeTags grows or shrinks the tag list to exactly n entries; grown
// entries are empty name/value pairs.
func (vc *VorbisComment) ResizeTags(n int) {
	if n <= 0 {
		vc.Tags = nil
		return
	}
	if n == len(vc.Tags) {
		return
	}
	grown := make([][2]string, n)
	copy(grown, vc.Tags)
	vc.Tags = grown
}

// SetTag overwrites the tag at index i.
func (vc *VorbisComment) SetTag(i int, tag [2]string) error {
	if i < 0 || i >= len(vc.Tags) {
		return errutil.Newf("meta.VorbisComment.SetTag: index %d out of range [0, %d)", i, len(vc.Tags))
	}
	vc.Tags[i] = tag
	return nil
}

// InsertTag inserts tag before index i. i == len(vc.Tags) appends.
func (vc *VorbisComment) InsertTag(i int, tag [2]string) error {
	if i < 0 || i > len(vc.Tags) {
		return errutil.Newf("meta.VorbisComment.InsertTag: index %d out of range [0, %d]", i, len(vc.Tags))
	}
	vc.Tags = append(vc.Tags, [2]string{})
	copy(vc.Tags[i+1:], vc.Tags[i:])
	vc.Tags[i] = tag
	return nil
}

// DeleteTag removes the tag at index i.
func (vc *VorbisComment) DeleteTag(i int) error {
	if i < 0 || i >= len(vc.Tags) {
		return errutil.Newf("meta.VorbisComment.DeleteTag: index %d out of range [0, %d)", i, len(vc.Tags))
	}
	vc.Tags = append(vc.Tags[:i], vc.Tags[i+1:]...)
	return nil
}

// FindTagFrom returns the index of the first tag at or after offset whose
// name matches field case-insensitively, or -1 if none match.
func (vc *VorbisComment) FindTagFrom(offset int, field string) int {
	for i := offset; i < len(vc.Tags); i++ {
		if strings.EqualFold(vc.Tags[i][0], field) {
			return i
		}
	}
	return -1
}

// RemoveTagMatching removes the first tag whose name matches field
// case-insensitively. It reports whether a tag was removed.
func (vc *VorbisComment) RemoveTagMatching(field string) bool {
	i := vc.FindTagFrom(0, field)
	if i == -1 {
		return false
	}
	_ = vc.DeleteTag(i)
	return true
}

// RemoveTagsMatching removes every tag whose name matches field
// case-insensitively, walking from the end of the list to the start so the
// indices of not-yet-visited tags remain stable. It returns the number of
// tags removed.
func (vc *VorbisComment) RemoveTagsMatching(field string) int {
	removed := 0
	for i := len(vc.Tags) - 1; i >= 0; i-- {
		if strings.EqualFold(vc.Tags[i][0], field) {
			_ = vc.DeleteTag(i)
			removed++
		}
	}
	return removed
}
