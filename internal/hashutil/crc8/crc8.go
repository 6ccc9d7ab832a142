// Package crc8 computes the CRC-8 checksum used to validate FLAC frame
// headers. It is the "ATM HEC" variant: polynomial x^8+x^2+x^1+x^0
// (0x07), initialized with 0, neither input nor output reflected -- not
// the same table as hash/crc32's IEEE polynomial, and the standard
// library has no CRC-8 implementation at all.
package crc8

import "hash"

const poly = byte(0x07)

var table [256]byte

func init() {
	for i := 0; i < 256; i++ {
		crc := byte(i)
		for j := 0; j < 8; j++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		table[i] = crc
	}
}

// Hash8 is a hash.Hash that also exposes its running sum as a byte, since
// hash.Hash.Sum only hands back a []byte.
type Hash8 interface {
	hash.Hash
	Sum8() byte
}

// digest implements Hash8 for the CRC-8/ATM checksum.
type digest struct {
	crc byte
}

// NewATM returns a new Hash8 computing the CRC-8/ATM checksum.
func NewATM() Hash8 {
	return &digest{}
}

func (d *digest) Write(p []byte) (n int, err error) {
	for _, b := range p {
		d.crc = table[d.crc^b]
	}
	return len(p), nil
}

func (d *digest) Sum8() byte { return d.crc }

func (d *digest) Sum(b []byte) []byte { return append(b, d.crc) }
func (d *digest) Reset()              { d.crc = 0 }
func (d *digest) Size() int           { return 1 }
func (d *digest) BlockSize() int      { return 1 }

// Checksum returns the CRC-8/ATM checksum of data.
func Checksum(data []byte) byte {
	d := &digest{}
	d.Write(data)
	return d.crc
}
