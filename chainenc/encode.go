// Package chainenc implements the canonical byte encoding shared by block
// hashing and transaction signing. The gossip wire format does not use it;
// wire messages are JSON (see package p2p). Every honest
// node must derive byte-identical images for the same logical value, so
// the encoding fixes one textual form per primitive and never varies it:
// integers as decimal ASCII, byte strings raw, sequences length-prefixed.
package chainenc

import (
	"encoding/binary"
)

// tag bytes distinguish primitives in the encoded stream. They are never
// interpreted on their own — every tagged value also carries an explicit
// length or a fixed width, so a byte string can never be mistaken for a
// delimiter.
const (
	tagInt  = 'i'
	tagByte = 'b'
	tagSeq  = 'l'
)

// Buffer accumulates a canonical encoding. Callers build up the image by
// calling Int/Bytes/Seq in the fixed field order their type defines; the
// same sequence of calls always produces the same bytes.
type Buffer struct {
	buf []byte
}

// Bytes returns the accumulated canonical image.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

// Int writes a signed integer in base-10 ASCII, tagged and length-prefixed
// so a negative sign or leading zero can never be ambiguous.
func (b *Buffer) Int(n int64) {
	b.writeDecimal(tagInt, n < 0, absInt64(n))
}

// Uint writes an unsigned integer the same way as Int.
func (b *Buffer) Uint(n uint64) {
	b.writeDecimal(tagInt, false, n)
}

func (b *Buffer) writeDecimal(tag byte, negative bool, mag uint64) {
	s := formatUint(mag)
	if negative {
		s = append([]byte{'-'}, s...)
	}
	b.buf = append(b.buf, tag)
	b.length(len(s))
	b.buf = append(b.buf, s...)
}

// Bytes writes a raw byte string: a length prefix followed by the bytes
// exactly as given. This is the only primitive used for addresses,
// signatures and opaque identifiers, so they round-trip bit-exactly.
func (b *Buffer) Bytes(raw []byte) {
	b.buf = append(b.buf, tagByte)
	b.length(len(raw))
	b.buf = append(b.buf, raw...)
}

// String writes a UTF-8 string using the same framing as Bytes.
func (b *Buffer) String(s string) {
	b.Bytes([]byte(s))
}

// Seq writes the element count for an ordered sequence of n items; the
// caller then encodes each item in order via further Buffer calls. Callers
// must always emit exactly n children — the decoder side (none exists
// here, since nothing in this system decodes the canonical form, only
// compares it) would otherwise desync, so this is an internal-use-only
// invariant enforced by convention, not by this type.
func (b *Buffer) Seq(n int) {
	b.buf = append(b.buf, tagSeq)
	b.length(n)
}

func (b *Buffer) length(n int) {
	var width [8]byte
	binary.BigEndian.PutUint64(width[:], uint64(n))
	b.buf = append(b.buf, width[:]...)
}

func absInt64(n int64) uint64 {
	if n < 0 {
		return uint64(-n)
	}
	return uint64(n)
}

func formatUint(n uint64) []byte {
	if n == 0 {
		return []byte{'0'}
	}
	var tmp [20]byte
	i := len(tmp)
	for n > 0 {
		i--
		tmp[i] = byte('0' + n%10)
		n /= 10
	}
	return tmp[i:]
}
