// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package gifload

// bitReader unpacks LZW codes of a current width, in bits, from the
// LZW sub-block chain: a sequence of (length byte, data bytes) pairs
// whose payload is treated as one continuous bitstream, LSB-first,
// regardless of where a sub-block boundary happens to fall.
//
// original_source/gif_load.h implements this by loading a 16-bit
// window at a time, masking off bits beyond a sub-block's end when
// the window straddles a boundary, and shifting bits into a running
// code register — necessary there because the C source reads
// directly off the mapped input buffer via pointer casts. This
// module instead reads one payload byte at a time off a sub-block-
// aware byte source into a wider accumulator and extracts codes
// LSB-first from it; the two are observably equivalent (same codes,
// same byte consumption, same transparent resumption across sub-
// block boundaries) and the byte-oriented form needs no endian swap
// or boundary-masking special case, matching Design Note "Raw-byte
// layout parsing" (no struct-overlay parsing of borrowed bytes).
type bitReader struct {
	c *cursor

	subRemaining int // bytes left unread in the current sub-block
	accum        uint32
	nBits        uint
	width        uint
}

func newBitReader(c *cursor) *bitReader {
	return &bitReader{c: c}
}

// setWidth sets the current code width in bits.
func (br *bitReader) setWidth(w uint) {
	br.width = w
}

// nextByte returns the next payload byte from the sub-block chain,
// crossing into the next length-prefixed sub-block transparently.
// ok is false when a zero-length (terminating) sub-block is reached
// before a byte could be produced.
func (br *bitReader) nextByte() (b byte, ok bool) {
	for br.subRemaining == 0 {
		n := int(br.c.read1())
		if n == 0 {
			return 0, false
		}
		br.subRemaining = n
	}
	b = br.c.read1()
	br.subRemaining--
	return b, true
}

// readCode extracts the next code at the current width. ok is false
// when the sub-block chain ends before enough bits could be read,
// which happens when an LZW stream is truncated before its stop code.
func (br *bitReader) readCode() (code int, ok bool) {
	for br.nBits < br.width {
		b, got := br.nextByte()
		if !got {
			return 0, false
		}
		br.accum |= uint32(b) << br.nBits
		br.nBits += 8
	}
	mask := uint32(1)<<br.width - 1
	code = int(br.accum & mask)
	br.accum >>= br.width
	br.nBits -= br.width
	return code, true
}

// finishAfterStop consumes whatever remains of the current sub-block
// and any further sub-blocks up to and including the chain
// terminator, reporting whether any such bytes existed: a
// well-behaved encoder pads the last sub-block to end exactly at the
// stop code, so any bytes found after it are unusual but not fatal.
// On return, the underlying cursor is positioned one past the
// terminator, matching the chunk skipper's post-condition.
func (br *bitReader) finishAfterStop() (trailingBytes bool) {
	if br.subRemaining > 0 {
		trailingBytes = true
		br.c.skip(br.subRemaining)
		br.subRemaining = 0
	}
	for {
		n := int(br.c.read1())
		if n == 0 {
			return trailingBytes
		}
		trailingBytes = true
		br.c.skip(n)
	}
}
