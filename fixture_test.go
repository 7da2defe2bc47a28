// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package gifload_test

// This file builds small, valid (or deliberately broken) GIF byte
// streams for the tests in gifload_test.go and gifload_fuzz_test.go,
// grounded on original_source/gif_load.h's container layout; the LZW
// encoder here is a genuine greedy-match compressor whose dictionary
// and code-width growth line up with decodeFrame's, so fixtures built
// from pixel runs with repeats drive decodeFrame through real
// multi-byte dictionary entries and the KwKwK case, not just literal
// codes.

const dictCap = 4096

type gceSpec struct {
	disposal    int
	transparent int // -1: no TransColor bit
	delay       int
	userInput   bool // sets the GCE's user-input-expected flag bit
}

type pixelFrame struct {
	left, top, width, height int
	localPalette              []byte
	interlace                 bool
	gce                       *gceSpec
	pixels                    []byte
	minCodeSize               int // 0 => 2
	omitStop                  bool
}

type gifSpec struct {
	width, height int
	globalPalette  []byte
	background     int
	frames         []pixelFrame
	appExt         []byte // full application-extension Raw payload (11-byte header + chain)
	omitTrailer    bool
}

func packSubBlocks(data []byte) []byte {
	out := make([]byte, 0, len(data)+len(data)/255+2)
	for len(data) > 0 {
		n := len(data)
		if n > 255 {
			n = 255
		}
		out = append(out, byte(n))
		out = append(out, data[:n]...)
		data = data[n:]
	}
	out = append(out, 0)
	return out
}

type bitWriter struct {
	buf   []byte
	accum uint32
	nBits uint
}

func (w *bitWriter) writeCode(code int, width uint) {
	w.accum |= uint32(code) << w.nBits
	w.nBits += width
	for w.nBits >= 8 {
		w.buf = append(w.buf, byte(w.accum))
		w.accum >>= 8
		w.nBits -= 8
	}
}

func (w *bitWriter) flush() []byte {
	if w.nBits > 0 {
		w.buf = append(w.buf, byte(w.accum))
	}
	return w.buf
}

// encodeLZW is a standard greedy LZW compressor: it emits a clear
// code, then for each pixel extends the current match as long as the
// extended string is already in the dictionary, emitting a code and
// adding a new entry only on a mismatch, then a stop code unless
// omitStop is set. Dictionary indices are assigned from the same
// nextFree counter decodeFrame uses. The encoder adds an entry on
// every emitted code, one code ahead of the decoder (which adds none
// for the first code after a clear), so it widens once the entry it
// just added is one past the mask: the same point in the code stream
// at which decodeFrame widens. Both sides thus use the same width for
// every code and build the identical dictionary — the property LZW
// depends on. Unlike a literal-only encoder, this one actually exercises
// multi-byte dictionary entries and the KwKwK case once any pixel
// sequence repeats.
func encodeLZW(pixels []byte, minCodeSize int, omitStop bool) []byte {
	clearCode := 1 << minCodeSize
	stopCode := clearCode + 1
	width := uint(minCodeSize + 1)
	mask := (1 << width) - 1
	nextFree := clearCode + 2

	var w bitWriter
	w.writeCode(clearCode, width)

	if len(pixels) == 0 {
		if !omitStop {
			w.writeCode(stopCode, width)
		}
		return w.flush()
	}

	dict := map[string]int{}
	codeOf := func(s []byte) int {
		if len(s) == 1 {
			return int(s[0])
		}
		return dict[string(s)]
	}

	current := pixels[0:1]
	for i := 1; i < len(pixels); i++ {
		candidate := append(append([]byte{}, current...), pixels[i])
		if _, ok := dict[string(candidate)]; ok {
			current = candidate
			continue
		}

		w.writeCode(codeOf(current), width)
		newIdx := nextFree
		dict[string(candidate)] = newIdx
		nextFree++
		if newIdx == mask+1 && newIdx < dictCap {
			width++
			mask = (mask << 1) | 1
		}
		current = pixels[i : i+1]
	}
	w.writeCode(codeOf(current), width)

	if !omitStop {
		w.writeCode(stopCode, width)
	}
	return w.flush()
}

func le16(v int) []byte { return []byte{byte(v), byte(v >> 8)} }

func buildGIF(spec gifSpec) []byte {
	var buf []byte
	buf = append(buf, "GIF87a"...)
	buf = append(buf, le16(spec.width)...)
	buf = append(buf, le16(spec.height)...)

	var flags byte
	if len(spec.globalPalette) > 0 {
		flags |= 0x80
		flags |= paletteExponent(len(spec.globalPalette) / 3)
	}
	buf = append(buf, flags)
	buf = append(buf, byte(spec.background))
	buf = append(buf, 0) // aspect ratio

	if len(spec.globalPalette) > 0 {
		buf = append(buf, spec.globalPalette...)
	}

	if len(spec.appExt) > 0 {
		buf = append(buf, 0x21, 0xFF, 0x0B)
		buf = append(buf, spec.appExt...)
	}

	for _, f := range spec.frames {
		if f.gce != nil {
			buf = append(buf, 0x21, 0xF9, 0x04)
			var gflags byte
			if f.gce.transparent >= 0 {
				gflags |= 0x01
			}
			if f.gce.userInput {
				gflags |= 0x02
			}
			gflags |= byte(f.gce.disposal<<2) & 0x1C
			buf = append(buf, gflags)
			buf = append(buf, le16(f.gce.delay)...)
			trans := 0
			if f.gce.transparent >= 0 {
				trans = f.gce.transparent
			}
			buf = append(buf, byte(trans))
			buf = append(buf, 0) // terminator
		}

		buf = append(buf, 0x2C)
		buf = append(buf, le16(f.left)...)
		buf = append(buf, le16(f.top)...)
		buf = append(buf, le16(f.width)...)
		buf = append(buf, le16(f.height)...)

		var iflags byte
		if len(f.localPalette) > 0 {
			iflags |= 0x80
			iflags |= paletteExponent(len(f.localPalette) / 3)
		}
		if f.interlace {
			iflags |= 0x40
		}
		buf = append(buf, iflags)
		if len(f.localPalette) > 0 {
			buf = append(buf, f.localPalette...)
		}

		mcs := f.minCodeSize
		if mcs == 0 {
			mcs = 2
		}
		buf = append(buf, byte(mcs))
		buf = append(buf, packSubBlocks(encodeLZW(f.pixels, mcs, f.omitStop))...)
	}

	if !spec.omitTrailer {
		buf = append(buf, 0x3B)
	}
	return buf
}

// paletteExponent returns the packed-flags palette-size exponent bits
// for a palette of n colors (n must be a power of two, 2..256).
func paletteExponent(n int) byte {
	e := byte(0)
	for (1 << (e + 1)) < n {
		e++
	}
	return e
}

func twoColorPalette() []byte {
	return []byte{0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF}
}
