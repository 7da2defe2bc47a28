// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package gifload decodes the GIF87a/GIF89a container format straight
// to the caller, frame by frame, without building an in-memory image.
// It is a from-scratch streaming reimplementation of
// original_source/gif_load.h's two-pass walker: a dry counting pass
// over the frame/extension blocks followed by an extraction pass that
// decodes each frame's LZW data in place and hands it to a sink.
//
// Load is the single entry point. Everything else in the package
// exists to serve it: cursor and bitReader read bytes and bits off
// the input buffer; chunk.go and frameheader.go parse the container's
// block structure; lzw.go expands the compressed pixel data; sink.go
// defines what gets delivered; options.go and pool.go configure how.
package gifload

import "errors"

const (
	tagImage     = 0x2C
	tagExtension = 0x21
	tagTrailer   = 0x3B

	labelGraphicControl = 0xF9
	labelApplication    = 0xFF
)

const headerLen = 6 + 7 // signature + logical screen descriptor

// globalHeader is the fixed-size portion of a GIF file: the 6-byte
// signature/version, followed by the 7-byte logical screen descriptor
// (GIF_GHDR in original_source/gif_load.h).
type globalHeader struct {
	Width, Height int
	Flags         byte
	Background    int
	GlobalPalette []byte
}

func (g globalHeader) hasGlobalPalette() bool {
	return g.Flags&flagPalettePresent != 0
}

// Load decodes data as a GIF87a/GIF89a stream, delivering one Frame
// to opts.FrameSink per decoded frame and, if opts.MetadataSink is
// set, one Metadata per application extension.
//
// On success it returns the total number of frames addressed by this
// call, including any skipped via opts.Skip, and a nil error. If the
// input ends before the 0x3B trailer — or a frame turns out to be
// undecodable for a reason the format itself doesn't recover from,
// such as a missing palette or a malformed LZW prelude — it returns
// the number of frames actually delivered (plus opts.Skip) alongside
// a *TruncatedError. This replaces original_source/gif_load.h's
// convention of overloading the sign of a single integer return value
// with Go's native error-signaling idiom; TruncatedError.Count
// recovers the same information the negative count used to carry,
// and is exactly what a caller needs to set opts.Skip on a follow-up
// call once more bytes of the same stream are available.
//
// A malformed signature, a negative opts.Skip, or an input too short
// to hold even the fixed header is reported by returning (0, nil):
// there is nothing resembling a GIF stream to decode, so this is
// treated as "nothing to decode" rather than an error, matching
// GIF_Load's own early-return-0 behavior.
func Load(data []byte, opts Options) (frames int, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		fe, ok := r.(*FormatError)
		if !ok {
			panic(r)
		}
		err = fe
	}()

	if opts.Skip < 0 || len(data) <= headerLen {
		return 0, nil
	}
	if string(data[0:3]) != "GIF" {
		return 0, nil
	}
	switch string(data[3:6]) {
	case "87a", "89a":
	default:
		return 0, nil
	}

	c := newCursor(data)
	c.skip(6)
	hdr := globalHeader{
		Width:  int(c.read2()),
		Height: int(c.read2()),
	}
	hdr.Flags = c.read1()
	hdr.Background = int(c.read1())
	c.skip(1) // pixel aspect ratio: carried by no field in this package

	if hdr.hasGlobalPalette() {
		n := 2 << (hdr.Flags & flagPaletteSizeBits)
		hdr.GlobalPalette = c.bytes(n * 3)
	}

	if opts.FrameSink == nil {
		return 0, errors.New("gifload: Options.FrameSink must be set")
	}

	anchor := c.pos
	nfrmGuess, pass1Truncated := countFrames(data, anchor)

	decoded, stopped, sinkErr := extractFrames(data, anchor, hdr, nfrmGuess, pass1Truncated, opts)
	total := decoded + opts.Skip
	if sinkErr != nil {
		return total, sinkErr
	}
	if stopped {
		return total, newTruncatedError(total)
	}
	return total, nil
}

// sinkAbort is the panic payload used to unwind out of extractFrames
// when a FrameSink or MetadataSink call returns a non-nil error. It
// is kept distinct from *FormatError so that a sink's own error
// propagates to the caller verbatim instead of being folded into a
// *TruncatedError.
type sinkAbort struct{ err error }

// countFrames is a dry walk over the frame/extension blocks: it
// tallies frames without decoding or even validating their palettes.
// Unlike extractFrames, it does not treat a missing palette as fatal,
// an intentional asymmetry that lets a truncated-or-malformed stream
// still report a positive per-frame Total to the frames the
// extraction pass does manage to deliver before it, too, gives up.
func countFrames(data []byte, anchor int) (frameCount int, truncated bool) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if _, ok := r.(*FormatError); ok {
			truncated = true
			return
		}
		panic(r)
	}()

	c := newCursorAt(data, anchor)
	for {
		tag := c.read1()
		switch tag {
		case tagTrailer:
			return frameCount, false

		case tagImage:
			desc := parseImageDescriptor(c)
			if desc.hasLocalPalette() {
				c.skip(desc.paletteSize() * 3)
			}
			c.skip(1) // LZW minimum code size
			skipSubBlocks(c)
			frameCount++

		case tagExtension:
			c.read1() // label
			skipSubBlocks(c)

		default:
			c.stop(errStop)
		}
	}
}

// gceState is the most recently remembered Graphics Control
// Extension: a GIF89a image block's transparency, delay and disposal
// come from whichever GCE most recently preceded it, not necessarily
// one immediately adjacent to it.
type gceState struct {
	present     bool
	flags       byte
	delay       int
	transparent int
}

func (g gceState) disposal() DisposalMode {
	if !g.present || g.flags&0x02 != 0 {
		return DisposalNone
	}
	d := DisposalMode((g.flags >> 2) & 0x07)
	if d > DisposalRestorePrevious {
		return DisposalNone
	}
	return d
}

// extractFrames walks the frame/extension blocks a second time,
// decoding each frame's LZW data and delivering it to opts.FrameSink.
// It returns the number of frames actually delivered (not counting
// opts.Skip), whether the walk stopped for any reason short of a
// clean 0x3B trailer, and, if a sink aborted the walk by returning an
// error, that error verbatim.
func extractFrames(data []byte, anchor int, hdr globalHeader, nfrmGuess int, pass1Truncated bool, opts Options) (decoded int, stopped bool, sinkErr error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if sa, ok := r.(sinkAbort); ok {
			sinkErr = sa.err
			return
		}
		if _, ok := r.(*FormatError); ok {
			stopped = true
			return
		}
		panic(r)
	}()

	alloc := opts.allocator()
	raster := alloc.Get(hdr.Width * hdr.Height)
	defer alloc.Put(raster)

	c := newCursorAt(data, anchor)

	var gce gceState
	var prevRect Rect
	var prevDisposal DisposalMode
	var havePrevRect bool

	index := 0
	for {
		tag := c.read1()
		switch tag {
		case tagTrailer:
			return decoded, false, nil

		case tagExtension:
			label := c.read1()
			switch label {
			case labelGraphicControl:
				gce = parseGCE(c)
			case labelApplication:
				deliverApplicationExtension(c, hdr, index, opts)
			default:
				skipSubBlocks(c)
			}

		case tagImage:
			desc := parseImageDescriptor(c)
			palette, colorCount := resolvePalette(c, desc, hdr.Flags, hdr.GlobalPalette)
			if colorCount <= 0 {
				return decoded, true, nil
			}

			rect, ok := frameRect(desc, hdr, opts)
			if !ok {
				return decoded, true, nil
			}

			deliver := index >= opts.Skip
			var dst []byte
			if deliver {
				need := rect.Width * rect.Height
				if need > len(raster) {
					need = len(raster)
				}
				dst = raster[:need]
			} else {
				dst = nil
			}

			if dst != nil {
				res, derr := decodeFrame(c, dst)
				if derr != nil {
					return decoded, true, nil
				}
				if res.trailingBytes {
					opts.warnf()("gifload: frame %d carries trailing bytes after its stop code", index)
				}

				f := &Frame{
					ScreenWidth:   hdr.Width,
					ScreenHeight:  hdr.Height,
					Palette:       palette,
					PaletteSize:   colorCount,
					Background:    hdr.Background,
					Transparent:   -1,
					Disposal:      gce.disposal(),
					Interlace:     desc.interlaced(),
					Rect:          rect,
					Index:         index,
					Total:         signedTotal(nfrmGuess, pass1Truncated),
					Raster:        dst[:min(res.written, len(dst))],
					TrailingBytes: res.trailingBytes,
				}
				if gce.present {
					f.Transparent = gce.transparent
					f.Delay = gce.delay
				}
				if havePrevRect && (prevDisposal == DisposalBackground || prevDisposal == DisposalRestorePrevious) {
					f.PreviousRect = prevRect
					f.HasPreviousRect = true
				}
				if res.recoverable {
					f.RecoverableDecodeError = newTruncatedError(decoded + 1 + opts.Skip)
					opts.warnf()("gifload: frame %d's LZW stream ended without a stop code", index)
				}

				if serr := opts.FrameSink.HandleFrame(f); serr != nil {
					panic(sinkAbort{err: serr})
				}
				decoded++

				prevRect = rect
				prevDisposal = f.Disposal
				havePrevRect = true
			} else {
				skipLZWChain(c)
			}

			if opts.clearGCEAfterUse() {
				gce = gceState{}
			}
			index++

		default:
			c.stop(errStop)
		}
	}
}

// signedTotal renders Frame.Total: negative when the stream as a
// whole is truncated, regardless of how many individual frames
// ultimately got delivered.
func signedTotal(nfrmGuess int, pass1Truncated bool) int {
	if pass1Truncated {
		return -nfrmGuess
	}
	return nfrmGuess
}

// frameRect computes a frame's rectangle, applying the configured
// clip-or-reject choice (Options.ClipFrameBounds) when the descriptor
// claims an area outside the logical screen.
func frameRect(desc imageDescriptor, hdr globalHeader, opts Options) (Rect, bool) {
	r := Rect{X: int(desc.Left), Y: int(desc.Top), Width: int(desc.Width), Height: int(desc.Height)}
	overflowsRight := r.X+r.Width > hdr.Width
	overflowsBottom := r.Y+r.Height > hdr.Height
	if !overflowsRight && !overflowsBottom {
		return r, true
	}
	if !opts.clipFrameBounds() {
		return Rect{}, false
	}
	if overflowsRight {
		r.Width = max(0, hdr.Width-r.X)
	}
	if overflowsBottom {
		r.Height = max(0, hdr.Height-r.Y)
	}
	opts.warnf()("gifload: frame rectangle %dx%d at (%d,%d) clipped to the logical screen", desc.Width, desc.Height, desc.Left, desc.Top)
	return r, true
}

// parseGCE reads a Graphics Control Extension's payload, grounded on
// gif_load.h's GIF_FGCH overlay: a block-size byte (conventionally 4),
// packed flags, a little-endian delay, and a transparent color index,
// followed by whatever sub-blocks remain in the chain (conventionally
// just the zero-length terminator).
func parseGCE(c *cursor) gceState {
	size := int(c.read1())
	var flags byte
	var delay uint16
	var trans byte
	if size >= 4 {
		flags = c.read1()
		delay = c.read2()
		trans = c.read1()
		c.skip(size - 4)
	} else {
		c.skip(size)
	}
	skipSubBlocks(c)

	st := gceState{present: true, delay: int(delay)}
	st.flags = flags
	if flags&0x01 != 0 {
		st.transparent = int(trans)
	} else {
		st.transparent = -1
	}
	return st
}

// deliverApplicationExtension reads and, if opts.MetadataSink is set,
// delivers one application extension block.
func deliverApplicationExtension(c *cursor, hdr globalHeader, index int, opts Options) {
	if opts.MetadataSink == nil {
		skipSubBlocks(c)
		return
	}
	raw := readApplicationPayload(c)
	m := &Metadata{
		ScreenWidth:  hdr.Width,
		ScreenHeight: hdr.Height,
		Index:        index,
		Raw:          raw,
		LoopCount:    -1,
	}
	if opts.ParseNetscapeLoopCount {
		parseNetscapeLoopCount(m)
	}
	if err := opts.MetadataSink.HandleMetadata(m); err != nil {
		panic(sinkAbort{err: err})
	}
}

// parseNetscapeLoopCount implements the NETSCAPE2.0 convenience
// feature supplemented from original_source/gif_load.h's silence on
// the subject (the minimal reference loader does not special-case any
// application extension): identifier "NETSCAPE2.0", one sub-block of
// length 3 whose first byte is 1 and whose remaining two bytes are a
// little-endian loop count (0 meaning "loop forever").
func parseNetscapeLoopCount(m *Metadata) {
	const ident = "NETSCAPE2.0"
	if len(m.Raw) < len(ident)+1+3 {
		return
	}
	if string(m.Raw[:len(ident)]) != ident {
		return
	}
	rest := m.Raw[len(ident):]
	if rest[0] != 3 || rest[1] != 1 {
		return
	}
	m.LoopCount = int(rest[2]) | int(rest[3])<<8
}

// skipLZWChain advances c past a frame's minimum-code-size byte and
// its LZW sub-block chain without decoding it, used when a frame's
// index is below Options.Skip.
func skipLZWChain(c *cursor) {
	c.skip(1)
	skipSubBlocks(c)
}
