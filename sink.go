// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package gifload

// DisposalMode tells the caller what to do with the canvas after a
// frame is displayed and before the next one is drawn.
type DisposalMode int

const (
	// DisposalNone leaves the canvas untouched (the default, used by
	// the vast majority of GIFs that carry no GCE or a GCE whose
	// blend-mode bits are "not set").
	DisposalNone DisposalMode = 0
	// DisposalKeep explicitly leaves the result as-is.
	DisposalKeep DisposalMode = 1
	// DisposalBackground clears the frame rectangle to the
	// background color before drawing the next frame.
	DisposalBackground DisposalMode = 2
	// DisposalRestorePrevious restores the canvas to whatever it
	// looked like before this frame was drawn.
	DisposalRestorePrevious DisposalMode = 3
)

func (d DisposalMode) String() string {
	switch d {
	case DisposalNone:
		return "None"
	case DisposalKeep:
		return "Keep"
	case DisposalBackground:
		return "Background"
	case DisposalRestorePrevious:
		return "RestorePrevious"
	default:
		return "DisposalMode(unknown)"
	}
}

// Rect is an offset and size within the logical screen.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Frame is the per-frame record delivered to a FrameSink. Its
// payload pointers (Palette, Raster) are only valid for the duration
// of the HandleFrame call; a sink that needs to retain pixel data
// past the call must copy it.
type Frame struct {
	// ScreenWidth and ScreenHeight are the logical screen dimensions
	// from the global header, constant across all frames of a GIF.
	ScreenWidth, ScreenHeight int

	// Palette is the active palette for this frame (local if the
	// frame carries one, global otherwise), as RGB triplets.
	Palette []byte
	// PaletteSize is the number of colors in Palette (len(Palette)/3).
	PaletteSize int

	// Background is the background color index from the global
	// header.
	Background int
	// Transparent is the transparent color index from the most
	// recently remembered GCE, or -1 if none applies.
	Transparent int

	// Disposal is the disposal mode that applies after this frame is
	// displayed, i.e. before the next one is drawn.
	Disposal DisposalMode
	// PreviousRect is the rectangle of the immediately preceding
	// delivered frame, populated only when that preceding frame's
	// Disposal requires compositing against it (DisposalBackground,
	// DisposalRestorePrevious). It is the zero Rect otherwise.
	PreviousRect Rect
	// HasPreviousRect reports whether PreviousRect is meaningful.
	HasPreviousRect bool

	// Interlace reports whether this frame's raster rows were
	// delivered in GIF's four-pass interlaced order. The decoder does
	// not deinterlace; a caller that wants progressive-order pixels
	// must do so itself using the standard offsets {0,4,2,1} and
	// strides {8,8,4,2}.
	Interlace bool

	// Rect is this frame's offset and size within the logical screen.
	Rect Rect

	// Delay is the frame delay in 10ms units from the most recently
	// remembered GCE, or 0 if none applies.
	Delay int

	// Index is the zero-based index of this frame in stream order.
	Index int
	// Total is the total frame count known so far: negative if the
	// input was truncated (see TruncatedError), positive otherwise.
	Total int

	// Raster holds at most Rect.Width*Rect.Height decoded color
	// indices (fewer when RecoverableDecodeError is set), row-major
	// within the frame rectangle (or in four-pass
	// interlaced row order if Interlace is set; the decoder does not
	// reorder them). It is not pre-placed onto a logical-screen-sized
	// canvas at Rect's offset: compositing frames onto a shared canvas
	// across Rect and Disposal is the caller's responsibility; this
	// package decodes pixels, it does not composite animations. The
	// backing array is owned by the Load call and reused for the next
	// frame; a sink that needs to retain pixels past its call must
	// copy them.
	Raster []byte

	// RecoverableDecodeError, when non-nil, reports that this frame's
	// LZW stream ended without a stop code. The raster still holds
	// whatever pixels were produced before the stream ran out; the
	// frame is valid and decoding continues with the next frame.
	RecoverableDecodeError error
	// TrailingBytes reports that data followed the stop code inside
	// the frame's sub-block chain. The frame decoded cleanly; this is
	// informational only.
	TrailingBytes bool
}

// Metadata is the record delivered to a MetadataSink once per
// application-extension block encountered, regardless of the Skip
// threshold.
type Metadata struct {
	// ScreenWidth and ScreenHeight mirror Frame's fields.
	ScreenWidth, ScreenHeight int
	// Index is the running frame index at the point this extension
	// was encountered (the index of the next frame to be decoded).
	Index int

	// Raw holds the 11-byte application identifier/authentication
	// header followed by the extension's own sub-block chain,
	// including the chain's terminating zero-length byte. The sink
	// must walk the chain itself; the decoder does not interpret it.
	Raw []byte

	// LoopCount is populated only when Options.ParseNetscapeLoopCount
	// is set and the application identifier is "NETSCAPE2.0" with a
	// well-formed 3-byte loop-count sub-block. It is -1 otherwise.
	LoopCount int
}

// FrameSink receives one call per successfully decoded frame with
// index >= Options.Skip, in strictly increasing Index order. A
// non-nil return aborts the walk; Load then returns that error.
type FrameSink interface {
	HandleFrame(f *Frame) error
}

// MetadataSink receives one call per application-extension block
// encountered, interleaved in stream order with frame sink calls,
// including for frames below the skip threshold. A non-nil return
// aborts the walk.
type MetadataSink interface {
	HandleMetadata(m *Metadata) error
}

// FrameSinkFunc adapts a function to a FrameSink.
type FrameSinkFunc func(f *Frame) error

// HandleFrame implements FrameSink.
func (fn FrameSinkFunc) HandleFrame(f *Frame) error { return fn(f) }

// MetadataSinkFunc adapts a function to a MetadataSink.
type MetadataSinkFunc func(m *Metadata) error

// HandleMetadata implements MetadataSink.
func (fn MetadataSinkFunc) HandleMetadata(m *Metadata) error { return fn(m) }
