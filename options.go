// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package gifload

// Options configures a Load call. Every field except FrameSink may be
// left at its zero value; Load defaults each unset field before use
// via a nil-check-then-default idiom.
type Options struct {
	// FrameSink receives one call per decoded frame. Mandatory: Load
	// returns an error if it is nil, for any well-formed input.
	FrameSink FrameSink

	// MetadataSink, if set, receives one call per application
	// extension block encountered. Optional.
	MetadataSink MetadataSink

	// Skip is the number of leading frames to parse but not deliver
	// to FrameSink, used to resume decoding of a buffer that grew
	// since a previous truncated call. Must be >= 0.
	Skip int

	// Warnf, if set, is called for recoverable conditions: a missing
	// stop code, trailing bytes after a stop code, or a frame
	// rectangle clipped to the logical screen. Defaults to a no-op.
	Warnf func(format string, args ...any)

	// ClearGCEAfterUse controls GCE stickiness: when true (the
	// default), the remembered Graphics Control Extension is
	// cleared after it is applied to a frame, so a later frame with no
	// GCE of its own sees the zero defaults (delay 0, transparent -1,
	// disposal None). When false, the GCE remains in effect for
	// subsequent frames until overwritten, matching the original C
	// source's behavior.
	ClearGCEAfterUse *bool

	// ClipFrameBounds controls out-of-bounds frames: when true (the
	// default), a frame rectangle that extends past the logical
	// screen is clipped to fit. When false, such a frame is treated
	// as a fatal per-frame error.
	ClipFrameBounds *bool

	// ParseNetscapeLoopCount, when true, additionally populates
	// Metadata.LoopCount for application extensions identified as
	// "NETSCAPE2.0". The raw bytes are still delivered to
	// MetadataSink either way.
	ParseNetscapeLoopCount bool

	// Allocator supplies the raster buffer used during extraction; the
	// LZW dictionary scratch is pooled separately inside the package.
	// Defaults to the package's pooled allocator.
	Allocator Allocator
}

func (o *Options) warnf() func(string, ...any) {
	if o.Warnf != nil {
		return o.Warnf
	}
	return func(string, ...any) {}
}

func (o *Options) clearGCEAfterUse() bool {
	if o.ClearGCEAfterUse != nil {
		return *o.ClearGCEAfterUse
	}
	return true
}

func (o *Options) clipFrameBounds() bool {
	if o.ClipFrameBounds != nil {
		return *o.ClipFrameBounds
	}
	return true
}

func (o *Options) allocator() Allocator {
	if o.Allocator != nil {
		return o.Allocator
	}
	return defaultAllocator
}
