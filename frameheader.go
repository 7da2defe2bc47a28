// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package gifload

const (
	flagPalettePresent  = 0x80 // GIF_FPAL: global-palette / local-palette bit
	flagInterlace       = 0x40 // GIF_FINT: frame-header interlace bit
	flagPaletteSizeBits = 0x07
)

// imageDescriptor is the frame image block's fixed-size header,
// following gif_load.h's GIF_FHDR: left/top offset, width/height,
// packed flags (local-palette bit, interlace bit, sort bit, palette-
// size exponent).
type imageDescriptor struct {
	Left, Top     uint16
	Width, Height uint16
	Flags         byte
}

func (h imageDescriptor) hasLocalPalette() bool {
	return h.Flags&flagPalettePresent != 0
}

func (h imageDescriptor) interlaced() bool {
	return h.Flags&flagInterlace != 0
}

func (h imageDescriptor) paletteSize() int {
	return 2 << (h.Flags & flagPaletteSizeBits)
}

// parseImageDescriptor reads the 9-byte frame descriptor at c's
// current position, grounded on GIF_LoadFrameHeader's struct overlay
// of GIF_FHDR, byte-by-byte through the cursor instead.
func parseImageDescriptor(c *cursor) imageDescriptor {
	return imageDescriptor{
		Left:   c.read2(),
		Top:    c.read2(),
		Width:  c.read2(),
		Height: c.read2(),
		Flags:  c.read1(),
	}
}

// resolvePalette picks the palette a frame should decode against: a
// local palette if the frame carries one, the global palette
// otherwise. It advances c past a local palette if present.
// colorCount is 0 when no palette is available at all (neither local
// nor global), which makes the frame undecodable since there is no
// way to map its color indices to colors.
func resolvePalette(c *cursor, hdr imageDescriptor, globalFlags byte, globalPalette []byte) (palette []byte, colorCount int) {
	if hdr.hasLocalPalette() {
		n := hdr.paletteSize()
		return c.bytes(n * 3), n
	}
	if globalFlags&flagPalettePresent != 0 {
		return globalPalette, len(globalPalette) / 3
	}
	return nil, 0
}
