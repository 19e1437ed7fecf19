package ppu

import "github.com/kettlebyte/dotclock/pkg/ring"

// ringFIFO is the concrete FIFO instantiation the PPU's pixel queues use;
// aliased here so save-state code doesn't repeat the type parameter.
type ringFIFO = ring.FIFO[FIFOEntry]

// fetcher is the shared shape of the background/window fetcher and the
// sprite fetcher: a 6-step micro-sequence (with 6/7 as push/hold states)
// that reads a tile row out of VRAM two bytes at a time.
type fetcher struct {
	step       uint8
	addr       uint16
	tileIndex  uint8
	attributes uint8
	lowByte    uint8
	highByte   uint8
}

func (f *fetcher) reset() {
	f.step = 0
}

// FIFOEntry is one pixel sitting in a FIFO: its 2-bit color id and the
// attribute byte it was fetched with (palette index, VRAM bank, horizontal
// mirror, BG-over-sprite priority), needed at pop time for the mixer.
type FIFOEntry struct {
	Color      uint8
	Attributes uint8
}

// spriteScan holds the result of OAM evaluation for the current scanline:
// up to 10 selected sprites, in the order the mixer should trigger their
// fetch (ascending X, OAM index as tiebreak).
type spriteScan struct {
	x          [10]uint8
	indexes    [10]uint8 // OAM byte offset (slot*4) of each selected sprite
	oamOrder   [10]uint8 // OAM scan order, used as the sort tiebreak
	count      uint8
	prevSprite int // cursor into x/indexes during Drawing
}
