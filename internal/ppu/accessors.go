package ppu

// Mode returns the PPU's current mode, primarily for diagnostics and tests.
func (p *PPU) Mode() Mode { return p.mode }

// Scanline returns the current LY value (0..153).
func (p *PPU) Scanline() uint8 { return p.scanline }

// Cycle returns the current dot within the scanline (0..455).
func (p *PPU) Cycle() uint16 { return p.cycle }

// FrameCount returns the number of frames emitted so far.
func (p *PPU) FrameCount() uint64 { return p.frameCount }

// Coincidence reports the most recently evaluated LY=LYC flag.
func (p *PPU) Coincidence() bool { return p.lyCoincidenceFlag }

// DrawnPixels exposes the fine-X-aware horizontal drawing cursor, mostly
// useful for tests asserting the pre-roll discard window.
func (p *PPU) DrawnPixels() int16 { return p.drawnPixels }
