// Package ppu implements the pixel processing unit: the per-dot state
// machine that turns VRAM/OAM contents and a handful of control registers
// into a 160x144 frame, cycle-accurately enough that mid-scanline register
// writes land on the correct pixel.
package ppu

import (
	"github.com/kettlebyte/dotclock/internal/bus"
	"github.com/kettlebyte/dotclock/internal/types"
	"github.com/kettlebyte/dotclock/pkg/log"
	"github.com/kettlebyte/dotclock/pkg/ring"
)

const (
	dotsPerScanline   = 456
	scanlinesPerFrame = 154
	visibleScanlines  = 144
	dotsPerFrame      = dotsPerScanline * scanlinesPerFrame

	bufferStride = 256
	bufferHeight = 240

	colorWhite uint16 = 0x7FFF

	irqVBlank  = types.Bit0
	irqLCDStat = types.Bit1
)

// FrameSink receives the events the PPU publishes: a StartFrame at the
// beginning of each frame (including the blank frames emitted while the LCD
// is disabled) and a DeliverFrame once a frame's pixels are complete. The
// buffer passed to DeliverFrame is only valid for the duration of the call;
// implementations that need to retain it must copy.
type FrameSink interface {
	StartFrame()
	DeliverFrame(buf *[bufferStride * bufferHeight]uint16)
}

type nullSink struct{}

func (nullSink) StartFrame()                                       {}
func (nullSink) DeliverFrame(*[bufferStride * bufferHeight]uint16) {}

// PPU is the pixel processing unit core. It owns nothing that outlives it;
// the bus, log sink and frame sink are all borrowed for its lifetime.
type PPU struct {
	bus  bus.PPUBus
	log  log.Logger
	sink FrameSink

	// Open-question test knobs (see DESIGN.md). Defaults match the spec's
	// recommended resolution of each open question.
	PairedSpriteSort   bool
	OAMScanOnOddCycles bool
	CGBMasterPriority  bool

	// Cycle counters.
	scanline   uint8
	cycle      uint16
	frameCount uint64
	idleCycles uint32 // dots accumulated while lcdEnabled is false

	mode Mode

	// Control register (LCDC) bits.
	lcdEnabled          bool
	windowTilemapSelect bool
	windowEnabled       bool
	bgTileSelect        bool
	bgTilemapSelect     bool
	largeSprites        bool
	spritesEnabled      bool
	bgEnabled           bool

	// Status register (STAT) bits.
	statusRaw         uint8 // masked to bits 6..3, the IRQ-enable bits
	lyCoincidenceFlag bool
	statIRQFlag       bool
	lyCompare         uint8

	scrollX, scrollY uint8
	windowX, windowY uint8

	bgPalette   uint8
	objPalette0 uint8
	objPalette1 uint8

	cgbBGPalettes  [32]uint16
	cgbOBJPalettes [32]uint16
	bgPalettePos   uint8
	bgPaletteInc   bool
	objPalettePos  uint8
	objPaletteInc  bool

	cgbVRAMBank uint8

	bgFetcher  fetcher
	objFetcher fetcher

	bgFIFO  *ring.FIFO[FIFOEntry]
	objFIFO *ring.FIFO[FIFOEntry]

	sprites spriteScan

	drawnPixels int16
	fetchColumn uint8
	fetchWindow bool
	fetchSprite int32 // OAM byte offset being fetched, or -1
	drawingIdle uint8 // dots of fetcher idle remaining after entering Drawing

	buffers    [2][bufferStride * bufferHeight]uint16
	writeIndex int // which of buffers the PPU is currently painting
}

// Option configures a PPU at construction time.
type Option func(*PPU)

// WithSink attaches a frame sink. Without one, frames are computed but not
// delivered anywhere (useful for headless tests).
func WithSink(sink FrameSink) Option {
	return func(p *PPU) { p.sink = sink }
}

// WithLogger attaches a logger; the default is the null logger.
func WithLogger(l log.Logger) Option {
	return func(p *PPU) { p.log = l }
}

// New constructs a PPU wired to b, applies the power-on register defaults
// from the register map, and reserves its addresses on the bus.
func New(b bus.PPUBus, opts ...Option) *PPU {
	p := &PPU{
		bus:                b,
		log:                log.NewNullLogger(),
		sink:               nullSink{},
		PairedSpriteSort:   true,
		OAMScanOnOddCycles: true,
		CGBMasterPriority:  true,
		bgFIFO:             ring.NewFIFO[FIFOEntry](8),
		objFIFO:            ring.NewFIFO[FIFOEntry](8),
		fetchSprite:        -1,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.reset()
	p.reserveRegisters()
	return p
}

// reset applies the power-on register values from the register map's
// "Initial register values" entry.
func (p *PPU) reset() {
	p.lcdEnabled = true
	p.bgEnabled = true
	p.windowTilemapSelect = false
	p.windowEnabled = false
	p.bgTileSelect = true
	p.bgTilemapSelect = false
	p.largeSprites = false
	p.spritesEnabled = true

	p.scrollX, p.scrollY = 0, 0
	p.lyCompare = 0
	p.bgPalette = 0xFC
	p.objPalette0 = 0xFF
	p.objPalette1 = 0xFF
	p.windowY, p.windowX = 0, 0

	p.scanline = 0
	p.cycle = 4
	p.mode = HBlank
	p.fetchSprite = -1
	p.writeIndex = 0
}

func (p *PPU) reserveRegisters() {
	p.bus.ReserveAddress(types.LCDC, p.writeLCDC)
	p.bus.ReserveAddress(types.STAT, p.writeSTAT)
	p.bus.ReserveLazyReader(types.STAT, p.readSTAT)
	p.bus.ReserveAddress(types.SCY, func(v byte) byte { p.scrollY = v; return v })
	p.bus.ReserveAddress(types.SCX, func(v byte) byte { p.scrollX = v; return v })
	p.bus.ReserveAddress(types.LYC, func(v byte) byte { p.lyCompare = v; return v })
	p.bus.ReserveLazyReader(types.LY, func() byte { return p.scanline })
	p.bus.ReserveAddress(types.LY, func(v byte) byte { return p.scanline }) // read-only: CPU writes are discarded
	p.bus.ReserveAddress(types.BGP, func(v byte) byte { p.bgPalette = v; return v })
	p.bus.ReserveAddress(types.OBP0, func(v byte) byte { p.objPalette0 = v; return v })
	p.bus.ReserveAddress(types.OBP1, func(v byte) byte { p.objPalette1 = v; return v })
	p.bus.ReserveAddress(types.WY, func(v byte) byte { p.windowY = v; return v })
	p.bus.ReserveAddress(types.WX, func(v byte) byte { p.windowX = v; return v })

	p.bus.ReserveAddress(types.VBK, func(v byte) byte {
		if !p.bus.IsGBC() {
			return 0xFF
		}
		p.cgbVRAMBank = v & 1
		return v | 0xFE
	})

	p.bus.ReserveAddress(types.BCPS, p.writeBCPS)
	p.bus.ReserveAddress(types.BCPD, p.writeBCPD)
	p.bus.ReserveLazyReader(types.BCPD, p.readBCPD)
	p.bus.ReserveAddress(types.OCPS, p.writeOCPS)
	p.bus.ReserveAddress(types.OCPD, p.writeOCPD)
	p.bus.ReserveLazyReader(types.OCPD, p.readOCPD)
}

func (p *PPU) writeLCDC(v byte) byte {
	wasEnabled := p.lcdEnabled
	p.lcdEnabled = v&types.Bit7 != 0
	p.windowTilemapSelect = v&types.Bit6 != 0
	p.windowEnabled = v&types.Bit5 != 0
	p.bgTileSelect = v&types.Bit4 != 0
	p.bgTilemapSelect = v&types.Bit3 != 0
	p.largeSprites = v&types.Bit2 != 0
	p.spritesEnabled = v&types.Bit1 != 0
	p.bgEnabled = v&types.Bit0 != 0

	if wasEnabled && !p.lcdEnabled {
		p.cycle = 0
		p.scanline = 0
		p.mode = HBlank
		p.emitBlankFrame()
	} else if !wasEnabled && p.lcdEnabled {
		p.cycle = 4
		p.scanline = 0
		p.mode = HBlank
		p.idleCycles = 0
	}
	return v
}

func (p *PPU) writeSTAT(v byte) byte {
	p.statusRaw = v & 0x78
	return p.readSTAT()
}

func (p *PPU) readSTAT() byte {
	v := byte(0x80) | p.statusRaw | byte(p.mode)
	if p.lyCoincidenceFlag {
		v |= types.Bit2
	}
	return v
}

// Step advances the PPU by exactly one dot. See spec.md §4.1 for the
// landmark/sub-unit/coincidence/IRQ ordering this method preserves.
func (p *PPU) Step() {
	if !p.lcdEnabled {
		p.idleCycles++
		if p.idleCycles > dotsPerFrame {
			p.idleCycles = 0
			p.emitBlankFrame()
		}
		return
	}

	p.cycle++
	p.applyLandmarks()

	switch p.mode {
	case OamEvaluation:
		p.stepOAMScan()
	case Drawing:
		p.stepDrawing()
	}

	p.updateCoincidence()
	p.updateStatIRQ()
}

func (p *PPU) applyLandmarks() {
	switch {
	case p.cycle == 4 && p.scanline < visibleScanlines:
		p.mode = OamEvaluation
		p.sprites.count = 0
		p.sprites.prevSprite = 0
		p.bus.LockOAM()
		p.bus.AllowOAMWriteWindow(false)
	case p.cycle == 4 && p.scanline == visibleScanlines:
		p.mode = VBlank
		p.bus.UnlockOAM()
		p.bus.RaiseInterrupt(irqVBlank)
		p.endFrame()
	case p.cycle == 80 && p.scanline < visibleScanlines:
		// The write window is a DMG-only OAM contention quirk (see
		// DESIGN.md); CGB's stricter OAM bus arbitration never opens it.
		if !p.bus.IsGBC() {
			p.bus.AllowOAMWriteWindow(true)
		}
	case p.cycle == 84 && p.scanline < visibleScanlines:
		p.sortSprites()
		p.mode = Drawing
		p.bus.LockVRAM()
		p.bus.AllowOAMWriteWindow(false)
		p.resetRenderer()
	case p.cycle == dotsPerScanline:
		p.cycle = 0
		p.scanline++
		if p.scanline == scanlinesPerFrame {
			p.scanline = 0
			p.sink.StartFrame()
		}
		if p.scanline < visibleScanlines {
			p.mode = HBlank
			p.bus.UnlockOAM()
			p.bus.UnlockVRAM()
		} else {
			p.mode = VBlank
		}
	}
}

// resetRenderer is called once, at the OamEvaluation->Drawing landmark.
func (p *PPU) resetRenderer() {
	p.drawnPixels = -8 - int16(p.scrollX%8)
	p.fetchColumn = p.scrollX / 8
	p.bgFetcher.reset()
	p.bgFIFO.Reset()
	// Latch a dummy full row so the 8 pre-roll discard-pops at the start of
	// the line consume junk; only the scrollX%8 discards that follow come
	// out of the first real fetched tile.
	p.bgFIFO.Size = 8
	p.objFetcher.reset()
	p.objFIFO.Reset()
	p.fetchSprite = -1
	p.fetchWindow = false
	p.drawingIdle = 89 - 84
}

func (p *PPU) endFrame() {
	p.frameCount++
	buf := p.buffers[p.writeIndex]
	p.writeIndex = 1 - p.writeIndex
	p.sink.DeliverFrame(&buf)
}

func (p *PPU) emitBlankFrame() {
	p.sink.StartFrame()
	buf := &p.buffers[p.writeIndex]
	for i := range buf {
		buf[i] = colorWhite
	}
	p.frameCount++
	delivered := *buf
	p.sink.DeliverFrame(&delivered)
}

func (p *PPU) writePixel(offset uint16, color uint16) {
	p.buffers[p.writeIndex][offset] = color
}
