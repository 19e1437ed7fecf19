// Package oamdma implements the OAM DMA controller: a CPU-initiated,
// unconditional 160-byte copy into OAM that runs alongside the PPU and
// blocks the CPU's own OAM access for its duration.
package oamdma

import (
	"github.com/kettlebyte/dotclock/internal/bus"
	"github.com/kettlebyte/dotclock/internal/types"
)

// Source is the narrow memory-read contract the DMA controller needs from
// whatever owns the full address space (cartridge, WRAM, VRAM, ...). The PPU
// core itself never implements this -- DMA reads arbitrary addresses, the
// PPU only owns VRAM/OAM/registers.
type Source interface {
	ReadByte(addr uint16) byte
}

// Sink is the bus-side contract for performing the transfer: an
// unconditional OAM write and a flag the bus consults to block CPU OAM
// access for the transfer's duration.
type Sink interface {
	WriteOAMUnconditional(addr uint16, value byte)
	SetOAMDMAActive(active bool)
}

// Controller is the OAM DMA state machine: 4 dots per byte, 640 dots for
// the full 160-byte OAM transfer, grounded on the teacher's DMA.Tick.
type Controller struct {
	source Source
	sink   Sink

	enabled    bool
	restarting bool
	timer      uint
	base       uint16
	value      uint8
}

// New returns a Controller wired to the given memory source and OAM sink.
func New(source Source, sink Sink) *Controller {
	return &Controller{source: source, sink: sink}
}

// Attach reserves the DMA register (0xFF46) on b.
func (c *Controller) Attach(b bus.PPUBus) {
	b.ReserveAddress(types.DMA, func(v byte) byte { c.Write(v); return v })
	b.ReserveLazyReader(types.DMA, c.Read)
}

// Write handles a CPU write to the DMA register (0xFF46): the written byte
// is the high byte of the 256-byte-aligned source address. Starting a new
// transfer while one is already running restarts it from the new source.
func (c *Controller) Write(v uint8) {
	c.value = v
	c.base = uint16(v) << 8
	c.timer = 0
	c.restarting = c.enabled
	c.enabled = true
	c.sink.SetOAMDMAActive(true)
}

// Read returns the last-written DMA register value.
func (c *Controller) Read() uint8 {
	return c.value
}

// Tick advances the DMA controller by one master cycle. It must be driven
// at the same rate as the PPU's dot clock's underlying master clock (i.e.
// not doubled again in double-speed mode beyond however the scheduler
// already doubles PPU.Step).
func (c *Controller) Tick() {
	if !c.enabled {
		return
	}
	c.timer++
	if c.timer%4 != 0 {
		return
	}
	c.restarting = false

	offset := uint16(c.timer-4) >> 2
	source := c.base + offset
	if source >= 0xFE00 && source < 0xFF00 {
		// Echo RAM aliasing: the real address space mirrors OAM-range
		// DMA reads from WRAM.
		source &^= 0x2000
	}
	c.sink.WriteOAMUnconditional(offset, c.source.ReadByte(source))

	if c.timer >= 640 {
		c.enabled = false
		c.timer = 0
		c.sink.SetOAMDMAActive(false)
	}
}

// IsTransferring reports whether a transfer has run past its first 4-dot
// byte slot or has just been restarted, matching the teacher's
// DMA.IsTransferring semantics; it reports false during the first 4 dots of
// a fresh transfer. CPU OAM blocking here follows SetOAMDMAActive instead.
func (c *Controller) IsTransferring() bool {
	return c.timer > 4 || c.restarting
}
