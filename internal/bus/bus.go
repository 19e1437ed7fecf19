// Package bus provides the PPU's narrow view of the memory-mapped I/O
// surface: VRAM, OAM, and the register file. The PPU never owns the rest of
// the machine; it is handed a Bus borrow for its lifetime and talks to the
// CPU/DMA/console collaborators only through this interface.
package bus

import (
	"fmt"

	"github.com/kettlebyte/dotclock/internal/types"
)

// WriteHandler receives a register write and returns the value that should
// actually be latched into the backing byte (allowing a handler to mask
// bits, e.g. STAT's top bit always reading 1).
type WriteHandler func(byte) byte

// PPUBus is the interface the PPU core depends on. A concrete Bus satisfies
// it; tests may substitute a smaller fake.
type PPUBus interface {
	ReserveAddress(addr uint16, handler WriteHandler)
	ReserveLazyReader(addr uint16, reader func() byte)
	Get(addr uint16) byte
	Set(addr uint16, value byte)

	ReadVRAM(addr uint16, bank uint8) byte
	WriteVRAM(addr uint16, bank uint8, value byte)
	ReadOAM(addr uint16) byte

	LockVRAM()
	UnlockVRAM()
	LockOAM()
	UnlockOAM()
	AllowOAMWriteWindow(allow bool)

	IsGBC() bool
	IsGBCCart() bool
	Model() types.Model

	RaiseInterrupt(flag byte)
}

// Bus is the concrete PPUBus implementation: 16KiB of VRAM (two 8KiB banks,
// the second only meaningful in colour mode), 160 bytes of OAM, and the
// 128-byte I/O register window the PPU shares with the rest of the machine.
//
// CPU-side register accesses go through Read/Write. CPU-side VRAM and OAM
// accesses go through ReadVRAMCPU/WriteVRAMCPU/ReadOAMCPU/WriteOAMCPU, which
// apply the mode-gating rules; the OAM DMA controller writes through the
// WriteOAMUnconditional escape.
type Bus struct {
	registers [0x80]byte
	handlers  [0x80]WriteHandler
	readers   [0x80]func() byte

	vram [2][0x2000]byte
	oam  [0xA0]byte

	vramLocked      bool
	oamLocked       bool
	oamWriteWindow  bool
	oamDMAActive    bool

	model    types.Model
	gbcCart  bool

	interruptFlag byte
}

// New returns a Bus with power-on register defaults applied by the caller
// (see ppu.New for the PPU's own defaults).
func New(model types.Model, gbcCart bool) *Bus {
	return &Bus{model: model, gbcCart: gbcCart}
}

func (b *Bus) ReserveAddress(addr uint16, handler WriteHandler) {
	idx := addr - 0xFF00
	if b.handlers[idx] != nil {
		panic(fmt.Sprintf("bus: address %04X already reserved", addr))
	}
	b.handlers[idx] = handler
}

func (b *Bus) ReserveLazyReader(addr uint16, reader func() byte) {
	b.readers[addr-0xFF00] = reader
}

// Get returns the raw backing byte for a register, bypassing any lazy
// reader. Used by the PPU to read its own register fields.
func (b *Bus) Get(addr uint16) byte {
	return b.registers[addr-0xFF00]
}

// Set writes the raw backing byte directly, bypassing write handlers. Used
// by the PPU to publish LY and similar read-only-to-the-CPU fields.
func (b *Bus) Set(addr uint16, value byte) {
	b.registers[addr-0xFF00] = value
}

// Write is the CPU-facing register write entry point.
func (b *Bus) Write(addr uint16, value byte) {
	idx := addr - 0xFF00
	if h := b.handlers[idx]; h != nil {
		b.registers[idx] = h(value)
		return
	}
	b.registers[idx] = value
}

// Read is the CPU-facing register read entry point.
func (b *Bus) Read(addr uint16) byte {
	idx := addr - 0xFF00
	if r := b.readers[idx]; r != nil {
		return r()
	}
	return b.registers[idx]
}

func (b *Bus) ReadVRAM(addr uint16, bank uint8) byte {
	return b.vram[bank&1][addr&0x1FFF]
}

func (b *Bus) WriteVRAM(addr uint16, bank uint8, value byte) {
	b.vram[bank&1][addr&0x1FFF] = value
}

func (b *Bus) ReadOAM(addr uint16) byte {
	return b.oam[addr&0xFF]
}

func (b *Bus) LockVRAM()   { b.vramLocked = true }
func (b *Bus) UnlockVRAM() { b.vramLocked = false }
func (b *Bus) LockOAM()    { b.oamLocked = true }
func (b *Bus) UnlockOAM()  { b.oamLocked = false }

// AllowOAMWriteWindow toggles the narrow DMG quirk (cycle 80..83 of a
// visible line) in which OAM writes are accepted despite OAM otherwise
// being locked for the CPU.
func (b *Bus) AllowOAMWriteWindow(allow bool) { b.oamWriteWindow = allow }

// ReadVRAMCPU and WriteVRAMCPU are the CPU-facing, mode-gated VRAM
// accessors (0x8000-0x9FFF).
func (b *Bus) ReadVRAMCPU(addr uint16) byte {
	if b.vramLocked {
		return 0xFF
	}
	bank := uint8(0)
	if b.model.IsColour() {
		bank = b.Get(types.VBK) & 1
	}
	return b.ReadVRAM(addr-0x8000, bank)
}

func (b *Bus) WriteVRAMCPU(addr uint16, value byte) {
	if b.vramLocked {
		return
	}
	bank := uint8(0)
	if b.model.IsColour() {
		bank = b.Get(types.VBK) & 1
	}
	b.WriteVRAM(addr-0x8000, bank, value)
}

// ReadOAMCPU and WriteOAMCPU are the CPU-facing, mode-gated OAM accessors
// (0xFE00-0xFE9F).
func (b *Bus) ReadOAMCPU(addr uint16) byte {
	if b.oamLocked || b.oamDMAActive {
		return 0xFF
	}
	return b.oam[addr&0xFF]
}

func (b *Bus) WriteOAMCPU(addr uint16, value byte) {
	if b.oamDMAActive {
		return
	}
	if !b.oamLocked || b.oamWriteWindow {
		b.oam[addr&0xFF] = value
	}
}

// WriteOAMUnconditional is used by the OAM DMA controller, which bypasses
// CPU gating entirely.
func (b *Bus) WriteOAMUnconditional(addr uint16, value byte) {
	b.oam[addr&0xFF] = value
}

// SetOAMDMAActive marks whether an OAM DMA transfer currently owns the OAM
// bus, blocking CPU OAM access regardless of PPU mode.
func (b *Bus) SetOAMDMAActive(active bool) { b.oamDMAActive = active }

func (b *Bus) IsGBC() bool     { return b.model.IsColour() }
func (b *Bus) IsGBCCart() bool { return b.gbcCart }
func (b *Bus) Model() types.Model { return b.model }

// RaiseInterrupt sets the requested bit in the IF register.
func (b *Bus) RaiseInterrupt(flag byte) {
	b.interruptFlag |= flag
	b.registers[types.IF-0xFF00] = b.interruptFlag
}
