package oamdma

import (
	"testing"

	"github.com/kettlebyte/dotclock/internal/bus"
	"github.com/kettlebyte/dotclock/internal/types"
)

type fakeSource struct{ mem [0x10000]byte }

func (f *fakeSource) ReadByte(addr uint16) byte { return f.mem[addr] }

type fakeSink struct {
	oam       [0xA0]byte
	dmaActive bool
}

func (f *fakeSink) WriteOAMUnconditional(addr uint16, value byte) { f.oam[addr&0xFF] = value }
func (f *fakeSink) SetOAMDMAActive(active bool)                   { f.dmaActive = active }

func TestTransferCopies160BytesOver640Dots(t *testing.T) {
	src := &fakeSource{}
	for i := 0; i < 0xA0; i++ {
		src.mem[0x8000+i] = byte(i + 1)
	}
	sink := &fakeSink{}
	c := New(src, sink)

	c.Write(0x80) // source base 0x8000
	if !sink.dmaActive {
		t.Fatalf("expected DMA to mark itself active immediately on write")
	}

	for i := 0; i < 640; i++ {
		c.Tick()
	}

	if sink.dmaActive {
		t.Fatalf("expected DMA to clear active flag after 640 dots")
	}
	for i := 0; i < 0xA0; i++ {
		if sink.oam[i] != byte(i+1) {
			t.Fatalf("oam[%d] = %d, want %d", i, sink.oam[i], i+1)
		}
	}
}

func TestTransferStopsAfterExactly640Dots(t *testing.T) {
	src := &fakeSource{}
	sink := &fakeSink{}
	c := New(src, sink)
	c.Write(0x00)

	for i := 0; i < 636; i++ {
		c.Tick()
	}
	if !c.IsTransferring() {
		t.Fatalf("expected transfer still in progress before 640 dots")
	}
	c.Tick()
	c.Tick()
	c.Tick()
	c.Tick()
	if c.IsTransferring() {
		t.Fatalf("expected transfer to have finished at 640 dots")
	}
}

func TestEchoRAMSourceIsAliasedToWRAM(t *testing.T) {
	src := &fakeSource{}
	src.mem[0xFE00] = 0 // would read 0 if not aliased
	src.mem[0xFE00&^0x2000] = 0x5A
	sink := &fakeSink{}
	c := New(src, sink)

	c.Write(0xFE) // base 0xFE00, inside echo-RAM range
	for i := 0; i < 4; i++ {
		c.Tick()
	}
	if sink.oam[0] != 0x5A {
		t.Fatalf("oam[0] = %#x, want aliased read 0x5a", sink.oam[0])
	}
}

func TestWriteDuringActiveTransferRestartsFromNewSource(t *testing.T) {
	src := &fakeSource{}
	src.mem[0x1000] = 0x11
	src.mem[0x2000] = 0x22
	sink := &fakeSink{}
	c := New(src, sink)

	c.Write(0x10) // source 0x1000
	for i := 0; i < 4; i++ {
		c.Tick()
	}
	if sink.oam[0] != 0x11 {
		t.Fatalf("first byte = %#x, want 0x11", sink.oam[0])
	}

	c.Write(0x20) // restart from 0x2000
	if !c.IsTransferring() {
		t.Fatalf("restarting write should report as transferring")
	}
	for i := 0; i < 4; i++ {
		c.Tick()
	}
	if sink.oam[0] != 0x22 {
		t.Fatalf("byte after restart = %#x, want 0x22", sink.oam[0])
	}
}

func TestAttachReservesDMARegisterOnBus(t *testing.T) {
	b := bus.New(types.DMGABC, false)
	c := New(&fakeSource{}, &fakeSink{})
	c.Attach(b)

	b.Write(types.DMA, 0x42)
	if got := b.Read(types.DMA); got != 0x42 {
		t.Fatalf("DMA register read back as %#x, want 0x42", got)
	}
}
