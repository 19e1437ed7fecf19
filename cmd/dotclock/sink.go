package main

import (
	"github.com/kettlebyte/dotclock/internal/bus"
	"github.com/kettlebyte/dotclock/internal/dumpfile"
	"github.com/kettlebyte/dotclock/internal/ppu"
)

// recordingSink wraps another ppu.FrameSink and keeps a copy of the most
// recently delivered frame plus a running frame count, so the run command
// can know when to stop and what to snapshot.
type recordingSink struct {
	ppu.FrameSink
	frames int
	last   *[256 * 240]uint16
}

func (s *recordingSink) DeliverFrame(buf *[256 * 240]uint16) {
	s.frames++
	copied := *buf
	s.last = &copied
	s.FrameSink.DeliverFrame(buf)
}

type noopSink struct{}

func (noopSink) StartFrame()                      {}
func (noopSink) DeliverFrame(*[256 * 240]uint16) {}

func preloadVRAM(b *bus.Bus, path string) error {
	raw, err := dumpfile.Load(path)
	if err != nil {
		return err
	}
	for bank := 0; bank < 2; bank++ {
		start := bank * 0x2000
		if start >= len(raw) {
			break
		}
		end := start + 0x2000
		if end > len(raw) {
			end = len(raw)
		}
		for i, v := range raw[start:end] {
			b.WriteVRAM(uint16(i), uint8(bank), v)
		}
	}
	return nil
}

func preloadOAM(b *bus.Bus, path string) error {
	raw, err := dumpfile.Load(path)
	if err != nil {
		return err
	}
	for i, v := range raw {
		if i >= 0xA0 {
			break
		}
		b.WriteOAMUnconditional(uint16(i), v)
	}
	return nil
}
