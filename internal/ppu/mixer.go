package ppu

// monochromeShades is the fixed 4-entry RGB555 table the monochrome model's
// palette registers index into. Per the worked example in spec.md §8
// scenario 2, a palette byte's color-id N selects the shade in bits
// (3-N)*2..(3-N)*2+1 -- most-significant pair first.
var monochromeShades = [4]uint16{
	0x7FFF, // color id's shade 0: white
	0x56B5, // shade 1: light gray
	0x294A, // shade 2: dark gray
	0x0000, // shade 3: black
}

// stepDrawing runs one dot of the Drawing mode: the window latch, the
// mixer's pixel pop, the sprite-preemption scan, and finally clocking
// whichever fetcher should run this dot. Order matches spec.md §4.5/§4.4.
func (p *PPU) stepDrawing() {
	if p.updateWindowLatch() {
		return
	}

	if p.fetchSprite < 0 && p.bgFIFO.Size > 0 {
		p.mixPixel()
		if p.drawnPixels >= 160 {
			p.mode = HBlank
			p.bus.UnlockVRAM()
			p.bus.UnlockOAM()
			return
		}
	}

	p.scanForSpritePreemption()

	if p.drawingIdle > 0 {
		p.drawingIdle--
		return
	}

	if p.fetchSprite >= 0 {
		if p.bgFetcher.step >= 5 && p.bgFIFO.Size >= 1 {
			p.clockBGFetcher()
		}
		p.clockOBJFetcher()
	} else {
		p.clockBGFetcher()
	}
}

// updateWindowLatch recomputes fetch_window at the start of each Drawing
// dot. On a flip it resets the BG fetcher and reports that this dot should
// be idled.
func (p *PPU) updateWindowLatch() bool {
	next := p.windowEnabled && p.drawnPixels >= int16(p.windowX)-7 && p.scanline >= p.windowY
	if next == p.fetchWindow {
		return false
	}
	p.fetchWindow = next
	p.bgFetcher.reset()
	p.bgFIFO.Reset()
	p.fetchColumn = 0
	return true
}

func (p *PPU) mixPixel() {
	bg := *p.bgFIFO.GetIndex(0)
	var sp FIFOEntry
	spValid := p.objFIFO.Size > 0
	if spValid {
		sp = *p.objFIFO.GetIndex(0)
	}

	// On the colour model a cleared LCDC bit 0 either gives sprites master
	// priority over the background (CGBMasterPriority) or blanks the
	// background to colour 0.
	spriteOverBG := false
	if p.bus.IsGBC() && !p.bgEnabled {
		if p.CGBMasterPriority {
			spriteOverBG = true
		} else {
			bg.Color = 0
		}
	}

	var color uint16
	if spValid && sp.Color != 0 && (bg.Color == 0 || sp.Attributes&0x80 == 0 || spriteOverBG) {
		color = p.lookupColor(sp, true)
	} else {
		color = p.lookupColor(bg, false)
	}

	if p.drawnPixels >= 0 && p.drawnPixels < 160 {
		p.writePixel(uint16(p.scanline)*bufferStride+uint16(p.drawnPixels), color)
	}

	p.bgFIFO.Pop()
	if spValid {
		p.objFIFO.Pop()
	}
	p.drawnPixels++
}

func (p *PPU) lookupColor(e FIFOEntry, sprite bool) uint16 {
	if p.bus.IsGBC() {
		idx := uint16(e.Color) | uint16(e.Attributes&0x07)<<2
		if sprite {
			return p.cgbOBJPalettes[idx]
		}
		return p.cgbBGPalettes[idx]
	}

	var reg uint8
	switch {
	case sprite && e.Attributes&0x10 != 0:
		reg = p.objPalette1
	case sprite:
		reg = p.objPalette0
	default:
		reg = p.bgPalette
	}
	shade := (reg >> ((3 - e.Color) * 2)) & 0x03
	return monochromeShades[shade]
}
