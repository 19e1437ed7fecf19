package ppu

// clockBGFetcher advances the background/window fetcher by one dot. The
// micro-sequence is indexed 0..5 with the fetch work landing on the
// odd-numbered steps (the even steps model the second half of each 2-dot
// VRAM access); steps 6/7 attempt the push and hold at 7 if the FIFO hasn't
// drained yet.
func (p *PPU) clockBGFetcher() {
	switch p.bgFetcher.step {
	case 1:
		p.fetchBGTile()
	case 3:
		p.bgFetcher.lowByte = p.bus.ReadVRAM(p.bgTileDataAddr(), p.bgFetchBank())
	case 5:
		p.bgFetcher.highByte = p.bus.ReadVRAM(p.bgTileDataAddr()+1, p.bgFetchBank())
	}

	if p.bgFetcher.step >= 6 {
		if p.bgFIFO.Size == 0 {
			p.pushBGRow()
			p.bgFetcher.step = 0
		} else {
			p.bgFetcher.step = 7
		}
		return
	}
	p.bgFetcher.step++
}

// fetchBGTile is micro-step 1: compute the tilemap address for the current
// column/row and latch the tile index (and, on the color model, the
// co-located attribute byte from VRAM bank 1).
func (p *PPU) fetchBGTile() {
	var base uint16
	var row uint16
	if p.fetchWindow {
		base = 0x1800
		if p.windowTilemapSelect {
			base = 0x1C00
		}
		row = uint16(p.scanline-p.windowY) / 8
	} else {
		base = 0x1800
		if p.bgTilemapSelect {
			base = 0x1C00
		}
		row = (uint16(p.scrollY) + uint16(p.scanline)) / 8 % 256
	}

	addr := base + uint16(p.fetchColumn) + row*32
	p.bgFetcher.addr = addr
	p.bgFetcher.tileIndex = p.bus.ReadVRAM(addr, 0)
	if p.bus.IsGBC() {
		p.bgFetcher.attributes = p.bus.ReadVRAM(addr, 1)
	} else {
		p.bgFetcher.attributes = 0
	}
}

// bgTileDataAddr computes the tile-row byte address for the low bitplane
// fetch; the high bitplane is the following byte.
func (p *PPU) bgTileDataAddr() uint16 {
	var yOffset uint8
	if p.fetchWindow {
		yOffset = p.scanline - p.windowY
	} else {
		yOffset = p.scrollY + p.scanline
	}
	tileY := yOffset % 8
	if p.bgFetcher.attributes&0x40 != 0 { // vertical mirror
		tileY = 7 - tileY
	}

	var tileAddr int
	if p.bgTileSelect {
		tileAddr = int(p.bgFetcher.tileIndex) * 16
	} else {
		tileAddr = 0x1000 + int(int8(p.bgFetcher.tileIndex))*16
	}
	return uint16(tileAddr) + uint16(tileY)*2
}

func (p *PPU) bgFetchBank() uint8 {
	if !p.bus.IsGBC() {
		return 0
	}
	return (p.bgFetcher.attributes >> 3) & 1
}

// pushBGRow is micro-steps 6/7's successful path: interleave the two
// latched bitplane bytes into 8 FIFO entries, honoring the attribute's
// horizontal-mirror bit, and zero every pixel when bg_enabled is false (on
// the monochrome model only -- see spec.md's open question on the color
// model's treatment of this bit).
func (p *PPU) pushBGRow() {
	hflip := p.bgFetcher.attributes&0x20 != 0
	zeroed := !p.bus.IsGBC() && !p.bgEnabled

	for i := 0; i < 8; i++ {
		bit := 7 - i
		if hflip {
			bit = i
		}
		lo := (p.bgFetcher.lowByte >> bit) & 1
		hi := (p.bgFetcher.highByte >> bit) & 1
		color := lo | hi<<1
		if zeroed {
			color = 0
		}
		p.bgFIFO.Push(FIFOEntry{Color: color, Attributes: p.bgFetcher.attributes})
	}
	p.fetchColumn = (p.fetchColumn + 1) % 32
}
