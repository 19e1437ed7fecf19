package ppu

// scanForSpritePreemption looks for the next selected sprite whose trigger
// column has arrived (x-8 == drawn_pixels) and latches it as fetchSprite,
// preempting the BG fetcher. Runs every dot in Drawing, before clocking
// either fetcher.
func (p *PPU) scanForSpritePreemption() {
	if p.fetchSprite >= 0 || !p.spritesEnabled {
		return
	}
	for p.sprites.prevSprite < int(p.sprites.count) {
		i := p.sprites.prevSprite
		trigger := int16(p.sprites.x[i]) - 8
		if trigger == p.drawnPixels {
			p.fetchSprite = int32(p.sprites.indexes[i])
			p.objFetcher.reset()
			p.sprites.prevSprite++
			return
		}
		if trigger < p.drawnPixels {
			// Already passed (can happen when sprites were disabled
			// while its column went by); don't fetch it.
			p.sprites.prevSprite++
			continue
		}
		return
	}
}

// clockOBJFetcher advances the sprite fetcher by one dot. Structurally
// identical to the BG fetcher's 6-step sequence, but there is no hold state:
// the overlay always succeeds on the same dot the high byte lands.
func (p *PPU) clockOBJFetcher() {
	switch p.objFetcher.step {
	case 1:
		p.fetchOBJTile()
	case 3:
		p.objFetcher.lowByte = p.bus.ReadVRAM(p.objFetcher.addr, p.objFetchBank())
	case 5:
		p.objFetcher.highByte = p.bus.ReadVRAM(p.objFetcher.addr+1, p.objFetchBank())
		p.overlayOBJRow()
		p.fetchSprite = -1
		p.objFetcher.step = 0
		return
	}
	p.objFetcher.step++
}

func (p *PPU) fetchOBJTile() {
	base := uint16(p.fetchSprite)
	y := p.bus.ReadOAM(base)
	tile := p.bus.ReadOAM(base + 2)
	attrs := p.bus.ReadOAM(base + 3)

	height := uint8(8)
	if p.largeSprites {
		height = 16
		tile &= 0xFE
	}

	spriteRow := p.scanline - (y - 16)
	if attrs&0x40 != 0 { // vertical mirror
		spriteRow = height - 1 - spriteRow
	}

	p.objFetcher.addr = uint16(tile)*16 + uint16(spriteRow)*2
	p.objFetcher.attributes = attrs
}

func (p *PPU) objFetchBank() uint8 {
	if !p.bus.IsGBC() {
		return 0
	}
	return (p.objFetcher.attributes >> 3) & 1
}

// overlayOBJRow implements the first-sprite-wins overlay rule: an existing
// FIFO slot is replaced only when its color is 0 and the new pixel is not.
// If sprites are disabled the fetch is cancelled here without writing any
// pixels, matching spec.md §4.4.
func (p *PPU) overlayOBJRow() {
	if !p.spritesEnabled {
		return
	}
	// Extend to a full 8 entries before overlaying: a second overlapping
	// sprite's fetch may land while the first sprite's row is only
	// partially drained, and the newly exposed tail slots must read as
	// background (color 0) rather than stale ring-buffer contents.
	for p.objFIFO.Size < 8 {
		p.objFIFO.Push(FIFOEntry{})
	}

	hflip := p.objFetcher.attributes&0x20 != 0
	for i := 0; i < 8; i++ {
		bit := 7 - i
		if hflip {
			bit = i
		}
		lo := (p.objFetcher.lowByte >> bit) & 1
		hi := (p.objFetcher.highByte >> bit) & 1
		color := lo | hi<<1

		existing := p.objFIFO.GetIndex(i)
		if existing.Color == 0 && color != 0 {
			p.objFIFO.ReplaceIndex(i, FIFOEntry{Color: color, Attributes: p.objFetcher.attributes})
		}
	}
}
