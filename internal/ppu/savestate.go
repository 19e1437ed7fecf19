package ppu

import "github.com/kettlebyte/dotclock/internal/state"

// Save writes the full PPU state -- registers, fetcher states, FIFO
// contents/positions, sprite scan arrays and drawing cursors -- in a fixed
// field order. Output buffers are deliberately not persisted (spec.md §6).
func (p *PPU) Save(b *state.Blob) {
	b.Write8(p.scanline)
	b.Write16(p.cycle)
	b.Write64(p.frameCount)
	b.Write32(p.idleCycles)
	b.Write8(uint8(p.mode))

	b.WriteBool(p.lcdEnabled)
	b.WriteBool(p.windowTilemapSelect)
	b.WriteBool(p.windowEnabled)
	b.WriteBool(p.bgTileSelect)
	b.WriteBool(p.bgTilemapSelect)
	b.WriteBool(p.largeSprites)
	b.WriteBool(p.spritesEnabled)
	b.WriteBool(p.bgEnabled)

	b.Write8(p.statusRaw)
	b.WriteBool(p.lyCoincidenceFlag)
	b.WriteBool(p.statIRQFlag)
	b.Write8(p.lyCompare)

	b.Write8(p.scrollX)
	b.Write8(p.scrollY)
	b.Write8(p.windowX)
	b.Write8(p.windowY)

	b.Write8(p.bgPalette)
	b.Write8(p.objPalette0)
	b.Write8(p.objPalette1)

	for _, c := range p.cgbBGPalettes {
		b.Write16(c)
	}
	for _, c := range p.cgbOBJPalettes {
		b.Write16(c)
	}
	b.Write8(p.bgPalettePos)
	b.WriteBool(p.bgPaletteInc)
	b.Write8(p.objPalettePos)
	b.WriteBool(p.objPaletteInc)
	b.Write8(p.cgbVRAMBank)

	saveFetcher(b, p.bgFetcher)
	saveFetcher(b, p.objFetcher)
	saveFIFO(b, p.bgFIFO)
	saveFIFO(b, p.objFIFO)

	for i := 0; i < 10; i++ {
		b.Write8(p.sprites.x[i])
		b.Write8(p.sprites.indexes[i])
		b.Write8(p.sprites.oamOrder[i])
	}
	b.Write8(p.sprites.count)
	b.Write32(uint32(p.sprites.prevSprite))

	b.Write16(uint16(p.drawnPixels))
	b.Write8(p.fetchColumn)
	b.WriteBool(p.fetchWindow)
	b.Write32(uint32(p.fetchSprite))
	b.Write8(p.drawingIdle)
	b.Write32(uint32(p.writeIndex))
}

// Load restores a PPU from a Blob written by Save, in the same field order.
func (p *PPU) Load(b *state.Blob) {
	p.scanline = b.Read8()
	p.cycle = b.Read16()
	p.frameCount = b.Read64()
	p.idleCycles = b.Read32()
	p.mode = Mode(b.Read8())

	p.lcdEnabled = b.ReadBool()
	p.windowTilemapSelect = b.ReadBool()
	p.windowEnabled = b.ReadBool()
	p.bgTileSelect = b.ReadBool()
	p.bgTilemapSelect = b.ReadBool()
	p.largeSprites = b.ReadBool()
	p.spritesEnabled = b.ReadBool()
	p.bgEnabled = b.ReadBool()

	p.statusRaw = b.Read8()
	p.lyCoincidenceFlag = b.ReadBool()
	p.statIRQFlag = b.ReadBool()
	p.lyCompare = b.Read8()

	p.scrollX = b.Read8()
	p.scrollY = b.Read8()
	p.windowX = b.Read8()
	p.windowY = b.Read8()

	p.bgPalette = b.Read8()
	p.objPalette0 = b.Read8()
	p.objPalette1 = b.Read8()

	for i := range p.cgbBGPalettes {
		p.cgbBGPalettes[i] = b.Read16()
	}
	for i := range p.cgbOBJPalettes {
		p.cgbOBJPalettes[i] = b.Read16()
	}
	p.bgPalettePos = b.Read8()
	p.bgPaletteInc = b.ReadBool()
	p.objPalettePos = b.Read8()
	p.objPaletteInc = b.ReadBool()
	p.cgbVRAMBank = b.Read8()

	p.bgFetcher = loadFetcher(b)
	p.objFetcher = loadFetcher(b)
	loadFIFO(b, p.bgFIFO)
	loadFIFO(b, p.objFIFO)

	for i := 0; i < 10; i++ {
		p.sprites.x[i] = b.Read8()
		p.sprites.indexes[i] = b.Read8()
		p.sprites.oamOrder[i] = b.Read8()
	}
	p.sprites.count = b.Read8()
	p.sprites.prevSprite = int(b.Read32())

	p.drawnPixels = int16(b.Read16())
	p.fetchColumn = b.Read8()
	p.fetchWindow = b.ReadBool()
	p.fetchSprite = int32(b.Read32())
	p.drawingIdle = b.Read8()
	p.writeIndex = int(b.Read32())
}

func saveFetcher(b *state.Blob, f fetcher) {
	b.Write8(f.step)
	b.Write16(f.addr)
	b.Write8(f.tileIndex)
	b.Write8(f.attributes)
	b.Write8(f.lowByte)
	b.Write8(f.highByte)
}

func loadFetcher(b *state.Blob) fetcher {
	return fetcher{
		step:       b.Read8(),
		addr:       b.Read16(),
		tileIndex:  b.Read8(),
		attributes: b.Read8(),
		lowByte:    b.Read8(),
		highByte:   b.Read8(),
	}
}

func saveFIFO(b *state.Blob, f *ringFIFO) {
	for i := 0; i < 8; i++ {
		b.Write8(f.Data[i].Color)
		b.Write8(f.Data[i].Attributes)
	}
	b.Write8(f.Position())
	b.Write8(f.Size)
}

func loadFIFO(b *state.Blob, f *ringFIFO) {
	var entries [8]FIFOEntry
	for i := 0; i < 8; i++ {
		entries[i] = FIFOEntry{Color: b.Read8(), Attributes: b.Read8()}
	}
	pos := b.Read8()
	size := b.Read8()
	f.Restore(entries, pos, size)
}
