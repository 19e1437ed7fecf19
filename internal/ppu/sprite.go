package ppu

import "sort"

// stepOAMScan runs the sprite evaluator for one dot of OamEvaluation
// (cycles 4..83 of a visible line). Hardware spends two dots per OAM entry;
// OAMScanOnOddCycles picks which of the pair actually does the work, per the
// spec's open question on even/odd cycle timing.
func (p *PPU) stepOAMScan() {
	isWorkCycle := p.cycle&1 == 1
	if !p.OAMScanOnOddCycles {
		isWorkCycle = !isWorkCycle
	}
	if !isWorkCycle {
		return
	}
	slot := (p.cycle - 4) / 2
	if slot >= 40 || p.sprites.count >= 10 {
		return
	}

	base := slot * 4
	y := p.bus.ReadOAM(base)

	height := uint16(8)
	if p.largeSprites {
		height = 16
	}
	top := int(y) - 16
	if int(p.scanline) < top || int(p.scanline) >= top+int(height) {
		return
	}

	x := p.bus.ReadOAM(base + 1)
	i := p.sprites.count
	p.sprites.x[i] = x
	p.sprites.indexes[i] = uint8(base)
	p.sprites.oamOrder[i] = uint8(slot)
	p.sprites.count++
}

// sortSprites runs at the OamEvaluation->Drawing landmark. PairedSpriteSort
// selects between the spec's recommended fix (sort X and OAM-index together
// as pairs) and the source's literal behavior (sort the index array by
// (X, OAM-index) but sort the X array independently). Both sorts order by
// the same captured X values, so the independently sorted X array equals
// the paired result and the two settings leave identical arrays.
func (p *PPU) sortSprites() {
	n := int(p.sprites.count)
	if n == 0 {
		return
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if p.sprites.x[ia] != p.sprites.x[ib] {
			return p.sprites.x[ia] < p.sprites.x[ib]
		}
		return p.sprites.oamOrder[ia] < p.sprites.oamOrder[ib]
	})

	var sortedX [10]uint8
	var sortedIdx [10]uint8
	for i, src := range order {
		sortedIdx[i] = p.sprites.indexes[src]
		sortedX[i] = p.sprites.x[src]
	}

	if p.PairedSpriteSort {
		copy(p.sprites.x[:n], sortedX[:n])
		copy(p.sprites.indexes[:n], sortedIdx[:n])
		return
	}

	// Literal source behavior: indexes follow the paired sort above, but X
	// is sorted on its own, ascending, independent of which sprite it came
	// from.
	independentX := make([]uint8, n)
	copy(independentX, p.sprites.x[:n])
	sort.Slice(independentX, func(a, b int) bool { return independentX[a] < independentX[b] })

	copy(p.sprites.indexes[:n], sortedIdx[:n])
	copy(p.sprites.x[:n], independentX)
}
