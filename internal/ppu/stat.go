package ppu

// updateCoincidence recomputes the LY=LYC flag every dot, including the
// special-cased scanline 153 windows from spec.md §4.6.
func (p *PPU) updateCoincidence() {
	var coincidence bool
	switch {
	case p.scanline < 153:
		coincidence = p.lyCompare == p.scanline && (p.cycle >= 4 || p.scanline == 0)
	case p.lyCompare == 153:
		coincidence = p.cycle >= 4 && p.cycle < 8
	default:
		coincidence = p.lyCompare == 0 && p.cycle >= 12
	}
	p.lyCoincidenceFlag = coincidence
}

// updateStatIRQ computes the STAT interrupt level as the OR of its four
// conditions and requests the interrupt only on a 0->1 edge.
func (p *PPU) updateStatIRQ() {
	const (
		coincidenceIRQ = 1 << 6
		oamIRQ         = 1 << 5
		vblankIRQ      = 1 << 4
		hblankIRQ      = 1 << 3
	)

	level := p.lcdEnabled && ((p.lyCoincidenceFlag && p.statusRaw&coincidenceIRQ != 0) ||
		(p.mode == HBlank && p.statusRaw&hblankIRQ != 0) ||
		(p.mode == OamEvaluation && p.statusRaw&oamIRQ != 0) ||
		(p.mode == VBlank && p.statusRaw&(vblankIRQ|oamIRQ) != 0))

	if level && !p.statIRQFlag {
		p.bus.RaiseInterrupt(irqLCDStat)
	}
	p.statIRQFlag = level
}
