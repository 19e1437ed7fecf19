package types

import "strings"

// Model identifies which console variant the PPU is emulating. The only
// distinction that matters to the PPU core is the one-bit capability split
// between the monochrome and color lines (see Model.IsColour), queried from
// the bus collaborator rather than encoded as a type parameter.
type Model int

const (
	Unset  Model = iota // behaves as DMGABC
	DMG0                // early monochrome model, Japan only
	DMGABC              // standard monochrome model
	CGB0                // early colour model, Japan only
	CGBABC              // standard colour model
)

var modelNames = map[Model]string{
	Unset:  "Unset",
	DMG0:   "DMG0",
	DMGABC: "DMG",
	CGB0:   "CGB0",
	CGBABC: "CGB",
}

func (m Model) String() string {
	if n, ok := modelNames[m]; ok {
		return n
	}
	return "Unknown"
}

// IsColour reports whether the model is one of the colour variants.
func (m Model) IsColour() bool {
	return m == CGB0 || m == CGBABC
}

// StringToModel converts a case-insensitive model name to a Model, returning
// Unset if the name is not recognised.
func StringToModel(s string) Model {
	s = strings.ToUpper(s)
	for m, n := range modelNames {
		if n == s {
			return m
		}
	}
	return Unset
}
