package weave

import "github.com/muesli/termenv"

// ColorMode tags which representation a Color carries.
type ColorMode uint8

const (
	ColorDefault ColorMode = iota // terminal default fg/bg, emits a reset
	Color16                      // named ANSI 0-15
	Color256                     // 256-color palette index
	ColorRGB                     // 24-bit truecolor
)

// Color is a tagged terminal color value. The zero value is ColorDefault.
type Color struct {
	Mode  ColorMode
	Index uint8 // Color16 (0-15) or Color256 (0-255)
	R, G, B uint8 // ColorRGB
}

// RGB builds a truecolor Color.
func RGB(r, g, b uint8) Color { return Color{Mode: ColorRGB, R: r, G: g, B: b} }

// Indexed builds a 256-color palette Color.
func Indexed(i uint8) Color { return Color{Mode: Color256, Index: i} }

// ANSI builds a named 16-color Color (0-15).
func ANSI(i uint8) Color { return Color{Mode: Color16, Index: i & 0x0F} }

// Standard named colors, matching the classic ANSI 16.
var (
	Black         = ANSI(0)
	Red           = ANSI(1)
	Green         = ANSI(2)
	Yellow        = ANSI(3)
	Blue          = ANSI(4)
	Magenta       = ANSI(5)
	Cyan          = ANSI(6)
	White         = ANSI(7)
	BrightBlack   = ANSI(8)
	BrightRed     = ANSI(9)
	BrightGreen   = ANSI(10)
	BrightYellow  = ANSI(11)
	BrightBlue    = ANSI(12)
	BrightMagenta = ANSI(13)
	BrightCyan    = ANSI(14)
	BrightWhite   = ANSI(15)
)

// downsample degrades a color to the given terminal profile, used by the
// ANSI serializer to pick the shortest correct SGR sequence (spec §6).
func (c Color) downsample(p termenv.Profile) Color {
	switch p {
	case termenv.TrueColor:
		return c
	case termenv.ANSI256:
		if c.Mode == ColorRGB {
			return Indexed(rgbTo256(c.R, c.G, c.B))
		}
		return c
	case termenv.ANSI:
		if c.Mode == ColorRGB {
			return ANSI(rgbTo16(c.R, c.G, c.B))
		}
		if c.Mode == Color256 {
			return ANSI(idx256To16(c.Index))
		}
		return c
	default: // Ascii or unknown: no color at all
		return Color{Mode: ColorDefault}
	}
}

// rgbTo256 maps truecolor into the 6x6x6 color cube; the grayscale ramp is
// not used.
func rgbTo256(r, g, b uint8) uint8 {
	toCube := func(v uint8) int {
		if v < 48 {
			return 0
		}
		if v < 115 {
			return 1
		}
		return (int(v) - 35) / 40
	}
	cr, cg, cb := toCube(r), toCube(g), toCube(b)
	if cr > 5 {
		cr = 5
	}
	if cg > 5 {
		cg = 5
	}
	if cb > 5 {
		cb = 5
	}
	return uint8(16 + 36*cr + 6*cg + cb)
}

// rgbTo16 picks the closest of the 16 named colors by squared distance.
func rgbTo16(r, g, b uint8) uint8 {
	palette := [16][3]uint8{
		{0, 0, 0}, {128, 0, 0}, {0, 128, 0}, {128, 128, 0},
		{0, 0, 128}, {128, 0, 128}, {0, 128, 128}, {192, 192, 192},
		{128, 128, 128}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
		{0, 0, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
	}
	best, bestDist := 0, -1
	for i, p := range palette {
		dr := int(p[0]) - int(r)
		dg := int(p[1]) - int(g)
		db := int(p[2]) - int(b)
		dist := dr*dr + dg*dg + db*db
		if bestDist < 0 || dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return uint8(best)
}

// idx256To16 maps a 256-palette index down to the nearest of the 16 named colors.
func idx256To16(idx uint8) uint8 {
	if idx < 16 {
		return idx
	}
	if idx >= 232 {
		gray := (idx - 232) * 10
		return rgbTo16(gray, gray, gray)
	}
	idx -= 16
	r := (idx / 36) * 51
	g := ((idx / 6) % 6) * 51
	b := (idx % 6) * 51
	return rgbTo16(r, g, b)
}

// AttrFlags is a bitset of text attributes.
type AttrFlags uint8

const (
	AttrBold AttrFlags = 1 << iota
	AttrItalic
	AttrUnderline
	AttrStrikethrough
	AttrDim
	AttrInverse
)

// Has reports whether all the given flags are set.
func (a AttrFlags) Has(f AttrFlags) bool { return a&f == f }

// With returns a copy with the given flags set.
func (a AttrFlags) With(f AttrFlags) AttrFlags { return a | f }

// CellStyle is the minimal per-cell visual style carried by the Output grid.
// It is distinct from the richer node Style (style.go): only what's needed to
// paint and diff a single cell lives here.
type CellStyle struct {
	FG, BG Color
	Attr   AttrFlags
}

// DefaultCellStyle returns the zero style (terminal default colors, no attrs).
func DefaultCellStyle() CellStyle { return CellStyle{} }

// Equal reports whether two styles paint identically.
func (s CellStyle) Equal(o CellStyle) bool {
	return s.FG == o.FG && s.BG == o.BG && s.Attr == o.Attr
}

// wide marks the sentinel rune used for the second column of a width-2 grapheme.
const wide = rune(0)

// Cell is a single position in the Output grid: a rune plus its style.
// A Rune of 0 (wide) marks the placeholder column following a width-2 grapheme.
type Cell struct {
	Rune  rune
	Style CellStyle
}

// EmptyCell returns the blank cell used to clear the grid.
func EmptyCell() Cell { return Cell{Rune: ' '} }

// NewCell builds a styled cell.
func NewCell(r rune, s CellStyle) Cell { return Cell{Rune: r, Style: s} }

// IsPlaceholder reports whether this cell is a wide-character placeholder.
func (c Cell) IsPlaceholder() bool { return c.Rune == wide }
