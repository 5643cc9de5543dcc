package weave

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
)

// colorProfile is the terminal color capability every SGR sequence is
// downsampled to. Terminal.detectProfile overwrites it at startup; tests
// leave it at TrueColor so expected escape bytes are deterministic.
var colorProfile = termenv.TrueColor

// Rect is a clip region in buffer coordinates.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether the point lies inside the rect.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Intersect returns the overlap of two rects (zero-size when disjoint).
func (r Rect) Intersect(o Rect) Rect {
	x1 := maxInt(r.X, o.X)
	y1 := maxInt(r.Y, o.Y)
	x2 := minInt(r.X+r.W, o.X+o.W)
	y2 := minInt(r.Y+r.H, o.Y+o.H)
	if x2 < x1 {
		x2 = x1
	}
	if y2 < y1 {
		y2 = y1
	}
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Output is a row-major grid of styled cells: the paint target of every
// frame. All mutators are total; out-of-bounds writes are silently dropped.
type Output struct {
	cells  []Cell
	width  int
	height int

	dirtyRows []bool
	anyDirty  bool

	clips []Rect
}

// NewOutput creates a cleared grid of the given dimensions.
func NewOutput(width, height int) *Output {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	cells := make([]Cell, width*height)
	empty := EmptyCell()
	for i := range cells {
		cells[i] = empty
	}
	return &Output{
		cells:     cells,
		width:     width,
		height:    height,
		dirtyRows: make([]bool, height),
	}
}

// Width returns the grid width.
func (o *Output) Width() int { return o.width }

// Height returns the grid height.
func (o *Output) Height() int { return o.height }

// InBounds reports whether the coordinates are inside the grid.
func (o *Output) InBounds(x, y int) bool {
	return x >= 0 && x < o.width && y >= 0 && y < o.height
}

func (o *Output) index(x, y int) int { return y*o.width + x }

// Get returns the cell at (x, y), or an empty cell out of bounds.
func (o *Output) Get(x, y int) Cell {
	if !o.InBounds(x, y) {
		return EmptyCell()
	}
	return o.cells[o.index(x, y)]
}

// clipped reports whether a write at (x, y) is masked by the top clip region.
func (o *Output) clipped(x, y int) bool {
	if len(o.clips) == 0 {
		return false
	}
	return !o.clips[len(o.clips)-1].Contains(x, y)
}

// Clip pushes a clip region. Writes outside the intersection of the new
// region with the current one are dropped until Unclip.
func (o *Output) Clip(r Rect) {
	if len(o.clips) > 0 {
		r = o.clips[len(o.clips)-1].Intersect(r)
	}
	o.clips = append(o.clips, r)
}

// Unclip pops the top clip region. Popping an empty stack is a programmer
// error: the clip stack must balance within a frame.
func (o *Output) Unclip() {
	if len(o.clips) == 0 {
		if debugChecks {
			panic("weave: Unclip on empty clip stack")
		}
		return
	}
	o.clips = o.clips[:len(o.clips)-1]
}

// ClipDepth returns the current clip stack depth, checked at frame end.
func (o *Output) ClipDepth() int { return len(o.clips) }

// markDirty records a mutation of row y.
func (o *Output) markDirty(y int) {
	o.dirtyRows[y] = true
	o.anyDirty = true
}

// setCell places a cell maintaining the wide-character invariant: no NUL
// placeholder survives except immediately right of a width-2 rune.
func (o *Output) setCell(x, y int, c Cell) {
	if !o.InBounds(x, y) || o.clipped(x, y) {
		return
	}
	idx := o.index(x, y)
	old := o.cells[idx]

	// Overwriting the lead column of a wide rune orphans its placeholder.
	if runewidth.RuneWidth(old.Rune) == 2 && o.InBounds(x+1, y) {
		if next := o.cells[o.index(x+1, y)]; next.IsPlaceholder() {
			o.cells[o.index(x+1, y)] = Cell{Rune: ' ', Style: next.Style}
		}
	}
	// Overwriting a placeholder orphans the wide rune to its left.
	if old.IsPlaceholder() && o.InBounds(x-1, y) {
		if prev := o.cells[o.index(x-1, y)]; runewidth.RuneWidth(prev.Rune) == 2 {
			o.cells[o.index(x-1, y)] = Cell{Rune: ' ', Style: prev.Style}
		}
	}

	o.cells[idx] = c
	o.markDirty(y)
}

// WriteChar places a single character at (x, y). Width-2 characters claim
// the next column as a placeholder; at the right edge they degrade to a
// space because the second column does not exist.
func (o *Output) WriteChar(x, y int, r rune, style CellStyle) {
	if !o.InBounds(x, y) {
		return
	}
	if runewidth.RuneWidth(r) == 2 {
		if x == o.width-1 || o.clipped(x+1, y) {
			o.setCell(x, y, Cell{Rune: ' ', Style: style})
			return
		}
		o.setCell(x, y, Cell{Rune: r, Style: style})
		o.setCell(x+1, y, Cell{Rune: wide, Style: style})
		return
	}
	o.setCell(x, y, Cell{Rune: r, Style: style})
}

// Write places text left-to-right starting at (x, y), stopping at a newline
// or the right edge.
func (o *Output) Write(x, y int, text string, style CellStyle) {
	cx := x
	for _, r := range text {
		if r == '\n' {
			return
		}
		if cx >= o.width {
			return
		}
		w := runewidth.RuneWidth(r)
		o.WriteChar(cx, y, r, style)
		if w < 1 {
			w = 1
		}
		cx += w
	}
}

// FillRect fills a rectangle with the given cell, clipped to the grid.
func (o *Output) FillRect(x, y, w, h int, c Cell) {
	for row := y; row < y+h; row++ {
		for col := x; col < x+w; col++ {
			o.setCell(col, row, c)
		}
	}
}

// HLine draws a horizontal run of the same rune.
func (o *Output) HLine(x, y, length int, r rune, style CellStyle) {
	for i := 0; i < length; i++ {
		o.setCell(x+i, y, Cell{Rune: r, Style: style})
	}
}

// VLine draws a vertical run of the same rune.
func (o *Output) VLine(x, y, length int, r rune, style CellStyle) {
	for i := 0; i < length; i++ {
		o.setCell(x, y+i, Cell{Rune: r, Style: style})
	}
}

// IsDirty reports whether any cell changed since the last ClearDirty.
func (o *Output) IsDirty() bool { return o.anyDirty }

// IsRowDirty reports whether row y changed since the last ClearDirty.
func (o *Output) IsRowDirty(y int) bool {
	if y < 0 || y >= o.height {
		return false
	}
	return o.dirtyRows[y]
}

// DirtyRowIndices returns the changed rows in ascending order.
func (o *Output) DirtyRowIndices() []int {
	var rows []int
	for y, d := range o.dirtyRows {
		if d {
			rows = append(rows, y)
		}
	}
	return rows
}

// ClearDirty resets all dirty tracking.
func (o *Output) ClearDirty() {
	for i := range o.dirtyRows {
		o.dirtyRows[i] = false
	}
	o.anyDirty = false
}

// rowEnd returns one past the last cell worth emitting on row y: trailing
// unstyled spaces are trimmed.
func (o *Output) rowEnd(y int) int {
	end := o.width
	for end > 0 {
		c := o.cells[o.index(end-1, y)]
		if c.Rune != ' ' || !c.Style.Equal(DefaultCellStyle()) {
			break
		}
		end--
	}
	return end
}

// renderRow emits one row as text plus SGR sequences. Cells sharing a style
// share one opening sequence and one closing reset; default-styled runs emit
// no escape bytes at all. Placeholder cells emit nothing (the wide rune to
// their left already advanced the cursor two columns).
func (o *Output) renderRow(sb *strings.Builder, y, end int) {
	cur := DefaultCellStyle()
	open := false
	for x := 0; x < end; x++ {
		c := o.cells[o.index(x, y)]
		if c.IsPlaceholder() {
			continue
		}
		if !c.Style.Equal(cur) {
			if open {
				sb.WriteString("\x1b[0m")
				open = false
			}
			if !c.Style.Equal(DefaultCellStyle()) {
				sb.WriteString(sgrOpen(c.Style))
				open = true
			}
			cur = c.Style
		}
		sb.WriteRune(c.Rune)
	}
	if open {
		sb.WriteString("\x1b[0m")
	}
}

// ContentHeight returns one past the last row holding any content.
func (o *Output) ContentHeight() int {
	last := o.height
	for last > 0 && o.rowEnd(last-1) == 0 {
		last--
	}
	return last
}

// Render serializes the grid, trimming trailing empty cells per row and
// trailing empty rows, with CRLF row separators (raw mode needs CR+LF).
func (o *Output) Render() string {
	last := o.height
	for last > 0 && o.rowEnd(last-1) == 0 {
		last--
	}
	var sb strings.Builder
	for y := 0; y < last; y++ {
		if y > 0 {
			sb.WriteString("\r\n")
		}
		o.renderRow(&sb, y, o.rowEnd(y))
	}
	return sb.String()
}

// RenderFixedHeight serializes every row, never trimming trailing empty
// rows. Inline mode depends on the line count staying constant.
func (o *Output) RenderFixedHeight() string {
	var sb strings.Builder
	for y := 0; y < o.height; y++ {
		if y > 0 {
			sb.WriteString("\r\n")
		}
		o.renderRow(&sb, y, o.rowEnd(y))
	}
	return sb.String()
}

// RenderRow serializes a single row, trimming trailing empty cells like
// Render, used by the inline emitter when only some rows changed.
func (o *Output) RenderRow(y int) string {
	if y < 0 || y >= o.height {
		return ""
	}
	var sb strings.Builder
	o.renderRow(&sb, y, o.rowEnd(y))
	return sb.String()
}

// sgrOpen builds the opening SGR sequence for a non-default style, using
// the shortest correct encoding for the active color profile.
func sgrOpen(s CellStyle) string {
	var sb strings.Builder
	sb.WriteString("\x1b[0")
	if s.Attr.Has(AttrBold) {
		sb.WriteString(";1")
	}
	if s.Attr.Has(AttrDim) {
		sb.WriteString(";2")
	}
	if s.Attr.Has(AttrItalic) {
		sb.WriteString(";3")
	}
	if s.Attr.Has(AttrUnderline) {
		sb.WriteString(";4")
	}
	if s.Attr.Has(AttrInverse) {
		sb.WriteString(";7")
	}
	if s.Attr.Has(AttrStrikethrough) {
		sb.WriteString(";9")
	}
	writeSGRColor(&sb, s.FG.downsample(colorProfile), true)
	writeSGRColor(&sb, s.BG.downsample(colorProfile), false)
	sb.WriteByte('m')
	return sb.String()
}

func writeSGRColor(sb *strings.Builder, c Color, fg bool) {
	switch c.Mode {
	case ColorDefault:
		// The leading reset already restored default colors.
	case Color16:
		base := 30
		if !fg {
			base = 40
		}
		if c.Index >= 8 {
			base += 60
			writeSGRInt(sb, base+int(c.Index-8))
		} else {
			writeSGRInt(sb, base+int(c.Index))
		}
	case Color256:
		if fg {
			sb.WriteString(";38;5")
		} else {
			sb.WriteString(";48;5")
		}
		writeSGRInt(sb, int(c.Index))
	case ColorRGB:
		if fg {
			sb.WriteString(";38;2")
		} else {
			sb.WriteString(";48;2")
		}
		writeSGRInt(sb, int(c.R))
		writeSGRInt(sb, int(c.G))
		writeSGRInt(sb, int(c.B))
	}
}

func writeSGRInt(sb *strings.Builder, n int) {
	sb.WriteByte(';')
	if n >= 100 {
		sb.WriteByte(byte('0' + n/100))
	}
	if n >= 10 {
		sb.WriteByte(byte('0' + (n/10)%10))
	}
	sb.WriteByte(byte('0' + n%10))
}
