package weave

import "strings"

// cellStyleFrom projects the paintable subset of a node Style onto the
// Output grid's per-cell style.
func cellStyleFrom(s Style) CellStyle {
	return CellStyle{FG: s.FG, BG: s.BG, Attr: s.Attr}
}

// paintElement walks the Element tree in layout order, painting each node
// into the Output: background fill, borders, clipped child content, text
// (spec §4.7 step 6). dx/dy carry accumulated scroll translation from
// ancestors with scroll offsets.
func paintElement(out *Output, engine *Engine, el *Element, dx, dy int) {
	if el.Style.Display == DisplayNone {
		return
	}
	layout, ok := engine.GetLayout(el.id)
	if !ok {
		return
	}
	x, y := layout.X+dx, layout.Y+dy

	switch el.Kind {
	case KindText:
		paintText(out, el, x, y, layout)
		return
	case KindVirtualText:
		return
	}

	st := el.Style
	if st.BG.Mode != ColorDefault {
		out.FillRect(x, y, layout.Width, layout.Height, Cell{Rune: ' ', Style: CellStyle{BG: st.BG}})
	}
	if st.HasBorder() && layout.Width > 0 && layout.Height > 0 {
		paintBorder(out, st, x, y, layout.Width, layout.Height)
	}

	clipChildren := st.OverflowX != OverflowVisible || st.OverflowY != OverflowVisible
	if clipChildren {
		inset := 0
		if st.HasBorder() {
			inset = 1
		}
		out.Clip(Rect{
			X: x + inset,
			Y: y + inset,
			W: layout.Width - 2*inset,
			H: layout.Height - 2*inset,
		})
	}

	childDX, childDY := dx, dy
	if st.OverflowX == OverflowScroll {
		childDX -= el.ScrollX
	}
	if st.OverflowY == OverflowScroll {
		childDY -= el.ScrollY
	}

	for _, child := range el.Children {
		paintElement(out, engine, child, childDX, childDY)
	}

	if clipChildren {
		out.Unclip()
	}
}

// paintBorder draws the four edges with the style's border rune set,
// honoring per-edge color overrides.
func paintBorder(out *Output, st Style, x, y, w, h int) {
	runes := st.Border.Runes()
	edgeStyle := func(c Color) CellStyle {
		s := CellStyle{FG: c, BG: st.BG}
		if c.Mode == ColorDefault {
			s.FG = st.FG
		}
		return s
	}
	top := edgeStyle(st.BorderColors.Top)
	bottom := edgeStyle(st.BorderColors.Bottom)
	left := edgeStyle(st.BorderColors.Left)
	right := edgeStyle(st.BorderColors.Right)

	if h == 1 {
		out.HLine(x, y, w, runes.Horizontal, top)
		return
	}
	if w == 1 {
		out.VLine(x, y, h, runes.Vertical, left)
		return
	}

	out.HLine(x+1, y, w-2, runes.Horizontal, top)
	out.HLine(x+1, y+h-1, w-2, runes.Horizontal, bottom)
	out.VLine(x, y+1, h-2, runes.Vertical, left)
	out.VLine(x+w-1, y+1, h-2, runes.Vertical, right)
	out.WriteChar(x, y, runes.TopLeft, top)
	out.WriteChar(x+w-1, y, runes.TopRight, top)
	out.WriteChar(x, y+h-1, runes.BottomLeft, bottom)
	out.WriteChar(x+w-1, y+h-1, runes.BottomRight, bottom)
}

// paintText renders a text leaf's lines into its layout box, wrapping or
// truncating per the node's TextWrap mode. Lines beyond the box height are
// dropped.
func paintText(out *Output, el *Element, x, y int, layout LayoutResult) {
	style := cellStyleFrom(el.Style)
	lines := textLines(el.Text, layout.Width, el.Style.TextWrap)
	for i, line := range lines {
		if i >= layout.Height {
			break
		}
		out.Write(x, y+i, line, style)
	}
}

// textLines produces the display lines for a text run at a given width.
func textLines(text string, width int, mode TextWrapMode) []string {
	raw := strings.Split(text, "\n")
	if width <= 0 {
		return raw
	}
	var lines []string
	for _, l := range raw {
		switch mode {
		case TextWrapNone:
			lines = append(lines, l)
		case TextWrapTruncate:
			lines = append(lines, truncateToWidth(l, width))
		default:
			lines = append(lines, wrapLine(l, width, mode)...)
		}
	}
	return lines
}
