package weave

import "github.com/charmbracelet/lipgloss"

// DimensionKind tags how a Dimension should be resolved against its
// containing block.
type DimensionKind uint8

const (
	DimAuto DimensionKind = iota
	DimLength
	DimPercent
)

// Dimension is a CSS-flexbox-flavored length: auto, an absolute cell count,
// or a percentage of the containing block.
type Dimension struct {
	Kind  DimensionKind
	Value float32 // cells for DimLength, 0-100 for DimPercent
}

// Auto is the zero-value "let content decide" dimension.
var Auto = Dimension{Kind: DimAuto}

// Length builds an absolute-cell-count dimension.
func Length(v float32) Dimension { return Dimension{Kind: DimLength, Value: v} }

// Percent builds a percentage-of-container dimension.
func Percent(v float32) Dimension { return Dimension{Kind: DimPercent, Value: v} }

// Resolve computes a concrete cell count given the containing-block size.
// auto resolves to -1 (caller must fall back to content size).
func (d Dimension) Resolve(containing int) int {
	switch d.Kind {
	case DimLength:
		return int(d.Value)
	case DimPercent:
		return int(float32(containing) * d.Value / 100)
	default:
		return -1
	}
}

// FlexDirection is the main axis of a container's children.
type FlexDirection uint8

const (
	FlexColumn FlexDirection = iota
	FlexRow
)

// FlexWrap controls whether children wrap onto new lines.
type FlexWrap uint8

const (
	WrapNoWrap FlexWrap = iota
	WrapWrap
)

// Align is shared by align-items / align-self.
type Align uint8

const (
	AlignStart Align = iota
	AlignCenter
	AlignEnd
	AlignStretch
)

// Justify controls main-axis distribution (justify-content).
type Justify uint8

const (
	JustifyStart Justify = iota
	JustifyCenter
	JustifyEnd
	JustifySpaceBetween
	JustifySpaceAround
)

// PositionMode is relative (participates in flow) or absolute (taken out of
// flow, positioned via Inset).
type PositionMode uint8

const (
	PositionRelative PositionMode = iota
	PositionAbsolute
)

// Display toggles whether a subtree participates in layout at all.
type Display uint8

const (
	DisplayFlex Display = iota
	DisplayNone
)

// Overflow controls how a container treats content that exceeds its box.
type Overflow uint8

const (
	OverflowVisible Overflow = iota
	OverflowHidden
	OverflowScroll
)

// TextWrapMode controls how Text leaves wrap their content.
type TextWrapMode uint8

const (
	TextWrapWord TextWrapMode = iota
	TextWrapNone
	TextWrapTruncate
)

// Edges is a four-sided inset (padding, margin, inset).
type Edges struct {
	Top, Right, Bottom, Left Dimension
}

// UniformEdges builds an Edges with the same value on all four sides.
func UniformEdges(v float32) Edges {
	d := Length(v)
	return Edges{Top: d, Right: d, Bottom: d, Left: d}
}

// EdgeColors carries an optional per-edge border color override.
type EdgeColors struct {
	Top, Right, Bottom, Left Color
}

// BorderKind selects which rune set paintBorder (paint.go) uses.
type BorderKind uint8

const (
	BorderNone BorderKind = iota
	BorderSingle
	BorderRounded
	BorderDouble
	BorderThick
)

// BorderRunes is the concrete character set for one BorderKind, derived from
// lipgloss.Border tables (see borderRuneSets below).
type BorderRunes struct {
	Horizontal, Vertical                       rune
	TopLeft, TopRight, BottomLeft, BottomRight rune
}

func runeOf(s string, fallback rune) rune {
	for _, r := range s {
		return r
	}
	return fallback
}

// fromLipgloss converts a lipgloss.Border (whose fields are strings, usually
// one rune each) into our rune-based BorderRunes.
func fromLipgloss(b lipgloss.Border) BorderRunes {
	return BorderRunes{
		Horizontal:  runeOf(b.Top, '─'),
		Vertical:    runeOf(b.Left, '│'),
		TopLeft:     runeOf(b.TopLeft, '┌'),
		TopRight:    runeOf(b.TopRight, '┐'),
		BottomLeft:  runeOf(b.BottomLeft, '└'),
		BottomRight: runeOf(b.BottomRight, '┘'),
	}
}

// borderRuneSets maps each BorderKind to its rune table, built once from lipgloss.
var borderRuneSets = map[BorderKind]BorderRunes{
	BorderSingle:  fromLipgloss(lipgloss.NormalBorder()),
	BorderRounded: fromLipgloss(lipgloss.RoundedBorder()),
	BorderDouble:  fromLipgloss(lipgloss.DoubleBorder()),
	BorderThick:   fromLipgloss(lipgloss.ThickBorder()),
}

// Runes resolves a BorderKind to its rune table. BorderNone returns the zero value.
func (k BorderKind) Runes() BorderRunes {
	return borderRuneSets[k]
}

// Style is the immutable, pure-value visual/layout description carried by a
// VNode's Props (spec §3 "Style"). Methods return modified copies; nothing
// mutates in place.
type Style struct {
	FG, BG Color
	Attr   AttrFlags

	Border       BorderKind
	BorderColors EdgeColors

	Padding Edges
	Margin  Edges

	Width, Height       Dimension
	MinWidth, MinHeight Dimension
	MaxWidth, MaxHeight Dimension

	Direction  FlexDirection
	FlexGrow   float32
	FlexShrink float32
	FlexBasis  Dimension
	Wrap       FlexWrap

	AlignItems Align
	AlignSelf  Align
	Justify    Justify

	Position PositionMode
	Inset    Edges

	Display Display

	OverflowX, OverflowY Overflow

	TextWrap TextWrapMode

	Gap    float32
	RowGap, ColumnGap *float32 // nil = use Gap

	Static bool
}

// DefaultStyle returns the spec-mandated defaults: shrink 1.0, no border
// (borders are opt-in; a set BorderKind paints all four edges), column
// direction.
func DefaultStyle() Style {
	return Style{
		FlexShrink: 1.0,
		Border:     BorderNone,
		Width:      Auto,
		Height:     Auto,
		MinWidth:   Auto,
		MinHeight:  Auto,
		MaxWidth:   Auto,
		MaxHeight:  Auto,
		FlexBasis:  Auto,
		Direction:  FlexColumn,
	}
}

// HasBorder reports whether this style paints any border edge.
func (s Style) HasBorder() bool { return s.Border != BorderNone }

// rowGap resolves the effective row gap (column-direction spacing).
func (s Style) rowGap() float32 {
	if s.RowGap != nil {
		return *s.RowGap
	}
	return s.Gap
}

// columnGap resolves the effective column gap (row-direction spacing).
func (s Style) columnGap() float32 {
	if s.ColumnGap != nil {
		return *s.ColumnGap
	}
	return s.Gap
}

// flexConstraints is the subset of Style the layout engine actually consumes,
// produced by ToFlex. Kept distinct from Style so FlexNode doesn't need to
// know about overflow/static, which are pipeline/paint concerns; textWrap is
// carried because Text measurement depends on it.
type flexConstraints struct {
	direction            FlexDirection
	width, height        Dimension
	minWidth, minHeight  Dimension
	maxWidth, maxHeight  Dimension
	grow, shrink         float32
	basis                Dimension
	wrap                 FlexWrap
	alignItems, alignSelf Align
	justify              Justify
	position             PositionMode
	inset                Edges
	display              Display
	padding, margin      Edges
	borderWidth          int // 0 or 1; border is never thicker than one cell
	rowGap, columnGap    float32
	textWrap             TextWrapMode
}

// ToFlex maps a Style to the layout engine's constraint shape (spec §4.2).
func (s Style) ToFlex() flexConstraints {
	borderWidth := 0
	if s.HasBorder() {
		borderWidth = 1
	}
	return flexConstraints{
		direction:   s.Direction,
		width:       s.Width,
		height:      s.Height,
		minWidth:    s.MinWidth,
		minHeight:   s.MinHeight,
		maxWidth:    s.MaxWidth,
		maxHeight:   s.MaxHeight,
		grow:        s.FlexGrow,
		shrink:      s.FlexShrink,
		basis:       s.FlexBasis,
		wrap:        s.Wrap,
		alignItems:  s.AlignItems,
		alignSelf:   s.AlignSelf,
		justify:     s.Justify,
		position:    s.Position,
		inset:       s.Inset,
		display:     s.Display,
		padding:     s.Padding,
		margin:      s.Margin,
		borderWidth: borderWidth,
		rowGap:      s.rowGap(),
		columnGap:   s.columnGap(),
		textWrap:    s.TextWrap,
	}
}

// Equal reports whether two styles are identical (used by the reconciler's
// Props comparison, spec §4.4 step 3). Written field-by-field because RowGap/
// ColumnGap are pointers: we need value equality, not pointer identity.
func (s Style) Equal(o Style) bool {
	if !floatPtrEqual(s.RowGap, o.RowGap) || !floatPtrEqual(s.ColumnGap, o.ColumnGap) {
		return false
	}
	s.RowGap, s.ColumnGap = nil, nil
	o.RowGap, o.ColumnGap = nil, nil
	return s == o
}

func floatPtrEqual(a, b *float32) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// --- Builder methods ---------------------------------------------------
//
// All builders return a modified copy; Style values never mutate in place.

// Foreground sets the text color.
func (s Style) Foreground(c Color) Style { s.FG = c; return s }

// Background sets the fill color.
func (s Style) Background(c Color) Style { s.BG = c; return s }

// Bold sets the bold attribute.
func (s Style) Bold() Style { s.Attr = s.Attr.With(AttrBold); return s }

// Italic sets the italic attribute.
func (s Style) Italic() Style { s.Attr = s.Attr.With(AttrItalic); return s }

// Underline sets the underline attribute.
func (s Style) Underline() Style { s.Attr = s.Attr.With(AttrUnderline); return s }

// Dim sets the dim attribute.
func (s Style) Dim() Style { s.Attr = s.Attr.With(AttrDim); return s }

// WithBorder sets the border rune set used on all four edges.
func (s Style) WithBorder(k BorderKind) Style { s.Border = k; return s }

// WithBorderColor sets the same border color on every edge.
func (s Style) WithBorderColor(c Color) Style {
	s.BorderColors = EdgeColors{Top: c, Right: c, Bottom: c, Left: c}
	return s
}

// WithPadding sets uniform padding.
func (s Style) WithPadding(v float32) Style { s.Padding = UniformEdges(v); return s }

// WithMargin sets uniform margin.
func (s Style) WithMargin(v float32) Style { s.Margin = UniformEdges(v); return s }

// WithWidth sets a fixed width in cells.
func (s Style) WithWidth(v float32) Style { s.Width = Length(v); return s }

// WithHeight sets a fixed height in cells.
func (s Style) WithHeight(v float32) Style { s.Height = Length(v); return s }

// WithWidthPercent sets a percentage width.
func (s Style) WithWidthPercent(v float32) Style { s.Width = Percent(v); return s }

// WithHeightPercent sets a percentage height.
func (s Style) WithHeightPercent(v float32) Style { s.Height = Percent(v); return s }

// Grow sets the flex-grow factor.
func (s Style) Grow(v float32) Style { s.FlexGrow = v; return s }

// Shrink sets the flex-shrink factor.
func (s Style) Shrink(v float32) Style { s.FlexShrink = v; return s }

// Row switches the main axis to horizontal.
func (s Style) Row() Style { s.Direction = FlexRow; return s }

// Column switches the main axis to vertical.
func (s Style) Column() Style { s.Direction = FlexColumn; return s }

// WithGap sets the spacing between children on both axes.
func (s Style) WithGap(v float32) Style { s.Gap = v; return s }

// WithJustify sets main-axis distribution.
func (s Style) WithJustify(j Justify) Style { s.Justify = j; return s }

// WithAlignItems sets cross-axis alignment of children.
func (s Style) WithAlignItems(a Align) Style { s.AlignItems = a; return s }

// Hidden removes the subtree from layout.
func (s Style) Hidden() Style { s.Display = DisplayNone; return s }

// Scrollable enables vertical scroll clipping.
func (s Style) Scrollable() Style { s.OverflowY = OverflowScroll; return s }

// ClipOverflow hides content beyond the box on both axes.
func (s Style) ClipOverflow() Style {
	s.OverflowX = OverflowHidden
	s.OverflowY = OverflowHidden
	return s
}

// WithTextWrap sets the text wrapping mode for Text leaves.
func (s Style) WithTextWrap(m TextWrapMode) Style { s.TextWrap = m; return s }

// AsStatic marks the subtree for one-time scrollback commit.
func (s Style) AsStatic() Style { s.Static = true; return s }

// Absolute takes the node out of flow, positioned by inset.
func (s Style) Absolute(inset Edges) Style {
	s.Position = PositionAbsolute
	s.Inset = inset
	return s
}
