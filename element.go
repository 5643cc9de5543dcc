package weave

// ElementKind tags what an Element/VNode represents (spec §3 "Element").
type ElementKind uint8

const (
	KindRoot ElementKind = iota
	KindBox
	KindText
	KindVirtualText
)

// elementID is a process-unique identifier minted for every Element built
// during a render pass, used to answer layout lookups by element identity
// (spec §4.3 "element_key_map").
type elementID uint64

var nextElementID elementID

func newElementID() elementID {
	nextElementID++
	return nextElementID
}

// Element is the author-visible tree node returned by a component function.
// Elements are discarded at the end of every frame; cross-frame identity is
// established by NodeKey (spec §3 "Element" lifecycle).
type Element struct {
	id    elementID
	Kind  ElementKind
	Style Style
	Text  string // only meaningful when Kind == KindText

	Key      any // optional author-supplied key, any comparable value
	Children []*Element

	ScrollX, ScrollY int
}

// NewElement allocates an Element with a fresh process-unique id.
func NewElement(kind ElementKind) *Element {
	return &Element{id: newElementID(), Kind: kind, Style: DefaultStyle()}
}

// Box creates a container element with the given children.
func Box(style Style, children ...*Element) *Element {
	e := NewElement(KindBox)
	e.Style = style
	e.Children = children
	return e
}

// Txt creates a text leaf element.
func Txt(content string, style Style) *Element {
	e := NewElement(KindText)
	e.Style = style
	e.Text = content
	return e
}

// RootElement wraps a tree under a synthetic Root node, the expected input
// to the layout engine and reconciler.
func RootElement(children ...*Element) *Element {
	e := NewElement(KindRoot)
	e.Children = children
	return e
}

// WithKey attaches an author-supplied key used for reconciliation identity.
func (e *Element) WithKey(key any) *Element {
	e.Key = key
	return e
}

// WithScroll sets the element's scroll offsets.
func (e *Element) WithScroll(x, y int) *Element {
	e.ScrollX, e.ScrollY = x, y
	return e
}
