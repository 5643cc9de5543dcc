package weave

import (
	"fmt"
	"hash/fnv"
	"strconv"
)

// staticExtractor pulls static-marked subtrees out of the dynamic tree so
// they can be committed to scrollback exactly once (spec §4.9). Fingerprints
// of committed content persist across frames; identical static output is
// never re-committed.
type staticExtractor struct {
	committed map[uint64]struct{}
}

func newStaticExtractor() *staticExtractor {
	return &staticExtractor{committed: make(map[uint64]struct{})}
}

// extract walks the tree collecting every maximal static subtree in stable
// document order. Each static subtree is replaced in place by an empty,
// zero-sized Box so the dynamic pipeline sees a smaller tree. Only subtrees
// whose fingerprint has not been committed before are returned for output.
func (s *staticExtractor) extract(root *Element) []*Element {
	var pending []*Element
	s.walk(root, &pending)
	return pending
}

func (s *staticExtractor) walk(el *Element, pending *[]*Element) {
	for i, child := range el.Children {
		if child.Style.Static && child.Kind != KindRoot {
			fp := staticFingerprint(child)
			if _, done := s.committed[fp]; !done {
				s.committed[fp] = struct{}{}
				*pending = append(*pending, child)
			}
			el.Children[i] = staticPlaceholder()
			continue
		}
		// Children of a static subtree are never separate outputs, so
		// recursion only continues through dynamic nodes.
		s.walk(child, pending)
	}
}

// staticPlaceholder is the zero-sized stand-in left where a static subtree
// was removed. Its shape is constant so NodeKeys stay stable across frames.
func staticPlaceholder() *Element {
	st := DefaultStyle()
	st.Width = Length(0)
	st.Height = Length(0)
	return Box(st)
}

// staticFingerprint hashes the content of a subtree: kinds, text, the
// visual style fields, and child order. Layout-only differences that cannot
// change painted output (flex grow on a fixed box) still count; false
// re-commits are cheaper than missed changes.
func staticFingerprint(el *Element) uint64 {
	h := fnv.New64a()
	fingerprintInto(h, el)
	return h.Sum64()
}

type hasher interface {
	Write(p []byte) (int, error)
}

func fingerprintInto(h hasher, el *Element) {
	var scratch [8]byte
	writeInt := func(v uint64) {
		for i := 0; i < 8; i++ {
			scratch[i] = byte(v >> (8 * i))
		}
		h.Write(scratch[:])
	}
	writeInt(uint64(el.Kind))
	h.Write([]byte(el.Text))
	st := el.Style
	writeInt(uint64(st.FG.Mode)<<32 | uint64(st.FG.Index)<<24 | uint64(st.FG.R)<<16 | uint64(st.FG.G)<<8 | uint64(st.FG.B))
	writeInt(uint64(st.BG.Mode)<<32 | uint64(st.BG.Index)<<24 | uint64(st.BG.R)<<16 | uint64(st.BG.G)<<8 | uint64(st.BG.B))
	writeInt(uint64(st.Attr))
	writeInt(uint64(st.Border))
	h.Write([]byte(strconv.Itoa(int(st.Padding.Top.Value)) + "," + strconv.Itoa(int(st.Padding.Left.Value))))
	// The remaining style fields, with the gap pointers folded to values so
	// the hash does not depend on pointer identity.
	flat := st
	flat.RowGap, flat.ColumnGap = nil, nil
	h.Write([]byte(fmt.Sprintf("%v|%v|%v", flat, st.rowGap(), st.columnGap())))
	if el.Key != nil {
		h.Write([]byte("k"))
	}
	writeInt(uint64(len(el.Children)))
	for _, c := range el.Children {
		fingerprintInto(h, c)
	}
}

// renderStatic lays out and paints one static subtree at the given width
// with its natural content height, returning the scrollback lines.
// Static subtrees are non-scrollable and painted exactly once; scroll
// offsets and overflow styling are ignored here.
func renderStatic(el *Element, width int) []string {
	if width <= 0 {
		width = 80
	}
	var flatten func(e *Element)
	flatten = func(e *Element) {
		e.Style.OverflowX, e.Style.OverflowY = OverflowVisible, OverflowVisible
		for _, c := range e.Children {
			flatten(c)
		}
	}
	flatten(el)

	engine := NewEngine()
	root := RootElement(el)
	engine.Compute(root, width, staticMaxHeight)

	layout, ok := engine.GetLayout(el.id)
	height := 1
	if ok && layout.Height > 0 {
		height = layout.Height
	}
	if height > staticMaxHeight {
		height = staticMaxHeight
	}

	out := NewOutput(width, height)
	paintElement(out, engine, el, 0, 0)
	rendered := out.Render()
	if rendered == "" {
		return nil
	}
	return splitCRLF(rendered)
}

// staticMaxHeight bounds a single static commit; content taller than this
// is truncated rather than allowed to run the one-shot layout unbounded.
const staticMaxHeight = 10000

func splitCRLF(s string) []string {
	var lines []string
	start := 0
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '\r' && s[i+1] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 2
		}
	}
	lines = append(lines, s[start:])
	return lines
}
