package weave

import (
	"math"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// LayoutResult is a node's resolved box, relative to its parent's content
// origin accumulated down to an absolute position (spec §4.5).
type LayoutResult struct {
	X, Y          int
	Width, Height int
}

// flexNode is the layout engine's persistent, NodeKey-addressed tree node
// (spec §4.5 "persistent flex node graph keyed by NodeKey"), grounded in the
// teacher's FlexNode/FlexTree split but generalized from two hardcoded
// layouts (Vertical/Horizontal) into one direction-parameterized solver.
type flexNode struct {
	key         NodeKey
	kind        ElementKind
	constraints flexConstraints
	text        string

	parent   *flexNode
	children []*flexNode

	layout LayoutResult

	// scratch filled in during solve, read back by position()
	mainSize, crossSize int
}

// IncrementalOutcome reports what compute_element_incremental actually did
// (spec §4.5).
type IncrementalOutcome struct {
	UsedReconciler      bool
	PatchCount          int
	FallbackFullRebuild bool
}

// Engine owns the persistent flex node graph (spec §4.5 "Layout engine").
type Engine struct {
	nodes       map[NodeKey]*flexNode
	elementKeys map[elementID]NodeKey
	root        *flexNode

	fallbackFullRebuild bool
}

// NewEngine builds an empty layout engine.
func NewEngine() *Engine {
	return &Engine{nodes: make(map[NodeKey]*flexNode)}
}

// ComputeElementIncremental builds the current VNode tree and, when a usable
// previous tree and graph exist, diffs and patches incrementally; otherwise
// it rebuilds from scratch (spec §4.5).
func (e *Engine) ComputeElementIncremental(root *Element, previous *VNode, width, height int) (*VNode, IncrementalOutcome) {
	keyMap := make(map[elementID]NodeKey)
	current := ElementToVNode(root, keyMap)
	e.elementKeys = keyMap

	var outcome IncrementalOutcome
	if previous != nil && e.root != nil {
		patches := Diff(previous, current)
		outcome.UsedReconciler = true
		outcome.PatchCount = len(patches)
		e.ApplyPatches(patches)
		if e.fallbackFullRebuild {
			e.rebuildFrom(current)
			outcome.FallbackFullRebuild = true
			e.fallbackFullRebuild = false
		}
	} else {
		e.rebuildFrom(current)
	}

	e.solve(width, height)
	return current, outcome
}

// ComputeVNode clears and rebuilds the graph from a given VNode tree.
func (e *Engine) ComputeVNode(v *VNode, width, height int) {
	e.rebuildFrom(v)
	e.solve(width, height)
}

// Compute clears and rebuilds the graph directly from an Element tree.
func (e *Engine) Compute(el *Element, width, height int) *VNode {
	keyMap := make(map[elementID]NodeKey)
	v := ElementToVNode(el, keyMap)
	e.elementKeys = keyMap
	e.ComputeVNode(v, width, height)
	return v
}

// GetVNodeLayout answers a layout lookup by NodeKey.
func (e *Engine) GetVNodeLayout(key NodeKey) (LayoutResult, bool) {
	n, ok := e.nodes[key]
	if !ok {
		return LayoutResult{}, false
	}
	return n.layout, true
}

// GetLayout answers a layout lookup by the element id recorded during the
// most recent ElementToVNode pass.
func (e *Engine) GetLayout(id elementID) (LayoutResult, bool) {
	key, ok := e.elementKeys[id]
	if !ok {
		return LayoutResult{}, false
	}
	return e.GetVNodeLayout(key)
}

func (e *Engine) rebuildFrom(v *VNode) {
	e.nodes = make(map[NodeKey]*flexNode, len(e.nodes))
	e.root = e.buildNode(v, nil)
}

func (e *Engine) buildNode(v *VNode, parent *flexNode) *flexNode {
	n := &flexNode{
		key:         v.Key,
		kind:        v.Kind,
		constraints: v.Props.Style.ToFlex(),
		text:        v.Props.Text,
		parent:      parent,
	}
	e.nodes[v.Key] = n
	for _, c := range v.Children {
		n.children = append(n.children, e.buildNode(c, n))
	}
	return n
}

// ApplyPatches applies an ordered patch list to the persistent graph (spec
// §4.5 "apply_patches"). Returns whether any mutation occurred. A patch
// referencing a missing key sets fallbackFullRebuild rather than panicking
// (spec §4.5 "Failure semantics").
func (e *Engine) ApplyPatches(patches []Patch) bool {
	mutated := false
	for _, p := range patches {
		switch p.Kind {
		case PatchCreate:
			parent, ok := e.nodes[p.Parent]
			if !ok {
				e.fallbackFullRebuild = true
				continue
			}
			child := e.buildNode(p.Node, parent)
			parent.children = append(parent.children, child)
			mutated = true

		case PatchUpdate:
			node, ok := e.nodes[p.Key]
			if !ok {
				e.fallbackFullRebuild = true
				continue
			}
			node.constraints = p.NewProps.Style.ToFlex()
			node.text = p.NewProps.Text
			mutated = true

		case PatchRemove:
			node, ok := e.nodes[p.Key]
			if !ok {
				e.fallbackFullRebuild = true
				continue
			}
			e.detach(node)
			mutated = true

		case PatchReplace:
			old, ok := e.nodes[p.Key]
			if !ok {
				e.fallbackFullRebuild = true
				continue
			}
			parent := old.parent
			if parent == nil {
				// Replacing the root: rebuild wholesale next frame.
				e.fallbackFullRebuild = true
				continue
			}
			idx := -1
			for i, c := range parent.children {
				if c == old {
					idx = i
					break
				}
			}
			if idx < 0 {
				e.fallbackFullRebuild = true
				continue
			}
			e.forget(old)
			parent.children[idx] = e.buildNode(p.Node, parent)
			mutated = true

		case PatchReorder:
			parent, ok := e.nodes[p.Parent]
			if !ok {
				e.fallbackFullRebuild = true
				continue
			}
			// Index-shift semantics: each move removes the child at From
			// and reinserts it at To, against the array as mutated by the
			// preceding moves.
			reordered := append([]*flexNode(nil), parent.children...)
			ok = true
			for _, mv := range p.Moves {
				if mv.From < 0 || mv.From >= len(reordered) || mv.To < 0 || mv.To >= len(reordered) {
					ok = false
					break
				}
				moved := reordered[mv.From]
				reordered = append(reordered[:mv.From], reordered[mv.From+1:]...)
				reordered = append(reordered, nil)
				copy(reordered[mv.To+1:], reordered[mv.To:])
				reordered[mv.To] = moved
			}
			if !ok {
				e.fallbackFullRebuild = true
				continue
			}
			parent.children = reordered
			mutated = true
		}
	}
	return mutated
}

// detach removes a node from its parent's children and forgets its whole subtree.
func (e *Engine) detach(n *flexNode) {
	if n.parent != nil {
		siblings := n.parent.children
		for i, c := range siblings {
			if c == n {
				n.parent.children = append(siblings[:i], siblings[i+1:]...)
				break
			}
		}
	}
	e.forget(n)
}

func (e *Engine) forget(n *flexNode) {
	delete(e.nodes, n.key)
	for _, c := range n.children {
		e.forget(c)
	}
}

// --- Solver -----------------------------------------------------------

const unbounded = math.MaxInt32

func resolveDim(d Dimension, containing int, fallback int) int {
	v := d.Resolve(containing)
	if v < 0 {
		return fallback
	}
	return v
}

// solve computes the whole tree's geometry from scratch against the given
// viewport (spec §4.5: every recompute walks the full graph; incrementality
// lives in the patch application above, not in partial re-layout math).
func (e *Engine) solve(width, height int) {
	if e.root == nil {
		return
	}
	// Resolve the root's own dimensions against the viewport; below the
	// root, callers hand layoutNode pre-resolved sizes.
	w := resolveDim(e.root.constraints.width, width, width)
	h := resolveDim(e.root.constraints.height, height, height)
	e.layoutNode(e.root, w, h, 0, 0)
}

// layoutNode sizes and positions n and its subtree. availW/availH are the
// space offered by the parent, pre-resolved into plain (width, height)
// terms by the caller. originX/Y is
// where n's border box begins in absolute buffer coordinates.
func (e *Engine) layoutNode(n *flexNode, availW, availH, originX, originY int) {
	c := n.constraints

	if c.display == DisplayNone {
		n.layout = LayoutResult{X: originX, Y: originY}
		for _, child := range n.children {
			e.layoutNode(child, 0, 0, originX, originY)
		}
		return
	}

	// availW/availH arrive pre-resolved by the caller (flex assignment,
	// percent against the containing block, or the viewport at the root),
	// so a non-auto dimension takes them as its used size directly.
	autoWidth := c.width.Kind == DimAuto
	autoHeight := c.height.Kind == DimAuto
	width, height := availW, availH
	minW := resolveDim(c.minWidth, availW, 0)
	minH := resolveDim(c.minHeight, availH, 0)
	maxW := resolveDim(c.maxWidth, availW, unbounded)
	maxH := resolveDim(c.maxHeight, availH, unbounded)

	width = clampInt(width, minW, maxW)
	height = clampInt(height, minH, maxH)

	switch n.kind {
	case KindText:
		tw, th := measureText(n.text, width, c.textWrap)
		if autoWidth {
			width = clampInt(tw, minW, maxW)
		}
		if autoHeight {
			height = clampInt(th, minH, maxH)
		}
		n.layout = LayoutResult{X: originX, Y: originY, Width: width, Height: height}
		return
	}

	borderW, borderH := 0, 0
	if c.borderWidth > 0 {
		borderW, borderH = c.borderWidth*2, c.borderWidth*2
	}
	padLeft := int(c.padding.Left.Resolve(width))
	padRight := int(c.padding.Right.Resolve(width))
	padTop := int(c.padding.Top.Resolve(height))
	padBottom := int(c.padding.Bottom.Resolve(height))

	contentW := width - borderW - padLeft - padRight
	contentH := height - borderH - padTop - padBottom
	if contentW < 0 {
		contentW = 0
	}
	if contentH < 0 {
		contentH = 0
	}

	flowChildren := make([]*flexNode, 0, len(n.children))
	var absChildren []*flexNode
	for _, child := range n.children {
		switch {
		case child.constraints.display == DisplayNone:
			// Hidden subtrees take no space; zero their layouts in place.
			e.layoutNode(child, 0, 0, originX, originY)
		case child.constraints.position == PositionAbsolute:
			absChildren = append(absChildren, child)
		default:
			flowChildren = append(flowChildren, child)
		}
	}

	autoMain, autoCross := autoWidth, autoHeight
	if c.direction != FlexRow {
		autoMain, autoCross = autoHeight, autoWidth
	}
	contentMain, contentCross := layoutFlow(n, flowChildren, contentW, contentH, c.direction == FlexRow, autoMain, autoCross)

	// Resolve auto sizing of the container itself from content.
	if c.direction == FlexRow {
		if autoWidth {
			contentW = contentMain
			width = clampInt(contentW+borderW+padLeft+padRight, minW, maxW)
		}
		if autoHeight {
			contentH = contentCross
			height = clampInt(contentH+borderH+padTop+padBottom, minH, maxH)
		}
	} else {
		if autoHeight {
			contentH = contentMain
			height = clampInt(contentH+borderH+padTop+padBottom, minH, maxH)
		}
		if autoWidth {
			contentW = contentCross
			width = clampInt(contentW+borderW+padLeft+padRight, minW, maxW)
		}
	}

	n.layout = LayoutResult{X: originX, Y: originY, Width: width, Height: height}

	innerX := originX + c.borderWidth + padLeft
	innerY := originY + c.borderWidth + padTop
	placeFlow(e, n, flowChildren, contentW, contentH, innerX, innerY)

	for _, child := range absChildren {
		ins := child.constraints.inset
		cw := resolveDim(child.constraints.width, contentW, -1)
		ch := resolveDim(child.constraints.height, contentH, -1)
		left := resolveDim(ins.Left, contentW, -1)
		top := resolveDim(ins.Top, contentH, -1)
		right := resolveDim(ins.Right, contentW, -1)
		bottom := resolveDim(ins.Bottom, contentH, -1)

		x, y := innerX, innerY
		w, h := cw, ch
		if left >= 0 {
			x = innerX + left
		} else if right >= 0 && w >= 0 {
			x = innerX + contentW - right - w
		}
		if top >= 0 {
			y = innerY + top
		} else if bottom >= 0 && h >= 0 {
			y = innerY + contentH - bottom - h
		}
		if w < 0 {
			w = contentW
		}
		if h < 0 {
			h = contentH
		}
		e.layoutNode(child, w, h, x, y)
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}

// layoutFlow computes, without assigning final absolute positions yet, the
// total main-axis extent consumed and the max cross-axis extent needed, by
// resolving each flow child's main/cross size (basis+grow/shrink on the main
// axis, stretch/own-size on the cross axis). Results are cached on each
// child's mainSize/crossSize for placeFlow to consume.
func layoutFlow(n *flexNode, kids []*flexNode, contentW, contentH int, rowDirection, autoMain, autoCross bool) (main, cross int) {
	if len(kids) == 0 {
		return 0, 0
	}

	mainAvail, crossAvail := contentW, contentH
	if !rowDirection {
		mainAvail, crossAvail = contentH, contentW
	}

	gap := n.constraints.columnGap
	if !rowDirection {
		gap = n.constraints.rowGap
	}
	totalGap := int(gap) * (len(kids) - 1)
	if totalGap < 0 {
		totalGap = 0
	}

	basis := make([]int, len(kids))
	var totalBasis, totalGrow, totalShrink float32
	for i, k := range kids {
		b := -1
		if rowDirection {
			if k.constraints.basis.Kind != DimAuto {
				b = resolveDim(k.constraints.basis, mainAvail, -1)
			} else {
				b = resolveDim(k.constraints.width, mainAvail, -1)
			}
		} else {
			if k.constraints.basis.Kind != DimAuto {
				b = resolveDim(k.constraints.basis, mainAvail, -1)
			} else {
				b = resolveDim(k.constraints.height, mainAvail, -1)
			}
		}
		if b < 0 {
			b = intrinsicMain(k, rowDirection, crossAvail)
		}
		basis[i] = b
		totalBasis += float32(b)
		totalGrow += k.constraints.grow
		totalShrink += k.constraints.shrink
	}

	remaining := float32(mainAvail-totalGap) - totalBasis
	if autoMain {
		remaining = 0 // nothing to distribute; container grows to fit content
	}

	mainSizes := make([]int, len(kids))
	for i := range kids {
		size := float32(basis[i])
		if remaining > 0 && totalGrow > 0 {
			size += remaining * (kids[i].constraints.grow / totalGrow)
		} else if remaining < 0 && totalShrink > 0 {
			size += remaining * (kids[i].constraints.shrink / totalShrink)
		}
		if size < 0 {
			size = 0
		}
		mainSizes[i] = int(size)
	}

	maxCross := 0
	for i, k := range kids {
		align := k.constraints.alignSelf
		if align == AlignStart && n.constraints.alignItems != AlignStart {
			align = n.constraints.alignItems
		}
		cSize := -1
		if rowDirection {
			cSize = resolveDim(k.constraints.height, crossAvail, -1)
		} else {
			cSize = resolveDim(k.constraints.width, crossAvail, -1)
		}
		if cSize < 0 {
			if align == AlignStretch && !autoCross {
				cSize = crossAvail
			} else {
				cSize = intrinsicCross(k, rowDirection, mainSizes[i], crossAvail)
			}
		}
		k.mainSize = mainSizes[i]
		k.crossSize = cSize
		if cSize > maxCross {
			maxCross = cSize
		}
	}

	totalMain := totalGap
	for _, s := range mainSizes {
		totalMain += s
	}
	return totalMain, maxCross
}

// placeFlow assigns final absolute positions to flow children given the
// sizes layoutFlow already computed, honoring justify-content along the main
// axis and align-items/align-self along the cross axis, then recurses.
func placeFlow(e *Engine, n *flexNode, kids []*flexNode, contentW, contentH, innerX, innerY int) {
	if len(kids) == 0 {
		return
	}
	rowDirection := n.constraints.direction == FlexRow
	mainAvail, crossAvail := contentW, contentH
	if !rowDirection {
		mainAvail, crossAvail = contentH, contentW
	}

	gap := n.constraints.columnGap
	if !rowDirection {
		gap = n.constraints.rowGap
	}

	totalMain := 0
	for _, k := range kids {
		totalMain += k.mainSize
	}
	totalMain += int(gap) * (len(kids) - 1)
	freeSpace := mainAvail - totalMain
	if freeSpace < 0 {
		freeSpace = 0
	}

	start, between := 0, float32(gap)
	switch n.constraints.justify {
	case JustifyCenter:
		start = freeSpace / 2
	case JustifyEnd:
		start = freeSpace
	case JustifySpaceBetween:
		if len(kids) > 1 {
			between = float32(gap) + float32(freeSpace)/float32(len(kids)-1)
		}
	case JustifySpaceAround:
		if len(kids) > 0 {
			pad := float32(freeSpace) / float32(len(kids))
			start = int(pad / 2)
			between = float32(gap) + pad
		}
	}

	mainPos := float32(start)
	for _, k := range kids {
		align := k.constraints.alignSelf
		if align == AlignStart && n.constraints.alignItems != AlignStart {
			align = n.constraints.alignItems
		}
		crossPos := 0
		switch align {
		case AlignCenter:
			crossPos = (crossAvail - k.crossSize) / 2
		case AlignEnd:
			crossPos = crossAvail - k.crossSize
		}
		if crossPos < 0 {
			crossPos = 0
		}

		var x, y, w, h int
		if rowDirection {
			x, y = innerX+int(mainPos), innerY+crossPos
			w, h = k.mainSize, k.crossSize
		} else {
			x, y = innerX+crossPos, innerY+int(mainPos)
			w, h = k.crossSize, k.mainSize
		}

		e.layoutNode(k, w, h, x, y)
		mainPos += float32(k.mainSize) + between
	}
}

// intrinsicMain is a leaf/container's natural size along the main axis when
// neither an explicit dimension nor a flex-basis was given.
func intrinsicMain(n *flexNode, rowDirection bool, crossAvail int) int {
	if n.kind == KindText {
		if rowDirection {
			w, _ := measureText(n.text, unbounded, n.constraints.textWrap)
			return w
		}
		// Main axis is height: count the lines the text wraps to at the
		// available width (unbounded when the parent is auto-sized).
		_, h := measureText(n.text, crossAvail, n.constraints.textWrap)
		return h
	}
	// Containers are measured from their content: the subtree is laid out
	// with the main axis left open, and placeFlow lays it out again at its
	// final size afterwards.
	var measure Engine
	if rowDirection {
		measure.layoutNode(n, 0, resolveDim(n.constraints.height, crossAvail, crossAvail), 0, 0)
		return n.layout.Width
	}
	measure.layoutNode(n, resolveDim(n.constraints.width, crossAvail, crossAvail), 0, 0, 0)
	return n.layout.Height
}

func intrinsicCross(n *flexNode, rowDirection bool, mainSize, crossAvail int) int {
	if n.kind == KindText {
		if rowDirection {
			_, h := measureText(n.text, mainSize, n.constraints.textWrap)
			return h
		}
		w, _ := measureText(n.text, crossAvail, n.constraints.textWrap)
		return w
	}
	return 0
}

// measureText computes display width/height for a Text leaf given an
// available width (spec §4.5 "Text measurement"): width is the grapheme-
// aware display width; height is the number of wrapped lines when available
// width is finite and exceeded, else the count of newline-separated lines.
func measureText(text string, availWidth int, mode TextWrapMode) (width, height int) {
	lines := strings.Split(text, "\n")

	if mode == TextWrapNone || availWidth <= 0 || availWidth >= unbounded {
		maxW := 0
		for _, l := range lines {
			if w := runewidth.StringWidth(l); w > maxW {
				maxW = w
			}
		}
		return maxW, len(lines)
	}

	totalLines := 0
	maxW := 0
	for _, l := range lines {
		wrapped := wrapLine(l, availWidth, mode)
		totalLines += len(wrapped)
		for _, w := range wrapped {
			if dw := runewidth.StringWidth(w); dw > maxW {
				maxW = dw
			}
		}
	}
	if totalLines == 0 {
		totalLines = 1
	}
	if maxW > availWidth {
		maxW = availWidth
	}
	return maxW, totalLines
}

// wrapLine breaks one logical line into display lines no wider than width,
// preferring word boundaries and falling back to a grapheme-boundary cut
// (spec §4.5: "wrap at word boundaries when possible, else cut").
func wrapLine(line string, width int, mode TextWrapMode) []string {
	if runewidth.StringWidth(line) <= width {
		return []string{line}
	}
	if mode == TextWrapTruncate {
		return []string{truncateToWidth(line, width)}
	}

	words := strings.Fields(line)
	if len(words) == 0 {
		return []string{""}
	}

	var out []string
	cur := strings.Builder{}
	curW := 0
	for _, word := range words {
		ww := runewidth.StringWidth(word)
		sep := 0
		if cur.Len() > 0 {
			sep = 1
		}
		if curW+sep+ww <= width {
			if sep == 1 {
				cur.WriteByte(' ')
			}
			cur.WriteString(word)
			curW += sep + ww
			continue
		}
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
			curW = 0
		}
		if ww > width {
			for _, piece := range hardWrapGraphemes(word, width) {
				out = append(out, piece)
			}
			continue
		}
		cur.WriteString(word)
		curW = ww
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// hardWrapGraphemes cuts a single overlong word at grapheme-cluster
// boundaries so wide characters are never split mid-cell.
func hardWrapGraphemes(word string, width int) []string {
	var out []string
	g := uniseg.NewGraphemes(word)
	cur := strings.Builder{}
	curW := 0
	for g.Next() {
		cluster := g.Str()
		cw := runewidth.StringWidth(cluster)
		if curW+cw > width && cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
			curW = 0
		}
		cur.WriteString(cluster)
		curW += cw
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// truncateToWidth cuts s at the last whole grapheme that fits in width.
func truncateToWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	g := uniseg.NewGraphemes(s)
	out := strings.Builder{}
	w := 0
	for g.Next() {
		cluster := g.Str()
		cw := runewidth.StringWidth(cluster)
		if w+cw > width {
			break
		}
		out.WriteString(cluster)
		w += cw
	}
	return out.String()
}
