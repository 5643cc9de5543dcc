package weave

import "fmt"

// NodeKey is the stable identity of a tree position across frames (spec §3).
// It is derived purely from the path from root, and is comparable so it can
// be used directly as a map key by the layout engine and reconciler.
//
// Deliberately excludes sibling index from identity: the positional/user-key
// segment folded into path already guarantees sibling uniqueness (spec §8
// property 1), and a keyed node's sibling index changing on reorder must NOT
// change its NodeKey or a Reorder could never be emitted in place of a
// Remove+Create pair (spec §8 property 2, scenario S2). Sibling position is
// tracked separately on VNode.Sibling for the reconciler's own bookkeeping.
type NodeKey struct {
	path    string
	typeTag ElementKind
}

// RootKey returns the well-known NodeKey of the tree root.
func RootKey() NodeKey { return NodeKey{path: "root", typeTag: KindRoot} }

// String renders the key for debugging/test failure messages.
func (k NodeKey) String() string {
	return fmt.Sprintf("%s(%d)", k.path, k.typeTag)
}

// Props is the subset of Style (plus user key, scroll offsets, and text
// content) that a VNode carries for diffing and layout (spec §3 "VNode").
type Props struct {
	Style   Style
	UserKey any
	ScrollX int
	ScrollY int
	Text    string
}

// Equal reports whether two Props are identical for reconciliation purposes.
func (p Props) Equal(o Props) bool {
	return p.Style.Equal(o.Style) &&
		p.UserKey == o.UserKey &&
		p.ScrollX == o.ScrollX &&
		p.ScrollY == o.ScrollY &&
		p.Text == o.Text
}

// VNode is the immutable, per-frame description produced from an Element
// tree (spec §3 "VNode"). It is retained only long enough to diff against
// the next frame's tree.
type VNode struct {
	Key      NodeKey
	Kind     ElementKind
	Props    Props
	Children []*VNode
	Sibling  int
}

// TypeTag returns the VNode's kind, used by the reconciler to decide whether
// two matched nodes are type-compatible (spec §4.4 step 1).
func (v *VNode) TypeTag() ElementKind { return v.Kind }

// ElementToVNode converts an Element tree into a VNode tree deterministically
// (spec §4.3). elementKeyMap, if non-nil, records element id -> NodeKey so
// layout lookups can be answered by element id as well as by NodeKey.
func ElementToVNode(el *Element, elementKeyMap map[elementID]NodeKey) *VNode {
	return elementToVNode(el, "", 0, elementKeyMap)
}

func elementToVNode(el *Element, parentPath string, index int, keyMap map[elementID]NodeKey) *VNode {
	var key NodeKey
	if el.Kind == KindRoot {
		key = RootKey()
	} else {
		segment := segmentFor(el, index)
		full := parentPath + "/" + segment
		key = NodeKey{path: full, typeTag: el.Kind}
	}

	if keyMap != nil {
		keyMap[el.id] = key
	}

	v := &VNode{
		Key:  key,
		Kind: el.Kind,
		Props: Props{
			Style:   el.Style,
			UserKey: el.Key,
			ScrollX: el.ScrollX,
			ScrollY: el.ScrollY,
			Text:    el.Text,
		},
		Sibling: index,
	}

	children := make([]*VNode, 0, len(el.Children))
	childIdx := 0
	for _, child := range el.Children {
		if child.Kind == KindVirtualText {
			// VirtualText elements are skipped entirely (spec §4.3).
			continue
		}
		children = append(children, elementToVNode(child, key.path, childIdx, keyMap))
		childIdx++
	}
	v.Children = children

	return v
}

// segmentFor builds the positional path segment for a non-root element:
// "#key:<user>" when a key was supplied, else "@idx:<index>:type:<tag>".
func segmentFor(el *Element, index int) string {
	if el.Key != nil {
		return fmt.Sprintf("#key:%v", el.Key)
	}
	return fmt.Sprintf("@idx:%d:type:%d", index, el.Kind)
}
