package weave

// PatchKind tags the variant of a Patch.
type PatchKind uint8

const (
	PatchCreate PatchKind = iota
	PatchUpdate
	PatchRemove
	PatchReplace
	PatchReorder
)

// Move is one index-shift step of a Reorder: the child at From is removed
// and reinserted at To. Both indices refer to the child array as left by
// the preceding moves, To counted after the removal.
type Move struct {
	From, To int
}

// Patch is one minimal unit of change between two VNode trees (spec §3).
// Exactly one of the payload fields is meaningful, selected by Kind.
type Patch struct {
	Kind PatchKind

	// PatchCreate
	Node   *VNode
	Parent NodeKey

	// PatchUpdate
	Key      NodeKey
	OldProps Props
	NewProps Props

	// PatchRemove: Key above

	// PatchReplace: Key above (old), Node above (new)

	// PatchReorder
	Moves []Move
}

func patchCreate(node *VNode, parent NodeKey) Patch {
	return Patch{Kind: PatchCreate, Node: node, Parent: parent}
}

func patchUpdate(key NodeKey, oldProps, newProps Props) Patch {
	return Patch{Kind: PatchUpdate, Key: key, OldProps: oldProps, NewProps: newProps}
}

func patchRemove(key NodeKey) Patch {
	return Patch{Kind: PatchRemove, Key: key}
}

func patchReplace(key NodeKey, node *VNode) Patch {
	return Patch{Kind: PatchReplace, Key: key, Node: node}
}

func patchReorder(parent NodeKey, moves []Move) Patch {
	return Patch{Kind: PatchReorder, Parent: parent, Moves: moves}
}
