package weave

import "testing"

func TestNodeKeys(t *testing.T) {
	t.Run("SiblingsUnique", func(t *testing.T) {
		root := RootElement(
			Box(DefaultStyle()),
			Box(DefaultStyle()),
			Txt("a", DefaultStyle()),
			Txt("a", DefaultStyle()),
			Box(DefaultStyle()).WithKey("x"),
		)
		v := ElementToVNode(root, nil)
		assertUniqueSiblings(t, v)
	})

	t.Run("StableAcrossFrames", func(t *testing.T) {
		build := func() *Element {
			return RootElement(
				Box(DefaultStyle()).WithKey("a"),
				Box(DefaultStyle(),
					Txt("inner", DefaultStyle()),
				),
			)
		}
		v1 := ElementToVNode(build(), nil)
		v2 := ElementToVNode(build(), nil)
		var walk func(a, b *VNode)
		walk = func(a, b *VNode) {
			if a.Key != b.Key {
				t.Errorf("key changed across frames: %v vs %v", a.Key, b.Key)
			}
			for i := range a.Children {
				walk(a.Children[i], b.Children[i])
			}
		}
		walk(v1, v2)
	})

	t.Run("KeyedNodeKeepsKeyWhenIndexChanges", func(t *testing.T) {
		frameA := RootElement(
			Box(DefaultStyle()).WithKey("a"),
			Box(DefaultStyle()).WithKey("b"),
		)
		frameB := RootElement(
			Box(DefaultStyle()).WithKey("b"),
			Box(DefaultStyle()).WithKey("a"),
		)
		va := ElementToVNode(frameA, nil)
		vb := ElementToVNode(frameB, nil)
		if va.Children[0].Key != vb.Children[1].Key {
			t.Error("keyed node must keep its NodeKey when its sibling index changes")
		}
		if va.Children[1].Key != vb.Children[0].Key {
			t.Error("keyed node must keep its NodeKey when its sibling index changes")
		}
	})

	t.Run("VirtualTextSkipped", func(t *testing.T) {
		vt := NewElement(KindVirtualText)
		root := RootElement(Box(DefaultStyle()), vt, Box(DefaultStyle()))
		v := ElementToVNode(root, nil)
		if len(v.Children) != 2 {
			t.Fatalf("expected 2 children after VirtualText skip, got %d", len(v.Children))
		}
	})

	t.Run("ElementKeyMapRecorded", func(t *testing.T) {
		inner := Txt("x", DefaultStyle())
		root := RootElement(Box(DefaultStyle(), inner))
		keyMap := make(map[elementID]NodeKey)
		v := ElementToVNode(root, keyMap)
		key, ok := keyMap[inner.id]
		if !ok {
			t.Fatal("element id missing from key map")
		}
		if key != v.Children[0].Children[0].Key {
			t.Error("key map entry does not match the VNode key")
		}
	})
}

func assertUniqueSiblings(t *testing.T, v *VNode) {
	t.Helper()
	seen := make(map[NodeKey]int)
	for i, c := range v.Children {
		if j, dup := seen[c.Key]; dup {
			t.Errorf("siblings %d and %d share key %v", j, i, c.Key)
		}
		seen[c.Key] = i
		assertUniqueSiblings(t, c)
	}
}
