package weave

import "testing"

func TestTextLayoutAtKnownWidth(t *testing.T) {
	// Spec scenario S1.
	text := Txt("Hello World", DefaultStyle())
	root := RootElement(Box(DefaultStyle(), text))

	e := NewEngine()
	e.Compute(root, 80, 24)

	layout, ok := e.GetLayout(text.id)
	if !ok {
		t.Fatal("no layout recorded for the text leaf")
	}
	if layout.Width < 11 {
		t.Errorf("text width = %d, want >= 11", layout.Width)
	}
	if layout.Height != 1 {
		t.Errorf("text height = %d, want 1", layout.Height)
	}

	out := NewOutput(80, 24)
	paintElement(out, e, root, 0, 0)
	row := out.RenderRow(0)
	if len(row) < 11 || row[:11] != "Hello World" {
		t.Errorf("row 0 = %q, want prefix %q", row, "Hello World")
	}
}

func TestMeasureText(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		avail      int
		wantW      int
		wantH      int
	}{
		{"single line unbounded", "hello", unbounded, 5, 1},
		{"newlines count", "a\nbb\nccc", unbounded, 3, 3},
		{"word wrap", "aaa bbb ccc", 7, 7, 2},
		{"hard cut overlong word", "abcdefghij", 4, 4, 3},
		{"wide runes count two", "你好", unbounded, 4, 1},
		{"wide runes wrap", "你好世界", 4, 4, 2},
		{"empty is one line", "", unbounded, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := measureText(tt.text, tt.avail, TextWrapWord)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("measureText(%q, %d) = (%d,%d), want (%d,%d)",
					tt.text, tt.avail, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestIncrementalEqualsFull(t *testing.T) {
	// Spec property 5: layouts after the incremental path equal a from-
	// scratch rebuild, over a sequence of differing frames.
	frames := []func() *Element{
		func() *Element {
			return RootElement(
				Box(DefaultStyle().WithWidth(20).WithHeight(5)).WithKey("a"),
				Box(DefaultStyle().WithWidth(30).WithHeight(5)).WithKey("b"),
			)
		},
		func() *Element {
			return RootElement(
				Box(DefaultStyle().WithWidth(30).WithHeight(5)).WithKey("b"),
				Box(DefaultStyle().WithWidth(20).WithHeight(5)).WithKey("a"),
			)
		},
		func() *Element {
			return RootElement(
				Box(DefaultStyle().WithWidth(30).WithHeight(5)).WithKey("b"),
				Box(DefaultStyle().WithWidth(25).WithHeight(7)).WithKey("a"),
				Txt("tail", DefaultStyle()),
			)
		},
		func() *Element {
			return RootElement(
				Box(DefaultStyle().WithWidth(25).WithHeight(7)).WithKey("a"),
				Txt("tail", DefaultStyle()),
			)
		},
	}

	inc := NewEngine()
	var prev *VNode
	for i, frame := range frames {
		current, outcome := inc.ComputeElementIncremental(frame(), prev, 80, 24)
		prev = current
		if i > 0 && !outcome.UsedReconciler {
			t.Fatalf("frame %d did not use the reconciler", i)
		}
		if outcome.FallbackFullRebuild {
			t.Fatalf("frame %d fell back to a full rebuild", i)
		}

		full := NewEngine()
		full.ComputeVNode(ElementToVNode(frame(), nil), 80, 24)

		var compare func(v *VNode)
		compare = func(v *VNode) {
			a, aok := inc.GetVNodeLayout(v.Key)
			b, bok := full.GetVNodeLayout(v.Key)
			if aok != bok {
				t.Fatalf("frame %d: key %v present=%v incrementally, %v full", i, v.Key, aok, bok)
			}
			if a != b {
				t.Errorf("frame %d: layout mismatch for %v: incremental %+v, full %+v", i, v.Key, a, b)
			}
			for _, c := range v.Children {
				compare(c)
			}
		}
		compare(current)
	}
}

func TestPercentDimensions(t *testing.T) {
	child := Box(DefaultStyle())
	child.Style.Width = Percent(50)
	child.Style.Height = Percent(25)
	root := RootElement(child)

	e := NewEngine()
	e.Compute(root, 100, 40)

	layout, _ := e.GetLayout(child.id)
	if layout.Width != 50 || layout.Height != 10 {
		t.Errorf("percent layout = %dx%d, want 50x10", layout.Width, layout.Height)
	}
}

func TestDisplayNoneHidesSubtree(t *testing.T) {
	hidden := Box(DefaultStyle().Hidden().WithWidth(10).WithHeight(10))
	visible := Box(DefaultStyle().WithWidth(10).WithHeight(3))
	root := RootElement(hidden, visible)

	e := NewEngine()
	e.Compute(root, 80, 24)

	l, _ := e.GetLayout(hidden.id)
	if l.Width != 0 || l.Height != 0 {
		t.Errorf("display:none subtree must have zero size, got %dx%d", l.Width, l.Height)
	}
	v, _ := e.GetLayout(visible.id)
	if v.Y != 0 {
		t.Errorf("hidden sibling must not consume space, visible at y=%d", v.Y)
	}
}

func TestAbsolutePositioning(t *testing.T) {
	abs := Box(DefaultStyle().WithWidth(5).WithHeight(3).Absolute(Edges{
		Top:  Length(2),
		Left: Length(4),
	}))
	root := RootElement(Box(DefaultStyle().WithWidth(40).WithHeight(20), abs))

	e := NewEngine()
	e.Compute(root, 80, 24)

	l, _ := e.GetLayout(abs.id)
	if l.X != 4 || l.Y != 2 {
		t.Errorf("absolute child at (%d,%d), want (4,2)", l.X, l.Y)
	}
	if l.Width != 5 || l.Height != 3 {
		t.Errorf("absolute child size %dx%d, want 5x3", l.Width, l.Height)
	}
}

func TestRowDirectionWithGap(t *testing.T) {
	st := DefaultStyle().Row().WithGap(2)
	a := Box(DefaultStyle().WithWidth(10).WithHeight(1))
	b := Box(DefaultStyle().WithWidth(10).WithHeight(1))
	root := RootElement(Box(st, a, b))

	e := NewEngine()
	e.Compute(root, 80, 24)

	la, _ := e.GetLayout(a.id)
	lb, _ := e.GetLayout(b.id)
	if la.X != 0 {
		t.Errorf("first child x = %d, want 0", la.X)
	}
	if lb.X != 12 {
		t.Errorf("second child x = %d, want 12 (10 wide + gap 2)", lb.X)
	}
}

func TestFlexGrowDistribution(t *testing.T) {
	st := DefaultStyle().Row()
	st.Height = Length(1)
	a := Box(DefaultStyle().WithHeight(1).Grow(1))
	b := Box(DefaultStyle().WithHeight(1).Grow(3))
	container := Box(st, a, b)
	container.Style.Width = Length(40)
	root := RootElement(container)

	e := NewEngine()
	e.Compute(root, 80, 24)

	la, _ := e.GetLayout(a.id)
	lb, _ := e.GetLayout(b.id)
	if la.Width != 10 || lb.Width != 30 {
		t.Errorf("grow split = %d/%d, want 10/30", la.Width, lb.Width)
	}
}

func TestBorderInsetsContent(t *testing.T) {
	inner := Txt("x", DefaultStyle())
	box := Box(DefaultStyle().WithBorder(BorderSingle).WithWidth(10).WithHeight(5), inner)
	root := RootElement(box)

	e := NewEngine()
	e.Compute(root, 80, 24)

	l, _ := e.GetLayout(inner.id)
	if l.X != 1 || l.Y != 1 {
		t.Errorf("bordered content starts at (%d,%d), want (1,1)", l.X, l.Y)
	}
}
