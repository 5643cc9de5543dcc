package weave

import (
	"strings"
	"testing"
)

func TestStaticExtraction(t *testing.T) {
	t.Run("MaximalSubtreesCollected", func(t *testing.T) {
		inner := Box(DefaultStyle().AsStatic(), Txt("nested static", DefaultStyle()))
		outer := Box(DefaultStyle().AsStatic(), inner)
		root := RootElement(outer, Box(DefaultStyle()))

		ex := newStaticExtractor()
		pending := ex.extract(root)
		if len(pending) != 1 {
			t.Fatalf("expected 1 maximal subtree, got %d", len(pending))
		}
		if pending[0] != outer {
			t.Error("outermost static subtree must win; children are not separate outputs")
		}
	})

	t.Run("ReplacedByZeroSizedBox", func(t *testing.T) {
		static := Box(DefaultStyle().AsStatic(), Txt("done", DefaultStyle()))
		root := RootElement(static, Txt("live", DefaultStyle()))

		ex := newStaticExtractor()
		ex.extract(root)
		placeholder := root.Children[0]
		if placeholder == static {
			t.Fatal("static subtree must be replaced")
		}
		if placeholder.Kind != KindBox || len(placeholder.Children) != 0 {
			t.Error("placeholder must be an empty box")
		}
		if placeholder.Style.Width != Length(0) || placeholder.Style.Height != Length(0) {
			t.Error("placeholder must be zero-sized")
		}
	})

	t.Run("SameContentNotRecommitted", func(t *testing.T) {
		build := func() *Element {
			return RootElement(Box(DefaultStyle().AsStatic(), Txt("once", DefaultStyle())))
		}
		ex := newStaticExtractor()
		if got := len(ex.extract(build())); got != 1 {
			t.Fatalf("first frame pending = %d, want 1", got)
		}
		for i := 0; i < 5; i++ {
			if got := len(ex.extract(build())); got != 0 {
				t.Fatalf("frame %d re-collected identical content", i+2)
			}
		}
	})

	t.Run("ChangedContentRecommitted", func(t *testing.T) {
		ex := newStaticExtractor()
		ex.extract(RootElement(Box(DefaultStyle().AsStatic(), Txt("v1", DefaultStyle()))))
		pending := ex.extract(RootElement(Box(DefaultStyle().AsStatic(), Txt("v2", DefaultStyle()))))
		if len(pending) != 1 {
			t.Errorf("changed content must be re-collected, pending = %d", len(pending))
		}
	})
}

func TestStaticFingerprint(t *testing.T) {
	mk := func(text string, style Style) *Element {
		return Box(DefaultStyle().AsStatic(), Txt(text, style))
	}
	a := staticFingerprint(mk("hello", DefaultStyle()))
	b := staticFingerprint(mk("hello", DefaultStyle()))
	c := staticFingerprint(mk("other", DefaultStyle()))
	d := staticFingerprint(mk("hello", DefaultStyle().Foreground(Red)))

	if a != b {
		t.Error("identical content must fingerprint identically")
	}
	if a == c {
		t.Error("different text must fingerprint differently")
	}
	if a == d {
		t.Error("different style must fingerprint differently")
	}
}

func TestRenderStatic(t *testing.T) {
	sub := Box(DefaultStyle(),
		Txt("first line", DefaultStyle()),
		Txt("second line", DefaultStyle()),
	)
	lines := renderStatic(sub, 40)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "first line") || !strings.HasPrefix(lines[1], "second line") {
		t.Errorf("lines = %q", lines)
	}
}
