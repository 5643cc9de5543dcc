package weave

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestOutputBasics(t *testing.T) {
	t.Run("NewOutput", func(t *testing.T) {
		out := NewOutput(80, 24)
		if out.Width() != 80 || out.Height() != 24 {
			t.Errorf("expected 80x24, got %dx%d", out.Width(), out.Height())
		}
		for y := 0; y < out.Height(); y++ {
			for x := 0; x < out.Width(); x++ {
				if c := out.Get(x, y); c.Rune != ' ' {
					t.Fatalf("expected space at (%d,%d), got %q", x, y, c.Rune)
				}
			}
		}
	})

	t.Run("OutOfBoundsIgnored", func(t *testing.T) {
		out := NewOutput(10, 10)
		out.WriteChar(-1, 0, 'x', DefaultCellStyle())
		out.WriteChar(0, -1, 'x', DefaultCellStyle())
		out.WriteChar(10, 0, 'x', DefaultCellStyle())
		out.Write(5, 20, "hello", DefaultCellStyle())
		if out.IsDirty() {
			t.Error("out-of-bounds writes must not dirty the grid")
		}
	})

	t.Run("WriteStopsAtNewlineAndEdge", func(t *testing.T) {
		out := NewOutput(5, 2)
		out.Write(0, 0, "ab\ncd", DefaultCellStyle())
		if out.Get(0, 0).Rune != 'a' || out.Get(1, 0).Rune != 'b' {
			t.Error("expected ab on row 0")
		}
		if out.Get(2, 0).Rune != ' ' {
			t.Error("write must stop at newline")
		}
		out.Write(3, 1, "wxyz", DefaultCellStyle())
		if out.Get(3, 1).Rune != 'w' || out.Get(4, 1).Rune != 'x' {
			t.Error("expected wx before the edge")
		}
	})
}

func TestWideCharacters(t *testing.T) {
	t.Run("PlaceholderAfterWide", func(t *testing.T) {
		out := NewOutput(5, 1)
		out.WriteChar(3, 0, '你', DefaultCellStyle())
		if out.Get(3, 0).Rune != '你' {
			t.Errorf("expected wide rune at col 3, got %q", out.Get(3, 0).Rune)
		}
		if !out.Get(4, 0).IsPlaceholder() {
			t.Error("expected placeholder at col 4")
		}
	})

	t.Run("WideAtRightEdgeBecomesSpace", func(t *testing.T) {
		out := NewOutput(5, 1)
		out.WriteChar(4, 0, '你', DefaultCellStyle())
		if out.Get(4, 0).Rune != ' ' {
			t.Errorf("wide rune at last column must degrade to space, got %q", out.Get(4, 0).Rune)
		}
		if strings.Contains(out.Render(), "你") {
			t.Error("render must not contain the wide rune")
		}
	})

	t.Run("RenderContainsWideOnce", func(t *testing.T) {
		out := NewOutput(5, 1)
		out.WriteChar(3, 0, '你', DefaultCellStyle())
		if got := strings.Count(out.Render(), "你"); got != 1 {
			t.Errorf("expected exactly one 你 in render, got %d", got)
		}
	})

	t.Run("NarrowOverLeadClearsPlaceholder", func(t *testing.T) {
		out := NewOutput(5, 1)
		out.WriteChar(1, 0, '你', DefaultCellStyle())
		out.WriteChar(1, 0, 'x', DefaultCellStyle())
		if out.Get(2, 0).Rune != ' ' {
			t.Error("placeholder must clear to space when lead is overwritten")
		}
		checkWideInvariant(t, out)
	})

	t.Run("NarrowOverPlaceholderClearsLead", func(t *testing.T) {
		out := NewOutput(5, 1)
		out.WriteChar(1, 0, '你', DefaultCellStyle())
		out.WriteChar(2, 0, 'x', DefaultCellStyle())
		if out.Get(1, 0).Rune != ' ' {
			t.Error("wide lead must clear to space when placeholder is overwritten")
		}
		checkWideInvariant(t, out)
	})

	t.Run("InvariantUnderMixedWrites", func(t *testing.T) {
		out := NewOutput(8, 3)
		out.Write(0, 0, "你好世界", DefaultCellStyle())
		out.Write(1, 0, "ab", DefaultCellStyle())
		out.Write(5, 1, "界x", DefaultCellStyle())
		out.WriteChar(6, 1, 'q', DefaultCellStyle())
		out.Write(0, 2, "x你y", DefaultCellStyle())
		checkWideInvariant(t, out)
	})
}

// checkWideInvariant asserts spec property 6: placeholders appear only
// immediately right of a width-2 rune, and no wide rune sits in the last
// column.
func checkWideInvariant(t *testing.T, out *Output) {
	t.Helper()
	for y := 0; y < out.Height(); y++ {
		for x := 0; x < out.Width(); x++ {
			c := out.Get(x, y)
			if c.IsPlaceholder() {
				if x == 0 {
					t.Fatalf("placeholder at column 0, row %d", y)
				}
				if prev := out.Get(x-1, y); prev.Rune == 0 || runewidth.RuneWidth(prev.Rune) != 2 {
					t.Fatalf("orphan placeholder at (%d,%d)", x, y)
				}
			}
			if runewidth.RuneWidth(c.Rune) == 2 && x == out.Width()-1 {
				t.Fatalf("wide rune at last column (%d,%d)", x, y)
			}
		}
	}
}

func TestDirtyTracking(t *testing.T) {
	t.Run("MutationSetsExactRow", func(t *testing.T) {
		out := NewOutput(10, 5)
		out.ClearDirty()
		out.WriteChar(3, 2, 'x', DefaultCellStyle())
		for y := 0; y < 5; y++ {
			want := y == 2
			if out.IsRowDirty(y) != want {
				t.Errorf("row %d dirty=%v, want %v", y, out.IsRowDirty(y), want)
			}
		}
		if !out.IsDirty() {
			t.Error("any-dirty flag must be set")
		}
	})

	t.Run("DirtyRowIndicesAscending", func(t *testing.T) {
		out := NewOutput(10, 5)
		out.ClearDirty()
		out.WriteChar(0, 4, 'a', DefaultCellStyle())
		out.WriteChar(0, 1, 'b', DefaultCellStyle())
		rows := out.DirtyRowIndices()
		if len(rows) != 2 || rows[0] != 1 || rows[1] != 4 {
			t.Errorf("expected [1 4], got %v", rows)
		}
	})

	t.Run("ClearDirtyResets", func(t *testing.T) {
		out := NewOutput(10, 5)
		out.WriteChar(0, 0, 'a', DefaultCellStyle())
		out.ClearDirty()
		if out.IsDirty() || len(out.DirtyRowIndices()) != 0 {
			t.Error("ClearDirty must reset all tracking")
		}
	})
}

func TestClipStack(t *testing.T) {
	t.Run("WritesOutsideClipDropped", func(t *testing.T) {
		out := NewOutput(10, 10)
		out.Clip(Rect{X: 2, Y: 2, W: 3, H: 3})
		out.WriteChar(0, 0, 'x', DefaultCellStyle())
		out.WriteChar(3, 3, 'y', DefaultCellStyle())
		out.Unclip()
		if out.Get(0, 0).Rune != ' ' {
			t.Error("write outside clip must be dropped")
		}
		if out.Get(3, 3).Rune != 'y' {
			t.Error("write inside clip must land")
		}
	})

	t.Run("NestedClipsIntersect", func(t *testing.T) {
		out := NewOutput(10, 10)
		out.Clip(Rect{X: 0, Y: 0, W: 5, H: 5})
		out.Clip(Rect{X: 3, Y: 3, W: 5, H: 5})
		out.WriteChar(4, 4, 'a', DefaultCellStyle())
		out.WriteChar(6, 4, 'b', DefaultCellStyle())
		out.Unclip()
		out.Unclip()
		if out.Get(4, 4).Rune != 'a' {
			t.Error("write inside intersection must land")
		}
		if out.Get(6, 4).Rune != ' ' {
			t.Error("write inside inner but outside outer must be dropped")
		}
	})

	t.Run("UnbalancedUnclipPanics", func(t *testing.T) {
		out := NewOutput(2, 2)
		defer func() {
			if recover() == nil {
				t.Error("expected panic on Unclip of empty stack")
			}
		}()
		out.Unclip()
	})
}

func TestRender(t *testing.T) {
	t.Run("TrimsTrailing", func(t *testing.T) {
		out := NewOutput(10, 3)
		out.Write(0, 0, "hi", DefaultCellStyle())
		got := out.Render()
		if got != "hi" {
			t.Errorf("expected %q, got %q", "hi", got)
		}
	})

	t.Run("CRLFBetweenRows", func(t *testing.T) {
		out := NewOutput(10, 3)
		out.Write(0, 0, "a", DefaultCellStyle())
		out.Write(0, 1, "b", DefaultCellStyle())
		if got := out.Render(); got != "a\r\nb" {
			t.Errorf("expected %q, got %q", "a\r\nb", got)
		}
	})

	t.Run("FixedHeightKeepsEmptyRows", func(t *testing.T) {
		out := NewOutput(4, 3)
		out.Write(0, 0, "a", DefaultCellStyle())
		if got := strings.Count(out.RenderFixedHeight(), "\r\n"); got != 2 {
			t.Errorf("expected 2 CRLF separators, got %d", got)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		out := NewOutput(10, 3)
		out.Write(0, 0, "hello", CellStyle{FG: Red})
		first := out.Render()
		second := out.Render()
		if first != second {
			t.Error("consecutive renders with no mutation must be identical")
		}
	})

	t.Run("StyleRunsShareSequences", func(t *testing.T) {
		out := NewOutput(10, 1)
		st := CellStyle{FG: Red}
		out.Write(0, 0, "aaa", st)
		got := out.Render()
		if c := strings.Count(got, "\x1b[0m"); c != 1 {
			t.Errorf("one run must close with exactly one reset, got %d in %q", c, got)
		}
		if c := strings.Count(got, "\x1b[0;31m"); c != 1 {
			t.Errorf("one run must open with exactly one SGR, got %d in %q", c, got)
		}
	})

	t.Run("DefaultRunsEmitNoEscapes", func(t *testing.T) {
		out := NewOutput(10, 1)
		out.Write(0, 0, "plain", DefaultCellStyle())
		if strings.Contains(out.Render(), "\x1b") {
			t.Error("default-styled cells must emit no escape bytes")
		}
	})
}

func TestSGRColors(t *testing.T) {
	tests := []struct {
		name  string
		style CellStyle
		want  string
	}{
		{"named", CellStyle{FG: Red}, "\x1b[0;31m"},
		{"bright", CellStyle{FG: BrightRed}, "\x1b[0;91m"},
		{"bg named", CellStyle{BG: Blue}, "\x1b[0;44m"},
		{"indexed", CellStyle{FG: Indexed(137)}, "\x1b[0;38;5;137m"},
		{"rgb", CellStyle{FG: RGB(10, 20, 30)}, "\x1b[0;38;2;10;20;30m"},
		{"bold attr", CellStyle{Attr: AttrBold}, "\x1b[0;1m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sgrOpen(tt.style); got != tt.want {
				t.Errorf("sgrOpen = %q, want %q", got, tt.want)
			}
		})
	}
}
