package weave

import (
	"bytes"
	"strings"
	"testing"
)

func newTestTerminal(t *testing.T) (*TerminalIO, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	term, err := NewTerminalIO(&buf)
	if err != nil {
		t.Fatal(err)
	}
	return term, &buf
}

func TestFlushInlineRegion(t *testing.T) {
	t.Run("GrowTracksLineCount", func(t *testing.T) {
		term, _ := newTestTerminal(t)
		term.FlushInline([]string{"one"}, nil)
		if term.InlineLines() != 1 {
			t.Fatalf("inline lines = %d, want 1", term.InlineLines())
		}
		term.FlushInline([]string{"one", "two", "three"}, nil)
		if term.InlineLines() != 3 {
			t.Errorf("inline lines = %d, want 3 after grow", term.InlineLines())
		}
	})

	t.Run("ShrinkClearsVacatedRows", func(t *testing.T) {
		term, buf := newTestTerminal(t)
		term.FlushInline([]string{"one", "two", "three"}, nil)
		buf.Reset()

		term.FlushInline([]string{"only"}, nil)
		if term.InlineLines() != 1 {
			t.Errorf("inline lines = %d, want 1 after shrink", term.InlineLines())
		}
		out := buf.String()
		// One clear for the rewritten row plus one per vacated row.
		if got := strings.Count(out, "\x1b[2K"); got != 3 {
			t.Errorf("expected 3 line clears (1 live + 2 stale), got %d in %q", got, out)
		}
		if !strings.Contains(out, "only") {
			t.Error("surviving row must still be rewritten")
		}
	})

	t.Run("ShrinkThenGrowStaysConsistent", func(t *testing.T) {
		term, buf := newTestTerminal(t)
		term.FlushInline([]string{"a", "b", "c", "d"}, nil)
		term.FlushInline([]string{"a", "b"}, nil)
		if term.InlineLines() != 2 {
			t.Fatalf("inline lines = %d, want 2", term.InlineLines())
		}
		buf.Reset()
		term.FlushInline([]string{"a", "b", "c"}, nil)
		if term.InlineLines() != 3 {
			t.Errorf("inline lines = %d, want 3 after regrow", term.InlineLines())
		}
		if !strings.Contains(buf.String(), "c") {
			t.Error("regrown row must be written")
		}
	})

	t.Run("UnchangedRowsSkipped", func(t *testing.T) {
		term, buf := newTestTerminal(t)
		term.FlushInline([]string{"keep", "old"}, nil)
		buf.Reset()
		term.FlushInline([]string{"keep", "new"}, []bool{false, true})
		out := buf.String()
		if strings.Contains(out, "keep") {
			t.Error("unchanged row must not be rewritten")
		}
		if !strings.Contains(out, "new") {
			t.Error("changed row must be rewritten")
		}
	})
}
