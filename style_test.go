package weave

import (
	"testing"

	"github.com/muesli/termenv"
)

func TestStyleDefaults(t *testing.T) {
	s := DefaultStyle()
	if s.FlexShrink != 1.0 {
		t.Errorf("default flex shrink = %v, want 1.0", s.FlexShrink)
	}
	if s.Width.Kind != DimAuto || s.Height.Kind != DimAuto {
		t.Error("default dimensions must be auto")
	}
	if s.Direction != FlexColumn {
		t.Error("default direction must be column")
	}
}

func TestStyleBuildersArePure(t *testing.T) {
	base := DefaultStyle()
	modified := base.Foreground(Red).Bold().WithWidth(10)
	if base.FG == Red || base.Attr.Has(AttrBold) || base.Width.Kind == DimLength {
		t.Error("builders must not mutate the receiver")
	}
	if modified.FG != Red || !modified.Attr.Has(AttrBold) {
		t.Error("builders must apply on the copy")
	}
}

func TestToFlex(t *testing.T) {
	t.Run("BorderBecomesInset", func(t *testing.T) {
		with := DefaultStyle().WithBorder(BorderSingle).ToFlex()
		without := DefaultStyle().ToFlex()
		if with.borderWidth != 1 {
			t.Errorf("bordered style flex inset = %d, want 1", with.borderWidth)
		}
		if without.borderWidth != 0 {
			t.Errorf("borderless style flex inset = %d, want 0", without.borderWidth)
		}
	})

	t.Run("PerAxisGapOverridesGap", func(t *testing.T) {
		row := float32(3)
		s := DefaultStyle().WithGap(1)
		s.RowGap = &row
		fc := s.ToFlex()
		if fc.rowGap != 3 {
			t.Errorf("rowGap = %v, want the override 3", fc.rowGap)
		}
		if fc.columnGap != 1 {
			t.Errorf("columnGap = %v, want the base gap 1", fc.columnGap)
		}
	})
}

func TestStyleEqual(t *testing.T) {
	a := DefaultStyle().Foreground(Red)
	b := DefaultStyle().Foreground(Red)
	if !a.Equal(b) {
		t.Error("identical styles must compare equal")
	}

	g1, g2 := float32(2), float32(2)
	a.RowGap = &g1
	b.RowGap = &g2
	if !a.Equal(b) {
		t.Error("gap pointers with equal values must compare equal")
	}

	g3 := float32(5)
	b.RowGap = &g3
	if a.Equal(b) {
		t.Error("different gap values must not compare equal")
	}
}

func TestColorDownsample(t *testing.T) {
	tests := []struct {
		name    string
		in      Color
		profile termenv.Profile
		want    ColorMode
	}{
		{"rgb kept in truecolor", RGB(10, 20, 30), termenv.TrueColor, ColorRGB},
		{"rgb to 256", RGB(10, 20, 30), termenv.ANSI256, Color256},
		{"rgb to 16", RGB(255, 0, 0), termenv.ANSI, Color16},
		{"256 to 16", Indexed(196), termenv.ANSI, Color16},
		{"ascii drops color", RGB(1, 2, 3), termenv.Ascii, ColorDefault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.downsample(tt.profile); got.Mode != tt.want {
				t.Errorf("mode = %v, want %v", got.Mode, tt.want)
			}
		})
	}

	t.Run("pure red maps to red", func(t *testing.T) {
		got := RGB(255, 0, 0).downsample(termenv.ANSI)
		if got.Index != 9 && got.Index != 1 {
			t.Errorf("pure red mapped to index %d", got.Index)
		}
	})
}

func TestBorderRunes(t *testing.T) {
	r := BorderSingle.Runes()
	if r.Horizontal != '─' || r.Vertical != '│' || r.TopLeft != '┌' {
		t.Errorf("single border runes = %+v", r)
	}
	d := BorderDouble.Runes()
	if d.Horizontal != '═' {
		t.Errorf("double border horizontal = %q", d.Horizontal)
	}
}

func TestLerpColor(t *testing.T) {
	from, to := RGB(0, 0, 0), RGB(255, 255, 255)
	if got := LerpColor(from, to, 0); got != from {
		t.Errorf("t=0 must return from, got %+v", got)
	}
	if got := LerpColor(from, to, 1); got != to {
		t.Errorf("t=1 must return to, got %+v", got)
	}
	mid := LerpColor(from, to, 0.5)
	if mid.Mode != ColorRGB || mid.R == 0 || mid.R == 255 {
		t.Errorf("midpoint must be strictly between endpoints, got %+v", mid)
	}
}

func TestHex(t *testing.T) {
	c := Hex("#ff8000")
	if c.Mode != ColorRGB || c.R != 255 || c.G != 128 || c.B != 0 {
		t.Errorf("Hex parsed to %+v", c)
	}
	if bad := Hex("nope"); bad.Mode != ColorDefault {
		t.Errorf("invalid hex must yield the default color, got %+v", bad)
	}
}
