package weave

import "github.com/lucasb-eyer/go-colorful"

// Theme provides a small set of named styles for consistent appearance
// across an app's components.
type Theme struct {
	Base   Style
	Muted  Style
	Accent Style
	Error  Style
	Border Style
}

// ThemeDark is light text on a dark background.
var ThemeDark = Theme{
	Base:   DefaultStyle().Foreground(White),
	Muted:  DefaultStyle().Foreground(BrightBlack),
	Accent: DefaultStyle().Foreground(BrightCyan),
	Error:  DefaultStyle().Foreground(BrightRed),
	Border: DefaultStyle().Foreground(BrightBlack),
}

// ThemeLight is dark text on a light background.
var ThemeLight = Theme{
	Base:   DefaultStyle().Foreground(Black),
	Muted:  DefaultStyle().Foreground(BrightBlack),
	Accent: DefaultStyle().Foreground(Blue),
	Error:  DefaultStyle().Foreground(Red),
	Border: DefaultStyle().Foreground(White),
}

// globalTheme is the fallback when no runtime is active.
var globalTheme = ThemeDark

// SetTheme writes into the active runtime's theme slot if a render is in
// progress, else into the global default.
func SetTheme(t Theme) {
	if ctx := currentRuntime; ctx != nil {
		ctx.theme = &t
		return
	}
	globalTheme = t
}

// CurrentTheme resolves the theme visible to the caller: the active
// runtime's, else the global default.
func CurrentTheme() Theme {
	if ctx := currentRuntime; ctx != nil && ctx.theme != nil {
		return *ctx.theme
	}
	return globalTheme
}

// LerpColor blends two RGB colors in CIE-L*u*v* space, which keeps
// perceived brightness even through the ramp. Non-RGB colors snap to the
// target at t >= 0.5.
func LerpColor(from, to Color, t float64) Color {
	if t <= 0 {
		return from
	}
	if t >= 1 {
		return to
	}
	if from.Mode != ColorRGB || to.Mode != ColorRGB {
		if t < 0.5 {
			return from
		}
		return to
	}
	a := colorful.Color{R: float64(from.R) / 255, G: float64(from.G) / 255, B: float64(from.B) / 255}
	b := colorful.Color{R: float64(to.R) / 255, G: float64(to.G) / 255, B: float64(to.B) / 255}
	mixed := a.BlendLuv(b, t).Clamped()
	return RGB(uint8(mixed.R*255+0.5), uint8(mixed.G*255+0.5), uint8(mixed.B*255+0.5))
}

// Hex parses a "#rrggbb" hex string into a truecolor Color. Invalid input
// yields the terminal default.
func Hex(s string) Color {
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}
	}
	return RGB(uint8(c.R*255+0.5), uint8(c.G*255+0.5), uint8(c.B*255+0.5))
}
