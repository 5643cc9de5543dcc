package main

import (
	"fmt"
	"os"
	"time"

	weave "github.com/kungfusheep/weave"
)

// Fullscreen dashboard: a bordered layout with a ticking clock and a tweened
// gauge. Demonstrates the alt-screen runner with
// adaptive FPS.
func main() {
	start := time.Now()

	app := func() *weave.Element {
		now := weave.UseSignal(time.Now())
		target := weave.UseSignal(30.0)
		control := weave.UseApp()

		weave.UseCmdOnce(weave.Every(time.Second, func(t time.Time) weave.Msg {
			return tick{at: t}
		}))
		weave.UseMsg(func(m weave.Msg) {
			if tm, ok := m.(tick); ok {
				now.Set(tm.at)
			}
		})
		weave.UseKeyboardShortcut("q", control.Exit)
		weave.UseInput(func(text string, key weave.Key) {
			if key.Space {
				target.Update(func(v float64) float64 {
					if v > 50 {
						return 10
					}
					return 90
				})
			}
		})

		gauge := weave.UseTween(target.Get(), 400*time.Millisecond)

		header := weave.Box(
			weave.DefaultStyle().WithBorder(weave.BorderRounded).WithHeight(3),
			weave.Txt(fmt.Sprintf(" uptime %s ", time.Since(start).Round(time.Second)),
				weave.DefaultStyle().Foreground(weave.BrightCyan).Bold()),
		)

		bar := barString(gauge, 40)
		body := weave.Box(
			weave.DefaultStyle().Row().WithGap(1).Grow(1),
			weave.Box(
				weave.DefaultStyle().WithBorder(weave.BorderSingle).Grow(1),
				weave.Txt(now.Get().Format("15:04:05"), weave.DefaultStyle().Bold()),
				weave.Txt("space retargets the gauge", weave.DefaultStyle().Dim()),
			),
			weave.Box(
				weave.DefaultStyle().WithBorder(weave.BorderSingle).Grow(2),
				weave.Txt(fmt.Sprintf("load %3.0f%%", gauge), weave.DefaultStyle()),
				weave.Txt(bar, weave.DefaultStyle().Foreground(weave.Hex("#5fd787"))),
			),
		)

		footer := weave.Txt("q quits", weave.DefaultStyle().Dim())

		return weave.Box(weave.DefaultStyle(), header, body, footer)
	}

	err := weave.Run(app,
		weave.WithFullscreen(),
		weave.WithAdaptiveFPS(15, 90),
		weave.WithFrameStats(),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dashboard:", err)
		os.Exit(1)
	}
}

type tick struct{ at time.Time }

func barString(pct float64, width int) string {
	filled := int(pct / 100 * float64(width))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	out := make([]rune, width)
	for i := range out {
		if i < filled {
			out[i] = '█'
		} else {
			out[i] = '░'
		}
	}
	return string(out)
}
