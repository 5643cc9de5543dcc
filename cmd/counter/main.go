package main

import (
	"fmt"
	"os"

	weave "github.com/kungfusheep/weave"
)

// Inline counter: +/- adjust the value, q quits.
func main() {
	app := func() *weave.Element {
		count := weave.UseSignal(0)
		control := weave.UseApp()

		weave.UseInput(func(text string, key weave.Key) {
			switch {
			case text == "+":
				count.Update(func(n int) int { return n + 1 })
			case text == "-":
				count.Update(func(n int) int { return n - 1 })
			}
		})
		weave.UseKeyboardShortcut("q", control.Exit)

		return weave.Box(weave.DefaultStyle(),
			weave.Txt(fmt.Sprintf("Count: %d", count.Get()), weave.DefaultStyle().Bold()),
			weave.Txt("press + / - to change, q or ctrl+c to quit", weave.DefaultStyle().Dim()),
		)
	}

	if err := weave.Run(app); err != nil {
		fmt.Fprintln(os.Stderr, "counter:", err)
		os.Exit(1)
	}
}
