// Package weave is a declarative terminal-UI runtime. An application is a
// function returning an Element tree; weave diffs the tree against the
// previous frame, patches a persistent flex layout graph, paints the result
// into a styled cell grid, and writes the delta to the terminal at a
// controlled frame rate.
//
// State lives in signals created by hooks:
//
//	app := func() *weave.Element {
//		count := weave.UseSignal(0)
//		weave.UseInput(func(text string, key weave.Key) {
//			if text == "+" {
//				count.Update(func(n int) int { return n + 1 })
//			}
//		})
//		return weave.Box(weave.DefaultStyle(),
//			weave.Txt(fmt.Sprintf("Count: %d", count.Get()), weave.DefaultStyle()),
//		)
//	}
//	weave.Run(app)
//
// By default the app renders inline below the shell prompt; WithFullscreen
// switches to the alternate screen. Subtrees marked Static are committed to
// scrollback once and dropped from subsequent frames.
package weave
