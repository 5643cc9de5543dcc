package weave

import "time"

// pipeline orchestrates one frame: build the element tree under the
// runtime, extract statics, reconcile and lay out incrementally, paint into
// a fresh Output, and emit to the terminal (spec §4.7).
type pipeline struct {
	ctx       *RuntimeContext
	engine    *Engine
	terminal  *TerminalIO
	executor  *cmdExecutor
	extractor *staticExtractor
	component func() *Element

	altScreen bool

	prevVNode *VNode
	prevRows  []string
}

func newPipeline(ctx *RuntimeContext, terminal *TerminalIO, executor *cmdExecutor, component func() *Element, altScreen bool) *pipeline {
	return &pipeline{
		ctx:       ctx,
		engine:    NewEngine(),
		terminal:  terminal,
		executor:  executor,
		extractor: newStaticExtractor(),
		component: component,
		altScreen: altScreen,
	}
}

// invalidate drops the cross-frame caches so the next frame rewrites
// everything (used after resize and resume).
func (p *pipeline) invalidate() {
	p.prevRows = nil
}

// renderFrame runs the full per-frame data flow and returns the terminal
// write error, if any.
func (p *pipeline) renderFrame(width, height int) error {
	tStart := time.Now()

	// 1. Build the element tree under the runtime context.
	p.ctx.enterRender()
	el := p.component()
	p.ctx.exitRender()
	root := el
	if root == nil {
		root = RootElement()
	} else if root.Kind != KindRoot {
		root = RootElement(el)
	}
	tBuild := time.Now()

	// 2. Drain queued commands: terminal controls apply immediately, the
	// rest go to the executor.
	for _, c := range p.ctx.drainCmds() {
		if c.kind == cmdTerminal {
			p.terminal.ApplyTerminalCmd(c)
			continue
		}
		p.executor.run(c)
	}

	// 3. Mouse mode follows whether any mounted hook wants mouse input.
	p.terminal.SetMouse(p.ctx.mouseNeeded())

	// 4. Commit new static subtrees to scrollback; the dynamic tree keeps
	// zero-sized placeholders where they sat.
	for _, sub := range p.extractor.extract(root) {
		lines := renderStatic(sub, width)
		if len(lines) == 0 {
			continue
		}
		if err := p.terminal.CommitScrollback(lines); err != nil {
			return err
		}
		p.invalidate()
	}

	// 5. Reconcile against the previous frame and recompute layout.
	current, outcome := p.engine.ComputeElementIncremental(root, p.prevVNode, width, height)
	p.prevVNode = current
	tLayout := time.Now()

	// 6. Paint the tree into a fresh grid.
	out := NewOutput(width, height)
	paintElement(out, p.engine, root, 0, 0)
	if out.ClipDepth() != 0 {
		if debugChecks {
			panic("weave: unbalanced clip stack after paint")
		}
		for out.ClipDepth() > 0 {
			out.Unclip()
		}
	}
	tPaint := time.Now()

	// 7. Emit.
	var err error
	if p.altScreen {
		err = p.terminal.FlushAltScreen(out.Render())
	} else {
		err = p.flushInline(out)
	}
	tFlush := time.Now()

	stats := &p.ctx.stats
	stats.FrameCount++
	stats.PatchCount = outcome.PatchCount
	if outcome.FallbackFullRebuild {
		stats.FullRebuilds++
	}
	stats.LastBuild = tBuild.Sub(tStart).Microseconds()
	stats.LastLayout = tLayout.Sub(tBuild).Microseconds()
	stats.LastPaint = tPaint.Sub(tLayout).Microseconds()
	stats.LastFlush = tFlush.Sub(tPaint).Microseconds()
	defaultLogger.Debugf("frame %d build=%dus layout=%dus paint=%dus flush=%dus patches=%d rebuild=%v",
		stats.FrameCount, stats.LastBuild, stats.LastLayout, stats.LastPaint, stats.LastFlush,
		outcome.PatchCount, outcome.FallbackFullRebuild)

	return err
}

// flushInline emits the inline-append frame: stable line count, only
// changed rows rewritten via cursor positioning.
func (p *pipeline) flushInline(out *Output) error {
	contentH := out.ContentHeight()
	if contentH < 1 {
		contentH = 1
	}
	// Between ordinary frames the region keeps its line count: a frame
	// with less content blanks the leftover rows rather than shrinking.
	// The floor comes from the terminal's actual on-screen count, not
	// prevRows, so it survives invalidate(). After invalidate (resize,
	// scrollback commit) a smaller frame is allowed through and the
	// terminal's shrink path clears the vacated rows.
	if floor := p.terminal.InlineLines(); p.prevRows != nil && floor > contentH {
		contentH = floor
	}
	if contentH > out.Height() {
		contentH = out.Height()
	}

	rows := make([]string, contentH)
	for y := 0; y < contentH; y++ {
		rows[y] = out.RenderRow(y)
	}

	var changed []bool
	if len(p.prevRows) == len(rows) {
		changed = make([]bool, len(rows))
		for y := range rows {
			changed[y] = rows[y] != p.prevRows[y]
		}
	}
	p.prevRows = rows
	return p.terminal.FlushInline(rows, changed)
}

// lastFrameDuration reports how long the last rendered frame took, for the
// adaptive FPS controller.
func (p *pipeline) lastFrameDuration() time.Duration {
	s := p.ctx.stats
	return time.Duration(s.LastBuild+s.LastLayout+s.LastPaint+s.LastFlush) * time.Microsecond
}
