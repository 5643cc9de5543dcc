package weave

import (
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// eventLoop is the single-threaded cooperative driver: it waits for input,
// timers, render requests, and command completions, and invokes the
// pipeline at the frame-rate controller's pace (spec §4.8).
type eventLoop struct {
	ctx      *RuntimeContext
	pipe     *pipeline
	terminal *TerminalIO
	executor *cmdExecutor
	frc      *frameRateController
	filters  filterChain

	exitOnCtrlC bool
	cancel      CancelToken

	lastRender time.Time
}

// run blocks until exit, cancel, or a terminal error. The caller restores
// terminal state.
func (l *eventLoop) run() error {
	// First frame renders unconditionally.
	l.ctx.dirty.Store(true)

	for {
		if l.shouldExit() {
			return nil
		}

		// Render when dirty, but never faster than the frame budget.
		if l.ctx.dirty.Load() {
			wait := l.frc.period() - time.Since(l.lastRender)
			if wait <= 0 {
				if err := l.renderOnce(); err != nil {
					return err
				}
				continue
			}
			// Inside the budget: soak up events until it elapses, then
			// loop around and render.
			l.waitForEvent(wait)
			continue
		}

		// Idle: sleep until something happens, waking periodically so the
		// cancel flag is observed even in a quiet app.
		l.waitForEvent(l.frc.period())
	}
}

// shouldExit checks the cancel token and exit flag.
func (l *eventLoop) shouldExit() bool {
	return l.ctx.exitFlag.Load() || l.cancel.Cancelled()
}

// renderOnce runs one frame through the pipeline, then services any
// suspend request and updates the frame-rate controller.
func (l *eventLoop) renderOnce() error {
	l.ctx.dirty.Store(false)
	w, h := l.terminal.Size()
	l.lastRender = time.Now()
	if err := l.pipe.renderFrame(w, h); err != nil {
		return err
	}
	l.frc.observe(l.pipe.lastFrameDuration())
	l.ctx.stats.CurrentFPS = l.frc.fps()

	if l.ctx.suspendFlag.Swap(false) {
		l.suspend()
	}
	return nil
}

// waitForEvent blocks up to d for one wakeup source and handles it.
// Returns true when the deadline expired with no event.
func (l *eventLoop) waitForEvent(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case ev := <-l.terminal.Events():
		l.handleEvent(ev)
	case <-l.terminal.ResizeChan():
		l.handleResize()
	case <-l.ctx.renderWake:
		// Dirty flag is already set by the requester.
	case m := <-l.executor.results:
		l.handleMsg(m)
	case c := <-l.executor.execRequests:
		runExec(l.terminal, c, l.executor.deliver)
		l.pipe.invalidate()
		l.ctx.dirty.Store(true)
	case <-timer.C:
		return true
	}

	// Drain whatever else queued up before deciding to render, so an input
	// burst coalesces into one frame.
	for {
		select {
		case ev := <-l.terminal.Events():
			l.handleEvent(ev)
		case m := <-l.executor.results:
			l.handleMsg(m)
		default:
			return false
		}
	}
}

// handleEvent runs the filter chain and dispatches to the handlers the
// latest render registered.
func (l *eventLoop) handleEvent(ev Event) {
	ev, ok := l.filters.apply(ev)
	if !ok {
		return
	}

	switch ev.Type {
	case EventKey:
		if l.exitOnCtrlC && ev.Key.Ctrl && ev.Key.Character == 'c' {
			l.ctx.Exit()
			return
		}
		l.ctx.dispatchInput(ev.Text, ev.Key)
	case EventMouse:
		l.ctx.dispatchMouse(ev.Mouse)
	case EventPaste:
		l.ctx.dispatchInput(ev.Paste, Key{})
	case EventResize:
		l.handleResize()
		return
	}
	// Input may have changed state the signals don't cover (handler-local
	// mutation); render after every dispatched event.
	l.ctx.dirty.Store(true)
}

// handleResize re-queries the terminal, invalidates the frame caches, and
// forces a render. Components observe the new size via tea.WindowSizeMsg.
func (l *eventLoop) handleResize() {
	if !l.terminal.RefreshSize() {
		return
	}
	w, h := l.terminal.Size()
	l.ctx.dispatchMsg(tea.WindowSizeMsg{Width: w, Height: h})
	l.pipe.invalidate()
	l.ctx.dirty.Store(true)
}

// handleMsg delivers a command completion to the component's message
// handlers in FIFO order on the main thread.
func (l *eventLoop) handleMsg(m Msg) {
	l.ctx.dispatchMsg(m)
	l.ctx.dirty.Store(true)
}

// suspend hands the terminal back to the shell, stops the process, and
// reverses everything on resume.
func (l *eventLoop) suspend() {
	if err := l.terminal.Release(); err != nil {
		defaultLogger.Errorf("suspend release: %v", err)
	}
	if !l.pipe.altScreen {
		l.terminal.EndInlineRegion()
	}
	_ = syscall.Kill(0, syscall.SIGTSTP)
	// Execution continues here on SIGCONT.
	if err := l.terminal.Reacquire(); err != nil {
		defaultLogger.Errorf("resume reacquire: %v", err)
	}
	l.pipe.invalidate()
	l.ctx.dirty.Store(true)
}
