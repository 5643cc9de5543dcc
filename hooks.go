package weave

import (
	"reflect"
	"strings"
	"sync"
	"time"
)

// signalCell is the shared storage behind a Signal handle. The lock guards
// cross-thread writes from worker tasks (spec §5); the notify callback sets
// the app's dirty flag.
type signalCell[T any] struct {
	mu     sync.RWMutex
	value  T
	notify func()
}

// Signal is a cheaply-cloneable handle to a shared reactive value. Writes
// compare-replace by value equality and schedule a re-render on change.
type Signal[T any] struct {
	cell *signalCell[T]
}

// NewSignal creates a detached signal (no render scheduling). Hooks attach
// the runtime's render callback; detached signals are useful in tests.
func NewSignal[T any](init T) Signal[T] {
	return Signal[T]{cell: &signalCell[T]{value: init}}
}

// Get returns a copy of the current value.
func (s Signal[T]) Get() T {
	s.cell.mu.RLock()
	defer s.cell.mu.RUnlock()
	return s.cell.value
}

// Set replaces the value. Equal values are ignored; a changed value marks
// the app as needing a re-render.
func (s Signal[T]) Set(v T) {
	s.cell.mu.Lock()
	changed := !reflect.DeepEqual(s.cell.value, v)
	if changed {
		s.cell.value = v
	}
	notify := s.cell.notify
	s.cell.mu.Unlock()
	if changed && notify != nil {
		notify()
	}
}

// Update applies a read-modify-write under the cell's lock.
func (s Signal[T]) Update(f func(T) T) {
	s.cell.mu.Lock()
	next := f(s.cell.value)
	changed := !reflect.DeepEqual(s.cell.value, next)
	if changed {
		s.cell.value = next
	}
	notify := s.cell.notify
	s.cell.mu.Unlock()
	if changed && notify != nil {
		notify()
	}
}

// UseSignal returns a signal created on the component's first render and
// kept alive by its hook slot for as long as the component stays mounted.
func UseSignal[T any](init T) Signal[T] {
	ctx := currentRuntime
	slot := useHook(slotSignal, func() (any, func()) {
		cell := &signalCell[T]{value: init, notify: ctx.RequestRender}
		return Signal[T]{cell: cell}, nil
	})
	return slot.value.(Signal[T])
}

// UseInput registers an input handler for the frame being rendered.
// Handlers are cleared and re-registered every render, so conditional
// registration follows the component's current state.
func UseInput(handler func(text string, key Key)) {
	ctx := currentRuntime
	useHook(slotInput, func() (any, func()) { return nil, nil })
	ctx.inputHandlers = append(ctx.inputHandlers, handler)
}

// MouseEvent is one decoded mouse report (SGR 1006 encoding).
type MouseEvent struct {
	X, Y    int
	Button  int
	Press   bool
	Motion  bool
	WheelUp bool
	WheelDn bool
}

// UseMouse registers a mouse handler. Having at least one mounted mouse
// hook is what makes the terminal layer enable mouse reporting.
func UseMouse(handler func(MouseEvent)) {
	ctx := currentRuntime
	useHook(slotMouse, func() (any, func()) { return nil, nil })
	ctx.mouseHandlers = append(ctx.mouseHandlers, handler)
}

// UseMsg registers a handler for messages delivered by the command
// executor (task completions, tick messages, exec results).
func UseMsg(handler func(Msg)) {
	ctx := currentRuntime
	useHook(slotMsg, func() (any, func()) { return nil, nil })
	ctx.msgHandlers = append(ctx.msgHandlers, handler)
}

// UseScroll returns a clamped scroll offset and a relative scroll function.
// The offset lives in the hook slot; scrolling past either end pins to the
// bound.
func UseScroll(maxOffset int) (int, func(delta int)) {
	if maxOffset < 0 {
		maxOffset = 0
	}
	sig := UseSignal(0)
	offset := sig.Get()
	if offset > maxOffset {
		offset = maxOffset
		sig.Set(offset)
	}
	scrollBy := func(delta int) {
		sig.Update(func(cur int) int {
			next := cur + delta
			if next < 0 {
				next = 0
			}
			if next > maxOffset {
				next = maxOffset
			}
			return next
		})
	}
	return offset, scrollBy
}

// UseCmdOnce enqueues a command on the component's first render only.
func UseCmdOnce(c Cmd) {
	ctx := currentRuntime
	slot := useHook(slotCmdOnce, func() (any, func()) { return false, nil })
	if fired := slot.value.(bool); !fired {
		slot.value = true
		ctx.enqueue(c)
	}
}

// UseCmd enqueues a command every render.
func UseCmd(c Cmd) {
	ctx := currentRuntime
	useHook(slotCmdOnce, func() (any, func()) { return true, nil })
	ctx.enqueue(c)
}

// UseMount runs fn exactly once, on the component's first render.
func UseMount(fn func()) {
	slot := useHook(slotMount, func() (any, func()) { return false, nil })
	if ran := slot.value.(bool); !ran {
		slot.value = true
		fn()
	}
}

// UseUnmount runs fn when the hook slot is reclaimed, i.e. when the
// component stops being rendered.
func UseUnmount(fn func()) {
	useHook(slotUnmount, func() (any, func()) { return nil, fn })
}

// shortcutSpec is a parsed "ctrl+shift+s" style pattern.
type shortcutSpec struct {
	ctrl, alt, shift, meta bool
	code                   KeyCode
	char                   rune
	fn                     uint8
}

// parseShortcut parses patterns like "ctrl+s", "alt+shift+q", "f5",
// "ctrl+enter". Unknown segments yield a spec that matches nothing.
func parseShortcut(pattern string) shortcutSpec {
	var spec shortcutSpec
	spec.code = KeyUnknown
	for _, part := range strings.Split(strings.ToLower(pattern), "+") {
		switch part {
		case "ctrl", "control":
			spec.ctrl = true
		case "alt":
			spec.alt = true
		case "shift":
			spec.shift = true
		case "meta", "cmd", "super":
			spec.meta = true
		case "enter", "return":
			spec.code = KeyEnter
		case "esc", "escape":
			spec.code = KeyEscape
		case "tab":
			spec.code = KeyTab
		case "space":
			spec.code = KeyChar
			spec.char = ' '
		case "backspace":
			spec.code = KeyBackspace
		case "delete", "del":
			spec.code = KeyDelete
		case "up":
			spec.code = KeyUp
		case "down":
			spec.code = KeyDown
		case "left":
			spec.code = KeyLeft
		case "right":
			spec.code = KeyRight
		case "home":
			spec.code = KeyHome
		case "end":
			spec.code = KeyEnd
		case "pageup", "pgup":
			spec.code = KeyPageUp
		case "pagedown", "pgdn":
			spec.code = KeyPageDown
		default:
			if len(part) >= 2 && part[0] == 'f' {
				n := 0
				for _, d := range part[1:] {
					if d < '0' || d > '9' {
						n = 0
						break
					}
					n = n*10 + int(d-'0')
				}
				if n >= 1 && n <= 12 {
					spec.code = KeyFunction
					spec.fn = uint8(n)
					continue
				}
			}
			runes := []rune(part)
			if len(runes) != 1 {
				return shortcutSpec{code: KeyUnknown}
			}
			spec.code = KeyChar
			spec.char = runes[0]
		}
	}
	return spec
}

// matches reports whether a keypress satisfies the pattern. Modifiers must
// match exactly so "ctrl+s" does not also fire on "ctrl+shift+s".
func (spec shortcutSpec) matches(k Key) bool {
	if spec.code == KeyUnknown {
		return false
	}
	if k.Ctrl != spec.ctrl || k.Alt != spec.alt || k.Meta != spec.meta || k.Shift != spec.shift {
		return false
	}
	if k.Code != spec.code {
		return false
	}
	if spec.code == KeyChar && k.Character != spec.char {
		return false
	}
	if spec.code == KeyFunction && k.Function != spec.fn {
		return false
	}
	return true
}

// UseKeyboardShortcut fires handler when a keypress matches the pattern.
// Sugar over the same input dispatch as UseInput, not a separate path.
func UseKeyboardShortcut(pattern string, handler func()) {
	ctx := currentRuntime
	slot := useHook(slotShortcut, func() (any, func()) { return parseShortcut(pattern), nil })
	spec := slot.value.(shortcutSpec)
	ctx.inputHandlers = append(ctx.inputHandlers, func(_ string, k Key) {
		if spec.matches(k) {
			handler()
		}
	})
}

// tweenState is the per-slot storage behind UseTween.
type tweenState struct {
	value    float64
	target   float64
	duration time.Duration
	last     time.Time
	active   bool
}

// UseTween eases a value toward target, advancing once per tick command:
// each step covers the elapsed fraction of duration of the remaining
// distance, so the value slows as it approaches and settles once within
// 1e-6 of target. Changing the target restarts the tween
// from the current value.
func UseTween(target float64, duration time.Duration) float64 {
	ctx := currentRuntime
	slot := useHook(slotTween, func() (any, func()) {
		return &tweenState{value: target, target: target, duration: duration}, nil
	})
	st := slot.value.(*tweenState)

	if st.target != target {
		st.target = target
		st.duration = duration
		st.last = time.Now()
		st.active = true
	}

	if st.active {
		now := time.Now()
		if !st.last.IsZero() && st.duration > 0 {
			step := float64(now.Sub(st.last)) / float64(st.duration)
			st.value += (st.target - st.value) * minFloat(step, 1)
		} else if st.duration <= 0 {
			st.value = st.target
		}
		st.last = now
		if absFloat(st.target-st.value) < 1e-6 {
			st.value = st.target
			st.active = false
		} else {
			// Keep frames coming until the tween settles.
			ctx.enqueue(Tick(time.Second/60, func(t time.Time) Msg { return TickMsg{Time: t} }))
		}
	}
	return st.value
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// UseFrameStats exposes the runner's per-frame timing when stat collection
// was enabled; the zero value otherwise.
func UseFrameStats() FrameStats {
	ctx := currentRuntime
	useHook(slotFrameStats, func() (any, func()) { return nil, nil })
	if !ctx.collectStats {
		return FrameStats{}
	}
	return ctx.stats
}

// memoState is the per-slot storage behind Memo.
type memoState[P comparable] struct {
	props P
	el    *Element
}

// Memo skips re-rendering a subtree while its props compare equal to the
// previous frame's. The cached Element is returned as-is; reconciliation
// then sees an identical subtree and emits no patches for it. The render
// function must not call hooks: skipped renders would shift every later
// slot position.
func Memo[P comparable](props P, render func(P) *Element) *Element {
	slot := useHook(slotMemo, func() (any, func()) {
		return &memoState[P]{props: props, el: render(props)}, nil
	})
	st, ok := slot.value.(*memoState[P])
	if !ok {
		// Prop type changed between renders; rebuild the slot.
		st = &memoState[P]{props: props, el: render(props)}
		slot.value = st
		return st.el
	}
	if st.el == nil || st.props != props {
		st.props = props
		st.el = render(props)
	}
	return st.el
}

// AppControl is the app-control surface a component captures to drive the
// event loop from handlers: exit, suspend, or force a render.
type AppControl struct {
	ctx *RuntimeContext
}

// Exit terminates the event loop after the current iteration.
func (a AppControl) Exit() {
	if a.ctx != nil {
		a.ctx.Exit()
	}
}

// Suspend stops the process (Ctrl+Z semantics), restoring the terminal
// around the stop.
func (a AppControl) Suspend() {
	if a.ctx != nil {
		a.ctx.Suspend()
	}
}

// RequestRender schedules a frame even when no signal changed.
func (a AppControl) RequestRender() {
	if a.ctx != nil {
		a.ctx.RequestRender()
	}
}

// UseApp returns the app-control handle. Safe to capture in input handlers
// and command callbacks, which run outside the render pass.
func UseApp() AppControl {
	ctx := currentRuntime
	useHook(slotAppControl, func() (any, func()) { return nil, nil })
	return AppControl{ctx: ctx}
}

// UseFocus registers id as focusable and reports whether it currently
// holds focus. The first registered id of a run acquires focus by default;
// Tab/Shift+Tab cycling is the widget layer's job via
// RuntimeContext.FocusNext.
func UseFocus(id string) (focused bool, focus func()) {
	ctx := currentRuntime
	useHook(slotFocus, func() (any, func()) { return nil, nil })
	if ctx.focusOrder == nil {
		ctx.focusOrder = []string{}
	}
	ctx.focusOrder = append(ctx.focusOrder, id)
	if ctx.focusedID == "" {
		ctx.focusedID = id
	}
	return ctx.focusedID == id, func() { ctx.setFocus(id) }
}
