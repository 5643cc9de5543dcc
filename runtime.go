package weave

import (
	"fmt"
	"os"
	"sync/atomic"
)

// debugChecks gates the fail-fast programmer-error assertions (hook order,
// unbalanced clip stack). On by default; set WEAVE_RELEASE to trade the
// panics for silent refusal. A hook called outside a render panics either way.
var debugChecks = os.Getenv("WEAVE_RELEASE") == ""

// slotKind tags what a hook slot stores so a call-order mismatch between
// renders is detectable.
type slotKind uint8

const (
	slotSignal slotKind = iota
	slotInput
	slotScroll
	slotCmdOnce
	slotMount
	slotUnmount
	slotShortcut
	slotTween
	slotMsg
	slotMouse
	slotFrameStats
	slotMemo
	slotAppControl
	slotFocus
)

var slotKindNames = map[slotKind]string{
	slotSignal:     "use_signal",
	slotInput:      "use_input",
	slotScroll:     "use_scroll",
	slotCmdOnce:    "use_cmd_once",
	slotMount:      "use_mount",
	slotUnmount:    "use_unmount",
	slotShortcut:   "use_keyboard_shortcut",
	slotTween:      "use_tween",
	slotMsg:        "use_msg",
	slotMouse:      "use_mouse",
	slotFrameStats: "use_frame_stats",
	slotMemo:       "memo",
	slotAppControl: "use_app",
	slotFocus:      "use_focus",
}

// hookSlot is one positional storage cell in the runtime's slot table. The
// table survives across renders; each render walks it in call order.
type hookSlot struct {
	kind    slotKind
	value   any
	cleanup func() // runs when the slot is reclaimed
}

// FrameStats is the per-frame timing a component can observe when the
// runner was configured with frame-stat collection.
type FrameStats struct {
	FrameCount   int
	LastBuild    int64 // microseconds
	LastLayout   int64
	LastPaint    int64
	LastFlush    int64
	CurrentFPS   uint32
	PatchCount   int
	FullRebuilds int
}

// RuntimeContext bundles the per-app reactive state: the hook slot table,
// input dispatch, the command queue, and the app-control surface. It is
// exclusive to the main thread; only the render-request flag and the
// exit/suspend flags are cross-thread.
type RuntimeContext struct {
	slots  []hookSlot
	cursor int
	inRender bool

	inputHandlers []func(text string, key Key)
	mouseHandlers []func(MouseEvent)
	msgHandlers   []func(Msg)

	cmds []Cmd

	dirty      atomic.Bool
	renderWake chan struct{}

	exitFlag    atomic.Bool
	suspendFlag atomic.Bool

	theme *Theme

	focusedID  string
	focusOrder []string

	stats        FrameStats
	collectStats bool
}

// NewRuntimeContext creates an empty runtime.
func NewRuntimeContext() *RuntimeContext {
	return &RuntimeContext{renderWake: make(chan struct{}, 1)}
}

// currentRuntime is the process-wide "current" pointer established for the
// duration of each component call. Main-thread only.
var currentRuntime *RuntimeContext

// enterRender installs ctx as current and resets the per-render state:
// the slot cursor rewinds and the handler lists are cleared for
// re-registration.
func (ctx *RuntimeContext) enterRender() {
	currentRuntime = ctx
	ctx.inRender = true
	ctx.cursor = 0
	ctx.inputHandlers = ctx.inputHandlers[:0]
	ctx.mouseHandlers = ctx.mouseHandlers[:0]
	ctx.msgHandlers = ctx.msgHandlers[:0]
	ctx.focusOrder = ctx.focusOrder[:0]
}

// exitRender uninstalls the current pointer and reclaims any slots the
// render no longer reached, running their cleanups (this is where unmount
// callbacks and signal cells die).
func (ctx *RuntimeContext) exitRender() {
	for i := len(ctx.slots) - 1; i >= ctx.cursor; i-- {
		if ctx.slots[i].cleanup != nil {
			ctx.slots[i].cleanup()
		}
	}
	ctx.slots = ctx.slots[:ctx.cursor]
	ctx.inRender = false
	currentRuntime = nil
}

// useHook claims the next slot in call order. On first render it appends a
// new slot from init; on later renders it reclaims the slot at the same
// position. A kind mismatch at a position is a hook-order violation.
func useHook(kind slotKind, init func() (any, func())) *hookSlot {
	ctx := currentRuntime
	if ctx == nil || !ctx.inRender {
		panic(fmt.Sprintf("weave: %s called outside a component render", slotKindNames[kind]))
	}
	if ctx.cursor < len(ctx.slots) {
		slot := &ctx.slots[ctx.cursor]
		if slot.kind != kind {
			if debugChecks {
				panic(fmt.Sprintf("weave: Hook order violation at slot %d: have %s, want %s",
					ctx.cursor, slotKindNames[slot.kind], slotKindNames[kind]))
			}
			// Refuse to reuse mismatched storage: reclaim and rebuild.
			if slot.cleanup != nil {
				slot.cleanup()
			}
			v, cl := init()
			*slot = hookSlot{kind: kind, value: v, cleanup: cl}
		}
		ctx.cursor++
		return slot
	}
	v, cl := init()
	ctx.slots = append(ctx.slots, hookSlot{kind: kind, value: v, cleanup: cl})
	ctx.cursor++
	return &ctx.slots[len(ctx.slots)-1]
}

// RequestRender marks the app dirty and wakes the event loop. Safe from any
// goroutine.
func (ctx *RuntimeContext) RequestRender() {
	ctx.dirty.Store(true)
	select {
	case ctx.renderWake <- struct{}{}:
	default:
	}
}

// needsRender consumes the dirty flag.
func (ctx *RuntimeContext) needsRender() bool {
	return ctx.dirty.Swap(false)
}

// Exit asks the event loop to terminate after the current iteration.
func (ctx *RuntimeContext) Exit() {
	ctx.exitFlag.Store(true)
	ctx.RequestRender()
}

// Suspend asks the event loop to stop the process (SIGTSTP) after restoring
// the terminal, resuming where it left off on SIGCONT.
func (ctx *RuntimeContext) Suspend() {
	ctx.suspendFlag.Store(true)
	ctx.RequestRender()
}

// enqueue appends a command for the pipeline to drain this frame.
func (ctx *RuntimeContext) enqueue(c Cmd) {
	if c.kind == cmdNone {
		return
	}
	ctx.cmds = append(ctx.cmds, c)
}

// drainCmds hands the queued commands to the caller and empties the queue.
func (ctx *RuntimeContext) drainCmds() []Cmd {
	cmds := ctx.cmds
	ctx.cmds = nil
	return cmds
}

// mouseNeeded reports whether any handler registered this render wants
// mouse events, so the terminal layer can toggle mouse mode lazily.
func (ctx *RuntimeContext) mouseNeeded() bool {
	return len(ctx.mouseHandlers) > 0
}

// dispatchInput runs the input handlers registered by the latest render, in
// registration order.
func (ctx *RuntimeContext) dispatchInput(text string, key Key) {
	for _, h := range ctx.inputHandlers {
		h(text, key)
	}
}

// dispatchMouse runs the mouse handlers registered by the latest render.
func (ctx *RuntimeContext) dispatchMouse(ev MouseEvent) {
	for _, h := range ctx.mouseHandlers {
		h(ev)
	}
}

// dispatchMsg runs the message handlers registered by the latest render.
func (ctx *RuntimeContext) dispatchMsg(m Msg) {
	for _, h := range ctx.msgHandlers {
		h(m)
	}
}

// setFocus moves focus to id and schedules a render so focused styling
// updates.
func (ctx *RuntimeContext) setFocus(id string) {
	if ctx.focusedID == id {
		return
	}
	ctx.focusedID = id
	ctx.RequestRender()
}

// FocusNext cycles focus through the ids registered by the latest render.
func (ctx *RuntimeContext) FocusNext() {
	if len(ctx.focusOrder) == 0 {
		return
	}
	for i, id := range ctx.focusOrder {
		if id == ctx.focusedID {
			ctx.setFocus(ctx.focusOrder[(i+1)%len(ctx.focusOrder)])
			return
		}
	}
	ctx.setFocus(ctx.focusOrder[0])
}
