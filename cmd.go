package weave

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Msg is the message currency delivered back to components by the command
// executor. It reuses bubbletea's vocabulary (tea.Msg is any), so standard
// messages like tea.WindowSizeMsg flow through unchanged.
type Msg = tea.Msg

// TickMsg is delivered by Tick and Every commands.
type TickMsg struct {
	Time time.Time
}

// ExecResult reports the outcome of an Exec command.
type ExecResult struct {
	Err      error
	ExitCode int
}

// CmdErrorMsg reports an executor failure (task panic, spawn failure) back
// to the component; the app stays live.
type CmdErrorMsg struct {
	Err error
}

// TerminalCmd is a stateless terminal control command, handled directly by
// the pipeline rather than the worker pool.
type TerminalCmd uint8

const (
	TermNone TerminalCmd = iota
	TermEnterAltScreen
	TermExitAltScreen
	TermEnableMouse
	TermDisableMouse
	TermEnableBracketedPaste
	TermDisableBracketedPaste
	TermShowCursor
	TermHideCursor
	TermClearScreen
	TermQuerySize
	TermSetTitle
)

// cmdKind selects a Cmd variant.
type cmdKind uint8

const (
	cmdNone cmdKind = iota
	cmdBatch
	cmdSequence
	cmdPerform
	cmdSleep
	cmdTick
	cmdEvery
	cmdExec
	cmdTerminal
)

// Cmd is a deferred side effect drained from the runtime each frame and
// handed to the executor. The zero value is a no-op.
type Cmd struct {
	kind cmdKind

	cmds []Cmd // batch / sequence

	perform func() Msg // async task producing a message

	delay time.Duration // sleep / tick / every period
	then  []Cmd         // sleep continuation

	tick func(time.Time) Msg // tick / every producer

	execName string
	execArgs []string
	execDone func(ExecResult) Msg

	terminal TerminalCmd
	title    string
}

// None is the no-op command.
func None() Cmd { return Cmd{} }

// Batch runs commands concurrently.
func Batch(cmds ...Cmd) Cmd { return Cmd{kind: cmdBatch, cmds: cmds} }

// Sequence runs commands one after another.
func Sequence(cmds ...Cmd) Cmd { return Cmd{kind: cmdSequence, cmds: cmds} }

// Perform runs fn on a worker and delivers its message to the app thread.
func Perform(fn func() Msg) Cmd { return Cmd{kind: cmdPerform, perform: fn} }

// Sleep waits for d, then runs the continuation commands.
func Sleep(d time.Duration, then ...Cmd) Cmd {
	return Cmd{kind: cmdSleep, delay: d, then: then}
}

// Tick delivers one message after d.
func Tick(d time.Duration, fn func(time.Time) Msg) Cmd {
	return Cmd{kind: cmdTick, delay: d, tick: fn}
}

// Every delivers a message each period until the app exits.
func Every(d time.Duration, fn func(time.Time) Msg) Cmd {
	return Cmd{kind: cmdEvery, delay: d, tick: fn}
}

// Exec suspends the UI, runs an interactive external process wired to the
// real terminal, restores the UI, and delivers the result.
func Exec(name string, args []string, done func(ExecResult) Msg) Cmd {
	return Cmd{kind: cmdExec, execName: name, execArgs: args, execDone: done}
}

// Terminal emits a terminal control command.
func Terminal(tc TerminalCmd) Cmd { return Cmd{kind: cmdTerminal, terminal: tc} }

// SetTitle sets the terminal window title (OSC 2).
func SetTitle(title string) Cmd {
	return Cmd{kind: cmdTerminal, terminal: TermSetTitle, title: title}
}

// Map rewrites every message-producing variant by composing f over its
// producer. Terminal commands pass through untouched; a sleep keeps its
// duration and has its follow-up commands mapped.
func (c Cmd) Map(f func(Msg) Msg) Cmd {
	switch c.kind {
	case cmdBatch, cmdSequence:
		mapped := make([]Cmd, len(c.cmds))
		for i, sub := range c.cmds {
			mapped[i] = sub.Map(f)
		}
		out := c
		out.cmds = mapped
		return out
	case cmdPerform:
		inner := c.perform
		out := c
		out.perform = func() Msg { return f(inner()) }
		return out
	case cmdSleep:
		mapped := make([]Cmd, len(c.then))
		for i, sub := range c.then {
			mapped[i] = sub.Map(f)
		}
		out := c
		out.then = mapped
		return out
	case cmdTick, cmdEvery:
		inner := c.tick
		out := c
		out.tick = func(t time.Time) Msg { return f(inner(t)) }
		return out
	case cmdExec:
		inner := c.execDone
		out := c
		out.execDone = func(r ExecResult) Msg { return f(inner(r)) }
		return out
	default:
		return c
	}
}

// cmdExecutor runs background commands on goroutines and feeds completions
// back to the app thread through a bounded FIFO channel the event loop
// drains (spec §5).
type cmdExecutor struct {
	results chan Msg
	wake    func()

	// execRequests are handed to the event loop because running an
	// interactive process needs exclusive terminal ownership.
	execRequests chan Cmd

	done     chan struct{}
	stopOnce sync.Once
}

func newCmdExecutor(wake func()) *cmdExecutor {
	return &cmdExecutor{
		results:      make(chan Msg, 64),
		execRequests: make(chan Cmd, 4),
		wake:         wake,
		done:         make(chan struct{}),
	}
}

// deliver queues a message for the app thread and wakes the event loop.
func (e *cmdExecutor) deliver(m Msg) {
	if m == nil {
		return
	}
	select {
	case e.results <- m:
	case <-e.done:
		return
	}
	if e.wake != nil {
		e.wake()
	}
}

// run dispatches one command. Terminal commands must be filtered out by the
// pipeline before this point.
func (e *cmdExecutor) run(c Cmd) {
	switch c.kind {
	case cmdNone:
	case cmdBatch:
		for _, sub := range c.cmds {
			e.run(sub)
		}
	case cmdSequence:
		seq := append([]Cmd(nil), c.cmds...)
		go func() {
			for _, sub := range seq {
				e.runSync(sub)
			}
		}()
	case cmdPerform:
		go func() {
			defer e.recoverPanic()
			e.deliver(c.perform())
		}()
	case cmdSleep:
		go func() {
			defer e.recoverPanic()
			if !e.sleep(c.delay) {
				return
			}
			for _, sub := range c.then {
				e.run(sub)
			}
		}()
	case cmdTick:
		go func() {
			defer e.recoverPanic()
			if !e.sleep(c.delay) {
				return
			}
			e.deliver(c.tick(time.Now()))
		}()
	case cmdEvery:
		go func() {
			defer e.recoverPanic()
			ticker := time.NewTicker(c.delay)
			defer ticker.Stop()
			for {
				select {
				case t := <-ticker.C:
					e.deliver(c.tick(t))
				case <-e.done:
					return
				}
			}
		}()
	case cmdExec:
		select {
		case e.execRequests <- c:
		default:
			e.deliver(CmdErrorMsg{Err: fmt.Errorf("exec queue full: %s", c.execName)})
		}
	}
}

// runSync is the sequential flavor used inside Sequence.
func (e *cmdExecutor) runSync(c Cmd) {
	defer e.recoverPanic()
	switch c.kind {
	case cmdPerform:
		e.deliver(c.perform())
	case cmdSleep:
		if !e.sleep(c.delay) {
			return
		}
		for _, sub := range c.then {
			e.runSync(sub)
		}
	case cmdTick:
		if !e.sleep(c.delay) {
			return
		}
		e.deliver(c.tick(time.Now()))
	default:
		e.run(c)
	}
}

// sleep waits for d unless the executor shuts down first.
func (e *cmdExecutor) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-e.done:
		return false
	}
}

func (e *cmdExecutor) recoverPanic() {
	if r := recover(); r != nil {
		e.deliver(CmdErrorMsg{Err: fmt.Errorf("command task panic: %v", r)})
	}
}

func (e *cmdExecutor) stop() {
	e.stopOnce.Do(func() { close(e.done) })
}

// runExec runs an interactive external process with the terminal restored
// around it. Called from the event loop, which owns the terminal.
func runExec(t *TerminalIO, c Cmd, deliver func(Msg)) {
	if err := t.Release(); err != nil {
		deliver(CmdErrorMsg{Err: err})
		return
	}
	cmd := exec.Command(c.execName, c.execArgs...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	restoreErr := t.Reacquire()

	result := ExecResult{Err: err}
	if exitErr, ok := err.(*exec.ExitError); ok {
		result.ExitCode = exitErr.ExitCode()
	}
	if c.execDone != nil {
		deliver(c.execDone(result))
	}
	if restoreErr != nil {
		deliver(CmdErrorMsg{Err: restoreErr})
	}
}
