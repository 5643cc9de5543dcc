package weave

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/muesli/cancelreader"
	"github.com/muesli/termenv"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// TerminalError wraps a terminal I/O failure surfaced from Run (spec §7).
type TerminalError struct {
	Op  string
	Err error
}

func (e *TerminalError) Error() string { return fmt.Sprintf("terminal %s: %v", e.Op, e.Err) }
func (e *TerminalError) Unwrap() error { return e.Err }

// TerminalIO owns the terminal file descriptor: raw mode, the alternate
// screen, mouse/paste modes, resize signals, and the cancelable stdin
// reader. Only the main thread writes to it.
type TerminalIO struct {
	writer io.Writer
	fd     int
	isTTY  bool

	width  int
	height int

	oldState  *term.State
	inRaw     bool
	altScreen bool

	mouseOn  bool
	pasteOn  bool
	titleSet bool

	reader     cancelreader.CancelReader
	events     chan Event
	resizeChan chan struct{}
	sigChan    chan os.Signal

	// inline region bookkeeping
	inlineLines int

	buf bytes.Buffer
	mu  sync.Mutex

	readerWG sync.WaitGroup
}

// NewTerminalIO wires up stdout/stdin. Pass nil to use os.Stdout.
func NewTerminalIO(w io.Writer) (*TerminalIO, error) {
	if w == nil {
		w = os.Stdout
	}
	fd := int(os.Stdout.Fd())
	t := &TerminalIO{
		writer:     w,
		fd:         fd,
		isTTY:      isatty.IsTerminal(os.Stdout.Fd()),
		events:     make(chan Event, 32),
		resizeChan: make(chan struct{}, 1),
		sigChan:    make(chan os.Signal, 1),
	}
	t.width, t.height = t.querySize()
	t.detectProfile()
	return t, nil
}

// detectProfile records the terminal's color capability for the serializer.
func (t *TerminalIO) detectProfile() {
	if !t.isTTY {
		return
	}
	colorProfile = termenv.ColorProfile()
}

// querySize asks the terminal for its dimensions, preferring the portable
// path and falling back to the raw ioctl, then to 80x24.
func (t *TerminalIO) querySize() (int, int) {
	if w, h, err := term.GetSize(t.fd); err == nil && w > 0 && h > 0 {
		return w, h
	}
	if ws, err := unix.IoctlGetWinsize(t.fd, unix.TIOCGWINSZ); err == nil && ws.Col > 0 {
		return int(ws.Col), int(ws.Row)
	}
	return 80, 24
}

// Size returns the cached terminal dimensions.
func (t *TerminalIO) Size() (int, int) { return t.width, t.height }

// RefreshSize re-queries the terminal and reports whether it changed.
func (t *TerminalIO) RefreshSize() bool {
	w, h := t.querySize()
	if w == t.width && h == t.height {
		return false
	}
	t.width, t.height = w, h
	return true
}

// IsTTY reports whether stdout is an interactive terminal.
func (t *TerminalIO) IsTTY() bool { return t.isTTY }

// Events is the stream of decoded input events.
func (t *TerminalIO) Events() <-chan Event { return t.events }

// ResizeChan signals SIGWINCH deliveries.
func (t *TerminalIO) ResizeChan() <-chan struct{} { return t.resizeChan }

// EnterRaw switches the terminal to raw mode and starts the input reader
// and resize watcher. altScreen selects the alternate buffer.
func (t *TerminalIO) EnterRaw(altScreen bool) error {
	if t.inRaw {
		return nil
	}
	if t.isTTY {
		state, err := term.MakeRaw(int(os.Stdin.Fd()))
		if err != nil {
			return &TerminalError{Op: "raw mode", Err: err}
		}
		t.oldState = state
	}
	t.inRaw = true

	if altScreen {
		t.write("\x1b[?1049h\x1b[2J\x1b[H")
		t.altScreen = true
	}
	t.write("\x1b[?25l")

	signal.Notify(t.sigChan, syscall.SIGWINCH)
	go t.watchSignals()

	if err := t.startReader(); err != nil {
		return err
	}
	return nil
}

// ExitRaw restores the terminal: mouse and paste off, cursor shown,
// alt-screen left, raw mode undone. Safe to call more than once.
func (t *TerminalIO) ExitRaw() error {
	if !t.inRaw {
		return nil
	}
	t.stopReader()
	signal.Stop(t.sigChan)

	t.SetMouse(false)
	t.SetBracketedPaste(false)
	t.write("\x1b[0m\x1b[?25h")
	if t.altScreen {
		t.write("\x1b[?1049l")
		t.altScreen = false
	}

	var err error
	if t.oldState != nil {
		if rerr := term.Restore(int(os.Stdin.Fd()), t.oldState); rerr != nil {
			err = &TerminalError{Op: "restore", Err: rerr}
		}
		t.oldState = nil
	}
	t.inRaw = false
	return err
}

// Release hands the real terminal to an external process (exec, suspend):
// input reader stopped, modes restored, cursor shown.
func (t *TerminalIO) Release() error {
	t.stopReader()
	t.SetMouse(false)
	t.write("\x1b[0m\x1b[?25h")
	if t.altScreen {
		t.write("\x1b[?1049l")
	}
	if t.oldState != nil {
		if err := term.Restore(int(os.Stdin.Fd()), t.oldState); err != nil {
			return &TerminalError{Op: "release", Err: err}
		}
	}
	return nil
}

// Reacquire reverses Release.
func (t *TerminalIO) Reacquire() error {
	if t.isTTY {
		state, err := term.MakeRaw(int(os.Stdin.Fd()))
		if err != nil {
			return &TerminalError{Op: "reacquire", Err: err}
		}
		t.oldState = state
	}
	if t.altScreen {
		t.write("\x1b[?1049h\x1b[2J\x1b[H")
	}
	t.write("\x1b[?25l")
	t.RefreshSize()
	return t.startReader()
}

// startReader spawns the cancelable stdin reader feeding the event channel.
func (t *TerminalIO) startReader() error {
	r, err := cancelreader.NewReader(os.Stdin)
	if err != nil {
		return &TerminalError{Op: "input reader", Err: err}
	}
	t.reader = r
	t.readerWG.Add(1)
	go t.readLoop(r)
	return nil
}

// stopReader cancels the reader and waits for the read loop to drain.
func (t *TerminalIO) stopReader() {
	if t.reader != nil {
		t.reader.Cancel()
		t.readerWG.Wait()
		t.reader.Close()
		t.reader = nil
	}
}

// readLoop reads raw bytes off stdin and decodes them into events.
func (t *TerminalIO) readLoop(r cancelreader.CancelReader) {
	defer t.readerWG.Done()
	var pending []byte
	chunk := make([]byte, 256)
	for {
		n, err := r.Read(chunk)
		if err != nil {
			return
		}
		pending = append(pending, chunk[:n]...)
		var events []Event
		events, pending = decodeInput(pending)
		for _, ev := range events {
			select {
			case t.events <- ev:
			default:
				// Input burst beyond the buffer: drop rather than block
				// the reader behind a stalled main thread.
			}
		}
	}
}

// watchSignals converts SIGWINCH into resize notifications.
func (t *TerminalIO) watchSignals() {
	for range t.sigChan {
		select {
		case t.resizeChan <- struct{}{}:
		default:
		}
	}
}

// SetMouse toggles mouse reporting (normal + drag tracking, SGR encoding).
func (t *TerminalIO) SetMouse(on bool) {
	if on == t.mouseOn {
		return
	}
	if on {
		t.write("\x1b[?1000h\x1b[?1002h\x1b[?1006h")
	} else {
		t.write("\x1b[?1006l\x1b[?1002l\x1b[?1000l")
	}
	t.mouseOn = on
}

// SetBracketedPaste toggles bracketed paste mode (2004).
func (t *TerminalIO) SetBracketedPaste(on bool) {
	if on == t.pasteOn {
		return
	}
	if on {
		t.write("\x1b[?2004h")
	} else {
		t.write("\x1b[?2004l")
	}
	t.pasteOn = on
}

// ShowCursor makes the cursor visible.
func (t *TerminalIO) ShowCursor() { t.write("\x1b[?25h") }

// HideCursor hides the cursor.
func (t *TerminalIO) HideCursor() { t.write("\x1b[?25l") }

// MoveCursor positions the cursor (0-based coordinates).
func (t *TerminalIO) MoveCursor(x, y int) {
	t.write(fmt.Sprintf("\x1b[%d;%dH", y+1, x+1))
}

// SetTitle sets the terminal window title via OSC 2.
func (t *TerminalIO) SetTitle(title string) {
	t.write("\x1b]2;" + title + "\a")
	t.titleSet = true
}

// Clear erases the screen and homes the cursor.
func (t *TerminalIO) Clear() { t.write("\x1b[2J\x1b[H") }

// ApplyTerminalCmd executes one terminal control command from the queue.
func (t *TerminalIO) ApplyTerminalCmd(c Cmd) {
	switch c.terminal {
	case TermEnterAltScreen:
		if !t.altScreen {
			t.write("\x1b[?1049h\x1b[2J\x1b[H")
			t.altScreen = true
		}
	case TermExitAltScreen:
		if t.altScreen {
			t.write("\x1b[?1049l")
			t.altScreen = false
		}
	case TermEnableMouse:
		t.SetMouse(true)
	case TermDisableMouse:
		t.SetMouse(false)
	case TermEnableBracketedPaste:
		t.SetBracketedPaste(true)
	case TermDisableBracketedPaste:
		t.SetBracketedPaste(false)
	case TermShowCursor:
		t.ShowCursor()
	case TermHideCursor:
		t.HideCursor()
	case TermClearScreen:
		t.Clear()
	case TermQuerySize:
		t.RefreshSize()
	case TermSetTitle:
		t.SetTitle(c.title)
	}
}

// write sends raw bytes to the terminal under the writer lock.
func (t *TerminalIO) write(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	io.WriteString(t.writer, s)
}

// FlushAltScreen replaces the whole alternate-screen viewport with the
// rendered frame.
func (t *TerminalIO) FlushAltScreen(frame string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.Reset()
	t.buf.WriteString("\x1b[?25l\x1b[H\x1b[2J")
	t.buf.WriteString(frame)
	if _, err := t.writer.Write(t.buf.Bytes()); err != nil {
		return &TerminalError{Op: "write", Err: err}
	}
	return nil
}

// FlushInline rewrites the inline region below the prompt. Only rows whose
// content changed since the previous frame are repositioned and rewritten.
// Between ordinary frames the pipeline keeps the row count stable; when it
// does change (resize, scrollback commit), the region grows by reserving
// fresh lines and shrinks by clearing the rows it no longer covers, so no
// stale output survives on screen.
func (t *TerminalIO) FlushInline(rows []string, changed []bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.Reset()

	if len(rows) < t.inlineLines && len(rows) > 0 {
		// Shrink: blank the trailing rows the region no longer covers,
		// then return to region row 0. The cursor rests at row 0 between
		// flushes.
		stale := t.inlineLines - len(rows)
		t.buf.WriteString(fmt.Sprintf("\x1b[%dB", len(rows)))
		for i := 0; i < stale; i++ {
			t.buf.WriteString("\r\x1b[2K")
			if i < stale-1 {
				t.buf.WriteString("\x1b[1B")
			}
		}
		t.buf.WriteString(fmt.Sprintf("\x1b[%dA", t.inlineLines-1))
		t.buf.WriteString("\r")
		t.inlineLines = len(rows)
	}

	if len(rows) > t.inlineLines {
		// Reserve new rows at the bottom of the region with plain newlines
		// (scrolling at the screen bottom), then return to region row 0 so
		// the relative cursor moves below stay valid. The cursor's own line
		// is region row 0 when no region exists yet.
		down := t.inlineLines - 1
		reserve := len(rows) - t.inlineLines
		if t.inlineLines == 0 {
			down = 0
			reserve = len(rows) - 1
		}
		if down > 0 {
			t.buf.WriteString(fmt.Sprintf("\x1b[%dB", down))
		}
		t.buf.WriteString("\r")
		if reserve > 0 {
			t.buf.WriteString(strings.Repeat("\r\n", reserve))
		}
		if len(rows) > 1 {
			t.buf.WriteString(fmt.Sprintf("\x1b[%dA", len(rows)-1))
		}
		t.inlineLines = len(rows)
	}

	for y, row := range rows {
		if changed != nil && !changed[y] {
			continue
		}
		if y > 0 {
			t.buf.WriteString(fmt.Sprintf("\x1b[%dB", y))
		}
		t.buf.WriteString("\r\x1b[2K")
		t.buf.WriteString(row)
		if y > 0 {
			t.buf.WriteString(fmt.Sprintf("\x1b[%dA", y))
		}
		t.buf.WriteString("\r")
	}
	t.buf.WriteString("\x1b[0m\r")

	if _, err := t.writer.Write(t.buf.Bytes()); err != nil {
		return &TerminalError{Op: "write", Err: err}
	}
	return nil
}

// CommitScrollback prints lines above the inline region (or before the
// dynamic frame in alt-screen mode), pushing them into terminal history.
func (t *TerminalIO) CommitScrollback(lines []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.Reset()
	for _, l := range lines {
		t.buf.WriteString("\r\x1b[2K")
		t.buf.WriteString(l)
		t.buf.WriteString("\x1b[0m\r\n")
	}
	if _, err := t.writer.Write(t.buf.Bytes()); err != nil {
		return &TerminalError{Op: "write", Err: err}
	}
	return nil
}

// InlineLines reports how many rows the inline region currently occupies
// on screen.
func (t *TerminalIO) InlineLines() int { return t.inlineLines }

// EndInlineRegion finishes inline mode: cursor moves below the region so
// the shell prompt continues underneath the final frame.
func (t *TerminalIO) EndInlineRegion() {
	if t.inlineLines > 1 {
		t.write(fmt.Sprintf("\x1b[%dB", t.inlineLines-1))
	}
	if t.inlineLines > 0 {
		t.write("\r\n")
	}
	t.inlineLines = 0
}
