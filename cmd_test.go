package weave

import (
	"errors"
	"testing"
	"time"
)

// collectMsgs drains up to n messages from the executor with a timeout.
func collectMsgs(t *testing.T, e *cmdExecutor, n int) []Msg {
	t.Helper()
	var msgs []Msg
	deadline := time.After(2 * time.Second)
	for len(msgs) < n {
		select {
		case m := <-e.results:
			msgs = append(msgs, m)
		case <-deadline:
			t.Fatalf("timed out after %d of %d messages", len(msgs), n)
		}
	}
	return msgs
}

type testMsg struct{ n int }

func TestPerformDeliversMessage(t *testing.T) {
	e := newCmdExecutor(nil)
	defer e.stop()
	e.run(Perform(func() Msg { return testMsg{n: 7} }))
	msgs := collectMsgs(t, e, 1)
	if got, ok := msgs[0].(testMsg); !ok || got.n != 7 {
		t.Errorf("got %+v, want testMsg{7}", msgs[0])
	}
}

func TestBatchRunsAll(t *testing.T) {
	e := newCmdExecutor(nil)
	defer e.stop()
	e.run(Batch(
		Perform(func() Msg { return testMsg{1} }),
		Perform(func() Msg { return testMsg{2} }),
		Perform(func() Msg { return testMsg{3} }),
	))
	msgs := collectMsgs(t, e, 3)
	seen := map[int]bool{}
	for _, m := range msgs {
		seen[m.(testMsg).n] = true
	}
	if !seen[1] || !seen[2] || !seen[3] {
		t.Errorf("batch dropped messages: %v", msgs)
	}
}

func TestSequenceRunsInOrder(t *testing.T) {
	e := newCmdExecutor(nil)
	defer e.stop()
	e.run(Sequence(
		Perform(func() Msg { return testMsg{1} }),
		Perform(func() Msg { return testMsg{2} }),
		Perform(func() Msg { return testMsg{3} }),
	))
	msgs := collectMsgs(t, e, 3)
	for i, m := range msgs {
		if m.(testMsg).n != i+1 {
			t.Fatalf("sequence out of order: %v", msgs)
		}
	}
}

func TestTickDeliversOnce(t *testing.T) {
	e := newCmdExecutor(nil)
	defer e.stop()
	e.run(Tick(time.Millisecond, func(ts time.Time) Msg { return TickMsg{Time: ts} }))
	msgs := collectMsgs(t, e, 1)
	if _, ok := msgs[0].(TickMsg); !ok {
		t.Errorf("got %T, want TickMsg", msgs[0])
	}
	select {
	case m := <-e.results:
		t.Errorf("Tick delivered a second message: %+v", m)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestEveryKeepsTicking(t *testing.T) {
	e := newCmdExecutor(nil)
	defer e.stop()
	e.run(Every(time.Millisecond, func(ts time.Time) Msg { return TickMsg{Time: ts} }))
	collectMsgs(t, e, 3)
}

func TestSleepThenChains(t *testing.T) {
	e := newCmdExecutor(nil)
	defer e.stop()
	e.run(Sleep(time.Millisecond, Perform(func() Msg { return testMsg{42} })))
	msgs := collectMsgs(t, e, 1)
	if msgs[0].(testMsg).n != 42 {
		t.Errorf("sleep continuation got %+v", msgs[0])
	}
}

func TestTaskPanicBecomesCmdError(t *testing.T) {
	e := newCmdExecutor(nil)
	defer e.stop()
	e.run(Perform(func() Msg { panic(errors.New("boom")) }))
	msgs := collectMsgs(t, e, 1)
	if _, ok := msgs[0].(CmdErrorMsg); !ok {
		t.Errorf("panicking task must deliver CmdErrorMsg, got %T", msgs[0])
	}
}

func TestCmdMap(t *testing.T) {
	type wrapped struct{ inner Msg }
	wrap := func(m Msg) Msg { return wrapped{inner: m} }

	t.Run("Perform", func(t *testing.T) {
		e := newCmdExecutor(nil)
		defer e.stop()
		e.run(Perform(func() Msg { return testMsg{1} }).Map(wrap))
		msgs := collectMsgs(t, e, 1)
		w, ok := msgs[0].(wrapped)
		if !ok || w.inner.(testMsg).n != 1 {
			t.Errorf("mapped perform got %+v", msgs[0])
		}
	})

	t.Run("Tick", func(t *testing.T) {
		e := newCmdExecutor(nil)
		defer e.stop()
		e.run(Tick(time.Millisecond, func(time.Time) Msg { return testMsg{2} }).Map(wrap))
		msgs := collectMsgs(t, e, 1)
		if _, ok := msgs[0].(wrapped); !ok {
			t.Errorf("mapped tick got %T", msgs[0])
		}
	})

	t.Run("BatchRecurses", func(t *testing.T) {
		e := newCmdExecutor(nil)
		defer e.stop()
		e.run(Batch(Perform(func() Msg { return testMsg{3} })).Map(wrap))
		msgs := collectMsgs(t, e, 1)
		if _, ok := msgs[0].(wrapped); !ok {
			t.Errorf("mapped batch got %T", msgs[0])
		}
	})

	t.Run("TerminalPassesThrough", func(t *testing.T) {
		c := Terminal(TermClearScreen).Map(wrap)
		if c.kind != cmdTerminal || c.terminal != TermClearScreen {
			t.Errorf("mapped terminal cmd changed: %+v", c)
		}
	})
}

func TestNoneIsNoOp(t *testing.T) {
	ctx := NewRuntimeContext()
	ctx.enqueue(None())
	if len(ctx.drainCmds()) != 0 {
		t.Error("None must not enter the queue")
	}
}
