package weave

// RunnerConfig is the in-process runner configuration (spec §6). The zero
// value plus defaultConfig() matches the documented defaults: inline mode, 60
// FPS, Ctrl+C exits.
type RunnerConfig struct {
	Fullscreen        bool
	FPS               uint32
	ExitOnCtrlC       bool
	AdaptiveFPS       bool
	MinFPS, MaxFPS    uint32
	CollectFrameStats bool
	CancelToken       CancelToken
	Filters           []EventFilter
}

func defaultConfig() RunnerConfig {
	return RunnerConfig{
		FPS:         60,
		ExitOnCtrlC: true,
		MinFPS:      15,
		MaxFPS:      120,
	}
}

// Option mutates the runner configuration.
type Option func(*RunnerConfig)

// WithFullscreen selects the alternate screen buffer instead of
// inline-append mode.
func WithFullscreen() Option {
	return func(c *RunnerConfig) { c.Fullscreen = true }
}

// WithFPS sets the target frame rate.
func WithFPS(fps uint32) Option {
	return func(c *RunnerConfig) { c.FPS = clampFPS(fps) }
}

// WithExitOnCtrlC controls whether Ctrl+C terminates the app.
func WithExitOnCtrlC(exit bool) Option {
	return func(c *RunnerConfig) { c.ExitOnCtrlC = exit }
}

// WithAdaptiveFPS auto-adjusts the frame rate between min and max based on
// observed render times.
func WithAdaptiveFPS(min, max uint32) Option {
	return func(c *RunnerConfig) {
		c.AdaptiveFPS = true
		c.MinFPS = clampFPS(min)
		c.MaxFPS = clampFPS(max)
	}
}

// WithFrameStats exposes per-frame timing through UseFrameStats.
func WithFrameStats() Option {
	return func(c *RunnerConfig) { c.CollectFrameStats = true }
}

// WithCancelToken wires an external shutdown flag.
func WithCancelToken(t CancelToken) Option {
	return func(c *RunnerConfig) { c.CancelToken = t }
}

// WithFilter appends an event filter to the chain.
func WithFilter(f EventFilter) Option {
	return func(c *RunnerConfig) { c.Filters = append(c.Filters, f) }
}

// App owns one running component tree and its runtime.
type App struct {
	config    RunnerConfig
	component func() *Element

	ctx      *RuntimeContext
	terminal *TerminalIO
	executor *cmdExecutor
}

// NewApp builds an app around a component function. The function is called
// once per frame and must return the desired element tree; it must be
// referentially transparent given current signal values and must not touch
// the terminal itself.
func NewApp(component func() *Element, opts ...Option) *App {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &App{config: config, component: component}
}

// Exit stops a running app from outside a component.
func (a *App) Exit() {
	if a.ctx != nil {
		a.ctx.Exit()
	}
}

// Run enters raw mode, drives the event loop until exit, and restores the
// terminal. Terminal I/O failures are returned after state restoration.
func (a *App) Run() error {
	terminal, err := NewTerminalIO(nil)
	if err != nil {
		return err
	}
	a.terminal = terminal

	ctx := NewRuntimeContext()
	ctx.collectStats = a.config.CollectFrameStats
	a.ctx = ctx

	executor := newCmdExecutor(ctx.RequestRender)
	a.executor = executor
	defer executor.stop()

	pipe := newPipeline(ctx, terminal, executor, a.component, a.config.Fullscreen)

	var filters filterChain
	for _, f := range a.config.Filters {
		filters.add(f)
	}

	loop := &eventLoop{
		ctx:         ctx,
		pipe:        pipe,
		terminal:    terminal,
		executor:    executor,
		frc:         newFrameRateController(a.config.FPS, a.config.MinFPS, a.config.MaxFPS, a.config.AdaptiveFPS),
		filters:     filters,
		exitOnCtrlC: a.config.ExitOnCtrlC,
		cancel:      a.config.CancelToken,
	}

	if err := terminal.EnterRaw(a.config.Fullscreen); err != nil {
		return err
	}

	runErr := loop.run()

	// Best-effort restoration even after a terminal error: mouse off,
	// alt-screen left, cursor shown, raw mode undone (spec §7).
	if !a.config.Fullscreen {
		terminal.EndInlineRegion()
	}
	if restoreErr := terminal.ExitRaw(); runErr == nil {
		runErr = restoreErr
	}
	return runErr
}

// Run is the package-level entry point: build an app and run it.
func Run(component func() *Element, opts ...Option) error {
	return NewApp(component, opts...).Run()
}
