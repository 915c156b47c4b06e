package moon

import (
	"fmt"
	"time"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/moon/internal/platform"
)

// ErrNoWindow is returned by NewApp when the OS has no native window
// implementation. Headless apps are always available.
var ErrNoWindow = platform.ErrUnsupported

// AppConfig describes the window and the context an App creates.
type AppConfig struct {
	Title  string
	Width  int
	Height int

	// Headless renders without a native window. The context still needs a
	// backend that accepts a null surface, such as noop.
	Headless bool

	// MaxFrames stops a headless app after that many frames. Zero runs
	// until Quit.
	MaxFrames int

	Options []ContextOption
}

// App owns a window and a Context and runs the message loop. Each paint
// calls the update callback with the seconds elapsed since Run started,
// then renders one frame between BeginFrame and EndFrame.
type App struct {
	window platform.Window
	ctx    *Context

	update func(elapsed float64)
	render func(ctx *Context)

	now   func() time.Time
	start time.Time
	err   error
}

// NewApp creates the window and the context that presents to it.
func NewApp(cfg AppConfig) (*App, error) {
	window, err := platform.New(platform.Config{
		Title:     cfg.Title,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Headless:  cfg.Headless,
		MaxFrames: cfg.MaxFrames,
	})
	if err != nil {
		return nil, fmt.Errorf("moon: create window: %w", err)
	}
	display, hwnd := window.Handles()
	w, h := window.Size()
	ctx, err := NewContext(WindowHandle{Display: display, Window: hwnd}, w, h, cfg.Options...)
	if err != nil {
		window.Destroy()
		return nil, err
	}

	a := &App{window: window, ctx: ctx, now: time.Now}
	window.OnPaint(a.frame)
	window.OnResize(func(width, height int) {
		if err := a.ctx.Resize(width, height); err != nil {
			Logger().Error("moon: resize", "width", width, "height", height, "err", err)
		}
	})
	return a, nil
}

// Context returns the app's rendering context.
func (a *App) Context() *Context { return a.ctx }

// Window returns the app's window.
func (a *App) Window() gpucontext.WindowProvider { return a.window }

// SetUpdate sets the callback that runs before each frame.
func (a *App) SetUpdate(fn func(elapsed float64)) { a.update = fn }

// SetRender sets the callback that records draws into each frame.
func (a *App) SetRender(fn func(ctx *Context)) { a.render = fn }

// OnKeyPress registers a key callback. Escape always quits.
func (a *App) OnKeyPress(fn func(key gpucontext.Key, mods gpucontext.Modifiers)) {
	a.window.OnKeyPress(fn)
}

// Run pumps messages until the window quits. It returns the first frame
// error, which also stops the loop.
func (a *App) Run() error {
	a.start = a.now()
	for a.window.PumpMessages() {
		if a.err != nil {
			break
		}
	}
	return a.err
}

// Quit asks the message loop to stop.
func (a *App) Quit() { a.window.Close() }

// Close destroys the context, then the window.
func (a *App) Close() {
	if a.ctx != nil {
		a.ctx.Destroy()
		a.ctx = nil
	}
	if a.window != nil {
		a.window.Destroy()
		a.window = nil
	}
}

func (a *App) frame() {
	if a.err != nil || a.ctx == nil {
		return
	}
	if a.update != nil {
		a.update(a.now().Sub(a.start).Seconds())
	}
	if err := a.ctx.BeginFrame(); err != nil {
		a.fail(err)
		return
	}
	if a.render != nil {
		a.render(a.ctx)
	}
	if err := a.ctx.EndFrame(); err != nil {
		a.fail(err)
	}
}

func (a *App) fail(err error) {
	Logger().Error("moon: frame failed", "frame", a.ctx.Frames(), "err", err)
	a.err = err
	a.window.Close()
}
