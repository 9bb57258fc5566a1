package app

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/term"

	"github.com/kobzarvs/qview"
	"github.com/kobzarvs/qview/internal/buffer"
	"github.com/kobzarvs/qview/internal/config"
	"github.com/kobzarvs/qview/internal/logger"
	"github.com/kobzarvs/qview/internal/navigation"
	"github.com/kobzarvs/qview/internal/terminal"
	"github.com/kobzarvs/qview/internal/view"
)

// App is the top-level runtime for qview.
type App struct {
	args   []string
	screen tcell.Screen

	// ready runs inside the session right before the input loop starts.
	ready func(*terminal.Driver, *view.View)
}

type Option func(*App)

// WithScreen uses s instead of the process terminal.
func WithScreen(s tcell.Screen) Option {
	return func(a *App) {
		a.screen = s
	}
}

func New(args []string, opts ...Option) *App {
	a := &App{args: args}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *App) Run() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Log); err != nil {
		return fmt.Errorf("init log: %w", err)
	}
	defer logger.Close()

	screen := a.screen
	if screen == nil {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return &terminal.SetupError{Err: errors.New("stdin is not a terminal")}
		}
		screen, err = tcell.NewScreen()
		if err != nil {
			return &terminal.SetupError{Err: err}
		}
	}

	drv := terminal.New(screen, terminal.WithTheme(cfg.Theme))
	v := view.New(drv, terminal.Size{},
		view.WithTabWidth(cfg.View.TabWidth),
		view.WithFiller(cfg.View.Filler),
		view.WithStrict(cfg.Log.Debug),
	)
	// loaded before raw mode; a read that never returns must not strand the
	// terminal
	if len(a.args) > 0 {
		load(v, a.args[0])
	}

	relay := relaySignals(drv)
	defer relay.stop()

	err = drv.Session(func() error {
		size := drv.Size()
		logger.Info("session started", "version", qview.Version(), "rows", size.Height, "cols", size.Width)
		v.Resize(size)
		relay.attach()

		if a.ready != nil {
			a.ready(drv, v)
		}
		return navigation.New(drv, v, cfg.Keymap).Run()
	})
	if err != nil {
		logger.Error("exit", "err", err)
	}
	return err
}

// load keeps the welcome screen on failure; the error only goes to the log.
func load(v *view.View, path string) {
	logger.Info("loading", "path", path)
	err := v.Load(path)
	if err == nil {
		return
	}
	kind := buffer.LoadIO
	var lerr *buffer.LoadError
	if errors.As(err, &lerr) {
		kind = lerr.Kind
	}
	logger.Warn("load failed", "path", path, "kind", kind.String(), "err", err)
}

// signalRelay turns termination signals into interrupt events so the loop
// quits normally and teardown runs on the session goroutine. A signal that
// arrives before the driver is active is held until attach.
type signalRelay struct {
	drv  *terminal.Driver
	sigs chan os.Signal
	done chan struct{}
	wg   sync.WaitGroup

	mu       sync.Mutex
	attached bool
	pending  os.Signal
}

func newSignalRelay(drv *terminal.Driver) *signalRelay {
	return &signalRelay{
		drv:  drv,
		sigs: make(chan os.Signal, 1),
		done: make(chan struct{}),
	}
}

// relaySignals starts catching SIGINT, SIGTERM and SIGHUP. stop must be
// called after the session has torn the terminal down.
func relaySignals(drv *terminal.Driver) *signalRelay {
	r := newSignalRelay(drv)
	signal.Notify(r.sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case <-r.done:
				return
			case sig := <-r.sigs:
				r.deliver(sig)
			}
		}
	}()
	return r
}

func (r *signalRelay) deliver(sig os.Signal) {
	logger.Info("signal received", "signal", sig.String())
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.attached {
		if r.pending == nil {
			r.pending = sig
		}
		return
	}
	r.post(sig)
}

// attach marks the driver active and posts any held signal.
func (r *signalRelay) attach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attached = true
	if r.pending != nil {
		r.post(r.pending)
		r.pending = nil
	}
}

func (r *signalRelay) post(sig os.Signal) {
	if err := r.drv.Interrupt(sig); err != nil {
		logger.Warn("signal dropped", "signal", sig.String(), "err", err)
	}
}

func (r *signalRelay) stop() {
	signal.Stop(r.sigs)
	close(r.done)
	r.wg.Wait()
}
