// Package preview показывает плавающее окно во время живой записи:
// кадр с камеры с отметкой "MUTED", уровень микрофона, таймер и кнопку остановки.
package preview

import (
	"image"
	"image/color"
	"sync"
	"time"

	"gioui.org/app"
	"gioui.org/io/key"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/widget"
)

// Source - состояние записи (live.Monitor).
type Source interface {
	Frame() *image.RGBA
	Flagged() bool
	Found() int
	Started() time.Time
	Processing() bool
	Samples(n int) []float32
}

// Config настройки окна.
type Config struct {
	Width        int
	Height       int
	RefreshRate  time.Duration
	BGColor      color.NRGBA
	WaveColor    color.NRGBA
	AlertColor   color.NRGBA
	TextColor    color.NRGBA
	TextDimColor color.NRGBA
	AccentColor  color.NRGBA
	PanelColor   color.NRGBA
}

// DefaultConfig возвращает настройки по умолчанию.
func DefaultConfig() Config {
	return Config{
		Width:        360,
		Height:       320,
		RefreshRate:  33 * time.Millisecond,
		BGColor:      color.NRGBA{R: 30, G: 30, B: 34, A: 245},
		WaveColor:    color.NRGBA{R: 80, G: 200, B: 120, A: 255},
		AlertColor:   color.NRGBA{R: 230, G: 60, B: 60, A: 255},
		TextColor:    color.NRGBA{R: 240, G: 240, B: 245, A: 255},
		TextDimColor: color.NRGBA{R: 140, G: 140, B: 150, A: 255},
		AccentColor:  color.NRGBA{R: 88, G: 166, B: 255, A: 255},
		PanelColor:   color.NRGBA{R: 45, G: 45, B: 50, A: 255},
	}
}

const windowTitle = "Hush - Запись"

// Window - окно предпросмотра.
type Window struct {
	mu      sync.Mutex
	source  Source
	config  Config
	onStop  func()
	stopBtn widget.Clickable

	window  *app.Window
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New создаёт окно предпросмотра. onStop вызывается по кнопке или Esc.
func New(source Source, cfg Config, onStop func()) *Window {
	return &Window{source: source, config: cfg, onStop: onStop}
}

// Show открывает окно (не блокирует).
func (w *Window) Show() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	go w.runEventLoop()
}

// Hide закрывает окно.
func (w *Window) Hide() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	close(stopCh)
	select {
	case <-doneCh:
	case <-time.After(time.Second):
	}
}

func (w *Window) runEventLoop() {
	defer close(w.doneCh)

	win := new(app.Window)
	win.Option(
		app.Title(windowTitle),
		app.Size(unit.Dp(w.config.Width), unit.Dp(w.config.Height)),
		app.Decorated(false),
	)
	w.mu.Lock()
	w.window = win
	stopCh := w.stopCh
	w.mu.Unlock()

	go place(windowTitle, w.config.Width, w.config.Height)

	ticker := time.NewTicker(w.config.RefreshRate)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-stopCh:
				win.Perform(system.ActionClose)
				return
			case <-ticker.C:
				win.Invalidate()
			}
		}
	}()

	var ops op.Ops
	for {
		switch e := win.Event().(type) {
		case app.DestroyEvent:
			return
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			w.draw(gtx)
			e.Frame(gtx.Ops)
		}
	}
}

func (w *Window) draw(gtx layout.Context) {
	stop := w.stopBtn.Clicked(gtx)
	for {
		event, ok := gtx.Event(key.Filter{Name: key.NameEscape})
		if !ok {
			break
		}
		if e, ok := event.(key.Event); ok && e.State == key.Press {
			stop = true
		}
	}
	if stop && w.onStop != nil {
		go w.onStop()
	}

	var elapsed time.Duration
	if started := w.source.Started(); !started.IsZero() {
		elapsed = time.Since(started)
	}
	if w.source.Processing() {
		drawProcessing(gtx, elapsed, w.config)
		return
	}
	drawRecording(gtx, w.source, elapsed, w.config, &w.stopBtn)
}
