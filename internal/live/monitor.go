package live

import (
	"image"
	"sync"
	"time"

	"hush/internal/overlay"
)

// levelSource - источник последних сэмплов микрофона (capture.Recorder).
type levelSource interface {
	Recent(n int) []float32
}

// Monitor хранит снимок идущей записи для окна предпросмотра:
// последний кадр с отметкой, число найденных слов, уровень звука.
type Monitor struct {
	mu         sync.Mutex
	frame      *image.RGBA
	flagged    bool
	found      int
	started    time.Time
	processing bool
	levels     levelSource
	marker     overlay.Marker
}

func newMonitor(src AudioSource, marker overlay.Marker) *Monitor {
	m := &Monitor{marker: marker}
	if ls, ok := src.(levelSource); ok {
		m.levels = ls
	}
	return m
}

func (m *Monitor) start(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = t
}

// setFrame сохраняет копию кадра, рисуя на ней отметку.
func (m *Monitor) setFrame(img *image.RGBA, flagged bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frame == nil || m.frame.Rect != img.Rect {
		m.frame = image.NewRGBA(img.Rect)
	}
	copy(m.frame.Pix, img.Pix)
	if flagged {
		m.marker.Draw(m.frame)
	}
	m.flagged = flagged
}

func (m *Monitor) setFound(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.found = n
}

func (m *Monitor) setProcessing() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processing = true
}

// Frame возвращает копию последнего кадра или nil, если видео нет.
func (m *Monitor) Frame() *image.RGBA {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frame == nil {
		return nil
	}
	out := image.NewRGBA(m.frame.Rect)
	copy(out.Pix, m.frame.Pix)
	return out
}

// Flagged сообщает, отмечен ли последний кадр.
func (m *Monitor) Flagged() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flagged
}

// Found возвращает число найденных слов.
func (m *Monitor) Found() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.found
}

// Started возвращает время начала записи.
func (m *Monitor) Started() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// Processing сообщает, что запись остановлена и идёт сборка результата.
func (m *Monitor) Processing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processing
}

// Samples возвращает последние n сэмплов микрофона.
func (m *Monitor) Samples(n int) []float32 {
	if m.levels == nil {
		return nil
	}
	return m.levels.Recent(n)
}
