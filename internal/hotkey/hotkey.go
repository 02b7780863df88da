// Package hotkey регистрирует глобальную горячую клавишу остановки записи.
package hotkey

import (
	"fmt"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
	"golang.design/x/hotkey"
	"golang.design/x/hotkey/mainthread"

	"hush/internal/config"
)

// debounceInterval защищает от автоповтора нажатия.
const debounceInterval = 300 * time.Millisecond

// Handler вызывает onPress при нажатии зарегистрированной клавиши.
type Handler struct {
	mu      sync.Mutex
	hk      *hotkey.Hotkey
	onPress func()
	stopCh  chan struct{}
}

// New создаёт обработчик горячей клавиши.
func New(onPress func()) *Handler {
	return &Handler{onPress: onPress}
}

// Register регистрирует горячую клавишу. Повторный вызов заменяет предыдущую.
func (h *Handler) Register(cfg config.HotkeyConfig) error {
	h.Unregister()

	mods := make([]hotkey.Modifier, 0, len(cfg.Modifiers))
	for _, m := range cfg.Modifiers {
		if mod, ok := modifierMap[m]; ok {
			mods = append(mods, mod)
		}
	}
	key, ok := keyMap[cfg.Key]
	if !ok {
		return fmt.Errorf("клавиша не поддерживается: %s", cfg.Key)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("регистрация %s: %w", cfg, err)
	}

	h.hk = hk
	h.stopCh = make(chan struct{})
	go h.listen(hk, h.stopCh)

	log.Infof("Горячая клавиша остановки: %s", cfg)
	return nil
}

func (h *Handler) listen(hk *hotkey.Hotkey, stopCh chan struct{}) {
	var lastKeydown time.Time
	for {
		select {
		case <-stopCh:
			return
		case _, ok := <-hk.Keydown():
			if !ok {
				return
			}
			now := time.Now()
			if now.Sub(lastKeydown) < debounceInterval {
				continue
			}
			lastKeydown = now
			if h.onPress != nil {
				h.onPress()
			}
		}
	}
}

// Unregister отменяет регистрацию горячей клавиши.
func (h *Handler) Unregister() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopCh != nil {
		close(h.stopCh)
		h.stopCh = nil
	}
	if h.hk == nil {
		return nil
	}

	// Unregister может зависнуть на некоторых X11 серверах.
	hk := h.hk
	h.hk = nil
	done := make(chan error, 1)
	go func() { done <- hk.Unregister() }()
	select {
	case err := <-done:
		return err
	case <-time.After(500 * time.Millisecond):
		log.Warn("Таймаут отмены горячей клавиши")
		return nil
	}
}

// RunOnMainThread запускает функцию в главном потоке (требование для macOS).
func RunOnMainThread(fn func()) {
	mainthread.Init(fn)
}

// modifierMap определён в modifiers_{linux,darwin,windows}.go.

var keyMap = map[config.Key]hotkey.Key{
	config.KeySpace:  hotkey.KeySpace,
	config.KeyReturn: hotkey.KeyReturn,
	config.KeyEscape: hotkey.KeyEscape,
	config.KeyQ:      hotkey.KeyQ,
	config.KeyS:      hotkey.KeyS,
	config.KeyX:      hotkey.KeyX,
	config.KeyF9:     hotkey.KeyF9,
	config.KeyF10:    hotkey.KeyF10,
	config.KeyF11:    hotkey.KeyF11,
	config.KeyF12:    hotkey.KeyF12,
}
