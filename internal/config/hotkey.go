package config

import (
	"fmt"
	"slices"
	"strings"
)

// Modifier представляет модификатор клавиши.
type Modifier string

const (
	ModCtrl  Modifier = "ctrl"
	ModShift Modifier = "shift"
	ModAlt   Modifier = "alt"
	ModSuper Modifier = "super" // Win/Cmd
)

// Key представляет клавишу.
type Key string

const (
	KeySpace  Key = "space"
	KeyReturn Key = "return"
	KeyEscape Key = "escape"
	KeyQ      Key = "q"
	KeyS      Key = "s"
	KeyX      Key = "x"
	KeyF9     Key = "f9"
	KeyF10    Key = "f10"
	KeyF11    Key = "f11"
	KeyF12    Key = "f12"
)

// HotkeyConfig хранит настройки горячей клавиши.
type HotkeyConfig struct {
	Modifiers []Modifier `json:"modifiers"`
	Key       Key        `json:"key"`
}

// String возвращает строковое представление горячей клавиши.
func (h HotkeyConfig) String() string {
	parts := make([]string, 0, len(h.Modifiers)+1)
	for _, m := range h.Modifiers {
		parts = append(parts, string(m))
	}
	return strings.Join(append(parts, string(h.Key)), "+")
}

// ParseHotkey разбирает строку вида "ctrl+shift+q".
func ParseHotkey(s string) (HotkeyConfig, error) {
	parts := strings.Split(strings.ToLower(strings.ReplaceAll(s, " ", "")), "+")
	if len(parts) == 0 || parts[len(parts)-1] == "" {
		return HotkeyConfig{}, fmt.Errorf("пустая горячая клавиша: %q", s)
	}

	var hk HotkeyConfig
	for _, p := range parts[:len(parts)-1] {
		m := Modifier(p)
		if !slices.Contains(AvailableModifiers(), m) {
			return HotkeyConfig{}, fmt.Errorf("неизвестный модификатор %q в %q", p, s)
		}
		hk.Modifiers = append(hk.Modifiers, m)
	}

	k := Key(parts[len(parts)-1])
	if !slices.Contains(AvailableKeys(), k) {
		return HotkeyConfig{}, fmt.Errorf("неизвестная клавиша %q в %q", k, s)
	}
	hk.Key = k
	return hk, nil
}

// AvailableModifiers возвращает список доступных модификаторов.
func AvailableModifiers() []Modifier {
	return []Modifier{ModCtrl, ModShift, ModAlt, ModSuper}
}

// AvailableKeys возвращает список клавиш, подходящих для остановки записи.
func AvailableKeys() []Key {
	return []Key{KeySpace, KeyReturn, KeyEscape, KeyQ, KeyS, KeyX, KeyF9, KeyF10, KeyF11, KeyF12}
}
