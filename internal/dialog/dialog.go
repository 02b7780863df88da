// Package dialog предоставляет GUI диалоги.
package dialog

import (
	"fmt"
	"strings"

	"github.com/ncruces/zenity"

	"hush/internal/config"
	"hush/internal/i18n"
)

// PickMedia открывает диалог выбора входного файла.
// Расширения передаются с точкой: ".mp3", ".mp4".
func PickMedia(audioExts, videoExts []string) (string, error) {
	all := append(patterns(audioExts), patterns(videoExts)...)
	return zenity.SelectFile(
		zenity.Title(i18n.T("dialog_pick_title")),
		zenity.FileFilters{
			{Name: i18n.T("dialog_audio") + " / " + i18n.T("dialog_video"), Patterns: all, CaseFold: true},
			{Name: i18n.T("dialog_audio"), Patterns: patterns(audioExts), CaseFold: true},
			{Name: i18n.T("dialog_video"), Patterns: patterns(videoExts), CaseFold: true},
		},
	)
}

func patterns(exts []string) []string {
	out := make([]string, len(exts))
	for i, e := range exts {
		out[i] = "*" + e
	}
	return out
}

// SelectHotkey открывает диалог выбора горячей клавиши остановки записи.
// Возвращает выбранную конфигурацию или ошибку если пользователь отменил.
func SelectHotkey(current config.HotkeyConfig) (config.HotkeyConfig, error) {
	// Шаг 1: Выбор модификаторов
	modOptions := make([]string, 0, len(config.AvailableModifiers()))
	for _, m := range config.AvailableModifiers() {
		modOptions = append(modOptions, string(m))
	}
	currentMods := make([]string, 0, len(current.Modifiers))
	for _, m := range current.Modifiers {
		currentMods = append(currentMods, string(m))
	}

	selectedMods, err := zenity.ListMultiple(
		"Выберите модификаторы:",
		modOptions,
		zenity.Title("Клавиша остановки - Модификаторы"),
		zenity.DefaultItems(currentMods...),
	)
	if err != nil {
		return current, err // Пользователь отменил
	}
	if len(selectedMods) == 0 {
		return current, fmt.Errorf("необходимо выбрать хотя бы один модификатор")
	}

	// Шаг 2: Выбор клавиши
	keyOptions := make([]string, 0, len(config.AvailableKeys()))
	for _, k := range config.AvailableKeys() {
		keyOptions = append(keyOptions, strings.ToUpper(string(k)))
	}

	selectedKey, err := zenity.List(
		"Выберите клавишу:",
		keyOptions,
		zenity.Title("Клавиша остановки - Клавиша"),
		zenity.DefaultItems(strings.ToUpper(string(current.Key))),
	)
	if err != nil {
		return current, err
	}

	return config.ParseHotkey(strings.Join(append(selectedMods, selectedKey), "+"))
}

// ShowInfo показывает информационное сообщение.
func ShowInfo(title, message string) {
	zenity.Info(message, zenity.Title(title))
}

// ShowError показывает сообщение об ошибке.
func ShowError(title, message string) {
	zenity.Error(message, zenity.Title(title))
}
