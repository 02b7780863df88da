// Package i18n provides internationalization support.
package i18n

import (
	"fmt"
	"sync"
)

// Language represents a UI language.
type Language string

const (
	RU Language = "ru"
	EN Language = "en"
)

var (
	mu      sync.RWMutex
	current = RU // Default language
)

// Translations for all supported languages.
var translations = map[Language]map[string]string{
	RU: {
		"app_name":    "Hush",
		"app_tooltip": "Hush - цензура речи",

		// Tray menu
		"tray_recording":          "Идёт запись...",
		"tray_processing":         "Обработка...",
		"tray_detections":         "Найдено: %d",
		"tray_stop":               "Остановить запись",
		"tray_stop_hint":          "Завершить запись и собрать итоговое видео",
		"tray_notifications":      "Уведомления",
		"tray_notifications_hint": "Показывать уведомления",

		// Notifications
		"notify_recording":      "Запись начата",
		"notify_recording_hint": "Остановка: %s",
		"notify_done":           "Готово",
		"notify_done_body":      "Найдено слов: %d\n%s",
		"notify_clean":          "Нецензурных слов не найдено",
		"notify_fallback":       "Звук не удалось заменить, сохранено видео с отметками",
		"notify_error":          "Ошибка",

		// Preview
		"preview_stop":            "Стоп (Esc)",
		"preview_processing_hint": "Замена звука и сборка видео",

		// Dialog
		"dialog_pick_title": "Выберите аудио или видео",
		"dialog_audio":      "Аудио",
		"dialog_video":      "Видео",

		// Console
		"ui_found":       "Найдено нецензурных слов: %d",
		"ui_none":        "Нецензурных слов не найдено",
		"ui_output":      "Результат",
		"ui_log":         "Журнал",
		"ui_more":        "... и ещё %d",
		"ui_history":     "Последние прогоны",
		"ui_no_history":  "История пуста",
		"ui_model_ready": "скачана",
		"ui_model_auto":  "скачивается движком",
		"ui_model_none":  "не скачана",

		"ui_models_downloaded": "Скачано моделей: %d",
		"ui_hotkey_saved":      "Клавиша остановки: %s",
	},
	EN: {
		"app_name":    "Hush",
		"app_tooltip": "Hush - speech censoring",

		"tray_recording":          "Recording...",
		"tray_processing":         "Processing...",
		"tray_detections":         "Found: %d",
		"tray_stop":               "Stop recording",
		"tray_stop_hint":          "Finish recording and build the final video",
		"tray_notifications":      "Notifications",
		"tray_notifications_hint": "Show notifications",

		"notify_recording":      "Recording started",
		"notify_recording_hint": "Stop: %s",
		"notify_done":           "Done",
		"notify_done_body":      "Words found: %d\n%s",
		"notify_clean":          "No profanity found",
		"notify_fallback":       "Audio could not be replaced, flagged video saved",
		"notify_error":          "Error",

		"preview_stop":            "Stop (Esc)",
		"preview_processing_hint": "Replacing audio and building video",

		"dialog_pick_title": "Choose an audio or video file",
		"dialog_audio":      "Audio",
		"dialog_video":      "Video",

		"ui_found":       "Profanities found: %d",
		"ui_none":        "No profanity found",
		"ui_output":      "Output",
		"ui_log":         "Log",
		"ui_more":        "... and %d more",
		"ui_history":     "Recent runs",
		"ui_no_history":  "History is empty",
		"ui_model_ready": "downloaded",
		"ui_model_auto":  "fetched by engine",
		"ui_model_none":  "not downloaded",

		"ui_models_downloaded": "Models downloaded: %d",
		"ui_hotkey_saved":      "Stop hotkey: %s",
	},
}

// T returns the translation for the given key.
func T(key string) string {
	mu.RLock()
	defer mu.RUnlock()

	if strings, ok := translations[current]; ok {
		if s, ok := strings[key]; ok {
			return s
		}
	}
	// Fallback to key itself
	return key
}

// Tf formats the translation for the given key.
func Tf(key string, args ...any) string {
	return fmt.Sprintf(T(key), args...)
}

// SetLanguage sets the current UI language. Unknown languages are ignored.
func SetLanguage(lang Language) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := translations[lang]; ok {
		current = lang
	}
}

// GetLanguage returns the current UI language.
func GetLanguage() Language {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

