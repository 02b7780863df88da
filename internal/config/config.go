// Package config предоставляет конфигурацию приложения с сохранением в файл.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
)

// MaskConfig настройки маскирующего сигнала.
type MaskConfig struct {
	FreqHz     float64 `json:"freq_hz"`
	DurationMs int     `json:"duration_ms"`
	File       string  `json:"file,omitempty"` // WAV вместо тона
}

// VideoConfig настройки камеры для живой записи.
type VideoConfig struct {
	Enabled bool    `json:"enabled"`
	Device  string  `json:"device,omitempty"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	FPS     float64 `json:"fps"`
}

// Settings все настройки. Сериализуется в config.json.
type Settings struct {
	Language      string       `json:"language"`
	UILanguage    string       `json:"ui_language,omitempty"`
	Engine        string       `json:"engine"`
	ModelSize     string       `json:"model_size"`
	ModelID       string       `json:"model_id,omitempty"` // перекрывает engine+model_size
	Device        string       `json:"device"`
	ComputeType   string       `json:"compute_type,omitempty"`
	PaddingMs     int          `json:"padding_ms"`
	ChunkSeconds  float64      `json:"chunk_seconds"`
	Mask          MaskConfig   `json:"mask"`
	LexiconPath   string       `json:"lexicon_path,omitempty"`
	MergeLexicon  bool         `json:"merge_lexicon"`
	VAD           bool         `json:"vad"`
	Notifications bool         `json:"notifications"`
	StopHotkey    HotkeyConfig `json:"stop_hotkey"`
	Video         VideoConfig  `json:"video"`
	FFmpeg        string       `json:"ffmpeg,omitempty"`
	ModelsDir     string       `json:"models_dir,omitempty"`
	HistoryPath   string       `json:"history_path,omitempty"`
	RecordingsDir string       `json:"recordings_dir"`
}

// Defaults возвращает настройки по умолчанию.
func Defaults() Settings {
	return Settings{
		Language:      "en",
		UILanguage:    "ru",
		Engine:        "whisper",
		ModelSize:     "base",
		Device:        "auto",
		PaddingMs:     100,
		ChunkSeconds:  30,
		Mask:          MaskConfig{FreqHz: 1000, DurationMs: 500},
		VAD:           true,
		Notifications: true,
		StopHotkey: HotkeyConfig{
			Modifiers: []Modifier{ModCtrl, ModShift},
			Key:       KeyQ,
		},
		Video:         VideoConfig{Enabled: true, Width: 640, Height: 480, FPS: 30},
		RecordingsDir: "recordings",
	}
}

// Config хранит настройки приложения.
type Config struct {
	mu         sync.RWMutex
	s          Settings
	configPath string
}

// New создаёт конфигурацию, загружая её из path.
// Пустой path означает config.json рядом с бинарником.
func New(path string) *Config {
	c := &Config{s: Defaults(), configPath: path}

	if c.configPath == "" {
		execPath, err := os.Executable()
		if err == nil {
			execPath, err = filepath.EvalSymlinks(execPath)
			if err == nil {
				c.configPath = filepath.Join(filepath.Dir(execPath), "config.json")
			}
		}
	}

	c.load()
	return c
}

// load загружает конфигурацию из файла поверх значений по умолчанию.
func (c *Config) load() {
	if c.configPath == "" {
		return
	}

	data, err := os.ReadFile(c.configPath)
	if err != nil {
		return // Файл не существует, используем defaults
	}

	s := c.s
	if err := json.Unmarshal(data, &s); err != nil {
		log.Warnf("Не удалось разобрать %s: %v", c.configPath, err)
		return
	}
	if s.StopHotkey.Key == "" {
		s.StopHotkey = c.s.StopHotkey
	}
	c.s = s
}

// save сохраняет конфигурацию в файл. Вызывается под блокировкой.
func (c *Config) save() error {
	if c.configPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(c.s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.configPath, data, 0644)
}

// Path возвращает путь к файлу конфигурации.
func (c *Config) Path() string {
	return c.configPath
}

// Settings возвращает копию настроек.
func (c *Config) Settings() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.s
	s.StopHotkey.Modifiers = append([]Modifier(nil), c.s.StopHotkey.Modifiers...)
	return s
}

// Update меняет настройки и сохраняет их.
func (c *Config) Update(fn func(*Settings)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.s)
	return c.save()
}

// Override меняет настройки без сохранения (флаги командной строки, окружение).
func (c *Config) Override(fn func(*Settings)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.s)
}

// Language возвращает текущий язык распознавания.
func (c *Config) Language() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.Language
}

// UILanguage возвращает язык интерфейса.
func (c *Config) UILanguage() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.UILanguage
}

// ToggleNotifications переключает состояние уведомлений.
func (c *Config) ToggleNotifications() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.Notifications = !c.s.Notifications
	c.save()
	return c.s.Notifications
}

// NotificationsEnabled возвращает true если уведомления включены.
func (c *Config) NotificationsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.Notifications
}

// SetModelID устанавливает ID модели распознавания.
func (c *Config) SetModelID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.ModelID = id
	c.save()
}

// LoadEnv читает .env файлы (отсутствующие пропускаются) и применяет HUSH_*.
func (c *Config) LoadEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("загрузка %s: %w", f, err)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return applyEnv(&c.s, os.Getenv)
}

// applyEnv переносит переменные HUSH_* в настройки.
func applyEnv(s *Settings, getenv func(string) string) error {
	str := map[string]*string{
		"HUSH_LANGUAGE":     &s.Language,
		"HUSH_ENGINE":       &s.Engine,
		"HUSH_MODEL":        &s.ModelSize,
		"HUSH_MODEL_ID":     &s.ModelID,
		"HUSH_DEVICE":       &s.Device,
		"HUSH_COMPUTE_TYPE": &s.ComputeType,
		"HUSH_LEXICON":      &s.LexiconPath,
		"HUSH_MASK_FILE":    &s.Mask.File,
		"HUSH_FFMPEG":       &s.FFmpeg,
		"HUSH_MODELS_DIR":   &s.ModelsDir,
		"HUSH_HISTORY":      &s.HistoryPath,
		"HUSH_RECORDINGS":   &s.RecordingsDir,
		"HUSH_CAMERA":       &s.Video.Device,
	}
	for k, p := range str {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			*p = v
		}
	}

	if v := getenv("HUSH_PADDING_MS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("HUSH_PADDING_MS=%q: ожидается неотрицательное целое", v)
		}
		s.PaddingMs = n
	}
	if v := getenv("HUSH_CHUNK_SECONDS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("HUSH_CHUNK_SECONDS=%q: ожидается положительное число", v)
		}
		s.ChunkSeconds = f
	}
	if v := getenv("HUSH_STOP_HOTKEY"); v != "" {
		hk, err := ParseHotkey(v)
		if err != nil {
			return err
		}
		s.StopHotkey = hk
	}
	return nil
}
