// Package models управляет моделями распознавания речи и VAD.
package models

import (
	"fmt"
	"strings"
)

// Engine тип движка, которому принадлежит модель.
type Engine string

const (
	EngineWhisper       Engine = "whisper"
	EngineVosk          Engine = "vosk"
	EngineFasterWhisper Engine = "faster-whisper"
	EngineVAD           Engine = "vad"
)

// ModelInfo информация о модели.
type ModelInfo struct {
	ID       string // Уникальный идентификатор: "whisper-base"
	Engine   Engine // Движок
	Size     string // Размер для флага -m: tiny, base, small, medium, large
	Name     string // Отображаемое имя
	Filename string // Имя файла/директории
	URL      string // URL для скачивания; пустой - модель скачивает сам движок
	Bytes    int64  // Размер в байтах (для прогресса)
	IsZip    bool   // Нужно ли распаковывать
}

// Managed сообщает, скачивается ли модель менеджером.
func (m ModelInfo) Managed() bool {
	return m.URL != ""
}

const (
	hfWhisper = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"
	voskBase  = "https://alphacephei.com/vosk/models/"
)

// Registry все доступные модели.
var Registry = []ModelInfo{
	// Whisper (whisper.cpp)
	{ID: "whisper-tiny", Engine: EngineWhisper, Size: "tiny", Name: "Tiny", Filename: "ggml-tiny.bin", URL: hfWhisper + "ggml-tiny.bin", Bytes: 75 << 20},
	{ID: "whisper-base", Engine: EngineWhisper, Size: "base", Name: "Base", Filename: "ggml-base.bin", URL: hfWhisper + "ggml-base.bin", Bytes: 142 << 20},
	{ID: "whisper-small", Engine: EngineWhisper, Size: "small", Name: "Small", Filename: "ggml-small.bin", URL: hfWhisper + "ggml-small.bin", Bytes: 466 << 20},
	{ID: "whisper-medium", Engine: EngineWhisper, Size: "medium", Name: "Medium", Filename: "ggml-medium.bin", URL: hfWhisper + "ggml-medium.bin", Bytes: 1500 << 20},
	{ID: "whisper-large", Engine: EngineWhisper, Size: "large", Name: "Large v3 Turbo Q5", Filename: "ggml-large-v3-turbo-q5_0.bin", URL: hfWhisper + "ggml-large-v3-turbo-q5_0.bin", Bytes: 574 << 20},

	// Vosk
	{ID: "vosk-small", Engine: EngineVosk, Size: "small", Name: "English Small", Filename: "vosk-model-small-en-us-0.15", URL: voskBase + "vosk-model-small-en-us-0.15.zip", Bytes: 40 << 20, IsZip: true},
	{ID: "vosk-large", Engine: EngineVosk, Size: "large", Name: "English Large", Filename: "vosk-model-en-us-0.22", URL: voskBase + "vosk-model-en-us-0.22.zip", Bytes: 1800 << 20, IsZip: true},

	// faster-whisper качает модели сам (кэш huggingface).
	{ID: "faster-whisper-tiny", Engine: EngineFasterWhisper, Size: "tiny", Name: "Tiny", Filename: "tiny"},
	{ID: "faster-whisper-base", Engine: EngineFasterWhisper, Size: "base", Name: "Base", Filename: "base"},
	{ID: "faster-whisper-small", Engine: EngineFasterWhisper, Size: "small", Name: "Small", Filename: "small"},
	{ID: "faster-whisper-medium", Engine: EngineFasterWhisper, Size: "medium", Name: "Medium", Filename: "medium"},
	{ID: "faster-whisper-large", Engine: EngineFasterWhisper, Size: "large", Name: "Large v3", Filename: "large-v3"},

	// Silero VAD
	{ID: "silero-vad", Engine: EngineVAD, Name: "Silero VAD", Filename: "silero_vad.onnx", URL: "https://github.com/snakers4/silero-vad/raw/master/src/silero_vad/data/silero_vad.onnx", Bytes: 2 << 20},
}

// Sizes допустимые значения флага -m.
var Sizes = []string{"tiny", "base", "small", "medium", "large"}

// DefaultModelID модель по умолчанию.
func DefaultModelID() string {
	return "whisper-base"
}

// VADModelID модель детектора речи.
const VADModelID = "silero-vad"

// GetModel возвращает модель по ID.
func GetModel(id string) (ModelInfo, bool) {
	for _, m := range Registry {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// ForSize подбирает модель движка по размеру. Для Vosk размеры
// tiny/base отображаются на small, medium - на large.
func ForSize(engine Engine, size string) (ModelInfo, bool) {
	size = strings.ToLower(strings.TrimSpace(size))
	if engine == EngineVosk {
		switch size {
		case "tiny", "base":
			size = "small"
		case "medium":
			size = "large"
		}
	}
	for _, m := range Registry {
		if m.Engine == engine && m.Size == size {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// Resolve выбирает модель: явный ID важнее пары движок+размер.
func Resolve(id, engine, size string) (ModelInfo, error) {
	if id != "" {
		m, ok := GetModel(id)
		if !ok {
			return ModelInfo{}, fmt.Errorf("модель не найдена: %s", id)
		}
		if m.Engine == EngineVAD {
			return ModelInfo{}, fmt.Errorf("%s не является моделью распознавания", id)
		}
		return m, nil
	}
	if engine == "" {
		engine = string(EngineWhisper)
	}
	if size == "" {
		size = "base"
	}
	m, ok := ForSize(Engine(engine), size)
	if !ok {
		return ModelInfo{}, fmt.Errorf("нет модели %s для движка %s", size, engine)
	}
	return m, nil
}

// AllEngines возвращает движки распознавания (без VAD).
func AllEngines() []Engine {
	return []Engine{EngineWhisper, EngineVosk, EngineFasterWhisper}
}

// EngineName возвращает отображаемое имя движка.
func EngineName(e Engine) string {
	switch e {
	case EngineWhisper:
		return "Whisper"
	case EngineVosk:
		return "Vosk"
	case EngineFasterWhisper:
		return "faster-whisper"
	case EngineVAD:
		return "VAD"
	default:
		return string(e)
	}
}
