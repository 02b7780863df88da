package asr

import (
	"fmt"
	"sync"

	"github.com/labstack/gommon/log"

	"hush/internal/asr/fasterwhisper"
	"hush/internal/models"
	"hush/internal/speech"
)

// Options параметры, не зависящие от модели.
type Options struct {
	Device      string // для faster-whisper
	ComputeType string // для faster-whisper
	VAD         bool   // встроенный фильтр тишины faster-whisper
}

// Factory управляет созданием распознавателей.
type Factory struct {
	manager *models.Manager
	opts    Options
	current speech.Recognizer
	mu      sync.RWMutex
}

// NewFactory создаёт фабрику распознавателей.
func NewFactory(manager *models.Manager, opts Options) *Factory {
	return &Factory{manager: manager, opts: opts}
}

// Create создаёт распознаватель для указанной модели.
func (f *Factory) Create(modelID string) (speech.Recognizer, error) {
	info, ok := models.GetModel(modelID)
	if !ok {
		return nil, fmt.Errorf("модель не найдена: %s", modelID)
	}
	if !f.manager.IsDownloaded(info) {
		return nil, fmt.Errorf("модель не скачана: %s (hush models download %s)", info.Name, info.ID)
	}

	modelPath := f.manager.GetModelPath(info)

	var rec speech.Recognizer
	var err error

	switch info.Engine {
	case models.EngineWhisper:
		rec, err = NewWhisperFromFile(modelPath)
	case models.EngineVosk:
		rec, err = NewVosk(modelPath)
	case models.EngineFasterWhisper:
		rec = fasterwhisper.New(modelPath, f.opts.Device, f.opts.ComputeType, f.opts.VAD)
	default:
		return nil, fmt.Errorf("неизвестный движок: %s", info.Engine)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка создания распознавателя: %w", err)
	}

	log.Infof("Модель загружена: %s (%s)", info.ID, models.EngineName(info.Engine))
	return rec, nil
}

// Load загружает модель и устанавливает её как текущую.
func (f *Factory) Load(modelID string) error {
	rec, err := f.Create(modelID)
	if err != nil {
		return err
	}

	f.mu.Lock()
	old := f.current
	f.current = rec
	f.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return nil
}

// Current возвращает текущий распознаватель.
func (f *Factory) Current() speech.Recognizer {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current
}

// Close закрывает текущий распознаватель.
func (f *Factory) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.current != nil {
		f.current.Close()
		f.current = nil
	}
}
