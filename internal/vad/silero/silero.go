// Package silero ищет участки речи моделью Silero VAD (onnxruntime).
package silero

import (
	"fmt"

	"github.com/labstack/gommon/log"
	"github.com/streamer45/silero-vad-go/speech"

	"hush/internal/vad"
)

// Config - параметры детектора.
type Config struct {
	ModelPath            string
	Threshold            float32
	MinSilenceDurationMs int
	SpeechPadMs          int
}

// DefaultConfig - пауза 500 мс, как у фильтра faster-whisper.
func DefaultConfig(modelPath string) Config {
	return Config{
		ModelPath:            modelPath,
		Threshold:            0.5,
		MinSilenceDurationMs: 500,
		SpeechPadMs:          30,
	}
}

// Detector оборачивает silero детектор.
type Detector struct {
	cfg Config
}

// New проверяет конфигурацию, создавая и сразу освобождая детектор.
func New(cfg Config) (*Detector, error) {
	sd, err := speech.NewDetector(detectorConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("создание VAD детектора: %w", err)
	}
	sd.Destroy()
	return &Detector{cfg: cfg}, nil
}

// Segments ищет речь в 16 кГц моно сэмплах.
// Детектор хранит состояние, поэтому создаётся на каждый вызов.
func (d *Detector) Segments(samples []float32) (vad.Segments, error) {
	sd, err := speech.NewDetector(detectorConfig(d.cfg))
	if err != nil {
		return nil, fmt.Errorf("создание VAD детектора: %w", err)
	}
	defer sd.Destroy()

	raw, err := sd.Detect(samples)
	if err != nil {
		return nil, fmt.Errorf("VAD: %w", err)
	}

	segs := make(vad.Segments, 0, len(raw))
	for _, s := range raw {
		segs = append(segs, vad.Segment{Start: s.SpeechStartAt, End: s.SpeechEndAt})
	}
	duration := float64(len(samples)) / 16000
	out := vad.Normalize(segs, duration, 0)
	log.Debugf("VAD: %d участков речи, %.1f из %.1f сек", len(out), out.Total(), duration)
	return out, nil
}

func detectorConfig(cfg Config) speech.DetectorConfig {
	return speech.DetectorConfig{
		ModelPath:            cfg.ModelPath,
		SampleRate:           16000,
		Threshold:            cfg.Threshold,
		MinSilenceDurationMs: cfg.MinSilenceDurationMs,
		SpeechPadMs:          cfg.SpeechPadMs,
	}
}
