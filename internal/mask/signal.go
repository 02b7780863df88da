package mask

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/labstack/gommon/log"

	"hush/internal/audio"
	"hush/internal/detect"
)

// Source - источник маскирующего сигнала.
type Source interface {
	// Signal возвращает сигнал в заданном формате (чередующиеся каналы).
	Signal(sampleRate, channels, bitDepth int) ([]int, error)
}

// Tone - синтезированный синусоидальный сигнал.
type Tone struct {
	Freq      float64
	Duration  time.Duration
	Amplitude float64
}

// DefaultTone - 1 кГц, 500 мс, половина амплитуды.
var DefaultTone = Tone{Freq: 1000, Duration: 500 * time.Millisecond, Amplitude: 0.5}

// Signal синтезирует тон через beep.
func (t Tone) Signal(sampleRate, channels, bitDepth int) ([]int, error) {
	sr := beep.SampleRate(sampleRate)
	st, err := generators.SineTone(sr, t.Freq)
	if err != nil {
		return nil, fmt.Errorf("генерация тона %.0f Гц: %w", t.Freq, err)
	}

	n := sr.N(t.Duration)
	buf := make([][2]float64, n)
	for filled := 0; filled < n; {
		k, ok := st.Stream(buf[filled:])
		filled += k
		if !ok {
			break
		}
	}

	peak := float64(int(1)<<(bitDepth-1) - 1)
	out := make([]int, 0, n*channels)
	for _, s := range buf {
		v := int(s[0] * t.Amplitude * peak)
		for c := 0; c < channels; c++ {
			out = append(out, v)
		}
	}
	return out, nil
}

// File - сигнал из WAV файла, приводится к формату дорожки.
type File struct {
	Path string
}

// Signal читает файл и конвертирует его в нужный формат.
func (f File) Signal(sampleRate, channels, bitDepth int) ([]int, error) {
	pcm, err := audio.ReadWAV(f.Path)
	if err != nil {
		return nil, fmt.Errorf("загрузка сигнала маскировки: %w", err)
	}
	return pcm.Conform(sampleRate, channels, bitDepth).Data, nil
}

// Resolve выбирает источник: явный файл, beep.wav рядом с программой
// или синтезированный тон.
func Resolve(file string, tone Tone) Source {
	if file != "" {
		log.Infof("Сигнал маскировки: %s", file)
		return File{Path: file}
	}
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), "beep.wav")
		if _, err := os.Stat(candidate); err == nil {
			log.Infof("Сигнал маскировки: %s", candidate)
			return File{Path: candidate}
		}
	}
	log.Infof("beep.wav не найден, использую тон %.0f Гц / %s", tone.Freq, tone.Duration)
	return tone
}

// Masker применяет маскировку с заданным отступом и источником сигнала.
type Masker struct {
	Source    Source
	PaddingMs int
}

// Mask маскирует src и возвращает результат вместе с планом участков.
func (m *Masker) Mask(src *audio.PCM, dets []detect.Detection) (*audio.PCM, []Span, error) {
	if len(dets) == 0 {
		log.Info("Маскировать нечего")
		return src, nil, nil
	}
	signal, err := m.Source.Signal(src.SampleRate, src.Channels, src.BitDepth)
	if err != nil {
		return nil, nil, err
	}
	spans := Plan(dets, m.PaddingMs, src.DurationMs())
	log.Infof("Маскирую %d интервал(ов), всего %d мс", len(Merged(spans)), Masked(spans))
	return Apply(src, dets, m.PaddingMs, signal), spans, nil
}
