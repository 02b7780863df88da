// Package censor обрабатывает аудио и видео файлы целиком:
// распознавание, поиск слов из словаря, маскировка и сборка результата.
package censor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/labstack/gommon/log"

	"hush/internal/audio"
	"hush/internal/detect"
	"hush/internal/mask"
	"hush/internal/overlay"
	"hush/internal/report"
	"hush/internal/speech"
	"hush/internal/vad"
)

// Transcoder - операции ffmpeg, нужные конвейеру.
type Transcoder interface {
	DecodeToWAV(ctx context.Context, in, out string, rate, channels int) error
	ExtractAudio(ctx context.Context, video, out string) error
	EncodeAudio(ctx context.Context, wav, out string) error
	Remux(ctx context.Context, video, audio, out string) error
}

// VoiceDetector находит участки речи (необязательный фильтр).
type VoiceDetector interface {
	Segments(samples []float32) (vad.Segments, error)
}

// VideoFlagger отмечает кадры видео, попавшие в интервалы.
type VideoFlagger interface {
	FlagVideo(ctx context.Context, in, out string, dets []detect.Detection, m overlay.Marker) (overlay.Stats, error)
}

// Options параметры одного прогона.
type Options struct {
	OutputDir string // пустой - <stem>_censored рядом с входом
	Language  string
	ListOnly  bool // только найти слова, без маскировки
	Flag      bool // отметить кадры видео значком (нужен Pipeline.Flagger)
}

// Result итог обработки файла.
type Result struct {
	Kind       Kind
	Input      string
	Output     string // пустой в режиме ListOnly
	LogPath    string
	Detections []detect.Detection
	Spans      []mask.Span
	Frames     overlay.Stats
}

// Pipeline - пакетный конвейер цензуры.
type Pipeline struct {
	Media      Transcoder
	Recognizer speech.Recognizer
	Detector   *detect.Detector
	Masker     *mask.Masker
	VAD        VoiceDetector
	Flagger    VideoFlagger
}

// Process обрабатывает один файл.
func (p *Pipeline) Process(ctx context.Context, input string, opts Options) (Result, error) {
	kind, err := Check(input)
	if err != nil {
		return Result{}, err
	}
	res := Result{Kind: kind, Input: input}

	tmp, err := os.MkdirTemp("", "hush-*")
	if err != nil {
		return res, err
	}
	defer os.RemoveAll(tmp)

	log.Infof("Обработка %s (%s)", input, kind)

	asrWAV := filepath.Join(tmp, "asr.wav")
	if err := p.Media.DecodeToWAV(ctx, input, asrWAV, speech.SampleRate, 1); err != nil {
		return res, fmt.Errorf("подготовка звука: %w", err)
	}
	asrPCM, err := audio.ReadWAV(asrWAV)
	if err != nil {
		return res, err
	}

	dets, err := p.detect(ctx, asrPCM, opts.Language)
	if err != nil {
		return res, err
	}
	res.Detections = dets
	log.Infof("Найдено %d слов(а)", len(dets))

	if opts.ListOnly {
		return res, nil
	}

	outDir := opts.OutputDir
	if outDir == "" {
		outDir = OutputDir(input)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return res, fmt.Errorf("каталог результата: %w", err)
	}
	res.Output = OutputPath(outDir, input)

	sourceWAV := filepath.Join(tmp, "source.wav")
	if kind == KindVideo {
		err = p.Media.ExtractAudio(ctx, input, sourceWAV)
	} else {
		err = p.Media.DecodeToWAV(ctx, input, sourceWAV, 0, 0)
	}
	if err != nil {
		return res, fmt.Errorf("извлечение звука: %w", err)
	}
	src, err := audio.ReadWAV(sourceWAV)
	if err != nil {
		return res, err
	}

	masked, spans, err := p.Masker.Mask(src, dets)
	if err != nil {
		return res, fmt.Errorf("маскировка: %w", err)
	}
	res.Spans = spans

	maskedWAV := filepath.Join(tmp, "masked.wav")
	if err := audio.WriteWAV(maskedWAV, masked); err != nil {
		return res, err
	}

	if kind == KindVideo {
		video := input
		if opts.Flag && len(dets) > 0 {
			video = p.flag(ctx, input, filepath.Join(tmp, "flagged"+filepath.Ext(input)), dets, &res)
		}
		err = p.Media.Remux(ctx, video, maskedWAV, res.Output)
	} else {
		err = p.Media.EncodeAudio(ctx, maskedWAV, res.Output)
	}
	if err != nil {
		return res, fmt.Errorf("сборка результата: %w", err)
	}

	res.LogPath, err = report.Write(outDir, report.New(input, res.Output, dets))
	if err != nil {
		return res, err
	}
	log.Infof("Готово: %s", res.Output)
	return res, nil
}

// detect распознаёт весь файл одним фрагментом.
func (p *Pipeline) detect(ctx context.Context, pcm *audio.PCM, lang string) ([]detect.Detection, error) {
	samples := pcm.Float32Mono()
	detector := p.Detector

	if p.VAD != nil {
		segs, err := p.VAD.Segments(samples)
		if err != nil {
			log.Warnf("VAD недоступен, фильтр речи выключен: %v", err)
		} else {
			duration := float64(pcm.DurationMs()) / 1000
			segs = vad.Normalize(segs, duration, 0)
			log.Debugf("VAD: %d участков речи, %.1fs", len(segs), segs.Total())
			detector = detector.WithGate(segs)
		}
	}

	log.Infof("Распознавание (%s, %.1fs)", p.Recognizer.Name(), float64(len(samples))/speech.SampleRate)
	dets, err := detector.Detect(p.Recognizer.Words(ctx, samples, lang))
	if err != nil {
		return nil, fmt.Errorf("распознавание: %w", err)
	}
	return detect.Sorted(dets), nil
}

// flag размечает кадры и возвращает путь к видео для склейки. При ошибке
// склеивается исходное видео: замаскированный звук важнее отметок.
func (p *Pipeline) flag(ctx context.Context, input, out string, dets []detect.Detection, res *Result) string {
	if p.Flagger == nil {
		log.Warn("Разметка кадров недоступна, пропускаю")
		return input
	}
	st, err := p.Flagger.FlagVideo(ctx, input, out, dets, overlay.DefaultMarker)
	if err != nil {
		log.Warnf("Не удалось отметить кадры, использую исходное видео: %v", err)
		return input
	}
	res.Frames = st
	log.Infof("Отмечено кадров: %d из %d", st.Flagged, st.Frames)
	return out
}
