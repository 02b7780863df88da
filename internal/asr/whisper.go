// Package asr содержит движки распознавания речи и фабрику для их создания.
package asr

import (
	"context"
	"io"
	"strings"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"hush/internal/speech"
)

// WhisperRecognizer реализует speech.Recognizer через whisper.cpp.
// Сегменты ограничены одним словом, поэтому каждый сегмент - это слово.
type WhisperRecognizer struct {
	mu    sync.Mutex
	model whisper.Model
}

// NewWhisperFromFile создаёт WhisperRecognizer из файла модели.
func NewWhisperFromFile(modelPath string) (*WhisperRecognizer, error) {
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, err
	}
	return &WhisperRecognizer{model: model}, nil
}

// Name возвращает название движка.
func (w *WhisperRecognizer) Name() string {
	return "whisper"
}

// Words распознаёт речь и выдаёт слова по мере чтения сегментов.
func (w *WhisperRecognizer) Words(ctx context.Context, samples []float32, lang string) speech.Words {
	return func(yield func(speech.Word, error) bool) {
		w.mu.Lock()
		defer w.mu.Unlock()

		if err := ctx.Err(); err != nil {
			yield(speech.Word{}, err)
			return
		}

		wctx, err := w.model.NewContext()
		if err != nil {
			yield(speech.Word{}, err)
			return
		}

		// Только транскрипция, по слову на сегмент.
		wctx.SetTranslate(false)
		wctx.SetTokenTimestamps(true)
		wctx.SetSplitOnWord(true)
		wctx.SetMaxSegmentLength(1)

		if lang != "" {
			if err := wctx.SetLanguage(lang); err != nil {
				yield(speech.Word{}, err)
				return
			}
		}

		if err := wctx.Process(samples, nil, nil, nil); err != nil {
			yield(speech.Word{}, err)
			return
		}

		for {
			if err := ctx.Err(); err != nil {
				yield(speech.Word{}, err)
				return
			}
			segment, err := wctx.NextSegment()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(speech.Word{}, err)
				return
			}

			text := strings.TrimSpace(segment.Text)
			if text == "" {
				continue
			}
			word := speech.Word{
				Text:       text,
				Start:      segment.Start.Seconds(),
				End:        segment.End.Seconds(),
				Confidence: meanProbability(segment.Tokens),
			}
			if !yield(word, nil) {
				return
			}
		}
	}
}

func meanProbability(tokens []whisper.Token) float64 {
	if len(tokens) == 0 {
		return 0
	}
	var sum float64
	for _, t := range tokens {
		sum += float64(t.P)
	}
	return sum / float64(len(tokens))
}

// Close освобождает ресурсы.
func (w *WhisperRecognizer) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.model != nil {
		w.model.Close()
		w.model = nil
	}
}
