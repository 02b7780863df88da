// Package speech предоставляет абстракцию для движков распознавания речи.
package speech

import (
	"context"
	"iter"
)

// Engine тип движка распознавания.
type Engine string

const (
	// EngineWhisper - whisper.cpp движок.
	EngineWhisper Engine = "whisper"
	// EngineVosk - Vosk движок.
	EngineVosk Engine = "vosk"
	// EngineFasterWhisper - faster-whisper через внешний python-хелпер.
	EngineFasterWhisper Engine = "faster-whisper"
)

// SampleRate - частота дискретизации, которую ожидают все движки.
const SampleRate = 16000

// Word - одно распознанное слово с временными метками в секундах
// относительно начала переданного фрагмента.
type Word struct {
	Text       string
	Start      float64
	End        float64
	Confidence float64
}

// Words - ленивая последовательность слов в порядке выдачи движком.
type Words = iter.Seq2[Word, error]

// Recognizer - интерфейс для движков распознавания речи.
type Recognizer interface {
	// Words распознаёт речь и возвращает слова с временными метками.
	// samples - аудио данные в формате float32, 16kHz, mono.
	// lang - язык распознавания ("en", "ru", "auto").
	Words(ctx context.Context, samples []float32, lang string) Words

	// Close освобождает ресурсы движка.
	Close()

	// Name возвращает название движка (для логирования).
	Name() string
}

// Collect вычитывает последовательность целиком.
func Collect(words Words) ([]Word, error) {
	var out []Word
	for w, err := range words {
		if err != nil {
			return out, err
		}
		out = append(out, w)
	}
	return out, nil
}

// Slice оборачивает готовый список слов в последовательность.
func Slice(words []Word) Words {
	return func(yield func(Word, error) bool) {
		for _, w := range words {
			if !yield(w, nil) {
				return
			}
		}
	}
}

// Fail возвращает последовательность, сразу завершающуюся ошибкой.
func Fail(err error) Words {
	return func(yield func(Word, error) bool) {
		yield(Word{}, err)
	}
}
