// Package detect сопоставляет распознанные слова со словарём и выдаёт найденные фрагменты.
package detect

import (
	"cmp"
	"slices"
	"strings"

	"github.com/labstack/gommon/log"

	"hush/internal/speech"
)

// Detection - найденное нецензурное слово с временным интервалом в секундах.
type Detection struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Matcher проверяет принадлежность слова словарю.
type Matcher interface {
	Contains(word string) bool
}

// SpeechGate сообщает, пересекается ли интервал с участком речи.
// Используется для отсева "слов", распознанных в тишине.
type SpeechGate interface {
	Speech(start, end float64) bool
}

// Detector ищет слова из словаря в потоке распознавания.
type Detector struct {
	lexicon Matcher
	gate    SpeechGate
}

// New создаёт детектор для словаря.
func New(lexicon Matcher) *Detector {
	return &Detector{lexicon: lexicon}
}

// WithGate возвращает копию детектора с фильтром по активности голоса.
func (d *Detector) WithGate(gate SpeechGate) *Detector {
	return &Detector{lexicon: d.lexicon, gate: gate}
}

// Detect проходит по словам в порядке выдачи и возвращает совпадения.
// Текст сохраняется в исходном виде, временные метки не меняются.
// При ошибке потока возвращаются найденные до неё совпадения и ошибка.
func (d *Detector) Detect(words speech.Words) ([]Detection, error) {
	var out []Detection
	for w, err := range words {
		if err != nil {
			return out, err
		}
		if strings.TrimSpace(w.Text) == "" {
			continue
		}
		if !d.lexicon.Contains(w.Text) {
			continue
		}
		if d.gate != nil && !d.gate.Speech(w.Start, w.End) {
			log.Debugf("Слово '%s' вне участка речи, пропускаю (%.2fs - %.2fs)", w.Text, w.Start, w.End)
			continue
		}
		log.Infof("Найдено: '%s' на %.2fs - %.2fs", w.Text, w.Start, w.End)
		out = append(out, Detection{Word: w.Text, Start: w.Start, End: w.End})
	}
	return out, nil
}

// Sorted возвращает копию, стабильно отсортированную по началу.
func Sorted(dets []Detection) []Detection {
	out := slices.Clone(dets)
	slices.SortStableFunc(out, func(a, b Detection) int {
		return cmp.Compare(a.Start, b.Start)
	})
	return out
}
