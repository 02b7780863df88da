// Package mask заменяет найденные интервалы аудио маскирующим сигналом.
package mask

import (
	"math"

	"github.com/labstack/gommon/log"

	"hush/internal/audio"
	"hush/internal/detect"
)

// Interval - маскируемый интервал в миллисекундах, [Start, End).
type Interval struct {
	Start int
	End   int
}

// Len возвращает длину интервала.
func (i Interval) Len() int { return i.End - i.Start }

// Kind тип участка выходной дорожки.
type Kind int

const (
	// Keep - исходное аудио без изменений.
	Keep Kind = iota
	// Mask - маскирующий сигнал.
	Mask
)

func (k Kind) String() string {
	if k == Mask {
		return "mask"
	}
	return "keep"
}

// Span - участок выходной дорожки.
type Span struct {
	Kind Kind
	Interval
}

// Intervals возвращает интервалы с отступом, обрезанные по [0, durationMs]
// и стабильно отсортированные по началу. Пересечения не объединяются.
func Intervals(dets []detect.Detection, paddingMs, durationMs int) []Interval {
	sorted := detect.Sorted(dets)
	out := make([]Interval, 0, len(sorted))
	for _, d := range sorted {
		start := max(0, toMs(d.Start)-paddingMs)
		end := min(durationMs, toMs(d.End)+paddingMs)
		out = append(out, Interval{Start: start, End: end})
	}
	return out
}

// Plan раскладывает дорожку длиной durationMs на чередующиеся участки
// Keep и Mask без пропусков и повторов. Интервал, начинающийся раньше
// курсора, сдвигается к курсору; соседние Mask склеиваются в один.
// Интервалы нулевой длины пропускаются.
func Plan(dets []detect.Detection, paddingMs, durationMs int) []Span {
	var spans []Span
	pos := 0
	for _, iv := range Intervals(dets, paddingMs, durationMs) {
		start := max(iv.Start, pos)
		if iv.End <= start {
			continue
		}
		if start > pos {
			spans = append(spans, Span{Kind: Keep, Interval: Interval{Start: pos, End: start}})
		}
		if n := len(spans); n > 0 && spans[n-1].Kind == Mask && spans[n-1].End == start {
			spans[n-1].End = iv.End
		} else {
			spans = append(spans, Span{Kind: Mask, Interval: Interval{Start: start, End: iv.End}})
		}
		pos = iv.End
	}
	if pos < durationMs {
		spans = append(spans, Span{Kind: Keep, Interval: Interval{Start: pos, End: durationMs}})
	}
	return spans
}

// Apply строит новую дорожку, где участки Mask заполнены сигналом signal
// (в формате src, чередующиеся каналы). Сигнал повторяется по кругу и
// обрезается точно по длине участка. Длина результата равна длине src.
// Без найденных слов возвращается сам src.
func Apply(src *audio.PCM, dets []detect.Detection, paddingMs int, signal []int) *audio.PCM {
	if len(dets) == 0 {
		return src
	}

	spans := Plan(dets, paddingMs, src.DurationMs())
	out := &audio.PCM{
		SampleRate: src.SampleRate,
		Channels:   src.Channels,
		BitDepth:   src.BitDepth,
		Data:       make([]int, 0, len(src.Data)),
	}

	frames := src.Frames()
	cursor := 0
	for i, s := range spans {
		from := cursor
		to := src.FrameAt(s.End)
		if i == len(spans)-1 {
			to = frames
		}
		if to <= from {
			continue
		}
		switch s.Kind {
		case Keep:
			out.Data = append(out.Data, src.Window(from, to)...)
		case Mask:
			log.Debugf("Маскирую %d-%d мс", s.Start, s.End)
			out.Data = append(out.Data, Fill(signal, (to-from)*src.Channels)...)
		}
		cursor = to
	}
	// Пустой план (дорожка короче миллисекунды).
	if cursor < frames {
		out.Data = append(out.Data, src.Window(cursor, frames)...)
	}
	return out
}

// Fill возвращает ровно n сэмплов: signal, повторённый по кругу и обрезанный.
// Пустой сигнал даёт тишину.
func Fill(signal []int, n int) []int {
	out := make([]int, n)
	if len(signal) == 0 {
		return out
	}
	for i := 0; i < n; i += len(signal) {
		copy(out[i:], signal)
	}
	return out
}

// Masked возвращает суммарную длительность участков Mask в миллисекундах.
func Masked(spans []Span) int {
	total := 0
	for _, s := range spans {
		if s.Kind == Mask {
			total += s.Len()
		}
	}
	return total
}

// Merged возвращает только участки Mask из плана.
func Merged(spans []Span) []Interval {
	var out []Interval
	for _, s := range spans {
		if s.Kind == Mask {
			out = append(out, s.Interval)
		}
	}
	return out
}

func toMs(sec float64) int {
	return int(math.Round(sec * 1000))
}
