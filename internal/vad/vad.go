// Package vad описывает участки речи, найденные детектором голосовой активности.
package vad

// Segment - участок речи в секундах.
type Segment struct {
	Start float64
	End   float64
}

// Segments - участки речи одного фрагмента. Реализует detect.SpeechGate.
type Segments []Segment

// Speech сообщает, пересекается ли [start, end] хотя бы с одним участком.
func (s Segments) Speech(start, end float64) bool {
	for _, seg := range s {
		if start <= seg.End && seg.Start <= end {
			return true
		}
	}
	return false
}

// Total возвращает суммарную длительность речи.
func (s Segments) Total() float64 {
	var total float64
	for _, seg := range s {
		total += seg.End - seg.Start
	}
	return total
}

// Normalize закрывает открытые участки (End == 0 означает "до конца записи")
// и отбрасывает участки короче minDuration.
func Normalize(raw Segments, duration, minDuration float64) Segments {
	out := make(Segments, 0, len(raw))
	for _, seg := range raw {
		if seg.End <= 0 {
			seg.End = duration
		}
		if seg.End-seg.Start < minDuration || seg.End < seg.Start {
			continue
		}
		out = append(out, seg)
	}
	return out
}
