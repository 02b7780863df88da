package vad

import "testing"

func TestSpeechOverlap(t *testing.T) {
	s := Segments{{Start: 1, End: 2}, {Start: 5, End: 6}}

	cases := []struct {
		start, end float64
		want       bool
	}{
		{1.5, 1.7, true},
		{0.5, 1.0, true},
		{2.0, 2.5, true},
		{2.1, 4.9, false},
		{6.1, 7, false},
	}
	for _, c := range cases {
		if got := s.Speech(c.start, c.end); got != c.want {
			t.Errorf("Speech(%v, %v) = %v, want %v", c.start, c.end, got, c.want)
		}
	}
}

func TestNormalizeOpenEndedSegment(t *testing.T) {
	raw := Segments{{Start: 0, End: 0.1}, {Start: 3, End: 4}, {Start: 8, End: 0}}
	got := Normalize(raw, 10, 0.2)

	if len(got) != 2 {
		t.Fatalf("got %d segments, want 2: %v", len(got), got)
	}
	if got[1] != (Segment{Start: 8, End: 10}) {
		t.Errorf("open segment = %v, want {8 10}", got[1])
	}
	if got.Total() != 3 {
		t.Errorf("Total = %v, want 3", got.Total())
	}
}
