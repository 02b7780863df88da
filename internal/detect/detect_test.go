package detect

import (
	"errors"
	"testing"

	"hush/internal/lexicon"
	"hush/internal/speech"
)

func TestDetectKeepsOriginalTextAndOrder(t *testing.T) {
	d := New(lexicon.New([]string{"fuck", "shit"}))

	words := []speech.Word{
		{Text: " Shit!", Start: 5.0, End: 5.3},
		{Text: "hello", Start: 0.5, End: 0.9},
		{Text: "Fuck.", Start: 1.0, End: 1.2},
	}

	got, err := d.Detect(speech.Slice(words))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d detections, want 2", len(got))
	}
	if got[0].Word != " Shit!" || got[0].Start != 5.0 || got[0].End != 5.3 {
		t.Errorf("got[0] = %+v, want original text and timestamps", got[0])
	}
	if got[1].Word != "Fuck." || got[1].Start != 1.0 {
		t.Errorf("got[1] = %+v", got[1])
	}
}

func TestDetectSkipsBlankText(t *testing.T) {
	d := New(lexicon.New([]string{"fuck"}))

	got, err := d.Detect(speech.Slice([]speech.Word{{Text: "  "}, {Text: ""}}))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d detections, want 0", len(got))
	}
}

func TestDetectStreamError(t *testing.T) {
	d := New(lexicon.New([]string{"fuck"}))
	boom := errors.New("boom")

	words := func(yield func(speech.Word, error) bool) {
		if !yield(speech.Word{Text: "fuck", Start: 1, End: 2}, nil) {
			return
		}
		yield(speech.Word{}, boom)
	}

	got, err := d.Detect(words)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if len(got) != 1 {
		t.Errorf("got %d detections before the error, want 1", len(got))
	}
}

type gateFunc func(start, end float64) bool

func (f gateFunc) Speech(start, end float64) bool { return f(start, end) }

func TestDetectWithGate(t *testing.T) {
	gate := gateFunc(func(start, end float64) bool { return start >= 10 })
	d := New(lexicon.New([]string{"fuck"})).WithGate(gate)

	words := []speech.Word{
		{Text: "fuck", Start: 1, End: 1.5},
		{Text: "fuck", Start: 11, End: 11.5},
	}
	got, err := d.Detect(speech.Slice(words))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(got) != 1 || got[0].Start != 11 {
		t.Errorf("got %+v, want only the detection at 11s", got)
	}
}

func TestSortedIsStable(t *testing.T) {
	in := []Detection{
		{Word: "b", Start: 5, End: 6},
		{Word: "x", Start: 1, End: 2},
		{Word: "y", Start: 1, End: 3},
	}
	got := Sorted(in)

	want := []string{"x", "y", "b"}
	for i, w := range want {
		if got[i].Word != w {
			t.Errorf("got[%d].Word = %q, want %q", i, got[i].Word, w)
		}
	}
	if in[0].Word != "b" {
		t.Error("Sorted must not reorder its input")
	}
}
