package mask

import (
	"slices"
	"testing"
	"time"

	"hush/internal/audio"
	"hush/internal/detect"
)

const testRate = 1000 // 1 кадр = 1 мс

// ramp возвращает моно дорожку, где каждый сэмпл равен своему индексу + 1.
func ramp(ms int) *audio.PCM {
	data := make([]int, ms)
	for i := range data {
		data[i] = i + 1
	}
	return &audio.PCM{SampleRate: testRate, Channels: 1, BitDepth: 16, Data: data}
}

func TestEndToEndScenario(t *testing.T) {
	src := ramp(10000)
	dets := []detect.Detection{{Word: "fuck", Start: 4.9, End: 5.1}}

	spans := Plan(dets, 100, src.DurationMs())
	want := []Span{
		{Kind: Keep, Interval: Interval{0, 4800}},
		{Kind: Mask, Interval: Interval{4800, 5200}},
		{Kind: Keep, Interval: Interval{5200, 10000}},
	}
	if !slices.Equal(spans, want) {
		t.Fatalf("Plan = %v, want %v", spans, want)
	}

	signal := []int{-7}
	out := Apply(src, dets, 100, signal)
	if len(out.Data) != len(src.Data) {
		t.Fatalf("got %d samples, want %d", len(out.Data), len(src.Data))
	}
	if !slices.Equal(out.Data[:4800], src.Data[:4800]) {
		t.Error("[0,4800) must be verbatim")
	}
	for i := 4800; i < 5200; i++ {
		if out.Data[i] != -7 {
			t.Fatalf("sample %d = %d, want mask", i, out.Data[i])
		}
	}
	if !slices.Equal(out.Data[5200:], src.Data[5200:]) {
		t.Error("[5200,10000) must be verbatim")
	}
}

func TestDurationInvariant(t *testing.T) {
	cases := [][]detect.Detection{
		nil,
		{{Start: 0, End: 0.1}},
		{{Start: 9.95, End: 12}},
		{{Start: 1, End: 2}, {Start: 1.5, End: 3}, {Start: 2.9, End: 2.95}},
		{{Start: 20, End: 25}},
	}
	for _, pad := range []int{0, 100, 5000} {
		for _, dets := range cases {
			src := ramp(10000)
			out := Apply(src, dets, pad, []int{1, 2, 3})
			if out.Frames() != src.Frames() {
				t.Errorf("pad %d, dets %v: got %d frames, want %d", pad, dets, out.Frames(), src.Frames())
			}
		}
	}
}

func TestDurationInvariantFractionalMs(t *testing.T) {
	// 44100 Гц: длительность в мс округляется вниз, хвост должен сохраниться.
	src := &audio.PCM{SampleRate: 44100, Channels: 2, BitDepth: 16, Data: make([]int, 2*44123)}
	out := Apply(src, []detect.Detection{{Start: 0.5, End: 1.0}}, 100, []int{5, 5})
	if out.Frames() != src.Frames() {
		t.Errorf("got %d frames, want %d", out.Frames(), src.Frames())
	}
}

func TestEmptyDetectionsReturnsSource(t *testing.T) {
	src := ramp(1000)
	out := Apply(src, nil, 100, []int{0})
	if out != src {
		t.Error("Apply with no detections must return the source untouched")
	}
}

func TestFillLoopsAndTruncates(t *testing.T) {
	signal := []int{1, 2, 3}
	got := Fill(signal, 8)
	want := []int{1, 2, 3, 1, 2, 3, 1, 2}
	if !slices.Equal(got, want) {
		t.Errorf("Fill = %v, want %v", got, want)
	}
	if !slices.Equal(got[:len(signal)], signal) {
		t.Error("first M samples must equal the signal")
	}
}

func TestFillShorterThanSignal(t *testing.T) {
	got := Fill([]int{1, 2, 3, 4}, 2)
	if !slices.Equal(got, []int{1, 2}) {
		t.Errorf("Fill = %v, want [1 2]", got)
	}
}

func TestFillEmptySignalIsSilence(t *testing.T) {
	got := Fill(nil, 3)
	if !slices.Equal(got, []int{0, 0, 0}) {
		t.Errorf("Fill = %v, want silence", got)
	}
}

func TestMaskLoopsSignalAcrossInterval(t *testing.T) {
	src := ramp(3000)
	signal := []int{10, 20, 30, 40}
	out := Apply(src, []detect.Detection{{Start: 1, End: 2}}, 0, signal)

	masked := out.Data[1000:2000]
	if !slices.Equal(masked[:4], signal) {
		t.Errorf("mask starts with %v, want %v", masked[:4], signal)
	}
	if masked[999] != signal[999%4] {
		t.Errorf("last masked sample = %d, want %d", masked[999], signal[999%4])
	}
}

func TestOverlapMerge(t *testing.T) {
	dets := []detect.Detection{
		{Start: 0, End: 1.0},
		{Start: 0.8, End: 1.5},
	}
	spans := Plan(dets, 0, 3000)
	want := []Span{
		{Kind: Mask, Interval: Interval{0, 1500}},
		{Kind: Keep, Interval: Interval{1500, 3000}},
	}
	if !slices.Equal(spans, want) {
		t.Fatalf("Plan = %v, want %v", spans, want)
	}
	if got := Masked(spans); got != 1500 {
		t.Errorf("masked = %d ms, want 1500", got)
	}
}

func TestAdjacentIntervalsCoalesce(t *testing.T) {
	dets := []detect.Detection{{Start: 1, End: 2}, {Start: 2, End: 3}}
	got := Merged(Plan(dets, 0, 5000))
	if len(got) != 1 || got[0] != (Interval{1000, 3000}) {
		t.Errorf("Merged = %v, want [{1000 3000}]", got)
	}
}

func TestContainedIntervalIsSkipped(t *testing.T) {
	dets := []detect.Detection{{Start: 1, End: 4}, {Start: 2, End: 3}}
	got := Merged(Plan(dets, 0, 5000))
	if len(got) != 1 || got[0] != (Interval{1000, 4000}) {
		t.Errorf("Merged = %v, want [{1000 4000}]", got)
	}
}

func TestSortStability(t *testing.T) {
	src := ramp(10000)
	unsorted := []detect.Detection{{Start: 5, End: 6}, {Start: 1, End: 2}}
	sorted := []detect.Detection{{Start: 1, End: 2}, {Start: 5, End: 6}}

	a := Apply(src, unsorted, 100, []int{0, 1})
	b := Apply(src, sorted, 100, []int{0, 1})
	if !slices.Equal(a.Data, b.Data) {
		t.Error("output depends on detection order")
	}
}

func TestOutOfBoundsDetectionIsNoop(t *testing.T) {
	src := ramp(1000)
	out := Apply(src, []detect.Detection{{Start: 5, End: 6}}, 100, []int{0})
	if !slices.Equal(out.Data, src.Data) {
		t.Error("detection beyond the source must not change audio")
	}
	if spans := Plan([]detect.Detection{{Start: 5, End: 6}}, 100, 1000); len(spans) != 1 || spans[0].Kind != Keep {
		t.Errorf("Plan = %v, want a single keep span", spans)
	}
}

func TestPaddingClampedAtZero(t *testing.T) {
	got := Intervals([]detect.Detection{{Start: 0.05, End: 0.2}}, 100, 1000)
	if got[0] != (Interval{0, 300}) {
		t.Errorf("Intervals = %v, want [{0 300}]", got)
	}
}

func TestMultiChannelMaskAlignment(t *testing.T) {
	src := &audio.PCM{SampleRate: testRate, Channels: 2, BitDepth: 16, Data: make([]int, 2*2000)}
	for i := range src.Data {
		src.Data[i] = 1
	}
	out := Apply(src, []detect.Detection{{Start: 0.5, End: 1}}, 0, []int{8, 9})

	if out.Data[999] != 1 || out.Data[1000] != 8 || out.Data[1001] != 9 {
		t.Errorf("mask boundary = %v, want [1 8 9]", out.Data[999:1002])
	}
	if out.Data[1999] != 9 || out.Data[2000] != 1 {
		t.Errorf("mask end = %v, want [9 1]", out.Data[1999:2001])
	}
}

func TestToneSignalLength(t *testing.T) {
	tone := Tone{Freq: 1000, Duration: 500 * time.Millisecond, Amplitude: 0.5}
	sig, err := tone.Signal(16000, 2, 16)
	if err != nil {
		t.Fatalf("Signal: %v", err)
	}
	if len(sig) != 8000*2 {
		t.Fatalf("got %d samples, want %d", len(sig), 8000*2)
	}
	peak := 0
	for i, v := range sig {
		if i%2 == 1 && v != sig[i-1] {
			t.Fatalf("channels differ at %d", i)
		}
		peak = max(peak, v, -v)
	}
	if peak == 0 || peak > 16384 {
		t.Errorf("peak = %d, want within half of full scale", peak)
	}
}

func TestFileSignalConforms(t *testing.T) {
	path := t.TempDir() + "/beep.wav"
	src := &audio.PCM{SampleRate: 8000, Channels: 1, BitDepth: 16, Data: []int{100, 200, 300, 400}}
	if err := audio.WriteWAV(path, src); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}

	sig, err := File{Path: path}.Signal(16000, 2, 16)
	if err != nil {
		t.Fatalf("Signal: %v", err)
	}
	want := []int{100, 100, 100, 100, 200, 200, 200, 200, 300, 300, 300, 300, 400, 400, 400, 400}
	if !slices.Equal(sig, want) {
		t.Errorf("Signal = %v, want %v", sig, want)
	}
}

type fixedSource []int

func (f fixedSource) Signal(int, int, int) ([]int, error) { return f, nil }

func TestMaskerReportsSpans(t *testing.T) {
	m := &Masker{Source: fixedSource{3}, PaddingMs: 0}
	out, spans, err := m.Mask(ramp(2000), []detect.Detection{{Start: 0.5, End: 1}})
	if err != nil {
		t.Fatalf("Mask: %v", err)
	}
	if len(spans) != 3 {
		t.Errorf("got %d spans, want 3", len(spans))
	}
	if out.Data[500] != 3 {
		t.Errorf("sample 500 = %d, want 3", out.Data[500])
	}
}
