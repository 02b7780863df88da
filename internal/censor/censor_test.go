package censor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"hush/internal/audio"
	"hush/internal/detect"
	"hush/internal/lexicon"
	"hush/internal/mask"
	"hush/internal/overlay"
	"hush/internal/report"
	"hush/internal/speech"
	"hush/internal/vad"
)

type fakeMedia struct {
	src     *audio.PCM
	calls   []string
	remuxed string // видео, переданное в Remux
}

func (f *fakeMedia) DecodeToWAV(ctx context.Context, in, out string, rate, channels int) error {
	f.calls = append(f.calls, "decode")
	p := f.src
	if rate > 0 {
		p = p.Conform(rate, channels, 16)
	}
	return audio.WriteWAV(out, p)
}

func (f *fakeMedia) ExtractAudio(ctx context.Context, video, out string) error {
	f.calls = append(f.calls, "extract")
	return audio.WriteWAV(out, f.src)
}

func (f *fakeMedia) EncodeAudio(ctx context.Context, wav, out string) error {
	f.calls = append(f.calls, "encode")
	return copyFile(wav, out)
}

func (f *fakeMedia) Remux(ctx context.Context, video, wav, out string) error {
	f.calls = append(f.calls, "remux")
	f.remuxed = video
	return copyFile(wav, out)
}

func copyFile(from, to string) error {
	data, err := os.ReadFile(from)
	if err != nil {
		return err
	}
	return os.WriteFile(to, data, 0o644)
}

type fakeRecognizer struct {
	words []speech.Word
	err   error
}

func (r *fakeRecognizer) Words(ctx context.Context, samples []float32, lang string) speech.Words {
	if r.err != nil {
		return speech.Fail(r.err)
	}
	return speech.Slice(r.words)
}
func (r *fakeRecognizer) Close()       {}
func (r *fakeRecognizer) Name() string { return "fake" }

type fakeFlagger struct {
	dets []detect.Detection
	err  error
}

func (f *fakeFlagger) FlagVideo(ctx context.Context, in, out string, dets []detect.Detection, m overlay.Marker) (overlay.Stats, error) {
	f.dets = dets
	if f.err != nil {
		return overlay.Stats{}, f.err
	}
	return overlay.Stats{Frames: 50, Flagged: 9}, os.WriteFile(out, []byte("flagged"), 0o644)
}

type constSignal int

func (c constSignal) Signal(sampleRate, channels, bitDepth int) ([]int, error) {
	return []int{int(c)}, nil
}

type fakeVAD struct {
	segs vad.Segments
	err  error
}

func (v fakeVAD) Segments(samples []float32) (vad.Segments, error) { return v.segs, v.err }

// source - 2 секунды 16 кГц моно с постоянным значением 100.
func source() *audio.PCM {
	data := make([]int, 32000)
	for i := range data {
		data[i] = 100
	}
	return &audio.PCM{SampleRate: 16000, Channels: 1, BitDepth: 16, Data: data}
}

func newPipeline(media *fakeMedia, rec *fakeRecognizer) *Pipeline {
	return &Pipeline{
		Media:      media,
		Recognizer: rec,
		Detector:   detect.New(lexicon.New([]string{"fuck"})),
		Masker:     &mask.Masker{Source: constSignal(7), PaddingMs: 100},
	}
}

func words() []speech.Word {
	return []speech.Word{
		{Text: "hello", Start: 0.1, End: 0.3},
		{Text: "Fuck.", Start: 1.0, End: 1.2},
	}
}

func touch(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("media"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProcessAudioMasksAndWritesLog(t *testing.T) {
	input := touch(t, "talk.mp3")
	media := &fakeMedia{src: source()}
	p := newPipeline(media, &fakeRecognizer{words: words()})

	res, err := p.Process(context.Background(), input, Options{Language: "en"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	wantOut := filepath.Join(filepath.Dir(input), "talk_censored", "clean_talk.mp3")
	if res.Output != wantOut {
		t.Errorf("Output = %q, want %q", res.Output, wantOut)
	}
	if len(res.Detections) != 1 || res.Detections[0].Word != "Fuck." {
		t.Fatalf("Detections = %+v", res.Detections)
	}
	if !slices.Contains(media.calls, "encode") || slices.Contains(media.calls, "remux") {
		t.Errorf("calls = %v, want encode without remux", media.calls)
	}

	out, err := audio.ReadWAV(res.Output)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}
	if out.Frames() != 32000 {
		t.Fatalf("frames = %d, want 32000", out.Frames())
	}
	// [900ms, 1300ms) -> кадры [14400, 20800)
	for _, c := range []struct{ i, want int }{{14399, 100}, {14400, 7}, {20799, 7}, {20800, 100}} {
		if out.Data[c.i] != c.want {
			t.Errorf("Data[%d] = %d, want %d", c.i, out.Data[c.i], c.want)
		}
	}

	l, err := report.Read(res.LogPath)
	if err != nil {
		t.Fatalf("report.Read: %v", err)
	}
	if l.ProfanitiesFound != 1 || l.OriginalFile != input || l.OutputFile != res.Output {
		t.Errorf("log = %+v", l)
	}
}

func TestProcessVideoRemuxes(t *testing.T) {
	input := touch(t, "clip.MP4")
	outDir := filepath.Join(t.TempDir(), "out")
	media := &fakeMedia{src: source()}
	p := newPipeline(media, &fakeRecognizer{words: words()})

	res, err := p.Process(context.Background(), input, Options{OutputDir: outDir})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Kind != KindVideo {
		t.Errorf("Kind = %v, want video", res.Kind)
	}
	if res.Output != filepath.Join(outDir, "clean_clip.MP4") {
		t.Errorf("Output = %q", res.Output)
	}
	want := []string{"decode", "extract", "remux"}
	if !slices.Equal(media.calls, want) {
		t.Errorf("calls = %v, want %v", media.calls, want)
	}
}

func TestListOnlyDoesNotWriteOutput(t *testing.T) {
	input := touch(t, "talk.wav")
	media := &fakeMedia{src: source()}
	p := newPipeline(media, &fakeRecognizer{words: words()})

	res, err := p.Process(context.Background(), input, Options{ListOnly: true})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(res.Detections) != 1 || res.Output != "" {
		t.Errorf("res = %+v", res)
	}
	if _, err := os.Stat(OutputDir(input)); !os.IsNotExist(err) {
		t.Error("list-only run created the output directory")
	}
}

func TestProcessNoDetectionsKeepsAudio(t *testing.T) {
	input := touch(t, "clean.flac")
	media := &fakeMedia{src: source()}
	p := newPipeline(media, &fakeRecognizer{words: words()[:1]})

	res, err := p.Process(context.Background(), input, Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	out, err := audio.ReadWAV(res.Output)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(out.Data, source().Data) {
		t.Error("audio changed without detections")
	}
	l, err := report.Read(res.LogPath)
	if err != nil {
		t.Fatal(err)
	}
	if l.ProfanitiesFound != 0 || l.Segments == nil {
		t.Errorf("log = %+v, want empty segment list", l)
	}
}

func TestProcessErrors(t *testing.T) {
	p := newPipeline(&fakeMedia{src: source()}, &fakeRecognizer{words: words()})

	_, err := p.Process(context.Background(), filepath.Join(t.TempDir(), "nope.mp3"), Options{})
	if !errors.Is(err, ErrInputNotFound) {
		t.Errorf("missing input: got %v, want ErrInputNotFound", err)
	}

	_, err = p.Process(context.Background(), touch(t, "notes.txt"), Options{})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("txt input: got %v, want ErrUnsupportedFormat", err)
	}
}

func TestRecognizerFailureIsFatal(t *testing.T) {
	boom := errors.New("model crashed")
	p := newPipeline(&fakeMedia{src: source()}, &fakeRecognizer{err: boom})

	_, err := p.Process(context.Background(), touch(t, "talk.mp3"), Options{})
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want wrapped recognizer error", err)
	}
}

func TestVADDropsWordsOutsideSpeech(t *testing.T) {
	p := newPipeline(&fakeMedia{src: source()}, &fakeRecognizer{words: words()})
	p.VAD = fakeVAD{segs: vad.Segments{{Start: 0, End: 0.5}}}

	res, err := p.Process(context.Background(), touch(t, "talk.mp3"), Options{ListOnly: true})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(res.Detections) != 0 {
		t.Errorf("Detections = %+v, want none", res.Detections)
	}
}

func TestVADFailureDisablesFilter(t *testing.T) {
	p := newPipeline(&fakeMedia{src: source()}, &fakeRecognizer{words: words()})
	p.VAD = fakeVAD{err: errors.New("no onnxruntime")}

	res, err := p.Process(context.Background(), touch(t, "talk.mp3"), Options{ListOnly: true})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(res.Detections) != 1 {
		t.Errorf("Detections = %+v, want 1", res.Detections)
	}
}

func TestClassify(t *testing.T) {
	cases := map[string]Kind{"a.MP3": KindAudio, "b.ogg": KindAudio, "c.webm": KindVideo, "d.mov": KindVideo}
	for path, want := range cases {
		got, err := Classify(path)
		if err != nil || got != want {
			t.Errorf("Classify(%q) = %v, %v; want %v", path, got, err, want)
		}
	}
	if _, err := Classify("e.txt"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Classify(e.txt) err = %v", err)
	}
}

func TestOutputPaths(t *testing.T) {
	dir := OutputDir(filepath.Join("media", "talk.final.mp4"))
	if dir != filepath.Join("media", "talk.final_censored") {
		t.Errorf("OutputDir = %q", dir)
	}
	if got := OutputPath("out", "/x/y/talk.mp4"); got != filepath.Join("out", "clean_talk.mp4") {
		t.Errorf("OutputPath = %q", got)
	}
}

func TestProcessVideoFlagsFrames(t *testing.T) {
	input := touch(t, "clip.mkv")
	media := &fakeMedia{src: source()}
	flagger := &fakeFlagger{}
	p := newPipeline(media, &fakeRecognizer{words: words()})
	p.Flagger = flagger

	res, err := p.Process(context.Background(), input, Options{OutputDir: t.TempDir(), Flag: true})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(flagger.dets) != 1 || flagger.dets[0].Start != 1.0 {
		t.Errorf("flagger got %+v, want the detected word", flagger.dets)
	}
	if filepath.Base(media.remuxed) != "flagged.mkv" {
		t.Errorf("remuxed %q, want flagged video", media.remuxed)
	}
	if res.Frames.Flagged != 9 {
		t.Errorf("Frames = %+v, want 9 flagged", res.Frames)
	}
}

func TestFlagFailureRemuxesOriginal(t *testing.T) {
	input := touch(t, "clip.mp4")
	media := &fakeMedia{src: source()}
	p := newPipeline(media, &fakeRecognizer{words: words()})
	p.Flagger = &fakeFlagger{err: errors.New("ffprobe failed")}

	if _, err := p.Process(context.Background(), input, Options{OutputDir: t.TempDir(), Flag: true}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if media.remuxed != input {
		t.Errorf("remuxed %q, want original %q", media.remuxed, input)
	}
}

func TestFlagSkippedWithoutDetections(t *testing.T) {
	input := touch(t, "clip.mp4")
	media := &fakeMedia{src: source()}
	flagger := &fakeFlagger{}
	p := newPipeline(media, &fakeRecognizer{words: []speech.Word{{Text: "hello", Start: 0.1, End: 0.3}}})
	p.Flagger = flagger

	if _, err := p.Process(context.Background(), input, Options{OutputDir: t.TempDir(), Flag: true}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if flagger.dets != nil {
		t.Error("flagger called without detections")
	}
	if media.remuxed != input {
		t.Errorf("remuxed %q, want original", media.remuxed)
	}
}
