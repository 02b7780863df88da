package audio

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestFrameAt(t *testing.T) {
	p := &PCM{SampleRate: 44100, Channels: 2, BitDepth: 16, Data: make([]int, 2*44100)}

	if got := p.FrameAt(500); got != 22050 {
		t.Errorf("FrameAt(500) = %d, want 22050", got)
	}
	if got := p.FrameAt(5000); got != 44100 {
		t.Errorf("FrameAt(5000) = %d, want clamp to 44100", got)
	}
	if got := p.FrameAt(-10); got != 0 {
		t.Errorf("FrameAt(-10) = %d, want 0", got)
	}
	if got := p.DurationMs(); got != 1000 {
		t.Errorf("DurationMs = %d, want 1000", got)
	}
}

func TestConformStereoToMono(t *testing.T) {
	p := &PCM{SampleRate: 8000, Channels: 2, BitDepth: 16, Data: []int{10, 30, -20, 0}}
	got := p.Conform(8000, 1, 16)
	if !slices.Equal(got.Data, []int{20, -10}) {
		t.Errorf("Data = %v, want [20 -10]", got.Data)
	}
}

func TestConformResampleAndDepth(t *testing.T) {
	p := &PCM{SampleRate: 8000, Channels: 1, BitDepth: 8, Data: []int{1, 2, 3, 4}}
	got := p.Conform(16000, 2, 16)
	want := []int{256, 256, 256, 256, 512, 512, 512, 512, 768, 768, 768, 768, 1024, 1024, 1024, 1024}
	if !slices.Equal(got.Data, want) {
		t.Errorf("Data = %v, want %v", got.Data, want)
	}
	if got.Frames() != 8 {
		t.Errorf("Frames = %d, want 8", got.Frames())
	}
}

func TestConformSameFormatIsIdentity(t *testing.T) {
	p := &PCM{SampleRate: 16000, Channels: 1, BitDepth: 16, Data: []int{1}}
	if p.Conform(16000, 1, 16) != p {
		t.Error("Conform copied a buffer that already matches")
	}
}

func TestFloat32RoundTrip(t *testing.T) {
	p := FromFloat32([]float32{0, 0.5, -1, 2}, 16000)
	want := []int{0, 16383, -32767, 32767}
	if !slices.Equal(p.Data, want) {
		t.Errorf("Data = %v, want %v", p.Data, want)
	}
	f := p.Float32Mono()
	if f[1] < 0.49 || f[1] > 0.51 {
		t.Errorf("Float32Mono[1] = %v, want 0.5", f[1])
	}
}

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.wav")
	p := &PCM{SampleRate: 22050, Channels: 2, BitDepth: 16, Data: []int{1, -1, 300, -300, 32767, -32768}}
	if err := WriteWAV(path, p); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	got, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}
	if got.SampleRate != 22050 || got.Channels != 2 || got.BitDepth != 16 {
		t.Errorf("format = %d/%d/%d", got.SampleRate, got.Channels, got.BitDepth)
	}
	if !slices.Equal(got.Data, p.Data) {
		t.Errorf("Data = %v, want %v", got.Data, p.Data)
	}
}

func TestReadWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(path, []byte("not a wav file at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadWAV(path); !errors.Is(err, ErrInvalidWAV) {
		t.Errorf("err = %v, want ErrInvalidWAV", err)
	}
}
