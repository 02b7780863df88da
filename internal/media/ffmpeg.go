// Package media вызывает ffmpeg/ffprobe для декодирования, кодирования и склейки.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/gommon/log"
)

// ErrFFmpegNotFound возвращается, если ffmpeg не найден в PATH.
var ErrFFmpegNotFound = errors.New("ffmpeg не найден, установите его и добавьте в PATH")

// ExitError - ошибка запуска ffmpeg с его диагностическим выводом.
type ExitError struct {
	Op     string
	Err    error
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("ffmpeg %s: %v", e.Op, e.Err)
	if tail := lastLines(e.Stderr, 5); tail != "" {
		msg += "\n" + tail
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }

// FFmpeg - обёртка над бинарниками ffmpeg и ffprobe.
type FFmpeg struct {
	Bin      string
	ProbeBin string
}

// New создаёт обёртку. Пустой bin означает "ffmpeg" из PATH;
// ffprobe ищется рядом с ffmpeg.
func New(bin string) *FFmpeg {
	if bin == "" {
		return &FFmpeg{Bin: "ffmpeg", ProbeBin: "ffprobe"}
	}
	probe := filepath.Join(filepath.Dir(bin), "ffprobe")
	if filepath.Dir(bin) == "." {
		probe = "ffprobe"
	}
	return &FFmpeg{Bin: bin, ProbeBin: probe}
}

// Check проверяет наличие ffmpeg.
func (f *FFmpeg) Check() error {
	if _, err := exec.LookPath(f.Bin); err != nil {
		return fmt.Errorf("%w (%s)", ErrFFmpegNotFound, f.Bin)
	}
	return nil
}

// DecodeToWAV декодирует аудиодорожку в 16-битный WAV.
// Нулевые rate и channels сохраняют исходные параметры.
func (f *FFmpeg) DecodeToWAV(ctx context.Context, in, out string, rate, channels int) error {
	args := []string{"-y", "-i", in, "-vn"}
	if channels > 0 {
		args = append(args, "-ac", strconv.Itoa(channels))
	}
	if rate > 0 {
		args = append(args, "-ar", strconv.Itoa(rate))
	}
	args = append(args, "-c:a", "pcm_s16le", "-f", "wav", out)
	return f.run(ctx, "decode", args...)
}

// ExtractAudio извлекает звук из видео в WAV 44.1 кГц.
func (f *FFmpeg) ExtractAudio(ctx context.Context, video, out string) error {
	return f.DecodeToWAV(ctx, video, out, 44100, 0)
}

// EncodeAudio кодирует WAV в формат, определяемый расширением out.
func (f *FFmpeg) EncodeAudio(ctx context.Context, wav, out string) error {
	return f.run(ctx, "encode", "-y", "-i", wav, out)
}

// Remux заменяет звуковую дорожку видео, сохраняя видеопоток без перекодирования.
func (f *FFmpeg) Remux(ctx context.Context, video, audio, out string) error {
	return f.run(ctx, "remux",
		"-y",
		"-i", video,
		"-i", audio,
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-shortest",
		out,
	)
}

// VideoInfo - параметры видеопотока.
type VideoInfo struct {
	Width    int
	Height   int
	FPS      float64
	Duration float64
}

// Probe читает параметры первого видеопотока через ffprobe.
func (f *FFmpeg) Probe(ctx context.Context, path string) (VideoInfo, error) {
	cmd := exec.CommandContext(ctx, f.ProbeBin,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate:format=duration",
		"-of", "json",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return VideoInfo{}, &ExitError{Op: "probe", Err: err, Stderr: stderr.String()}
	}
	return parseProbe(stdout.Bytes())
}

type probeOutput struct {
	Streams []struct {
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		FrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func parseProbe(data []byte) (VideoInfo, error) {
	var p probeOutput
	if err := json.Unmarshal(data, &p); err != nil {
		return VideoInfo{}, fmt.Errorf("разбор ffprobe: %w", err)
	}
	if len(p.Streams) == 0 {
		return VideoInfo{}, errors.New("видеопоток не найден")
	}
	s := p.Streams[0]
	info := VideoInfo{Width: s.Width, Height: s.Height, FPS: parseRate(s.FrameRate)}
	if p.Format.Duration != "" {
		d, err := strconv.ParseFloat(p.Format.Duration, 64)
		if err != nil {
			return VideoInfo{}, fmt.Errorf("длительность %q: %w", p.Format.Duration, err)
		}
		info.Duration = d
	}
	return info, nil
}

// parseRate разбирает частоту кадров вида "30000/1001" или "25".
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !ok {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

func (f *FFmpeg) run(ctx context.Context, op string, args ...string) error {
	log.Debugf("%s %s", f.Bin, strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, f.Bin, append([]string{"-hide_banner", "-loglevel", "error"}, args...)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w (%s)", ErrFFmpegNotFound, f.Bin)
		}
		return &ExitError{Op: op, Err: err, Stderr: stderr.String()}
	}
	return nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
