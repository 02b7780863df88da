// Package fasterwhisper распознаёт речь через python-хелпер на faster-whisper.
package fasterwhisper

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/labstack/gommon/log"

	"hush/internal/audio"
	"hush/internal/speech"
)

//go:embed assets/faster_whisper.py
var helperScript []byte

// Recognizer запускает хелпер на каждый фрагмент и читает слова из его stdout
// (одна JSON-строка на слово).
type Recognizer struct {
	Model       string // tiny, base, small, medium, large-v3
	Device      string // auto, cpu, cuda
	ComputeType string // default, int8, float16
	VAD         bool   // фильтр тишины faster-whisper
	Python      string // интерпретатор; пустой - $HUSH_PY или python3
}

// New создаёт распознаватель.
func New(model, device, computeType string, vad bool) *Recognizer {
	return &Recognizer{Model: model, Device: device, ComputeType: computeType, VAD: vad}
}

// Name возвращает название движка.
func (r *Recognizer) Name() string {
	return "faster-whisper"
}

// Close ничего не делает: процесс живёт только на время распознавания.
func (r *Recognizer) Close() {}

type helperWord struct {
	Word        string  `json:"word"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Probability float64 `json:"probability"`
}

// Words пишет сэмплы во временный WAV и стримит слова из хелпера.
func (r *Recognizer) Words(ctx context.Context, samples []float32, lang string) speech.Words {
	return func(yield func(speech.Word, error) bool) {
		dir, err := os.MkdirTemp("", "hush-fw-*")
		if err != nil {
			yield(speech.Word{}, err)
			return
		}
		defer os.RemoveAll(dir)

		wavPath := filepath.Join(dir, "chunk.wav")
		if err := audio.WriteWAV(wavPath, audio.FromFloat32(samples, speech.SampleRate)); err != nil {
			yield(speech.Word{}, err)
			return
		}
		scriptPath := filepath.Join(dir, "faster_whisper.py")
		if err := os.WriteFile(scriptPath, helperScript, 0o755); err != nil {
			yield(speech.Word{}, fmt.Errorf("запись хелпера: %w", err))
			return
		}

		cmd := exec.CommandContext(ctx, r.python(), r.args(scriptPath, wavPath, lang)...)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			yield(speech.Word{}, err)
			return
		}
		if err := cmd.Start(); err != nil {
			yield(speech.Word{}, fmt.Errorf("запуск faster-whisper: %w", err))
			return
		}
		log.Debugf("faster-whisper: %s, %s", r.Model, r.device())

		stopped := false
		for w, err := range decode(stdout) {
			if err != nil {
				cmd.Process.Kill()
				cmd.Wait()
				yield(speech.Word{}, err)
				return
			}
			if !yield(w, nil) {
				stopped = true
				break
			}
		}
		if stopped {
			cmd.Process.Kill()
			cmd.Wait()
			return
		}

		if err := cmd.Wait(); err != nil {
			yield(speech.Word{}, fmt.Errorf("faster-whisper: %w: %s", err, strings.TrimSpace(stderr.String())))
		}
	}
}

func (r *Recognizer) python() string {
	if r.Python != "" {
		return r.Python
	}
	if py := os.Getenv("HUSH_PY"); py != "" {
		return py
	}
	return "python3"
}

func (r *Recognizer) device() string {
	if r.Device == "" {
		return "auto"
	}
	return r.Device
}

func (r *Recognizer) args(script, wav, lang string) []string {
	args := []string{script, "--audio", wav, "--model", r.Model, "--device", r.device()}
	if r.ComputeType != "" {
		args = append(args, "--compute-type", r.ComputeType)
	}
	if lang != "" {
		args = append(args, "--language", lang)
	}
	if r.VAD {
		args = append(args, "--vad")
	}
	return args
}

// decode читает слова построчно. Пустые строки пропускаются.
func decode(stdout io.Reader) speech.Words {
	return func(yield func(speech.Word, error) bool) {
		sc := bufio.NewScanner(stdout)
		for sc.Scan() {
			line := bytes.TrimSpace(sc.Bytes())
			if len(line) == 0 {
				continue
			}
			var hw helperWord
			if err := json.Unmarshal(line, &hw); err != nil {
				yield(speech.Word{}, fmt.Errorf("разбор вывода faster-whisper: %w", err))
				return
			}
			w := speech.Word{Text: hw.Word, Start: hw.Start, End: hw.End, Confidence: hw.Probability}
			if !yield(w, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(speech.Word{}, err)
		}
	}
}
