package asr

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sync"

	vosk "github.com/alphacep/vosk-api/go"

	"hush/internal/speech"
)

// VoskRecognizer реализует speech.Recognizer через Vosk.
// Язык определяется моделью, параметр lang игнорируется.
type VoskRecognizer struct {
	mu         sync.Mutex
	model      *vosk.VoskModel
	recognizer *vosk.VoskRecognizer
}

// voskResult структура JSON результата Vosk с пословной разметкой.
type voskResult struct {
	Result []struct {
		Conf  float64 `json:"conf"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Word  string  `json:"word"`
	} `json:"result"`
	Text string `json:"text"`
}

// NewVosk создаёт VoskRecognizer из пути к модели.
func NewVosk(modelPath string) (*VoskRecognizer, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("модель Vosk не найдена: %s", modelPath)
	}

	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки модели Vosk: %w", err)
	}

	rec, err := vosk.NewRecognizer(model, speech.SampleRate)
	if err != nil {
		model.Free()
		return nil, err
	}
	rec.SetWords(1)

	return &VoskRecognizer{model: model, recognizer: rec}, nil
}

// Name возвращает название движка.
func (v *VoskRecognizer) Name() string {
	return "vosk"
}

// voskBlock - размер порции (0.25 с), которой звук подаётся в Vosk.
// Результат каждой законченной фразы забирается сразу, иначе длинная
// запись теряет всё, кроме последней фразы.
const voskBlock = speech.SampleRate / 4

// Words распознаёт речь. Vosk принимает PCM16, поэтому float32 -> int16.
func (v *VoskRecognizer) Words(ctx context.Context, samples []float32, lang string) speech.Words {
	return func(yield func(speech.Word, error) bool) {
		v.mu.Lock()
		defer v.mu.Unlock()
		defer v.recognizer.Reset()

		emit := func(raw string) bool {
			var result voskResult
			if err := json.Unmarshal([]byte(raw), &result); err != nil {
				yield(speech.Word{}, fmt.Errorf("разбор результата Vosk: %w", err))
				return false
			}
			for _, r := range result.Result {
				if !yield(speech.Word{Text: r.Word, Start: r.Start, End: r.End, Confidence: r.Conf}, nil) {
					return false
				}
			}
			return true
		}

		pcm := toPCM16(samples)
		for off := 0; off < len(pcm); off += voskBlock * 2 {
			if err := ctx.Err(); err != nil {
				yield(speech.Word{}, err)
				return
			}
			end := min(off+voskBlock*2, len(pcm))
			if v.recognizer.AcceptWaveform(pcm[off:end]) == 1 && !emit(v.recognizer.Result()) {
				return
			}
		}
		emit(v.recognizer.FinalResult())
	}
}

func toPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		s = max(-1, min(1, s))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(s*math.MaxInt16)))
	}
	return out
}

// Close освобождает ресурсы.
func (v *VoskRecognizer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.recognizer != nil {
		v.recognizer.Free()
		v.recognizer = nil
	}
	if v.model != nil {
		v.model.Free()
		v.model = nil
	}
}
