// Package audio содержит PCM-буферы и чтение/запись WAV.
package audio

import (
	"errors"
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrInvalidWAV возвращается для файлов, которые не являются корректным WAV.
var ErrInvalidWAV = errors.New("некорректный WAV файл")

// PCM - несжатое аудио с чередующимися каналами.
type PCM struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Data       []int
}

// Frames возвращает количество кадров (сэмплов на канал).
func (p *PCM) Frames() int {
	if p.Channels == 0 {
		return 0
	}
	return len(p.Data) / p.Channels
}

// DurationMs возвращает длительность в миллисекундах (с округлением вниз).
func (p *PCM) DurationMs() int {
	if p.SampleRate == 0 {
		return 0
	}
	return int(int64(p.Frames()) * 1000 / int64(p.SampleRate))
}

// FrameAt переводит миллисекунды в индекс кадра.
func (p *PCM) FrameAt(ms int) int {
	f := int(int64(ms) * int64(p.SampleRate) / 1000)
	if f > p.Frames() {
		return p.Frames()
	}
	if f < 0 {
		return 0
	}
	return f
}

// Window возвращает сэмплы кадров [from, to).
func (p *PCM) Window(from, to int) []int {
	return p.Data[from*p.Channels : to*p.Channels]
}

// Float32Mono сводит каналы в моно и нормирует в [-1, 1].
func (p *PCM) Float32Mono() []float32 {
	frames := p.Frames()
	out := make([]float32, frames)
	scale := float32(int(1) << (p.BitDepth - 1))
	for i := 0; i < frames; i++ {
		var sum int
		for c := 0; c < p.Channels; c++ {
			sum += p.Data[i*p.Channels+c]
		}
		out[i] = float32(sum) / float32(p.Channels) / scale
	}
	return out
}

// FromFloat32 строит 16-битный моно PCM из сэмплов в диапазоне [-1, 1].
func FromFloat32(samples []float32, sampleRate int) *PCM {
	data := make([]int, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		data[i] = int(s * 32767)
	}
	return &PCM{SampleRate: sampleRate, Channels: 1, BitDepth: 16, Data: data}
}

// Conform приводит буфер к заданному формату: частота (ближайший кадр),
// число каналов (моно размножается, многоканальный сводится) и разрядность.
func (p *PCM) Conform(sampleRate, channels, bitDepth int) *PCM {
	if p.SampleRate == sampleRate && p.Channels == channels && p.BitDepth == bitDepth {
		return p
	}

	srcFrames := p.Frames()
	frames := srcFrames
	if p.SampleRate != sampleRate && p.SampleRate > 0 {
		frames = int(int64(srcFrames) * int64(sampleRate) / int64(p.SampleRate))
	}

	shift := bitDepth - p.BitDepth
	out := make([]int, 0, frames*channels)
	for i := 0; i < frames; i++ {
		src := i
		if frames != srcFrames {
			src = int(int64(i) * int64(p.SampleRate) / int64(sampleRate))
		}
		var sum int
		for c := 0; c < p.Channels; c++ {
			sum += p.Data[src*p.Channels+c]
		}
		v := sum / p.Channels
		switch {
		case shift > 0:
			v <<= shift
		case shift < 0:
			v >>= -shift
		}
		for c := 0; c < channels; c++ {
			out = append(out, v)
		}
	}
	return &PCM{SampleRate: sampleRate, Channels: channels, BitDepth: bitDepth, Data: out}
}

// ReadWAV читает WAV файл целиком.
func ReadWAV(path string) (*PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s: %w", path, ErrInvalidWAV)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("чтение PCM %s: %w", path, err)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(dec.BitDepth)
	}

	return &PCM{
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		BitDepth:   bitDepth,
		Data:       buf.Data,
	}, nil
}

// WriteWAV записывает буфер в WAV файл (PCM, формат 1).
func WriteWAV(path string, p *PCM) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, p.SampleRate, p.BitDepth, p.Channels, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: p.Channels,
			SampleRate:  p.SampleRate,
		},
		Data:           p.Data,
		SourceBitDepth: p.BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("запись WAV %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("закрытие WAV %s: %w", path, err)
	}
	return nil
}
