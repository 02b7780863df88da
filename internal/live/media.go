package live

import (
	"context"

	"hush/internal/capture"
	"hush/internal/media"
	"hush/internal/overlay"
	"hush/internal/vad"
)

// AudioSource - микрофон, отдающий запись чанками.
// Stop отправляет остаток, закрывает канал и возвращает всю запись.
type AudioSource interface {
	Start(chunkSeconds float64) (<-chan capture.Chunk, error)
	Stop() []float32
}

// FrameSource - поток кадров (камера или файл).
type FrameSource interface {
	overlay.FrameReader
	Close() error
}

// FrameSink - кодировщик видео.
type FrameSink interface {
	overlay.FrameWriter
	Close() error
}

// VoiceDetector находит участки речи в чанке.
type VoiceDetector interface {
	Segments(samples []float32) (vad.Segments, error)
}

// Media - операции с видео, нужные живой записи.
type Media interface {
	OpenCamera(ctx context.Context, device string, width, height int, fps float64) (FrameSource, error)
	OpenFrames(ctx context.Context, path string, width, height int) (FrameSource, error)
	CreateVideo(ctx context.Context, out string, width, height int, fps float64) (FrameSink, error)
	Remux(ctx context.Context, video, audio, out string) error
}

// FFmpeg адаптирует media.FFmpeg к Media.
func FFmpeg(f *media.FFmpeg) Media {
	return ffmpegMedia{f}
}

type ffmpegMedia struct {
	f *media.FFmpeg
}

func (m ffmpegMedia) OpenCamera(ctx context.Context, device string, width, height int, fps float64) (FrameSource, error) {
	return m.f.OpenCamera(ctx, device, width, height, fps)
}

func (m ffmpegMedia) OpenFrames(ctx context.Context, path string, width, height int) (FrameSource, error) {
	return m.f.OpenFrames(ctx, path, width, height)
}

func (m ffmpegMedia) CreateVideo(ctx context.Context, out string, width, height int, fps float64) (FrameSink, error) {
	return m.f.CreateVideo(ctx, out, width, height, fps)
}

func (m ffmpegMedia) Remux(ctx context.Context, video, audio, out string) error {
	return m.f.Remux(ctx, video, audio, out)
}
