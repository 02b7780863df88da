package media

import (
	"context"
	"errors"
	"fmt"

	"hush/internal/detect"
	"hush/internal/overlay"
)

// FlagVideo перекодирует видео без звука, рисуя значок m на кадрах,
// попавших в интервалы dets. Размер и частота кадров берутся из ffprobe.
func (f *FFmpeg) FlagVideo(ctx context.Context, in, out string, dets []detect.Detection, m overlay.Marker) (overlay.Stats, error) {
	info, err := f.Probe(ctx, in)
	if err != nil {
		return overlay.Stats{}, err
	}
	if info.Width <= 0 || info.Height <= 0 || info.FPS <= 0 {
		return overlay.Stats{}, fmt.Errorf("%s: неизвестный размер кадра или частота (%dx%d, %.2f fps)", in, info.Width, info.Height, info.FPS)
	}

	src, err := f.OpenFrames(ctx, in, info.Width, info.Height)
	if err != nil {
		return overlay.Stats{}, err
	}
	sink, err := f.CreateVideo(ctx, out, info.Width, info.Height, info.FPS)
	if err != nil {
		src.Close()
		return overlay.Stats{}, err
	}

	st, err := overlay.Render(src, sink, info.Width, info.Height, info.FPS, dets, m)
	return st, errors.Join(err, src.Close(), sink.Close())
}
