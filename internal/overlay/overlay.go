// Package overlay отмечает кадры видео, попадающие в найденные интервалы.
package overlay

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"hush/internal/detect"
)

// IsFlagged возвращает true, если t попадает хотя бы в один интервал
// (обе границы включены).
func IsFlagged(t float64, dets []detect.Detection) bool {
	for _, d := range dets {
		if d.Start <= t && t <= d.End {
			return true
		}
	}
	return false
}

// FrameTime возвращает время кадра с индексом i в секундах.
func FrameTime(i int, fps float64) float64 {
	if fps <= 0 {
		return 0
	}
	return float64(i) / fps
}

// Marker - значок поверх отмеченного кадра: красная точка и подпись.
type Marker struct {
	X, Y   int
	Radius int
	Color  color.RGBA
	Label  string
}

// DefaultMarker - красная точка в левом верхнем углу.
var DefaultMarker = Marker{
	X:      50,
	Y:      50,
	Radius: 20,
	Color:  color.RGBA{R: 255, A: 255},
	Label:  "MUTED",
}

// Draw рисует значок на кадре.
func (m Marker) Draw(img *image.RGBA) {
	r2 := m.Radius * m.Radius
	for dy := -m.Radius; dy <= m.Radius; dy++ {
		for dx := -m.Radius; dx <= m.Radius; dx++ {
			if dx*dx+dy*dy > r2 {
				continue
			}
			p := image.Pt(m.X+dx, m.Y+dy)
			if p.In(img.Rect) {
				img.SetRGBA(p.X, p.Y, m.Color)
			}
		}
	}

	if m.Label == "" {
		return
	}
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(m.Color),
		Face: face,
		Dot:  fixed.P(m.X+m.Radius+8, m.Y+face.Ascent/2),
	}
	d.DrawString(m.Label)
}

// FrameReader читает кадры по одному. io.EOF означает конец потока.
type FrameReader interface {
	ReadFrame(img *image.RGBA) error
}

// FrameWriter записывает кадры.
type FrameWriter interface {
	WriteFrame(img *image.RGBA) error
}

// Stats - итог прохода по видео.
type Stats struct {
	Frames  int
	Flagged int
}

// Render читает все кадры, отмечает попавшие в интервалы и пишет их дальше.
func Render(r FrameReader, w FrameWriter, width, height int, fps float64, dets []detect.Detection, m Marker) (Stats, error) {
	var st Stats
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for {
		err := r.ReadFrame(img)
		if errors.Is(err, io.EOF) {
			return st, nil
		}
		if err != nil {
			return st, fmt.Errorf("чтение кадра %d: %w", st.Frames, err)
		}

		if IsFlagged(FrameTime(st.Frames, fps), dets) {
			m.Draw(img)
			st.Flagged++
		}
		if err := w.WriteFrame(img); err != nil {
			return st, fmt.Errorf("запись кадра %d: %w", st.Frames, err)
		}
		st.Frames++
	}
}
