package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

// Цвета иконок по состояниям.
var (
	colorRecording  = color.RGBA{220, 50, 50, 255}  // Красный
	colorProcessing = color.RGBA{230, 160, 50, 255} // Оранжевый
)

// icon рисует иконку трея: круг (микрофон упрощённо) с ножкой.
func icon(c color.RGBA) []byte {
	const size = 64
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	centerX, centerY := size/2, size/2
	radius := 20.0

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x - centerX)
			dy := float64(y - centerY)
			if dx*dx+dy*dy <= radius*radius {
				img.Set(x, y, c)
			}
		}
	}

	// Ножка микрофона
	for y := centerY + int(radius); y < centerY+int(radius)+10; y++ {
		for x := centerX - 3; x <= centerX+3; x++ {
			if y < size {
				img.Set(x, y, c)
			}
		}
	}

	var buf bytes.Buffer
	// Запись в буфер не падает.
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
