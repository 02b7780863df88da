package preview

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"gioui.org/f32"
	"gioui.org/font"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"hush/internal/i18n"
)

// waveSamples - сколько последних сэмплов показывать без камеры (~0.1 с при 16 кГц).
const waveSamples = 1600

func drawRecording(gtx layout.Context, src Source, elapsed time.Duration, cfg Config, stopBtn *widget.Clickable) {
	drawBackground(gtx, cfg.BGColor)

	found := src.Found()
	frame := src.Frame()
	flagged := src.Flagged()

	layout.UniformInset(unit.Dp(12)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return drawHeader(gtx, elapsed, found, cfg)
			}),
			layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
				if frame != nil {
					return drawFrame(gtx, frame, flagged, cfg)
				}
				return drawWaveformPanel(gtx, src.Samples(waveSamples), cfg)
			}),
			layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return drawActionButton(gtx, stopBtn, cfg.AlertColor, i18n.T("preview_stop"))
			}),
		)
	})
}

// drawHeader: индикатор записи, счётчик найденных слов и таймер.
func drawHeader(gtx layout.Context, elapsed time.Duration, found int, cfg Config) layout.Dimensions {
	return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return drawRecordingDot(gtx, elapsed, cfg.AlertColor)
		}),
		layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return label(gtx, i18n.T("tray_recording"), 14, cfg.TextColor, font.Medium)
		}),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return layout.Dimensions{}
		}),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			col := cfg.TextDimColor
			if found > 0 {
				col = cfg.AlertColor
			}
			return label(gtx, i18n.Tf("tray_detections", found), 13, col, font.Medium)
		}),
		layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return drawTimerBadge(gtx, elapsed, cfg)
		}),
	)
}

func label(gtx layout.Context, text string, size float32, col color.NRGBA, weight font.Weight) layout.Dimensions {
	th := material.NewTheme()
	th.Palette.Fg = col
	lbl := material.Label(th, unit.Sp(size), text)
	lbl.Font.Weight = weight
	return lbl.Layout(gtx)
}

func drawBackground(gtx layout.Context, col color.NRGBA) {
	paint.FillShape(gtx.Ops, col, clip.Rect{Max: gtx.Constraints.Max}.Op())
}

// drawRecordingDot рисует пульсирующую точку.
func drawRecordingDot(gtx layout.Context, elapsed time.Duration, col color.NRGBA) layout.Dimensions {
	size := gtx.Dp(unit.Dp(10))

	pulse := float32(math.Sin(float64(elapsed.Milliseconds())/200.0)*0.3 + 0.7)
	col.A = uint8(float32(col.A) * pulse)

	paint.FillShape(gtx.Ops, col, clip.Ellipse{Max: image.Pt(size, size)}.Op(gtx.Ops))
	return layout.Dimensions{Size: image.Pt(size, size)}
}

func drawTimerBadge(gtx layout.Context, elapsed time.Duration, cfg Config) layout.Dimensions {
	seconds := int(elapsed.Seconds())
	text := fmt.Sprintf("%d:%02d", seconds/60, seconds%60)

	macro := op.Record(gtx.Ops)
	dims := layout.Inset{
		Top: unit.Dp(4), Bottom: unit.Dp(4),
		Left: unit.Dp(10), Right: unit.Dp(10),
	}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return label(gtx, text, 13, cfg.TextColor, font.Bold)
	})
	call := macro.Stop()

	rr := gtx.Dp(unit.Dp(6))
	paint.FillShape(gtx.Ops, cfg.PanelColor, clip.RRect{
		Rect: image.Rectangle{Max: dims.Size},
		NE:   rr, NW: rr, SE: rr, SW: rr,
	}.Op(gtx.Ops))

	call.Add(gtx.Ops)
	return dims
}

// drawFrame рисует кадр камеры, вписывая его в панель. Отметка "MUTED"
// уже нарисована на кадре монитором; отмеченный кадр обводится рамкой.
func drawFrame(gtx layout.Context, frame *image.RGBA, flagged bool, cfg Config) layout.Dimensions {
	if flagged {
		drawPanel(gtx, cfg.AlertColor)
		gtx.Constraints = layout.Exact(gtx.Constraints.Max)
		return layout.UniformInset(unit.Dp(3)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			return drawFrame(gtx, frame, false, cfg)
		})
	}
	drawPanel(gtx, cfg.PanelColor)
	img := widget.Image{
		Src:      paint.NewImageOp(frame),
		Fit:      widget.Contain,
		Position: layout.Center,
	}
	gtx.Constraints.Min = gtx.Constraints.Max
	return img.Layout(gtx)
}

func drawPanel(gtx layout.Context, col color.NRGBA) {
	rr := gtx.Dp(unit.Dp(8))
	paint.FillShape(gtx.Ops, col, clip.RRect{
		Rect: image.Rectangle{Max: gtx.Constraints.Max},
		NE:   rr, NW: rr, SE: rr, SW: rr,
	}.Op(gtx.Ops))
}

// drawWaveformPanel показывает уровень и осциллограмму микрофона,
// когда запись идёт без камеры.
func drawWaveformPanel(gtx layout.Context, samples []float32, cfg Config) layout.Dimensions {
	drawPanel(gtx, cfg.PanelColor)

	return layout.UniformInset(unit.Dp(6)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				gtx.Constraints.Max.X = gtx.Dp(unit.Dp(20))
				gtx.Constraints.Min.X = gtx.Constraints.Max.X
				return drawVolumeBar(gtx, level(samples), cfg)
			}),
			layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
				return drawWaveform(gtx, samples, cfg.WaveColor)
			}),
		)
	})
}

// level возвращает громкость в диапазоне 0..1 по RMS последних 1024 сэмплов.
// Обычная речь даёт RMS около 0.1-0.3, поэтому значение умножается на 3.
func level(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}
	if len(samples) > 1024 {
		samples = samples[len(samples)-1024:]
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	rms := float32(math.Sqrt(sum / float64(len(samples))))
	return min(rms*3, 1)
}

// levelColor: зелёный для обычной речи, жёлтый для громкой, красный у предела.
func levelColor(l float32, cfg Config) color.NRGBA {
	switch {
	case l > 0.7:
		return cfg.AlertColor
	case l > 0.4:
		return color.NRGBA{R: 255, G: 180, B: 0, A: 255}
	default:
		return cfg.WaveColor
	}
}

func drawVolumeBar(gtx layout.Context, l float32, cfg Config) layout.Dimensions {
	width := gtx.Constraints.Max.X
	height := gtx.Constraints.Max.Y

	rr := gtx.Dp(unit.Dp(4))
	paint.FillShape(gtx.Ops, color.NRGBA{R: 35, G: 35, B: 40, A: 255}, clip.RRect{
		Rect: image.Rectangle{Max: image.Pt(width, height)},
		NE:   rr, NW: rr, SE: rr, SW: rr,
	}.Op(gtx.Ops))

	if bar := int(l * float32(height)); bar > 0 {
		paint.FillShape(gtx.Ops, levelColor(l, cfg), clip.RRect{
			Rect: image.Rectangle{
				Min: image.Pt(2, height-bar),
				Max: image.Pt(width-2, height-2),
			},
			NE: rr - 1, NW: rr - 1, SE: rr - 1, SW: rr - 1,
		}.Op(gtx.Ops))
	}
	return layout.Dimensions{Size: image.Pt(width, height)}
}

func drawWaveform(gtx layout.Context, samples []float32, col color.NRGBA) layout.Dimensions {
	width := float32(gtx.Constraints.Max.X)
	height := float32(gtx.Constraints.Max.Y)
	size := image.Pt(int(width), int(height))
	centerY := height / 2

	paint.FillShape(gtx.Ops, color.NRGBA{R: 60, G: 60, B: 65, A: 255}, clip.Rect{
		Min: image.Pt(0, int(centerY)),
		Max: image.Pt(size.X, int(centerY)+1),
	}.Op())

	if len(samples) < 2 {
		return layout.Dimensions{Size: size}
	}
	if len(samples) > size.X {
		samples = samples[len(samples)-size.X:]
	}

	var path clip.Path
	path.Begin(gtx.Ops)
	step := width / float32(len(samples))
	for i, s := range samples {
		pt := f32.Pt(float32(i)*step, centerY-s*centerY*0.85)
		if i == 0 {
			path.MoveTo(pt)
		} else {
			path.LineTo(pt)
		}
	}
	paint.FillShape(gtx.Ops, col, clip.Stroke{Path: path.End(), Width: 2}.Op())

	return layout.Dimensions{Size: size}
}

// drawProcessing показывается после остановки, пока идёт склейка файлов.
func drawProcessing(gtx layout.Context, elapsed time.Duration, cfg Config) {
	drawBackground(gtx, cfg.BGColor)

	layout.Center.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return drawSpinner(gtx, elapsed, cfg.AccentColor)
			}),
			layout.Rigid(layout.Spacer{Width: unit.Dp(16)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						return label(gtx, i18n.T("tray_processing"), 15, cfg.TextColor, font.Medium)
					}),
					layout.Rigid(layout.Spacer{Height: unit.Dp(2)}.Layout),
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						return label(gtx, i18n.T("preview_processing_hint"), 11, cfg.TextDimColor, font.Normal)
					}),
				)
			}),
		)
	})
}

func drawSpinner(gtx layout.Context, elapsed time.Duration, col color.NRGBA) layout.Dimensions {
	size := gtx.Dp(unit.Dp(36))
	thickness := gtx.Dp(unit.Dp(3))

	rotation := float64(elapsed.Milliseconds()) / 800.0 * 2 * math.Pi
	center := image.Pt(size/2, size/2)
	radius := size/2 - thickness
	dot := thickness / 2

	const dots = 12
	for i := range dots {
		angle := rotation + float64(i)*2*math.Pi/dots
		x := center.X + int(float64(radius)*math.Cos(angle))
		y := center.Y + int(float64(radius)*math.Sin(angle))

		c := col
		c.A = uint8(max(255-i*20, 40))
		paint.FillShape(gtx.Ops, c, clip.Ellipse{
			Min: image.Pt(x-dot, y-dot),
			Max: image.Pt(x+dot, y+dot),
		}.Op(gtx.Ops))
	}
	return layout.Dimensions{Size: image.Pt(size, size)}
}

func drawActionButton(gtx layout.Context, btn *widget.Clickable, bg color.NRGBA, text string) layout.Dimensions {
	return btn.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		if btn.Hovered() {
			bg = color.NRGBA{
				R: uint8(float32(bg.R) * 0.85),
				G: uint8(float32(bg.G) * 0.85),
				B: uint8(float32(bg.B) * 0.85),
				A: bg.A,
			}
		}

		macro := op.Record(gtx.Ops)
		dims := layout.UniformInset(unit.Dp(10)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			return layout.Center.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				return label(gtx, text, 14, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, font.Medium)
			})
		})
		call := macro.Stop()

		size := image.Pt(gtx.Constraints.Max.X, dims.Size.Y)
		rr := gtx.Dp(unit.Dp(8))
		paint.FillShape(gtx.Ops, bg, clip.RRect{
			Rect: image.Rectangle{Max: size},
			NE:   rr, NW: rr, SE: rr, SW: rr,
		}.Op(gtx.Ops))

		call.Add(gtx.Ops)
		return layout.Dimensions{Size: size}
	})
}
