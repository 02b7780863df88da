// Package live ведёт живую запись с микрофона и камеры: распознаёт звук
// чанками в фоне, после остановки маскирует звук и отмечает кадры.
package live

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/labstack/gommon/log"

	"hush/internal/audio"
	"hush/internal/capture"
	"hush/internal/detect"
	"hush/internal/mask"
	"hush/internal/overlay"
	"hush/internal/report"
	"hush/internal/session"
	"hush/internal/speech"
	"hush/internal/vad"
)

// ErrNoAudio - запись остановлена до получения звука.
var ErrNoAudio = errors.New("запись пуста")

// Video параметры камеры.
type Video struct {
	Device string
	Width  int
	Height int
	FPS    float64
}

// Config параметры живой записи.
type Config struct {
	Dir          string
	ChunkSeconds float64
	Language     string
	Duration     time.Duration // 0 - без ограничения
	Video        *Video        // nil - только звук
	Marker       overlay.Marker
}

// Files - файлы одной записи.
type Files struct {
	RawAudio string
	RawVideo string // с камеры, без отметок
	Flagged  string // с отметками, со звуком не заменённым
	Final    string // с отметками и маскированным звуком
	Log      string
}

func newFiles(dir, ts string) Files {
	return Files{
		RawAudio: filepath.Join(dir, "raw_"+ts+".wav"),
		RawVideo: filepath.Join(dir, "raw_"+ts+".mp4"),
		Flagged:  filepath.Join(dir, "censored_"+ts+".mp4"),
		Final:    filepath.Join(dir, "final_"+ts+".mp4"),
		Log:      filepath.Join(dir, "censorship_log_"+ts+".json"),
	}
}

// audioOnly убирает видеофайлы: результатом становится WAV.
func (f Files) audioOnly() Files {
	f.RawVideo, f.Flagged = "", ""
	f.Final = strings.TrimSuffix(f.Final, ".mp4") + ".wav"
	return f
}

// Result итог живой записи.
type Result struct {
	SessionID  string
	Files      Files
	Output     string // Final или Flagged при неудачной сборке
	Fallback   bool
	RemuxErr   error
	Detections []detect.Detection
	Frames     overlay.Stats
	Duration   float64
}

// Recorder - оркестратор живой записи.
type Recorder struct {
	cfg        Config
	audio      AudioSource
	media      Media
	recognizer speech.Recognizer
	detector   *detect.Detector
	masker     *mask.Masker

	monitor *Monitor

	// VAD, если задан, отсеивает слова вне участков речи каждого чанка.
	VAD VoiceDetector

	// OnChunk вызывается после каждого распознанного чанка с общим числом найденных слов.
	OnChunk func(found int)

	now func() time.Time
}

// New создаёт оркестратор. media может быть nil, если cfg.Video == nil.
func New(cfg Config, src AudioSource, m Media, rec speech.Recognizer, det *detect.Detector, masker *mask.Masker) *Recorder {
	return &Recorder{
		cfg:        cfg,
		audio:      src,
		media:      m,
		recognizer: rec,
		detector:   det,
		masker:     masker,
		monitor:    newMonitor(src, cfg.Marker),
		now:        time.Now,
	}
}

// Monitor возвращает снимок состояния для окна предпросмотра.
func (r *Recorder) Monitor() *Monitor {
	return r.monitor
}

// Run записывает до остановки сессии (Stop, отмена ctx или лимит времени)
// и собирает результат. Файлы записи остаются на диске и при ошибке.
func (r *Recorder) Run(ctx context.Context, sess *session.Session) (Result, error) {
	res := Result{SessionID: sess.ID}
	if err := os.MkdirAll(r.cfg.Dir, 0o755); err != nil {
		sess.Stop()
		return res, fmt.Errorf("каталог записей: %w", err)
	}
	files := newFiles(r.cfg.Dir, r.now().Format("20060102_150405"))

	chunks, err := r.audio.Start(r.cfg.ChunkSeconds)
	if err != nil {
		sess.Stop()
		return res, fmt.Errorf("запуск записи: %w", err)
	}
	log.Infof("Сессия %s: запись в %s", sess.ID, r.cfg.Dir)
	r.monitor.start(r.now())

	go r.watch(ctx, sess)

	// Остаток записи обрабатывается и после отмены ctx.
	work := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.recognize(work, sess, queue(chunks))
	}()

	var (
		vwg      sync.WaitGroup
		recorded bool
	)
	if r.cfg.Video != nil {
		vwg.Add(1)
		go func() {
			defer vwg.Done()
			recorded = r.captureVideo(work, sess, files.RawVideo)
		}()
	}

	<-sess.Done()
	log.Info("Остановка записи...")
	r.monitor.setProcessing()
	samples := r.audio.Stop()
	vwg.Wait()
	wg.Wait()

	if !recorded {
		files = files.audioOnly()
	}
	res.Files = files
	res.Detections = detect.Sorted(sess.Detections())

	if len(samples) == 0 {
		return res, ErrNoAudio
	}
	raw := audio.FromFloat32(samples, capture.SampleRate)
	res.Duration = float64(raw.DurationMs()) / 1000
	if err := audio.WriteWAV(files.RawAudio, raw); err != nil {
		return res, err
	}

	masked, _, err := r.masker.Mask(raw, res.Detections)
	if err != nil {
		return res, fmt.Errorf("маскировка: %w", err)
	}

	original := files.RawAudio
	if recorded {
		original = files.RawVideo
		if err := r.finishVideo(work, &res, masked); err != nil {
			return res, err
		}
	} else {
		if err := audio.WriteWAV(files.Final, masked); err != nil {
			return res, err
		}
		res.Output = files.Final
	}

	if err := report.WriteFile(files.Log, report.New(original, res.Output, res.Detections)); err != nil {
		return res, err
	}
	log.Infof("Сессия %s завершена: %s", sess.ID, res.Output)
	return res, nil
}

// watch останавливает сессию по отмене ctx или по лимиту времени.
func (r *Recorder) watch(ctx context.Context, sess *session.Session) {
	var limit <-chan time.Time
	if r.cfg.Duration > 0 {
		t := time.NewTimer(r.cfg.Duration)
		defer t.Stop()
		limit = t.C
	}
	select {
	case <-ctx.Done():
		log.Info("Запись прервана")
	case <-limit:
		log.Infof("Достигнут лимит записи %s", r.cfg.Duration)
	case <-sess.Done():
		return
	}
	sess.Stop()
}

// recognize распознаёт чанки по порядку. Ошибка распознавания не прерывает
// запись: чанк считается пустым.
func (r *Recorder) recognize(ctx context.Context, sess *session.Session, chunks <-chan capture.Chunk) {
	for ch := range chunks {
		dur := ch.Duration(capture.SampleRate)
		offset := sess.Advance(dur)

		dets, err := r.gate(ch, dur).Detect(r.recognizer.Words(ctx, ch.Samples, r.cfg.Language))
		if err != nil {
			log.Errorf("Чанк %d: ошибка распознавания, пропускаю: %v", ch.Index, err)
			dets = nil
		}
		sess.AppendChunk(dets, offset)
		log.Infof("Чанк %d (%.1f-%.1fs): найдено %d", ch.Index, offset, offset+dur, len(dets))
		r.monitor.setFound(sess.Len())

		if r.OnChunk != nil {
			r.OnChunk(sess.Len())
		}
	}
}

// gate возвращает детектор с фильтром речи чанка. Без VAD или при его
// ошибке чанк распознаётся без фильтра.
func (r *Recorder) gate(ch capture.Chunk, dur float64) *detect.Detector {
	if r.VAD == nil {
		return r.detector
	}
	segs, err := r.VAD.Segments(ch.Samples)
	if err != nil {
		log.Warnf("Чанк %d: VAD недоступен, фильтр речи выключен: %v", ch.Index, err)
		return r.detector
	}
	segs = vad.Normalize(segs, dur, 0)
	log.Debugf("Чанк %d: VAD %d участков речи, %.1fs", ch.Index, len(segs), segs.Total())
	return r.detector.WithGate(segs)
}

// queue развязывает захват и распознавание: чанки копятся, пока
// распознаватель занят, и отдаются по порядку.
func queue(in <-chan capture.Chunk) <-chan capture.Chunk {
	out := make(chan capture.Chunk)
	go func() {
		defer close(out)
		var pending []capture.Chunk
		for in != nil || len(pending) > 0 {
			var (
				send chan capture.Chunk
				next capture.Chunk
			)
			if len(pending) > 0 {
				send = out
				next = pending[0]
			}
			select {
			case ch, ok := <-in:
				if !ok {
					in = nil
					continue
				}
				pending = append(pending, ch)
			case send <- next:
				pending = pending[1:]
			}
		}
	}()
	return out
}

// captureVideo пишет кадры с камеры, пока сессия активна.
// Возвращает true, если записан хотя бы один кадр.
func (r *Recorder) captureVideo(ctx context.Context, sess *session.Session, out string) bool {
	v := r.cfg.Video
	src, err := r.media.OpenCamera(ctx, v.Device, v.Width, v.Height, v.FPS)
	if err != nil {
		log.Warnf("Камера недоступна, пишу только звук: %v", err)
		return false
	}
	defer func() {
		if err := src.Close(); err != nil {
			log.Debugf("Камера: %v", err)
		}
	}()

	sink, err := r.media.CreateVideo(ctx, out, v.Width, v.Height, v.FPS)
	if err != nil {
		log.Warnf("Не удалось начать запись видео: %v", err)
		return false
	}

	img := image.NewRGBA(image.Rect(0, 0, v.Width, v.Height))
	var st overlay.Stats
	flagged := false
	for sess.Active() {
		if err := src.ReadFrame(img); err != nil {
			if !errors.Is(err, io.EOF) {
				log.Warnf("Камера: кадр %d: %v", st.Frames, err)
			}
			break
		}
		// Отметки во время записи запаздывают на чанк и видны только
		// в предпросмотре; итоговое видео размечается заново после остановки.
		if now := sess.IsFlagged(overlay.FrameTime(st.Frames, v.FPS)); now != flagged {
			flagged = now
			log.Debugf("Отметка на кадре %d: %v", st.Frames, now)
		}
		if flagged {
			st.Flagged++
		}
		r.monitor.setFrame(img, flagged)
		if err := sink.WriteFrame(img); err != nil {
			log.Warnf("Запись кадра %d: %v", st.Frames, err)
			break
		}
		st.Frames++
	}

	if err := sink.Close(); err != nil {
		log.Errorf("Не удалось завершить %s: %v", out, err)
		return false
	}
	log.Infof("Видео: %d кадров", st.Frames)
	return st.Frames > 0
}

// finishVideo размечает кадры и подставляет маскированный звук.
// При ошибке сборки результатом остаётся видео с отметками.
func (r *Recorder) finishVideo(ctx context.Context, res *Result, masked *audio.PCM) error {
	files := res.Files

	st, err := r.flag(ctx, files.RawVideo, files.Flagged, res.Detections)
	if err != nil {
		return fmt.Errorf("разметка видео: %w", err)
	}
	res.Frames = st
	log.Infof("Отмечено кадров: %d из %d", st.Flagged, st.Frames)

	tmp, err := os.MkdirTemp("", "hush-live-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	maskedWAV := filepath.Join(tmp, "masked.wav")
	if err := audio.WriteWAV(maskedWAV, masked); err != nil {
		return err
	}

	if err := r.media.Remux(ctx, files.Flagged, maskedWAV, files.Final); err != nil {
		log.Errorf("Не удалось собрать итоговое видео, оставляю видео с отметками: %v", err)
		res.Output = files.Flagged
		res.Fallback = true
		res.RemuxErr = err
		return nil
	}
	res.Output = files.Final
	return nil
}

// flag перекодирует записанное видео, отмечая кадры по полной последовательности.
func (r *Recorder) flag(ctx context.Context, in, out string, dets []detect.Detection) (overlay.Stats, error) {
	v := r.cfg.Video
	src, err := r.media.OpenFrames(ctx, in, v.Width, v.Height)
	if err != nil {
		return overlay.Stats{}, err
	}
	sink, err := r.media.CreateVideo(ctx, out, v.Width, v.Height, v.FPS)
	if err != nil {
		src.Close()
		return overlay.Stats{}, err
	}

	st, err := overlay.Render(src, sink, v.Width, v.Height, v.FPS, dets, r.cfg.Marker)
	return st, errors.Join(err, src.Close(), sink.Close())
}
