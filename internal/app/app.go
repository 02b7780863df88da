// Package app связывает конфигурацию, модели, распознавание и вывод
// в сценарии командной строки.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/labstack/gommon/log"

	"hush/internal/asr"
	"hush/internal/capture"
	"hush/internal/censor"
	"hush/internal/config"
	"hush/internal/detect"
	"hush/internal/history"
	"hush/internal/hotkey"
	"hush/internal/i18n"
	"hush/internal/lexicon"
	"hush/internal/live"
	"hush/internal/mask"
	"hush/internal/media"
	"hush/internal/models"
	"hush/internal/notify"
	"hush/internal/overlay"
	"hush/internal/preview"
	"hush/internal/session"
	"hush/internal/speech"
	"hush/internal/tray"
	"hush/internal/vad/silero"
)

// App представляет приложение.
type App struct {
	mu            sync.Mutex
	config        *config.Config
	modelManager  *models.Manager
	speechFactory *asr.Factory
	ffmpeg        *media.FFmpeg
	notifier      *notify.Notifier
	history       *history.Store
}

// New создаёт приложение по конфигурации.
func New(cfg *config.Config) (*App, error) {
	s := cfg.Settings()

	// Инициализируем язык интерфейса из конфига
	if uiLang := cfg.UILanguage(); uiLang != "" {
		i18n.SetLanguage(i18n.Language(uiLang))
	}

	modelManager, err := models.NewManager(s.ModelsDir)
	if err != nil {
		return nil, err
	}

	a := &App{
		config:       cfg,
		modelManager: modelManager,
		speechFactory: asr.NewFactory(modelManager, asr.Options{
			Device:      s.Device,
			ComputeType: s.ComputeType,
			VAD:         s.VAD,
		}),
		ffmpeg:   media.New(s.FFmpeg),
		notifier: notify.New(s.Notifications),
	}

	path := s.HistoryPath
	if path == "" {
		path = history.DefaultPath()
	}
	// Без истории приложение работает, просто не ведёт журнал.
	if store, err := history.Open(path); err != nil {
		log.Warnf("История недоступна: %v", err)
	} else {
		a.history = store
	}

	return a, nil
}

// Config возвращает конфигурацию.
func (a *App) Config() *config.Config {
	return a.config
}

// Models возвращает менеджер моделей.
func (a *App) Models() *models.Manager {
	return a.modelManager
}

// History возвращает журнал прогонов (может быть nil).
func (a *App) History() *history.Store {
	return a.history
}

// loadRecognizer загружает модель распознавания из настроек.
func (a *App) loadRecognizer() (speech.Recognizer, models.ModelInfo, error) {
	s := a.config.Settings()
	info, err := models.Resolve(s.ModelID, s.Engine, s.ModelSize)
	if err != nil {
		return nil, info, err
	}
	if err := a.speechFactory.Load(info.ID); err != nil {
		return nil, info, err
	}
	return a.speechFactory.Current(), info, nil
}

// loadLexicon загружает словарь: файл заменяет встроенный список
// либо дополняет его при merge_lexicon.
func (a *App) loadLexicon() (*lexicon.Lexicon, error) {
	s := a.config.Settings()
	if s.LexiconPath == "" {
		return lexicon.New(lexicon.Default), nil
	}
	lex, err := lexicon.Load(s.LexiconPath)
	if err != nil {
		return nil, err
	}
	if s.MergeLexicon {
		lex = lexicon.New(lexicon.Default).With(lex.Words()...)
	}
	log.Infof("Словарь: %d слов", lex.Len())
	return lex, nil
}

// masker собирает маскировщик из настроек.
func (a *App) masker() *mask.Masker {
	s := a.config.Settings()
	tone := mask.Tone{
		Freq:      s.Mask.FreqHz,
		Duration:  time.Duration(s.Mask.DurationMs) * time.Millisecond,
		Amplitude: mask.DefaultTone.Amplitude,
	}
	return &mask.Masker{Source: mask.Resolve(s.Mask.File, tone), PaddingMs: s.PaddingMs}
}

// voiceDetector возвращает silero VAD, если он включён и модель скачана.
// faster-whisper фильтрует тишину сам.
func (a *App) voiceDetector(engine models.Engine) censor.VoiceDetector {
	s := a.config.Settings()
	if !s.VAD || engine == models.EngineFasterWhisper {
		return nil
	}
	info, _ := models.GetModel(models.VADModelID)
	if !a.modelManager.IsDownloaded(info) {
		log.Debugf("VAD модель не скачана (hush models download %s)", info.ID)
		return nil
	}
	d, err := silero.New(silero.DefaultConfig(a.modelManager.GetModelPath(info)))
	if err != nil {
		log.Warnf("VAD недоступен: %v", err)
		return nil
	}
	return d
}

// prepare проверяет ffmpeg и загружает модель со словарём.
func (a *App) prepare() (speech.Recognizer, models.ModelInfo, *detect.Detector, error) {
	if err := a.ffmpeg.Check(); err != nil {
		return nil, models.ModelInfo{}, nil, err
	}
	lex, err := a.loadLexicon()
	if err != nil {
		return nil, models.ModelInfo{}, nil, err
	}
	rec, info, err := a.loadRecognizer()
	if err != nil {
		return nil, info, nil, err
	}
	return rec, info, detect.New(lex), nil
}

// FileOptions параметры обработки файла.
type FileOptions struct {
	OutputDir string
	ListOnly  bool
	Flag      bool // отметить кадры видео значком MUTED
}

// File обрабатывает аудио или видео файл.
func (a *App) File(ctx context.Context, input string, opts FileOptions) (censor.Result, error) {
	if _, err := censor.Check(input); err != nil {
		return censor.Result{}, err
	}
	rec, info, det, err := a.prepare()
	if err != nil {
		return censor.Result{}, err
	}

	p := &censor.Pipeline{
		Media:      a.ffmpeg,
		Recognizer: rec,
		Detector:   det,
		Masker:     a.masker(),
		VAD:        a.voiceDetector(info.Engine),
		Flagger:    a.ffmpeg,
	}

	run := history.Run{
		ID:        history.NewRunID(),
		Mode:      history.ModeFile,
		Input:     input,
		Engine:    string(info.Engine),
		Model:     info.ID,
		StartedAt: time.Now(),
	}

	res, err := p.Process(ctx, input, censor.Options{
		OutputDir: opts.OutputDir,
		Language:  a.config.Language(),
		ListOnly:  opts.ListOnly,
		Flag:      opts.Flag,
	})
	if opts.ListOnly && err == nil {
		return res, nil
	}

	run.Output = res.Output
	run.FinishedAt = time.Now()
	run.Status = history.StatusOK
	if err != nil {
		run.Status = history.StatusFailed
		a.notifier.Error(err.Error())
	} else {
		a.notifier.Done(len(res.Detections), res.Output)
	}
	a.record(run, res.Detections)
	return res, err
}

// RecordOptions параметры живой записи.
type RecordOptions struct {
	Duration time.Duration
	NoVideo   bool
	NoTray    bool
	NoPreview bool
}

// Record ведёт живую запись до остановки: Ctrl+C, лимит времени,
// горячая клавиша или пункт меню в трее.
func (a *App) Record(ctx context.Context, opts RecordOptions) (live.Result, error) {
	rec, info, det, err := a.prepare()
	if err != nil {
		return live.Result{}, err
	}

	mic, err := capture.New()
	if err != nil {
		return live.Result{}, fmt.Errorf("микрофон: %w", err)
	}
	defer mic.Close()

	s := a.config.Settings()
	cfg := live.Config{
		Dir:          s.RecordingsDir,
		ChunkSeconds: s.ChunkSeconds,
		Language:     s.Language,
		Duration:     opts.Duration,
		Marker:       overlay.DefaultMarker,
	}
	if s.Video.Enabled && !opts.NoVideo {
		cfg.Video = &live.Video{Device: s.Video.Device, Width: s.Video.Width, Height: s.Video.Height, FPS: s.Video.FPS}
	}

	sess := session.New()
	recorder := live.New(cfg, mic, live.FFmpeg(a.ffmpeg), rec, det, a.masker())
	if v := a.voiceDetector(info.Engine); v != nil {
		recorder.VAD = v
	}

	hk := hotkey.New(sess.Stop)
	if err := hk.Register(s.StopHotkey); err != nil {
		log.Warnf("Горячая клавиша %s недоступна: %v", s.StopHotkey, err)
	}
	defer hk.Unregister()

	run := history.Run{
		ID:        sess.ID,
		Mode:      history.ModeRecord,
		Engine:    string(info.Engine),
		Model:     info.ID,
		StartedAt: time.Now(),
	}

	if !opts.NoPreview {
		win := preview.New(recorder.Monitor(), preview.DefaultConfig(), sess.Stop)
		win.Show()
		defer win.Hide()
	}

	a.notifier.Recording(s.StopHotkey.String())
	log.Infof("Запись... остановка: Ctrl+C или %s", s.StopHotkey)

	var (
		res    live.Result
		runErr error
	)
	if opts.NoTray {
		res, runErr = recorder.Run(ctx, sess)
	} else {
		t := tray.New(tray.Callbacks{
			OnStop: sess.Stop,
			OnNotificationsToggle: func() bool {
				enabled := a.config.ToggleNotifications()
				a.notifier.SetEnabled(enabled)
				return enabled
			},
		}, s.Notifications)
		recorder.OnChunk = t.SetDetections
		go func() {
			<-sess.Done()
			t.SetState(tray.StateProcessing)
		}()
		finished := make(chan struct{})
		t.Run(func() {
			go func() {
				defer close(finished)
				res, runErr = recorder.Run(ctx, sess)
				t.Quit()
			}()
		})
		<-finished
	}

	run.Input = res.Files.RawVideo
	if run.Input == "" {
		run.Input = res.Files.RawAudio
	}
	run.Output = res.Output
	run.FinishedAt = time.Now()
	switch {
	case runErr != nil:
		run.Status = history.StatusFailed
		a.notifier.Error(runErr.Error())
	case res.Fallback:
		run.Status = history.StatusFallback
		a.notifier.Fallback(res.Output)
	default:
		run.Status = history.StatusOK
		a.notifier.Done(len(res.Detections), res.Output)
	}
	if !errors.Is(runErr, live.ErrNoAudio) {
		a.record(run, res.Detections)
	}
	return res, runErr
}

// DownloadModel скачивает модель, сообщая прогресс в onProgress.
func (a *App) DownloadModel(ctx context.Context, id string, onProgress func(models.Progress)) error {
	info, ok := models.GetModel(id)
	if !ok {
		return fmt.Errorf("модель не найдена: %s", id)
	}

	progress := make(chan models.Progress, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			if onProgress != nil {
				onProgress(p)
			}
		}
	}()
	err := a.modelManager.Download(ctx, info, progress)
	close(progress)
	<-done
	return err
}

// UseModel делает модель моделью по умолчанию.
func (a *App) UseModel(id string) error {
	info, ok := models.GetModel(id)
	if !ok || info.Engine == models.EngineVAD {
		return fmt.Errorf("модель распознавания не найдена: %s", id)
	}
	a.config.SetModelID(id)
	return nil
}

func (a *App) record(run history.Run, dets []detect.Detection) {
	if a.history == nil {
		return
	}
	if err := a.history.Record(run, dets); err != nil {
		log.Warnf("Не удалось записать историю: %v", err)
	}
}

// Close освобождает ресурсы приложения.
func (a *App) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.speechFactory != nil {
		a.speechFactory.Close()
	}
	if a.history != nil {
		a.history.Close()
		a.history = nil
	}
}
