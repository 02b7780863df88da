// Hush - автоматическая цензура нецензурной речи в аудио и видео.
//
// Распознаёт речь с временными метками слов, ищет слова из словаря и
// накрывает их тоном. В режиме записи пишет микрофон и камеру, отмечая
// кадры со "запиканными" словами.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/labstack/gommon/log"

	"hush/internal/app"
	"hush/internal/censor"
	"hush/internal/config"
	"hush/internal/dialog"
	"hush/internal/hotkey"
	"hush/internal/i18n"
	"hush/internal/media"
	"hush/internal/models"
	"hush/internal/ui"
)

// Version устанавливается при сборке через -ldflags.
var Version = "dev"

const usage = `hush %s

Использование:
  hush file [флаги] <файл>        замаскировать аудио или видео
  hush record [флаги]             живая запись с микрофона и камеры
  hush history [-n 10] [-show ID] [-delete ID]
  hush models list|download ID|use ID|delete ID
  hush hotkey [-set ctrl+shift+q]  клавиша остановки записи

hush <команда> -h - флаги команды.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, Version)
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "file":
		err = runFile(args)
	case "record":
		// Горячие клавиши и трей требуют главного потока (macOS).
		hotkey.RunOnMainThread(func() { err = runRecord(args) })
	case "history":
		err = runHistory(args)
	case "models":
		err = runModels(args)
	case "hotkey":
		err = runHotkey(args)
	case "version":
		fmt.Println(Version)
	case "-h", "--help", "help":
		fmt.Fprintf(os.Stdout, usage, Version)
	default:
		err = errUsage("неизвестная команда: " + cmd)
	}
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ue usageError
	if errors.As(err, &ue) {
		fmt.Fprintln(os.Stderr, ue.Error())
		fmt.Fprintf(os.Stderr, usage, Version)
		return 2
	}
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	ui.Error(os.Stderr, err)
	if errors.Is(err, media.ErrFFmpegNotFound) {
		fmt.Fprintln(os.Stderr, "Установите ffmpeg или укажите путь: -ffmpeg /path/to/ffmpeg")
	}
	var exitErr *media.ExitError
	if errors.As(err, &exitErr) {
		log.Debugf("ffmpeg %s: %s", exitErr.Op, exitErr.Stderr)
	}
	return 1
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runFile(args []string) error {
	fs := flag.NewFlagSet("file", flag.ContinueOnError)
	c := addCommon(fs)
	outDir := fs.String("o", "", "Каталог результата (по умолчанию <имя>_censored рядом с файлом)")
	listOnly := fs.Bool("list-only", false, "Только вывести найденные слова")
	pick := fs.Bool("pick", false, "Выбрать файл в диалоге")
	flagFrames := fs.Bool("flag", false, "Отметить кадры видео значком MUTED")
	if err := parse(fs, args); err != nil {
		return err
	}

	cfg, err := c.load(fs)
	if err != nil {
		return err
	}

	input := fs.Arg(0)
	if input == "" && *pick {
		input, err = dialog.PickMedia(censor.AudioExts, censor.VideoExts)
		if err != nil {
			return errUsage("файл не выбран")
		}
	}
	if input == "" {
		return errUsage("не указан входной файл")
	}

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	res, err := a.File(ctx, input, app.FileOptions{
		OutputDir: *outDir,
		ListOnly:  *listOnly,
		Flag:      *flagFrames,
	})
	if err != nil {
		if *pick {
			dialog.ShowError("Hush", err.Error())
		}
		return err
	}

	ui.Detections(os.Stdout, res.Detections, 0)
	if !*listOnly {
		ui.Rule(os.Stdout)
		ui.File(os.Stdout, i18n.T("ui_output"), res.Output)
		ui.File(os.Stdout, i18n.T("ui_log"), res.LogPath)
	}
	log.Debugf("Готово за %s", time.Since(start).Round(time.Millisecond))
	return nil
}

func runRecord(args []string) error {
	fs := flag.NewFlagSet("record", flag.ContinueOnError)
	c := addCommon(fs)
	duration := fs.Duration("duration", 0, "Ограничение длительности записи (0 - без ограничения)")
	chunk := fs.Float64("chunk", 0, "Длина чанка распознавания, сек")
	camera := fs.String("camera", "", "Устройство камеры")
	noVideo := fs.Bool("no-video", false, "Только звук")
	noTray := fs.Bool("no-tray", false, "Без значка в трее")
	noPreview := fs.Bool("no-preview", false, "Без окна предпросмотра")
	dir := fs.String("dir", "", "Каталог записей")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *chunk < 0 {
		return errUsage("-chunk должен быть положительным")
	}

	cfg, err := c.load(fs)
	if err != nil {
		return err
	}
	cfg.Override(func(s *config.Settings) {
		if *chunk > 0 {
			s.ChunkSeconds = *chunk
		}
		if *camera != "" {
			s.Video.Device = *camera
		}
		if *dir != "" {
			s.RecordingsDir = *dir
		}
	})

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	res, err := a.Record(ctx, app.RecordOptions{
		Duration:  *duration,
		NoVideo:   *noVideo,
		NoTray:    *noTray || headless(),
		NoPreview: *noPreview || headless(),
	})
	if err != nil {
		return err
	}

	ui.Detections(os.Stdout, res.Detections, ui.LiveLimit)
	ui.Rule(os.Stdout)
	ui.File(os.Stdout, i18n.T("ui_output"), res.Output)
	ui.File(os.Stdout, i18n.T("ui_log"), res.Files.Log)
	if res.Fallback {
		fmt.Fprintln(os.Stdout, ui.WarnStyle.Render(i18n.T("notify_fallback")))
	}
	return nil
}

// headless - нет графического окружения для трея и окна предпросмотра.
func headless() bool {
	return runtime.GOOS == "linux" && os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == ""
}

func runHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	configPath := fs.String("config", "", "Путь к config.json")
	n := fs.Int("n", 10, "Сколько прогонов показать")
	show := fs.String("show", "", "Показать найденные слова прогона")
	del := fs.String("delete", "", "Удалить прогон")
	if err := parse(fs, args); err != nil {
		return err
	}
	setupLogging(false)

	a, err := app.New(config.New(*configPath))
	if err != nil {
		return err
	}
	defer a.Close()

	store := a.History()
	if store == nil {
		return errors.New("история недоступна")
	}

	switch {
	case *del != "":
		return store.Delete(*del)
	case *show != "":
		dets, err := store.Detections(*show)
		if err != nil {
			return err
		}
		ui.Detections(os.Stdout, dets, 0)
		return nil
	}

	runs, err := store.Recent(*n)
	if err != nil {
		return err
	}
	ui.Runs(os.Stdout, runs, time.Now())
	return nil
}

func runModels(args []string) error {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	configPath := fs.String("config", "", "Путь к config.json")
	if err := parse(fs, args); err != nil {
		return err
	}
	setupLogging(false)

	cfg := config.New(*configPath)
	if err := cfg.LoadEnv(".env"); err != nil {
		return err
	}
	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	sub := fs.Arg(0)
	id := fs.Arg(1)
	switch sub {
	case "", "list":
		s := cfg.Settings()
		current, _ := models.Resolve(s.ModelID, s.Engine, s.ModelSize)
		for _, info := range models.Registry {
			ui.Model(os.Stdout, info, a.Models().IsDownloaded(info), info.ID == current.ID)
		}
		ui.Rule(os.Stdout)
		fmt.Fprintln(os.Stdout, i18n.Tf("ui_models_downloaded", len(a.Models().ListDownloaded())))
		return nil

	case "download":
		if id == "" {
			return errUsage("укажите ID модели")
		}
		ctx, cancel := signalContext()
		defer cancel()
		err := a.DownloadModel(ctx, id, func(p models.Progress) {
			if p.Total > 0 {
				fmt.Fprintf(os.Stderr, "\r%s: %s / %s", p.ModelID,
					humanize.Bytes(uint64(p.Downloaded)), humanize.Bytes(uint64(p.Total)))
			}
			if p.Done {
				fmt.Fprintln(os.Stderr)
			}
		})
		if errors.Is(err, models.ErrNotManaged) {
			log.Infof("%s скачивается движком при первом запуске", id)
			return nil
		}
		return err

	case "use":
		if id == "" {
			return errUsage("укажите ID модели")
		}
		return a.UseModel(id)

	case "delete":
		if id == "" {
			return errUsage("укажите ID модели")
		}
		info, ok := models.GetModel(id)
		if !ok {
			return fmt.Errorf("модель не найдена: %s", id)
		}
		return a.Models().Delete(info)
	}
	return errUsage("неизвестная подкоманда models: " + strings.TrimSpace(sub))
}

func runHotkey(args []string) error {
	fs := flag.NewFlagSet("hotkey", flag.ContinueOnError)
	configPath := fs.String("config", "", "Путь к config.json")
	set := fs.String("set", "", "Новая клавиша, например ctrl+shift+q (без флага - диалог)")
	if err := parse(fs, args); err != nil {
		return err
	}
	setupLogging(false)

	cfg := config.New(*configPath)
	i18n.SetLanguage(i18n.Language(cfg.UILanguage()))
	current := cfg.Settings().StopHotkey

	var (
		hk  config.HotkeyConfig
		err error
	)
	if *set != "" {
		hk, err = config.ParseHotkey(*set)
		if err != nil {
			return errUsage(err.Error())
		}
	} else {
		hk, err = dialog.SelectHotkey(current)
		if err != nil {
			return err
		}
	}

	if err := cfg.Update(func(s *config.Settings) { s.StopHotkey = hk }); err != nil {
		return fmt.Errorf("сохранение %s: %w", cfg.Path(), err)
	}
	msg := i18n.Tf("ui_hotkey_saved", hk)
	fmt.Fprintln(os.Stdout, msg)
	if *set == "" {
		dialog.ShowInfo("Hush", msg)
	}
	return nil
}
