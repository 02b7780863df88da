package main

import (
	"errors"
	"flag"
	"slices"

	"github.com/labstack/gommon/log"

	"hush/internal/config"
	"hush/internal/models"
)

// common - флаги, общие для file и record. Заданные явно перекрывают
// config.json и переменные HUSH_*.
type common struct {
	configPath   string
	verbose      bool
	engine       string
	size         string
	modelID      string
	device       string
	computeType  string
	language     string
	padding      int
	lexicon      string
	mergeLexicon bool
	maskFile     string
	maskFreq     float64
	maskMs       int
	vad          bool
	ffmpeg       string
	modelsDir    string
	notify       bool
}

func addCommon(fs *flag.FlagSet) *common {
	d := config.Defaults()
	c := &common{}
	fs.StringVar(&c.configPath, "config", "", "Путь к config.json (по умолчанию рядом с бинарником)")
	fs.BoolVar(&c.verbose, "v", false, "Подробный лог")
	fs.StringVar(&c.engine, "engine", d.Engine, "Движок: whisper|vosk|faster-whisper")
	fs.StringVar(&c.size, "m", d.ModelSize, "Размер модели: tiny|base|small|medium|large")
	fs.StringVar(&c.modelID, "model", "", "ID модели из реестра (перекрывает -engine и -m)")
	fs.StringVar(&c.device, "d", d.Device, "Устройство faster-whisper: auto|cpu|cuda")
	fs.StringVar(&c.computeType, "compute-type", "", "Тип вычислений faster-whisper: int8|float16|...")
	fs.StringVar(&c.language, "l", d.Language, "Язык распознавания")
	fs.IntVar(&c.padding, "p", d.PaddingMs, "Отступ вокруг слова, мс")
	fs.StringVar(&c.lexicon, "profanity-file", "", "Файл словаря (слово на строку)")
	fs.BoolVar(&c.mergeLexicon, "merge-lexicon", false, "Дополнять встроенный словарь, а не заменять")
	fs.StringVar(&c.maskFile, "mask-file", "", "WAV для маскировки вместо тона")
	fs.Float64Var(&c.maskFreq, "mask-freq", d.Mask.FreqHz, "Частота тона, Гц")
	fs.IntVar(&c.maskMs, "mask-ms", d.Mask.DurationMs, "Длина тона, мс")
	fs.BoolVar(&c.vad, "vad", d.VAD, "Отсеивать слова вне участков речи")
	fs.StringVar(&c.ffmpeg, "ffmpeg", "", "Путь к ffmpeg")
	fs.StringVar(&c.modelsDir, "models-dir", "", "Каталог моделей")
	fs.BoolVar(&c.notify, "notify", d.Notifications, "Системные уведомления")
	return c
}

// load читает конфигурацию, .env и применяет явно заданные флаги.
func (c *common) load(fs *flag.FlagSet) (*config.Config, error) {
	setupLogging(c.verbose)

	cfg := config.New(c.configPath)
	if err := cfg.LoadEnv(".env"); err != nil {
		return nil, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg.Override(func(s *config.Settings) {
		if set["engine"] {
			s.Engine = c.engine
			s.ModelID = ""
		}
		if set["m"] {
			s.ModelSize = c.size
			s.ModelID = ""
		}
		if set["model"] {
			s.ModelID = c.modelID
		}
		if set["d"] {
			s.Device = c.device
		}
		if set["compute-type"] {
			s.ComputeType = c.computeType
		}
		if set["l"] {
			s.Language = c.language
		}
		if set["p"] {
			s.PaddingMs = c.padding
		}
		if set["profanity-file"] {
			s.LexiconPath = c.lexicon
		}
		if set["merge-lexicon"] {
			s.MergeLexicon = c.mergeLexicon
		}
		if set["mask-file"] {
			s.Mask.File = c.maskFile
		}
		if set["mask-freq"] {
			s.Mask.FreqHz = c.maskFreq
		}
		if set["mask-ms"] {
			s.Mask.DurationMs = c.maskMs
		}
		if set["vad"] {
			s.VAD = c.vad
		}
		if set["ffmpeg"] {
			s.FFmpeg = c.ffmpeg
		}
		if set["models-dir"] {
			s.ModelsDir = c.modelsDir
		}
		if set["notify"] {
			s.Notifications = c.notify
		}
	})

	s := cfg.Settings()
	if s.PaddingMs < 0 {
		return nil, errUsage("-p должен быть неотрицательным")
	}
	if !slices.Contains(models.AllEngines(), models.Engine(s.Engine)) {
		return nil, errUsage("неизвестный движок: " + s.Engine)
	}
	log.Debugf("Конфигурация: %s", cfg.Path())
	return cfg, nil
}

func setupLogging(verbose bool) {
	log.SetHeader("${time_rfc3339} ${level}")
	if verbose {
		log.SetLevel(log.DEBUG)
	} else {
		log.SetLevel(log.INFO)
	}
}

// usageError - ошибка аргументов командной строки (код выхода 2).
type usageError string

func errUsage(msg string) error { return usageError(msg) }

func (e usageError) Error() string { return string(e) }

// parse разбирает флаги; ошибка разбора считается ошибкой использования.
func parse(fs *flag.FlagSet, args []string) error {
	err := fs.Parse(args)
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return err
	}
	return errUsage(err.Error())
}
