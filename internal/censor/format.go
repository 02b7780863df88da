package censor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var (
	// ErrInputNotFound - входного файла нет.
	ErrInputNotFound = errors.New("входной файл не найден")
	// ErrUnsupportedFormat - расширение не поддерживается.
	ErrUnsupportedFormat = errors.New("неподдерживаемый формат")
)

// Kind - тип входного файла.
type Kind int

const (
	KindAudio Kind = iota
	KindVideo
)

func (k Kind) String() string {
	if k == KindVideo {
		return "video"
	}
	return "audio"
}

// Поддерживаемые расширения.
var (
	AudioExts = []string{".mp3", ".wav", ".flac", ".m4a", ".aac", ".ogg"}
	VideoExts = []string{".mp4", ".mkv", ".avi", ".mov", ".wmv", ".flv", ".webm"}
)

// Classify определяет тип файла по расширению (без учёта регистра).
func Classify(path string) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case slices.Contains(AudioExts, ext):
		return KindAudio, nil
	case slices.Contains(VideoExts, ext):
		return KindVideo, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// Check проверяет, что файл существует и его формат поддерживается.
func Check(path string) (Kind, error) {
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		return 0, fmt.Errorf("%w: %s", ErrInputNotFound, path)
	}
	return Classify(path)
}

// OutputDir возвращает каталог результата по умолчанию: <stem>_censored рядом с входом.
func OutputDir(input string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(input), stem+"_censored")
}

// OutputPath возвращает путь результата: <dir>/clean_<name>.
func OutputPath(dir, input string) string {
	return filepath.Join(dir, "clean_"+filepath.Base(input))
}
