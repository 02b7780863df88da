// Package report пишет журнал найденных слов рядом с результатом.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"hush/internal/detect"
)

// Filename имя журнала в директории результата.
const Filename = "censorship_log.json"

// Log - журнал одного прогона. Порядок полей задаёт порядок ключей в JSON.
type Log struct {
	OriginalFile     string             `json:"original_file"`
	OutputFile       string             `json:"output_file"`
	ProfanitiesFound int                `json:"profanities_found"`
	Segments         []detect.Detection `json:"profanity_segments"`
}

// New собирает журнал; интервалы сортируются по началу.
func New(original, output string, dets []detect.Detection) Log {
	sorted := detect.Sorted(dets)
	if sorted == nil {
		sorted = []detect.Detection{}
	}
	return Log{
		OriginalFile:     original,
		OutputFile:       output,
		ProfanitiesFound: len(sorted),
		Segments:         sorted,
	}
}

// Write сохраняет журнал в dir под стандартным именем и возвращает путь к файлу.
func Write(dir string, l Log) (string, error) {
	path := filepath.Join(dir, Filename)
	if err := WriteFile(path, l); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFile сохраняет журнал по указанному пути.
func WriteFile(path string, l Log) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("запись журнала: %w", err)
	}
	return nil
}

// Read загружает журнал.
func Read(path string) (Log, error) {
	var l Log
	data, err := os.ReadFile(path)
	if err != nil {
		return l, err
	}
	if err := json.Unmarshal(data, &l); err != nil {
		return l, fmt.Errorf("разбор журнала %s: %w", path, err)
	}
	return l, nil
}
