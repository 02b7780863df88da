// Package lexicon хранит словарь нецензурных слов и проверяет принадлежность к нему.
package lexicon

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Default - встроенный список, используется если файл словаря не найден.
var Default = []string{
	// Сильная лексика
	"fuck", "shit", "bitch", "ass", "damn", "hell", "crap",
	"piss", "dick", "cock", "pussy", "bastard", "motherfucker",
	"fucker", "fucking", "shitty", "bullshit", "asshole",
	"goddamn", "goddam", "damnit", "dammit", "pissed",

	// Оскорбления
	"nigger", "nigga", "faggot", "retard", "retarded",

	// Умеренные
	"cunt", "wanker", "bollocks", "tosser", "prick",
	"slut", "whore", "ho", "skank", "douche", "douchebag",

	// Мягкие
	"frick", "freaking", "darn", "heck",

	// Варианты написания
	"fk", "sh1t", "b1tch", "azz", "dam", "pusy",
	"biatch", "fu ck", "f uck", "fuc k",
}

// Lexicon - неизменяемое множество нормализованных слов.
type Lexicon struct {
	words map[string]struct{}
}

// New создаёт словарь из списка слов. Пустые строки пропускаются.
func New(words []string) *Lexicon {
	l := &Lexicon{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		l.words[w] = struct{}{}
	}
	return l
}

// Load загружает словарь из файла (одно слово на строку).
// Если файла нет - возвращает встроенный список. Битые строки пропускаются.
func Load(path string) (*Lexicon, error) {
	if path == "" {
		return New(Default), nil
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(Default), nil
	}
	if err != nil {
		return nil, fmt.Errorf("открытие словаря: %w", err)
	}
	defer f.Close()

	words, err := readLines(f)
	if err != nil {
		return nil, fmt.Errorf("чтение словаря %s: %w", path, err)
	}
	return New(words), nil
}

// maxLine - строки длиннее считаются битыми и пропускаются.
const maxLine = 64 << 10

func readLines(r io.Reader) ([]string, error) {
	var words []string
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		if len(line) <= maxLine && utf8.ValidString(line) {
			if w := strings.TrimSpace(line); w != "" {
				words = append(words, w)
			}
		}
		if err != nil {
			return words, nil
		}
	}
}

// With возвращает новый словарь, объединённый с дополнительными словами.
func (l *Lexicon) With(words ...string) *Lexicon {
	merged := make([]string, 0, len(l.words)+len(words))
	for w := range l.words {
		merged = append(merged, w)
	}
	return New(append(merged, words...))
}

// Contains проверяет слово в двух формах: как есть в нижнем регистре
// и без не-буквенно-цифровых символов.
func (l *Lexicon) Contains(word string) bool {
	raw, stripped := Normalize(word)
	if raw == "" {
		return false
	}
	if _, ok := l.words[raw]; ok {
		return true
	}
	if stripped == "" {
		return false
	}
	_, ok := l.words[stripped]
	return ok
}

// Normalize возвращает обе формы слова, используемые при сравнении.
func Normalize(word string) (raw, stripped string) {
	raw = strings.ToLower(strings.TrimSpace(word))
	stripped = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)
	return raw, stripped
}

// Len возвращает количество слов.
func (l *Lexicon) Len() int {
	return len(l.words)
}

// Words возвращает отсортированный список слов.
func (l *Lexicon) Words() []string {
	out := make([]string, 0, len(l.words))
	for w := range l.words {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}
