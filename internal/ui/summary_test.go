package ui

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hush/internal/detect"
	"hush/internal/history"
	"hush/internal/i18n"
)

func TestTimestamp(t *testing.T) {
	cases := map[float64]string{
		0:      "00:00.00",
		4.9:    "00:04.90",
		65.255: "01:05.26",
		-1:     "00:00.00",
	}
	for in, want := range cases {
		if got := Timestamp(in); got != want {
			t.Errorf("Timestamp(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestDetectionsLimit(t *testing.T) {
	defer i18n.SetLanguage(i18n.GetLanguage())
	i18n.SetLanguage(i18n.EN)

	var dets []detect.Detection
	for i := range 7 {
		dets = append(dets, detect.Detection{Word: "w" + string(rune('a'+i)), Start: float64(i), End: float64(i) + 0.5})
	}

	var buf bytes.Buffer
	Detections(&buf, dets, LiveLimit)
	out := buf.String()

	if !strings.Contains(out, "Profanities found: 7") {
		t.Errorf("missing header:\n%s", out)
	}
	if !strings.Contains(out, "we") || strings.Contains(out, "wf") {
		t.Errorf("want first 5 words only:\n%s", out)
	}
	if !strings.Contains(out, "... and 2 more") {
		t.Errorf("missing remainder line:\n%s", out)
	}
}

func TestDetectionsEmpty(t *testing.T) {
	defer i18n.SetLanguage(i18n.GetLanguage())
	i18n.SetLanguage(i18n.EN)

	var buf bytes.Buffer
	Detections(&buf, nil, 0)
	if !strings.Contains(buf.String(), "No profanity found") {
		t.Errorf("got %q", buf.String())
	}
}

func TestFileShowsSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clean_a.wav")
	if err := os.WriteFile(path, make([]byte, 2048), 0o644); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	File(&buf, "Output", path)
	if !strings.Contains(buf.String(), "2.0 kB") {
		t.Errorf("got %q, want size 2.0 kB", buf.String())
	}
}

func TestRuns(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	runs := []history.Run{{
		ID: "r1", Mode: history.ModeFile, Input: "talk.mp3", Output: "clean_talk.mp3",
		StartedAt: now.Add(-2 * time.Hour), Detections: 3, Status: history.StatusOK,
	}}
	var buf bytes.Buffer
	Runs(&buf, runs, now)
	out := buf.String()
	for _, want := range []string{"talk.mp3", "clean_talk.mp3", "2 hours"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
