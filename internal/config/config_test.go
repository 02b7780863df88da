package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsWhenFileMissing(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "config.json"))
	s := c.Settings()

	if s.PaddingMs != 100 {
		t.Errorf("PaddingMs = %d, want 100", s.PaddingMs)
	}
	if s.ChunkSeconds != 30 {
		t.Errorf("ChunkSeconds = %v, want 30", s.ChunkSeconds)
	}
	if s.StopHotkey.String() != "ctrl+shift+q" {
		t.Errorf("StopHotkey = %s, want ctrl+shift+q", s.StopHotkey)
	}
	if s.Language != "en" {
		t.Errorf("Language = %q, want en", s.Language)
	}
}

func TestUpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	c := New(path)
	if err := c.Update(func(s *Settings) {
		s.PaddingMs = 250
		s.Engine = "vosk"
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reloaded := New(path).Settings()
	if reloaded.PaddingMs != 250 || reloaded.Engine != "vosk" {
		t.Errorf("reloaded = %+v", reloaded)
	}
	if reloaded.ChunkSeconds != 30 {
		t.Errorf("ChunkSeconds = %v, want default 30", reloaded.ChunkSeconds)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"language": "ru"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	s := New(path).Settings()
	if s.Language != "ru" {
		t.Errorf("Language = %q, want ru", s.Language)
	}
	if s.Mask.FreqHz != 1000 || s.StopHotkey.Key != KeyQ {
		t.Errorf("defaults lost: %+v", s)
	}
}

func TestOverrideDoesNotPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	c := New(path)
	c.Override(func(s *Settings) { s.PaddingMs = 5 })

	if c.Settings().PaddingMs != 5 {
		t.Error("override not applied")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Override must not write the config file")
	}
}

func TestToggleNotifications(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "config.json"))
	if c.ToggleNotifications() {
		t.Error("first toggle should disable notifications")
	}
	if c.NotificationsEnabled() {
		t.Error("NotificationsEnabled = true after toggle")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"HUSH_ENGINE":        "faster-whisper",
		"HUSH_PADDING_MS":    "200",
		"HUSH_CHUNK_SECONDS": "10.5",
		"HUSH_STOP_HOTKEY":   "alt+F10",
	}
	s := Defaults()
	if err := applyEnv(&s, func(k string) string { return env[k] }); err != nil {
		t.Fatalf("applyEnv: %v", err)
	}
	if s.Engine != "faster-whisper" || s.PaddingMs != 200 || s.ChunkSeconds != 10.5 {
		t.Errorf("settings = %+v", s)
	}
	if s.StopHotkey.String() != "alt+f10" {
		t.Errorf("StopHotkey = %s, want alt+f10", s.StopHotkey)
	}
	if s.Language != "en" {
		t.Error("unset variables must keep their values")
	}
}

func TestApplyEnvInvalidPadding(t *testing.T) {
	s := Defaults()
	err := applyEnv(&s, func(k string) string {
		if k == "HUSH_PADDING_MS" {
			return "-1"
		}
		return ""
	})
	if err == nil {
		t.Error("negative padding accepted")
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("HUSH_DEVICE=cuda\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HUSH_DEVICE", "")
	os.Unsetenv("HUSH_DEVICE")

	c := New(filepath.Join(dir, "config.json"))
	if err := c.LoadEnv(envFile, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if c.Settings().Device != "cuda" {
		t.Errorf("Device = %q, want cuda", c.Settings().Device)
	}
}

func TestParseHotkey(t *testing.T) {
	hk, err := ParseHotkey("Ctrl + Shift + Q")
	if err != nil {
		t.Fatalf("ParseHotkey: %v", err)
	}
	if hk.String() != "ctrl+shift+q" {
		t.Errorf("got %s", hk)
	}

	for _, bad := range []string{"", "ctrl+", "hyper+q", "ctrl+banana"} {
		if _, err := ParseHotkey(bad); err == nil {
			t.Errorf("ParseHotkey(%q) succeeded, want error", bad)
		}
	}
}
