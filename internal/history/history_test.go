package history

import (
	"path/filepath"
	"testing"
	"time"

	"hush/internal/detect"
)

// createTestStore открывает базу во временной директории.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "hush.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := createTestStore(t)
	base := time.Unix(1700000000, 0)

	older := Run{ID: "run-1", Mode: ModeFile, Input: "a.mp3", Output: "a_censored/clean_a.mp3",
		Engine: "whisper", Model: "whisper-base", StartedAt: base, FinishedAt: base.Add(time.Minute), Status: StatusOK}
	newer := Run{ID: "run-2", Mode: ModeRecord, Input: "microphone", Output: "recordings/final.mp4",
		Engine: "vosk", Model: "vosk-small", StartedAt: base.Add(time.Hour), FinishedAt: base.Add(2 * time.Hour), Status: StatusFallback}

	if err := s.Record(older, []detect.Detection{{Word: "damn", Start: 3, End: 3.2}, {Word: "shit", Start: 1, End: 1.1}}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.Record(newer, nil); err != nil {
		t.Fatalf("Record: %v", err)
	}

	runs, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != "run-2" || runs[1].ID != "run-1" {
		t.Errorf("order = %s, %s; want run-2, run-1", runs[0].ID, runs[1].ID)
	}
	if runs[1].Detections != 2 || runs[1].Mode != ModeFile {
		t.Errorf("run-1 = %+v", runs[1])
	}
	if !runs[1].StartedAt.Equal(base) {
		t.Errorf("StartedAt = %v, want %v", runs[1].StartedAt, base)
	}

	dets, err := s.Detections("run-1")
	if err != nil {
		t.Fatalf("Detections: %v", err)
	}
	if len(dets) != 2 || dets[0].Word != "shit" || dets[1].Word != "damn" {
		t.Errorf("detections = %+v, want sorted by start", dets)
	}
}

func TestRecordGeneratesID(t *testing.T) {
	s := createTestStore(t)
	if err := s.Record(Run{Mode: ModeFile, StartedAt: time.Now(), FinishedAt: time.Now()}, nil); err != nil {
		t.Fatalf("Record: %v", err)
	}
	runs, err := s.Recent(1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 1 || len(runs[0].ID) != 36 {
		t.Errorf("runs = %+v, want one run with a UUID", runs)
	}
}

func TestDeleteRemovesDetections(t *testing.T) {
	s := createTestStore(t)
	run := Run{ID: "x", Mode: ModeFile, StartedAt: time.Now(), FinishedAt: time.Now()}
	if err := s.Record(run, []detect.Detection{{Word: "w", Start: 1, End: 2}}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.Delete("x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	dets, err := s.Detections("x")
	if err != nil {
		t.Fatalf("Detections: %v", err)
	}
	if len(dets) != 0 {
		t.Errorf("got %d detections after delete, want 0", len(dets))
	}
}

func TestTimeFromUnix(t *testing.T) {
	want := time.Unix(1700000000, 500000000)
	got := timeFromUnix(unixFromTime(want))
	if d := got.Sub(want); d > time.Millisecond || d < -time.Millisecond {
		t.Errorf("round trip = %v, want %v", got, want)
	}
}
