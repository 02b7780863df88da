package session

import (
	"sync"
	"testing"

	"hush/internal/detect"
)

func TestStitchOffset(t *testing.T) {
	chunk := []detect.Detection{{Word: "fuck", Start: 2.0, End: 2.5}}
	got := Stitch(chunk, 30.0)

	if got[0].Start != 32.0 || got[0].End != 32.5 {
		t.Errorf("got %+v, want start 32.0 end 32.5", got[0])
	}
	if got[0].Word != "fuck" {
		t.Errorf("Word = %q, want %q", got[0].Word, "fuck")
	}
	if chunk[0].Start != 2.0 {
		t.Error("Stitch must not modify its input")
	}
}

func TestAdvanceReturnsChunkStart(t *testing.T) {
	s := New()
	if got := s.Advance(30); got != 0 {
		t.Errorf("first chunk offset = %v, want 0", got)
	}
	if got := s.Advance(30); got != 30 {
		t.Errorf("second chunk offset = %v, want 30", got)
	}
	if got := s.Advance(12.5); got != 60 {
		t.Errorf("third chunk offset = %v, want 60", got)
	}
	if got := s.Advance(1); got != 72.5 {
		t.Errorf("fourth chunk offset = %v, want 72.5", got)
	}
}

func TestAppendChunkAndFlagging(t *testing.T) {
	s := New()
	s.AppendChunk([]detect.Detection{{Word: "shit", Start: 1, End: 2}}, 30)

	if !s.IsFlagged(31) || !s.IsFlagged(32) {
		t.Error("boundaries of a stitched detection must be flagged")
	}
	if s.IsFlagged(2) {
		t.Error("unshifted time must not be flagged")
	}
}

func TestChunkBoundaryWordIsNotDeduplicated(t *testing.T) {
	// Слово на стыке чанков может быть распознано в обоих.
	// Склейка такие пары не объединяет.
	s := New()
	s.AppendChunk([]detect.Detection{{Word: "damn", Start: 29.8, End: 30.0}}, 0)
	s.AppendChunk([]detect.Detection{{Word: "damn", Start: 0.0, End: 0.1}}, 30)

	got := s.Detections()
	if len(got) != 2 {
		t.Fatalf("got %d detections, want 2 (boundary duplicates are kept)", len(got))
	}
	if got[0].End != 30.0 || got[1].Start != 30.0 {
		t.Errorf("got %+v", got)
	}
}

func TestChunkBoundaryWordSplitAcrossChunks(t *testing.T) {
	// Слово, разрезанное границей, может не распознаться ни в одном чанке.
	s := New()
	s.AppendChunk(nil, 0)
	s.AppendChunk(nil, 30)

	if s.IsFlagged(30.0) {
		t.Error("a word lost at the chunk cut leaves no detection")
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s := New()
	if !s.Active() {
		t.Fatal("new session must be active")
	}
	s.Stop()
	s.Stop()
	if s.Active() {
		t.Error("Active after Stop")
	}
	select {
	case <-s.Done():
	default:
		t.Error("Done must be closed after Stop")
	}
}

func TestConcurrentAppendAndRead(t *testing.T) {
	s := New()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			off := s.Advance(1)
			s.AppendChunk([]detect.Detection{{Word: "x", Start: 0.1, End: 0.2}}, off)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = s.IsFlagged(float64(i) + 0.15)
			_ = s.Detections()
		}
	}()

	wg.Wait()
	if s.Len() != 100 {
		t.Errorf("Len = %d, want 100", s.Len())
	}
	for i, d := range s.Detections() {
		if d.Start != float64(i)+0.1 {
			t.Fatalf("detection %d start = %v, want %v", i, d.Start, float64(i)+0.1)
		}
	}
}
