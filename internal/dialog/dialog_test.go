package dialog

import (
	"slices"
	"testing"
)

func TestPatterns(t *testing.T) {
	got := patterns([]string{".mp3", ".wav"})
	want := []string{"*.mp3", "*.wav"}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
