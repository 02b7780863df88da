package notify

import (
	"strings"
	"testing"

	"hush/internal/i18n"
)

type sent struct{ title, message string }

func capture(n *Notifier) *[]sent {
	var out []sent
	n.send = func(title, message, icon string) error {
		out = append(out, sent{title, message})
		return nil
	}
	return &out
}

func TestDisabledNotifierIsSilent(t *testing.T) {
	n := New(false)
	got := capture(n)
	n.Done(3, "out.mp4")
	if len(*got) != 0 {
		t.Errorf("sent %d notifications, want 0", len(*got))
	}
}

func TestDoneMessages(t *testing.T) {
	defer i18n.SetLanguage(i18n.GetLanguage())
	i18n.SetLanguage(i18n.EN)

	n := New(true)
	got := capture(n)
	n.Done(0, "x")
	n.Done(2, "clean_a.mp3")

	if len(*got) != 2 {
		t.Fatalf("sent %d notifications, want 2", len(*got))
	}
	if (*got)[0].message != "No profanity found" {
		t.Errorf("clean message = %q", (*got)[0].message)
	}
	if !strings.HasPrefix((*got)[1].title, "Hush: ") || !strings.Contains((*got)[1].message, "clean_a.mp3") {
		t.Errorf("done = %+v", (*got)[1])
	}
}
