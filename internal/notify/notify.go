// Package notify предоставляет системные уведомления.
package notify

import (
	"github.com/gen2brain/beeep"
	"github.com/labstack/gommon/log"

	"hush/internal/i18n"
)

const appName = "Hush"

// Notifier отправляет системные уведомления.
type Notifier struct {
	enabled bool
	send    func(title, message, icon string) error
}

// New создаёт новый Notifier.
func New(enabled bool) *Notifier {
	return &Notifier{enabled: enabled, send: beeep.Notify}
}

// SetEnabled включает/выключает уведомления.
func (n *Notifier) SetEnabled(enabled bool) {
	n.enabled = enabled
}

// Recording показывает уведомление о начале записи.
func (n *Notifier) Recording(stopHotkey string) {
	n.notify(i18n.T("notify_recording"), i18n.Tf("notify_recording_hint", stopHotkey))
}

// Done показывает итог прогона.
func (n *Notifier) Done(found int, output string) {
	if found == 0 {
		n.notify(i18n.T("notify_done"), i18n.T("notify_clean"))
		return
	}
	n.notify(i18n.T("notify_done"), i18n.Tf("notify_done_body", found, output))
}

// Fallback сообщает, что вместо полного результата сохранено видео с отметками.
func (n *Notifier) Fallback(output string) {
	n.notify(i18n.T("notify_fallback"), output)
}

// Error показывает уведомление об ошибке.
func (n *Notifier) Error(msg string) {
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	n.notify(i18n.T("notify_error"), msg)
}

func (n *Notifier) notify(title, message string) {
	if !n.enabled {
		return
	}
	// Ошибки уведомлений не критичны.
	if err := n.send(appName+": "+title, message, ""); err != nil {
		log.Debugf("Уведомление не отправлено: %v", err)
	}
}
