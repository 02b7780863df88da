// Package tray показывает индикатор живой записи в системном трее.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"hush/internal/i18n"
)

// State представляет состояние записи для отображения в трее.
type State int

const (
	StateRecording State = iota
	StateProcessing
)

// Callbacks содержит обработчики событий меню.
type Callbacks struct {
	OnStop                func()
	OnNotificationsToggle func() bool
}

// Tray управляет иконкой в системном трее.
type Tray struct {
	callbacks     Callbacks
	notifications bool
	status        *systray.MenuItem
	found         *systray.MenuItem
	notifyOn      *systray.MenuItem
	stopBtn       *systray.MenuItem
	ready         chan struct{}
	once          sync.Once
}

// New создаёт новый Tray.
func New(callbacks Callbacks, notifications bool) *Tray {
	return &Tray{
		callbacks:     callbacks,
		notifications: notifications,
		ready:         make(chan struct{}),
	}
}

// Run запускает системный трей. Блокирующая функция, вызывается из главного потока.
func (t *Tray) Run(onReady func()) {
	systray.Run(func() {
		t.onReady()
		if onReady != nil {
			onReady()
		}
	}, nil)
}

func (t *Tray) onReady() {
	systray.SetIcon(icon(colorRecording))
	systray.SetTitle(i18n.T("app_name"))
	systray.SetTooltip(i18n.T("app_tooltip"))

	t.status = systray.AddMenuItem(i18n.T("tray_recording"), "")
	t.status.Disable()
	t.found = systray.AddMenuItem(i18n.Tf("tray_detections", 0), "")
	t.found.Disable()

	systray.AddSeparator()

	t.notifyOn = systray.AddMenuItemCheckbox(i18n.T("tray_notifications"), i18n.T("tray_notifications_hint"), t.notifications)

	systray.AddSeparator()

	t.stopBtn = systray.AddMenuItem(i18n.T("tray_stop"), i18n.T("tray_stop_hint"))

	close(t.ready)
	go t.handleMenuEvents()
}

func (t *Tray) handleMenuEvents() {
	for {
		select {
		case <-t.notifyOn.ClickedCh:
			if t.callbacks.OnNotificationsToggle != nil {
				if t.callbacks.OnNotificationsToggle() {
					t.notifyOn.Check()
				} else {
					t.notifyOn.Uncheck()
				}
			}

		case <-t.stopBtn.ClickedCh:
			t.stopBtn.Disable()
			t.once.Do(func() {
				if t.callbacks.OnStop != nil {
					t.callbacks.OnStop()
				}
			})
		}
	}
}

// SetState устанавливает состояние записи и обновляет иконку.
func (t *Tray) SetState(state State) {
	<-t.ready
	switch state {
	case StateRecording:
		systray.SetIcon(icon(colorRecording))
		systray.SetTooltip(i18n.T("app_name") + " - " + i18n.T("tray_recording"))
		t.status.SetTitle(i18n.T("tray_recording"))
	case StateProcessing:
		systray.SetIcon(icon(colorProcessing))
		systray.SetTooltip(i18n.T("app_name") + " - " + i18n.T("tray_processing"))
		t.status.SetTitle(i18n.T("tray_processing"))
		t.stopBtn.Disable()
	}
}

// SetDetections показывает число найденных слов.
func (t *Tray) SetDetections(n int) {
	<-t.ready
	t.found.SetTitle(i18n.Tf("tray_detections", n))
}

// Quit закрывает системный трей.
func (t *Tray) Quit() {
	systray.Quit()
}
