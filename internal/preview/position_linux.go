//go:build linux

package preview

import (
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// place переносит окно в правый верхний угол экрана и держит его поверх
// остальных. Нужны xdotool и wmctrl (или xprop); без них окно остаётся,
// где его поставил оконный менеджер.
func place(title string, width, height int) {
	// Окно появляется не сразу.
	time.Sleep(150 * time.Millisecond)

	screenW, _ := screenSize()
	if screenW == 0 {
		return
	}

	out, err := exec.Command("xdotool", "search", "--name", title).Output()
	if err != nil {
		return
	}
	ids := strings.Fields(string(out))
	if len(ids) == 0 {
		return
	}
	id := ids[0]

	x := screenW - width - 20
	exec.Command("xdotool", "windowmove", id, strconv.Itoa(x), "40").Run()

	if err := exec.Command("wmctrl", "-i", "-r", id, "-b", "add,above").Run(); err != nil {
		exec.Command("xprop", "-id", id, "-f", "_NET_WM_STATE", "32a",
			"-set", "_NET_WM_STATE", "_NET_WM_STATE_ABOVE").Run()
	}
}

// screenSize возвращает размер экрана через xdotool.
func screenSize() (width, height int) {
	out, err := exec.Command("xdotool", "getdisplaygeometry").Output()
	if err != nil {
		return 0, 0
	}
	parts := strings.Fields(string(out))
	if len(parts) != 2 {
		return 0, 0
	}
	width, _ = strconv.Atoi(parts[0])
	height, _ = strconv.Atoi(parts[1])
	return width, height
}
