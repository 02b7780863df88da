package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"hush/internal/detect"
	"hush/internal/history"
	"hush/internal/i18n"
	"hush/internal/models"
)

// LiveLimit - сколько найденных слов показывать после живой записи.
const LiveLimit = 5

// Timestamp форматирует секунды как mm:ss.cc.
func Timestamp(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	cs := int(sec*100 + 0.5)
	return fmt.Sprintf("%02d:%02d.%02d", cs/6000, cs/100%60, cs%100)
}

// Detections печатает найденные слова. limit <= 0 означает без ограничения.
func Detections(w io.Writer, dets []detect.Detection, limit int) {
	if len(dets) == 0 {
		fmt.Fprintln(w, OKStyle.Render(i18n.T("ui_none")))
		return
	}
	fmt.Fprintln(w, WarnStyle.Render(i18n.Tf("ui_found", len(dets))))

	shown := dets
	if limit > 0 && len(dets) > limit {
		shown = dets[:limit]
	}
	for _, d := range shown {
		fmt.Fprintf(w, "  %s  %s\n",
			TimestampStyle.Render(Timestamp(d.Start)+" - "+Timestamp(d.End)),
			WordStyle.Render(d.Word))
	}
	if rest := len(dets) - len(shown); rest > 0 {
		fmt.Fprintln(w, DimStyle.Render("  "+i18n.Tf("ui_more", rest)))
	}
}

// File печатает путь к результату с размером файла.
func File(w io.Writer, label, path string) {
	line := fmt.Sprintf("%s: %s", label, path)
	if fi, err := os.Stat(path); err == nil {
		line += " " + DimStyle.Render("("+humanize.Bytes(uint64(fi.Size()))+")")
	}
	fmt.Fprintln(w, line)
}

// Error печатает ошибку.
func Error(w io.Writer, err error) {
	fmt.Fprintln(w, ErrorStyle.Render("✗ "+err.Error()))
}

// Runs печатает историю прогонов.
func Runs(w io.Writer, runs []history.Run, now time.Time) {
	if len(runs) == 0 {
		fmt.Fprintln(w, DimStyle.Render(i18n.T("ui_no_history")))
		return
	}
	fmt.Fprintln(w, TitleStyle.Render(i18n.T("ui_history")))
	for _, r := range runs {
		status := OKStyle.Render(r.Status)
		if r.Status != history.StatusOK {
			status = ErrorStyle.Render(r.Status)
		}
		fmt.Fprintf(w, "  %s  %-6s %s  %s  %s\n",
			TimestampStyle.Render(humanize.RelTime(r.StartedAt, now, "назад", "вперёд")),
			r.Mode,
			status,
			WarnStyle.Render(fmt.Sprintf("%d", r.Detections)),
			r.Input)
		fmt.Fprintln(w, DimStyle.Render("    "+r.ID+"  "+r.Output))
	}
}

// Model печатает строку реестра моделей.
func Model(w io.Writer, info models.ModelInfo, downloaded, current bool) {
	mark := "  "
	if current {
		mark = OKStyle.Render("* ")
	}
	var state string
	switch {
	case !info.Managed():
		state = DimStyle.Render(i18n.T("ui_model_auto"))
	case downloaded:
		state = OKStyle.Render(i18n.T("ui_model_ready"))
	default:
		state = DimStyle.Render(i18n.T("ui_model_none"))
	}
	size := ""
	if info.Bytes > 0 {
		size = humanize.Bytes(uint64(info.Bytes))
	}
	fmt.Fprintf(w, "%s%-22s %-15s %-8s %s\n", mark, info.ID, models.EngineName(info.Engine), size, state)
}

// Rule печатает разделитель.
func Rule(w io.Writer) {
	fmt.Fprintln(w, DimStyle.Render(strings.Repeat("─", 40)))
}
