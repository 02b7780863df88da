package models

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/labstack/gommon/log"
)

// ErrNotManaged возвращается для моделей, которые скачивает сам движок.
var ErrNotManaged = errors.New("модель скачивается движком, а не менеджером")

// Progress информация о прогрессе загрузки.
type Progress struct {
	ModelID    string
	Downloaded int64
	Total      int64
	Done       bool
	Error      error
}

// Manager управляет моделями.
type Manager struct {
	modelsDir string
	client    *http.Client
	mu        sync.RWMutex
}

// NewManager создаёт менеджер моделей в dir.
// Пустой dir означает директорию models/ рядом с бинарником.
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		execPath, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("не удалось определить путь к бинарнику: %w", err)
		}
		execPath, err = filepath.EvalSymlinks(execPath)
		if err != nil {
			return nil, fmt.Errorf("не удалось разрешить симлинки: %w", err)
		}
		dir = filepath.Join(filepath.Dir(execPath), "models")
	}

	for _, e := range []Engine{EngineWhisper, EngineVosk, EngineVAD} {
		if err := os.MkdirAll(filepath.Join(dir, string(e)), 0755); err != nil {
			return nil, fmt.Errorf("не удалось создать директорию %s: %w", e, err)
		}
	}

	return &Manager{modelsDir: dir, client: http.DefaultClient}, nil
}

// ModelsDir возвращает путь к директории моделей.
func (m *Manager) ModelsDir() string {
	return m.modelsDir
}

// GetModelPath возвращает полный путь к модели.
// Для faster-whisper возвращается имя модели.
func (m *Manager) GetModelPath(info ModelInfo) string {
	if !info.Managed() {
		return info.Filename
	}
	return filepath.Join(m.modelsDir, string(info.Engine), info.Filename)
}

// IsDownloaded проверяет, скачана ли модель.
func (m *Manager) IsDownloaded(info ModelInfo) bool {
	if !info.Managed() {
		return true
	}
	stat, err := os.Stat(m.GetModelPath(info))
	if err != nil {
		return false
	}
	if info.IsZip {
		return stat.IsDir()
	}
	return stat.Size() > 0
}

// ListDownloaded возвращает список скачанных моделей.
func (m *Manager) ListDownloaded() []ModelInfo {
	var downloaded []ModelInfo
	for _, model := range Registry {
		if model.Managed() && m.IsDownloaded(model) {
			downloaded = append(downloaded, model)
		}
	}
	return downloaded
}

// Download скачивает модель.
// progress канал получает обновления о прогрессе (можно nil).
func (m *Manager) Download(ctx context.Context, info ModelInfo, progress chan<- Progress) error {
	if !info.Managed() {
		return fmt.Errorf("%s: %w", info.ID, ErrNotManaged)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.IsDownloaded(info) {
		send(progress, Progress{ModelID: info.ID, Downloaded: info.Bytes, Total: info.Bytes, Done: true}, true)
		return nil
	}

	log.Infof("Скачиваю %s: %s", info.ID, info.URL)

	dest := m.GetModelPath(info)
	tmp, err := os.CreateTemp(filepath.Dir(dest), info.Filename+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	total, err := m.fetch(ctx, info, tmp, progress)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	if info.IsZip {
		if err := unzip(tmpPath, filepath.Dir(dest)); err != nil {
			return fmt.Errorf("ошибка распаковки: %w", err)
		}
	} else if err := os.Rename(tmpPath, dest); err != nil {
		return err
	}

	send(progress, Progress{ModelID: info.ID, Downloaded: total, Total: total, Done: true}, true)
	log.Infof("Модель %s готова: %s", info.ID, dest)
	return nil
}

func (m *Manager) fetch(ctx context.Context, info ModelInfo, dst io.Writer, progress chan<- Progress) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return 0, err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("ошибка скачивания: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP ошибка: %s", resp.Status)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = info.Bytes
	}

	var downloaded int64
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return downloaded, err
		}

		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return downloaded, werr
			}
			downloaded += int64(n)
			send(progress, Progress{ModelID: info.ID, Downloaded: downloaded, Total: total}, false)
		}
		if err == io.EOF {
			return downloaded, nil
		}
		if err != nil {
			return downloaded, err
		}
	}
}

// send отправляет прогресс; промежуточные обновления не блокируют загрузку.
func send(progress chan<- Progress, p Progress, wait bool) {
	if progress == nil {
		return
	}
	if wait {
		progress <- p
		return
	}
	select {
	case progress <- p:
	default:
	}
}

func unzip(src, destDir string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	root := filepath.Clean(destDir) + string(os.PathSeparator)
	for _, f := range r.File {
		fpath := filepath.Join(destDir, f.Name)
		if !strings.HasPrefix(fpath, root) {
			return fmt.Errorf("недопустимый путь в архиве: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, 0755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(fpath), 0755); err != nil {
			return err
		}
		if err := extract(f, fpath); err != nil {
			return err
		}
	}
	return nil
}

func extract(f *zip.File, fpath string) error {
	out, err := os.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	_, err = io.Copy(out, rc)
	return err
}

// Delete удаляет модель.
func (m *Manager) Delete(info ModelInfo) error {
	if !info.Managed() {
		return fmt.Errorf("%s: %w", info.ID, ErrNotManaged)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return os.RemoveAll(m.GetModelPath(info))
}
