package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"runtime"
	"strconv"

	"github.com/labstack/gommon/log"
)

// FrameSource читает сырые RGBA кадры из stdout ffmpeg.
type FrameSource struct {
	cmd    *exec.Cmd
	out    io.ReadCloser
	stderr bytes.Buffer
	op     string
}

// ReadFrame заполняет img очередным кадром. Размер img должен совпадать
// с размером потока. Неполный последний кадр отбрасывается.
func (s *FrameSource) ReadFrame(img *image.RGBA) error {
	_, err := io.ReadFull(s.out, img.Pix)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return io.EOF
	}
	return err
}

// Close останавливает ffmpeg и дожидается его завершения.
func (s *FrameSource) Close() error {
	s.out.Close()
	if err := s.cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		// Процесс, прерванный закрытием pipe, не считается ошибкой.
		if errors.As(err, &exitErr) && s.stderr.Len() == 0 {
			return nil
		}
		return &ExitError{Op: s.op, Err: err, Stderr: s.stderr.String()}
	}
	return nil
}

// OpenFrames декодирует видео в поток RGBA кадров размером width x height.
func (f *FFmpeg) OpenFrames(ctx context.Context, path string, width, height int) (*FrameSource, error) {
	return f.openSource(ctx, "frames", []string{"-i", path}, width, height)
}

// OpenCamera открывает камеру. device - имя устройства, пустое - устройство
// по умолчанию для платформы.
func (f *FFmpeg) OpenCamera(ctx context.Context, device string, width, height int, fps float64) (*FrameSource, error) {
	return f.openSource(ctx, "camera", CameraArgs(runtime.GOOS, device, width, height, fps), width, height)
}

// CameraArgs возвращает входные аргументы ffmpeg для захвата камеры.
func CameraArgs(goos, device string, width, height int, fps float64) []string {
	size := fmt.Sprintf("%dx%d", width, height)
	rate := strconv.FormatFloat(fps, 'f', -1, 64)
	switch goos {
	case "darwin":
		if device == "" {
			device = "0"
		}
		return []string{"-f", "avfoundation", "-framerate", rate, "-video_size", size, "-i", device + ":none"}
	case "windows":
		if device == "" {
			device = "Integrated Camera"
		}
		return []string{"-f", "dshow", "-framerate", rate, "-video_size", size, "-i", "video=" + device}
	default:
		if device == "" {
			device = "/dev/video0"
		}
		return []string{"-f", "v4l2", "-framerate", rate, "-video_size", size, "-i", device}
	}
}

func (f *FFmpeg) openSource(ctx context.Context, op string, input []string, width, height int) (*FrameSource, error) {
	args := []string{"-hide_banner", "-loglevel", "error"}
	args = append(args, input...)
	args = append(args,
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-",
	)
	log.Debugf("%s %v", f.Bin, args)

	src := &FrameSource{cmd: exec.CommandContext(ctx, f.Bin, args...), op: op}
	src.cmd.Stderr = &src.stderr
	out, err := src.cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	src.out = out
	if err := src.cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w (%s)", ErrFFmpegNotFound, f.Bin)
		}
		return nil, fmt.Errorf("запуск ffmpeg (%s): %w", op, err)
	}
	return src, nil
}

// FrameSink кодирует RGBA кадры в видеофайл через stdin ffmpeg.
type FrameSink struct {
	cmd    *exec.Cmd
	in     io.WriteCloser
	stderr bytes.Buffer
}

// WriteFrame пишет кадр.
func (s *FrameSink) WriteFrame(img *image.RGBA) error {
	_, err := s.in.Write(img.Pix)
	return err
}

// Close завершает кодирование.
func (s *FrameSink) Close() error {
	s.in.Close()
	if err := s.cmd.Wait(); err != nil {
		return &ExitError{Op: "encode video", Err: err, Stderr: s.stderr.String()}
	}
	return nil
}

// CreateVideo запускает кодирование в H.264 без звука.
func (f *FFmpeg) CreateVideo(ctx context.Context, out string, width, height int, fps float64) (*FrameSink, error) {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", strconv.FormatFloat(fps, 'f', -1, 64),
		"-i", "-",
		"-an",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		out,
	}
	log.Debugf("%s %v", f.Bin, args)

	sink := &FrameSink{cmd: exec.CommandContext(ctx, f.Bin, args...)}
	sink.cmd.Stderr = &sink.stderr
	in, err := sink.cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	sink.in = in
	if err := sink.cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w (%s)", ErrFFmpegNotFound, f.Bin)
		}
		return nil, fmt.Errorf("запуск ffmpeg (encode video): %w", err)
	}
	return sink, nil
}
