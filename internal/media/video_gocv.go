//go:build gocv
// +build gocv

package media

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"
)

// VideoSupported сообщает, доступна ли работа с видео
func VideoSupported() bool {
	return true
}

type videoReader struct {
	capture *gocv.VideoCapture
	frame   gocv.Mat
	fps     float64
	width   int
	height  int
}

// OpenVideo открывает видеофайл для последовательного чтения кадров
func OpenVideo(path string) (FrameReader, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video %s: %w", path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("video %s cannot be opened", path)
	}

	fps := capture.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = DefaultFPS
	}

	return &videoReader{
		capture: capture,
		frame:   gocv.NewMat(),
		fps:     fps,
		width:   int(capture.Get(gocv.VideoCaptureFrameWidth)),
		height:  int(capture.Get(gocv.VideoCaptureFrameHeight)),
	}, nil
}

func (r *videoReader) Next() (image.Image, error) {
	if ok := r.capture.Read(&r.frame); !ok || r.frame.Empty() {
		return nil, io.EOF
	}
	img, err := r.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	return img, nil
}

func (r *videoReader) FPS() float64 {
	return r.fps
}

func (r *videoReader) Size() (int, int) {
	return r.width, r.height
}

func (r *videoReader) Close() error {
	r.frame.Close()
	return r.capture.Close()
}

type videoWriter struct {
	writer *gocv.VideoWriter
}

// CreateVideo создает mp4 файл для записи кадров размером width x height
func CreateVideo(path string, fps float64, width, height int) (FrameWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if fps <= 0 {
		fps = DefaultFPS
	}

	writer, err := gocv.VideoWriterFile(path, "mp4v", fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create video %s: %w", path, err)
	}
	return &videoWriter{writer: writer}, nil
}

func (w *videoWriter) Write(frame image.Image) error {
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return fmt.Errorf("failed to convert frame: %w", err)
	}
	defer mat.Close()

	if err := w.writer.Write(mat); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

func (w *videoWriter) Close() error {
	return w.writer.Close()
}
