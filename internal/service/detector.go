package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"lane-detector-go/internal/geo"
	"lane-detector-go/internal/media"
	"lane-detector-go/internal/pipeline"

	"github.com/sirupsen/logrus"
)

// DetectorService сервис поиска линий разметки на изображениях и видео
type DetectorService struct {
	pipeline *pipeline.Pipeline
	workers  int
	logger   *logrus.Logger
}

// NewDetectorService создает новый сервис поиска разметки
func NewDetectorService(p *pipeline.Pipeline, workers int, logger *logrus.Logger) *DetectorService {
	if workers < 1 {
		workers = 1
	}
	return &DetectorService{
		pipeline: p,
		workers:  workers,
		logger:   logger,
	}
}

// Backend имя реализации примитивов обработки
func (s *DetectorService) Backend() string {
	return s.pipeline.Backend()
}

// DetectImage ищет линии разметки на изображении
func (s *DetectorService) DetectImage(img image.Image) (*ImageResult, error) {
	startTime := time.Now()

	frame, err := s.pipeline.ProcessFrame(img)
	if errors.Is(err, geo.ErrFrameTooSmall) {
		s.logger.Warnf("Изображение не подходит для поиска разметки: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err != nil {
		s.logger.Errorf("Ошибка обработки изображения: %v", err)
		return nil, fmt.Errorf("failed to process image: %w", err)
	}

	duration := time.Since(startTime)
	s.logger.WithFields(logrus.Fields{
		"width":    frame.Width,
		"height":   frame.Height,
		"left":     frame.Left.Found,
		"right":    frame.Right.Found,
		"duration": duration.String(),
	}).Info("Изображение обработано")

	return &ImageResult{
		Frame:    frame,
		Backend:  s.Backend(),
		Duration: duration,
	}, nil
}

// DetectImageFile читает изображение, ищет разметку и сохраняет результат в outPath
func (s *DetectorService) DetectImageFile(inPath, outPath string) (*ImageResult, error) {
	img, err := media.LoadImage(inPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	result, err := s.DetectImage(img)
	if err != nil {
		return nil, err
	}

	if err := media.SaveImage(result.Frame.Image, outPath); err != nil {
		return nil, err
	}

	s.logger.Infof("Результат сохранен в %s", outPath)
	return result, nil
}

// DetectVideo обрабатывает видео кадр за кадром и записывает аннотированное видео в outPath
func (s *DetectorService) DetectVideo(ctx context.Context, inPath, outPath string) (*VideoResult, error) {
	startTime := time.Now()

	reader, err := media.OpenVideo(inPath)
	if err != nil {
		if errors.Is(err, media.ErrVideoUnsupported) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	defer reader.Close()

	width, height := reader.Size()
	s.logger.Infof("Начинаем обработку видео %s (%dx%d, %.1f fps)", inPath, width, height, reader.FPS())

	writer, err := media.CreateVideo(outPath, reader.FPS(), width, height)
	if err != nil {
		return nil, err
	}

	summary, err := s.pipeline.ProcessStream(ctx, reader, writer, s.workers)
	if closeErr := writer.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to finalize video %s: %w", outPath, closeErr)
	}
	if err != nil {
		s.logger.Errorf("Ошибка обработки видео %s: %v", inPath, err)
		return nil, fmt.Errorf("failed to process video: %w", err)
	}

	duration := time.Since(startTime)
	s.logger.Infof("Видео %s обработано: %d кадров за %s", inPath, summary.Frames, duration)

	return &VideoResult{
		Summary:  summary,
		Backend:  s.Backend(),
		Width:    width,
		Height:   height,
		FPS:      reader.FPS(),
		Duration: duration,
	}, nil
}
