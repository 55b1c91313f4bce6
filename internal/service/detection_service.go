package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"lane-detector-go/internal/lane"
	"lane-detector-go/internal/media"
	"lane-detector-go/internal/model"
	"lane-detector-go/internal/repository"
	"lane-detector-go/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DetectionService сервис для обработки загруженных файлов и хранения результатов
type DetectionService struct {
	repo      repository.DetectionRepository
	detector  *DetectorService
	logger    *logrus.Logger
	staticDir string
}

// NewDetectionService создает новый сервис для работы с обработками
func NewDetectionService(repo repository.DetectionRepository, detector *DetectorService, logger *logrus.Logger, staticDir string) *DetectionService {
	return &DetectionService{
		repo:      repo,
		detector:  detector,
		logger:    logger,
		staticDir: staticDir,
	}
}

// ProcessImage сохраняет загруженное изображение, ищет на нем разметку и сохраняет результат
func (s *DetectionService) ProcessImage(filename string, data io.Reader) (*models.DetectResponse, error) {
	id := s.GenerateDetectionID()
	s.logger.Infof("Обработка изображения %s, ID %s", filename, id)

	ext := strings.ToLower(filepath.Ext(filename))
	if !media.IsImage(filename) {
		return nil, fmt.Errorf("%w: unsupported image extension %q", ErrInvalidInput, ext)
	}

	inputPath, err := s.saveUpload(id, filename, ext, data)
	if err != nil {
		return nil, err
	}

	outputPath := filepath.Join(s.detectionDir(id), "output"+ext)
	result, err := s.detector.DetectImageFile(inputPath, outputPath)
	if err != nil {
		s.removeFiles(id)
		return nil, err
	}

	frame := result.Frame
	var left, right *lane.ExtrapolatedLine
	if frame.Left.Found {
		left = &frame.Left.Line
	}
	if frame.Right.Found {
		right = &frame.Right.Line
	}

	detection := &model.Detection{
		ID:             id,
		SourceFilename: filename,
		Kind:           model.KindImage,
		Backend:        result.Backend,
		Width:          frame.Width,
		Height:         frame.Height,
		InputPath:      inputPath,
		OutputPath:     outputPath,
		TotalFrames:    1,
		ProcessingMs:   result.Duration.Milliseconds(),
		Frames:         []model.LaneFrame{laneFrame(0, left, right)},
	}
	if left != nil {
		detection.FramesWithLeft = 1
	}
	if right != nil {
		detection.FramesWithRight = 1
	}

	if err := s.persist(detection); err != nil {
		return nil, err
	}

	response := s.detectResponse(detection)
	if left != nil {
		response.Lanes = append(response.Lanes, *laneLine(lane.Left, *left))
	}
	if right != nil {
		response.Lanes = append(response.Lanes, *laneLine(lane.Right, *right))
	}

	switch len(response.Lanes) {
	case 0:
		response.Message = "Линии разметки не найдены"
	case 1:
		response.Message = "Найдена одна граница полосы"
	default:
		response.Message = "Найдены обе границы полосы"
	}

	return response, nil
}

// ProcessVideo сохраняет загруженное видео, обрабатывает его кадры и сохраняет результат
func (s *DetectionService) ProcessVideo(ctx context.Context, filename string, data io.Reader) (*models.DetectResponse, error) {
	if !media.VideoSupported() {
		return nil, media.ErrVideoUnsupported
	}

	id := s.GenerateDetectionID()
	s.logger.Infof("Обработка видео %s, ID %s", filename, id)

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".mp4"
		s.logger.Warnf("Расширение файла не найдено, используем .mp4")
	}

	inputPath, err := s.saveUpload(id, filename, ext, data)
	if err != nil {
		return nil, err
	}

	outputPath := filepath.Join(s.detectionDir(id), "output.mp4")
	result, err := s.detector.DetectVideo(ctx, inputPath, outputPath)
	if err != nil {
		s.removeFiles(id)
		return nil, err
	}

	detection := &model.Detection{
		ID:              id,
		SourceFilename:  filename,
		Kind:            model.KindVideo,
		Backend:         result.Backend,
		Width:           result.Width,
		Height:          result.Height,
		InputPath:       inputPath,
		OutputPath:      outputPath,
		TotalFrames:     result.Summary.Frames,
		FramesWithLeft:  result.Summary.FramesWithLeft,
		FramesWithRight: result.Summary.FramesWithRight,
		ProcessingMs:    result.Duration.Milliseconds(),
	}
	for _, fs := range result.Summary.PerFrame {
		detection.Frames = append(detection.Frames, laneFrame(fs.Index, fs.Left, fs.Right))
	}

	if err := s.persist(detection); err != nil {
		return nil, err
	}

	response := s.detectResponse(detection)
	response.Message = fmt.Sprintf("Обработано кадров: %d", detection.TotalFrames)
	return response, nil
}

// GetDetection получает обработку по ID
func (s *DetectionService) GetDetection(id string) (*models.DetectionResponse, error) {
	s.logger.Infof("Получаем обработку %s из базы данных", id)

	detection, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Errorf("Ошибка получения обработки: %v", err)
		return nil, fmt.Errorf("failed to get detection: %w", err)
	}

	return s.modelToResponse(detection), nil
}

// OutputPath путь к аннотированному файлу обработки
func (s *DetectionService) OutputPath(id string) (string, error) {
	detection, err := s.repo.GetByID(id)
	if err != nil {
		return "", fmt.Errorf("failed to get detection: %w", err)
	}
	return detection.OutputPath, nil
}

// ListDetections получает список обработок с пагинацией
func (s *DetectionService) ListDetections(page, pageSize int) (*models.ListDetectionsResponse, error) {
	s.logger.Infof("Получаем список обработок: страница %d, размер %d", page, pageSize)

	detections, total, err := s.repo.List(page, pageSize)
	if err != nil {
		s.logger.Errorf("Ошибка получения списка обработок: %v", err)
		return nil, fmt.Errorf("failed to list detections: %w", err)
	}

	response := &models.ListDetectionsResponse{
		Detections: make([]models.DetectionResponse, len(detections)),
		Total:      total,
		Page:       page,
		Size:       pageSize,
	}
	for i, d := range detections {
		response.Detections[i] = *s.modelToResponse(d)
	}

	s.logger.Infof("Получено %d обработок из %d общих", len(detections), total)
	return response, nil
}

// DeleteDetection удаляет обработку и ее файлы
func (s *DetectionService) DeleteDetection(id string) error {
	s.logger.Infof("Удаляем обработку %s", id)

	if err := s.repo.Delete(id); err != nil {
		s.logger.Errorf("Ошибка удаления обработки из БД: %v", err)
		return fmt.Errorf("failed to delete detection: %w", err)
	}

	s.removeFiles(id)
	s.logger.Infof("Обработка %s успешно удалена", id)
	return nil
}

// GenerateDetectionID генерирует уникальный ID обработки
func (s *DetectionService) GenerateDetectionID() string {
	return uuid.New().String()
}

func (s *DetectionService) detectionDir(id string) string {
	return filepath.Join(s.staticDir, "detections", id)
}

// saveUpload сохраняет загруженный файл в папке обработки
func (s *DetectionService) saveUpload(id, originalFilename, ext string, data io.Reader) (string, error) {
	dir := s.detectionDir(id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		s.logger.Errorf("Ошибка создания директории %s: %v", dir, err)
		return "", fmt.Errorf("failed to create detection directory: %w", err)
	}

	filePath := filepath.Join(dir, "input"+ext)
	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer file.Close()

	bytesWritten, err := io.Copy(file, data)
	if err != nil {
		s.removeFiles(id)
		return "", fmt.Errorf("failed to write upload data: %w", err)
	}

	s.logger.Infof("Файл %s сохранен: %s (записано %d байт)", originalFilename, filePath, bytesWritten)
	return filePath, nil
}

func (s *DetectionService) persist(detection *model.Detection) error {
	if err := s.repo.Create(detection); err != nil {
		s.logger.Errorf("Ошибка сохранения обработки в БД: %v", err)
		s.removeFiles(detection.ID)
		return fmt.Errorf("failed to save detection to database: %w", err)
	}
	s.logger.Infof("Обработка %s сохранена в БД, кадров: %d", detection.ID, len(detection.Frames))
	return nil
}

func (s *DetectionService) removeFiles(id string) {
	dir := s.detectionDir(id)
	if err := os.RemoveAll(dir); err != nil {
		s.logger.Warnf("Не удалось удалить файлы %s: %v", dir, err)
	}
}

// outputURL адрес файла относительно раздачи /static
func (s *DetectionService) outputURL(path string) string {
	if path == "" {
		return ""
	}
	rel, err := filepath.Rel(s.staticDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	return "/static/" + filepath.ToSlash(rel)
}

func (s *DetectionService) stats(d *model.Detection) models.DetectionStats {
	return models.DetectionStats{
		TotalFrames:     d.TotalFrames,
		FramesWithLeft:  d.FramesWithLeft,
		FramesWithRight: d.FramesWithRight,
		ProcessingMs:    d.ProcessingMs,
	}
}

func (s *DetectionService) detectResponse(d *model.Detection) *models.DetectResponse {
	return &models.DetectResponse{
		Status:      "success",
		DetectionID: d.ID,
		Kind:        d.Kind,
		Backend:     d.Backend,
		Width:       d.Width,
		Height:      d.Height,
		Lanes:       []models.LaneLine{},
		OutputURL:   s.outputURL(d.OutputPath),
		Stats:       s.stats(d),
	}
}

// modelToResponse преобразует модель базы данных в ответ API
func (s *DetectionService) modelToResponse(d *model.Detection) *models.DetectionResponse {
	response := &models.DetectionResponse{
		ID:             d.ID,
		SourceFilename: d.SourceFilename,
		Kind:           d.Kind,
		Backend:        d.Backend,
		Width:          d.Width,
		Height:         d.Height,
		OutputURL:      s.outputURL(d.OutputPath),
		Stats:          s.stats(d),
		CreatedAt:      d.CreatedAt,
	}

	for _, f := range d.Frames {
		response.Frames = append(response.Frames, frameLanes(f))
	}

	return response
}
