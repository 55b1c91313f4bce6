package handler

import (
	"errors"
	"net/http"
	"strconv"

	"lane-detector-go/internal/media"
	"lane-detector-go/internal/repository"
	"lane-detector-go/internal/service"
	"lane-detector-go/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Version версия API
const Version = "1.0.0"

// maxUploadMemory размер multipart формы, хранимой в памяти
const maxUploadMemory = 32 << 20

// DetectionHandler обрабатывает HTTP запросы поиска разметки
type DetectionHandler struct {
	detectionService *service.DetectionService
	detector         *service.DetectorService
	healthCheck      func() error
	logger           *logrus.Logger
}

// NewDetectionHandler создает новый экземпляр DetectionHandler.
// healthCheck проверяет доступность базы данных.
func NewDetectionHandler(detectionService *service.DetectionService, detector *service.DetectorService, healthCheck func() error, logger *logrus.Logger) *DetectionHandler {
	return &DetectionHandler{
		detectionService: detectionService,
		detector:         detector,
		healthCheck:      healthCheck,
		logger:           logger,
	}
}

// RegisterRoutes регистрирует маршруты API
func (h *DetectionHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/detect", h.DetectImage)
		api.POST("/videos", h.DetectVideo)
		api.GET("/detections", h.ListDetections)
		api.GET("/detections/:id", h.GetDetection)
		api.DELETE("/detections/:id", h.DeleteDetection)
		api.GET("/detections/:id/output", h.GetDetectionOutput)
		api.GET("/health", h.CheckHealth)
	}
}

// DetectImage ищет разметку на загруженном изображении
func (h *DetectionHandler) DetectImage(c *gin.Context) {
	h.logger.Info("Получен запрос на поиск разметки на изображении")

	if err := c.Request.ParseMultipartForm(maxUploadMemory); err != nil {
		h.logger.Errorf("Ошибка парсинга multipart form: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ошибка парсинга формы"})
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		h.logger.Errorf("Ошибка получения файла изображения: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Файл изображения обязателен"})
		return
	}
	defer file.Close()

	result, err := h.detectionService.ProcessImage(header.Filename, file)
	if err != nil {
		h.respondError(c, err, "Ошибка обработки изображения")
		return
	}

	h.logger.Infof("Изображение %s обработано, найдено линий: %d", header.Filename, len(result.Lanes))
	c.JSON(http.StatusOK, result)
}

// DetectVideo обрабатывает загруженное видео
func (h *DetectionHandler) DetectVideo(c *gin.Context) {
	h.logger.Info("Получен запрос на обработку видео")

	if !media.VideoSupported() {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Обработка видео недоступна в этой сборке"})
		return
	}

	if err := c.Request.ParseMultipartForm(maxUploadMemory); err != nil {
		h.logger.Errorf("Ошибка парсинга multipart form: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ошибка парсинга формы"})
		return
	}

	file, header, err := c.Request.FormFile("video")
	if err != nil {
		h.logger.Errorf("Ошибка получения видео файла: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Видео файл обязателен"})
		return
	}
	defer file.Close()

	result, err := h.detectionService.ProcessVideo(c.Request.Context(), header.Filename, file)
	if err != nil {
		h.respondError(c, err, "Ошибка обработки видео")
		return
	}

	h.logger.Infof("Видео %s обработано: %d кадров", header.Filename, result.Stats.TotalFrames)
	c.JSON(http.StatusOK, result)
}

// ListDetections возвращает список обработок с пагинацией
func (h *DetectionHandler) ListDetections(c *gin.Context) {
	h.logger.Info("Получен запрос на получение списка обработок")

	// Получаем параметры пагинации
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	size, err := strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil || size < 1 || size > 100 {
		size = 10
	}

	response, err := h.detectionService.ListDetections(page, size)
	if err != nil {
		h.respondError(c, err, "Ошибка получения списка обработок")
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetDetection возвращает обработку по ID
func (h *DetectionHandler) GetDetection(c *gin.Context) {
	id := c.Param("id")
	h.logger.Infof("Получен запрос на получение обработки с ID: %s", id)

	detection, err := h.detectionService.GetDetection(id)
	if err != nil {
		h.respondError(c, err, "Ошибка получения обработки")
		return
	}

	c.JSON(http.StatusOK, detection)
}

// DeleteDetection удаляет обработку по ID
func (h *DetectionHandler) DeleteDetection(c *gin.Context) {
	id := c.Param("id")
	h.logger.Infof("Получен запрос на удаление обработки с ID: %s", id)

	if err := h.detectionService.DeleteDetection(id); err != nil {
		h.respondError(c, err, "Ошибка удаления обработки")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Обработка успешно удалена"})
}

// GetDetectionOutput возвращает аннотированный файл обработки
func (h *DetectionHandler) GetDetectionOutput(c *gin.Context) {
	id := c.Param("id")

	path, err := h.detectionService.OutputPath(id)
	if err != nil {
		h.respondError(c, err, "Ошибка получения результата")
		return
	}

	if path == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Результат обработки не найден"})
		return
	}

	c.File(path)
}

// CheckHealth проверяет состояние сервиса
func (h *DetectionHandler) CheckHealth(c *gin.Context) {
	response := models.HealthResponse{
		Status:         "healthy",
		Database:       "ok",
		Backend:        h.detector.Backend(),
		VideoSupported: media.VideoSupported(),
		Version:        Version,
	}

	if err := h.healthCheck(); err != nil {
		h.logger.Errorf("База данных недоступна: %v", err)
		response.Status = "unhealthy"
		response.Database = err.Error()
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}

// respondError выбирает HTTP статус по типу ошибки
func (h *DetectionHandler) respondError(c *gin.Context, err error, message string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
		message = "Обработка не найдена"
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
		message = "Файл не удалось прочитать"
	case errors.Is(err, media.ErrVideoUnsupported):
		status = http.StatusNotImplemented
		message = "Обработка видео недоступна в этой сборке"
	}

	if status == http.StatusInternalServerError {
		h.logger.Errorf("%s: %v", message, err)
	} else {
		h.logger.Warnf("%s: %v", message, err)
	}
	c.JSON(status, gin.H{"error": message})
}
