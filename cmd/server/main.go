package main

import (
	"fmt"
	"os"

	"lane-detector-go/internal/config"
	"lane-detector-go/internal/database"
	"lane-detector-go/internal/handler"
	"lane-detector-go/internal/media"
	"lane-detector-go/internal/pipeline"
	"lane-detector-go/internal/repository"
	"lane-detector-go/internal/service"
	"lane-detector-go/internal/vision"

	"github.com/sirupsen/logrus"
)

func main() {
	// Получаем конфигурацию из переменных окружения
	cfg := config.LoadConfig()

	// Инициализируем логгер
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.Info("Запуск Lane Detector API Server")

	// Инициализируем базу данных
	logger.Info("Подключение к базе данных...")
	if err := database.Connect(cfg.Database, logger); err != nil {
		logger.Fatalf("Ошибка подключения к базе данных: %v", err)
	}
	defer database.Close()

	// Выполняем миграции
	if err := database.Migrate(logger); err != nil {
		logger.Fatalf("Ошибка выполнения миграций: %v", err)
	}

	// Проверяем здоровье базы данных
	if err := database.HealthCheck(); err != nil {
		logger.Fatalf("База данных недоступна: %v", err)
	}

	logger.Info("База данных успешно подключена и готова к работе")

	// Создаем папку для статических файлов
	if err := os.MkdirAll(cfg.Storage.StaticDir, 0755); err != nil {
		logger.Fatalf("Ошибка создания папки для статических файлов: %v", err)
	}

	// Конвейер обработки кадров
	pipelineCfg := pipeline.DefaultConfig()
	pipelineCfg.SlopeWindow = cfg.Pipeline.SlopeWindow
	prims := vision.New()
	lanePipeline, err := pipeline.New(pipelineCfg, prims, logger)
	if err != nil {
		logger.Fatalf("Ошибка настройки конвейера: %v", err)
	}
	logger.WithFields(logrus.Fields{
		"backend": prims.Name(),
		"video":   media.VideoSupported(),
		"workers": cfg.Pipeline.Workers,
	}).Info("Конвейер обработки готов")

	// Инициализируем репозитории
	detectionRepo := repository.NewDetectionRepository(database.DB)

	// Инициализируем сервисы
	detectorService := service.NewDetectorService(lanePipeline, cfg.Pipeline.Workers, logger)
	detectionService := service.NewDetectionService(detectionRepo, detectorService, logger, cfg.Storage.StaticDir)

	// Инициализируем обработчики
	detectionHandler := handler.NewDetectionHandler(detectionService, detectorService, database.HealthCheck, logger)
	router := handler.NewRouter(detectionHandler, cfg.Storage.StaticDir, cfg.Server.Environment == "production")

	// Запускаем сервер
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Сервер запущен на %s", serverAddr)
	logger.Infof("API доступно по адресу: http://localhost:%d/api/v1", cfg.Server.Port)

	if err := router.Run(serverAddr); err != nil {
		logger.Fatalf("Ошибка запуска сервера: %v", err)
	}
}
