package models

import "time"

// LaneLine граница полосы, продленная до нижнего края кадра
type LaneLine struct {
	Side string `json:"side"` // left или right
	X1   int    `json:"x1"`   // Верхняя точка
	Y1   int    `json:"y1"`
	X2   int    `json:"x2"` // Нижняя точка
	Y2   int    `json:"y2"`
}

// FrameLanes линии, найденные на одном кадре
type FrameLanes struct {
	FrameIndex int       `json:"frame_index"`
	Left       *LaneLine `json:"left,omitempty"`
	Right      *LaneLine `json:"right,omitempty"`
}

// DetectionStats общая статистика обработки
type DetectionStats struct {
	TotalFrames     int   `json:"total_frames"`      // Общее количество кадров
	FramesWithLeft  int   `json:"frames_with_left"`  // Кадры с левой границей
	FramesWithRight int   `json:"frames_with_right"` // Кадры с правой границей
	ProcessingMs    int64 `json:"processing_ms"`     // Время обработки
}

// DetectResponse ответ на загрузку изображения или видео
type DetectResponse struct {
	Status      string         `json:"status"`  // success/error
	Message     string         `json:"message"` // Сообщение о результате
	DetectionID string         `json:"detection_id"`
	Kind        string         `json:"kind"`    // image или video
	Backend     string         `json:"backend"` // Реализация примитивов обработки
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	Lanes       []LaneLine     `json:"lanes"` // Линии на изображении, для видео пусто
	OutputURL   string         `json:"output_url"`
	Stats       DetectionStats `json:"stats"`
}

// DetectionResponse сохраненный результат обработки
type DetectionResponse struct {
	ID             string         `json:"id"`
	SourceFilename string         `json:"source_filename"`
	Kind           string         `json:"kind"`
	Backend        string         `json:"backend"`
	Width          int            `json:"width"`
	Height         int            `json:"height"`
	OutputURL      string         `json:"output_url"`
	Stats          DetectionStats `json:"stats"`
	Frames         []FrameLanes   `json:"frames,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// ListDetectionsResponse ответ со списком обработок
type ListDetectionsResponse struct {
	Detections []DetectionResponse `json:"detections"`
	Total      int64               `json:"total"`
	Page       int                 `json:"page"`
	Size       int                 `json:"size"`
}

// HealthResponse представляет ответ проверки здоровья сервиса
type HealthResponse struct {
	Status         string `json:"status"`          // healthy/unhealthy
	Database       string `json:"database"`        // Состояние базы данных
	Backend        string `json:"backend"`         // Реализация примитивов обработки
	VideoSupported bool   `json:"video_supported"` // Доступна ли обработка видео
	Version        string `json:"version"`
}
