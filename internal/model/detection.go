package model

import (
	"time"

	"gorm.io/gorm"
)

// Типы обрабатываемых файлов
const (
	KindImage = "image"
	KindVideo = "video"
)

// Detection представляет результат обработки изображения или видео в базе данных
type Detection struct {
	ID             string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SourceFilename string `gorm:"type:varchar(255);not null" json:"source_filename"`
	Kind           string `gorm:"type:varchar(16);not null;index" json:"kind"`
	Backend        string `gorm:"type:varchar(32)" json:"backend"`
	Width          int    `gorm:"not null" json:"width"`
	Height         int    `gorm:"not null" json:"height"`
	InputPath      string `gorm:"type:varchar(500)" json:"input_path"`
	OutputPath     string `gorm:"type:varchar(500)" json:"output_path"`

	// Общая статистика
	TotalFrames     int   `gorm:"not null;default:0" json:"total_frames"`
	FramesWithLeft  int   `gorm:"not null;default:0" json:"frames_with_left"`
	FramesWithRight int   `gorm:"not null;default:0" json:"frames_with_right"`
	ProcessingMs    int64 `gorm:"not null;default:0" json:"processing_ms"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Связь с кадрами
	Frames []LaneFrame `gorm:"foreignKey:DetectionID;constraint:OnDelete:CASCADE" json:"frames"`
}

// LaneFrame линии разметки, найденные на одном кадре
type LaneFrame struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	DetectionID string `gorm:"type:varchar(36);not null;index" json:"detection_id"`
	FrameIndex  int    `gorm:"not null" json:"frame_index"`

	HasLeft bool `gorm:"not null" json:"has_left"`
	LeftX1  int  `json:"left_x1"`
	LeftY1  int  `json:"left_y1"`
	LeftX2  int  `json:"left_x2"`
	LeftY2  int  `json:"left_y2"`

	HasRight bool `gorm:"not null" json:"has_right"`
	RightX1  int  `json:"right_x1"`
	RightY1  int  `json:"right_y1"`
	RightX2  int  `json:"right_x2"`
	RightY2  int  `json:"right_y2"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Обратная связь с обработкой
	Detection Detection `gorm:"foreignKey:DetectionID;references:ID" json:"-"`
}

// TableName указывает имя таблицы для Detection
func (Detection) TableName() string {
	return "detections"
}

// TableName указывает имя таблицы для LaneFrame
func (LaneFrame) TableName() string {
	return "lane_frames"
}
