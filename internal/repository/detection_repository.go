package repository

import (
	"errors"
	"fmt"

	"lane-detector-go/internal/model"

	"gorm.io/gorm"
)

// ErrNotFound запись не найдена
var ErrNotFound = errors.New("detection not found")

// DetectionRepository интерфейс для работы с результатами обработки
type DetectionRepository interface {
	Create(detection *model.Detection) error
	GetByID(id string) (*model.Detection, error)
	List(page, pageSize int) ([]*model.Detection, int64, error)
	Delete(id string) error
}

// detectionRepository реализация DetectionRepository
type detectionRepository struct {
	db *gorm.DB
}

// NewDetectionRepository создает новый instance DetectionRepository
func NewDetectionRepository(db *gorm.DB) DetectionRepository {
	return &detectionRepository{
		db: db,
	}
}

// Create сохраняет обработку вместе с кадрами
func (r *detectionRepository) Create(detection *model.Detection) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	// Сначала создаем запись без кадров
	if err := tx.Omit("Frames").Create(detection).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to create detection: %w", err)
	}

	// Затем создаем кадры
	for i := range detection.Frames {
		detection.Frames[i].ID = 0 // Обнуляем ID для auto-increment
		detection.Frames[i].DetectionID = detection.ID
	}
	if len(detection.Frames) > 0 {
		if err := tx.CreateInBatches(detection.Frames, 500).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to create lane frames: %w", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetByID получает обработку по ID вместе с кадрами
func (r *detectionRepository) GetByID(id string) (*model.Detection, error) {
	var detection model.Detection
	err := r.db.Preload("Frames", func(db *gorm.DB) *gorm.DB {
		return db.Order("frame_index ASC")
	}).Where("id = ?", id).First(&detection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("detection %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get detection: %w", err)
	}
	return &detection, nil
}

// List получает список обработок с пагинацией, без кадров
func (r *detectionRepository) List(page, pageSize int) ([]*model.Detection, int64, error) {
	var detections []*model.Detection
	var total int64

	// Подсчитываем общее количество
	if err := r.db.Model(&model.Detection{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count detections: %w", err)
	}

	// Получаем записи с пагинацией
	offset := (page - 1) * pageSize
	err := r.db.
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Order("id").
		Find(&detections).Error

	if err != nil {
		return nil, 0, fmt.Errorf("failed to list detections: %w", err)
	}

	return detections, total, nil
}

// Delete удаляет обработку по ID
func (r *detectionRepository) Delete(id string) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	// Сначала удаляем кадры
	if err := tx.Where("detection_id = ?", id).Delete(&model.LaneFrame{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete lane frames: %w", err)
	}

	// Затем удаляем саму запись
	result := tx.Where("id = ?", id).Delete(&model.Detection{})
	if result.Error != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete detection: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		tx.Rollback()
		return fmt.Errorf("detection %s: %w", id, ErrNotFound)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
