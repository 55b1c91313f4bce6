package repository

import (
	"fmt"
	"io"
	"testing"
	"time"

	"lane-detector-go/internal/database"
	"lane-detector-go/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	db, err := database.Open(database.Config{Driver: database.DriverSQLite, Path: ":memory:"}, logger)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Detection{}, &model.LaneFrame{}))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func sampleDetection(id string) *model.Detection {
	return &model.Detection{
		ID:              id,
		SourceFilename:  "solidWhiteRight.mp4",
		Kind:            model.KindVideo,
		Width:           960,
		Height:          540,
		TotalFrames:     3,
		FramesWithLeft:  2,
		FramesWithRight: 3,
		Frames: []model.LaneFrame{
			{FrameIndex: 2, HasRight: true, RightX1: 539, RightY1: 363, RightX2: 834, RightY2: 540},
			{FrameIndex: 0, HasLeft: true, LeftX1: 329, LeftY1: 363, LeftX2: 34, LeftY2: 540, HasRight: true},
			{FrameIndex: 1, HasLeft: true, HasRight: true},
		},
	}
}

func TestCreateAndGetByID(t *testing.T) {
	repo := NewDetectionRepository(newTestDB(t))

	require.NoError(t, repo.Create(sampleDetection("d-1")))

	got, err := repo.GetByID("d-1")
	require.NoError(t, err)

	assert.Equal(t, "solidWhiteRight.mp4", got.SourceFilename)
	assert.Equal(t, model.KindVideo, got.Kind)
	assert.Equal(t, 3, got.TotalFrames)
	assert.False(t, got.CreatedAt.IsZero())

	require.Len(t, got.Frames, 3)
	for i, f := range got.Frames {
		assert.Equal(t, i, f.FrameIndex)
		assert.Equal(t, "d-1", f.DetectionID)
	}
	assert.Equal(t, 834, got.Frames[2].RightX2)
	assert.Equal(t, 34, got.Frames[0].LeftX2)
}

func TestGetByIDNotFound(t *testing.T) {
	repo := NewDetectionRepository(newTestDB(t))

	_, err := repo.GetByID("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateDuplicateIDFails(t *testing.T) {
	repo := NewDetectionRepository(newTestDB(t))

	require.NoError(t, repo.Create(sampleDetection("dup")))
	assert.Error(t, repo.Create(sampleDetection("dup")))
}

func TestListPaginates(t *testing.T) {
	db := newTestDB(t)
	repo := NewDetectionRepository(db)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		d := &model.Detection{
			ID:             fmt.Sprintf("d-%d", i),
			SourceFilename: fmt.Sprintf("frame%d.jpg", i),
			Kind:           model.KindImage,
			Width:          960,
			Height:         540,
			TotalFrames:    1,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(d))
	}

	page1, total, err := repo.List(1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page1, 2)
	assert.Equal(t, "d-4", page1[0].ID)
	assert.Equal(t, "d-3", page1[1].ID)

	page3, _, err := repo.List(3, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, "d-0", page3[0].ID)

	empty, _, err := repo.List(4, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewDetectionRepository(db)
	require.NoError(t, repo.Create(sampleDetection("d-1")))

	require.NoError(t, repo.Delete("d-1"))

	_, err := repo.GetByID("d-1")
	assert.ErrorIs(t, err, ErrNotFound)

	var frames int64
	require.NoError(t, db.Model(&model.LaneFrame{}).Where("detection_id = ?", "d-1").Count(&frames).Error)
	assert.Zero(t, frames)

	assert.ErrorIs(t, repo.Delete("d-1"), ErrNotFound)
}
