package service

import (
	"errors"
	"time"

	"lane-detector-go/internal/lane"
	"lane-detector-go/internal/model"
	"lane-detector-go/internal/pipeline"
	"lane-detector-go/pkg/models"
)

// ErrInvalidInput загруженный файл не удалось прочитать как изображение или видео
var ErrInvalidInput = errors.New("invalid input file")

// ImageResult результат обработки одного изображения
type ImageResult struct {
	Frame    *pipeline.FrameResult
	Backend  string
	Duration time.Duration
}

// VideoResult результат обработки видео
type VideoResult struct {
	Summary  *pipeline.StreamSummary
	Backend  string
	Width    int
	Height   int
	FPS      float64
	Duration time.Duration
}

// laneLine преобразует найденную линию в ответ API
func laneLine(side lane.Side, line lane.ExtrapolatedLine) *models.LaneLine {
	return &models.LaneLine{
		Side: side.String(),
		X1:   line.X1,
		Y1:   line.Y1,
		X2:   line.X2,
		Y2:   line.Y2,
	}
}

// laneFrame строит строку таблицы кадров
func laneFrame(index int, left, right *lane.ExtrapolatedLine) model.LaneFrame {
	frame := model.LaneFrame{FrameIndex: index}
	if left != nil {
		frame.HasLeft = true
		frame.LeftX1, frame.LeftY1, frame.LeftX2, frame.LeftY2 = left.X1, left.Y1, left.X2, left.Y2
	}
	if right != nil {
		frame.HasRight = true
		frame.RightX1, frame.RightY1, frame.RightX2, frame.RightY2 = right.X1, right.Y1, right.X2, right.Y2
	}
	return frame
}

// frameLanes преобразует строку таблицы кадров в ответ API
func frameLanes(f model.LaneFrame) models.FrameLanes {
	out := models.FrameLanes{FrameIndex: f.FrameIndex}
	if f.HasLeft {
		out.Left = laneLine(lane.Left, lane.LineSegment{X1: f.LeftX1, Y1: f.LeftY1, X2: f.LeftX2, Y2: f.LeftY2})
	}
	if f.HasRight {
		out.Right = laneLine(lane.Right, lane.LineSegment{X1: f.RightX1, Y1: f.RightY1, X2: f.RightX2, Y2: f.RightY2})
	}
	return out
}
