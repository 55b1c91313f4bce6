package pipeline

import (
	"fmt"
	"image/color"

	"lane-detector-go/internal/geo"
	"lane-detector-go/internal/lane"
	"lane-detector-go/internal/vision"
)

// HighlightConfig подсветка цветной разметки перед переводом в оттенки серого
type HighlightConfig struct {
	Enabled bool
	Range   vision.HSVRange
	Color   color.RGBA
	Weights vision.BlendWeights // слой подсветки * Alpha + кадр * Beta
}

// Config параметры обработки кадра
type Config struct {
	Highlight   HighlightConfig
	BlurKernel  int
	CannyLow    float64
	CannyHigh   float64
	Regions     geo.Fractions
	Hough       vision.HoughParams
	SlopeWindow lane.SlopeWindow
	LineStyle   vision.LineStyle
	Overlay     vision.BlendWeights // кадр * Alpha + слой линий * Beta
}

// DefaultConfig возвращает параметры, подобранные для видео с видеорегистратора
func DefaultConfig() Config {
	return Config{
		Highlight: HighlightConfig{
			Enabled: true,
			Range:   vision.YellowRange(),
			Color:   color.RGBA{R: 255, G: 255, B: 255, A: 255},
			Weights: vision.BlendWeights{Alpha: 0.8, Beta: 1, Gamma: 0},
		},
		BlurKernel:  5,
		CannyLow:    50,
		CannyHigh:   150,
		Regions:     geo.DefaultFractions(),
		Hough:       vision.DefaultHoughParams(),
		SlopeWindow: lane.DefaultSlopeWindow(),
		LineStyle: vision.LineStyle{
			Color:     color.RGBA{R: 255, A: 255},
			Thickness: 10,
		},
		Overlay: vision.BlendWeights{Alpha: 0.8, Beta: 1, Gamma: 0},
	}
}

// Validate проверяет согласованность параметров
func (c Config) Validate() error {
	if c.BlurKernel <= 0 || c.BlurKernel%2 == 0 {
		return fmt.Errorf("blur kernel must be a positive odd number, got %d", c.BlurKernel)
	}
	if c.CannyLow < 0 || c.CannyLow > c.CannyHigh {
		return fmt.Errorf("invalid canny thresholds %.1f/%.1f", c.CannyLow, c.CannyHigh)
	}
	if c.SlopeWindow.MinSlope < 0 || c.SlopeWindow.MinSlope > c.SlopeWindow.MaxSlope {
		return fmt.Errorf("invalid slope window %.2f..%.2f", c.SlopeWindow.MinSlope, c.SlopeWindow.MaxSlope)
	}
	if c.Hough.Rho <= 0 || c.Hough.Theta <= 0 || c.Hough.Threshold <= 0 {
		return fmt.Errorf("invalid hough parameters %+v", c.Hough)
	}
	if c.LineStyle.Thickness <= 0 {
		return fmt.Errorf("line thickness must be positive, got %d", c.LineStyle.Thickness)
	}
	return nil
}
