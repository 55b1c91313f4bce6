package vision

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"lane-detector-go/internal/lane"
)

// HSVRange диапазон цвета в шкале OpenCV для 8-битных изображений:
// H от 0 до 180, S и V от 0 до 255. Границы включаются.
type HSVRange struct {
	Lower [3]float64
	Upper [3]float64
}

// YellowRange желтая разметка
func YellowRange() HSVRange {
	return HSVRange{
		Lower: [3]float64{20, 50, 50},
		Upper: [3]float64{100, 255, 255},
	}
}

// HoughParams параметры вероятностного преобразования Хафа
type HoughParams struct {
	Rho           float64 // шаг по расстоянию в пикселях
	Theta         float64 // шаг по углу в радианах
	Threshold     int     // минимальное число голосов
	MinLineLength float64
	MaxLineGap    float64
}

// DefaultHoughParams значения, подобранные для дорожной разметки
func DefaultHoughParams() HoughParams {
	return HoughParams{
		Rho:           1,
		Theta:         math.Pi / 180,
		Threshold:     30,
		MinLineLength: 5,
		MaxLineGap:    10,
	}
}

// LineStyle цвет и толщина отрисовки линии
type LineStyle struct {
	Color     color.RGBA
	Thickness int
}

// BlendWeights результат = first*Alpha + second*Beta + Gamma
type BlendWeights struct {
	Alpha float64
	Beta  float64
	Gamma float64
}

// Primitives набор операций компьютерного зрения, которые использует конвейер.
// Реализации не хранят состояние между вызовами.
type Primitives interface {
	// RemapColor возвращает слой, где пиксели из диапазона rng окрашены в to, остальные черные
	RemapColor(img image.Image, rng HSVRange, to color.RGBA) (image.Image, error)
	Grayscale(img image.Image) (*image.Gray, error)
	Blur(img *image.Gray, kernelSize int) (*image.Gray, error)
	DetectEdges(img *image.Gray, low, high float64) (*image.Gray, error)
	// MaskPolygon обнуляет все пиксели вне многоугольника
	MaskPolygon(img *image.Gray, polygon []image.Point) (*image.Gray, error)
	DetectLines(edges *image.Gray, params HoughParams) ([]lane.LineSegment, error)
	// DrawLines рисует линии на черном холсте width x height
	DrawLines(width, height int, lines []lane.LineSegment, style LineStyle) (image.Image, error)
	Blend(first, second image.Image, weights BlendWeights) (image.Image, error)
	Name() string
}

// toGray приводит изображение к *image.Gray с началом координат в нуле
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

func checkSameSize(a, b image.Image) error {
	if a.Bounds().Size() != b.Bounds().Size() {
		return fmt.Errorf("image sizes differ: %v vs %v", a.Bounds().Size(), b.Bounds().Size())
	}
	return nil
}

func checkKernel(kernelSize int) error {
	if kernelSize <= 0 || kernelSize%2 == 0 {
		return fmt.Errorf("blur kernel size must be a positive odd number, got %d", kernelSize)
	}
	return nil
}
