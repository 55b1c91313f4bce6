package geo

import (
	"errors"
	"fmt"
	"image"
	"math"

	"lane-detector-go/internal/lane"
)

// ErrFrameTooSmall кадр слишком мал, чтобы построить области интереса
var ErrFrameTooSmall = errors.New("frame too small for lane regions")

// Fractions доли ширины и высоты кадра, задающие области интереса
type Fractions struct {
	ApexHalfWidth float64 // полуширина вершины трапеции относительно ширины
	HorizonShift  float64 // смещение вершины ниже середины кадра относительно высоты
	VisibleShift  float64 // дополнительный отступ до начала отрисовки линии
}

// DefaultFractions подобраны для фронтальной камеры
func DefaultFractions() Fractions {
	return Fractions{
		ApexHalfWidth: 0.05,
		HorizonShift:  0.11,
		VisibleShift:  0.06,
	}
}

// Regions области интереса и диапазон экстраполяции для кадра
type Regions struct {
	Left  []image.Point
	Right []image.Point
	Range lane.Range
}

// Calculator для вычислений геометрии кадра
type Calculator struct {
	fractions Fractions
}

// NewCalculator создает новый калькулятор
func NewCalculator(fractions Fractions) *Calculator {
	return &Calculator{fractions: fractions}
}

// Regions вычисляет левую и правую трапеции и диапазон строк для кадра width x height
func (c *Calculator) Regions(width, height int) (Regions, error) {
	if width <= 0 || height <= 0 {
		return Regions{}, fmt.Errorf("%w: invalid frame size %dx%d", ErrFrameTooSmall, width, height)
	}

	w := float64(width)
	h := float64(height)

	middleX := ceil(w / 2)
	middleY := ceil(h / 2)
	shiftX := ceil(c.fractions.ApexHalfWidth * w)
	shiftY := ceil(c.fractions.HorizonShift * h)
	shiftYVisible := ceil(c.fractions.VisibleShift * h)

	apexY := middleY + shiftY

	regions := Regions{
		Left: []image.Point{
			{X: 0, Y: height},
			{X: middleX - shiftX, Y: apexY},
			{X: middleX, Y: apexY},
			{X: middleX, Y: height},
		},
		Right: []image.Point{
			{X: middleX, Y: height},
			{X: middleX, Y: apexY},
			{X: middleX + shiftX, Y: apexY},
			{X: width, Y: height},
		},
		Range: lane.Range{
			YFrom: apexY + shiftYVisible,
			YTo:   height,
		},
	}

	if err := lane.ValidateRange(regions.Range, height); err != nil {
		return Regions{}, fmt.Errorf("%w: %dx%d: %v", ErrFrameTooSmall, width, height, err)
	}

	return regions, nil
}

// Region возвращает трапецию для стороны
func (r Regions) Region(side lane.Side) []image.Point {
	if side == lane.Left {
		return r.Left
	}
	return r.Right
}

func ceil(v float64) int {
	return int(math.Ceil(v))
}
