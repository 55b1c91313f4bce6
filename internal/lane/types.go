package lane

import "fmt"

// LineSegment отрезок прямой в пиксельных координатах изображения.
// Начало координат в левом верхнем углу, ось Y направлена вниз.
type LineSegment struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Slope возвращает наклон отрезка. ok == false для вертикального отрезка.
func (s LineSegment) Slope() (slope float64, ok bool) {
	if s.X2 == s.X1 {
		return 0, false
	}
	return float64(s.Y2-s.Y1) / float64(s.X2-s.X1), true
}

func (s LineSegment) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", s.X1, s.Y1, s.X2, s.Y2)
}

// Side сторона полосы движения
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

// SlopeWindow допустимый диапазон модуля наклона границы полосы
type SlopeWindow struct {
	MinSlope float64
	MaxSlope float64
}

// DefaultSlopeWindow подобран для фронтальной камеры на приборной панели
func DefaultSlopeWindow() SlopeWindow {
	return SlopeWindow{MinSlope: 0.4, MaxSlope: 0.8}
}

// Contains проверяет модуль наклона, границы включаются
func (w SlopeWindow) Contains(magnitude float64) bool {
	return magnitude >= w.MinSlope && magnitude <= w.MaxSlope
}

// ExtrapolatedLine итоговая линия одной стороны: Y1 и Y2 заданы вызывающим кодом,
// X1 и X2 получены из аппроксимации.
type ExtrapolatedLine = LineSegment

// Range строки изображения, до которых продлевается линия
type Range struct {
	YFrom int
	YTo   int
}
