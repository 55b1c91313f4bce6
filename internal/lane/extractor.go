package lane

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrInvalidGeometry ошибка конфигурации диапазона экстраполяции
var ErrInvalidGeometry = errors.New("invalid extrapolation geometry")

// pixelTolerance относительная погрешность, в пределах которой значение считается целым
const pixelTolerance = 1e-9

// FilterBySlope оставляет отрезки, наклон которых соответствует стороне и окну.
// Вертикальные отрезки отбрасываются всегда.
func FilterBySlope(segments []LineSegment, side Side, window SlopeWindow) []LineSegment {
	kept := make([]LineSegment, 0, len(segments))
	for _, s := range segments {
		slope, ok := s.Slope()
		if !ok {
			continue
		}

		switch side {
		case Left:
			if slope >= 0 {
				continue
			}
		case Right:
			if slope <= 0 {
				continue
			}
		default:
			continue
		}

		if window.Contains(math.Abs(slope)) {
			kept = append(kept, s)
		}
	}
	return kept
}

// FitAndExtrapolate аппроксимирует концы отрезков прямой x = m*y + c методом
// наименьших квадратов и продлевает её до строк yFrom и yTo.
// ok == false, если отрезков нет или система вырождена.
func FitAndExtrapolate(segments []LineSegment, yFrom, yTo int) (ExtrapolatedLine, bool) {
	if len(segments) == 0 {
		return ExtrapolatedLine{}, false
	}

	xs := make([]float64, 0, len(segments)*2)
	ys := make([]float64, 0, len(segments)*2)
	for _, s := range segments {
		xs = append(xs, float64(s.X1), float64(s.X2))
		ys = append(ys, float64(s.Y1), float64(s.Y2))
	}

	// x зависит от y: границы полосы почти вертикальны
	if !hasDistinct(ys) {
		return ExtrapolatedLine{}, false
	}

	c, m := stat.LinearRegression(ys, xs, nil, false)
	if !isFinite(m) || !isFinite(c) {
		return ExtrapolatedLine{}, false
	}

	xFrom := roundUp(m*float64(yFrom) + c)
	xTo := roundUp(m*float64(yTo) + c)
	if !isFinite(xFrom) || !isFinite(xTo) {
		return ExtrapolatedLine{}, false
	}

	return ExtrapolatedLine{
		X1: int(xFrom),
		Y1: yFrom,
		X2: int(xTo),
		Y2: yTo,
	}, true
}

// ValidateRange проверяет диапазон экстраполяции для изображения высотой height
func ValidateRange(r Range, height int) error {
	if r.YFrom > r.YTo {
		return fmt.Errorf("%w: yFrom %d is below yTo %d", ErrInvalidGeometry, r.YFrom, r.YTo)
	}
	if r.YFrom < 0 || r.YTo > height {
		return fmt.Errorf("%w: rows %d..%d outside image height %d", ErrInvalidGeometry, r.YFrom, r.YTo, height)
	}
	return nil
}

// Extractor выделяет одну границу полосы из набора отрезков
type Extractor struct {
	Window SlopeWindow
}

// NewExtractor создает экстрактор с заданным окном наклонов
func NewExtractor(window SlopeWindow) *Extractor {
	return &Extractor{Window: window}
}

// Result итог обработки одной стороны
type Result struct {
	Side  Side
	Raw   []LineSegment
	Kept  []LineSegment
	Line  ExtrapolatedLine
	Found bool
}

// Extract фильтрует отрезки по наклону и строит линию для стороны side.
// Ошибка возвращается только для некорректного диапазона.
func (e *Extractor) Extract(segments []LineSegment, side Side, r Range, height int) (Result, error) {
	if err := ValidateRange(r, height); err != nil {
		return Result{}, err
	}

	kept := FilterBySlope(segments, side, e.Window)
	line, found := FitAndExtrapolate(kept, r.YFrom, r.YTo)

	return Result{
		Side:  side,
		Raw:   segments,
		Kept:  kept,
		Line:  line,
		Found: found,
	}, nil
}

func hasDistinct(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return true
		}
	}
	return false
}

// roundUp округляет вверх; значения, отличающиеся от целого только шумом
// вычислений, округляются до этого целого
func roundUp(v float64) float64 {
	nearest := math.Round(v)
	if math.Abs(v-nearest) < pixelTolerance*math.Max(1, math.Abs(v)) {
		return nearest
	}
	return math.Ceil(v)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
