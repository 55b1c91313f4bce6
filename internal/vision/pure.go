//go:build !gocv
// +build !gocv

package vision

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"lane-detector-go/internal/lane"

	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/fcolor"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/vector"
)

// Pure реализация примитивов без OpenCV. Используется в сборке без тега gocv.
type Pure struct{}

// NewPure создает реализацию примитивов на чистом Go
func NewPure() *Pure {
	return &Pure{}
}

// New возвращает примитивы, доступные в текущей сборке
func New() Primitives {
	return NewPure()
}

// Name имя реализации
func (p *Pure) Name() string {
	return "pure-go"
}

// RemapColor окрашивает пиксели из диапазона HSV в цвет to
func (p *Pure) RemapColor(img image.Image, rng HSVRange, to color.RGBA) (image.Image, error) {
	b := img.Bounds()
	layer := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c, ok := colorful.MakeColor(img.At(x+b.Min.X, y+b.Min.Y))
			if !ok {
				continue
			}
			h, s, v := c.Hsv()
			if rng.contains(h/2, s*255, v*255) {
				layer.SetRGBA(x, y, to)
			}
		}
	}

	return layer, nil
}

func (r HSVRange) contains(h, s, v float64) bool {
	values := [3]float64{h, s, v}
	for i, value := range values {
		if value < r.Lower[i] || value > r.Upper[i] {
			return false
		}
	}
	return true
}

// Grayscale переводит изображение в оттенки серого
func (p *Pure) Grayscale(img image.Image) (*image.Gray, error) {
	return toGray(effect.Grayscale(img)), nil
}

// Blur гауссово размытие с квадратным ядром kernelSize
func (p *Pure) Blur(img *image.Gray, kernelSize int) (*image.Gray, error) {
	if err := checkKernel(kernelSize); err != nil {
		return nil, err
	}
	return toGray(imaging.Blur(img, gaussianSigma(kernelSize))), nil
}

// gaussianSigma сигма, которую OpenCV выбирает для ядра при sigma = 0
func gaussianSigma(kernelSize int) float64 {
	return 0.3*((float64(kernelSize)-1)*0.5-1) + 0.8
}

// DetectEdges детектор границ Кэнни с порогами в шкале 0-255
func (p *Pure) DetectEdges(img *image.Gray, low, high float64) (*image.Gray, error) {
	if low > high {
		return nil, fmt.Errorf("canny low threshold %.1f above high threshold %.1f", low, high)
	}
	return canny(img, low, high), nil
}

// MaskPolygon оставляет пиксели внутри многоугольника
func (p *Pure) MaskPolygon(img *image.Gray, polygon []image.Point) (*image.Gray, error) {
	if len(polygon) < 3 {
		return nil, fmt.Errorf("polygon needs at least 3 vertices, got %d", len(polygon))
	}

	b := img.Bounds()
	r := vector.NewRasterizer(b.Dx(), b.Dy())
	r.MoveTo(float32(polygon[0].X-b.Min.X), float32(polygon[0].Y-b.Min.Y))
	for _, pt := range polygon[1:] {
		r.LineTo(float32(pt.X-b.Min.X), float32(pt.Y-b.Min.Y))
	}
	r.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, b.Dx(), b.Dy()))
	r.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	// пиксель внутри, если покрыт хотя бы наполовину
	for i, a := range mask.Pix {
		if a >= 0x80 {
			mask.Pix[i] = 0xff
		} else {
			mask.Pix[i] = 0
		}
	}

	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.DrawMask(dst, dst.Bounds(), img, b.Min, mask, image.Point{}, draw.Over)
	return dst, nil
}

// DetectLines вероятностное преобразование Хафа
func (p *Pure) DetectLines(edges *image.Gray, params HoughParams) ([]lane.LineSegment, error) {
	if params.Rho <= 0 || params.Theta <= 0 {
		return nil, fmt.Errorf("hough resolution must be positive: rho %.3f theta %.5f", params.Rho, params.Theta)
	}
	return houghLinesP(toGray(edges), params), nil
}

// DrawLines рисует отрезки заданной толщины на черном холсте
func (p *Pure) DrawLines(width, height int, lines []lane.LineSegment, style LineStyle) (image.Image, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	if len(lines) == 0 {
		return canvas, nil
	}

	half := float64(style.Thickness) / 2
	if half < 0.5 {
		half = 0.5
	}

	r := vector.NewRasterizer(width, height)
	for _, l := range lines {
		dx := float64(l.X2 - l.X1)
		dy := float64(l.Y2 - l.Y1)
		length := math.Hypot(dx, dy)
		if length == 0 {
			dx, dy, length = 1, 0, 1
		}
		// нормаль к отрезку
		nx := -dy / length * half
		ny := dx / length * half
		// продлеваем концы на половину толщины, как скругленные концы OpenCV
		ex := dx / length * half
		ey := dy / length * half

		x1, y1 := float64(l.X1)-ex, float64(l.Y1)-ey
		x2, y2 := float64(l.X2)+ex, float64(l.Y2)+ey

		r.MoveTo(float32(x1+nx), float32(y1+ny))
		r.LineTo(float32(x2+nx), float32(y2+ny))
		r.LineTo(float32(x2-nx), float32(y2-ny))
		r.LineTo(float32(x1-nx), float32(y1-ny))
		r.ClosePath()
	}
	r.Draw(canvas, canvas.Bounds(), image.NewUniform(style.Color), image.Point{})

	return canvas, nil
}

// Blend взвешенная сумма двух изображений одного размера
func (p *Pure) Blend(first, second image.Image, weights BlendWeights) (image.Image, error) {
	if err := checkSameSize(first, second); err != nil {
		return nil, err
	}

	gamma := weights.Gamma / 255
	result := blend.Blend(first, second, func(c0, c1 fcolor.RGBAF64) fcolor.RGBAF64 {
		return fcolor.RGBAF64{
			R: clampUnit(c0.R*weights.Alpha + c1.R*weights.Beta + gamma),
			G: clampUnit(c0.G*weights.Alpha + c1.G*weights.Beta + gamma),
			B: clampUnit(c0.B*weights.Alpha + c1.B*weights.Beta + gamma),
			A: 1,
		}
	})
	return result, nil
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
