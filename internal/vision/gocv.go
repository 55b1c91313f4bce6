//go:build gocv
// +build gocv

package vision

import (
	"fmt"
	"image"
	"image/color"

	"lane-detector-go/internal/lane"

	"gocv.io/x/gocv"
)

// GoCV реализация примитивов поверх OpenCV
type GoCV struct{}

// NewGoCV создает реализацию примитивов на OpenCV
func NewGoCV() *GoCV {
	return &GoCV{}
}

// New возвращает примитивы, доступные в текущей сборке
func New() Primitives {
	return NewGoCV()
}

// Name имя реализации
func (g *GoCV) Name() string {
	return "opencv"
}

// RemapColor окрашивает пиксели из диапазона HSV в цвет to
func (g *GoCV) RemapColor(img image.Image, rng HSVRange, to color.RGBA) (image.Image, error) {
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer src.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(src, &hsv, gocv.ColorBGRToHSV)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(hsv,
		gocv.NewScalar(rng.Lower[0], rng.Lower[1], rng.Lower[2], 0),
		gocv.NewScalar(rng.Upper[0], rng.Upper[1], rng.Upper[2], 0),
		&mask)

	colored := gocv.NewMatWithSizeFromScalar(bgrScalar(to), src.Rows(), src.Cols(), gocv.MatTypeCV8UC3)
	defer colored.Close()

	layer := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), src.Rows(), src.Cols(), gocv.MatTypeCV8UC3)
	defer layer.Close()
	colored.CopyToWithMask(&layer, mask)

	return layer.ToImage()
}

// Grayscale переводит изображение в оттенки серого
func (g *GoCV) Grayscale(img image.Image) (*image.Gray, error) {
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	return grayFromMat(gray)
}

// Blur гауссово размытие
func (g *GoCV) Blur(img *image.Gray, kernelSize int) (*image.Gray, error) {
	if err := checkKernel(kernelSize); err != nil {
		return nil, err
	}

	src, err := gocv.ImageGrayToMatGray(toGray(img))
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer src.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(src, &blurred, image.Point{X: kernelSize, Y: kernelSize}, 0, 0, gocv.BorderDefault)

	return grayFromMat(blurred)
}

// DetectEdges детектор Кэнни
func (g *GoCV) DetectEdges(img *image.Gray, low, high float64) (*image.Gray, error) {
	src, err := gocv.ImageGrayToMatGray(toGray(img))
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer src.Close()

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(src, &edges, float32(low), float32(high))

	return grayFromMat(edges)
}

// MaskPolygon оставляет пиксели внутри многоугольника
func (g *GoCV) MaskPolygon(img *image.Gray, polygon []image.Point) (*image.Gray, error) {
	if len(polygon) < 3 {
		return nil, fmt.Errorf("polygon needs at least 3 vertices, got %d", len(polygon))
	}

	src, err := gocv.ImageGrayToMatGray(toGray(img))
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer src.Close()

	mask := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), src.Rows(), src.Cols(), gocv.MatTypeCV8U)
	defer mask.Close()

	pts := gocv.NewPointsVectorFromPoints([][]image.Point{polygon})
	defer pts.Close()
	gocv.FillPoly(&mask, pts, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	masked := gocv.NewMat()
	defer masked.Close()
	gocv.BitwiseAnd(src, mask, &masked)

	return grayFromMat(masked)
}

// DetectLines вероятностное преобразование Хафа
func (g *GoCV) DetectLines(edges *image.Gray, params HoughParams) ([]lane.LineSegment, error) {
	src, err := gocv.ImageGrayToMatGray(toGray(edges))
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer src.Close()

	lines := gocv.NewMat()
	defer lines.Close()
	gocv.HoughLinesPWithParams(src, &lines,
		float32(params.Rho), float32(params.Theta), params.Threshold,
		float32(params.MinLineLength), float32(params.MaxLineGap))

	segments := make([]lane.LineSegment, 0, lines.Rows())
	for i := 0; i < lines.Rows(); i++ {
		v := lines.GetVeciAt(i, 0)
		segments = append(segments, lane.LineSegment{
			X1: int(v[0]),
			Y1: int(v[1]),
			X2: int(v[2]),
			Y2: int(v[3]),
		})
	}
	return segments, nil
}

// DrawLines рисует отрезки на черном холсте
func (g *GoCV) DrawLines(width, height int, lines []lane.LineSegment, style LineStyle) (image.Image, error) {
	canvas := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC3)
	defer canvas.Close()

	for _, l := range lines {
		gocv.Line(&canvas, image.Pt(l.X1, l.Y1), image.Pt(l.X2, l.Y2), style.Color, style.Thickness)
	}

	return canvas.ToImage()
}

// Blend взвешенная сумма двух изображений
func (g *GoCV) Blend(first, second image.Image, weights BlendWeights) (image.Image, error) {
	if err := checkSameSize(first, second); err != nil {
		return nil, err
	}

	a, err := gocv.ImageToMatRGB(first)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer a.Close()

	b, err := gocv.ImageToMatRGB(second)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer b.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.AddWeighted(a, weights.Alpha, b, weights.Beta, weights.Gamma, &dst)

	return dst.ToImage()
}

func bgrScalar(c color.RGBA) gocv.Scalar {
	return gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), 0)
}

func grayFromMat(m gocv.Mat) (*image.Gray, error) {
	img, err := m.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert mat: %w", err)
	}
	return toGray(img), nil
}
