//go:build !gocv
// +build !gocv

package vision

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"lane-detector-go/internal/lane"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformRGBA(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func uniformGray(width, height int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func rgbaAt(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestNewReturnsPure(t *testing.T) {
	assert.Equal(t, "pure-go", New().Name())
}

func TestRemapColor(t *testing.T) {
	p := NewPure()
	img := uniformRGBA(4, 2, color.RGBA{R: 255, G: 255, B: 0, A: 255})
	img.SetRGBA(3, 1, color.RGBA{R: 0, G: 0, B: 255, A: 255})

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	layer, err := p.RemapColor(img, YellowRange(), white)
	require.NoError(t, err)

	assert.Equal(t, white, rgbaAt(layer, 0, 0))
	assert.Equal(t, uint8(0), rgbaAt(layer, 3, 1).R)
	assert.Equal(t, uint8(0), rgbaAt(layer, 3, 1).B)
}

func TestGrayscale(t *testing.T) {
	p := NewPure()

	gray, err := p.Grayscale(uniformRGBA(3, 3, color.White))
	require.NoError(t, err)
	assert.InDelta(t, 255, int(gray.GrayAt(1, 1).Y), 1)

	gray, err = p.Grayscale(uniformRGBA(3, 3, color.Black))
	require.NoError(t, err)
	assert.Equal(t, uint8(0), gray.GrayAt(1, 1).Y)
}

func TestBlurKeepsUniformImage(t *testing.T) {
	p := NewPure()

	blurred, err := p.Blur(uniformGray(16, 16, 128), 5)
	require.NoError(t, err)
	assert.InDelta(t, 128, int(blurred.GrayAt(8, 8).Y), 1)
}

func TestBlurRejectsEvenKernel(t *testing.T) {
	p := NewPure()

	_, err := p.Blur(uniformGray(4, 4, 0), 4)
	assert.Error(t, err)
}

func TestDetectEdgesStep(t *testing.T) {
	p := NewPure()
	img := uniformGray(20, 20, 0)
	for y := 0; y < 20; y++ {
		for x := 10; x < 20; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	edges, err := p.DetectEdges(img, 50, 150)
	require.NoError(t, err)

	onEdge := edges.GrayAt(9, 10).Y == 255 || edges.GrayAt(10, 10).Y == 255
	assert.True(t, onEdge, "step edge not detected")
	assert.Equal(t, uint8(0), edges.GrayAt(3, 10).Y)
	assert.Equal(t, uint8(0), edges.GrayAt(16, 10).Y)
}

func TestDetectEdgesUniform(t *testing.T) {
	p := NewPure()

	edges, err := p.DetectEdges(uniformGray(12, 12, 90), 50, 150)
	require.NoError(t, err)
	for _, v := range edges.Pix {
		require.Equal(t, uint8(0), v)
	}
}

func TestDetectEdgesThresholdOrder(t *testing.T) {
	_, err := NewPure().DetectEdges(uniformGray(4, 4, 0), 150, 50)
	assert.Error(t, err)
}

func TestMaskPolygon(t *testing.T) {
	p := NewPure()
	img := uniformGray(100, 100, 255)

	masked, err := p.MaskPolygon(img, []image.Point{{0, 100}, {50, 40}, {100, 100}})
	require.NoError(t, err)

	assert.Equal(t, uint8(255), masked.GrayAt(50, 90).Y)
	assert.Equal(t, uint8(0), masked.GrayAt(50, 10).Y)
	assert.Equal(t, uint8(0), masked.GrayAt(2, 50).Y)
}

func TestMaskPolygonIsBinary(t *testing.T) {
	p := NewPure()
	img := uniformGray(100, 100, 200)

	masked, err := p.MaskPolygon(img, []image.Point{{0, 100}, {50, 40}, {100, 100}})
	require.NoError(t, err)

	inside := 0
	for i, v := range masked.Pix {
		if v != 0 && v != 200 {
			t.Fatalf("pixel (%d, %d) partially masked: %d", i%masked.Stride, i/masked.Stride, v)
		}
		if v == 200 {
			inside++
		}
	}
	// площадь треугольника 100*60/2
	assert.InDelta(t, 3000, inside, 100)
}

func TestMaskPolygonTooFewVertices(t *testing.T) {
	_, err := NewPure().MaskPolygon(uniformGray(4, 4, 0), []image.Point{{0, 0}, {3, 3}})
	assert.Error(t, err)
}

func TestDetectLinesDiagonal(t *testing.T) {
	p := NewPure()
	edges := uniformGray(260, 260, 0)
	for x := 50; x <= 200; x++ {
		edges.SetGray(x, 250-x, color.Gray{Y: 255})
	}

	segments, err := p.DetectLines(edges, DefaultHoughParams())
	require.NoError(t, err)
	require.Len(t, segments, 1)

	s := segments[0]
	ends := map[image.Point]bool{{s.X1, s.Y1}: true, {s.X2, s.Y2}: true}
	assert.True(t, ends[image.Point{50, 200}], "segment %s", s)
	assert.True(t, ends[image.Point{200, 50}], "segment %s", s)
}

func TestDetectLinesEmpty(t *testing.T) {
	segments, err := NewPure().DetectLines(uniformGray(50, 50, 0), DefaultHoughParams())
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestDetectLinesInvalidParams(t *testing.T) {
	params := DefaultHoughParams()
	params.Theta = 0

	_, err := NewPure().DetectLines(uniformGray(5, 5, 0), params)
	assert.Error(t, err)
}

func TestDrawLines(t *testing.T) {
	p := NewPure()
	red := color.RGBA{R: 255, A: 255}

	canvas, err := p.DrawLines(20, 20, []lane.LineSegment{{X1: 2, Y1: 10, X2: 17, Y2: 10}}, LineStyle{Color: red, Thickness: 4})
	require.NoError(t, err)

	assert.Equal(t, red, rgbaAt(canvas, 10, 10))
	assert.Equal(t, color.RGBA{A: 255}, rgbaAt(canvas, 10, 2))
}

func TestDrawLinesNothing(t *testing.T) {
	canvas, err := NewPure().DrawLines(8, 6, nil, LineStyle{Color: color.RGBA{R: 255, A: 255}, Thickness: 10})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 6), canvas.Bounds())
	assert.Equal(t, color.RGBA{A: 255}, rgbaAt(canvas, 4, 3))
}

func TestBlend(t *testing.T) {
	p := NewPure()
	first := uniformRGBA(4, 4, color.RGBA{R: 100, G: 100, B: 100, A: 255})
	second := uniformRGBA(4, 4, color.RGBA{R: 50, A: 255})

	out, err := p.Blend(first, second, BlendWeights{Alpha: 0.8, Beta: 1, Gamma: 0})
	require.NoError(t, err)

	c := rgbaAt(out, 1, 1)
	assert.InDelta(t, 130, int(c.R), 1)
	assert.InDelta(t, 80, int(c.G), 1)
	assert.InDelta(t, 80, int(c.B), 1)
}

func TestBlendSaturates(t *testing.T) {
	p := NewPure()
	white := uniformRGBA(2, 2, color.White)

	out, err := p.Blend(white, white, BlendWeights{Alpha: 0.8, Beta: 1})
	require.NoError(t, err)
	assert.Equal(t, uint8(255), rgbaAt(out, 0, 0).R)
}

func TestBlendSizeMismatch(t *testing.T) {
	_, err := NewPure().Blend(uniformRGBA(2, 2, color.White), uniformRGBA(3, 2, color.White), BlendWeights{Alpha: 1, Beta: 1})
	assert.Error(t, err)
}
