//go:build !gocv
// +build !gocv

package vision

import (
	"image"
	"math"
	"math/rand"

	"lane-detector-go/internal/lane"
)

// houghSeed фиксирует порядок обхода точек, чтобы результат был воспроизводимым
const houghSeed = 0x1a2b3c

const houghShift = 16

// houghLinesP прогрессивное вероятностное преобразование Хафа (Matas et al.),
// повторяет поведение cv::HoughLinesP.
func houghLinesP(edges *image.Gray, params HoughParams) []lane.LineSegment {
	width, height := edges.Rect.Dx(), edges.Rect.Dy()
	numAngle := int(math.Round(math.Pi / params.Theta))
	numRho := int(math.Round(float64((width+height)*2+1) / params.Rho))
	if numAngle <= 0 || numRho <= 0 {
		return nil
	}

	irho := 1 / params.Rho
	cosTab := make([]float64, numAngle)
	sinTab := make([]float64, numAngle)
	for n := 0; n < numAngle; n++ {
		angle := float64(n) * params.Theta
		cosTab[n] = math.Cos(angle) * irho
		sinTab[n] = math.Sin(angle) * irho
	}

	accum := make([]int, numAngle*numRho)
	mask := make([]bool, width*height)
	points := make([]image.Point, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if edges.Pix[y*edges.Stride+x] != 0 {
				mask[y*width+x] = true
				points = append(points, image.Point{X: x, Y: y})
			}
		}
	}

	rng := rand.New(rand.NewSource(houghSeed))
	rng.Shuffle(len(points), func(i, j int) {
		points[i], points[j] = points[j], points[i]
	})

	rhoOffset := (numRho - 1) / 2
	vote := func(x, y, delta int) (maxVal, maxN int) {
		maxVal = params.Threshold - 1
		for n := 0; n < numAngle; n++ {
			r := int(math.Round(float64(x)*cosTab[n]+float64(y)*sinTab[n])) + rhoOffset
			idx := r*numAngle + n
			accum[idx] += delta
			if delta > 0 && maxVal < accum[idx] {
				maxVal = accum[idx]
				maxN = n
			}
		}
		return maxVal, maxN
	}

	lineGap := int(params.MaxLineGap)
	lineLength := int(params.MinLineLength)
	segments := make([]lane.LineSegment, 0)

	for _, pt := range points {
		if !mask[pt.Y*width+pt.X] {
			continue
		}

		maxVal, maxN := vote(pt.X, pt.Y, 1)
		if maxVal < params.Threshold {
			continue
		}

		// направление вдоль найденной прямой
		a := -sinTab[maxN]
		b := cosTab[maxN]
		x0, y0 := pt.X, pt.Y
		var dx0, dy0 int
		xflag := math.Abs(a) > math.Abs(b)
		if xflag {
			dx0 = sign(a)
			dy0 = int(math.Round(b * (1 << houghShift) / math.Abs(a)))
			y0 = (y0 << houghShift) + (1 << (houghShift - 1))
		} else {
			dy0 = sign(b)
			dx0 = int(math.Round(a * (1 << houghShift) / math.Abs(b)))
			x0 = (x0 << houghShift) + (1 << (houghShift - 1))
		}

		toPixel := func(x, y int) (int, int) {
			if xflag {
				return x, y >> houghShift
			}
			return x >> houghShift, y
		}

		var ends [2]image.Point
		for k := 0; k < 2; k++ {
			gap := 0
			x, y, dx, dy := x0, y0, dx0, dy0
			if k > 0 {
				dx, dy = -dx, -dy
			}
			for ; ; x, y = x+dx, y+dy {
				j1, i1 := toPixel(x, y)
				if j1 < 0 || j1 >= width || i1 < 0 || i1 >= height {
					break
				}
				if mask[i1*width+j1] {
					gap = 0
					ends[k] = image.Point{X: j1, Y: i1}
				} else if gap++; gap > lineGap {
					break
				}
			}
		}

		good := abs(ends[1].X-ends[0].X) >= lineLength || abs(ends[1].Y-ends[0].Y) >= lineLength

		for k := 0; k < 2; k++ {
			x, y, dx, dy := x0, y0, dx0, dy0
			if k > 0 {
				dx, dy = -dx, -dy
			}
			for ; ; x, y = x+dx, y+dy {
				j1, i1 := toPixel(x, y)
				if j1 < 0 || j1 >= width || i1 < 0 || i1 >= height {
					break
				}
				if mask[i1*width+j1] {
					if good {
						vote(j1, i1, -1)
					}
					mask[i1*width+j1] = false
				}
				if i1 == ends[k].Y && j1 == ends[k].X {
					break
				}
			}
		}

		if good {
			segments = append(segments, lane.LineSegment{
				X1: ends[0].X + edges.Rect.Min.X,
				Y1: ends[0].Y + edges.Rect.Min.Y,
				X2: ends[1].X + edges.Rect.Min.X,
				Y2: ends[1].Y + edges.Rect.Min.Y,
			})
		}
	}

	return segments
}

func sign(v float64) int {
	if v > 0 {
		return 1
	}
	return -1
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
