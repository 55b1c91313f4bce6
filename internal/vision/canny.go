//go:build !gocv
// +build !gocv

package vision

import (
	"image"
	"math"
)

// tan(22.5°) для квантования направления градиента
const tan22 = 0.41421356237

// canny детектор Кэнни: оператор Собеля 3x3, L1 норма градиента,
// подавление немаксимумов и гистерезис по 8-связности.
func canny(img *image.Gray, low, high float64) *image.Gray {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, width, height))
	if width < 3 || height < 3 {
		return out
	}

	at := func(x, y int) float64 {
		x = clamp(x, 0, width-1)
		y = clamp(y, 0, height-1)
		return float64(img.Pix[(y+b.Min.Y-img.Rect.Min.Y)*img.Stride+(x+b.Min.X-img.Rect.Min.X)])
	}

	gx := make([]float64, width*height)
	gy := make([]float64, width*height)
	mag := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx := (at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x-1, y) + at(x-1, y+1))
			dy := (at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x, y-1) + at(x+1, y-1))
			i := y*width + x
			gx[i] = dx
			gy[i] = dy
			mag[i] = math.Abs(dx) + math.Abs(dy)
		}
	}

	const (
		none = iota
		weak
		strong
	)
	state := make([]uint8, width*height)
	stack := make([]int, 0, 1024)

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			m := mag[i]
			if m <= low {
				continue
			}

			ax := math.Abs(gx[i])
			ay := math.Abs(gy[i])
			var n1, n2 float64
			switch {
			case ay <= ax*tan22:
				// горизонтальный градиент
				n1, n2 = mag[i-1], mag[i+1]
			case ay > ax/tan22:
				// вертикальный градиент
				n1, n2 = mag[i-width], mag[i+width]
			case (gx[i] > 0) == (gy[i] > 0):
				n1, n2 = mag[i-width-1], mag[i+width+1]
			default:
				n1, n2 = mag[i-width+1], mag[i+width-1]
			}
			if m <= n1 || m < n2 {
				continue
			}

			if m > high {
				state[i] = strong
				stack = append(stack, i)
			} else {
				state[i] = weak
			}
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out.Pix[i/width*out.Stride+i%width] = 255

		x, y := i%width, i/width
		for ky := -1; ky <= 1; ky++ {
			for kx := -1; kx <= 1; kx++ {
				nx, ny := x+kx, y+ky
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}
				j := ny*width + nx
				if state[j] == weak {
					state[j] = strong
					stack = append(stack, j)
				}
			}
		}
	}

	return out
}

func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
