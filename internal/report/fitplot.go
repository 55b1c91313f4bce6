package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"lane-detector-go/internal/lane"
	"lane-detector-go/internal/pipeline"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var sideColors = map[lane.Side]color.RGBA{
	lane.Left:  {R: 30, G: 90, B: 200, A: 255},
	lane.Right: {R: 200, G: 40, B: 40, A: 255},
}

// FitPlot строит график концов отрезков и прямых, проведенных через них.
// Ось Y направлена вниз, как на изображении.
func FitPlot(title string, frame *pipeline.FrameResult) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x (px)"
	p.Y.Label.Text = "y (px)"
	p.X.Min, p.X.Max = 0, float64(frame.Width)
	p.Y.Min, p.Y.Max = 0, float64(frame.Height)
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	p.Add(plotter.NewGrid())

	for _, side := range []lane.Side{lane.Left, lane.Right} {
		res := frame.Side(side)
		clr := sideColors[side]

		if len(res.Kept) > 0 {
			points := make(plotter.XYs, 0, 2*len(res.Kept))
			for _, s := range res.Kept {
				points = append(points,
					plotter.XY{X: float64(s.X1), Y: float64(s.Y1)},
					plotter.XY{X: float64(s.X2), Y: float64(s.Y2)},
				)
			}
			scatter, err := plotter.NewScatter(points)
			if err != nil {
				return nil, err
			}
			scatter.Color = clr
			scatter.Radius = vg.Points(2)
			p.Add(scatter)
			p.Legend.Add(fmt.Sprintf("%s segments", side), scatter)
		}

		if res.Found {
			fit, err := plotter.NewLine(plotter.XYs{
				{X: float64(res.Line.X1), Y: float64(res.Line.Y1)},
				{X: float64(res.Line.X2), Y: float64(res.Line.Y2)},
			})
			if err != nil {
				return nil, err
			}
			fit.Color = clr
			fit.Width = vg.Points(2)
			p.Add(fit)
			p.Legend.Add(fmt.Sprintf("%s fit", side), fit)
		}
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	return p, nil
}

// WriteFitPlot сохраняет график подгонки в файл, формат определяется расширением
func WriteFitPlot(path, title string, frame *pipeline.FrameResult) error {
	p, err := FitPlot(title, frame)
	if err != nil {
		return fmt.Errorf("failed to build fit plot: %w", err)
	}
	return save(p, 8*vg.Inch, 5*vg.Inch, path)
}

// WriteStreamPlot сохраняет положение нижних концов линий по кадрам видео
func WriteStreamPlot(path, title string, summary *pipeline.StreamSummary) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "x at bottom (px)"

	left := make(plotter.XYs, 0, len(summary.PerFrame))
	right := make(plotter.XYs, 0, len(summary.PerFrame))
	for _, fs := range summary.PerFrame {
		if fs.Left != nil {
			left = append(left, plotter.XY{X: float64(fs.Index), Y: float64(fs.Left.X2)})
		}
		if fs.Right != nil {
			right = append(right, plotter.XY{X: float64(fs.Index), Y: float64(fs.Right.X2)})
		}
	}

	for side, pts := range []plotter.XYs{left, right} {
		side := lane.Side(side)
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("failed to build stream plot: %w", err)
		}
		line.Color = sideColors[side]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(side.String(), line)
	}

	return save(p, 14*vg.Inch, 6*vg.Inch, path)
}

func save(p *plot.Plot, width, height vg.Length, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}
