package pipeline

import (
	"fmt"
	"image"

	"lane-detector-go/internal/geo"
	"lane-detector-go/internal/lane"
	"lane-detector-go/internal/vision"

	"github.com/sirupsen/logrus"
)

// FrameResult результат обработки одного кадра
type FrameResult struct {
	Index  int
	Image  image.Image // кадр с наложенными линиями
	Width  int
	Height int
	Range  lane.Range
	Left   lane.Result
	Right  lane.Result
}

// Lines найденные линии: ноль, одна или две
func (r *FrameResult) Lines() []lane.ExtrapolatedLine {
	lines := make([]lane.ExtrapolatedLine, 0, 2)
	for _, res := range []lane.Result{r.Left, r.Right} {
		if res.Found {
			lines = append(lines, res.Line)
		}
	}
	return lines
}

// Side результат для стороны
func (r *FrameResult) Side(side lane.Side) lane.Result {
	if side == lane.Left {
		return r.Left
	}
	return r.Right
}

// Pipeline цепочка фильтров для поиска линий разметки на кадре.
// Не хранит состояния между кадрами и может вызываться из нескольких горутин.
type Pipeline struct {
	cfg       Config
	prims     vision.Primitives
	geoCalc   *geo.Calculator
	extractor *lane.Extractor
	logger    *logrus.Logger
}

// New создает конвейер обработки кадров
func New(cfg Config, prims vision.Primitives, logger *logrus.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}

	return &Pipeline{
		cfg:       cfg,
		prims:     prims,
		geoCalc:   geo.NewCalculator(cfg.Regions),
		extractor: lane.NewExtractor(cfg.SlopeWindow),
		logger:    logger,
	}, nil
}

// Config возвращает параметры конвейера
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Backend имя реализации примитивов
func (p *Pipeline) Backend() string {
	return p.prims.Name()
}

// ProcessFrame находит левую и правую границы полосы и накладывает их на кадр.
// Отсутствие линии не является ошибкой.
func (p *Pipeline) ProcessFrame(img image.Image) (*FrameResult, error) {
	width, height := img.Bounds().Dx(), img.Bounds().Dy()

	regions, err := p.geoCalc.Regions(width, height)
	if err != nil {
		return nil, err
	}

	source := img
	if p.cfg.Highlight.Enabled {
		layer, err := p.prims.RemapColor(img, p.cfg.Highlight.Range, p.cfg.Highlight.Color)
		if err != nil {
			return nil, fmt.Errorf("color remap failed: %w", err)
		}
		source, err = p.prims.Blend(layer, img, p.cfg.Highlight.Weights)
		if err != nil {
			return nil, fmt.Errorf("highlight blend failed: %w", err)
		}
	}

	gray, err := p.prims.Grayscale(source)
	if err != nil {
		return nil, fmt.Errorf("grayscale failed: %w", err)
	}

	blurred, err := p.prims.Blur(gray, p.cfg.BlurKernel)
	if err != nil {
		return nil, fmt.Errorf("blur failed: %w", err)
	}

	edges, err := p.prims.DetectEdges(blurred, p.cfg.CannyLow, p.cfg.CannyHigh)
	if err != nil {
		return nil, fmt.Errorf("edge detection failed: %w", err)
	}

	result := &FrameResult{
		Width:  width,
		Height: height,
		Range:  regions.Range,
	}

	for _, side := range []lane.Side{lane.Left, lane.Right} {
		res, err := p.detectSide(edges, side, regions, height)
		if err != nil {
			return nil, err
		}
		if side == lane.Left {
			result.Left = res
		} else {
			result.Right = res
		}
	}

	overlay, err := p.prims.DrawLines(width, height, result.Lines(), p.cfg.LineStyle)
	if err != nil {
		return nil, fmt.Errorf("drawing lines failed: %w", err)
	}

	result.Image, err = p.prims.Blend(img, overlay, p.cfg.Overlay)
	if err != nil {
		return nil, fmt.Errorf("overlay blend failed: %w", err)
	}

	return result, nil
}

func (p *Pipeline) detectSide(edges *image.Gray, side lane.Side, regions geo.Regions, height int) (lane.Result, error) {
	masked, err := p.prims.MaskPolygon(edges, regions.Region(side))
	if err != nil {
		return lane.Result{}, fmt.Errorf("%s region mask failed: %w", side, err)
	}

	segments, err := p.prims.DetectLines(masked, p.cfg.Hough)
	if err != nil {
		return lane.Result{}, fmt.Errorf("%s line detection failed: %w", side, err)
	}

	res, err := p.extractor.Extract(segments, side, regions.Range, height)
	if err != nil {
		return lane.Result{}, err
	}

	p.logger.WithFields(logrus.Fields{
		"side":     side.String(),
		"segments": len(segments),
		"kept":     len(res.Kept),
		"found":    res.Found,
	}).Debug("Обработана сторона полосы")

	return res, nil
}
