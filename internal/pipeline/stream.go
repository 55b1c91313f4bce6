package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"lane-detector-go/internal/lane"
	"lane-detector-go/internal/media"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// FrameSummary найденные на кадре линии
type FrameSummary struct {
	Index int                    `json:"index"`
	Left  *lane.ExtrapolatedLine `json:"left,omitempty"`
	Right *lane.ExtrapolatedLine `json:"right,omitempty"`
}

// StreamSummary итог обработки последовательности кадров
type StreamSummary struct {
	Frames          int            `json:"frames"`
	FramesWithLeft  int            `json:"frames_with_left"`
	FramesWithRight int            `json:"frames_with_right"`
	PerFrame        []FrameSummary `json:"per_frame"`
}

func (s *StreamSummary) add(res *FrameResult) {
	fs := FrameSummary{Index: res.Index}
	if res.Left.Found {
		line := res.Left.Line
		fs.Left = &line
		s.FramesWithLeft++
	}
	if res.Right.Found {
		line := res.Right.Line
		fs.Right = &line
		s.FramesWithRight++
	}
	s.Frames++
	s.PerFrame = append(s.PerFrame, fs)
}

type frameJob struct {
	index int
	img   image.Image
}

// MaxInFlight сколько кадров может находиться между чтением и записью
// при заданном числе обработчиков
func MaxInFlight(workers int) int {
	if workers < 1 {
		workers = 1
	}
	return 2 * workers
}

// ProcessStream обрабатывает кадры из reader пулом из workers горутин
// и записывает аннотированные кадры в writer в исходном порядке.
// Одновременно в памяти находится не больше MaxInFlight(workers) кадров.
func (p *Pipeline) ProcessStream(ctx context.Context, reader media.FrameReader, writer media.FrameWriter, workers int) (*StreamSummary, error) {
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	jobs := make(chan frameJob, workers)
	results := make(chan *FrameResult, workers)

	// Жетон выдается перед чтением кадра и возвращается после его записи
	tokens := make(chan struct{}, MaxInFlight(workers))

	// Чтение кадров
	g.Go(func() error {
		defer close(jobs)
		for index := 0; ; index++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			select {
			case tokens <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}

			img, err := reader.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read frame %d: %w", index, err)
			}

			select {
			case jobs <- frameJob{index: index, img: img}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	// Обработка кадров
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for job := range jobs {
				res, err := p.ProcessFrame(job.img)
				if err != nil {
					return fmt.Errorf("frame %d: %w", job.index, err)
				}
				res.Index = job.index

				select {
				case results <- res:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		wg.Wait()
		close(results)
		return nil
	})

	// Запись кадров в исходном порядке
	summary := &StreamSummary{}
	g.Go(func() error {
		pending := make(map[int]*FrameResult)
		next := 0
		for res := range results {
			pending[res.Index] = res
			for {
				ready, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)

				if err := writer.Write(ready.Image); err != nil {
					return fmt.Errorf("failed to write frame %d: %w", next, err)
				}
				summary.add(ready)
				next++
				<-tokens
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.logger.WithFields(logrus.Fields{
		"frames":  summary.Frames,
		"left":    summary.FramesWithLeft,
		"right":   summary.FramesWithRight,
		"workers": workers,
	}).Info("Обработка видеопотока завершена")

	return summary, nil
}
