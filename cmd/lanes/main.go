package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"syscall"

	"lane-detector-go/internal/lane"
	"lane-detector-go/internal/media"
	"lane-detector-go/internal/pipeline"
	"lane-detector-go/internal/report"
	"lane-detector-go/internal/service"
	"lane-detector-go/internal/vision"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	window := lane.DefaultSlopeWindow()

	imagesDir := flag.String("images", "test_images", "Directory with input images")
	videosDir := flag.String("videos", "test_videos", "Directory with input .mp4 videos")
	outDir := flag.String("out", "out", "Output directory for annotated files")
	plotsDir := flag.String("plots", "", "Directory for fit plots (optional)")
	workers := flag.Int("workers", runtime.NumCPU(), "Number of parallel workers")
	minSlope := flag.Float64("min-slope", window.MinSlope, "Minimum absolute slope of a lane segment")
	maxSlope := flag.Float64("max-slope", window.MaxSlope, "Maximum absolute slope of a lane segment")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: lanes [flags]\n\n")
		fmt.Fprintf(os.Stderr, "The reference backend is OpenCV: build with -tags gocv.\n")
		fmt.Fprintf(os.Stderr, "Without the tag a pure Go backend is used and video is unavailable.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logger.Fatalf("Неверный уровень логирования %q: %v", *logLevel, err)
	}
	logger.SetLevel(level)

	cfg := pipeline.DefaultConfig()
	cfg.SlopeWindow = lane.SlopeWindow{MinSlope: *minSlope, MaxSlope: *maxSlope}

	prims := vision.New()
	p, err := pipeline.New(cfg, prims, logger)
	if err != nil {
		logger.Fatalf("Ошибка настройки конвейера: %v", err)
	}
	detector := service.NewDetectorService(p, *workers, logger)
	logger.Infof("Используется реализация %s, потоков: %d", prims.Name(), *workers)
	if !media.VideoSupported() {
		logger.Warn("Сборка без OpenCV: эталонная реализация доступна с тегом gocv")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := &batch{
		detector: detector,
		outDir:   *outDir,
		plotsDir: *plotsDir,
		workers:  *workers,
		logger:   logger,
	}

	if *imagesDir != "" {
		b.processImages(ctx, *imagesDir)
	}
	if *videosDir != "" {
		b.processVideos(ctx, *videosDir)
	}

	failed := b.failed.Load()
	logger.Infof("Готово: обработано %d файлов, ошибок %d", b.done.Load(), failed)
	if failed > 0 {
		os.Exit(1)
	}
}

type batch struct {
	detector *service.DetectorService
	outDir   string
	plotsDir string
	workers  int
	logger   *logrus.Logger

	done   atomic.Int64
	failed atomic.Int64
}

// processImages обрабатывает все изображения каталога параллельно
func (b *batch) processImages(ctx context.Context, dir string) {
	files, err := media.ListFiles(dir, "")
	if err != nil {
		b.logger.Errorf("Не удалось прочитать каталог изображений: %v", err)
		b.failed.Add(1)
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for _, name := range files {
		if !media.IsImage(name) {
			continue
		}
		name := name
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			in := filepath.Join(dir, name)
			result, err := b.detector.DetectImageFile(in, filepath.Join(b.outDir, name))
			if err != nil {
				b.logger.Errorf("Ошибка обработки %s: %v", in, err)
				b.failed.Add(1)
				return nil
			}
			b.done.Add(1)

			if b.plotsDir != "" {
				plotPath := filepath.Join(b.plotsDir, stem(name)+"_fit.png")
				if err := report.WriteFitPlot(plotPath, name, result.Frame); err != nil {
					b.logger.Warnf("Не удалось сохранить график %s: %v", plotPath, err)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		b.logger.Warnf("Обработка изображений прервана: %v", err)
	}
}

// processVideos обрабатывает видео по очереди, кадры каждого видео обрабатываются параллельно
func (b *batch) processVideos(ctx context.Context, dir string) {
	if !media.VideoSupported() {
		b.logger.Warn("Обработка видео недоступна: соберите с тегом gocv")
		return
	}

	files, err := media.ListFiles(dir, ".mp4")
	if err != nil {
		b.logger.Errorf("Не удалось прочитать каталог видео: %v", err)
		b.failed.Add(1)
		return
	}

	for _, name := range files {
		if ctx.Err() != nil {
			b.logger.Warn("Обработка видео прервана")
			return
		}

		in := filepath.Join(dir, name)
		result, err := b.detector.DetectVideo(ctx, in, filepath.Join(b.outDir, name))
		if err != nil {
			b.logger.Errorf("Ошибка обработки %s: %v", in, err)
			b.failed.Add(1)
			continue
		}
		b.done.Add(1)

		if b.plotsDir != "" {
			plotPath := filepath.Join(b.plotsDir, stem(name)+"_lanes.png")
			if err := report.WriteStreamPlot(plotPath, name, result.Summary); err != nil {
				b.logger.Warnf("Не удалось сохранить график %s: %v", plotPath, err)
			}
		}
	}
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
