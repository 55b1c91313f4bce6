package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lane-detector-go/internal/database"
	"lane-detector-go/internal/lane"
	"lane-detector-go/internal/media"
	"lane-detector-go/internal/model"
	"lane-detector-go/internal/pipeline"
	"lane-detector-go/internal/repository"
	"lane-detector-go/internal/vision"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestDetector(t *testing.T) *DetectorService {
	t.Helper()
	p, err := pipeline.New(pipeline.DefaultConfig(), vision.New(), quietLogger())
	require.NoError(t, err)
	return NewDetectorService(p, 2, quietLogger())
}

func newTestDetectionService(t *testing.T) (*DetectionService, string) {
	t.Helper()
	db, err := database.Open(database.Config{Driver: database.DriverSQLite, Path: ":memory:"}, quietLogger())
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Detection{}, &model.LaneFrame{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	staticDir := t.TempDir()
	svc := NewDetectionService(repository.NewDetectionRepository(db), newTestDetector(t), quietLogger(), staticDir)
	return svc, staticDir
}

// roadPNG кадр 960x540 с двумя белыми линиями разметки на сером асфальте
func roadPNG(t *testing.T) []byte {
	t.Helper()
	prims := vision.New()

	asphalt := image.NewRGBA(image.Rect(0, 0, 960, 540))
	for i := 0; i < len(asphalt.Pix); i += 4 {
		asphalt.Pix[i], asphalt.Pix[i+1], asphalt.Pix[i+2], asphalt.Pix[i+3] = 60, 60, 60, 255
	}
	markings, err := prims.DrawLines(960, 540, []lane.LineSegment{
		{X1: 150, Y1: 540, X2: 440, Y2: 340},
		{X1: 520, Y1: 340, X2: 820, Y2: 540},
	}, vision.LineStyle{Color: color.RGBA{R: 255, G: 255, B: 255, A: 255}, Thickness: 8})
	require.NoError(t, err)

	road, err := prims.Blend(asphalt, markings, vision.BlendWeights{Alpha: 1, Beta: 1})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, road))
	return buf.Bytes()
}

func TestDetectImageFile(t *testing.T) {
	detector := newTestDetector(t)
	dir := t.TempDir()

	in := filepath.Join(dir, "road.png")
	require.NoError(t, os.WriteFile(in, roadPNG(t), 0644))

	out := filepath.Join(dir, "out", "road.png")
	result, err := detector.DetectImageFile(in, out)
	require.NoError(t, err)

	assert.True(t, result.Frame.Left.Found)
	assert.True(t, result.Frame.Right.Found)
	assert.Equal(t, detector.Backend(), result.Backend)

	saved, err := media.LoadImage(out)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(960, 540), saved.Bounds().Size())
}

func TestDetectImageFileInvalid(t *testing.T) {
	detector := newTestDetector(t)
	in := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(in, []byte("not a png"), 0644))

	_, err := detector.DetectImageFile(in, filepath.Join(t.TempDir(), "out.png"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestProcessImageLifecycle(t *testing.T) {
	svc, staticDir := newTestDetectionService(t)

	resp, err := svc.ProcessImage("solidWhiteRight.png", bytes.NewReader(roadPNG(t)))
	require.NoError(t, err)

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, model.KindImage, resp.Kind)
	assert.Equal(t, 960, resp.Width)
	assert.Equal(t, 540, resp.Height)
	require.Len(t, resp.Lanes, 2)
	assert.Equal(t, "left", resp.Lanes[0].Side)
	assert.Equal(t, "right", resp.Lanes[1].Side)
	assert.Equal(t, 1, resp.Stats.TotalFrames)
	assert.Equal(t, 1, resp.Stats.FramesWithLeft)
	assert.Equal(t, 1, resp.Stats.FramesWithRight)
	assert.Equal(t, "/static/detections/"+resp.DetectionID+"/output.png", resp.OutputURL)

	outputPath, err := svc.OutputPath(resp.DetectionID)
	require.NoError(t, err)
	assert.FileExists(t, outputPath)
	assert.True(t, strings.HasPrefix(outputPath, staticDir))

	got, err := svc.GetDetection(resp.DetectionID)
	require.NoError(t, err)
	assert.Equal(t, "solidWhiteRight.png", got.SourceFilename)
	require.Len(t, got.Frames, 1)
	require.NotNil(t, got.Frames[0].Left)
	assert.Equal(t, resp.Lanes[0], *got.Frames[0].Left)

	list, err := svc.ListDetections(1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Detections, 1)
	assert.Equal(t, resp.DetectionID, list.Detections[0].ID)

	require.NoError(t, svc.DeleteDetection(resp.DetectionID))
	assert.NoDirExists(t, filepath.Join(staticDir, "detections", resp.DetectionID))

	_, err = svc.GetDetection(resp.DetectionID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteDetection(resp.DetectionID), repository.ErrNotFound)
}

func TestProcessImageRejectsUnknownExtension(t *testing.T) {
	svc, _ := newTestDetectionService(t)

	_, err := svc.ProcessImage("notes.txt", strings.NewReader("hello"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestProcessImageCorruptDataLeavesNothing(t *testing.T) {
	svc, staticDir := newTestDetectionService(t)

	_, err := svc.ProcessImage("frame.jpg", strings.NewReader("garbage"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	entries, err := os.ReadDir(filepath.Join(staticDir, "detections"))
	require.NoError(t, err)
	assert.Empty(t, entries)

	list, err := svc.ListDetections(1, 10)
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}

func TestProcessImageTooShort(t *testing.T) {
	svc, staticDir := newTestDetectionService(t)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 640, 3))))

	_, err := svc.ProcessImage("strip.png", &buf)
	assert.ErrorIs(t, err, ErrInvalidInput)

	entries, err := os.ReadDir(filepath.Join(staticDir, "detections"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProcessVideoWithoutOpenCV(t *testing.T) {
	if media.VideoSupported() {
		t.Skip("video support is available in this build")
	}
	svc, _ := newTestDetectionService(t)

	_, err := svc.ProcessVideo(context.Background(), "clip.mp4", strings.NewReader("data"))
	assert.ErrorIs(t, err, media.ErrVideoUnsupported)
}

func TestGenerateDetectionIDUnique(t *testing.T) {
	svc, _ := newTestDetectionService(t)
	a, b := svc.GenerateDetectionID(), svc.GenerateDetectionID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
