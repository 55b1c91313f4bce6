package pipeline

import (
	"context"
	"errors"
	"image"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"lane-detector-go/internal/lane"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceReader struct {
	frames []image.Image
	pos    int
	failAt int // -1 без ошибки
}

func newSliceReader(frames []image.Image) *sliceReader {
	return &sliceReader{frames: frames, failAt: -1}
}

func (r *sliceReader) Next() (image.Image, error) {
	if r.pos == r.failAt {
		return nil, errors.New("decoder failure")
	}
	if r.pos >= len(r.frames) {
		return nil, io.EOF
	}
	img := r.frames[r.pos]
	r.pos++
	return img, nil
}

func (r *sliceReader) FPS() float64     { return 25 }
func (r *sliceReader) Size() (int, int) { return 0, 0 }
func (r *sliceReader) Close() error     { return nil }

// countingReader считает успешно прочитанные кадры
type countingReader struct {
	*sliceReader
	reads atomic.Int64
}

func (r *countingReader) Next() (image.Image, error) {
	img, err := r.sliceReader.Next()
	if err == nil {
		r.reads.Add(1)
	}
	return img, err
}

type memoryWriter struct {
	frames  []image.Image
	failAt  int
	onWrite func(written int)
}

func (w *memoryWriter) Write(frame image.Image) error {
	if w.failAt > 0 && len(w.frames) == w.failAt {
		return errors.New("disk full")
	}
	if w.onWrite != nil {
		w.onWrite(len(w.frames))
	}
	w.frames = append(w.frames, frame)
	return nil
}

func (w *memoryWriter) Close() error { return nil }

// framesOfVaryingWidth кадры отличаются шириной: 100+i
func framesOfVaryingWidth(n int) []image.Image {
	frames := make([]image.Image, n)
	for i := range frames {
		frames[i] = image.NewRGBA(image.Rect(0, 0, 100+i, 60))
	}
	return frames
}

func TestProcessStreamPreservesOrder(t *testing.T) {
	const n = 12
	prims := &fakePrimitives{
		// ранние кадры обрабатываются дольше поздних
		delay: func(img image.Image) time.Duration {
			return time.Duration(n-(img.Bounds().Dx()-100)) * time.Millisecond
		},
	}
	p := newTestPipeline(t, prims)

	frames := framesOfVaryingWidth(n)
	writer := &memoryWriter{}

	summary, err := p.ProcessStream(context.Background(), newSliceReader(frames), writer, 4)
	require.NoError(t, err)

	require.Len(t, writer.frames, n)
	for i := range frames {
		assert.Same(t, frames[i], writer.frames[i], "frame %d out of order", i)
	}

	assert.Equal(t, n, summary.Frames)
	require.Len(t, summary.PerFrame, n)
	for i, fs := range summary.PerFrame {
		assert.Equal(t, i, fs.Index)
		assert.Nil(t, fs.Left)
		assert.Nil(t, fs.Right)
	}
}

func TestProcessStreamLimitsFramesInFlight(t *testing.T) {
	const workers = 4
	prims := &fakePrimitives{
		// первый кадр задерживает запись всех остальных
		delay: func(img image.Image) time.Duration {
			if img.Bounds().Dx() == 100 {
				return 300 * time.Millisecond
			}
			return 0
		},
	}
	p := newTestPipeline(t, prims)

	frames := framesOfVaryingWidth(200)
	reader := &countingReader{sliceReader: newSliceReader(frames)}

	readsBeforeFirstWrite := int64(-1)
	maxInFlight := int64(0)
	writer := &memoryWriter{onWrite: func(written int) {
		reads := reader.reads.Load()
		if readsBeforeFirstWrite < 0 {
			readsBeforeFirstWrite = reads
		}
		if inFlight := reads - int64(written); inFlight > maxInFlight {
			maxInFlight = inFlight
		}
	}}

	summary, err := p.ProcessStream(context.Background(), reader, writer, workers)
	require.NoError(t, err)
	assert.Equal(t, len(frames), summary.Frames)

	limit := int64(MaxInFlight(workers))
	assert.LessOrEqual(t, readsBeforeFirstWrite, limit)
	assert.LessOrEqual(t, maxInFlight, limit)
	assert.Equal(t, 8, MaxInFlight(workers))
	assert.Equal(t, 2, MaxInFlight(0))
}

func TestProcessStreamCountsLines(t *testing.T) {
	prims := &fakePrimitives{
		right: []lane.LineSegment{{X1: 600, Y1: 400, X2: 700, Y2: 460}},
	}
	p := newTestPipeline(t, prims)

	frames := make([]image.Image, 3)
	for i := range frames {
		frames[i] = image.NewRGBA(image.Rect(0, 0, 960, 540))
	}

	summary, err := p.ProcessStream(context.Background(), newSliceReader(frames), &memoryWriter{}, 0)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Frames)
	assert.Equal(t, 0, summary.FramesWithLeft)
	assert.Equal(t, 3, summary.FramesWithRight)
	require.NotNil(t, summary.PerFrame[2].Right)
	assert.Equal(t, lane.LineSegment{X1: 539, Y1: 363, X2: 834, Y2: 540}, *summary.PerFrame[2].Right)
}

func TestProcessStreamEmpty(t *testing.T) {
	p := newTestPipeline(t, &fakePrimitives{})
	writer := &memoryWriter{}

	summary, err := p.ProcessStream(context.Background(), newSliceReader(nil), writer, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Frames)
	assert.Empty(t, writer.frames)
}

func TestProcessStreamReaderError(t *testing.T) {
	p := newTestPipeline(t, &fakePrimitives{})
	reader := newSliceReader(framesOfVaryingWidth(5))
	reader.failAt = 3

	_, err := p.ProcessStream(context.Background(), reader, &memoryWriter{}, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read frame 3")
}

func TestProcessStreamFrameError(t *testing.T) {
	p := newTestPipeline(t, &fakePrimitives{fail: "edges"})

	_, err := p.ProcessStream(context.Background(), newSliceReader(framesOfVaryingWidth(6)), &memoryWriter{}, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "edge detection failed")
}

func TestProcessStreamWriterError(t *testing.T) {
	p := newTestPipeline(t, &fakePrimitives{})
	writer := &memoryWriter{failAt: 2}

	_, err := p.ProcessStream(context.Background(), newSliceReader(framesOfVaryingWidth(20)), writer, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Len(t, writer.frames, 2)
}

func TestProcessStreamCancelled(t *testing.T) {
	p := newTestPipeline(t, &fakePrimitives{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ProcessStream(ctx, newSliceReader(framesOfVaryingWidth(50)), &memoryWriter{}, 2)
	assert.ErrorIs(t, err, context.Canceled)
}
