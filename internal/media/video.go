package media

import (
	"errors"
	"image"
)

// ErrVideoUnsupported видео недоступно в сборке без OpenCV
var ErrVideoUnsupported = errors.New("video support requires the gocv build tag")

// FrameReader последовательный источник кадров. Next возвращает io.EOF после
// последнего кадра; перечитать поток можно только открыв его заново.
type FrameReader interface {
	Next() (image.Image, error)
	FPS() float64
	Size() (width, height int)
	Close() error
}

// FrameWriter приемник кадров, кадры записываются в порядке вызовов Write
type FrameWriter interface {
	Write(frame image.Image) error
	Close() error
}

// DefaultFPS используется, если контейнер не сообщает частоту кадров
const DefaultFPS = 25.0
