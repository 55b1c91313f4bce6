//go:build !gocv
// +build !gocv

package media

// VideoSupported сообщает, доступна ли работа с видео
func VideoSupported() bool {
	return false
}

// OpenVideo возвращает ошибку, если сборка без тега gocv
func OpenVideo(path string) (FrameReader, error) {
	_ = path
	return nil, ErrVideoUnsupported
}

// CreateVideo возвращает ошибку, если сборка без тега gocv
func CreateVideo(path string, fps float64, width, height int) (FrameWriter, error) {
	_, _, _, _ = path, fps, width, height
	return nil, ErrVideoUnsupported
}
