package source

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Wisaacj/Supervisor/internal/frame"
	"github.com/Wisaacj/Supervisor/internal/service/capture"
	"github.com/Wisaacj/Supervisor/internal/service/vision"
	"gocv.io/x/gocv"
)

// videoSource reads frames through OpenCV's VideoCapture, which handles
// HTTP/RTSP streams and local files.
type videoSource struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	once    sync.Once
	err     error
}

// OpenVideo opens url with gocv.VideoCaptureFile.
func OpenVideo(url string) (capture.Source, error) {
	vc, err := gocv.VideoCaptureFile(url)
	if err != nil {
		return nil, fmt.Errorf("failed to open video capture: %w", err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, errors.New("video capture is not opened")
	}

	return &videoSource{capture: vc, mat: gocv.NewMat()}, nil
}

func (s *videoSource) Read() (*frame.Frame, error) {
	if ok := s.capture.Read(&s.mat); !ok {
		return nil, errors.New("end of stream")
	}
	if s.mat.Empty() {
		return nil, vision.ErrEmptyFrame
	}
	return vision.FromMat(s.mat)
}

func (s *videoSource) Close() error {
	s.once.Do(func() {
		s.mat.Close()
		s.err = s.capture.Close()
	})
	return s.err
}
