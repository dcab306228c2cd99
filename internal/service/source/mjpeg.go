package source

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/Wisaacj/Supervisor/internal/frame"
	"github.com/Wisaacj/Supervisor/internal/service/capture"
	"github.com/Wisaacj/Supervisor/internal/service/vision"
	"github.com/mattn/go-mjpeg"
)

// mjpegSource decodes a multipart MJPEG HTTP stream in pure Go, as served by
// most IP cameras on /video or /mjpeg.
type mjpegSource struct {
	resp    *http.Response
	decoder *mjpeg.Decoder
	once    sync.Once
	err     error
}

// OpenMJPEG issues a GET to url and decodes the response as MJPEG.
func OpenMJPEG(url string) (capture.Source, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	dec, err := mjpeg.NewDecoderFromResponse(resp)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("not an MJPEG stream: %w", err)
	}

	return &mjpegSource{resp: resp, decoder: dec}, nil
}

func (s *mjpegSource) Read() (*frame.Frame, error) {
	img, err := s.decoder.Decode()
	if err != nil {
		return nil, err
	}
	return vision.FromImage(img)
}

func (s *mjpegSource) Close() error {
	s.once.Do(func() {
		s.err = s.resp.Body.Close()
	})
	return s.err
}
