package vision

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/Wisaacj/Supervisor/internal/frame"
	"gocv.io/x/gocv"
)

// ErrEmptyFrame is returned when a Mat or Frame has no pixels.
var ErrEmptyFrame = errors.New("empty frame")

// DefaultJPEGQuality is used when the encoder is built with an invalid quality.
const DefaultJPEGQuality = 80

// FromMat copies the pixels of mat into a new Frame. The Mat stays owned by
// the caller.
func FromMat(mat gocv.Mat) (*frame.Frame, error) {
	if mat.Empty() {
		return nil, ErrEmptyFrame
	}

	src := mat
	if !mat.IsContinuous() {
		src = mat.Clone()
		defer src.Close()
	}

	return &frame.Frame{
		Pix:        src.ToBytes(),
		Width:      src.Cols(),
		Height:     src.Rows(),
		Channels:   src.Channels(),
		CapturedAt: time.Now(),
	}, nil
}

// ToMat wraps the pixels of f in a Mat without copying. The Mat must be
// treated as read-only and closed by the caller; use Clone before drawing.
func ToMat(f *frame.Frame) (gocv.Mat, error) {
	if f.Empty() {
		return gocv.NewMat(), ErrEmptyFrame
	}

	var mt gocv.MatType
	switch f.Channels {
	case 1:
		mt = gocv.MatTypeCV8UC1
	case 3:
		mt = gocv.MatTypeCV8UC3
	case 4:
		mt = gocv.MatTypeCV8UC4
	default:
		return gocv.NewMat(), fmt.Errorf("unsupported channel count %d", f.Channels)
	}

	if len(f.Pix) != f.Width*f.Height*f.Channels {
		return gocv.NewMat(), fmt.Errorf("frame is %dx%dx%d but holds %d bytes", f.Width, f.Height, f.Channels, len(f.Pix))
	}

	mat, err := gocv.NewMatFromBytes(f.Height, f.Width, mt, f.Pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to wrap frame: %w", err)
	}
	return mat, nil
}

// FromImage converts a decoded image into a BGR Frame.
func FromImage(img image.Image) (*frame.Frame, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	return FromMat(mat)
}

// DecodeJPEG decodes JPEG bytes into a BGR Frame.
func DecodeJPEG(data []byte) (*frame.Frame, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	defer mat.Close()

	return FromMat(mat)
}

// JPEGEncoder encodes frames with OpenCV at a fixed quality.
type JPEGEncoder struct {
	quality int
}

func NewJPEGEncoder(quality int) *JPEGEncoder {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &JPEGEncoder{quality: quality}
}

// Encode returns the JPEG bytes of f. The result is a Go copy of the native
// buffer.
func (e *JPEGEncoder) Encode(f *frame.Frame) ([]byte, error) {
	mat, err := ToMat(f)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	return EncodeMat(mat, e.quality)
}

// EncodeMat encodes mat as JPEG at the given quality.
func EncodeMat(mat gocv.Mat, quality int) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{int(gocv.IMWriteJpegQuality), quality})
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
