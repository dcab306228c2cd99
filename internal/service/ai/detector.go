package ai

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"time"

	"github.com/Wisaacj/Supervisor/internal/config"
	"github.com/Wisaacj/Supervisor/internal/dto"
	"github.com/Wisaacj/Supervisor/internal/frame"
	"github.com/Wisaacj/Supervisor/internal/logger"
	"github.com/Wisaacj/Supervisor/internal/service/capture"
	"github.com/Wisaacj/Supervisor/internal/service/tracking"
	"github.com/Wisaacj/Supervisor/internal/service/vision"
	"gocv.io/x/gocv"
)

// DefaultDetectionThreshold is the minimum confidence for object detections.
const DefaultDetectionThreshold = 0.5

// SSD MobileNet input geometry and normalisation.
var (
	inputSize  = image.Pt(300, 300)
	inputMean  = gocv.NewScalar(127.5, 127.5, 127.5, 0)
	inputScale = 1.0 / 127.5
)

// palette colours boxes by tracker ID.
var palette = []color.RGBA{
	{R: 255, G: 56, B: 56},
	{R: 255, G: 157, B: 151},
	{R: 255, G: 112, B: 31},
	{R: 255, G: 178, B: 29},
	{R: 207, G: 210, B: 49},
	{R: 72, G: 249, B: 10},
	{R: 26, G: 147, B: 52},
	{R: 0, G: 212, B: 187},
	{R: 44, G: 153, B: 168},
	{R: 0, G: 194, B: 255},
	{R: 52, G: 69, B: 147},
	{R: 100, G: 115, B: 255},
}

// DetectorService runs an SSD MobileNet network over frames, tracks the
// detections and draws them. It implements capture.Detector and must only be
// called from the capture goroutine.
type DetectorService struct {
	net        gocv.Net
	ready      bool
	modelPath  string
	configPath string
	threshold  float32
	tracker    *tracking.Tracker
	logger     *logger.Logger
}

// NewDetectorService creates a detector with model/config paths and a logger.
// When the network cannot be loaded the service passes frames through
// unannotated.
func NewDetectorService(config *config.Config, logger *logger.Logger) *DetectorService {
	threshold := config.DetectionThreshold
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultDetectionThreshold
	}

	service := &DetectorService{
		modelPath:  config.ModelPath,
		configPath: config.ConfigPath,
		threshold:  float32(threshold),
		tracker:    tracking.NewTracker(tracking.DefaultIoUThreshold, tracking.DefaultMaxMisses, tracking.DefaultTraceLength),
		logger:     logger,
	}

	if err := service.initializeNet(); err != nil {
		service.logger.Warning("Could not initialize detection network, streaming unannotated frames: %v", err)
		return service
	}

	return service
}

// initializeNet loads the DNN network and sets backend/target preferences.
func (s *DetectorService) initializeNet() error {
	if _, err := os.Stat(s.modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", s.modelPath)
	}

	if _, err := os.Stat(s.configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", s.configPath)
	}

	net := gocv.ReadNet(s.modelPath, s.configPath)
	if net.Empty() {
		return errors.New("failed to load network")
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return errors.New("failed to set preferable backend or target")
	}

	s.net = net
	s.ready = true
	s.logger.Info("Detection network initialized successfully")
	return nil
}

// Ready reports whether the network is loaded.
func (s *DetectorService) Ready() bool {
	return s.ready
}

// Close releases the network.
func (s *DetectorService) Close() error {
	if !s.ready {
		return nil
	}
	s.ready = false
	return s.net.Close()
}

// Detect runs the pipeline on f and returns a new annotated frame together
// with per-stage timings. f is never written to.
func (s *DetectorService) Detect(f *frame.Frame) (*capture.Result, error) {
	stats := dto.InferenceStats{}

	start := time.Now()
	if !s.ready {
		stats[dto.StagePreprocess] = time.Since(start)
		return &capture.Result{Frame: f, Stats: stats}, nil
	}

	src, err := vision.ToMat(f)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	mat := src.Clone()
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, inputScale, inputSize, inputMean, true, false)
	defer blob.Close()
	stats[dto.StagePreprocess] = time.Since(start)

	start = time.Now()
	s.net.SetInput(blob, "")
	output := s.net.Forward("")
	defer output.Close()
	stats[dto.StageInference] = time.Since(start)

	start = time.Now()
	detections := s.tracker.Update(s.parse(output, mat.Cols(), mat.Rows()))
	if err := s.annotate(&mat, detections); err != nil {
		return nil, err
	}

	annotated, err := vision.FromMat(mat)
	if err != nil {
		return nil, err
	}
	annotated.CapturedAt = f.CapturedAt
	stats[dto.StagePostprocess] = time.Since(start)

	return &capture.Result{Frame: annotated, Stats: stats, Detections: detections}, nil
}

// parse reads the [batch_id, class_id, confidence, x1, y1, x2, y2] rows of
// the network output and keeps those above the threshold.
func (s *DetectorService) parse(output gocv.Mat, cols, rows int) []dto.DetectionResult {
	reshaped := output.Reshape(1, output.Total()/7)
	defer reshaped.Close()

	var results []dto.DetectionResult
	for i := 0; i < reshaped.Rows(); i++ {
		confidence := reshaped.GetFloatAt(i, 2)
		if confidence < s.threshold {
			continue
		}

		classID := int(reshaped.GetFloatAt(i, 1))
		x := clamp(int(reshaped.GetFloatAt(i, 3)*float32(cols)), 0, cols)
		y := clamp(int(reshaped.GetFloatAt(i, 4)*float32(rows)), 0, rows)
		right := clamp(int(reshaped.GetFloatAt(i, 5)*float32(cols)), 0, cols)
		bottom := clamp(int(reshaped.GetFloatAt(i, 6)*float32(rows)), 0, rows)
		if right <= x || bottom <= y {
			continue
		}

		results = append(results, dto.DetectionResult{
			Label:      ClassLabel(classID),
			ClassID:    classID,
			Confidence: float64(confidence),
			X:          x,
			Y:          y,
			Width:      right - x,
			Height:     bottom - y,
		})
	}

	return results
}

// annotate draws boxes, captions and traces onto mat.
func (s *DetectorService) annotate(mat *gocv.Mat, detections []dto.DetectionResult) error {
	for _, detection := range detections {
		c := palette[detection.TrackerID%len(palette)]

		if err := gocv.Rectangle(mat, tracking.Box(detection), c, 2); err != nil {
			return fmt.Errorf("failed to draw rectangle: %w", err)
		}

		pt := image.Pt(detection.X, max(detection.Y-5, 12))
		if err := gocv.PutText(mat, detection.Caption(), pt, gocv.FontHersheySimplex, 0.5, c, 1); err != nil {
			return fmt.Errorf("failed to draw text: %w", err)
		}

		for _, p := range s.tracker.Trace(detection.TrackerID) {
			dot := image.Rect(p.X-1, p.Y-1, p.X+1, p.Y+1)
			if err := gocv.Rectangle(mat, dot, c, -1); err != nil {
				return fmt.Errorf("failed to draw trace: %w", err)
			}
		}
	}
	return nil
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
