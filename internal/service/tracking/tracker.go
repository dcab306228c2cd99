package tracking

import (
	"image"
	"sort"

	"github.com/Wisaacj/Supervisor/internal/dto"
)

const (
	DefaultIoUThreshold = 0.3
	DefaultMaxMisses    = 15
	DefaultTraceLength  = 30
)

type track struct {
	id      int
	classID int
	box     image.Rectangle
	misses  int
	trace   []image.Point
}

// Tracker assigns stable IDs to detections across frames by greedy IoU
// matching within the same class. It is not safe for concurrent use.
type Tracker struct {
	iouThreshold float64
	maxMisses    int
	traceLength  int
	nextID       int
	tracks       []*track
}

func NewTracker(iouThreshold float64, maxMisses, traceLength int) *Tracker {
	if iouThreshold <= 0 || iouThreshold > 1 {
		iouThreshold = DefaultIoUThreshold
	}
	if maxMisses < 0 {
		maxMisses = DefaultMaxMisses
	}
	if traceLength <= 0 {
		traceLength = DefaultTraceLength
	}
	return &Tracker{
		iouThreshold: iouThreshold,
		maxMisses:    maxMisses,
		traceLength:  traceLength,
		nextID:       1,
	}
}

type candidate struct {
	det, trk int
	iou      float64
}

// Update matches dets against live tracks and returns a copy of dets with
// TrackerID set. Tracks missing for more than maxMisses updates are dropped.
func (t *Tracker) Update(dets []dto.DetectionResult) []dto.DetectionResult {
	out := make([]dto.DetectionResult, len(dets))
	copy(out, dets)

	var candidates []candidate
	for i, d := range out {
		box := Box(d)
		for j, tr := range t.tracks {
			if tr.classID != d.ClassID {
				continue
			}
			if iou := IoU(box, tr.box); iou >= t.iouThreshold {
				candidates = append(candidates, candidate{det: i, trk: j, iou: iou})
			}
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].iou > candidates[b].iou
	})

	detDone := make([]bool, len(out))
	trkDone := make([]bool, len(t.tracks))
	for _, c := range candidates {
		if detDone[c.det] || trkDone[c.trk] {
			continue
		}
		detDone[c.det] = true
		trkDone[c.trk] = true

		tr := t.tracks[c.trk]
		tr.box = Box(out[c.det])
		tr.misses = 0
		tr.addPoint(center(tr.box), t.traceLength)
		out[c.det].TrackerID = tr.id
	}

	live := t.tracks[:0]
	for j, tr := range t.tracks {
		if !trkDone[j] {
			tr.misses++
			if tr.misses > t.maxMisses {
				continue
			}
		}
		live = append(live, tr)
	}
	t.tracks = live

	for i := range out {
		if detDone[i] {
			continue
		}
		tr := &track{id: t.nextID, classID: out[i].ClassID, box: Box(out[i])}
		tr.addPoint(center(tr.box), t.traceLength)
		t.nextID++
		t.tracks = append(t.tracks, tr)
		out[i].TrackerID = tr.id
	}

	return out
}

// Trace returns the recent centre points of a live track, oldest first.
func (t *Tracker) Trace(id int) []image.Point {
	for _, tr := range t.tracks {
		if tr.id == id {
			points := make([]image.Point, len(tr.trace))
			copy(points, tr.trace)
			return points
		}
	}
	return nil
}

// Active returns the number of live tracks.
func (t *Tracker) Active() int {
	return len(t.tracks)
}

func (tr *track) addPoint(p image.Point, limit int) {
	tr.trace = append(tr.trace, p)
	if len(tr.trace) > limit {
		tr.trace = tr.trace[len(tr.trace)-limit:]
	}
}

// Box returns the bounding rectangle of a detection.
func Box(d dto.DetectionResult) image.Rectangle {
	return image.Rect(d.X, d.Y, d.X+d.Width, d.Y+d.Height)
}

// IoU is the intersection-over-union of two rectangles.
func IoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	ia := area(inter)
	union := area(a) + area(b) - ia
	if union <= 0 {
		return 0
	}
	return float64(ia) / float64(union)
}

func area(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}

func center(r image.Rectangle) image.Point {
	return image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
}
