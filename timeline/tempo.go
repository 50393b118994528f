package timeline

import "sort"

// Interpolation defines how tempo changes between two automation points.
type Interpolation int

const (
	// Step holds the value of a point until the next one.
	Step Interpolation = iota
	// Linear ramps towards the value of the next point.
	Linear
)

// TempoPoint is a single tempo automation point.
type TempoPoint struct {
	Position      float64
	BPM           float64
	Interpolation Interpolation
}

// TempoTrack is the tempo automation of the timeline.
type TempoTrack struct {
	Enabled bool
	points  []TempoPoint
}

// NewTempoTrack returns enabled automation with provided points.
func NewTempoTrack(points ...TempoPoint) *TempoTrack {
	t := &TempoTrack{Enabled: true}
	t.Set(points...)
	return t
}

// Set replaces all automation points.
func (t *TempoTrack) Set(points ...TempoPoint) {
	t.points = append(t.points[:0], points...)
	sort.SliceStable(t.points, func(i, j int) bool {
		return t.points[i].Position < t.points[j].Position
	})
}

// Points returns the automation points ordered by position.
func (t *TempoTrack) Points() []TempoPoint {
	return t.points
}

// ValueAt returns the automated tempo at position. Fallback is returned if
// the track is nil, disabled or empty.
func (t *TempoTrack) ValueAt(position, fallback float64) float64 {
	if t == nil || !t.Enabled || len(t.points) == 0 {
		return fallback
	}
	// first point after position
	i := sort.Search(len(t.points), func(i int) bool {
		return t.points[i].Position > position
	})
	if i == 0 {
		return t.points[0].BPM
	}
	prev := t.points[i-1]
	if i == len(t.points) || prev.Interpolation == Step {
		return prev.BPM
	}
	next := t.points[i]
	ratio := (position - prev.Position) / (next.Position - prev.Position)
	return prev.BPM + (next.BPM-prev.BPM)*ratio
}
