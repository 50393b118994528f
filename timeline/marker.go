package timeline

import "sort"

// Marker starts a section of the arrangement. The section ends at the
// next marker and plays Plays times before playback moves on. Zero plays
// repeats the section forever.
type Marker struct {
	ID       int
	Position float64
	Plays    int
}

// MarkerTrack is an ordered set of markers.
type MarkerTrack struct {
	// Enabled can be toggled between passes. A disabled track clears the
	// active section.
	Enabled bool
	markers []Marker
	version uint64
}

// MarkerCursor iterates markers in position order. The zero value is an
// exhausted cursor.
type MarkerCursor struct {
	markers []Marker
	index   int
}

// NewMarkerTrack returns enabled track with provided markers.
func NewMarkerTrack(markers ...Marker) *MarkerTrack {
	t := &MarkerTrack{Enabled: true}
	t.Set(markers...)
	return t
}

// Set replaces all markers.
func (t *MarkerTrack) Set(markers ...Marker) {
	t.markers = append(t.markers[:0], markers...)
	sort.SliceStable(t.markers, func(i, j int) bool {
		return t.markers[i].Position < t.markers[j].Position
	})
	t.version++
}

// Add inserts the marker keeping the order.
func (t *MarkerTrack) Add(m Marker) {
	i := sort.Search(len(t.markers), func(i int) bool {
		return t.markers[i].Position > m.Position
	})
	t.markers = append(t.markers, Marker{})
	copy(t.markers[i+1:], t.markers[i:])
	t.markers[i] = m
	t.version++
}

// Remove deletes the marker with provided id.
func (t *MarkerTrack) Remove(id int) bool {
	for i := range t.markers {
		if t.markers[i].ID == id {
			t.markers = append(t.markers[:i], t.markers[i+1:]...)
			t.version++
			return true
		}
	}
	return false
}

// Markers returns markers ordered by position.
func (t *MarkerTrack) Markers() []Marker {
	return t.markers
}

// Version changes every time the track is modified.
func (t *MarkerTrack) Version() uint64 {
	return t.version
}

// LowerEqual returns the last marker at or before position.
func (t *MarkerTrack) LowerEqual(position float64) (Marker, bool) {
	i := sort.Search(len(t.markers), func(i int) bool {
		return t.markers[i].Position > position
	})
	if i == 0 {
		return Marker{}, false
	}
	return t.markers[i-1], true
}

// Next returns the marker that follows m.
func (t *MarkerTrack) Next(m Marker) (Marker, bool) {
	for i := range t.markers {
		if t.markers[i].ID == m.ID {
			if i+1 < len(t.markers) {
				return t.markers[i+1], true
			}
			return Marker{}, false
		}
	}
	return Marker{}, false
}

// Cursor returns a cursor positioned at the first marker at or after from.
func (t *MarkerTrack) Cursor(from float64) MarkerCursor {
	i := sort.Search(len(t.markers), func(i int) bool {
		return t.markers[i].Position >= from
	})
	return MarkerCursor{markers: t.markers, index: i}
}

// Next returns the next marker and advances the cursor.
func (c *MarkerCursor) Next() (Marker, bool) {
	if c.index >= len(c.markers) {
		return Marker{}, false
	}
	m := c.markers[c.index]
	c.index++
	return m, true
}
