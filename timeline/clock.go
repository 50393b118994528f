package timeline

// Clock is the transport clock. It tracks the playhead and the transport
// flags and remembers when the playhead was moved from the outside.
type Clock struct {
	position     float64
	transporting bool
	recording    bool
	countingIn   bool
	metronome    bool
	leap         bool
}

// NewClock returns a stopped clock at position zero. The leap flag is raised
// so the first transporting block is marked discontinuous.
func NewClock() *Clock {
	return &Clock{leap: true}
}

// Position returns the playhead in pulses.
func (c *Clock) Position() float64 {
	return c.position
}

// SetPosition moves the playhead and raises the leap flag.
func (c *Clock) SetPosition(p float64) {
	c.position = p
	c.leap = true
}

// Advance moves the playhead as a result of playback. The leap flag is
// left untouched.
func (c *Clock) Advance(p float64) {
	c.position = p
}

// LeapAndReset returns the leap flag and clears it.
func (c *Clock) LeapAndReset() bool {
	leap := c.leap
	c.leap = false
	return leap
}

// Transporting reports if the playhead moves.
func (c *Clock) Transporting() bool {
	return c.transporting
}

// SetTransporting starts or pauses the playhead.
func (c *Clock) SetTransporting(v bool) {
	c.transporting = v
}

// Recording reports if the transport is recording.
func (c *Clock) Recording() bool {
	return c.recording
}

// SetRecording sets the recording flag.
func (c *Clock) SetRecording(v bool) {
	c.recording = v
}

// CountingIn reports if the transport plays a count-in before recording.
func (c *Clock) CountingIn() bool {
	return c.countingIn
}

// SetCountingIn sets the count-in flag.
func (c *Clock) SetCountingIn(v bool) {
	c.countingIn = v
}

// MetronomeEnabled reports if the metronome should be rendered.
func (c *Clock) MetronomeEnabled() bool {
	return c.metronome
}

// SetMetronomeEnabled enables or disables the metronome.
func (c *Clock) SetMetronomeEnabled(v bool) {
	c.metronome = v
}
