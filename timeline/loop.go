package timeline

// LoopArea is the loop region in pulses.
type LoopArea struct {
	From    float64
	To      float64
	Enabled bool
}

// Valid reports if the region has a positive length.
func (l LoopArea) Valid() bool {
	return l.To > l.From
}
