package camera

// MouseLook turns absolute cursor positions into look deltas. The first
// sample only seeds the last position so it never produces a jump.
type MouseLook struct {
	first bool
	lastX float32
	lastY float32
}

// NewMouseLook returns a sampler waiting for its first position.
func NewMouseLook() *MouseLook {
	return &MouseLook{first: true}
}

// Observe records a cursor position and returns the movement since the
// previous one. dy is positive when the cursor moves up the screen.
func (m *MouseLook) Observe(x, y float32) (dx, dy float32) {
	if m.first {
		m.lastX, m.lastY = x, y
		m.first = false
		return 0, 0
	}
	dx = x - m.lastX
	dy = m.lastY - y
	m.lastX, m.lastY = x, y
	return dx, dy
}

// Reset makes the next Observe a first sample again, e.g. after the
// cursor was released and recaptured.
func (m *MouseLook) Reset() {
	m.first = true
}
