package motion

// History is a fixed-size ring of recent intensities.
type History struct {
	values []float64
	next   int
	count  int
}

// NewHistory allocates a ring holding up to size readings.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{values: make([]float64, size)}
}

// Push records a reading, evicting the oldest when full.
func (h *History) Push(v float64) {
	if h == nil || len(h.values) == 0 {
		return
	}
	h.values[h.next] = v
	h.next = (h.next + 1) % len(h.values)
	if h.count < len(h.values) {
		h.count++
	}
}

// Len reports the number of retained readings.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return h.count
}

// Last returns the newest reading.
func (h *History) Last() (float64, bool) {
	if h == nil || h.count == 0 {
		return 0, false
	}
	idx := (h.next - 1 + len(h.values)) % len(h.values)
	return h.values[idx], true
}

// Peak returns the largest retained reading.
func (h *History) Peak() float64 {
	if h == nil {
		return 0
	}
	peak := 0.0
	for i := 0; i < h.count; i++ {
		if h.values[i] > peak {
			peak = h.values[i]
		}
	}
	return peak
}

// Average returns the mean of the retained readings.
func (h *History) Average() float64 {
	if h == nil || h.count == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < h.count; i++ {
		sum += h.values[i]
	}
	return sum / float64(h.count)
}

// Values returns the retained readings oldest first.
func (h *History) Values() []float64 {
	if h == nil || h.count == 0 {
		return nil
	}
	out := make([]float64, 0, h.count)
	start := 0
	if h.count == len(h.values) {
		start = h.next
	}
	for i := 0; i < h.count; i++ {
		out = append(out, h.values[(start+i)%len(h.values)])
	}
	return out
}
