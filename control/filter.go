package control

// Filter is a recursive moving average over roughly Window samples. It keeps a fixed-point sum
// scaled by the window instead of a sample history, so a constant input is reached exactly.
type Filter struct {
	window int
	sum    int
}

// NewFilter creates a filter starting at zero. A window below 1 is treated as 1 (no smoothing).
func NewFilter(window int) *Filter {
	if window < 1 {
		window = 1
	}
	return &Filter{window: window}
}

// Update folds one sample into the average and returns the new filtered value
func (f *Filter) Update(sample int) int {
	f.sum = f.sum - f.sum/f.window + sample
	return f.Value()
}

// Value is the current filtered value
func (f *Filter) Value() int {
	return f.sum / f.window
}

// Window is the number of samples the average spans
func (f *Filter) Window() int {
	return f.window
}

// Reset drops the accumulated history
func (f *Filter) Reset() {
	f.sum = 0
}
