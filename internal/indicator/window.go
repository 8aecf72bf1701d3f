package indicator

import (
	"errors"

	"gonum.org/v1/gonum/stat"
)

// Window is a fixed-size trailing window over a float series.
type Window struct {
	values []float64
	size   int
	index  int
	filled bool
}

func NewWindow(size int) *Window {
	return &Window{
		values: make([]float64, size),
		size:   size,
	}
}

func (w *Window) Add(value float64) {
	w.values[w.index] = value
	w.index = (w.index + 1) % w.size
	if w.index == 0 {
		w.filled = true
	}
}

func (w *Window) Full() bool {
	return w.filled
}

func (w *Window) Mean() (float64, error) {
	if !w.filled {
		return 0, errors.New("window not full")
	}
	return stat.Mean(w.values, nil), nil
}

// MeanStdDev returns the mean and the sample (n-1) standard deviation.
func (w *Window) MeanStdDev() (float64, float64, error) {
	if !w.filled {
		return 0, 0, errors.New("window not full")
	}
	if w.size < 2 {
		return 0, 0, errors.New("window too small for standard deviation")
	}
	mean, std := stat.MeanStdDev(w.values, nil)
	return mean, std, nil
}
