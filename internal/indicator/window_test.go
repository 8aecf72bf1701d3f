package indicator

import (
	"math"
	"testing"
)

func TestWindowMeanStdDev(t *testing.T) {
	window := NewWindow(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		window.Add(v)
	}

	mean, std, err := window.MeanStdDev()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mean != 4 {
		t.Fatalf("expected mean 4, got %.4f", mean)
	}
	if math.Abs(std-1) > 1e-12 {
		t.Fatalf("expected sample std 1, got %.6f", std)
	}
	// wrap-around keeps only the trailing three values
	window.Add(8)
	if mean, _ := window.Mean(); math.Abs(mean-17.0/3) > 1e-12 {
		t.Fatalf("expected mean of [4 5 8], got %.6f", mean)
	}
}

func TestWindowNotFull(t *testing.T) {
	window := NewWindow(5)
	window.Add(1)

	if _, err := window.Mean(); err == nil {
		t.Fatalf("expected error for partial window")
	}
	if window.Full() {
		t.Fatalf("window should not report full")
	}
	if _, _, err := window.MeanStdDev(); err == nil {
		t.Fatalf("expected std error for partial window")
	}
}
