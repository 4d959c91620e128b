package colorscale

import (
	"fmt"
	"math"

	"climap/internal/failure"
)

// Linspace returns n evenly spaced values from start to stop inclusive.
func Linspace(start, stop float64, n int) ([]float64, error) {
	if n < 2 {
		return nil, fmt.Errorf("linspace needs at least 2 points, got %d: %w", n, failure.ErrConfig)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = start + (stop-start)*float64(i)/float64(n-1)
	}
	out[n-1] = stop
	return out, nil
}

// Arange returns start, start+step, ... up to stop inclusive, the way GMT's
// makecpt -T start/stop/step does.
func Arange(start, stop, step float64) ([]float64, error) {
	if !(step > 0) || !(stop > start) {
		return nil, fmt.Errorf("series %g/%g/%g must increase: %w", start, stop, step, failure.ErrConfig)
	}
	n := int(math.Floor((stop-start)/step+1e-9)) + 1
	if n < 2 {
		return nil, fmt.Errorf("series %g/%g/%g has fewer than 2 edges: %w", start, stop, step, failure.ErrConfig)
	}
	out := make([]float64, n)
	for i := range out {
		// multiply rather than accumulate so edges do not drift
		out[i] = start + float64(i)*step
	}
	return out, nil
}
