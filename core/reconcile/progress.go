package reconcile

// Progress receives the run-wide completion fraction, in [0, 1].
// Successive values never decrease.
type Progress interface {
	Report(fraction float64)
}

// ProgressFunc adapts a function to Progress.
type ProgressFunc func(fraction float64)

// Report calls f.
func (f ProgressFunc) Report(fraction float64) {
	f(fraction)
}

type nopProgress struct{}

func (nopProgress) Report(float64) {}

// kindProgress maps the batch progress of pass k (of n passes) onto the run-wide fraction.
func kindProgress(p Progress, k, n int) func(done, total int) {
	return func(done, total int) {
		frac := 1.0
		if total > 0 {
			frac = float64(done) / float64(total)
		}
		p.Report((float64(k) + frac) / float64(n))
	}
}
