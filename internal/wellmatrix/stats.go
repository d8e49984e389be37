package wellmatrix

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// SmallSampleLimit is the sample count below which StdDev applies Bessel's
// correction (divides by n-1 instead of n).
const SmallSampleLimit = 30

// Mean returns the elementwise arithmetic mean of co-indexed matrices.
func Mean(ms []Matrix) (Matrix, error) {
	if err := checkSamples("mean", ms); err != nil {
		return Matrix{}, err
	}

	sum, err := fold(ms, Zero(ms[0].rows, ms[0].cols), func(acc, x float64) float64 {
		return acc + x
	})
	if err != nil {
		return Matrix{}, err
	}
	n := float64(len(ms))
	return sum.Map(func(v float64) float64 { return v / n }), nil
}

// StdDev returns the elementwise standard deviation of ms around mean,
// sqrt(sum((x-mean)^2)/d), where d is n-1 for fewer than SmallSampleLimit
// samples and n otherwise. A single sample yields zeros.
func StdDev(ms []Matrix, mean Matrix) (Matrix, error) {
	if err := checkSamples("standard deviation", ms); err != nil {
		return Matrix{}, err
	}
	if !mean.SameIndex(ms[0]) {
		return Matrix{}, &ShapeMismatchError{Op: "standard deviation", Want: ms[0].Index(), Got: mean.Index()}
	}

	n := len(ms)
	out := Zero(mean.rows, mean.cols)
	if n == 1 {
		return out, nil
	}

	correction := 1.0
	if n < SmallSampleLimit {
		correction = float64(n) / float64(n-1)
	}

	samples := make([]float64, n)
	for k, mu := range mean.values {
		for s, m := range ms {
			samples[s] = m.values[k]
		}
		// MomentAbout(2, ...) is the population variance around mu.
		out.values[k] = math.Sqrt(stat.MomentAbout(2, samples, mu, nil) * correction)
	}
	return out, nil
}

// MeanStdDev computes Mean and then StdDev around it.
func MeanStdDev(ms []Matrix) (mean, std Matrix, err error) {
	mean, err = Mean(ms)
	if err != nil {
		return Matrix{}, Matrix{}, err
	}
	std, err = StdDev(ms, mean)
	if err != nil {
		return Matrix{}, Matrix{}, err
	}
	return mean, std, nil
}

func checkSamples(op string, ms []Matrix) error {
	if len(ms) == 0 {
		return &DegenerateInputError{Op: op, Reason: "no samples"}
	}
	for _, m := range ms[1:] {
		if !m.SameIndex(ms[0]) {
			return &ShapeMismatchError{Op: op, Want: ms[0].Index(), Got: m.Index()}
		}
	}
	return nil
}

// fold reduces ms into a new matrix starting from init, never modifying any
// input.
func fold(ms []Matrix, init Matrix, f func(acc, x float64) float64) (Matrix, error) {
	acc := init
	for _, m := range ms {
		next, err := zipWith("fold", acc, m, f)
		if err != nil {
			return Matrix{}, err
		}
		acc = next
	}
	return acc, nil
}
