package features

// SMA returns the simple moving average series of the given window length.
// out[i] is the mean of values[i : i+length]. Nil when there are fewer values than length.
func SMA(values []float64, length int) []float64 {
	if length <= 0 || len(values) < length {
		return nil
	}
	out := make([]float64, 0, len(values)-length+1)
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= length {
			sum -= values[i-length]
		}
		if i >= length-1 {
			out = append(out, sum/float64(length))
		}
	}
	return out
}

// LastSMA is the moving average over the final length values.
func LastSMA(values []float64, length int) (float64, bool) {
	if length <= 0 || len(values) < length {
		return 0, false
	}
	sum := 0.0
	for _, v := range values[len(values)-length:] {
		sum += v
	}
	return sum / float64(length), true
}

// PctChange returns the percentage change from prev to cur. Zero when prev is not positive.
func PctChange(prev, cur float64) float64 {
	if prev <= 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}
