package compliance

import "math"

// payLine is pay = intercept + slope*points fitted by ordinary least squares.
type payLine struct {
	intercept float64
	slope     float64
}

func (l payLine) predict(points float64) float64 {
	return l.intercept + l.slope*points
}

// fitPayLine fits the line over (points, pay) pairs. With a single distinct
// point value the slope is undefined and the line is flat at the mean pay.
func fitPayLine(points, pay []float64) payLine {
	n := float64(len(points))
	if n == 0 {
		return payLine{}
	}
	meanX, meanY := mean(points), mean(pay)
	var sxx, sxy float64
	for i := range points {
		dx := points[i] - meanX
		sxx += dx * dx
		sxy += dx * (pay[i] - meanY)
	}
	if sxx == 0 {
		return payLine{intercept: meanY}
	}
	slope := sxy / sxx
	return payLine{intercept: meanY - slope*meanX, slope: slope}
}

// oneSampleT returns the t statistic of values against zero and its degrees
// of freedom. ok is false when fewer than two values or zero spread.
func oneSampleT(values []float64) (t float64, df int, ok bool) {
	n := len(values)
	if n < 2 {
		return 0, n - 1, false
	}
	m := mean(values)
	var ss float64
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	sd := math.Sqrt(ss / float64(n-1))
	if sd == 0 {
		return 0, n - 1, false
	}
	return m / (sd / math.Sqrt(float64(n))), n - 1, true
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
