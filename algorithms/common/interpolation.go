package common

// ParabolicMinimum fits a parabola through data[idx-1], data[idx], data[idx+1] and
// returns the abscissa and value of its vertex. At the slice edges, or when the
// three points are collinear, it returns idx and data[idx] unchanged.
func ParabolicMinimum(data []float64, idx int) (position, value float64) {
	if idx <= 0 || idx >= len(data)-1 {
		return float64(idx), data[idx]
	}

	y1 := data[idx-1]
	y2 := data[idx]
	y3 := data[idx+1]

	a := (y1 - 2*y2 + y3) / 2
	b := (y3 - y1) / 2

	if a == 0 {
		return float64(idx), y2
	}

	offset := -b / (2 * a)

	// A vertex more than one bin away means idx was not a real extremum
	if offset < -1 || offset > 1 {
		return float64(idx), y2
	}

	return float64(idx) + offset, y2 - b*b/(4*a)
}
