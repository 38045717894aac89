package models

// PipSize returns the pip increment for a pair quoted at the given price.
// JPY-quoted pairs trade at two decimals, everything else at four.
func PipSize(price float64) float64 {
	if price >= 20 {
		return 0.01
	}
	return 0.0001
}
