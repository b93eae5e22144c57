package stats

// Peak describes a local maximum found by FindPeaks.
type Peak struct {
	Index      int
	Prominence float64
	Width      float64
	LeftBase   int
	RightBase  int
}

// FindPeaks returns the local maxima of x whose width, measured at half of the
// peak prominence, is at least minWidth. Flat tops are reported at their
// midpoint (rounded down). Endpoints are never peaks.
func FindPeaks(x []float64, minWidth float64) []Peak {
	var peaks []Peak
	for _, idx := range localMaxima(x) {
		p := Peak{Index: idx}
		p.Prominence, p.LeftBase, p.RightBase = prominence(x, idx)
		p.Width = widthAt(x, p, 0.5)
		if p.Width >= minWidth {
			peaks = append(peaks, p)
		}
	}
	return peaks
}

// localMaxima finds strict local maxima, treating plateaus as a single peak.
func localMaxima(x []float64) []int {
	var maxima []int
	n := len(x)
	i := 1
	for i < n-1 {
		if x[i-1] < x[i] {
			ahead := i + 1
			for ahead < n-1 && x[ahead] == x[i] {
				ahead++
			}
			if x[ahead] < x[i] {
				left, right := i, ahead-1
				maxima = append(maxima, (left+right)/2)
				i = ahead
			}
		}
		i++
	}
	return maxima
}

// prominence walks away from the peak on both sides until a higher sample or
// the border is met and returns the height of the peak over the higher of the
// two minima found.
func prominence(x []float64, peak int) (float64, int, int) {
	leftBase := peak
	leftMin := x[peak]
	for i := peak; i >= 0 && x[i] <= x[peak]; i-- {
		if x[i] < leftMin {
			leftMin = x[i]
			leftBase = i
		}
	}

	rightBase := peak
	rightMin := x[peak]
	for i := peak; i < len(x) && x[i] <= x[peak]; i++ {
		if x[i] < rightMin {
			rightMin = x[i]
			rightBase = i
		}
	}

	base := leftMin
	if rightMin > base {
		base = rightMin
	}
	return x[peak] - base, leftBase, rightBase
}

// widthAt measures the peak width at relHeight of its prominence, with linear
// interpolation between samples.
func widthAt(x []float64, p Peak, relHeight float64) float64 {
	height := x[p.Index] - p.Prominence*relHeight

	i := p.Index
	for p.LeftBase < i && height < x[i] {
		i--
	}
	left := float64(i)
	if x[i] < height {
		left += (height - x[i]) / (x[i+1] - x[i])
	}

	i = p.Index
	for i < p.RightBase && height < x[i] {
		i++
	}
	right := float64(i)
	if x[i] < height {
		right -= (height - x[i]) / (x[i-1] - x[i])
	}

	return right - left
}
