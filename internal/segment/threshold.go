package segment

// otsu returns the 8-bit threshold maximising the between-class variance.
// Pixels strictly above the threshold are foreground.
func otsu(gray []uint8) uint8 {
	if len(gray) == 0 {
		return 0
	}

	const bins = 256
	var histogram [bins]int
	for _, v := range gray {
		histogram[v]++
	}
	total := len(gray)

	var totalSum float64
	for i := range bins {
		totalSum += float64(i) * float64(histogram[i])
	}

	var maxVariance, sumB float64
	bestThreshold := 0
	wB := 0

	for t := range bins {
		wB += histogram[t]
		if wB == 0 {
			continue
		}

		wF := total - wB
		if wF == 0 {
			break
		}

		sumB += float64(t) * float64(histogram[t])
		meanB := sumB / float64(wB)
		meanF := (totalSum - sumB) / float64(wF)

		variance := float64(wB) * float64(wF) * (meanB - meanF) * (meanB - meanF)
		if variance > maxVariance {
			maxVariance = variance
			bestThreshold = t
		}
	}

	return uint8(bestThreshold)
}

// binarize writes 255 where src > t and 0 elsewhere.
func binarize(dst, src []uint8, t uint8) {
	for i, v := range src {
		if v > t {
			dst[i] = 255
		} else {
			dst[i] = 0
		}
	}
}
