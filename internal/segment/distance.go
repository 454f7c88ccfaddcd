package segment

import "math"

const distInf = 1e20

// distanceTransform writes into dst the exact Euclidean distance of every
// pixel of the binary image src to the nearest zero pixel (Felzenszwalb and
// Huttenlocher). Pixels outside the image are not background. When src has
// no zero pixel the result is all zero.
func distanceTransform(dst []float32, src []uint8, w, h int) {
	n := max(w, h)
	f := make([]float64, n)
	d := make([]float64, n)
	v := make([]int, n)
	z := make([]float64, n+1)

	grid := make([]float64, w*h)
	background := false
	for i, p := range src {
		if p == 0 {
			background = true
		} else {
			grid[i] = distInf
		}
	}
	if !background {
		clear(dst[:w*h])
		return
	}

	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			f[y] = grid[y*w+x]
		}
		dt1d(f[:h], d[:h], v, z)
		for y := 0; y < h; y++ {
			grid[y*w+x] = d[y]
		}
	}
	for y := 0; y < h; y++ {
		row := grid[y*w : (y+1)*w]
		copy(f, row)
		dt1d(f[:w], d[:w], v, z)
		for x := 0; x < w; x++ {
			dst[y*w+x] = float32(math.Sqrt(d[x]))
		}
	}
}

// dt1d is the squared distance transform of a sampled 1-D function.
func dt1d(f, d []float64, v []int, z []float64) {
	n := len(f)
	k := 0
	v[0] = 0
	z[0] = math.Inf(-1)
	z[1] = math.Inf(1)
	for q := 1; q < n; q++ {
		s := intersect(f, v[k], q)
		for s <= z[k] {
			k--
			s = intersect(f, v[k], q)
		}
		k++
		v[k] = q
		z[k] = s
		z[k+1] = math.Inf(1)
	}

	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		dq := float64(q - v[k])
		d[q] = dq*dq + f[v[k]]
	}
}

func intersect(f []float64, p, q int) float64 {
	fp, fq := float64(p), float64(q)
	return ((f[q] + fq*fq) - (f[p] + fp*fp)) / (2*fq - 2*fp)
}

// normalizeThreshold min-max scales dist to [0,255], rounds to 8 bits and
// writes 255 where the scaled value exceeds t.
func normalizeThreshold(dst []uint8, dist []float32, t uint8) {
	lo, hi := float32(math.Inf(1)), float32(math.Inf(-1))
	for _, v := range dist {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if !(hi > lo) {
		clear(dst[:len(dist)])
		return
	}
	scale := 255 / float64(hi-lo)
	for i, v := range dist {
		if math.Round(float64(v-lo)*scale) > float64(t) {
			dst[i] = 255
		} else {
			dst[i] = 0
		}
	}
}
