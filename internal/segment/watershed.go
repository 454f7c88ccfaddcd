package segment

const (
	watershedLine int32 = -1
	inQueue       int32 = -2
)

// levelQueue is a FIFO per 8-bit priority level.
type levelQueue struct {
	buckets [256][]int
	heads   [256]int
	active  int
}

func (q *levelQueue) push(level uint8, idx int) {
	q.buckets[level] = append(q.buckets[level], idx)
	if int(level) < q.active {
		q.active = int(level)
	}
}

func (q *levelQueue) pop() (int, bool) {
	for q.active < len(q.buckets) {
		b := q.active
		if q.heads[b] < len(q.buckets[b]) {
			idx := q.buckets[b][q.heads[b]]
			q.heads[b]++
			return idx, true
		}
		q.active++
	}
	return 0, false
}

// watershed floods the marker image in place over the gradient of the packed
// RGB image (Meyer's algorithm). Positive markers are seeds, 0 is unknown.
// On return each reachable pixel carries the label of the basin that flooded
// it, or -1 where two basins meet.
func watershed(markers []int32, rgb []uint8, w, h int) {
	var q levelQueue

	diff := func(a, b int) uint8 {
		d := absDiff(rgb[3*a], rgb[3*b])
		d = max(d, absDiff(rgb[3*a+1], rgb[3*b+1]))
		return max(d, absDiff(rgb[3*a+2], rgb[3*b+2]))
	}
	var nbuf [4]int
	neighbors := func(i int) []int {
		x, y := i%w, i/w
		ns := nbuf[:0]
		if x > 0 {
			ns = append(ns, i-1)
		}
		if x < w-1 {
			ns = append(ns, i+1)
		}
		if y > 0 {
			ns = append(ns, i-w)
		}
		if y < h-1 {
			ns = append(ns, i+w)
		}
		return ns
	}

	for i, m := range markers {
		if m != 0 {
			continue
		}
		level, seeded := 256, false
		for _, n := range neighbors(i) {
			if markers[n] > 0 {
				level = min(level, int(diff(i, n)))
				seeded = true
			}
		}
		if seeded {
			q.push(uint8(level), i)
			markers[i] = inQueue
		}
	}

	for {
		i, ok := q.pop()
		if !ok {
			break
		}

		lab := int32(0)
		for _, n := range neighbors(i) {
			t := markers[n]
			if t <= 0 {
				continue
			}
			if lab == 0 {
				lab = t
			} else if t != lab {
				lab = watershedLine
			}
		}
		markers[i] = lab
		if lab <= 0 {
			continue
		}

		for _, n := range neighbors(i) {
			if markers[n] == 0 {
				q.push(diff(n, i), n)
				markers[n] = inQueue
			}
		}
	}
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
