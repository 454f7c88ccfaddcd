package segment

import "github.com/MeKo-Tech/vtrack/internal/mempool"

// connectedComponents labels the 8-connected foreground components of the
// binary image mask with 1..k in raster order of their first pixel.
// Background pixels get 0.
func connectedComponents(mask []uint8, w, h int) ([]int32, int) {
	labels := make([]int32, w*h)
	// Every pixel is enqueued at most once, so a w*h queue never wraps.
	queue := mempool.GetInt32(w * h)
	defer mempool.PutInt32(queue)
	label := int32(0)

	for y := range h {
		for x := range w {
			idx := y*w + x
			if mask[idx] == 0 || labels[idx] != 0 {
				continue
			}
			label++
			labels[idx] = label
			queue[0] = int32(idx)
			head, tail := 0, 1
			for head < tail {
				ci := int(queue[head])
				head++
				tail = visitNeighbors(mask, labels, queue, tail, w, h, ci%w, ci/w, label)
			}
		}
	}

	return labels, int(label)
}

var neighbors8 = [8][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}}

// visitNeighbors labels and enqueues the unlabelled foreground neighbours of
// (cx, cy), returning the new queue tail.
func visitNeighbors(mask []uint8, labels, queue []int32, tail, w, h, cx, cy int, label int32) int {
	for _, d := range neighbors8 {
		nx, ny := cx+d[0], cy+d[1]
		if nx < 0 || nx >= w || ny < 0 || ny >= h {
			continue
		}
		ni := ny*w + nx
		if mask[ni] != 0 && labels[ni] == 0 {
			labels[ni] = label
			queue[tail] = int32(ni)
			tail++
		}
	}
	return tail
}
