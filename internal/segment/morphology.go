package segment

// dilate writes the k×k rectangular dilation of the binary image src into
// dst. Pixels outside the image are ignored.
func dilate(dst, src []uint8, w, h, k int) {
	half := k / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			maxVal := uint8(0)

			for ky := -half; ky <= half && maxVal == 0; ky++ {
				for kx := -half; kx <= half; kx++ {
					nx, ny := x+kx, y+ky
					if nx >= 0 && nx < w && ny >= 0 && ny < h && src[ny*w+nx] > maxVal {
						maxVal = src[ny*w+nx]
					}
				}
			}

			dst[y*w+x] = maxVal
		}
	}
}

// erode writes the k×k rectangular erosion of src into dst. Pixels outside
// the image are ignored.
func erode(dst, src []uint8, w, h, k int) {
	half := k / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			minVal := uint8(255)

			for ky := -half; ky <= half && minVal != 0; ky++ {
				for kx := -half; kx <= half; kx++ {
					nx, ny := x+kx, y+ky
					if nx >= 0 && nx < w && ny >= 0 && ny < h && src[ny*w+nx] < minVal {
						minVal = src[ny*w+nx]
					}
				}
			}

			dst[y*w+x] = minVal
		}
	}
}
