package occlusion

// Resolution is the outcome of Resolve.
type Resolution struct {
	Occluded bool
	// Depth is the corrected target depth; meaningful only when not occluded.
	Depth float64
	// RecoveryDepth is set when an occluder contains z: the depth just
	// behind the occluder at which the target is expected to reappear.
	RecoveryDepth float64
	// Target is the index of the object the target was locked to, or -1.
	Target   int
	Occluder int
}

// Resolve decides whether the target at mean-shift depth z is occluded,
// given the classified and matched objects of the current frame.
// An occluder containing z wins over any target object, and an empty
// object list resolves to occluded.
func Resolve(objs []*DetectedObject, z, zRange float64) Resolution {
	res := Resolution{Occluded: true, Target: -1, Occluder: -1}

	for i, o := range objs {
		if o.Type == Occluder && o.ContainsDepth(z) {
			res.Occluder = i
			res.RecoveryDepth = o.Max + zRange/4
			return res
		}
	}

	best := -1
	bestDist := 0.0
	for i, o := range objs {
		if o.Type != Target {
			continue
		}
		d := abs(z - o.Median)
		if !o.ContainsDepth(z) && d >= zRange {
			continue
		}
		if best == -1 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best >= 0 {
		res.Occluded = false
		res.Target = best
		res.Depth = objs[best].Median
	}
	return res
}
