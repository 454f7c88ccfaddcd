package occlusion

// Classify assigns a type to every object still Unknown after matching.
// pz is the depth of the predicted target position, windowZ the depth the
// target was last tracked at and zRange the target's depth half-width.
func Classify(objs []*DetectedObject, pz, windowZ, zRange float64) {
	for _, o := range objs {
		if o.Type != Unknown {
			continue
		}
		o.Type = classify(o, pz, windowZ, zRange)
	}
}

func classify(o *DetectedObject, pz, windowZ, zRange float64) ObjectType {
	switch {
	case o.Max < pz && o.Max < windowZ:
		return Occluder
	case o.ContainsDepth(pz):
		return Target
	case abs(pz-o.Median) < zRange:
		return Target
	default:
		return Background
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
