package detector

import (
	"sort"

	"issue-detection-service/internal/domain/detection"
)

// Options tune how raw model output is turned into final detections.
type Options struct {
	// ConfThreshold discards candidates with a lower confidence. Must be
	// in (0, 1].
	ConfThreshold float64
	// IoUThreshold controls duplicate suppression: two boxes of the same
	// class whose overlap exceeds it are merged, keeping the
	// higher-confidence one. Must be in [0, 1].
	IoUThreshold float64
	// MaxDetections caps the number of detections returned per image.
	// Zero means no cap.
	MaxDetections int
}

// Postprocess filters raw model candidates down to the final detection list:
// confidence filtering, clamping boxes to image bounds, same-class
// non-maximum suppression, and an optional cap on the result size.
func Postprocess(raw []detection.Detection, imageWidth, imageHeight float64, opts Options) []detection.Detection {
	candidates := make([]detection.Detection, 0, len(raw))
	for _, d := range raw {
		if d.Confidence < opts.ConfThreshold {
			continue
		}
		d.Box = clampBox(d.Box, imageWidth, imageHeight)
		if d.Box.Area() <= 0 {
			continue
		}
		candidates = append(candidates, d)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	kept := make([]detection.Detection, 0, len(candidates))
	for _, candidate := range candidates {
		suppressed := false
		for _, winner := range kept {
			if winner.Class != candidate.Class {
				continue
			}
			if winner.Box.IoU(candidate.Box) > opts.IoUThreshold {
				suppressed = true
				break
			}
		}
		if suppressed {
			continue
		}
		kept = append(kept, candidate)
		if opts.MaxDetections > 0 && len(kept) >= opts.MaxDetections {
			break
		}
	}

	return kept
}

func clampBox(b detection.Box, width, height float64) detection.Box {
	b.X1 = clamp(b.X1, 0, width)
	b.Y1 = clamp(b.Y1, 0, height)
	b.X2 = clamp(b.X2, 0, width)
	b.Y2 = clamp(b.Y2, 0, height)
	return b
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
