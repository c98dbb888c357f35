package detector

import (
	"testing"

	"issue-detection-service/internal/domain/detection"
)

func TestPostprocessConfidenceFilter(t *testing.T) {
	raw := []detection.Detection{
		{Class: detection.ClassPothole, Confidence: 0.9, Box: detection.Box{X1: 0, Y1: 0, X2: 10, Y2: 10}},
		{Class: detection.ClassPothole, Confidence: 0.1, Box: detection.Box{X1: 50, Y1: 50, X2: 60, Y2: 60}},
	}

	got := Postprocess(raw, 100, 100, Options{ConfThreshold: 0.25, IoUThreshold: 0.45})
	if len(got) != 1 {
		t.Fatalf("Postprocess() kept %d detections, want 1", len(got))
	}
	if got[0].Confidence != 0.9 {
		t.Errorf("kept confidence = %f, want 0.9", got[0].Confidence)
	}
}

func TestPostprocessMergesSameClassOverlap(t *testing.T) {
	raw := []detection.Detection{
		{Class: detection.ClassPothole, Confidence: 0.8, Box: detection.Box{X1: 0, Y1: 0, X2: 10, Y2: 10}},
		{Class: detection.ClassPothole, Confidence: 0.9, Box: detection.Box{X1: 1, Y1: 1, X2: 11, Y2: 11}},
	}

	got := Postprocess(raw, 100, 100, Options{ConfThreshold: 0.25, IoUThreshold: 0.45})
	if len(got) != 1 {
		t.Fatalf("Postprocess() kept %d detections, want 1 after merge", len(got))
	}
	if got[0].Confidence != 0.9 {
		t.Errorf("merge kept confidence %f, want the higher 0.9", got[0].Confidence)
	}
}

func TestPostprocessKeepsDifferentClassOverlap(t *testing.T) {
	raw := []detection.Detection{
		{Class: detection.ClassPothole, Confidence: 0.8, Box: detection.Box{X1: 0, Y1: 0, X2: 10, Y2: 10}},
		{Class: detection.ClassGarbage, Confidence: 0.9, Box: detection.Box{X1: 0, Y1: 0, X2: 10, Y2: 10}},
	}

	got := Postprocess(raw, 100, 100, Options{ConfThreshold: 0.25, IoUThreshold: 0.45})
	if len(got) != 2 {
		t.Fatalf("Postprocess() kept %d detections, want 2 (different classes never merge)", len(got))
	}
}

func TestPostprocessClampsBoxes(t *testing.T) {
	raw := []detection.Detection{
		{Class: detection.ClassGarbage, Confidence: 0.7, Box: detection.Box{X1: -15, Y1: -5, X2: 120, Y2: 50}},
	}

	got := Postprocess(raw, 100, 100, Options{ConfThreshold: 0.25, IoUThreshold: 0.45})
	if len(got) != 1 {
		t.Fatalf("Postprocess() kept %d detections, want 1", len(got))
	}
	box := got[0].Box
	if box.X1 != 0 || box.Y1 != 0 || box.X2 != 100 || box.Y2 != 50 {
		t.Errorf("box not clamped to image bounds: %+v", box)
	}
}

func TestPostprocessMaxDetections(t *testing.T) {
	raw := make([]detection.Detection, 0, 8)
	for i := 0; i < 8; i++ {
		x := float64(i * 20)
		raw = append(raw, detection.Detection{
			Class:      detection.ClassPothole,
			Confidence: 0.5 + float64(i)/100,
			Box:        detection.Box{X1: x, Y1: 0, X2: x + 10, Y2: 10},
		})
	}

	got := Postprocess(raw, 1000, 1000, Options{ConfThreshold: 0.25, IoUThreshold: 0.45, MaxDetections: 5})
	if len(got) != 5 {
		t.Fatalf("Postprocess() kept %d detections, want cap of 5", len(got))
	}
}
