//go:build !gocv
// +build !gocv

package detector

import (
	"context"
	"errors"

	"issue-detection-service/internal/domain/detection"
)

// YOLODetector stub used when the binary is built without the gocv tag.
// It constructs fine so the rest of the service can be wired and tested,
// but every inference call fails.
type YOLODetector struct {
	opts Options
}

func NewYOLODetector(modelPath string, opts Options) (*YOLODetector, error) {
	_ = modelPath
	return &YOLODetector{opts: opts}, nil
}

func (d *YOLODetector) Close() error { return nil }

func (d *YOLODetector) Detect(ctx context.Context, imageData []byte) ([]detection.Detection, error) {
	_ = ctx
	_ = imageData
	return nil, errors.New("gocv build tag is not enabled")
}
