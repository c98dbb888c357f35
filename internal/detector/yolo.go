//go:build gocv
// +build gocv

package detector

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"issue-detection-service/internal/domain/detection"
)

const inputSize = 640

// classNames maps the model's class index to the domain class. The order
// matches the training label file of the custom YOLOv8 model.
var classNames = []detection.Class{
	detection.ClassPothole,
	detection.ClassGarbage,
}

// YOLODetector runs a custom-trained YOLOv8 ONNX model through the OpenCV
// DNN module. The network is loaded once and shared; Forward is not safe
// for concurrent use, so inference calls are serialized through a mutex.
type YOLODetector struct {
	mu   sync.Mutex
	net  gocv.Net
	opts Options
}

// NewYOLODetector loads the ONNX model from disk. A load failure here is
// fatal for the service: no request can be served without the model.
func NewYOLODetector(modelPath string, opts Options) (*YOLODetector, error) {
	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load detection model from %s", modelPath)
	}
	return &YOLODetector{net: net, opts: opts}, nil
}

func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

// Detect decodes the image, runs one forward pass and post-processes the
// raw candidates. The context is honored only up to the point the forward
// pass starts; callers bound the total wait (see service.ReportService).
func (d *YOLODetector) Detect(ctx context.Context, imageData []byte) ([]detection.Detection, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err != nil || mat.Empty() {
		if !mat.Empty() {
			mat.Close()
		}
		return nil, errors.New("failed to decode image")
	}
	defer mat.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	width := float64(mat.Cols())
	height := float64(mat.Rows())

	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(inputSize, inputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	d.mu.Unlock()
	defer output.Close()

	raw := parseYOLOOutput(output, width, height)
	return Postprocess(raw, width, height, d.opts), nil
}

// parseYOLOOutput reads the [1 x (4+numClasses) x anchors] YOLOv8 output
// tensor and converts each anchor into an image-space candidate box.
func parseYOLOOutput(output gocv.Mat, imageWidth, imageHeight float64) []detection.Detection {
	sizes := output.Size()
	if len(sizes) != 3 {
		return nil
	}
	rows := sizes[1]
	anchors := sizes[2]
	numClasses := rows - 4
	if numClasses <= 0 {
		return nil
	}

	scaleX := imageWidth / inputSize
	scaleY := imageHeight / inputSize

	at := func(row, col int) float64 {
		return float64(output.GetFloatAt3(0, row, col))
	}

	raw := make([]detection.Detection, 0, 64)
	for a := 0; a < anchors; a++ {
		bestScore := 0.0
		bestClass := -1
		for c := 0; c < numClasses && c < len(classNames); c++ {
			if score := at(4+c, a); score > bestScore {
				bestScore = score
				bestClass = c
			}
		}
		if bestClass < 0 {
			continue
		}

		cx := at(0, a) * scaleX
		cy := at(1, a) * scaleY
		w := at(2, a) * scaleX
		h := at(3, a) * scaleY

		raw = append(raw, detection.Detection{
			Class:      classNames[bestClass],
			Confidence: bestScore,
			Box: detection.Box{
				X1: cx - w/2,
				Y1: cy - h/2,
				X2: cx + w/2,
				Y2: cy + h/2,
			},
		})
	}
	return raw
}
