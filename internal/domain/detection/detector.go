package detection

import "context"

// Detector runs the object-detection model on an encoded image and returns
// the post-processed detections. Implementations must be safe for
// concurrent use; ordering of the returned slice carries no meaning.
type Detector interface {
	Detect(ctx context.Context, imageData []byte) ([]Detection, error)
}
