package detection

import (
	"fmt"
	"time"
)

// Class is one of the object classes the detection model is trained on.
// The set is closed: anything else coming out of the model mapping is a bug.
type Class string

const (
	ClassPothole Class = "pothole"
	ClassGarbage Class = "garbage"
)

// Classes lists all known classes in routing-priority order (used for
// department tie-breaking, pothole wins over garbage).
func Classes() []Class {
	return []Class{ClassPothole, ClassGarbage}
}

func ParseClass(s string) (Class, error) {
	switch Class(s) {
	case ClassPothole, ClassGarbage:
		return Class(s), nil
	}
	return "", fmt.Errorf("unknown detection class %q", s)
}

// Box is a bounding box in image-space pixel coordinates.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

func (b Box) Width() float64  { return b.X2 - b.X1 }
func (b Box) Height() float64 { return b.Y2 - b.Y1 }
func (b Box) Area() float64 {
	if b.X2 <= b.X1 || b.Y2 <= b.Y1 {
		return 0
	}
	return b.Width() * b.Height()
}

// IoU returns the intersection-over-union ratio of two boxes.
func (b Box) IoU(other Box) float64 {
	ix1 := max(b.X1, other.X1)
	iy1 := max(b.Y1, other.Y1)
	ix2 := min(b.X2, other.X2)
	iy2 := min(b.Y2, other.Y2)
	if ix2 <= ix1 || iy2 <= iy1 {
		return 0
	}
	inter := (ix2 - ix1) * (iy2 - iy1)
	union := b.Area() + other.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Detection is one model-reported object instance.
type Detection struct {
	Class      Class   `json:"class"`
	Box        Box     `json:"box"`
	Confidence float64 `json:"confidence"`
}

// Summary maps a class to how many times it was detected in one image.
// Classes with zero detections are absent from the map.
type Summary map[Class]int

// Summarize groups detections by class. Order of the input does not matter
// and the value-sum always equals len(detections).
func Summarize(detections []Detection) Summary {
	summary := make(Summary, len(Classes()))
	for _, d := range detections {
		summary[d.Class]++
	}
	return summary
}

// Total returns the number of detected issues across all classes.
func (s Summary) Total() int {
	total := 0
	for _, n := range s {
		total += n
	}
	return total
}

// Empty reports whether the summary contains no issues at all.
func (s Summary) Empty() bool {
	return s.Total() == 0
}

// Report is the persisted record of one submitted detection event.
type Report struct {
	ID        uint       `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Summary   Summary    `json:"summary"`
	Severity  Severity   `json:"severity"`
	Dept      Department `json:"department"`
	Latitude  *float64   `json:"latitude,omitempty"`
	Longitude *float64   `json:"longitude,omitempty"`
	ImageURL  string     `json:"image_url"`
	Feedback  Feedback   `json:"feedback"`
}

// Feedback is a user's post-hoc correctness judgment of a report.
type Feedback string

const (
	FeedbackUnset     Feedback = ""
	FeedbackCorrect   Feedback = "correct"
	FeedbackIncorrect Feedback = "incorrect"
)

func ParseFeedback(s string) (Feedback, error) {
	switch Feedback(s) {
	case FeedbackCorrect, FeedbackIncorrect:
		return Feedback(s), nil
	}
	return FeedbackUnset, fmt.Errorf("invalid feedback value %q", s)
}

// Snapshot is a point-in-time aggregate over all stored reports.
type Snapshot struct {
	TotalReports   int           `json:"total_reports"`
	TotalPerClass  map[Class]int `json:"totals_per_class"`
	NoIssueReports int           `json:"no_issue_reports"`
}
