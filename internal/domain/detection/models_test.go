package detection

import "testing"

func TestParseClass(t *testing.T) {
	for _, class := range Classes() {
		got, err := ParseClass(string(class))
		if err != nil {
			t.Fatalf("ParseClass(%q) returned error: %v", class, err)
		}
		if got != class {
			t.Errorf("ParseClass(%q) = %q", class, got)
		}
	}

	for _, bad := range []string{"", "landslide", "Pothole", "pothole "} {
		if _, err := ParseClass(bad); err == nil {
			t.Errorf("ParseClass(%q) accepted an unknown class", bad)
		}
	}
}

func TestParseFeedback(t *testing.T) {
	for _, valid := range []Feedback{FeedbackCorrect, FeedbackIncorrect} {
		got, err := ParseFeedback(string(valid))
		if err != nil {
			t.Fatalf("ParseFeedback(%q) returned error: %v", valid, err)
		}
		if got != valid {
			t.Errorf("ParseFeedback(%q) = %q", valid, got)
		}
	}

	for _, bad := range []string{"", "maybe", "CORRECT"} {
		if _, err := ParseFeedback(bad); err == nil {
			t.Errorf("ParseFeedback(%q) accepted an unknown value", bad)
		}
	}
}
