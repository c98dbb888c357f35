package detection

import (
	"math/rand"
	"testing"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name       string
		detections []Detection
		expected   Summary
	}{
		{
			name:       "empty input",
			detections: nil,
			expected:   Summary{},
		},
		{
			name: "single class",
			detections: []Detection{
				{Class: ClassPothole, Confidence: 0.9},
				{Class: ClassPothole, Confidence: 0.8},
			},
			expected: Summary{ClassPothole: 2},
		},
		{
			name: "mixed classes",
			detections: []Detection{
				{Class: ClassPothole, Confidence: 0.9},
				{Class: ClassPothole, Confidence: 0.8},
				{Class: ClassGarbage, Confidence: 0.7},
			},
			expected: Summary{ClassPothole: 2, ClassGarbage: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.detections)
			if len(got) != len(tt.expected) {
				t.Fatalf("Summarize() = %v, want %v", got, tt.expected)
			}
			for class, count := range tt.expected {
				if got[class] != count {
					t.Errorf("Summarize()[%s] = %d, want %d", class, got[class], count)
				}
			}
			if got.Total() != len(tt.detections) {
				t.Errorf("Total() = %d, want %d", got.Total(), len(tt.detections))
			}
		})
	}
}

func TestSummarizeOrderIndependent(t *testing.T) {
	detections := []Detection{
		{Class: ClassPothole, Confidence: 0.9},
		{Class: ClassGarbage, Confidence: 0.7},
		{Class: ClassPothole, Confidence: 0.8},
		{Class: ClassGarbage, Confidence: 0.6},
		{Class: ClassPothole, Confidence: 0.5},
	}
	want := Summarize(detections)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := make([]Detection, len(detections))
		copy(shuffled, detections)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got := Summarize(shuffled)
		for class, count := range want {
			if got[class] != count {
				t.Fatalf("permuted Summarize()[%s] = %d, want %d", class, got[class], count)
			}
		}
	}
}

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		name     string
		summary  Summary
		expected Severity
	}{
		{"empty summary", Summary{}, SeverityLow},
		{"single issue", Summary{ClassPothole: 1}, SeverityLow},
		{"two issues", Summary{ClassPothole: 2}, SeverityMedium},
		{"three issues mixed", Summary{ClassPothole: 2, ClassGarbage: 1}, SeverityMedium},
		{"four issues", Summary{ClassGarbage: 4}, SeverityHigh},
		{"many issues", Summary{ClassPothole: 10, ClassGarbage: 3}, SeverityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifySeverity(tt.summary); got != tt.expected {
				t.Errorf("ClassifySeverity(%v) = %s, want %s", tt.summary, got, tt.expected)
			}
		})
	}
}

func TestClassifySeverityMonotonic(t *testing.T) {
	rank := map[Severity]int{SeverityLow: 0, SeverityMedium: 1, SeverityHigh: 2}

	// Adding one more detection of any class must never lower the tier.
	for potholes := 0; potholes <= 6; potholes++ {
		for garbage := 0; garbage <= 6; garbage++ {
			base := Summary{ClassPothole: potholes, ClassGarbage: garbage}
			before := ClassifySeverity(base)
			for _, class := range Classes() {
				grown := Summary{ClassPothole: potholes, ClassGarbage: garbage}
				grown[class]++
				after := ClassifySeverity(grown)
				if rank[after] < rank[before] {
					t.Fatalf("severity dropped from %s to %s after adding %s to %v",
						before, after, class, base)
				}
			}
		}
	}
}

func TestRouteDepartment(t *testing.T) {
	tests := []struct {
		name     string
		summary  Summary
		expected Department
	}{
		{"empty summary", Summary{}, DepartmentGeneral},
		{"potholes only", Summary{ClassPothole: 2}, DepartmentRoads},
		{"garbage only", Summary{ClassGarbage: 3}, DepartmentEnvironment},
		{"garbage majority", Summary{ClassPothole: 1, ClassGarbage: 3}, DepartmentEnvironment},
		{"pothole majority", Summary{ClassPothole: 3, ClassGarbage: 1}, DepartmentRoads},
		{"tie goes to roads", Summary{ClassPothole: 2, ClassGarbage: 2}, DepartmentRoads},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RouteDepartment(tt.summary); got != tt.expected {
				t.Errorf("RouteDepartment(%v) = %s, want %s", tt.summary, got, tt.expected)
			}
		})
	}
}

func TestRouteDepartmentDeterministic(t *testing.T) {
	summary := Summary{ClassPothole: 2, ClassGarbage: 2}
	first := RouteDepartment(summary)
	for i := 0; i < 50; i++ {
		if got := RouteDepartment(summary); got != first {
			t.Fatalf("RouteDepartment flapped between %s and %s", first, got)
		}
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name     string
		summary  Summary
		expected string
	}{
		{
			name:     "empty summary",
			summary:  Summary{},
			expected: "No issues detected.",
		},
		{
			name:     "single pothole",
			summary:  Summary{ClassPothole: 1},
			expected: "Total of 1 issues detected: 1 pothole detected.",
		},
		{
			name:     "mixed classes",
			summary:  Summary{ClassPothole: 2, ClassGarbage: 1},
			expected: "Total of 3 issues detected: 2 potholes and 1 garbage detected.",
		},
		{
			name:     "garbage never pluralized",
			summary:  Summary{ClassGarbage: 4},
			expected: "Total of 4 issues detected: 4 garbage detected.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.summary); got != tt.expected {
				t.Errorf("Describe(%v) = %q, want %q", tt.summary, got, tt.expected)
			}
		})
	}
}

func TestBoxIoU(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Box
		expected float64
	}{
		{
			name:     "identical boxes",
			a:        Box{X1: 0, Y1: 0, X2: 10, Y2: 10},
			b:        Box{X1: 0, Y1: 0, X2: 10, Y2: 10},
			expected: 1.0,
		},
		{
			name:     "disjoint boxes",
			a:        Box{X1: 0, Y1: 0, X2: 10, Y2: 10},
			b:        Box{X1: 20, Y1: 20, X2: 30, Y2: 30},
			expected: 0.0,
		},
		{
			name:     "half overlap",
			a:        Box{X1: 0, Y1: 0, X2: 10, Y2: 10},
			b:        Box{X1: 0, Y1: 5, X2: 10, Y2: 15},
			expected: 50.0 / 150.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.IoU(tt.b)
			if diff := got - tt.expected; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("IoU() = %f, want %f", got, tt.expected)
			}
		})
	}
}
