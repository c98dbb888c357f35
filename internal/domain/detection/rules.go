package detection

import (
	"fmt"
	"strings"
)

// Severity is the coarse urgency tier of a report.
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// ClassifySeverity maps a summary to a severity tier based on the total
// issue count. The function is total (an empty summary is Low) and
// monotonic: adding detections never lowers the tier.
//
//	0-1 issues  -> Low
//	2-3 issues  -> Medium
//	4+  issues  -> High
func ClassifySeverity(summary Summary) Severity {
	total := summary.Total()
	switch {
	case total <= 1:
		return SeverityLow
	case total <= 3:
		return SeverityMedium
	default:
		return SeverityHigh
	}
}

// Describe renders a summary as the sentence shown to the reporter, e.g.
// "Total of 3 issues detected: 2 potholes and 1 garbage detected."
func Describe(summary Summary) string {
	total := summary.Total()
	if total == 0 {
		return "No issues detected."
	}

	parts := make([]string, 0, len(summary))
	for _, class := range Classes() {
		count := summary[class]
		if count == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%d %s", count, pluralize(class, count)))
	}

	return fmt.Sprintf("Total of %d issues detected: %s detected.",
		total, strings.Join(parts, " and "))
}

func pluralize(class Class, count int) string {
	if count == 1 || class == ClassGarbage {
		return string(class)
	}
	return string(class) + "s"
}

// Department is the municipal unit responsible for a report. It is produced
// directly by RouteDepartment and never re-derived from display text.
type Department string

const (
	DepartmentRoads       Department = "Roads Department"
	DepartmentEnvironment Department = "Department of Environment"
	DepartmentGeneral     Department = "General"
)

var classDepartments = map[Class]Department{
	ClassPothole: DepartmentRoads,
	ClassGarbage: DepartmentEnvironment,
}

// RouteDepartment picks the department of the class with the highest count.
// Ties are broken by the fixed priority order of Classes(), so a summary
// with equal pothole and garbage counts routes to the Roads Department.
// An empty summary routes to General.
func RouteDepartment(summary Summary) Department {
	best := DepartmentGeneral
	bestCount := 0
	for _, class := range Classes() {
		if count := summary[class]; count > bestCount {
			best = classDepartments[class]
			bestCount = count
		}
	}
	return best
}
