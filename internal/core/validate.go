package core

import (
	"regexp"
	"strconv"
	"strings"
)

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// Validate checks f against every rule and reports all violations at once
// as a *ValidationError. It returns nil when f is acceptable.
func Validate(f Fields) error {
	var problems []string

	if !isValidClass(f.Class) {
		problems = append(problems, "class must be one of: "+strings.Join(ValidClasses, ", "))
	}
	if DayIndex(f.Day) < 0 {
		problems = append(problems, "day must be one of: "+strings.Join(ValidDays, ", "))
	}
	if strings.TrimSpace(f.Subject) == "" {
		problems = append(problems, "subject is required")
	}
	if strings.TrimSpace(f.Teacher) == "" {
		problems = append(problems, "teacher is required")
	}

	start, startOK := parseClock(f.StartTime)
	if !startOK {
		problems = append(problems, "startTime must be HH:MM (00:00-23:59)")
	}
	end, endOK := parseClock(f.EndTime)
	if !endOK {
		problems = append(problems, "endTime must be HH:MM (00:00-23:59)")
	}
	if startOK && endOK && end <= start {
		problems = append(problems, "endTime must be later than startTime")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// parseClock returns minutes since midnight for an HH:MM string.
func parseClock(s string) (int, bool) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	return h*60 + min, true
}

// normalize trims free-text fields before storage.
func normalize(f Fields) Fields {
	f.Subject = strings.TrimSpace(f.Subject)
	f.Teacher = strings.TrimSpace(f.Teacher)
	return f
}
