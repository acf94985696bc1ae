package logs

import (
	"strings"

	"otrack/internal/workorder"
)

// MatchOT returns a filter for lines logged with the given work order. It
// recognises the console handler's " [OT]" suffix and the JSON "ot" field.
// A blank ot matches everything.
func MatchOT(ot string) func(string) bool {
	ot = workorder.NormalizeOT(ot)
	if ot == "" {
		return nil
	}
	console := "[" + ot + "]"
	jsonField := `"ot":"` + ot + `"`
	return func(line string) bool {
		return strings.Contains(line, console) || strings.Contains(line, jsonField)
	}
}

// MatchLevel returns a filter for lines at or above level. Lines whose level
// cannot be determined are kept.
func MatchLevel(level string) func(string) bool {
	minimum := levelRank(level)
	if minimum <= 0 {
		return nil
	}
	return func(line string) bool {
		rank := lineLevel(line)
		return rank == 0 || rank >= minimum
	}
}

// All combines filters; nil filters are skipped.
func All(filters ...func(string) bool) func(string) bool {
	var active []func(string) bool
	for _, f := range filters {
		if f != nil {
			active = append(active, f)
		}
	}
	if len(active) == 0 {
		return nil
	}
	return func(line string) bool {
		for _, f := range active {
			if !f(line) {
				return false
			}
		}
		return true
	}
}

func levelRank(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return 1
	case "info":
		return 2
	case "warn", "warning":
		return 3
	case "error":
		return 4
	default:
		return 0
	}
}

var lineLevels = []struct {
	rank    int
	console string
	json    string
}{
	{4, " ERROR ", `"level":"error"`},
	{3, " WARN ", `"level":"warn"`},
	{2, " INFO ", `"level":"info"`},
	{1, " DEBUG ", `"level":"debug"`},
}

func lineLevel(line string) int {
	for _, l := range lineLevels {
		if strings.Contains(line, l.console) || strings.Contains(line, l.json) {
			return l.rank
		}
	}
	return 0
}
