package heuristic

import (
	"regexp"
	"strconv"
	"strings"

	"sambou/domain/profile"
)

// parseNarrative reads "Label: value" lines back into fields; N/A counts as missing
func parseNarrative(narrative string) map[profile.Field]string {
	labels := make(map[string]profile.Field, len(profile.Order))
	for _, f := range profile.Order {
		def, _ := profile.Lookup(f)
		labels[strings.ToLower(def.Label)] = f
	}

	out := make(map[profile.Field]string)
	for _, line := range strings.Split(narrative, "\n") {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		f, known := labels[strings.ToLower(strings.TrimSpace(label))]
		value = strings.TrimSpace(value)
		if !known || value == "" || value == "N/A" {
			continue
		}
		out[f] = value
	}
	return out
}

var gpaPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:/|out of)\s*(\d+(?:\.\d+)?)`)

// normalizedGPA maps a GPA answer onto [0,1]; ok is false when it cannot be read
func normalizedGPA(answer string) (float64, bool) {
	if m := gpaPattern.FindStringSubmatch(answer); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		scale, _ := strconv.ParseFloat(m[2], 64)
		if scale > 0 {
			return clamp01(v / scale), true
		}
	}
	nums := numberPattern.FindAllString(answer, 1)
	if len(nums) == 0 {
		return 0, false
	}
	v, _ := strconv.ParseFloat(nums[0], 64)
	switch {
	case v <= 4.0:
		return clamp01(v / 4.0), true
	case v <= 5.0:
		return clamp01(v / 5.0), true
	default:
		return clamp01(v / 100), true
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
