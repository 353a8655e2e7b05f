package profile

import (
	"fmt"
	"strings"
)

const missingPlaceholder = "N/A"

// Accumulator holds the validated profile values collected so far.
// It is not safe for concurrent use; the workflow controller serializes access.
type Accumulator struct {
	values  map[Field]string
	applied map[int]bool // transcript positions whose answer was already recorded
}

// NewAccumulator creates an empty accumulator
func NewAccumulator() *Accumulator {
	return &Accumulator{
		values:  make(map[Field]string),
		applied: make(map[int]bool),
	}
}

// Set overwrites the value for field; last write wins
func (a *Accumulator) Set(f Field, value string) {
	a.values[f] = strings.TrimSpace(value)
}

// Record applies the answer judged at transcript position turn. A second call
// for the same turn is a no-op and reports false.
func (a *Accumulator) Record(turn int, f Field, value string) bool {
	if a.applied[turn] {
		return false
	}
	a.applied[turn] = true
	a.Set(f, value)
	return true
}

// Get returns the value for field and whether it is collected
func (a *Accumulator) Get(f Field) (string, bool) {
	v := a.values[f]
	return v, v != ""
}

// IsComplete is true iff every field in Order has a non-empty value
func (a *Accumulator) IsComplete() bool {
	_, missing := FirstMissing(a.values)
	return !missing
}

// Collected returns how many fields carry a value
func (a *Accumulator) Collected() int {
	n := 0
	for _, f := range Order {
		if a.values[f] != "" {
			n++
		}
	}
	return n
}

// Values returns a copy of the collected values
func (a *Accumulator) Values() map[Field]string {
	out := make(map[Field]string, len(a.values))
	for k, v := range a.values {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// ToNarrative renders the profile as the fixed five-line text consumed by evaluation
func (a *Accumulator) ToNarrative() string {
	return Narrative(a.values)
}

// Narrative renders values in field order with fixed labels; missing fields read N/A
func Narrative(values map[Field]string) string {
	lines := make([]string, 0, len(Order))
	for _, f := range Order {
		v := strings.TrimSpace(values[f])
		if v == "" {
			v = missingPlaceholder
		}
		lines = append(lines, fmt.Sprintf("%s: %s", definitions[f].Label, v))
	}
	return strings.Join(lines, "\n")
}

// StringMap converts values to the wire form sent to the profile oracle
func StringMap(values map[Field]string) map[string]string {
	out := make(map[string]string, len(values))
	for f, v := range values {
		if v != "" {
			out[string(f)] = v
		}
	}
	return out
}
