package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type HabitType int

const (
	HabitTypeNone HabitType = iota
	HabitTypeBinary
	HabitTypeMeasurable
)

type FrequencyType int

const (
	FrequencyNone FrequencyType = iota
	FrequencyDaily
	FrequencyWeekly
	FrequencyMonthly
)

type HabitStatus int

const (
	HabitStatusNone HabitStatus = iota
	HabitStatusOngoing
	HabitStatusCompleted
)

var (
	habitTypeNames     = []string{"None", "Binary", "Measurable"}
	frequencyTypeNames = []string{"None", "Daily", "Weekly", "Monthly"}
	habitStatusNames   = []string{"None", "Ongoing", "Completed"}
)

func (t HabitType) String() string     { return enumName(int(t), habitTypeNames) }
func (t FrequencyType) String() string { return enumName(int(t), frequencyTypeNames) }
func (s HabitStatus) String() string   { return enumName(int(s), habitStatusNames) }

func (t HabitType) Valid() bool     { return t >= HabitTypeNone && int(t) < len(habitTypeNames) }
func (t FrequencyType) Valid() bool { return t >= FrequencyNone && int(t) < len(frequencyTypeNames) }
func (s HabitStatus) Valid() bool   { return s >= HabitStatusNone && int(s) < len(habitStatusNames) }

// ParseHabitType accepts an enum name (any case) or its number.
func ParseHabitType(raw string) (HabitType, error) {
	v, err := parseEnum(raw, habitTypeNames)
	return HabitType(v), err
}

func ParseHabitStatus(raw string) (HabitStatus, error) {
	v, err := parseEnum(raw, habitStatusNames)
	return HabitStatus(v), err
}

func ParseFrequencyType(raw string) (FrequencyType, error) {
	v, err := parseEnum(raw, frequencyTypeNames)
	return FrequencyType(v), err
}

func enumName(v int, names []string) string {
	if v < 0 || v >= len(names) {
		return strconv.Itoa(v)
	}
	return names[v]
}

func parseEnum(raw string, names []string) (int, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		if n < 0 || n >= len(names) {
			return 0, fmt.Errorf("value %d is out of range", n)
		}
		return n, nil
	}
	for i, name := range names {
		if strings.EqualFold(name, raw) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown value %q, expected one of %s", raw, strings.Join(names, ", "))
}

// Bodies may carry an enum as its number or its name. Out-of-range numbers are
// left for validation to report.
func (t *HabitType) UnmarshalJSON(b []byte) error {
	v, err := unmarshalEnum(b, habitTypeNames)
	*t = HabitType(v)
	return err
}

func (t *FrequencyType) UnmarshalJSON(b []byte) error {
	v, err := unmarshalEnum(b, frequencyTypeNames)
	*t = FrequencyType(v)
	return err
}

func unmarshalEnum(b []byte, names []string) (int, error) {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return 0, fmt.Errorf("enum must be a number or a name: %w", err)
	}
	return parseEnum(s, names)
}
