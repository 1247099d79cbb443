package payroll

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// CoerceAmount parses a monetary form value. Empty or unparseable input is 0.
func CoerceAmount(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

// Amount is a money value that tolerates string, empty and null JSON input.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			*a = 0
			return nil
		}
		*a = Amount(CoerceAmount(raw))
		return nil
	}
	*a = Amount(CoerceAmount(string(data)))
	return nil
}

func (a Amount) Float() float64 {
	return float64(a)
}

// DayCount is an optional day count. An unset count ("empty") is not the same
// as an explicit zero: callers substitute the full working-day count for it.
type DayCount struct {
	Days  int
	Valid bool
}

func Days(n int) DayCount {
	return DayCount{Days: n, Valid: true}
}

// ParseDayCount reads a form value; blank or non-numeric text is empty.
func ParseDayCount(raw string) DayCount {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DayCount{}
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return Days(n)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return DayCount{}
	}
	return Days(int(math.Floor(value)))
}

func (d *DayCount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*d = DayCount{}
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			*d = DayCount{}
			return nil
		}
		*d = ParseDayCount(raw)
		return nil
	}
	*d = ParseDayCount(string(data))
	return nil
}

func (d DayCount) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(d.Days)), nil
}

// FloorDays keeps a divisor at one day or more.
func FloorDays(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// ResolvePresentDays returns the explicit count, or workingDays when empty.
func ResolvePresentDays(present DayCount, workingDays int) int {
	if !present.Valid {
		return workingDays
	}
	return present.Days
}

// DisplayAmount floors a value at zero for presentation. Stored values keep their sign.
func DisplayAmount(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
