// Package formatting converts byte sizes between counts and the
// human-readable strings used in configuration files and rendered output.
package formatting

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var units = []string{"B", "KB", "MB", "GB", "TB", "PB"}

var sizePattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([A-Za-z]*)$`)

// Size is a byte count that reads and writes as text like "32MB".
type Size int64

// String formats s with one decimal place.
func (s Size) String() string {
	return FormatBytes(int64(s), 1)
}

// MarshalText implements encoding.TextMarshaler.
func (s Size) MarshalText() ([]byte, error) {
	return []byte(FormatBytes(int64(s), 0)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, which lets a Size be
// written as a string in TOML and JSON documents.
func (s *Size) UnmarshalText(text []byte) error {
	n, err := ParseBytes(string(text))
	if err != nil {
		return err
	}
	*s = Size(n)
	return nil
}

// FormatBytes renders n using base-1024 units. Whole values drop the
// fractional part regardless of precision.
func FormatBytes(n int64, precision int) string {
	if n <= 0 {
		return "0 B"
	}
	precision = max(precision, 0)

	f := float64(n)
	i := min(int(math.Floor(math.Log(f)/math.Log(1024))), len(units)-1)
	v := f / math.Pow(1024, float64(i))

	if v == math.Trunc(v) {
		precision = 0
	}
	return strconv.FormatFloat(v, 'f', precision, 64) + " " + units[i]
}

// ParseBytes parses strings such as "512", "64KB" or "1.5 gb". A bare
// number is a byte count.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size")
	}

	m := sizePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size number: %w", err)
	}

	unit := strings.ToUpper(m[2])
	if unit == "" {
		return int64(v), nil
	}

	idx := slices.Index(units, unit)
	if idx == -1 {
		return 0, fmt.Errorf("unknown byte size unit: %q", m[2])
	}
	return int64(v * math.Pow(1024, float64(idx))), nil
}
