// Package formatting provides small parsing and display helpers shared by
// the configuration and HTTP layers: byte sizes and model-response JSON.
package formatting

import (
	"fmt"
	"strconv"
	"strings"
)

// Byte size units in 1024 steps. Parsing accepts any casing; formatting
// always emits these spellings.
var byteUnits = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// FormatBytes renders n as a human-readable size with the given number of
// decimal places, e.g. FormatBytes(52428800, 0) == "50 MB".
func FormatBytes(n int64, precision int) string {
	if n == 0 {
		return "0 B"
	}
	if precision < 0 {
		precision = 0
	}

	size := float64(n)
	unit := 0
	for size >= 1024 && unit < len(byteUnits)-1 {
		size /= 1024
		unit++
	}

	return strconv.FormatFloat(size, 'f', precision, 64) + " " + byteUnits[unit]
}

// ParseBytes converts strings like "50MB", "1.5 GB", or a bare byte count
// into a byte total. Units run B through PB in 1024 steps and match
// case-insensitively; a missing unit means bytes.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size")
	}

	split := len(s)
	for i, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			split = i
			break
		}
	}

	value, err := strconv.ParseFloat(s[:split], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	unit := strings.ToUpper(strings.TrimSpace(s[split:]))
	if unit == "" {
		return int64(value), nil
	}

	scale := 1.0
	for _, u := range byteUnits {
		if u == unit {
			return int64(value * scale), nil
		}
		scale *= 1024
	}

	return 0, fmt.Errorf("unknown byte size unit: %q", unit)
}
