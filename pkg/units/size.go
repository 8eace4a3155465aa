package units

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// ErrInvalidSize is returned when a size string cannot be parsed.
var ErrInvalidSize = errors.New("invalid size")

const (
	KiB int64 = 1 << 10
	MiB int64 = 1 << 20
	GiB int64 = 1 << 30
	TiB int64 = 1 << 40
)

var multipliers = map[string]int64{
	"":   1,
	"K":  KiB,
	"KB": KiB,
	"M":  MiB,
	"MB": MiB,
	"G":  GiB,
	"GB": GiB,
	"T":  TiB,
	"TB": TiB,
}

// ParseSize parses strings such as "500MB", "1.5 GB" or "100" into a byte count.
// Units are binary (1KB = 1024 bytes) and case-insensitive. The result is truncated.
func ParseSize(input string) (int64, error) {
	normalized := strings.ToUpper(strings.TrimSpace(input))

	end := 0
	for end < len(normalized) && (normalized[end] == '.' || (normalized[end] >= '0' && normalized[end] <= '9')) {
		end++
	}
	if end == 0 {
		return 0, fmt.Errorf("%w: %q has no leading number", ErrInvalidSize, input)
	}

	value, err := strconv.ParseFloat(normalized[:end], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidSize, input, err)
	}

	unit := strings.TrimSpace(normalized[end:])
	multiplier, ok := multipliers[unit]
	if !ok {
		return 0, fmt.Errorf("%w: unknown unit %q", ErrInvalidSize, unit)
	}

	bytes := value * float64(multiplier)
	if bytes >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidSize, input)
	}

	return int64(bytes), nil
}

// FormatBytes renders a byte count for log lines in binary units, e.g. "1.5 MiB".
func FormatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
