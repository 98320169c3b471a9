package zfs

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	ErrInvalidNumber = errors.New("invalid number")
	ErrUnknownSuffix = errors.New("unknown size suffix")
)

// SizeError is returned by ParseSize. Kind is ErrInvalidNumber or ErrUnknownSuffix.
type SizeError struct {
	Input string
	Kind  error
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("%s in size string %q", e.Kind, e.Input)
}

func (e *SizeError) Unwrap() error { return e.Kind }

var sizeUnits = []string{"B", "K", "M", "G", "T", "P", "E"}

// multiplier for a magnitude suffix, powers of 1024
func suffixMultiplier(r rune) (uint64, bool) {
	switch r {
	case 'K':
		return 1 << 10, true
	case 'M':
		return 1 << 20, true
	case 'G':
		return 1 << 30, true
	case 'T':
		return 1 << 40, true
	case 'P':
		return 1 << 50, true
	case 'E':
		return 1 << 60, true
	}
	return 0, false
}

// ParseSize decodes a size as printed by zfs ("12.3G", "512B", "0B", "-") into bytes.
// "-" and the empty string mean zero.
func ParseSize(text string) (uint64, error) {
	s := strings.TrimSpace(text)
	if s == "-" || s == "" {
		return 0, nil
	}

	if strings.HasSuffix(s, "B") {
		if s == "0B" {
			return 0, nil
		}
		if v, err := parseMagnitude(s[:len(s)-1]); err == nil {
			return toBytes(v, 1), nil
		}
		// "1.5KB" falls through: 'B' is taken as the suffix and "1.5K" fails as a number
	}

	number := s
	var suffix rune
	if r, size := utf8.DecodeLastRuneInString(s); unicode.IsLetter(r) {
		number, suffix = s[:len(s)-size], r
	}

	v, err := parseMagnitude(number)
	if err != nil {
		return 0, &SizeError{Input: text, Kind: ErrInvalidNumber}
	}

	var mult uint64 = 1
	if suffix != 0 {
		m, ok := suffixMultiplier(suffix)
		if !ok {
			return 0, &SizeError{Input: text, Kind: ErrUnknownSuffix}
		}
		mult = m
	}
	return toBytes(v, mult), nil
}

// parseMagnitude accepts plain decimal float literals with optional sign and
// exponent, plus inf and nan. Digit separators and hex floats are rejected.
func parseMagnitude(s string) (float64, error) {
	if strings.ContainsAny(s, "_xX") {
		return 0, strconv.ErrSyntax
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, err
	}
	return v, nil
}

// toBytes floors v*mult into the uint64 range: NaN and negatives are 0,
// overflow saturates.
func toBytes(v float64, mult uint64) uint64 {
	f := math.Floor(v * float64(mult))
	switch {
	case math.IsNaN(f) || f <= 0:
		return 0
	case f >= math.MaxUint64:
		return math.MaxUint64
	}
	return uint64(f)
}

// FormatBytes renders n with a binary unit suffix: "0B", "512B", "1.00K", "10.0K", "150M".
// It is not an exact inverse of ParseSize; precision depends on magnitude.
func FormatBytes(n uint64) string {
	if n == 0 {
		return "0B"
	}

	f := float64(n)
	i := int(math.Floor(math.Log2(f) / 10))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}
	if i == 0 {
		return strconv.FormatUint(n, 10) + "B"
	}

	v := f / math.Pow(1024, float64(i))
	switch {
	case v >= 100:
		return fmt.Sprintf("%.0f%s", v, sizeUnits[i])
	case v >= 10:
		return fmt.Sprintf("%.1f%s", v, sizeUnits[i])
	default:
		return fmt.Sprintf("%.2f%s", v, sizeUnits[i])
	}
}
