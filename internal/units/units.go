// Package units parses the human-formatted durations and sizes printed on
// tracker pages, with both Latin and Cyrillic unit suffixes.
package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// cutset is stripped from both ends of every input, including non-breaking space.
const cutset = " \t\u00a0"

// ParseError reports a malformed duration or size string.
type ParseError struct {
	Kind  string // "duration" or "size"
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s %q: %v", e.Kind, e.Input, e.Err)
	}
	return fmt.Sprintf("invalid %s %q", e.Kind, e.Input)
}

func (e *ParseError) Unwrap() error { return e.Err }

// durationFactors holds the seconds per field, indexed from the right.
var durationFactors = []int{1, 60, 3600, 86400}

// ParseDuration converts "S", "M:S", "H:M:S" or "D:H:M:S" into seconds.
func ParseDuration(text string) (int, error) {
	trimmed := strings.Trim(text, cutset)
	parts := strings.Split(trimmed, ":")
	if len(parts) > len(durationFactors) {
		return 0, &ParseError{Kind: "duration", Input: text, Err: fmt.Errorf("%d fields", len(parts))}
	}

	total := 0
	for i, part := range parts {
		n, err := strconv.Atoi(strings.Trim(part, cutset))
		if err != nil {
			return 0, &ParseError{Kind: "duration", Input: text, Err: err}
		}
		total += n * durationFactors[len(parts)-1-i]
	}
	return total, nil
}

// sizeUnits maps a lowercased two-letter suffix to its multiplier.
var sizeUnits = map[string]float64{
	"mb": 1 << 20,
	"мб": 1 << 20,
	"gb": 1 << 30,
	"гб": 1 << 30,
	"tb": 1 << 40,
	"тб": 1 << 40,
}

// ParseSize converts "1024", "700 MB", "1.37 ГБ" and the like into bytes.
// A bare number is taken as bytes.
func ParseSize(text string) (int64, error) {
	trimmed := strings.Trim(text, cutset)
	if isDigits(trimmed) {
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return 0, &ParseError{Kind: "size", Input: text, Err: err}
		}
		return n, nil
	}

	runes := []rune(trimmed)
	if len(runes) < 3 {
		return 0, &ParseError{Kind: "size", Input: text}
	}
	num := strings.TrimRight(string(runes[:len(runes)-2]), cutset)
	suffix := strings.ToLower(string(runes[len(runes)-2:]))

	mult, ok := sizeUnits[suffix]
	if !ok {
		return 0, &ParseError{Kind: "size", Input: text, Err: fmt.Errorf("unknown unit %q", suffix)}
	}
	f, err := strconv.ParseFloat(strings.Replace(num, ",", ".", 1), 64)
	if err != nil {
		return 0, &ParseError{Kind: "size", Input: text, Err: err}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f*mult >= math.MaxInt64 {
		return 0, &ParseError{Kind: "size", Input: text, Err: fmt.Errorf("magnitude %q out of range", num)}
	}
	return int64(f * mult), nil
}

// HumanSize formats a byte count with binary prefixes, e.g. "1.4 GiB".
func HumanSize(bytes int64) string {
	if bytes <= 0 {
		return "?"
	}
	return humanize.IBytes(uint64(bytes))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
