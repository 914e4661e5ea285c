// Package platform parses illumos command output into typed records.
// Every function here is pure: given bytes, it returns data, never
// touching the network or filesystem, mirroring the teacher's
// executor/parsers.go approach of one pure parser per command.
package platform

import (
	"strconv"
	"strings"
)

// unitMultipliers maps the single-letter suffixes dladm/zpool/zfs use
// (powers of 1024) to their byte multiplier.
var unitMultipliers = map[byte]float64{
	'K': 1 << 10,
	'M': 1 << 20,
	'G': 1 << 30,
	'T': 1 << 40,
	'P': 1 << 50,
	'E': 1 << 60,
}

// ParseSizeToBytes converts a human-readable size like "6.05G" or
// "2.62M" to a byte count. "-" and "none" (case-insensitive) mean "no
// value" and return (nil, true). Returns (nil, false) if the string
// could not be parsed at all.
func ParseSizeToBytes(s string) (*int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	lower := strings.ToLower(s)
	if lower == "-" || lower == "none" {
		return nil, true
	}

	last := s[len(s)-1]
	numPart := s
	mult := 1.0
	if m, ok := unitMultipliers[last]; ok {
		mult = m
		numPart = s[:len(s)-1]
	}

	f, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return nil, false
	}
	bytes := int64(f * mult)
	return &bytes, true
}

// RoundTo2 rounds a float to two decimal places, matching the parser
// library's "rounded to two decimals" convention used for capacity and
// ARC efficiency.
func RoundTo2(f float64) float64 {
	return float64(int64(f*100+sign(f)*0.5)) / 100
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

// Capacity computes alloc/(alloc+free)*100, rounded to two decimals.
// Returns nil if either input is nil (§4.2 "null when either side is
// missing").
func Capacity(alloc, free *int64) *float64 {
	if alloc == nil || free == nil {
		return nil
	}
	total := *alloc + *free
	if total <= 0 {
		return nil
	}
	pct := RoundTo2(float64(*alloc) / float64(total) * 100)
	return &pct
}

// ARCEfficiency computes hits/(hits+misses)*100. Computed only when both
// counters are present (here, "present" means non-negative — ARC
// counters are always reported by `kstat`, so the pointer form is used
// only where the caller could not read the counter at all).
func ARCEfficiency(hits, misses *int64) *float64 {
	if hits == nil || misses == nil {
		return nil
	}
	total := *hits + *misses
	if total <= 0 {
		return nil
	}
	pct := RoundTo2(float64(*hits) / float64(total) * 100)
	return &pct
}

// IsNullToken reports whether a field value is one of the platform's
// null-sentinel tokens ("-", "none", "unknown", case-insensitive).
func IsNullToken(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "-", "none", "unknown", "":
		return true
	default:
		return false
	}
}

// ParseInt64OrNil parses a decimal integer, returning nil for null
// tokens or unparseable input instead of erroring — matching the parser
// library's "tolerant" contract (§4.2): a bad field degrades to null,
// it never aborts the whole row.
func ParseInt64OrNil(s string) *int64 {
	s = strings.TrimSpace(s)
	if IsNullToken(s) {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseFloat64OrNil parses a floating-point field, returning nil for
// null tokens, unparseable input, or non-finite results (NaN/Inf), per
// §4.3's "Any NaN/invalid arithmetic is coerced to null and logged at
// debug."
func ParseFloat64OrNil(s string) *float64 {
	s = strings.TrimSpace(s)
	if IsNullToken(s) {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	if !finite(v) {
		return nil
	}
	return &v
}

// SplitFields splits a whitespace-delimited output line into fields,
// tolerating runs of multiple spaces/tabs (dladm/zpool/iostat columns
// are not fixed-width and pad inconsistently across platform versions).
func SplitFields(line string) []string {
	return strings.Fields(line)
}

// UnescapeColonMAC undoes the backslash-escaping dladm applies to colons
// inside a MAC address field when colon is also the record separator in
// `-p -o` parseable output (e.g. "2\:a\:b\:..." -> "2:a:b:...").
func UnescapeColonMAC(s string) string {
	return strings.ReplaceAll(s, `\:`, ":")
}
