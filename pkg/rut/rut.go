// Package rut validates Chilean national identifiers (RUT/RUN),
// written as "12345678-5" with a mod-11 check digit.
package rut

import (
	"strconv"
	"strings"
)

// Normalize strips dots and spaces and upper-cases the K check digit.
// "12.345.678-k" -> "12345678-K".
func Normalize(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}

// Valid reports whether s (normalized or not) carries a correct check digit.
func Valid(s string) bool {
	s = Normalize(s)
	body, dv, ok := strings.Cut(s, "-")
	if !ok || body == "" || len(body) > 9 || len(dv) != 1 {
		return false
	}
	if _, err := strconv.ParseUint(body, 10, 64); err != nil {
		return false
	}
	return CheckDigit(body) == dv
}

// CheckDigit computes the verifier for the numeric body of a RUT.
func CheckDigit(body string) string {
	sum, mul := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * mul
		mul++
		if mul > 7 {
			mul = 2
		}
	}
	switch r := 11 - sum%11; r {
	case 11:
		return "0"
	case 10:
		return "K"
	default:
		return strconv.Itoa(r)
	}
}
