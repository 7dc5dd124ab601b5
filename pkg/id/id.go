package id

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Width is the number of digits of a public request or response number.
const Width = 10

var ErrInvalid = errors.New("invalid id")

// Pad renders n zero-padded to Width digits ("0000000042").
func Pad(n uint64) string {
	return fmt.Sprintf("%0*d", Width, n)
}

// Parse accepts both padded ("0000000042") and bare ("42") forms.
func Parse(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 20 {
		return 0, ErrInvalid
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrInvalid
		}
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, ErrInvalid
	}
	return n, nil
}
