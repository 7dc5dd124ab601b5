package id

import (
	"errors"
	"regexp"
	"testing"
)

var rePadded = regexp.MustCompile(`^[0-9]{10}$`)

func TestPad_Format(t *testing.T) {
	cases := map[uint64]string{
		1:          "0000000001",
		42:         "0000000042",
		1234567890: "1234567890",
	}
	for in, want := range cases {
		got := Pad(in)
		if got != want {
			t.Fatalf("Pad(%d) = %q, want %q", in, got, want)
		}
		if !rePadded.MatchString(got) {
			t.Fatalf("not 10 digits: %q", got)
		}
	}
}

func TestPad_WiderThanWidth(t *testing.T) {
	// ids beyond 10 digits are rendered in full, never truncated
	if got := Pad(12345678901); got != "12345678901" {
		t.Fatalf("got %q", got)
	}
}

func TestParse(t *testing.T) {
	for in, want := range map[string]uint64{
		"0000000001": 1,
		"42":         42,
		" 7 ":        7,
	} {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q) err: %v", in, err)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %d, want %d", in, got, want)
		}
	}

	for _, bad := range []string{"", "0", "0000000000", "-1", "12a", "1.5", "99999999999999999999999"} {
		if _, err := Parse(bad); !errors.Is(err, ErrInvalid) {
			t.Fatalf("Parse(%q): want ErrInvalid, got %v", bad, err)
		}
	}
}

func TestParse_RoundTrip(t *testing.T) {
	for _, n := range []uint64{1, 9, 10, 999, 1_000_000} {
		got, err := Parse(Pad(n))
		if err != nil || got != n {
			t.Fatalf("round trip %d: got %d err %v", n, got, err)
		}
	}
}
