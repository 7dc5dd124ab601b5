package rut

import "testing"

func TestValid(t *testing.T) {
	for _, s := range []string{
		"11111111-1",
		"11.111.111-1",
		"12345678-5",
		"22222222-2",
		"10000013-K",
		"10000013-k",
	} {
		if !Valid(s) {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	for _, s := range []string{
		"",
		"11111111",
		"11111111-2",
		"abc-1",
		"-1",
		"1234567890-1",
		"12345678-55",
	} {
		if Valid(s) {
			t.Fatalf("expected %q to be invalid", s)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize(" 12.345.678-k "); got != "12345678-K" {
		t.Fatalf("Normalize = %q", got)
	}
}

func TestCheckDigit(t *testing.T) {
	cases := map[string]string{
		"11111111": "1",
		"12345678": "5",
		"10000013": "K",
	}
	for body, want := range cases {
		if got := CheckDigit(body); got != want {
			t.Fatalf("CheckDigit(%s) = %s, want %s", body, got, want)
		}
	}
}
