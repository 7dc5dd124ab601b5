// Package locale formats dates the way the municipality prints them
// on folders, receipts and notification emails (Spanish, Chile).
package locale

import (
	"fmt"
	"time"
)

var months = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthName returns the capitalized Spanish month name.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return months[m-1]
}

// FolderDate renders dd-mm-yyyy, safe inside a path segment.
func FolderDate(t time.Time) string { return t.Format("02-01-2006") }

// ShortDateTime renders dd/mm/yyyy HH:MM.
func ShortDateTime(t time.Time) string { return t.Format("02/01/2006 15:04") }

// LongDate renders "16 de octubre de 2026".
func LongDate(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), lower(MonthName(t.Month())), t.Year())
}

// LongDateTime renders "16 de octubre de 2026, 14:05 hrs.".
func LongDateTime(t time.Time) string {
	return fmt.Sprintf("%s, %s hrs.", LongDate(t), t.Format("15:04"))
}

func lower(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
