package app

import (
	"fmt"
	"time"
)

var ptBRMonths = [...]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}

// FormatPublished renders t as "dd MMM yyyy" with pt-BR month abbreviations, e.g. "15 mar 2021".
// A nil time renders as an empty string.
func FormatPublished(t *time.Time) string {
	if t == nil {
		return ""
	}
	return fmt.Sprintf("%02d %s %d", t.Day(), ptBRMonths[t.Month()-1], t.Year())
}

// FormatEdited renders the "edited at" label of a post republished after its first publication.
// It returns "" when either date is unknown or both are equal.
func FormatEdited(first, last *time.Time) string {
	if first == nil || last == nil || first.Equal(*last) {
		return ""
	}
	return fmt.Sprintf("* editado em %s, às %02d:%02dh", FormatPublished(last), last.Hour(), last.Minute())
}
