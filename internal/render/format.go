package render

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ptBR = message.NewPrinter(language.BrazilianPortuguese)

// Coins formats an amount with pt-BR digit grouping, e.g. 12345 -> "12.345 coins".
func Coins(amount int64) string {
	return ptBR.Sprintf("%d coins", amount)
}

// Number formats n with pt-BR digit grouping.
func Number(n int64) string {
	return ptBR.Sprintf("%d", n)
}

// Decimal formats f with one decimal place and a comma separator.
func Decimal(f float64) string {
	return ptBR.Sprintf("%.1f", f)
}

// saoPaulo is the display timezone; falls back to a fixed -03:00 offset
// when tzdata is unavailable.
var saoPaulo = func() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		return time.FixedZone("BRT", -3*60*60)
	}
	return loc
}()

// DateTime formats t as dd/mm/yyyy hh:mm in Brazilian time.
func DateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(saoPaulo).Format("02/01/2006 15:04")
}

// Date formats t as dd/mm/yyyy in Brazilian time.
func Date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(saoPaulo).Format("02/01/2006")
}

// Truncate shortens s to at most max runes, ending with "..." when cut.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return strings.TrimSpace(string(runes[:max-3])) + "..."
}
