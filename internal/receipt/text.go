package receipt

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const continuationIndent = "  "

// WrapLines packs words greedily into lines of at most maxWidth runes.
// Continuation lines are indented by two spaces and words longer than a
// line are split. At widths of two or less continuation lines are not
// indented; widths below one are treated as one.
func WrapLines(text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if maxWidth < 1 {
		maxWidth = 1
	}
	next := continuationIndent
	if maxWidth <= len(continuationIndent) {
		next = ""
	}

	var (
		lines   []string
		current string
		indent  string
	)
	flush := func() {
		lines = append(lines, indent+current)
		current = ""
		indent = next
	}

	for _, word := range words {
		for {
			avail := maxWidth - len(indent)
			if current == "" {
				if runeLen(word) <= avail {
					current = word
					break
				}
				r := []rune(word)
				current = string(r[:avail])
				word = string(r[avail:])
				flush()
				continue
			}
			if runeLen(current)+1+runeLen(word) <= avail {
				current += " " + word
				break
			}
			flush()
		}
	}
	if current != "" {
		flush()
	}
	return lines
}

// FormatPrice renders an amount with two decimals and a comma separator.
func FormatPrice(amount decimal.Decimal) string {
	return strings.Replace(amount.StringFixed(2), ".", ",", 1)
}

// FormatDate renders t as dd.mm.yyyy hh:mm in loc.
func FormatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "-"
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("02.01.2006 15:04")
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func center(s string, width int) string {
	n := runeLen(s)
	if n >= width {
		return s
	}
	return strings.Repeat(" ", (width-n)/2) + s
}

func alignRight(s string, width int) string {
	n := runeLen(s)
	if n >= width {
		return s
	}
	return strings.Repeat(" ", width-n) + s
}

// justify places left and right on one line if both fit.
func justify(left, right string, width int) (string, bool) {
	gap := width - runeLen(left) - runeLen(right)
	if gap < 1 {
		return "", false
	}
	return left + strings.Repeat(" ", gap) + right, true
}
