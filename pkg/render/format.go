package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// KB formats a byte count as kilobytes with two decimals.
func KB(bytes int64) string {
	return fmt.Sprintf("%.2f KB", float64(bytes)/1024)
}

// Count formats n with thousands separators.
func Count(n int64) string {
	return printer.Sprintf("%d", n)
}

// Compact formats n as a short axis label: 950, 12K, 3.4M.
func Compact(n int64) string {
	switch {
	case n >= 1_000_000:
		return trimZero(float64(n)/1_000_000) + "M"
	case n >= 1_000:
		return trimZero(float64(n)/1_000) + "K"
	}
	return strconv.FormatInt(n, 10)
}

func trimZero(f float64) string {
	if f >= 10 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	s := strconv.FormatFloat(f, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0")
}

// Date formats t as a calendar day, or "Unknown" for the zero time.
func Date(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.UTC().Format("Jan 2, 2006")
}

// bar returns a bar of width cells proportional to v/max.
func bar(v, max int64, width int) string {
	if max <= 0 || v <= 0 {
		return ""
	}
	n := int(float64(v) / float64(max) * float64(width))
	if n == 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}
