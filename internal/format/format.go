// Package format renders orders for cashier-facing displays.
package format

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Additional-Code/kusina/internal/entity"
)

const (
	displayLayout = "01/02/2006 03:04:05 PM"
	// NoTimestamp is shown when an order carries no usable time.
	NoTimestamp = "Time not available"
	currency    = "₱"
)

var storedLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
}

var printer = message.NewPrinter(language.English)

// Timestamp renders t in the cashier display layout.
func Timestamp(t time.Time) string {
	if t.IsZero() {
		return NoTimestamp
	}
	return t.Format(displayLayout)
}

// ParseTimestamp reads the timestamp spellings found in older order exports.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range storedLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// ItemsSummary renders line items as "Rice x2, Tea x1".
func ItemsSummary(items []entity.LineItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%s x%d", item.Name, item.Qty))
	}
	return strings.Join(parts, ", ")
}

// Amount renders a value with thousands separators and two decimals.
func Amount(v float64) string {
	return printer.Sprintf("%.2f", v)
}

// Peso renders a price with the peso sign.
func Peso(v float64) string {
	if v < 0 {
		return "-" + currency + Amount(-v)
	}
	return currency + Amount(v)
}
