// Package money renders integer amounts for admin screens.
package money

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Formatter struct {
	printer *message.Printer
	symbol  string
}

// NewFormatter builds a formatter for a BCP 47 locale such as "ru" or "en-US".
func NewFormatter(locale, symbol string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("money: invalid locale %q: %w", locale, err)
	}
	return &Formatter{
		printer: message.NewPrinter(tag),
		symbol:  symbol,
	}, nil
}

// Format groups digits the way the locale does and prefixes the currency
// symbol, so 1234 becomes "₽1 234" in Russian.
func (f *Formatter) Format(amount int64) string {
	if amount < 0 {
		// Negating math.MinInt64 overflows; its magnitude fits in uint64.
		magnitude := uint64(-(amount + 1)) + 1
		return "-" + f.symbol + f.printer.Sprintf("%d", magnitude)
	}
	return f.symbol + f.printer.Sprintf("%d", amount)
}
