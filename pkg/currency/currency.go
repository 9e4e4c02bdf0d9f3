// Package currency converts base-currency prices into the storefront's display
// currency and renders them for shoppers.
package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	// DefaultRate is the USD to NGN rate the catalog prices are converted with.
	DefaultRate = 1600
	// DefaultSymbol prefixes every display amount.
	DefaultSymbol = "₦"

	maxFractionDigits = 2
)

// Converter turns base-currency amounts into display-currency amounts.
type Converter struct {
	rate    decimal.Decimal
	symbol  string
	printer *message.Printer
}

// NewConverter parses the configured rate. An empty rate falls back to DefaultRate.
func NewConverter(rate, symbol string) (*Converter, error) {
	parsed := decimal.NewFromInt(DefaultRate)
	if trimmed := strings.TrimSpace(rate); trimmed != "" {
		var err error
		parsed, err = decimal.NewFromString(trimmed)
		if err != nil {
			return nil, fmt.Errorf("parsing currency rate %q: %w", rate, err)
		}
	}
	if !parsed.IsPositive() {
		return nil, fmt.Errorf("currency rate must be positive, got %s", parsed)
	}
	if strings.TrimSpace(symbol) == "" {
		symbol = DefaultSymbol
	}
	return &Converter{
		rate:    parsed,
		symbol:  symbol,
		printer: message.NewPrinter(language.English),
	}, nil
}

// Default returns a converter using DefaultRate and DefaultSymbol.
func Default() *Converter {
	return &Converter{
		rate:    decimal.NewFromInt(DefaultRate),
		symbol:  DefaultSymbol,
		printer: message.NewPrinter(language.English),
	}
}

// Rate exposes the configured conversion rate.
func (c *Converter) Rate() decimal.Decimal {
	return c.rate
}

// Convert multiplies a base amount by the conversion rate.
func (c *Converter) Convert(base decimal.Decimal) decimal.Decimal {
	return base.Mul(c.rate)
}

// Format renders a display-currency amount, e.g. ₦2,500 or ₦1,234.5.
func (c *Converter) Format(amount decimal.Decimal) string {
	rounded := amount.Round(maxFractionDigits)
	value := rounded.InexactFloat64()
	return c.symbol + c.printer.Sprint(number.Decimal(value, number.MaxFractionDigits(maxFractionDigits)))
}

// FormatBase converts a base amount and formats the result.
func (c *Converter) FormatBase(base decimal.Decimal) string {
	return c.Format(c.Convert(base))
}
