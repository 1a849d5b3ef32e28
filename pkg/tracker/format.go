package tracker

import (
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// CurrencyFormatter renders USD amounts with locale-specific separators.
type CurrencyFormatter struct {
	tag     language.Tag
	printer *message.Printer
}

// NewCurrencyFormatter creates a formatter for locale. An empty locale is
// taken from the environment, then defaults to en-US.
func NewCurrencyFormatter(locale string) *CurrencyFormatter {
	if locale == "" {
		locale = LocaleFromEnv()
	}
	tag := ParseLocale(locale)
	return &CurrencyFormatter{tag: tag, printer: message.NewPrinter(tag)}
}

// Locale returns the resolved language tag.
func (f *CurrencyFormatter) Locale() language.Tag { return f.tag }

// Format renders v with two decimals, e.g. "$1,234.50".
func (f *CurrencyFormatter) Format(v float64) string {
	return "$" + f.printer.Sprint(number.Decimal(v,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}

// LocaleFromEnv returns the first usable locale from LC_ALL, LC_MONETARY or LANG.
func LocaleFromEnv() string {
	for _, key := range []string{"LC_ALL", "LC_MONETARY", "LANG"} {
		v := os.Getenv(key)
		if v != "" && v != "C" && v != "POSIX" {
			return v
		}
	}
	return ""
}

// ParseLocale accepts POSIX ("de_DE.UTF-8") and BCP 47 ("de-DE") forms.
func ParseLocale(s string) language.Tag {
	s, _, _ = strings.Cut(s, ".")
	s, _, _ = strings.Cut(s, "@")
	s = strings.ReplaceAll(s, "_", "-")
	if s == "" {
		return language.AmericanEnglish
	}
	tag, err := language.Parse(s)
	if err != nil {
		return language.AmericanEnglish
	}
	return tag
}
