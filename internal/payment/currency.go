package payment

import (
	"strings"

	"farmart/internal/model"

	"github.com/rs/zerolog"
)

// symbols lists the currencies the hosted checkout accepts.
var symbols = map[string]string{
	"GHS": "GH₵",
	"NGN": "₦",
	"KES": "KSh",
	"UGX": "USh",
	"TZS": "TSh",
	"RWF": "FRw",
	"ZAR": "R",
	"ZMW": "ZK",
	"XAF": "FCFA",
	"XOF": "CFA",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// Supported reports whether the gateway accepts code.
func Supported(code string) bool {
	_, ok := symbols[strings.ToUpper(code)]
	return ok
}

// SupportedCurrencies returns the accepted currency codes.
func SupportedCurrencies() []string {
	out := make([]string, 0, len(symbols))
	for code := range symbols {
		out = append(out, code)
	}
	return out
}

// Symbol returns the display symbol for code, or the code itself when unknown.
func Symbol(code string) string {
	if s, ok := symbols[strings.ToUpper(code)]; ok {
		return s
	}
	return code
}

// CurrencyPolicy decides what happens to a cart currency the gateway does not take.
type CurrencyPolicy struct {
	Default  string
	Fallback bool
	Logger   zerolog.Logger
}

// Resolve returns the currency to charge in. Unsupported or missing codes fail
// with model.ErrUnsupportedCurrency unless Fallback is set, in which case the
// default is substituted and a warning is logged.
func (p CurrencyPolicy) Resolve(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if Supported(code) {
		return code, nil
	}
	if !p.Fallback {
		return "", model.ErrUnsupportedCurrency
	}
	p.Logger.Warn().
		Str("currency", code).
		Str("substitute", p.Default).
		Msg("unsupported currency replaced with default")
	return p.Default, nil
}
