// Package interpreter derives ticker symbols and comparison intent from free text.
//
// Symbol detection is a deliberate heuristic: any whitespace-delimited token
// with at least one letter and no lowercase letters is a candidate. Acronyms
// such as "CEO" are false positives and lowercase tickers are missed.
package interpreter

import (
	"fmt"
	"strings"
	"unicode"

	"FinAgent/internal/model"
)

// InsufficientSymbolsError is reported when a comparison names fewer than two symbols.
type InsufficientSymbolsError struct {
	Found []string
}

func (e *InsufficientSymbolsError) Error() string {
	return "Please provide two stock symbols for comparison."
}

// ExtractSymbols returns the candidate symbols in order of appearance.
// Duplicates are kept.
func ExtractSymbols(query string) []string {
	var symbols []string
	for _, field := range strings.Fields(query) {
		token := strings.TrimFunc(field, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if isSymbol(token) {
			symbols = append(symbols, token)
		}
	}
	return symbols
}

// isSymbol accepts letters, digits and the separators used in real tickers
// (BRK.B, BTC-USD, EURUSD=X, AT&T).
func isSymbol(token string) bool {
	if token == "" {
		return false
	}
	hasLetter := false
	for _, r := range token {
		switch {
		case unicode.IsLower(r):
			return false
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r), strings.ContainsRune(".-=^&", r):
		default:
			return false
		}
	}
	return hasLetter
}

// DetectComparison reports whether query contains "compare", case-insensitively.
func DetectComparison(query string) bool {
	return strings.Contains(strings.ToLower(query), "compare")
}

// Interpret combines symbol extraction and comparison detection.
// A comparison with fewer than two symbols carries a warning and must not be acted on.
func Interpret(query string) model.Intent {
	intent := model.Intent{
		Symbols:    ExtractSymbols(query),
		Comparison: DetectComparison(query),
	}
	if !intent.Comparison {
		return intent
	}
	switch n := len(intent.Symbols); {
	case n < 2:
		intent.Warning = (&InsufficientSymbolsError{Found: intent.Symbols}).Error()
	case n > 2:
		intent.Comparison = false
		intent.Warning = fmt.Sprintf("Comparison needs exactly two symbols, found %d. Reporting each symbol separately.", n)
	}
	return intent
}

// Actionable reports whether the data pipeline should run for intent.
func Actionable(intent model.Intent) bool {
	if intent.Comparison && len(intent.Symbols) < 2 {
		return false
	}
	return len(intent.Symbols) > 0
}
