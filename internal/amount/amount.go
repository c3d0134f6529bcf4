// Package amount parses quantity expressions against a bounded total.
// Supported forms: "all", "random", reverse ("!5" keeps 5), magnitude
// suffixes ("2k", "1.5m"), bare integers, and arithmetic expressions
// where "25%" is shorthand for (25/100).
package amount

import (
	"errors"
	"math/rand"
	"strconv"
	"strings"
)

// Parse errors.
var (
	ErrInvalidTotal   = errors.New("total must be positive")
	ErrInvalidFormat  = errors.New("invalid amount format")
	ErrNegativeResult = errors.New("resulting amount is negative")
	ErrOutOfRange     = errors.New("amount exceeds total")
)

var suffixes = map[string]int64{
	"k":   1_000,
	"m":   1_000_000,
	"mil": 1_000_000,
	"b":   1_000_000_000,
	"bil": 1_000_000_000,
}

// Parse resolves an amount expression against total. An arithmetic
// result of at most 1 is read as a fraction of total ("0.5" is half),
// anything above 1 as an absolute count.
func Parse(expr string, total int64) (int64, error) {
	if total <= 0 {
		return 0, ErrInvalidTotal
	}
	expr = strings.ToLower(strings.TrimSpace(expr))

	switch {
	case expr == "all":
		return total, nil
	case expr == "random":
		return rand.Int63n(total) + 1, nil
	case strings.HasPrefix(expr, "!"):
		keep, err := strconv.ParseInt(expr[1:], 10, 64)
		if err != nil {
			return 0, ErrInvalidFormat
		}
		give := total - keep
		if give < 0 {
			return 0, ErrNegativeResult
		}
		return give, nil
	}

	if v, ok := parseSuffixed(expr); ok {
		if v > total {
			return 0, ErrOutOfRange
		}
		return v, nil
	}

	if isDigits(expr) {
		v, err := strconv.ParseInt(expr, 10, 64)
		if err != nil {
			return 0, ErrInvalidFormat
		}
		if v > total {
			return 0, ErrOutOfRange
		}
		return v, nil
	}

	result, err := evalExpr(rewritePercents(expr))
	if err != nil {
		return 0, ErrInvalidFormat
	}

	var v int64
	if result <= 1 {
		v = int64(float64(total) * result)
	} else {
		v = int64(result)
	}
	if v < 0 {
		return 0, ErrNegativeResult
	}
	if v > total {
		return 0, ErrOutOfRange
	}
	return v, nil
}

// parseSuffixed matches "<number><suffix>" like 2k or 1.5mil.
func parseSuffixed(expr string) (int64, bool) {
	i := 0
	for i < len(expr) && (expr[i] >= '0' && expr[i] <= '9' || expr[i] == '.') {
		i++
	}
	if i == 0 || i == len(expr) {
		return 0, false
	}
	mult, ok := suffixes[expr[i:]]
	if !ok {
		return 0, false
	}
	num, err := strconv.ParseFloat(expr[:i], 64)
	if err != nil {
		return 0, false
	}
	return int64(num * float64(mult)), true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// rewritePercents turns "25%" into "(25/100)" anywhere in the
// expression, so percentages compose with the surrounding arithmetic.
func rewritePercents(expr string) string {
	var b strings.Builder
	i := 0
	for i < len(expr) {
		c := expr[i]
		if c >= '0' && c <= '9' {
			j := i
			for j < len(expr) && (expr[j] >= '0' && expr[j] <= '9' || expr[j] == '.') {
				j++
			}
			if j < len(expr) && expr[j] == '%' {
				b.WriteString("(")
				b.WriteString(expr[i:j])
				b.WriteString("/100)")
				i = j + 1
				continue
			}
			b.WriteString(expr[i:j])
			i = j
			continue
		}
		b.WriteByte(c)
		i++
	}
	return b.String()
}
