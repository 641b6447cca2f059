package normalize

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// plainNumber acepta dígitos con separadores de miles/decimales y exponente opcional.
var plainNumber = regexp.MustCompile(`^[+-]?[0-9][0-9.,]*([eE][+-]?[0-9]+)?$|^[+-]?[.,][0-9]+$`)

// Number convierte cualquier valor crudo a float64 sin depender del locale.
// Cualquier cosa no parseable, NaN o ±Inf devuelve exactamente 0.
func Number(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case json.Number:
		return parseNumber(string(x))
	case decimal.Decimal:
		f, _ := x.Float64()
		return finite(f)
	case string:
		return parseNumber(x)
	case bool:
		return 0
	}
	return 0
}

// parseNumber limpia símbolos de moneda, espacios y porcentajes, resuelve
// separadores ("1,234.56", "1.234,56", "1,5") y parsea con decimal.
// maxExponent es el mayor exponente decimal que cabe en un float64.
const maxExponent = 308

// exponentInRange descarta exponentes que no caben en un float64 antes de
// expandirlos: decimal materializa todos los dígitos.
func exponentInRange(s string) bool {
	i := strings.IndexAny(s, "eE")
	if i < 0 {
		return true
	}
	digits := strings.TrimLeft(strings.TrimLeft(s[i+1:], "+-"), "0")
	if len(digits) > 3 {
		return false
	}
	if digits == "" {
		return true
	}
	exp, err := strconv.Atoi(digits)
	return err == nil && exp <= maxExponent
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	// Códigos de moneda o unidades pegados: "USD 100", "0.5 lots"
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) && r != 'e' && r != 'E' || unicode.IsSpace(r)
	})
	s = strings.TrimLeftFunc(s, unicode.IsLetter)
	s = strings.TrimRightFunc(s, unicode.IsLetter)

	var sb strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsSpace(r), r == '\'', r == '%', r == '_':
			continue
		case unicode.Is(unicode.Sc, r): // $ € £ ¥ ₹ ...
			continue
		case r == '\u2212':
			r = '-'
		}
		sb.WriteRune(r)
	}
	s = sb.String()

	if strings.HasPrefix(s, "-") && negative {
		negative = false
	}
	if !plainNumber.MatchString(s) || !exponentInRange(s) {
		return 0
	}
	s = strings.TrimPrefix(s, "+")
	s = resolveSeparators(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	if negative {
		f = -f
	}
	return finite(f)
}

// resolveSeparators deja un único punto decimal.
//   - con coma y punto: el último en aparecer es el decimal
//   - solo comas: una coma seguida de 3 dígitos es de miles, si no es decimal
//   - solo puntos: más de uno son de miles
func resolveSeparators(s string) string {
	mantissa, exp := s, ""
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		mantissa, exp = s[:i], s[i:]
	}

	lastComma := strings.LastIndex(mantissa, ",")
	lastDot := strings.LastIndex(mantissa, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			mantissa = strings.ReplaceAll(mantissa, ".", "")
			mantissa = strings.Replace(mantissa, ",", ".", 1)
		} else {
			mantissa = strings.ReplaceAll(mantissa, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(mantissa, ",") == 1 && len(mantissa)-lastComma-1 != 3 {
			mantissa = strings.Replace(mantissa, ",", ".", 1)
		} else {
			mantissa = strings.ReplaceAll(mantissa, ",", "")
		}
	case lastDot >= 0 && strings.Count(mantissa, ".") > 1:
		mantissa = strings.ReplaceAll(mantissa, ".", "")
	}

	if strings.HasPrefix(mantissa, ".") {
		mantissa = "0" + mantissa
	} else if strings.HasPrefix(mantissa, "-.") {
		mantissa = "-0" + mantissa[1:]
	}
	return mantissa + exp
}

// finite colapsa NaN, ±Inf y -0 a 0.
func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f == 0 {
		return 0
	}
	return f
}
