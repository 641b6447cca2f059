package importer

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/alejandrodnm/tradejournal/internal/domain"
	"github.com/alejandrodnm/tradejournal/internal/normalize"
)

// markerTokens identifican una línea de texto como candidata a trade.
var markerTokens = map[string]bool{
	"deal":  true,
	"trade": true,
	"buy":   true,
	"sell":  true,
	"long":  true,
	"short": true,
}

var (
	dateToken   = regexp.MustCompile(`^\d{1,4}[./-]\d{1,2}[./-]\d{1,4}$`)
	timeToken   = regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?$`)
	numberToken = regexp.MustCompile(`^[(+\-\x{2212}]?\p{Sc}?[+\-]?\d[\d.,]*\)?%?$`)
	symbolToken = regexp.MustCompile(`^[A-Z]{3,}[A-Za-z0-9._]*$`)
)

// extractPDF saca el texto plano por filas y se queda con las líneas que
// parecen un trade.
func extractPDF(data []byte) ([]normalize.Record, error) {
	lines, err := pdfLines(data)
	if err != nil {
		return nil, err
	}
	return recordsFromLines(lines), nil
}

func pdfLines(data []byte) (lines []string, err error) {
	// El parser entra en pánico con algunos PDFs corruptos.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: read pdf: malformed document: %v", domain.ErrInvalidInput, r)
		}
	}()

	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: read pdf: %v", domain.ErrInvalidInput, err)
	}

	for i := 1; i <= doc.NumPage(); i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("%w: read pdf page %d: %v", domain.ErrInvalidInput, i, err)
		}
		for _, row := range rows {
			parts := make([]string, 0, len(row.Content))
			for _, text := range row.Content {
				parts = append(parts, text.S)
			}
			if line := strings.TrimSpace(strings.Join(parts, " ")); line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines, nil
}

func recordsFromLines(lines []string) []normalize.Record {
	var rows []normalize.Record
	for _, line := range lines {
		if rec, ok := parseDealLine(line); ok {
			rows = append(rows, rec)
		}
	}
	return rows
}

// parseDealLine convierte una línea de extracto en un Record. Solo acepta
// líneas con un token marcador y al menos un número. Los números se asignan
// por posición: size, entry, exit, pnl (con más de 4, el último es el pnl).
func parseDealLine(line string) (normalize.Record, bool) {
	tokens := strings.Fields(line)
	if !hasMarker(tokens) {
		return nil, false
	}

	rec := normalize.Record{}
	var numbers []string

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		word := strings.ToLower(trimPunct(tok))

		switch {
		case dateToken.MatchString(tok):
			if _, ok := rec["date"]; ok {
				continue
			}
			date := tok
			if i+1 < len(tokens) && timeToken.MatchString(tokens[i+1]) {
				date += " " + tokens[i+1]
				i++
			}
			rec["date"] = date
		case timeToken.MatchString(tok):
			continue
		case word == "buy" || word == "sell" || word == "long" || word == "short":
			if _, ok := rec["direction"]; !ok {
				rec["direction"] = word
			}
		case markerTokens[word]:
			continue
		case numberToken.MatchString(tok):
			numbers = append(numbers, tok)
		case symbolToken.MatchString(trimPunct(tok)):
			if _, ok := rec["ticker"]; !ok {
				rec["ticker"] = trimPunct(tok)
			}
		}
	}

	if len(numbers) == 0 {
		return nil, false
	}

	switch n := len(numbers); {
	case n >= 4:
		rec["size"], rec["entry"], rec["exit"], rec["pnl"] = numbers[0], numbers[1], numbers[2], numbers[n-1]
	case n == 3:
		rec["entry"], rec["exit"], rec["pnl"] = numbers[0], numbers[1], numbers[2]
	case n == 2:
		rec["size"], rec["pnl"] = numbers[0], numbers[1]
	default:
		rec["pnl"] = numbers[0]
	}
	return rec, true
}

func hasMarker(tokens []string) bool {
	for _, tok := range tokens {
		if markerTokens[strings.ToLower(trimPunct(tok))] {
			return true
		}
	}
	return false
}

func trimPunct(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) && r != '_'
	})
}
