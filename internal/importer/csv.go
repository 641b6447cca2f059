package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gocarina/gocsv"

	"github.com/alejandrodnm/tradejournal/internal/domain"
	"github.com/alejandrodnm/tradejournal/internal/normalize"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// extractCSV lee la cabecera y devuelve una fila por registro que contenga
// al menos un campo de trade. Las filas con más o menos columnas que la
// cabecera se ajustan a su ancho en lugar de rechazar el archivo.
func extractCSV(data []byte) ([]normalize.Record, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	maps, err := gocsv.CSVToMaps(bytes.NewReader(data))
	if errors.Is(err, csv.ErrFieldCount) {
		var fixed []byte
		if fixed, err = reshapeCSV(data); err == nil {
			maps, err = gocsv.CSVToMaps(bytes.NewReader(fixed))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parse csv: %v", domain.ErrInvalidInput, err)
	}

	rows := make([]normalize.Record, 0, len(maps))
	for _, m := range maps {
		rec := make(normalize.Record, len(m))
		for k, v := range m {
			rec[k] = v
		}
		if normalize.HasTradeFields(rec) {
			rows = append(rows, rec)
		}
	}
	return rows, nil
}

// reshapeCSV relee sin exigir un número fijo de campos y reescribe cada fila
// con el ancho de la cabecera: sobrantes fuera, faltantes vacíos.
func reshapeCSV(data []byte) ([]byte, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return data, nil
	}

	width := len(records[0])
	ragged := 0
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, rec := range records {
		switch {
		case len(rec) > width:
			rec = rec[:width]
			ragged++
		case len(rec) < width:
			rec = append(rec, make([]string, width-len(rec))...)
			ragged++
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	slog.Debug("csv rows reshaped to header width", "rows", ragged, "width", width)
	return buf.Bytes(), nil
}
