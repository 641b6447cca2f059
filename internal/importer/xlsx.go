package importer

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/alejandrodnm/tradejournal/internal/domain"
	"github.com/alejandrodnm/tradejournal/internal/normalize"
)

// extractXLSX usa la primera hoja con cabecera y datos. Las celdas se leen en
// crudo para que las fechas lleguen como seriales numéricos.
func extractXLSX(data []byte) ([]normalize.Record, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", domain.ErrInvalidInput, err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		grid, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("%w: read sheet %q: %v", domain.ErrInvalidInput, sheet, err)
		}
		header, body := splitHeader(grid)
		if header == nil || len(body) == 0 {
			continue
		}
		return sheetRecords(header, body), nil
	}
	return nil, nil
}

// splitHeader salta las filas vacías iniciales; la primera no vacía es la cabecera.
func splitHeader(grid [][]string) ([]string, [][]string) {
	for i, row := range grid {
		if !blankRow(row) {
			return row, grid[i+1:]
		}
	}
	return nil, nil
}

func sheetRecords(header []string, body [][]string) []normalize.Record {
	names := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "column_" + strconv.Itoa(i+1)
		}
		names[i] = h
	}

	rows := make([]normalize.Record, 0, len(body))
	for _, row := range body {
		if blankRow(row) {
			continue
		}
		rec := make(normalize.Record, len(names))
		for i, name := range names {
			if i < len(row) {
				rec[name] = cellValue(row[i])
			}
		}
		if normalize.HasTradeFields(rec) {
			rows = append(rows, rec)
		}
	}
	return rows
}

// cellValue devuelve float64 para celdas numéricas crudas y string para el resto.
func cellValue(raw string) any {
	s := strings.TrimSpace(raw)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
