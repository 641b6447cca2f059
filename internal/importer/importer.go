// Package importer extrae filas crudas de CSV, hojas de cálculo y PDFs y las
// pasa por el Normalizer. Solo la extracción bytes→Record depende del formato.
package importer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/alejandrodnm/tradejournal/internal/domain"
	"github.com/alejandrodnm/tradejournal/internal/normalize"
)

// Format es el tipo de origen de un import.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// DefaultMaxFileBytes limita el tamaño de un archivo importado (20 MiB).
const DefaultMaxFileBytes int64 = 20 << 20

// DetectFormat deduce el formato por extensión. Cualquier otra extensión se
// rechaza antes de parsear.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("importer.DetectFormat: %w: %q", domain.ErrUnsupportedFormat, filepath.Base(filename))
}

// Config del importer.
type Config struct {
	MaxFileBytes int64
}

// Importer convierte un archivo en una lista de trades ordenada por fecha.
type Importer struct {
	norm     *normalize.Normalizer
	maxBytes int64
}

// New crea un Importer que delega la normalización en n.
func New(n *normalize.Normalizer, cfg Config) *Importer {
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = DefaultMaxFileBytes
	}
	return &Importer{norm: n, maxBytes: cfg.MaxFileBytes}
}

// Import extrae las filas candidatas y las normaliza en lote. Devuelve
// domain.ErrNoValidTrades si ninguna fila sobrevive a la heurística.
func (im *Importer) Import(ctx context.Context, format Format, r io.Reader) ([]domain.Trade, error) {
	rows, err := im.Extract(ctx, format, r)
	if err != nil {
		return nil, err
	}

	trades, err := im.norm.Batch(rows)
	if err != nil {
		return nil, fmt.Errorf("importer.Import: %s: %w", format, err)
	}
	slog.Debug("import normalized", "format", format, "trades", len(trades))
	return trades, nil
}

// Extract devuelve los registros crudos que pasan la heurística de "fila de
// trade" del formato, sin normalizarlos.
func (im *Importer) Extract(ctx context.Context, format Format, r io.Reader) ([]normalize.Record, error) {
	extract, ok := extractors[format]
	if !ok {
		return nil, fmt.Errorf("importer.Extract: %w: %q", domain.ErrUnsupportedFormat, format)
	}

	data, err := im.read(r)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("importer.Extract: %w", err)
	}

	rows, err := extract(data)
	if err != nil {
		return nil, fmt.Errorf("importer.Extract: %s: %w", format, err)
	}
	slog.Debug("rows extracted", "format", format, "rows", len(rows), "bytes", len(data))
	return rows, nil
}

func (im *Importer) read(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, im.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("importer.read: %w", err)
	}
	if int64(len(data)) > im.maxBytes {
		return nil, fmt.Errorf("importer.read: %w: file exceeds %d bytes", domain.ErrInvalidInput, im.maxBytes)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("importer.read: %w", domain.ErrNoValidTrades)
	}
	return data, nil
}

type extractor func(data []byte) ([]normalize.Record, error)

var extractors = map[Format]extractor{
	FormatCSV:  extractCSV,
	FormatXLSX: extractXLSX,
	FormatPDF:  extractPDF,
}
