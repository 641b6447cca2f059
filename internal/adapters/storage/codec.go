package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/alejandrodnm/tradejournal/internal/domain"
)

// timeLayout tiene ancho fijo: el orden lexicográfico coincide con el cronológico.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// filas escritas por otras herramientas
		if t, err2 := time.Parse(time.RFC3339Nano, s); err2 == nil {
			return t.UTC(), nil
		}
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t.UTC(), nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

func decodeTags(s string) ([]string, error) {
	tags := []string{}
	if strings.TrimSpace(s) == "" {
		return tags, nil
	}
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return nil, fmt.Errorf("decode tags %q: %w", s, err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

// validateTrade rechaza trades sin ID (el ledger está indexado por él) y
// fechas que timeLayout no puede representar con cuatro dígitos de año.
func validateTrade(t domain.Trade) error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: trade id is required", domain.ErrInvalidInput)
	}
	if !storableTime(t.Date) {
		return fmt.Errorf("%w: trade date %s out of range", domain.ErrInvalidInput, t.Date.Format(time.RFC3339))
	}
	if !storableTime(t.CreatedAt) {
		return fmt.Errorf("%w: trade created_at out of range", domain.ErrInvalidInput)
	}
	return nil
}

func storableTime(t time.Time) bool {
	y := t.UTC().Year()
	return y >= 1 && y <= 9999
}

// cloneTrade copia el slice de tags para que el llamante no comparta memoria
// con el almacén.
func cloneTrade(t domain.Trade) domain.Trade {
	tags := make([]string, len(t.Tags))
	copy(tags, t.Tags)
	t.Tags = tags
	return t
}
