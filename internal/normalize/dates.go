package normalize

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// Días entre el epoch de las hojas de cálculo (1899-12-30) y 1970-01-01.
	spreadsheetEpochOffset = 25569
	// Un número por encima de este valor se interpreta como serial de hoja de cálculo.
	serialThreshold = 1000
	// Serial de 9999-12-31; por encima el número es un timestamp Unix.
	maxSerial = 2958465
	// Último segundo (y milisegundo) de 9999-12-31 UTC.
	maxUnixSeconds = 253402300799
	maxUnixMillis  = maxUnixSeconds*1000 + 999
)

// nativeLayouts son los formatos de calendario "nativos" que se prueban primero.
// Los layouts sin zona se interpretan en la location configurada.
var nativeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"2006.01.02 15:04:05", // exports de terminal
	"2006.01.02 15:04",
	"2006.01.02",
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02 Jan 2006 15:04",
	"Mon Jan 2 2006",
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	time.RFC1123Z,
	time.RFC1123,
	time.ANSIC,
	time.UnixDate,
}

var (
	slashMDY  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})(?:[ T,]+(\d{1,2}):(\d{2})(?::(\d{2}))?\s*([AaPp][Mm])?)?$`)
	hyphenDMY = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})(?:[ T]+(\d{1,2}):(\d{2})(?::(\d{2}))?)?$`)
	dottedDMY = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})(?:[ T]+(\d{1,2}):(\d{2})(?::(\d{2}))?)?$`)
	digits    = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)
)

// dateStrategy intenta interpretar un string; ok=false si no aplica.
type dateStrategy func(s string, loc *time.Location) (time.Time, bool)

// dateStrategies en orden: la primera que produce una fecha válida gana.
// Las ambigüedades día/mes se resuelven por primer éxito, no por locale.
var dateStrategies = []dateStrategy{
	parseNative,
	parseSlashMDY,
	parseHyphenDMY,
	parseDottedDMY,
	parseSerialString,
}

// ParseDate resuelve un valor crudo a un instante válido. Nunca falla:
// si ninguna estrategia funciona devuelve now.
func ParseDate(v any, now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}

	switch x := v.(type) {
	case time.Time:
		if !x.IsZero() {
			return x
		}
		return now
	case string:
		return parseDateString(x, now, loc)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return fromNumber(f, now)
		}
		return parseDateString(string(x), now, loc)
	case nil, bool:
		return now
	}

	if f, ok := numeric(v); ok {
		return fromNumber(f, now)
	}
	return parseDateString(asString(v), now, loc)
}

func parseDateString(s string, now time.Time, loc *time.Location) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return now
	}
	for _, strategy := range dateStrategies {
		if t, ok := strategy(s, loc); ok {
			return t
		}
	}
	return now
}

// FromSerial convierte un serial de hoja de cálculo (días desde 1899-12-30)
// a UTC. La parte fraccionaria es la hora del día.
func FromSerial(serial float64) time.Time {
	ms := math.Round((serial - spreadsheetEpochOffset) * 86400000)
	return time.UnixMilli(int64(ms)).UTC()
}

func fromNumber(f float64, now time.Time) time.Time {
	if t, ok := numericDate(f); ok {
		return t
	}
	return now
}

// numericDate interpreta un número como fecha: serial de hoja de cálculo hasta
// el año 9999, luego segundos Unix y luego milisegundos Unix. Negativos, valores
// pequeños y cualquier cosa fuera de rango no son fecha.
func numericDate(f float64) (time.Time, bool) {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0) || f <= serialThreshold:
		return time.Time{}, false
	case f <= maxSerial:
		return FromSerial(f), true
	case f <= maxUnixSeconds:
		return time.Unix(int64(f), 0).UTC(), true
	case f <= maxUnixMillis:
		return time.UnixMilli(int64(f)).UTC(), true
	}
	return time.Time{}, false
}

func parseNative(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range nativeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseSlashMDY(s string, loc *time.Location) (time.Time, bool) {
	m := slashMDY.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	return buildDate(atoi(m[3]), atoi(m[1]), atoi(m[2]), m[4], m[5], m[6], m[7], loc)
}

func parseHyphenDMY(s string, loc *time.Location) (time.Time, bool) {
	m := hyphenDMY.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	return buildDate(atoi(m[3]), atoi(m[2]), atoi(m[1]), m[4], m[5], m[6], "", loc)
}

// parseDottedDMY cubre extractos europeos ("15.01.2024 10:30").
func parseDottedDMY(s string, loc *time.Location) (time.Time, bool) {
	m := dottedDMY.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	return buildDate(atoi(m[3]), atoi(m[2]), atoi(m[1]), m[4], m[5], m[6], "", loc)
}

// parseSerialString cubre CSVs exportados con la columna de fecha sin formato ("45000").
func parseSerialString(s string, _ *time.Location) (time.Time, bool) {
	if !digits.MatchString(s) {
		return time.Time{}, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, false
	}
	return numericDate(f)
}

// buildDate valida que año/mes/día formen una fecha real (sin normalizar 31/02).
func buildDate(year, month, day int, hh, mm, ss, ampm string, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	hour, minute, sec := 0, 0, 0
	if hh != "" {
		hour, minute = atoi(hh), atoi(mm)
		if ss != "" {
			sec = atoi(ss)
		}
		switch strings.ToLower(ampm) {
		case "pm":
			if hour < 12 {
				hour += 12
			}
		case "am":
			if hour == 12 {
				hour = 0
			}
		}
		if hour > 23 || minute > 59 || sec > 59 {
			return time.Time{}, false
		}
	}

	t := time.Date(year, time.Month(month), day, hour, minute, sec, 0, loc)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
