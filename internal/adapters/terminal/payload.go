package terminal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/alejandrodnm/tradejournal/internal/domain"
	"github.com/alejandrodnm/tradejournal/internal/normalize"
)

// DecodeStatistics interpreta el payload del terminal como Statistics. Cada
// campo numérico ausente o no parseable queda en 0; no hay más validación.
func DecodeStatistics(data []byte) (domain.Statistics, error) {
	var s domain.Statistics

	raw, err := decodeObject(data)
	if err != nil {
		return s, &domain.TerminalError{Message: fmt.Sprintf("invalid terminal response: %v", err)}
	}
	if msg, ok := errorField(raw); ok {
		return s, &domain.TerminalError{Message: msg}
	}

	v := reflect.ValueOf(&s).Elem()
	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		key := strings.Split(typ.Field(i).Tag.Get("json"), ",")[0]
		val, ok := raw[key]
		if !ok {
			continue
		}
		field := v.Field(i)
		switch field.Kind() {
		case reflect.Int:
			field.SetInt(int64(normalize.Number(val)))
		case reflect.Float64:
			field.SetFloat(normalize.Number(val))
		case reflect.String:
			if str, ok := val.(string); ok {
				field.SetString(str)
			}
		}
	}
	return s, nil
}

// payloadError devuelve el mensaje si stdout es un objeto JSON con "error".
func payloadError(data []byte) (string, bool) {
	raw, err := decodeObject(data)
	if err != nil {
		return "", false
	}
	return errorField(raw)
}

func decodeObject(data []byte) (map[string]any, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty output")
	}
	// El script puede imprimir trazas antes del JSON: se usa la última línea.
	if i := bytes.LastIndexByte(data, '\n'); i >= 0 && data[0] != '{' {
		data = bytes.TrimSpace(data[i+1:])
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func errorField(raw map[string]any) (string, bool) {
	v, ok := raw["error"]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}
